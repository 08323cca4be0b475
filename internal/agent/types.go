package agent

// Unit is a measurement unit for a food quantity.
type Unit string

const (
	UnitGrams       Unit = "GRAMS"
	UnitML          Unit = "ML"
	UnitCups        Unit = "CUPS"
	UnitPieces      Unit = "PIECES"
	UnitOunces      Unit = "OUNCES"
	UnitTablespoons Unit = "TABLESPOONS"
	UnitTeaspoons   Unit = "TEASPOONS"
)

// ValidUnits is the fixed set of units the parser accepts from the model.
var ValidUnits = []Unit{
	UnitGrams, UnitML, UnitCups, UnitPieces,
	UnitOunces, UnitTablespoons, UnitTeaspoons,
}

// IsValidUnit reports whether u (already uppercased) is a member of ValidUnits.
func IsValidUnit(u Unit) bool {
	for _, v := range ValidUnits {
		if u == v {
			return true
		}
	}
	return false
}

// Source tags the provenance of a meal item.
type Source string

const (
	SourceUserInput        Source = "USER_INPUT"
	SourceAgentic          Source = "AGENTIC_IDENTIFIED"
	SourceDatabaseMatched  Source = "DATABASE_MATCHED"
	SourceManualCorrection Source = "MANUAL_CORRECTION"
)

// ParsedFoodItem is a single food item extracted from a meal description.
// Immutable once produced by the parser.
type ParsedFoodItem struct {
	FoodName          string   `json:"food_name"`
	Quantity          float64  `json:"quantity"`
	Unit              Unit     `json:"unit"`
	EstimatedCalories *float64 `json:"estimated_calories,omitempty"`
	ConfidenceScore   float64  `json:"confidence_score"`
}

// MealParseResult is the outcome of parsing one meal description.
type MealParseResult struct {
	Items []ParsedFoodItem `json:"items"`
	// OverallConfidence is the arithmetic mean of item confidences,
	// 0.0 for an empty item list.
	OverallConfidence float64 `json:"overall_confidence"`
	// RequiresVerification is true iff any item confidence is below 0.6.
	RequiresVerification bool `json:"requires_verification"`
	// Warnings records every field the parser silently defaulted or
	// normalized, so the leniency policy stays observable.
	Warnings []string `json:"warnings,omitempty"`
}

// Macronutrients is a per-item nutrient breakdown.
type Macronutrients struct {
	ProteinGrams float64 `json:"protein_grams"`
	CarbsGrams   float64 `json:"carbs_grams"`
	FatGrams     float64 `json:"fat_grams"`
	FiberGrams   float64 `json:"fiber_grams"`
	SugarGrams   float64 `json:"sugar_grams"`
	SodiumMg     float64 `json:"sodium_mg"`
}

// EnrichedItem is a parsed item plus optional macronutrient data and a
// provenance tag. Matching against the food reference table may override
// calories and confidence, never quantity or unit.
type EnrichedItem struct {
	ParsedFoodItem
	Macronutrients *Macronutrients `json:"macronutrients,omitempty"`
	Source         Source          `json:"source"`
}
