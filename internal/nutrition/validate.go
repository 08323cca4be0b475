package nutrition

import (
	"fmt"
	"math"
	"strings"

	"github.com/pulsehealth/pulse/internal/agent"
)

// Reasonable ranges for structural validation.
const (
	// MaxFoodCalories is the single-serving reasonableness ceiling.
	MaxFoodCalories = 2000
	// maxQuantity is the sanity ceiling for a single item quantity.
	maxQuantity = 10000
	// DefaultTolerancePercent is the allowed variance between reported
	// calories and calories computed from macronutrients.
	DefaultTolerancePercent = 10.0
)

// ValidateMealItem bounds-checks one meal item. All rules are evaluated
// independently and errors accumulate; nothing short-circuits. A failing
// item is still persisted, just flagged unverified for human review.
func ValidateMealItem(foodName string, quantity float64, calories *float64, confidence float64) (bool, []string) {
	var errs []string

	if len(strings.TrimSpace(foodName)) < 2 {
		errs = append(errs, "Food name must be at least 2 characters")
	}

	if quantity <= 0 {
		errs = append(errs, "Quantity must be greater than 0")
	}
	if quantity > maxQuantity {
		errs = append(errs, "Quantity seems unreasonably large")
	}

	if calories != nil {
		if *calories < 0 {
			errs = append(errs, "Calories cannot be negative")
		}
		if *calories > MaxFoodCalories {
			errs = append(errs, fmt.Sprintf("Calories exceed reasonable limit (%d)", MaxFoodCalories))
		}
	}

	if confidence < 0.0 || confidence > 1.0 {
		errs = append(errs, "Confidence score must be between 0.0 and 1.0")
	}

	return len(errs) == 0, errs
}

// MacroCalories computes total calories from a macronutrient breakdown
// using the standard Atwater factors: protein*4 + carbs*4 + fat*9.
func MacroCalories(m agent.Macronutrients) float64 {
	return m.ProteinGrams*4 + m.CarbsGrams*4 + m.FatGrams*9
}

// ValidateMacroTotal reports whether macronutrient-derived calories fall
// within tolerancePercent of the reported total. Purely advisory; it never
// blocks persistence. Zero or negative reported calories validate trivially.
func ValidateMacroTotal(calories float64, m agent.Macronutrients, tolerancePercent float64) bool {
	if calories <= 0 {
		return true
	}
	variance := math.Abs(MacroCalories(m)-calories) / calories * 100
	return variance <= tolerancePercent
}
