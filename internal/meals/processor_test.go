package meals

import (
	"context"
	"math"
	"strings"
	"testing"

	"go.uber.org/zap"

	"github.com/pulsehealth/pulse/internal/agent"
	"github.com/pulsehealth/pulse/internal/db"
	"github.com/pulsehealth/pulse/internal/foods"
	"github.com/pulsehealth/pulse/internal/nutrition"
)

// scriptedProvider answers the parse prompt with parseResponse and every
// enrichment prompt with enrichResponse.
type scriptedProvider struct {
	parseResponse  string
	enrichResponse string
}

func (p *scriptedProvider) Generate(_ context.Context, prompt string, _ int) (string, error) {
	if strings.Contains(prompt, "JSON array") {
		return p.parseResponse, nil
	}
	return p.enrichResponse, nil
}

func (p *scriptedProvider) Name() string { return "scripted" }

func setupProcessor(t *testing.T, provider *scriptedProvider) (*Processor, *Store, *nutrition.SummaryStore, *foods.Store) {
	t.Helper()
	database, err := db.OpenMemory()
	if err != nil {
		t.Fatalf("OpenMemory: %v", err)
	}
	t.Cleanup(func() { database.Close() })

	mealStore := NewStore(database)
	foodStore := foods.NewStore(database)
	summaryStore := nutrition.NewSummaryStore(database)
	ag := agent.New(provider, zap.NewNop())
	proc := NewProcessor(ag, foodStore, mealStore, summaryStore, zap.NewNop(), 2)
	return proc, mealStore, summaryStore, foodStore
}

func TestProcessWithAgentPersistsAndAggregates(t *testing.T) {
	provider := &scriptedProvider{
		parseResponse: `[
			{"food_name": "Oatmeal", "quantity": 50, "unit": "grams", "estimated_calories": 300, "confidence_score": 0.9},
			{"food_name": "Banana", "quantity": 1, "unit": "pieces", "estimated_calories": 450, "confidence_score": 0.8}
		]`,
		enrichResponse: `{"protein_grams": 5, "carbs_grams": 27, "fat_grams": 3, "fiber_grams": 4, "sugar_grams": 1, "sodium_mg": 2}`,
	}
	proc, _, summaries, _ := setupProcessor(t, provider)
	ctx := context.Background()

	entry, parsed, err := proc.ProcessWithAgent(ctx, "u1", MealBreakfast,
		"oatmeal with a banana", "2025-06-01", "")
	if err != nil {
		t.Fatalf("ProcessWithAgent: %v", err)
	}
	if !entry.Processed {
		t.Error("entry should be marked processed")
	}
	if entry.OriginalLog != "oatmeal with a banana" {
		t.Errorf("OriginalLog = %q", entry.OriginalLog)
	}
	if len(entry.Items) != 2 {
		t.Fatalf("expected 2 items, got %d", len(entry.Items))
	}
	if parsed.RequiresVerification {
		t.Error("confidences 0.9/0.8 must not flag verification")
	}
	for _, item := range entry.Items {
		if item.Source != agent.SourceAgentic {
			t.Errorf("item %s source = %s, want AGENTIC_IDENTIFIED", item.FoodName, item.Source)
		}
		if item.Macros == nil {
			t.Errorf("item %s missing macros", item.FoodName)
		}
	}

	sum, err := summaries.Get(ctx, "u1", "2025-06-01")
	if err != nil {
		t.Fatalf("summary Get: %v", err)
	}
	if sum.TotalCalories != 750 {
		t.Errorf("TotalCalories = %g, want 750", sum.TotalCalories)
	}
	if sum.MealCount != 1 {
		t.Errorf("MealCount = %d, want 1", sum.MealCount)
	}
	if sum.TotalProtein != 10 {
		t.Errorf("TotalProtein = %g, want 10 (5 per item)", sum.TotalProtein)
	}
}

func TestProcessWithAgentFoodMatchOverride(t *testing.T) {
	provider := &scriptedProvider{
		parseResponse:  `[{"food_name": "a large apple", "quantity": 1, "unit": "pieces", "estimated_calories": 120, "confidence_score": 0.7}]`,
		enrichResponse: `{"protein_grams": 0.5, "carbs_grams": 25, "fat_grams": 0.3, "fiber_grams": 4, "sugar_grams": 19, "sodium_mg": 2}`,
	}
	proc, _, _, foodStore := setupProcessor(t, provider)
	ctx := context.Background()

	cal := 95.0
	if _, err := foodStore.Create(ctx, foods.Food{
		FoodName: "Green Apple", ServingSize: 1, ServingUnit: "PIECES",
		CaloriesPerServing: &cal, Verified: true,
	}); err != nil {
		t.Fatalf("seeding food: %v", err)
	}

	entry, _, err := proc.ProcessWithAgent(ctx, "u1", MealSnack, "a large apple", "2025-06-01", "")
	if err != nil {
		t.Fatalf("ProcessWithAgent: %v", err)
	}

	item := entry.Items[0]
	if item.Source != agent.SourceDatabaseMatched {
		t.Errorf("Source = %s, want DATABASE_MATCHED", item.Source)
	}
	if item.Calories == nil || *item.Calories != 95 {
		t.Errorf("Calories = %v, want database value 95", item.Calories)
	}
	// 0.7 + 0.2 boost.
	if math.Abs(item.Confidence-0.9) > 1e-9 {
		t.Errorf("Confidence = %g, want 0.9", item.Confidence)
	}
	if item.Quantity != 1 || item.Unit != agent.UnitPieces {
		t.Errorf("match must not touch quantity/unit: %+v", item)
	}
}

func TestParseAndEnrichConfidenceBoostCapped(t *testing.T) {
	provider := &scriptedProvider{
		parseResponse:  `[{"food_name": "banana split", "quantity": 1, "unit": "pieces", "confidence_score": 0.95}]`,
		enrichResponse: `{}`,
	}
	proc, _, _, foodStore := setupProcessor(t, provider)
	ctx := context.Background()

	if _, err := foodStore.Create(ctx, foods.Food{
		FoodName: "Banana", ServingSize: 1, ServingUnit: "PIECES",
	}); err != nil {
		t.Fatalf("seeding food: %v", err)
	}

	parsed, err := proc.ParseAndEnrich(ctx, "banana split")
	if err != nil {
		t.Fatalf("ParseAndEnrich: %v", err)
	}
	if got := parsed.Items[0].ConfidenceScore; got != 1.0 {
		t.Errorf("boosted confidence = %g, want capped at 1.0", got)
	}
	// Matched entry has no calories; the model estimate (absent here) stays.
	if parsed.Items[0].EstimatedCalories != nil {
		t.Errorf("calories should stay nil when the matched entry has none")
	}
}

func TestProcessManual(t *testing.T) {
	proc, store, summaries, _ := setupProcessor(t, &scriptedProvider{})
	ctx := context.Background()

	cal := 500.0
	entry, err := proc.ProcessManual(ctx, "u1", MealDinner, "homemade pasta", "2025-06-02", "19:30",
		[]Item{{FoodName: "Pasta", Quantity: 200, Unit: agent.UnitGrams, Calories: &cal,
			Macros: &agent.Macronutrients{ProteinGrams: 18, CarbsGrams: 95, FatGrams: 4}}})
	if err != nil {
		t.Fatalf("ProcessManual: %v", err)
	}

	got, err := store.GetByID(ctx, "u1", entry.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	// Manual entries are not machine-processed but still keep the log text.
	if got.Processed {
		t.Error("manual entry must not be marked processed")
	}
	if got.OriginalLog != "homemade pasta" {
		t.Errorf("OriginalLog = %q, want the entered description", got.OriginalLog)
	}
	item := got.Items[0]
	if item.Source != agent.SourceUserInput || item.Confidence != 1.0 || !item.Verified {
		t.Errorf("manual item must be USER_INPUT/1.0/verified: %+v", item)
	}
	if item.Macros == nil || item.Macros.CarbsGrams != 95 {
		t.Errorf("macros not stored verbatim: %+v", item.Macros)
	}

	sum, err := summaries.Get(ctx, "u1", "2025-06-02")
	if err != nil {
		t.Fatalf("summary Get: %v", err)
	}
	if sum.TotalCalories != 500 || sum.TotalCarbs != 95 {
		t.Errorf("summary not recomputed: %+v", sum)
	}
}

func TestUpdateMealDateMoveRecomputesBothDates(t *testing.T) {
	proc, _, summaries, _ := setupProcessor(t, &scriptedProvider{})
	ctx := context.Background()

	cal := 400.0
	entry, err := proc.ProcessManual(ctx, "u1", MealLunch, "sandwich", "2025-06-01", "",
		[]Item{{FoodName: "Sandwich", Quantity: 1, Unit: agent.UnitPieces, Calories: &cal}})
	if err != nil {
		t.Fatalf("ProcessManual: %v", err)
	}

	newDate := "2025-06-02"
	if _, err := proc.UpdateMeal(ctx, "u1", entry.ID, EntryUpdate{MealDate: &newDate}); err != nil {
		t.Fatalf("UpdateMeal: %v", err)
	}

	oldSum, err := summaries.Get(ctx, "u1", "2025-06-01")
	if err != nil {
		t.Fatalf("old summary: %v", err)
	}
	if oldSum.TotalCalories != 0 || oldSum.MealCount != 0 {
		t.Errorf("old date not zeroed out: %+v", oldSum)
	}

	newSum, err := summaries.Get(ctx, "u1", newDate)
	if err != nil {
		t.Fatalf("new summary: %v", err)
	}
	if newSum.TotalCalories != 400 || newSum.MealCount != 1 {
		t.Errorf("new date not recomputed: %+v", newSum)
	}
}

func TestDeleteMealRecomputes(t *testing.T) {
	proc, _, summaries, _ := setupProcessor(t, &scriptedProvider{})
	ctx := context.Background()

	cal := 400.0
	entry, err := proc.ProcessManual(ctx, "u1", MealLunch, "sandwich", "2025-06-01", "",
		[]Item{{FoodName: "Sandwich", Quantity: 1, Unit: agent.UnitPieces, Calories: &cal}})
	if err != nil {
		t.Fatalf("ProcessManual: %v", err)
	}

	if err := proc.DeleteMeal(ctx, "u1", entry.ID); err != nil {
		t.Fatalf("DeleteMeal: %v", err)
	}
	sum, err := summaries.Get(ctx, "u1", "2025-06-01")
	if err != nil {
		t.Fatalf("summary Get: %v", err)
	}
	if sum.TotalCalories != 0 || sum.MealCount != 0 {
		t.Errorf("summary not reset after delete: %+v", sum)
	}
}

func TestUpdateItemRecomputes(t *testing.T) {
	proc, _, summaries, _ := setupProcessor(t, &scriptedProvider{})
	ctx := context.Background()

	cal := 400.0
	entry, err := proc.ProcessManual(ctx, "u1", MealLunch, "sandwich", "2025-06-01", "",
		[]Item{{FoodName: "Sandwich", Quantity: 1, Unit: agent.UnitPieces, Calories: &cal}})
	if err != nil {
		t.Fatalf("ProcessManual: %v", err)
	}

	newCal := 550.0
	if _, err := proc.UpdateItem(ctx, "u1", entry.ID, entry.Items[0].ID,
		ItemUpdate{Calories: &newCal}); err != nil {
		t.Fatalf("UpdateItem: %v", err)
	}

	sum, err := summaries.Get(ctx, "u1", "2025-06-01")
	if err != nil {
		t.Fatalf("summary Get: %v", err)
	}
	if sum.TotalCalories != 550 {
		t.Errorf("TotalCalories = %g, want 550", sum.TotalCalories)
	}
}

func TestParseAndEnrichDisabled(t *testing.T) {
	provider := &scriptedProvider{
		parseResponse:  `[{"food_name": "Toast", "quantity": 2, "unit": "pieces", "estimated_calories": 160, "confidence_score": 0.9}]`,
		enrichResponse: `{"protein_grams": 5, "carbs_grams": 28, "fat_grams": 2}`,
	}
	proc, _, _, _ := setupProcessor(t, provider)
	proc.SetAutoEnrich(false)

	parsed, err := proc.ParseAndEnrich(context.Background(), "two slices of toast")
	if err != nil {
		t.Fatalf("ParseAndEnrich: %v", err)
	}
	if parsed.Items[0].Macronutrients != nil {
		t.Error("enrichment disabled, macros must be absent")
	}
	if parsed.Items[0].EstimatedCalories == nil || *parsed.Items[0].EstimatedCalories != 160 {
		t.Error("parse output must be untouched when enrichment is off")
	}
}

func TestProcessWithAgentVerificationIsPerItemStructural(t *testing.T) {
	provider := &scriptedProvider{
		parseResponse: `[
			{"food_name": "grilled chicken", "quantity": 150, "unit": "grams", "estimated_calories": 250, "confidence_score": 0.9},
			{"food_name": "mystery stew", "quantity": 300, "unit": "grams", "estimated_calories": 350, "confidence_score": 0.4}
		]`,
		enrichResponse: `{}`,
	}
	proc, _, _, _ := setupProcessor(t, provider)

	entry, parsed, err := proc.ProcessWithAgent(context.Background(), "u1", MealDinner,
		"chicken and some stew", "2025-06-01", "")
	if err != nil {
		t.Fatalf("ProcessWithAgent: %v", err)
	}
	if !parsed.RequiresVerification {
		t.Error("confidence 0.4 must flag meal-level verification")
	}
	// An item's verified flag reflects its own structural validity only;
	// a low-confidence sibling must not unverify it.
	if !entry.Items[0].Verified {
		t.Error("structurally valid item must stay verified despite a low-confidence sibling")
	}
	if !entry.Items[1].Verified {
		t.Error("low confidence alone is not a structural failure; item stays verified")
	}
}

func TestProcessWithAgentStructuralFailureUnverified(t *testing.T) {
	provider := &scriptedProvider{
		parseResponse:  `[{"food_name": "feast", "quantity": 100, "unit": "grams", "estimated_calories": 2500, "confidence_score": 0.9}]`,
		enrichResponse: `{}`,
	}
	proc, _, _, _ := setupProcessor(t, provider)

	entry, _, err := proc.ProcessWithAgent(context.Background(), "u1", MealDinner,
		"a feast", "2025-06-01", "")
	if err != nil {
		t.Fatalf("ProcessWithAgent: %v", err)
	}
	// 2500 kcal exceeds the single-item ceiling, so validation fails.
	if entry.Items[0].Verified {
		t.Error("item failing structural validation must be stored unverified")
	}
}

func TestFoodMatchBoostDoesNotClearVerification(t *testing.T) {
	provider := &scriptedProvider{
		parseResponse:  `[{"food_name": "apple slices", "quantity": 1, "unit": "pieces", "estimated_calories": 120, "confidence_score": 0.5}]`,
		enrichResponse: `{}`,
	}
	proc, _, _, foodStore := setupProcessor(t, provider)
	ctx := context.Background()

	cal := 95.0
	if _, err := foodStore.Create(ctx, foods.Food{
		FoodName: "Green Apple", ServingSize: 1, ServingUnit: "PIECES",
		CaloriesPerServing: &cal, Verified: true,
	}); err != nil {
		t.Fatalf("seeding food: %v", err)
	}

	parsed, err := proc.ParseAndEnrich(ctx, "apple slices")
	if err != nil {
		t.Fatalf("ParseAndEnrich: %v", err)
	}

	// The boost raises per-item confidence past the threshold...
	if math.Abs(parsed.Items[0].ConfidenceScore-0.7) > 1e-9 {
		t.Errorf("item confidence = %g, want 0.7 after boost", parsed.Items[0].ConfidenceScore)
	}
	// ...but the meal-level flag and overall confidence are fixed at
	// parse time and must not move.
	if !parsed.RequiresVerification {
		t.Error("verification flag set at parse time must survive the match boost")
	}
	if parsed.OverallConfidence != 0.5 {
		t.Errorf("OverallConfidence = %g, want parse-time 0.5", parsed.OverallConfidence)
	}
}
