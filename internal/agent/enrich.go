package agent

import (
	"context"
	"encoding/json"

	"go.uber.org/zap"
)

// EnrichNutrition asks the model for a macronutrient breakdown of a single
// item. Failures are isolated by design: on any error (gateway, JSON,
// coercion) it returns nil rather than failing the caller, and the meal
// proceeds without macronutrient data for that item.
func (a *Agent) EnrichNutrition(ctx context.Context, foodName string, quantity float64, unit Unit) *Macronutrients {
	prompt := buildEnrichmentPrompt(foodName, quantity, unit)

	raw, err := a.provider.Generate(ctx, prompt, enrichMaxTokens)
	if err != nil {
		a.logger.Warn("nutrition enrichment failed",
			zap.String("food", foodName), zap.Error(err))
		return nil
	}

	var fields map[string]any
	if err := json.Unmarshal([]byte(raw), &fields); err != nil {
		a.logger.Warn("nutrition enrichment returned invalid JSON",
			zap.String("food", foodName), zap.Error(err))
		return nil
	}

	num := func(key string) float64 {
		n, ok := toNumber(fields[key])
		if !ok {
			return 0
		}
		return n
	}

	return &Macronutrients{
		ProteinGrams: num("protein_grams"),
		CarbsGrams:   num("carbs_grams"),
		FatGrams:     num("fat_grams"),
		FiberGrams:   num("fiber_grams"),
		SugarGrams:   num("sugar_grams"),
		SodiumMg:     num("sodium_mg"),
	}
}
