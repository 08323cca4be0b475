package agent

import "fmt"

// parsingPromptTemplate is the fixed instruction template for meal parsing.
// The output contract is a bare JSON array; anything else fails the parse.
const parsingPromptTemplate = `You are a nutrition expert AI assistant. Your task is to parse a meal description and extract:
1. Individual food items
2. Quantities and units
3. Estimated calorie content per serving

IMPORTANT: Respond ONLY with valid JSON, no other text.

Meal Description: %q

For each food item identified, provide:
- food_name: The name of the food item
- quantity: Numeric quantity
- unit: One of: GRAMS, ML, CUPS, PIECES, OUNCES, TABLESPOONS, TEASPOONS
- estimated_calories: Estimated calories for this quantity
- confidence_score: How confident you are (0.0-1.0) where 1.0 is very confident

Common approximations:
- 1 cup = 240 ml
- 1 tablespoon = 15 ml
- 1 ounce = 28 grams
- 1 piece (fruit) = varies, estimate ~100-150g

Respond with a JSON array of items:
[
  {
    "food_name": "string",
    "quantity": number,
    "unit": "string",
    "estimated_calories": number,
    "confidence_score": number
  }
]
`

// enrichmentPromptTemplate requests a macronutrient breakdown for a single
// already-identified item.
const enrichmentPromptTemplate = `You are a nutrition database AI. Provide detailed macronutrient information for:
Food: %s
Quantity: %g %s

Respond ONLY with valid JSON:
{
  "protein_grams": number,
  "carbs_grams": number,
  "fat_grams": number,
  "fiber_grams": number,
  "sugar_grams": number,
  "sodium_mg": number
}

If uncertain about exact values, provide reasonable estimates for a %g %s serving.
`

func buildParsingPrompt(description string) string {
	return fmt.Sprintf(parsingPromptTemplate, description)
}

func buildEnrichmentPrompt(foodName string, quantity float64, unit Unit) string {
	return fmt.Sprintf(enrichmentPromptTemplate, foodName, quantity, unit, quantity, unit)
}
