package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/pulsehealth/pulse/internal/llm"
)

// Token budgets for the two gateway calls.
const (
	parseMaxTokens  = 500
	enrichMaxTokens = 200
)

// Coercion defaults for fields the model omitted or mangled.
const (
	defaultFoodName   = "Unknown"
	defaultConfidence = 0.5
)

// verificationThreshold is the confidence below which an item flags the
// whole meal for human verification.
const verificationThreshold = 0.6

// ParseError indicates the model response was not valid JSON. The parser
// does not attempt to extract JSON embedded in surrounding prose.
type ParseError struct {
	Err error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parsing model response: %v", e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// Agent parses free-text meal descriptions into structured items and
// enriches items with macronutrient estimates, both via the LLM gateway.
type Agent struct {
	provider llm.Provider
	logger   *zap.Logger
}

// New creates an Agent on top of the given provider.
func New(provider llm.Provider, logger *zap.Logger) *Agent {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Agent{provider: provider, logger: logger}
}

// ParseMeal extracts food items from a free-text meal description.
//
// The model response must be a bare JSON array. Each element is coerced
// leniently: missing or non-numeric quantity defaults to 0, missing or
// non-numeric confidence to 0.5, unknown units to GRAMS, a missing name to
// "Unknown". Every such default is recorded in the result's Warnings.
// Out-of-range confidences are clamped into [0,1].
//
// Both gateway failures and malformed JSON surface as a wrapped
// "meal parsing failed" error; bad JSON additionally matches *ParseError.
func (a *Agent) ParseMeal(ctx context.Context, description string) (*MealParseResult, error) {
	prompt := buildParsingPrompt(description)

	raw, err := a.provider.Generate(ctx, prompt, parseMaxTokens)
	if err != nil {
		return nil, fmt.Errorf("meal parsing failed: %w", err)
	}

	var rawItems []map[string]any
	if err := json.Unmarshal([]byte(raw), &rawItems); err != nil {
		return nil, fmt.Errorf("meal parsing failed: %w", &ParseError{Err: err})
	}

	result := &MealParseResult{Items: make([]ParsedFoodItem, 0, len(rawItems))}

	var confidenceSum float64
	for i, rawItem := range rawItems {
		item := coerceItem(i, rawItem, &result.Warnings)
		result.Items = append(result.Items, item)
		confidenceSum += item.ConfidenceScore
		if item.ConfidenceScore < verificationThreshold {
			result.RequiresVerification = true
		}
	}

	if len(result.Items) > 0 {
		result.OverallConfidence = confidenceSum / float64(len(result.Items))
	}

	if len(result.Warnings) > 0 {
		a.logger.Debug("coerced malformed model fields",
			zap.Int("items", len(result.Items)),
			zap.Strings("warnings", result.Warnings))
	}

	return result, nil
}

// coerceItem applies the leniency policy to one raw item, appending a
// warning for every field it has to default, normalize, or clamp.
func coerceItem(idx int, raw map[string]any, warnings *[]string) ParsedFoodItem {
	warn := func(format string, args ...any) {
		*warnings = append(*warnings, fmt.Sprintf("item %d: ", idx)+fmt.Sprintf(format, args...))
	}

	item := ParsedFoodItem{}

	if name, ok := raw["food_name"].(string); ok && name != "" {
		item.FoodName = name
	} else {
		item.FoodName = defaultFoodName
		warn("missing food_name, defaulted to %q", defaultFoodName)
	}

	if qty, ok := toNumber(raw["quantity"]); ok {
		item.Quantity = qty
	} else {
		warn("missing or non-numeric quantity, defaulted to 0")
	}

	unitStr, _ := raw["unit"].(string)
	unit := Unit(strings.ToUpper(unitStr))
	if IsValidUnit(unit) {
		item.Unit = unit
	} else {
		item.Unit = UnitGrams
		warn("invalid unit %q, normalized to GRAMS", unitStr)
	}

	if rawCal, present := raw["estimated_calories"]; present && rawCal != nil {
		if cal, ok := toNumber(rawCal); ok {
			item.EstimatedCalories = &cal
		} else {
			warn("non-numeric estimated_calories dropped")
		}
	}

	if conf, ok := toNumber(raw["confidence_score"]); ok {
		item.ConfidenceScore = conf
	} else {
		item.ConfidenceScore = defaultConfidence
		warn("missing or non-numeric confidence_score, defaulted to %g", defaultConfidence)
	}
	if item.ConfidenceScore < 0 {
		warn("confidence_score %g clamped to 0", item.ConfidenceScore)
		item.ConfidenceScore = 0
	} else if item.ConfidenceScore > 1 {
		warn("confidence_score %g clamped to 1", item.ConfidenceScore)
		item.ConfidenceScore = 1
	}

	return item
}

// toNumber coerces a decoded JSON value to a float64. Numbers pass through;
// numeric strings parse; everything else fails.
func toNumber(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		if err != nil {
			return 0, false
		}
		return f, true
	default:
		return 0, false
	}
}
