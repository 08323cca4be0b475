package meals

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/pulsehealth/pulse/internal/agent"
	"github.com/pulsehealth/pulse/internal/foods"
	"github.com/pulsehealth/pulse/internal/nutrition"
)

// matchConfidenceBoost is added to an item's confidence when its name
// matches a food database entry.
const matchConfidenceBoost = 0.2

// ParsedMeal is the outcome of parsing and enriching one description,
// before anything is persisted.
type ParsedMeal struct {
	Items                []agent.EnrichedItem `json:"items"`
	OverallConfidence    float64              `json:"overall_confidence"`
	RequiresVerification bool                 `json:"requires_verification"`
	Warnings             []string             `json:"warnings,omitempty"`
}

// Processor drives the meal pipeline: model parsing, concurrent nutrient
// enrichment, food database cross-referencing, validation, persistence,
// and daily summary recomputation.
type Processor struct {
	agent       *agent.Agent
	foods       *foods.Store
	meals       *Store
	summaries   *nutrition.SummaryStore
	logger      *zap.Logger
	enrichLimit int
	tolerance   float64
	autoEnrich  bool
}

// NewProcessor wires a Processor. enrichLimit bounds concurrent enrichment
// calls; values below 1 fall back to 4.
func NewProcessor(ag *agent.Agent, foodStore *foods.Store, mealStore *Store,
	summaryStore *nutrition.SummaryStore, logger *zap.Logger, enrichLimit int) *Processor {
	if logger == nil {
		logger = zap.NewNop()
	}
	if enrichLimit < 1 {
		enrichLimit = 4
	}
	return &Processor{
		agent:       ag,
		foods:       foodStore,
		meals:       mealStore,
		summaries:   summaryStore,
		logger:      logger,
		enrichLimit: enrichLimit,
		tolerance:   nutrition.DefaultTolerancePercent,
		autoEnrich:  true,
	}
}

// SetMacroTolerance overrides the advisory macro consistency tolerance.
// Non-positive values are ignored.
func (p *Processor) SetMacroTolerance(pct float64) {
	if pct > 0 {
		p.tolerance = pct
	}
}

// SetAutoEnrich toggles model macronutrient enrichment. When off, parsed
// items are stored without macro breakdowns.
func (p *Processor) SetAutoEnrich(on bool) {
	p.autoEnrich = on
}

// ParseAndEnrich parses a free-text description, enriches each item with
// macronutrients concurrently, and cross-references the food database.
// Nothing is persisted. Item order matches the parse order regardless of
// enrichment completion order.
func (p *Processor) ParseAndEnrich(ctx context.Context, description string) (*ParsedMeal, error) {
	result, err := p.agent.ParseMeal(ctx, description)
	if err != nil {
		return nil, err
	}

	enriched := make([]agent.EnrichedItem, len(result.Items))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.enrichLimit)
	for i, item := range result.Items {
		g.Go(func() error {
			enriched[i] = agent.EnrichedItem{
				ParsedFoodItem: item,
				Source:         agent.SourceAgentic,
			}
			if p.autoEnrich {
				enriched[i].Macronutrients = p.agent.EnrichNutrition(gctx, item.FoodName, item.Quantity, item.Unit)
			}
			return nil
		})
	}
	// Enrichment never returns an error; the group is used for bounding
	// concurrency and context propagation.
	g.Wait()

	// Cross-reference sequentially: the lookup is a local index scan and
	// the first-match semantics stay deterministic.
	for i := range enriched {
		p.applyFoodMatch(ctx, &enriched[i])
	}

	// Overall confidence and the verification flag are fixed at parse
	// time; the match boost raises per-item confidence only and never
	// clears a verification requirement.
	return &ParsedMeal{
		Items:                enriched,
		OverallConfidence:    result.OverallConfidence,
		RequiresVerification: result.RequiresVerification,
		Warnings:             result.Warnings,
	}, nil
}

// applyFoodMatch overrides an item's calories with the database value and
// boosts its confidence when a reference entry matches. Quantity and unit
// are never touched.
func (p *Processor) applyFoodMatch(ctx context.Context, item *agent.EnrichedItem) {
	match, err := p.foods.FindSimilar(ctx, item.FoodName)
	if err != nil {
		p.logger.Warn("food database lookup failed",
			zap.String("food", item.FoodName), zap.Error(err))
		return
	}
	if match == nil {
		return
	}

	if match.CaloriesPerServing != nil {
		cal := *match.CaloriesPerServing
		item.EstimatedCalories = &cal
	}
	item.ConfidenceScore = min(1.0, item.ConfidenceScore+matchConfidenceBoost)
	item.Source = agent.SourceDatabaseMatched

	p.logger.Debug("matched food database entry",
		zap.String("food", item.FoodName),
		zap.String("matched", match.FoodName))
}

// ProcessWithAgent runs the full pipeline for one meal description and
// persists the result: parse, enrich, match, validate, store, recompute.
func (p *Processor) ProcessWithAgent(ctx context.Context, userID string, mealType MealType,
	description, date, mealTime string) (*Entry, *ParsedMeal, error) {

	parsed, err := p.ParseAndEnrich(ctx, description)
	if err != nil {
		return nil, nil, fmt.Errorf("meal processing failed: %w", err)
	}

	entry := &Entry{
		UserID:      userID,
		MealType:    mealType,
		Description: description,
		MealDate:    date,
		MealTime:    mealTime,
		Processed:   true,
		OriginalLog: description,
	}

	for _, item := range parsed.Items {
		valid, reasons := nutrition.ValidateMealItem(item.FoodName, item.Quantity,
			item.EstimatedCalories, item.ConfidenceScore)
		if !valid {
			p.logger.Warn("meal item failed validation",
				zap.String("food", item.FoodName),
				zap.String("reasons", strings.Join(reasons, "; ")))
		}
		p.checkMacroConsistency(item)

		entry.Items = append(entry.Items, Item{
			FoodName:   item.FoodName,
			Quantity:   item.Quantity,
			Unit:       item.Unit,
			Calories:   item.EstimatedCalories,
			Verified:   valid,
			Source:     item.Source,
			Confidence: item.ConfidenceScore,
			Macros:     item.Macronutrients,
		})
	}

	if err := p.meals.Create(ctx, entry); err != nil {
		return nil, nil, fmt.Errorf("meal processing failed: %w", err)
	}
	if _, err := p.summaries.Recompute(ctx, userID, date); err != nil {
		return nil, nil, fmt.Errorf("meal processing failed: %w", err)
	}
	return entry, parsed, nil
}

// ProcessManual persists a user-entered meal without any model involvement.
// Manual items carry full confidence and skip verification. The entry is
// not marked processed: that flag means machine-processed.
func (p *Processor) ProcessManual(ctx context.Context, userID string, mealType MealType,
	description, date, mealTime string, items []Item) (*Entry, error) {

	entry := &Entry{
		UserID:      userID,
		MealType:    mealType,
		Description: description,
		MealDate:    date,
		MealTime:    mealTime,
		Processed:   false,
		OriginalLog: description,
	}
	for _, item := range items {
		item.Source = agent.SourceUserInput
		item.Confidence = 1.0
		item.Verified = true
		entry.Items = append(entry.Items, item)
	}

	if err := p.meals.Create(ctx, entry); err != nil {
		return nil, err
	}
	if _, err := p.summaries.Recompute(ctx, userID, date); err != nil {
		return nil, err
	}
	return entry, nil
}

// UpdateMeal applies a partial update and recomputes the summaries of every
// affected date. Moving a meal across dates touches both the old and the
// new date's totals.
func (p *Processor) UpdateMeal(ctx context.Context, userID, mealID string, upd EntryUpdate) (*Entry, error) {
	before, err := p.meals.GetByID(ctx, userID, mealID)
	if err != nil {
		return nil, err
	}

	updated, err := p.meals.Update(ctx, userID, mealID, upd)
	if err != nil {
		return nil, err
	}

	if _, err := p.summaries.Recompute(ctx, userID, updated.MealDate); err != nil {
		return nil, err
	}
	if before.MealDate != updated.MealDate {
		if _, err := p.summaries.Recompute(ctx, userID, before.MealDate); err != nil {
			return nil, err
		}
	}
	return updated, nil
}

// DeleteMeal removes a meal and recomputes its date's summary.
func (p *Processor) DeleteMeal(ctx context.Context, userID, mealID string) error {
	entry, err := p.meals.GetByID(ctx, userID, mealID)
	if err != nil {
		return err
	}
	if err := p.meals.Delete(ctx, userID, mealID); err != nil {
		return err
	}
	_, err = p.summaries.Recompute(ctx, userID, entry.MealDate)
	return err
}

// AddItem appends an item to a meal and recomputes its date's summary.
func (p *Processor) AddItem(ctx context.Context, userID, mealID string, item *Item) error {
	entry, err := p.meals.GetByID(ctx, userID, mealID)
	if err != nil {
		return err
	}
	if err := p.meals.AddItem(ctx, userID, mealID, item); err != nil {
		return err
	}
	_, err = p.summaries.Recompute(ctx, userID, entry.MealDate)
	return err
}

// UpdateItem mutates an item and recomputes its date's summary.
func (p *Processor) UpdateItem(ctx context.Context, userID, mealID, itemID string, upd ItemUpdate) (*Item, error) {
	entry, err := p.meals.GetByID(ctx, userID, mealID)
	if err != nil {
		return nil, err
	}
	item, err := p.meals.UpdateItem(ctx, userID, mealID, itemID, upd)
	if err != nil {
		return nil, err
	}
	if _, err := p.summaries.Recompute(ctx, userID, entry.MealDate); err != nil {
		return nil, err
	}
	return item, nil
}

// DeleteItem removes an item and recomputes its date's summary.
func (p *Processor) DeleteItem(ctx context.Context, userID, mealID, itemID string) error {
	entry, err := p.meals.GetByID(ctx, userID, mealID)
	if err != nil {
		return err
	}
	if err := p.meals.DeleteItem(ctx, userID, mealID, itemID); err != nil {
		return err
	}
	_, err = p.summaries.Recompute(ctx, userID, entry.MealDate)
	return err
}

// checkMacroConsistency logs when reported calories disagree with the
// Atwater value computed from macros. Advisory only; the item is stored
// either way.
func (p *Processor) checkMacroConsistency(item agent.EnrichedItem) {
	if item.Macronutrients == nil || item.EstimatedCalories == nil {
		return
	}
	if !nutrition.ValidateMacroTotal(*item.EstimatedCalories, *item.Macronutrients, p.tolerance) {
		p.logger.Warn("macro totals inconsistent with reported calories",
			zap.String("food", item.FoodName),
			zap.Float64("reported", *item.EstimatedCalories),
			zap.Float64("computed", nutrition.MacroCalories(*item.Macronutrients)))
	}
}
