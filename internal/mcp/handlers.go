package mcp

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/pulsehealth/pulse/internal/meals"
	"github.com/pulsehealth/pulse/internal/nutrition"
)

const dateLayout = "2006-01-02"

// handleLogMeal parses, enriches, and persists a meal, then reports the
// updated day totals.
func (s *Server) handleLogMeal(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	description, err := request.RequireString("description")
	if err != nil {
		return mcp.NewToolResultError("missing required parameter: description"), nil
	}
	mealTypeStr, err := request.RequireString("meal_type")
	if err != nil {
		return mcp.NewToolResultError("missing required parameter: meal_type"), nil
	}
	mealType := meals.MealType(strings.ToUpper(mealTypeStr))
	if !meals.IsValidMealType(mealType) {
		return mcp.NewToolResultError("meal_type must be BREAKFAST, LUNCH, DINNER or SNACK"), nil
	}

	date := request.GetString("date", time.Now().UTC().Format(dateLayout))
	if _, err := time.Parse(dateLayout, date); err != nil {
		return mcp.NewToolResultError("invalid date, expected YYYY-MM-DD"), nil
	}
	mealTime := request.GetString("time", "")
	userID := request.GetString("user_id", "default")

	entry, parsed, err := s.processor.ProcessWithAgent(ctx, userID, mealType, description, date, mealTime)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("logging failed: %v", err)), nil
	}

	sum, err := s.summaries.Get(ctx, userID, date)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("summary lookup failed: %v", err)), nil
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "Logged %s on %s with %d item(s):\n", strings.ToLower(string(mealType)), date, len(entry.Items))
	for _, item := range entry.Items {
		fmt.Fprintf(&sb, "- %s", item.FoodName)
		fmt.Fprintf(&sb, " (%g %s", item.Quantity, strings.ToLower(string(item.Unit)))
		if item.Calories != nil {
			fmt.Fprintf(&sb, ", %.0f kcal", *item.Calories)
		}
		sb.WriteString(")\n")
	}
	if parsed.RequiresVerification {
		sb.WriteString("\nSome items were parsed with low confidence and should be verified.\n")
	}
	fmt.Fprintf(&sb, "\nDay total: %.0f kcal across %d meal(s).", sum.TotalCalories, sum.MealCount)

	return mcp.NewToolResultText(sb.String()), nil
}

// handleParseMeal runs the parse and enrichment pipeline without persisting.
func (s *Server) handleParseMeal(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	description, err := request.RequireString("description")
	if err != nil {
		return mcp.NewToolResultError("missing required parameter: description"), nil
	}

	parsed, err := s.processor.ParseAndEnrich(ctx, description)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("parsing failed: %v", err)), nil
	}

	if len(parsed.Items) == 0 {
		return mcp.NewToolResultText("No food items could be identified in that description."), nil
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "Identified %d item(s) (overall confidence %.2f):\n", len(parsed.Items), parsed.OverallConfidence)
	for _, item := range parsed.Items {
		fmt.Fprintf(&sb, "\n%s: %g %s", item.FoodName, item.Quantity, strings.ToLower(string(item.Unit)))
		if item.EstimatedCalories != nil {
			fmt.Fprintf(&sb, ", ~%.0f kcal", *item.EstimatedCalories)
		}
		fmt.Fprintf(&sb, " (confidence %.2f, %s)", item.ConfidenceScore, item.Source)
		if m := item.Macronutrients; m != nil {
			fmt.Fprintf(&sb, "\n  protein %.1fg, carbs %.1fg, fat %.1fg, fiber %.1fg",
				m.ProteinGrams, m.CarbsGrams, m.FatGrams, m.FiberGrams)
		}
	}
	if parsed.RequiresVerification {
		sb.WriteString("\n\nLow-confidence items present; verification recommended.")
	}

	return mcp.NewToolResultText(sb.String()), nil
}

// handleGetDailySummary reports the aggregate totals for one day.
func (s *Server) handleGetDailySummary(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	date := request.GetString("date", time.Now().UTC().Format(dateLayout))
	if _, err := time.Parse(dateLayout, date); err != nil {
		return mcp.NewToolResultError("invalid date, expected YYYY-MM-DD"), nil
	}
	userID := request.GetString("user_id", "default")

	sum, err := s.summaries.Get(ctx, userID, date)
	if errors.Is(err, nutrition.ErrNotFound) {
		return mcp.NewToolResultText(fmt.Sprintf("No meals logged on %s.", date)), nil
	}
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("summary lookup failed: %v", err)), nil
	}

	text := fmt.Sprintf(
		"Summary for %s:\n%d meal(s), %.0f kcal total\nprotein %.1fg, carbs %.1fg, fat %.1fg, fiber %.1fg",
		date, sum.MealCount, sum.TotalCalories,
		sum.TotalProtein, sum.TotalCarbs, sum.TotalFat, sum.TotalFiber)
	return mcp.NewToolResultText(text), nil
}
