package mcp

import (
	"context"
	"strings"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
	"go.uber.org/zap"

	"github.com/pulsehealth/pulse/internal/agent"
	"github.com/pulsehealth/pulse/internal/db"
	"github.com/pulsehealth/pulse/internal/foods"
	"github.com/pulsehealth/pulse/internal/meals"
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

func newTestServer(t *testing.T, provider *scriptedProvider) *Server {
	t.Helper()
	database, err := db.OpenMemory()
	if err != nil {
		t.Fatalf("OpenMemory: %v", err)
	}
	t.Cleanup(func() { database.Close() })

	mealStore := meals.NewStore(database)
	foodStore := foods.NewStore(database)
	summaryStore := nutrition.NewSummaryStore(database)
	ag := agent.New(provider, zap.NewNop())
	proc := meals.NewProcessor(ag, foodStore, mealStore, summaryStore, zap.NewNop(), 1)

	return NewServer(proc, summaryStore)
}

func TestToolDefinitions(t *testing.T) {
	tests := []struct {
		name     string
		tool     mcp.Tool
		wantName string
	}{
		{"log_meal", logMealTool, "log_meal"},
		{"parse_meal", parseMealTool, "parse_meal"},
		{"get_daily_summary", getDailySummaryTool, "get_daily_summary"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.tool.Name != tt.wantName {
				t.Errorf("tool name = %q, want %q", tt.tool.Name, tt.wantName)
			}
			if tt.tool.Description == "" {
				t.Error("tool description should not be empty")
			}
		})
	}
}

func TestNewServer(t *testing.T) {
	srv := newTestServer(t, &scriptedProvider{})
	if srv == nil {
		t.Fatal("NewServer returned nil")
	}
	if srv.mcp == nil {
		t.Fatal("MCP server not initialized")
	}
}

func TestHandleLogMeal(t *testing.T) {
	provider := &scriptedProvider{
		parseResponse:  `[{"food_name": "Toast", "quantity": 2, "unit": "pieces", "estimated_calories": 160, "confidence_score": 0.9}]`,
		enrichResponse: `{"protein_grams": 5, "carbs_grams": 28, "fat_grams": 2}`,
	}
	srv := newTestServer(t, provider)
	ctx := context.Background()

	t.Run("basic log", func(t *testing.T) {
		req := mcp.CallToolRequest{}
		req.Params.Arguments = map[string]any{
			"description": "two slices of toast",
			"meal_type":   "breakfast",
			"date":        "2025-06-01",
		}

		result, err := srv.handleLogMeal(ctx, req)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if result.IsError {
			t.Fatalf("unexpected tool error: %v", result.Content)
		}
	})

	t.Run("missing description", func(t *testing.T) {
		req := mcp.CallToolRequest{}
		req.Params.Arguments = map[string]any{"meal_type": "LUNCH"}

		result, err := srv.handleLogMeal(ctx, req)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !result.IsError {
			t.Error("expected error for missing description")
		}
	})

	t.Run("bad meal type", func(t *testing.T) {
		req := mcp.CallToolRequest{}
		req.Params.Arguments = map[string]any{
			"description": "toast",
			"meal_type":   "BRUNCH",
		}

		result, err := srv.handleLogMeal(ctx, req)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !result.IsError {
			t.Error("expected error for invalid meal_type")
		}
	})

	t.Run("bad date", func(t *testing.T) {
		req := mcp.CallToolRequest{}
		req.Params.Arguments = map[string]any{
			"description": "toast",
			"meal_type":   "BREAKFAST",
			"date":        "June 1st",
		}

		result, err := srv.handleLogMeal(ctx, req)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !result.IsError {
			t.Error("expected error for malformed date")
		}
	})
}

func TestHandleParseMeal(t *testing.T) {
	ctx := context.Background()

	t.Run("items identified", func(t *testing.T) {
		provider := &scriptedProvider{
			parseResponse:  `[{"food_name": "Eggs", "quantity": 2, "unit": "pieces", "estimated_calories": 140, "confidence_score": 0.95}]`,
			enrichResponse: `{"protein_grams": 12, "carbs_grams": 1, "fat_grams": 10}`,
		}
		srv := newTestServer(t, provider)

		req := mcp.CallToolRequest{}
		req.Params.Arguments = map[string]any{"description": "two eggs"}

		result, err := srv.handleParseMeal(ctx, req)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if result.IsError {
			t.Fatalf("unexpected tool error: %v", result.Content)
		}
	})

	t.Run("no items", func(t *testing.T) {
		srv := newTestServer(t, &scriptedProvider{parseResponse: `[]`})

		req := mcp.CallToolRequest{}
		req.Params.Arguments = map[string]any{"description": "nothing really"}

		result, err := srv.handleParseMeal(ctx, req)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if result.IsError {
			t.Error("empty parse should not be a tool error")
		}
	})

	t.Run("missing description", func(t *testing.T) {
		srv := newTestServer(t, &scriptedProvider{})

		req := mcp.CallToolRequest{}
		req.Params.Arguments = map[string]any{}

		result, err := srv.handleParseMeal(ctx, req)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !result.IsError {
			t.Error("expected error for missing description")
		}
	})
}

func TestHandleGetDailySummary(t *testing.T) {
	provider := &scriptedProvider{
		parseResponse:  `[{"food_name": "Toast", "quantity": 2, "unit": "pieces", "estimated_calories": 160, "confidence_score": 0.9}]`,
		enrichResponse: `{}`,
	}
	srv := newTestServer(t, provider)
	ctx := context.Background()

	t.Run("no meals logged", func(t *testing.T) {
		req := mcp.CallToolRequest{}
		req.Params.Arguments = map[string]any{"date": "2025-01-01"}

		result, err := srv.handleGetDailySummary(ctx, req)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if result.IsError {
			t.Error("absent summary should not be a tool error")
		}
	})

	t.Run("after logging", func(t *testing.T) {
		logReq := mcp.CallToolRequest{}
		logReq.Params.Arguments = map[string]any{
			"description": "toast",
			"meal_type":   "BREAKFAST",
			"date":        "2025-06-01",
		}
		if _, err := srv.handleLogMeal(ctx, logReq); err != nil {
			t.Fatalf("log: %v", err)
		}

		req := mcp.CallToolRequest{}
		req.Params.Arguments = map[string]any{"date": "2025-06-01"}

		result, err := srv.handleGetDailySummary(ctx, req)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if result.IsError {
			t.Fatalf("unexpected tool error: %v", result.Content)
		}
	})

	t.Run("bad date", func(t *testing.T) {
		req := mcp.CallToolRequest{}
		req.Params.Arguments = map[string]any{"date": "yesterday"}

		result, err := srv.handleGetDailySummary(ctx, req)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !result.IsError {
			t.Error("expected error for malformed date")
		}
	})
}
