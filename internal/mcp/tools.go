package mcp

import "github.com/mark3labs/mcp-go/mcp"

// logMealTool defines the log_meal MCP tool.
var logMealTool = mcp.NewTool("log_meal",
	mcp.WithDescription("Log a meal from a natural language description. The description is parsed into individual food items with calories and macronutrients, and the day's totals are updated."),
	mcp.WithString("description",
		mcp.Required(),
		mcp.Description("Natural language meal description, e.g. 'two eggs and toast with butter'"),
	),
	mcp.WithString("meal_type",
		mcp.Required(),
		mcp.Description("Which meal this was"),
		mcp.Enum("BREAKFAST", "LUNCH", "DINNER", "SNACK"),
	),
	mcp.WithString("date",
		mcp.Description("Meal date as YYYY-MM-DD (default today)"),
	),
	mcp.WithString("time",
		mcp.Description("Meal time as HH:MM"),
	),
	mcp.WithString("user_id",
		mcp.Description("User to log the meal for (default 'default')"),
	),
)

// parseMealTool defines the parse_meal MCP tool.
var parseMealTool = mcp.NewTool("parse_meal",
	mcp.WithDescription("Parse a meal description into structured food items with estimated calories, macronutrients, and confidence scores, without saving anything."),
	mcp.WithString("description",
		mcp.Required(),
		mcp.Description("Natural language meal description"),
	),
)

// getDailySummaryTool defines the get_daily_summary MCP tool.
var getDailySummaryTool = mcp.NewTool("get_daily_summary",
	mcp.WithDescription("Get total calories, macronutrients, and meal count for one day."),
	mcp.WithString("date",
		mcp.Description("Date as YYYY-MM-DD (default today)"),
	),
	mcp.WithString("user_id",
		mcp.Description("User to query (default 'default')"),
	),
)
