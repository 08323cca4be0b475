package meals

import (
	"github.com/pulsehealth/pulse/internal/agent"
)

// MealType categorizes a meal entry.
type MealType string

const (
	MealBreakfast MealType = "BREAKFAST"
	MealLunch     MealType = "LUNCH"
	MealDinner    MealType = "DINNER"
	MealSnack     MealType = "SNACK"
)

// IsValidMealType reports whether t is one of the four meal types.
func IsValidMealType(t MealType) bool {
	switch t {
	case MealBreakfast, MealLunch, MealDinner, MealSnack:
		return true
	}
	return false
}

// Entry is one logged meal and its items.
type Entry struct {
	ID          string   `json:"id"`
	UserID      string   `json:"user_id"`
	MealType    MealType `json:"meal_type"`
	Description string   `json:"description"`
	MealDate    string   `json:"meal_date"`
	MealTime    string   `json:"meal_time,omitempty"`
	Processed   bool     `json:"is_processed"`
	OriginalLog string   `json:"original_log,omitempty"`
	CreatedAt   string   `json:"created_at"`
	UpdatedAt   string   `json:"updated_at"`
	Items       []Item   `json:"items"`
}

// Item is one food item inside a meal entry.
type Item struct {
	ID         string                `json:"id"`
	MealID     string                `json:"meal_id"`
	FoodName   string                `json:"food_name"`
	Quantity   float64               `json:"quantity"`
	Unit       agent.Unit            `json:"unit"`
	Calories   *float64              `json:"calories,omitempty"`
	Verified   bool                  `json:"is_verified"`
	Source     agent.Source          `json:"source"`
	Confidence float64               `json:"confidence"`
	Macros     *agent.Macronutrients `json:"macronutrients,omitempty"`
}
