package nutrition

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/pulsehealth/pulse/internal/db"
)

// ErrNotFound is returned when no summary exists for a (user, date) pair.
var ErrNotFound = errors.New("summary not found")

// DailySummary is the cached per-user-per-date nutrition aggregate.
// Sugar and sodium are tracked per item but excluded from the aggregate.
type DailySummary struct {
	ID            string  `json:"id"`
	UserID        string  `json:"user_id"`
	Date          string  `json:"date"`
	TotalCalories float64 `json:"total_calories"`
	TotalProtein  float64 `json:"total_protein"`
	TotalCarbs    float64 `json:"total_carbs"`
	TotalFat      float64 `json:"total_fat"`
	TotalFiber    float64 `json:"total_fiber"`
	MealCount     int     `json:"meal_count"`
}

// SummaryStore reads and recomputes daily nutrition summaries.
type SummaryStore struct {
	db *db.DB
}

// NewSummaryStore creates a SummaryStore backed by the given database.
func NewSummaryStore(database *db.DB) *SummaryStore {
	return &SummaryStore{db: database}
}

// Get returns the summary for one (user, date) pair.
func (s *SummaryStore) Get(ctx context.Context, userID, date string) (*DailySummary, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, user_id, date, total_calories, total_protein, total_carbs,
		       total_fat, total_fiber, meal_count
		FROM daily_summaries WHERE user_id = ? AND date = ?`, userID, date)

	var sum DailySummary
	err := row.Scan(&sum.ID, &sum.UserID, &sum.Date, &sum.TotalCalories,
		&sum.TotalProtein, &sum.TotalCarbs, &sum.TotalFat, &sum.TotalFiber, &sum.MealCount)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("querying daily summary: %w", err)
	}
	return &sum, nil
}

// Range returns summaries for [start, end] inclusive, newest first.
func (s *SummaryStore) Range(ctx context.Context, userID, start, end string) ([]DailySummary, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, user_id, date, total_calories, total_protein, total_carbs,
		       total_fat, total_fiber, meal_count
		FROM daily_summaries
		WHERE user_id = ? AND date >= ? AND date <= ?
		ORDER BY date DESC`, userID, start, end)
	if err != nil {
		return nil, fmt.Errorf("querying summary range: %w", err)
	}
	defer rows.Close()

	var summaries []DailySummary
	for rows.Next() {
		var sum DailySummary
		if err := rows.Scan(&sum.ID, &sum.UserID, &sum.Date, &sum.TotalCalories,
			&sum.TotalProtein, &sum.TotalCarbs, &sum.TotalFat, &sum.TotalFiber, &sum.MealCount); err != nil {
			return nil, fmt.Errorf("scanning summary: %w", err)
		}
		summaries = append(summaries, sum)
	}
	return summaries, rows.Err()
}

// Recompute rebuilds the summary for (user, date) from scratch out of the
// current meal rows. It is the only path that writes summary totals, and
// must run after every mutating meal operation for the affected date.
// Full recompute, never an incremental patch.
func (s *SummaryStore) Recompute(ctx context.Context, userID, date string) (*DailySummary, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT COUNT(DISTINCT e.id),
		       COALESCE(SUM(i.calories), 0),
		       COALESCE(SUM(m.protein_g), 0),
		       COALESCE(SUM(m.carbs_g), 0),
		       COALESCE(SUM(m.fat_g), 0),
		       COALESCE(SUM(m.fiber_g), 0)
		FROM meal_entries e
		LEFT JOIN meal_items i ON i.meal_id = e.id
		LEFT JOIN macronutrients m ON m.item_id = i.id
		WHERE e.user_id = ? AND e.meal_date = ?`, userID, date)

	sum := DailySummary{UserID: userID, Date: date}
	if err := row.Scan(&sum.MealCount, &sum.TotalCalories, &sum.TotalProtein,
		&sum.TotalCarbs, &sum.TotalFat, &sum.TotalFiber); err != nil {
		return nil, fmt.Errorf("aggregating meals for %s: %w", date, err)
	}

	sum.ID = uuid.New().String()
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO daily_summaries (id, user_id, date, total_calories, total_protein,
		                             total_carbs, total_fat, total_fiber, meal_count, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(user_id, date) DO UPDATE SET
			total_calories = excluded.total_calories,
			total_protein = excluded.total_protein,
			total_carbs = excluded.total_carbs,
			total_fat = excluded.total_fat,
			total_fiber = excluded.total_fiber,
			meal_count = excluded.meal_count,
			updated_at = excluded.updated_at`,
		sum.ID, sum.UserID, sum.Date, sum.TotalCalories, sum.TotalProtein,
		sum.TotalCarbs, sum.TotalFat, sum.TotalFiber, sum.MealCount,
		time.Now().UTC().Format(time.DateTime))
	if err != nil {
		return nil, fmt.Errorf("upserting daily summary: %w", err)
	}

	return s.Get(ctx, userID, date)
}
