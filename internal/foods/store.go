package foods

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/pulsehealth/pulse/internal/db"
)

// ErrNotFound is returned when a food entry does not exist.
var ErrNotFound = errors.New("food not found")

// Food is one reference entry in the food database. Read-only from the
// pipeline's perspective except for idempotent insert-if-absent creation.
type Food struct {
	ID                 string   `json:"id"`
	FoodName           string   `json:"food_name"`
	ServingSize        float64  `json:"serving_size"`
	ServingUnit        string   `json:"serving_unit"`
	CaloriesPerServing *float64 `json:"calories_per_serving,omitempty"`
	Category           string   `json:"category,omitempty"`
	Verified           bool     `json:"is_verified"`
}

// Store provides access to the food reference table.
type Store struct {
	db *db.DB
}

// NewStore creates a Store backed by the given database.
func NewStore(database *db.DB) *Store {
	return &Store{db: database}
}

// Create inserts a food entry unless one already exists with the same name,
// serving size, and serving unit; in that case the existing row is returned.
func (s *Store) Create(ctx context.Context, food Food) (*Food, error) {
	existing, err := s.find(ctx, `food_name = ? AND serving_size = ? AND serving_unit = ?`,
		food.FoodName, food.ServingSize, food.ServingUnit)
	if err != nil && !errors.Is(err, ErrNotFound) {
		return nil, err
	}
	if existing != nil {
		return existing, nil
	}

	food.ID = uuid.New().String()
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO food_database (id, food_name, serving_size, serving_unit,
		                           calories_per_serving, category, is_verified)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		food.ID, food.FoodName, food.ServingSize, food.ServingUnit,
		nullFloat(food.CaloriesPerServing), food.Category, food.Verified)
	if err != nil {
		return nil, fmt.Errorf("inserting food: %w", err)
	}
	return &food, nil
}

// GetByID returns one food entry.
func (s *Store) GetByID(ctx context.Context, id string) (*Food, error) {
	return s.find(ctx, `id = ?`, id)
}

// Search returns foods whose name contains the query, case-insensitive.
func (s *Store) Search(ctx context.Context, query string, limit int) ([]Food, error) {
	if limit <= 0 {
		limit = 10
	}
	return s.list(ctx, `WHERE lower(food_name) LIKE ? ORDER BY rowid LIMIT ?`,
		"%"+strings.ToLower(query)+"%", limit)
}

// ByCategory returns foods in the given category.
func (s *Store) ByCategory(ctx context.Context, category string, limit int) ([]Food, error) {
	if limit <= 0 {
		limit = 20
	}
	return s.list(ctx, `WHERE category = ? ORDER BY rowid LIMIT ?`, category, limit)
}

// List returns foods with pagination.
func (s *Store) List(ctx context.Context, limit, offset int) ([]Food, error) {
	if limit <= 0 {
		limit = 100
	}
	return s.list(ctx, `ORDER BY rowid LIMIT ? OFFSET ?`, limit, offset)
}

// FindSimilar cross-references a parsed food name against the reference
// table. The name is lowercased and split on whitespace; tokens of more
// than 3 characters are tried in their original order, and the first row
// whose name contains the token wins. Deliberately a first-match scan,
// not a ranked search; returns (nil, nil) when nothing matches.
func (s *Store) FindSimilar(ctx context.Context, foodName string) (*Food, error) {
	for _, token := range strings.Fields(strings.ToLower(foodName)) {
		if len(token) <= 3 {
			continue
		}
		food, err := s.find(ctx, `instr(lower(food_name), ?) > 0`, token)
		if errors.Is(err, ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		return food, nil
	}
	return nil, nil
}

const selectColumns = `id, food_name, serving_size, serving_unit, calories_per_serving, category, is_verified`

func (s *Store) find(ctx context.Context, where string, args ...any) (*Food, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+selectColumns+` FROM food_database WHERE `+where+` ORDER BY rowid LIMIT 1`, args...)

	food, err := scanFood(row.Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("querying food: %w", err)
	}
	return food, nil
}

func (s *Store) list(ctx context.Context, tail string, args ...any) ([]Food, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+selectColumns+` FROM food_database `+tail, args...)
	if err != nil {
		return nil, fmt.Errorf("querying foods: %w", err)
	}
	defer rows.Close()

	var foods []Food
	for rows.Next() {
		food, err := scanFood(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("scanning food: %w", err)
		}
		foods = append(foods, *food)
	}
	return foods, rows.Err()
}

func scanFood(scan func(...any) error) (*Food, error) {
	var (
		food     Food
		calories sql.NullFloat64
	)
	if err := scan(&food.ID, &food.FoodName, &food.ServingSize, &food.ServingUnit,
		&calories, &food.Category, &food.Verified); err != nil {
		return nil, err
	}
	if calories.Valid {
		food.CaloriesPerServing = &calories.Float64
	}
	return &food, nil
}

func nullFloat(f *float64) sql.NullFloat64 {
	if f == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *f, Valid: true}
}
