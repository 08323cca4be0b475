package meals

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/pulsehealth/pulse/internal/agent"
	"github.com/pulsehealth/pulse/internal/db"
)

// ErrNotFound is returned when a meal or item does not exist, or does not
// belong to the requesting user.
var ErrNotFound = errors.New("meal not found")

// Store persists meal entries, their items, and per-item macronutrients.
// All multi-row writes run in a transaction.
type Store struct {
	db *db.DB
}

// NewStore creates a Store backed by the given database.
func NewStore(database *db.DB) *Store {
	return &Store{db: database}
}

// Create persists a meal entry with all of its items atomically. IDs and
// timestamps are filled in; the passed entry is returned fully populated.
func (s *Store) Create(ctx context.Context, entry *Entry) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	now := time.Now().UTC().Format(time.DateTime)
	entry.ID = uuid.New().String()
	entry.CreatedAt = now
	entry.UpdatedAt = now

	_, err = tx.ExecContext(ctx, `
		INSERT INTO meal_entries (id, user_id, meal_type, description, meal_date,
		                          meal_time, is_processed, original_log, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		entry.ID, entry.UserID, entry.MealType, entry.Description, entry.MealDate,
		nullString(entry.MealTime), entry.Processed, entry.OriginalLog, now, now)
	if err != nil {
		return fmt.Errorf("inserting meal entry: %w", err)
	}

	for i := range entry.Items {
		if err := insertItem(ctx, tx, entry.ID, &entry.Items[i]); err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing meal entry: %w", err)
	}
	return nil
}

// GetByID returns one meal with its items, scoped to the user.
func (s *Store) GetByID(ctx context.Context, userID, mealID string) (*Entry, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, user_id, meal_type, description, meal_date, COALESCE(meal_time, ''),
		       is_processed, original_log, created_at, updated_at
		FROM meal_entries WHERE id = ? AND user_id = ?`, mealID, userID)

	var entry Entry
	err := row.Scan(&entry.ID, &entry.UserID, &entry.MealType, &entry.Description,
		&entry.MealDate, &entry.MealTime, &entry.Processed, &entry.OriginalLog,
		&entry.CreatedAt, &entry.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("querying meal entry: %w", err)
	}

	entry.Items, err = s.GetItems(ctx, entry.ID)
	if err != nil {
		return nil, err
	}
	return &entry, nil
}

// ListByUser returns the user's meals, newest date first, with items.
func (s *Store) ListByUser(ctx context.Context, userID string, limit, offset int) ([]Entry, error) {
	if limit <= 0 {
		limit = 50
	}
	return s.listEntries(ctx, `WHERE user_id = ? ORDER BY meal_date DESC, created_at DESC LIMIT ? OFFSET ?`,
		userID, limit, offset)
}

// ListByDate returns the user's meals on one date.
func (s *Store) ListByDate(ctx context.Context, userID, date string) ([]Entry, error) {
	return s.listEntries(ctx, `WHERE user_id = ? AND meal_date = ? ORDER BY created_at`, userID, date)
}

// EntryUpdate carries the mutable fields of a meal entry. Nil means keep.
type EntryUpdate struct {
	MealType    *MealType
	Description *string
	MealDate    *string
	MealTime    *string
}

// Update applies a partial update and returns the refreshed entry.
func (s *Store) Update(ctx context.Context, userID, mealID string, upd EntryUpdate) (*Entry, error) {
	current, err := s.GetByID(ctx, userID, mealID)
	if err != nil {
		return nil, err
	}

	if upd.MealType != nil {
		current.MealType = *upd.MealType
	}
	if upd.Description != nil {
		current.Description = *upd.Description
	}
	if upd.MealDate != nil {
		current.MealDate = *upd.MealDate
	}
	if upd.MealTime != nil {
		current.MealTime = *upd.MealTime
	}

	_, err = s.db.ExecContext(ctx, `
		UPDATE meal_entries
		SET meal_type = ?, description = ?, meal_date = ?, meal_time = ?, updated_at = ?
		WHERE id = ? AND user_id = ?`,
		current.MealType, current.Description, current.MealDate,
		nullString(current.MealTime), time.Now().UTC().Format(time.DateTime),
		mealID, userID)
	if err != nil {
		return nil, fmt.Errorf("updating meal entry: %w", err)
	}
	return s.GetByID(ctx, userID, mealID)
}

// Delete removes a meal; items and macronutrients cascade.
func (s *Store) Delete(ctx context.Context, userID, mealID string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM meal_entries WHERE id = ? AND user_id = ?`, mealID, userID)
	if err != nil {
		return fmt.Errorf("deleting meal entry: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// AddItem appends one item (and its macros, if present) to an existing meal.
func (s *Store) AddItem(ctx context.Context, userID, mealID string, item *Item) error {
	if _, err := s.GetByID(ctx, userID, mealID); err != nil {
		return err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	if err := insertItem(ctx, tx, mealID, item); err != nil {
		return err
	}
	if err := touchEntry(ctx, tx, mealID); err != nil {
		return err
	}
	return tx.Commit()
}

// ItemUpdate carries the mutable fields of a meal item. Nil means keep.
type ItemUpdate struct {
	FoodName   *string
	Quantity   *float64
	Unit       *agent.Unit
	Calories   *float64
	Verified   *bool
	Confidence *float64
}

// UpdateItem applies a partial update to an item. Manual edits are tagged
// MANUAL_CORRECTION so downstream consumers can tell them from model output.
func (s *Store) UpdateItem(ctx context.Context, userID, mealID, itemID string, upd ItemUpdate) (*Item, error) {
	items, err := s.itemsForUser(ctx, userID, mealID)
	if err != nil {
		return nil, err
	}
	var current *Item
	for i := range items {
		if items[i].ID == itemID {
			current = &items[i]
			break
		}
	}
	if current == nil {
		return nil, ErrNotFound
	}

	if upd.FoodName != nil {
		current.FoodName = *upd.FoodName
	}
	if upd.Quantity != nil {
		current.Quantity = *upd.Quantity
	}
	if upd.Unit != nil {
		current.Unit = *upd.Unit
	}
	if upd.Calories != nil {
		current.Calories = upd.Calories
	}
	if upd.Verified != nil {
		current.Verified = *upd.Verified
	}
	if upd.Confidence != nil {
		current.Confidence = *upd.Confidence
	}
	current.Source = agent.SourceManualCorrection

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		UPDATE meal_items
		SET food_name = ?, quantity = ?, unit = ?, calories = ?, is_verified = ?,
		    source = ?, confidence = ?
		WHERE id = ?`,
		current.FoodName, current.Quantity, current.Unit, nullFloat(current.Calories),
		current.Verified, current.Source, current.Confidence, itemID)
	if err != nil {
		return nil, fmt.Errorf("updating meal item: %w", err)
	}
	if err := touchEntry(ctx, tx, mealID); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return current, nil
}

// DeleteItem removes one item from a meal.
func (s *Store) DeleteItem(ctx context.Context, userID, mealID, itemID string) error {
	if _, err := s.GetByID(ctx, userID, mealID); err != nil {
		return err
	}

	res, err := s.db.ExecContext(ctx, `DELETE FROM meal_items WHERE id = ? AND meal_id = ?`, itemID, mealID)
	if err != nil {
		return fmt.Errorf("deleting meal item: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// GetItems returns all items (with macros) of one meal.
func (s *Store) GetItems(ctx context.Context, mealID string) ([]Item, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT i.id, i.meal_id, i.food_name, i.quantity, i.unit, i.calories,
		       i.is_verified, i.source, i.confidence,
		       m.id, m.protein_g, m.carbs_g, m.fat_g, m.fiber_g, m.sugar_g, m.sodium_mg
		FROM meal_items i
		LEFT JOIN macronutrients m ON m.item_id = i.id
		WHERE i.meal_id = ?
		ORDER BY i.rowid`, mealID)
	if err != nil {
		return nil, fmt.Errorf("querying meal items: %w", err)
	}
	defer rows.Close()

	items := []Item{}
	for rows.Next() {
		var (
			item     Item
			calories sql.NullFloat64
			macroID  sql.NullString
			macros   agent.Macronutrients
		)
		err := rows.Scan(&item.ID, &item.MealID, &item.FoodName, &item.Quantity, &item.Unit,
			&calories, &item.Verified, &item.Source, &item.Confidence,
			&macroID,
			&nullable{&macros.ProteinGrams}, &nullable{&macros.CarbsGrams},
			&nullable{&macros.FatGrams}, &nullable{&macros.FiberGrams},
			&nullable{&macros.SugarGrams}, &nullable{&macros.SodiumMg})
		if err != nil {
			return nil, fmt.Errorf("scanning meal item: %w", err)
		}
		if calories.Valid {
			item.Calories = &calories.Float64
		}
		if macroID.Valid {
			m := macros
			item.Macros = &m
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

func (s *Store) listEntries(ctx context.Context, tail string, args ...any) ([]Entry, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, user_id, meal_type, description, meal_date, COALESCE(meal_time, ''),
		       is_processed, original_log, created_at, updated_at
		FROM meal_entries `+tail, args...)
	if err != nil {
		return nil, fmt.Errorf("querying meal entries: %w", err)
	}
	defer rows.Close()

	entries := []Entry{}
	for rows.Next() {
		var entry Entry
		if err := rows.Scan(&entry.ID, &entry.UserID, &entry.MealType, &entry.Description,
			&entry.MealDate, &entry.MealTime, &entry.Processed, &entry.OriginalLog,
			&entry.CreatedAt, &entry.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scanning meal entry: %w", err)
		}
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range entries {
		entries[i].Items, err = s.GetItems(ctx, entries[i].ID)
		if err != nil {
			return nil, err
		}
	}
	return entries, nil
}

func (s *Store) itemsForUser(ctx context.Context, userID, mealID string) ([]Item, error) {
	entry, err := s.GetByID(ctx, userID, mealID)
	if err != nil {
		return nil, err
	}
	return entry.Items, nil
}

func insertItem(ctx context.Context, tx *sql.Tx, mealID string, item *Item) error {
	item.ID = uuid.New().String()
	item.MealID = mealID
	if item.Source == "" {
		item.Source = agent.SourceUserInput
	}

	_, err := tx.ExecContext(ctx, `
		INSERT INTO meal_items (id, meal_id, food_name, quantity, unit, calories,
		                        is_verified, source, confidence)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		item.ID, mealID, item.FoodName, item.Quantity, item.Unit,
		nullFloat(item.Calories), item.Verified, item.Source, item.Confidence)
	if err != nil {
		return fmt.Errorf("inserting meal item: %w", err)
	}

	if item.Macros != nil {
		_, err = tx.ExecContext(ctx, `
			INSERT INTO macronutrients (id, item_id, protein_g, carbs_g, fat_g, fiber_g, sugar_g, sodium_mg)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			uuid.New().String(), item.ID,
			item.Macros.ProteinGrams, item.Macros.CarbsGrams, item.Macros.FatGrams,
			item.Macros.FiberGrams, item.Macros.SugarGrams, item.Macros.SodiumMg)
		if err != nil {
			return fmt.Errorf("inserting macronutrients: %w", err)
		}
	}
	return nil
}

func touchEntry(ctx context.Context, tx *sql.Tx, mealID string) error {
	_, err := tx.ExecContext(ctx, `UPDATE meal_entries SET updated_at = ? WHERE id = ?`,
		time.Now().UTC().Format(time.DateTime), mealID)
	return err
}

// nullable scans a possibly-NULL REAL into a float64, leaving 0 for NULL.
type nullable struct{ f *float64 }

func (n *nullable) Scan(v any) error {
	if v == nil {
		*n.f = 0
		return nil
	}
	switch x := v.(type) {
	case float64:
		*n.f = x
	case int64:
		*n.f = float64(x)
	default:
		return fmt.Errorf("unexpected type %T for float column", v)
	}
	return nil
}

func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

func nullFloat(f *float64) sql.NullFloat64 {
	if f == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *f, Valid: true}
}
