package db

import "testing"

func TestOpenMemoryCreatesSchema(t *testing.T) {
	d, err := OpenMemory()
	if err != nil {
		t.Fatalf("OpenMemory: %v", err)
	}
	defer d.Close()

	tables := []string{"meal_entries", "meal_items", "macronutrients", "food_database", "daily_summaries"}
	for _, table := range tables {
		var name string
		err := d.QueryRow("SELECT name FROM sqlite_master WHERE type='table' AND name=?", table).Scan(&name)
		if err != nil {
			t.Errorf("table %s not created: %v", table, err)
		}
	}
}

func TestForeignKeyCascade(t *testing.T) {
	d, err := OpenMemory()
	if err != nil {
		t.Fatalf("OpenMemory: %v", err)
	}
	defer d.Close()

	_, err = d.Exec(`INSERT INTO meal_entries (id, user_id, meal_type, description, meal_date)
		VALUES ('m1', 'u1', 'LUNCH', 'test', '2025-06-01')`)
	if err != nil {
		t.Fatalf("insert meal: %v", err)
	}
	_, err = d.Exec(`INSERT INTO meal_items (id, meal_id, food_name, quantity, unit)
		VALUES ('i1', 'm1', 'rice', 150, 'GRAMS')`)
	if err != nil {
		t.Fatalf("insert item: %v", err)
	}
	_, err = d.Exec(`INSERT INTO macronutrients (id, item_id) VALUES ('x1', 'i1')`)
	if err != nil {
		t.Fatalf("insert macros: %v", err)
	}

	if _, err := d.Exec(`DELETE FROM meal_entries WHERE id = 'm1'`); err != nil {
		t.Fatalf("delete meal: %v", err)
	}

	var count int
	if err := d.QueryRow(`SELECT COUNT(*) FROM meal_items`).Scan(&count); err != nil {
		t.Fatalf("count items: %v", err)
	}
	if count != 0 {
		t.Errorf("expected cascade delete of items, got %d rows", count)
	}
	if err := d.QueryRow(`SELECT COUNT(*) FROM macronutrients`).Scan(&count); err != nil {
		t.Fatalf("count macros: %v", err)
	}
	if count != 0 {
		t.Errorf("expected cascade delete of macros, got %d rows", count)
	}
}

func TestSummaryUniquePerUserDate(t *testing.T) {
	d, err := OpenMemory()
	if err != nil {
		t.Fatalf("OpenMemory: %v", err)
	}
	defer d.Close()

	_, err = d.Exec(`INSERT INTO daily_summaries (id, user_id, date) VALUES ('s1', 'u1', '2025-06-01')`)
	if err != nil {
		t.Fatalf("first insert: %v", err)
	}
	_, err = d.Exec(`INSERT INTO daily_summaries (id, user_id, date) VALUES ('s2', 'u1', '2025-06-01')`)
	if err == nil {
		t.Error("expected unique constraint violation for duplicate (user, date)")
	}
}
