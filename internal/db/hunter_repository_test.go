package db

import (
	"database/sql"
	"errors"
	"path/filepath"
	"testing"

	_ "modernc.org/sqlite"
)

func setupTestDB(t *testing.T) (*Queue, func()) {
	t.Helper()

	path := filepath.Join(t.TempDir(), "test.db")
	sqlDB, err := sql.Open("sqlite", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}

	if err := InitSchema(sqlDB); err != nil {
		t.Fatalf("Failed to initialize schema: %v", err)
	}

	queue := NewQueueForTest(sqlDB)
	return queue, func() {
		queue.Close()
		sqlDB.Close()
	}
}

func TestGetOrCreate_NewHunter(t *testing.T) {
	queue, cleanup := setupTestDB(t)
	defer cleanup()

	repo := NewHunterRepository(queue)

	hunter, err := repo.GetOrCreate("12345")
	if err != nil {
		t.Fatalf("GetOrCreate failed: %v", err)
	}

	if hunter.ID != "12345" {
		t.Errorf("Expected id 12345, got %s", hunter.ID)
	}
	if hunter.KeyToFind != 1 {
		t.Errorf("New hunters start on key 1, got %d", hunter.KeyToFind)
	}
	if hunter.CreatedAt == 0 {
		t.Error("Expected created_at to be set")
	}
	if hunter.Completed || hunter.Flagged {
		t.Error("New hunters must not be completed or flagged")
	}
}

func TestGetOrCreate_ExistingHunterUnchanged(t *testing.T) {
	queue, cleanup := setupTestDB(t)
	defer cleanup()

	repo := NewHunterRepository(queue)

	if _, err := repo.GetOrCreate("12345"); err != nil {
		t.Fatal(err)
	}
	if err := repo.SetKeyToFind("12345", 4); err != nil {
		t.Fatal(err)
	}

	hunter, err := repo.GetOrCreate("12345")
	if err != nil {
		t.Fatal(err)
	}
	if hunter.KeyToFind != 4 {
		t.Errorf("GetOrCreate must not reset existing progress, got key %d", hunter.KeyToFind)
	}
}

func TestGetByID_NotFound(t *testing.T) {
	queue, cleanup := setupTestDB(t)
	defer cleanup()

	repo := NewHunterRepository(queue)

	_, err := repo.GetByID("missing")
	if !errors.Is(err, sql.ErrNoRows) {
		t.Errorf("Expected sql.ErrNoRows, got %v", err)
	}
}

func TestIncrementCounters(t *testing.T) {
	queue, cleanup := setupTestDB(t)
	defer cleanup()

	repo := NewHunterRepository(queue)
	if _, err := repo.GetOrCreate("u1"); err != nil {
		t.Fatal(err)
	}

	for i := 0; i < 3; i++ {
		if err := repo.IncrementAttempts("u1"); err != nil {
			t.Fatal(err)
		}
	}
	if err := repo.IncrementWrongOrderGuesses("u1"); err != nil {
		t.Fatal(err)
	}

	hunter, err := repo.GetByID("u1")
	if err != nil {
		t.Fatal(err)
	}
	if hunter.TotalAttempts != 3 {
		t.Errorf("Expected 3 attempts, got %d", hunter.TotalAttempts)
	}
	if hunter.WrongOrderCorrectGuesses != 1 {
		t.Errorf("Expected 1 wrong-order guess, got %d", hunter.WrongOrderCorrectGuesses)
	}
}

func TestRecordCompletion_KeepsInsertionOrder(t *testing.T) {
	queue, cleanup := setupTestDB(t)
	defer cleanup()

	repo := NewHunterRepository(queue)
	if _, err := repo.GetOrCreate("u1"); err != nil {
		t.Fatal(err)
	}

	if err := repo.RecordCompletion("u1", "1", 100); err != nil {
		t.Fatal(err)
	}
	if err := repo.RecordCompletion("u1", "2", 250); err != nil {
		t.Fatal(err)
	}

	hunter, err := repo.GetByID("u1")
	if err != nil {
		t.Fatal(err)
	}
	if len(hunter.Completions) != 2 {
		t.Fatalf("Expected 2 completions, got %d", len(hunter.Completions))
	}
	if hunter.Completions[0].SequenceID != "1" || hunter.Completions[1].SequenceID != "2" {
		t.Errorf("Completions out of insertion order: %v", hunter.Completions)
	}
}

func TestRecordCompletion_NeverOverwrites(t *testing.T) {
	queue, cleanup := setupTestDB(t)
	defer cleanup()

	repo := NewHunterRepository(queue)
	if _, err := repo.GetOrCreate("u1"); err != nil {
		t.Fatal(err)
	}

	if err := repo.RecordCompletion("u1", "1", 100); err != nil {
		t.Fatal(err)
	}
	if err := repo.RecordCompletion("u1", "1", 999); err != nil {
		t.Fatal(err)
	}

	hunter, err := repo.GetByID("u1")
	if err != nil {
		t.Fatal(err)
	}
	if len(hunter.Completions) != 1 {
		t.Fatalf("Expected 1 completion, got %d", len(hunter.Completions))
	}
	if hunter.Completions[0].CompletedAt != 100 {
		t.Errorf("Original timestamp must be kept, got %d", hunter.Completions[0].CompletedAt)
	}
}

func TestSetFlaggedAndCompleted(t *testing.T) {
	queue, cleanup := setupTestDB(t)
	defer cleanup()

	repo := NewHunterRepository(queue)
	if _, err := repo.GetOrCreate("u1"); err != nil {
		t.Fatal(err)
	}

	if err := repo.SetFlagged("u1"); err != nil {
		t.Fatal(err)
	}
	if err := repo.SetCompleted("u1"); err != nil {
		t.Fatal(err)
	}

	hunter, err := repo.GetByID("u1")
	if err != nil {
		t.Fatal(err)
	}
	if !hunter.Flagged || !hunter.Completed {
		t.Errorf("Expected flagged and completed, got flagged=%t completed=%t", hunter.Flagged, hunter.Completed)
	}
}

func TestGetAll(t *testing.T) {
	queue, cleanup := setupTestDB(t)
	defer cleanup()

	repo := NewHunterRepository(queue)
	for _, id := range []string{"u1", "u2", "u3"} {
		if _, err := repo.GetOrCreate(id); err != nil {
			t.Fatal(err)
		}
	}
	if err := repo.RecordCompletion("u2", "1", 100); err != nil {
		t.Fatal(err)
	}

	hunters, err := repo.GetAll()
	if err != nil {
		t.Fatal(err)
	}
	if len(hunters) != 3 {
		t.Fatalf("Expected 3 hunters, got %d", len(hunters))
	}
	for _, h := range hunters {
		if h.ID == "u2" && len(h.Completions) != 1 {
			t.Errorf("Expected u2 to carry its completion, got %v", h.Completions)
		}
	}
}
