package db

import (
	"database/sql"
	"time"

	"github.com/ad/discord-key-hunt/internal/models"
)

type HunterRepository struct {
	queue *Queue
}

func NewHunterRepository(queue *Queue) *HunterRepository {
	return &HunterRepository{queue: queue}
}

func (r *HunterRepository) GetByID(id string) (*models.Hunter, error) {
	result, err := r.queue.Execute(func(db *sql.DB) (interface{}, error) {
		return scanHunter(db, id)
	})
	if err != nil {
		return nil, err
	}
	return result.(*models.Hunter), nil
}

// GetOrCreate lazily creates the record on first contact. INSERT OR IGNORE
// followed by a re-read keeps it safe against upsert races.
func (r *HunterRepository) GetOrCreate(id string) (*models.Hunter, error) {
	result, err := r.queue.Execute(func(db *sql.DB) (interface{}, error) {
		_, err := db.Exec(`
			INSERT OR IGNORE INTO hunters (id, created_at, key_to_find)
			VALUES (?, ?, 1)
		`, id, time.Now().Unix())
		if err != nil {
			return nil, err
		}
		return scanHunter(db, id)
	})
	if err != nil {
		return nil, err
	}
	return result.(*models.Hunter), nil
}

// IncrementAttempts bumps total_attempts in a single statement so it stays
// correct without read-modify-write.
func (r *HunterRepository) IncrementAttempts(id string) error {
	_, err := r.queue.Execute(func(db *sql.DB) (interface{}, error) {
		_, err := db.Exec(`
			UPDATE hunters SET total_attempts = total_attempts + 1 WHERE id = ?
		`, id)
		return nil, err
	})
	return err
}

func (r *HunterRepository) IncrementWrongOrderGuesses(id string) error {
	_, err := r.queue.Execute(func(db *sql.DB) (interface{}, error) {
		_, err := db.Exec(`
			UPDATE hunters
			SET wrong_order_correct_guesses = wrong_order_correct_guesses + 1
			WHERE id = ?
		`, id)
		return nil, err
	})
	return err
}

func (r *HunterRepository) SetKeyToFind(id string, keyToFind int) error {
	_, err := r.queue.Execute(func(db *sql.DB) (interface{}, error) {
		_, err := db.Exec(`UPDATE hunters SET key_to_find = ? WHERE id = ?`, keyToFind, id)
		return nil, err
	})
	return err
}

func (r *HunterRepository) SetCompleted(id string) error {
	_, err := r.queue.Execute(func(db *sql.DB) (interface{}, error) {
		_, err := db.Exec(`UPDATE hunters SET completed = TRUE WHERE id = ?`, id)
		return nil, err
	})
	return err
}

func (r *HunterRepository) SetFlagged(id string) error {
	_, err := r.queue.Execute(func(db *sql.DB) (interface{}, error) {
		_, err := db.Exec(`UPDATE hunters SET flagged = TRUE WHERE id = ?`, id)
		return nil, err
	})
	return err
}

// RecordCompletion stores the completion timestamp for a stage. Repeated
// completions of the same stage are ignored, never overwritten.
func (r *HunterRepository) RecordCompletion(id, sequenceID string, completedAt int64) error {
	_, err := r.queue.Execute(func(db *sql.DB) (interface{}, error) {
		_, err := db.Exec(`
			INSERT OR IGNORE INTO key_completions (hunter_id, sequence_id, completed_at)
			VALUES (?, ?, ?)
		`, id, sequenceID, completedAt)
		return nil, err
	})
	return err
}

func (r *HunterRepository) GetAll() ([]*models.Hunter, error) {
	result, err := r.queue.Execute(func(db *sql.DB) (interface{}, error) {
		rows, err := db.Query(`
			SELECT id, created_at, key_to_find, total_attempts,
			       wrong_order_correct_guesses, completed, flagged
			FROM hunters ORDER BY created_at
		`)
		if err != nil {
			return nil, err
		}
		defer rows.Close()

		var hunters []*models.Hunter
		for rows.Next() {
			var h models.Hunter
			if err := rows.Scan(&h.ID, &h.CreatedAt, &h.KeyToFind, &h.TotalAttempts,
				&h.WrongOrderCorrectGuesses, &h.Completed, &h.Flagged); err != nil {
				return nil, err
			}
			hunters = append(hunters, &h)
		}
		if err := rows.Err(); err != nil {
			return nil, err
		}

		for _, h := range hunters {
			completions, err := scanCompletions(db, h.ID)
			if err != nil {
				return nil, err
			}
			h.Completions = completions
		}
		return hunters, nil
	})
	if err != nil {
		return nil, err
	}
	return result.([]*models.Hunter), nil
}

func scanHunter(db *sql.DB, id string) (*models.Hunter, error) {
	row := db.QueryRow(`
		SELECT id, created_at, key_to_find, total_attempts,
		       wrong_order_correct_guesses, completed, flagged
		FROM hunters WHERE id = ?
	`, id)

	var h models.Hunter
	err := row.Scan(&h.ID, &h.CreatedAt, &h.KeyToFind, &h.TotalAttempts,
		&h.WrongOrderCorrectGuesses, &h.Completed, &h.Flagged)
	if err != nil {
		return nil, err
	}

	completions, err := scanCompletions(db, id)
	if err != nil {
		return nil, err
	}
	h.Completions = completions
	return &h, nil
}

func scanCompletions(db *sql.DB, hunterID string) ([]models.KeyCompletion, error) {
	rows, err := db.Query(`
		SELECT sequence_id, completed_at
		FROM key_completions WHERE hunter_id = ? ORDER BY id
	`, hunterID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var completions []models.KeyCompletion
	for rows.Next() {
		var c models.KeyCompletion
		if err := rows.Scan(&c.SequenceID, &c.CompletedAt); err != nil {
			return nil, err
		}
		completions = append(completions, c)
	}
	return completions, rows.Err()
}
