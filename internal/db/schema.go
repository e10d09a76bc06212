package db

import (
	"database/sql"
)

const schema = `
CREATE TABLE IF NOT EXISTS hunters (
    id TEXT PRIMARY KEY,
    created_at INTEGER NOT NULL,
    key_to_find INTEGER NOT NULL DEFAULT 1,
    total_attempts INTEGER NOT NULL DEFAULT 0,
    wrong_order_correct_guesses INTEGER NOT NULL DEFAULT 0,
    completed BOOLEAN NOT NULL DEFAULT FALSE,
    flagged BOOLEAN NOT NULL DEFAULT FALSE
);

CREATE TABLE IF NOT EXISTS key_completions (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    hunter_id TEXT NOT NULL REFERENCES hunters(id),
    sequence_id TEXT NOT NULL,
    completed_at INTEGER NOT NULL,
    UNIQUE(hunter_id, sequence_id)
);

CREATE TABLE IF NOT EXISTS settings (
    key TEXT PRIMARY KEY,
    value TEXT NOT NULL
);
`

const defaultSettings = `
INSERT OR IGNORE INTO settings (key, value) VALUES
    ('finished_message', 'You''ve already completed the hunt! Thanks for participating!'),
    ('not_started_message', 'The hunt hasn''t started yet. Keep an eye on the events channel!'),
    ('ended_message', 'The hunt has ended. Thanks for participating!'),
    ('start_announced', 'false'),
    ('end_announced', 'false');
`

func InitSchema(db *sql.DB) error {
	_, err := db.Exec(schema)
	if err != nil {
		return err
	}

	_, err = db.Exec(defaultSettings)
	return err
}
