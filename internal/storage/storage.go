package storage

import (
	"database/sql"
	"errors"
	"fmt"
	"log"
	"time"

	"vrnews-bot/internal/settings"

	_ "modernc.org/sqlite"
)

var ErrNotFound = errors.New("storage: record not found")

type Storage struct {
	db *sql.DB
}

// Session is the durable dialogue position for one user. PendingField is
// set only while the user is typing a value for a settings field.
type Session struct {
	UserID       int64
	State        string
	PendingField string
	UpdatedAt    time.Time
}

func NewStorage(dbPath string) (*Storage, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("could not open database: %w", err)
	}
	if err = db.Ping(); err != nil {
		return nil, fmt.Errorf("could not connect to database: %w", err)
	}
	s := &Storage{db: db}
	if err = s.initSchema(); err != nil {
		return nil, fmt.Errorf("could not initialize database schema: %w", err)
	}
	log.Println("Database connection successful and schema initialized.")
	return s, nil
}

func (s *Storage) initSchema() error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS user_settings (
			user_id INTEGER NOT NULL,
			key TEXT NOT NULL,
			value TEXT NOT NULL,
			position INTEGER NOT NULL,
			PRIMARY KEY (user_id, key)
		);`,

		`CREATE TABLE IF NOT EXISTS dialog_sessions (
			user_id INTEGER PRIMARY KEY,
			state TEXT NOT NULL,
			pending_field TEXT NOT NULL DEFAULT '',
			updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		);`,
	}
	for _, query := range queries {
		if _, err := s.db.Exec(query); err != nil {
			return fmt.Errorf("schema execution failed for query '%s': %w", query, err)
		}
	}
	return nil
}

// GetSettings returns the user's settings in stored order, creating and
// persisting the defaults on first contact. The second result reports
// whether defaults were just created.
func (s *Storage) GetSettings(userID int64) ([]settings.Entry, bool, error) {
	entries, err := s.loadSettings(userID)
	if err != nil {
		return nil, false, err
	}
	if len(entries) > 0 {
		return entries, false, nil
	}

	defaults := settings.Defaults()
	tx, err := s.db.Begin()
	if err != nil {
		return nil, false, err
	}
	defer tx.Rollback()
	for i, entry := range defaults {
		_, err := tx.Exec(
			`INSERT OR IGNORE INTO user_settings (user_id, key, value, position) VALUES (?, ?, ?, ?)`,
			userID, entry.Key, entry.Value, i,
		)
		if err != nil {
			return nil, false, err
		}
	}
	if err := tx.Commit(); err != nil {
		return nil, false, err
	}
	return defaults, true, nil
}

func (s *Storage) loadSettings(userID int64) ([]settings.Entry, error) {
	rows, err := s.db.Query(
		`SELECT key, value FROM user_settings WHERE user_id = ? ORDER BY position`,
		userID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []settings.Entry
	for rows.Next() {
		var entry settings.Entry
		if err := rows.Scan(&entry.Key, &entry.Value); err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}

// SetSetting writes one field. Keys outside the recognized vocabulary are
// refused so the stored blob never grows unknown entries. Updating an
// existing key keeps its position; a new key appends.
func (s *Storage) SetSetting(userID int64, key, value string) error {
	if !settings.IsField(key) {
		return fmt.Errorf("%w: %q", settings.ErrInvalidField, key)
	}
	query := `INSERT INTO user_settings (user_id, key, value, position)
		VALUES (?, ?, ?, (SELECT COALESCE(MAX(position) + 1, 0) FROM user_settings WHERE user_id = ?))
		ON CONFLICT(user_id, key) DO UPDATE SET value = excluded.value`
	_, err := s.db.Exec(query, userID, key, value, userID)
	return err
}

func (s *Storage) GetSession(userID int64) (*Session, error) {
	var session Session
	query := `SELECT user_id, state, pending_field, updated_at FROM dialog_sessions WHERE user_id = ?`
	err := s.db.QueryRow(query, userID).Scan(&session.UserID, &session.State, &session.PendingField, &session.UpdatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &session, nil
}

func (s *Storage) SaveSession(userID int64, state, pendingField string) error {
	query := `INSERT INTO dialog_sessions (user_id, state, pending_field, updated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(user_id) DO UPDATE SET
			state = excluded.state,
			pending_field = excluded.pending_field,
			updated_at = excluded.updated_at`
	_, err := s.db.Exec(query, userID, state, pendingField, time.Now().UTC())
	return err
}

func (s *Storage) ClearSession(userID int64) error {
	_, err := s.db.Exec(`DELETE FROM dialog_sessions WHERE user_id = ?`, userID)
	return err
}

// DeleteStaleSessions drops sessions idle since before the cutoff and
// reports how many were removed. Settings are never expired.
func (s *Storage) DeleteStaleSessions(cutoff time.Time) (int64, error) {
	res, err := s.db.Exec(`DELETE FROM dialog_sessions WHERE updated_at < ?`, cutoff.UTC())
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (s *Storage) Close() {
	s.db.Close()
}
