package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/yegors/co-wx/pkg/logger"
	_ "modernc.org/sqlite"
)

// KeyLastCity is the preference key for the last successfully loaded city
const KeyLastCity = "lastcity"

// Preference is one stored key/value pair
type Preference struct {
	Key       string    `json:"key"`
	Value     string    `json:"value"`
	UpdatedAt time.Time `json:"updated_at"`
}

// PreferenceStorage is a SQLite-based key/value store for user preferences
type PreferenceStorage struct {
	db     *sql.DB
	logger *logger.Logger
}

// NewPreferenceStorage opens (or creates) the preferences database
func NewPreferenceStorage(dbPath string, log *logger.Logger) (*PreferenceStorage, error) {
	storageLogger := log.Named("sqlite")

	storageLogger.Info("Initializing SQLite storage",
		logger.String("path", dbPath))

	if dir := filepath.Dir(dbPath); dir != "" && dir != "." && !strings.HasPrefix(dbPath, "file:") {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	// Open the database
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Set connection pool limits
	db.SetMaxOpenConns(1) // SQLite only supports one writer at a time
	db.SetMaxIdleConns(1)

	// Set pragmas for better performance and concurrency
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to set journal mode: %w", err)
	}
	if _, err := db.Exec("PRAGMA synchronous=NORMAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to set synchronous mode: %w", err)
	}
	if _, err := db.Exec("PRAGMA busy_timeout=5000"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to set busy timeout: %w", err)
	}

	// Create tables if they don't exist
	if err := initDatabase(db, storageLogger); err != nil {
		db.Close()
		return nil, err
	}

	return &PreferenceStorage{
		db:     db,
		logger: storageLogger,
	}, nil
}

func initDatabase(db *sql.DB, log *logger.Logger) error {
	log.Info("Initializing database schema")

	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS preferences (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL,
			updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		)
	`)
	if err != nil {
		return fmt.Errorf("failed to create preferences table: %w", err)
	}
	return nil
}

// Close closes the database connection
func (s *PreferenceStorage) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// Get returns the stored value for key. A missing key yields "" and no error.
func (s *PreferenceStorage) Get(ctx context.Context, key string) (string, error) {
	var value string
	err := s.db.QueryRowContext(ctx, `SELECT value FROM preferences WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to read preference %s: %w", key, err)
	}
	return value, nil
}

// Set stores value under key, replacing any previous value
func (s *PreferenceStorage) Set(ctx context.Context, key, value string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO preferences (key, value, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at
	`, key, value, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("failed to store preference %s: %w", key, err)
	}

	s.logger.Debug("Preference stored",
		logger.String("key", key),
		logger.String("value", value))
	return nil
}

// List returns every stored preference ordered by key
func (s *PreferenceStorage) List(ctx context.Context) ([]Preference, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT key, value, updated_at FROM preferences ORDER BY key`)
	if err != nil {
		return nil, fmt.Errorf("failed to list preferences: %w", err)
	}
	defer rows.Close()

	var prefs []Preference
	for rows.Next() {
		var p Preference
		if err := rows.Scan(&p.Key, &p.Value, &p.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan preference: %w", err)
		}
		prefs = append(prefs, p)
	}
	return prefs, rows.Err()
}

// LastCity returns the last successfully loaded city, or "" when none
func (s *PreferenceStorage) LastCity(ctx context.Context) (string, error) {
	return s.Get(ctx, KeyLastCity)
}

// SetLastCity records the last successfully loaded city
func (s *PreferenceStorage) SetLastCity(ctx context.Context, city string) error {
	return s.Set(ctx, KeyLastCity, city)
}
