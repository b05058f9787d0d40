// Package storage persists per-client view preferences in SQLite.
package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/bobby-s-dev/weather-forecast/internal/forecast"
	"github.com/google/uuid"
	"go.uber.org/zap"

	_ "modernc.org/sqlite"
)

var ErrNotFound = errors.New("preference not found")

type Theme string

const (
	ThemeLight Theme = "light"
	ThemeDark  Theme = "dark"
)

// Preference is the only state the service keeps for a client: how the
// forecast panel should look.
type Preference struct {
	ClientID  string         `json:"client_id"`
	Theme     Theme          `json:"theme"`
	Units     forecast.Units `json:"units"`
	UpdatedAt time.Time      `json:"updated_at"`
}

type PreferenceStore struct {
	db     *sql.DB
	logger *zap.Logger
	now    func() time.Time
}

// Open opens (or creates) the database at path and applies the schema.
func Open(path string, logger *zap.Logger) (*PreferenceStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open preferences db: %w", err)
	}

	// A single connection keeps ":memory:" databases shared.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA journal_mode=WAL;"); err != nil {
		logger.Warn("Could not enable WAL mode", zap.Error(err))
	}

	schema := `CREATE TABLE IF NOT EXISTS preferences (
		client_id  TEXT PRIMARY KEY,
		theme      TEXT NOT NULL,
		units      TEXT NOT NULL,
		updated_at TEXT NOT NULL
	);`
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply preferences schema: %w", err)
	}

	return &PreferenceStore{db: db, logger: logger, now: time.Now}, nil
}

// Create stores pref under a freshly generated client id.
func (s *PreferenceStore) Create(ctx context.Context, pref Preference) (*Preference, error) {
	pref.ClientID = uuid.NewString()
	if err := s.Save(ctx, &pref); err != nil {
		return nil, err
	}
	return &pref, nil
}

// Save inserts or replaces pref and stamps UpdatedAt.
func (s *PreferenceStore) Save(ctx context.Context, pref *Preference) error {
	if _, err := uuid.Parse(pref.ClientID); err != nil {
		return fmt.Errorf("invalid client id %q: %w", pref.ClientID, err)
	}

	pref.UpdatedAt = s.now().UTC().Truncate(time.Second)
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO preferences(client_id, theme, units, updated_at) VALUES(?,?,?,?)
		 ON CONFLICT(client_id) DO UPDATE SET theme=excluded.theme, units=excluded.units, updated_at=excluded.updated_at`,
		pref.ClientID, string(pref.Theme), string(pref.Units), pref.UpdatedAt.Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("save preference %s: %w", pref.ClientID, err)
	}

	s.logger.Debug("Preference saved",
		zap.String("client_id", pref.ClientID),
		zap.String("theme", string(pref.Theme)),
		zap.String("units", string(pref.Units)))
	return nil
}

func (s *PreferenceStore) Get(ctx context.Context, clientID string) (*Preference, error) {
	var (
		pref      Preference
		theme     string
		units     string
		updatedAt string
	)

	err := s.db.QueryRowContext(ctx,
		`SELECT client_id, theme, units, updated_at FROM preferences WHERE client_id = ?`, clientID).
		Scan(&pref.ClientID, &theme, &units, &updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load preference %s: %w", clientID, err)
	}

	pref.Theme = Theme(theme)
	pref.Units = forecast.Units(units)
	if t, err := time.Parse(time.RFC3339, updatedAt); err == nil {
		pref.UpdatedAt = t
	}
	return &pref, nil
}

func (s *PreferenceStore) Close() error {
	return s.db.Close()
}
