// Package sqlite persists per-user chart state between sessions:
// favorite symbols and saved drawing layouts.
package sqlite

import (
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"chartview/internal/model"
)

// Store is a single-writer SQLite store.
type Store struct {
	db  *sql.DB
	log *slog.Logger
}

// New opens (or creates) the database at path with WAL journaling and
// applies the schema.
func New(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_synchronous=NORMAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("sqlite open: %w", err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := createSchema(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("sqlite schema: %w", err)
	}

	log := slog.Default().With("component", "sqlite-store")
	log.Info("opened database", "path", path)
	return &Store{db: db, log: log}, nil
}

func createSchema(db *sql.DB) error {
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS favorites (
			code     TEXT    NOT NULL PRIMARY KEY,
			name     TEXT    NOT NULL DEFAULT '',
			exchange TEXT    NOT NULL DEFAULT '',
			added_at INTEGER NOT NULL
		);

		CREATE TABLE IF NOT EXISTS layouts (
			symbol     TEXT    NOT NULL,
			tf         TEXT    NOT NULL,
			data       TEXT    NOT NULL,
			updated_at INTEGER NOT NULL,
			PRIMARY KEY (symbol, tf)
		);
	`)
	return err
}

// AddFavorite records a symbol. Adding an existing favorite is a
// no-op.
func (s *Store) AddFavorite(info model.SymbolInfo) error {
	_, err := s.db.Exec(
		`INSERT OR IGNORE INTO favorites (code, name, exchange, added_at) VALUES (?, ?, ?, ?)`,
		info.Code, info.Name, info.Exchange, time.Now().Unix(),
	)
	if err != nil {
		return fmt.Errorf("sqlite add favorite: %w", err)
	}
	return nil
}

// RemoveFavorite deletes a symbol from the favorites list.
func (s *Store) RemoveFavorite(code string) error {
	_, err := s.db.Exec(`DELETE FROM favorites WHERE code = ?`, code)
	if err != nil {
		return fmt.Errorf("sqlite remove favorite: %w", err)
	}
	return nil
}

// Favorites lists saved symbols, oldest first.
func (s *Store) Favorites() ([]model.SymbolInfo, error) {
	rows, err := s.db.Query(`SELECT code, name, exchange FROM favorites ORDER BY added_at ASC`)
	if err != nil {
		return nil, fmt.Errorf("sqlite query favorites: %w", err)
	}
	defer rows.Close()

	var out []model.SymbolInfo
	for rows.Next() {
		var info model.SymbolInfo
		if err := rows.Scan(&info.Code, &info.Name, &info.Exchange); err != nil {
			return nil, fmt.Errorf("sqlite scan favorite: %w", err)
		}
		out = append(out, info)
	}
	return out, rows.Err()
}

// SaveLayout upserts the serialized drawing layout for one
// symbol/timeframe pair. The caller owns the encoding.
func (s *Store) SaveLayout(symbol string, tf model.Timeframe, data []byte) error {
	_, err := s.db.Exec(`
		INSERT INTO layouts (symbol, tf, data, updated_at) VALUES (?, ?, ?, ?)
		ON CONFLICT (symbol, tf) DO UPDATE SET data = excluded.data, updated_at = excluded.updated_at
	`, symbol, string(tf), string(data), time.Now().Unix())
	if err != nil {
		return fmt.Errorf("sqlite save layout: %w", err)
	}
	return nil
}

// LoadLayout returns the saved layout, or (nil, nil) when none exists.
func (s *Store) LoadLayout(symbol string, tf model.Timeframe) ([]byte, error) {
	var data string
	err := s.db.QueryRow(
		`SELECT data FROM layouts WHERE symbol = ? AND tf = ?`,
		symbol, string(tf),
	).Scan(&data)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("sqlite load layout: %w", err)
	}
	return []byte(data), nil
}

// DeleteLayout removes a saved layout.
func (s *Store) DeleteLayout(symbol string, tf model.Timeframe) error {
	_, err := s.db.Exec(`DELETE FROM layouts WHERE symbol = ? AND tf = ?`, symbol, string(tf))
	if err != nil {
		return fmt.Errorf("sqlite delete layout: %w", err)
	}
	return nil
}

// DB exposes the handle for health checks.
func (s *Store) DB() *sql.DB { return s.db }

// Close closes the database.
func (s *Store) Close() error { return s.db.Close() }
