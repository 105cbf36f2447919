package store

import (
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"
)

// #region schema
const schema = `
CREATE TABLE IF NOT EXISTS prediction_log (
	id             TEXT PRIMARY KEY,
	session_id     TEXT,
	source         TEXT NOT NULL,
	selection_json TEXT,
	row_json       TEXT NOT NULL,
	label          INTEGER NOT NULL,
	probability    REAL NOT NULL,
	threshold      REAL NOT NULL,
	at_risk        INTEGER NOT NULL,
	reason         TEXT,
	created_at     TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_prediction_log_created ON prediction_log(created_at);
`
// #endregion schema

// #region store-struct
// Store owns the SQLite database behind the prediction audit log.
type Store struct {
	db *sql.DB
}
// #endregion store-struct

// #region constructor
// NewStore opens a SQLite database and runs migrations.
func NewStore(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	// :memory: databases are per-connection.
	if dbPath == ":memory:" {
		db.SetMaxOpenConns(1)
	}
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("pragma: %w", err)
	}
	if _, err := db.Exec("PRAGMA foreign_keys=ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("pragma fk: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return &Store{db: db}, nil
}
// #endregion constructor

// #region close
// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}
// #endregion close

// #region db-accessor
// DB returns the underlying *sql.DB for use by other packages (e.g. logging).
func (s *Store) DB() *sql.DB {
	return s.db
}
// #endregion db-accessor

// #region stats
// Stats summarizes the audit log.
type Stats struct {
	Total   int `json:"total"`
	AtRisk  int `json:"at_risk"`
	Session int `json:"sessions"`
}

// Stats counts logged predictions.
func (s *Store) Stats() (Stats, error) {
	var st Stats
	err := s.db.QueryRow(
		`SELECT COUNT(*), COALESCE(SUM(at_risk), 0), COUNT(DISTINCT session_id) FROM prediction_log`,
	).Scan(&st.Total, &st.AtRisk, &st.Session)
	if err != nil {
		return Stats{}, fmt.Errorf("stats: %w", err)
	}
	return st, nil
}
// #endregion stats
