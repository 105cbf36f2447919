package logging

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// ErrNotFound is returned by GetPrediction for an unknown ID.
var ErrNotFound = errors.New("prediction not found")

// #region log-prediction
// LogPrediction writes an entry to the prediction_log table and returns its ID.
func LogPrediction(db *sql.DB, entry PredictionEntry) (string, error) {
	if entry.ID == "" {
		entry.ID = uuid.New().String()
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}
	if entry.RowJSON == "" {
		entry.RowJSON = "{}"
	}

	_, err := db.Exec(
		`INSERT INTO prediction_log (id, session_id, source, selection_json, row_json, label, probability, threshold, at_risk, reason, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		entry.ID,
		nullIfEmpty(entry.SessionID),
		entry.Source,
		nullIfEmpty(entry.SelectionJSON),
		entry.RowJSON,
		entry.Label,
		entry.Probability,
		entry.Threshold,
		boolToInt(entry.AtRisk),
		nullIfEmpty(entry.Reason),
		entry.CreatedAt.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return "", fmt.Errorf("log prediction: %w", err)
	}
	return entry.ID, nil
}
// #endregion log-prediction

// #region read
const selectColumns = `SELECT id, session_id, source, selection_json, row_json, label, probability, threshold, at_risk, reason, created_at
	 FROM prediction_log`

// ListPredictions returns the most recent entries, newest first.
func ListPredictions(db *sql.DB, limit int) ([]PredictionEntry, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := db.Query(selectColumns+` ORDER BY created_at DESC, id LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("list predictions: %w", err)
	}
	defer rows.Close()

	var entries []PredictionEntry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// GetPrediction reads one entry by ID.
func GetPrediction(db *sql.DB, id string) (PredictionEntry, error) {
	e, err := scanEntry(db.QueryRow(selectColumns+` WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return PredictionEntry{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return e, err
}

type scanner interface {
	Scan(dest ...any) error
}

func scanEntry(row scanner) (PredictionEntry, error) {
	var e PredictionEntry
	var sessionID, selection, reason sql.NullString
	var atRisk int
	var createdStr string

	err := row.Scan(&e.ID, &sessionID, &e.Source, &selection, &e.RowJSON, &e.Label,
		&e.Probability, &e.Threshold, &atRisk, &reason, &createdStr)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return PredictionEntry{}, err
		}
		return PredictionEntry{}, fmt.Errorf("scan prediction: %w", err)
	}
	if sessionID.Valid {
		e.SessionID = sessionID.String
	}
	if selection.Valid {
		e.SelectionJSON = selection.String
	}
	if reason.Valid {
		e.Reason = reason.String
	}
	e.AtRisk = atRisk != 0
	e.CreatedAt, _ = time.Parse(time.RFC3339Nano, createdStr)
	return e, nil
}
// #endregion read

// #region helpers
func nullIfEmpty(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
// #endregion helpers
