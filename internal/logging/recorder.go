package logging

import (
	"database/sql"

	"go.uber.org/zap"
)

// Recorder writes audit entries without failing the caller. A Recorder with
// no database only logs.
type Recorder struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewRecorder wraps db. db may be nil.
func NewRecorder(db *sql.DB, logger *zap.Logger) *Recorder {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Recorder{db: db, logger: logger}
}

// Record persists entry and returns its ID, or "" when nothing was written.
func (r *Recorder) Record(entry PredictionEntry) string {
	fields := []zap.Field{
		zap.String("source", entry.Source),
		zap.String("session", entry.SessionID),
		zap.Float64("probability", entry.Probability),
		zap.Float64("threshold", entry.Threshold),
		zap.Bool("at_risk", entry.AtRisk),
	}
	if r == nil {
		return ""
	}
	if r.db == nil {
		r.logger.Debug("prediction served (audit log disabled)", fields...)
		return ""
	}
	id, err := LogPrediction(r.db, entry)
	if err != nil {
		r.logger.Warn("audit log write failed", append(fields, zap.Error(err))...)
		return ""
	}
	r.logger.Info("prediction logged", append(fields, zap.String("id", id))...)
	return id
}
