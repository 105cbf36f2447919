package logging

import "time"

// #region prediction-entry
// PredictionEntry is a single row in the prediction_log table.
type PredictionEntry struct {
	ID            string    `json:"id"`
	SessionID     string    `json:"session_id,omitempty"`
	Source        string    `json:"source"` // "web" | "cli" | "replay"
	SelectionJSON string    `json:"selection,omitempty"`
	RowJSON       string    `json:"row"`
	Label         int       `json:"label"`
	Probability   float64   `json:"probability"`
	Threshold     float64   `json:"threshold"`
	AtRisk        bool      `json:"at_risk"`
	Reason        string    `json:"reason,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
}
// #endregion prediction-entry

const (
	SourceWeb    = "web"
	SourceCLI    = "cli"
	SourceReplay = "replay"
)
