// Package audit keeps a ledger of estimates and chat turns: what happened,
// in which session and how many tokens it cost. It never records message
// content, form values beyond the estimate, or credentials.
package audit

import "time"

// Action describes what was done.
type Action string

const (
	ActionPredictionMade     Action = "prediction_made"
	ActionPredictionRejected Action = "prediction_rejected"
	ActionPredictionFailed   Action = "prediction_failed"
	ActionSessionStarted     Action = "session_started"
	ActionTurnAnswered       Action = "turn_answered"
	ActionTurnBlocked        Action = "turn_blocked"
	ActionSessionEnded       Action = "session_ended"
)

// Entry is a single ledger record.
type Entry struct {
	ID               string    `json:"id"`
	Timestamp        time.Time `json:"timestamp"`
	Action           Action    `json:"action"`
	SessionID        string    `json:"session_id,omitempty"`
	Summary          string    `json:"summary"`
	PromptTokens     int       `json:"prompt_tokens"`
	CompletionTokens int       `json:"completion_tokens"`
	Categories       []string  `json:"categories,omitempty"`
}

// Totals aggregates token usage over ledger entries.
type Totals struct {
	Turns            int `json:"turns"`
	Blocked          int `json:"blocked"`
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
}
