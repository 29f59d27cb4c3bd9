package audit

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/ziadkadry99/diamond-desk/internal/chat"
	"github.com/ziadkadry99/diamond-desk/internal/pricing"
)

// Recorder turns estimator and chat events into ledger entries. Failures to
// write are logged and never surface to the caller.
type Recorder struct {
	store *Store
}

// NewRecorder creates a Recorder writing to store.
func NewRecorder(store *Store) *Recorder {
	return &Recorder{store: store}
}

var _ chat.Observer = (*Recorder)(nil)

func (r *Recorder) log(ctx context.Context, e Entry) {
	if r == nil || r.store == nil {
		return
	}
	// Request contexts may already be cancelled by the time a handler returns.
	if err := r.store.Log(context.WithoutCancel(ctx), e); err != nil {
		log.Printf("audit: recording %s: %v", e.Action, err)
	}
}

// PredictionMade records a successful estimate.
func (r *Recorder) PredictionMade(ctx context.Context, price float64) {
	r.log(ctx, Entry{
		Action:  ActionPredictionMade,
		Summary: fmt.Sprintf("estimated price %.2f", price),
	})
}

// PredictionRejected records a form that failed validation.
func (r *Recorder) PredictionRejected(ctx context.Context, warnings []pricing.Warning) {
	fields := make([]string, 0, len(warnings))
	for _, w := range warnings {
		fields = append(fields, string(w.Field))
	}
	r.log(ctx, Entry{
		Action:  ActionPredictionRejected,
		Summary: "invalid fields: " + strings.Join(fields, ", "),
	})
}

// PredictionFailed records a model invocation error.
func (r *Recorder) PredictionFailed(ctx context.Context, err error) {
	r.log(ctx, Entry{
		Action:  ActionPredictionFailed,
		Summary: err.Error(),
	})
}

func (r *Recorder) SessionStarted(ctx context.Context, sessionID string, settings chat.Settings) {
	r.log(ctx, Entry{
		Action:    ActionSessionStarted,
		SessionID: sessionID,
		Summary: fmt.Sprintf("style=%s length=%d temperature=%.2f",
			settings.Style, settings.Length, settings.Temperature),
	})
}

func (r *Recorder) TurnAnswered(ctx context.Context, sessionID string, usage chat.Usage) {
	r.log(ctx, Entry{
		Action:           ActionTurnAnswered,
		SessionID:        sessionID,
		Summary:          fmt.Sprintf("%d tokens", usage.Total()),
		PromptTokens:     usage.PromptTokens,
		CompletionTokens: usage.CompletionTokens,
	})
}

func (r *Recorder) TurnBlocked(ctx context.Context, sessionID string, categories []string) {
	r.log(ctx, Entry{
		Action:     ActionTurnBlocked,
		SessionID:  sessionID,
		Summary:    "blocked by moderation",
		Categories: categories,
	})
}

func (r *Recorder) SessionEnded(ctx context.Context, sessionID string, totals chat.Usage) {
	r.log(ctx, Entry{
		Action:    ActionSessionEnded,
		SessionID: sessionID,
		Summary:   fmt.Sprintf("%d tokens in total", totals.Total()),
	})
}
