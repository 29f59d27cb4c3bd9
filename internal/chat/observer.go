package chat

import "context"

// Observer is told about session lifecycle events. It only ever receives
// counts and category names, never message content or credentials.
type Observer interface {
	SessionStarted(ctx context.Context, sessionID string, settings Settings)
	TurnAnswered(ctx context.Context, sessionID string, usage Usage)
	TurnBlocked(ctx context.Context, sessionID string, categories []string)
	SessionEnded(ctx context.Context, sessionID string, totals Usage)
}

type nopObserver struct{}

func (nopObserver) SessionStarted(context.Context, string, Settings) {}
func (nopObserver) TurnAnswered(context.Context, string, Usage)      {}
func (nopObserver) TurnBlocked(context.Context, string, []string)    {}
func (nopObserver) SessionEnded(context.Context, string, Usage)      {}
