// Package chat implements the chat assistant page: a per-conversation
// transcript, a moderation gate in front of every user message and the
// running token usage of the conversation.
package chat

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/ziadkadry99/diamond-desk/internal/llm"
)

// Session is one conversation. Its transcript always starts with the
// system instruction built from the settings the session was created with;
// later turns never modify or remove that entry.
type Session struct {
	ID        string
	CreatedAt time.Time

	model     string
	styles    []string
	moderator llm.Moderator
	completer llm.Provider
	observer  Observer

	// lastActive is unix nanoseconds; read without mu so sweeps never wait on a turn.
	lastActive atomic.Int64

	mu         sync.Mutex
	initial    Settings
	transcript []llm.Message
	usage      Usage
}

// NewSession starts a conversation with the given initial settings.
func NewSession(id, model string, settings Settings, moderator llm.Moderator, completer llm.Provider) (*Session, error) {
	if err := settings.Validate(nil); err != nil {
		return nil, err
	}
	now := time.Now().UTC()
	sess := &Session{
		ID:        id,
		CreatedAt: now,
		model:     model,
		moderator: moderator,
		completer: completer,
		observer:  nopObserver{},
		initial:   settings,
		transcript: []llm.Message{
			{Role: llm.RoleSystem, Content: SystemInstruction(settings)},
		},
	}
	sess.lastActive.Store(now.UnixNano())
	return sess, nil
}

// LastActive returns when the session was last created, read or sent to.
func (s *Session) LastActive() time.Time {
	return time.Unix(0, s.lastActive.Load()).UTC()
}

func (s *Session) touch() {
	s.lastActive.Store(time.Now().UnixNano())
}

// Model returns the completion model used by the session.
func (s *Session) Model() string { return s.model }

// InitialSettings returns the settings the system instruction was built from.
func (s *Session) InitialSettings() Settings { return s.initial }

// Transcript returns a copy of the conversation, system instruction first.
func (s *Session) Transcript() []llm.Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]llm.Message, len(s.transcript))
	copy(out, s.transcript)
	return out
}

// Usage returns the running token totals.
func (s *Session) Usage() Usage {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.usage
}

// EstimatedCost returns the approximate USD spent so far.
func (s *Session) EstimatedCost() float64 {
	u := s.Usage()
	return llm.EstimateCost(s.model, u.PromptTokens, u.CompletionTokens)
}

// Send handles one user message. The message is first moderated; if any
// category scores above Threshold the turn is blocked and the transcript is
// left untouched. Otherwise the message is appended, the whole transcript is
// sent for completion with the current settings, token usage is accumulated
// and the reply is appended.
//
// The style and length in settings only affect this turn's request
// parameters: the system instruction keeps the values the session started
// with. Moderation and completion failures are returned without retry, and
// a failed completion leaves the transcript as it was before the call.
func (s *Session) Send(ctx context.Context, input string, settings Settings) (*TurnResult, error) {
	if strings.TrimSpace(input) == "" {
		return nil, ErrEmptyInput
	}
	if err := settings.Validate(s.styles); err != nil {
		return nil, err
	}

	s.touch()
	defer s.touch()

	s.mu.Lock()
	defer s.mu.Unlock()

	mod, err := s.moderator.Moderate(ctx, input)
	if err != nil {
		return nil, fmt.Errorf("moderating message: %w", err)
	}

	scores := ScoreSet(mod.Scores)
	if scores.Exceeds() {
		top := scores.Top(RefusalCategories)
		s.observer.TurnBlocked(ctx, s.ID, top.Categories())
		return &TurnResult{
			Outcome:    OutcomeBlocked,
			Categories: top.Categories(),
			Totals:     s.usage,
		}, nil
	}

	s.transcript = append(s.transcript, llm.Message{Role: llm.RoleUser, Content: input})

	messages := make([]llm.Message, len(s.transcript))
	copy(messages, s.transcript)

	resp, err := s.completer.Complete(ctx, llm.CompletionRequest{
		Model:       s.model,
		Messages:    messages,
		MaxTokens:   ReplyTokenLimit(settings.Length),
		Temperature: settings.Temperature,
	})
	if err != nil {
		s.transcript = s.transcript[:len(s.transcript)-1]
		return nil, fmt.Errorf("completing message: %w", err)
	}

	turn := Usage{PromptTokens: resp.InputTokens, CompletionTokens: resp.OutputTokens}
	s.usage = s.usage.Add(turn)
	s.transcript = append(s.transcript, llm.Message{Role: llm.RoleAssistant, Content: resp.Content})

	s.observer.TurnAnswered(ctx, s.ID, turn)

	return &TurnResult{
		Outcome:      OutcomeAnswered,
		Reply:        resp.Content,
		Usage:        turn,
		Totals:       s.usage,
		FinishReason: resp.FinishReason,
	}, nil
}
