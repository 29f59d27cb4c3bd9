package chat

import (
	"context"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/ziadkadry99/diamond-desk/internal/llm"
)

// ClientFactory builds the moderation and completion clients for one
// session from the API key the user entered.
type ClientFactory func(apiKey string) (llm.Moderator, llm.Provider)

// RegistryConfig configures a Registry.
type RegistryConfig struct {
	Model  string
	Styles []string
	// RequestsPerMinute limits completions per session; 0 disables limiting.
	RequestsPerMinute int
	// IdleTimeout is how long a session may go untouched before Sweep ends
	// it; 0 disables expiry.
	IdleTimeout time.Duration
	Factory     ClientFactory
	Observer    Observer
}

// Registry holds the live sessions. Sessions never share state; the
// registry lock only guards the map itself.
type Registry struct {
	cfg RegistryConfig

	mu       sync.RWMutex
	sessions map[string]*Session
}

// NewRegistry creates an empty registry.
func NewRegistry(cfg RegistryConfig) *Registry {
	if cfg.Observer == nil {
		cfg.Observer = nopObserver{}
	}
	return &Registry{
		cfg:      cfg,
		sessions: make(map[string]*Session),
	}
}

// Styles returns the accepted reply styles.
func (r *Registry) Styles() []string { return r.cfg.Styles }

// Model returns the completion model new sessions use.
func (r *Registry) Model() string { return r.cfg.Model }

// Create starts a new session. The API key is handed to the client factory
// and kept only inside the resulting clients.
func (r *Registry) Create(ctx context.Context, apiKey string, settings Settings) (*Session, error) {
	apiKey = strings.TrimSpace(apiKey)
	if apiKey == "" {
		return nil, ErrMissingAPIKey
	}
	if err := settings.Validate(r.cfg.Styles); err != nil {
		return nil, err
	}

	moderator, completer := r.cfg.Factory(apiKey)
	if r.cfg.RequestsPerMinute > 0 {
		completer = llm.NewRateLimitedProvider(completer, r.cfg.RequestsPerMinute)
	}

	sess, err := NewSession(uuid.New().String(), r.cfg.Model, settings, moderator, completer)
	if err != nil {
		return nil, err
	}
	sess.styles = r.cfg.Styles
	sess.observer = r.cfg.Observer

	r.mu.Lock()
	r.sessions[sess.ID] = sess
	r.mu.Unlock()

	r.cfg.Observer.SessionStarted(ctx, sess.ID, settings)
	return sess, nil
}

// Get returns the session with the given ID.
func (r *Registry) Get(id string) (*Session, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	sess, ok := r.sessions[id]
	if !ok {
		return nil, ErrSessionNotFound
	}
	sess.touch()
	return sess, nil
}

// End destroys a session, discarding its transcript, usage and clients.
func (r *Registry) End(ctx context.Context, id string) error {
	r.mu.Lock()
	sess, ok := r.sessions[id]
	delete(r.sessions, id)
	r.mu.Unlock()

	if !ok {
		return ErrSessionNotFound
	}
	r.cfg.Observer.SessionEnded(ctx, id, sess.Usage())
	return nil
}

// Len returns the number of live sessions.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}

// Sweep ends every session idle since before now minus IdleTimeout and
// returns how many it ended.
func (r *Registry) Sweep(ctx context.Context, now time.Time) int {
	if r.cfg.IdleTimeout <= 0 {
		return 0
	}
	cutoff := now.Add(-r.cfg.IdleTimeout)

	r.mu.Lock()
	var expired []*Session
	for id, sess := range r.sessions {
		if sess.LastActive().Before(cutoff) {
			expired = append(expired, sess)
			delete(r.sessions, id)
		}
	}
	r.mu.Unlock()

	for _, sess := range expired {
		r.cfg.Observer.SessionEnded(ctx, sess.ID, sess.Usage())
	}
	return len(expired)
}

// Run sweeps idle sessions every interval until ctx is done.
func (r *Registry) Run(ctx context.Context, interval time.Duration) {
	if r.cfg.IdleTimeout <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			if n := r.Sweep(ctx, now); n > 0 {
				log.Printf("chat: ended %d idle session(s)", n)
			}
		}
	}
}
