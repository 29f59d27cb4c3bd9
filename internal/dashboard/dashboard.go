// Package dashboard serves the two pages of the application: the diamond
// price estimation form and the moderated chat assistant.
package dashboard

import (
	"github.com/go-chi/chi/v5"

	"github.com/ziadkadry99/diamond-desk/internal/audit"
	"github.com/ziadkadry99/diamond-desk/internal/chat"
	"github.com/ziadkadry99/diamond-desk/internal/pricing"
)

// sessionCookie carries the chat session ID between page loads.
const sessionCookie = "diamonddesk_session"

// Options configures a Dashboard.
type Options struct {
	Estimator *pricing.Estimator
	Sessions  *chat.Registry
	// Recorder may be nil, in which case nothing is written to the ledger.
	Recorder *audit.Recorder
	// Defaults are the sidebar values shown before a conversation starts.
	Defaults chat.Settings
}

// Dashboard provides the HTML pages and their JSON equivalents.
type Dashboard struct {
	estimator *pricing.Estimator
	sessions  *chat.Registry
	recorder  *audit.Recorder
	defaults  chat.Settings
}

// New creates a new Dashboard.
func New(opts Options) *Dashboard {
	return &Dashboard{
		estimator: opts.Estimator,
		sessions:  opts.Sessions,
		recorder:  opts.Recorder,
		defaults:  opts.Defaults,
	}
}

// RegisterRoutes mounts all dashboard routes onto the given router.
func (d *Dashboard) RegisterRoutes(r chi.Router) {
	r.Get("/", d.ServeIndex)

	r.Get("/price", d.handlePricePage)
	r.Post("/price", d.handlePriceSubmit)
	r.Post("/api/price", d.handlePriceAPI)
	r.Get("/api/price/options", d.handlePriceOptions)

	r.Get("/chat", d.handleChatPage)
	r.Post("/chat", d.handleChatSubmit)
	r.Post("/chat/session", d.handleStartSession)
	r.Post("/chat/end", d.handleEndSession)
	r.Get("/ws/chat", d.handleWebSocket)

	r.Post("/api/chat/sessions", d.handleCreateSessionAPI)
	r.Delete("/api/chat/sessions/{id}", d.handleEndSessionAPI)
	r.Post("/api/chat/messages", d.handleMessageAPI)
	r.Get("/api/chat/usage", d.handleUsageAPI)
}
