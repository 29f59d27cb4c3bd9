package dashboard

import (
	"encoding/json"
	"html/template"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/ziadkadry99/diamond-desk/internal/chat"
	"github.com/ziadkadry99/diamond-desk/internal/llm"
)

type chatMessage struct {
	Role llm.Role
	HTML template.HTML
}

type lengthOption struct {
	Value int
	Label string
}

type chatPage struct {
	SessionID      string
	ChatModel      string
	Messages       []chatMessage
	Settings       chat.Settings
	Styles         []string
	Lengths        []lengthOption
	MinTemperature float64
	MaxTemperature float64
	Usage          chat.Usage
	Cost           float64
	Notice         template.HTML
	Error          string
}

func (d *Dashboard) newChatPage(sess *chat.Session, settings chat.Settings) chatPage {
	page := chatPage{
		ChatModel:      d.sessions.Model(),
		Settings:       settings,
		Styles:         d.sessions.Styles(),
		MinTemperature: chat.MinTemperature,
		MaxTemperature: chat.MaxTemperature,
	}
	for _, l := range chat.Lengths {
		page.Lengths = append(page.Lengths, lengthOption{Value: l, Label: chat.LengthLabel(l)})
	}
	if sess == nil {
		return page
	}

	page.SessionID = sess.ID
	page.Usage = sess.Usage()
	page.Cost = sess.EstimatedCost()
	for _, m := range sess.Transcript() {
		if m.Role == llm.RoleSystem {
			continue
		}
		page.Messages = append(page.Messages, chatMessage{Role: m.Role, HTML: renderMarkdown(m.Content)})
	}
	return page
}

func (d *Dashboard) handleChatPage(w http.ResponseWriter, r *http.Request) {
	sess, err := d.lookupSession(r, "")
	if err != nil {
		if sessionID(r, "") != "" {
			clearSessionCookie(w)
		}
		render(w, http.StatusOK, "chat.html", d.newChatPage(nil, d.defaults))
		return
	}
	render(w, http.StatusOK, "chat.html", d.newChatPage(sess, sess.InitialSettings()))
}

// handleChatSubmit is the form fallback for sending a message without the
// WebSocket.
func (d *Dashboard) handleChatSubmit(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form", http.StatusBadRequest)
		return
	}

	sess, err := d.lookupSession(r, "")
	if err != nil {
		page := d.newChatPage(nil, settingsFromForm(r.PostForm, d.defaults))
		page.Error = "Start a conversation with your OpenAI API key first."
		render(w, http.StatusNotFound, "chat.html", page)
		return
	}

	settings := settingsFromForm(r.PostForm, sess.InitialSettings())
	resp, err := d.turn(r.Context(), sess, chatRequest{
		Content:     r.PostForm.Get("content"),
		Temperature: &settings.Temperature,
		Length:      &settings.Length,
		Style:       settings.Style,
	})

	page := d.newChatPage(sess, settings)
	if err != nil {
		page.Error = err.Error()
		render(w, statusFor(err), "chat.html", page)
		return
	}
	if resp.Type == "blocked" {
		page.Notice = resp.HTML
	}
	render(w, http.StatusOK, "chat.html", page)
}

func (d *Dashboard) handleStartSession(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form", http.StatusBadRequest)
		return
	}

	settings := settingsFromForm(r.PostForm, d.defaults)
	sess, err := d.sessions.Create(r.Context(), r.PostForm.Get("api_key"), settings)
	if err != nil {
		page := d.newChatPage(nil, settings)
		page.Error = err.Error()
		render(w, statusFor(err), "chat.html", page)
		return
	}

	// Starting over replaces any conversation still attached to the browser.
	if old := sessionID(r, ""); old != "" {
		d.sessions.End(r.Context(), old)
	}

	setSessionCookie(w, sess.ID)
	http.Redirect(w, r, "/chat", http.StatusSeeOther)
}

func (d *Dashboard) handleEndSession(w http.ResponseWriter, r *http.Request) {
	if id := sessionID(r, ""); id != "" {
		d.sessions.End(r.Context(), id)
	}
	clearSessionCookie(w)
	http.Redirect(w, r, "/chat", http.StatusSeeOther)
}

type createSessionRequest struct {
	APIKey string `json:"api_key"`
	chat.Settings
}

type sessionResponse struct {
	SessionID string        `json:"session_id"`
	Model     string        `json:"model"`
	Settings  chat.Settings `json:"settings"`
	CreatedAt time.Time     `json:"created_at"`
}

func (d *Dashboard) handleCreateSessionAPI(w http.ResponseWriter, r *http.Request) {
	req := createSessionRequest{Settings: d.defaults}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid JSON body"})
		return
	}

	sess, err := d.sessions.Create(r.Context(), req.APIKey, req.Settings)
	if err != nil {
		writeError(w, err)
		return
	}

	if old := sessionID(r, ""); old != "" {
		d.sessions.End(r.Context(), old)
	}

	setSessionCookie(w, sess.ID)
	writeJSON(w, http.StatusCreated, sessionResponse{
		SessionID: sess.ID,
		Model:     sess.Model(),
		Settings:  sess.InitialSettings(),
		CreatedAt: sess.CreatedAt,
	})
}

func (d *Dashboard) handleEndSessionAPI(w http.ResponseWriter, r *http.Request) {
	if err := d.sessions.End(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (d *Dashboard) handleMessageAPI(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid JSON body"})
		return
	}

	sess, err := d.lookupSession(r, req.SessionID)
	if err != nil {
		writeError(w, err)
		return
	}

	resp, err := d.turn(r.Context(), sess, req)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

type usageResponse struct {
	SessionID        string  `json:"session_id"`
	PromptTokens     int     `json:"prompt_tokens"`
	CompletionTokens int     `json:"completion_tokens"`
	TotalTokens      int     `json:"total_tokens"`
	EstimatedCost    float64 `json:"estimated_cost"`
}

func (d *Dashboard) handleUsageAPI(w http.ResponseWriter, r *http.Request) {
	sess, err := d.lookupSession(r, r.URL.Query().Get("session_id"))
	if err != nil {
		writeError(w, err)
		return
	}

	u := sess.Usage()
	writeJSON(w, http.StatusOK, usageResponse{
		SessionID:        sess.ID,
		PromptTokens:     u.PromptTokens,
		CompletionTokens: u.CompletionTokens,
		TotalTokens:      u.Total(),
		EstimatedCost:    sess.EstimatedCost(),
	})
}
