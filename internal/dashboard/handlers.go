package dashboard

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"net/url"
	"strconv"

	"github.com/ziadkadry99/diamond-desk/internal/chat"
	"github.com/ziadkadry99/diamond-desk/internal/pricing"
)

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, err error) {
	writeJSON(w, statusFor(err), errorResponse{Error: err.Error()})
}

// statusFor maps domain errors to HTTP status codes. Anything unrecognised
// is a failed call to the model or the OpenAI API.
func statusFor(err error) int {
	switch {
	case errors.Is(err, chat.ErrEmptyInput),
		errors.Is(err, chat.ErrInvalidSettings),
		errors.Is(err, chat.ErrMissingAPIKey):
		return http.StatusBadRequest
	case errors.Is(err, chat.ErrSessionNotFound):
		return http.StatusNotFound
	case errors.Is(err, pricing.ErrNoModel):
		return http.StatusServiceUnavailable
	default:
		log.Printf("dashboard: upstream failure: %v", err)
		return http.StatusBadGateway
	}
}

// settingsFromForm reads the sidebar controls, falling back to fallback for
// any value that is absent or unparsable. Validation happens in chat.
func settingsFromForm(form url.Values, fallback chat.Settings) chat.Settings {
	s := fallback
	if v, err := strconv.ParseFloat(form.Get("temperature"), 64); err == nil {
		s.Temperature = v
	}
	if v, err := strconv.Atoi(form.Get("length")); err == nil {
		s.Length = v
	}
	if v := form.Get("style"); v != "" {
		s.Style = v
	}
	return s
}

// sessionID returns explicit if set, otherwise the session cookie value.
func sessionID(r *http.Request, explicit string) string {
	if explicit != "" {
		return explicit
	}
	if c, err := r.Cookie(sessionCookie); err == nil {
		return c.Value
	}
	return ""
}

func (d *Dashboard) lookupSession(r *http.Request, explicit string) (*chat.Session, error) {
	id := sessionID(r, explicit)
	if id == "" {
		return nil, chat.ErrSessionNotFound
	}
	return d.sessions.Get(id)
}

func setSessionCookie(w http.ResponseWriter, id string) {
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookie,
		Value:    id,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

func clearSessionCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}
