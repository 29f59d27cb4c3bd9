package dashboard

import (
	"context"
	"encoding/json"
	"html/template"
	"log"
	"net/http"
	"strings"

	"github.com/gorilla/websocket"

	"github.com/ziadkadry99/diamond-desk/internal/chat"
)

// upgrader keeps gorilla's same-origin check: a session cookie carries the
// user's API key, so other sites must not drive the socket.
var upgrader = websocket.Upgrader{}

// chatRequest is the incoming message format, shared by the WebSocket and
// POST /api/chat/messages. Unset settings fall back to the values the
// session was started with.
type chatRequest struct {
	Type        string   `json:"type"`       // "message" or "end"
	SessionID   string   `json:"session_id"` // empty to use the session cookie
	Content     string   `json:"content"`
	Temperature *float64 `json:"temperature,omitempty"`
	Length      *int     `json:"length,omitempty"`
	Style       string   `json:"style,omitempty"`
}

func (req chatRequest) settings(fallback chat.Settings) chat.Settings {
	s := fallback
	if req.Temperature != nil {
		s.Temperature = *req.Temperature
	}
	if req.Length != nil {
		s.Length = *req.Length
	}
	if req.Style != "" {
		s.Style = req.Style
	}
	return s
}

// chatResponse is the outgoing message format.
type chatResponse struct {
	Type       string        `json:"type"` // "response", "blocked", "ended" or "error"
	SessionID  string        `json:"session_id"`
	Content    string        `json:"content"`
	HTML       template.HTML `json:"html,omitempty"`
	Categories []string      `json:"categories,omitempty"`
	Usage      chat.Usage    `json:"usage"`
	Totals     chat.Usage    `json:"totals"`
	Cost       float64       `json:"estimated_cost"`
	// FinishReason is set on responses; "length" means the reply was cut off.
	FinishReason string `json:"finish_reason,omitempty"`
}

// turn sends one message through the session's moderation gate.
func (d *Dashboard) turn(ctx context.Context, sess *chat.Session, req chatRequest) (chatResponse, error) {
	result, err := sess.Send(ctx, req.Content, req.settings(sess.InitialSettings()))
	if err != nil {
		return chatResponse{}, err
	}

	resp := chatResponse{
		SessionID: sess.ID,
		Usage:     result.Usage,
		Totals:    result.Totals,
		Cost:      sess.EstimatedCost(),
	}
	switch result.Outcome {
	case chat.OutcomeBlocked:
		resp.Type = "blocked"
		resp.Categories = result.Categories
		resp.Content = chat.RefusalMessage(result.Categories)
	default:
		resp.Type = "response"
		resp.Content = result.Reply
		resp.FinishReason = result.FinishReason
	}
	resp.HTML = renderMarkdown(resp.Content)
	return resp, nil
}

func (d *Dashboard) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("dashboard: websocket upgrade: %v", err)
		return
	}
	defer conn.Close()

	for {
		_, msg, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Printf("dashboard: websocket read: %v", err)
			}
			return
		}

		var req chatRequest
		if err := json.Unmarshal(msg, &req); err != nil {
			d.sendError(conn, "", "invalid message format")
			continue
		}

		switch req.Type {
		case "message":
			d.handleChatMessage(conn, r, req)
		case "end":
			d.handleEndMessage(conn, r, req)
		default:
			d.sendError(conn, req.SessionID, "unknown message type: "+req.Type)
		}
	}
}

func (d *Dashboard) handleChatMessage(conn *websocket.Conn, r *http.Request, req chatRequest) {
	if strings.TrimSpace(req.Content) == "" {
		d.sendError(conn, req.SessionID, "content is required")
		return
	}

	sess, err := d.lookupSession(r, req.SessionID)
	if err != nil {
		d.sendError(conn, req.SessionID, "start a conversation with your OpenAI API key first")
		return
	}

	resp, err := d.turn(r.Context(), sess, req)
	if err != nil {
		d.sendError(conn, sess.ID, err.Error())
		return
	}
	d.sendResponse(conn, resp)
}

func (d *Dashboard) handleEndMessage(conn *websocket.Conn, r *http.Request, req chatRequest) {
	id := sessionID(r, req.SessionID)
	if err := d.sessions.End(r.Context(), id); err != nil {
		d.sendError(conn, id, err.Error())
		return
	}
	d.sendResponse(conn, chatResponse{Type: "ended", SessionID: id})
}

func (d *Dashboard) sendResponse(conn *websocket.Conn, resp chatResponse) {
	if err := conn.WriteJSON(resp); err != nil {
		log.Printf("dashboard: websocket write: %v", err)
	}
}

func (d *Dashboard) sendError(conn *websocket.Conn, sessionID, message string) {
	resp := chatResponse{
		Type:      "error",
		SessionID: sessionID,
		Content:   message,
	}
	if err := conn.WriteJSON(resp); err != nil {
		log.Printf("dashboard: websocket write error: %v", err)
	}
}
