package dashboard

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"

	"github.com/ziadkadry99/diamond-desk/internal/audit"
	"github.com/ziadkadry99/diamond-desk/internal/chat"
	"github.com/ziadkadry99/diamond-desk/internal/db"
	"github.com/ziadkadry99/diamond-desk/internal/llm"
	"github.com/ziadkadry99/diamond-desk/internal/model"
	"github.com/ziadkadry99/diamond-desk/internal/pricing"
)

type mockPredictor struct {
	mu    sync.Mutex
	calls int
	label float64
	err   error
}

func (m *mockPredictor) Predict(_ context.Context, records []model.Record) ([]model.Row, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	if m.err != nil {
		return nil, m.err
	}
	return []model.Row{{Record: records[0], PredictionLabel: m.label}}, nil
}

func (m *mockPredictor) Name() string { return "mock-model" }

// mockModerator flags any message containing "forbidden".
type mockModerator struct{}

func (mockModerator) Moderate(_ context.Context, input string) (*llm.ModerationResult, error) {
	scores := make([]llm.CategoryScore, len(llm.ModerationCategories))
	for i, c := range llm.ModerationCategories {
		scores[i] = llm.CategoryScore{Category: c}
	}
	if strings.Contains(input, "forbidden") {
		scores[9].Score = 0.9 // violence
		scores[2].Score = 0.5 // hate
	}
	return &llm.ModerationResult{Scores: scores}, nil
}

type mockCompleter struct {
	mu    sync.Mutex
	calls []llm.CompletionRequest
	err   error
}

func (m *mockCompleter) Name() string { return "mock" }

func (m *mockCompleter) Complete(_ context.Context, req llm.CompletionRequest) (*llm.CompletionResponse, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, req)
	if m.err != nil {
		return nil, m.err
	}
	return &llm.CompletionResponse{
		Content:      "**Hello** <script>x</script>",
		InputTokens:  10,
		OutputTokens: 4,
		FinishReason: "stop",
	}, nil
}

type testEnv struct {
	dash      *Dashboard
	router    chi.Router
	predictor *mockPredictor
	completer *mockCompleter
	sessions  *chat.Registry
	store     *audit.Store
}

func setupTest(t *testing.T) *testEnv {
	t.Helper()

	database, err := db.OpenMemory()
	if err != nil {
		t.Fatalf("opening test db: %v", err)
	}
	t.Cleanup(func() { database.Close() })

	store := audit.NewStore(database)
	recorder := audit.NewRecorder(store)

	predictor := &mockPredictor{label: 5234.567}
	completer := &mockCompleter{}
	sessions := chat.NewRegistry(chat.RegistryConfig{
		Model:  "gpt-3.5-turbo",
		Styles: []string{"expository", "narrative"},
		Factory: func(string) (llm.Moderator, llm.Provider) {
			return mockModerator{}, completer
		},
		Observer: recorder,
	})

	d := New(Options{
		Estimator: pricing.NewEstimator(predictor),
		Sessions:  sessions,
		Recorder:  recorder,
		Defaults:  chat.Settings{Temperature: 0, Length: 300, Style: "expository"},
	})

	r := chi.NewRouter()
	d.RegisterRoutes(r)

	return &testEnv{dash: d, router: r, predictor: predictor, completer: completer, sessions: sessions, store: store}
}

func (e *testEnv) do(t *testing.T, req *http.Request) *httptest.ResponseRecorder {
	t.Helper()
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func jsonRequest(t *testing.T, method, target string, body any) *http.Request {
	t.Helper()
	data, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	req := httptest.NewRequest(method, target, bytes.NewReader(data))
	req.Header.Set("Content-Type", "application/json")
	return req
}

func formRequest(target string, form url.Values) *http.Request {
	req := httptest.NewRequest(http.MethodPost, target, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return req
}

func fullPriceForm() url.Values {
	return url.Values{
		"carat_weight": {"1.1"},
		"cut":          {"Ideal"},
		"color":        {"G"},
		"clarity":      {"VVS2"},
		"polish":       {"EX"},
		"symmetry":     {"VG"},
		"report":       {"GIA"},
	}
}

// startSession creates a session through the JSON API and returns its ID.
func (e *testEnv) startSession(t *testing.T) string {
	t.Helper()
	w := e.do(t, jsonRequest(t, http.MethodPost, "/api/chat/sessions", map[string]any{
		"api_key": "sk-test",
		"style":   "narrative",
		"length":  600,
	}))
	if w.Code != http.StatusCreated {
		t.Fatalf("create session: expected 201, got %d: %s", w.Code, w.Body.String())
	}
	var resp sessionResponse
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("decoding session: %v", err)
	}
	return resp.SessionID
}

func TestServeIndex(t *testing.T) {
	env := setupTest(t)

	w := env.do(t, httptest.NewRequest(http.MethodGet, "/", nil))

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if ct := w.Header().Get("Content-Type"); !strings.Contains(ct, "text/html") {
		t.Errorf("expected text/html content type, got %q", ct)
	}
	body := w.Body.String()
	if !strings.Contains(body, "Diamond Desk") || !strings.Contains(body, "mock-model") {
		t.Error("expected landing page to name the app and the model")
	}
}

func TestPricePageRendersAllFields(t *testing.T) {
	env := setupTest(t)

	w := env.do(t, httptest.NewRequest(http.MethodGet, "/price", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	body := w.Body.String()
	for _, f := range pricing.Fields {
		if !strings.Contains(body, `name="`+string(f)+`"`) {
			t.Errorf("expected input for %s", f)
		}
	}
	if !strings.Contains(body, "Signature-Ideal (highest, most desirable cut)") {
		t.Error("expected human-readable option labels")
	}
}

func TestPriceSubmitShowsPrice(t *testing.T) {
	env := setupTest(t)

	w := env.do(t, formRequest("/price", fullPriceForm()))
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), "$5234.57") {
		t.Errorf("expected rounded price in page, got %s", w.Body.String())
	}
	if env.predictor.calls != 1 {
		t.Errorf("expected 1 predictor call, got %d", env.predictor.calls)
	}
}

func TestPriceSubmitMissingFieldsWarns(t *testing.T) {
	env := setupTest(t)

	form := fullPriceForm()
	form.Del("cut")
	form.Del("report")

	w := env.do(t, formRequest("/price", form))
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	body := w.Body.String()
	if !strings.Contains(body, "Please select the Cut") {
		t.Error("expected cut warning")
	}
	if !strings.Contains(body, "graded the diamond.") {
		t.Error("expected report warning")
	}
	if env.predictor.calls != 0 {
		t.Errorf("predictor must not be called, got %d calls", env.predictor.calls)
	}
	// Submitted values are kept.
	if !strings.Contains(body, `value="1.1"`) {
		t.Error("expected carat weight to be preserved")
	}
}

func TestPriceAPI(t *testing.T) {
	env := setupTest(t)

	weight := 1.1
	w := env.do(t, jsonRequest(t, http.MethodPost, "/api/price", pricing.Request{
		CaratWeight: &weight, Cut: "Ideal", Color: "G", Clarity: "VVS2",
		Polish: "EX", Symmetry: "VG", Report: "GIA",
	}))
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}

	var est pricing.Estimate
	if err := json.NewDecoder(w.Body).Decode(&est); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if est.Price != 5234.57 {
		t.Errorf("price = %v, want 5234.57", est.Price)
	}

	entries, err := env.store.Query(context.Background(), audit.QueryFilter{Action: audit.ActionPredictionMade})
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if len(entries) != 1 {
		t.Errorf("expected 1 ledger entry, got %d", len(entries))
	}
}

func TestPriceAPIWarnings(t *testing.T) {
	env := setupTest(t)

	w := env.do(t, jsonRequest(t, http.MethodPost, "/api/price", pricing.Request{Cut: "Ideal"}))
	if w.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d", w.Code)
	}

	var est pricing.Estimate
	if err := json.NewDecoder(w.Body).Decode(&est); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(est.Warnings) != 6 {
		t.Errorf("expected 6 warnings, got %d", len(est.Warnings))
	}
	if env.predictor.calls != 0 {
		t.Error("predictor must not be called")
	}
}

func TestPriceAPIModelFailure(t *testing.T) {
	env := setupTest(t)
	env.predictor.err = errors.New("model exploded")

	w := env.do(t, formRequest("/price", fullPriceForm()))
	if w.Code != http.StatusBadGateway {
		t.Fatalf("expected 502, got %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), "model exploded") {
		t.Error("expected failure to be shown")
	}
}

func TestPriceNoModel(t *testing.T) {
	env := setupTest(t)
	env.dash.estimator = pricing.NewEstimator(nil)

	w := env.do(t, formRequest("/price", fullPriceForm()))
	if w.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", w.Code)
	}
}

func TestPriceOptions(t *testing.T) {
	env := setupTest(t)

	w := env.do(t, httptest.NewRequest(http.MethodGet, "/api/price/options", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	var specs []pricing.FieldSpec
	if err := json.NewDecoder(w.Body).Decode(&specs); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(specs) != len(pricing.Fields) {
		t.Errorf("expected %d specs, got %d", len(pricing.Fields), len(specs))
	}
}

func TestCreateSessionRequiresKey(t *testing.T) {
	env := setupTest(t)

	w := env.do(t, jsonRequest(t, http.MethodPost, "/api/chat/sessions", map[string]any{"api_key": "  "}))
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}
	if env.sessions.Len() != 0 {
		t.Error("no session should be created")
	}
}

func TestCreateSessionAPIUsesDefaults(t *testing.T) {
	env := setupTest(t)

	id := env.startSession(t)
	sess, err := env.sessions.Get(id)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	got := sess.InitialSettings()
	want := chat.Settings{Temperature: 0, Length: 600, Style: "narrative"}
	if got != want {
		t.Errorf("settings = %+v, want %+v", got, want)
	}
}

func TestMessageAPIAnswered(t *testing.T) {
	env := setupTest(t)
	id := env.startSession(t)

	temp := 1.25
	w := env.do(t, jsonRequest(t, http.MethodPost, "/api/chat/messages", chatRequest{
		SessionID:   id,
		Content:     "hello",
		Temperature: &temp,
	}))
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}

	var resp chatResponse
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Type != "response" {
		t.Errorf("type = %q, want response", resp.Type)
	}
	if resp.Totals.PromptTokens != 10 || resp.Totals.CompletionTokens != 4 {
		t.Errorf("totals = %+v", resp.Totals)
	}
	if !strings.Contains(string(resp.HTML), "<strong>Hello</strong>") {
		t.Errorf("expected markdown rendering, got %q", resp.HTML)
	}
	if strings.Contains(string(resp.HTML), "<script>") {
		t.Error("raw HTML must not pass through")
	}

	call := env.completer.calls[0]
	if call.Temperature != 1.25 || call.MaxTokens != chat.ReplyTokenLimit(600) {
		t.Errorf("unexpected completion params: temperature=%v max_tokens=%d", call.Temperature, call.MaxTokens)
	}
}

func TestMessageAPIBlocked(t *testing.T) {
	env := setupTest(t)
	id := env.startSession(t)

	w := env.do(t, jsonRequest(t, http.MethodPost, "/api/chat/messages", chatRequest{
		SessionID: id,
		Content:   "something forbidden",
	}))
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}

	var resp chatResponse
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Type != "blocked" {
		t.Fatalf("type = %q, want blocked", resp.Type)
	}
	if len(resp.Categories) != 5 || resp.Categories[0] != "violence" || resp.Categories[1] != "hate" {
		t.Errorf("categories = %v", resp.Categories)
	}
	if !strings.HasPrefix(resp.Content, chat.RefusalIntro) {
		t.Errorf("unexpected refusal %q", resp.Content)
	}
	if len(env.completer.calls) != 0 {
		t.Error("completion must not be called for a blocked turn")
	}
}

func TestMessageAPIUnknownSession(t *testing.T) {
	env := setupTest(t)

	w := env.do(t, jsonRequest(t, http.MethodPost, "/api/chat/messages", chatRequest{SessionID: "nope", Content: "hi"}))
	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", w.Code)
	}
}

func TestMessageAPICompletionFailure(t *testing.T) {
	env := setupTest(t)
	id := env.startSession(t)
	env.completer.err = errors.New("quota exceeded")

	w := env.do(t, jsonRequest(t, http.MethodPost, "/api/chat/messages", chatRequest{SessionID: id, Content: "hi"}))
	if w.Code != http.StatusBadGateway {
		t.Fatalf("expected 502, got %d", w.Code)
	}

	sess, _ := env.sessions.Get(id)
	if n := len(sess.Transcript()); n != 1 {
		t.Errorf("transcript should only hold the system instruction, got %d messages", n)
	}
}

func TestUsageAPI(t *testing.T) {
	env := setupTest(t)
	id := env.startSession(t)

	for i := 0; i < 2; i++ {
		env.do(t, jsonRequest(t, http.MethodPost, "/api/chat/messages", chatRequest{SessionID: id, Content: "hi"}))
	}

	w := env.do(t, httptest.NewRequest(http.MethodGet, "/api/chat/usage?session_id="+id, nil))
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	var u usageResponse
	if err := json.NewDecoder(w.Body).Decode(&u); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if u.PromptTokens != 20 || u.CompletionTokens != 8 || u.TotalTokens != 28 {
		t.Errorf("usage = %+v", u)
	}
	if u.EstimatedCost <= 0 {
		t.Errorf("expected a positive cost estimate, got %v", u.EstimatedCost)
	}
}

func TestEndSessionAPI(t *testing.T) {
	env := setupTest(t)
	id := env.startSession(t)

	w := env.do(t, httptest.NewRequest(http.MethodDelete, "/api/chat/sessions/"+id, nil))
	if w.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", w.Code)
	}
	if env.sessions.Len() != 0 {
		t.Error("session should be destroyed")
	}

	w = env.do(t, httptest.NewRequest(http.MethodDelete, "/api/chat/sessions/"+id, nil))
	if w.Code != http.StatusNotFound {
		t.Errorf("expected 404 on second delete, got %d", w.Code)
	}
}

func TestChatPageFlow(t *testing.T) {
	env := setupTest(t)

	// Start a conversation through the sidebar form.
	w := env.do(t, formRequest("/chat/session", url.Values{
		"api_key":     {"sk-test"},
		"temperature": {"0.7"},
		"length":      {"900"},
		"style":       {"narrative"},
	}))
	if w.Code != http.StatusSeeOther {
		t.Fatalf("expected 303, got %d: %s", w.Code, w.Body.String())
	}
	cookies := w.Result().Cookies()
	if len(cookies) != 1 || cookies[0].Name != sessionCookie {
		t.Fatalf("expected session cookie, got %v", cookies)
	}
	cookie := cookies[0]

	// Send a message through the form fallback.
	req := formRequest("/chat", url.Values{"content": {"hello"}, "length": {"300"}})
	req.AddCookie(cookie)
	w = env.do(t, req)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if env.completer.calls[0].MaxTokens != chat.ReplyTokenLimit(300) {
		t.Errorf("expected current length to be used, got %d", env.completer.calls[0].MaxTokens)
	}

	// The transcript is shown without the system instruction.
	req = httptest.NewRequest(http.MethodGet, "/chat", nil)
	req.AddCookie(cookie)
	w = env.do(t, req)
	body := w.Body.String()
	if !strings.Contains(body, "<strong>Hello</strong>") {
		t.Error("expected rendered assistant reply")
	}
	if strings.Contains(body, "personal assistant") {
		t.Error("system instruction must not be displayed")
	}
	if !strings.Contains(body, "End conversation") {
		t.Error("expected end conversation control")
	}

	// End the conversation.
	req = formRequest("/chat/end", url.Values{})
	req.AddCookie(cookie)
	w = env.do(t, req)
	if w.Code != http.StatusSeeOther {
		t.Fatalf("expected 303, got %d", w.Code)
	}
	if env.sessions.Len() != 0 {
		t.Error("session should be destroyed")
	}
}

func TestChatSubmitBlockedShowsRefusal(t *testing.T) {
	env := setupTest(t)
	id := env.startSession(t)

	req := formRequest("/chat", url.Values{"content": {"forbidden words"}})
	req.AddCookie(&http.Cookie{Name: sessionCookie, Value: id})
	w := env.do(t, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	body := w.Body.String()
	if !strings.Contains(body, "something else?") || !strings.Contains(body, "<li>violence</li>") {
		t.Errorf("expected refusal with categories, got %s", body)
	}
}

func TestChatPageWithoutSession(t *testing.T) {
	env := setupTest(t)

	req := httptest.NewRequest(http.MethodGet, "/chat", nil)
	req.AddCookie(&http.Cookie{Name: sessionCookie, Value: "stale"})
	w := env.do(t, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), "start a conversation") {
		t.Error("expected prompt to start a conversation")
	}
	cookies := w.Result().Cookies()
	if len(cookies) != 1 || cookies[0].MaxAge >= 0 {
		t.Errorf("expected stale cookie to be cleared, got %v", cookies)
	}
}

func dialChat(t *testing.T, env *testEnv) *websocket.Conn {
	t.Helper()
	server := httptest.NewServer(env.router)
	t.Cleanup(server.Close)

	wsURL := "ws" + strings.TrimPrefix(server.URL, "http") + "/ws/chat"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("websocket dial: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func roundTrip(t *testing.T, conn *websocket.Conn, msg chatRequest) chatResponse {
	t.Helper()
	if err := conn.WriteJSON(msg); err != nil {
		t.Fatalf("write: %v", err)
	}
	var resp chatResponse
	if err := conn.ReadJSON(&resp); err != nil {
		t.Fatalf("read: %v", err)
	}
	return resp
}

func TestWebSocketConversation(t *testing.T) {
	env := setupTest(t)
	id := env.startSession(t)
	conn := dialChat(t, env)

	resp := roundTrip(t, conn, chatRequest{Type: "message", SessionID: id, Content: "hi"})
	if resp.Type != "response" {
		t.Fatalf("type = %q, want response (%s)", resp.Type, resp.Content)
	}
	if resp.SessionID != id {
		t.Errorf("session id = %q, want %q", resp.SessionID, id)
	}

	resp = roundTrip(t, conn, chatRequest{Type: "message", SessionID: id, Content: "forbidden"})
	if resp.Type != "blocked" {
		t.Errorf("type = %q, want blocked", resp.Type)
	}
	if resp.Totals.PromptTokens != 10 {
		t.Errorf("blocked turn must not change totals, got %+v", resp.Totals)
	}

	resp = roundTrip(t, conn, chatRequest{Type: "end", SessionID: id})
	if resp.Type != "ended" {
		t.Errorf("type = %q, want ended", resp.Type)
	}
	if env.sessions.Len() != 0 {
		t.Error("session should be destroyed")
	}
}

func TestWebSocketWithoutSession(t *testing.T) {
	env := setupTest(t)
	conn := dialChat(t, env)

	resp := roundTrip(t, conn, chatRequest{Type: "message", Content: "hi"})
	if resp.Type != "error" {
		t.Errorf("expected error type, got %q", resp.Type)
	}
	if !strings.Contains(resp.Content, "start a conversation") {
		t.Errorf("unexpected error %q", resp.Content)
	}
}

func TestWebSocketEmptyContent(t *testing.T) {
	env := setupTest(t)
	conn := dialChat(t, env)

	resp := roundTrip(t, conn, chatRequest{Type: "message", Content: ""})
	if resp.Type != "error" {
		t.Errorf("expected error type, got %q", resp.Type)
	}
	if !strings.Contains(resp.Content, "content is required") {
		t.Errorf("expected content error, got %q", resp.Content)
	}
}

func TestWebSocketUnknownType(t *testing.T) {
	env := setupTest(t)
	conn := dialChat(t, env)

	resp := roundTrip(t, conn, chatRequest{Type: "unknown", Content: "hello"})
	if resp.Type != "error" {
		t.Errorf("expected error type, got %q", resp.Type)
	}
	if !strings.Contains(resp.Content, "unknown message type") {
		t.Errorf("expected unknown type error, got %q", resp.Content)
	}
}

func TestWebSocketRejectsForeignOrigin(t *testing.T) {
	env := setupTest(t)
	id := env.startSession(t)

	server := httptest.NewServer(env.router)
	t.Cleanup(server.Close)
	wsURL := "ws" + strings.TrimPrefix(server.URL, "http") + "/ws/chat"

	header := http.Header{}
	header.Set("Origin", "https://evil.example")
	header.Set("Cookie", sessionCookie+"="+id)
	conn, resp, err := websocket.DefaultDialer.Dial(wsURL, header)
	if err == nil {
		conn.Close()
		t.Fatal("expected cross-origin handshake to fail")
	}
	if resp == nil || resp.StatusCode != http.StatusForbidden {
		t.Errorf("expected 403, got %v", resp)
	}
	if len(env.completer.calls) != 0 {
		t.Errorf("completion must not run, got %d calls", len(env.completer.calls))
	}

	// The page's own origin is accepted.
	header.Set("Origin", server.URL)
	conn, _, err = websocket.DefaultDialer.Dial(wsURL, header)
	if err != nil {
		t.Fatalf("same-origin dial: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	got := roundTrip(t, conn, chatRequest{Type: "message", Content: "hi"})
	if got.Type != "response" || got.SessionID != id {
		t.Errorf("same-origin turn = %q for %q", got.Type, got.SessionID)
	}
	if got.FinishReason != "stop" {
		t.Errorf("finish reason = %q", got.FinishReason)
	}
}

func TestCreateSessionAPIReplacesCookieSession(t *testing.T) {
	env := setupTest(t)
	first := env.startSession(t)

	req := jsonRequest(t, http.MethodPost, "/api/chat/sessions", map[string]any{"api_key": "sk-test"})
	req.AddCookie(&http.Cookie{Name: sessionCookie, Value: first})
	w := env.do(t, req)
	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", w.Code, w.Body.String())
	}

	if env.sessions.Len() != 1 {
		t.Errorf("expected only the new session to remain, got %d", env.sessions.Len())
	}
	if _, err := env.sessions.Get(first); !errors.Is(err, chat.ErrSessionNotFound) {
		t.Errorf("previous session should be ended, got %v", err)
	}
}
