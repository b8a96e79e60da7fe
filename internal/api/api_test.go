package api

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/starford/pantry/internal/filter"
	"github.com/starford/pantry/internal/recipeservice"
	"github.com/starford/pantry/internal/session"
	"github.com/starford/pantry/internal/sse"
	"github.com/starford/pantry/internal/testutil"
)

// testEnv captures the sample listing into a temp catalogue and builds the
// router. A non-empty authToken enables token mode.
func testEnv(t *testing.T, authToken string) http.Handler {
	t.Helper()
	router, _ := testEnvFull(t, authToken != "", authToken, nil)
	return router
}

func testEnvFull(t *testing.T, authEnabled bool, authToken string, publish session.PublishFunc) (http.Handler, *session.Manager) {
	t.Helper()
	_, db := testutil.TestCatalog(t)

	// An hour-long quiet window keeps debounced passes from running during a test.
	m := session.NewManager(
		session.WithDelay(time.Hour),
		session.WithLogger(testutil.Logger()),
		session.WithPublisher(publish),
	)
	t.Cleanup(m.Close)

	svc := recipeservice.NewService(db, m)
	return NewRouter(svc, authEnabled, authToken, nil), m
}

func do(t *testing.T, router http.Handler, method, target string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatal(err)
		}
	}
	req := httptest.NewRequest(method, target, &buf)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func createSession(t *testing.T, router http.Handler) SessionResponse {
	t.Helper()
	w := do(t, router, http.MethodPost, "/sessions", map[string]string{"page": "index.html"})
	if w.Code != http.StatusCreated {
		t.Fatalf("create session status = %d, body = %s", w.Code, w.Body.String())
	}
	var snap SessionResponse
	if err := json.Unmarshal(w.Body.Bytes(), &snap); err != nil {
		t.Fatalf("decode: %v", err)
	}
	return snap
}

func TestListPages(t *testing.T) {
	router := testEnv(t, "")

	w := do(t, router, http.MethodGet, "/pages", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	var resp PageListResponse
	_ = json.Unmarshal(w.Body.Bytes(), &resp)
	if len(resp.Pages) != 1 || resp.Pages[0].Path != "index.html" || resp.Pages[0].RecordCount != 4 {
		t.Errorf("pages = %+v", resp.Pages)
	}
}

func TestGetPage(t *testing.T) {
	router := testEnv(t, "")

	w := do(t, router, http.MethodGet, "/pages/index.html", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	var page struct {
		Title   string `json:"title"`
		Records []struct {
			Title       string `json:"title"`
			PrepMinutes *int   `json:"prep_minutes"`
		} `json:"records"`
	}
	_ = json.Unmarshal(w.Body.Bytes(), &page)
	if page.Title != "Recipes" || len(page.Records) != 4 {
		t.Fatalf("page = %+v", page)
	}
	if page.Records[0].PrepMinutes == nil || *page.Records[0].PrepMinutes != 15 {
		t.Errorf("prep = %v, want 15", page.Records[0].PrepMinutes)
	}
	if page.Records[3].PrepMinutes != nil {
		t.Errorf("untimed card prep = %v, want absent", *page.Records[3].PrepMinutes)
	}
}

func TestGetPage_NotFound(t *testing.T) {
	router := testEnv(t, "")

	w := do(t, router, http.MethodGet, "/pages/nope.html", nil)
	if w.Code != http.StatusNotFound {
		t.Errorf("missing page = %d, want 404", w.Code)
	}
}

func TestFilterEndpoint(t *testing.T) {
	router := testEnv(t, "")

	tests := []struct {
		target string
		status int
		label  string
	}{
		{"/filter?page=index.html", http.StatusOK, "Recipes (4)"},
		{"/filter?page=index.html&q=CURRY", http.StatusOK, "Recipes (1)"},
		{"/filter?page=index.html&cook=30+min", http.StatusOK, "Recipes (3)"},
		{"/filter?page=index.html&prep=10&cook=0", http.StatusOK, "Recipes (2)"},
		{"/filter?page=missing.html", http.StatusNotFound, ""},
		{"/filter?q=curry", http.StatusBadRequest, ""},
	}
	for _, tt := range tests {
		t.Run(tt.target, func(t *testing.T) {
			w := do(t, router, http.MethodGet, tt.target, nil)
			if w.Code != tt.status {
				t.Fatalf("status = %d, want %d, body = %s", w.Code, tt.status, w.Body.String())
			}
			if tt.label == "" {
				return
			}
			var res FilterResponse
			_ = json.Unmarshal(w.Body.Bytes(), &res)
			if res.Label != tt.label {
				t.Errorf("label = %q, want %q", res.Label, tt.label)
			}
		})
	}
}

func TestFilterEndpoint_Highlight(t *testing.T) {
	router := testEnv(t, "")

	w := do(t, router, http.MethodGet, "/filter?page=index.html&q=curry", nil)
	var res FilterResponse
	_ = json.Unmarshal(w.Body.Bytes(), &res)
	if got := res.Cards[0].TitleHTML; got != "Chicken <mark>Curry</mark>" {
		t.Errorf("title html = %q", got)
	}
	if res.Cards[1].Visible {
		t.Error("salad should be hidden")
	}
}

func TestSessionFlow(t *testing.T) {
	router := testEnv(t, "")
	snap := createSession(t, router)
	if snap.ID == "" || snap.Result.Label != "Recipes (4)" {
		t.Fatalf("initial snapshot = %+v", snap)
	}
	base := "/sessions/" + snap.ID

	// Typing is debounced.
	w := do(t, router, http.MethodPost, base+"/events", map[string]string{"type": "input", "field": "query", "value": "stew"})
	if w.Code != http.StatusAccepted {
		t.Fatalf("input status = %d, want 202, body = %s", w.Code, w.Body.String())
	}
	var pending SessionResponse
	_ = json.Unmarshal(w.Body.Bytes(), &pending)
	if !pending.Pending || pending.Inputs.Query != "stew" || pending.Result.VisibleCount != 4 {
		t.Errorf("pending snapshot = %+v", pending)
	}

	// Enter applies at once.
	w = do(t, router, http.MethodPost, base+"/events", map[string]string{"type": "keydown", "key": "Enter"})
	if w.Code != http.StatusOK {
		t.Fatalf("enter status = %d, want 200", w.Code)
	}
	var applied SessionResponse
	_ = json.Unmarshal(w.Body.Bytes(), &applied)
	if applied.Pending || applied.Result.VisibleCount != 1 || applied.Result.Label != "Recipes (1)" {
		t.Errorf("applied snapshot = %+v", applied)
	}

	w = do(t, router, http.MethodGet, base, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("get status = %d", w.Code)
	}

	w = do(t, router, http.MethodDelete, base, nil)
	if w.Code != http.StatusNoContent {
		t.Fatalf("delete status = %d", w.Code)
	}
	w = do(t, router, http.MethodGet, base, nil)
	if w.Code != http.StatusNotFound {
		t.Errorf("get after delete = %d, want 404", w.Code)
	}
}

func TestPostEvent_Validation(t *testing.T) {
	router := testEnv(t, "")
	snap := createSession(t, router)
	target := "/sessions/" + snap.ID + "/events"

	tests := []struct {
		name string
		body map[string]string
		want int
	}{
		{"missing type", map[string]string{}, http.StatusBadRequest},
		{"unknown type", map[string]string{"type": "scroll"}, http.StatusBadRequest},
		{"change without field", map[string]string{"type": "change", "value": "30"}, http.StatusBadRequest},
		{"change on query", map[string]string{"type": "change", "field": "query"}, http.StatusBadRequest},
		{"input on cook", map[string]string{"type": "input", "field": "cook"}, http.StatusBadRequest},
		{"keydown without key", map[string]string{"type": "keydown"}, http.StatusBadRequest},
		{"other key", map[string]string{"type": "keydown", "key": "a"}, http.StatusAccepted},
		{"change prep", map[string]string{"type": "change", "field": "prep", "value": "20 min"}, http.StatusAccepted},
		{"submit", map[string]string{"type": "submit"}, http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := do(t, router, http.MethodPost, target, tt.body)
			if w.Code != tt.want {
				t.Errorf("status = %d, want %d, body = %s", w.Code, tt.want, w.Body.String())
			}
		})
	}
}

func TestPostEvent_UnknownSession(t *testing.T) {
	router := testEnv(t, "")
	w := do(t, router, http.MethodPost, "/sessions/nope/events", map[string]string{"type": "submit"})
	if w.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", w.Code)
	}
}

func TestCreateSession_Errors(t *testing.T) {
	router := testEnv(t, "")

	w := do(t, router, http.MethodPost, "/sessions", map[string]string{})
	if w.Code != http.StatusBadRequest {
		t.Errorf("missing page = %d, want 400", w.Code)
	}
	w = do(t, router, http.MethodPost, "/sessions", map[string]string{"page": "ghost.html"})
	if w.Code != http.StatusNotFound {
		t.Errorf("unknown page = %d, want 404", w.Code)
	}

	req := httptest.NewRequest(http.MethodPost, "/sessions", strings.NewReader("{"))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("bad json = %d, want 400", rec.Code)
	}
}

func TestCreateSession_AfterShutdown(t *testing.T) {
	router, m := testEnvFull(t, false, "", nil)
	m.Close()
	w := do(t, router, http.MethodPost, "/sessions", map[string]string{"page": "index.html"})
	if w.Code != http.StatusServiceUnavailable {
		t.Errorf("status = %d, want 503", w.Code)
	}
}

func TestAuthMiddleware_ValidToken(t *testing.T) {
	router := testEnv(t, "secret123")

	req := httptest.NewRequest(http.MethodGet, "/pages", nil)
	req.Header.Set("Authorization", "Bearer secret123")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Errorf("authed list = %d, want 200", w.Code)
	}
}

func TestAuthMiddleware_MissingToken(t *testing.T) {
	router := testEnv(t, "secret123")

	w := do(t, router, http.MethodGet, "/pages", nil)
	if w.Code != http.StatusUnauthorized {
		t.Errorf("unauthed = %d, want 401", w.Code)
	}
}

func TestAuthMiddleware_WrongToken(t *testing.T) {
	router := testEnv(t, "secret123")

	req := httptest.NewRequest(http.MethodGet, "/pages", nil)
	req.Header.Set("Authorization", "Bearer wrong")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusUnauthorized {
		t.Errorf("wrong token = %d, want 401", w.Code)
	}
}

func TestAuthMiddleware_Disabled(t *testing.T) {
	router := testEnv(t, "")

	w := do(t, router, http.MethodGet, "/pages", nil)
	if w.Code != http.StatusOK {
		t.Errorf("no auth = %d, want 200", w.Code)
	}
}

// SSE endpoint tests.

// testEnvWithSSE creates a router with a dummy SSE handler to test auth on /events.
func testEnvWithSSE(t *testing.T, authEnabled bool, token string) http.Handler {
	t.Helper()
	_, db := testutil.TestCatalog(t)
	svc := recipeservice.NewService(db, nil)

	// Minimal SSE handler stub: writes headers and blocks until context done.
	sseHandler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		w.WriteHeader(http.StatusOK)
		if f, ok := w.(http.Flusher); ok {
			f.Flush()
		}
		<-r.Context().Done()
	})

	return NewRouter(svc, authEnabled, token, sseHandler)
}

func TestSSEEvents_AuthProtected(t *testing.T) {
	router := testEnvWithSSE(t, true, "secret")

	w := do(t, router, http.MethodGet, "/events", nil)
	if w.Code != http.StatusUnauthorized {
		t.Errorf("SSE no auth = %d, want 401", w.Code)
	}
}

func TestSSEEvents_AuthDisabled(t *testing.T) {
	router := testEnvWithSSE(t, false, "")

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	req := httptest.NewRequest(http.MethodGet, "/events", nil).WithContext(ctx)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code == http.StatusUnauthorized {
		t.Error("SSE should not require auth when disabled")
	}
}

func TestSSEEvents_ValidToken(t *testing.T) {
	router := testEnvWithSSE(t, true, "tok")

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	req := httptest.NewRequest(http.MethodGet, "/events", nil).WithContext(ctx)
	req.Header.Set("Authorization", "Bearer tok")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code == http.StatusUnauthorized {
		t.Error("SSE with valid token should not 401")
	}
}

func TestSSEEvents_QueryToken(t *testing.T) {
	router := testEnvWithSSE(t, true, "tok")

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	req := httptest.NewRequest(http.MethodGet, "/events?access_token=tok", nil).WithContext(ctx)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code == http.StatusUnauthorized {
		t.Error("SSE with access_token should not 401")
	}
}

func TestAuthMiddleware_QueryTokenOnlyForGet(t *testing.T) {
	router := testEnvWithSSE(t, true, "tok")

	w := do(t, router, http.MethodPost, "/sessions?access_token=tok", map[string]string{"page": "index.html"})
	if w.Code != http.StatusUnauthorized {
		t.Errorf("POST with query token = %d, want 401", w.Code)
	}
	w = do(t, router, http.MethodGet, "/pages?access_token=nope", nil)
	if w.Code != http.StatusUnauthorized {
		t.Errorf("GET with wrong query token = %d, want 401", w.Code)
	}
}

func TestSSEEvents_StreamsSessionPasses(t *testing.T) {
	broker := sse.NewBroker(time.Second)
	t.Cleanup(broker.Close)

	_, db := testutil.TestCatalog(t)
	m := session.NewManager(
		session.WithDelay(time.Hour),
		session.WithLogger(testutil.Logger()),
		session.WithPublisher(func(id string, res filter.Result) {
			broker.Publish(sse.Event{Type: sse.TypeFilterApplied, Session: id, Data: res})
		}),
	)
	t.Cleanup(m.Close)
	router := NewRouter(recipeservice.NewService(db, m), false, "", broker)

	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)

	snap := createSession(t, router)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	req, _ := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL+"/events?session="+snap.ID, nil)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("GET /events: %v", err)
	}
	defer resp.Body.Close()

	// Wait for the subscription before triggering a pass.
	deadline := time.Now().Add(2 * time.Second)
	for broker.ClientCount() == 0 && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}

	w := do(t, router, http.MethodPost, "/sessions/"+snap.ID+"/events", map[string]string{"type": "submit"})
	if w.Code != http.StatusOK {
		t.Fatalf("submit status = %d", w.Code)
	}

	sc := bufio.NewScanner(resp.Body)
	for sc.Scan() {
		if sc.Text() == "event: "+sse.TypeFilterApplied {
			return
		}
	}
	t.Error("filter.applied not received on the session stream")
}
