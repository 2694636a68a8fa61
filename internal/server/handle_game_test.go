package server

import (
	"bufio"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestGameStartStopStatus(t *testing.T) {
	env := newTestEnv(t)
	cookies, code := env.adminWithCode("alice")

	token := env.registerParticipant("maria", "555-0101")
	env.joinGame(token, code)

	// Not started yet, from both perspectives.
	var status GameStatusResponse
	w := env.do(http.MethodGet, "/api/game/status", nil, token, nil)
	json.NewDecoder(w.Body).Decode(&status)
	if status.IsStarted {
		t.Error("participant status: expected not started")
	}

	w = env.do(http.MethodPost, "/api/game/start", nil, "", cookies)
	if w.Code != http.StatusOK {
		t.Fatalf("start: expected 200, got %d: %s", w.Code, w.Body.String())
	}

	w = env.do(http.MethodGet, "/api/game/status", nil, token, nil)
	json.NewDecoder(w.Body).Decode(&status)
	if !status.IsStarted {
		t.Error("participant status after start: expected started")
	}

	w = env.do(http.MethodGet, "/api/game/status", nil, "", cookies)
	json.NewDecoder(w.Body).Decode(&status)
	if !status.IsStarted {
		t.Error("admin status after start: expected started")
	}

	w = env.do(http.MethodPost, "/api/game/stop", nil, "", cookies)
	if w.Code != http.StatusOK {
		t.Fatalf("stop: expected 200, got %d", w.Code)
	}

	w = env.do(http.MethodGet, "/api/game/status", nil, token, nil)
	json.NewDecoder(w.Body).Decode(&status)
	if status.IsStarted {
		t.Error("participant status after stop: expected not started")
	}
}

func TestGameStartWithoutCode(t *testing.T) {
	env := newTestEnv(t)
	cookies := env.createAdmin("alice")

	w := env.do(http.MethodPost, "/api/game/start", nil, "", cookies)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d: %s", w.Code, w.Body.String())
	}
}

func TestPhaseBroadcastsRequireCode(t *testing.T) {
	env := newTestEnv(t)
	cookies := env.createAdmin("alice")

	for _, path := range []string{
		"/api/game/speed/enter",
		"/api/game/speed/start",
		"/api/game/mission/enter",
	} {
		w := env.do(http.MethodPost, path, nil, "", cookies)
		if w.Code != http.StatusBadRequest {
			t.Errorf("%s: expected 400, got %d", path, w.Code)
		}
	}
}

// sseClient connects to the event stream and reports received event names.
type sseClient struct {
	events <-chan string
	close  func()
}

func dialSSE(t *testing.T, baseURL, token string) *sseClient {
	t.Helper()

	req, err := http.NewRequest(http.MethodGet, baseURL+"/api/game/events?token="+token, nil)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("dial sse: %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		t.Fatalf("dial sse: status %d", resp.StatusCode)
	}

	events := make(chan string, 32)
	go func() {
		defer close(events)
		sc := bufio.NewScanner(resp.Body)
		for sc.Scan() {
			line := sc.Text()
			if name, ok := strings.CutPrefix(line, "event: "); ok {
				events <- name
			}
		}
	}()

	return &sseClient{events: events, close: func() { resp.Body.Close() }}
}

func (c *sseClient) next(t *testing.T) string {
	t.Helper()
	select {
	case name, ok := <-c.events:
		if !ok {
			t.Fatal("event stream closed")
		}
		return name
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for event")
		return ""
	}
}

func (c *sseClient) expectNone(t *testing.T) {
	t.Helper()
	select {
	case name, ok := <-c.events:
		if ok {
			t.Fatalf("unexpected event %q", name)
		}
	case <-time.After(100 * time.Millisecond):
	}
}

func TestEventStreamIsPartitionedByGameCode(t *testing.T) {
	env := newTestEnv(t)
	srv := httptest.NewServer(env.router)
	defer srv.Close()

	cookiesA, codeA := env.adminWithCode("alice")
	cookiesB, _ := env.adminWithCode("bob")

	tokenA := env.registerParticipant("maria", "555-0101")
	tokenB := env.registerParticipant("carlos", "555-0202")
	env.joinGame(tokenA, codeA)
	// carlos never joins a game: his stream is unpartitioned.

	clientA := dialSSE(t, srv.URL, tokenA)
	defer clientA.close()
	clientB := dialSSE(t, srv.URL, tokenB)
	defer clientB.close()

	// The snapshot arrives first on the partitioned stream.
	if got := clientA.next(t); got != eventRanking {
		t.Fatalf("first event = %q, want %q", got, eventRanking)
	}
	if got := clientA.next(t); got != eventConnectedUsers {
		t.Fatalf("second event = %q, want %q", got, eventConnectedUsers)
	}

	// Admin A starts their game: only maria's stream sees it.
	w := env.do(http.MethodPost, "/api/game/start", nil, "", cookiesA)
	if w.Code != http.StatusOK {
		t.Fatalf("start A: expected 200, got %d: %s", w.Code, w.Body.String())
	}
	if got := clientA.next(t); got != eventStart {
		t.Fatalf("event = %q, want %q", got, eventStart)
	}

	// Admin B starting their game must not leak into maria's stream, and the
	// codeless stream receives nothing at all.
	w = env.do(http.MethodPost, "/api/game/start", nil, "", cookiesB)
	if w.Code != http.StatusOK {
		t.Fatalf("start B: expected 200, got %d: %s", w.Code, w.Body.String())
	}

	clientB.expectNone(t)
	select {
	case name := <-clientA.events:
		t.Fatalf("partition leak: got %q from another game", name)
	case <-time.After(100 * time.Millisecond):
	}
}

func TestEventStreamRequiresAuth(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(http.MethodGet, "/api/game/events", nil, "", nil)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", w.Code)
	}
}
