package server

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"golang.org/x/crypto/bcrypt"

	"github.com/quizrally/quizrally/internal/database"
	"github.com/quizrally/quizrally/internal/migrations"
)

type testEnv struct {
	t        *testing.T
	router   *chi.Mux
	store    *SQLiteStore
	registry *Registry
	db       *sql.DB
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	ctx := context.Background()

	db, err := database.Open(ctx, ":memory:")
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	// An in-memory database exists per connection; pin the pool to one.
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })

	if err := migrations.Run(db); err != nil {
		t.Fatalf("run migrations: %v", err)
	}

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	store := NewSQLiteStore(db)
	registry := NewRegistry(logger)

	r := chi.NewRouter()
	addRoutes(r, logger, db, store, registry, t.TempDir())

	return &testEnv{t: t, router: r, store: store, registry: registry, db: db}
}

// do issues a request against the test router. body may be nil; token adds a
// Bearer header; cookies are attached as-is.
func (e *testEnv) do(method, path string, body any, token string, cookies []*http.Cookie) *httptest.ResponseRecorder {
	e.t.Helper()

	var rd io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			e.t.Fatalf("marshal body: %v", err)
		}
		rd = bytes.NewReader(data)
	}

	req := httptest.NewRequest(method, path, rd)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	for _, c := range cookies {
		req.AddCookie(c)
	}

	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

// createAdmin provisions an admin account and returns its session cookies.
func (e *testEnv) createAdmin(username string) []*http.Cookie {
	e.t.Helper()
	ctx := context.Background()

	hash, err := bcrypt.GenerateFromPassword([]byte("pass1234"), bcrypt.MinCost)
	if err != nil {
		e.t.Fatalf("hash password: %v", err)
	}
	if _, err := e.store.CreateAdmin(ctx, username, "Admin "+username, string(hash)); err != nil {
		e.t.Fatalf("create admin: %v", err)
	}

	w := e.do(http.MethodPost, "/api/admin/login", AdminLoginRequest{Username: username, Password: "pass1234"}, "", nil)
	if w.Code != http.StatusOK {
		e.t.Fatalf("admin login: expected 200, got %d: %s", w.Code, w.Body.String())
	}
	return w.Result().Cookies()
}

// adminWithCode provisions an admin and generates their game code.
func (e *testEnv) adminWithCode(username string) ([]*http.Cookie, string) {
	e.t.Helper()

	cookies := e.createAdmin(username)
	w := e.do(http.MethodPost, "/api/admin/generate-code", nil, "", cookies)
	if w.Code != http.StatusOK {
		e.t.Fatalf("generate code: expected 200, got %d: %s", w.Code, w.Body.String())
	}

	var resp GameCodeResponse
	json.NewDecoder(w.Body).Decode(&resp)
	if resp.Code == nil || *resp.Code == "" {
		e.t.Fatal("generate code: expected a code")
	}
	return cookies, *resp.Code
}

// registerParticipant registers and logs in a participant, returning the
// Bearer token.
func (e *testEnv) registerParticipant(username, tel string) string {
	e.t.Helper()

	w := e.do(http.MethodPost, "/api/user/register", UserRegisterRequest{
		Username: username,
		Password: "pass1234",
		Tel:      tel,
	}, "", nil)
	if w.Code != http.StatusOK {
		e.t.Fatalf("register: expected 200, got %d: %s", w.Code, w.Body.String())
	}

	w = e.do(http.MethodPost, "/api/user/login", UserLoginRequest{Username: username, Password: "pass1234"}, "", nil)
	if w.Code != http.StatusOK {
		e.t.Fatalf("login: expected 200, got %d: %s", w.Code, w.Body.String())
	}

	var resp UserLoginResponse
	json.NewDecoder(w.Body).Decode(&resp)
	if resp.Token == "" {
		e.t.Fatal("login: expected a token")
	}
	return resp.Token
}

// joinGame attaches the participant to a game code.
func (e *testEnv) joinGame(token, code string) {
	e.t.Helper()

	w := e.do(http.MethodPost, "/api/user/verify-code", VerifyCodeRequest{GameCode: code}, token, nil)
	if w.Code != http.StatusOK {
		e.t.Fatalf("verify code: expected 200, got %d: %s", w.Code, w.Body.String())
	}
}
