package server

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
)

func registerQuizzes(t *testing.T, env *testEnv, cookies []*http.Cookie, quizzes ...QuizInput) {
	t.Helper()
	w := env.do(http.MethodPost, "/api/quiz/register", QuizRegisterRequest{Questions: quizzes}, "", cookies)
	if w.Code != http.StatusOK {
		t.Fatalf("register quizzes: expected 200, got %d: %s", w.Code, w.Body.String())
	}
}

func sampleQuiz(group, title string) QuizInput {
	return QuizInput{
		Group:      group,
		Title:      title,
		Contents:   "Pick the right answer",
		OptionKind: "text",
		Option1:    "a",
		Option2:    "b",
		Option3:    "c",
		Option4:    "d",
		Answer:     "a",
	}
}

func TestQuizRegisterAndList(t *testing.T) {
	env := newTestEnv(t)
	cookies := env.createAdmin("alice")
	otherCookies := env.createAdmin("bob")

	registerQuizzes(t, env, cookies, sampleQuiz("history", "Q1"), sampleQuiz("history", "Q2"))
	registerQuizzes(t, env, otherCookies, sampleQuiz("art", "Other"))

	w := env.do(http.MethodGet, "/api/quiz/", nil, "", cookies)
	if w.Code != http.StatusOK {
		t.Fatalf("list: expected 200, got %d: %s", w.Code, w.Body.String())
	}

	var quizzes []Quiz
	json.NewDecoder(w.Body).Decode(&quizzes)
	if len(quizzes) != 2 {
		t.Fatalf("list size = %d, want 2 (only own quizzes)", len(quizzes))
	}
	if quizzes[0].Title != "Q1" || quizzes[1].Title != "Q2" {
		t.Errorf("titles = %q, %q; want Q1, Q2", quizzes[0].Title, quizzes[1].Title)
	}
}

func TestQuizRegisterValidation(t *testing.T) {
	env := newTestEnv(t)
	cookies := env.createAdmin("alice")

	w := env.do(http.MethodPost, "/api/quiz/register", QuizRegisterRequest{}, "", cookies)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("empty: expected 400, got %d", w.Code)
	}

	w = env.do(http.MethodPost, "/api/quiz/register", QuizRegisterRequest{
		Questions: []QuizInput{{Title: "no group"}},
	}, "", cookies)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("missing fields: expected 400, got %d", w.Code)
	}

	w = env.do(http.MethodPost, "/api/quiz/register", QuizRegisterRequest{
		Questions: []QuizInput{sampleQuiz("g", "t")},
	}, "", nil)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("no auth: expected 401, got %d", w.Code)
	}
}

func TestQuizRegisterMultipartWithImage(t *testing.T) {
	env := newTestEnv(t)
	cookies := env.createAdmin("alice")

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	mw.WriteField("group", "history")
	mw.WriteField("title", "With image")
	mw.WriteField("contents", "What is shown?")
	mw.WriteField("answer", "a tower")
	fw, _ := mw.CreateFormFile("image", "tower.png")
	fw.Write([]byte("fake png bytes"))
	mw.Close()

	req := httptest.NewRequest(http.MethodPost, "/api/quiz/register", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	for _, c := range cookies {
		req.AddCookie(c)
	}
	w := httptest.NewRecorder()
	env.router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}

	lw := env.do(http.MethodGet, "/api/quiz/", nil, "", cookies)
	var quizzes []Quiz
	json.NewDecoder(lw.Body).Decode(&quizzes)
	if len(quizzes) != 1 {
		t.Fatalf("list size = %d, want 1", len(quizzes))
	}
	if quizzes[0].ImageURL == "" {
		t.Error("expected an image URL")
	}
	if quizzes[0].OptionKind != "text" {
		t.Errorf("option kind = %q, want default text", quizzes[0].OptionKind)
	}
}

func TestQuizUpdateAndDelete(t *testing.T) {
	env := newTestEnv(t)
	cookies := env.createAdmin("alice")
	otherCookies := env.createAdmin("bob")

	registerQuizzes(t, env, cookies, sampleQuiz("history", "Original"))

	w := env.do(http.MethodGet, "/api/quiz/", nil, "", cookies)
	var quizzes []Quiz
	json.NewDecoder(w.Body).Decode(&quizzes)
	no := quizzes[0].No

	updated := sampleQuiz("history", "Renamed")
	w = env.do(http.MethodPut, "/api/quiz/"+strconv.Itoa(no), updated, "", cookies)
	if w.Code != http.StatusOK {
		t.Fatalf("update: expected 200, got %d: %s", w.Code, w.Body.String())
	}

	// Another admin cannot touch it.
	w = env.do(http.MethodPut, "/api/quiz/"+strconv.Itoa(no), updated, "", otherCookies)
	if w.Code != http.StatusNotFound {
		t.Fatalf("cross-admin update: expected 404, got %d", w.Code)
	}
	w = env.do(http.MethodDelete, "/api/quiz/"+strconv.Itoa(no), nil, "", otherCookies)
	if w.Code != http.StatusNotFound {
		t.Fatalf("cross-admin delete: expected 404, got %d", w.Code)
	}

	w = env.do(http.MethodGet, "/api/quiz/", nil, "", cookies)
	quizzes = nil
	json.NewDecoder(w.Body).Decode(&quizzes)
	if quizzes[0].Title != "Renamed" {
		t.Errorf("title = %q, want Renamed", quizzes[0].Title)
	}

	w = env.do(http.MethodDelete, "/api/quiz/"+strconv.Itoa(no), nil, "", cookies)
	if w.Code != http.StatusOK {
		t.Fatalf("delete: expected 200, got %d", w.Code)
	}
	w = env.do(http.MethodDelete, "/api/quiz/"+strconv.Itoa(no), nil, "", cookies)
	if w.Code != http.StatusNotFound {
		t.Fatalf("repeat delete: expected 404, got %d", w.Code)
	}
}

func TestQuizDashboard(t *testing.T) {
	env := newTestEnv(t)
	cookies, code := env.adminWithCode("alice")
	registerQuizzes(t, env, cookies,
		sampleQuiz("history", "H1"),
		sampleQuiz("history", "H2"),
		sampleQuiz("science", "S1"),
	)

	token := env.registerParticipant("maria", "555-0101")
	env.joinGame(token, code)

	w := env.do(http.MethodGet, "/api/quiz/dashboard", nil, token, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("dashboard: expected 200, got %d: %s", w.Code, w.Body.String())
	}

	var dash DashboardResponse
	json.NewDecoder(w.Body).Decode(&dash)
	if len(dash.Groups) != 2 {
		t.Fatalf("groups = %v, want 2 entries", dash.Groups)
	}
	if len(dash.Structure["history"]) != 2 || len(dash.Structure["science"]) != 1 {
		t.Errorf("structure = %v", dash.Structure)
	}
	if len(dash.Progress.SolvedQuizNos) != 0 {
		t.Errorf("progress = %v, want empty", dash.Progress.SolvedQuizNos)
	}
}

func TestQuizDashboardRequiresGameCode(t *testing.T) {
	env := newTestEnv(t)
	token := env.registerParticipant("maria", "555-0101")

	w := env.do(http.MethodGet, "/api/quiz/dashboard", nil, token, nil)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d: %s", w.Code, w.Body.String())
	}
}

func TestQuizSolveAndProgress(t *testing.T) {
	env := newTestEnv(t)
	cookies, code := env.adminWithCode("alice")
	registerQuizzes(t, env, cookies, sampleQuiz("history", "H1"), sampleQuiz("history", "H2"))

	token := env.registerParticipant("maria", "555-0101")
	env.joinGame(token, code)

	w := env.do(http.MethodGet, "/api/quiz/group/history", nil, token, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("group: expected 200, got %d: %s", w.Code, w.Body.String())
	}
	var quizzes []Quiz
	json.NewDecoder(w.Body).Decode(&quizzes)
	if len(quizzes) != 2 {
		t.Fatalf("group size = %d, want 2", len(quizzes))
	}

	no := quizzes[0].No
	w = env.do(http.MethodPost, "/api/quiz/solve", SolveRequest{QuizNo: no}, token, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("solve: expected 200, got %d: %s", w.Code, w.Body.String())
	}

	// Solving twice is fine.
	w = env.do(http.MethodPost, "/api/quiz/solve", SolveRequest{QuizNo: no}, token, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("repeat solve: expected 200, got %d", w.Code)
	}

	w = env.do(http.MethodGet, "/api/quiz/progress", nil, token, nil)
	var progress ProgressResponse
	json.NewDecoder(w.Body).Decode(&progress)
	if len(progress.SolvedQuizNos) != 1 || progress.SolvedQuizNos[0] != no {
		t.Errorf("progress = %v, want [%d]", progress.SolvedQuizNos, no)
	}
}

func TestQuizHistoryReset(t *testing.T) {
	env := newTestEnv(t)
	cookies, code := env.adminWithCode("alice")
	registerQuizzes(t, env, cookies, sampleQuiz("history", "H1"))

	token := env.registerParticipant("maria", "555-0101")
	env.joinGame(token, code)

	w := env.do(http.MethodGet, "/api/quiz/group/history", nil, token, nil)
	var quizzes []Quiz
	json.NewDecoder(w.Body).Decode(&quizzes)
	env.do(http.MethodPost, "/api/quiz/solve", SolveRequest{QuizNo: quizzes[0].No}, token, nil)

	w = env.do(http.MethodDelete, "/api/quiz/history", nil, "", cookies)
	if w.Code != http.StatusOK {
		t.Fatalf("reset: expected 200, got %d: %s", w.Code, w.Body.String())
	}

	w = env.do(http.MethodGet, "/api/quiz/progress", nil, token, nil)
	var progress ProgressResponse
	json.NewDecoder(w.Body).Decode(&progress)
	if len(progress.SolvedQuizNos) != 0 {
		t.Errorf("progress after reset = %v, want empty", progress.SolvedQuizNos)
	}
}

