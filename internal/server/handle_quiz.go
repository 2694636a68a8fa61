package server

import (
	"errors"
	"net/http"
	"sort"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
)

// QuizRegisterRequest is the JSON request body for bulk quiz registration.
// Single-quiz registration with an image uses multipart/form-data instead.
type QuizRegisterRequest struct {
	Questions []QuizInput `json:"questions"`
}

// SolveRequest is the request body for POST /api/quiz/solve.
type SolveRequest struct {
	QuizNo int `json:"quizNo"`
}

// DashboardResponse is the consolidated payload for the participant's main
// view: quiz groups, the group → quiz-number structure, and solved progress.
type DashboardResponse struct {
	Groups    []string         `json:"groups"`
	Structure map[string][]int `json:"structure"`
	Progress  ProgressResponse `json:"progress"`
}

// ProgressResponse lists the quiz numbers the participant has solved.
type ProgressResponse struct {
	SolvedQuizNos []int `json:"solvedQuizNos"`
}

func handleQuizRegister(store Store, uploadDir string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess, err := adminFromRequest(r, store)
		if err != nil {
			writeError(w, http.StatusUnauthorized, "not authenticated")
			return
		}

		var questions []QuizInput
		if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
			q, err := quizFromMultipart(r, uploadDir)
			if err != nil {
				writeError(w, http.StatusBadRequest, "invalid multipart form")
				return
			}
			questions = append(questions, q)
		} else {
			var req QuizRegisterRequest
			if err := readJSON(r, &req); err != nil {
				writeError(w, http.StatusBadRequest, "invalid request body")
				return
			}
			questions = req.Questions
		}

		if len(questions) == 0 {
			writeError(w, http.StatusBadRequest, "no questions provided")
			return
		}
		for _, q := range questions {
			if q.Group == "" || q.Title == "" || q.Answer == "" {
				writeError(w, http.StatusBadRequest, "group, title and answer are required")
				return
			}
		}

		for _, q := range questions {
			if _, err := store.CreateQuiz(r.Context(), sess.AdminID, q); err != nil {
				writeError(w, http.StatusInternalServerError, "internal error")
				return
			}
		}

		writeJSON(w, http.StatusOK, map[string]string{"message": "quiz registration successful"})
	}
}

func handleQuizList(store Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess, err := adminFromRequest(r, store)
		if err != nil {
			writeError(w, http.StatusUnauthorized, "not authenticated")
			return
		}

		quizzes, err := store.ListQuizzes(r.Context(), sess.AdminID)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}
		writeJSON(w, http.StatusOK, quizzes)
	}
}

func handleQuizUpdate(store Store, uploadDir string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess, err := adminFromRequest(r, store)
		if err != nil {
			writeError(w, http.StatusUnauthorized, "not authenticated")
			return
		}

		no, err := strconv.Atoi(chi.URLParam(r, "no"))
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid quiz number")
			return
		}

		var q QuizInput
		if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
			q, err = quizFromMultipart(r, uploadDir)
			if err != nil {
				writeError(w, http.StatusBadRequest, "invalid multipart form")
				return
			}
		} else if err := readJSON(r, &q); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		err = store.UpdateQuiz(r.Context(), sess.AdminID, no, q)
		if errors.Is(err, ErrNotFound) {
			writeError(w, http.StatusNotFound, "quiz not found")
			return
		}
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"message": "quiz updated"})
	}
}

func handleQuizDelete(store Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess, err := adminFromRequest(r, store)
		if err != nil {
			writeError(w, http.StatusUnauthorized, "not authenticated")
			return
		}

		no, err := strconv.Atoi(chi.URLParam(r, "no"))
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid quiz number")
			return
		}

		err = store.DeleteQuiz(r.Context(), sess.AdminID, no)
		if errors.Is(err, ErrNotFound) {
			writeError(w, http.StatusNotFound, "quiz not found")
			return
		}
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"message": "quiz deleted"})
	}
}

// handleQuizSolve records a solved quiz. Solving the same quiz twice is
// reported as success: the duplicate-key rejection makes the record
// idempotent.
func handleQuizSolve(store Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess, err := participantFromRequest(r, store)
		if err != nil {
			writeError(w, http.StatusUnauthorized, "not authenticated")
			return
		}

		var req SolveRequest
		if err := readJSON(r, &req); err != nil || req.QuizNo == 0 {
			writeError(w, http.StatusBadRequest, "quizNo is required")
			return
		}

		if _, err := store.RecordSolve(r.Context(), sess.ParticipantID, req.QuizNo); err != nil {
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"message": "quiz solved recorded"})
	}
}

func handleQuizDashboard(store Store, tenants *TenantResolver) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess, err := participantFromRequest(r, store)
		if err != nil {
			writeError(w, http.StatusUnauthorized, "not authenticated")
			return
		}

		code := tenants.ForParticipant(r.Context(), sess.ParticipantID)
		if code == "" {
			writeError(w, http.StatusBadRequest, "no game code")
			return
		}

		adminID, err := store.AdminIDByGameCode(r.Context(), code)
		if errors.Is(err, ErrNotFound) {
			writeError(w, http.StatusNotFound, "invalid game code")
			return
		}
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}

		refs, err := store.QuizRefs(r.Context(), adminID)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}

		solved, err := store.SolvedQuizNos(r.Context(), sess.ParticipantID)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}

		writeJSON(w, http.StatusOK, DashboardResponse{
			Groups:    groupNames(refs),
			Structure: groupStructure(refs),
			Progress:  ProgressResponse{SolvedQuizNos: solved},
		})
	}
}

func handleQuizStructure(store Store, tenants *TenantResolver) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		refs, ok := refsForParticipant(w, r, store, tenants)
		if !ok {
			return
		}
		writeJSON(w, http.StatusOK, groupStructure(refs))
	}
}

func handleQuizGroups(store Store, tenants *TenantResolver) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		refs, ok := refsForParticipant(w, r, store, tenants)
		if !ok {
			return
		}
		writeJSON(w, http.StatusOK, groupNames(refs))
	}
}

func handleQuizByGroup(store Store, tenants *TenantResolver) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess, err := participantFromRequest(r, store)
		if err != nil {
			writeError(w, http.StatusUnauthorized, "not authenticated")
			return
		}

		code := tenants.ForParticipant(r.Context(), sess.ParticipantID)
		if code == "" {
			writeError(w, http.StatusBadRequest, "no game code")
			return
		}

		adminID, err := store.AdminIDByGameCode(r.Context(), code)
		if errors.Is(err, ErrNotFound) {
			writeError(w, http.StatusNotFound, "invalid game code")
			return
		}
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}

		quizzes, err := store.QuizzesByGroup(r.Context(), adminID, chi.URLParam(r, "group"))
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}
		writeJSON(w, http.StatusOK, quizzes)
	}
}

func handleQuizProgress(store Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess, err := participantFromRequest(r, store)
		if err != nil {
			writeError(w, http.StatusUnauthorized, "not authenticated")
			return
		}

		solved, err := store.SolvedQuizNos(r.Context(), sess.ParticipantID)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}
		writeJSON(w, http.StatusOK, ProgressResponse{SolvedQuizNos: solved})
	}
}

// handleQuizHistoryReset wipes quiz progress and mission completions for the
// admin's partition and broadcasts the reset.
func handleQuizHistoryReset(store Store, broadcaster *Broadcaster, tenants *TenantResolver) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess, err := adminFromRequest(r, store)
		if err != nil {
			writeError(w, http.StatusUnauthorized, "not authenticated")
			return
		}

		code := tenants.ForAdmin(r.Context(), sess.AdminID)
		if code == "" {
			writeError(w, http.StatusBadRequest, "no active game code")
			return
		}

		if err := store.ClearProgress(r.Context(), code); err != nil {
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}

		broadcaster.AdminEvent(r.Context(), sess.AdminID, eventReset, "Progress Reset")
		writeJSON(w, http.StatusOK, map[string]string{"message": "quiz history reset"})
	}
}

func refsForParticipant(w http.ResponseWriter, r *http.Request, store Store, tenants *TenantResolver) ([]QuizRef, bool) {
	sess, err := participantFromRequest(r, store)
	if err != nil {
		writeError(w, http.StatusUnauthorized, "not authenticated")
		return nil, false
	}

	code := tenants.ForParticipant(r.Context(), sess.ParticipantID)
	if code == "" {
		writeError(w, http.StatusBadRequest, "no game code")
		return nil, false
	}

	adminID, err := store.AdminIDByGameCode(r.Context(), code)
	if errors.Is(err, ErrNotFound) {
		writeError(w, http.StatusNotFound, "invalid game code")
		return nil, false
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal error")
		return nil, false
	}

	refs, err := store.QuizRefs(r.Context(), adminID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal error")
		return nil, false
	}
	return refs, true
}

func groupStructure(refs []QuizRef) map[string][]int {
	structure := map[string][]int{}
	for _, ref := range refs {
		structure[ref.Group] = append(structure[ref.Group], ref.No)
	}
	return structure
}

func groupNames(refs []QuizRef) []string {
	seen := map[string]bool{}
	groups := []string{}
	for _, ref := range refs {
		if !seen[ref.Group] {
			seen[ref.Group] = true
			groups = append(groups, ref.Group)
		}
	}
	sort.Strings(groups)
	return groups
}
