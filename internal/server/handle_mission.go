package server

import (
	"errors"
	"net/http"
)

// handleMissionComplete records that the participant finished every quiz of
// their game and broadcasts the refreshed ranking. Recording is
// insert-if-absent: repeat completions keep the original timestamp.
func handleMissionComplete(store Store, broadcaster *Broadcaster, tenants *TenantResolver) http.HandlerFunc {
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

		total, err := store.CountQuizzes(r.Context(), adminID)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}
		solved, err := store.CountSolved(r.Context(), sess.ParticipantID, adminID)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}
		if solved < total {
			writeError(w, http.StatusConflict, "not all quizzes are solved yet")
			return
		}

		if _, err := store.RecordMissionComplete(r.Context(), sess.ParticipantID); err != nil {
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}

		broadcaster.RankingChanged(r.Context(), code)
		writeJSON(w, http.StatusOK, map[string]string{"message": "mission complete recorded"})
	}
}

// handleMissionRanking returns the mission ranking for the caller's game
// code; unresolved codes yield an empty list.
func handleMissionRanking(store Store, tenants *TenantResolver) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		code, ok := gameCodeFromRequest(r, store, tenants)
		if !ok {
			writeError(w, http.StatusUnauthorized, "not authenticated")
			return
		}
		if code == "" {
			writeJSON(w, http.StatusOK, []MissionRankEntry{})
			return
		}

		ranking, err := store.MissionRanking(r.Context(), code)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}
		writeJSON(w, http.StatusOK, ranking)
	}
}
