package server

import (
	"net/http"
)

// BuzzResponse is the response for POST /api/game/speed/buzz. A repeat buzz
// is not an error: the participant gets their previously frozen rank back
// with alreadyBuzzed set.
type BuzzResponse struct {
	Rank          int  `json:"rank"`
	AlreadyBuzzed bool `json:"alreadyBuzzed"`
}

func handleSpeedBuzz(store Store, broadcaster *Broadcaster, tenants *TenantResolver) http.HandlerFunc {
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

		rank, already, err := store.RecordBuzz(r.Context(), sess.ParticipantID, code)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}

		if !already {
			broadcaster.ParticipantEvent(r.Context(), sess.ParticipantID, eventSpeedRanking, "Ranking Updated")
		}

		writeJSON(w, http.StatusOK, BuzzResponse{Rank: rank, AlreadyBuzzed: already})
	}
}

func handleSpeedReset(store Store, broadcaster *Broadcaster, tenants *TenantResolver) http.HandlerFunc {
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

		if err := store.ClearSpeedResults(r.Context(), code); err != nil {
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}

		broadcaster.AdminEvent(r.Context(), sess.AdminID, eventSpeedReset, "Speed Game Reset")
		writeJSON(w, http.StatusOK, map[string]string{"message": "speed game reset"})
	}
}

// handleSpeedRanking returns the current speed ranking for the caller's
// game code. An unresolved code is a valid, common state and yields an empty
// list rather than an error.
func handleSpeedRanking(store Store, tenants *TenantResolver) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		code, ok := gameCodeFromRequest(r, store, tenants)
		if !ok {
			writeError(w, http.StatusUnauthorized, "not authenticated")
			return
		}
		if code == "" {
			writeJSON(w, http.StatusOK, []SpeedRankEntry{})
			return
		}

		ranking, err := store.SpeedRanking(r.Context(), code)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}
		writeJSON(w, http.StatusOK, ranking)
	}
}

// gameCodeFromRequest resolves the caller's game code regardless of role.
// ok is false when the request carries no valid session at all.
func gameCodeFromRequest(r *http.Request, store Store, tenants *TenantResolver) (code string, ok bool) {
	if sess, err := participantFromRequest(r, store); err == nil {
		return tenants.ForParticipant(r.Context(), sess.ParticipantID), true
	}
	if sess, err := adminFromRequest(r, store); err == nil {
		return tenants.ForAdmin(r.Context(), sess.AdminID), true
	}
	return "", false
}
