package server

import (
	"errors"
	"net/http"
)

// GameStatusResponse is the response for GET /api/game/status.
type GameStatusResponse struct {
	IsStarted bool `json:"isStarted"`
}

// handleGameStart flips the mission game to started and notifies the
// admin's partition.
func handleGameStart(store Store, broadcaster *Broadcaster) http.HandlerFunc {
	return gameToggle(store, broadcaster, true, eventStart, "Game Started")
}

// handleGameStop flips the mission game to stopped, sending in-progress
// participants back to the waiting view.
func handleGameStop(store Store, broadcaster *Broadcaster) http.HandlerFunc {
	return gameToggle(store, broadcaster, false, eventStop, "Game Stopped")
}

func gameToggle(store Store, broadcaster *Broadcaster, started bool, event, message string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess, err := adminFromRequest(r, store)
		if err != nil {
			writeError(w, http.StatusUnauthorized, "not authenticated")
			return
		}

		if err := store.SetGameStarted(r.Context(), sess.AdminID, started); err != nil {
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}

		if code := broadcaster.AdminEvent(r.Context(), sess.AdminID, event, message); code == "" {
			writeError(w, http.StatusBadRequest, "no active game code")
			return
		}

		writeJSON(w, http.StatusOK, map[string]string{"message": message})
	}
}

// handleGameStatus reports whether the caller's game is started. Works for
// both roles: participants resolve through their joined code, admins through
// their own flag.
func handleGameStatus(store Store, tenants *TenantResolver) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var started bool
		var err error

		if sess, perr := participantFromRequest(r, store); perr == nil {
			code := tenants.ForParticipant(r.Context(), sess.ParticipantID)
			if code != "" {
				started, err = store.GameStartedByCode(r.Context(), code)
			}
		} else if sess, aerr := adminFromRequest(r, store); aerr == nil {
			started, err = store.GameStarted(r.Context(), sess.AdminID)
		} else {
			writeError(w, http.StatusUnauthorized, "not authenticated")
			return
		}

		if err != nil && !errors.Is(err, ErrNotFound) {
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}

		writeJSON(w, http.StatusOK, GameStatusResponse{IsStarted: started})
	}
}

// handleAdminBroadcast covers the admin-triggered phase events that carry no
// state mutation: entering the speed or mission screens and arming the
// speed game.
func handleAdminBroadcast(store Store, broadcaster *Broadcaster, event, message string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess, err := adminFromRequest(r, store)
		if err != nil {
			writeError(w, http.StatusUnauthorized, "not authenticated")
			return
		}

		if code := broadcaster.AdminEvent(r.Context(), sess.AdminID, event, message); code == "" {
			writeError(w, http.StatusBadRequest, "no active game code")
			return
		}

		writeJSON(w, http.StatusOK, map[string]string{"message": message})
	}
}
