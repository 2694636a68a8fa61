package server

import (
	"errors"
	"net/http"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

// UserRegisterRequest is the request body for POST /api/user/register.
type UserRegisterRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
	Tel      string `json:"tel"`
}

// UserLoginRequest is the request body for POST /api/user/login.
type UserLoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// UserInfo describes the authenticated participant.
type UserInfo struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Tel      string `json:"tel"`
	GameCode string `json:"gameCode,omitempty"`
}

// UserLoginResponse is the response for POST /api/user/login.
type UserLoginResponse struct {
	Token string   `json:"token"`
	User  UserInfo `json:"user"`
}

// VerifyCodeRequest is the request body for POST /api/user/verify-code.
type VerifyCodeRequest struct {
	GameCode string `json:"gameCode"`
}

func handleUserRegister(store Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req UserRegisterRequest
		if err := readJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		req.Username = strings.TrimSpace(req.Username)
		req.Tel = strings.TrimSpace(req.Tel)
		if req.Username == "" || req.Password == "" || req.Tel == "" {
			writeError(w, http.StatusBadRequest, "username, password and tel are required")
			return
		}

		hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}

		err = store.CreateParticipant(r.Context(), req.Username, string(hash), req.Tel)
		if errors.Is(err, ErrConflict) {
			writeError(w, http.StatusConflict, "username already exists")
			return
		}
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}

		writeJSON(w, http.StatusOK, map[string]string{"message": "registration successful"})
	}
}

func handleUserLogin(store Store, broadcaster *Broadcaster) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req UserLoginRequest
		if err := readJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		if req.Username == "" || req.Password == "" {
			writeError(w, http.StatusBadRequest, "username and password are required")
			return
		}

		p, err := store.ParticipantByUsername(r.Context(), req.Username)
		if errors.Is(err, ErrNotFound) {
			writeError(w, http.StatusUnauthorized, "invalid credentials")
			return
		}
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}

		if err := bcrypt.CompareHashAndPassword([]byte(p.PasswordHash), []byte(req.Password)); err != nil {
			writeError(w, http.StatusUnauthorized, "invalid credentials")
			return
		}

		if err := store.MarkOnline(r.Context(), p.ID); err != nil {
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}

		token, err := store.CreateParticipantSession(r.Context(), p.ID)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}

		// A returning participant may still be attached to a game code.
		if p.GameCode != "" {
			broadcaster.ConnectedUsersChanged(r.Context(), p.GameCode)
		}

		writeJSON(w, http.StatusOK, UserLoginResponse{
			Token: token,
			User: UserInfo{
				ID:       p.ID,
				Username: p.Username,
				Tel:      p.Tel,
				GameCode: p.GameCode,
			},
		})
	}
}

func handleUserMe(store Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess, err := participantFromRequest(r, store)
		if err != nil {
			writeError(w, http.StatusUnauthorized, "not authenticated")
			return
		}
		writeJSON(w, http.StatusOK, UserInfo{
			ID:       sess.ParticipantID,
			Username: sess.Username,
			Tel:      sess.Tel,
			GameCode: sess.GameCode,
		})
	}
}

func handleUserVerifyCode(store Store, broadcaster *Broadcaster) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess, err := participantFromRequest(r, store)
		if err != nil {
			writeError(w, http.StatusUnauthorized, "not authenticated")
			return
		}

		var req VerifyCodeRequest
		if err := readJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		req.GameCode = strings.TrimSpace(req.GameCode)
		if req.GameCode == "" {
			writeError(w, http.StatusBadRequest, "gameCode is required")
			return
		}

		_, err = store.AdminIDByGameCode(r.Context(), req.GameCode)
		if errors.Is(err, ErrNotFound) {
			writeError(w, http.StatusNotFound, "invalid game code")
			return
		}
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}

		if err := store.SetParticipantGameCode(r.Context(), sess.ParticipantID, req.GameCode); err != nil {
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}

		broadcaster.ConnectedUsersChanged(r.Context(), req.GameCode)
		writeJSON(w, http.StatusOK, map[string]string{"gameCode": req.GameCode})
	}
}

// handleUserConnected returns the online roster for the caller's game code.
func handleUserConnected(store Store, tenants *TenantResolver) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		code, ok := gameCodeFromRequest(r, store, tenants)
		if !ok {
			writeError(w, http.StatusUnauthorized, "not authenticated")
			return
		}
		if code == "" {
			writeJSON(w, http.StatusOK, []ConnectedUser{})
			return
		}

		users, err := store.ListOnline(r.Context(), code)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}
		writeJSON(w, http.StatusOK, users)
	}
}

func handleUserLogout(store Store, broadcaster *Broadcaster, tenants *TenantResolver) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess, err := participantFromRequest(r, store)
		if err != nil {
			writeJSON(w, http.StatusOK, map[string]string{"message": "already logged out"})
			return
		}

		// Resolve the code before detaching so the roster update still
		// reaches the right partition.
		code := tenants.ForParticipant(r.Context(), sess.ParticipantID)

		if err := store.ClearParticipantGame(r.Context(), sess.ParticipantID); err != nil {
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}
		if err := store.DeleteParticipantSessions(r.Context(), sess.ParticipantID); err != nil {
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}

		broadcaster.ConnectedUsersChanged(r.Context(), code)
		writeJSON(w, http.StatusOK, map[string]string{"message": "logged out"})
	}
}

// handleForceLogout lets an admin kick every participant in their partition:
// the roster is cleared first, then the emptied roster and the force_logout
// order are broadcast.
func handleForceLogout(store Store, broadcaster *Broadcaster, tenants *TenantResolver) http.HandlerFunc {
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

		if err := store.ForceOffline(r.Context(), code); err != nil {
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}

		broadcaster.ConnectedUsersChanged(r.Context(), code)
		broadcaster.AdminEvent(r.Context(), sess.AdminID, eventForceLogout, "")
		writeJSON(w, http.StatusOK, map[string]string{"message": "participants forced to logout"})
	}
}
