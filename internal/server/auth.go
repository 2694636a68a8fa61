package server

import (
	"errors"
	"net/http"
	"strings"
)

type participantSession struct {
	ParticipantID string
	Username      string
	Tel           string
	GameCode      string
}

var errNoSession = errors.New("no valid session")

// participantFromRequest authenticates a participant from the Authorization
// header, falling back to the token query parameter for EventSource clients
// that cannot set headers.
func participantFromRequest(r *http.Request, store Store) (participantSession, error) {
	auth := r.Header.Get("Authorization")
	token, found := strings.CutPrefix(auth, "Bearer ")
	if !found || token == "" {
		token = r.URL.Query().Get("token")
	}
	if token == "" {
		return participantSession{}, errNoSession
	}
	return store.ParticipantFromSession(r.Context(), token)
}
