package server

import (
	"context"
	"errors"
	"log/slog"
)

// TenantResolver maps an authenticated identity to its active game code, the
// partition key for all broadcast traffic. Every broadcast path resolves
// through here so that one rule decides who hears what.
type TenantResolver struct {
	store  Store
	logger *slog.Logger
}

func NewTenantResolver(store Store, logger *slog.Logger) *TenantResolver {
	return &TenantResolver{store: store, logger: logger}
}

// ForAdmin returns the game code configured by adminID, or "" when none is
// set. "No code" is a normal state, not an error.
func (t *TenantResolver) ForAdmin(ctx context.Context, adminID string) string {
	code, err := t.store.AdminGameCode(ctx, adminID)
	if err != nil && !errors.Is(err, ErrNotFound) {
		t.logger.Error("resolving admin game code", "admin_id", adminID, "error", err)
		return ""
	}
	return code
}

// ForParticipant returns the game code participantID has joined, or "" when
// they have not entered one yet.
func (t *TenantResolver) ForParticipant(ctx context.Context, participantID string) string {
	code, err := t.store.ParticipantGameCode(ctx, participantID)
	if err != nil && !errors.Is(err, ErrNotFound) {
		t.logger.Error("resolving participant game code", "participant_id", participantID, "error", err)
		return ""
	}
	return code
}
