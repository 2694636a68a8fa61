package server

import (
	"context"
	"encoding/json"
	"log/slog"
)

// Event kinds pushed over the SSE stream. The uppercase names are part of
// the wire contract with the speed-game clients.
const (
	eventRanking        = "ranking"
	eventConnectedUsers = "connected_users"
	eventStart          = "start"
	eventStop           = "stop"
	eventReset          = "reset"
	eventForceLogout    = "force_logout"
	eventSpeedEnter     = "SPEED_GAME_ENTER"
	eventMissionEnter   = "MISSION_GAME_ENTER"
	eventSpeedStart     = "SPEED_GAME_START"
	eventSpeedReset     = "SPEED_GAME_RESET"
	eventSpeedRanking   = "SPEED_GAME_RANKING_UPDATE"
)

type eventMessage struct {
	Message string `json:"message"`
}

// Broadcaster turns domain changes into partition-scoped SSE broadcasts. It
// resolves the acting identity's game code before every publish; identities
// with no active code have nobody to notify and the event is dropped.
type Broadcaster struct {
	registry *Registry
	store    Store
	tenants  *TenantResolver
	logger   *slog.Logger
}

func NewBroadcaster(registry *Registry, store Store, tenants *TenantResolver, logger *slog.Logger) *Broadcaster {
	return &Broadcaster{
		registry: registry,
		store:    store,
		tenants:  tenants,
		logger:   logger,
	}
}

// AdminEvent broadcasts a control event to the partition of adminID's game
// code and returns the resolved code, "" when the event was dropped.
func (b *Broadcaster) AdminEvent(ctx context.Context, adminID, event, message string) string {
	code := b.tenants.ForAdmin(ctx, adminID)
	if code == "" {
		b.logger.Debug("dropping event without game code", "event", event, "admin_id", adminID)
		return ""
	}
	b.registry.Broadcast(event, eventMessage{Message: message}, code)
	return code
}

// ParticipantEvent broadcasts an event to the partition of participantID's
// joined game code and returns the resolved code, "" when dropped.
func (b *Broadcaster) ParticipantEvent(ctx context.Context, participantID, event, message string) string {
	code := b.tenants.ForParticipant(ctx, participantID)
	if code == "" {
		b.logger.Debug("dropping event without game code", "event", event, "participant_id", participantID)
		return ""
	}
	b.registry.Broadcast(event, eventMessage{Message: message}, code)
	return code
}

// RankingChanged pushes the full mission ranking to gameCode's partition.
func (b *Broadcaster) RankingChanged(ctx context.Context, gameCode string) {
	if gameCode == "" {
		return
	}
	ranking, err := b.store.MissionRanking(ctx, gameCode)
	if err != nil {
		b.logger.Error("loading mission ranking for broadcast", "game_code", gameCode, "error", err)
		return
	}
	b.registry.Broadcast(eventRanking, ranking, gameCode)
}

// ConnectedUsersChanged pushes the online-participant roster to gameCode's
// partition.
func (b *Broadcaster) ConnectedUsersChanged(ctx context.Context, gameCode string) {
	if gameCode == "" {
		return
	}
	users, err := b.store.ListOnline(ctx, gameCode)
	if err != nil {
		b.logger.Error("loading connected users for broadcast", "game_code", gameCode, "error", err)
		return
	}
	b.registry.Broadcast(eventConnectedUsers, users, gameCode)
}

// Snapshot writes the current mission ranking and connected-user roster for
// gameCode through send, so a fresh subscriber sees current state before the
// next broadcast. With an empty gameCode there is nothing to send.
func (b *Broadcaster) Snapshot(ctx context.Context, gameCode string, send func(Envelope) error) error {
	if gameCode == "" {
		return nil
	}

	ranking, err := b.store.MissionRanking(ctx, gameCode)
	if err != nil {
		return err
	}
	data, err := json.Marshal(ranking)
	if err != nil {
		return err
	}
	if err := send(Envelope{Event: eventRanking, Data: data}); err != nil {
		return err
	}

	users, err := b.store.ListOnline(ctx, gameCode)
	if err != nil {
		return err
	}
	data, err = json.Marshal(users)
	if err != nil {
		return err
	}
	return send(Envelope{Event: eventConnectedUsers, Data: data})
}
