package server

import (
	"fmt"
	"log/slog"
	"net/http"
	"time"
)

// handleEvents is the long-lived SSE endpoint. The connection is registered
// under the caller's resolved game code, receives a state snapshot, then
// drains broadcasts until the transport closes. Closing the transport
// cancels the request context, which unconditionally removes the
// registration.
func handleEvents(logger *slog.Logger, store Store, registry *Registry, broadcaster *Broadcaster, tenants *TenantResolver) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var gameCode string
		if sess, err := participantFromRequest(r, store); err == nil {
			gameCode = tenants.ForParticipant(r.Context(), sess.ParticipantID)
		} else if sess, err := adminFromRequest(r, store); err == nil {
			gameCode = tenants.ForAdmin(r.Context(), sess.AdminID)
		} else {
			writeError(w, http.StatusUnauthorized, "not authenticated")
			return
		}

		flusher, ok := w.(http.Flusher)
		if !ok {
			writeError(w, http.StatusInternalServerError, "streaming not supported")
			return
		}

		w.Header().Set("Content-Type", "text/event-stream")
		w.Header().Set("Cache-Control", "no-cache")
		w.Header().Set("Connection", "keep-alive")
		w.Header().Set("X-Accel-Buffering", "no")
		flusher.Flush()

		id, ch := registry.Add(gameCode)
		defer registry.Remove(id)

		send := func(ev Envelope) error {
			if _, err := fmt.Fprintf(w, "event: %s\ndata: %s\n\n", ev.Event, ev.Data); err != nil {
				return err
			}
			flusher.Flush()
			return nil
		}

		// New subscribers see current state before the next broadcast.
		if err := broadcaster.Snapshot(r.Context(), gameCode, send); err != nil {
			logger.Warn("writing initial snapshot", "connection", id, "error", err)
			return
		}

		ping := time.NewTicker(30 * time.Second)
		defer ping.Stop()

		for {
			select {
			case <-r.Context().Done():
				return
			case ev := <-ch:
				if err := send(ev); err != nil {
					logger.Warn("writing event to subscriber", "connection", id, "error", err)
					return
				}
			case <-ping.C:
				if _, err := fmt.Fprintf(w, ": ping\n\n"); err != nil {
					return
				}
				flusher.Flush()
			}
		}
	}
}
