package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"photofx/internal/appstate"
)

const (
	eventBuffer    = 32
	eventHeartbeat = 25 * time.Second
)

// Events streams application state changes as server-sent events. The
// first event is a "state" snapshot.
func (a *App) Events(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		a.error(w, http.StatusInternalServerError, "internal", "streaming unsupported")
		return
	}
	events, cancel := a.State.Subscribe(eventBuffer)
	defer cancel()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)

	if err := writeEvent(w, "state", a.State.Snapshot()); err != nil {
		return
	}
	flusher.Flush()

	heartbeat := time.NewTicker(eventHeartbeat)
	defer heartbeat.Stop()
	for {
		select {
		case <-r.Context().Done():
			return
		case <-heartbeat.C:
			if _, err := fmt.Fprint(w, ": ping\n\n"); err != nil {
				return
			}
		case ev, open := <-events:
			if !open {
				return
			}
			if err := writeEvent(w, string(ev.Type), eventPayload(ev)); err != nil {
				return
			}
		}
		flusher.Flush()
	}
}

func eventPayload(ev appstate.Event) any {
	switch ev.Type {
	case appstate.EventHistory:
		return map[string]any{"items": ev.History}
	case appstate.EventTokens:
		return map[string]any{"tokens": ev.Tokens}
	case appstate.EventNotification:
		return ev.Notification
	default:
		return map[string]any{}
	}
}

func writeEvent(w http.ResponseWriter, name string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(w, "event: %s\ndata: %s\n\n", name, data)
	return err
}
