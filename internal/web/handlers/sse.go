package handlers

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"

	"github.com/facescan/facescan/internal/engine"
)

// Events streams detection state updates (phase transitions and result
// batches) to the client as server-sent events. The stream starts with a
// status snapshot and ends when the client disconnects or the state closes.
func (h *DetectionHandler) Events(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	flusher, ok := w.(http.Flusher)
	if !ok {
		respondError(w, http.StatusInternalServerError, "streaming not supported")
		return
	}

	state := h.engine.State()
	events := state.Subscribe()
	defer state.Unsubscribe(events)

	h.mu.Lock()
	sessionID := h.sessionID
	h.mu.Unlock()

	sendSSEEvent(w, flusher, "status", ResultsResponse{
		SessionID: sessionID,
		Phase:     state.Phase(),
		Count:     len(state.Results()),
		Results:   state.Results(),
	})

	for {
		select {
		case <-r.Context().Done():
			return
		case event, ok := <-events:
			if !ok {
				return
			}
			sendSSEEvent(w, flusher, string(event.Type), event)
			if event.Type == engine.EventPhase && event.Phase == engine.PhaseFinished {
				return
			}
		}
	}
}

// sendSSEEvent writes a single server-sent event and flushes it.
func sendSSEEvent(w http.ResponseWriter, flusher http.Flusher, eventType string, data any) {
	jsonData, _ := json.Marshal(data)
	_, _ = io.WriteString(w, "event: "+eventType+"\n")
	_, _ = io.WriteString(w, "data: ")
	_, _ = io.Copy(w, bytes.NewReader(jsonData))
	_, _ = io.WriteString(w, "\n\n")
	flusher.Flush()
}
