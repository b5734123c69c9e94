package handlers

import (
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/facescan/facescan/internal/engine"
	"github.com/facescan/facescan/internal/library"
)

// DetectionHandler drives the detection engine from gallery clients:
// a detect call starts a session, load-more continues it when the gallery
// scrolls to the last visible item, and events streams progress via SSE.
type DetectionHandler struct {
	engine *engine.Engine

	mu        sync.Mutex
	sessionID string
	startedAt time.Time
}

// NewDetectionHandler creates a handler over a running engine.
func NewDetectionHandler(eng *engine.Engine) *DetectionHandler {
	return &DetectionHandler{engine: eng}
}

// SessionResponse describes the current detection session.
type SessionResponse struct {
	SessionID string       `json:"session_id"`
	Phase     engine.Phase `json:"phase"`
	StartedAt string       `json:"started_at,omitempty"`
}

// ResultsResponse carries the current result list.
type ResultsResponse struct {
	SessionID string          `json:"session_id"`
	Phase     engine.Phase    `json:"phase"`
	Count     int             `json:"count"`
	Results   []library.Asset `json:"results"`
}

// Detect starts a new detection session, superseding any session in flight.
func (h *DetectionHandler) Detect(w http.ResponseWriter, r *http.Request) {
	h.mu.Lock()
	h.sessionID = uuid.NewString()
	h.startedAt = time.Now()
	sessionID := h.sessionID
	startedAt := h.startedAt
	h.mu.Unlock()

	h.engine.Detect()

	respondJSON(w, http.StatusAccepted, SessionResponse{
		SessionID: sessionID,
		Phase:     engine.PhaseStart,
		StartedAt: startedAt.Format(time.RFC3339),
	})
}

// LoadMore schedules the next batch. Safe to call repeatedly: calls that
// arrive while a batch is in flight are ignored by the engine.
func (h *DetectionHandler) LoadMore(w http.ResponseWriter, r *http.Request) {
	h.mu.Lock()
	sessionID := h.sessionID
	h.mu.Unlock()

	if sessionID == "" {
		respondError(w, http.StatusConflict, "no detection session, call detect first")
		return
	}

	h.engine.LoadMore()
	respondJSON(w, http.StatusAccepted, SessionResponse{
		SessionID: sessionID,
		Phase:     h.engine.State().Phase(),
	})
}

// Results returns the current accumulated result list.
func (h *DetectionHandler) Results(w http.ResponseWriter, r *http.Request) {
	h.mu.Lock()
	sessionID := h.sessionID
	h.mu.Unlock()

	state := h.engine.State()
	results := state.Results()
	respondJSON(w, http.StatusOK, ResultsResponse{
		SessionID: sessionID,
		Phase:     state.Phase(),
		Count:     len(results),
		Results:   results,
	})
}
