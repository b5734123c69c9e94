package handlers

import (
	"bufio"
	"context"
	"encoding/json"
	"image"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/facescan/facescan/internal/cache"
	"github.com/facescan/facescan/internal/detector"
	"github.com/facescan/facescan/internal/engine"
	"github.com/facescan/facescan/internal/library"
)

// faceEverywhereResolver resolves every asset to the same thumbnail.
type faceEverywhereResolver struct{}

func (faceEverywhereResolver) RequestImage(ctx context.Context, asset library.Asset, targetSize int) (image.Image, error) {
	return image.NewRGBA(image.Rect(0, 0, 100, 100)), nil
}

// fullFrameFinder reports one face covering the whole thumbnail.
type fullFrameFinder struct{}

func (fullFrameFinder) Detect(img image.Image) []detector.Box {
	bounds := img.Bounds()
	return []detector.Box{{Width: float64(bounds.Dx()), Height: float64(bounds.Dy())}}
}

func newTestEngine(t *testing.T, n int) *engine.Engine {
	t.Helper()

	assets := make([]library.Asset, n)
	for i := range assets {
		assets[i] = library.Asset{UID: "photo-" + string(rune('a'+i)), Width: 100, Height: 100}
	}

	det := detector.New(fullFrameFinder{}, 50, 10, detector.AccuracyHigh)
	eng := engine.New(engine.Options{BatchSize: 100}, faceEverywhereResolver{}, det, cache.New())
	eng.SetSource(library.SliceSequence(assets))
	t.Cleanup(eng.Close)
	return eng
}

func waitForPhase(t *testing.T, eng *engine.Engine, want engine.Phase) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for eng.State().Phase() != want {
		if time.Now().After(deadline) {
			t.Fatalf("timed out waiting for phase %q, at %q", want, eng.State().Phase())
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestDetectStartsSession(t *testing.T) {
	eng := newTestEngine(t, 3)
	h := NewDetectionHandler(eng)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/detect", nil)
	rec := httptest.NewRecorder()
	h.Detect(rec, req)

	if rec.Code != http.StatusAccepted {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusAccepted)
	}

	var resp SessionResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.SessionID == "" {
		t.Error("session_id is empty")
	}
	if resp.Phase != engine.PhaseStart {
		t.Errorf("phase = %q, want %q", resp.Phase, engine.PhaseStart)
	}

	waitForPhase(t, eng, engine.PhaseFinished)
}

func TestLoadMoreWithoutSession(t *testing.T) {
	eng := newTestEngine(t, 3)
	h := NewDetectionHandler(eng)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/detect/more", nil)
	rec := httptest.NewRecorder()
	h.LoadMore(rec, req)

	if rec.Code != http.StatusConflict {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusConflict)
	}
}

func TestResultsAfterDetection(t *testing.T) {
	eng := newTestEngine(t, 3)
	h := NewDetectionHandler(eng)

	rec := httptest.NewRecorder()
	h.Detect(rec, httptest.NewRequest(http.MethodPost, "/api/v1/detect", nil))
	waitForPhase(t, eng, engine.PhaseFinished)

	rec = httptest.NewRecorder()
	h.Results(rec, httptest.NewRequest(http.MethodGet, "/api/v1/results", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}

	var resp ResultsResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Phase != engine.PhaseFinished {
		t.Errorf("phase = %q, want %q", resp.Phase, engine.PhaseFinished)
	}
	if resp.Count != 3 || len(resp.Results) != 3 {
		t.Errorf("count = %d with %d results, want 3", resp.Count, len(resp.Results))
	}
}

func TestEventsStreamsUntilFinished(t *testing.T) {
	eng := newTestEngine(t, 2)
	h := NewDetectionHandler(eng)

	server := httptest.NewServer(http.HandlerFunc(h.Events))
	defer server.Close()

	req, err := http.NewRequest(http.MethodGet, server.URL, nil)
	if err != nil {
		t.Fatalf("NewRequest: %v", err)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("GET events: %v", err)
	}
	defer resp.Body.Close()

	if got := resp.Header.Get("Content-Type"); got != "text/event-stream" {
		t.Fatalf("Content-Type = %q, want text/event-stream", got)
	}

	eng.Detect()

	// The stream ends on its own once the finished phase is delivered, so
	// reading to EOF terminates.
	var eventTypes []string
	scanner := bufio.NewScanner(resp.Body)
	for scanner.Scan() {
		line := scanner.Text()
		if strings.HasPrefix(line, "event: ") {
			eventTypes = append(eventTypes, strings.TrimPrefix(line, "event: "))
		}
	}

	if len(eventTypes) == 0 || eventTypes[0] != "status" {
		t.Fatalf("event types = %v, want status snapshot first", eventTypes)
	}
	last := eventTypes[len(eventTypes)-1]
	if last != string(engine.EventPhase) {
		t.Errorf("last event type = %q, want %q", last, engine.EventPhase)
	}

	sawAppend := false
	for _, et := range eventTypes {
		if et == string(engine.EventResultsAppended) {
			sawAppend = true
		}
	}
	if !sawAppend {
		t.Errorf("event types = %v, want a results_appended event", eventTypes)
	}
}
