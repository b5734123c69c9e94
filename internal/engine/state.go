package engine

import (
	"sync"

	"github.com/facescan/facescan/internal/library"
)

// Phase is the current stage of a detection session. Exactly one value is
// current at a time; only the engine mutates it.
type Phase string

const (
	PhaseInitial       Phase = "initial"
	PhaseStart         Phase = "start"
	PhaseResume        Phase = "resume"
	PhaseFinished      Phase = "finished"
	PhasePhotosChanged Phase = "photosChanged"
)

// EventType distinguishes the two observable signals: phase transitions and
// result list updates.
type EventType string

const (
	EventPhase           EventType = "phase"
	EventResultsAppended EventType = "results_appended"
	EventResultsReplaced EventType = "results_replaced"
	EventResultsCleared  EventType = "results_cleared"
)

// Event is one observable state update. Batch carries the newly appended
// assets for an append, or the full list for a replace.
type Event struct {
	Type  EventType       `json:"type"`
	Phase Phase           `json:"phase,omitempty"`
	Batch []library.Asset `json:"batch,omitempty"`
}

// subscriberBuffer is the per-subscriber channel capacity. A subscriber that
// falls this far behind starts dropping events.
const subscriberBuffer = 64

// State holds the current detection phase and the accumulated result list as
// observable values. Every mutation is delivered to all subscribers by a
// single dispatch goroutine, in issuance order, decoupled from the mutating
// goroutine.
type State struct {
	mu      sync.RWMutex
	phase   Phase
	results []library.Asset

	dispatch chan Event
	stopOnce sync.Once

	lmu       sync.Mutex
	listeners []chan Event
}

// NewState creates a state holder in the initial phase and starts its
// dispatch goroutine.
func NewState() *State {
	s := &State{
		phase:    PhaseInitial,
		dispatch: make(chan Event, 256),
	}
	go s.run()
	return s
}

func (s *State) run() {
	for event := range s.dispatch {
		s.lmu.Lock()
		for _, listener := range s.listeners {
			select {
			case listener <- event:
			default:
				// Listener buffer full, skip.
			}
		}
		s.lmu.Unlock()
	}
	s.lmu.Lock()
	for _, listener := range s.listeners {
		close(listener)
	}
	s.listeners = nil
	s.lmu.Unlock()
}

// Close stops the dispatch goroutine and closes all subscriber channels.
// Pending events are still delivered first.
func (s *State) Close() {
	s.stopOnce.Do(func() {
		close(s.dispatch)
	})
}

// Subscribe registers a new observer. The returned channel receives every
// subsequent state update in issuance order. A subscriber that stops
// draining falls behind and, once its buffer fills, misses events rather
// than blocking the dispatcher.
func (s *State) Subscribe() chan Event {
	s.lmu.Lock()
	defer s.lmu.Unlock()
	ch := make(chan Event, subscriberBuffer)
	s.listeners = append(s.listeners, ch)
	return ch
}

// Unsubscribe removes an observer and closes its channel.
func (s *State) Unsubscribe(ch chan Event) {
	s.lmu.Lock()
	defer s.lmu.Unlock()
	for i, listener := range s.listeners {
		if listener == ch {
			s.listeners = append(s.listeners[:i], s.listeners[i+1:]...)
			close(ch)
			return
		}
	}
}

// Phase returns the current detection phase.
func (s *State) Phase() Phase {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.phase
}

// Results returns a copy of the current result list.
func (s *State) Results() []library.Asset {
	s.mu.RLock()
	defer s.mu.RUnlock()
	results := make([]library.Asset, len(s.results))
	copy(results, s.results)
	return results
}

// SetPhase transitions to the given phase. Every issuance is delivered to
// observers, repeated values included: a second resume is a new transition,
// not a duplicate. Deduplication, where wanted, is the issuer's job.
func (s *State) SetPhase(phase Phase) {
	s.mu.Lock()
	s.phase = phase
	s.dispatch <- Event{Type: EventPhase, Phase: phase}
	s.mu.Unlock()
}

// Append adds a batch to the end of the result list, preserving order.
// An empty batch still produces an event so observers see batch boundaries.
func (s *State) Append(batch []library.Asset) {
	added := make([]library.Asset, len(batch))
	copy(added, batch)
	s.mu.Lock()
	s.results = append(s.results, added...)
	s.dispatch <- Event{Type: EventResultsAppended, Batch: added}
	s.mu.Unlock()
}

// Replace swaps the entire result list. Used under limited library access,
// where each pass publishes the full eligible set at once.
func (s *State) Replace(list []library.Asset) {
	replacement := make([]library.Asset, len(list))
	copy(replacement, list)
	s.mu.Lock()
	s.results = replacement
	s.dispatch <- Event{Type: EventResultsReplaced, Batch: replacement}
	s.mu.Unlock()
}

// Clear empties the result list.
func (s *State) Clear() {
	s.mu.Lock()
	s.results = nil
	s.dispatch <- Event{Type: EventResultsCleared}
	s.mu.Unlock()
}
