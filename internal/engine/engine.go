// Package engine walks a fetched photo sequence in batches, resolves each
// photo to a thumbnail, runs the face detector against it, caches the
// outcome, and publishes incremental results through an observable State.
package engine

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/facescan/facescan/internal/cache"
	"github.com/facescan/facescan/internal/detector"
	"github.com/facescan/facescan/internal/library"
)

// Options configures an engine. Zero values fall back to the standard
// capability defaults.
type Options struct {
	// BatchSize is the number of photos processed per LoadMore call.
	BatchSize int
	// Limited marks restricted library access: every pass processes the
	// whole remaining sequence and publishes the full eligible set at once.
	Limited bool
	// ThumbSize is the target thumbnail size requested from the resolver.
	ThumbSize int
	// UseLegacyOffset raises the face size threshold on legacy devices.
	UseLegacyOffset bool
}

// sessionParams are the values captured once per Detect call. Batch
// processing runs on the background worker and must not re-read them from
// their configured source until the next Detect.
type sessionParams struct {
	thumbSize       int
	useLegacyOffset bool
}

type task struct {
	reset  bool
	count  int
	params sessionParams
}

// Engine orchestrates batched face-presence detection. All batch processing
// happens on one sequential background goroutine, so batches never overlap
// and a superseding Detect cannot interleave with a stale in-flight batch.
type Engine struct {
	resolver library.ImageResolver
	detector *detector.Detector
	cache    *cache.Cache
	state    *State

	batchSize       int
	limited         bool
	thumbSize       int
	useLegacyOffset bool

	srcMu  sync.RWMutex
	source library.Sequence

	// Session state, touched only on the worker goroutine.
	cursor   int
	results  []library.Asset
	session  sessionParams
	finished bool

	waiting atomic.Bool
	tasks   chan task

	ctx       context.Context
	cancel    context.CancelFunc
	closeOnce sync.Once
}

// New creates an engine and starts its background worker.
func New(opts Options, resolver library.ImageResolver, det *detector.Detector, c *cache.Cache) *Engine {
	if opts.BatchSize <= 0 {
		opts.BatchSize = 30
	}
	if opts.ThumbSize <= 0 {
		opts.ThumbSize = 224
	}

	ctx, cancel := context.WithCancel(context.Background())
	e := &Engine{
		resolver:        resolver,
		detector:        det,
		cache:           c,
		state:           NewState(),
		batchSize:       opts.BatchSize,
		limited:         opts.Limited,
		thumbSize:       opts.ThumbSize,
		useLegacyOffset: opts.UseLegacyOffset,
		tasks:           make(chan task, 16),
		ctx:             ctx,
		cancel:          cancel,
	}
	go e.run()
	return e
}

// State returns the observable detection state.
func (e *Engine) State() *State {
	return e.state
}

// SetSource supplies the fetched asset sequence. The engine only reads it;
// the sequence must stay stable for the duration of a session.
func (e *Engine) SetSource(source library.Sequence) {
	e.srcMu.Lock()
	e.source = source
	e.srcMu.Unlock()
}

// Detect starts a new detection session. The cursor and the result list are
// reset, session parameters are captured once, the phase moves to start, and
// the first batch is scheduled. A session already in flight is superseded:
// its remaining work runs before the reset, but its reporting is replaced.
func (e *Engine) Detect() {
	params := sessionParams{
		thumbSize:       e.thumbSize,
		useLegacyOffset: e.useLegacyOffset,
	}
	e.waiting.Store(true)
	select {
	case e.tasks <- task{reset: true, count: e.batchSize, params: params}:
	case <-e.ctx.Done():
	}
}

// LoadMore schedules the next batch. It is a no-op while a batch is already
// in flight, so a scroll-triggered burst of calls collapses into one batch.
func (e *Engine) LoadMore() {
	if !e.waiting.CompareAndSwap(false, true) {
		return
	}
	select {
	case e.tasks <- task{count: e.batchSize}:
	case <-e.ctx.Done():
	}
}

// NotifyPhotosChanged signals that the upstream fetch changed. It is
// informational only: the driver re-issues Detect to reset the session.
func (e *Engine) NotifyPhotosChanged() {
	e.state.SetPhase(PhasePhotosChanged)
}

// Close stops the background worker and the state dispatcher. In-flight
// resolver calls are not forcibly aborted; the worker exits after the
// current batch. Detect and LoadMore after Close are no-ops.
func (e *Engine) Close() {
	e.closeOnce.Do(e.cancel)
	e.state.Close()
}

func (e *Engine) run() {
	for {
		select {
		case <-e.ctx.Done():
			return
		case t := <-e.tasks:
			if t.reset {
				// The reset runs here, not in Detect, so a stale batch from a
				// superseded session always publishes before the fresh session
				// clears the result list.
				e.cursor = 0
				e.results = nil
				e.session = t.params
				e.finished = false
				e.state.Clear()
				e.state.SetPhase(PhaseStart)
			}
			e.runBatch(t.count)
		}
	}
}

// finishSession announces completion once per session. A LoadMore past the
// end must not re-announce it.
func (e *Engine) finishSession() {
	if e.finished {
		return
	}
	e.finished = true
	e.state.SetPhase(PhaseFinished)
	e.cache.Persist()
}

// runBatch processes up to requested assets starting at the cursor. Runs
// only on the worker goroutine.
func (e *Engine) runBatch(requested int) {
	e.srcMu.RLock()
	source := e.source
	e.srcMu.RUnlock()
	if source == nil {
		// No fetched sequence: no phase transition, just release the gate.
		e.waiting.Store(false)
		return
	}

	total := source.Count()
	count := requested
	if e.limited {
		// Restricted access cannot re-prompt for more of the library, so
		// the whole remainder is one pass.
		count = total - e.cursor
	}

	start := e.cursor
	end := start + count
	if end > total {
		end = total
	}
	if end < start {
		end = start
	}
	e.cursor = end

	if start >= end {
		e.waiting.Store(false)
		e.finishSession()
		return
	}

	before := len(e.results)
	for i := start; i < end; i++ {
		asset := source.At(i)
		if hasFace, ok := e.cache.Get(asset.UID); ok {
			if hasFace {
				e.results = append(e.results, asset)
			}
			continue
		}

		img, err := e.resolver.RequestImage(e.ctx, asset, e.session.thumbSize)
		if err != nil || img == nil {
			// Unresolvable photos are cached as negative, not surfaced.
			e.cache.Set(asset.UID, false)
			continue
		}

		outcome := e.detector.ContainsSizedFace(img, asset.Width, asset.Height, e.session.useLegacyOffset)
		e.cache.Set(asset.UID, outcome.HasFace)
		if outcome.HasFace {
			e.results = append(e.results, asset)
		}
	}

	allProcessed := e.cursor >= total

	// Results first, phase second.
	if e.limited {
		e.state.Replace(e.results)
	} else {
		e.state.Append(e.results[before:])
	}
	if allProcessed {
		e.finishSession()
	} else {
		e.state.SetPhase(PhaseResume)
	}
	e.waiting.Store(false)
}
