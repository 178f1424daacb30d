// Package engine orchestrates turns: signal fusion, profile updates,
// short-term memory, background consolidation, and context-bundle assembly
// for the external response generator.
//
// Turns for one user are serialized by the session mutex; turns for
// different users proceed in parallel. The knowledge graph and detector are
// immutable and shared without locking.
package engine

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"sync/atomic"
	"time"

	"github.com/attuneai/attune/internal/fusion"
	"github.com/attuneai/attune/internal/knowledge"
	"github.com/attuneai/attune/internal/memory"
	"github.com/attuneai/attune/internal/profile"
)

var (
	// ErrUserNotFound indicates an operation on a user with no session.
	ErrUserNotFound = errors.New("user not found")

	// ErrInvalidText indicates empty or oversized turn text.
	ErrInvalidText = errors.New("invalid turn text")
)

// DefaultMaxTextLen caps accepted turn text, in bytes.
const DefaultMaxTextLen = 4096

// Options configures the engine. Zero values select the defaults.
type Options struct {
	// Memory configures each session's short-term manager.
	Memory memory.Options

	// ConceptCap bounds per-user tracked concepts.
	ConceptCap int

	// RetrieveK is how many memories a context bundle carries.
	RetrieveK int

	// MaxTextLen caps accepted turn text in bytes.
	MaxTextLen int

	// SweepInterval is how often the background scheduler checks sessions
	// for idle conversations and pending consolidation.
	SweepInterval time.Duration

	// CleanupInterval is how often long-term retention cleanup runs.
	CleanupInterval time.Duration
}

// Normalize fills in defaults for unset fields.
func (o *Options) Normalize() {
	o.Memory.Normalize()
	if o.ConceptCap <= 0 {
		o.ConceptCap = profile.DefaultConceptCap
	}
	if o.RetrieveK <= 0 {
		o.RetrieveK = memory.DefaultRetrieveK
	}
	if o.MaxTextLen <= 0 {
		o.MaxTextLen = DefaultMaxTextLen
	}
	if o.SweepInterval <= 0 {
		o.SweepInterval = time.Minute
	}
	if o.CleanupInterval <= 0 {
		o.CleanupInterval = 24 * time.Hour
	}
}

// session is one user's mutable state. All fields behind mu.
type session struct {
	mu      sync.Mutex
	profile *profile.Graph
	memory  *memory.Manager

	// closed blocks new turns while delete-all-data is in progress.
	closed bool

	// consolidating tracks in-flight consolidation so deletion can wait
	// for it to finish before purging.
	consolidating sync.WaitGroup
}

// Stats counts engine activity since start.
type Stats struct {
	Turns            uint64 `json:"turns"`
	Consolidations   uint64 `json:"consolidations"`
	ActiveSessions   int    `json:"active_sessions"`
	DegradedTurns    uint64 `json:"degraded_turns"`
	ConsolidateFails uint64 `json:"consolidate_failures"`
}

// Engine is the orchestrator. Construct with New and stop with Shutdown.
type Engine struct {
	graph    *knowledge.Graph
	detector *fusion.Detector
	longterm *memory.LongTerm
	opts     Options

	mu       sync.RWMutex
	sessions map[string]*session

	trigger chan string
	done    chan struct{}
	wg      sync.WaitGroup

	turns            atomic.Uint64
	consolidations   atomic.Uint64
	degradedTurns    atomic.Uint64
	consolidateFails atomic.Uint64

	// subscribers receive turn events, e.g. the websocket hub.
	eventMu     sync.RWMutex
	subscribers []func(TurnEvent)
}

// TurnEvent is broadcast after each handled turn.
type TurnEvent struct {
	UserID    string    `json:"user_id"`
	Emotion   string    `json:"emotion"`
	Intensity float64   `json:"intensity"`
	Degraded  bool      `json:"degraded,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// New creates an Engine over the shared graph, detector, and long-term
// pipeline, and starts the background scheduler.
func New(graph *knowledge.Graph, detector *fusion.Detector, longterm *memory.LongTerm, opts Options) *Engine {
	opts.Normalize()
	e := &Engine{
		graph:    graph,
		detector: detector,
		longterm: longterm,
		opts:     opts,
		sessions: make(map[string]*session),
		trigger:  make(chan string, 64),
		done:     make(chan struct{}),
	}

	e.wg.Add(1)
	go e.run()

	return e
}

// Subscribe registers a turn-event listener. Listeners must not block.
func (e *Engine) Subscribe(fn func(TurnEvent)) {
	e.eventMu.Lock()
	e.subscribers = append(e.subscribers, fn)
	e.eventMu.Unlock()
}

func (e *Engine) publish(ev TurnEvent) {
	e.eventMu.RLock()
	defer e.eventMu.RUnlock()
	for _, fn := range e.subscribers {
		fn(ev)
	}
}

// getSession returns the live session for userID, creating one when create
// is set. Returns nil when absent (or closed) and create is false.
func (e *Engine) getSession(userID string, create bool) *session {
	e.mu.RLock()
	s := e.sessions[userID]
	e.mu.RUnlock()
	if s != nil || !create {
		return s
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if s = e.sessions[userID]; s != nil {
		return s
	}
	s = &session{
		profile: profile.NewGraph(userID, e.graph, e.opts.ConceptCap),
		memory:  memory.NewManager(userID, e.opts.Memory),
	}
	e.sessions[userID] = s
	return s
}

// Stats returns a snapshot of engine counters.
func (e *Engine) Stats() Stats {
	e.mu.RLock()
	active := len(e.sessions)
	e.mu.RUnlock()

	return Stats{
		Turns:            e.turns.Load(),
		Consolidations:   e.consolidations.Load(),
		ActiveSessions:   active,
		DegradedTurns:    e.degradedTurns.Load(),
		ConsolidateFails: e.consolidateFails.Load(),
	}
}

// requestConsolidation queues a consolidation pass for userID without
// blocking the turn path.
func (e *Engine) requestConsolidation(userID string) {
	select {
	case e.trigger <- userID:
	default:
		// Queue full; the periodic sweep will pick the session up.
	}
}

// Shutdown closes all open conversations, runs a final consolidation pass,
// and stops the background scheduler.
func (e *Engine) Shutdown(ctx context.Context) error {
	e.mu.RLock()
	userIDs := make([]string, 0, len(e.sessions))
	for id := range e.sessions {
		userIDs = append(userIDs, id)
	}
	e.mu.RUnlock()

	var firstErr error
	for _, userID := range userIDs {
		if err := e.EndSession(ctx, userID); err != nil && !errors.Is(err, ErrUserNotFound) && firstErr == nil {
			firstErr = fmt.Errorf("failed to end session for %s: %w", userID, err)
		}
	}

	close(e.done)
	e.wg.Wait()

	if firstErr != nil {
		log.Printf("engine: shutdown completed with errors: %v", firstErr)
	}
	return firstErr
}
