package engine

import (
	"context"
	"log"
	"time"
)

// consolidateTimeout bounds one background consolidation pass.
const consolidateTimeout = 30 * time.Second

// run is the background scheduler: it drains the consolidation trigger
// channel, sweeps sessions for idle conversations, and runs retention
// cleanup on its own interval.
func (e *Engine) run() {
	defer e.wg.Done()

	sweep := time.NewTicker(e.opts.SweepInterval)
	defer sweep.Stop()
	cleanup := time.NewTicker(e.opts.CleanupInterval)
	defer cleanup.Stop()

	for {
		select {
		case <-e.done:
			return
		case userID := <-e.trigger:
			e.consolidateWithTimeout(userID)
		case <-sweep.C:
			e.sweepIdle()
		case <-cleanup.C:
			ctx, cancel := context.WithTimeout(context.Background(), consolidateTimeout)
			if _, err := e.longterm.Cleanup(ctx); err != nil {
				log.Printf("engine: retention cleanup failed: %v", err)
			}
			cancel()
		}
	}
}

func (e *Engine) consolidateWithTimeout(userID string) {
	ctx, cancel := context.WithTimeout(context.Background(), consolidateTimeout)
	defer cancel()
	if err := e.consolidateUser(ctx, userID); err != nil {
		log.Printf("engine: consolidation failed for user %s: %v", userID, err)
	}
}

// sweepIdle closes conversations that outlived the inactivity timeout and
// queues any session with pending work.
func (e *Engine) sweepIdle() {
	e.mu.RLock()
	userIDs := make([]string, 0, len(e.sessions))
	sessions := make([]*session, 0, len(e.sessions))
	for id, s := range e.sessions {
		userIDs = append(userIDs, id)
		sessions = append(sessions, s)
	}
	e.mu.RUnlock()

	for i, s := range sessions {
		s.mu.Lock()
		if s.closed {
			s.mu.Unlock()
			continue
		}
		s.memory.SegmentIdle()
		pending := s.memory.PendingCount() > 0
		s.mu.Unlock()

		if pending {
			e.requestConsolidation(userIDs[i])
		}
	}
}

// consolidateUser moves the user's pending conversations into long-term
// storage. The pending queue is snapshotted under the session lock, embedded
// and written outside it, and only the durably written conversations are
// cleared afterwards. A write failure keeps the remainder queued for the
// next trigger; upserts keyed by conversation ID make retries idempotent.
func (e *Engine) consolidateUser(ctx context.Context, userID string) error {
	s := e.getSession(userID, false)
	if s == nil {
		return nil
	}

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	snapshot := s.memory.SnapshotPending()
	if len(snapshot) == 0 {
		s.mu.Unlock()
		return nil
	}
	s.consolidating.Add(1)
	s.mu.Unlock()
	defer s.consolidating.Done()

	committed, err := e.longterm.Consolidate(ctx, snapshot)

	s.mu.Lock()
	s.memory.CommitConsolidated(committed)
	s.mu.Unlock()

	e.consolidations.Add(uint64(len(committed)))
	if err != nil {
		e.consolidateFails.Add(1)
		return err
	}
	return nil
}
