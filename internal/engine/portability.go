package engine

import (
	"context"
	"fmt"
	"log"

	"github.com/attuneai/attune/internal/profile"
	"github.com/attuneai/attune/pkg/types"
)

// ExportProfile returns the user's complete profile and memory summaries in
// the data-portability format. The export round-trips through ImportProfile.
func (e *Engine) ExportProfile(ctx context.Context, userID string) (*types.ProfileExport, error) {
	s := e.getSession(userID, false)
	if s == nil {
		return nil, ErrUserNotFound
	}

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil, ErrUserNotFound
	}
	export := s.profile.Export()
	s.mu.Unlock()

	entries, err := e.longterm.ListUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list memories for export: %w", err)
	}
	for _, entry := range entries {
		export.MemorySummaries = append(export.MemorySummaries, *entry)
	}

	return &export, nil
}

// ImportProfile restores a previously exported profile for userID, creating
// the session when absent. Memory summaries are re-embedded and written back
// to the long-term store; exported embeddings are never trusted.
func (e *Engine) ImportProfile(ctx context.Context, userID string, export types.ProfileExport) error {
	if userID == "" {
		return fmt.Errorf("%w: user ID is required", ErrInvalidText)
	}

	s := e.getSession(userID, true)
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrUserNotFound
	}
	err := s.profile.Import(export)
	s.mu.Unlock()
	if err != nil {
		return fmt.Errorf("failed to import profile: %w", err)
	}

	entries := make([]*types.MemoryEntry, 0, len(export.MemorySummaries))
	for i := range export.MemorySummaries {
		entry := export.MemorySummaries[i]
		entry.UserID = userID
		entry.Embedding = nil
		entries = append(entries, &entry)
	}
	if len(entries) == 0 {
		return nil
	}

	committed, err := e.longterm.Consolidate(ctx, entries)
	if err != nil {
		return fmt.Errorf("failed to restore memories (%d of %d written): %w", len(committed), len(entries), err)
	}
	log.Printf("engine: imported profile for user %s with %d memories", userID, len(committed))
	return nil
}

// DeleteUser erases everything known about userID: new turns are blocked
// immediately, in-flight consolidation is waited out, and both the session
// and the user's long-term entries are purged.
func (e *Engine) DeleteUser(ctx context.Context, userID string) error {
	e.mu.Lock()
	s := e.sessions[userID]
	delete(e.sessions, userID)
	e.mu.Unlock()

	if s == nil {
		return ErrUserNotFound
	}

	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()

	// Any consolidation that already snapshotted must finish (or fail)
	// before the purge, so its write cannot resurrect deleted data.
	s.consolidating.Wait()

	if err := e.longterm.DeleteUser(ctx, userID); err != nil {
		return fmt.Errorf("failed to purge long-term memories: %w", err)
	}

	log.Printf("engine: deleted all data for user %s", userID)
	return nil
}

// UserSummary returns the whole-profile overview for the stats API.
func (e *Engine) UserSummary(userID string) (*profile.Summary, error) {
	s := e.getSession(userID, false)
	if s == nil {
		return nil, ErrUserNotFound
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil, ErrUserNotFound
	}
	summary := s.profile.UserSummary()
	return &summary, nil
}
