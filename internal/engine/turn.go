package engine

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/attuneai/attune/internal/profile"
	"github.com/attuneai/attune/internal/storage"
	"github.com/attuneai/attune/pkg/types"
)

// ContextBundle is what a handled turn yields: everything the external
// response generator needs. The engine never produces user-facing text.
type ContextBundle struct {
	UserID   string                `json:"user_id"`
	Signal   *types.EmotionSignal  `json:"signal"`
	Profile  profile.Context       `json:"profile"`
	Memories []storage.ScoredEntry `json:"memories,omitempty"`
}

// HandleTurn processes one user utterance: validates it, fuses the emotion
// signal, updates the profile, buffers the turn, schedules consolidation
// when due, and assembles the context bundle. The first turn for an unknown
// user creates a fresh session.
func (e *Engine) HandleTurn(ctx context.Context, userID, text string) (*ContextBundle, error) {
	if userID == "" {
		return nil, fmt.Errorf("%w: user ID is required", ErrInvalidText)
	}
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return nil, fmt.Errorf("%w: text is empty", ErrInvalidText)
	}
	if len(text) > e.opts.MaxTextLen {
		return nil, fmt.Errorf("%w: text exceeds %d bytes", ErrInvalidText, e.opts.MaxTextLen)
	}

	// Fusion is stateless; run it before taking the session lock so a slow
	// classifier call cannot serialize unrelated work for this user.
	signal := e.detector.Detect(ctx, text)
	concepts := e.detector.ExtractConcepts(text)
	coping := e.copingMentions(text)

	s := e.getSession(userID, true)
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil, ErrUserNotFound
	}

	s.profile.ProcessTurn(signal.AllEmotions, concepts, coping, copingEffectiveness(signal))

	needsConsolidation := s.memory.AddTurn(types.ConversationTurn{
		Timestamp: time.Now(),
		Text:      text,
		Emotion:   signal.Primary,
		Intensity: signal.Intensity,
		Concepts:  concepts,
		Speaker:   types.SpeakerUser,
	})

	profileCtx := s.profile.ContextFor(signal.AllEmotions, concepts)
	s.mu.Unlock()

	if needsConsolidation {
		e.requestConsolidation(userID)
	}

	memories, err := e.longterm.Retrieve(ctx, userID, text, e.opts.RetrieveK)
	if err != nil {
		// Retrieval failure degrades the bundle, never the turn.
		log.Printf("engine: memory retrieval failed for user %s: %v", userID, err)
	}

	e.turns.Add(1)
	if signal.Degraded {
		e.degradedTurns.Add(1)
	}
	e.publish(TurnEvent{
		UserID:    userID,
		Emotion:   signal.Primary,
		Intensity: signal.Intensity,
		Degraded:  signal.Degraded,
		Timestamp: time.Now(),
	})

	return &ContextBundle{
		UserID:   userID,
		Signal:   signal,
		Profile:  profileCtx,
		Memories: memories,
	}, nil
}

// RecordResponse buffers the system's reply so conversation summaries count
// both sides of the exchange.
func (e *Engine) RecordResponse(userID, text string) error {
	s := e.getSession(userID, false)
	if s == nil {
		return ErrUserNotFound
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrUserNotFound
	}
	s.memory.AddTurn(types.ConversationTurn{
		Timestamp: time.Now(),
		Text:      text,
		Emotion:   "neutral",
		Speaker:   types.SpeakerSystem,
	})
	return nil
}

// ProcessOnboarding seeds a user's profile from their onboarding answers,
// creating the session on first contact.
func (e *Engine) ProcessOnboarding(userID string, data types.OnboardingData) error {
	if userID == "" {
		return fmt.Errorf("%w: user ID is required", ErrInvalidText)
	}

	s := e.getSession(userID, true)
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrUserNotFound
	}
	s.profile.ProcessOnboarding(data)
	return nil
}

// EndSession closes the user's current conversation and consolidates
// everything pending before returning.
func (e *Engine) EndSession(ctx context.Context, userID string) error {
	s := e.getSession(userID, false)
	if s == nil {
		return ErrUserNotFound
	}

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrUserNotFound
	}
	pending := s.memory.EndSession()
	s.mu.Unlock()

	if !pending {
		return nil
	}
	return e.consolidateUser(ctx, userID)
}

// copingMentions returns the catalog coping strategies named in text.
// Strategy names use underscores; the text is matched against their
// space-separated form.
func (e *Engine) copingMentions(text string) []string {
	lowered := strings.ToLower(text)

	var mentioned []string
	seen := make(map[string]bool)
	for _, emotion := range e.graph.EmotionNames() {
		for _, strategy := range e.graph.CopingStrategies(emotion) {
			if seen[strategy] {
				continue
			}
			phrase := strings.ReplaceAll(strategy, "_", " ")
			if strings.Contains(lowered, phrase) {
				seen[strategy] = true
				mentioned = append(mentioned, strategy)
			}
		}
	}
	return mentioned
}

// copingEffectiveness estimates how well a mentioned strategy worked from
// the turn's valence: pleasant turns rate the strategy higher.
func copingEffectiveness(signal *types.EmotionSignal) float64 {
	return types.ClampUnit((signal.Valence + 1.0) / 2.0)
}
