package embedding

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/sony/gobreaker"
	"golang.org/x/time/rate"
)

// ErrCircuitOpen is returned when the embedding circuit breaker is open.
var ErrCircuitOpen = errors.New("embedding circuit breaker is open")

// HTTPConfig holds HTTP embedding provider configuration.
type HTTPConfig struct {
	// BaseURL is the embedding service base URL (default: http://localhost:11434).
	BaseURL string

	// Model is the embedding model name (default: nomic-embed-text).
	Model string

	// Dimension is the expected vector dimension (default: 768).
	Dimension int

	// Timeout bounds each embedding call (default: 5s). Consolidation runs
	// off the request path, so this can be more generous than the
	// classifier timeout.
	Timeout time.Duration

	// MaxRPS caps outbound requests per second (default: 10).
	MaxRPS float64
}

// HTTPProvider calls a remote embedding service (Ollama-compatible /api/embed).
type HTTPProvider struct {
	baseURL   string
	model     string
	dimension int
	client    *http.Client
	breaker   *gobreaker.CircuitBreaker
	limiter   *rate.Limiter
}

var _ Provider = (*HTTPProvider)(nil)

// embedRequest is the request body for the /api/embed endpoint.
type embedRequest struct {
	Model string `json:"model"`
	Input string `json:"input"`
}

// embedResponse is the response from /api/embed. The embeddings field is a
// 2D array; the first row is the only one used.
type embedResponse struct {
	Embeddings [][]float64 `json:"embeddings"`
}

// NewHTTPProvider creates an embedding client with the given configuration,
// applying defaults for unset fields.
func NewHTTPProvider(cfg HTTPConfig) *HTTPProvider {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "http://localhost:11434"
	}
	if cfg.Model == "" {
		cfg.Model = "nomic-embed-text"
	}
	if cfg.Dimension <= 0 {
		cfg.Dimension = 768
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 5 * time.Second
	}
	if cfg.MaxRPS <= 0 {
		cfg.MaxRPS = 10
	}

	settings := gobreaker.Settings{
		Name:    "EmbeddingProvider",
		Timeout: 30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 3
		},
	}

	return &HTTPProvider{
		baseURL:   cfg.BaseURL,
		model:     cfg.Model,
		dimension: cfg.Dimension,
		client:    &http.Client{Timeout: cfg.Timeout},
		breaker:   gobreaker.NewCircuitBreaker(settings),
		limiter:   rate.NewLimiter(rate.Limit(cfg.MaxRPS), int(cfg.MaxRPS)),
	}
}

// Embed returns the embedding vector for text via the remote service.
func (p *HTTPProvider) Embed(ctx context.Context, text string) ([]float64, error) {
	if err := p.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	result, err := p.breaker.Execute(func() (interface{}, error) {
		return p.embed(ctx, text)
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return nil, ErrCircuitOpen
		}
		return nil, err
	}

	return result.([]float64), nil
}

func (p *HTTPProvider) embed(ctx context.Context, text string) ([]float64, error) {
	reqBody := embedRequest{Model: p.model, Input: text}
	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+"/api/embed", bytes.NewReader(jsonData))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("embedding service returned status %d: %s", resp.StatusCode, string(body))
	}

	var parsed embedResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	if len(parsed.Embeddings) == 0 || len(parsed.Embeddings[0]) == 0 {
		return nil, errors.New("embedding service returned empty embedding")
	}

	return parsed.Embeddings[0], nil
}

// Dimension returns the configured vector dimension.
func (p *HTTPProvider) Dimension() int { return p.dimension }

// GetModel returns the configured model name.
func (p *HTTPProvider) GetModel() string { return p.model }
