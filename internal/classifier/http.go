package classifier

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

// ErrCircuitOpen is returned when the circuit breaker rejects a request to
// prevent hammering an unhealthy classifier endpoint.
var ErrCircuitOpen = errors.New("classifier circuit breaker is open")

// HTTPConfig holds HTTP classifier configuration.
type HTTPConfig struct {
	// BaseURL is the classifier service base URL (default: http://localhost:8500).
	BaseURL string

	// Model is the model name sent with each request (default: emotion-base).
	Model string

	// Timeout bounds each classification call (default: 300ms). The turn
	// proceeds lexical-only when the deadline is exceeded.
	Timeout time.Duration

	// TopK is the number of label/score pairs requested (default: 5).
	TopK int

	// MaxRPS caps outbound requests per second (default: 20).
	MaxRPS float64
}

// HTTPClassifier calls a remote emotion-classification service. All calls
// are wrapped with a circuit breaker and a client-side rate limiter so a
// slow or failing model can never back up user turns.
type HTTPClassifier struct {
	baseURL string
	model   string
	topK    int
	timeout time.Duration
	client  *http.Client
	breaker *gobreaker.CircuitBreaker
	limiter *rate.Limiter
}

var _ Classifier = (*HTTPClassifier)(nil)

// classifyRequest is the request body for the /classify endpoint.
type classifyRequest struct {
	Model string `json:"model"`
	Text  string `json:"text"`
	TopK  int    `json:"top_k"`
}

// classifyResponse is the response from the /classify endpoint.
type classifyResponse struct {
	Predictions []Prediction `json:"predictions"`
}

// NewHTTPClassifier creates a classifier client with the given configuration,
// applying defaults for unset fields.
func NewHTTPClassifier(cfg HTTPConfig) *HTTPClassifier {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "http://localhost:8500"
	}
	if cfg.Model == "" {
		cfg.Model = "emotion-base"
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 300 * time.Millisecond
	}
	if cfg.TopK <= 0 {
		cfg.TopK = 5
	}
	if cfg.MaxRPS <= 0 {
		cfg.MaxRPS = 20
	}

	settings := gobreaker.Settings{
		Name:    "EmotionClassifier",
		Timeout: 30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 3
		},
	}

	return &HTTPClassifier{
		baseURL: cfg.BaseURL,
		model:   cfg.Model,
		topK:    cfg.TopK,
		timeout: cfg.Timeout,
		client:  &http.Client{Timeout: cfg.Timeout},
		breaker: gobreaker.NewCircuitBreaker(settings),
		limiter: rate.NewLimiter(rate.Limit(cfg.MaxRPS), int(cfg.MaxRPS)),
	}
}

// Classify sends text to the classifier service and returns its top-k
// predictions. Returns ErrCircuitOpen immediately while the breaker is open.
func (c *HTTPClassifier) Classify(ctx context.Context, text string) ([]Prediction, error) {
	if !c.limiter.Allow() {
		return nil, errors.New("classifier rate limit exceeded")
	}

	result, err := c.breaker.Execute(func() (interface{}, error) {
		return c.classify(ctx, text)
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return nil, ErrCircuitOpen
		}
		return nil, err
	}

	return result.([]Prediction), nil
}

// classify is the raw HTTP call without breaker wrapping.
func (c *HTTPClassifier) classify(ctx context.Context, text string) ([]Prediction, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	reqBody := classifyRequest{Model: c.model, Text: text, TopK: c.topK}
	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/classify", bytes.NewReader(jsonData))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("classifier returned status %d: %s", resp.StatusCode, string(body))
	}

	var parsed classifyResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	return parsed.Predictions, nil
}

// GetModel returns the configured model name.
func (c *HTTPClassifier) GetModel() string { return c.model }
