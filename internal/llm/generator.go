// Package llm provides the answer-generation client used by the RAG layer.
// Generation goes through Ollama's /api/generate endpoint.
package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"
)

const (
	// DefaultHost is the default Ollama API endpoint.
	DefaultHost = "http://localhost:11434"

	// DefaultModel is the default generation model.
	DefaultModel = "mistral"

	// DefaultTemperature for generation requests.
	DefaultTemperature = 0.7

	// DefaultTimeout per generation request. Generation is slow, answers can
	// take a minute on CPU-only hosts.
	DefaultTimeout = 180 * time.Second

	// DefaultMaxRetries for transient failures.
	DefaultMaxRetries = 3
)

// GenerateRequest describes one generation call.
type GenerateRequest struct {
	// Prompt is the full prompt including context.
	Prompt string

	// System is an optional system prompt.
	System string

	// Temperature controls sampling randomness. Zero means the default.
	Temperature float64
}

// Generator produces text completions.
type Generator interface {
	// Generate returns the completion for the request.
	Generate(ctx context.Context, req GenerateRequest) (string, error)

	// ModelName returns the model identifier.
	ModelName() string

	// Close releases resources.
	Close() error
}

// Config configures the Ollama generator.
type Config struct {
	Host        string
	Model       string
	Temperature float64
	Timeout     time.Duration
	MaxRetries  int
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{
		Host:        DefaultHost,
		Model:       DefaultModel,
		Temperature: DefaultTemperature,
		Timeout:     DefaultTimeout,
		MaxRetries:  DefaultMaxRetries,
	}
}

// ollamaGenerateRequest is the Ollama /api/generate request.
type ollamaGenerateRequest struct {
	Model       string  `json:"model"`
	Prompt      string  `json:"prompt"`
	System      string  `json:"system,omitempty"`
	Stream      bool    `json:"stream"`
	Temperature float64 `json:"temperature,omitempty"`
}

// ollamaGenerateResponse is the Ollama /api/generate response.
type ollamaGenerateResponse struct {
	Model    string `json:"model"`
	Response string `json:"response"`
	Done     bool   `json:"done"`
}

// OllamaGenerator calls Ollama's /api/generate endpoint.
type OllamaGenerator struct {
	client *http.Client
	config Config
}

var _ Generator = (*OllamaGenerator)(nil)

// NewOllamaGenerator creates a generator with the given config.
func NewOllamaGenerator(cfg Config) *OllamaGenerator {
	if cfg.Host == "" {
		cfg.Host = DefaultHost
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.Temperature == 0 {
		cfg.Temperature = DefaultTemperature
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = DefaultMaxRetries
	}

	return &OllamaGenerator{
		client: &http.Client{
			Transport: &http.Transport{
				MaxIdleConns:    2,
				IdleConnTimeout: 10 * time.Second,
			},
		},
		config: cfg,
	}
}

// Generate returns the completion, retrying transient failures with backoff.
func (g *OllamaGenerator) Generate(ctx context.Context, req GenerateRequest) (string, error) {
	var lastErr error

	for attempt := 0; attempt < g.config.MaxRetries; attempt++ {
		if attempt > 0 {
			backoff := time.Duration(500<<attempt) * time.Millisecond
			select {
			case <-ctx.Done():
				return "", ctx.Err()
			case <-time.After(backoff):
			}
		}

		timeoutCtx, cancel := context.WithTimeout(ctx, g.config.Timeout)
		text, err := g.doGenerate(timeoutCtx, req)
		cancel()

		if err == nil {
			return text, nil
		}
		lastErr = err

		slog.Debug("generation attempt failed",
			slog.Int("attempt", attempt+1),
			slog.String("error", err.Error()))

		if ctx.Err() != nil {
			return "", ctx.Err()
		}
	}

	return "", fmt.Errorf("generation failed after %d attempts: %w", g.config.MaxRetries, lastErr)
}

func (g *OllamaGenerator) doGenerate(ctx context.Context, req GenerateRequest) (string, error) {
	temperature := req.Temperature
	if temperature == 0 {
		temperature = g.config.Temperature
	}

	body, err := json.Marshal(ollamaGenerateRequest{
		Model:       g.config.Model,
		Prompt:      req.Prompt,
		System:      req.System,
		Stream:      false,
		Temperature: temperature,
	})
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, g.config.Host+"/api/generate", bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := g.client.Do(httpReq)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("generation failed with status %d: %s", resp.StatusCode, string(respBody))
	}

	var result ollamaGenerateResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", fmt.Errorf("decode response: %w", err)
	}

	return result.Response, nil
}

// ModelName returns the model identifier.
func (g *OllamaGenerator) ModelName() string {
	return g.config.Model
}

// Close releases HTTP resources.
func (g *OllamaGenerator) Close() error {
	g.client.CloseIdleConnections()
	return nil
}
