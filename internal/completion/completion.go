// Package completion sends one instruction and one text fragment to a
// chat completion service and returns the model's answer.
package completion

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"
	"unicode/utf8"

	"github.com/dgallion1/regdigest/internal/chunker"
	"github.com/dgallion1/regdigest/internal/config"
	"github.com/dgallion1/regdigest/internal/metrics"
	"github.com/dgallion1/regdigest/internal/volume"
)

// Client is a chat completion backend. The system message carries the
// instruction and the user message carries the content.
type Client interface {
	Complete(ctx context.Context, system, content string) (string, error)
	Provider() string
	Model() string
}

// ServiceError reports a failed completion request: transport failure,
// rejected credentials, rate limiting, or an unusable response.
type ServiceError struct {
	Provider   string
	StatusCode int // 0 when no HTTP response was received
	Message    string
	Err        error
}

func (e *ServiceError) Error() string {
	msg := e.Message
	if msg == "" && e.Err != nil {
		msg = e.Err.Error()
	}
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s completion failed (status %d): %s", e.Provider, e.StatusCode, truncate(msg, 200))
	}
	return fmt.Sprintf("%s completion failed: %s", e.Provider, truncate(msg, 200))
}

func (e *ServiceError) Unwrap() error { return e.Err }

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}

// New builds the client selected by cfg.CompletionProvider.
func New(ctx context.Context, cfg *config.Config) (Client, error) {
	switch cfg.CompletionProvider {
	case config.ProviderOpenAI:
		return NewOpenAIClient(cfg.OpenAIAPIKey, cfg.CompletionModel, cfg.OpenAIBaseURL, cfg.CompletionTimeout), nil
	case config.ProviderAnthropic:
		return NewAnthropicClient(cfg.AnthropicAPIKey, cfg.CompletionModel, cfg.CompletionTimeout), nil
	case config.ProviderGemini:
		return NewGeminiClient(ctx, cfg.GeminiAPIKey, cfg.CompletionModel, cfg.GeminiBaseURL, cfg.CompletionTimeout)
	default:
		return nil, fmt.Errorf("unknown completion provider %q", cfg.CompletionProvider)
	}
}

// Dispatcher issues one completion request per (fragment, instruction) pair
// and records call latency.
type Dispatcher struct {
	client Client
	stats  *LLMStats
	log    *slog.Logger
}

func NewDispatcher(client Client, stats *LLMStats, log *slog.Logger) *Dispatcher {
	if stats == nil {
		stats = NewLLMStats(time.Hour)
	}
	if log == nil {
		log = slog.Default()
	}
	return &Dispatcher{client: client, stats: stats, log: log}
}

// Analyze asks the service to apply prompt's instruction to fragment. Any
// failure is returned as a *ServiceError; there are no retries.
func (d *Dispatcher) Analyze(ctx context.Context, fragment string, prompt volume.Prompt) (string, error) {
	start := time.Now()
	answer, err := d.client.Complete(ctx, prompt.Instruction, fragment)
	elapsed := time.Since(start)
	d.stats.Record(Call{
		Topic:      prompt.Topic,
		DurationMs: elapsed.Milliseconds(),
		Tokens:     chunker.EstimateTokens(fragment),
		Failed:     err != nil,
	})
	metrics.CaptureCompletion(d.client.Provider(), elapsed, err)

	if err != nil {
		d.log.Error("completion failed", "provider", d.client.Provider(), "model", d.client.Model(), "prompt", prompt.ID, "duration_ms", elapsed.Milliseconds(), "error", err)
		var svcErr *ServiceError
		if errors.As(err, &svcErr) {
			return "", err
		}
		return "", &ServiceError{Provider: d.client.Provider(), Message: err.Error(), Err: err}
	}

	d.log.Debug("completion done", "provider", d.client.Provider(), "prompt", prompt.ID, "topic", prompt.Topic, "fragment_chars", utf8.RuneCountInString(fragment), "answer_chars", utf8.RuneCountInString(answer), "duration_ms", elapsed.Milliseconds())
	return answer, nil
}

// Stats returns the rolling latency window.
func (d *Dispatcher) Stats() *LLMStats {
	return d.stats
}

// Model returns the model name requests are sent to.
func (d *Dispatcher) Model() string {
	return d.client.Model()
}

// Provider returns the backend name.
func (d *Dispatcher) Provider() string {
	return d.client.Provider()
}
