// Package llm talks to an OpenAI-compatible chat completion endpoint.
package llm

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/sashabaranov/go-openai"
	"golang.org/x/time/rate"
)

// Config holds the client settings.
type Config struct {
	BaseURL     string  `koanf:"base_url" validate:"omitempty,url"`
	APIKey      string  `koanf:"api_key"`
	Model       string  `koanf:"model" validate:"required"`
	Temperature float32 `koanf:"temperature" validate:"min=0,max=2"`
	MaxAttempts int     `koanf:"max_attempts" validate:"min=1,max=10"`
	// RetryBackoff is the wait before the first retry; it doubles each time.
	RetryBackoff time.Duration `koanf:"retry_backoff" validate:"min=0"`
	// Timeout bounds a single attempt.
	Timeout time.Duration `koanf:"timeout" validate:"min=0"`
	// RequestsPerSecond limits outgoing calls; 0 disables the limit.
	RequestsPerSecond float64 `koanf:"requests_per_second" validate:"min=0"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() Config {
	return Config{
		BaseURL:      "https://api.openai.com/v1",
		Model:        "gpt-4o-mini",
		Temperature:  0.3,
		MaxAttempts:  3,
		RetryBackoff: time.Second,
		Timeout:      30 * time.Second,
	}
}

// ErrEmptyResponse is returned when the model sends no choices.
var ErrEmptyResponse = errors.New("empty chat response")

// Client generates text from an instruction and a payload.
type Client struct {
	client  *openai.Client
	cfg     Config
	limiter *rate.Limiter
	logger  *slog.Logger
}

// New creates a Client. Zero values in cfg fall back to DefaultConfig.
func New(cfg Config, logger *slog.Logger) *Client {
	def := DefaultConfig()
	if cfg.Model == "" {
		cfg.Model = def.Model
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = def.MaxAttempts
	}
	if cfg.RetryBackoff <= 0 {
		cfg.RetryBackoff = def.RetryBackoff
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = def.Timeout
	}
	if logger == nil {
		logger = slog.Default()
	}

	clientConfig := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientConfig.BaseURL = cfg.BaseURL
	}

	limiter := rate.NewLimiter(rate.Inf, 1)
	if cfg.RequestsPerSecond > 0 {
		limiter = rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), 1)
	}

	return &Client{
		client:  openai.NewClientWithConfig(clientConfig),
		cfg:     cfg,
		limiter: limiter,
		logger:  logger,
	}
}

// Generate sends instruction as the system message and payload as the user
// message and returns the text of the first choice.
func (c *Client) Generate(ctx context.Context, instruction, payload string) (string, error) {
	req := openai.ChatCompletionRequest{
		Model: c.cfg.Model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: instruction},
			{Role: openai.ChatMessageRoleUser, Content: payload},
		},
	}
	// Reasoning models reject a temperature.
	if !isReasoningModel(c.cfg.Model) {
		req.Temperature = c.cfg.Temperature
	}

	var content string
	err := c.doWithRetry(ctx, func(ctx context.Context) error {
		if err := c.limiter.Wait(ctx); err != nil {
			return err
		}
		ctx, cancel := context.WithTimeout(ctx, c.cfg.Timeout)
		defer cancel()

		start := time.Now()
		resp, err := c.client.CreateChatCompletion(ctx, req)
		if err != nil {
			return err
		}
		if len(resp.Choices) == 0 {
			return ErrEmptyResponse
		}
		content = resp.Choices[0].Message.Content
		c.logger.Debug("chat completion finished",
			"model", c.cfg.Model,
			"latency_ms", time.Since(start).Milliseconds(),
			"tokens", resp.Usage.TotalTokens)
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("failed to complete chat: %w", err)
	}
	return content, nil
}

func (c *Client) doWithRetry(ctx context.Context, fn func(context.Context) error) error {
	var lastErr error
	wait := c.cfg.RetryBackoff
	for attempt := 0; attempt < c.cfg.MaxAttempts; attempt++ {
		err := fn(ctx)
		if err == nil {
			return nil
		}
		lastErr = err
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if attempt == c.cfg.MaxAttempts-1 {
			break
		}
		c.logger.Debug("chat request failed, retrying",
			"attempt", attempt+1,
			"wait_time", wait,
			"error", err)
		select {
		case <-time.After(wait):
		case <-ctx.Done():
			return ctx.Err()
		}
		wait *= 2
	}
	return lastErr
}

func isReasoningModel(model string) bool {
	for _, p := range []string{"gpt-5", "o1", "o3"} {
		if strings.HasPrefix(model, p) {
			return true
		}
	}
	return false
}
