package oracle

import (
	"context"
	"strings"
	"time"

	sdk "github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/policyscope/policyscan/internal/resilience"
)

// AnthropicConfig configures the Anthropic-backed oracle.
type AnthropicConfig struct {
	APIKey         string
	Model          string
	MaxTokens      int64
	Temperature    float64
	Timeout        time.Duration
	RequestsPerSec float64
	Retry          resilience.RetryConfig
	Breaker        resilience.CircuitBreakerConfig
}

// AnthropicOracle implements Client on the official anthropic-sdk-go, with
// rate limiting, retry, and a circuit breaker around the API.
type AnthropicOracle struct {
	client  sdk.Client
	cfg     AnthropicConfig
	limiter *rate.Limiter
	breaker *resilience.CircuitBreaker
}

// NewAnthropicOracle creates an oracle backed by the Anthropic API.
func NewAnthropicOracle(cfg AnthropicConfig) *AnthropicOracle {
	if cfg.Model == "" {
		cfg.Model = "claude-haiku-4-5-20251001"
	}
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = 256
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 60 * time.Second
	}
	if cfg.RequestsPerSec <= 0 {
		cfg.RequestsPerSec = 2.0
	}
	return &AnthropicOracle{
		client:  sdk.NewClient(option.WithAPIKey(cfg.APIKey)),
		cfg:     cfg,
		limiter: rate.NewLimiter(rate.Limit(cfg.RequestsPerSec), 1),
		breaker: resilience.NewCircuitBreaker(cfg.Breaker),
	}
}

// Ask sends an instruction and a text excerpt, returning the first line of
// the model's reply. Rate limiting blocks only the calling goroutine.
func (o *AnthropicOracle) Ask(ctx context.Context, instruction, text string) (string, error) {
	if err := o.limiter.Wait(ctx); err != nil {
		return "", eris.Wrap(err, "oracle: rate limit wait")
	}

	ctx, cancel := context.WithTimeout(ctx, o.cfg.Timeout)
	defer cancel()

	answer, err := resilience.DoVal(ctx, o.cfg.Retry, func(ctx context.Context) (string, error) {
		return resilience.ExecuteVal(ctx, o.breaker, func(ctx context.Context) (string, error) {
			return o.ask(ctx, instruction, text)
		})
	})
	if err != nil {
		return "", err
	}

	zap.L().Debug("oracle answer",
		zap.String("model", o.cfg.Model),
		zap.Int("answer_len", len(answer)),
	)
	return answer, nil
}

func (o *AnthropicOracle) ask(ctx context.Context, instruction, text string) (string, error) {
	params := sdk.MessageNewParams{
		Model:       sdk.Model(o.cfg.Model),
		MaxTokens:   o.cfg.MaxTokens,
		Temperature: sdk.Float(o.cfg.Temperature),
		System: []sdk.TextBlockParam{
			{Text: instruction},
		},
		Messages: []sdk.MessageParam{
			sdk.NewUserMessage(sdk.NewTextBlock(text)),
		},
	}

	msg, err := o.client.Messages.New(ctx, params)
	if err != nil {
		return "", eris.Wrap(err, "oracle: create message")
	}

	var sb strings.Builder
	for _, block := range msg.Content {
		if block.Type == "text" {
			sb.WriteString(block.Text)
		}
	}

	// Single-value contract: the answer is the first non-empty line.
	for _, line := range strings.Split(sb.String(), "\n") {
		if line = strings.TrimSpace(line); line != "" {
			return line, nil
		}
	}
	return NoAnswer, nil
}
