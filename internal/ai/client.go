package ai

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"

	"udo-backend/internal/config"
	"udo-backend/internal/telemetry"
)

const scope = "udo-backend/ai"

// Provider sends one chat completion upstream. Implementations return *Error
// for upstream status failures; anything else is reported as ErrUpstream.
type Provider interface {
	Complete(ctx context.Context, msgs []Message) (string, error)
}

// Client is the AI gateway: one typed request in, one text reply out. It
// sends exactly one upstream request per call and never retries.
type Client struct {
	provider Provider
	name     string
	logger   *zap.Logger
}

// NewClient builds the provider selected by cfg. A missing credential does
// not fail here; every call then reports ErrAuth without touching the network.
func NewClient(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*Client, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	if cfg.RequiresKey() && cfg.AIKey == "" {
		logger.Warn("AI credential not configured, AI features disabled", zap.String("provider", cfg.AIProvider))
		return NewWithProvider(cfg.AIProvider, nil, logger), nil
	}

	var (
		p   Provider
		err error
	)
	switch cfg.AIProvider {
	case config.ProviderOpenAI:
		p = NewOpenAIProvider(cfg.AIKey, cfg.AIModel, cfg.AIBaseURL, cfg.AITimeout)
	case config.ProviderGemini:
		p, err = NewGeminiProvider(ctx, cfg.AIKey, cfg.AIModel, cfg.AIBaseURL, cfg.AITimeout)
	case config.ProviderAnthropic:
		p = NewAnthropicProvider(cfg.AIKey, cfg.AIModel, cfg.AIBaseURL, cfg.AITimeout)
	case config.ProviderOllama:
		p, err = NewOllamaProvider(cfg.AIBaseURL, cfg.AIModel, cfg.AITimeout)
	default:
		return nil, fmt.Errorf("unknown AI provider %q", cfg.AIProvider)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create %s provider: %w", cfg.AIProvider, err)
	}

	return NewWithProvider(cfg.AIProvider, p, logger), nil
}

// NewWithProvider wraps an existing provider. A nil provider means no
// credential is configured.
func NewWithProvider(name string, p Provider, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	aiMetricsOnce.Do(initAIMetrics)
	return &Client{provider: p, name: name, logger: logger}
}

// Complete sends req and returns the model's text verbatim.
func (c *Client) Complete(ctx context.Context, req Request) (string, error) {
	kind := string(req.Kind())

	ctx, span := telemetry.Tracer(scope).Start(ctx, "ai.complete")
	defer span.End()
	span.SetAttributes(
		attribute.String("udo.ai.kind", kind),
		attribute.String("udo.ai.provider", c.name),
	)

	t0 := time.Now()
	text, err := c.complete(ctx, req)
	elapsed := time.Since(t0)

	attrs := metric.WithAttributes(
		attribute.String("kind", kind),
		attribute.String("outcome", outcome(err)),
	)
	if aiMetrics.requests != nil {
		aiMetrics.requests.Add(ctx, 1, attrs)
		aiMetrics.duration.Record(ctx, float64(elapsed.Milliseconds()), attrs)
	}

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		c.logger.Debug("ai request failed",
			zap.String("kind", kind),
			zap.Duration("elapsed", elapsed),
			zap.Error(err),
		)
		return "", err
	}

	c.logger.Debug("ai request completed",
		zap.String("kind", kind),
		zap.Duration("elapsed", elapsed),
		zap.Int("chars", len(text)),
	)
	return text, nil
}

func (c *Client) complete(ctx context.Context, req Request) (string, error) {
	if c.provider == nil {
		return "", &Error{Kind: ErrAuth, Message: config.ErrMissingCredential.Error()}
	}

	text, err := c.provider.Complete(ctx, req.messages())
	if err != nil {
		var aerr *Error
		if errors.As(err, &aerr) {
			return "", aerr
		}
		return "", upstream("AI gateway request failed: %v", err)
	}
	return text, nil
}

var aiMetrics struct {
	requests metric.Int64Counter
	duration metric.Float64Histogram
}

var aiMetricsOnce sync.Once

func initAIMetrics() {
	m := telemetry.Meter(scope)
	aiMetrics.requests, _ = m.Int64Counter("udo.ai.requests",
		metric.WithDescription("AI gateway requests by kind and outcome"),
		metric.WithUnit("{request}"),
	)
	aiMetrics.duration, _ = m.Float64Histogram("udo.ai.request.duration",
		metric.WithDescription("AI gateway request duration in milliseconds"),
		metric.WithUnit("ms"),
	)
}
