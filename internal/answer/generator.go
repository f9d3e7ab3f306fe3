// Package answer produces the single structured reply for a user topic,
// using a language model when one is configured and deterministic templates
// otherwise.
package answer

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"

	"smartpro-bot/internal/lang"
	"smartpro-bot/internal/sanitize"
	"smartpro-bot/internal/types"
)

const DefaultTimeout = 20 * time.Second

// Request is one answer to produce. A blank Topic uses the language's
// placeholder topic.
type Request struct {
	Topic string
	Depth types.Depth
	Lang  string
}

// Provider turns a request into raw answer text.
type Provider interface {
	Answer(ctx context.Context, req Request) (string, error)
}

// Generator runs the primary provider under a timeout and falls back to the
// template provider on any failure.
type Generator struct {
	catalog  *Catalog
	primary  Provider
	fallback Provider
	timeout  time.Duration
	logger   *zap.Logger
}

type Option func(*Generator)

func WithTimeout(d time.Duration) Option {
	return func(g *Generator) {
		if d > 0 {
			g.timeout = d
		}
	}
}

func WithLogger(l *zap.Logger) Option {
	return func(g *Generator) {
		if l != nil {
			g.logger = l
		}
	}
}

// WithFallback replaces the template provider.
func WithFallback(p Provider) Option {
	return func(g *Generator) { g.fallback = p }
}

// NewGenerator builds a generator. primary may be nil for fallback-only mode.
func NewGenerator(catalog *Catalog, primary Provider, opts ...Option) *Generator {
	g := &Generator{
		catalog:  catalog,
		primary:  primary,
		fallback: NewTemplateProvider(catalog),
		timeout:  DefaultTimeout,
		logger:   zap.NewNop(),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Generate always returns a complete, sanitized answer.
func (g *Generator) Generate(ctx context.Context, req Request) string {
	req = normalize(req)
	log := g.logger.With(zap.String("lang", req.Lang), zap.String("depth", string(req.Depth)))

	if g.primary != nil {
		text, err := g.callPrimary(ctx, req)
		switch {
		case errors.Is(err, ErrNoCompleter):
			log.Debug("no language model configured, using template answer")
		case err != nil:
			log.Warn("answer provider failed, using template answer", zap.Error(err))
		default:
			if out := finish(text, req.Topic, g.catalog.Labels()); out != "" {
				return out
			}
			log.Warn("answer provider returned empty output, using template answer")
		}
	}

	text, err := g.fallback.Answer(ctx, req)
	if err != nil {
		log.Error("template answer failed", zap.Error(err))
	}
	// Template answers open with a section label, never with the topic.
	if out := sanitize.Text(text); out != "" {
		return out
	}
	return sanitize.Text(g.catalog.Language(req.Lang).Unavailable)
}

type result struct {
	text string
	err  error
}

// callPrimary bounds the provider by the timeout even if it ignores ctx.
func (g *Generator) callPrimary(ctx context.Context, req Request) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	ch := make(chan result, 1)
	go func() {
		text, err := g.primary.Answer(ctx, req)
		ch <- result{text, err}
	}()
	select {
	case r := <-ch:
		return r.text, r.err
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

func normalize(req Request) Request {
	req.Topic = strings.TrimSpace(req.Topic)
	req.Depth = types.ParseDepth(string(req.Depth))
	if !lang.Supported(req.Lang) {
		req.Lang = lang.Default
	}
	return req
}

func finish(text, topic string, labels []string) string {
	return sanitize.Text(StripEcho(sanitize.Text(text), topic, labels...))
}
