package ai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/url"
	"strings"
)

// ErrUnavailable marks a provider that cannot be reached at all (connection
// refused, timeout, missing configuration), as opposed to a provider that
// answered with an error.
var ErrUnavailable = errors.New("ai provider unavailable")

type GenerateOptions struct {
	Temperature     float32
	MaxOutputTokens int
}

type IGenProvider interface {
	Name() string
	Available(ctx context.Context) bool
	ListModels(ctx context.Context) ([]string, error)
	Complete(ctx context.Context, model string, systemPrompt string, userPrompt string, opts GenerateOptions) (string, error)
}

type IEmbedProvider interface {
	Name() string
	Embed(ctx context.Context, model string, text string) ([]float32, error)
}

type IGenerator interface {
	Available(ctx context.Context) bool
	ListModels(ctx context.Context) ([]string, error)
	Complete(ctx context.Context, systemPrompt string, userPrompt string, opts GenerateOptions) (string, error)
	ModelName() string
}

type IEmbedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	ModelName() string
}

type generator struct {
	provider IGenProvider
	model    string
}

func NewGenerator(p IGenProvider, model string) IGenerator {
	return &generator{provider: p, model: model}
}

func (g *generator) Available(ctx context.Context) bool {
	return g.provider.Available(ctx)
}

func (g *generator) ListModels(ctx context.Context) ([]string, error) {
	return g.provider.ListModels(ctx)
}

func (g *generator) Complete(ctx context.Context, systemPrompt string, userPrompt string, opts GenerateOptions) (string, error) {
	return g.provider.Complete(ctx, g.model, systemPrompt, userPrompt, opts)
}

func (g *generator) ModelName() string {
	return g.model
}

type embedder struct {
	provider IEmbedProvider
	model    string
}

func NewEmbedder(p IEmbedProvider, model string) IEmbedder {
	return &embedder{provider: p, model: model}
}

func (e *embedder) Embed(ctx context.Context, text string) ([]float32, error) {
	return e.provider.Embed(ctx, e.model, text)
}

func (e *embedder) ModelName() string {
	return e.model
}

type GenFactory func(args interface{}) (IGenProvider, error)
type EmbedFactory func(args interface{}) (IEmbedProvider, error)

var (
	genRegistry   = map[string]GenFactory{}
	embedRegistry = map[string]EmbedFactory{}
)

func Register(name string, factory GenFactory) {
	key := strings.ToLower(strings.TrimSpace(name))
	if key == "" || factory == nil {
		return
	}
	genRegistry[key] = factory
}

func RegisterEmbed(name string, factory EmbedFactory) {
	key := strings.ToLower(strings.TrimSpace(name))
	if key == "" || factory == nil {
		return
	}
	embedRegistry[key] = factory
}

func NewProvider(name string, args interface{}) (IGenProvider, error) {
	key := strings.ToLower(strings.TrimSpace(name))
	if key == "" {
		return nil, fmt.Errorf("ai.generator.provider is required")
	}
	factory := genRegistry[key]
	if factory == nil {
		return nil, fmt.Errorf("unsupported ai provider: %s", name)
	}
	return factory(args)
}

func NewEmbedProvider(name string, args interface{}) (IEmbedProvider, error) {
	key := strings.ToLower(strings.TrimSpace(name))
	if key == "" {
		return nil, fmt.Errorf("ai.embedder.provider is required")
	}
	factory := embedRegistry[key]
	if factory == nil {
		return nil, fmt.Errorf("unsupported ai embed provider: %s", name)
	}
	return factory(args)
}

func decodeConfig(args interface{}, dst interface{}) error {
	if args == nil {
		return nil
	}
	data, err := json.Marshal(args)
	if err != nil {
		return fmt.Errorf("encode ai provider config: %w", err)
	}
	if err := json.Unmarshal(data, dst); err != nil {
		return fmt.Errorf("decode ai provider config: %w", err)
	}
	return nil
}

// wrapTransportErr folds connection-level failures into ErrUnavailable so
// callers can tell "nobody is listening" apart from a provider-side error.
func wrapTransportErr(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return err
}
