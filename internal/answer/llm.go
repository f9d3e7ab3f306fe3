package answer

import (
	"context"
	"errors"
	"fmt"
	"strings"

	openai "github.com/sashabaranov/go-openai"

	"smartpro-bot/internal/types"
)

// ErrNoCompleter is returned by LLMProvider when no model is configured.
var ErrNoCompleter = errors.New("answer: no completer configured")

// Prompt is one chat completion call.
type Prompt struct {
	System      string
	User        string
	MaxTokens   int
	Temperature float32
}

// Completer is the language model capability.
type Completer interface {
	Complete(ctx context.Context, p Prompt) (string, error)
}

// LLMProvider renders the catalogue prompts and asks a Completer.
type LLMProvider struct {
	catalog   *Catalog
	completer Completer
	deep      WordRange
}

// NewLLMProvider builds a provider. A zero deep range keeps the catalogue's.
func NewLLMProvider(catalog *Catalog, completer Completer, deep WordRange) *LLMProvider {
	return &LLMProvider{catalog: catalog, completer: completer, deep: deep}
}

func (p *LLMProvider) Answer(ctx context.Context, req Request) (string, error) {
	if p.completer == nil {
		return "", ErrNoCompleter
	}
	prompt, err := p.Prompt(req)
	if err != nil {
		return "", err
	}
	return p.completer.Complete(ctx, prompt)
}

// Prompt renders the system and user messages for req.
func (p *LLMProvider) Prompt(req Request) (Prompt, error) {
	req = normalize(req)
	l := p.catalog.Language(req.Lang)
	spec := p.catalog.Depth(req.Depth)
	words := p.words(req, spec)

	topic := req.Topic
	if topic == "" {
		topic = l.Placeholder
	}

	system, err := execute(l.system, map[string]any{
		"Language": l.Name,
		"MinWords": words.Min,
		"MaxWords": words.Max,
		"Sections": l.Sections,
	})
	if err != nil {
		return Prompt{}, fmt.Errorf("render system prompt: %w", err)
	}
	user, err := execute(l.user, map[string]any{"Topic": topic})
	if err != nil {
		return Prompt{}, fmt.Errorf("render user prompt: %w", err)
	}
	return Prompt{
		System:      strings.TrimSpace(system),
		User:        user,
		MaxTokens:   spec.MaxTokens,
		Temperature: p.catalog.Temperature,
	}, nil
}

func (p *LLMProvider) words(req Request, spec DepthSpec) WordRange {
	w := WordRange{Min: spec.MinWords, Max: spec.MaxWords}
	if req.Depth == types.DepthDeep && p.deep.Min > 0 && p.deep.Max >= p.deep.Min {
		w = p.deep
	}
	return w
}

// OpenAICompleter calls the chat completions endpoint.
type OpenAICompleter struct {
	client *openai.Client
	model  string
}

func NewOpenAICompleter(client *openai.Client, model string) *OpenAICompleter {
	if model == "" {
		model = "gpt-4o-mini"
	}
	return &OpenAICompleter{client: client, model: model}
}

func (c *OpenAICompleter) Complete(ctx context.Context, p Prompt) (string, error) {
	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       c.model,
		Temperature: p.Temperature,
		MaxTokens:   p.MaxTokens,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: p.System},
			{Role: openai.ChatMessageRoleUser, Content: p.User},
		},
	})
	if err != nil {
		return "", fmt.Errorf("chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("chat completion: no choices")
	}
	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}
