package llm

import (
	"context"
	"encoding/json"
	"strings"

	genai "google.golang.org/genai"

	"github.com/pkdone/codebase-analyzer-tool-sub006/internal/llmschema"
)

// GeminiClient is a thin wrapper around the official genai client.
// It only performs the API call itself; cross-cutting concerns (retries,
// caching, logging, validation) are applied via Middleware.
type GeminiClient struct {
	cli      *genai.Client
	model    string
	tokenCap int
}

// NewGeminiClient constructs a client for the given model. The API key is
// read by the genai SDK from the environment (GEMINI_API_KEY).
func NewGeminiClient(ctx context.Context, model string, tokenCap int) (*GeminiClient, error) {
	cli, err := genai.NewClient(ctx, &genai.ClientConfig{Backend: genai.BackendGeminiAPI})
	if err != nil {
		return nil, err
	}
	if tokenCap <= 0 {
		tokenCap = 1_000_000
	}
	return &GeminiClient{cli: cli, model: model, tokenCap: tokenCap}, nil
}

func (g *GeminiClient) Name() string { return "Gemini:" + g.model }
func (g *GeminiClient) Close() error { return nil }

// CountTokens is a local estimate; the provider's own tokenizer is not
// consulted to keep token budgeting deterministic and offline.
func (g *GeminiClient) CountTokens(text string) int {
	text = strings.TrimSpace(text)
	if text == "" {
		return 0
	}
	return len(text) / 4
}

func (g *GeminiClient) TokenCapacity() int { return g.tokenCap }

// Complete asks for application/json constrained by the response schema and
// returns the model's JSON text as json.RawMessage.
func (g *GeminiClient) Complete(ctx context.Context, taskID, prompt string, schema *llmschema.Schema) (json.RawMessage, error) {
	cfg := &genai.GenerateContentConfig{ResponseMIMEType: "application/json"}
	if schema != nil {
		cfg.ResponseSchema = toGenAISchema(schema)
	}
	resp, err := g.cli.Models.GenerateContent(ctx, g.model,
		[]*genai.Content{{Parts: []*genai.Part{{Text: prompt}}}},
		cfg,
	)
	if err != nil {
		return nil, err
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil || len(resp.Candidates[0].Content.Parts) == 0 {
		return nil, ErrEmptyResponse
	}
	txt := resp.Candidates[0].Content.Parts[0].Text
	if strings.TrimSpace(txt) == "" {
		return nil, ErrEmptyResponse
	}
	return json.RawMessage(txt), nil
}

func toGenAISchema(s *llmschema.Schema) *genai.Schema {
	if s == nil {
		return nil
	}
	out := &genai.Schema{Description: s.Description}
	switch s.Type {
	case llmschema.TypeObject:
		out.Type = genai.TypeObject
		if len(s.Properties) > 0 {
			out.Properties = make(map[string]*genai.Schema, len(s.Properties))
			for name, sub := range s.Properties {
				out.Properties[name] = toGenAISchema(sub)
			}
		}
		out.Required = s.Required
	case llmschema.TypeArray:
		out.Type = genai.TypeArray
		out.Items = toGenAISchema(s.Items)
	case llmschema.TypeString:
		out.Type = genai.TypeString
	case llmschema.TypeNumber:
		out.Type = genai.TypeNumber
	}
	return out
}
