package llm

import (
	"context"
	"encoding/json"
	"sync/atomic"

	"github.com/pkdone/codebase-analyzer-tool-sub006/internal/llmschema"
)

// FakeClient synthesizes a minimal schema-valid response for every call.
// Used for offline runs and as a base stub in tests.
type FakeClient struct {
	tokenCap int
	calls    atomic.Int64
}

func NewFakeClient(tokenCap int) *FakeClient {
	if tokenCap <= 0 {
		tokenCap = 4096
	}
	return &FakeClient{tokenCap: tokenCap}
}

func (f *FakeClient) Name() string { return "FakeLLM" }
func (f *FakeClient) Close() error { return nil }

func (f *FakeClient) CountTokens(text string) int {
	if len(text) == 0 {
		return 0
	}
	return len(text) / 4
}

func (f *FakeClient) TokenCapacity() int { return f.tokenCap }

// Calls reports how many completions have been issued.
func (f *FakeClient) Calls() int { return int(f.calls.Load()) }

func (f *FakeClient) Complete(ctx context.Context, taskID, prompt string, schema *llmschema.Schema) (json.RawMessage, error) {
	f.calls.Add(1)
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	raw, err := json.Marshal(synthesize(schema))
	if err != nil {
		return nil, err
	}
	return raw, nil
}

// synthesize builds the smallest value satisfying the schema: required
// object fields are filled, arrays get one placeholder element, strings get
// a fixed marker so downstream output is visibly fake.
func synthesize(s *llmschema.Schema) any {
	if s == nil {
		return map[string]any{}
	}
	switch s.Type {
	case llmschema.TypeObject:
		obj := make(map[string]any, len(s.Required))
		for _, name := range s.Required {
			obj[name] = synthesize(s.Properties[name])
		}
		return obj
	case llmschema.TypeArray:
		return []any{synthesize(s.Items)}
	case llmschema.TypeNumber:
		return 0.0
	default:
		return "fake"
	}
}
