package llm

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"github.com/pkdone/codebase-analyzer-tool-sub006/internal/llmschema"
)

// Middleware decorates a Client to inject cross-cutting concerns
// (retries, caching, logging).
type Middleware func(Client) Client

// Wrap applies middlewares in left-to-right order.
// Example: Wrap(inner, A, B) => A(B(inner))
func Wrap(inner Client, mws ...Middleware) Client {
	out := inner
	for i := len(mws) - 1; i >= 0; i-- {
		out = mws[i](out)
	}
	return out
}

// LogRequests logs one line per completion call with task id, duration and
// outcome.
func LogRequests() Middleware {
	return func(next Client) Client {
		return &logged{next: next}
	}
}

type logged struct {
	next Client
}

func (c *logged) Name() string                { return c.next.Name() }
func (c *logged) Close() error                { return c.next.Close() }
func (c *logged) CountTokens(text string) int { return c.next.CountTokens(text) }
func (c *logged) TokenCapacity() int          { return c.next.TokenCapacity() }

func (c *logged) Complete(ctx context.Context, taskID, prompt string, schema *llmschema.Schema) (json.RawMessage, error) {
	start := time.Now()
	raw, err := c.next.Complete(ctx, taskID, prompt, schema)
	elapsed := time.Since(start).Round(time.Millisecond)
	if err != nil {
		log.Printf("llm: task=%s client=%s elapsed=%s error: %v", taskID, c.next.Name(), elapsed, err)
		return nil, err
	}
	log.Printf("llm: task=%s client=%s elapsed=%s bytes=%d", taskID, c.next.Name(), elapsed, len(raw))
	return raw, nil
}

// ValidateResponses rejects responses that do not satisfy the requested
// schema. Placed under Retry in the chain so an invalid generation is
// retried like any other transient failure.
func ValidateResponses() Middleware {
	return func(next Client) Client {
		return &validated{next: next}
	}
}

type validated struct {
	next Client
}

func (c *validated) Name() string                { return c.next.Name() }
func (c *validated) Close() error                { return c.next.Close() }
func (c *validated) CountTokens(text string) int { return c.next.CountTokens(text) }
func (c *validated) TokenCapacity() int          { return c.next.TokenCapacity() }

func (c *validated) Complete(ctx context.Context, taskID, prompt string, schema *llmschema.Schema) (json.RawMessage, error) {
	raw, err := c.next.Complete(ctx, taskID, prompt, schema)
	if err != nil {
		return nil, err
	}
	if schema != nil {
		if err := schema.ValidateJSON(raw); err != nil {
			return nil, err
		}
	}
	return raw, nil
}
