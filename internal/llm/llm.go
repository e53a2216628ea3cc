// Package llm is the completion collaborator: a schema-validated structured
// completion client, the shared concurrency limiter, and the middleware chain
// (retry, response cache, request logging) that wraps concrete backends.
package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/pkdone/codebase-analyzer-tool-sub006/internal/llmschema"
)

// Client issues one structured completion call. A non-error result has
// already been validated against the supplied schema; callers may decode it
// without re-checking shape.
type Client interface {
	Name() string
	Complete(ctx context.Context, taskID, prompt string, schema *llmschema.Schema) (json.RawMessage, error)
	CountTokens(text string) int
	TokenCapacity() int
	Close() error
}

// ErrEmptyResponse is returned when the provider yields no candidate text.
var ErrEmptyResponse = errors.New("llm: empty response from model")

// PermanentError marks a failure that retrying cannot fix (bad request,
// auth, unsupported schema). The retry middleware stops on it.
type PermanentError struct {
	Err error
}

func (e *PermanentError) Error() string { return fmt.Sprintf("llm: permanent: %v", e.Err) }
func (e *PermanentError) Unwrap() error { return e.Err }

// Permanent wraps err as a PermanentError. Returns nil for nil err.
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return &PermanentError{Err: err}
}
