package insight

import (
	"context"
	"log"

	"github.com/pkdone/codebase-analyzer-tool-sub006/internal/util/jsonutil"
)

// reduce issues the single consolidating completion call over the combined
// intermediate payload. The prompt instructs semantic merge and
// de-duplication; retrying is the completion collaborator's concern, not
// this layer's. Returns nil when consolidation failed.
func (g *Generator) reduce(ctx context.Context, cs CategorySchema, intermediate map[string]any) map[string]any {
	data, err := marshalIntermediate(intermediate)
	if err != nil {
		log.Printf("WARNING: insight: %s: cannot serialize intermediate result: %v", cs.Category, err)
		return nil
	}
	prompt := g.prompts.BuildPrompt(cs.Category, data, false)
	out, err := g.completeGated(ctx, string(cs.Category)+"-reduce", prompt, cs.Schema)
	if err != nil {
		log.Printf("WARNING: insight: %s: consolidation failed: %v", cs.Category, err)
		return nil
	}
	return out
}

func marshalIntermediate(v map[string]any) (string, error) {
	b, err := jsonutil.MarshalNoEscapeIndent(v, "", "  ")
	if err != nil {
		return "", err
	}
	return string(b), nil
}
