package insight

import (
	"context"
	"log"
	"strings"

	"github.com/pkdone/codebase-analyzer-tool-sub006/internal/llm"
	"github.com/pkdone/codebase-analyzer-tool-sub006/internal/llmschema"
	"github.com/pkdone/codebase-analyzer-tool-sub006/internal/util/jsonutil"
)

// DefaultBudgetRatio reserves the remainder of the context window for
// prompt scaffolding and the response.
const DefaultBudgetRatio = 0.75

const summarySeparator = "\n\n---\n\n"

// Generator produces one category's consolidated insight from the summary
// corpus. It picks between the single-pass and map-reduce strategies by
// estimated input size; both run behind GenerateInsights.
//
// Every completion call goes through the injected limiter, which the caller
// shares across all generators running in the process.
type Generator struct {
	client   llm.Client
	limiter  *llm.Limiter
	registry *Registry
	prompts  PromptBuilder
	chunking ChunkConfig
}

// NewGenerator wires a generator. Zero values in chunking fall back to the
// client's token capacity and the default budget ratio.
func NewGenerator(client llm.Client, limiter *llm.Limiter, registry *Registry, prompts PromptBuilder, chunking ChunkConfig) *Generator {
	if chunking.MaxTokens <= 0 {
		chunking.MaxTokens = client.TokenCapacity()
	}
	if chunking.BudgetRatio <= 0 {
		chunking.BudgetRatio = DefaultBudgetRatio
	}
	if prompts == nil {
		prompts = NewPromptBuilder()
	}
	return &Generator{
		client:   client,
		limiter:  limiter,
		registry: registry,
		prompts:  prompts,
		chunking: chunking,
	}
}

// GenerateInsights returns the category's consolidated insight, or nil when
// generation degraded (all chunks failed, or the consolidating call failed).
// A non-nil error only reports faults that must not be worked around: an
// unknown category or an unsupported schema shape.
func (g *Generator) GenerateInsights(ctx context.Context, c Category, summaries []string) (map[string]any, error) {
	cs, err := g.registry.SchemaFor(c)
	if err != nil {
		return nil, err
	}
	if len(summaries) == 0 {
		log.Printf("WARNING: insight: %s: no summaries to analyze", c)
		return nil, nil
	}

	content := strings.Join(summaries, summarySeparator)
	if g.chunking.estimateTokens(content) <= g.chunking.budgetTokens() {
		out, err := g.completeGated(ctx, string(c), g.prompts.BuildPrompt(c, content, false), cs.Schema)
		if err != nil {
			log.Printf("WARNING: insight: %s: single-pass generation failed: %v", c, err)
			return nil, nil
		}
		return out, nil
	}

	chunks := chunkSummaries(summaries, g.chunking)
	partials := g.mapChunks(ctx, cs, chunks)
	if len(partials) == 0 {
		log.Printf("WARNING: insight: %s: all %d chunks failed; skipping consolidation", c, len(chunks))
		return nil, nil
	}
	intermediate, err := combinePartials(cs, partials)
	if err != nil {
		return nil, err
	}
	return g.reduce(ctx, cs, intermediate), nil
}

// completeGated issues one completion call under the shared limiter and
// decodes the validated response. The limiter slot is released on every
// path, including cancellation during the call.
func (g *Generator) completeGated(ctx context.Context, taskID, prompt string, schema *llmschema.Schema) (map[string]any, error) {
	if err := g.limiter.Acquire(ctx); err != nil {
		return nil, err
	}
	defer g.limiter.Release()

	raw, err := g.client.Complete(ctx, taskID, prompt, schema)
	if err != nil {
		return nil, err
	}
	var out map[string]any
	if err := jsonutil.UnmarshalRaw(raw, &out); err != nil {
		return nil, err
	}
	return out, nil
}
