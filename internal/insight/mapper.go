package insight

import (
	"context"
	"fmt"
	"log"
	"strings"
	"sync"
)

// mapChunks issues one completion call per chunk. All calls run concurrently
// but each waits on the shared limiter, so total in-flight calls across the
// process stay within its capacity. A failed chunk degrades to an absent
// partial and never cancels its siblings.
//
// The returned partials are filtered to the successful ones, ordered by chunk
// submission order regardless of completion order, so identical partial
// content always combines identically.
func (g *Generator) mapChunks(ctx context.Context, cs CategorySchema, chunks [][]string) []map[string]any {
	results := make([]map[string]any, len(chunks))
	var wg sync.WaitGroup
	for i, chunk := range chunks {
		wg.Add(1)
		go func(i int, chunk []string) {
			defer wg.Done()
			taskID := fmt.Sprintf("%s-map-%d", cs.Category, i+1)
			content := strings.Join(chunk, summarySeparator)
			out, err := g.completeGated(ctx, taskID, g.prompts.BuildPrompt(cs.Category, content, true), cs.Schema)
			if err != nil {
				log.Printf("WARNING: insight: %s: chunk %d/%d failed: %v", cs.Category, i+1, len(chunks), err)
				return
			}
			results[i] = out
		}(i, chunk)
	}
	wg.Wait()

	partials := make([]map[string]any, 0, len(results))
	for _, r := range results {
		if r != nil {
			partials = append(partials, r)
		}
	}
	return partials
}
