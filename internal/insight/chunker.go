package insight

import "log"

// DefaultAvgCharsPerToken is the character-per-token heuristic used for
// token estimation when the config leaves it unset.
const DefaultAvgCharsPerToken = 3.6

// ChunkConfig controls token budgeting for one generation.
type ChunkConfig struct {
	// MaxTokens is the model's context window available to one call.
	MaxTokens int
	// BudgetRatio is the fraction of MaxTokens spent on summary content;
	// the remainder is headroom for prompt scaffolding and the response.
	BudgetRatio float64
	// AvgCharsPerToken tunes the token estimate; 0 means the default.
	AvgCharsPerToken float64
}

func (c ChunkConfig) charsPerToken() float64 {
	if c.AvgCharsPerToken <= 0 {
		return DefaultAvgCharsPerToken
	}
	return c.AvgCharsPerToken
}

// budgetTokens is the effective per-chunk token budget.
func (c ChunkConfig) budgetTokens() int {
	ratio := c.BudgetRatio
	if ratio <= 0 || ratio > 1 {
		ratio = 1
	}
	return int(float64(c.MaxTokens) * ratio)
}

// estimateTokens estimates the token count of a string from its length.
func (c ChunkConfig) estimateTokens(text string) int {
	if len(text) == 0 {
		return 0
	}
	return int(float64(len(text)) / c.charsPerToken())
}

// chunkSummaries greedily packs summaries into chunks whose estimated token
// total stays within the effective budget. Input order is preserved and the
// chunks partition the input exactly; an item whose own estimate exceeds the
// budget is truncated to fit and becomes a standalone chunk. A non-empty
// input always yields at least one chunk.
func chunkSummaries(items []string, cfg ChunkConfig) [][]string {
	if len(items) == 0 {
		return nil
	}
	budget := cfg.budgetTokens()

	var chunks [][]string
	var current []string
	running := 0

	flush := func() {
		if len(current) > 0 {
			chunks = append(chunks, current)
			current = nil
			running = 0
		}
	}

	for _, item := range items {
		est := cfg.estimateTokens(item)
		if budget > 0 && est > budget {
			maxChars := int(float64(budget) * cfg.charsPerToken())
			if maxChars < 1 {
				maxChars = 1
			}
			log.Printf("WARNING: insight: summary of ~%d tokens exceeds chunk budget %d; truncated to %d chars", est, budget, maxChars)
			flush()
			chunks = append(chunks, []string{item[:maxChars]})
			continue
		}
		if budget > 0 && running+est > budget {
			flush()
		}
		current = append(current, item)
		running += est
	}
	flush()

	// Forward-progress guarantee: never return zero chunks for a non-empty input.
	if len(chunks) == 0 {
		chunks = [][]string{items}
	}
	return chunks
}
