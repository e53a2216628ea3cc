// Package store holds the persistence collaborators around the insight
// engine: the local JSON artifact directory, an optional Postgres store, and
// an optional S3-compatible archive. The engine itself never persists;
// whoever invokes it owns these.
package store

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/pkdone/codebase-analyzer-tool-sub006/internal/util/jsonutil"
)

// SourceSummary is one per-file summary produced by the upstream
// summarization stage.
type SourceSummary struct {
	Path    string `json:"path"`
	Summary string `json:"summary"`
}

// Render formats a summary for inclusion in prompt content.
func (s SourceSummary) Render() string {
	return "FILE: " + s.Path + "\n" + s.Summary
}

// LoadSummaries reads a JSON array of per-file summaries.
func LoadSummaries(path string) ([]SourceSummary, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("store: read summaries: %w", err)
	}
	var out []SourceSummary
	if err := jsonutil.UnmarshalFlex(b, &out); err != nil {
		return nil, fmt.Errorf("store: parse summaries %s: %w", path, err)
	}
	return out, nil
}

// FileStore writes one <category>.json artifact per generated insight.
type FileStore struct {
	dir string
}

func NewFileStore(dir string) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("store: create out dir: %w", err)
	}
	return &FileStore{dir: dir}, nil
}

// WriteInsight persists one category's payload and returns the file path.
func (s *FileStore) WriteInsight(category string, payload map[string]any) (string, error) {
	b, err := jsonutil.MarshalNoEscapeIndent(payload, "", "  ")
	if err != nil {
		return "", fmt.Errorf("store: encode %s: %w", category, err)
	}
	path := filepath.Join(s.dir, category+".json")
	if err := os.WriteFile(path, append(b, '\n'), 0o644); err != nil {
		return "", fmt.Errorf("store: write %s: %w", path, err)
	}
	return path, nil
}
