// Package config loads runtime configuration from flags and the environment.
// A .env file in the working directory is honored via godotenv.
package config

import (
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Config is the resolved runtime configuration for one analysis run.
type Config struct {
	Project       string
	SummariesPath string
	OutDir        string
	Categories    []string

	Model            string
	TokenCapacity    int
	BudgetRatio      float64
	AvgCharsPerToken float64
	MaxConcurrency   int
	CacheEntries     int
	UseFakeLLM       bool

	PostgresDSN string
	Artifact    ArtifactConfig
}

// ArtifactConfig configures the optional S3-compatible archive of generated
// insight artifacts.
type ArtifactConfig struct {
	Enabled   bool
	Endpoint  string
	Region    string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
}

// Load parses flags and environment. Flag values win over env values.
func Load() (*Config, error) {
	_ = godotenv.Load()

	project := flag.String("project", "", "project name used for stored insights")
	summaries := flag.String("summaries", "", "path to the per-file summaries JSON file")
	outDir := flag.String("out", "out", "output directory for insight artifacts")
	categories := flag.String("categories", "", "comma-separated category subset (default: all)")
	model := flag.String("model", envOr("LLM_MODEL", "gemini-2.5-flash"), "model id")
	concurrency := flag.Int("max-concurrency", envInt("LLM_MAX_CONCURRENCY", 4), "max in-flight completion calls, shared across categories")
	fake := flag.Bool("fake-llm", false, "use the offline fake completion client")
	flag.Parse()

	if strings.TrimSpace(*summaries) == "" && strings.TrimSpace(os.Getenv("POSTGRES_DSN")) == "" {
		return nil, fmt.Errorf("config: --summaries or POSTGRES_DSN is required")
	}
	proj := strings.TrimSpace(*project)
	if proj == "" {
		proj = "default"
	}

	cfg := &Config{
		Project:          proj,
		SummariesPath:    *summaries,
		OutDir:           *outDir,
		Categories:       splitList(*categories),
		Model:            *model,
		TokenCapacity:    envInt("LLM_TOKEN_CAPACITY", 1_000_000),
		BudgetRatio:      envFloat("LLM_BUDGET_RATIO", 0),
		AvgCharsPerToken: envFloat("LLM_AVG_CHARS_PER_TOKEN", 0),
		MaxConcurrency:   *concurrency,
		CacheEntries:     envInt("LLM_CACHE_ENTRIES", 256),
		UseFakeLLM:       *fake,
		PostgresDSN:      strings.TrimSpace(os.Getenv("POSTGRES_DSN")),
		Artifact:         loadArtifactConfig(),
	}
	if !cfg.UseFakeLLM && strings.TrimSpace(os.Getenv("GEMINI_API_KEY")) == "" {
		return nil, fmt.Errorf("config: GEMINI_API_KEY is not set (or pass --fake-llm)")
	}
	return cfg, nil
}

func loadArtifactConfig() ArtifactConfig {
	endpoint := strings.TrimSpace(os.Getenv("ARTIFACT_S3_ENDPOINT"))
	return ArtifactConfig{
		Enabled:   endpoint != "",
		Endpoint:  endpoint,
		Region:    envOr("ARTIFACT_S3_REGION", "us-east-1"),
		AccessKey: strings.TrimSpace(os.Getenv("ARTIFACT_S3_ACCESS_KEY")),
		SecretKey: strings.TrimSpace(os.Getenv("ARTIFACT_S3_SECRET_KEY")),
		Bucket:    envOr("ARTIFACT_S3_BUCKET", "codebase-insights"),
		UseSSL:    envBool("ARTIFACT_S3_USE_SSL", true),
	}
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func envOr(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envFloat(key string, fallback float64) float64 {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}
