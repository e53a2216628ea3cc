// Command insights generates architectural insights from a corpus of
// per-file code summaries. One completion client and one concurrency limiter
// are shared by every category, so total in-flight provider calls stay
// bounded regardless of how many categories run at once.
package main

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/pkdone/codebase-analyzer-tool-sub006/internal/config"
	"github.com/pkdone/codebase-analyzer-tool-sub006/internal/insight"
	"github.com/pkdone/codebase-analyzer-tool-sub006/internal/llm"
	"github.com/pkdone/codebase-analyzer-tool-sub006/internal/store"
	"github.com/pkdone/codebase-analyzer-tool-sub006/internal/util/jsonutil"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}
	ctx := context.Background()

	client, err := buildClient(ctx, cfg)
	if err != nil {
		log.Fatal(err)
	}
	defer client.Close()

	var pg *store.PostgresStore
	if cfg.PostgresDSN != "" {
		pg, err = store.NewPostgresStore(cfg.PostgresDSN)
		if err != nil {
			log.Fatal(err)
		}
		defer pg.Close()
		if err := pg.EnsureSchema(ctx); err != nil {
			log.Fatal(err)
		}
	}

	summaries, err := loadSummaries(ctx, cfg, pg)
	if err != nil {
		log.Fatal(err)
	}
	if len(summaries) == 0 {
		log.Fatal("no summaries to analyze")
	}
	log.Printf("loaded %d file summaries", len(summaries))

	rendered := make([]string, len(summaries))
	for i, s := range summaries {
		rendered[i] = s.Render()
	}

	registry := insight.NewRegistry()
	limiter := llm.NewLimiter(cfg.MaxConcurrency)
	gen := insight.NewGenerator(client, limiter, registry, nil, insight.ChunkConfig{
		MaxTokens:        cfg.TokenCapacity,
		BudgetRatio:      cfg.BudgetRatio,
		AvgCharsPerToken: cfg.AvgCharsPerToken,
	})

	categories := registry.Categories()
	if len(cfg.Categories) > 0 {
		categories = categories[:0]
		for _, c := range cfg.Categories {
			categories = append(categories, insight.Category(c))
		}
	}

	results := make([]map[string]any, len(categories))
	errs := make([]error, len(categories))
	var wg sync.WaitGroup
	start := time.Now()
	for i, c := range categories {
		wg.Add(1)
		go func(i int, c insight.Category) {
			defer wg.Done()
			results[i], errs[i] = gen.GenerateInsights(ctx, c, rendered)
		}(i, c)
	}
	wg.Wait()

	fileStore, err := store.NewFileStore(cfg.OutDir)
	if err != nil {
		log.Fatal(err)
	}
	var s3 *store.S3Store
	if cfg.Artifact.Enabled {
		s3, err = store.NewS3Store(store.S3Config{
			Endpoint:  cfg.Artifact.Endpoint,
			Region:    cfg.Artifact.Region,
			AccessKey: cfg.Artifact.AccessKey,
			SecretKey: cfg.Artifact.SecretKey,
			Bucket:    cfg.Artifact.Bucket,
			UseSSL:    cfg.Artifact.UseSSL,
		})
		if err != nil {
			log.Fatal(err)
		}
		if err := s3.EnsureBucket(ctx); err != nil {
			log.Fatal(err)
		}
	}

	generated := 0
	for i, c := range categories {
		if errs[i] != nil {
			log.Fatalf("category %s: %v", c, errs[i])
		}
		if results[i] == nil {
			log.Printf("category %s: no insight generated", c)
			continue
		}
		path, err := fileStore.WriteInsight(string(c), results[i])
		if err != nil {
			log.Fatal(err)
		}
		log.Printf("category %s: wrote %s", c, path)
		payload, err := jsonutil.MarshalNoEscape(results[i])
		if err != nil {
			log.Fatal(err)
		}
		if pg != nil {
			if err := pg.SaveInsight(ctx, cfg.Project, string(c), payload); err != nil {
				log.Fatal(err)
			}
		}
		if s3 != nil {
			if err := s3.Upload(ctx, cfg.Project, string(c)+".json", payload); err != nil {
				log.Fatal(err)
			}
		}
		generated++
	}
	log.Printf("generated %d/%d category insights in %s", generated, len(categories), time.Since(start).Round(time.Second))
}

func buildClient(ctx context.Context, cfg *config.Config) (llm.Client, error) {
	var base llm.Client
	if cfg.UseFakeLLM {
		base = llm.NewFakeClient(cfg.TokenCapacity)
	} else {
		cli, err := llm.NewGeminiClient(ctx, cfg.Model, cfg.TokenCapacity)
		if err != nil {
			return nil, err
		}
		base = cli
	}
	return llm.Wrap(base,
		llm.LogRequests(),
		llm.CacheResponses(cfg.CacheEntries),
		llm.Retry(3, 500*time.Millisecond),
		llm.ValidateResponses(),
	), nil
}

func loadSummaries(ctx context.Context, cfg *config.Config, pg *store.PostgresStore) ([]store.SourceSummary, error) {
	if cfg.SummariesPath != "" {
		return store.LoadSummaries(cfg.SummariesPath)
	}
	return pg.LoadSummaries(ctx, cfg.Project)
}
