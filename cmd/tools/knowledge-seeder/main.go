// cmd/tools/knowledge-seeder/main.go
package main

import (
	"context"
	"flag"

	"go.uber.org/zap"

	"tripwise/internal/common/config"
	"tripwise/internal/common/database"
	"tripwise/internal/common/logger"
	"tripwise/internal/knowledge"
	"tripwise/internal/llm"
)

func main() {
	dir := flag.String("dir", "./knowledge", "directory of .md/.txt documents to ingest")
	flag.Parse()

	zapLog := logger.New("info", "console")
	defer zapLog.Sync()

	log := logger.NewZapAdapter(zapLog)

	cfg, err := config.Load()
	if err != nil {
		zapLog.Fatal("config load failed", zap.Error(err))
	}

	esClient, err := database.NewElasticsearch(cfg.Database.Elasticsearch)
	if err != nil {
		zapLog.Fatal("Elasticsearch init failed", zap.Error(err))
	}

	ctx := context.Background()

	store := knowledge.NewStore(
		esClient.Client,
		cfg.Knowledge.Index,
		cfg.Knowledge.EmbeddingDims,
		&knowledgeLoggerAdapter{log},
	)
	if err := store.EnsureIndex(ctx); err != nil {
		zapLog.Fatal("knowledge index init failed", zap.Error(err))
	}

	llmClient := llm.NewClient(llm.LoadConfig(cfg), &llmLoggerAdapter{log})

	seeder := knowledge.NewSeeder(store, llmClient, cfg.Knowledge.ChunkSize, &knowledgeLoggerAdapter{log})

	count, err := seeder.SeedDirectory(ctx, *dir)
	if err != nil {
		zapLog.Fatal("seeding failed", zap.Error(err), zap.Int("chunksIndexed", count))
	}

	zapLog.Info("seeding complete",
		zap.String("dir", *dir),
		zap.Int("chunksIndexed", count),
		zap.String("index", cfg.Knowledge.Index),
	)
}

type knowledgeLoggerAdapter struct {
	logger.Logger
}

func (a *knowledgeLoggerAdapter) With(fields map[string]interface{}) knowledge.Logger {
	return &knowledgeLoggerAdapter{a.Logger.With(fields)}
}

type llmLoggerAdapter struct {
	logger.Logger
}

func (a *llmLoggerAdapter) With(fields map[string]interface{}) llm.Logger {
	return &llmLoggerAdapter{a.Logger.With(fields)}
}
