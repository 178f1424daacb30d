// Command attune-server runs the emotion-aware personalization engine and
// its HTTP API.
package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/attuneai/attune/internal/classifier"
	"github.com/attuneai/attune/internal/config"
	"github.com/attuneai/attune/internal/embedding"
	"github.com/attuneai/attune/internal/engine"
	"github.com/attuneai/attune/internal/fusion"
	"github.com/attuneai/attune/internal/knowledge"
	"github.com/attuneai/attune/internal/memory"
	"github.com/attuneai/attune/internal/notify"
	"github.com/attuneai/attune/internal/server"
	"github.com/attuneai/attune/internal/storage"
	"github.com/attuneai/attune/internal/storage/postgres"
	"github.com/attuneai/attune/internal/storage/sqlite"
	"github.com/attuneai/attune/pkg/types"
)

func main() {
	envFile := flag.String("env", ".env", "Path to .env file (optional)")
	flag.Parse()

	if err := godotenv.Load(*envFile); err != nil && !os.IsNotExist(err) {
		log.Printf("Warning: failed to load %s: %v", *envFile, err)
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	graph, err := buildGraph(cfg)
	if err != nil {
		log.Fatalf("Failed to build knowledge graph: %v", err)
	}

	store, err := openStore(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize storage: %v", err)
	}
	defer store.Close()

	detector := fusion.NewDetector(graph, buildClassifier(cfg), cfg.Classifier.Timeout)
	longterm := memory.NewLongTerm(store, buildEmbedding(cfg), cfg.Engine.RetentionDays, 0)

	eng := engine.New(graph, detector, longterm, engine.Options{
		Memory: memory.Options{
			Window:            cfg.Engine.ShortTermWindow,
			ConsolidateEvery:  cfg.Engine.ConsolidateEvery,
			InactivityTimeout: cfg.Engine.InactivityTimeout,
		},
		ConceptCap: cfg.Engine.ConceptCap,
		RetrieveK:  cfg.Engine.RetrieveK,
		MaxTextLen: cfg.Engine.MaxTextLen,
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Profile files dropped into {data}/import/ restore through the engine.
	watcher := notify.NewImportWatcher(cfg.Storage.DataPath, func(userID string, export types.ProfileExport) {
		importCtx, importCancel := context.WithTimeout(context.Background(), time.Minute)
		defer importCancel()
		if err := eng.ImportProfile(importCtx, userID, export); err != nil {
			log.Printf("Failed to import dropped profile for %s: %v", userID, err)
		}
	})
	if err := watcher.Start(); err != nil {
		log.Fatalf("Failed to start import watcher: %v", err)
	}
	defer watcher.Stop()

	addr, err := server.Start(ctx, cfg, eng)
	if err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
	log.Printf("Attune engine running at http://%s", addr)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	log.Println("Shutting down gracefully...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()
	if err := eng.Shutdown(shutdownCtx); err != nil {
		log.Printf("Error shutting down engine: %v", err)
	}

	cancel()
	time.Sleep(1 * time.Second) // Give time for connections to close
}

func buildGraph(cfg *config.Config) (*knowledge.Graph, error) {
	cat := knowledge.DefaultCatalog()
	if cfg.Knowledge.OverlayPath != "" {
		merged, err := knowledge.MergeCatalogFile(cat, cfg.Knowledge.OverlayPath)
		if err != nil {
			return nil, err
		}
		cat = merged
	}
	return knowledge.NewGraph(cat), nil
}

func openStore(cfg *config.Config) (storage.LongTermStore, error) {
	if cfg.Storage.Engine == "postgres" {
		return postgres.NewStore(cfg.Storage.PostgresDSN, embeddingDimension(cfg))
	}
	if err := os.MkdirAll(cfg.Storage.DataPath, 0o700); err != nil {
		return nil, err
	}
	return sqlite.NewStore(cfg.Storage.DataPath + "/attune.db")
}

func buildClassifier(cfg *config.Config) classifier.Classifier {
	if cfg.Classifier.URL == "" {
		log.Println("No classifier configured, running with lexical-only detection")
		return classifier.Nop{}
	}
	return classifier.NewHTTPClassifier(classifier.HTTPConfig{
		BaseURL: cfg.Classifier.URL,
		Model:   cfg.Classifier.Model,
		Timeout: cfg.Classifier.Timeout,
		MaxRPS:  cfg.Classifier.RateLimit,
	})
}

func buildEmbedding(cfg *config.Config) embedding.Provider {
	var provider embedding.Provider
	if cfg.Embedding.Provider == "http" {
		provider = embedding.NewHTTPProvider(embedding.HTTPConfig{
			BaseURL:   cfg.Embedding.URL,
			Model:     cfg.Embedding.Model,
			Dimension: cfg.Embedding.Dimension,
			MaxRPS:    cfg.Embedding.RateLimit,
		})
	} else {
		provider = embedding.Local{}
	}

	cached, err := embedding.NewCached(provider, cfg.Embedding.CacheSize)
	if err != nil {
		log.Fatalf("Failed to build embedding cache: %v", err)
	}
	return cached
}

func embeddingDimension(cfg *config.Config) int {
	if cfg.Embedding.Provider == "http" {
		return cfg.Embedding.Dimension
	}
	return embedding.Local{}.Dimension()
}
