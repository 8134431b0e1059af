package main

import (
	"fmt"
	"log"
	"os"

	"github.com/cuidaelmango/backend/config"
	httpDelivery "github.com/cuidaelmango/backend/internal/delivery/http"
	"github.com/cuidaelmango/backend/internal/infrastructure/cache"
	"github.com/cuidaelmango/backend/internal/infrastructure/catalog"
	"github.com/cuidaelmango/backend/internal/usecase"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	log.Printf("Starting CuidaElMango Backend v2.0.0")
	log.Printf("Environment: %s", cfg.Server.Environment)
	log.Printf("Port: %s", cfg.Server.Port)
	log.Printf("Database: %s", cfg.Database.Path)

	store, err := catalog.NewSQLiteStore(cfg.Database.Path)
	if err != nil {
		log.Fatalf("Failed to open catalog store: %v", err)
	}
	defer store.Close()

	memoryCache := cache.NewMemoryCache()
	defer memoryCache.Stop()
	log.Printf("Catalog cache TTL: %s", cfg.Cache.TTL)

	retriever := usecase.NewCandidateRetriever(store, memoryCache, usecase.RetrieverConfig{
		CandidateLimit:  cfg.Matching.CandidateLimit,
		CacheTTL:        cfg.Cache.TTL,
		RetrieveTimeout: cfg.Matching.RetrieveTimeout,
	})

	matcher := usecase.NewMatchingService(usecase.MatchConfig{
		MinAcceptanceScore: cfg.Matching.MinAcceptanceScore,
		MaxAlternatives:    cfg.Matching.MaxAlternatives,
	})

	comparisons := usecase.NewComparisonService(store, store, retriever, matcher, usecase.ComparisonConfig{
		Workers: cfg.Matching.Workers,
	})

	log.Printf("Matching: acceptance>=%d, candidates<=%d, alternatives<=%d, workers=%d",
		cfg.Matching.MinAcceptanceScore,
		cfg.Matching.CandidateLimit,
		cfg.Matching.MaxAlternatives,
		cfg.Matching.Workers)

	handler := httpDelivery.NewHandler(comparisons, store, store)
	router := httpDelivery.SetupRouter(cfg, handler)

	addr := fmt.Sprintf(":%s", cfg.Server.Port)
	log.Printf("Server listening on %s", addr)

	if err := router.Run(addr); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}

func init() {
	log.SetFlags(log.Ldate | log.Ltime | log.Lshortfile)
	log.SetOutput(os.Stdout)
}
