package main

import (
	"fmt"
	"log"
	"os"

	"github.com/pricepilot/backend/config"
	httpDelivery "github.com/pricepilot/backend/internal/delivery/http"
	"github.com/pricepilot/backend/internal/domain"
	"github.com/pricepilot/backend/internal/infrastructure/adjudicator"
	"github.com/pricepilot/backend/internal/infrastructure/store"
	"github.com/pricepilot/backend/internal/usecase"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	log.Printf("Starting PricePilot Backend v1.0.0")
	log.Printf("Environment: %s", cfg.Server.Environment)
	log.Printf("Port: %s", cfg.Server.Port)
	log.Printf("Store Type: %s", cfg.Store.Type)

	decisionStore, reader, err := buildStore(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize decision store: %v", err)
	}

	var adj domain.Adjudicator
	if cfg.Adjudicator.APIKey != "" {
		adj = adjudicator.NewClient(adjudicator.Config{
			APIKey:            cfg.Adjudicator.APIKey,
			BaseURL:           cfg.Adjudicator.BaseURL,
			Model:             cfg.Adjudicator.Model,
			RequestTimeout:    cfg.Adjudicator.RequestTimeout,
			RequestsPerSecond: cfg.Adjudicator.RequestsPerSecond,
			Debug:             cfg.Matching.EnableDebugLogging,
		})
		log.Printf("Adjudicator configured: %s (%s)", cfg.Adjudicator.BaseURL, cfg.Adjudicator.Model)
	} else {
		log.Printf("WARNING: adjudicator not configured - ambiguous matches fall back to the conservative policy")
	}

	analysisService := usecase.NewAnalysisService(decisionStore, adj, usecase.AnalysisConfig{
		Thresholds: usecase.Thresholds{
			Match:         cfg.Thresholds.Match,
			AmbiguousLow:  cfg.Thresholds.AmbiguousLow,
			AmbiguousHigh: cfg.Thresholds.AmbiguousHigh,
			RaisePct:      cfg.Thresholds.RaisePct,
			LowerPct:      cfg.Thresholds.LowerPct,
			ReviewPct:     cfg.Thresholds.ReviewPct,
			CriticalPct:   cfg.Thresholds.CriticalPct,
		},
		Scorer: usecase.ScorerConfig{
			EnableFuzzyTokens: cfg.Matching.EnableFuzzyTokens,
			FuzzyEditDistance: cfg.Matching.FuzzyEditDistance,
		},
		Workers:            cfg.Matching.Workers,
		EnableDebugLogging: cfg.Matching.EnableDebugLogging,
	})

	log.Printf("Matching: match>=%d, ambiguous [%d,%d), review<%d, critical<%d, workers=%d",
		cfg.Thresholds.Match, cfg.Thresholds.AmbiguousLow, cfg.Thresholds.AmbiguousHigh,
		cfg.Thresholds.ReviewPct, cfg.Thresholds.CriticalPct, cfg.Matching.Workers)

	handler := httpDelivery.NewHandler(analysisService, reader)
	router := httpDelivery.SetupRouter(cfg, handler)

	addr := fmt.Sprintf(":%s", cfg.Server.Port)
	log.Printf("Server listening on %s", addr)

	if err := router.Run(addr); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}

// buildStore selects the persistence collaborator from configuration.
func buildStore(cfg *config.Config) (domain.DecisionStore, domain.DecisionReader, error) {
	switch cfg.Store.Type {
	case "sqlite":
		s, err := store.NewSQLiteStore(cfg.Store.Path)
		if err != nil {
			return nil, nil, err
		}
		return s, s, nil
	case "supabase":
		s := store.NewSupabaseStore(cfg.Store.SupabaseURL, cfg.Store.SupabaseKey, cfg.Store.Table)
		return s, s, nil
	default:
		s := store.NewMemoryStore()
		return s, s, nil
	}
}

func init() {
	log.SetFlags(log.Ldate | log.Ltime | log.Lshortfile)
	log.SetOutput(os.Stdout)
}
