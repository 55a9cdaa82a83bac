package main

import (
	"context"
	"errors"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/pantryos/backend/internal/config"
	"github.com/pantryos/backend/internal/extractor"
	"github.com/pantryos/backend/internal/llm"
	"github.com/pantryos/backend/internal/worker"
	"github.com/pantryos/backend/pkg/client"
)

func main() {
	_ = godotenv.Load()

	cfg := config.FromEnv()
	if cfg.WorkerToken == "" {
		log.Fatalf("❌ HOME_INVENTORY_WORKER_TOKEN is required")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	api := client.New(client.Config{
		BaseURL:     cfg.APIBaseURL,
		WorkerToken: cfg.WorkerToken,
	})

	var primary extractor.Extractor
	if x := extractor.NewLLM(llm.New(llm.Config{
		Provider:    cfg.LLM.Provider,
		BaseURL:     cfg.LLM.BaseURL,
		APIKey:      cfg.LLM.APIKey,
		Model:       cfg.LLM.ExtractorModel,
		RequestMode: cfg.LLM.RequestMode,
		SiteURL:     cfg.LLM.SiteURL,
		AppName:     cfg.LLM.AppName,
	})); x != nil {
		primary = x
		log.Printf("🧠 LLM extractor active: %s", x.Name())
	} else {
		log.Printf("🧮 heuristic extractor active (no LLM configured)")
	}

	w := worker.New(api, primary, cfg.WorkerPollInterval)
	log.Printf("🚚 worker polling %s every %s", cfg.APIBaseURL, cfg.WorkerPollInterval)

	if err := w.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		log.Fatalf("❌ worker: %v", err)
	}
	log.Printf("👋 worker stopped")
}
