package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/pantryos/backend/internal/api"
	"github.com/pantryos/backend/internal/config"
	"github.com/pantryos/backend/internal/engine"
	"github.com/pantryos/backend/internal/events"
	"github.com/pantryos/backend/internal/llm"
	"github.com/pantryos/backend/internal/metrics"
	"github.com/pantryos/backend/internal/notify"
	"github.com/pantryos/backend/internal/planner"
	"github.com/pantryos/backend/internal/store"
)

func main() {
	// .env is a dev convenience; absence is fine.
	_ = godotenv.Load()

	cfg := config.FromEnv()
	overlay, err := config.LoadOverlay(os.Getenv("HOME_INVENTORY_CONFIG_FILE"))
	if err != nil {
		log.Fatalf("❌ config overlay: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	archive := store.Open(cfg)
	defer archive.Close()

	// The in-memory bus always runs; Pub/Sub mirrors events out when a
	// project and topic are configured.
	var (
		bus     = events.NewBus()
		emitter events.Emitter = bus
	)
	if cfg.PubSubProject != "" && cfg.PubSubTopic != "" {
		ps, err := events.NewPubSubBus(cfg.PubSubProject, cfg.PubSubTopic)
		if err != nil {
			log.Fatalf("❌ pubsub: %v", err)
		}
		defer ps.Close()
		bus = ps.Bus
		emitter = ps
	}

	var primary planner.Planner
	if p := planner.NewLLM(llm.New(llmConfig(cfg, cfg.LLM.PlannerModel))); p != nil {
		primary = p
		log.Printf("🧠 LLM planner active: %s", p.Model())
	} else {
		log.Printf("🧮 heuristic planner active (no LLM configured)")
	}

	m := metrics.Default()
	eng := engine.New(engine.Options{
		Bus:          emitter,
		Planner:      planner.WithFallback(primary, 0),
		Metrics:      m,
		Archive:      archive,
		UploadOrigin: cfg.UploadOrigin,
		MaxAttempts:  cfg.MaxJobAttempts,
	})
	defer eng.Close()

	notifier := notify.New(bus, cfg.Targets(overlay), 4)
	defer notifier.Shutdown()

	srv := api.NewServer(eng, cfg, bus, m)
	if err := srv.Start(ctx); err != nil {
		log.Fatalf("❌ server: %v", err)
	}
	log.Printf("👋 shut down cleanly")
}

// llmConfig maps service configuration onto the LLM client for one
// model slot.
func llmConfig(cfg config.Config, model string) llm.Config {
	return llm.Config{
		Provider:    cfg.LLM.Provider,
		BaseURL:     cfg.LLM.BaseURL,
		APIKey:      cfg.LLM.APIKey,
		Model:       model,
		RequestMode: cfg.LLM.RequestMode,
		SiteURL:     cfg.LLM.SiteURL,
		AppName:     cfg.LLM.AppName,
	}
}
