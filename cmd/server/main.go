// Package main - Entry point for the FinOpsGuard server
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"finopsguard/adapters/cache"
	"finopsguard/adapters/storage"
	"finopsguard/api"
	"finopsguard/core/audit"
	"finopsguard/core/catalog"
	"finopsguard/core/engine"
	"finopsguard/core/parser"
	"finopsguard/core/policy"
	"finopsguard/core/pricing"
	"finopsguard/core/simulator"
	"finopsguard/core/types"
	"finopsguard/core/usage"
	"finopsguard/core/webhook"
	"finopsguard/internal/config"
	"finopsguard/internal/logging"
)

func main() {
	cfg := config.Load()
	if err := logging.Initialize(cfg.Logging); err != nil {
		os.Exit(1)
	}
	defer logging.Sync()
	log := logging.Named("server")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Durable store is optional; nil means in-memory only.
	db, err := storage.New(ctx, cfg.Database)
	if err != nil {
		log.Warn("database unavailable, using in-memory stores", zap.Error(err))
		db = nil
	}
	if db != nil {
		defer db.Close()
	}

	c := cache.New(cfg.Redis)
	defer c.Close()

	resolver := pricing.NewResolver(catalog.New(), c, cfg.Pricing, liveSources(ctx, cfg, log)...)
	sim := simulator.New(resolver)
	iacParser := parser.New()

	var policyBackend policy.Backend
	var analysisBackend engine.AnalysisBackend
	var auditStore audit.EventStore = audit.NewMemoryEventStore()
	var webhookStore webhook.Store = webhook.NewMemoryStore()
	var deliveryStore webhook.DeliveryStore = webhook.NewMemoryDeliveryStore()
	if db != nil {
		policyBackend = db
		analysisBackend = db
		auditStore = db
		webhookStore = db
		deliveryStore = db.Deliveries()
	}

	auditor := audit.NewLogger(cfg.Audit, auditStore)
	defer auditor.Close()

	policyStore := policy.NewStore(policyBackend)
	policy.SeedDefaults(policyStore)
	policyStore.LoadPersisted(ctx)

	dispatcher := webhook.NewDispatcher(deliveryStore)
	emitter := webhook.NewEmitter(webhookStore, deliveryStore, dispatcher)
	scheduler := webhook.NewScheduler(webhookStore, deliveryStore, dispatcher, cfg.Webhook)

	policyStore.OnMutation(func(action policy.MutationAction, p types.Policy) {
		emitter.NotifyPolicyMutation(context.Background(), string(action), p)
	})

	usageFactory := usage.NewFactory(cfg.Usage, c)

	history := engine.NewHistory(analysisBackend)
	orchestrator := engine.New(iacParser, sim, policy.NewEngine(policyStore), policyStore, history, emitter, auditor, c)

	server := api.NewServer(api.Deps{
		Engine:     orchestrator,
		Policies:   policyStore,
		Resolver:   resolver,
		Webhooks:   webhookStore,
		Deliveries: deliveryStore,
		Dispatcher: dispatcher,
		Emitter:    emitter,
		Auditor:    auditor,
		Usage:      usageFactory,
		DB:         db,
		Cache:      c,
	})

	go scheduler.Run(ctx)

	httpServer := &http.Server{
		Addr:              cfg.Server.Addr(),
		Handler:           server.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Info("listening", zap.String("addr", cfg.Server.Addr()))
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("server failed", zap.Error(err))
			stop()
		}
	}()

	<-ctx.Done()
	log.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Error("shutdown failed", zap.Error(err))
	}
}

// liveSources builds the enabled live pricing adapters.
func liveSources(ctx context.Context, cfg *config.Config, log *zap.Logger) []pricing.LiveSource {
	if !cfg.Pricing.LiveEnabled {
		return nil
	}
	var sources []pricing.LiveSource
	if cfg.Pricing.AWSEnabled {
		src, err := pricing.NewAWSLive(ctx)
		if err != nil {
			log.Warn("aws live pricing unavailable", zap.Error(err))
		} else {
			sources = append(sources, src)
		}
	}
	if cfg.Pricing.GCPEnabled {
		sources = append(sources, pricing.NewGCPLive(os.Getenv("GCP_BILLING_API_KEY")))
	}
	if cfg.Pricing.AzureEnabled {
		sources = append(sources, pricing.NewAzureLive())
	}
	return sources
}
