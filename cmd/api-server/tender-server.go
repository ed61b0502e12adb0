package main

import (
	"context"
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"

	"tenderwatch/db"
	"tenderwatch/db/migrations"
	"tenderwatch/internal/config"
	"tenderwatch/internal/handlers"
	"tenderwatch/internal/ingest"
	"tenderwatch/internal/match"
	"tenderwatch/internal/notify"
	"tenderwatch/internal/reconcile"
	"tenderwatch/internal/taxonomy"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Configuration error: %v", err)
	}

	dbConn, err := sqlx.Connect("postgres", cfg.PostgresConn)
	if err != nil {
		log.Fatalf("Cannot connect to DB: %v", err)
	}
	defer dbConn.Close()

	if err := migrations.Run(cfg.PostgresConn); err != nil {
		log.Fatalf("Migrations failed: %v", err)
	}

	store := db.NewStorage(dbConn)
	resolver := taxonomy.NewResolver(store)
	engine := reconcile.NewEngine(store, resolver)

	notifier := &notify.ChannelNotifier{
		Chat:  notify.NewWebhookNotifier(),
		Email: notify.LogNotifier{},
	}
	matcher := match.NewMatcher(store, notifier, match.Config{AppURL: cfg.AppURL})

	var dedup ingest.Deduper
	if cfg.RedisURL != "" {
		client, err := ingest.NewRedisClient(context.Background(), cfg.RedisURL)
		if err != nil {
			log.Fatalf("Cannot connect to Redis: %v", err)
		}
		defer client.Close()
		dedup = ingest.NewRedisDeduper(client, 0)
	}

	pipeline := ingest.NewPipeline(store, engine, resolver, matcher, dedup, nil, cfg.MatchThreshold)
	orgPipeline := ingest.NewOrganizationPipeline(store)

	digest := notify.NewDigestScheduler(store, notifier, cfg.DigestCron)
	if err := digest.Start(); err != nil {
		log.Fatalf("Cannot start digest scheduler: %v", err)
	}
	defer digest.Stop()

	h := handlers.NewHandler(store, pipeline, orgPipeline, cfg.ScraperAPIKey)

	r := chi.NewRouter()
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Route("/api", h.Routes)

	log.Printf("Starting server on %s", cfg.ServerAddress)
	log.Fatal(http.ListenAndServe(cfg.ServerAddress, r))
}
