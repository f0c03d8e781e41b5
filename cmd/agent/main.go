package main

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/argussec/argusgo/internal/ai"
	"github.com/argussec/argusgo/internal/config"
	"github.com/argussec/argusgo/internal/database"
	"github.com/argussec/argusgo/internal/graphql"
	"github.com/argussec/argusgo/internal/handlers"
	"github.com/argussec/argusgo/internal/models"
	"github.com/argussec/argusgo/internal/netwatch"
	"github.com/argussec/argusgo/internal/notify"
	"github.com/argussec/argusgo/internal/queue"
	"github.com/argussec/argusgo/internal/storage"
	"github.com/argussec/argusgo/internal/utils"
	"github.com/argussec/argusgo/internal/websocket"
)

func main() {
	// 1. Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// 2. Load or mint the agent identity
	identity, err := utils.LoadOrGenerateAgentIdentity()
	if err != nil {
		log.Fatalf("Failed to load agent identity: %v", err)
	}
	log.Printf("🔑 Agent identity: %s", identity.AgentID)

	// 3. Storage: embedded/external Postgres, or in-memory when ephemeral
	var db *database.DB
	var store storage.Store
	if cfg.Ephemeral {
		log.Println("📦 Running with ephemeral in-memory store")
		store = storage.NewMemStore()
	} else {
		db, err = database.Connect(cfg.Database)
		if err != nil {
			log.Fatalf("Failed to connect to database: %v", err)
		}

		log.Println("🚀 Synchronizing database schema...")
		if err := db.Migrate(); err != nil {
			log.Printf("⚠️ Migration warning: %v", err)
		} else {
			log.Println("✅ Schema synchronized successfully")
		}

		store = storage.NewGormStore(db.DB)
	}

	if cfg.StoreKey != "" {
		sealed, err := storage.Sealed(store, cfg.StoreKey)
		if err != nil {
			log.Fatalf("Failed to enable store sealing: %v", err)
		}
		store = sealed
		log.Println("🔐 At-rest store sealing enabled")
	}

	// 4. Reachability watcher, probed once so the queue starts with a
	// truthful online flag
	watcher := netwatch.NewMonitor(cfg.Backend.ProbeURL, cfg.Queue.ProbeInterval, nil)
	watcher.Probe()
	watcher.Start()

	// 5. Status feed hub for UI shells
	hub := websocket.NewHub()
	go hub.Run()

	notifier := notify.Multi(
		notify.LogNotifier{},
		notify.Throttled(hub, cfg.Queue.NotifyWindow, nil),
	)

	// 6. GraphQL execution client, when a backend is configured
	var clientFn graphql.ClientFunc
	if cfg.Backend.GraphQLEndpoint != "" {
		backend := graphql.NewHTTPClient(cfg.Backend.GraphQLEndpoint, cfg.Backend.APIToken)
		clientFn = func() graphql.Client { return backend }
		log.Printf("🔗 Argus backend: %s", cfg.Backend.GraphQLEndpoint)
	} else {
		log.Println("⚠️ No GraphQL endpoint configured, operations will queue until one is set")
	}

	// 7. Offline queue service
	var passHook func(queue.PassReport)
	if db != nil {
		passHook = func(rep queue.PassReport) {
			completed := rep.CompletedAt
			pass := models.SyncPass{
				StartedAt:   rep.StartedAt,
				CompletedAt: &completed,
				Duration:    int(rep.CompletedAt.Sub(rep.StartedAt).Milliseconds()),
				Processed:   rep.Processed,
				Retried:     rep.Retried,
				Failed:      rep.Failed,
				Aborted:     rep.Aborted,
				ErrorDetail: rep.Err,
			}
			if len(rep.Errors) > 0 {
				if debug, err := json.Marshal(map[string]any{"errors": rep.Errors}); err == nil {
					pass.Debug = debug
				}
			}
			if err := db.Create(&pass).Error; err != nil {
				log.Printf("⚠️ Failed to record sync pass: %v", err)
			}
		}
	}

	svc, err := queue.New(queue.Options{
		Store:    store,
		Client:   clientFn,
		Watcher:  watcher,
		Notifier: notifier,
		Config:   cfg.Queue,
		PassHook: passHook,
	})
	if err != nil {
		log.Fatalf("Failed to build offline queue: %v", err)
	}

	// Shells see every status change live, and can request a pass
	feedToken := svc.Subscribe(func(st models.SyncStatus) {
		hub.BroadcastStatus(st)
	})
	hub.Snapshot = svc.Status
	hub.SyncTrigger = func() {
		go func() {
			if err := svc.SyncNow(context.Background()); err != nil {
				log.Printf("⚠️ Shell-requested sync skipped: %v", err)
			}
		}()
	}

	if err := svc.Start(); err != nil {
		log.Fatalf("Failed to start offline queue: %v", err)
	}

	// 8. Optional AI triage helper
	var triage *ai.Triage
	if cfg.AI.Enabled() {
		triage, err = ai.NewTriage(context.Background(), cfg.AI)
		if err != nil {
			log.Printf("⚠️ Triage helper disabled: %v", err)
			triage = nil
		} else {
			log.Printf("🧠 Triage helper ready (%s)", cfg.AI.Model)
		}
	}

	// 9. HTTP surface
	router := handlers.NewRouter(handlers.Deps{
		Config:   cfg,
		DB:       db,
		Queue:    svc,
		Hub:      hub,
		Watcher:  watcher,
		Identity: identity,
		Triage:   triage,
	})

	server := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router.Handler(),
	}

	// Channel to listen for shutdown signals
	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM, syscall.SIGINT)

	go func() {
		addrs := utils.LocalIPv4s()
		log.Printf("🚀 Argus agent listening on port %s [%s]", cfg.Port, strings.Join(addrs, ", "))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	// Wait for shutdown signal
	sig := <-shutdown
	log.Printf("⚠️ Received signal: %v. Shutting down gracefully...", sig)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Printf("HTTP server shutdown error: %v", err)
	}

	svc.Unsubscribe(feedToken)
	svc.Stop()
	watcher.Stop()

	if triage != nil {
		triage.Close()
	}

	if db != nil {
		log.Println("🛑 Closing database connection...")
		if err := db.Close(); err != nil {
			log.Printf("Database close error: %v", err)
		}
	}

	log.Println("✅ Shutdown complete")
}
