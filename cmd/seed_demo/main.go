package main

import (
	"fmt"
	"log"

	"github.com/argussec/argusgo/internal/config"
	"github.com/argussec/argusgo/internal/database"
	"github.com/argussec/argusgo/internal/models"
	"github.com/argussec/argusgo/internal/queue"
	"github.com/argussec/argusgo/internal/storage"
)

// Demo incidents for shell UI development against a realistic store
var demoIncidents = []queue.IncidentDraft{
	{
		Title:       "Perimeter fence cut near gate 3",
		Description: "Fresh cut marks on the chain link, tool likely bolt cutter. No entry visible on camera.",
		Severity:    models.SeverityCritical,
		Location:    &models.GeoPoint{Lat: 52.52001, Lng: 13.40495},
		Tags:        []string{"perimeter", "night-shift"},
	},
	{
		Title:       "Unsecured side entrance at loading dock B",
		Description: "Door propped open with a wooden wedge. Wedge removed, door secured.",
		Severity:    models.SeverityMedium,
		Location:    &models.GeoPoint{Lat: 52.51980, Lng: 13.40612},
		Tags:        []string{"patrol", "access-control"},
	},
	{
		Title:       "Tailgating at main entrance",
		Description: "Two people entered on one badge swipe during the morning rush.",
		Severity:    models.SeverityHigh,
		Tags:        []string{"access-control"},
	},
	{
		Title:    "Broken floodlight on east wall",
		Severity: models.SeverityLow,
		Tags:     []string{"maintenance"},
	},
}

func main() {
	fmt.Println("🌱 Argus Agent Demo Seeder")

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("❌ Failed to load config: %v", err)
	}
	if cfg.Ephemeral {
		log.Fatal("❌ Seeding an ephemeral store is pointless, unset EPHEMERAL_STORE")
	}

	db, err := database.Connect(cfg.Database)
	if err != nil {
		log.Fatalf("❌ Failed to connect to database: %v", err)
	}
	defer db.Close()

	if err := db.Migrate(); err != nil {
		log.Fatalf("❌ Migration failed: %v", err)
	}
	fmt.Println("✅ Connected, schema ready")

	var store storage.Store = storage.NewGormStore(db.DB)
	if cfg.StoreKey != "" {
		store, err = storage.Sealed(store, cfg.StoreKey)
		if err != nil {
			log.Fatalf("❌ Failed to open sealed store: %v", err)
		}
	}

	svc, err := queue.New(queue.Options{Store: store, Config: cfg.Queue})
	if err != nil {
		log.Fatalf("❌ Failed to open queue state: %v", err)
	}

	if existing := len(svc.Incidents()); existing > 0 {
		fmt.Printf("⚠️  Store already holds %d incidents. Clear it first? (y/N): ", existing)
		var answer string
		fmt.Scanln(&answer)
		if answer != "y" && answer != "Y" {
			fmt.Println("❌ Aborted. Store not modified.")
			return
		}

		fmt.Println("🗑️  Clearing queue records...")
		for _, key := range []string{storage.KeyQueue, storage.KeyIncidents, storage.KeyFailedOps, storage.KeySyncStatus} {
			if err := store.Delete(key); err != nil {
				log.Fatalf("❌ Failed to clear %s: %v", key, err)
			}
		}

		// Reopen on the now-empty records
		svc, err = queue.New(queue.Options{Store: store, Config: cfg.Queue})
		if err != nil {
			log.Fatalf("❌ Failed to reopen queue state: %v", err)
		}
	}

	fmt.Println("📦 Creating demo incidents...")
	for _, draft := range demoIncidents {
		id, err := svc.CreateIncident(draft)
		if err != nil {
			log.Fatalf("❌ Failed to seed %q: %v", draft.Title, err)
		}
		fmt.Printf("   %s  [%s] %s\n", id, draft.Severity, draft.Title)
	}

	fmt.Printf("✅ Seeded %d incidents, %d operations queued\n", len(demoIncidents), svc.Size())
	fmt.Println("   Start the agent and pair a shell to see them.")
}
