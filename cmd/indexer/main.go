package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/clinicflow/frontdesk/internal/adapters/database"
	"github.com/clinicflow/frontdesk/internal/adapters/search"
	"github.com/clinicflow/frontdesk/internal/domain/repositories"
	"github.com/clinicflow/frontdesk/internal/infrastructure/clients/postgres"
	"github.com/clinicflow/frontdesk/internal/infrastructure/clients/typesense"
	"github.com/clinicflow/frontdesk/pkg/config"
)

const indexPageSize = 500

// The indexer rebuilds the Typesense patients collection from the database.
// Run it once after a schema change, or on an interval as a safety net for
// index writes the API dropped.
func main() {
	var reset bool
	var intervalFlag string
	flag.BoolVar(&reset, "reset", false, "delete existing Typesense collection before reindexing")
	flag.StringVar(&intervalFlag, "interval", "", "repeat interval for reindexing (e.g. 6h, 30m)")
	flag.Parse()

	intervalValue := strings.TrimSpace(intervalFlag)
	if intervalValue == "" {
		intervalValue = strings.TrimSpace(os.Getenv("REINDEX_INTERVAL"))
	}

	var interval time.Duration
	var err error
	if intervalValue != "" {
		interval, err = time.ParseDuration(intervalValue)
		if err != nil {
			log.Fatalf("Invalid interval %q: %v", intervalValue, err)
		}
		if interval <= 0 {
			log.Fatalf("Interval must be greater than zero")
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	for {
		if err := indexOnce(ctx, reset); err != nil {
			log.Printf("Reindex failed: %v", err)
		}

		if interval <= 0 {
			break
		}

		reset = false
		log.Printf("Reindex complete. Next run in %s.", interval)

		select {
		case <-ctx.Done():
			log.Println("Reindexer shutting down")
			return
		case <-time.After(interval):
		}
	}
}

func indexOnce(ctx context.Context, reset bool) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	pgClient, err := postgres.NewClient(&cfg.Database)
	if err != nil {
		return err
	}
	defer pgClient.Close()

	patientRepo := database.NewPatientAdapter(pgClient)

	tsClient, err := typesense.NewClient(&cfg.Typesense)
	if err != nil {
		return err
	}

	adapter := search.NewTypesenseAdapter(tsClient)

	if reset || os.Getenv("RESET_TYPESENSE") == "true" {
		log.Println("Reset requested, deleting patients collection")
		if err := adapter.DropCollection(ctx); err != nil {
			log.Printf("Warning: failed to delete collection: %v", err)
		}
	}

	if err := adapter.EnsureCollection(ctx); err != nil {
		return err
	}

	indexed := 0
	for offset := 0; ; offset += indexPageSize {
		patients, err := patientRepo.List(ctx, repositories.PatientFilter{
			Limit:  indexPageSize,
			Offset: offset,
		})
		if err != nil {
			return err
		}
		if len(patients) == 0 {
			break
		}

		for _, patient := range patients {
			if patient == nil {
				continue
			}
			if err := adapter.IndexPatient(ctx, patient); err != nil {
				log.Printf("Warning: failed to index patient %s: %v", patient.ID, err)
				continue
			}
			indexed++
		}

		if len(patients) < indexPageSize {
			break
		}
	}

	log.Printf("Indexed %d patients", indexed)
	return nil
}
