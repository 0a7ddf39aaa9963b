package main

import (
	"context"
	"log"
	"os"
	"time"

	"github.com/clinicflow/frontdesk/internal/adapters/database"
	"github.com/clinicflow/frontdesk/internal/adapters/search"
	"github.com/clinicflow/frontdesk/internal/application/services"
	"github.com/clinicflow/frontdesk/internal/domain/entities"
	"github.com/clinicflow/frontdesk/internal/domain/providers"
	"github.com/clinicflow/frontdesk/internal/infrastructure/clients/postgres"
	"github.com/clinicflow/frontdesk/internal/infrastructure/clients/typesense"
	"github.com/clinicflow/frontdesk/internal/infrastructure/observability"
	"github.com/clinicflow/frontdesk/pkg/config"
	"github.com/google/uuid"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	observability.InitLogger("frontdesk-seed", cfg.Server.Env)

	pgClient, err := postgres.NewClient(&cfg.Database)
	if err != nil {
		log.Fatalf("Failed to connect to DB: %v", err)
	}
	defer pgClient.Close()

	var searchProvider providers.PatientSearchProvider
	if tsClient, err := typesense.NewClient(&cfg.Typesense); err == nil {
		adapter := search.NewTypesenseAdapter(tsClient)
		if err := adapter.EnsureCollection(context.Background()); err != nil {
			log.Printf("Failed to init search collection: %v", err)
		}
		searchProvider = adapter
	}

	patientRepo := database.NewPatientAdapter(pgClient)
	appointmentRepo := database.NewAppointmentAdapter(pgClient)
	transactionRepo := database.NewTransactionAdapter(pgClient)
	expenseRepo := database.NewExpenseAdapter(pgClient)

	patientService := services.NewPatientService(patientRepo, searchProvider)

	ctx := context.Background()

	if os.Getenv("RESET_DB") == "true" {
		log.Println("RESET_DB=true detected, truncating tables before seeding")
		_, err := pgClient.DB().ExecContext(ctx, `
			TRUNCATE TABLE
				transactions,
				expenses,
				appointments,
				call_state,
				patients
			RESTART IDENTITY CASCADE
		`)
		if err != nil {
			log.Fatalf("Failed to reset tables: %v", err)
		}
	}

	now := time.Now()

	// 1. Seed patients
	patients := []*entities.Patient{
		{
			ID: uuid.New().String(), PatientID: "P-1001", Name: "أحمد الحربي",
			Phone: "0551000001", CurrentStatus: entities.PatientStatusActiveTreatment,
			TotalSessions: 12, CompletedSessions: 4,
			ChiefComplaint: "Lower back pain", StartDate: now.AddDate(0, -2, 0),
		},
		{
			ID: uuid.New().String(), PatientID: "P-1002", Name: "سارة القحطاني",
			Phone: "0551000002", CurrentStatus: entities.PatientStatusFinalPhase,
			TotalSessions: 10, CompletedSessions: 8,
			ChiefComplaint: "Post-surgery knee rehabilitation", StartDate: now.AddDate(0, -3, 0),
		},
		{
			ID: uuid.New().String(), PatientID: "P-1003", Name: "خالد العتيبي",
			Phone: "0551000003", CurrentStatus: entities.PatientStatusActiveTreatment,
			TotalSessions: 16, CompletedSessions: 2,
			ChiefComplaint: "Frozen shoulder", StartDate: now.AddDate(0, -1, 0),
		},
		{
			ID: uuid.New().String(), PatientID: "P-1004", Name: "نورة الشمري",
			Phone: "0551000004", CurrentStatus: entities.PatientStatusRetentionPhase,
			TotalSessions: 8, CompletedSessions: 8,
			ChiefComplaint: "Neck strain", StartDate: now.AddDate(0, -4, 0),
		},
	}

	for _, p := range patients {
		if err := patientService.Create(ctx, p); err != nil {
			log.Printf("Failed to create patient %s: %v", p.Name, err)
		}
	}

	// 2. Seed today's queue
	for i, p := range patients[:3] {
		appointment := &entities.Appointment{
			ID:          uuid.New().String(),
			PatientID:   p.ID,
			Status:      entities.AppointmentStatusWaiting,
			Description: "Scheduled session",
			QueueTime:   now.Add(time.Duration(i) * 5 * time.Minute),
			CreatedAt:   now,
			UpdatedAt:   now,
		}
		if err := appointmentRepo.Create(ctx, appointment); err != nil {
			log.Printf("Failed to create appointment for %s: %v", p.Name, err)
		}
	}

	// 3. Seed ledger entries (Record reconciles balances as it goes)
	for _, p := range patients {
		charge := &entities.Transaction{
			ID: uuid.New().String(), PatientID: p.ID, PatientName: p.Name,
			Date: now.AddDate(0, 0, -7), Description: "Treatment plan",
			Amount: 1200, Type: entities.TransactionTypeCharge,
			Status: entities.TransactionStatusPending, CreatedAt: now,
		}
		if err := transactionRepo.Record(ctx, charge); err != nil {
			log.Printf("Failed to record charge for %s: %v", p.Name, err)
		}

		payment := &entities.Transaction{
			ID: uuid.New().String(), PatientID: p.ID, PatientName: p.Name,
			Date: now.AddDate(0, 0, -3), Description: "Partial payment",
			Amount: 400, Type: entities.TransactionTypePayment,
			Status: entities.TransactionStatusPaid, CreatedAt: now,
		}
		if err := transactionRepo.Record(ctx, payment); err != nil {
			log.Printf("Failed to record payment for %s: %v", p.Name, err)
		}
	}

	// 4. Seed expenses
	expenses := []*entities.Expense{
		{ID: uuid.New().String(), Date: now.AddDate(0, 0, -10), Category: "supplies", Description: "Therapy bands and weights", Amount: 650, CreatedAt: now, UpdatedAt: now},
		{ID: uuid.New().String(), Date: now.AddDate(0, 0, -5), Category: "rent", Description: "Clinic rent", Amount: 9000, CreatedAt: now, UpdatedAt: now},
		{ID: uuid.New().String(), Date: now.AddDate(0, 0, -1), Category: "utilities", Description: "Electricity", Amount: 420, CreatedAt: now, UpdatedAt: now},
	}
	for _, e := range expenses {
		if err := expenseRepo.Create(ctx, e); err != nil {
			log.Printf("Failed to create expense %s: %v", e.Description, err)
		}
	}

	log.Println("Seeding complete")
}
