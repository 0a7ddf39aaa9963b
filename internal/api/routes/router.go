package routes

import (
	"net/http"

	"github.com/clinicflow/frontdesk/internal/api/handlers"
	"github.com/clinicflow/frontdesk/internal/api/middleware"
	"github.com/clinicflow/frontdesk/internal/infrastructure/observability"
)

// Router holds all route handlers
type Router struct {
	mux *http.ServeMux

	patientHandler *handlers.PatientHandler
	queueHandler   *handlers.QueueHandler
	roomHandler    *handlers.RoomHandler
	billingHandler *handlers.BillingHandler
	reportHandler  *handlers.ReportHandler
	displayHandler *handlers.DisplayHandler

	metrics *observability.Metrics
}

// NewRouter creates a new router
func NewRouter(
	patientHandler *handlers.PatientHandler,
	queueHandler *handlers.QueueHandler,
	roomHandler *handlers.RoomHandler,
	billingHandler *handlers.BillingHandler,
	reportHandler *handlers.ReportHandler,
	displayHandler *handlers.DisplayHandler,
	metrics *observability.Metrics,
) *Router {
	return &Router{
		mux: http.NewServeMux(),

		patientHandler: patientHandler,
		queueHandler:   queueHandler,
		roomHandler:    roomHandler,
		billingHandler: billingHandler,
		reportHandler:  reportHandler,
		displayHandler: displayHandler,

		metrics: metrics,
	}
}

// SetupRoutes configures all application routes
func (r *Router) SetupRoutes() http.Handler {
	// Health check endpoint
	r.mux.HandleFunc("GET /health", func(w http.ResponseWriter, req *http.Request) {
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write([]byte("OK")); err != nil {
			return
		}
	})

	// Patient endpoints
	r.mux.HandleFunc("POST /api/patients", r.patientHandler.CreatePatient)
	r.mux.HandleFunc("GET /api/patients", r.patientHandler.ListPatients)
	r.mux.HandleFunc("GET /api/patients/search", r.patientHandler.SearchPatients)
	r.mux.HandleFunc("GET /api/patients/{id}", r.patientHandler.GetPatient)
	r.mux.HandleFunc("PUT /api/patients/{id}", r.patientHandler.UpdatePatient)
	r.mux.HandleFunc("DELETE /api/patients/{id}", r.patientHandler.DeletePatient)
	r.mux.HandleFunc("POST /api/patients/{id}/sessions/complete", r.patientHandler.CompleteSession)
	r.mux.HandleFunc("GET /api/patients/{id}/appointments", r.queueHandler.ListPatientAppointments)
	r.mux.HandleFunc("GET /api/patients/{id}/balance", r.billingHandler.GetBalance)

	// Appointment queue endpoints
	r.mux.HandleFunc("POST /api/appointments", r.queueHandler.CreateAppointment)
	r.mux.HandleFunc("GET /api/appointments", r.queueHandler.ListAppointments)
	r.mux.HandleFunc("GET /api/appointments/{id}", r.queueHandler.GetAppointment)
	r.mux.HandleFunc("POST /api/appointments/{id}/call", r.queueHandler.CallToRoom)
	r.mux.HandleFunc("POST /api/appointments/{id}/start", r.queueHandler.StartConsultation)
	r.mux.HandleFunc("POST /api/appointments/{id}/complete", r.queueHandler.CompleteVisit)
	r.mux.HandleFunc("POST /api/appointments/{id}/cancel", r.queueHandler.CancelVisit)
	r.mux.HandleFunc("POST /api/appointments/{id}/miss", r.queueHandler.MarkMissed)

	// Call state and rooms
	r.mux.HandleFunc("GET /api/call-state", r.queueHandler.GetCallState)
	r.mux.HandleFunc("GET /api/rooms", r.roomHandler.ListRooms)

	// Ledger endpoints
	r.mux.HandleFunc("POST /api/transactions", r.billingHandler.RecordTransaction)
	r.mux.HandleFunc("GET /api/transactions", r.billingHandler.ListTransactions)
	r.mux.HandleFunc("GET /api/transactions/{id}", r.billingHandler.GetTransaction)

	// Expense endpoints
	r.mux.HandleFunc("POST /api/expenses", r.billingHandler.CreateExpense)
	r.mux.HandleFunc("GET /api/expenses", r.billingHandler.ListExpenses)
	r.mux.HandleFunc("PUT /api/expenses/{id}", r.billingHandler.UpdateExpense)
	r.mux.HandleFunc("DELETE /api/expenses/{id}", r.billingHandler.DeleteExpense)

	// Report endpoints
	if r.reportHandler != nil {
		r.mux.HandleFunc("GET /api/reports/financial", r.reportHandler.GetFinancialSummary)
		r.mux.HandleFunc("GET /api/reports/queue", r.reportHandler.GetQueueCounts)
		r.mux.HandleFunc("GET /api/reports/visits", r.reportHandler.GetCompletedVisits)
	}

	// Display endpoints are also mounted here so a single-process deployment
	// works without the dedicated display server
	if r.displayHandler != nil {
		r.mux.HandleFunc("GET /api/display/stream", r.displayHandler.StreamUpdates)
		r.mux.HandleFunc("GET /api/display/snapshot", r.displayHandler.GetSnapshot)
		r.mux.HandleFunc("GET /api/display/announcements/{id}", r.displayHandler.GetAnnouncementAudio)
	}

	// Apply middleware in reverse order (last middleware wraps first)
	var handler http.Handler = r.mux
	handler = middleware.LoggingMiddleware(handler)
	handler = middleware.ObservabilityMiddleware(r.metrics)(handler)
	handler = middleware.CORSMiddleware(handler)

	return handler
}
