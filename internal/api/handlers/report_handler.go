package handlers

import (
	"net/http"
	"time"

	"github.com/clinicflow/frontdesk/internal/application/services"
)

// ReportHandler serves the reports and financials pages
type ReportHandler struct {
	statsService *services.StatsService
}

// NewReportHandler creates a new report handler
func NewReportHandler(statsService *services.StatsService) *ReportHandler {
	return &ReportHandler{
		statsService: statsService,
	}
}

// GetFinancialSummary handles GET /api/reports/financial?from=...&to=...
// The range defaults to the current day.
func (h *ReportHandler) GetFinancialSummary(w http.ResponseWriter, r *http.Request) {
	from, to, ok := h.parseRange(w, r)
	if !ok {
		return
	}

	summary, err := h.statsService.FinancialSummary(r.Context(), from, to)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, summary)
}

// GetQueueCounts handles GET /api/reports/queue
func (h *ReportHandler) GetQueueCounts(w http.ResponseWriter, r *http.Request) {
	counts, err := h.statsService.QueueCountsToday(r.Context())
	if err != nil {
		handleServiceError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, counts)
}

// GetCompletedVisits handles GET /api/reports/visits?from=...&to=...
func (h *ReportHandler) GetCompletedVisits(w http.ResponseWriter, r *http.Request) {
	from, to, ok := h.parseRange(w, r)
	if !ok {
		return
	}

	counts, err := h.statsService.CompletedVisitsPerDay(r.Context(), from, to)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"visits": counts,
		"count":  len(counts),
	})
}

func (h *ReportHandler) parseRange(w http.ResponseWriter, r *http.Request) (time.Time, time.Time, bool) {
	query := r.URL.Query()

	dayStart := time.Now().Truncate(24 * time.Hour)
	from := dayStart
	to := dayStart.Add(24 * time.Hour)

	if value := query.Get("from"); value != "" {
		parsed, err := time.Parse(time.RFC3339, value)
		if err != nil {
			respondWithError(w, http.StatusBadRequest, "invalid from parameter, expected RFC3339")
			return from, to, false
		}
		from = parsed
	}
	if value := query.Get("to"); value != "" {
		parsed, err := time.Parse(time.RFC3339, value)
		if err != nil {
			respondWithError(w, http.StatusBadRequest, "invalid to parameter, expected RFC3339")
			return from, to, false
		}
		to = parsed
	}

	return from, to, true
}
