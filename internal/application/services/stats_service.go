package services

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/clinicflow/frontdesk/internal/domain/providers"
	"github.com/clinicflow/frontdesk/internal/infrastructure/observability"
	apperrors "github.com/clinicflow/frontdesk/pkg/errors"
	"github.com/jmoiron/sqlx"
)

const statsCacheTTLSeconds = 60

// FinancialSummary aggregates the ledger and the expense book over a range
type FinancialSummary struct {
	From             time.Time `json:"from"`
	To               time.Time `json:"to"`
	Income           float64   `json:"income" db:"income"`
	Charges          float64   `json:"charges" db:"charges"`
	Expenses         float64   `json:"expenses" db:"expenses"`
	Net              float64   `json:"net"`
	OutstandingTotal float64   `json:"outstanding_total" db:"outstanding_total"`
}

// QueueCounts breaks down today's appointments by status
type QueueCounts struct {
	Waiting        int `json:"waiting" db:"waiting"`
	InRoom         int `json:"in_room" db:"in_room"`
	InConsultation int `json:"in_consultation" db:"in_consultation"`
	Completed      int `json:"completed" db:"completed"`
	Canceled       int `json:"canceled" db:"canceled"`
	Missed         int `json:"missed" db:"missed"`
}

// DailyVisitCount counts completed visits on one day
type DailyVisitCount struct {
	Day   string `json:"day" db:"day"`
	Count int    `json:"count" db:"count"`
}

// StatsService serves the reports and financials pages with read-only SQL
// aggregates. Results are cached briefly; the front desk refreshes these
// views constantly and the numbers do not need to be second-accurate.
type StatsService struct {
	db    *sqlx.DB
	cache providers.CacheProvider
}

// NewStatsService creates a new stats service
func NewStatsService(db *sqlx.DB, cache providers.CacheProvider) *StatsService {
	return &StatsService{
		db:    db,
		cache: cache,
	}
}

// FinancialSummary aggregates income, charges and expenses over [from, to)
func (s *StatsService) FinancialSummary(ctx context.Context, from, to time.Time) (*FinancialSummary, error) {
	if !to.After(from) {
		return nil, apperrors.NewValidationError("to must be after from")
	}

	cacheKey := fmt.Sprintf("stats:financial:%d:%d", from.Unix(), to.Unix())
	var summary FinancialSummary
	if s.fromCache(ctx, cacheKey, &summary) {
		return &summary, nil
	}

	query := `
		SELECT
			COALESCE((SELECT SUM(amount) FROM transactions
				WHERE type = 'payment' AND status = 'paid'
				AND date >= $1 AND date < $2), 0) AS income,
			COALESCE((SELECT SUM(amount) FROM transactions
				WHERE type = 'charge'
				AND date >= $1 AND date < $2), 0) AS charges,
			COALESCE((SELECT SUM(amount) FROM expenses
				WHERE date >= $1 AND date < $2), 0) AS expenses,
			COALESCE((SELECT SUM(outstanding_balance) FROM patients), 0) AS outstanding_total`

	if err := s.db.GetContext(ctx, &summary, query, from, to); err != nil {
		return nil, apperrors.NewInternalError("failed to aggregate financials", err)
	}

	summary.From = from
	summary.To = to
	summary.Net = summary.Income - summary.Expenses

	s.toCache(ctx, cacheKey, &summary)
	return &summary, nil
}

// QueueCountsToday breaks down appointments queued today by status
func (s *StatsService) QueueCountsToday(ctx context.Context) (*QueueCounts, error) {
	dayStart := time.Now().Truncate(24 * time.Hour)

	cacheKey := fmt.Sprintf("stats:queue:%d", dayStart.Unix())
	var counts QueueCounts
	if s.fromCache(ctx, cacheKey, &counts) {
		return &counts, nil
	}

	query := `
		SELECT
			COUNT(*) FILTER (WHERE status = 'waiting') AS waiting,
			COUNT(*) FILTER (WHERE status = 'in_room') AS in_room,
			COUNT(*) FILTER (WHERE status = 'in_consultation') AS in_consultation,
			COUNT(*) FILTER (WHERE status = 'completed') AS completed,
			COUNT(*) FILTER (WHERE status = 'canceled') AS canceled,
			COUNT(*) FILTER (WHERE status = 'missed') AS missed
		FROM appointments
		WHERE queue_time >= $1`

	if err := s.db.GetContext(ctx, &counts, query, dayStart); err != nil {
		return nil, apperrors.NewInternalError("failed to count queue statuses", err)
	}

	s.toCache(ctx, cacheKey, &counts)
	return &counts, nil
}

// CompletedVisitsPerDay counts completed visits per day over [from, to)
func (s *StatsService) CompletedVisitsPerDay(ctx context.Context, from, to time.Time) ([]DailyVisitCount, error) {
	if !to.After(from) {
		return nil, apperrors.NewValidationError("to must be after from")
	}

	cacheKey := fmt.Sprintf("stats:visits:%d:%d", from.Unix(), to.Unix())
	var counts []DailyVisitCount
	if s.fromCache(ctx, cacheKey, &counts) {
		return counts, nil
	}

	query := `
		SELECT to_char(completed_time, 'YYYY-MM-DD') AS day, COUNT(*) AS count
		FROM appointments
		WHERE status = 'completed'
		AND completed_time >= $1 AND completed_time < $2
		GROUP BY day
		ORDER BY day`

	if err := s.db.SelectContext(ctx, &counts, query, from, to); err != nil {
		return nil, apperrors.NewInternalError("failed to count completed visits", err)
	}

	s.toCache(ctx, cacheKey, counts)
	return counts, nil
}

func (s *StatsService) fromCache(ctx context.Context, key string, dest interface{}) bool {
	if s.cache == nil {
		return false
	}
	data, err := s.cache.Get(ctx, key)
	if err != nil || data == nil {
		return false
	}
	if err := json.Unmarshal(data, dest); err != nil {
		return false
	}
	return true
}

func (s *StatsService) toCache(ctx context.Context, key string, value interface{}) {
	if s.cache == nil {
		return
	}
	data, err := json.Marshal(value)
	if err != nil {
		return
	}
	if err := s.cache.Set(ctx, key, data, statsCacheTTLSeconds); err != nil {
		observability.GetLogger().Debug().Err(err).Str("key", key).
			Msg("failed to cache stats")
	}
}
