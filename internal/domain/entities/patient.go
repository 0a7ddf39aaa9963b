package entities

import (
	"time"
)

// PatientStatus represents where a patient is in their treatment plan
type PatientStatus string

const (
	PatientStatusActiveTreatment PatientStatus = "active_treatment"
	PatientStatusFinalPhase      PatientStatus = "final_phase"
	PatientStatusRetentionPhase  PatientStatus = "retention_phase"
	PatientStatusCompleted       PatientStatus = "completed"
)

// Patient represents a patient registered at the clinic
type Patient struct {
	ID                 string        `json:"id" db:"id"`
	PatientID          string        `json:"patient_id" db:"patient_id"`
	Name               string        `json:"name" db:"name"`
	DateOfBirth        time.Time     `json:"date_of_birth" db:"date_of_birth"`
	Phone              string        `json:"phone" db:"phone"`
	Email              string        `json:"email" db:"email"`
	Address            string        `json:"address" db:"address"`
	StartDate          time.Time     `json:"start_date" db:"start_date"`
	CurrentStatus      PatientStatus `json:"current_status" db:"current_status"`
	TotalSessions      int           `json:"total_sessions" db:"total_sessions"`
	CompletedSessions  int           `json:"completed_sessions" db:"completed_sessions"`
	RemainingSessions  int           `json:"remaining_sessions" db:"remaining_sessions"`
	ChiefComplaint     string        `json:"chief_complaint" db:"chief_complaint"`
	Notes              string        `json:"notes" db:"notes"`
	OutstandingBalance float64       `json:"outstanding_balance" db:"outstanding_balance"`
	CreatedAt          time.Time     `json:"created_at" db:"created_at"`
	UpdatedAt          time.Time     `json:"updated_at" db:"updated_at"`
}

// SyncSessionCounters recomputes the remaining session counter from the
// total and completed counters. Remaining never goes negative.
func (p *Patient) SyncSessionCounters() {
	remaining := p.TotalSessions - p.CompletedSessions
	if remaining < 0 {
		remaining = 0
	}
	p.RemainingSessions = remaining
}

// ValidateSessionCounters checks the treatment counter invariant
func (p *Patient) ValidateSessionCounters() bool {
	if p.TotalSessions < 0 || p.CompletedSessions < 0 {
		return false
	}
	return p.CompletedSessions <= p.TotalSessions
}
