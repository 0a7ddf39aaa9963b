package entities

import (
	"time"
)

// TransactionType distinguishes money owed from money received
type TransactionType string

const (
	TransactionTypePayment TransactionType = "payment"
	TransactionTypeCharge  TransactionType = "charge"
)

// TransactionStatus represents the settlement state of a ledger entry
type TransactionStatus string

const (
	TransactionStatusPaid    TransactionStatus = "paid"
	TransactionStatusPending TransactionStatus = "pending"
)

// Transaction is an immutable ledger entry for a patient. Entries are only
// ever appended; corrections are new entries.
type Transaction struct {
	ID          string            `json:"id" db:"id"`
	PatientID   string            `json:"patient_id" db:"patient_id"`
	PatientName string            `json:"patient_name" db:"patient_name"`
	Date        time.Time         `json:"date" db:"date"`
	Description string            `json:"description" db:"description"`
	Amount      float64           `json:"amount" db:"amount"`
	Type        TransactionType   `json:"type" db:"type"`
	Status      TransactionStatus `json:"status" db:"status"`
	CreatedAt   time.Time         `json:"created_at" db:"created_at"`
}

// Expense is a clinic operating expense, separate from the patient ledger
type Expense struct {
	ID          string    `json:"id" db:"id"`
	Date        time.Time `json:"date" db:"date"`
	Category    string    `json:"category" db:"category"`
	Description string    `json:"description" db:"description"`
	Amount      float64   `json:"amount" db:"amount"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time `json:"updated_at" db:"updated_at"`
}
