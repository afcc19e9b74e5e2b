package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const (
	InstallmentStatusPending = "pending"
	InstallmentStatusPartial = "partial"
	InstallmentStatusPaid    = "paid"
	InstallmentStatusOverdue = "overdue"
)

// Installment is one row of a loan's materialized schedule. The due columns are
// written once at disbursement and never regenerated; only the paid columns,
// penalty and status change, and only through the payment allocator.
type Installment struct {
	ID              uuid.UUID       `json:"id" db:"id"`
	LoanID          string          `json:"loan_id" db:"loan_id"`
	Number          int             `json:"number" db:"number"`
	DueDate         time.Time       `json:"due_date" db:"due_date"`
	PrincipalDue    decimal.Decimal `json:"principal_due" db:"principal_due"`
	InterestDue     decimal.Decimal `json:"interest_due" db:"interest_due"`
	FeeDue          decimal.Decimal `json:"fee_due" db:"fee_due"`
	TotalDue        decimal.Decimal `json:"total_due" db:"total_due"`
	PenaltyAssessed decimal.Decimal `json:"penalty_assessed" db:"penalty_assessed"`
	PenaltyPaid     decimal.Decimal `json:"penalty_paid" db:"penalty_paid"`
	InterestPaid    decimal.Decimal `json:"interest_paid" db:"interest_paid"`
	FeePaid         decimal.Decimal `json:"fee_paid" db:"fee_paid"`
	PrincipalPaid   decimal.Decimal `json:"principal_paid" db:"principal_paid"`
	AmountPaid      decimal.Decimal `json:"amount_paid" db:"amount_paid"`
	Status          string          `json:"status" db:"status"`
	CreatedAt       time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at" db:"updated_at"`
}

// Outstanding returns what remains owed on the installment including penalty.
func (i *Installment) Outstanding() decimal.Decimal {
	out := i.TotalDue.Add(i.PenaltyAssessed).Sub(i.AmountPaid)
	if out.IsNegative() {
		return decimal.Zero
	}
	return out
}

// IsSettled reports whether the installment is fully paid including penalty.
func (i *Installment) IsSettled() bool {
	return i.AmountPaid.GreaterThanOrEqual(i.TotalDue.Add(i.PenaltyAssessed))
}
