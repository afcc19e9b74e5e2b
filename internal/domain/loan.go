package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const (
	LoanStatusActive    = "active"
	LoanStatusCompleted = "completed"
	LoanStatusVoided    = "voided"
)

// Payment frequencies
const (
	FrequencyDaily       = "daily"
	FrequencyWeekly      = "weekly"
	FrequencyBiWeekly    = "bi-weekly"
	FrequencySemiMonthly = "semi-monthly"
	FrequencyMonthly     = "monthly"
)

// Interest methods
const (
	MethodFlat        = "flat"
	MethodDiminishing = "diminishing"
	MethodAddOn       = "add-on"
)

// LoanTerms is the immutable input to schedule generation.
type LoanTerms struct {
	Principal  decimal.Decimal
	AnnualRate decimal.Decimal
	TermCount  int
	Frequency  string
	Method     string
	StartDate  time.Time
	FixedFee   decimal.Decimal
}

// Loan represents a loan with its cached ledger summary. The summary columns
// (outstanding balance, last payment date, next due date) are recomputed from
// installment state after every allocation, never incrementally patched.
type Loan struct {
	ID                 uuid.UUID       `json:"id" db:"id"`
	LoanID             string          `json:"loan_id" db:"loan_id"`
	Principal          decimal.Decimal `json:"principal" db:"principal"`
	AnnualRate         decimal.Decimal `json:"annual_rate" db:"annual_rate"`
	TermCount          int             `json:"term_count" db:"term_count"`
	Frequency          string          `json:"frequency" db:"frequency"`
	Method             string          `json:"method" db:"method"`
	FixedFee           decimal.Decimal `json:"fixed_fee" db:"fixed_fee"`
	PenaltyRate        decimal.Decimal `json:"penalty_rate" db:"penalty_rate"`
	StartDate          time.Time       `json:"start_date" db:"start_date"`
	Status             string          `json:"status" db:"status"`
	OutstandingBalance decimal.Decimal `json:"outstanding_balance" db:"outstanding_balance"`
	LastPaymentDate    *time.Time      `json:"last_payment_date,omitempty" db:"last_payment_date"`
	NextDueDate        *time.Time      `json:"next_due_date,omitempty" db:"next_due_date"`
	CreatedAt          time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt          time.Time       `json:"updated_at" db:"updated_at"`
}

// Terms reconstructs the immutable terms the loan was disbursed with.
func (l *Loan) Terms() LoanTerms {
	return LoanTerms{
		Principal:  l.Principal,
		AnnualRate: l.AnnualRate,
		TermCount:  l.TermCount,
		Frequency:  l.Frequency,
		Method:     l.Method,
		StartDate:  l.StartDate,
		FixedFee:   l.FixedFee,
	}
}

// DTOs for requests and responses

type DisburseLoanRequest struct {
	LoanID     string          `json:"loan_id" validate:"required"`
	Principal  decimal.Decimal `json:"principal" validate:"required"`
	AnnualRate decimal.Decimal `json:"annual_rate"`
	TermCount  int             `json:"term_count" validate:"required,gt=0"`
	Frequency  string          `json:"frequency" validate:"required,oneof=daily weekly bi-weekly semi-monthly monthly"`
	Method     string          `json:"method" validate:"required,oneof=flat diminishing add-on"`
	StartDate  string          `json:"start_date" validate:"required,datetime=2006-01-02"`
	FixedFee   decimal.Decimal `json:"fixed_fee"`
}

type DisburseLoanResponse struct {
	Loan     *Loan          `json:"loan"`
	Schedule []*Installment `json:"schedule"`
}

type ScheduleResponse struct {
	LoanID   string         `json:"loan_id"`
	Schedule []*Installment `json:"schedule"`
}

type LoanSummaryResponse struct {
	LoanID             string          `json:"loan_id"`
	Status             string          `json:"status"`
	OutstandingBalance decimal.Decimal `json:"outstanding_balance"`
	LastPaymentDate    *time.Time      `json:"last_payment_date,omitempty"`
	NextDueDate        *time.Time      `json:"next_due_date,omitempty"`
}
