package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const (
	ReceiptStatusPosted = "posted"
	ReceiptStatusVoided = "voided"
)

// Payment methods accepted at collection.
const (
	PaymentMethodCash     = "cash"
	PaymentMethodTransfer = "transfer"
	PaymentMethodCheck    = "check"
)

// Receipt is the immutable record of one collection event and its overall
// allocation breakdown. Voiding never alters these figures; it flips the
// status and writes a compensating reversal receipt referencing this one.
type Receipt struct {
	ID               uuid.UUID       `json:"id" db:"id"`
	ReceiptNo        string          `json:"receipt_no" db:"receipt_no"`
	LoanID           string          `json:"loan_id" db:"loan_id"`
	Amount           decimal.Decimal `json:"amount" db:"amount"`
	PaymentDate      time.Time       `json:"payment_date" db:"payment_date"`
	Method           string          `json:"method" db:"method"`
	Reference        string          `json:"reference" db:"reference"`
	CollectorID      string          `json:"collector_id" db:"collector_id"`
	PenaltyPortion   decimal.Decimal `json:"penalty_portion" db:"penalty_portion"`
	InterestPortion  decimal.Decimal `json:"interest_portion" db:"interest_portion"`
	FeePortion       decimal.Decimal `json:"fee_portion" db:"fee_portion"`
	PrincipalPortion decimal.Decimal `json:"principal_portion" db:"principal_portion"`
	AdvancePortion   decimal.Decimal `json:"advance_portion" db:"advance_portion"`
	Status           string          `json:"status" db:"status"`
	ReversalOf       *uuid.UUID      `json:"reversal_of,omitempty" db:"reversal_of"`
	CreatedAt        time.Time       `json:"created_at" db:"created_at"`
}

// ReceiptLine records the exact deltas one receipt applied to one installment,
// so a void can reverse the allocation installment by installment.
type ReceiptLine struct {
	ID                   uuid.UUID       `json:"id" db:"id"`
	ReceiptID            uuid.UUID       `json:"receipt_id" db:"receipt_id"`
	InstallmentID        uuid.UUID       `json:"installment_id" db:"installment_id"`
	InstallmentNumber    int             `json:"installment_number" db:"installment_number"`
	PenaltyAssessedDelta decimal.Decimal `json:"penalty_assessed_delta" db:"penalty_assessed_delta"`
	PenaltyPaid          decimal.Decimal `json:"penalty_paid" db:"penalty_paid"`
	InterestPaid         decimal.Decimal `json:"interest_paid" db:"interest_paid"`
	FeePaid              decimal.Decimal `json:"fee_paid" db:"fee_paid"`
	PrincipalPaid        decimal.Decimal `json:"principal_paid" db:"principal_paid"`
	CreatedAt            time.Time       `json:"created_at" db:"created_at"`
}

// DTOs for requests and responses

type MakePaymentRequest struct {
	ReceiptNo   string          `json:"receipt_no" validate:"required"`
	Amount      decimal.Decimal `json:"amount" validate:"required"`
	PaymentDate string          `json:"payment_date" validate:"required,datetime=2006-01-02"`
	Method      string          `json:"method" validate:"required,oneof=cash transfer check"`
	Reference   string          `json:"reference"`
	CollectorID string          `json:"collector_id"`
}

type MakePaymentResponse struct {
	Receipt      *Receipt       `json:"receipt"`
	Installments []*Installment `json:"installments"`
}

type VoidPaymentResponse struct {
	Original *Receipt `json:"original"`
	Reversal *Receipt `json:"reversal"`
}
