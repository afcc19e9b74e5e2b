package repository

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/apps-eduard/exits-loan-management-sub001/internal/domain"
)

// TxRunner runs a function inside one database transaction. Repository calls
// made with the context it passes to fn share that transaction; the whole set
// commits or rolls back together.
type TxRunner interface {
	RunInTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// LoanRepository defines the interface for loan data operations
type LoanRepository interface {
	// Create creates a new loan
	Create(ctx context.Context, loan *domain.Loan) error

	// GetByLoanID retrieves a loan by its loan ID
	GetByLoanID(ctx context.Context, loanID string) (*domain.Loan, error)

	// GetByLoanIDForUpdate retrieves a loan holding an exclusive row lock for
	// the duration of the surrounding transaction, serializing concurrent
	// payments against the same loan.
	GetByLoanIDForUpdate(ctx context.Context, loanID string) (*domain.Loan, error)

	// UpdateSummary writes the loan's recomputed ledger summary and status
	UpdateSummary(ctx context.Context, loan *domain.Loan) error
}

// InstallmentRepository defines the interface for installment data operations
type InstallmentRepository interface {
	// CreateBatch inserts a loan's full schedule in one transaction
	CreateBatch(ctx context.Context, installments []*domain.Installment) error

	// GetByLoanID retrieves a loan's installments ordered by number
	GetByLoanID(ctx context.Context, loanID string) ([]*domain.Installment, error)

	// Update writes an installment's mutable accumulation fields
	Update(ctx context.Context, installment *domain.Installment) error

	// MarkOverdue flips past-due pending/partial installments to overdue and
	// returns how many rows changed
	MarkOverdue(ctx context.Context, asOf time.Time) (int64, error)
}

// ReceiptRepository defines the interface for receipt data operations
type ReceiptRepository interface {
	// Create creates a new receipt record
	Create(ctx context.Context, receipt *domain.Receipt) error

	// CreateLines inserts the receipt's per-installment allocation lines
	CreateLines(ctx context.Context, lines []*domain.ReceiptLine) error

	// GetByReceiptNo retrieves a receipt by its business receipt number
	GetByReceiptNo(ctx context.Context, receiptNo string) (*domain.Receipt, error)

	// GetLinesByReceiptID retrieves a receipt's allocation lines
	GetLinesByReceiptID(ctx context.Context, receiptID uuid.UUID) ([]*domain.ReceiptLine, error)

	// GetLatestPostedByLoanID retrieves the most recent posted, non-reversal
	// receipt for a loan, or nil when the loan has none
	GetLatestPostedByLoanID(ctx context.Context, loanID string) (*domain.Receipt, error)

	// UpdateStatus updates a receipt's status
	UpdateStatus(ctx context.Context, receiptID uuid.UUID, status string) error
}
