package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/apps-eduard/exits-loan-management-sub001/internal/domain"
)

type receiptRepository struct {
	db *sqlx.DB
}

func NewReceiptRepository(db *sqlx.DB) ReceiptRepository {
	return &receiptRepository{db: db}
}

const receiptColumns = `
	id, receipt_no, loan_id, amount, payment_date, method, reference,
	collector_id, penalty_portion, interest_portion, fee_portion,
	principal_portion, advance_portion, status, reversal_of, created_at
`

func (r *receiptRepository) Create(ctx context.Context, receipt *domain.Receipt) error {
	query := `
		INSERT INTO receipts (` + receiptColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
	`

	_, err := queryer(ctx, r.db).ExecContext(ctx, query,
		receipt.ID,
		receipt.ReceiptNo,
		receipt.LoanID,
		receipt.Amount,
		receipt.PaymentDate,
		receipt.Method,
		receipt.Reference,
		receipt.CollectorID,
		receipt.PenaltyPortion,
		receipt.InterestPortion,
		receipt.FeePortion,
		receipt.PrincipalPortion,
		receipt.AdvancePortion,
		receipt.Status,
		receipt.ReversalOf,
		receipt.CreatedAt,
	)

	return err
}

func (r *receiptRepository) CreateLines(ctx context.Context, lines []*domain.ReceiptLine) error {
	query := `
		INSERT INTO receipt_lines (
			id, receipt_id, installment_id, installment_number,
			penalty_assessed_delta, penalty_paid, interest_paid, fee_paid,
			principal_paid, created_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`

	q := queryer(ctx, r.db)
	for _, line := range lines {
		_, err := q.ExecContext(ctx, query,
			line.ID,
			line.ReceiptID,
			line.InstallmentID,
			line.InstallmentNumber,
			line.PenaltyAssessedDelta,
			line.PenaltyPaid,
			line.InterestPaid,
			line.FeePaid,
			line.PrincipalPaid,
			line.CreatedAt,
		)
		if err != nil {
			return err
		}
	}

	return nil
}

func (r *receiptRepository) GetByReceiptNo(ctx context.Context, receiptNo string) (*domain.Receipt, error) {
	query := `SELECT ` + receiptColumns + ` FROM receipts WHERE receipt_no = $1`

	var receipt domain.Receipt
	if err := sqlx.GetContext(ctx, queryer(ctx, r.db), &receipt, query, receiptNo); err != nil {
		return nil, err
	}

	return &receipt, nil
}

func (r *receiptRepository) GetLinesByReceiptID(ctx context.Context, receiptID uuid.UUID) ([]*domain.ReceiptLine, error) {
	query := `
		SELECT id, receipt_id, installment_id, installment_number,
		       penalty_assessed_delta, penalty_paid, interest_paid, fee_paid,
		       principal_paid, created_at
		FROM receipt_lines
		WHERE receipt_id = $1
		ORDER BY installment_number
	`

	var lines []*domain.ReceiptLine
	if err := sqlx.SelectContext(ctx, queryer(ctx, r.db), &lines, query, receiptID); err != nil {
		return nil, err
	}

	return lines, nil
}

func (r *receiptRepository) GetLatestPostedByLoanID(ctx context.Context, loanID string) (*domain.Receipt, error) {
	query := `
		SELECT ` + receiptColumns + `
		FROM receipts
		WHERE loan_id = $1 AND status = 'posted' AND reversal_of IS NULL
		ORDER BY created_at DESC
		LIMIT 1
	`

	var receipt domain.Receipt
	err := sqlx.GetContext(ctx, queryer(ctx, r.db), &receipt, query, loanID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	return &receipt, nil
}

func (r *receiptRepository) UpdateStatus(ctx context.Context, receiptID uuid.UUID, status string) error {
	query := `UPDATE receipts SET status = $2 WHERE id = $1`

	_, err := queryer(ctx, r.db).ExecContext(ctx, query, receiptID, status)
	return err
}
