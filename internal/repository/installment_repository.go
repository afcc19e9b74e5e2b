package repository

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/apps-eduard/exits-loan-management-sub001/internal/domain"
)

type installmentRepository struct {
	db *sqlx.DB
}

func NewInstallmentRepository(db *sqlx.DB) InstallmentRepository {
	return &installmentRepository{db: db}
}

const installmentColumns = `
	id, loan_id, number, due_date, principal_due, interest_due, fee_due,
	total_due, penalty_assessed, penalty_paid, interest_paid, fee_paid,
	principal_paid, amount_paid, status, created_at, updated_at
`

func (r *installmentRepository) CreateBatch(ctx context.Context, installments []*domain.Installment) error {
	query := `
		INSERT INTO installments (` + installmentColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)
	`

	q := queryer(ctx, r.db)
	for _, inst := range installments {
		_, err := q.ExecContext(ctx, query,
			inst.ID,
			inst.LoanID,
			inst.Number,
			inst.DueDate,
			inst.PrincipalDue,
			inst.InterestDue,
			inst.FeeDue,
			inst.TotalDue,
			inst.PenaltyAssessed,
			inst.PenaltyPaid,
			inst.InterestPaid,
			inst.FeePaid,
			inst.PrincipalPaid,
			inst.AmountPaid,
			inst.Status,
			inst.CreatedAt,
			inst.UpdatedAt,
		)
		if err != nil {
			return err
		}
	}

	return nil
}

func (r *installmentRepository) GetByLoanID(ctx context.Context, loanID string) ([]*domain.Installment, error) {
	query := `
		SELECT ` + installmentColumns + `
		FROM installments
		WHERE loan_id = $1
		ORDER BY number
	`

	var installments []*domain.Installment
	if err := sqlx.SelectContext(ctx, queryer(ctx, r.db), &installments, query, loanID); err != nil {
		return nil, err
	}

	return installments, nil
}

func (r *installmentRepository) Update(ctx context.Context, installment *domain.Installment) error {
	query := `
		UPDATE installments
		SET penalty_assessed = $2, penalty_paid = $3, interest_paid = $4,
		    fee_paid = $5, principal_paid = $6, amount_paid = $7, status = $8,
		    updated_at = $9
		WHERE id = $1
	`

	_, err := queryer(ctx, r.db).ExecContext(ctx, query,
		installment.ID,
		installment.PenaltyAssessed,
		installment.PenaltyPaid,
		installment.InterestPaid,
		installment.FeePaid,
		installment.PrincipalPaid,
		installment.AmountPaid,
		installment.Status,
		time.Now(),
	)

	return err
}

func (r *installmentRepository) MarkOverdue(ctx context.Context, asOf time.Time) (int64, error) {
	query := `
		UPDATE installments
		SET status = 'overdue', updated_at = $2
		WHERE due_date < $1 AND status IN ('pending', 'partial')
	`

	result, err := queryer(ctx, r.db).ExecContext(ctx, query, asOf, time.Now())
	if err != nil {
		return 0, err
	}

	return result.RowsAffected()
}
