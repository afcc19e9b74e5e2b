package repository

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/apps-eduard/exits-loan-management-sub001/internal/domain"
)

type loanRepository struct {
	db *sqlx.DB
}

func NewLoanRepository(db *sqlx.DB) LoanRepository {
	return &loanRepository{db: db}
}

const loanColumns = `
	id, loan_id, principal, annual_rate, term_count, frequency, method,
	fixed_fee, penalty_rate, start_date, status, outstanding_balance,
	last_payment_date, next_due_date, created_at, updated_at
`

func (r *loanRepository) Create(ctx context.Context, loan *domain.Loan) error {
	query := `
		INSERT INTO loans (` + loanColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
	`

	_, err := queryer(ctx, r.db).ExecContext(ctx, query,
		loan.ID,
		loan.LoanID,
		loan.Principal,
		loan.AnnualRate,
		loan.TermCount,
		loan.Frequency,
		loan.Method,
		loan.FixedFee,
		loan.PenaltyRate,
		loan.StartDate,
		loan.Status,
		loan.OutstandingBalance,
		loan.LastPaymentDate,
		loan.NextDueDate,
		loan.CreatedAt,
		loan.UpdatedAt,
	)

	return err
}

func (r *loanRepository) GetByLoanID(ctx context.Context, loanID string) (*domain.Loan, error) {
	query := `SELECT ` + loanColumns + ` FROM loans WHERE loan_id = $1`

	var loan domain.Loan
	if err := sqlx.GetContext(ctx, queryer(ctx, r.db), &loan, query, loanID); err != nil {
		return nil, err
	}

	return &loan, nil
}

func (r *loanRepository) GetByLoanIDForUpdate(ctx context.Context, loanID string) (*domain.Loan, error) {
	query := `SELECT ` + loanColumns + ` FROM loans WHERE loan_id = $1 FOR UPDATE`

	var loan domain.Loan
	if err := sqlx.GetContext(ctx, queryer(ctx, r.db), &loan, query, loanID); err != nil {
		return nil, err
	}

	return &loan, nil
}

func (r *loanRepository) UpdateSummary(ctx context.Context, loan *domain.Loan) error {
	query := `
		UPDATE loans
		SET status = $2, outstanding_balance = $3, last_payment_date = $4,
		    next_due_date = $5, updated_at = $6
		WHERE loan_id = $1
	`

	_, err := queryer(ctx, r.db).ExecContext(ctx, query,
		loan.LoanID,
		loan.Status,
		loan.OutstandingBalance,
		loan.LastPaymentDate,
		loan.NextDueDate,
		time.Now(),
	)

	return err
}
