package service_test

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/apps-eduard/exits-loan-management-sub001/internal/config"
	"github.com/apps-eduard/exits-loan-management-sub001/internal/domain"
	"github.com/apps-eduard/exits-loan-management-sub001/internal/service"
	customError "github.com/apps-eduard/exits-loan-management-sub001/pkg/errors"
	"github.com/apps-eduard/exits-loan-management-sub001/tests/mocks"
)

func testConfig() *config.Config {
	return &config.Config{
		Business: config.BusinessConfig{
			PenaltyRate:     "0.05",
			ReceiptCacheTTL: 24 * time.Hour,
			SummaryCacheTTL: 10 * time.Minute,
		},
	}
}

func disburseRequest() *domain.DisburseLoanRequest {
	return &domain.DisburseLoanRequest{
		LoanID:     "LN-1001",
		Principal:  decimal.NewFromInt(10000),
		AnnualRate: decimal.NewFromFloat(0.05),
		TermCount:  12,
		Frequency:  domain.FrequencyMonthly,
		Method:     domain.MethodFlat,
		StartDate:  "2025-01-10",
	}
}

func TestDisburseLoan(t *testing.T) {
	tests := []struct {
		name           string
		mutate         func(*domain.DisburseLoanRequest)
		setupMocks     func(*mocks.MockLoanRepository, *mocks.MockInstallmentRepository, *mocks.MockTxRunner)
		expectedErr    error
		validateResult func(*testing.T, *domain.Loan, []*domain.Installment)
	}{
		{
			name:   "Success - flat monthly loan",
			mutate: func(r *domain.DisburseLoanRequest) {},
			setupMocks: func(loanRepo *mocks.MockLoanRepository, instRepo *mocks.MockInstallmentRepository, tx *mocks.MockTxRunner) {
				loanRepo.On("GetByLoanID", mock.Anything, "LN-1001").Return(nil, sql.ErrNoRows)
				tx.On("RunInTx", mock.Anything, mock.Anything).Return(nil)
				loanRepo.On("Create", mock.Anything, mock.MatchedBy(func(loan *domain.Loan) bool {
					return loan.LoanID == "LN-1001" && loan.Status == domain.LoanStatusActive
				})).Return(nil)
				instRepo.On("CreateBatch", mock.Anything, mock.MatchedBy(func(schedule []*domain.Installment) bool {
					return len(schedule) == 12
				})).Return(nil)
			},
			validateResult: func(t *testing.T, loan *domain.Loan, schedule []*domain.Installment) {
				require.NotNil(t, loan)
				require.Len(t, schedule, 12)
				// 10000 principal + 6000 flat interest.
				assert.True(t, loan.OutstandingBalance.Equal(decimal.NewFromInt(16000)),
					"outstanding %s", loan.OutstandingBalance)
				require.NotNil(t, loan.NextDueDate)
				assert.True(t, loan.NextDueDate.Equal(schedule[0].DueDate))
				assert.True(t, loan.PenaltyRate.Equal(decimal.NewFromFloat(0.05)))
				for _, inst := range schedule {
					assert.Equal(t, "LN-1001", inst.LoanID)
					assert.NotEqual(t, "00000000-0000-0000-0000-000000000000", inst.ID.String())
				}
			},
		},
		{
			name:   "Failure - loan already exists",
			mutate: func(r *domain.DisburseLoanRequest) {},
			setupMocks: func(loanRepo *mocks.MockLoanRepository, instRepo *mocks.MockInstallmentRepository, tx *mocks.MockTxRunner) {
				loanRepo.On("GetByLoanID", mock.Anything, "LN-1001").Return(&domain.Loan{LoanID: "LN-1001"}, nil)
			},
			expectedErr: customError.ErrLoanAlreadyExists,
		},
		{
			name:   "Failure - invalid principal",
			mutate: func(r *domain.DisburseLoanRequest) { r.Principal = decimal.Zero },
			setupMocks: func(loanRepo *mocks.MockLoanRepository, instRepo *mocks.MockInstallmentRepository, tx *mocks.MockTxRunner) {
				loanRepo.On("GetByLoanID", mock.Anything, "LN-1001").Return(nil, sql.ErrNoRows)
			},
			expectedErr: customError.ErrInvalidTerms,
		},
		{
			name:   "Failure - malformed start date",
			mutate: func(r *domain.DisburseLoanRequest) { r.StartDate = "10-01-2025" },
			setupMocks: func(loanRepo *mocks.MockLoanRepository, instRepo *mocks.MockInstallmentRepository, tx *mocks.MockTxRunner) {
				loanRepo.On("GetByLoanID", mock.Anything, "LN-1001").Return(nil, sql.ErrNoRows)
			},
			expectedErr: customError.ErrInvalidTerms,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			loanRepo := new(mocks.MockLoanRepository)
			instRepo := new(mocks.MockInstallmentRepository)
			tx := new(mocks.MockTxRunner)
			tt.setupMocks(loanRepo, instRepo, tx)

			svc := service.NewLoanService(loanRepo, instRepo, tx, nil, testConfig())

			request := disburseRequest()
			tt.mutate(request)

			loan, schedule, err := svc.DisburseLoan(context.Background(), request)
			if tt.expectedErr != nil {
				assert.ErrorIs(t, err, tt.expectedErr)
				assert.Nil(t, loan)
				assert.Nil(t, schedule)
			} else {
				require.NoError(t, err)
				tt.validateResult(t, loan, schedule)
			}

			loanRepo.AssertExpectations(t)
			instRepo.AssertExpectations(t)
		})
	}
}

func TestGetSummary(t *testing.T) {
	lastPayment := time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC)
	nextDue := time.Date(2025, 3, 15, 0, 0, 0, 0, time.UTC)

	loanRepo := new(mocks.MockLoanRepository)
	loanRepo.On("GetByLoanID", mock.Anything, "LN-1001").Return(&domain.Loan{
		LoanID:             "LN-1001",
		Status:             domain.LoanStatusActive,
		OutstandingBalance: decimal.NewFromFloat(1234.56),
		LastPaymentDate:    &lastPayment,
		NextDueDate:        &nextDue,
	}, nil)

	svc := service.NewLoanService(loanRepo, new(mocks.MockInstallmentRepository), new(mocks.MockTxRunner), nil, testConfig())

	summary, err := svc.GetSummary(context.Background(), "LN-1001")
	require.NoError(t, err)
	assert.Equal(t, "LN-1001", summary.LoanID)
	assert.True(t, summary.OutstandingBalance.Equal(decimal.NewFromFloat(1234.56)))
	assert.Equal(t, &lastPayment, summary.LastPaymentDate)
	assert.Equal(t, &nextDue, summary.NextDueDate)
}

func TestGetSummaryLoanNotFound(t *testing.T) {
	loanRepo := new(mocks.MockLoanRepository)
	loanRepo.On("GetByLoanID", mock.Anything, "LN-MISSING").Return(nil, sql.ErrNoRows)

	svc := service.NewLoanService(loanRepo, new(mocks.MockInstallmentRepository), new(mocks.MockTxRunner), nil, testConfig())

	_, err := svc.GetSummary(context.Background(), "LN-MISSING")
	assert.ErrorIs(t, err, customError.ErrLoanNotFound)
}

func TestMarkOverdueInstallments(t *testing.T) {
	instRepo := new(mocks.MockInstallmentRepository)
	instRepo.On("MarkOverdue", mock.Anything, mock.Anything).Return(int64(3), nil)

	svc := service.NewLoanService(new(mocks.MockLoanRepository), instRepo, new(mocks.MockTxRunner), nil, testConfig())

	count, err := svc.MarkOverdueInstallments(context.Background(), time.Now())
	require.NoError(t, err)
	assert.Equal(t, int64(3), count)
}
