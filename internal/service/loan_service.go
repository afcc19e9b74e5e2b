package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"github.com/apps-eduard/exits-loan-management-sub001/internal/config"
	"github.com/apps-eduard/exits-loan-management-sub001/internal/domain"
	"github.com/apps-eduard/exits-loan-management-sub001/internal/engine"
	"github.com/apps-eduard/exits-loan-management-sub001/internal/repository"
	customError "github.com/apps-eduard/exits-loan-management-sub001/pkg/errors"
)

// Cache is the subset of the redis client the services use.
type Cache interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
	SetNX(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.BoolCmd
	Del(ctx context.Context, keys ...string) *redis.IntCmd
}

func summaryCacheKey(loanID string) string {
	return fmt.Sprintf("loan:summary:%s", loanID)
}

// LoanService owns loan disbursement and schedule/summary reads.
type LoanService struct {
	LoanRepo        repository.LoanRepository
	InstallmentRepo repository.InstallmentRepository
	tx              repository.TxRunner
	cache           Cache
	config          *config.Config
}

func NewLoanService(
	loanRepo repository.LoanRepository,
	installmentRepo repository.InstallmentRepository,
	tx repository.TxRunner,
	cache Cache,
	config *config.Config,
) *LoanService {
	return &LoanService{
		LoanRepo:        loanRepo,
		InstallmentRepo: installmentRepo,
		tx:              tx,
		cache:           cache,
		config:          config,
	}
}

// DisburseLoan validates the terms, materializes the installment schedule and
// persists loan plus schedule in one transaction. Generation errors abort the
// disbursement entirely; no partial schedule is ever written.
func (s *LoanService) DisburseLoan(ctx context.Context, request *domain.DisburseLoanRequest) (*domain.Loan, []*domain.Installment, error) {
	existing, err := s.LoanRepo.GetByLoanID(ctx, request.LoanID)
	if err == nil && existing != nil {
		return nil, nil, customError.WrapLoanAlreadyExists(request.LoanID)
	}
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, nil, customError.WrapDatabaseError(err)
	}

	startDate, err := time.Parse("2006-01-02", request.StartDate)
	if err != nil {
		return nil, nil, customError.WrapInvalidTerms("start date must be in YYYY-MM-DD format")
	}

	terms := domain.LoanTerms{
		Principal:  request.Principal,
		AnnualRate: request.AnnualRate,
		TermCount:  request.TermCount,
		Frequency:  request.Frequency,
		Method:     request.Method,
		StartDate:  startDate,
		FixedFee:   request.FixedFee,
	}

	schedule, err := engine.GenerateSchedule(terms)
	if err != nil {
		return nil, nil, err
	}

	now := time.Now()
	for _, inst := range schedule {
		inst.ID = uuid.New()
		inst.LoanID = request.LoanID
		inst.CreatedAt = now
		inst.UpdatedAt = now
	}

	outstanding, nextDue := engine.Summarize(schedule)

	loan := &domain.Loan{
		ID:                 uuid.New(),
		LoanID:             request.LoanID,
		Principal:          terms.Principal,
		AnnualRate:         terms.AnnualRate,
		TermCount:          terms.TermCount,
		Frequency:          terms.Frequency,
		Method:             terms.Method,
		FixedFee:           terms.FixedFee,
		PenaltyRate:        s.config.GetPenaltyRate(),
		StartDate:          terms.StartDate,
		Status:             domain.LoanStatusActive,
		OutstandingBalance: outstanding,
		NextDueDate:        nextDue,
		CreatedAt:          now,
		UpdatedAt:          now,
	}

	err = s.tx.RunInTx(ctx, func(ctx context.Context) error {
		if err := s.LoanRepo.Create(ctx, loan); err != nil {
			return customError.WrapDatabaseError(err)
		}
		if err := s.InstallmentRepo.CreateBatch(ctx, schedule); err != nil {
			return customError.WrapDatabaseError(err)
		}
		return nil
	})
	if err != nil {
		return nil, nil, err
	}

	log.Info().
		Str("loan_id", loan.LoanID).
		Str("method", loan.Method).
		Str("frequency", loan.Frequency).
		Int("installments", len(schedule)).
		Str("outstanding", outstanding.String()).
		Msg("loan disbursed")

	return loan, schedule, nil
}

// GetSchedule returns the loan's materialized installment schedule.
func (s *LoanService) GetSchedule(ctx context.Context, loanID string) ([]*domain.Installment, error) {
	if _, err := s.getLoan(ctx, loanID); err != nil {
		return nil, err
	}

	installments, err := s.InstallmentRepo.GetByLoanID(ctx, loanID)
	if err != nil {
		return nil, customError.WrapDatabaseError(err)
	}

	return installments, nil
}

// GetSummary returns the loan's cached ledger summary, reading through redis.
func (s *LoanService) GetSummary(ctx context.Context, loanID string) (*domain.LoanSummaryResponse, error) {
	if s.cache != nil {
		cached, err := s.cache.Get(ctx, summaryCacheKey(loanID)).Result()
		if err == nil {
			var summary domain.LoanSummaryResponse
			if json.Unmarshal([]byte(cached), &summary) == nil {
				return &summary, nil
			}
		}
	}

	loan, err := s.getLoan(ctx, loanID)
	if err != nil {
		return nil, err
	}

	summary := &domain.LoanSummaryResponse{
		LoanID:             loan.LoanID,
		Status:             loan.Status,
		OutstandingBalance: loan.OutstandingBalance,
		LastPaymentDate:    loan.LastPaymentDate,
		NextDueDate:        loan.NextDueDate,
	}

	if s.cache != nil {
		if payload, err := json.Marshal(summary); err == nil {
			if err := s.cache.Set(ctx, summaryCacheKey(loanID), payload, s.config.Business.SummaryCacheTTL).Err(); err != nil {
				log.Warn().Err(err).Str("loan_id", loanID).Msg("failed to cache loan summary")
			}
		}
	}

	return summary, nil
}

// MarkOverdueInstallments flips past-due unpaid installments to overdue. The
// scheduler binary runs this daily.
func (s *LoanService) MarkOverdueInstallments(ctx context.Context, asOf time.Time) (int64, error) {
	count, err := s.InstallmentRepo.MarkOverdue(ctx, engine.DateOnly(asOf))
	if err != nil {
		return 0, customError.WrapDatabaseError(err)
	}

	if count > 0 {
		log.Info().Int64("installments", count).Time("as_of", asOf).Msg("marked installments overdue")
	}

	return count, nil
}

func (s *LoanService) getLoan(ctx context.Context, loanID string) (*domain.Loan, error) {
	loan, err := s.LoanRepo.GetByLoanID(ctx, loanID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, customError.WrapLoanNotFound(loanID)
	}
	if err != nil {
		return nil, customError.WrapDatabaseError(err)
	}
	return loan, nil
}
