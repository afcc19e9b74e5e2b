package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/apps-eduard/exits-loan-management-sub001/internal/config"
	"github.com/apps-eduard/exits-loan-management-sub001/internal/domain"
	"github.com/apps-eduard/exits-loan-management-sub001/internal/engine"
	"github.com/apps-eduard/exits-loan-management-sub001/internal/repository"
	customError "github.com/apps-eduard/exits-loan-management-sub001/pkg/errors"
)

func receiptIdemKey(receiptNo string) string {
	return fmt.Sprintf("receipt:idem:%s", receiptNo)
}

// PaymentService owns payment allocation and voiding. Each operation runs its
// read-modify-write inside one transaction, holding a row lock on the loan so
// concurrent payments against the same loan serialize while payments against
// different loans proceed independently.
type PaymentService struct {
	LoanRepo        repository.LoanRepository
	InstallmentRepo repository.InstallmentRepository
	ReceiptRepo     repository.ReceiptRepository
	tx              repository.TxRunner
	cache           Cache
	config          *config.Config
}

func NewPaymentService(
	loanRepo repository.LoanRepository,
	installmentRepo repository.InstallmentRepository,
	receiptRepo repository.ReceiptRepository,
	tx repository.TxRunner,
	cache Cache,
	config *config.Config,
) *PaymentService {
	return &PaymentService{
		LoanRepo:        loanRepo,
		InstallmentRepo: installmentRepo,
		ReceiptRepo:     receiptRepo,
		tx:              tx,
		cache:           cache,
		config:          config,
	}
}

// MakePayment allocates one collection across the loan's pending installments.
// Resubmitting a receipt number that already committed returns the committed
// receipt without allocating again.
func (s *PaymentService) MakePayment(ctx context.Context, loanID string, request *domain.MakePaymentRequest) (*domain.Receipt, []*domain.Installment, error) {
	if !request.Amount.IsPositive() {
		return nil, nil, customError.WrapInvalidPaymentAmount(request.Amount.String())
	}

	paymentDate, err := time.Parse("2006-01-02", request.PaymentDate)
	if err != nil {
		return nil, nil, customError.WrapInvalidPaymentAmount("payment date must be in YYYY-MM-DD format")
	}

	// Fast-path duplicate guard. The unique receipt_no inside the transaction
	// is the authoritative check; redis only short-circuits obvious retries.
	if s.cache != nil {
		set, err := s.cache.SetNX(ctx, receiptIdemKey(request.ReceiptNo), loanID, s.config.Business.ReceiptCacheTTL).Result()
		if err != nil {
			log.Warn().Err(err).Str("receipt_no", request.ReceiptNo).Msg("receipt idempotency cache unavailable")
		} else if !set {
			if existing, err := s.ReceiptRepo.GetByReceiptNo(ctx, request.ReceiptNo); err == nil {
				installments, _ := s.InstallmentRepo.GetByLoanID(ctx, existing.LoanID)
				return existing, installments, nil
			}
		}
	}

	var (
		receipt      *domain.Receipt
		installments []*domain.Installment
	)

	err = s.tx.RunInTx(ctx, func(ctx context.Context) error {
		loan, err := s.LoanRepo.GetByLoanIDForUpdate(ctx, loanID)
		if errors.Is(err, sql.ErrNoRows) {
			return customError.WrapLoanNotFound(loanID)
		}
		if err != nil {
			return customError.WrapDatabaseError(err)
		}

		// Authoritative idempotency check, under the loan lock.
		existing, err := s.ReceiptRepo.GetByReceiptNo(ctx, request.ReceiptNo)
		if err == nil && existing != nil {
			receipt = existing
			installments, err = s.InstallmentRepo.GetByLoanID(ctx, loanID)
			if err != nil {
				return customError.WrapDatabaseError(err)
			}
			return nil
		}
		if err != nil && !errors.Is(err, sql.ErrNoRows) {
			return customError.WrapDatabaseError(err)
		}

		installments, err = s.InstallmentRepo.GetByLoanID(ctx, loanID)
		if err != nil {
			return customError.WrapDatabaseError(err)
		}

		pending := unsettled(installments)
		if len(pending) == 0 {
			return customError.WrapNoPendingInstallments(loanID)
		}

		result, err := engine.Allocate(pending, request.Amount, paymentDate, loan.PenaltyRate)
		if err != nil {
			if errors.Is(err, customError.ErrNoPendingInstallments) {
				return customError.WrapNoPendingInstallments(loanID)
			}
			return err
		}

		now := time.Now()
		receipt = &domain.Receipt{
			ID:               uuid.New(),
			ReceiptNo:        request.ReceiptNo,
			LoanID:           loanID,
			Amount:           request.Amount,
			PaymentDate:      engine.DateOnly(paymentDate),
			Method:           request.Method,
			Reference:        request.Reference,
			CollectorID:      request.CollectorID,
			PenaltyPortion:   result.PenaltyTotal,
			InterestPortion:  result.InterestTotal,
			FeePortion:       result.FeeTotal,
			PrincipalPortion: result.PrincipalTotal,
			AdvancePortion:   result.Advance,
			Status:           domain.ReceiptStatusPosted,
			CreatedAt:        now,
		}

		lines := make([]*domain.ReceiptLine, 0, len(result.Lines))
		for _, l := range result.Lines {
			lines = append(lines, &domain.ReceiptLine{
				ID:                   uuid.New(),
				ReceiptID:            receipt.ID,
				InstallmentID:        l.Installment.ID,
				InstallmentNumber:    l.Installment.Number,
				PenaltyAssessedDelta: l.PenaltyAssessedDelta,
				PenaltyPaid:          l.PenaltyPaid,
				InterestPaid:         l.InterestPaid,
				FeePaid:              l.FeePaid,
				PrincipalPaid:        l.PrincipalPaid,
				CreatedAt:            now,
			})
		}

		if err := s.ReceiptRepo.Create(ctx, receipt); err != nil {
			return customError.WrapDatabaseError(err)
		}
		if err := s.ReceiptRepo.CreateLines(ctx, lines); err != nil {
			return customError.WrapDatabaseError(err)
		}
		for _, l := range result.Lines {
			if err := s.InstallmentRepo.Update(ctx, l.Installment); err != nil {
				return customError.WrapDatabaseError(err)
			}
		}

		paidDate := receipt.PaymentDate
		return s.refreshSummary(ctx, loan, installments, &paidDate)
	})
	if err != nil {
		return nil, nil, err
	}

	s.invalidateSummary(ctx, loanID)

	log.Info().
		Str("loan_id", loanID).
		Str("receipt_no", receipt.ReceiptNo).
		Str("amount", receipt.Amount.String()).
		Str("penalty", receipt.PenaltyPortion.String()).
		Str("principal", receipt.PrincipalPortion.String()).
		Str("advance", receipt.AdvancePortion.String()).
		Msg("payment allocated")

	return receipt, installments, nil
}

// VoidPayment reverses exactly the allocation one receipt applied. Only the
// loan's most recent posted receipt may be voided; voiding anything earlier
// would tangle with allocations that came after it.
func (s *PaymentService) VoidPayment(ctx context.Context, receiptNo string) (*domain.VoidPaymentResponse, error) {
	var (
		original *domain.Receipt
		reversal *domain.Receipt
	)

	err := s.tx.RunInTx(ctx, func(ctx context.Context) error {
		receipt, err := s.ReceiptRepo.GetByReceiptNo(ctx, receiptNo)
		if errors.Is(err, sql.ErrNoRows) {
			return customError.WrapReceiptNotFound(receiptNo)
		}
		if err != nil {
			return customError.WrapDatabaseError(err)
		}
		if receipt.Status == domain.ReceiptStatusVoided {
			return customError.WrapReceiptAlreadyVoided(receiptNo)
		}
		if receipt.ReversalOf != nil {
			return customError.NewBusinessError(
				customError.ErrCodeReceiptAlreadyVoided,
				fmt.Sprintf("Receipt %s is a reversal and cannot be voided", receiptNo),
				customError.ErrReceiptAlreadyVoided,
			)
		}

		loan, err := s.LoanRepo.GetByLoanIDForUpdate(ctx, receipt.LoanID)
		if err != nil {
			return customError.WrapDatabaseError(err)
		}

		latest, err := s.ReceiptRepo.GetLatestPostedByLoanID(ctx, receipt.LoanID)
		if err != nil {
			return customError.WrapDatabaseError(err)
		}
		if latest == nil || latest.ID != receipt.ID {
			return customError.WrapReceiptNotLatest(receiptNo)
		}

		lines, err := s.ReceiptRepo.GetLinesByReceiptID(ctx, receipt.ID)
		if err != nil {
			return customError.WrapDatabaseError(err)
		}

		installments, err := s.InstallmentRepo.GetByLoanID(ctx, receipt.LoanID)
		if err != nil {
			return customError.WrapDatabaseError(err)
		}

		if err := engine.Reverse(installments, lines, time.Now()); err != nil {
			return customError.WrapConcurrentModification(receipt.LoanID)
		}

		touched := make(map[uuid.UUID]bool, len(lines))
		for _, line := range lines {
			touched[line.InstallmentID] = true
		}
		for _, inst := range installments {
			if touched[inst.ID] {
				if err := s.InstallmentRepo.Update(ctx, inst); err != nil {
					return customError.WrapDatabaseError(err)
				}
			}
		}

		if err := s.ReceiptRepo.UpdateStatus(ctx, receipt.ID, domain.ReceiptStatusVoided); err != nil {
			return customError.WrapDatabaseError(err)
		}

		now := time.Now()
		reversal = &domain.Receipt{
			ID:               uuid.New(),
			ReceiptNo:        receiptNo + "-VOID",
			LoanID:           receipt.LoanID,
			Amount:           receipt.Amount.Neg(),
			PaymentDate:      engine.DateOnly(now),
			Method:           receipt.Method,
			Reference:        receipt.ReceiptNo,
			CollectorID:      receipt.CollectorID,
			PenaltyPortion:   receipt.PenaltyPortion.Neg(),
			InterestPortion:  receipt.InterestPortion.Neg(),
			FeePortion:       receipt.FeePortion.Neg(),
			PrincipalPortion: receipt.PrincipalPortion.Neg(),
			AdvancePortion:   receipt.AdvancePortion.Neg(),
			Status:           domain.ReceiptStatusPosted,
			ReversalOf:       &receipt.ID,
			CreatedAt:        now,
		}
		if err := s.ReceiptRepo.Create(ctx, reversal); err != nil {
			return customError.WrapDatabaseError(err)
		}

		// The last payment date falls back to the previous remaining receipt.
		previous, err := s.ReceiptRepo.GetLatestPostedByLoanID(ctx, receipt.LoanID)
		if err != nil {
			return customError.WrapDatabaseError(err)
		}
		var lastPayment *time.Time
		if previous != nil {
			lastPayment = &previous.PaymentDate
		}

		receipt.Status = domain.ReceiptStatusVoided
		original = receipt

		return s.refreshSummary(ctx, loan, installments, lastPayment)
	})
	if err != nil {
		return nil, err
	}

	s.invalidateSummary(ctx, original.LoanID)
	if s.cache != nil {
		if err := s.cache.Del(ctx, receiptIdemKey(receiptNo)).Err(); err != nil {
			log.Warn().Err(err).Str("receipt_no", receiptNo).Msg("failed to drop receipt idempotency key")
		}
	}

	log.Info().
		Str("loan_id", original.LoanID).
		Str("receipt_no", receiptNo).
		Str("amount", original.Amount.String()).
		Msg("payment voided")

	return &domain.VoidPaymentResponse{Original: original, Reversal: reversal}, nil
}

// refreshSummary recomputes the loan's cached ledger summary from installment
// state and persists it alongside the allocation, inside the same transaction.
func (s *PaymentService) refreshSummary(ctx context.Context, loan *domain.Loan, installments []*domain.Installment, lastPayment *time.Time) error {
	outstanding, nextDue := engine.Summarize(installments)

	loan.OutstandingBalance = outstanding
	loan.NextDueDate = nextDue
	loan.LastPaymentDate = lastPayment

	if outstanding.IsZero() {
		loan.Status = domain.LoanStatusCompleted
	} else if loan.Status == domain.LoanStatusCompleted {
		// A void can reopen a loan that had been settled.
		loan.Status = domain.LoanStatusActive
	}

	if err := s.LoanRepo.UpdateSummary(ctx, loan); err != nil {
		return customError.WrapDatabaseError(err)
	}
	return nil
}

func (s *PaymentService) invalidateSummary(ctx context.Context, loanID string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Del(ctx, summaryCacheKey(loanID)).Err(); err != nil {
		log.Warn().Err(err).Str("loan_id", loanID).Msg("failed to invalidate summary cache")
	}
}

func unsettled(installments []*domain.Installment) []*domain.Installment {
	pending := make([]*domain.Installment, 0, len(installments))
	for _, inst := range installments {
		if !inst.IsSettled() {
			pending = append(pending, inst)
		}
	}
	return pending
}
