package engine

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/apps-eduard/exits-loan-management-sub001/internal/domain"
	customError "github.com/apps-eduard/exits-loan-management-sub001/pkg/errors"
	"github.com/apps-eduard/exits-loan-management-sub001/pkg/money"
)

// AllocationLine is the exact delta one allocation applied to one installment.
type AllocationLine struct {
	Installment          *domain.Installment
	PenaltyAssessedDelta decimal.Decimal
	PenaltyPaid          decimal.Decimal
	InterestPaid         decimal.Decimal
	FeePaid              decimal.Decimal
	PrincipalPaid        decimal.Decimal
}

// AllocationResult aggregates an allocation across every installment it
// touched. PenaltyTotal + InterestTotal + FeeTotal + PrincipalTotal + Advance
// always equals the amount tendered.
type AllocationResult struct {
	Lines          []AllocationLine
	PenaltyTotal   decimal.Decimal
	InterestTotal  decimal.Decimal
	FeeTotal       decimal.Decimal
	PrincipalTotal decimal.Decimal
	Advance        decimal.Decimal
}

// Allocate waterfalls a payment across the loan's unsettled installments,
// oldest first: penalty, then interest, then fee, then principal. Whatever is
// left after every installment is satisfied is surfaced as an advance, never
// discarded. The passed installments are mutated in place; callers hand in
// freshly loaded state under the loan's transaction lock.
func Allocate(installments []*domain.Installment, amount decimal.Decimal, paymentDate time.Time, penaltyRate decimal.Decimal) (*AllocationResult, error) {
	if !amount.IsPositive() {
		return nil, customError.WrapInvalidPaymentAmount(amount.String())
	}
	if len(installments) == 0 {
		return nil, customError.ErrNoPendingInstallments
	}

	sort.Slice(installments, func(i, j int) bool {
		return installments[i].Number < installments[j].Number
	})

	paymentDay := DateOnly(paymentDate)
	result := &AllocationResult{
		PenaltyTotal:   decimal.Zero,
		InterestTotal:  decimal.Zero,
		FeeTotal:       decimal.Zero,
		PrincipalTotal: decimal.Zero,
	}

	remaining := amount
	for _, inst := range installments {
		if remaining.IsZero() {
			break
		}
		if inst.IsSettled() {
			continue
		}

		line := AllocationLine{
			Installment:          inst,
			PenaltyAssessedDelta: decimal.Zero,
			PenaltyPaid:          decimal.Zero,
			InterestPaid:         decimal.Zero,
			FeePaid:              decimal.Zero,
			PrincipalPaid:        decimal.Zero,
		}

		// Penalty is a one-shot charge per installment, a fixed fraction of
		// the total due regardless of how many days late, minus whatever was
		// assessed by earlier payments.
		if paymentDay.After(DateOnly(inst.DueDate)) {
			target := money.Round(inst.TotalDue.Mul(penaltyRate))
			delta := target.Sub(inst.PenaltyAssessed)
			if delta.IsPositive() {
				inst.PenaltyAssessed = target
				line.PenaltyAssessedDelta = delta
			}
		}

		line.PenaltyPaid = payDown(&remaining, inst.PenaltyAssessed.Sub(inst.PenaltyPaid))
		line.InterestPaid = payDown(&remaining, inst.InterestDue.Sub(inst.InterestPaid))
		line.FeePaid = payDown(&remaining, inst.FeeDue.Sub(inst.FeePaid))
		line.PrincipalPaid = payDown(&remaining, inst.PrincipalDue.Sub(inst.PrincipalPaid))

		inst.PenaltyPaid = inst.PenaltyPaid.Add(line.PenaltyPaid)
		inst.InterestPaid = inst.InterestPaid.Add(line.InterestPaid)
		inst.FeePaid = inst.FeePaid.Add(line.FeePaid)
		inst.PrincipalPaid = inst.PrincipalPaid.Add(line.PrincipalPaid)
		inst.AmountPaid = inst.PenaltyPaid.Add(inst.InterestPaid).Add(inst.FeePaid).Add(inst.PrincipalPaid)
		inst.Status = DeriveStatus(inst.AmountPaid, inst.TotalDue, inst.PenaltyAssessed, inst.DueDate, paymentDay)

		paid := line.PenaltyPaid.Add(line.InterestPaid).Add(line.FeePaid).Add(line.PrincipalPaid)
		if paid.IsPositive() || line.PenaltyAssessedDelta.IsPositive() {
			result.Lines = append(result.Lines, line)
			result.PenaltyTotal = result.PenaltyTotal.Add(line.PenaltyPaid)
			result.InterestTotal = result.InterestTotal.Add(line.InterestPaid)
			result.FeeTotal = result.FeeTotal.Add(line.FeePaid)
			result.PrincipalTotal = result.PrincipalTotal.Add(line.PrincipalPaid)
		}
	}

	result.Advance = remaining
	return result, nil
}

// payDown moves up to outstanding out of remaining and returns how much moved.
func payDown(remaining *decimal.Decimal, outstanding decimal.Decimal) decimal.Decimal {
	outstanding = money.ClampZero(outstanding)
	paid := money.Min(*remaining, outstanding)
	*remaining = remaining.Sub(paid)
	return paid
}

// Reverse subtracts the given receipt lines from the matching installments and
// re-derives their statuses, restoring the state the allocation found. It is
// the engine half of voiding a receipt.
func Reverse(installments []*domain.Installment, lines []*domain.ReceiptLine, today time.Time) error {
	byID := make(map[string]*domain.Installment, len(installments))
	for _, inst := range installments {
		byID[inst.ID.String()] = inst
	}

	for _, line := range lines {
		inst, ok := byID[line.InstallmentID.String()]
		if !ok {
			return customError.ErrConcurrentModification
		}

		inst.PenaltyAssessed = inst.PenaltyAssessed.Sub(line.PenaltyAssessedDelta)
		inst.PenaltyPaid = inst.PenaltyPaid.Sub(line.PenaltyPaid)
		inst.InterestPaid = inst.InterestPaid.Sub(line.InterestPaid)
		inst.FeePaid = inst.FeePaid.Sub(line.FeePaid)
		inst.PrincipalPaid = inst.PrincipalPaid.Sub(line.PrincipalPaid)

		if inst.PenaltyAssessed.IsNegative() || inst.PenaltyPaid.IsNegative() ||
			inst.InterestPaid.IsNegative() || inst.FeePaid.IsNegative() ||
			inst.PrincipalPaid.IsNegative() {
			return customError.ErrConcurrentModification
		}

		inst.AmountPaid = inst.PenaltyPaid.Add(inst.InterestPaid).Add(inst.FeePaid).Add(inst.PrincipalPaid)
		inst.Status = DeriveStatus(inst.AmountPaid, inst.TotalDue, inst.PenaltyAssessed, inst.DueDate, today)
	}

	return nil
}

// Summarize recomputes the loan's ledger summary from installment state. The
// summary is always derived this way rather than patched incrementally.
func Summarize(installments []*domain.Installment) (outstanding decimal.Decimal, nextDueDate *time.Time) {
	outstanding = decimal.Zero
	for _, inst := range installments {
		outstanding = outstanding.Add(inst.Outstanding())
		if !inst.IsSettled() && nextDueDate == nil {
			due := inst.DueDate
			nextDueDate = &due
		}
	}
	return outstanding, nextDueDate
}
