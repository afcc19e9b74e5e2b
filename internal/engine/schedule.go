// Package engine holds the pure loan computations: schedule generation,
// payment allocation and status derivation. Nothing in this package performs
// I/O; persistence and locking are the service layer's concern.
package engine

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/apps-eduard/exits-loan-management-sub001/internal/domain"
	customError "github.com/apps-eduard/exits-loan-management-sub001/pkg/errors"
	"github.com/apps-eduard/exits-loan-management-sub001/pkg/money"
)

// GenerateSchedule materializes the draft installment schedule for the given
// terms. It is deterministic: the same terms always produce the same schedule.
// Row ids and the loan id are assigned by the caller at persistence time.
func GenerateSchedule(terms domain.LoanTerms) ([]*domain.Installment, error) {
	if err := validateTerms(terms); err != nil {
		return nil, err
	}

	count := InstallmentCount(terms.Frequency, terms.TermCount)
	dueDates := dueDates(terms.StartDate, terms.Frequency, count)

	var (
		principals []decimal.Decimal
		interests  []decimal.Decimal
		err        error
	)

	switch terms.Method {
	case domain.MethodFlat, domain.MethodAddOn:
		// Add-on is a product label for flat interest, same arithmetic.
		principals, interests = flatSchedule(terms, count)
	case domain.MethodDiminishing:
		principals, interests, err = diminishingSchedule(terms, count)
		if err != nil {
			return nil, err
		}
	}

	fees := money.SplitEven(terms.FixedFee, count)

	totalInterest := decimal.Zero
	for _, in := range interests {
		totalInterest = totalInterest.Add(in)
	}
	totalPayable := terms.Principal.Add(totalInterest).Add(terms.FixedFee)

	installments := make([]*domain.Installment, 0, count)
	sumTotals := decimal.Zero
	for i := 0; i < count; i++ {
		totalDue := principals[i].Add(interests[i]).Add(fees[i])
		sumTotals = sumTotals.Add(totalDue)

		installments = append(installments, &domain.Installment{
			Number:          i + 1,
			DueDate:         dueDates[i],
			PrincipalDue:    principals[i],
			InterestDue:     interests[i],
			FeeDue:          fees[i],
			TotalDue:        totalDue,
			PenaltyAssessed: decimal.Zero,
			PenaltyPaid:     decimal.Zero,
			InterestPaid:    decimal.Zero,
			FeePaid:         decimal.Zero,
			PrincipalPaid:   decimal.Zero,
			AmountPaid:      decimal.Zero,
			Status:          domain.InstallmentStatusPending,
		})
	}

	// A mismatch here means a generator bug; fail loudly instead of letting
	// the ledger drift by a cent.
	if !sumTotals.Equal(totalPayable) {
		return nil, customError.WrapRoundingInvariant(totalPayable.String(), sumTotals.String())
	}

	return installments, nil
}

// InstallmentCount derives how many installments a term produces at the given
// frequency: semi-monthly pays twice per term, bi-weekly approximates 26
// payments per year (term * 26/12, rounded up), everything else pays once.
func InstallmentCount(frequency string, termCount int) int {
	switch frequency {
	case domain.FrequencySemiMonthly:
		return termCount * 2
	case domain.FrequencyBiWeekly:
		return (termCount*26 + 11) / 12
	default:
		return termCount
	}
}

func validateTerms(terms domain.LoanTerms) error {
	if !terms.Principal.IsPositive() {
		return customError.WrapInvalidTerms("principal must be greater than zero")
	}
	if terms.TermCount <= 0 {
		return customError.WrapInvalidTerms("term count must be greater than zero")
	}
	if terms.AnnualRate.IsNegative() {
		return customError.WrapInvalidTerms("interest rate must not be negative")
	}
	if terms.FixedFee.IsNegative() {
		return customError.WrapInvalidTerms("fixed fee must not be negative")
	}
	switch terms.Frequency {
	case domain.FrequencyDaily, domain.FrequencyWeekly, domain.FrequencyBiWeekly,
		domain.FrequencySemiMonthly, domain.FrequencyMonthly:
	default:
		return customError.WrapInvalidTerms(fmt.Sprintf("unrecognized payment frequency %q", terms.Frequency))
	}
	switch terms.Method {
	case domain.MethodFlat, domain.MethodDiminishing, domain.MethodAddOn:
	default:
		return customError.WrapInvalidTerms(fmt.Sprintf("unrecognized interest method %q", terms.Method))
	}
	return nil
}

// flatSchedule splits principal and flat interest evenly across installments.
// Interest is computed once on the original principal for the full term count
// (term count, not installment count).
func flatSchedule(terms domain.LoanTerms, count int) (principals, interests []decimal.Decimal) {
	totalInterest := money.Round(terms.Principal.Mul(terms.AnnualRate).Mul(decimal.NewFromInt(int64(terms.TermCount))))
	return money.SplitEven(terms.Principal, count), money.SplitEven(totalInterest, count)
}

// diminishingSchedule amortizes the principal with the standard annuity
// formula. Per-installment figures are rounded to currency precision as they
// are emitted; the final installment's principal share is clamped so the
// remaining balance lands on exactly zero.
func diminishingSchedule(terms domain.LoanTerms, count int) (principals, interests []decimal.Decimal, err error) {
	rate := PeriodicRate(terms.AnnualRate, terms.Frequency)

	principals = make([]decimal.Decimal, count)
	interests = make([]decimal.Decimal, count)

	if rate.IsZero() {
		principals = money.SplitEven(terms.Principal, count)
		for i := range interests {
			interests[i] = decimal.Zero
		}
		return principals, interests, nil
	}

	// payment = P * r(1+r)^n / ((1+r)^n - 1), kept unrounded for the loop.
	one := decimal.NewFromInt(1)
	compound := one.Add(rate).Pow(decimal.NewFromInt(int64(count)))
	payment := terms.Principal.Mul(rate).Mul(compound).Div(compound.Sub(one))

	remaining := money.Round(terms.Principal)
	for i := 0; i < count; i++ {
		rawInterest := remaining.Mul(rate)
		interests[i] = money.Round(rawInterest)

		if i == count-1 {
			principals[i] = remaining
		} else {
			principals[i] = money.Round(payment.Sub(rawInterest))
		}
		remaining = remaining.Sub(principals[i])
	}

	if !remaining.IsZero() {
		return nil, nil, customError.WrapRoundingInvariant("0", remaining.String())
	}

	return principals, interests, nil
}

// PeriodicRate converts a nominal annual rate to the rate of one payment
// period at the given frequency.
func PeriodicRate(annualRate decimal.Decimal, frequency string) decimal.Decimal {
	return annualRate.Div(decimal.NewFromInt(PeriodsPerYear(frequency)))
}

// PeriodsPerYear returns how many payment periods the frequency fits in a year.
func PeriodsPerYear(frequency string) int64 {
	switch frequency {
	case domain.FrequencyDaily:
		return 365
	case domain.FrequencyWeekly:
		return 52
	case domain.FrequencyBiWeekly:
		return 26
	case domain.FrequencySemiMonthly:
		return 24
	default:
		return 12
	}
}

// dueDates computes the due date of every installment by stepping from the
// start date with frequency-specific rules.
func dueDates(start time.Time, frequency string, count int) []time.Time {
	start = DateOnly(start)
	dates := make([]time.Time, 0, count)

	switch frequency {
	case domain.FrequencyDaily:
		for i := 1; i <= count; i++ {
			dates = append(dates, start.AddDate(0, 0, i))
		}
	case domain.FrequencyWeekly:
		for i := 1; i <= count; i++ {
			dates = append(dates, start.AddDate(0, 0, i*7))
		}
	case domain.FrequencyBiWeekly:
		for i := 1; i <= count; i++ {
			dates = append(dates, start.AddDate(0, 0, i*14))
		}
	case domain.FrequencySemiMonthly:
		// Odd installments fall on the 15th, even installments on the last
		// calendar day of the same month. When the start date is on or past
		// the 15th the first pair moves to the next month so due dates stay
		// strictly after the start date.
		year, month, _ := start.Date()
		if start.Day() >= 15 {
			month++
		}
		for i := 1; i <= count; i++ {
			if i%2 == 1 {
				dates = append(dates, time.Date(year, month, 15, 0, 0, 0, 0, time.UTC))
			} else {
				dates = append(dates, lastDayOfMonth(year, month))
				month++
			}
		}
	case domain.FrequencyMonthly:
		// Keep the start's day-of-month; months without that day fall back to
		// their last day (Jan 31 -> Feb 28 -> Mar 31).
		for i := 1; i <= count; i++ {
			dates = append(dates, addMonthsClamped(start, i))
		}
	}

	return dates
}

func lastDayOfMonth(year int, month time.Month) time.Time {
	return time.Date(year, month+1, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 0, -1)
}

func addMonthsClamped(t time.Time, months int) time.Time {
	year, month, day := t.Date()
	month += time.Month(months)

	last := lastDayOfMonth(year, month)
	if day > last.Day() {
		day = last.Day()
	}
	return time.Date(last.Year(), last.Month(), day, 0, 0, 0, 0, time.UTC)
}

// DateOnly truncates a timestamp to its calendar date in UTC.
func DateOnly(t time.Time) time.Time {
	year, month, day := t.Date()
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}
