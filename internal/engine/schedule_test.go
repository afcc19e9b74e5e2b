package engine

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/apps-eduard/exits-loan-management-sub001/internal/domain"
	customError "github.com/apps-eduard/exits-loan-management-sub001/pkg/errors"
)

func flatTerms() domain.LoanTerms {
	return domain.LoanTerms{
		Principal:  decimal.NewFromInt(10000),
		AnnualRate: decimal.NewFromFloat(0.05),
		TermCount:  12,
		Frequency:  domain.FrequencyMonthly,
		Method:     domain.MethodFlat,
		StartDate:  time.Date(2025, 1, 10, 0, 0, 0, 0, time.UTC),
		FixedFee:   decimal.Zero,
	}
}

func TestGenerateScheduleFlat(t *testing.T) {
	schedule, err := GenerateSchedule(flatTerms())
	require.NoError(t, err)
	require.Len(t, schedule, 12)

	// 10000 * 0.05 * 12 = 6000 interest, 16000 total payable.
	sum := decimal.Zero
	for _, inst := range schedule {
		sum = sum.Add(inst.TotalDue)
	}
	assert.True(t, sum.Equal(decimal.NewFromInt(16000)), "sum of totals %s", sum)

	// 16000 / 12 = 1333.33 per installment, final absorbs the remainder.
	first := schedule[0].TotalDue
	assert.True(t, first.Equal(decimal.NewFromFloat(1333.33)), "first total %s", first)
	last := schedule[11].TotalDue
	assert.True(t, last.Equal(decimal.NewFromFloat(1333.37)), "last total %s", last)

	for i, inst := range schedule {
		assert.Equal(t, i+1, inst.Number)
		assert.Equal(t, domain.InstallmentStatusPending, inst.Status)
		assert.True(t, inst.AmountPaid.IsZero())
		assert.True(t, inst.TotalDue.Equal(inst.PrincipalDue.Add(inst.InterestDue).Add(inst.FeeDue)))
	}
}

func TestGenerateScheduleAddOnMatchesFlat(t *testing.T) {
	terms := flatTerms()
	flat, err := GenerateSchedule(terms)
	require.NoError(t, err)

	terms.Method = domain.MethodAddOn
	addOn, err := GenerateSchedule(terms)
	require.NoError(t, err)

	require.Len(t, addOn, len(flat))
	for i := range flat {
		assert.True(t, addOn[i].PrincipalDue.Equal(flat[i].PrincipalDue))
		assert.True(t, addOn[i].InterestDue.Equal(flat[i].InterestDue))
		assert.True(t, addOn[i].DueDate.Equal(flat[i].DueDate))
	}
}

func TestGenerateScheduleDeterministic(t *testing.T) {
	terms := flatTerms()
	a, err := GenerateSchedule(terms)
	require.NoError(t, err)
	b, err := GenerateSchedule(terms)
	require.NoError(t, err)

	require.Len(t, b, len(a))
	for i := range a {
		assert.Equal(t, *a[i], *b[i])
	}
}

func TestGenerateScheduleDiminishing(t *testing.T) {
	terms := domain.LoanTerms{
		Principal:  decimal.NewFromInt(10000),
		AnnualRate: decimal.NewFromFloat(0.12),
		TermCount:  12,
		Frequency:  domain.FrequencyMonthly,
		Method:     domain.MethodDiminishing,
		StartDate:  time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC),
	}

	schedule, err := GenerateSchedule(terms)
	require.NoError(t, err)
	require.Len(t, schedule, 12)

	// 12% annual at monthly frequency is 1% per period; first period's
	// interest is exactly 1% of the principal.
	assert.True(t, schedule[0].InterestDue.Equal(decimal.NewFromInt(100)),
		"first interest %s", schedule[0].InterestDue)

	// Remaining principal converges to exactly zero.
	remaining := terms.Principal
	for _, inst := range schedule {
		remaining = remaining.Sub(inst.PrincipalDue)
	}
	assert.True(t, remaining.IsZero(), "remaining principal %s", remaining)

	// Interest decreases as the balance diminishes.
	for i := 1; i < len(schedule); i++ {
		assert.True(t, schedule[i].InterestDue.LessThanOrEqual(schedule[i-1].InterestDue),
			"interest must not increase at installment %d", i+1)
	}

	// Sum invariant holds for the amortized schedule too.
	sumTotals := decimal.Zero
	sumInterest := decimal.Zero
	for _, inst := range schedule {
		sumTotals = sumTotals.Add(inst.TotalDue)
		sumInterest = sumInterest.Add(inst.InterestDue)
	}
	assert.True(t, sumTotals.Equal(terms.Principal.Add(sumInterest)))
}

func TestGenerateScheduleDiminishingZeroRate(t *testing.T) {
	terms := domain.LoanTerms{
		Principal:  decimal.NewFromInt(1200),
		AnnualRate: decimal.Zero,
		TermCount:  12,
		Frequency:  domain.FrequencyMonthly,
		Method:     domain.MethodDiminishing,
		StartDate:  time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
	}

	schedule, err := GenerateSchedule(terms)
	require.NoError(t, err)

	for _, inst := range schedule {
		assert.True(t, inst.InterestDue.IsZero())
		assert.True(t, inst.PrincipalDue.Equal(decimal.NewFromInt(100)))
	}
}

func TestGenerateScheduleFixedFee(t *testing.T) {
	terms := flatTerms()
	terms.FixedFee = decimal.NewFromInt(120)

	schedule, err := GenerateSchedule(terms)
	require.NoError(t, err)

	sumTotals := decimal.Zero
	sumFees := decimal.Zero
	for _, inst := range schedule {
		sumTotals = sumTotals.Add(inst.TotalDue)
		sumFees = sumFees.Add(inst.FeeDue)
	}
	assert.True(t, sumFees.Equal(decimal.NewFromInt(120)))
	assert.True(t, sumTotals.Equal(decimal.NewFromInt(16120)), "sum %s", sumTotals)
	assert.True(t, schedule[0].FeeDue.Equal(decimal.NewFromInt(10)))
}

func TestGenerateScheduleMonotonicDueDates(t *testing.T) {
	frequencies := []string{
		domain.FrequencyDaily,
		domain.FrequencyWeekly,
		domain.FrequencyBiWeekly,
		domain.FrequencySemiMonthly,
		domain.FrequencyMonthly,
	}

	for _, freq := range frequencies {
		t.Run(freq, func(t *testing.T) {
			terms := flatTerms()
			terms.Frequency = freq

			schedule, err := GenerateSchedule(terms)
			require.NoError(t, err)

			for i := 1; i < len(schedule); i++ {
				assert.True(t, schedule[i-1].DueDate.Before(schedule[i].DueDate),
					"due dates must strictly increase: %s then %s",
					schedule[i-1].DueDate, schedule[i].DueDate)
			}
			assert.True(t, schedule[0].DueDate.After(terms.StartDate))
		})
	}
}

func TestInstallmentCount(t *testing.T) {
	tests := []struct {
		name      string
		frequency string
		termCount int
		expected  int
	}{
		{"monthly uses term count", domain.FrequencyMonthly, 12, 12},
		{"weekly uses term count", domain.FrequencyWeekly, 10, 10},
		{"daily uses term count", domain.FrequencyDaily, 30, 30},
		{"semi-monthly doubles", domain.FrequencySemiMonthly, 12, 24},
		{"bi-weekly approximates 26 per year", domain.FrequencyBiWeekly, 12, 26},
		{"bi-weekly rounds up", domain.FrequencyBiWeekly, 5, 11},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, InstallmentCount(tt.frequency, tt.termCount))
		})
	}
}

func TestDueDatesSemiMonthly(t *testing.T) {
	terms := flatTerms()
	terms.Frequency = domain.FrequencySemiMonthly
	terms.TermCount = 2
	terms.StartDate = time.Date(2025, 1, 10, 0, 0, 0, 0, time.UTC)

	schedule, err := GenerateSchedule(terms)
	require.NoError(t, err)
	require.Len(t, schedule, 4)

	assert.Equal(t, time.Date(2025, 1, 15, 0, 0, 0, 0, time.UTC), schedule[0].DueDate)
	assert.Equal(t, time.Date(2025, 1, 31, 0, 0, 0, 0, time.UTC), schedule[1].DueDate)
	assert.Equal(t, time.Date(2025, 2, 15, 0, 0, 0, 0, time.UTC), schedule[2].DueDate)
	assert.Equal(t, time.Date(2025, 2, 28, 0, 0, 0, 0, time.UTC), schedule[3].DueDate)
}

func TestDueDatesSemiMonthlyStartPastMidMonth(t *testing.T) {
	terms := flatTerms()
	terms.Frequency = domain.FrequencySemiMonthly
	terms.TermCount = 1
	terms.StartDate = time.Date(2025, 1, 20, 0, 0, 0, 0, time.UTC)

	schedule, err := GenerateSchedule(terms)
	require.NoError(t, err)
	require.Len(t, schedule, 2)

	assert.Equal(t, time.Date(2025, 2, 15, 0, 0, 0, 0, time.UTC), schedule[0].DueDate)
	assert.Equal(t, time.Date(2025, 2, 28, 0, 0, 0, 0, time.UTC), schedule[1].DueDate)
}

func TestDueDatesMonthlyClampsToShortMonths(t *testing.T) {
	terms := flatTerms()
	terms.TermCount = 3
	terms.StartDate = time.Date(2025, 1, 31, 0, 0, 0, 0, time.UTC)

	schedule, err := GenerateSchedule(terms)
	require.NoError(t, err)
	require.Len(t, schedule, 3)

	// February lacks the 31st so the due date falls back to its last day,
	// while March recovers the anchor day.
	assert.Equal(t, time.Date(2025, 2, 28, 0, 0, 0, 0, time.UTC), schedule[0].DueDate)
	assert.Equal(t, time.Date(2025, 3, 31, 0, 0, 0, 0, time.UTC), schedule[1].DueDate)
	assert.Equal(t, time.Date(2025, 4, 30, 0, 0, 0, 0, time.UTC), schedule[2].DueDate)
}

func TestGenerateScheduleInvalidTerms(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*domain.LoanTerms)
	}{
		{"zero principal", func(tm *domain.LoanTerms) { tm.Principal = decimal.Zero }},
		{"negative principal", func(tm *domain.LoanTerms) { tm.Principal = decimal.NewFromInt(-100) }},
		{"zero term", func(tm *domain.LoanTerms) { tm.TermCount = 0 }},
		{"negative rate", func(tm *domain.LoanTerms) { tm.AnnualRate = decimal.NewFromFloat(-0.01) }},
		{"negative fee", func(tm *domain.LoanTerms) { tm.FixedFee = decimal.NewFromInt(-1) }},
		{"unknown frequency", func(tm *domain.LoanTerms) { tm.Frequency = "quarterly" }},
		{"unknown method", func(tm *domain.LoanTerms) { tm.Method = "balloon" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			terms := flatTerms()
			tt.mutate(&terms)

			schedule, err := GenerateSchedule(terms)
			assert.Nil(t, schedule)
			assert.ErrorIs(t, err, customError.ErrInvalidTerms)
		})
	}
}

func TestScheduleSumInvariantAcrossMethods(t *testing.T) {
	methods := []string{domain.MethodFlat, domain.MethodDiminishing, domain.MethodAddOn}
	frequencies := []string{
		domain.FrequencyDaily,
		domain.FrequencyWeekly,
		domain.FrequencyBiWeekly,
		domain.FrequencySemiMonthly,
		domain.FrequencyMonthly,
	}

	for _, method := range methods {
		for _, freq := range frequencies {
			t.Run(method+"/"+freq, func(t *testing.T) {
				terms := domain.LoanTerms{
					Principal:  decimal.NewFromFloat(54321.99),
					AnnualRate: decimal.NewFromFloat(0.0375),
					TermCount:  7,
					Frequency:  freq,
					Method:     method,
					StartDate:  time.Date(2025, 6, 17, 0, 0, 0, 0, time.UTC),
					FixedFee:   decimal.NewFromFloat(250.50),
				}

				schedule, err := GenerateSchedule(terms)
				require.NoError(t, err)

				sumTotals := decimal.Zero
				sumPrincipal := decimal.Zero
				sumInterest := decimal.Zero
				sumFee := decimal.Zero
				for _, inst := range schedule {
					sumTotals = sumTotals.Add(inst.TotalDue)
					sumPrincipal = sumPrincipal.Add(inst.PrincipalDue)
					sumInterest = sumInterest.Add(inst.InterestDue)
					sumFee = sumFee.Add(inst.FeeDue)
				}

				assert.True(t, sumPrincipal.Equal(terms.Principal), "principal sum %s", sumPrincipal)
				assert.True(t, sumFee.Equal(terms.FixedFee), "fee sum %s", sumFee)
				assert.True(t, sumTotals.Equal(terms.Principal.Add(sumInterest).Add(terms.FixedFee)),
					"total sum %s", sumTotals)
			})
		}
	}
}
