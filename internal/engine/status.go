package engine

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/apps-eduard/exits-loan-management-sub001/internal/domain"
)

// DeriveStatus computes an installment's status purely from its figures and
// the calendar. Paid wins unconditionally; the overdue override applies only
// below the settled threshold, so a fully paid installment is never overdue.
func DeriveStatus(amountPaid, totalDue, penaltyAssessed decimal.Decimal, dueDate, today time.Time) string {
	if amountPaid.GreaterThanOrEqual(totalDue.Add(penaltyAssessed)) {
		return domain.InstallmentStatusPaid
	}
	if DateOnly(today).After(DateOnly(dueDate)) {
		return domain.InstallmentStatusOverdue
	}
	if amountPaid.IsPositive() {
		return domain.InstallmentStatusPartial
	}
	return domain.InstallmentStatusPending
}
