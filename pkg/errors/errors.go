package errors

import (
	"errors"
	"fmt"
)

// Domain errors
var (
	ErrLoanNotFound           = errors.New("loan not found")
	ErrLoanAlreadyExists      = errors.New("loan already exists")
	ErrInvalidTerms           = errors.New("invalid loan terms")
	ErrInvalidPaymentAmount   = errors.New("invalid payment amount")
	ErrNoPendingInstallments  = errors.New("no pending installments")
	ErrConcurrentModification = errors.New("concurrent modification")
	ErrRoundingInvariant      = errors.New("schedule rounding invariant violated")
	ErrReceiptNotFound        = errors.New("receipt not found")
	ErrReceiptAlreadyVoided   = errors.New("receipt already voided")
	ErrReceiptNotLatest       = errors.New("receipt is not the latest posted receipt")
)

// BusinessError represents a business logic error
type BusinessError struct {
	Code    string
	Message string
	Err     error
}

func (e *BusinessError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s (%v)", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *BusinessError) Unwrap() error {
	return e.Err
}

// NewBusinessError creates a new business error
func NewBusinessError(code, message string, err error) *BusinessError {
	return &BusinessError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// Error codes
const (
	ErrCodeLoanNotFound           = "LOAN_NOT_FOUND"
	ErrCodeLoanAlreadyExists      = "LOAN_ALREADY_EXISTS"
	ErrCodeInvalidTerms           = "INVALID_TERMS"
	ErrCodeInvalidPaymentAmount   = "INVALID_PAYMENT_AMOUNT"
	ErrCodeNoPendingInstallments  = "NO_PENDING_INSTALLMENTS"
	ErrCodeConcurrentModification = "CONCURRENT_MODIFICATION"
	ErrCodeRoundingInvariant      = "ROUNDING_INVARIANT"
	ErrCodeReceiptNotFound        = "RECEIPT_NOT_FOUND"
	ErrCodeReceiptAlreadyVoided   = "RECEIPT_ALREADY_VOIDED"
	ErrCodeReceiptNotLatest       = "RECEIPT_NOT_LATEST"
	ErrCodeDatabaseError          = "DATABASE_ERROR"
	ErrCodeCacheError             = "CACHE_ERROR"
)

// Wrap common errors with business context
func WrapLoanNotFound(loanID string) *BusinessError {
	return NewBusinessError(
		ErrCodeLoanNotFound,
		fmt.Sprintf("Loan with ID %s not found", loanID),
		ErrLoanNotFound,
	)
}

func WrapLoanAlreadyExists(loanID string) *BusinessError {
	return NewBusinessError(
		ErrCodeLoanAlreadyExists,
		fmt.Sprintf("Loan with ID %s already exists", loanID),
		ErrLoanAlreadyExists,
	)
}

func WrapInvalidTerms(reason string) *BusinessError {
	return NewBusinessError(
		ErrCodeInvalidTerms,
		fmt.Sprintf("Invalid loan terms: %s", reason),
		ErrInvalidTerms,
	)
}

func WrapInvalidPaymentAmount(amount string) *BusinessError {
	return NewBusinessError(
		ErrCodeInvalidPaymentAmount,
		fmt.Sprintf("Invalid payment amount: %s", amount),
		ErrInvalidPaymentAmount,
	)
}

func WrapNoPendingInstallments(loanID string) *BusinessError {
	return NewBusinessError(
		ErrCodeNoPendingInstallments,
		fmt.Sprintf("Loan with ID %s has no pending installments", loanID),
		ErrNoPendingInstallments,
	)
}

func WrapConcurrentModification(loanID string) *BusinessError {
	return NewBusinessError(
		ErrCodeConcurrentModification,
		fmt.Sprintf("Loan with ID %s was modified concurrently, retry the operation", loanID),
		ErrConcurrentModification,
	)
}

func WrapRoundingInvariant(expected, actual string) *BusinessError {
	return NewBusinessError(
		ErrCodeRoundingInvariant,
		fmt.Sprintf("Sum of installment totals %s does not equal total payable %s", actual, expected),
		ErrRoundingInvariant,
	)
}

func WrapReceiptNotFound(receiptNo string) *BusinessError {
	return NewBusinessError(
		ErrCodeReceiptNotFound,
		fmt.Sprintf("Receipt %s not found", receiptNo),
		ErrReceiptNotFound,
	)
}

func WrapReceiptAlreadyVoided(receiptNo string) *BusinessError {
	return NewBusinessError(
		ErrCodeReceiptAlreadyVoided,
		fmt.Sprintf("Receipt %s is already voided", receiptNo),
		ErrReceiptAlreadyVoided,
	)
}

func WrapReceiptNotLatest(receiptNo string) *BusinessError {
	return NewBusinessError(
		ErrCodeReceiptNotLatest,
		fmt.Sprintf("Receipt %s is not the latest posted receipt for its loan", receiptNo),
		ErrReceiptNotLatest,
	)
}

func WrapDatabaseError(err error) *BusinessError {
	return NewBusinessError(
		ErrCodeDatabaseError,
		"database operation failed",
		err,
	)
}

func WrapCacheError(err error) *BusinessError {
	return NewBusinessError(
		ErrCodeCacheError,
		"cache operation failed",
		err,
	)
}
