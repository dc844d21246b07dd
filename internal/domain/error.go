package domain

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

var (
	// Common domain errors
	ErrNotFound        = errors.New("entity not found")
	ErrAlreadyExists   = errors.New("entity already exists")
	ErrInvalidArgument = errors.New("invalid argument")

	// Entitlement errors
	ErrModuleNotFound     = errors.New("module not found")
	ErrModuleNotPremium   = errors.New("module is not a premium module")
	ErrAlreadyActive      = errors.New("module already active for user")
	ErrNotActive          = errors.New("module not active for user")
	ErrInsufficientTokens = errors.New("insufficient tokens")

	// Voucher errors
	ErrVoucherNotFound       = errors.New("voucher code not found")
	ErrVoucherExpired        = errors.New("voucher code expired or not yet valid")
	ErrVoucherExhausted      = errors.New("voucher code usage limit reached")
	ErrVoucherAlreadyUsed    = errors.New("voucher code already redeemed by user")
	ErrMinimumPurchaseNotMet = errors.New("purchase amount below voucher minimum")

	// Concurrency
	ErrConcurrentModification = errors.New("concurrent modification conflict")

	// Infrastructure-facing errors surfaced by repositories
	ErrOperationFailed    = errors.New("operation failed")
	ErrInvalidExecContext = errors.New("invalid executor context")
	ErrReadDatabaseRow    = errors.New("failed to read database row")
)

// InsufficientTokensError carries the structured fields callers surface to
// the user. errors.Is(err, ErrInsufficientTokens) holds for every instance.
type InsufficientTokensError struct {
	Required  decimal.Decimal
	Available decimal.Decimal
}

func (e *InsufficientTokensError) Error() string {
	return fmt.Sprintf("insufficient tokens: required %s, available %s", e.Required, e.Available)
}

func (e *InsufficientTokensError) Unwrap() error { return ErrInsufficientTokens }

// NewInsufficientTokens builds the structured error for a failed debit.
func NewInsufficientTokens(required, available decimal.Decimal) error {
	return &InsufficientTokensError{Required: required, Available: available}
}
