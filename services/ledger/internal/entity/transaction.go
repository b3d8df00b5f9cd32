package entity

import (
	"fmt"
	"time"
	"unicode/utf8"

	"github.com/shopspring/decimal"
)

// Column widths of the transactions table.
const (
	MaxReferenceLength     = 100
	MaxSupporterNameLength = 100
	MaxMessageLength       = 500
)

// Truncate cuts s to at most n runes.
func Truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n])
}

type TransactionType string

const (
	TransactionTypeTip        TransactionType = "tip"
	TransactionTypeWithdrawal TransactionType = "withdrawal"
	TransactionTypeRefund     TransactionType = "refund"
)

func ParseTransactionType(s string) (TransactionType, error) {
	switch t := TransactionType(s); t {
	case TransactionTypeTip, TransactionTypeWithdrawal, TransactionTypeRefund:
		return t, nil
	}
	return "", fmt.Errorf("unknown transaction type %q", s)
}

type TransactionStatus string

const (
	TransactionStatusPending   TransactionStatus = "pending"
	TransactionStatusCompleted TransactionStatus = "completed"
	TransactionStatusFailed    TransactionStatus = "failed"
)

func ParseTransactionStatus(s string) (TransactionStatus, error) {
	switch st := TransactionStatus(s); st {
	case TransactionStatusPending, TransactionStatusCompleted, TransactionStatusFailed:
		return st, nil
	}
	return "", fmt.Errorf("unknown transaction status %q", s)
}

// Transaction is one signed ledger entry. Tips and refunds carry positive
// amounts, withdrawals negative ones.
type Transaction struct {
	ID               string
	CreatorID        string
	Amount           decimal.Decimal
	Type             TransactionType
	Status           TransactionStatus
	PaymentReference *string
	IdempotencyKey   *string
	AuthorizationURL string
	SupporterName    string
	Message          string
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

func (t *Transaction) Reference() string {
	if t.PaymentReference == nil {
		return ""
	}
	return *t.PaymentReference
}

// CheckSign validates the sign of amount for the given type.
func CheckSign(kind TransactionType, amount decimal.Decimal) error {
	switch kind {
	case TransactionTypeTip, TransactionTypeRefund:
		if !amount.IsPositive() {
			return fmt.Errorf("%w: %s amount must be positive", ErrInvalidAmount, kind)
		}
	case TransactionTypeWithdrawal:
		if !amount.IsNegative() {
			return fmt.Errorf("%w: withdrawal amount must be negative", ErrInvalidAmount)
		}
	default:
		return fmt.Errorf("%w: unknown type %q", ErrInvalidAmount, kind)
	}
	return nil
}

// BalanceDelta returns the change to total earnings and available balance
// caused by applying a completed or held entry of the given type.
func BalanceDelta(kind TransactionType, amount decimal.Decimal) (earnings, available decimal.Decimal) {
	switch kind {
	case TransactionTypeTip:
		return amount, amount
	default:
		return decimal.Zero, amount
	}
}

type TransactionFilter struct {
	Type   TransactionType
	Status TransactionStatus
}
