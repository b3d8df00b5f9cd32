package entity

import "errors"

var (
	ErrInvalidAmount         = errors.New("invalid amount")
	ErrInvalidIdempotencyKey = errors.New("invalid idempotency key")
	ErrCreatorNotFound       = errors.New("creator not found")
	ErrCreatorExists         = errors.New("creator already exists")
	ErrTransactionNotFound   = errors.New("transaction not found")
	ErrInsufficientBalance   = errors.New("insufficient balance")
	ErrUnknownReference      = errors.New("unknown payment reference")
	ErrPaymentInProgress     = errors.New("payment initialization in progress")
	ErrInvalidTransition     = errors.New("invalid transaction state transition")
	ErrDuplicateTransaction  = errors.New("duplicate transaction")
)
