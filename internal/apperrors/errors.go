package apperrors

import (
	"errors"
)

var (
	ErrAccountNotFound      = errors.New("account not found")
	ErrAccountAlreadyExists = errors.New("account already exists")

	ErrAmountInvalid           = errors.New("amount must be a positive integer")
	ErrSelfTransfer            = errors.New("transfer to own account")
	ErrCounterpartyNotFound    = errors.New("counterparty account not found")
	ErrCounterpartyNotMerchant = errors.New("counterparty is not a merchant")
	ErrBalanceInsufficient     = errors.New("insufficient balance")

	ErrRoleMismatch = errors.New("claimed role differs from stored role")

	ErrIdentityInvalid  = errors.New("identity token is invalid")
	ErrIdentityRejected = errors.New("identity is not allowed")

	// ErrLoggingDegraded marks a transfer whose balances committed but whose
	// audit record failed to append. Balances are authoritative: callers must
	// treat the transfer as successful and alert about the audit gap.
	ErrLoggingDegraded = errors.New("transfer committed but not logged")
)
