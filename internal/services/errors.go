package services

import "errors"

// Sentinel errors shared across services. Handlers translate these into
// HTTP status codes; everything else surfaces as an internal error.
var (
	ErrNotFound      = errors.New("resource not found")
	ErrAlreadyExists = errors.New("already exists")
	ErrUnauthorized  = errors.New("not allowed")
	ErrPrecondition  = errors.New("precondition failed")
	ErrValidation    = errors.New("validation failed")
	ErrUnavailable   = errors.New("temporarily unavailable")

	ErrInsufficientBalance = errors.New("insufficient balance")
	ErrBankAccountMissing  = errors.New("no verified bank account on file")

	ErrOTPNotFound          = errors.New("delivery code not found or expired")
	ErrOTPMismatch          = errors.New("delivery code mismatch")
	ErrOTPAttemptsExhausted = errors.New("delivery code attempts exhausted")

	ErrProofRequired = errors.New("proof of delivery requirements not met")
)
