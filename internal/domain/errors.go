package domain

import "errors"

// Sentinel errors for domain-level error discrimination.
// Services wrap these so handlers can map to HTTP status codes without leaking infrastructure details.
var (
	ErrNotFound     = errors.New("not found")
	ErrConflict     = errors.New("conflict")
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")
	ErrBadRequest   = errors.New("bad request")
)

// Passwordless flow errors. ErrInvalidToken deliberately covers not-found,
// wrong-type, already-consumed and expired tokens so a caller can never
// tell a forged code from a stale one.
var (
	ErrAliasNotFound            = errors.New("no account is associated with this alias")
	ErrAccountDisabled          = errors.New("user account is disabled")
	ErrInvalidAlias             = errors.New("invalid alias parameters provided")
	ErrInvalidToken             = errors.New("invalid token")
	ErrTokenConsumed            = errors.New("token already consumed")
	ErrTokenGenerationExhausted = errors.New("could not generate a unique token key")
)
