package model

import "errors"

var (
	// ErrNotFound is returned when a requested entity does not exist.
	ErrNotFound = errors.New("not found")
	// ErrValidation is returned for missing or malformed input.
	ErrValidation = errors.New("validation failed")
	// ErrClientExists is returned on duplicate client registration.
	ErrClientExists = errors.New("client with this name already exists")
	// ErrLinkInvalid covers never-issued, already-used and expired magic
	// links. The three cases are deliberately indistinguishable.
	ErrLinkInvalid = errors.New("invalid or expired magic link")
	// ErrTokenInvalid is returned when a token fails signature, expiry or
	// structural checks.
	ErrTokenInvalid = errors.New("invalid token")
	// ErrTokenForbidden is returned when a refresh token is missing from
	// the ledger, revoked, or past its ledger expiry.
	ErrTokenForbidden = errors.New("token invalid or already used")
	// ErrTokenRevoked is returned when revoking a token that is already
	// revoked.
	ErrTokenRevoked = errors.New("token already revoked")
	// ErrCryptoFailure wraps key generation, encryption, decryption and
	// signing failures. Callers must treat it as fatal and must not leak
	// key material.
	ErrCryptoFailure = errors.New("crypto failure")
)
