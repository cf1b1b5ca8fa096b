package domain

import "errors"

var (
	// ErrInvalidExpiryToken is returned for a symbolic expiry outside the recognized set.
	ErrInvalidExpiryToken = errors.New("invalid expiry token")
	// ErrMissingRequiredField is returned when name, company, secret or table is empty.
	ErrMissingRequiredField = errors.New("missing required field")
	// ErrMalformedToken is returned when a token does not parse into header, payload and signature.
	ErrMalformedToken = errors.New("malformed token")
	// ErrInvalidSignature is returned when a token's signature does not match the secret.
	ErrInvalidSignature = errors.New("invalid token signature")
	// ErrTokenExpired is returned when verifying a token past its exp.
	ErrTokenExpired = errors.New("token expired")
	// ErrUnknownSelection is returned when a role selection is not part of the catalog.
	ErrUnknownSelection = errors.New("unknown role selection")
	// ErrSessionNotFound is returned when a builder session does not exist or has expired.
	ErrSessionNotFound = errors.New("session not found")
)
