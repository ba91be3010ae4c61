package service

import "errors"

// Verification failures form a closed taxonomy. Every entry point returns
// exactly one member; store failures are surfaced as-is and never folded in.
// BadToken means the token itself cannot be trusted (bad signature, malformed
// claims, or a marker mismatch that smells of tampering), while the Expired
// members mean a legitimate token simply aged out.
var (
	ErrNoToken        = errors.New("no token provided")
	ErrBadToken       = errors.New("bad token")
	ErrInvalidSession = errors.New("invalid session")
	ErrExpiredSession = errors.New("session expired")
	ErrInvalidToken   = errors.New("invalid token")
	ErrExpiredToken   = errors.New("expired token")
	ErrNotFound       = errors.New("not found")
)

var (
	ErrInvalidInput         = errors.New("invalid input")
	ErrInvalidCredentials   = errors.New("invalid credentials")
	ErrUsernameTaken        = errors.New("username already taken")
	ErrEmailTaken           = errors.New("email already verified by another user")
	ErrWeakPassword         = errors.New("password does not meet requirements")
	ErrUserNotFound         = errors.New("user not found")
	ErrFreshLoginRequired   = errors.New("fresh login required")
	ErrConsoleAlreadyPaired = errors.New("console already paired")
	ErrForeignSession       = errors.New("session belongs to another user")
	ErrCurrentSession       = errors.New("cannot revoke the current session")
)
