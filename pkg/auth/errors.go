package auth

import "errors"

// Authentication errors.
var (
	// ErrAuthFailed indicates a failed key confirmation or an undecryptable
	// frame after the responder has committed to the exchange.
	ErrAuthFailed = errors.New("authentication failed")

	// ErrCapabilityMismatch indicates the peers cannot agree on roles.
	ErrCapabilityMismatch = errors.New("capability mismatch")

	// ErrUnwrap indicates wrapped data could not be authenticated.
	ErrUnwrap = errors.New("unwrap failed")

	// ErrNotForUs indicates a frame addressed to a different bootstrapping
	// key. Receivers drop these.
	ErrNotForUs = errors.New("frame not addressed to this bootstrapping key")

	// ErrDuplicate indicates a frame for a step that has already completed.
	ErrDuplicate = errors.New("frame already processed")

	// ErrClosed indicates use of a handshake after Close.
	ErrClosed = errors.New("handshake closed")
)
