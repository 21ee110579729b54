package configobj

import "errors"

// Configuration errors.
var (
	// ErrDecryptFailed indicates wrapped data that does not authenticate
	// under the session key.
	ErrDecryptFailed = errors.New("configuration decrypt failed")

	// ErrMalformedObject indicates a missing or invalid field.
	ErrMalformedObject = errors.New("malformed configuration object")

	// ErrUnsupportedCredential indicates a credential type this
	// implementation cannot apply.
	ErrUnsupportedCredential = errors.New("unsupported credential")

	// ErrInvalidConnector indicates a connector that fails verification.
	ErrInvalidConnector = errors.New("invalid connector")
)
