package dpp

import (
	"errors"

	"github.com/dpp-onboard/dpp-go/pkg/auth"
	"github.com/dpp-onboard/dpp-go/pkg/bootstrap"
	"github.com/dpp-onboard/dpp-go/pkg/configobj"
	"github.com/dpp-onboard/dpp-go/pkg/transport"
)

// Error taxonomy. Failures are wrapped with context and remain matchable
// with errors.Is.
var (
	ErrMalformedURI          = bootstrap.ErrMalformedURI
	ErrInvalidKey            = bootstrap.ErrInvalidKey
	ErrAuthFailed            = auth.ErrAuthFailed
	ErrCapabilityMismatch    = auth.ErrCapabilityMismatch
	ErrNoResponse            = transport.ErrNoResponse
	ErrDecryptFailed         = configobj.ErrDecryptFailed
	ErrMalformedObject       = configobj.ErrMalformedObject
	ErrUnsupportedCredential = configobj.ErrUnsupportedCredential
	ErrInvalidConnector      = configobj.ErrInvalidConnector
)

// Engine errors.
var (
	// ErrAborted indicates the exchange was stopped locally.
	ErrAborted = errors.New("exchange aborted")

	// ErrBusy indicates an Enrollee exchange is already in progress.
	ErrBusy = errors.New("enrollee exchange already in progress")

	// ErrConfigRejected indicates the Enrollee reported a non-OK
	// Configuration Result.
	ErrConfigRejected = errors.New("configuration rejected by enrollee")

	// ErrProvisionFailed indicates the profile sink refused the profile.
	ErrProvisionFailed = errors.New("profile hand-off failed")

	// ErrInvalidConfig indicates an unusable engine configuration.
	ErrInvalidConfig = errors.New("invalid configuration")

	// ErrNoNetwork indicates a Configurator without a network to hand out.
	ErrNoNetwork = errors.New("no network configured")
)
