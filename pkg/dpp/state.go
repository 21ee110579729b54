package dpp

import (
	"fmt"

	"github.com/dpp-onboard/dpp-go/pkg/auth"
	"github.com/dpp-onboard/dpp-go/pkg/log"
)

// State is the state of a Session.
type State uint8

const (
	// StateIdle - session created, nothing advertised or sent.
	StateIdle State = iota

	// StateBootstrapAdvertised - bootstrapping information is known: the
	// local URI is advertised (responder) or the peer URI was scanned
	// (initiator).
	StateBootstrapAdvertised

	// StateAuthRequested - Authentication Request sent or accepted.
	StateAuthRequested

	// StateAuthResponded - Authentication Response sent or verified.
	StateAuthResponded

	// StateAuthConfirmed - Authentication Confirm delivered or verified;
	// ke is established.
	StateAuthConfirmed

	// StateConfigRequested - Configuration Request sent or accepted.
	StateConfigRequested

	// StateProvisioned - configuration delivered (terminal success).
	StateProvisioned

	// StateFailed - verification failure or retry exhaustion (terminal).
	StateFailed

	// StateAborted - stopped locally (terminal).
	StateAborted
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case StateIdle:
		return "Idle"
	case StateBootstrapAdvertised:
		return "BootstrapAdvertised"
	case StateAuthRequested:
		return "AuthRequested"
	case StateAuthResponded:
		return "AuthResponded"
	case StateAuthConfirmed:
		return "AuthConfirmed"
	case StateConfigRequested:
		return "ConfigRequested"
	case StateProvisioned:
		return "Provisioned"
	case StateFailed:
		return "Failed"
	case StateAborted:
		return "Aborted"
	default:
		return "Unknown"
	}
}

// Terminal reports whether no further transition is possible.
func (s State) Terminal() bool {
	return s == StateProvisioned || s == StateFailed || s == StateAborted
}

// Role is the DPP role of the local side of a Session.
type Role uint8

const (
	// RoleEnrollee is the device being provisioned.
	RoleEnrollee Role = iota

	// RoleConfigurator is the credential issuer.
	RoleConfigurator
)

// String returns the role name.
func (r Role) String() string {
	switch r {
	case RoleEnrollee:
		return "enrollee"
	case RoleConfigurator:
		return "configurator"
	default:
		return "unknown"
	}
}

// caps returns the capability bit of the role.
func (r Role) caps() auth.Capabilities {
	if r == RoleConfigurator {
		return auth.CapConfigurator
	}
	return auth.CapEnrollee
}

// logRole maps the role to its protocol log value.
func (r Role) logRole() log.Role {
	if r == RoleConfigurator {
		return log.RoleConfigurator
	}
	return log.RoleEnrollee
}

// ParseRole parses "enrollee" or "configurator".
func ParseRole(s string) (Role, error) {
	switch s {
	case "enrollee":
		return RoleEnrollee, nil
	case "configurator":
		return RoleConfigurator, nil
	}
	return 0, fmt.Errorf("%w: unknown role %q", ErrInvalidConfig, s)
}
