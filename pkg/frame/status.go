package frame

import "fmt"

// Status is a DPP status code.
type Status uint8

// DPP status codes.
const (
	StatusOK               Status = 0
	StatusNotCompatible    Status = 1
	StatusAuthFailure      Status = 2
	StatusUnwrapFailure    Status = 3
	StatusBadGroup         Status = 4
	StatusConfigureFailure Status = 5
	StatusResponsePending  Status = 6
	StatusInvalidConnector Status = 7
	StatusNoMatch          Status = 8
	StatusConfigRejected   Status = 9
)

// String returns the status name.
func (s Status) String() string {
	switch s {
	case StatusOK:
		return "OK"
	case StatusNotCompatible:
		return "NOT_COMPATIBLE"
	case StatusAuthFailure:
		return "AUTH_FAILURE"
	case StatusUnwrapFailure:
		return "UNWRAP_FAILURE"
	case StatusBadGroup:
		return "BAD_GROUP"
	case StatusConfigureFailure:
		return "CONFIGURE_FAILURE"
	case StatusResponsePending:
		return "RESPONSE_PENDING"
	case StatusInvalidConnector:
		return "INVALID_CONNECTOR"
	case StatusNoMatch:
		return "NO_MATCH"
	case StatusConfigRejected:
		return "CONFIG_REJECTED"
	default:
		return fmt.Sprintf("STATUS(%d)", uint8(s))
	}
}
