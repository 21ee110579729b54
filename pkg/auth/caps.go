package auth

// Capabilities is the DPP capabilities byte.
type Capabilities uint8

// Capability bits.
const (
	CapEnrollee     Capabilities = 1 << 0
	CapConfigurator Capabilities = 1 << 1
)

// String returns a readable form of the capabilities.
func (c Capabilities) String() string {
	switch c & (CapEnrollee | CapConfigurator) {
	case CapEnrollee:
		return "enrollee"
	case CapConfigurator:
		return "configurator"
	case CapEnrollee | CapConfigurator:
		return "enrollee|configurator"
	default:
		return "none"
	}
}

// complement returns the roles able to pair with c.
func (c Capabilities) complement() Capabilities {
	var out Capabilities
	if c&CapEnrollee != 0 {
		out |= CapConfigurator
	}
	if c&CapConfigurator != 0 {
		out |= CapEnrollee
	}
	return out
}

// Negotiate intersects the initiator's advertised capabilities with the
// responder's and returns the single role the responder takes. When both
// roles are possible the responder acts as Enrollee.
func Negotiate(initiator, responder Capabilities) (Capabilities, error) {
	options := initiator.complement() & responder
	switch {
	case options&CapEnrollee != 0:
		return CapEnrollee, nil
	case options&CapConfigurator != 0:
		return CapConfigurator, nil
	}
	return 0, ErrCapabilityMismatch
}
