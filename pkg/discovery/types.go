package discovery

import (
	"errors"
	"time"
)

// Service type constants for mDNS.
const (
	// ServiceTypeBootstrap is the service type for DPP bootstrap URIs.
	ServiceTypeBootstrap = "_dpp._udp"

	// Domain is the mDNS domain.
	Domain = "local"

	// DefaultPort is announced with the service. DPP runs over action
	// frames, so the port only identifies the UDP medium when one is used.
	DefaultPort = 7600
)

// TXT record key constants.
const (
	TXTKeyRole       = "role" // Advertised role (enrollee, configurator)
	TXTKeyDeviceName = "name" // Device name (optional)
	TXTKeyVersion    = "ver"  // DPP protocol version
	TXTKeyURIPrefix  = "u"    // URI chunk prefix: u0, u1, ...
)

// Timing constants.
const (
	// BrowseTimeout is the default timeout for mDNS browsing.
	BrowseTimeout = 10 * time.Second

	// DefaultTTL is the default DNS record TTL.
	DefaultTTL = 120 * time.Second
)

// Limits.
const (
	// MaxInstanceNameLen is the DNS label limit.
	MaxInstanceNameLen = 63

	// MaxURIChunk is the longest URI fragment placed in one TXT string.
	MaxURIChunk = 200

	// MaxURIChunks bounds the number of URI fragments accepted.
	MaxURIChunks = 8
)

// Discovery errors.
var (
	ErrInvalidTXTRecord    = errors.New("invalid TXT record format")
	ErrMissingRequired     = errors.New("missing required field")
	ErrInstanceNameTooLong = errors.New("instance name exceeds 63 characters")
	ErrURITooLong          = errors.New("bootstrap URI too long for TXT records")
	ErrNotFound            = errors.New("service not found")
)

// Role is the DPP role a device advertises.
type Role string

const (
	RoleEnrollee     Role = "enrollee"
	RoleConfigurator Role = "configurator"
)

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	return r == RoleEnrollee || r == RoleConfigurator
}

// BootstrapInfo is what a device publishes.
type BootstrapInfo struct {
	// URI is the DPP bootstrap URI.
	URI string

	// Role is the role the device is ready to take.
	Role Role

	// DeviceName is an optional human readable name.
	DeviceName string

	// Version is the DPP protocol version.
	Version int

	// Port is announced with the service. Zero uses DefaultPort.
	Port uint16
}

// BootstrapService is a discovered bootstrap advertisement.
type BootstrapService struct {
	// InstanceName is the mDNS instance name (DPP-<fingerprint>).
	InstanceName string

	// Host is the mDNS host name.
	Host string

	// Port is the announced port.
	Port uint16

	// Addresses are the resolved IP addresses.
	Addresses []string

	BootstrapInfo
}
