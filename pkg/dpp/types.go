package dpp

import (
	"crypto/ecdsa"
	"fmt"
	"log/slog"
	"net"
	"time"

	"github.com/dpp-onboard/dpp-go/pkg/bootstrap"
	"github.com/dpp-onboard/dpp-go/pkg/clock"
	"github.com/dpp-onboard/dpp-go/pkg/configobj"
	"github.com/dpp-onboard/dpp-go/pkg/log"
	"github.com/dpp-onboard/dpp-go/pkg/profile"
	"github.com/dpp-onboard/dpp-go/pkg/transport"
)

// DefaultExchangeTimeout bounds how long a session waits for a peer frame
// that is not covered by retransmission.
const DefaultExchangeTimeout = 10 * time.Second

// Config configures an Engine.
type Config struct {
	// Radio sends action frames. Required.
	Radio transport.Radio

	// Clock drives retransmission and timeouts. Defaults to the real clock.
	Clock clock.Clock

	// Retry tunes retransmission.
	Retry transport.RetryConfig

	// ExchangeTimeout bounds waits for frames that are not retransmitted
	// by this side (Configuration Request, Configuration Result).
	ExchangeTimeout time.Duration

	// Bootstrap is the local bootstrapping identity. Generated when nil.
	Bootstrap *bootstrap.Info

	// MAC is the local station address, advertised in generated URIs.
	MAC net.HardwareAddr

	// Channels are the channels the device listens on as responder. The
	// first one is used; DefaultChannel when empty.
	Channels []bootstrap.Channel

	// Version is the local protocol version (1 or 2).
	Version uint8

	// Information is the free-form I: token of generated URIs.
	Information string

	// Profiles receives provisioned profiles (Enrollee role).
	Profiles ProfileSink

	// DeviceName is sent in the Configuration Request (Enrollee role).
	DeviceName string

	// NetRole is the requested network role (Enrollee role).
	NetRole string

	// Network is handed out to Enrollees (Configurator role).
	Network *Network

	// CSignKey signs Connectors (Configurator role, akm dpp). Generated
	// when nil and needed.
	CSignKey *ecdsa.PrivateKey

	// Logger is the optional logger for debug output.
	// If nil, logging is disabled.
	Logger *slog.Logger

	// ProtocolLogger captures DPP frames and state changes (optional).
	ProtocolLogger log.Logger
}

// Network describes the network a Configurator provisions.
type Network struct {
	SSID string `yaml:"ssid"`

	// AKM is psk, sae, psk+sae or dpp.
	AKM string `yaml:"akm"`

	Passphrase string `yaml:"passphrase"`
	PSKHex     string `yaml:"psk_hex"`

	// GroupID is the Connector group (akm dpp). Defaults to "*".
	GroupID string `yaml:"group_id"`

	// ConnectorLifetime sets the Connector expiry (akm dpp). Zero means no
	// expiry.
	ConnectorLifetime time.Duration `yaml:"connector_lifetime"`
}

// Validate checks the network.
func (n *Network) Validate() error {
	if n.AKM == configobj.AKMDPP {
		if l := len(n.SSID); l == 0 || l > 32 {
			return fmt.Errorf("%w: ssid length %d", ErrInvalidConfig, l)
		}
		return nil
	}
	obj := &configobj.Object{
		WiFiTech:  configobj.WiFiTechInfra,
		Discovery: configobj.Discovery{SSID: n.SSID},
		Cred:      &configobj.Credential{AKM: n.AKM, Pass: n.Passphrase, PSKHex: n.PSKHex},
	}
	if err := obj.Validate(); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	return nil
}

// DefaultConfig returns a Config with default tuning. Radio must be set.
func DefaultConfig() Config {
	return Config{
		Clock:           clock.Real{},
		Retry:           transport.DefaultRetryConfig(),
		ExchangeTimeout: DefaultExchangeTimeout,
		Version:         bootstrap.CurrentVersion,
		NetRole:         configobj.NetRoleSTA,
		DeviceName:      "dpp-go",
	}
}

// Validate checks the configuration.
func (c *Config) Validate() error {
	if c.Radio == nil {
		return fmt.Errorf("%w: radio is required", ErrInvalidConfig)
	}
	if err := c.Retry.Validate(); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	if c.ExchangeTimeout <= 0 {
		return fmt.Errorf("%w: exchange timeout must be positive", ErrInvalidConfig)
	}
	if c.Version < 1 || c.Version > bootstrap.CurrentVersion {
		return fmt.Errorf("%w: unsupported version %d", ErrInvalidConfig, c.Version)
	}
	if c.MAC != nil && len(c.MAC) != 6 {
		return fmt.Errorf("%w: MAC must be 6 bytes", ErrInvalidConfig)
	}
	for _, ch := range c.Channels {
		if !ch.Valid() {
			return fmt.Errorf("%w: channel %s", ErrInvalidConfig, ch)
		}
	}
	switch c.NetRole {
	case configobj.NetRoleSTA, configobj.NetRoleAP:
	default:
		return fmt.Errorf("%w: net role %q", ErrInvalidConfig, c.NetRole)
	}
	if c.Bootstrap != nil && c.Bootstrap.PrivateKey == nil {
		return fmt.Errorf("%w: bootstrapping identity lacks a private key", ErrInvalidConfig)
	}
	if c.Network != nil {
		if err := c.Network.Validate(); err != nil {
			return err
		}
	}
	return nil
}

// StartOptions tunes one exchange.
type StartOptions struct {
	// Frequency in MHz forces the channel of the Authentication Request
	// (initiator only). Zero uses the peer's advertised channels.
	Frequency int

	// PeerURI is the initiator's bootstrapping URI, known to a responder
	// that wants mutual authentication.
	PeerURI string
}

// EventType identifies an engine event.
type EventType uint8

const (
	// EventStateChanged - a session moved to a non-terminal state.
	EventStateChanged EventType = iota

	// EventProvisioned - a session ended successfully.
	EventProvisioned

	// EventFailed - a session ended with an error.
	EventFailed

	// EventAborted - a session was stopped locally.
	EventAborted
)

// String returns the event type name.
func (e EventType) String() string {
	switch e {
	case EventStateChanged:
		return "STATE_CHANGED"
	case EventProvisioned:
		return "PROVISIONED"
	case EventFailed:
		return "FAILED"
	case EventAborted:
		return "ABORTED"
	default:
		return "UNKNOWN"
	}
}

// Event reports session progress. Every session produces exactly one of
// EventProvisioned, EventFailed or EventAborted.
type Event struct {
	Type EventType

	SessionID string
	Role      Role
	Initiator bool

	OldState State
	State    State

	// Err is set for EventFailed and EventAborted.
	Err error

	// Profile is set for EventProvisioned on the Enrollee.
	Profile *profile.Profile
}

// EventHandler handles engine events.
type EventHandler func(Event)
