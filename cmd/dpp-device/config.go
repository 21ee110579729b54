package main

import (
	"fmt"
	"io"
	"net"
	"os"
	"path/filepath"
	"time"

	"github.com/dpp-onboard/dpp-go/pkg/bootstrap"
	"github.com/dpp-onboard/dpp-go/pkg/dpp"
	"github.com/dpp-onboard/dpp-go/pkg/profile"
	"github.com/dpp-onboard/dpp-go/pkg/transport"
	"github.com/dpp-onboard/dpp-go/pkg/transport/udp"
	"gopkg.in/yaml.v3"
)

// FileConfig is the YAML device configuration.
type FileConfig struct {
	// MAC is the station address, "02:00:00:00:00:01".
	MAC string `yaml:"mac"`

	// Channels are listen channels as "<opclass>/<channel>".
	Channels []string `yaml:"channels"`

	DeviceName  string `yaml:"device_name"`
	NetRole     string `yaml:"net_role"`
	Version     uint8  `yaml:"version"`
	Information string `yaml:"information"`

	// Network is handed out when acting as configurator.
	Network *dpp.Network `yaml:"network"`

	Retry           transport.RetryConfig `yaml:"retry"`
	ExchangeTimeout time.Duration         `yaml:"exchange_timeout"`

	// UDP is the action-frame medium.
	UDP udp.Config `yaml:"udp"`

	// Profiles is the path of the provisioned-profile store. A .db or
	// .sqlite path selects the SQLite store, anything else the CBOR file.
	Profiles string `yaml:"profiles"`

	// ProtocolLog is the path of the CBOR protocol capture.
	ProtocolLog string `yaml:"protocol_log"`

	// Advertise publishes the bootstrap URI over mDNS.
	Advertise bool `yaml:"advertise"`

	// AdvertiseWindow bounds the advertisement. Zero keeps it until stop.
	AdvertiseWindow time.Duration `yaml:"advertise_window"`
}

// DefaultFileConfig returns the settings used when no file is given.
func DefaultFileConfig() FileConfig {
	return FileConfig{
		MAC:             "02:00:00:00:00:01",
		Channels:        []string{bootstrap.DefaultChannel.String()},
		DeviceName:      "dpp-device",
		Retry:           transport.DefaultRetryConfig(),
		ExchangeTimeout: dpp.DefaultExchangeTimeout,
		UDP: udp.Config{
			ListenAddr: "127.0.0.1:7600",
			AckTimeout: udp.DefaultAckTimeout,
		},
		Profiles: "profiles.cbor",
	}
}

// ParseFileConfig decodes YAML on top of the defaults.
func ParseFileConfig(data []byte) (FileConfig, error) {
	cfg := DefaultFileConfig()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return FileConfig{}, fmt.Errorf("failed to parse YAML: %w", err)
	}
	return cfg, nil
}

// LoadFileConfig reads a YAML configuration file.
func LoadFileConfig(path string) (FileConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return FileConfig{}, fmt.Errorf("failed to read config: %w", err)
	}
	cfg, err := ParseFileConfig(data)
	if err != nil {
		return FileConfig{}, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// HardwareAddr parses the configured MAC.
func (c *FileConfig) HardwareAddr() (net.HardwareAddr, error) {
	mac, err := net.ParseMAC(c.MAC)
	if err != nil {
		return nil, fmt.Errorf("invalid mac %q: %w", c.MAC, err)
	}
	if len(mac) != 6 {
		return nil, fmt.Errorf("invalid mac %q: must be 6 bytes", c.MAC)
	}
	return mac, nil
}

// ListenChannels parses the configured channels.
func (c *FileConfig) ListenChannels() ([]bootstrap.Channel, error) {
	out := make([]bootstrap.Channel, 0, len(c.Channels))
	for _, s := range c.Channels {
		ch, err := bootstrap.ParseChannel(s)
		if err != nil {
			return nil, err
		}
		out = append(out, ch)
	}
	return out, nil
}

// EngineConfig builds the engine configuration. The radio, sink and
// loggers are filled in by the caller.
func (c *FileConfig) EngineConfig() (dpp.Config, error) {
	mac, err := c.HardwareAddr()
	if err != nil {
		return dpp.Config{}, err
	}
	channels, err := c.ListenChannels()
	if err != nil {
		return dpp.Config{}, err
	}

	cfg := dpp.DefaultConfig()
	cfg.MAC = mac
	cfg.Channels = channels
	cfg.Information = c.Information
	cfg.Network = c.Network
	if c.DeviceName != "" {
		cfg.DeviceName = c.DeviceName
	}
	if c.NetRole != "" {
		cfg.NetRole = c.NetRole
	}
	if c.Version != 0 {
		cfg.Version = c.Version
	}
	if c.Retry != (transport.RetryConfig{}) {
		cfg.Retry = c.Retry
	}
	if c.ExchangeTimeout > 0 {
		cfg.ExchangeTimeout = c.ExchangeTimeout
	}
	return cfg, nil
}

// RadioConfig builds the UDP radio configuration.
func (c *FileConfig) RadioConfig() (udp.Config, error) {
	mac, err := c.HardwareAddr()
	if err != nil {
		return udp.Config{}, err
	}
	channels, err := c.ListenChannels()
	if err != nil {
		return udp.Config{}, err
	}
	rc := c.UDP
	rc.MAC = mac
	if len(channels) > 0 {
		rc.Channel = channels[0]
	}
	return rc, nil
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// OpenProfileStore opens the store named by Profiles. The closer must be
// called on shutdown.
func (c *FileConfig) OpenProfileStore() (dpp.ProfileSink, io.Closer, error) {
	switch filepath.Ext(c.Profiles) {
	case ".db", ".sqlite":
		s, err := profile.NewSQLStore(c.Profiles)
		if err != nil {
			return nil, nil, err
		}
		return s, s, nil
	default:
		return profile.NewFileStore(c.Profiles), nopCloser{}, nil
	}
}
