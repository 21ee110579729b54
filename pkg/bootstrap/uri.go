package bootstrap

import (
	"crypto/ecdh"
	"crypto/rand"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"net"
	"strconv"
	"strings"
)

// URI constants.
const (
	// URIScheme prefixes every bootstrapping URI.
	URIScheme = "DPP:"

	// CurrentVersion is the protocol version advertised by Generate.
	CurrentVersion = 2
)

// URI errors.
var (
	ErrMalformedURI = errors.New("malformed bootstrapping URI")
)

// Info is the bootstrapping information of one device.
type Info struct {
	// Curve is the curve of the bootstrapping key.
	Curve *Curve

	// PublicKey is the bootstrapping public key.
	PublicKey *ecdh.PublicKey

	// PrivateKey is set only for locally generated information.
	PrivateKey *ecdh.PrivateKey

	// Channels the device listens on, in preference order.
	// Empty means any channel.
	Channels []Channel

	// MAC is the device address, if advertised.
	MAC net.HardwareAddr

	// Version is the highest protocol version supported (0 = not advertised).
	Version int

	// Information is free-form device information (I: token).
	Information string
}

// GenerateOptions controls Generate.
type GenerateOptions struct {
	// Curve defaults to P256.
	Curve *Curve

	// Channels to advertise.
	Channels []Channel

	// MAC to advertise.
	MAC net.HardwareAddr

	// Information to advertise.
	Information string

	// Version defaults to CurrentVersion.
	Version int
}

// Generate creates fresh bootstrapping information with a new key pair.
func Generate(opts GenerateOptions) (*Info, error) {
	curve := opts.Curve
	if curve == nil {
		curve = P256
	}
	version := opts.Version
	if version == 0 {
		version = CurrentVersion
	}
	for _, ch := range opts.Channels {
		if !ch.Valid() {
			return nil, fmt.Errorf("%w: %s", ErrInvalidChannel, ch)
		}
	}
	if opts.MAC != nil && len(opts.MAC) != 6 {
		return nil, fmt.Errorf("%w: MAC must be 6 bytes", ErrMalformedURI)
	}

	priv, err := curve.ECDH().GenerateKey(rand.Reader)
	if err != nil {
		return nil, fmt.Errorf("failed to generate bootstrapping key: %w", err)
	}

	return &Info{
		Curve:       curve,
		PublicKey:   priv.PublicKey(),
		PrivateKey:  priv,
		Channels:    append([]Channel(nil), opts.Channels...),
		MAC:         append(net.HardwareAddr(nil), opts.MAC...),
		Version:     version,
		Information: opts.Information,
	}, nil
}

// FromPrivateKey builds Info around an existing bootstrapping key, e.g. one
// loaded from device storage.
func FromPrivateKey(priv *ecdh.PrivateKey, opts GenerateOptions) (*Info, error) {
	curve, err := CurveOf(priv.PublicKey())
	if err != nil {
		return nil, err
	}
	info := &Info{
		Curve:       curve,
		PublicKey:   priv.PublicKey(),
		PrivateKey:  priv,
		Channels:    append([]Channel(nil), opts.Channels...),
		MAC:         append(net.HardwareAddr(nil), opts.MAC...),
		Version:     opts.Version,
		Information: opts.Information,
	}
	if info.Version == 0 {
		info.Version = CurrentVersion
	}
	return info, nil
}

// Parse parses a bootstrapping URI.
// Unknown tokens, duplicate tokens, missing K and anything after the
// terminating ";;" are rejected with ErrMalformedURI. Key failures return
// ErrInvalidKey.
func Parse(uri string) (*Info, error) {
	uri = strings.TrimSpace(uri)
	if !strings.HasPrefix(uri, URIScheme) {
		return nil, fmt.Errorf("%w: missing %q scheme", ErrMalformedURI, URIScheme)
	}
	body := uri[len(URIScheme):]
	if !strings.HasSuffix(body, ";;") {
		return nil, fmt.Errorf("%w: missing terminator", ErrMalformedURI)
	}

	// Drop one ';' so every token, including the last, ends in exactly one.
	tokens := strings.Split(body[:len(body)-1], ";")
	tokens = tokens[:len(tokens)-1]
	if len(tokens) == 0 {
		return nil, fmt.Errorf("%w: no tokens", ErrMalformedURI)
	}

	info := &Info{}
	seen := make(map[byte]bool)

	for _, tok := range tokens {
		if len(tok) < 2 || tok[1] != ':' {
			return nil, fmt.Errorf("%w: bad token %q", ErrMalformedURI, tok)
		}
		id, value := tok[0], tok[2:]
		if seen[id] {
			return nil, fmt.Errorf("%w: duplicate %c token", ErrMalformedURI, id)
		}
		seen[id] = true

		var err error
		switch id {
		case 'C':
			info.Channels, err = parseChannelList(value)
		case 'M':
			info.MAC, err = parseMAC(value)
		case 'I':
			info.Information = value
		case 'V':
			info.Version, err = parseVersion(value)
		case 'K':
			err = info.parseKey(value)
		default:
			return nil, fmt.Errorf("%w: unknown token %c", ErrMalformedURI, id)
		}
		if err != nil {
			return nil, err
		}
	}

	if info.PublicKey == nil {
		return nil, fmt.Errorf("%w: missing K token", ErrMalformedURI)
	}
	return info, nil
}

func (info *Info) parseKey(value string) error {
	der, err := base64.StdEncoding.DecodeString(value)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidKey, err)
	}
	pub, curve, err := ParsePublicKey(der)
	if err != nil {
		return err
	}
	info.PublicKey = pub
	info.Curve = curve
	return nil
}

func parseChannelList(value string) ([]Channel, error) {
	if value == "" {
		return nil, fmt.Errorf("%w: empty channel list", ErrMalformedURI)
	}
	parts := strings.Split(value, ",")
	channels := make([]Channel, 0, len(parts))
	for _, p := range parts {
		ch, err := ParseChannel(p)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformedURI, err)
		}
		channels = append(channels, ch)
	}
	return channels, nil
}

func parseMAC(value string) (net.HardwareAddr, error) {
	value = strings.ReplaceAll(value, ":", "")
	if len(value) != 12 {
		return nil, fmt.Errorf("%w: MAC must be 12 hex digits", ErrMalformedURI)
	}
	b, err := hex.DecodeString(value)
	if err != nil {
		return nil, fmt.Errorf("%w: MAC: %v", ErrMalformedURI, err)
	}
	return net.HardwareAddr(b), nil
}

func parseVersion(value string) (int, error) {
	v, err := strconv.Atoi(value)
	if err != nil || v < 1 || v > 255 {
		return 0, fmt.Errorf("%w: version %q", ErrMalformedURI, value)
	}
	return v, nil
}

// URI encodes the information as a bootstrapping URI.
func (info *Info) URI() (string, error) {
	if info.PublicKey == nil {
		return "", fmt.Errorf("%w: no public key", ErrInvalidKey)
	}
	der, err := MarshalPublicKey(info.PublicKey)
	if err != nil {
		return "", err
	}

	var sb strings.Builder
	sb.WriteString(URIScheme)

	if len(info.Channels) > 0 {
		sb.WriteString("C:")
		for i, ch := range info.Channels {
			if i > 0 {
				sb.WriteByte(',')
			}
			sb.WriteString(ch.String())
		}
		sb.WriteByte(';')
	}
	if len(info.MAC) > 0 {
		sb.WriteString("M:")
		sb.WriteString(hex.EncodeToString(info.MAC))
		sb.WriteByte(';')
	}
	if info.Information != "" {
		sb.WriteString("I:")
		sb.WriteString(info.Information)
		sb.WriteByte(';')
	}
	if info.Version > 0 {
		sb.WriteString("V:")
		sb.WriteString(strconv.Itoa(info.Version))
		sb.WriteByte(';')
	}
	sb.WriteString("K:")
	sb.WriteString(base64.StdEncoding.EncodeToString(der))
	sb.WriteString(";;")

	return sb.String(), nil
}

// String returns the URI, or an empty string if it cannot be encoded.
func (info *Info) String() string {
	s, _ := info.URI()
	return s
}

// KeyHash returns the bootstrapping key hash of this information.
func (info *Info) KeyHash() ([]byte, error) {
	return KeyHash(info.PublicKey)
}

// Public returns a copy of the information without the private key.
func (info *Info) Public() *Info {
	out := *info
	out.PrivateKey = nil
	out.Channels = append([]Channel(nil), info.Channels...)
	out.MAC = append(net.HardwareAddr(nil), info.MAC...)
	return &out
}

// Frequencies returns the advertised channels as frequencies in MHz.
func (info *Info) Frequencies() []int {
	freqs := make([]int, 0, len(info.Channels))
	for _, ch := range info.Channels {
		if f, err := ch.Frequency(); err == nil {
			freqs = append(freqs, f)
		}
	}
	return freqs
}
