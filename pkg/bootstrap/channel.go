package bootstrap

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrInvalidChannel indicates an unknown operating class or channel.
var ErrInvalidChannel = errors.New("invalid channel")

// DefaultChannel is the 2.4 GHz channel used when a peer advertises none.
var DefaultChannel = Channel{OpClass: 81, Number: 6}

// Channel is a global operating class and channel number pair.
type Channel struct {
	OpClass uint8
	Number  uint8
}

// opClassRange maps a global operating class to its band start frequency.
type opClassRange struct {
	start    int // MHz, channel 0
	min, max uint8
}

// Global operating classes (IEEE 802.11 Annex E, Table E-4), 20 MHz and
// the wider classes commonly advertised in bootstrapping URIs.
var opClasses = map[uint8]opClassRange{
	81:  {2407, 1, 13},
	82:  {2414, 14, 14},
	83:  {2407, 1, 9},
	84:  {2407, 5, 13},
	115: {5000, 36, 48},
	116: {5000, 36, 44},
	117: {5000, 40, 48},
	118: {5000, 52, 64},
	119: {5000, 52, 60},
	120: {5000, 56, 64},
	121: {5000, 100, 144},
	122: {5000, 100, 140},
	123: {5000, 104, 144},
	124: {5000, 149, 161},
	125: {5000, 149, 177},
	126: {5000, 149, 173},
	127: {5000, 153, 177},
	131: {5950, 1, 233},
}

// Valid reports whether the channel exists in its operating class.
func (c Channel) Valid() bool {
	r, ok := opClasses[c.OpClass]
	return ok && c.Number >= r.min && c.Number <= r.max
}

// Frequency returns the centre frequency of the channel in MHz.
func (c Channel) Frequency() (int, error) {
	r, ok := opClasses[c.OpClass]
	if !ok || c.Number < r.min || c.Number > r.max {
		return 0, fmt.Errorf("%w: %s", ErrInvalidChannel, c)
	}
	return r.start + 5*int(c.Number), nil
}

// String returns "<opclass>/<channel>".
func (c Channel) String() string {
	return fmt.Sprintf("%d/%d", c.OpClass, c.Number)
}

// ChannelFromFrequency maps a 20 MHz centre frequency to a channel.
func ChannelFromFrequency(freq int) (Channel, error) {
	switch {
	case freq == 2484:
		return Channel{OpClass: 82, Number: 14}, nil
	case freq >= 2412 && freq <= 2472:
		return Channel{OpClass: 81, Number: uint8((freq - 2407) / 5)}, nil
	case freq >= 5180 && freq <= 5885:
		n := uint8((freq - 5000) / 5)
		for _, class := range []uint8{115, 118, 121, 124, 125} {
			c := Channel{OpClass: class, Number: n}
			if c.Valid() {
				return c, nil
			}
		}
	case freq >= 5955 && freq <= 7115:
		return Channel{OpClass: 131, Number: uint8((freq - 5950) / 5)}, nil
	}
	return Channel{}, fmt.Errorf("%w: %d MHz", ErrInvalidChannel, freq)
}

// ParseChannel parses "<opclass>/<channel>".
func ParseChannel(s string) (Channel, error) {
	class, num, ok := strings.Cut(s, "/")
	if !ok || class == "" || num == "" {
		return Channel{}, fmt.Errorf("%w: %q", ErrInvalidChannel, s)
	}
	c, err := strconv.ParseUint(class, 10, 8)
	if err != nil {
		return Channel{}, fmt.Errorf("%w: %q", ErrInvalidChannel, s)
	}
	n, err := strconv.ParseUint(num, 10, 8)
	if err != nil {
		return Channel{}, fmt.Errorf("%w: %q", ErrInvalidChannel, s)
	}
	ch := Channel{OpClass: uint8(c), Number: uint8(n)}
	if !ch.Valid() {
		return Channel{}, fmt.Errorf("%w: %q", ErrInvalidChannel, s)
	}
	return ch, nil
}
