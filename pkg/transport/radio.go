package transport

import (
	"context"
	"errors"
	"net"

	"github.com/dpp-onboard/dpp-go/pkg/bootstrap"
)

// Transport errors.
var (
	// ErrNoAck indicates the frame was sent but not acknowledged.
	ErrNoAck = errors.New("no acknowledgement")

	// ErrNoResponse indicates the retry ceiling was reached on every
	// candidate channel.
	ErrNoResponse = errors.New("no response")
)

// Broadcast is the broadcast MAC address, used when the peer's address is
// not known.
var Broadcast = net.HardwareAddr{0xff, 0xff, 0xff, 0xff, 0xff, 0xff}

// Radio is the action-frame transport collaborator.
type Radio interface {
	// SendActionFrame transmits data on ch to dst. It returns ErrNoAck
	// when the link-layer acknowledgement did not arrive.
	SendActionFrame(ctx context.Context, ch bootstrap.Channel, dst net.HardwareAddr, data []byte) error

	// SwitchChannel tunes the radio to listen on ch.
	SwitchChannel(ctx context.Context, ch bootstrap.Channel) error
}

// Receiver is notified of received action frames.
type Receiver interface {
	HandleFrame(src net.HardwareAddr, ch bootstrap.Channel, data []byte)
}

// ReceiverFunc adapts a function to the Receiver interface.
type ReceiverFunc func(src net.HardwareAddr, ch bootstrap.Channel, data []byte)

// HandleFrame calls f.
func (f ReceiverFunc) HandleFrame(src net.HardwareAddr, ch bootstrap.Channel, data []byte) {
	f(src, ch, data)
}
