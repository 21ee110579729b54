// Package udp implements transport.Radio over UDP datagrams so that DPP
// devices on one host or LAN can exchange action frames without 802.11
// hardware.
//
// Every station sends each frame to all configured peers. A peer that is
// tuned to the frame's channel and matches its destination address answers
// with an acknowledgement datagram, which completes SendActionFrame.
package udp

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"sync"
	"time"

	"github.com/dpp-onboard/dpp-go/pkg/bootstrap"
	"github.com/dpp-onboard/dpp-go/pkg/transport"
	"github.com/fxamacker/cbor/v2"
)

// DefaultAckTimeout bounds the wait for a link-layer acknowledgement.
const DefaultAckTimeout = 200 * time.Millisecond

// maxDatagram is the largest envelope accepted.
const maxDatagram = 65507

// ErrClosed is returned by operations on a closed radio.
var ErrClosed = errors.New("radio closed")

// Config configures a UDP radio.
type Config struct {
	// ListenAddr is the local UDP address, for example "127.0.0.1:7600".
	ListenAddr string `yaml:"listen"`

	// Peers are the UDP addresses of the other stations.
	Peers []string `yaml:"peers"`

	// MAC is the station address placed in outgoing envelopes.
	MAC net.HardwareAddr `yaml:"-"`

	// Channel is the initial listen channel.
	Channel bootstrap.Channel `yaml:"-"`

	// AckTimeout bounds the wait for an acknowledgement.
	AckTimeout time.Duration `yaml:"ack_timeout"`

	// Logger receives operational logs. Nil disables logging.
	Logger *slog.Logger `yaml:"-"`
}

type kind uint8

const (
	kindFrame kind = 0
	kindAck   kind = 1
)

// envelope is the datagram payload.
type envelope struct {
	Kind    kind   `cbor:"1,keyasint"`
	Seq     uint32 `cbor:"2,keyasint"`
	Src     []byte `cbor:"3,keyasint"`
	Dst     []byte `cbor:"4,keyasint"`
	OpClass uint8  `cbor:"5,keyasint,omitempty"`
	Number  uint8  `cbor:"6,keyasint,omitempty"`
	Data    []byte `cbor:"7,keyasint,omitempty"`
}

func (e *envelope) channel() bootstrap.Channel {
	return bootstrap.Channel{OpClass: e.OpClass, Number: e.Number}
}

type inbound struct {
	src  net.HardwareAddr
	ch   bootstrap.Channel
	data []byte
}

// Radio is a transport.Radio backed by a UDP socket.
type Radio struct {
	config Config
	conn   *net.UDPConn
	logger *slog.Logger

	mu       sync.Mutex
	peers    []*net.UDPAddr
	channel  bootstrap.Channel
	receiver transport.Receiver
	seq      uint32
	pending  map[uint32]chan struct{}
	closed   bool

	inbox chan inbound
	done  chan struct{}
	wg    sync.WaitGroup
}

// Listen opens the socket and starts the receive loop.
func Listen(config Config) (*Radio, error) {
	if len(config.MAC) != 6 {
		return nil, fmt.Errorf("udp radio: MAC must be 6 bytes")
	}
	if config.AckTimeout <= 0 {
		config.AckTimeout = DefaultAckTimeout
	}
	if config.Channel == (bootstrap.Channel{}) {
		config.Channel = bootstrap.DefaultChannel
	}

	laddr, err := net.ResolveUDPAddr("udp", config.ListenAddr)
	if err != nil {
		return nil, fmt.Errorf("resolve listen address: %w", err)
	}

	var peers []*net.UDPAddr
	for _, p := range config.Peers {
		addr, err := net.ResolveUDPAddr("udp", p)
		if err != nil {
			return nil, fmt.Errorf("resolve peer %q: %w", p, err)
		}
		peers = append(peers, addr)
	}

	conn, err := net.ListenUDP("udp", laddr)
	if err != nil {
		return nil, fmt.Errorf("failed to listen: %w", err)
	}

	r := &Radio{
		config:  config,
		conn:    conn,
		logger:  config.Logger,
		peers:   peers,
		channel: config.Channel,
		pending: make(map[uint32]chan struct{}),
		inbox:   make(chan inbound, 64),
		done:    make(chan struct{}),
	}

	r.wg.Add(2)
	go r.readLoop()
	go r.dispatchLoop()
	return r, nil
}

// Addr returns the local socket address.
func (r *Radio) Addr() net.Addr {
	return r.conn.LocalAddr()
}

// MAC returns the station address.
func (r *Radio) MAC() net.HardwareAddr {
	return r.config.MAC
}

// AddPeer adds the address of another station.
func (r *Radio) AddPeer(addr string) error {
	ua, err := net.ResolveUDPAddr("udp", addr)
	if err != nil {
		return fmt.Errorf("resolve peer %q: %w", addr, err)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.peers = append(r.peers, ua)
	return nil
}

// SetReceiver installs the handler for received frames.
func (r *Radio) SetReceiver(recv transport.Receiver) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.receiver = recv
}

// Channel returns the current listen channel.
func (r *Radio) Channel() bootstrap.Channel {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.channel
}

// SwitchChannel retunes the radio.
func (r *Radio) SwitchChannel(ctx context.Context, ch bootstrap.Channel) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if !ch.Valid() {
		return fmt.Errorf("%w: %s", bootstrap.ErrInvalidChannel, ch)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return ErrClosed
	}
	r.channel = ch
	r.debugLog("channel switched", "channel", ch.String())
	return nil
}

// SendActionFrame sends data to every peer and waits for one
// acknowledgement.
func (r *Radio) SendActionFrame(ctx context.Context, ch bootstrap.Channel, dst net.HardwareAddr, data []byte) error {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return ErrClosed
	}
	r.seq++
	seq := r.seq
	acked := make(chan struct{})
	r.pending[seq] = acked
	peers := append([]*net.UDPAddr(nil), r.peers...)
	r.mu.Unlock()

	defer func() {
		r.mu.Lock()
		delete(r.pending, seq)
		r.mu.Unlock()
	}()

	buf, err := cbor.Marshal(&envelope{
		Kind:    kindFrame,
		Seq:     seq,
		Src:     r.config.MAC,
		Dst:     dst,
		OpClass: ch.OpClass,
		Number:  ch.Number,
		Data:    data,
	})
	if err != nil {
		return fmt.Errorf("encode envelope: %w", err)
	}

	for _, p := range peers {
		if _, err := r.conn.WriteToUDP(buf, p); err != nil {
			r.debugLog("send failed", "peer", p.String(), "error", err)
		}
	}

	timer := time.NewTimer(r.config.AckTimeout)
	defer timer.Stop()
	select {
	case <-acked:
		return nil
	case <-timer.C:
		return transport.ErrNoAck
	case <-ctx.Done():
		return ctx.Err()
	case <-r.done:
		return ErrClosed
	}
}

// Close stops the radio and waits for its goroutines.
func (r *Radio) Close() error {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return nil
	}
	r.closed = true
	r.mu.Unlock()

	close(r.done)
	err := r.conn.Close()
	r.wg.Wait()
	return err
}

func (r *Radio) readLoop() {
	defer r.wg.Done()

	buf := make([]byte, maxDatagram)
	for {
		n, from, err := r.conn.ReadFromUDP(buf)
		if err != nil {
			select {
			case <-r.done:
				return
			default:
			}
			if errors.Is(err, net.ErrClosed) {
				return
			}
			r.debugLog("read failed", "error", err)
			continue
		}

		var env envelope
		if err := cbor.Unmarshal(buf[:n], &env); err != nil {
			r.debugLog("dropping malformed datagram", "from", from.String(), "error", err)
			continue
		}

		switch env.Kind {
		case kindAck:
			r.handleAck(&env)
		case kindFrame:
			r.handleFrame(&env, from)
		}
	}
}

func (r *Radio) handleAck(env *envelope) {
	if !bytes.Equal(env.Dst, r.config.MAC) {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if ch, ok := r.pending[env.Seq]; ok {
		close(ch)
		delete(r.pending, env.Seq)
	}
}

func (r *Radio) handleFrame(env *envelope, from *net.UDPAddr) {
	if bytes.Equal(env.Src, r.config.MAC) {
		return
	}
	r.mu.Lock()
	tuned := env.channel() == r.channel
	r.mu.Unlock()
	if !tuned {
		return
	}
	if !bytes.Equal(env.Dst, transport.Broadcast) && !bytes.Equal(env.Dst, r.config.MAC) {
		return
	}

	ack, err := cbor.Marshal(&envelope{Kind: kindAck, Seq: env.Seq, Src: r.config.MAC, Dst: env.Src})
	if err == nil {
		if _, err := r.conn.WriteToUDP(ack, from); err != nil {
			r.debugLog("ack failed", "peer", from.String(), "error", err)
		}
	}

	in := inbound{
		src:  append(net.HardwareAddr(nil), env.Src...),
		ch:   env.channel(),
		data: append([]byte(nil), env.Data...),
	}
	select {
	case r.inbox <- in:
	case <-r.done:
	}
}

// dispatchLoop hands frames to the receiver outside the read loop so a
// receiver blocked on a send never stalls acknowledgements.
func (r *Radio) dispatchLoop() {
	defer r.wg.Done()
	for {
		select {
		case in := <-r.inbox:
			r.mu.Lock()
			recv := r.receiver
			r.mu.Unlock()
			if recv != nil {
				recv.HandleFrame(in.src, in.ch, in.data)
			}
		case <-r.done:
			return
		}
	}
}

func (r *Radio) debugLog(msg string, args ...any) {
	if r.logger != nil {
		r.logger.Debug(msg, args...)
	}
}

var _ transport.Radio = (*Radio)(nil)
