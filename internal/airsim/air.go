package airsim

import (
	"bytes"
	"context"
	"net"
	"sync"

	"github.com/dpp-onboard/dpp-go/pkg/bootstrap"
	"github.com/dpp-onboard/dpp-go/pkg/transport"
)

// DropRule discards matching frames.
type DropRule struct {
	// Prefix is compared against the frame at Offset.
	Prefix []byte

	// Offset into the frame where Prefix must appear.
	Offset int

	// Times is how many frames to drop; a negative value drops forever.
	Times int

	// Channel restricts the rule to one channel when non-zero.
	Channel bootstrap.Channel

	matched int
}

// Matched returns how many frames the rule has dropped.
func (r *DropRule) Matched() int {
	return r.matched
}

func (r *DropRule) match(ch bootstrap.Channel, data []byte) bool {
	if r.Times >= 0 && r.matched >= r.Times {
		return false
	}
	if r.Channel != (bootstrap.Channel{}) && r.Channel != ch {
		return false
	}
	if len(data) < r.Offset+len(r.Prefix) {
		return false
	}
	if !bytes.Equal(data[r.Offset:r.Offset+len(r.Prefix)], r.Prefix) {
		return false
	}
	r.matched++
	return true
}

// Transmission records one frame put on the air.
type Transmission struct {
	Src     net.HardwareAddr
	Dst     net.HardwareAddr
	Channel bootstrap.Channel
	Data    []byte
	Dropped bool
	Acked   bool
}

type delivery struct {
	to  *Station
	src net.HardwareAddr
	ch  bootstrap.Channel
	buf []byte
}

// Air is a simulated wireless medium.
type Air struct {
	mu       sync.Mutex
	stations []*Station
	rules    []*DropRule
	queue    []delivery
	history  []Transmission
}

// New creates an empty medium.
func New() *Air {
	return &Air{}
}

// AddStation attaches a station listening on ch.
func (a *Air) AddStation(mac net.HardwareAddr, ch bootstrap.Channel) *Station {
	a.mu.Lock()
	defer a.mu.Unlock()
	s := &Station{air: a, mac: append(net.HardwareAddr(nil), mac...), channel: ch}
	a.stations = append(a.stations, s)
	return s
}

// AddDropRule installs a drop rule and returns it for inspection.
func (a *Air) AddDropRule(rule DropRule) *DropRule {
	a.mu.Lock()
	defer a.mu.Unlock()
	r := rule
	a.rules = append(a.rules, &r)
	return &r
}

// ClearDropRules removes all drop rules.
func (a *Air) ClearDropRules() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.rules = nil
}

// Pending returns the number of queued deliveries.
func (a *Air) Pending() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.queue)
}

// Flush delivers queued frames, including frames sent by receivers while
// handling them, until the queue is empty. It returns the number of frames
// delivered.
func (a *Air) Flush() int {
	n := 0
	for {
		a.mu.Lock()
		if len(a.queue) == 0 {
			a.mu.Unlock()
			return n
		}
		d := a.queue[0]
		a.queue = a.queue[1:]
		recv := d.to.receiver
		a.mu.Unlock()

		if recv != nil {
			recv.HandleFrame(d.src, d.ch, d.buf)
		}
		n++
	}
}

// History returns every transmission so far.
func (a *Air) History() []Transmission {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]Transmission(nil), a.history...)
}

func (a *Air) transmit(from *Station, ch bootstrap.Channel, dst net.HardwareAddr, data []byte) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	tx := Transmission{
		Src:     from.mac,
		Dst:     append(net.HardwareAddr(nil), dst...),
		Channel: ch,
		Data:    append([]byte(nil), data...),
	}

	for _, r := range a.rules {
		if r.match(ch, data) {
			tx.Dropped = true
			a.history = append(a.history, tx)
			return transport.ErrNoAck
		}
	}

	broadcast := bytes.Equal(dst, transport.Broadcast)
	for _, s := range a.stations {
		if s == from || s.channel != ch {
			continue
		}
		if !broadcast && !bytes.Equal(s.mac, dst) {
			continue
		}
		a.queue = append(a.queue, delivery{to: s, src: from.mac, ch: ch, buf: append([]byte(nil), data...)})
		tx.Acked = true
	}

	a.history = append(a.history, tx)
	if !tx.Acked {
		return transport.ErrNoAck
	}
	return nil
}

// Station is one radio on the medium. It implements transport.Radio.
type Station struct {
	air      *Air
	mac      net.HardwareAddr
	channel  bootstrap.Channel
	receiver transport.Receiver
	switches []bootstrap.Channel
}

// MAC returns the station address.
func (s *Station) MAC() net.HardwareAddr {
	return s.mac
}

// SetReceiver installs the handler for frames heard by this station.
func (s *Station) SetReceiver(r transport.Receiver) {
	s.air.mu.Lock()
	defer s.air.mu.Unlock()
	s.receiver = r
}

// Channel returns the channel the station listens on.
func (s *Station) Channel() bootstrap.Channel {
	s.air.mu.Lock()
	defer s.air.mu.Unlock()
	return s.channel
}

// Switches returns every channel switch requested so far.
func (s *Station) Switches() []bootstrap.Channel {
	s.air.mu.Lock()
	defer s.air.mu.Unlock()
	return append([]bootstrap.Channel(nil), s.switches...)
}

// SendActionFrame puts a frame on the air.
func (s *Station) SendActionFrame(ctx context.Context, ch bootstrap.Channel, dst net.HardwareAddr, data []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.air.transmit(s, ch, dst, data)
}

// SwitchChannel retunes the station.
func (s *Station) SwitchChannel(ctx context.Context, ch bootstrap.Channel) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.air.mu.Lock()
	defer s.air.mu.Unlock()
	s.channel = ch
	s.switches = append(s.switches, ch)
	return nil
}

var _ transport.Radio = (*Station)(nil)
