package discovery

import (
	"context"
	"sync"
	"time"

	"github.com/dpp-onboard/dpp-go/pkg/clock"
)

// Advertiser provides mDNS service advertising capabilities.
type Advertiser interface {
	// Advertise starts publishing a bootstrap URI. A previous
	// advertisement is replaced.
	Advertise(ctx context.Context, info *BootstrapInfo) error

	// Stop withdraws the advertisement.
	Stop() error
}

// AdvertiserConfig configures advertiser behavior.
type AdvertiserConfig struct {
	// Interface specifies which network interface to use.
	// Empty string means all interfaces.
	Interface string

	// TTL is the DNS record TTL.
	// Default: 120 seconds.
	TTL time.Duration
}

// DefaultAdvertiserConfig returns the default advertiser configuration.
func DefaultAdvertiserConfig() AdvertiserConfig {
	return AdvertiserConfig{
		Interface: "",
		TTL:       DefaultTTL,
	}
}

// PublisherState is the advertisement state of a Publisher.
type PublisherState uint8

const (
	// StateIdle means nothing is advertised.
	StateIdle PublisherState = iota

	// StateAdvertising means the bootstrap URI is published.
	StateAdvertising
)

// String returns the state name.
func (s PublisherState) String() string {
	switch s {
	case StateIdle:
		return "IDLE"
	case StateAdvertising:
		return "ADVERTISING"
	default:
		return "UNKNOWN"
	}
}

// Publisher advertises a bootstrap URI for a bounded window.
type Publisher struct {
	mu sync.Mutex

	advertiser Advertiser
	clock      clock.Clock

	state PublisherState
	info  *BootstrapInfo
	timer clock.Timer
	gen   uint64

	onStateChange func(old, new PublisherState)
}

// NewPublisher creates a publisher backed by advertiser. A nil clock uses
// the real clock.
func NewPublisher(advertiser Advertiser, clk clock.Clock) *Publisher {
	if clk == nil {
		clk = clock.Real{}
	}
	return &Publisher{advertiser: advertiser, clock: clk}
}

// State returns the current advertisement state.
func (p *Publisher) State() PublisherState {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state
}

// Info returns the advertised information, or nil when idle.
func (p *Publisher) Info() *BootstrapInfo {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.info
}

// OnStateChange sets a callback for state changes. The callback runs with
// the publisher locked and must not call back into it.
func (p *Publisher) OnStateChange(fn func(old, new PublisherState)) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.onStateChange = fn
}

// Start advertises info. When window is positive the advertisement is
// withdrawn automatically once it elapses.
func (p *Publisher) Start(ctx context.Context, info *BootstrapInfo, window time.Duration) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if err := p.advertiser.Advertise(ctx, info); err != nil {
		return err
	}

	p.stopTimerLocked()
	p.info = info
	if window > 0 {
		gen := p.gen
		p.timer = p.clock.AfterFunc(window, func() { p.expire(gen) })
	}
	p.setStateLocked(StateAdvertising)
	return nil
}

// Stop withdraws the advertisement.
func (p *Publisher) Stop() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.stopLocked()
}

func (p *Publisher) expire(gen uint64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if gen != p.gen || p.state != StateAdvertising {
		return
	}
	_ = p.stopLocked()
}

func (p *Publisher) stopLocked() error {
	p.stopTimerLocked()
	if p.state == StateIdle {
		return nil
	}
	err := p.advertiser.Stop()
	p.info = nil
	p.setStateLocked(StateIdle)
	return err
}

func (p *Publisher) stopTimerLocked() {
	p.gen++
	if p.timer != nil {
		p.timer.Stop()
		p.timer = nil
	}
}

func (p *Publisher) setStateLocked(s PublisherState) {
	old := p.state
	p.state = s
	if old != s && p.onStateChange != nil {
		p.onStateChange(old, s)
	}
}
