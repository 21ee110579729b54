package transport

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"sync"
	"time"

	"github.com/dpp-onboard/dpp-go/pkg/bootstrap"
	"github.com/dpp-onboard/dpp-go/pkg/clock"
)

// Retry defaults.
const (
	DefaultAckWait      = 2500 * time.Millisecond
	DefaultResponseWait = 2500 * time.Millisecond
	DefaultMaxAttempts  = 5
)

// ErrInvalidRetryConfig indicates an unusable RetryConfig.
var ErrInvalidRetryConfig = errors.New("invalid retry configuration")

// RetryConfig tunes retransmission.
type RetryConfig struct {
	// AckWait is the delay before re-sending an unacknowledged frame.
	AckWait time.Duration `yaml:"ack_wait"`

	// ResponseWait is the delay before re-sending an acknowledged frame
	// whose reply has not arrived.
	ResponseWait time.Duration `yaml:"response_wait"`

	// MaxAttempts is the number of transmissions per channel.
	MaxAttempts int `yaml:"max_attempts"`
}

// DefaultRetryConfig returns the default retry tuning.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		AckWait:      DefaultAckWait,
		ResponseWait: DefaultResponseWait,
		MaxAttempts:  DefaultMaxAttempts,
	}
}

// Validate checks the configuration.
func (c RetryConfig) Validate() error {
	if c.AckWait <= 0 {
		return fmt.Errorf("%w: ack wait must be positive", ErrInvalidRetryConfig)
	}
	if c.ResponseWait <= 0 {
		return fmt.Errorf("%w: response wait must be positive", ErrInvalidRetryConfig)
	}
	if c.MaxAttempts < 1 {
		return fmt.Errorf("%w: at least one attempt is required", ErrInvalidRetryConfig)
	}
	return nil
}

// Request describes one frame to deliver.
type Request struct {
	// Data is the encoded frame.
	Data []byte

	// Dst is the peer address.
	Dst net.HardwareAddr

	// Channels are tried in order. Must not be empty.
	Channels []bootstrap.Channel

	// Tune asks the radio to switch to each channel before sending on it,
	// so the reply can be heard there.
	Tune bool

	// ExpectResponse keeps re-sending after the ack until Done is called.
	ExpectResponse bool

	// OnAcked is called after the first acknowledged transmission.
	OnAcked func()

	// OnRetransmit is called before every re-send with the channel and
	// the attempt number on that channel. switched is true for the first
	// attempt on a new channel.
	OnRetransmit func(ch bootstrap.Channel, attempt int, switched bool)

	// OnExhausted is called when every attempt on every channel failed.
	OnExhausted func(error)
}

// Retransmitter delivers one frame at a time with retries.
//
// All methods must be called with the owner's lock held; timer callbacks
// acquire the same lock before touching the Retransmitter, so callbacks in
// Request run under that lock too.
type Retransmitter struct {
	radio  Radio
	clock  clock.Clock
	config RetryConfig
	lock   sync.Locker
	logger *slog.Logger

	gen   uint64
	job   *job
	timer clock.Timer

	attempts  int
	sendTimes []time.Time
}

type job struct {
	ctx     context.Context
	req     Request
	chIdx   int
	attempt int
	acked   bool
}

// NewRetransmitter creates a Retransmitter. lock is the owner's lock.
func NewRetransmitter(radio Radio, clk clock.Clock, config RetryConfig, lock sync.Locker, logger *slog.Logger) *Retransmitter {
	if clk == nil {
		clk = clock.Real{}
	}
	return &Retransmitter{
		radio:  radio,
		clock:  clk,
		config: config,
		lock:   lock,
		logger: logger,
	}
}

// Start begins delivering req, replacing any frame still outstanding.
func (r *Retransmitter) Start(ctx context.Context, req Request) error {
	if len(req.Channels) == 0 {
		return fmt.Errorf("%w: no channel to send on", ErrInvalidRetryConfig)
	}
	r.stop()
	r.job = &job{ctx: ctx, req: req}
	if req.Tune {
		r.tune()
	}
	r.send()
	return nil
}

// Done reports that the reply arrived; retransmission stops.
func (r *Retransmitter) Done() {
	r.stop()
}

// Cancel abandons the outstanding frame without reporting anything.
func (r *Retransmitter) Cancel() {
	r.stop()
}

// Active reports whether a frame is outstanding.
func (r *Retransmitter) Active() bool {
	return r.job != nil
}

// Channel returns the channel of the outstanding frame.
func (r *Retransmitter) Channel() (bootstrap.Channel, bool) {
	if r.job == nil {
		return bootstrap.Channel{}, false
	}
	return r.job.req.Channels[r.job.chIdx], true
}

// Attempts returns the total number of transmissions made.
func (r *Retransmitter) Attempts() int {
	return r.attempts
}

// SendTimes returns the time of every transmission made.
func (r *Retransmitter) SendTimes() []time.Time {
	return append([]time.Time(nil), r.sendTimes...)
}

func (r *Retransmitter) stop() {
	r.gen++
	if r.timer != nil {
		r.timer.Stop()
		r.timer = nil
	}
	r.job = nil
}

func (r *Retransmitter) tune() {
	ch := r.job.req.Channels[r.job.chIdx]
	if err := r.radio.SwitchChannel(r.job.ctx, ch); err != nil {
		r.debugLog("channel switch failed", "channel", ch.String(), "error", err)
	}
}

func (r *Retransmitter) send() {
	j := r.job
	ch := j.req.Channels[j.chIdx]
	j.attempt++
	r.attempts++
	r.sendTimes = append(r.sendTimes, r.clock.Now())

	err := r.radio.SendActionFrame(j.ctx, ch, j.req.Dst, j.req.Data)
	if err != nil {
		r.debugLog("frame not acknowledged",
			"channel", ch.String(), "attempt", j.attempt, "error", err)
		r.schedule(r.config.AckWait)
		return
	}

	if !j.acked {
		j.acked = true
		if j.req.OnAcked != nil {
			j.req.OnAcked()
			// The callback may have replaced or stopped the job.
			if r.job != j {
				return
			}
		}
	}

	if !j.req.ExpectResponse {
		r.stop()
		return
	}
	r.schedule(r.config.ResponseWait)
}

func (r *Retransmitter) schedule(d time.Duration) {
	gen := r.gen
	r.timer = r.clock.AfterFunc(d, func() {
		r.lock.Lock()
		defer r.lock.Unlock()
		if r.gen != gen || r.job == nil {
			return
		}
		r.timer = nil
		r.retry()
	})
}

func (r *Retransmitter) retry() {
	j := r.job
	if j.attempt < r.config.MaxAttempts {
		r.notifyRetransmit(j, false)
		if r.job != j {
			return
		}
		r.send()
		return
	}

	if j.chIdx+1 < len(j.req.Channels) {
		j.chIdx++
		j.attempt = 0
		r.debugLog("moving to next channel", "channel", j.req.Channels[j.chIdx].String())
		if j.req.Tune {
			r.tune()
		}
		r.notifyRetransmit(j, true)
		if r.job != j {
			return
		}
		r.send()
		return
	}

	onExhausted := j.req.OnExhausted
	attempts := r.attempts
	r.stop()
	if onExhausted != nil {
		onExhausted(fmt.Errorf("%w after %d attempts", ErrNoResponse, attempts))
	}
}

func (r *Retransmitter) notifyRetransmit(j *job, switched bool) {
	if j.req.OnRetransmit != nil {
		j.req.OnRetransmit(j.req.Channels[j.chIdx], j.attempt+1, switched)
	}
}

func (r *Retransmitter) debugLog(msg string, args ...any) {
	if r.logger != nil {
		r.logger.Debug(msg, args...)
	}
}
