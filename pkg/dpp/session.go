package dpp

import (
	"context"
	"crypto/ecdsa"
	"crypto/rand"
	"crypto/subtle"
	"errors"
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/dpp-onboard/dpp-go/pkg/auth"
	"github.com/dpp-onboard/dpp-go/pkg/bootstrap"
	"github.com/dpp-onboard/dpp-go/pkg/clock"
	"github.com/dpp-onboard/dpp-go/pkg/configobj"
	"github.com/dpp-onboard/dpp-go/pkg/frame"
	"github.com/dpp-onboard/dpp-go/pkg/log"
	"github.com/dpp-onboard/dpp-go/pkg/profile"
	"github.com/dpp-onboard/dpp-go/pkg/transport"
)

// Session is one DPP exchange with one peer, bound to a transaction id.
type Session struct {
	mu sync.Mutex

	engine    *Engine
	id        string
	role      Role
	initiator bool
	created   time.Time

	state State
	err   error
	done  chan struct{}

	txID    uint32
	peerMAC net.HardwareAddr
	channel bootstrap.Channel
	version uint8

	ini    *auth.Initiator
	resp   *auth.Responder
	sealer *configobj.Sealer

	// enonce is the E-nonce of the configuration exchange. It lives in the
	// handshake arena and is wiped with it.
	enonce      []byte
	dialogToken uint8
	netKey      *ecdsa.PrivateKey

	retrans  *transport.Retransmitter
	timer    clock.Timer
	timerGen uint64

	ctx    context.Context
	cancel context.CancelFunc

	profile *profile.Profile
}

// SessionInfo is a snapshot of a session.
type SessionInfo struct {
	ID            string
	Role          Role
	Initiator     bool
	State         State
	TransactionID uint32
	Channel       bootstrap.Channel
	PeerMAC       net.HardwareAddr
	Attempts      int
	Created       time.Time
	Err           error
}

// ID returns the session id.
func (s *Session) ID() string { return s.id }

// Role returns the local role.
func (s *Session) Role() Role { return s.role }

// Initiator reports whether the local side initiated authentication.
func (s *Session) Initiator() bool { return s.initiator }

// Done is closed when the session reaches a terminal state.
func (s *Session) Done() <-chan struct{} { return s.done }

// State returns the current state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Err returns the terminal error, nil while running or when provisioned.
func (s *Session) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

// Profile returns the provisioned profile (Enrollee only).
func (s *Session) Profile() (profile.Profile, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.profile == nil {
		return profile.Profile{}, false
	}
	return *s.profile, true
}

// Attempts returns the number of frames transmitted by the session.
func (s *Session) Attempts() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.retrans.Attempts()
}

// SendTimes returns the transmission times of the session's frames.
func (s *Session) SendTimes() []time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.retrans.SendTimes()
}

// Info returns a snapshot of the session.
func (s *Session) Info() SessionInfo {
	s.mu.Lock()
	defer s.mu.Unlock()
	return SessionInfo{
		ID:            s.id,
		Role:          s.role,
		Initiator:     s.initiator,
		State:         s.state,
		TransactionID: s.txID,
		Channel:       s.channel,
		PeerMAC:       append(net.HardwareAddr(nil), s.peerMAC...),
		Attempts:      s.retrans.Attempts(),
		Created:       s.created,
		Err:           s.err,
	}
}

// Wait blocks until the session finishes or ctx is done.
func (s *Session) Wait(ctx context.Context) error {
	select {
	case <-s.done:
		return s.Err()
	case <-ctx.Done():
		return ctx.Err()
	}
}

// handleFrame dispatches a frame of the session's transaction. Frames that
// are unexpected in the current state are dropped.
func (s *Session) handleFrame(src net.HardwareAddr, ch bootstrap.Channel, f *frame.Frame, data []byte) {
	if s.state.Terminal() {
		s.engine.debugLog("dropping frame for finished session",
			"session", s.id, "type", f.Type.String(), "state", s.state.String())
		return
	}
	s.logFrame(log.DirectionIn, ch, f, data)

	switch f.Type {
	case frame.TypeAuthResponse:
		s.onAuthResponse(src, ch, f)
	case frame.TypeAuthConfirm:
		s.onAuthConfirm(f)
	case frame.TypeConfigRequest:
		s.onConfigRequest(f)
	case frame.TypeConfigResponse:
		s.onConfigResponse(src, f)
	case frame.TypeConfigResult:
		s.onConfigResult(f)
	default:
		s.drop(f, "unexpected frame type")
	}
}

func (s *Session) drop(f *frame.Frame, reason string, args ...any) {
	s.engine.debugLog("dropping frame", append([]any{
		"session", s.id, "type", f.Type.String(), "state", s.state.String(), "reason", reason,
	}, args...)...)
}

// sendAuthRequest starts the Authentication Request on the candidate
// channels, tuning to each so the response can be heard.
func (s *Session) sendAuthRequest(channels []bootstrap.Channel) error {
	req, err := s.ini.AuthRequest()
	if err != nil {
		return err
	}
	s.transition(StateAuthRequested, "authentication request sent")
	return s.send(req, sendOptions{channels: channels, tune: true, expectResponse: true})
}

// onAuthRequestAccepted completes the responder side of a new transaction.
func (s *Session) onAuthRequestAccepted(out *frame.Frame, authErr error) {
	s.transition(StateAuthRequested, "authentication request received")

	if authErr != nil {
		// The peer learns about the mismatch; the session is over either way.
		_ = s.send(out, sendOptions{})
		s.fail(authErr)
		return
	}
	s.version = s.resp.Version()
	s.transition(StateAuthResponded, "authentication response sent")
	if err := s.send(out, sendOptions{expectResponse: true}); err != nil {
		s.fail(err)
	}
}

func (s *Session) onAuthResponse(src net.HardwareAddr, ch bootstrap.Channel, f *frame.Frame) {
	if s.ini == nil || s.state != StateAuthRequested {
		s.drop(f, "not waiting for an authentication response")
		return
	}
	confirm, err := s.ini.HandleAuthResponse(f)
	if err != nil {
		if auth.IsDrop(err) {
			s.drop(f, "authentication response rejected", "error", err)
			return
		}
		s.retrans.Done()
		s.fail(err)
		return
	}

	s.retrans.Done()
	s.peerMAC = append(net.HardwareAddr(nil), src...)
	s.channel = ch
	s.version = s.ini.Version()
	s.sealer = configobj.NewSealer(s.ini.Ke(), s.ini.BindingVersion(), s.txID)
	s.transition(StateAuthResponded, "authentication response verified")

	err = s.send(confirm, sendOptions{onAcked: func() {
		s.transition(StateAuthConfirmed, "authentication confirm delivered")
		s.afterAuth()
	}})
	if err != nil {
		s.fail(err)
	}
}

func (s *Session) onAuthConfirm(f *frame.Frame) {
	if s.resp == nil || s.state != StateAuthResponded {
		s.drop(f, "not waiting for an authentication confirm")
		return
	}
	if err := s.resp.HandleAuthConfirm(f); err != nil {
		if auth.IsDrop(err) {
			s.drop(f, "authentication confirm rejected", "error", err)
			return
		}
		s.retrans.Done()
		s.fail(err)
		return
	}

	s.retrans.Done()
	s.sealer = configobj.NewSealer(s.resp.Ke(), s.resp.BindingVersion(), s.txID)
	s.transition(StateAuthConfirmed, "authentication confirm verified")
	s.afterAuth()
}

// afterAuth starts the configuration exchange: the Enrollee asks, the
// Configurator waits to be asked.
func (s *Session) afterAuth() {
	if s.role == RoleEnrollee {
		if err := s.sendConfigRequest(); err != nil {
			s.fail(err)
		}
		return
	}
	s.armTimer("configuration request")
}

func (s *Session) sendConfigRequest() error {
	curve, arena := s.handshakeCurve(), s.arena()
	s.enonce = arena.Alloc(curve.NonceSize())
	if _, err := rand.Read(s.enonce); err != nil {
		return err
	}
	netKey, err := ecdsa.GenerateKey(curve.Elliptic(), rand.Reader)
	if err != nil {
		return fmt.Errorf("failed to generate network access key: %w", err)
	}
	s.netKey = netKey

	cfg := s.engine.config
	wrapped, err := s.sealer.SealRequest(s.enonce, &configobj.RequestAttributes{
		Name:         cfg.DeviceName,
		WiFiTech:     configobj.WiFiTechInfra,
		NetRole:      cfg.NetRole,
		NetAccessKey: configobj.PublicJWK(&netKey.PublicKey, ""),
	})
	if err != nil {
		return err
	}

	var tok [1]byte
	if _, err := rand.Read(tok[:]); err != nil {
		return err
	}
	s.dialogToken = tok[0]

	req := frame.New(frame.TypeConfigRequest, s.txID)
	req.DialogToken = s.dialogToken
	req.Attributes.Add(frame.AttrWrappedData, wrapped)
	s.transition(StateConfigRequested, "configuration request sent")
	return s.send(req, sendOptions{expectResponse: true})
}

func (s *Session) onConfigRequest(f *frame.Frame) {
	if s.role != RoleConfigurator || s.state != StateAuthConfirmed {
		s.drop(f, "not waiting for a configuration request")
		return
	}
	wrapped, err := f.Attributes.Require(frame.AttrWrappedData, 0)
	if err != nil {
		s.drop(f, "missing wrapped data")
		return
	}
	enonce, attrs, err := s.sealer.OpenRequest(wrapped)
	if err != nil {
		if errors.Is(err, configobj.ErrDecryptFailed) {
			s.drop(f, "configuration request does not decrypt", "error", err)
			return
		}
		s.fail(fmt.Errorf("configuration request: %w", err))
		return
	}

	s.stopTimer()
	s.enonce = s.arena().Adopt(append([]byte(nil), enonce...))
	s.dialogToken = f.DialogToken
	s.transition(StateConfigRequested, "configuration request received")

	obj, err := s.engine.configurationFor(attrs)
	if err != nil {
		s.fail(err)
		return
	}
	sealed, err := s.sealer.Seal(s.enonce, obj)
	if err != nil {
		s.fail(err)
		return
	}

	resp := frame.New(frame.TypeConfigResponse, s.txID)
	resp.DialogToken = s.dialogToken
	resp.Attributes.AddUint8(frame.AttrStatus, uint8(frame.StatusOK))
	resp.Attributes.Add(frame.AttrWrappedData, sealed)
	err = s.send(resp, sendOptions{onAcked: func() {
		if s.version >= 2 {
			s.armTimer("configuration result")
			return
		}
		s.finish(StateProvisioned, nil)
	}})
	if err != nil {
		s.fail(err)
	}
}

func (s *Session) onConfigResponse(src net.HardwareAddr, f *frame.Frame) {
	if s.role != RoleEnrollee || s.state != StateConfigRequested {
		s.drop(f, "not waiting for a configuration response")
		return
	}
	if f.DialogToken != s.dialogToken {
		s.drop(f, "dialog token mismatch", "got", f.DialogToken, "want", s.dialogToken)
		return
	}
	status, err := f.Status()
	if err != nil {
		s.drop(f, "missing status")
		return
	}
	s.retrans.Done()
	if status != frame.StatusOK {
		s.fail(fmt.Errorf("%w: configurator reported %s", ErrConfigRejected, status))
		return
	}

	wrapped, err := f.Attributes.Require(frame.AttrWrappedData, 0)
	if err == nil {
		err = s.applyConfiguration(src, wrapped)
	} else {
		err = fmt.Errorf("%w: %v", ErrMalformedObject, err)
	}

	// The Configuration Result must be sealed before finish wipes ke.
	var result *frame.Frame
	if s.version >= 2 {
		var rerr error
		if result, rerr = s.configResult(resultStatus(err)); rerr != nil {
			s.engine.debugLog("failed to seal configuration result", "session", s.id, "error", rerr)
		}
	}

	if err != nil {
		s.fail(err)
	} else {
		s.finish(StateProvisioned, nil)
	}
	if result != nil {
		_ = s.send(result, sendOptions{})
	}
}

// applyConfiguration opens and verifies the configuration object and hands
// the resulting profile to the sink. Nothing reaches the sink unless every
// check passed.
func (s *Session) applyConfiguration(src net.HardwareAddr, wrapped []byte) error {
	enonce, obj, err := s.sealer.Open(wrapped)
	if err != nil {
		return err
	}
	if !equalBytes(enonce, s.enonce) {
		return fmt.Errorf("%w: E-nonce mismatch", ErrMalformedObject)
	}

	if obj.Cred.AKM == configobj.AKMDPP {
		claims, err := configobj.VerifyConnector(obj.Cred.SignedConnector, obj.Cred.CSign, s.engine.clock.Now())
		if err != nil {
			return err
		}
		pub, ok := claims.NetAccessKey.Key.(*ecdsa.PublicKey)
		if !ok || !pub.Equal(&s.netKey.PublicKey) {
			return fmt.Errorf("%w: connector is bound to another netAccessKey", ErrInvalidConnector)
		}
	}

	p, err := profile.FromObject(obj, s.netKey)
	if err != nil {
		return err
	}
	p.ConfiguratorMAC = src.String()
	p.ProtocolVersion = s.version
	p.ProvisionedAt = s.engine.clock.Now().UTC()

	if err := s.engine.config.Profiles.ProvisionProfile(s.ctx, p); err != nil {
		return fmt.Errorf("%w: %v", ErrProvisionFailed, err)
	}
	s.profile = &p
	return nil
}

func (s *Session) configResult(status frame.Status) (*frame.Frame, error) {
	wrapped, err := s.sealer.SealResult(status, s.enonce)
	if err != nil {
		return nil, err
	}
	f := frame.New(frame.TypeConfigResult, s.txID)
	f.Attributes.Add(frame.AttrWrappedData, wrapped)
	return f, nil
}

func (s *Session) onConfigResult(f *frame.Frame) {
	if s.role != RoleConfigurator || s.state != StateConfigRequested || s.version < 2 {
		s.drop(f, "not waiting for a configuration result")
		return
	}
	wrapped, err := f.Attributes.Require(frame.AttrWrappedData, 0)
	if err != nil {
		s.drop(f, "missing wrapped data")
		return
	}
	status, enonce, err := s.sealer.OpenResult(wrapped)
	if err != nil {
		s.drop(f, "configuration result rejected", "error", err)
		return
	}
	if !equalBytes(enonce, s.enonce) {
		s.drop(f, "E-nonce mismatch")
		return
	}

	s.stopTimer()
	if status != frame.StatusOK {
		s.fail(fmt.Errorf("%w: %s", ErrConfigRejected, status))
		return
	}
	s.finish(StateProvisioned, nil)
}

// sendOptions tunes one transmission.
type sendOptions struct {
	// channels defaults to the session channel.
	channels       []bootstrap.Channel
	tune           bool
	expectResponse bool
	onAcked        func()
}

// send encodes f and hands it to the retransmitter.
func (s *Session) send(f *frame.Frame, opts sendOptions) error {
	data, err := f.Marshal()
	if err != nil {
		return err
	}
	channels := opts.channels
	if len(channels) == 0 {
		channels = []bootstrap.Channel{s.channel}
	}
	s.logFrame(log.DirectionOut, channels[0], f, data)

	dst := s.peerMAC
	if dst == nil {
		dst = transport.Broadcast
	}
	name := f.Type.String()
	return s.retrans.Start(s.ctx, transport.Request{
		Data:           data,
		Dst:            dst,
		Channels:       channels,
		Tune:           opts.tune,
		ExpectResponse: opts.expectResponse,
		OnAcked:        opts.onAcked,
		OnRetransmit: func(ch bootstrap.Channel, attempt int, switched bool) {
			reason := log.RetryNoAck
			if opts.expectResponse {
				reason = log.RetryNoResponse
			}
			if switched {
				reason = log.RetryChannelSwitch
				s.channel = ch
			}
			s.logRetry(reason, attempt, ch)
		},
		OnExhausted: func(err error) {
			if s.state.Terminal() {
				return
			}
			s.logRetry(log.RetryExhausted, s.engine.config.Retry.MaxAttempts, bootstrap.Channel{})
			s.fail(fmt.Errorf("%s: %w", name, err))
		},
	})
}

// armTimer fails the session with ErrNoResponse unless the awaited frame
// arrives within the exchange timeout.
func (s *Session) armTimer(waitingFor string) {
	s.stopTimer()
	gen := s.timerGen
	s.timer = s.engine.clock.AfterFunc(s.engine.config.ExchangeTimeout, func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		if gen != s.timerGen || s.state.Terminal() {
			return
		}
		s.timer = nil
		s.fail(fmt.Errorf("%w: timed out waiting for %s", ErrNoResponse, waitingFor))
	})
}

func (s *Session) stopTimer() {
	s.timerGen++
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
}

// transition moves to a non-terminal state.
func (s *Session) transition(to State, reason string) {
	from := s.state
	if from == to {
		return
	}
	s.state = to
	s.logState(from, to, reason)
	s.engine.debugLog("session state changed",
		"session", s.id, "role", s.role.String(), "from", from.String(), "to", to.String(), "reason", reason)
	if !to.Terminal() {
		s.engine.emitEvent(s.event(EventStateChanged, from))
	}
}

// finish moves to a terminal state exactly once: timers stop, session keys
// are wiped and the terminal event is emitted.
func (s *Session) finish(to State, err error) {
	if s.state.Terminal() {
		return
	}
	s.retrans.Cancel()
	s.stopTimer()
	s.wipe()

	from := s.state
	s.err = err
	if err != nil {
		s.logError(err)
	}
	s.transition(to, terminalReason(to, err))
	close(s.done)

	typ := EventProvisioned
	switch to {
	case StateFailed:
		typ = EventFailed
	case StateAborted:
		typ = EventAborted
	}
	s.engine.emitEvent(s.event(typ, from))
}

func (s *Session) fail(err error) {
	s.finish(StateFailed, err)
}

// abort stops the session for Engine.Stop.
func (s *Session) abort() {
	if !s.state.Terminal() {
		s.finish(StateAborted, ErrAborted)
	}
	s.release()
}

// release drops everything still scheduled for a finished session.
func (s *Session) release() {
	s.retrans.Cancel()
	s.cancel()
}

// wipe destroys all key material of the exchange.
func (s *Session) wipe() {
	if s.ini != nil {
		s.ini.Close()
	}
	if s.resp != nil {
		s.resp.Close()
	}
	s.sealer = nil
	s.enonce = nil
	s.netKey = nil
}

// Wiped reports whether the session's key material has been destroyed.
func (s *Session) Wiped() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	a := s.arena()
	return a == nil || a.Wiped()
}

func (s *Session) arena() *auth.Arena {
	switch {
	case s.ini != nil:
		return s.ini.Arena()
	case s.resp != nil:
		return s.resp.Arena()
	}
	return nil
}

func (s *Session) handshakeCurve() *bootstrap.Curve {
	if s.ini != nil {
		return s.ini.Curve()
	}
	return s.resp.Curve()
}

func (s *Session) event(typ EventType, from State) Event {
	ev := Event{
		Type:      typ,
		SessionID: s.id,
		Role:      s.role,
		Initiator: s.initiator,
		OldState:  from,
		State:     s.state,
		Err:       s.err,
	}
	if typ == EventProvisioned && s.profile != nil {
		p := *s.profile
		ev.Profile = &p
	}
	return ev
}

func terminalReason(to State, err error) string {
	if err != nil {
		return err.Error()
	}
	return to.String()
}

// resultStatus maps the outcome of applying a configuration to the status
// of the Configuration Result.
func resultStatus(err error) frame.Status {
	if errors.Is(err, ErrProvisionFailed) {
		return frame.StatusConfigureFailure
	}
	return configobj.StatusFor(err)
}

func equalBytes(a, b []byte) bool {
	return len(a) > 0 && subtle.ConstantTimeCompare(a, b) == 1
}
