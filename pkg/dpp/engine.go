package dpp

import (
	"context"
	"crypto/ecdh"
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"encoding/binary"
	"fmt"
	"log/slog"
	"net"
	"slices"
	"sync"
	"time"

	"github.com/dpp-onboard/dpp-go/pkg/auth"
	"github.com/dpp-onboard/dpp-go/pkg/bootstrap"
	"github.com/dpp-onboard/dpp-go/pkg/clock"
	"github.com/dpp-onboard/dpp-go/pkg/configobj"
	"github.com/dpp-onboard/dpp-go/pkg/frame"
	"github.com/dpp-onboard/dpp-go/pkg/log"
	"github.com/dpp-onboard/dpp-go/pkg/transport"
	"github.com/google/uuid"
)

// Engine runs DPP exchanges for one device.
//
// Lock order: Engine.mu before Session.mu. Session code never takes
// Engine.mu, so timer callbacks and frame handling of unrelated sessions
// proceed independently. Engine.mu is never held while a frame is on
// the air.
type Engine struct {
	mu sync.Mutex

	config   Config
	clock    clock.Clock
	identity *bootstrap.Info
	uri      string
	signer   *configobj.Signer

	// sessions indexes bound sessions by transaction id.
	sessions map[uint32]*Session

	// all lists every session since the last prune, in creation order.
	all []*Session

	// enrolleeListener is the responder Enrollee session waiting for an
	// Authentication Request.
	enrolleeListener *Session

	// configuratorListening accepts Authentication Requests from
	// initiating Enrollees, one new session per transaction id.
	configuratorListening bool

	// responderPeer is the initiator bootstrapping key known for mutual
	// authentication (optional).
	responderPeer *ecdh.PublicKey

	handlersMu sync.RWMutex
	handlers   []EventHandler

	logger         *slog.Logger
	protocolLogger log.Logger
}

// New creates an Engine. Zero tuning values in config are replaced with
// defaults.
func New(config Config) (*Engine, error) {
	def := DefaultConfig()
	if config.Clock == nil {
		config.Clock = def.Clock
	}
	if config.Retry == (transport.RetryConfig{}) {
		config.Retry = def.Retry
	}
	if config.ExchangeTimeout == 0 {
		config.ExchangeTimeout = def.ExchangeTimeout
	}
	if config.Version == 0 {
		config.Version = def.Version
	}
	if config.NetRole == "" {
		config.NetRole = def.NetRole
	}
	if config.DeviceName == "" {
		config.DeviceName = def.DeviceName
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}

	e := &Engine{
		config:         config,
		clock:          config.Clock,
		sessions:       make(map[uint32]*Session),
		logger:         config.Logger,
		protocolLogger: config.ProtocolLogger,
	}
	if e.protocolLogger == nil {
		e.protocolLogger = log.NoopLogger{}
	}

	e.identity = config.Bootstrap
	if e.identity == nil {
		info, err := bootstrap.Generate(bootstrap.GenerateOptions{
			Channels:    config.Channels,
			MAC:         config.MAC,
			Information: config.Information,
			Version:     int(config.Version),
		})
		if err != nil {
			return nil, fmt.Errorf("failed to generate bootstrapping key: %w", err)
		}
		e.identity = info
	}
	uri, err := e.identity.URI()
	if err != nil {
		return nil, err
	}
	e.uri = uri

	if config.Network != nil && config.Network.AKM == configobj.AKMDPP || config.CSignKey != nil {
		key := config.CSignKey
		if key == nil {
			if key, err = ecdsa.GenerateKey(elliptic.P256(), rand.Reader); err != nil {
				return nil, fmt.Errorf("failed to generate C-sign key: %w", err)
			}
		}
		if e.signer, err = configobj.NewSigner(key); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
		}
	}

	return e, nil
}

// URI returns the local bootstrapping URI.
func (e *Engine) URI() string {
	return e.uri
}

// Identity returns the public part of the local bootstrapping information.
func (e *Engine) Identity() *bootstrap.Info {
	return e.identity.Public()
}

// OnEvent registers an event handler. Handlers run on their own goroutine.
func (e *Engine) OnEvent(handler EventHandler) {
	e.handlersMu.Lock()
	defer e.handlersMu.Unlock()
	e.handlers = append(e.handlers, handler)
}

// emitEvent sends an event to all registered handlers.
func (e *Engine) emitEvent(event Event) {
	e.handlersMu.RLock()
	defer e.handlersMu.RUnlock()
	for _, handler := range e.handlers {
		go handler(event)
	}
}

// StartEnrollee advertises the local bootstrapping information and waits,
// as responder, for a Configurator to initiate. It returns the URI to show
// to the Configurator.
func (e *Engine) StartEnrollee(ctx context.Context, opts StartOptions) (string, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.checkEnrolleeLocked(); err != nil {
		return "", err
	}
	peer, err := parsePeerKey(opts.PeerURI)
	if err != nil {
		return "", err
	}
	ch := e.listenChannel()
	if err := e.config.Radio.SwitchChannel(ctx, ch); err != nil {
		return "", fmt.Errorf("failed to tune radio to %s: %w", ch, err)
	}

	e.pruneLocked()
	if peer != nil {
		e.responderPeer = peer
	}
	s := e.newSessionLocked(RoleEnrollee, false)
	s.mu.Lock()
	s.channel = ch
	s.transition(StateBootstrapAdvertised, "listening")
	s.mu.Unlock()
	e.enrolleeListener = s

	e.debugLog("enrollee listening", "session", s.id, "channel", ch.String())
	return e.uri, nil
}

// StartConfigurator accepts Authentication Requests from initiating
// Enrollees. Every request with a new transaction id starts its own
// session, so several Enrollees can be provisioned concurrently.
func (e *Engine) StartConfigurator(ctx context.Context, opts StartOptions) (string, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.config.Network == nil {
		return "", ErrNoNetwork
	}
	peer, err := parsePeerKey(opts.PeerURI)
	if err != nil {
		return "", err
	}
	ch := e.listenChannel()
	if err := e.config.Radio.SwitchChannel(ctx, ch); err != nil {
		return "", fmt.Errorf("failed to tune radio to %s: %w", ch, err)
	}

	e.pruneLocked()
	if peer != nil {
		e.responderPeer = peer
	}
	e.configuratorListening = true

	e.debugLog("configurator listening", "channel", ch.String())
	return e.uri, nil
}

// StartEnrolleeInitiator initiates authentication towards a Configurator
// whose URI was scanned.
func (e *Engine) StartEnrolleeInitiator(ctx context.Context, peerURI string, opts StartOptions) (*Session, error) {
	return e.startInitiator(ctx, RoleEnrollee, peerURI, opts)
}

// StartConfiguratorInitiator initiates authentication towards an Enrollee
// whose URI was scanned, optionally on an explicit frequency.
func (e *Engine) StartConfiguratorInitiator(ctx context.Context, peerURI string, opts StartOptions) (*Session, error) {
	return e.startInitiator(ctx, RoleConfigurator, peerURI, opts)
}

func (e *Engine) startInitiator(ctx context.Context, role Role, peerURI string, opts StartOptions) (*Session, error) {
	peer, err := bootstrap.Parse(peerURI)
	if err != nil {
		return nil, fmt.Errorf("invalid peer URI: %w", err)
	}
	channels, err := initiatorChannels(peer, opts.Frequency)
	if err != nil {
		return nil, err
	}

	e.mu.Lock()
	if role == RoleEnrollee {
		if err := e.checkEnrolleeLocked(); err != nil {
			e.mu.Unlock()
			return nil, err
		}
	} else if e.config.Network == nil {
		e.mu.Unlock()
		return nil, ErrNoNetwork
	}

	txID, err := e.newTransactionIDLocked()
	if err != nil {
		e.mu.Unlock()
		return nil, err
	}
	// Offer mutual authentication when the keys share a curve.
	var own *ecdh.PrivateKey
	if e.identity.Curve == peer.Curve {
		own = e.identity.PrivateKey
	}
	ini, err := auth.NewInitiator(auth.InitiatorConfig{
		PeerBootstrap: peer.PublicKey,
		Bootstrap:     own,
		Caps:          role.caps(),
		Version:       e.config.Version,
		TxID:          txID,
	})
	if err != nil {
		e.mu.Unlock()
		return nil, err
	}

	e.pruneLocked()
	s := e.newSessionLocked(role, true)
	s.txID = txID
	s.ini = ini
	s.channel = channels[0]
	s.peerMAC = transport.Broadcast
	if peer.MAC != nil {
		s.peerMAC = peer.MAC
	}
	e.sessions[txID] = s

	s.mu.Lock()
	e.mu.Unlock()
	defer s.mu.Unlock()

	if err := ctx.Err(); err != nil {
		s.finish(StateAborted, fmt.Errorf("%w: %v", ErrAborted, err))
		return s, err
	}
	s.transition(StateBootstrapAdvertised, "peer URI scanned")
	if err := s.sendAuthRequest(channels); err != nil {
		s.fail(err)
		return s, err
	}
	return s, nil
}

// Stop aborts every exchange in progress and stops listening. Session keys
// are wiped and timers cancelled.
func (e *Engine) Stop() {
	e.mu.Lock()
	sessions := append([]*Session(nil), e.all...)
	e.enrolleeListener = nil
	e.configuratorListening = false
	e.responderPeer = nil
	e.mu.Unlock()

	for _, s := range sessions {
		// Cancelling first interrupts a send that holds s.mu.
		s.cancel()
		s.mu.Lock()
		s.abort()
		s.mu.Unlock()
	}
	e.debugLog("engine stopped", "sessions", len(sessions))
}

// Sessions returns the sessions started since the last prune, oldest
// first. Finished sessions are pruned when a new exchange starts.
func (e *Engine) Sessions() []*Session {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]*Session(nil), e.all...)
}

// Session returns the session with the given id.
func (e *Engine) Session(id string) (*Session, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	for _, s := range e.all {
		if s.id == id {
			return s, true
		}
	}
	return nil, false
}

// Listening reports which responder roles accept Authentication Requests.
func (e *Engine) Listening() (enrollee, configurator bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.enrolleeListener != nil, e.configuratorListening
}

// HandleFrame processes a received action frame. It implements
// transport.Receiver. The radio must not call it from within
// SendActionFrame.
func (e *Engine) HandleFrame(src net.HardwareAddr, ch bootstrap.Channel, data []byte) {
	f, err := frame.Unmarshal(data)
	if err != nil {
		e.debugLog("dropping frame", "src", src.String(), "error", err)
		return
	}
	txID, err := f.TransactionID()
	if err != nil {
		e.debugLog("dropping frame without transaction id", "type", f.Type.String(), "src", src.String())
		return
	}

	e.mu.Lock()
	s, ok := e.sessions[txID]
	if !ok {
		if f.Type == frame.TypeAuthRequest {
			e.acceptAuthRequest(src, ch, f, data)
			return
		}
		e.mu.Unlock()
		e.debugLog("dropping frame for unknown transaction",
			"type", f.Type.String(), "tx_id", txID, "src", src.String())
		return
	}
	e.mu.Unlock()

	s.mu.Lock()
	defer s.mu.Unlock()
	s.handleFrame(src, ch, f, data)
}

// acceptAuthRequest answers an Authentication Request that opens a new
// transaction, binding it to the Enrollee listener or to a new
// Configurator session depending on the negotiated role. It is called
// with e.mu held and releases it before the response goes on the air.
func (e *Engine) acceptAuthRequest(src net.HardwareAddr, ch bootstrap.Channel, f *frame.Frame, data []byte) {
	s, resp, out, authErr := e.bindAuthRequestLocked(src, f)
	if s == nil {
		e.mu.Unlock()
		return
	}
	s.mu.Lock()
	e.mu.Unlock()
	defer s.mu.Unlock()

	if s.state.Terminal() {
		resp.Close()
		return
	}
	s.txID, _ = f.TransactionID()
	s.resp = resp
	s.peerMAC = append(net.HardwareAddr(nil), src...)
	s.channel = ch
	if s.state == StateIdle {
		s.transition(StateBootstrapAdvertised, "listening")
	}
	s.logFrame(log.DirectionIn, ch, f, data)
	s.onAuthRequestAccepted(out, authErr)
}

// bindAuthRequestLocked runs the responder side of the request and
// registers the transaction with the session that answers it. It returns
// a nil session when the request is dropped.
func (e *Engine) bindAuthRequestLocked(src net.HardwareAddr, f *frame.Frame) (*Session, *auth.Responder, *frame.Frame, error) {
	var caps auth.Capabilities
	if e.enrolleeListener != nil {
		caps |= auth.CapEnrollee
	}
	if e.configuratorListening {
		caps |= auth.CapConfigurator
	}
	if caps == 0 {
		e.debugLog("dropping authentication request: not listening", "src", src.String())
		return nil, nil, nil, nil
	}

	resp, err := auth.NewResponder(auth.ResponderConfig{
		Bootstrap:     e.identity.PrivateKey,
		PeerBootstrap: e.responderPeer,
		Caps:          caps,
		Version:       e.config.Version,
	})
	if err != nil {
		e.debugLog("failed to create responder", "error", err)
		return nil, nil, nil, nil
	}
	out, authErr := resp.HandleAuthRequest(f)
	// Only a capability mismatch is answered; other failures leave the
	// listeners untouched.
	if authErr != nil && (auth.IsDrop(authErr) || out == nil) {
		resp.Close()
		e.debugLog("dropping authentication request", "src", src.String(), "error", authErr)
		return nil, nil, nil, nil
	}

	role := RoleEnrollee
	switch {
	case authErr == nil && resp.Role() == auth.CapConfigurator:
		role = RoleConfigurator
	case authErr != nil && e.enrolleeListener == nil:
		role = RoleConfigurator
	}

	var s *Session
	if role == RoleEnrollee {
		s = e.enrolleeListener
		e.enrolleeListener = nil
	} else {
		s = e.newSessionLocked(RoleConfigurator, false)
	}
	txID, _ := f.TransactionID()
	e.sessions[txID] = s
	return s, resp, out, authErr
}

func (e *Engine) checkEnrolleeLocked() error {
	if e.config.Profiles == nil {
		return fmt.Errorf("%w: enrollee requires a profile sink", ErrInvalidConfig)
	}
	for _, s := range e.all {
		if s.role != RoleEnrollee {
			continue
		}
		s.mu.Lock()
		active := !s.state.Terminal()
		s.mu.Unlock()
		if active {
			return ErrBusy
		}
	}
	return nil
}

// pruneLocked forgets finished sessions that have nothing left to send.
func (e *Engine) pruneLocked() {
	kept := e.all[:0]
	for _, s := range e.all {
		s.mu.Lock()
		done := s.state.Terminal() && !s.retrans.Active()
		if done {
			s.release()
		}
		s.mu.Unlock()
		if done {
			if e.sessions[s.txID] == s {
				delete(e.sessions, s.txID)
			}
			continue
		}
		kept = append(kept, s)
	}
	clear(e.all[len(kept):])
	e.all = kept
}

func (e *Engine) newSessionLocked(role Role, initiator bool) *Session {
	s := &Session{
		engine:    e,
		id:        uuid.NewString(),
		role:      role,
		initiator: initiator,
		created:   e.clock.Now(),
		done:      make(chan struct{}),
	}
	s.ctx, s.cancel = context.WithCancel(context.Background())
	s.retrans = transport.NewRetransmitter(e.config.Radio, e.clock, e.config.Retry, &s.mu, e.logger)
	e.all = append(e.all, s)
	return s
}

func (e *Engine) newTransactionIDLocked() (uint32, error) {
	var b [4]byte
	for {
		if _, err := rand.Read(b[:]); err != nil {
			return 0, fmt.Errorf("failed to generate transaction id: %w", err)
		}
		id := binary.LittleEndian.Uint32(b[:])
		if _, taken := e.sessions[id]; id != 0 && !taken {
			return id, nil
		}
	}
}

func (e *Engine) listenChannel() bootstrap.Channel {
	if len(e.config.Channels) > 0 {
		return e.config.Channels[0]
	}
	return bootstrap.DefaultChannel
}

// configurationFor builds the configuration object for an Enrollee.
func (e *Engine) configurationFor(req *configobj.RequestAttributes) (*configobj.Object, error) {
	n := e.config.Network
	if n == nil {
		return nil, ErrNoNetwork
	}
	obj := &configobj.Object{
		WiFiTech:  configobj.WiFiTechInfra,
		Discovery: configobj.Discovery{SSID: n.SSID},
		Cred:      &configobj.Credential{AKM: n.AKM},
	}
	if n.AKM != configobj.AKMDPP {
		obj.Cred.Pass = n.Passphrase
		obj.Cred.PSKHex = n.PSKHex
		return obj, obj.Validate()
	}

	if req.NetAccessKey == nil {
		return nil, fmt.Errorf("%w: enrollee sent no netAccessKey", ErrUnsupportedCredential)
	}
	group := n.GroupID
	if group == "" {
		group = "*"
	}
	claims := configobj.ConnectorClaims{
		Groups:       []configobj.Group{{GroupID: group, NetRole: req.NetRole}},
		NetAccessKey: req.NetAccessKey,
	}
	if n.ConnectorLifetime > 0 {
		claims.Expiry = e.clock.Now().Add(n.ConnectorLifetime).UTC().Format(time.RFC3339)
	}
	connector, err := e.signer.Sign(claims)
	if err != nil {
		return nil, err
	}
	obj.Cred.SignedConnector = connector
	obj.Cred.CSign = e.signer.CSign()
	return obj, obj.Validate()
}

// initiatorChannels returns the channels to try for the Authentication
// Request: the explicit frequency first, then the peer's advertised
// channels, else the default channel.
func initiatorChannels(peer *bootstrap.Info, freq int) ([]bootstrap.Channel, error) {
	var channels []bootstrap.Channel
	if freq != 0 {
		ch, err := bootstrap.ChannelFromFrequency(freq)
		if err != nil {
			return nil, err
		}
		channels = append(channels, ch)
	}
	advertised := peer.Channels
	if len(advertised) == 0 {
		advertised = []bootstrap.Channel{bootstrap.DefaultChannel}
	}
	for _, ch := range advertised {
		if !slices.Contains(channels, ch) {
			channels = append(channels, ch)
		}
	}
	return channels, nil
}

func parsePeerKey(uri string) (*ecdh.PublicKey, error) {
	if uri == "" {
		return nil, nil
	}
	info, err := bootstrap.Parse(uri)
	if err != nil {
		return nil, fmt.Errorf("invalid peer URI: %w", err)
	}
	return info.PublicKey, nil
}

// debugLog logs a debug message if logging is enabled.
func (e *Engine) debugLog(msg string, args ...any) {
	if e.logger != nil {
		e.logger.Debug(msg, args...)
	}
}

var _ transport.Receiver = (*Engine)(nil)
