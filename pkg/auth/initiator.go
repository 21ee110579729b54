package auth

import (
	"crypto/ecdh"
	"crypto/hmac"
	"fmt"

	"github.com/dpp-onboard/dpp-go/pkg/bootstrap"
	"github.com/dpp-onboard/dpp-go/pkg/frame"
)

// InitiatorConfig configures an Initiator.
type InitiatorConfig struct {
	// PeerBootstrap is the responder's bootstrapping public key (BR).
	PeerBootstrap *ecdh.PublicKey

	// Bootstrap is the initiator's own bootstrapping key (bI). Optional;
	// when set the initiator offers mutual authentication.
	Bootstrap *ecdh.PrivateKey

	// Caps is the role the initiator wants to take.
	Caps Capabilities

	// Version is the local protocol version.
	Version uint8

	// TxID identifies the exchange.
	TxID uint32
}

// Initiator drives the initiating side of the exchange.
type Initiator struct {
	handshake

	br *ecdh.PublicKey
	bi *ecdh.PrivateKey
	pi *ecdh.PrivateKey

	brHash []byte
	biHash []byte

	mx     []byte
	inonce []byte

	request *frame.Frame
	confirm *frame.Frame
}

// NewInitiator creates an initiator for the responder's bootstrapping key.
func NewInitiator(cfg InitiatorConfig) (*Initiator, error) {
	if cfg.PeerBootstrap == nil {
		return nil, fmt.Errorf("%w: missing peer bootstrapping key", bootstrap.ErrInvalidKey)
	}
	if !singleRole(cfg.Caps) {
		return nil, fmt.Errorf("%w: initiator must take exactly one role", ErrCapabilityMismatch)
	}
	curve, err := bootstrap.CurveOf(cfg.PeerBootstrap)
	if err != nil {
		return nil, err
	}
	if cfg.Bootstrap != nil && cfg.Bootstrap.Curve() != curve.ECDH() {
		return nil, fmt.Errorf("%w: bootstrapping keys on different curves", bootstrap.ErrInvalidKey)
	}

	brHash, err := bootstrap.KeyHash(cfg.PeerBootstrap)
	if err != nil {
		return nil, err
	}

	i := &Initiator{
		handshake: handshake{
			curve:   curve,
			caps:    cfg.Caps,
			version: cfg.Version,
			txID:    cfg.TxID,
			adVer:   cfg.Version,
		},
		br:     cfg.PeerBootstrap,
		bi:     cfg.Bootstrap,
		brHash: brHash,
	}
	if i.version == 0 {
		i.version = DefaultVersion
		i.adVer = DefaultVersion
	}
	if cfg.Bootstrap != nil {
		if i.biHash, err = bootstrap.KeyHash(cfg.Bootstrap.PublicKey()); err != nil {
			return nil, err
		}
	}
	return i, nil
}

// AuthRequest builds the Authentication Request. Repeated calls return the
// same frame so retransmissions are identical.
func (i *Initiator) AuthRequest() (*frame.Frame, error) {
	if i.closed {
		return nil, ErrClosed
	}
	if i.request != nil {
		return i.request, nil
	}

	pi, err := i.protocolKey()
	if err != nil {
		return nil, err
	}
	mx, err := pi.ECDH(i.br)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", bootstrap.ErrInvalidKey, err)
	}
	i.mx = i.arena.Adopt(mx)
	k1 := i.arena.Adopt(DeriveK1(i.curve, mx))

	if i.inonce, err = i.nonce(); err != nil {
		return nil, err
	}

	var inner frame.Attributes
	inner.Add(frame.AttrInitiatorNonce, i.inonce)
	inner.AddUint8(frame.AttrInitiatorCaps, uint8(i.caps))
	wrapped, err := WrapAttributes(k1, i.AssociatedData(frame.TypeAuthRequest), inner)
	if err != nil {
		return nil, err
	}

	f := frame.New(frame.TypeAuthRequest, i.txID)
	f.Attributes.Add(frame.AttrResponderBootHash, i.brHash)
	if i.biHash != nil {
		f.Attributes.Add(frame.AttrInitiatorBootHash, i.biHash)
	}
	f.Attributes.Add(frame.AttrInitiatorProtoKey, i.curve.EncodePoint(pi.PublicKey()))
	f.Attributes.Add(frame.AttrFiniteCyclicGroup, groupBytes(i.curve))
	f.Attributes.AddUint8(frame.AttrProtocolVersion, i.version)
	f.Attributes.Add(frame.AttrWrappedData, wrapped)

	i.pi = pi
	i.request = f
	return f, nil
}

// HandleAuthResponse verifies the Authentication Response and returns the
// Authentication Confirm to send. Errors other than ErrNotForUs,
// ErrDuplicate and frame.ErrMalformed are terminal for the exchange.
func (i *Initiator) HandleAuthResponse(f *frame.Frame) (*frame.Frame, error) {
	if i.closed {
		return nil, ErrClosed
	}
	if i.request == nil {
		return nil, fmt.Errorf("%w: no request sent", ErrNotForUs)
	}
	if i.confirm != nil {
		return nil, ErrDuplicate
	}
	if !equalHash(f.Attributes, frame.AttrResponderBootHash, i.brHash) {
		return nil, ErrNotForUs
	}
	status, err := f.Status()
	if err != nil {
		return nil, err
	}
	wrapped, err := f.Attributes.Require(frame.AttrWrappedData, 0)
	if err != nil {
		return nil, err
	}
	ad := i.AssociatedData(frame.TypeAuthResponse)

	if status != frame.StatusOK {
		return nil, i.handleFailureResponse(status, ad, wrapped)
	}

	prBytes, err := f.Attributes.Require(frame.AttrResponderProtoKey, 2*i.curve.Size())
	if err != nil {
		return nil, err
	}
	pr, err := i.curve.DecodePoint(prBytes)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", frame.ErrMalformed, err)
	}

	mutual := false
	if f.Attributes.Has(frame.AttrInitiatorBootHash) {
		if i.biHash == nil || !equalHash(f.Attributes, frame.AttrInitiatorBootHash, i.biHash) {
			return nil, fmt.Errorf("%w: unexpected initiator bootstrapping key hash", ErrAuthFailed)
		}
		mutual = true
	}

	nx, err := i.pi.ECDH(pr)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrAuthFailed, err)
	}
	nx = i.arena.Adopt(nx)
	k2 := i.arena.Adopt(DeriveK2(i.curve, nx))

	inner, err := UnwrapAttributes(k2, ad, wrapped)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrAuthFailed, err)
	}

	rnonce, err := inner.Require(frame.AttrResponderNonce, i.curve.NonceSize())
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrAuthFailed, err)
	}
	echoed, err := inner.Require(frame.AttrInitiatorNonce, i.curve.NonceSize())
	if err != nil || !hmac.Equal(echoed, i.inonce) {
		return nil, fmt.Errorf("%w: initiator nonce mismatch", ErrAuthFailed)
	}
	rcaps, err := inner.Uint8(frame.AttrResponderCaps)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrAuthFailed, err)
	}
	peerRole := Capabilities(rcaps) & (CapEnrollee | CapConfigurator)
	if !singleRole(peerRole) || peerRole&i.caps.complement() == 0 {
		return nil, fmt.Errorf("%w: responder role %s", ErrCapabilityMismatch, peerRole)
	}
	wrappedKe, err := inner.Require(frame.AttrWrappedData, 0)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrAuthFailed, err)
	}

	var lx []byte
	if mutual {
		if lx, err = InitiatorL(i.curve, i.bi, i.br, pr); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrAuthFailed, err)
		}
		lx = i.arena.Adopt(lx)
	}
	ke := i.arena.Adopt(DeriveKe(i.curve, i.inonce, rnonce, i.mx, nx, lx))

	tagAttrs, err := UnwrapAttributes(ke, ad, wrappedKe)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrAuthFailed, err)
	}
	rauth, err := tagAttrs.Require(frame.AttrResponderAuthTag, 0)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrAuthFailed, err)
	}

	var biPub *ecdh.PublicKey
	if mutual {
		biPub = i.bi.PublicKey()
	}
	pi := i.pi.PublicKey()
	expected := ResponderAuthTag(i.curve, i.inonce, rnonce, pi, pr, biPub, i.br)
	if !hmac.Equal(rauth, expected) {
		return nil, fmt.Errorf("%w: R-auth mismatch", ErrAuthFailed)
	}

	if v, err := f.Attributes.Uint8(frame.AttrProtocolVersion); err == nil {
		i.peerVer = v
	} else {
		i.peerVer = DefaultVersion
	}

	var tag frame.Attributes
	tag.Add(frame.AttrInitiatorAuthTag, InitiatorAuthTag(i.curve, rnonce, i.inonce, pr, pi, i.br, biPub))
	confirmWrapped, err := WrapAttributes(ke, i.AssociatedData(frame.TypeAuthConfirm), tag)
	if err != nil {
		return nil, err
	}

	confirm := frame.New(frame.TypeAuthConfirm, i.txID)
	confirm.Attributes.AddUint8(frame.AttrStatus, uint8(frame.StatusOK))
	confirm.Attributes.Add(frame.AttrResponderBootHash, i.brHash)
	if mutual {
		confirm.Attributes.Add(frame.AttrInitiatorBootHash, i.biHash)
	}
	confirm.Attributes.Add(frame.AttrWrappedData, confirmWrapped)

	i.ke = ke
	i.mutual = mutual
	i.role = i.caps
	i.confirm = confirm
	return confirm, nil
}

// handleFailureResponse authenticates a non-OK response under k1 and maps
// its status to an error. Responses that fail to unwrap are dropped.
func (i *Initiator) handleFailureResponse(status frame.Status, ad, wrapped []byte) error {
	k1 := DeriveK1(i.curve, i.mx)
	defer clear(k1)

	inner, err := UnwrapAttributes(k1, ad, wrapped)
	if err != nil {
		return fmt.Errorf("%w: unauthenticated %s response", frame.ErrMalformed, status)
	}
	echoed, err := inner.Require(frame.AttrInitiatorNonce, i.curve.NonceSize())
	if err != nil || !hmac.Equal(echoed, i.inonce) {
		return fmt.Errorf("%w: %s response for a different request", frame.ErrMalformed, status)
	}

	if status == frame.StatusNotCompatible {
		return fmt.Errorf("%w: responder reported %s", ErrCapabilityMismatch, status)
	}
	return fmt.Errorf("%w: responder reported %s", ErrAuthFailed, status)
}

// Close wipes all secrets of the exchange.
func (i *Initiator) Close() {
	i.closed = true
	i.arena.Wipe()
	i.pi = nil
	i.bi = nil
	i.ke = nil
	i.mx = nil
	i.inonce = nil
}
