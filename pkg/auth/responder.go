package auth

import (
	"crypto/ecdh"
	"crypto/hmac"
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/dpp-onboard/dpp-go/pkg/bootstrap"
	"github.com/dpp-onboard/dpp-go/pkg/frame"
)

// ResponderConfig configures a Responder.
type ResponderConfig struct {
	// Bootstrap is the responder's bootstrapping key (bR).
	Bootstrap *ecdh.PrivateKey

	// PeerBootstrap is the initiator's bootstrapping key (BI). Optional;
	// when set and offered by the initiator, mutual authentication is used.
	PeerBootstrap *ecdh.PublicKey

	// Caps lists the roles the responder is willing to take.
	Caps Capabilities

	// Version is the local protocol version.
	Version uint8
}

// Responder drives the responding side of the exchange.
type Responder struct {
	handshake

	br *ecdh.PrivateKey
	bi *ecdh.PublicKey

	brHash []byte
	biHash []byte

	pi     *ecdh.PublicKey
	pr     *ecdh.PublicKey
	inonce []byte
	rnonce []byte

	responded bool
	confirmed bool
}

// NewResponder creates a responder for the local bootstrapping key.
func NewResponder(cfg ResponderConfig) (*Responder, error) {
	if cfg.Bootstrap == nil {
		return nil, fmt.Errorf("%w: missing bootstrapping key", bootstrap.ErrInvalidKey)
	}
	if cfg.Caps&(CapEnrollee|CapConfigurator) == 0 {
		return nil, fmt.Errorf("%w: responder has no role", ErrCapabilityMismatch)
	}
	curve, err := bootstrap.CurveOf(cfg.Bootstrap.PublicKey())
	if err != nil {
		return nil, err
	}
	brHash, err := bootstrap.KeyHash(cfg.Bootstrap.PublicKey())
	if err != nil {
		return nil, err
	}

	r := &Responder{
		handshake: handshake{
			curve:   curve,
			caps:    cfg.Caps,
			version: cfg.Version,
		},
		br:     cfg.Bootstrap,
		bi:     cfg.PeerBootstrap,
		brHash: brHash,
	}
	if r.version == 0 {
		r.version = DefaultVersion
	}
	if cfg.PeerBootstrap != nil {
		if cfg.PeerBootstrap.Curve() != curve.ECDH() {
			return nil, fmt.Errorf("%w: bootstrapping keys on different curves", bootstrap.ErrInvalidKey)
		}
		if r.biHash, err = bootstrap.KeyHash(cfg.PeerBootstrap); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// HandleAuthRequest processes an Authentication Request and returns the
// Authentication Response to send.
//
// ErrNotForUs, ErrDuplicate, ErrUnwrap and frame.ErrMalformed mean the
// request must be dropped. ErrCapabilityMismatch comes with a non-nil
// NOT_COMPATIBLE response that should still be sent.
func (r *Responder) HandleAuthRequest(f *frame.Frame) (*frame.Frame, error) {
	if r.closed {
		return nil, ErrClosed
	}
	if r.responded {
		return nil, ErrDuplicate
	}
	if !equalHash(f.Attributes, frame.AttrResponderBootHash, r.brHash) {
		return nil, ErrNotForUs
	}
	txID, err := f.TransactionID()
	if err != nil {
		return nil, err
	}

	mutual := false
	if ihash, ok := f.Attributes.Get(frame.AttrInitiatorBootHash); ok && r.biHash != nil {
		if !hmac.Equal(ihash, r.biHash) {
			return nil, ErrNotForUs
		}
		mutual = true
	}

	if g, ok := f.Attributes.Get(frame.AttrFiniteCyclicGroup); ok {
		if len(g) != 2 || binary.LittleEndian.Uint16(g) != r.curve.Group {
			return nil, fmt.Errorf("%w: unsupported group", frame.ErrMalformed)
		}
	}

	piBytes, err := f.Attributes.Require(frame.AttrInitiatorProtoKey, 2*r.curve.Size())
	if err != nil {
		return nil, err
	}
	pi, err := r.curve.DecodePoint(piBytes)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", frame.ErrMalformed, err)
	}
	wrapped, err := f.Attributes.Require(frame.AttrWrappedData, 0)
	if err != nil {
		return nil, err
	}

	peerVer := uint8(DefaultVersion)
	if v, err := f.Attributes.Uint8(frame.AttrProtocolVersion); err == nil && v > 0 {
		peerVer = v
	}
	ad := AssociatedData(frame.TypeAuthRequest, peerVer, txID)

	mx, err := r.br.ECDH(pi)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", frame.ErrMalformed, err)
	}
	mx = r.arena.Adopt(mx)
	k1 := r.arena.Adopt(DeriveK1(r.curve, mx))

	inner, err := UnwrapAttributes(k1, ad, wrapped)
	if err != nil {
		return nil, err
	}
	inonce, err := inner.Require(frame.AttrInitiatorNonce, r.curve.NonceSize())
	if err != nil {
		return nil, err
	}
	icaps, err := inner.Uint8(frame.AttrInitiatorCaps)
	if err != nil {
		return nil, err
	}

	// The request is authentic; bind the exchange to it.
	r.txID = txID
	r.peerVer = peerVer
	r.adVer = peerVer
	r.inonce = r.arena.Adopt(append([]byte(nil), inonce...))
	r.pi = pi
	r.responded = true
	respAD := r.AssociatedData(frame.TypeAuthResponse)

	role, negErr := Negotiate(Capabilities(icaps), r.caps)
	if negErr != nil {
		resp, err := r.failureResponse(frame.StatusNotCompatible, k1, respAD, mutual)
		if err != nil {
			return nil, err
		}
		return resp, fmt.Errorf("%w: initiator offered %s, responder supports %s",
			negErr, Capabilities(icaps), r.caps)
	}

	pr, err := r.protocolKey()
	if err != nil {
		return nil, err
	}
	nx, err := pr.ECDH(pi)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", frame.ErrMalformed, err)
	}
	nx = r.arena.Adopt(nx)
	k2 := r.arena.Adopt(DeriveK2(r.curve, nx))

	if r.rnonce, err = r.nonce(); err != nil {
		return nil, err
	}

	var lx []byte
	var biPub *ecdh.PublicKey
	if mutual {
		if lx, err = ResponderL(r.curve, r.br, pr, r.bi); err != nil {
			return nil, err
		}
		lx = r.arena.Adopt(lx)
		biPub = r.bi
	}
	ke := r.arena.Adopt(DeriveKe(r.curve, r.inonce, r.rnonce, mx, nx, lx))

	var tag frame.Attributes
	tag.Add(frame.AttrResponderAuthTag, ResponderAuthTag(r.curve, r.inonce, r.rnonce, pi, pr.PublicKey(), biPub, r.br.PublicKey()))
	wrappedKe, err := WrapAttributes(ke, respAD, tag)
	if err != nil {
		return nil, err
	}

	var outer frame.Attributes
	outer.Add(frame.AttrResponderNonce, r.rnonce)
	outer.Add(frame.AttrInitiatorNonce, r.inonce)
	outer.AddUint8(frame.AttrResponderCaps, uint8(role))
	outer.Add(frame.AttrWrappedData, wrappedKe)
	wrappedK2, err := WrapAttributes(k2, respAD, outer)
	if err != nil {
		return nil, err
	}

	resp := frame.New(frame.TypeAuthResponse, txID)
	resp.Attributes.AddUint8(frame.AttrStatus, uint8(frame.StatusOK))
	resp.Attributes.Add(frame.AttrResponderBootHash, r.brHash)
	if mutual {
		resp.Attributes.Add(frame.AttrInitiatorBootHash, r.biHash)
	}
	resp.Attributes.Add(frame.AttrResponderProtoKey, r.curve.EncodePoint(pr.PublicKey()))
	resp.Attributes.AddUint8(frame.AttrProtocolVersion, r.version)
	resp.Attributes.Add(frame.AttrWrappedData, wrappedK2)

	r.pr = pr.PublicKey()
	r.ke = ke
	r.role = role
	r.mutual = mutual
	return resp, nil
}

func (r *Responder) failureResponse(status frame.Status, k1, ad []byte, mutual bool) (*frame.Frame, error) {
	var inner frame.Attributes
	inner.Add(frame.AttrInitiatorNonce, r.inonce)
	inner.AddUint8(frame.AttrResponderCaps, uint8(r.caps))
	wrapped, err := WrapAttributes(k1, ad, inner)
	if err != nil {
		return nil, err
	}

	resp := frame.New(frame.TypeAuthResponse, r.txID)
	resp.Attributes.AddUint8(frame.AttrStatus, uint8(status))
	resp.Attributes.Add(frame.AttrResponderBootHash, r.brHash)
	if mutual {
		resp.Attributes.Add(frame.AttrInitiatorBootHash, r.biHash)
	}
	resp.Attributes.Add(frame.AttrWrappedData, wrapped)
	return resp, nil
}

// HandleAuthConfirm verifies the Authentication Confirm. ErrNotForUs,
// ErrDuplicate and frame.ErrMalformed mean the frame must be dropped; any
// other error is terminal.
func (r *Responder) HandleAuthConfirm(f *frame.Frame) error {
	if r.closed {
		return ErrClosed
	}
	if !r.responded || r.ke == nil {
		return fmt.Errorf("%w: no response sent", ErrNotForUs)
	}
	if r.confirmed {
		return ErrDuplicate
	}
	if !equalHash(f.Attributes, frame.AttrResponderBootHash, r.brHash) {
		return ErrNotForUs
	}
	status, err := f.Status()
	if err != nil {
		return err
	}
	wrapped, err := f.Attributes.Require(frame.AttrWrappedData, 0)
	if err != nil {
		return err
	}
	if status != frame.StatusOK {
		return fmt.Errorf("%w: initiator reported %s", ErrAuthFailed, status)
	}

	tagAttrs, err := UnwrapAttributes(r.ke, r.AssociatedData(frame.TypeAuthConfirm), wrapped)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrAuthFailed, err)
	}
	iauth, err := tagAttrs.Require(frame.AttrInitiatorAuthTag, 0)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrAuthFailed, err)
	}

	var biPub *ecdh.PublicKey
	if r.mutual {
		biPub = r.bi
	}
	expected := InitiatorAuthTag(r.curve, r.rnonce, r.inonce, r.pr, r.pi, r.br.PublicKey(), biPub)
	if !hmac.Equal(iauth, expected) {
		return fmt.Errorf("%w: I-auth mismatch", ErrAuthFailed)
	}

	r.confirmed = true
	return nil
}

// Confirmed reports whether the initiator's confirmation was verified.
func (r *Responder) Confirmed() bool { return r.confirmed }

// Close wipes all secrets of the exchange. The bootstrapping key is not
// owned by the responder and stays usable by its owner.
func (r *Responder) Close() {
	r.closed = true
	r.arena.Wipe()
	r.br = nil
	r.ke = nil
	r.inonce = nil
	r.rnonce = nil
}

// IsDrop reports whether err means the frame should be ignored without
// affecting the exchange.
func IsDrop(err error) bool {
	return errors.Is(err, ErrNotForUs) ||
		errors.Is(err, ErrDuplicate) ||
		errors.Is(err, ErrUnwrap) && !errors.Is(err, ErrAuthFailed) ||
		errors.Is(err, frame.ErrMalformed) && !errors.Is(err, ErrAuthFailed)
}
