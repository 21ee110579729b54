package auth

import (
	"crypto/ecdh"
	"crypto/hmac"
	"crypto/rand"
	"encoding/binary"
	"fmt"

	"github.com/dpp-onboard/dpp-go/pkg/bootstrap"
	"github.com/dpp-onboard/dpp-go/pkg/frame"
)

// DefaultVersion is the protocol version assumed when a peer sends none.
const DefaultVersion = 1

// handshake holds state common to both sides of the exchange.
type handshake struct {
	curve   *bootstrap.Curve
	arena   Arena
	caps    Capabilities
	version uint8 // local version
	peerVer uint8 // peer version, 0 until known
	txID    uint32
	adVer   uint8 // version bound into associated data

	role   Capabilities // negotiated local role
	mutual bool
	ke     []byte
	closed bool
}

// Ke returns the session key, or nil before authentication completes.
func (h *handshake) Ke() []byte { return h.ke }

// Curve returns the curve of the exchange.
func (h *handshake) Curve() *bootstrap.Curve { return h.curve }

// Role returns the negotiated local role (CapEnrollee or CapConfigurator).
func (h *handshake) Role() Capabilities { return h.role }

// Mutual reports whether mutual authentication was performed.
func (h *handshake) Mutual() bool { return h.mutual }

// TransactionID returns the transaction id of the exchange.
func (h *handshake) TransactionID() uint32 { return h.txID }

// Version returns the protocol version both peers support.
func (h *handshake) Version() uint8 {
	if h.peerVer == 0 {
		return DefaultVersion
	}
	return min(h.version, h.peerVer)
}

// BindingVersion returns the version bound into associated data: the
// initiator's advertised version, fixed for the whole exchange.
func (h *handshake) BindingVersion() uint8 { return h.adVer }

// AssociatedData returns the associated data for wrapped data in frames of
// type t within this exchange.
func (h *handshake) AssociatedData(t frame.Type) []byte {
	return AssociatedData(t, h.adVer, h.txID)
}

// Arena returns the secret arena of the exchange so callers can place
// further per-session secrets under the same lifetime.
func (h *handshake) Arena() *Arena { return &h.arena }

func (h *handshake) nonce() ([]byte, error) {
	n := h.arena.Alloc(h.curve.NonceSize())
	if _, err := rand.Read(n); err != nil {
		return nil, fmt.Errorf("failed to generate nonce: %w", err)
	}
	return n, nil
}

func (h *handshake) protocolKey() (*ecdh.PrivateKey, error) {
	k, err := h.curve.ECDH().GenerateKey(rand.Reader)
	if err != nil {
		return nil, fmt.Errorf("failed to generate protocol key: %w", err)
	}
	return k, nil
}

func groupBytes(c *bootstrap.Curve) []byte {
	return binary.LittleEndian.AppendUint16(nil, c.Group)
}

func equalHash(attrs frame.Attributes, id frame.AttrID, want []byte) bool {
	got, ok := attrs.Get(id)
	return ok && hmac.Equal(got, want)
}

// singleRole reports whether c names exactly one role.
func singleRole(c Capabilities) bool {
	c &= CapEnrollee | CapConfigurator
	return c == CapEnrollee || c == CapConfigurator
}
