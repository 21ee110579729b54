package bootstrap

import (
	"crypto/ecdh"
	"crypto/elliptic"
	"crypto/sha256"
	"crypto/sha512"
	"encoding/asn1"
	"errors"
	"fmt"
	"hash"
)

// Key errors.
var (
	ErrInvalidKey       = errors.New("invalid public key")
	ErrUnsupportedCurve = fmt.Errorf("%w: unsupported curve", ErrInvalidKey)
)

// Curve describes an elliptic curve usable for DPP together with the hash
// and nonce sizes the protocol binds to it.
type Curve struct {
	// Name is the NIST curve name.
	Name string

	// Group is the IANA IKE group number (Finite Cyclic Group attribute).
	Group uint16

	// OID is the named-curve object identifier used in SubjectPublicKeyInfo.
	OID asn1.ObjectIdentifier

	ecdh     ecdh.Curve
	elliptic elliptic.Curve
	newHash  func() hash.Hash
	size     int
	nonceLen int
}

// Supported curves.
var (
	P256 = &Curve{
		Name:     "P-256",
		Group:    19,
		OID:      asn1.ObjectIdentifier{1, 2, 840, 10045, 3, 1, 7},
		ecdh:     ecdh.P256(),
		elliptic: elliptic.P256(),
		newHash:  sha256.New,
		size:     32,
		nonceLen: 16,
	}

	P384 = &Curve{
		Name:     "P-384",
		Group:    20,
		OID:      asn1.ObjectIdentifier{1, 3, 132, 0, 34},
		ecdh:     ecdh.P384(),
		elliptic: elliptic.P384(),
		newHash:  sha512.New384,
		size:     48,
		nonceLen: 24,
	}

	P521 = &Curve{
		Name:     "P-521",
		Group:    21,
		OID:      asn1.ObjectIdentifier{1, 3, 132, 0, 35},
		ecdh:     ecdh.P521(),
		elliptic: elliptic.P521(),
		newHash:  sha512.New,
		size:     66,
		nonceLen: 32,
	}
)

var curves = []*Curve{P256, P384, P521}

// CurveByGroup returns the curve for an IKE group number.
func CurveByGroup(group uint16) (*Curve, error) {
	for _, c := range curves {
		if c.Group == group {
			return c, nil
		}
	}
	return nil, fmt.Errorf("%w: group %d", ErrUnsupportedCurve, group)
}

// CurveByOID returns the curve for a named-curve OID.
func CurveByOID(oid asn1.ObjectIdentifier) (*Curve, error) {
	for _, c := range curves {
		if c.OID.Equal(oid) {
			return c, nil
		}
	}
	return nil, fmt.Errorf("%w: oid %s", ErrUnsupportedCurve, oid)
}

// CurveOf returns the Curve a key was generated on.
func CurveOf(pub *ecdh.PublicKey) (*Curve, error) {
	for _, c := range curves {
		if pub.Curve() == c.ecdh {
			return c, nil
		}
	}
	return nil, ErrUnsupportedCurve
}

// String returns the curve name.
func (c *Curve) String() string { return c.Name }

// ECDH returns the crypto/ecdh curve.
func (c *Curve) ECDH() ecdh.Curve { return c.ecdh }

// Elliptic returns the crypto/elliptic curve used for point arithmetic.
func (c *Curve) Elliptic() elliptic.Curve { return c.elliptic }

// Hash returns the hash constructor bound to this curve.
func (c *Curve) Hash() func() hash.Hash { return c.newHash }

// Size is the length in bytes of a field element (one coordinate).
func (c *Curve) Size() int { return c.size }

// NonceSize is the length of the protocol nonces for this curve.
func (c *Curve) NonceSize() int { return c.nonceLen }

// DecodePoint parses a point in any of the encodings DPP uses:
// x||y (protocol key attributes), 0x04||x||y, or compressed 0x02/0x03||x.
func (c *Curve) DecodePoint(b []byte) (*ecdh.PublicKey, error) {
	switch {
	case len(b) == 2*c.size:
		b = append([]byte{0x04}, b...)
	case len(b) == 1+c.size && (b[0] == 0x02 || b[0] == 0x03):
		x, y := elliptic.UnmarshalCompressed(c.elliptic, b)
		if x == nil {
			return nil, ErrInvalidKey
		}
		b = elliptic.Marshal(c.elliptic, x, y)
	}

	pub, err := c.ecdh.NewPublicKey(b)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidKey, err)
	}
	return pub, nil
}

// EncodePoint returns x||y, the encoding of protocol key attributes.
func (c *Curve) EncodePoint(pub *ecdh.PublicKey) []byte {
	return append([]byte{}, pub.Bytes()[1:]...)
}

// CompressPoint returns the SEC1 compressed encoding of pub.
func (c *Curve) CompressPoint(pub *ecdh.PublicKey) []byte {
	x, y := elliptic.Unmarshal(c.elliptic, pub.Bytes())
	return elliptic.MarshalCompressed(c.elliptic, x, y)
}

// X returns the x coordinate of pub.
func (c *Curve) X(pub *ecdh.PublicKey) []byte {
	return append([]byte{}, pub.Bytes()[1:1+c.size]...)
}
