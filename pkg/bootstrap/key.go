package bootstrap

import (
	"crypto/ecdh"
	"crypto/sha256"
	"encoding/asn1"
	"fmt"

	"golang.org/x/crypto/cryptobyte"
	cbasn1 "golang.org/x/crypto/cryptobyte/asn1"
)

// KeyHashSize is the size of a bootstrapping key hash.
const KeyHashSize = sha256.Size

// oidPublicKeyEC is id-ecPublicKey (RFC 5480).
var oidPublicKeyEC = asn1.ObjectIdentifier{1, 2, 840, 10045, 2, 1}

// MarshalPublicKey returns the DER SubjectPublicKeyInfo of pub with the
// point in compressed form, as carried in the K: token.
func MarshalPublicKey(pub *ecdh.PublicKey) ([]byte, error) {
	curve, err := CurveOf(pub)
	if err != nil {
		return nil, err
	}

	var b cryptobyte.Builder
	b.AddASN1(cbasn1.SEQUENCE, func(b *cryptobyte.Builder) {
		b.AddASN1(cbasn1.SEQUENCE, func(b *cryptobyte.Builder) {
			b.AddASN1ObjectIdentifier(oidPublicKeyEC)
			b.AddASN1ObjectIdentifier(curve.OID)
		})
		b.AddASN1BitString(curve.CompressPoint(pub))
	})
	return b.Bytes()
}

// ParsePublicKey parses a DER SubjectPublicKeyInfo holding an EC key on a
// supported curve. Both compressed and uncompressed points are accepted.
func ParsePublicKey(der []byte) (*ecdh.PublicKey, *Curve, error) {
	input := cryptobyte.String(der)

	var spki, algo cryptobyte.String
	var algOID, curveOID asn1.ObjectIdentifier
	var bits asn1.BitString

	if !input.ReadASN1(&spki, cbasn1.SEQUENCE) || !input.Empty() {
		return nil, nil, fmt.Errorf("%w: malformed SubjectPublicKeyInfo", ErrInvalidKey)
	}
	if !spki.ReadASN1(&algo, cbasn1.SEQUENCE) ||
		!algo.ReadASN1ObjectIdentifier(&algOID) ||
		!algo.ReadASN1ObjectIdentifier(&curveOID) ||
		!algo.Empty() {
		return nil, nil, fmt.Errorf("%w: malformed algorithm identifier", ErrInvalidKey)
	}
	if !algOID.Equal(oidPublicKeyEC) {
		return nil, nil, fmt.Errorf("%w: not an EC key", ErrInvalidKey)
	}
	if !spki.ReadASN1BitString(&bits) || !spki.Empty() || bits.BitLength%8 != 0 {
		return nil, nil, fmt.Errorf("%w: malformed key bits", ErrInvalidKey)
	}

	curve, err := CurveByOID(curveOID)
	if err != nil {
		return nil, nil, err
	}

	pub, err := curve.DecodePoint(bits.Bytes)
	if err != nil {
		return nil, nil, err
	}
	return pub, curve, nil
}

// KeyHash returns SHA-256 over the DER SubjectPublicKeyInfo of pub. This is
// the value of the Initiator/Responder Bootstrapping Key Hash attributes.
func KeyHash(pub *ecdh.PublicKey) ([]byte, error) {
	der, err := MarshalPublicKey(pub)
	if err != nil {
		return nil, err
	}
	sum := sha256.Sum256(der)
	return sum[:], nil
}
