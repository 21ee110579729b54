package auth

import (
	"crypto/ecdh"
	"crypto/elliptic"
	"fmt"
	"io"
	"math/big"

	"github.com/dpp-onboard/dpp-go/pkg/bootstrap"
	"golang.org/x/crypto/hkdf"
)

// HKDF info labels.
const (
	labelK1 = "first intermediate key"
	labelK2 = "second intermediate key"
	labelKe = "DPP Key"
)

func hkdfKey(curve *bootstrap.Curve, salt, ikm []byte, info string) []byte {
	h := curve.Hash()
	out := make([]byte, h().Size())
	// HKDF output is far below its length limit; ReadFull cannot fail.
	_, _ = io.ReadFull(hkdf.New(h, ikm, salt, []byte(info)), out)
	return out
}

// DeriveK1 derives the first intermediate key from M.x.
func DeriveK1(curve *bootstrap.Curve, mx []byte) []byte {
	return hkdfKey(curve, nil, mx, labelK1)
}

// DeriveK2 derives the second intermediate key from N.x.
func DeriveK2(curve *bootstrap.Curve, nx []byte) []byte {
	return hkdfKey(curve, nil, nx, labelK2)
}

// DeriveKe derives the session key. lx is nil without mutual authentication.
func DeriveKe(curve *bootstrap.Curve, inonce, rnonce, mx, nx, lx []byte) []byte {
	salt := concat(inonce, rnonce)
	ikm := concat(mx, nx, lx)
	defer clear(ikm)
	return hkdfKey(curve, salt, ikm, labelKe)
}

// ResponderAuthTag computes
// R-auth = H(I-nonce | R-nonce | PI.x | PR.x | [BI.x |] BR.x | 0).
// bi is nil without mutual authentication.
func ResponderAuthTag(curve *bootstrap.Curve, inonce, rnonce []byte, pi, pr, bi, br *ecdh.PublicKey) []byte {
	h := curve.Hash()()
	h.Write(inonce)
	h.Write(rnonce)
	h.Write(curve.X(pi))
	h.Write(curve.X(pr))
	if bi != nil {
		h.Write(curve.X(bi))
	}
	h.Write(curve.X(br))
	h.Write([]byte{0})
	return h.Sum(nil)
}

// InitiatorAuthTag computes
// I-auth = H(R-nonce | I-nonce | PR.x | PI.x | BR.x | [BI.x |] 1).
func InitiatorAuthTag(curve *bootstrap.Curve, rnonce, inonce []byte, pr, pi, br, bi *ecdh.PublicKey) []byte {
	h := curve.Hash()()
	h.Write(rnonce)
	h.Write(inonce)
	h.Write(curve.X(pr))
	h.Write(curve.X(pi))
	h.Write(curve.X(br))
	if bi != nil {
		h.Write(curve.X(bi))
	}
	h.Write([]byte{1})
	return h.Sum(nil)
}

// ResponderL computes L.x = (((bR + pR) mod q) * BI).x.
func ResponderL(curve *bootstrap.Curve, br, pr *ecdh.PrivateKey, bi *ecdh.PublicKey) ([]byte, error) {
	q := curve.Elliptic().Params().N

	b := br.Bytes()
	p := pr.Bytes()
	defer clear(b)
	defer clear(p)

	s := new(big.Int).Add(new(big.Int).SetBytes(b), new(big.Int).SetBytes(p))
	s.Mod(s, q)
	if s.Sign() == 0 {
		return nil, fmt.Errorf("%w: degenerate scalar", ErrAuthFailed)
	}

	scalar := s.FillBytes(make([]byte, curve.Size()))
	defer clear(scalar)
	s.SetInt64(0)

	sum, err := curve.ECDH().NewPrivateKey(scalar)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrAuthFailed, err)
	}
	return sum.ECDH(bi)
}

// InitiatorL computes L.x = (bI * (BR + PR)).x.
func InitiatorL(curve *bootstrap.Curve, bi *ecdh.PrivateKey, br, pr *ecdh.PublicKey) ([]byte, error) {
	ec := curve.Elliptic()
	x1, y1 := elliptic.Unmarshal(ec, br.Bytes())
	x2, y2 := elliptic.Unmarshal(ec, pr.Bytes())
	if x1 == nil || x2 == nil {
		return nil, bootstrap.ErrInvalidKey
	}
	x, y := ec.Add(x1, y1, x2, y2)
	if x.Sign() == 0 && y.Sign() == 0 {
		return nil, fmt.Errorf("%w: point at infinity", ErrAuthFailed)
	}

	sum, err := curve.ECDH().NewPublicKey(elliptic.Marshal(ec, x, y))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrAuthFailed, err)
	}
	return bi.ECDH(sum)
}

func concat(parts ...[]byte) []byte {
	n := 0
	for _, p := range parts {
		n += len(p)
	}
	out := make([]byte, 0, n)
	for _, p := range parts {
		out = append(out, p...)
	}
	return out
}
