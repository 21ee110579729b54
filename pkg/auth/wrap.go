package auth

import (
	"crypto/rand"
	"encoding/binary"
	"fmt"

	"github.com/dpp-onboard/dpp-go/pkg/frame"
	"golang.org/x/crypto/chacha20poly1305"
)

// AssociatedData binds wrapped data to its frame type, protocol version and
// transaction.
func AssociatedData(t frame.Type, version uint8, txID uint32) []byte {
	ad := frame.Header(t)
	ad = append(ad, version)
	return binary.LittleEndian.AppendUint32(ad, txID)
}

// Wrap encrypts plaintext under key with XChaCha20-Poly1305. The random
// nonce is prepended to the ciphertext. Keys longer than 32 bytes use their
// first 32 bytes.
func Wrap(key, ad, plaintext []byte) ([]byte, error) {
	aead, err := chacha20poly1305.NewX(aeadKey(key))
	if err != nil {
		return nil, fmt.Errorf("wrap: %w", err)
	}
	nonce := make([]byte, aead.NonceSize(), aead.NonceSize()+len(plaintext)+aead.Overhead())
	if _, err := rand.Read(nonce); err != nil {
		return nil, fmt.Errorf("wrap: %w", err)
	}
	return aead.Seal(nonce, nonce, plaintext, ad), nil
}

// Unwrap reverses Wrap. Any failure returns ErrUnwrap.
func Unwrap(key, ad, wrapped []byte) ([]byte, error) {
	aead, err := chacha20poly1305.NewX(aeadKey(key))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnwrap, err)
	}
	if len(wrapped) < aead.NonceSize()+aead.Overhead() {
		return nil, fmt.Errorf("%w: short ciphertext", ErrUnwrap)
	}
	nonce, ct := wrapped[:aead.NonceSize()], wrapped[aead.NonceSize():]
	pt, err := aead.Open(nil, nonce, ct, ad)
	if err != nil {
		return nil, ErrUnwrap
	}
	return pt, nil
}

// WrapAttributes wraps an attribute list into a Wrapped Data value.
func WrapAttributes(key, ad []byte, attrs frame.Attributes) ([]byte, error) {
	pt, err := attrs.Encode()
	if err != nil {
		return nil, err
	}
	defer clear(pt)
	return Wrap(key, ad, pt)
}

// UnwrapAttributes unwraps and decodes a Wrapped Data value.
func UnwrapAttributes(key, ad, wrapped []byte) (frame.Attributes, error) {
	pt, err := Unwrap(key, ad, wrapped)
	if err != nil {
		return nil, err
	}
	attrs, err := frame.DecodeAttributes(pt)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnwrap, err)
	}
	return attrs, nil
}

func aeadKey(key []byte) []byte {
	if len(key) > chacha20poly1305.KeySize {
		return key[:chacha20poly1305.KeySize]
	}
	return key
}
