package configobj

import (
	"crypto"
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/sha256"
	"crypto/x509"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-jose/go-jose/v4"
)

// ConnectorType is the JWS "typ" of a DPP Connector.
const ConnectorType = "dppCon"

// Group is a connector group membership.
type Group struct {
	GroupID string `json:"groupId"`
	NetRole string `json:"netRole"`
}

// ConnectorClaims is the body of a Connector.
type ConnectorClaims struct {
	Groups       []Group          `json:"groups"`
	NetAccessKey *jose.JSONWebKey `json:"netAccessKey"`
	Expiry       string           `json:"expiry,omitempty"`
}

// Signer issues Connectors with a Configurator C-sign key.
type Signer struct {
	key *ecdsa.PrivateKey
	alg jose.SignatureAlgorithm
	kid string
}

// NewSigner creates a Signer for the C-sign key.
func NewSigner(key *ecdsa.PrivateKey) (*Signer, error) {
	alg, err := algorithmFor(key.Curve)
	if err != nil {
		return nil, err
	}
	kid, err := KeyID(&key.PublicKey)
	if err != nil {
		return nil, err
	}
	return &Signer{key: key, alg: alg, kid: kid}, nil
}

// KeyID returns the DPP key identifier: base64url SHA-256 of the DER
// public key.
func KeyID(pub *ecdsa.PublicKey) (string, error) {
	der, err := x509.MarshalPKIXPublicKey(pub)
	if err != nil {
		return "", fmt.Errorf("failed to encode key: %w", err)
	}
	sum := sha256.Sum256(der)
	return base64.RawURLEncoding.EncodeToString(sum[:]), nil
}

func algorithmFor(c elliptic.Curve) (jose.SignatureAlgorithm, error) {
	switch c {
	case elliptic.P256():
		return jose.ES256, nil
	case elliptic.P384():
		return jose.ES384, nil
	case elliptic.P521():
		return jose.ES512, nil
	}
	return "", fmt.Errorf("unsupported C-sign curve %s", c.Params().Name)
}

// CSign returns the public C-sign key as a JWK.
func (s *Signer) CSign() *jose.JSONWebKey {
	return PublicJWK(&s.key.PublicKey, s.kid)
}

// PublicJWK wraps a public key as a JWK.
func PublicJWK(pub crypto.PublicKey, kid string) *jose.JSONWebKey {
	return &jose.JSONWebKey{Key: pub, KeyID: kid}
}

// Sign issues a Connector.
func (s *Signer) Sign(claims ConnectorClaims) (string, error) {
	if len(claims.Groups) == 0 {
		return "", fmt.Errorf("%w: connector needs a group", ErrMalformedObject)
	}
	if claims.NetAccessKey == nil || !claims.NetAccessKey.IsPublic() {
		return "", fmt.Errorf("%w: connector needs a public netAccessKey", ErrMalformedObject)
	}
	payload, err := json.Marshal(claims)
	if err != nil {
		return "", err
	}

	opts := (&jose.SignerOptions{}).WithType(ConnectorType).WithHeader(jose.HeaderKey("kid"), s.kid)
	signer, err := jose.NewSigner(jose.SigningKey{Algorithm: s.alg, Key: s.key}, opts)
	if err != nil {
		return "", fmt.Errorf("failed to create signer: %w", err)
	}
	jws, err := signer.Sign(payload)
	if err != nil {
		return "", fmt.Errorf("failed to sign connector: %w", err)
	}
	return jws.CompactSerialize()
}

// VerifyConnector checks a Connector against the C-sign key and returns its
// claims. A zero now skips the expiry check.
func VerifyConnector(connector string, csign *jose.JSONWebKey, now time.Time) (*ConnectorClaims, error) {
	if csign == nil {
		return nil, fmt.Errorf("%w: no C-sign key", ErrInvalidConnector)
	}
	jws, err := jose.ParseSigned(connector, []jose.SignatureAlgorithm{jose.ES256, jose.ES384, jose.ES512})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidConnector, err)
	}
	if len(jws.Signatures) != 1 {
		return nil, fmt.Errorf("%w: expected one signature", ErrInvalidConnector)
	}
	if typ, _ := jws.Signatures[0].Protected.ExtraHeaders[jose.HeaderType].(string); typ != ConnectorType {
		return nil, fmt.Errorf("%w: typ %q", ErrInvalidConnector, typ)
	}

	payload, err := jws.Verify(csign.Key)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidConnector, err)
	}

	var claims ConnectorClaims
	if err := json.Unmarshal(payload, &claims); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidConnector, err)
	}
	if len(claims.Groups) == 0 || claims.NetAccessKey == nil {
		return nil, fmt.Errorf("%w: incomplete claims", ErrInvalidConnector)
	}
	if claims.Expiry != "" && !now.IsZero() {
		exp, err := time.Parse(time.RFC3339, claims.Expiry)
		if err != nil {
			return nil, fmt.Errorf("%w: expiry %q", ErrInvalidConnector, claims.Expiry)
		}
		if now.After(exp) {
			return nil, fmt.Errorf("%w: expired at %s", ErrInvalidConnector, claims.Expiry)
		}
	}
	return &claims, nil
}
