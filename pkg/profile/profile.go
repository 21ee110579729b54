package profile

import (
	"crypto/ecdsa"
	"crypto/x509"
	"encoding/json"
	"fmt"
	"time"

	"github.com/dpp-onboard/dpp-go/pkg/configobj"
	"github.com/go-jose/go-jose/v4"
)

// Profile is a provisioned network profile.
type Profile struct {
	// SSID is the network name.
	SSID string `cbor:"1,keyasint"`

	// AKM is the authentication and key management suite.
	AKM string `cbor:"2,keyasint"`

	// Passphrase is the psk/sae passphrase.
	Passphrase string `cbor:"3,keyasint,omitempty"`

	// PSKHex is the raw PSK as 64 hex digits.
	PSKHex string `cbor:"4,keyasint,omitempty"`

	// Connector is the signed DPP Connector (akm dpp).
	Connector string `cbor:"5,keyasint,omitempty"`

	// CSign is the Configurator signing key as JWK JSON (akm dpp).
	CSign []byte `cbor:"6,keyasint,omitempty"`

	// NetAccessKey is the PKCS#8 DER private key matching the Connector.
	NetAccessKey []byte `cbor:"7,keyasint,omitempty"`

	// ConfiguratorMAC is the station address of the issuing Configurator.
	ConfiguratorMAC string `cbor:"8,keyasint,omitempty"`

	// ProtocolVersion is the DPP version used for the exchange.
	ProtocolVersion uint8 `cbor:"9,keyasint,omitempty"`

	// ProvisionedAt is when the profile was received.
	ProvisionedAt time.Time `cbor:"10,keyasint"`
}

// FromObject converts a validated configuration object. netAccessKey is the
// Enrollee's network access key and may be nil for passphrase networks.
func FromObject(obj *configobj.Object, netAccessKey *ecdsa.PrivateKey) (Profile, error) {
	if err := obj.Validate(); err != nil {
		return Profile{}, err
	}
	p := Profile{
		SSID:       obj.Discovery.SSID,
		AKM:        obj.Cred.AKM,
		Passphrase: obj.Cred.Pass,
		PSKHex:     obj.Cred.PSKHex,
		Connector:  obj.Cred.SignedConnector,
	}
	if obj.Cred.CSign != nil {
		b, err := obj.Cred.CSign.MarshalJSON()
		if err != nil {
			return Profile{}, fmt.Errorf("failed to encode csign: %w", err)
		}
		p.CSign = b
	}
	if netAccessKey != nil && obj.Cred.AKM == configobj.AKMDPP {
		der, err := x509.MarshalPKCS8PrivateKey(netAccessKey)
		if err != nil {
			return Profile{}, fmt.Errorf("failed to encode net access key: %w", err)
		}
		p.NetAccessKey = der
	}
	return p, nil
}

// Object rebuilds the configuration object the profile was made from.
func (p Profile) Object() (*configobj.Object, error) {
	obj := &configobj.Object{
		WiFiTech:  configobj.WiFiTechInfra,
		Discovery: configobj.Discovery{SSID: p.SSID},
		Cred: &configobj.Credential{
			AKM:             p.AKM,
			Pass:            p.Passphrase,
			PSKHex:          p.PSKHex,
			SignedConnector: p.Connector,
		},
	}
	if len(p.CSign) > 0 {
		var jwk jose.JSONWebKey
		if err := json.Unmarshal(p.CSign, &jwk); err != nil {
			return nil, fmt.Errorf("%w: csign: %v", configobj.ErrMalformedObject, err)
		}
		obj.Cred.CSign = &jwk
	}
	if err := obj.Validate(); err != nil {
		return nil, err
	}
	return obj, nil
}

// String describes the profile without its secrets.
func (p Profile) String() string {
	return fmt.Sprintf("%s (%s)", p.SSID, p.AKM)
}
