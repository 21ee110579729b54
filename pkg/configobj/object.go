package configobj

import (
	"encoding/hex"
	"encoding/json"
	"fmt"

	"github.com/go-jose/go-jose/v4"
)

// Technology and role names.
const (
	WiFiTechInfra = "infra"

	NetRoleSTA = "sta"
	NetRoleAP  = "ap"
)

// AKM names.
const (
	AKMPSK    = "psk"
	AKMSAE    = "sae"
	AKMPSKSAE = "psk+sae"
	AKMDPP    = "dpp"
)

// Object is a DPP configuration object.
type Object struct {
	WiFiTech  string      `json:"wi-fi_tech"`
	Discovery Discovery   `json:"discovery"`
	Cred      *Credential `json:"cred,omitempty"`
}

// Discovery names the network.
type Discovery struct {
	SSID string `json:"ssid"`
}

// Credential is the network credential.
type Credential struct {
	AKM string `json:"akm"`

	// Pass is the passphrase for psk/sae.
	Pass string `json:"pass,omitempty"`

	// PSKHex is the raw PSK for psk as 64 hex digits.
	PSKHex string `json:"psk_hex,omitempty"`

	// SignedConnector is the JWS Connector for dpp.
	SignedConnector string `json:"signedConnector,omitempty"`

	// CSign is the Configurator's signing key for dpp.
	CSign *jose.JSONWebKey `json:"csign,omitempty"`
}

// NewPassphrase returns a configuration for a passphrase protected network.
func NewPassphrase(ssid, akm, pass string) *Object {
	return &Object{
		WiFiTech:  WiFiTechInfra,
		Discovery: Discovery{SSID: ssid},
		Cred:      &Credential{AKM: akm, Pass: pass},
	}
}

// Validate checks the object. Structural problems return
// ErrMalformedObject; an unknown AKM returns ErrUnsupportedCredential.
func (o *Object) Validate() error {
	if o.WiFiTech != WiFiTechInfra {
		return fmt.Errorf("%w: wi-fi_tech %q", ErrMalformedObject, o.WiFiTech)
	}
	if l := len(o.Discovery.SSID); l == 0 || l > 32 {
		return fmt.Errorf("%w: ssid length %d", ErrMalformedObject, l)
	}
	if o.Cred == nil {
		return fmt.Errorf("%w: missing credential", ErrMalformedObject)
	}
	return o.Cred.Validate()
}

// Validate checks the credential.
func (c *Credential) Validate() error {
	switch c.AKM {
	case "":
		return fmt.Errorf("%w: missing akm", ErrMalformedObject)

	case AKMPSK, AKMPSKSAE:
		if c.Pass == "" && c.PSKHex == "" {
			return fmt.Errorf("%w: %s requires pass or psk_hex", ErrMalformedObject, c.AKM)
		}
		if c.Pass != "" {
			if err := validatePassphrase(c.Pass); err != nil {
				return err
			}
		}
		if c.PSKHex != "" {
			if b, err := hex.DecodeString(c.PSKHex); err != nil || len(b) != 32 {
				return fmt.Errorf("%w: psk_hex must be 64 hex digits", ErrMalformedObject)
			}
		}

	case AKMSAE:
		if c.Pass == "" {
			return fmt.Errorf("%w: sae requires pass", ErrMalformedObject)
		}

	case AKMDPP:
		if c.SignedConnector == "" {
			return fmt.Errorf("%w: dpp requires signedConnector", ErrMalformedObject)
		}
		if c.CSign == nil || !c.CSign.Valid() || !c.CSign.IsPublic() {
			return fmt.Errorf("%w: dpp requires a public csign key", ErrMalformedObject)
		}

	default:
		return fmt.Errorf("%w: akm %q", ErrUnsupportedCredential, c.AKM)
	}
	return nil
}

func validatePassphrase(p string) error {
	if len(p) < 8 || len(p) > 63 {
		return fmt.Errorf("%w: passphrase length %d", ErrMalformedObject, len(p))
	}
	for i := 0; i < len(p); i++ {
		if p[i] < 32 || p[i] > 126 {
			return fmt.Errorf("%w: passphrase must be printable ASCII", ErrMalformedObject)
		}
	}
	return nil
}

// Marshal encodes the object as JSON.
func (o *Object) Marshal() ([]byte, error) {
	return json.Marshal(o)
}

// Unmarshal decodes and validates a JSON configuration object.
func Unmarshal(data []byte) (*Object, error) {
	var o Object
	if err := json.Unmarshal(data, &o); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedObject, err)
	}
	if err := o.Validate(); err != nil {
		return nil, err
	}
	return &o, nil
}
