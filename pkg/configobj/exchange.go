package configobj

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/dpp-onboard/dpp-go/pkg/auth"
	"github.com/dpp-onboard/dpp-go/pkg/frame"
	"github.com/go-jose/go-jose/v4"
)

// RequestAttributes is the Configuration Request attributes object sent by
// the Enrollee.
type RequestAttributes struct {
	Name     string `json:"name"`
	WiFiTech string `json:"wi-fi_tech"`
	NetRole  string `json:"netRole"`

	// NetAccessKey is the Enrollee's network access public key, placed in
	// an issued Connector.
	NetAccessKey *jose.JSONWebKey `json:"netAccessKey,omitempty"`
}

// Validate checks the request attributes.
func (a *RequestAttributes) Validate() error {
	if a.WiFiTech != WiFiTechInfra {
		return fmt.Errorf("%w: wi-fi_tech %q", ErrMalformedObject, a.WiFiTech)
	}
	switch a.NetRole {
	case NetRoleSTA, NetRoleAP:
	default:
		return fmt.Errorf("%w: netRole %q", ErrMalformedObject, a.NetRole)
	}
	if a.NetAccessKey != nil && (!a.NetAccessKey.Valid() || !a.NetAccessKey.IsPublic()) {
		return fmt.Errorf("%w: netAccessKey must be a public key", ErrMalformedObject)
	}
	return nil
}

// Sealer wraps configuration payloads for one session.
type Sealer struct {
	ke      []byte
	version uint8
	txID    uint32
}

// NewSealer binds payloads to the session key, version and transaction.
func NewSealer(ke []byte, version uint8, txID uint32) *Sealer {
	return &Sealer{ke: ke, version: version, txID: txID}
}

func (s *Sealer) ad(t frame.Type) []byte {
	return auth.AssociatedData(t, s.version, s.txID)
}

func (s *Sealer) open(t frame.Type, wrapped []byte) (frame.Attributes, error) {
	attrs, err := auth.UnwrapAttributes(s.ke, s.ad(t), wrapped)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecryptFailed, err)
	}
	return attrs, nil
}

// SealRequest wraps the Configuration Request payload.
func (s *Sealer) SealRequest(enonce []byte, attrs *RequestAttributes) ([]byte, error) {
	body, err := json.Marshal(attrs)
	if err != nil {
		return nil, err
	}
	var inner frame.Attributes
	inner.Add(frame.AttrEnrolleeNonce, enonce)
	inner.Add(frame.AttrConfigAttributes, body)
	return auth.WrapAttributes(s.ke, s.ad(frame.TypeConfigRequest), inner)
}

// OpenRequest unwraps a Configuration Request payload.
func (s *Sealer) OpenRequest(wrapped []byte) ([]byte, *RequestAttributes, error) {
	inner, err := s.open(frame.TypeConfigRequest, wrapped)
	if err != nil {
		return nil, nil, err
	}
	enonce, err := inner.Require(frame.AttrEnrolleeNonce, 0)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %v", ErrMalformedObject, err)
	}
	body, err := inner.Require(frame.AttrConfigAttributes, 0)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %v", ErrMalformedObject, err)
	}
	var attrs RequestAttributes
	if err := json.Unmarshal(body, &attrs); err != nil {
		return nil, nil, fmt.Errorf("%w: %v", ErrMalformedObject, err)
	}
	if err := attrs.Validate(); err != nil {
		return nil, nil, err
	}
	return enonce, &attrs, nil
}

// Seal wraps a configuration object for the Configuration Response.
func (s *Sealer) Seal(enonce []byte, obj *Object) ([]byte, error) {
	if err := obj.Validate(); err != nil {
		return nil, err
	}
	body, err := obj.Marshal()
	if err != nil {
		return nil, err
	}
	var inner frame.Attributes
	inner.Add(frame.AttrEnrolleeNonce, enonce)
	inner.Add(frame.AttrConfigObject, body)
	return auth.WrapAttributes(s.ke, s.ad(frame.TypeConfigResponse), inner)
}

// Open unwraps and validates a configuration object. It returns the
// E-nonce it was bound to.
func (s *Sealer) Open(wrapped []byte) ([]byte, *Object, error) {
	inner, err := s.open(frame.TypeConfigResponse, wrapped)
	if err != nil {
		return nil, nil, err
	}
	enonce, err := inner.Require(frame.AttrEnrolleeNonce, 0)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %v", ErrMalformedObject, err)
	}
	body, err := inner.Require(frame.AttrConfigObject, 0)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %v", ErrMalformedObject, err)
	}
	obj, err := Unmarshal(body)
	if err != nil {
		return enonce, nil, err
	}
	return enonce, obj, nil
}

// SealResult wraps a Configuration Result.
func (s *Sealer) SealResult(status frame.Status, enonce []byte) ([]byte, error) {
	var inner frame.Attributes
	inner.AddUint8(frame.AttrStatus, uint8(status))
	inner.Add(frame.AttrEnrolleeNonce, enonce)
	return auth.WrapAttributes(s.ke, s.ad(frame.TypeConfigResult), inner)
}

// OpenResult unwraps a Configuration Result.
func (s *Sealer) OpenResult(wrapped []byte) (frame.Status, []byte, error) {
	inner, err := s.open(frame.TypeConfigResult, wrapped)
	if err != nil {
		return 0, nil, err
	}
	status, err := inner.Uint8(frame.AttrStatus)
	if err != nil {
		return 0, nil, fmt.Errorf("%w: %v", ErrMalformedObject, err)
	}
	enonce, err := inner.Require(frame.AttrEnrolleeNonce, 0)
	if err != nil {
		return 0, nil, fmt.Errorf("%w: %v", ErrMalformedObject, err)
	}
	return frame.Status(status), enonce, nil
}

// StatusFor maps a decode error to the status reported in a Configuration
// Result.
func StatusFor(err error) frame.Status {
	switch {
	case err == nil:
		return frame.StatusOK
	case errors.Is(err, ErrDecryptFailed):
		return frame.StatusUnwrapFailure
	case errors.Is(err, ErrInvalidConnector):
		return frame.StatusInvalidConnector
	default:
		return frame.StatusConfigRejected
	}
}
