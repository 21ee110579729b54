package frame

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
)

// ErrNotDPP indicates a well-formed action frame that is not a DPP frame.
// Receivers drop these silently.
var ErrNotDPP = errors.New("not a DPP frame")

// Action frame constants.
const (
	CategoryPublic = 0x04

	ActionVendorSpecific     = 0x09
	ActionGASInitialRequest  = 0x0a
	ActionGASInitialResponse = 0x0b

	OUIType     = 0x1a
	CryptoSuite = 0x01

	elementAdvProtocol = 0x6c
	elementVendor      = 0xdd
)

// OUI is the Wi-Fi Alliance organizationally unique identifier.
var OUI = [3]byte{0x50, 0x6f, 0x9a}

// Type identifies a DPP frame.
type Type uint8

// DPP public action frame types. Config Request and Response are carried in
// GAS frames and use values outside the on-air type space.
const (
	TypeAuthRequest    Type = 0
	TypeAuthResponse   Type = 1
	TypeAuthConfirm    Type = 2
	TypeConfigResult   Type = 11
	TypeConfigRequest  Type = 0xf0
	TypeConfigResponse Type = 0xf1
)

// String returns the frame type name.
func (t Type) String() string {
	switch t {
	case TypeAuthRequest:
		return "AuthRequest"
	case TypeAuthResponse:
		return "AuthResponse"
	case TypeAuthConfirm:
		return "AuthConfirm"
	case TypeConfigResult:
		return "ConfigResult"
	case TypeConfigRequest:
		return "ConfigRequest"
	case TypeConfigResponse:
		return "ConfigResponse"
	default:
		return fmt.Sprintf("Type(%d)", uint8(t))
	}
}

// IsGAS reports whether frames of this type travel in GAS frames.
func (t Type) IsGAS() bool {
	return t == TypeConfigRequest || t == TypeConfigResponse
}

// Frame is a decoded DPP frame.
type Frame struct {
	Type Type

	// DialogToken is the GAS dialog token (GAS frames only).
	DialogToken uint8

	// GASStatus is the IEEE 802.11 status code of a GAS response.
	GASStatus uint16

	Attributes Attributes
}

// New returns a frame of the given type carrying a transaction id.
func New(t Type, txID uint32) *Frame {
	f := &Frame{Type: t}
	f.Attributes.Add(AttrTransactionID, binary.LittleEndian.AppendUint32(nil, txID))
	return f
}

// TransactionID returns the frame's transaction id.
func (f *Frame) TransactionID() (uint32, error) {
	v, err := f.Attributes.Require(AttrTransactionID, 4)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(v), nil
}

// Status returns the Status attribute, or ErrMalformed if absent.
func (f *Frame) Status() (Status, error) {
	v, err := f.Attributes.Uint8(AttrStatus)
	return Status(v), err
}

// Header returns the fixed header bytes identifying a frame type. The
// result is used as associated data when wrapping attributes so that a
// wrapped blob cannot be moved to a different frame type.
func Header(t Type) []byte {
	switch t {
	case TypeConfigRequest:
		return []byte{CategoryPublic, ActionGASInitialRequest}
	case TypeConfigResponse:
		return []byte{CategoryPublic, ActionGASInitialResponse}
	default:
		return []byte{CategoryPublic, ActionVendorSpecific, OUI[0], OUI[1], OUI[2], OUIType, CryptoSuite, byte(t)}
	}
}

// advProtocol returns the Advertisement Protocol element naming DPP.
func advProtocol(response bool) []byte {
	info := byte(0x00)
	if response {
		info = 0x7f
	}
	return []byte{elementAdvProtocol, 8, info, elementVendor, 5, OUI[0], OUI[1], OUI[2], OUIType, CryptoSuite}
}

// Marshal encodes the frame.
func (f *Frame) Marshal() ([]byte, error) {
	body, err := f.Attributes.Encode()
	if err != nil {
		return nil, err
	}

	switch f.Type {
	case TypeAuthRequest, TypeAuthResponse, TypeAuthConfirm, TypeConfigResult:
		return append(Header(f.Type), body...), nil

	case TypeConfigRequest:
		if len(body) > 0xffff {
			return nil, fmt.Errorf("%w: query too long", ErrMalformed)
		}
		out := []byte{CategoryPublic, ActionGASInitialRequest, f.DialogToken}
		out = append(out, advProtocol(false)...)
		out = binary.LittleEndian.AppendUint16(out, uint16(len(body)))
		return append(out, body...), nil

	case TypeConfigResponse:
		if len(body) > 0xffff {
			return nil, fmt.Errorf("%w: query too long", ErrMalformed)
		}
		out := []byte{CategoryPublic, ActionGASInitialResponse, f.DialogToken}
		out = binary.LittleEndian.AppendUint16(out, f.GASStatus)
		out = binary.LittleEndian.AppendUint16(out, 0) // comeback delay
		out = append(out, advProtocol(true)...)
		out = binary.LittleEndian.AppendUint16(out, uint16(len(body)))
		return append(out, body...), nil
	}

	return nil, fmt.Errorf("%w: unknown type %s", ErrMalformed, f.Type)
}

// Unmarshal decodes an action frame. Non-DPP action frames return ErrNotDPP.
func Unmarshal(b []byte) (*Frame, error) {
	if len(b) < 2 {
		return nil, fmt.Errorf("%w: short frame", ErrMalformed)
	}
	if b[0] != CategoryPublic {
		return nil, ErrNotDPP
	}

	switch b[1] {
	case ActionVendorSpecific:
		if len(b) < 8 {
			return nil, fmt.Errorf("%w: short DPP header", ErrMalformed)
		}
		if !bytes.Equal(b[2:5], OUI[:]) || b[5] != OUIType {
			return nil, ErrNotDPP
		}
		if b[6] != CryptoSuite {
			return nil, fmt.Errorf("%w: crypto suite %d", ErrMalformed, b[6])
		}
		t := Type(b[7])
		switch t {
		case TypeAuthRequest, TypeAuthResponse, TypeAuthConfirm, TypeConfigResult:
		default:
			return nil, ErrNotDPP
		}
		attrs, err := DecodeAttributes(b[8:])
		if err != nil {
			return nil, err
		}
		return &Frame{Type: t, Attributes: attrs}, nil

	case ActionGASInitialRequest:
		return unmarshalGAS(b, false)

	case ActionGASInitialResponse:
		return unmarshalGAS(b, true)
	}

	return nil, ErrNotDPP
}

func unmarshalGAS(b []byte, response bool) (*Frame, error) {
	f := &Frame{Type: TypeConfigRequest}
	rest := b[2:]
	if len(rest) < 1 {
		return nil, fmt.Errorf("%w: missing dialog token", ErrMalformed)
	}
	f.DialogToken = rest[0]
	rest = rest[1:]

	if response {
		f.Type = TypeConfigResponse
		if len(rest) < 4 {
			return nil, fmt.Errorf("%w: short GAS response", ErrMalformed)
		}
		f.GASStatus = binary.LittleEndian.Uint16(rest[0:2])
		rest = rest[4:]
	}

	ape := advProtocol(response)
	if len(rest) < len(ape) {
		return nil, fmt.Errorf("%w: short advertisement protocol element", ErrMalformed)
	}
	// The query response info byte differs between peers; compare the rest.
	if rest[0] != ape[0] || rest[1] != ape[1] || !bytes.Equal(rest[3:len(ape)], ape[3:]) {
		return nil, ErrNotDPP
	}
	rest = rest[len(ape):]

	if len(rest) < 2 {
		return nil, fmt.Errorf("%w: missing query length", ErrMalformed)
	}
	l := int(binary.LittleEndian.Uint16(rest[0:2]))
	rest = rest[2:]
	if len(rest) != l {
		return nil, fmt.Errorf("%w: query length %d, have %d", ErrMalformed, l, len(rest))
	}

	attrs, err := DecodeAttributes(rest)
	if err != nil {
		return nil, err
	}
	f.Attributes = attrs
	return f, nil
}
