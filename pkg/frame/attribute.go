package frame

import (
	"encoding/binary"
	"errors"
	"fmt"
)

// ErrMalformed indicates a frame or attribute list that cannot be decoded.
var ErrMalformed = errors.New("malformed frame")

// AttrID identifies a DPP attribute.
type AttrID uint16

// DPP attribute identifiers.
const (
	AttrStatus            AttrID = 0x1000
	AttrInitiatorBootHash AttrID = 0x1001
	AttrResponderBootHash AttrID = 0x1002
	AttrInitiatorProtoKey AttrID = 0x1003
	AttrWrappedData       AttrID = 0x1004
	AttrInitiatorNonce    AttrID = 0x1005
	AttrInitiatorCaps     AttrID = 0x1006
	AttrResponderNonce    AttrID = 0x1007
	AttrResponderCaps     AttrID = 0x1008
	AttrResponderProtoKey AttrID = 0x1009
	AttrInitiatorAuthTag  AttrID = 0x100A
	AttrResponderAuthTag  AttrID = 0x100B
	AttrConfigObject      AttrID = 0x100C
	AttrConnector         AttrID = 0x100D
	AttrConfigAttributes  AttrID = 0x100E
	AttrFiniteCyclicGroup AttrID = 0x1012
	AttrEnrolleeNonce     AttrID = 0x1014
	AttrTransactionID     AttrID = 0x1016
	AttrProtocolVersion   AttrID = 0x1019
)

// String returns the attribute name.
func (id AttrID) String() string {
	switch id {
	case AttrStatus:
		return "Status"
	case AttrInitiatorBootHash:
		return "I-BootHash"
	case AttrResponderBootHash:
		return "R-BootHash"
	case AttrInitiatorProtoKey:
		return "I-ProtoKey"
	case AttrWrappedData:
		return "WrappedData"
	case AttrInitiatorNonce:
		return "I-Nonce"
	case AttrInitiatorCaps:
		return "I-Caps"
	case AttrResponderNonce:
		return "R-Nonce"
	case AttrResponderCaps:
		return "R-Caps"
	case AttrResponderProtoKey:
		return "R-ProtoKey"
	case AttrInitiatorAuthTag:
		return "I-Auth"
	case AttrResponderAuthTag:
		return "R-Auth"
	case AttrConfigObject:
		return "ConfigObject"
	case AttrConnector:
		return "Connector"
	case AttrConfigAttributes:
		return "ConfigAttributes"
	case AttrFiniteCyclicGroup:
		return "Group"
	case AttrEnrolleeNonce:
		return "E-Nonce"
	case AttrTransactionID:
		return "TransactionID"
	case AttrProtocolVersion:
		return "ProtocolVersion"
	default:
		return fmt.Sprintf("Attr(0x%04x)", uint16(id))
	}
}

// Attribute is a single TLV attribute.
type Attribute struct {
	ID    AttrID
	Value []byte
}

// Attributes is an ordered attribute list.
type Attributes []Attribute

// Get returns the value of the first attribute with the given id.
func (a Attributes) Get(id AttrID) ([]byte, bool) {
	for _, attr := range a {
		if attr.ID == id {
			return attr.Value, true
		}
	}
	return nil, false
}

// Has reports whether an attribute with the given id is present.
func (a Attributes) Has(id AttrID) bool {
	_, ok := a.Get(id)
	return ok
}

// Require returns the value of id, or ErrMalformed if it is missing or its
// length differs from size. A size of 0 accepts any non-empty value.
func (a Attributes) Require(id AttrID, size int) ([]byte, error) {
	v, ok := a.Get(id)
	if !ok {
		return nil, fmt.Errorf("%w: missing %s", ErrMalformed, id)
	}
	if (size == 0 && len(v) == 0) || (size > 0 && len(v) != size) {
		return nil, fmt.Errorf("%w: %s has length %d", ErrMalformed, id, len(v))
	}
	return v, nil
}

// Uint8 returns a one-byte attribute value.
func (a Attributes) Uint8(id AttrID) (uint8, error) {
	v, err := a.Require(id, 1)
	if err != nil {
		return 0, err
	}
	return v[0], nil
}

// Add appends an attribute.
func (a *Attributes) Add(id AttrID, value []byte) {
	*a = append(*a, Attribute{ID: id, Value: value})
}

// AddUint8 appends a one-byte attribute.
func (a *Attributes) AddUint8(id AttrID, v uint8) {
	a.Add(id, []byte{v})
}

// MaxAttrLen is the largest value a 16-bit attribute length can carry.
const MaxAttrLen = 0xffff

// Encode serializes the attributes. A value longer than MaxAttrLen cannot
// be represented and fails with ErrMalformed.
func (a Attributes) Encode() ([]byte, error) {
	n := 0
	for _, attr := range a {
		if len(attr.Value) > MaxAttrLen {
			return nil, fmt.Errorf("%w: %s length %d exceeds %d", ErrMalformed, attr.ID, len(attr.Value), MaxAttrLen)
		}
		n += 4 + len(attr.Value)
	}
	out := make([]byte, 0, n)
	for _, attr := range a {
		out = binary.LittleEndian.AppendUint16(out, uint16(attr.ID))
		out = binary.LittleEndian.AppendUint16(out, uint16(len(attr.Value)))
		out = append(out, attr.Value...)
	}
	return out, nil
}

// DecodeAttributes parses a TLV attribute list. Trailing bytes that do not
// form a complete attribute are an error.
func DecodeAttributes(b []byte) (Attributes, error) {
	var attrs Attributes
	for len(b) > 0 {
		if len(b) < 4 {
			return nil, fmt.Errorf("%w: truncated attribute header", ErrMalformed)
		}
		id := AttrID(binary.LittleEndian.Uint16(b[0:2]))
		l := int(binary.LittleEndian.Uint16(b[2:4]))
		if len(b)-4 < l {
			return nil, fmt.Errorf("%w: %s length %d exceeds frame", ErrMalformed, id, l)
		}
		attrs = append(attrs, Attribute{ID: id, Value: b[4 : 4+l]})
		b = b[4+l:]
	}
	return attrs, nil
}
