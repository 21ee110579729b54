package log

import (
	"time"

	"github.com/dpp-onboard/dpp-go/pkg/frame"
)

// MaxFrameDataSize is the maximum frame data size kept in a FrameEvent.
// Larger frames are truncated to avoid excessive memory usage.
const MaxFrameDataSize = 4096

// Event represents a protocol log event captured at any layer.
// CBOR encoding uses integer keys for compactness.
type Event struct {
	// Timestamp when the event occurred (nanosecond precision).
	Timestamp time.Time `cbor:"1,keyasint"`

	// SessionID uniquely identifies the DPP exchange (UUID).
	SessionID string `cbor:"2,keyasint"`

	// Direction indicates frame flow.
	Direction Direction `cbor:"3,keyasint"`

	// Layer where the event was captured.
	Layer Layer `cbor:"4,keyasint"`

	// Category classifies the event type.
	Category Category `cbor:"5,keyasint"`

	// LocalRole indicates whether this side is the enrollee or configurator.
	LocalRole Role `cbor:"6,keyasint,omitempty"`

	// PeerMAC is the peer station address.
	PeerMAC string `cbor:"7,keyasint,omitempty"`

	// Channel is the operating class and channel ("81/6").
	Channel string `cbor:"8,keyasint,omitempty"`

	// TransactionID is the DPP transaction identifier of the exchange.
	TransactionID uint32 `cbor:"9,keyasint,omitempty"`

	// Type-specific payload (one of these will be set).
	Frame       *FrameEvent       `cbor:"10,keyasint,omitempty"` // Radio layer
	Message     *MessageEvent     `cbor:"11,keyasint,omitempty"` // Frame layer (decoded)
	StateChange *StateChangeEvent `cbor:"12,keyasint,omitempty"` // Session state
	Retry       *RetryEvent       `cbor:"13,keyasint,omitempty"` // Retransmissions
	Error       *ErrorEventData   `cbor:"14,keyasint,omitempty"` // Errors at any layer
}

// Direction indicates the direction of frame flow.
type Direction uint8

const (
	// DirectionIn indicates an incoming frame.
	DirectionIn Direction = 0
	// DirectionOut indicates an outgoing frame.
	DirectionOut Direction = 1
)

// String returns the direction name.
func (d Direction) String() string {
	switch d {
	case DirectionIn:
		return "IN"
	case DirectionOut:
		return "OUT"
	default:
		return "UNKNOWN"
	}
}

// Layer indicates which protocol layer captured the event.
type Layer uint8

const (
	// LayerRadio is the action frame medium (raw bytes).
	LayerRadio Layer = 0
	// LayerFrame is the DPP frame codec layer (decoded frames).
	LayerFrame Layer = 1
	// LayerEngine is the protocol state machine.
	LayerEngine Layer = 2
)

// String returns the layer name.
func (l Layer) String() string {
	switch l {
	case LayerRadio:
		return "RADIO"
	case LayerFrame:
		return "FRAME"
	case LayerEngine:
		return "ENGINE"
	default:
		return "UNKNOWN"
	}
}

// Category classifies the event type.
type Category uint8

const (
	// CategoryMessage indicates a DPP frame.
	CategoryMessage Category = 0
	// CategoryRetry indicates a retransmission or channel change.
	CategoryRetry Category = 1
	// CategoryState indicates a state change.
	CategoryState Category = 2
	// CategoryError indicates an error event.
	CategoryError Category = 3
)

// String returns the category name.
func (c Category) String() string {
	switch c {
	case CategoryMessage:
		return "MESSAGE"
	case CategoryRetry:
		return "RETRY"
	case CategoryState:
		return "STATE"
	case CategoryError:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// Role indicates whether the local side is the enrollee or the configurator.
type Role uint8

const (
	// RoleEnrollee indicates the device being provisioned.
	RoleEnrollee Role = 0
	// RoleConfigurator indicates the credential issuer.
	RoleConfigurator Role = 1
)

// String returns the role name.
func (r Role) String() string {
	switch r {
	case RoleEnrollee:
		return "ENROLLEE"
	case RoleConfigurator:
		return "CONFIGURATOR"
	default:
		return "UNKNOWN"
	}
}

// FrameEvent captures raw action frame bytes at the radio layer.
type FrameEvent struct {
	// Size is the frame size in bytes.
	Size int `cbor:"1,keyasint"`

	// Data is the raw frame bytes (may be truncated for large frames).
	Data []byte `cbor:"2,keyasint,omitempty"`

	// Truncated indicates if Data was truncated.
	Truncated bool `cbor:"3,keyasint,omitempty"`
}

// NewFrameEvent captures data, truncating it to MaxFrameDataSize.
func NewFrameEvent(data []byte) *FrameEvent {
	fe := &FrameEvent{Size: len(data)}
	if len(data) > MaxFrameDataSize {
		data = data[:MaxFrameDataSize]
		fe.Truncated = true
	}
	fe.Data = append([]byte(nil), data...)
	return fe
}

// MessageEvent captures a decoded DPP frame.
type MessageEvent struct {
	// Type is the DPP frame type.
	Type frame.Type `cbor:"1,keyasint"`

	// Status is the DPP status attribute, when the frame carries one.
	Status *frame.Status `cbor:"2,keyasint,omitempty"`

	// DialogToken is the GAS dialog token (configuration frames only).
	DialogToken *uint8 `cbor:"3,keyasint,omitempty"`

	// Attributes lists the attribute ids in frame order.
	Attributes []frame.AttrID `cbor:"4,keyasint,omitempty"`
}

// NewMessageEvent summarises a decoded frame.
func NewMessageEvent(f *frame.Frame) *MessageEvent {
	me := &MessageEvent{Type: f.Type}
	if st, err := f.Status(); err == nil {
		me.Status = &st
	}
	if f.Type.IsGAS() {
		tok := f.DialogToken
		me.DialogToken = &tok
	}
	for _, a := range f.Attributes {
		me.Attributes = append(me.Attributes, a.ID)
	}
	return me
}

// StateChangeEvent captures session lifecycle events.
type StateChangeEvent struct {
	// Entity being changed.
	Entity StateEntity `cbor:"1,keyasint"`

	// OldState is the previous state (may be empty).
	OldState string `cbor:"2,keyasint,omitempty"`

	// NewState is the new state.
	NewState string `cbor:"3,keyasint"`

	// Reason for the change (if available).
	Reason string `cbor:"4,keyasint,omitempty"`
}

// StateEntity indicates what entity changed state.
type StateEntity uint8

const (
	// StateEntitySession indicates a DPP session state change.
	StateEntitySession StateEntity = 0
	// StateEntityEngine indicates an engine-wide change (start, stop).
	StateEntityEngine StateEntity = 1
)

// String returns the state entity name.
func (s StateEntity) String() string {
	switch s {
	case StateEntitySession:
		return "SESSION"
	case StateEntityEngine:
		return "ENGINE"
	default:
		return "UNKNOWN"
	}
}

// RetryEvent captures retransmission decisions.
type RetryEvent struct {
	// Reason for the event.
	Reason RetryReason `cbor:"1,keyasint"`

	// Attempt is the attempt number on the current channel (1-based).
	Attempt int `cbor:"2,keyasint"`

	// Channel is the channel the next attempt uses, when it changes.
	Channel string `cbor:"3,keyasint,omitempty"`
}

// RetryReason indicates why a frame is retransmitted.
type RetryReason uint8

const (
	// RetryNoAck indicates the link-layer ack was missing.
	RetryNoAck RetryReason = 0
	// RetryNoResponse indicates the peer did not answer in time.
	RetryNoResponse RetryReason = 1
	// RetryChannelSwitch indicates a move to the next channel.
	RetryChannelSwitch RetryReason = 2
	// RetryExhausted indicates the attempt ceiling was reached.
	RetryExhausted RetryReason = 3
)

// String returns the retry reason name.
func (r RetryReason) String() string {
	switch r {
	case RetryNoAck:
		return "NO_ACK"
	case RetryNoResponse:
		return "NO_RESPONSE"
	case RetryChannelSwitch:
		return "CHANNEL_SWITCH"
	case RetryExhausted:
		return "EXHAUSTED"
	default:
		return "UNKNOWN"
	}
}

// ErrorEventData captures errors at any layer.
type ErrorEventData struct {
	// Layer where the error occurred.
	Layer Layer `cbor:"1,keyasint"`

	// Message is the error message.
	Message string `cbor:"2,keyasint"`

	// Status is the DPP status code associated with the error (if any).
	Status *frame.Status `cbor:"3,keyasint,omitempty"`

	// Context describes what operation was being performed.
	Context string `cbor:"4,keyasint,omitempty"`
}
