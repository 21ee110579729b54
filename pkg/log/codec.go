package log

import (
	"fmt"
	"io"

	"github.com/fxamacker/cbor/v2"
)

// A .dlog capture is a plain concatenation of CBOR maps, one per Event,
// keyed by the integers in the Event struct tags. FileLogger is the only
// writer, so the decoder accepts exactly what it produces: definite
// lengths, unique keys and at most three levels of nesting (event,
// payload, attribute list).
var (
	dlogEncMode cbor.EncMode
	dlogDecMode cbor.DecMode
)

func init() {
	var err error
	dlogEncMode, err = cbor.EncOptions{
		Sort:          cbor.SortCoreDeterministic,
		IndefLength:   cbor.IndefLengthForbidden,
		NilContainers: cbor.NilContainerAsNull,
		Time:          cbor.TimeRFC3339Nano,
	}.EncMode()
	if err != nil {
		panic(fmt.Sprintf("log: dlog encoder: %v", err))
	}

	dlogDecMode, err = cbor.DecOptions{
		DupMapKey:        cbor.DupMapKeyEnforcedAPF,
		IndefLength:      cbor.IndefLengthForbidden,
		MaxNestedLevels:  4,
		MaxMapPairs:      32,
		MaxArrayElements: MaxFrameDataSize,
	}.DecMode()
	if err != nil {
		panic(fmt.Sprintf("log: dlog decoder: %v", err))
	}
}

// EncodeEvent encodes one .dlog record.
func EncodeEvent(event Event) ([]byte, error) {
	return dlogEncMode.Marshal(event)
}

// DecodeEvent decodes one .dlog record.
func DecodeEvent(data []byte) (Event, error) {
	var event Event
	if err := dlogDecMode.Unmarshal(data, &event); err != nil {
		return Event{}, fmt.Errorf("log: decode event: %w", err)
	}
	return event, nil
}

func newEventEncoder(w io.Writer) *cbor.Encoder {
	return dlogEncMode.NewEncoder(w)
}

func newEventDecoder(r io.Reader) *cbor.Decoder {
	return dlogDecMode.NewDecoder(r)
}
