package log

import (
	"errors"
	"fmt"
	"io"
	"iter"
	"os"
	"time"

	"github.com/fxamacker/cbor/v2"
)

// ErrTruncated reports a .dlog file whose last record was cut short,
// typically because the writing process died mid-write. Every record
// before it has already been returned.
var ErrTruncated = errors.New("log: truncated record at end of file")

// Filter selects the events of one exchange or time window. Zero fields
// match everything.
type Filter struct {
	SessionID     string
	PeerMAC       string
	TransactionID *uint32
	Direction     *Direction
	Layer         *Layer
	Category      *Category

	// TimeStart and TimeEnd bound the half-open window [TimeStart, TimeEnd).
	TimeStart *time.Time
	TimeEnd   *time.Time
}

func (f *Filter) matches(event Event) bool {
	switch {
	case f.SessionID != "" && event.SessionID != f.SessionID,
		f.PeerMAC != "" && event.PeerMAC != f.PeerMAC,
		f.TransactionID != nil && event.TransactionID != *f.TransactionID,
		f.Direction != nil && event.Direction != *f.Direction,
		f.Layer != nil && event.Layer != *f.Layer,
		f.Category != nil && event.Category != *f.Category,
		f.TimeStart != nil && event.Timestamp.Before(*f.TimeStart),
		f.TimeEnd != nil && !event.Timestamp.Before(*f.TimeEnd):
		return false
	}
	return true
}

// Reader streams events out of a .dlog capture.
type Reader struct {
	file    *os.File
	decoder *cbor.Decoder
	filter  Filter
	decoded int
}

// NewReader opens a capture for reading every event.
func NewReader(path string) (*Reader, error) {
	return NewFilteredReader(path, Filter{})
}

// NewFilteredReader opens a capture for reading the events that match filter.
func NewFilteredReader(path string, filter Filter) (*Reader, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	return &Reader{file: f, decoder: newEventDecoder(f), filter: filter}, nil
}

// Next returns the next matching event, or io.EOF at the end of the file.
func (r *Reader) Next() (Event, error) {
	for {
		var event Event
		err := r.decoder.Decode(&event)
		switch {
		case err == nil:
		case errors.Is(err, io.EOF):
			return Event{}, io.EOF
		case errors.Is(err, io.ErrUnexpectedEOF):
			return Event{}, fmt.Errorf("%w after %d events", ErrTruncated, r.decoded)
		default:
			return Event{}, fmt.Errorf("log: record %d: %w", r.decoded+1, err)
		}
		r.decoded++
		if r.filter.matches(event) {
			return event, nil
		}
	}
}

// Decoded returns how many records have been read, matching or not.
func (r *Reader) Decoded() int {
	return r.decoded
}

// All iterates over the remaining matching events. Iteration stops at the
// end of the file or after yielding the first error.
func (r *Reader) All() iter.Seq2[Event, error] {
	return func(yield func(Event, error) bool) {
		for {
			event, err := r.Next()
			if errors.Is(err, io.EOF) {
				return
			}
			if !yield(event, err) || err != nil {
				return
			}
		}
	}
}

// Close closes the underlying file.
func (r *Reader) Close() error {
	return r.file.Close()
}
