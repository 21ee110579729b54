package log

import (
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func createTestLogFile(t *testing.T, events []Event) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.dlog")

	logger, err := NewFileLogger(path)
	if err != nil {
		t.Fatalf("failed to create test log: %v", err)
	}
	for _, e := range events {
		logger.Log(e)
	}
	logger.Close()

	return path
}

func readAll(t *testing.T, r *Reader) []Event {
	t.Helper()
	var read []Event
	for {
		event, err := r.Next()
		if err == io.EOF {
			return read
		}
		if err != nil {
			t.Fatalf("Next failed: %v", err)
		}
		read = append(read, event)
	}
}

func TestReaderIteratesEvents(t *testing.T) {
	events := []Event{
		{Timestamp: time.Now(), SessionID: "s-1", Direction: DirectionIn, Layer: LayerRadio, Category: CategoryMessage},
		{Timestamp: time.Now(), SessionID: "s-2", Direction: DirectionOut, Layer: LayerFrame, Category: CategoryMessage},
		{Timestamp: time.Now(), SessionID: "s-3", Direction: DirectionIn, Layer: LayerEngine, Category: CategoryState},
	}

	reader, err := NewReader(createTestLogFile(t, events))
	if err != nil {
		t.Fatalf("NewReader failed: %v", err)
	}
	defer reader.Close()

	read := readAll(t, reader)
	if len(read) != 3 {
		t.Fatalf("got %d events, want 3", len(read))
	}
	if read[0].SessionID != "s-1" || read[2].SessionID != "s-3" {
		t.Errorf("events out of order: %q ... %q", read[0].SessionID, read[2].SessionID)
	}
}

func TestReaderHandlesEmptyFile(t *testing.T) {
	reader, err := NewReader(createTestLogFile(t, nil))
	if err != nil {
		t.Fatalf("NewReader failed: %v", err)
	}
	defer reader.Close()

	if _, err := reader.Next(); err != io.EOF {
		t.Errorf("expected io.EOF for empty file, got %v", err)
	}
}

func TestReaderMissingFile(t *testing.T) {
	if _, err := NewReader(filepath.Join(t.TempDir(), "missing.dlog")); err == nil {
		t.Error("expected error opening a missing file")
	}
}

func TestReaderFilters(t *testing.T) {
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	in := DirectionIn
	out := DirectionOut
	engine := LayerEngine
	retry := CategoryRetry
	tx := uint32(77)
	start := base.Add(time.Second)
	end := base.Add(3 * time.Second)

	events := []Event{
		{Timestamp: base, SessionID: "a", Direction: DirectionOut, Layer: LayerRadio, Category: CategoryMessage, PeerMAC: "02:00:00:00:00:01", TransactionID: 77},
		{Timestamp: base.Add(time.Second), SessionID: "a", Direction: DirectionIn, Layer: LayerFrame, Category: CategoryMessage, PeerMAC: "02:00:00:00:00:01", TransactionID: 77},
		{Timestamp: base.Add(2 * time.Second), SessionID: "b", Direction: DirectionOut, Layer: LayerEngine, Category: CategoryRetry, PeerMAC: "02:00:00:00:00:02", TransactionID: 78},
		{Timestamp: base.Add(3 * time.Second), SessionID: "b", Direction: DirectionIn, Layer: LayerEngine, Category: CategoryState, PeerMAC: "02:00:00:00:00:02", TransactionID: 78},
	}
	path := createTestLogFile(t, events)

	tests := []struct {
		name   string
		filter Filter
		want   int
	}{
		{"all", Filter{}, 4},
		{"session", Filter{SessionID: "b"}, 2},
		{"direction in", Filter{Direction: &in}, 2},
		{"direction out", Filter{Direction: &out}, 2},
		{"layer", Filter{Layer: &engine}, 2},
		{"category", Filter{Category: &retry}, 1},
		{"peer", Filter{PeerMAC: "02:00:00:00:00:01"}, 2},
		{"transaction", Filter{TransactionID: &tx}, 2},
		{"time range", Filter{TimeStart: &start, TimeEnd: &end}, 2},
		{"combined", Filter{SessionID: "b", Direction: &in}, 1},
		{"no match", Filter{SessionID: "zzz"}, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reader, err := NewFilteredReader(path, tt.filter)
			if err != nil {
				t.Fatalf("NewFilteredReader failed: %v", err)
			}
			defer reader.Close()

			if got := len(readAll(t, reader)); got != tt.want {
				t.Errorf("got %d events, want %d", got, tt.want)
			}
		})
	}
}

func TestReaderAll(t *testing.T) {
	events := []Event{
		{Timestamp: time.Now(), SessionID: "s-1"},
		{Timestamp: time.Now(), SessionID: "s-2"},
	}
	reader, err := NewReader(createTestLogFile(t, events))
	if err != nil {
		t.Fatalf("NewReader failed: %v", err)
	}
	defer reader.Close()

	var ids []string
	for event, err := range reader.All() {
		if err != nil {
			t.Fatalf("All yielded error: %v", err)
		}
		ids = append(ids, event.SessionID)
	}
	if len(ids) != 2 || ids[0] != "s-1" || ids[1] != "s-2" {
		t.Errorf("ids = %v", ids)
	}
}

func TestReaderReportsTruncatedTail(t *testing.T) {
	events := []Event{
		{Timestamp: time.Now(), SessionID: "s-1", Category: CategoryMessage},
		{Timestamp: time.Now(), SessionID: "s-2", Category: CategoryMessage},
	}
	path := createTestLogFile(t, events)
	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("Stat failed: %v", err)
	}
	if err := os.Truncate(path, info.Size()-3); err != nil {
		t.Fatalf("Truncate failed: %v", err)
	}

	reader, err := NewReader(path)
	if err != nil {
		t.Fatalf("NewReader failed: %v", err)
	}
	defer reader.Close()

	first, err := reader.Next()
	if err != nil {
		t.Fatalf("first record: %v", err)
	}
	if first.SessionID != "s-1" {
		t.Errorf("SessionID = %q, want s-1", first.SessionID)
	}
	if _, err := reader.Next(); !errors.Is(err, ErrTruncated) {
		t.Errorf("expected ErrTruncated, got %v", err)
	}
	if reader.Decoded() != 1 {
		t.Errorf("Decoded = %d, want 1", reader.Decoded())
	}
}

func TestReaderCountsSkippedRecords(t *testing.T) {
	events := []Event{
		{Timestamp: time.Now(), SessionID: "a"},
		{Timestamp: time.Now(), SessionID: "b"},
		{Timestamp: time.Now(), SessionID: "a"},
	}
	reader, err := NewFilteredReader(createTestLogFile(t, events), Filter{SessionID: "b"})
	if err != nil {
		t.Fatalf("NewFilteredReader failed: %v", err)
	}
	defer reader.Close()

	if got := len(readAll(t, reader)); got != 1 {
		t.Errorf("got %d events, want 1", got)
	}
	if reader.Decoded() != 3 {
		t.Errorf("Decoded = %d, want 3", reader.Decoded())
	}
}
