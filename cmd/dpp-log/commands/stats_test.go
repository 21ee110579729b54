package commands

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/dpp-onboard/dpp-go/pkg/frame"
	"github.com/dpp-onboard/dpp-go/pkg/log"
)

func TestStatsCounts(t *testing.T) {
	ts := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	events := []log.Event{
		{Timestamp: ts, Layer: log.LayerRadio, Category: log.CategoryMessage, Direction: log.DirectionOut},
		{Timestamp: ts, Layer: log.LayerFrame, Category: log.CategoryMessage, Direction: log.DirectionOut},
		{Timestamp: ts, Layer: log.LayerEngine, Category: log.CategoryRetry, Retry: &log.RetryEvent{Reason: log.RetryNoAck, Attempt: 1}},
		{Timestamp: ts, Layer: log.LayerEngine, Category: log.CategoryState},
		{Timestamp: ts, Layer: log.LayerEngine, Category: log.CategoryError, Error: &log.ErrorEventData{Message: "test"}},
	}

	path := createTestLogFile(t, events)

	var buf bytes.Buffer
	if err := RunStats(path, &buf); err != nil {
		t.Fatalf("RunStats failed: %v", err)
	}
	output := buf.String()

	for _, want := range []string{
		"=== DPP Protocol Log Statistics ===",
		"Total Events: 5",
		"RADIO:",
		"FRAME:",
		"ENGINE:",
		"RETRY:",
		"NO_ACK:",
		"OUT:",
		"Sessions: 0",
		"Errors: 1",
	} {
		if !strings.Contains(output, want) {
			t.Errorf("expected %q in output, got:\n%s", want, output)
		}
	}
}

func TestStatsPerSession(t *testing.T) {
	ts := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	events := []log.Event{
		{Timestamp: ts, SessionID: testSession, LocalRole: log.RoleConfigurator, PeerMAC: "02:00:00:00:00:01",
			Layer: log.LayerFrame, Category: log.CategoryMessage, Direction: log.DirectionOut,
			Message: &log.MessageEvent{Type: frame.TypeAuthRequest}},
		{Timestamp: ts.Add(100 * time.Millisecond), SessionID: testSession, LocalRole: log.RoleConfigurator,
			Layer: log.LayerEngine, Category: log.CategoryRetry, Retry: &log.RetryEvent{Reason: log.RetryNoResponse, Attempt: 1}},
		{Timestamp: ts.Add(200 * time.Millisecond), SessionID: testSession, LocalRole: log.RoleConfigurator, TransactionID: 9,
			Layer: log.LayerFrame, Category: log.CategoryMessage, Direction: log.DirectionIn,
			Message: &log.MessageEvent{Type: frame.TypeConfigRequest}},
		{Timestamp: ts.Add(300 * time.Millisecond), SessionID: testSession, LocalRole: log.RoleConfigurator,
			Layer: log.LayerEngine, Category: log.CategoryState,
			StateChange: &log.StateChangeEvent{Entity: log.StateEntitySession, OldState: "ConfigRequested", NewState: "Provisioned"}},
	}

	path := createTestLogFile(t, events)

	var buf bytes.Buffer
	if err := RunStats(path, &buf); err != nil {
		t.Fatalf("RunStats failed: %v", err)
	}
	output := buf.String()

	for _, want := range []string{
		"Sessions: 1",
		"[3f2a9c1e] CONFIGURATOR, 4 events, duration 300ms",
		"Peer: 02:00:00:00:00:01",
		"TxID: 9",
		"Frames: 1 in, 1 out",
		"Retries: 1",
		"Final state: Provisioned",
	} {
		if !strings.Contains(output, want) {
			t.Errorf("expected %q in output, got:\n%s", want, output)
		}
	}
}

func TestStatsTimeRange(t *testing.T) {
	start := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	events := []log.Event{
		{Timestamp: start.Add(2 * time.Second)},
		{Timestamp: start},
		{Timestamp: start.Add(5 * time.Second)},
	}

	path := createTestLogFile(t, events)

	var buf bytes.Buffer
	if err := RunStats(path, &buf); err != nil {
		t.Fatalf("RunStats failed: %v", err)
	}
	output := buf.String()

	if !strings.Contains(output, "2026-03-01T10:00:00Z to 2026-03-01T10:00:05Z") {
		t.Errorf("expected time range, got:\n%s", output)
	}
	if !strings.Contains(output, "Duration:   5s") {
		t.Errorf("expected duration, got:\n%s", output)
	}
}

func TestStatsEmptyFile(t *testing.T) {
	path := createTestLogFile(t, nil)

	var buf bytes.Buffer
	if err := RunStats(path, &buf); err != nil {
		t.Fatalf("RunStats failed: %v", err)
	}
	if !strings.Contains(buf.String(), "Total Events: 0") {
		t.Errorf("expected zero events, got:\n%s", buf.String())
	}
	if strings.Contains(buf.String(), "Time Range") {
		t.Error("expected no time range for empty file")
	}
}
