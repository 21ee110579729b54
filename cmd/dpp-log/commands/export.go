package commands

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/dpp-onboard/dpp-go/pkg/log"
)

// RunExport exports the log file to the specified format.
func RunExport(path, format, output string) error {
	if format != "jsonl" && format != "csv" {
		return fmt.Errorf("unknown format: %s (supported: jsonl, csv)", format)
	}

	reader, err := log.NewReader(path)
	if err != nil {
		return fmt.Errorf("failed to open log file: %w", err)
	}
	defer reader.Close()

	var w io.Writer = os.Stdout
	if output != "" {
		f, err := os.Create(output)
		if err != nil {
			return fmt.Errorf("failed to create output file: %w", err)
		}
		defer f.Close()
		w = f
	}

	if format == "csv" {
		return exportCSV(reader, w)
	}
	return exportJSONL(reader, w)
}

func exportJSONL(reader *log.Reader, w io.Writer) error {
	encoder := json.NewEncoder(w)
	for event, err := range reader.All() {
		if err != nil {
			return fmt.Errorf("failed to read event: %w", err)
		}
		if err := encoder.Encode(event); err != nil {
			return fmt.Errorf("failed to encode event: %w", err)
		}
	}
	return nil
}

var csvHeader = []string{"timestamp", "session_id", "direction", "layer", "category", "role", "peer_mac", "channel", "tx_id", "type", "status"}

func exportCSV(reader *log.Reader, w io.Writer) error {
	cw := csv.NewWriter(w)
	defer cw.Flush()

	if err := cw.Write(csvHeader); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}

	for event, err := range reader.All() {
		if err != nil {
			return fmt.Errorf("failed to read event: %w", err)
		}
		if err := cw.Write(csvRow(event)); err != nil {
			return fmt.Errorf("failed to write row: %w", err)
		}
	}
	return cw.Error()
}

func csvRow(event log.Event) []string {
	txID := ""
	if event.TransactionID != 0 {
		txID = strconv.FormatUint(uint64(event.TransactionID), 10)
	}

	eventType := "unknown"
	status := ""
	switch {
	case event.Frame != nil:
		eventType = "frame"
	case event.Message != nil:
		eventType = event.Message.Type.String()
		if event.Message.Status != nil {
			status = event.Message.Status.String()
		}
	case event.StateChange != nil:
		eventType = "state"
	case event.Retry != nil:
		eventType = "retry"
	case event.Error != nil:
		eventType = "error"
		if event.Error.Status != nil {
			status = event.Error.Status.String()
		}
	}

	return []string{
		event.Timestamp.UTC().Format(timestampLayout),
		event.SessionID,
		event.Direction.String(),
		event.Layer.String(),
		event.Category.String(),
		event.LocalRole.String(),
		event.PeerMAC,
		event.Channel,
		txID,
		eventType,
		status,
	}
}
