// Package log provides structured protocol capture for DPP exchanges.
//
// This package defines the Logger interface and Event types for capturing
// protocol-level events at multiple layers (radio, frame, engine).
// It is separate from operational logging (slog) - protocol capture provides
// a complete machine-readable trace of an onboarding exchange.
//
// # Basic Usage
//
// Applications configure logging by providing a Logger implementation:
//
//	// For development: log to console via slog
//	cfg.ProtocolLogger = log.NewSlogAdapter(slog.Default())
//
//	// For production: write to binary file
//	cfg.ProtocolLogger, _ = log.NewFileLogger("/var/log/dpp/device.dlog")
//
//	// Both: use MultiLogger
//	cfg.ProtocolLogger = log.NewMultiLogger(
//	    log.NewSlogAdapter(slog.Default()),
//	    fileLogger,
//	)
//
// # Event Types
//
// Events are captured at multiple layers:
//   - Radio: Raw action frame bytes (FrameEvent)
//   - Frame: Decoded DPP frames (MessageEvent)
//   - Engine: Session state changes (StateChangeEvent)
//
// Retransmissions and errors have dedicated event types.
//
// # File Format
//
// Log files are a stream of CBOR items with the .dlog extension. The dpp-log
// CLI tool provides viewing and statistics.
package log
