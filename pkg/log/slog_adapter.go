package log

import (
	"context"
	"log/slog"
)

// SlogAdapter mirrors protocol events into an slog.Logger so captured
// frames appear next to the engine's own diagnostics. Error events are
// logged at Warn and everything else at Debug.
type SlogAdapter struct {
	logger *slog.Logger
}

// NewSlogAdapter creates a new SlogAdapter that writes to the given slog.Logger.
func NewSlogAdapter(logger *slog.Logger) *SlogAdapter {
	return &SlogAdapter{logger: logger}
}

// Log writes the event as a single "dpp" record.
func (a *SlogAdapter) Log(event Event) {
	level := slog.LevelDebug
	if event.Error != nil {
		level = slog.LevelWarn
	}
	ctx := context.Background()
	if !a.logger.Enabled(ctx, level) {
		return
	}
	attrs := append(sessionAttrs(event), payloadAttrs(event)...)
	a.logger.LogAttrs(ctx, level, "dpp", attrs...)
}

// sessionAttrs identifies the exchange an event belongs to.
func sessionAttrs(event Event) []slog.Attr {
	attrs := make([]slog.Attr, 0, 8)
	attrs = append(attrs,
		slog.String("session", event.SessionID),
		slog.String("direction", event.Direction.String()),
		slog.String("layer", event.Layer.String()),
		slog.String("category", event.Category.String()),
		slog.String("role", event.LocalRole.String()),
	)
	if event.PeerMAC != "" {
		attrs = append(attrs, slog.String("peer", event.PeerMAC))
	}
	if event.Channel != "" {
		attrs = append(attrs, slog.String("channel", event.Channel))
	}
	if event.TransactionID != 0 {
		attrs = append(attrs, slog.Uint64("tx_id", uint64(event.TransactionID)))
	}
	return attrs
}

func payloadAttrs(event Event) []slog.Attr {
	switch {
	case event.Frame != nil:
		return []slog.Attr{
			slog.Int("frame_size", event.Frame.Size),
			slog.Bool("truncated", event.Frame.Truncated),
		}
	case event.Message != nil:
		return messageAttrs(event.Message)
	case event.StateChange != nil:
		sc := event.StateChange
		attrs := []slog.Attr{
			slog.String("entity", sc.Entity.String()),
			slog.String("old_state", sc.OldState),
			slog.String("new_state", sc.NewState),
		}
		if sc.Reason != "" {
			attrs = append(attrs, slog.String("reason", sc.Reason))
		}
		return attrs
	case event.Retry != nil:
		attrs := []slog.Attr{
			slog.String("retry_reason", event.Retry.Reason.String()),
			slog.Int("attempt", event.Retry.Attempt),
		}
		if event.Retry.Channel != "" {
			attrs = append(attrs, slog.String("next_channel", event.Retry.Channel))
		}
		return attrs
	case event.Error != nil:
		return errorAttrs(event.Error)
	}
	return nil
}

func messageAttrs(m *MessageEvent) []slog.Attr {
	attrs := []slog.Attr{slog.String("frame_type", m.Type.String())}
	if m.Status != nil {
		attrs = append(attrs, slog.String("status", m.Status.String()))
	}
	if m.DialogToken != nil {
		attrs = append(attrs, slog.Int("dialog_token", int(*m.DialogToken)))
	}
	if len(m.Attributes) > 0 {
		attrs = append(attrs, slog.Int("attributes", len(m.Attributes)))
	}
	return attrs
}

func errorAttrs(e *ErrorEventData) []slog.Attr {
	attrs := []slog.Attr{
		slog.String("error_layer", e.Layer.String()),
		slog.String("error_msg", e.Message),
	}
	if e.Context != "" {
		attrs = append(attrs, slog.String("error_context", e.Context))
	}
	if e.Status != nil {
		attrs = append(attrs, slog.String("error_status", e.Status.String()))
	}
	return attrs
}

var _ Logger = (*SlogAdapter)(nil)
