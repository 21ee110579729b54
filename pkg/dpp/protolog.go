package dpp

import (
	"errors"

	"github.com/dpp-onboard/dpp-go/pkg/bootstrap"
	"github.com/dpp-onboard/dpp-go/pkg/frame"
	"github.com/dpp-onboard/dpp-go/pkg/log"
)

// logEvent fills the session fields of ev and hands it to the protocol
// logger.
func (s *Session) logEvent(ev log.Event) {
	ev.Timestamp = s.engine.clock.Now()
	ev.SessionID = s.id
	ev.LocalRole = s.role.logRole()
	ev.TransactionID = s.txID
	if s.peerMAC != nil {
		ev.PeerMAC = s.peerMAC.String()
	}
	if ev.Channel == "" && s.channel.Valid() {
		ev.Channel = s.channel.String()
	}
	s.engine.protocolLogger.Log(ev)
}

// logFrame records a frame at the radio and the frame layer.
func (s *Session) logFrame(dir log.Direction, ch bootstrap.Channel, f *frame.Frame, data []byte) {
	s.logEvent(log.Event{
		Direction: dir,
		Layer:     log.LayerRadio,
		Category:  log.CategoryMessage,
		Channel:   ch.String(),
		Frame:     log.NewFrameEvent(data),
	})
	s.logEvent(log.Event{
		Direction: dir,
		Layer:     log.LayerFrame,
		Category:  log.CategoryMessage,
		Channel:   ch.String(),
		Message:   log.NewMessageEvent(f),
	})
}

func (s *Session) logState(from, to State, reason string) {
	s.logEvent(log.Event{
		Layer:    log.LayerEngine,
		Category: log.CategoryState,
		StateChange: &log.StateChangeEvent{
			Entity:   log.StateEntitySession,
			OldState: from.String(),
			NewState: to.String(),
			Reason:   reason,
		},
	})
}

func (s *Session) logRetry(reason log.RetryReason, attempt int, ch bootstrap.Channel) {
	re := &log.RetryEvent{Reason: reason, Attempt: attempt}
	if reason == log.RetryChannelSwitch {
		re.Channel = ch.String()
	}
	s.logEvent(log.Event{
		Direction: log.DirectionOut,
		Layer:     log.LayerRadio,
		Category:  log.CategoryRetry,
		Retry:     re,
	})
}

func (s *Session) logError(err error) {
	data := &log.ErrorEventData{
		Layer:   log.LayerEngine,
		Message: err.Error(),
		Context: s.state.String(),
	}
	if st, ok := statusOf(err); ok {
		data.Status = &st
	}
	s.logEvent(log.Event{
		Layer:    log.LayerEngine,
		Category: log.CategoryError,
		Error:    data,
	})
}

// statusOf returns the DPP status that corresponds to a session error.
func statusOf(err error) (frame.Status, bool) {
	switch {
	case errors.Is(err, ErrCapabilityMismatch):
		return frame.StatusNotCompatible, true
	case errors.Is(err, ErrAuthFailed):
		return frame.StatusAuthFailure, true
	case errors.Is(err, ErrDecryptFailed):
		return frame.StatusUnwrapFailure, true
	case errors.Is(err, ErrInvalidConnector):
		return frame.StatusInvalidConnector, true
	case errors.Is(err, ErrProvisionFailed):
		return frame.StatusConfigureFailure, true
	case errors.Is(err, ErrConfigRejected), errors.Is(err, ErrMalformedObject), errors.Is(err, ErrUnsupportedCredential):
		return frame.StatusConfigRejected, true
	}
	return 0, false
}
