// Package transport delivers DPP action frames over an 802.11 radio and
// recovers from frame loss.
//
// The radio itself is an external collaborator described by the Radio
// interface: it sends an opaque action frame on a channel and reports
// whether the link-layer acknowledgement arrived. Received frames are
// handed to a Receiver.
//
// A Retransmitter owns one outstanding frame at a time. It re-sends the
// frame when the acknowledgement is missing or, for frames that expect a
// reply, when no reply arrives in time. Once the attempts on a channel are
// used up it moves to the next candidate channel, and after the last one it
// reports ErrNoResponse.
//
// # Timing
//
//	attempt ──► no ack ──────── AckWait ──────► attempt
//	attempt ──► ack ─► no reply ─ ResponseWait ─► attempt
//	attempt ──► ack (no reply expected) ──────► done
//
// Both waits default to 2.5 s with 5 attempts per channel.
package transport
