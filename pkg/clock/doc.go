// Package clock provides the timer abstraction used by the DPP engine.
//
// All acknowledgement waits, response timeouts and retransmissions are
// scheduled through a Clock instead of blocking sleeps. Production code uses
// Real, which is backed by time.AfterFunc. Tests use Fake, which only fires
// timers when Advance is called, making loss and retry scenarios fully
// deterministic.
package clock
