package dpp_test

import (
	"context"
	"net"
	"sync"
	"testing"
	"time"

	"github.com/dpp-onboard/dpp-go/internal/airsim"
	"github.com/dpp-onboard/dpp-go/pkg/bootstrap"
	"github.com/dpp-onboard/dpp-go/pkg/clock"
	"github.com/dpp-onboard/dpp-go/pkg/configobj"
	"github.com/dpp-onboard/dpp-go/pkg/dpp"
	"github.com/dpp-onboard/dpp-go/pkg/frame"
	"github.com/dpp-onboard/dpp-go/pkg/log"
	"github.com/dpp-onboard/dpp-go/pkg/profile"
	"github.com/stretchr/testify/require"
)

var (
	enrolleeMAC     = net.HardwareAddr{0x02, 0x00, 0x00, 0x00, 0x00, 0x01}
	enrollee2MAC    = net.HardwareAddr{0x02, 0x00, 0x00, 0x00, 0x00, 0x03}
	configuratorMAC = net.HardwareAddr{0x02, 0x00, 0x00, 0x00, 0x00, 0x02}

	ch6  = bootstrap.Channel{OpClass: 81, Number: 6}
	ch11 = bootstrap.Channel{OpClass: 81, Number: 11}
)

// testNet is a simulated medium with a shared fake clock.
type testNet struct {
	t   *testing.T
	air *airsim.Air
	clk *clock.Fake
}

func newTestNet(t *testing.T) *testNet {
	t.Helper()
	return &testNet{
		t:   t,
		air: airsim.New(),
		clk: clock.NewFake(time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)),
	}
}

// node is one device on the medium.
type node struct {
	engine   *dpp.Engine
	station  *airsim.Station
	profiles *profile.MemoryStore
	events   *eventRecorder
	plog     *captureLogger
}

func (n *testNet) addNode(mac net.HardwareAddr, ch bootstrap.Channel, configure func(*dpp.Config)) *node {
	n.t.Helper()
	st := n.air.AddStation(mac, ch)
	store := profile.NewMemoryStore()
	plog := &captureLogger{}

	cfg := dpp.DefaultConfig()
	cfg.Radio = st
	cfg.Clock = n.clk
	cfg.MAC = mac
	cfg.Channels = []bootstrap.Channel{ch}
	cfg.Profiles = store
	cfg.ProtocolLogger = plog
	if configure != nil {
		configure(&cfg)
	}

	e, err := dpp.New(cfg)
	require.NoError(n.t, err)
	st.SetReceiver(e)

	rec := &eventRecorder{}
	e.OnEvent(rec.handle)
	return &node{engine: e, station: st, profiles: store, events: rec, plog: plog}
}

func (n *testNet) addConfigurator(network *dpp.Network, configure func(*dpp.Config)) *node {
	return n.addNode(configuratorMAC, ch6, func(c *dpp.Config) {
		c.Network = network
		if configure != nil {
			configure(c)
		}
	})
}

func (n *testNet) addEnrollee(configure func(*dpp.Config)) *node {
	return n.addNode(enrolleeMAC, ch6, configure)
}

// run delivers queued frames and advances time in small steps for d.
func (n *testNet) run(d time.Duration) {
	const step = 100 * time.Millisecond
	n.air.Flush()
	for elapsed := time.Duration(0); elapsed < d; elapsed += step {
		n.clk.Advance(step)
		n.air.Flush()
	}
}

// sentTypes decodes every frame put on the air that was not dropped.
func (n *testNet) sentTypes() []frame.Type {
	var types []frame.Type
	for _, tx := range n.air.History() {
		if tx.Dropped {
			continue
		}
		f, err := frame.Unmarshal(tx.Data)
		require.NoError(n.t, err)
		types = append(types, f.Type)
	}
	return types
}

func pskNetwork() *dpp.Network {
	return &dpp.Network{SSID: "ssidCCMP", AKM: configobj.AKMPSK, Passphrase: "secret123"}
}

// onlySession returns the single session of the node.
func onlySession(t *testing.T, n *node) *dpp.Session {
	t.Helper()
	sessions := n.engine.Sessions()
	require.Len(t, sessions, 1)
	return sessions[0]
}

// eventRecorder collects engine events.
type eventRecorder struct {
	mu     sync.Mutex
	events []dpp.Event
}

func (r *eventRecorder) handle(ev dpp.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
}

// terminal returns the terminal events of a session.
func (r *eventRecorder) terminal(sessionID string) []dpp.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []dpp.Event
	for _, ev := range r.events {
		if ev.SessionID == sessionID && ev.Type != dpp.EventStateChanged {
			out = append(out, ev)
		}
	}
	return out
}

// waitTerminal waits for the terminal event of a session and checks that
// it is the only one.
func (r *eventRecorder) waitTerminal(t *testing.T, sessionID string) dpp.Event {
	t.Helper()
	require.Eventually(t, func() bool {
		return len(r.terminal(sessionID)) > 0
	}, time.Second, 5*time.Millisecond)
	require.Never(t, func() bool {
		return len(r.terminal(sessionID)) > 1
	}, 50*time.Millisecond, 5*time.Millisecond)
	return r.terminal(sessionID)[0]
}

// captureLogger records protocol events.
type captureLogger struct {
	mu     sync.Mutex
	events []log.Event
}

func (l *captureLogger) Log(ev log.Event) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.events = append(l.events, ev)
}

func (l *captureLogger) retries(reason log.RetryReason) []log.RetryEvent {
	l.mu.Lock()
	defer l.mu.Unlock()
	var out []log.RetryEvent
	for _, ev := range l.events {
		if ev.Retry != nil && ev.Retry.Reason == reason {
			out = append(out, *ev.Retry)
		}
	}
	return out
}

func (l *captureLogger) states(sessionID string) []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	var out []string
	for _, ev := range l.events {
		if ev.SessionID == sessionID && ev.StateChange != nil {
			out = append(out, ev.StateChange.NewState)
		}
	}
	return out
}

// stallingRadio holds every send until its context ends.
type stallingRadio struct {
	sending chan struct{}
}

func newStallingRadio() *stallingRadio {
	return &stallingRadio{sending: make(chan struct{}, 1)}
}

func (r *stallingRadio) SendActionFrame(ctx context.Context, _ bootstrap.Channel, _ net.HardwareAddr, _ []byte) error {
	select {
	case r.sending <- struct{}{}:
	default:
	}
	<-ctx.Done()
	return ctx.Err()
}

func (r *stallingRadio) SwitchChannel(context.Context, bootstrap.Channel) error {
	return nil
}
