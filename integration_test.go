package dppgo_test

import (
	"context"
	"net"
	"path/filepath"
	"testing"
	"time"

	"github.com/dpp-onboard/dpp-go/pkg/bootstrap"
	"github.com/dpp-onboard/dpp-go/pkg/configobj"
	"github.com/dpp-onboard/dpp-go/pkg/discovery"
	"github.com/dpp-onboard/dpp-go/pkg/dpp"
	"github.com/dpp-onboard/dpp-go/pkg/frame"
	"github.com/dpp-onboard/dpp-go/pkg/log"
	"github.com/dpp-onboard/dpp-go/pkg/profile"
	"github.com/dpp-onboard/dpp-go/pkg/transport"
	"github.com/dpp-onboard/dpp-go/pkg/transport/udp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	enrolleeMAC     = net.HardwareAddr{0x02, 0, 0, 0, 0, 0x01}
	configuratorMAC = net.HardwareAddr{0x02, 0, 0, 0, 0, 0x02}
)

// udpPair opens two UDP radios on loopback that know each other.
func udpPair(t *testing.T) (*udp.Radio, *udp.Radio) {
	t.Helper()
	a, err := udp.Listen(udp.Config{ListenAddr: "127.0.0.1:0", MAC: enrolleeMAC})
	require.NoError(t, err)
	t.Cleanup(func() { a.Close() })

	b, err := udp.Listen(udp.Config{ListenAddr: "127.0.0.1:0", MAC: configuratorMAC, Peers: []string{a.Addr().String()}})
	require.NoError(t, err)
	t.Cleanup(func() { b.Close() })

	require.NoError(t, a.AddPeer(b.Addr().String()))
	return a, b
}

func fastRetry() transport.RetryConfig {
	return transport.RetryConfig{AckWait: 100 * time.Millisecond, ResponseWait: 300 * time.Millisecond, MaxAttempts: 5}
}

// waitEvent returns the first terminal event of the session, or fails.
func waitEvent(t *testing.T, events <-chan dpp.Event, timeout time.Duration) dpp.Event {
	t.Helper()
	deadline := time.After(timeout)
	for {
		select {
		case ev := <-events:
			if ev.Type != dpp.EventStateChanged {
				return ev
			}
		case <-deadline:
			t.Fatal("timed out waiting for onboarding outcome")
			return dpp.Event{}
		}
	}
}

// TestE2E_OnboardingOverUDP runs a full DPP exchange between two engines
// connected through loopback UDP radios using the real clock.
func TestE2E_OnboardingOverUDP(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	enrolleeRadio, configuratorRadio := udpPair(t)
	dir := t.TempDir()

	store := profile.NewFileStore(filepath.Join(dir, "profiles.cbor"))
	logPath := filepath.Join(dir, "enrollee.dlog")
	plog, err := log.NewFileLogger(logPath)
	require.NoError(t, err)

	enrolleeCfg := dpp.DefaultConfig()
	enrolleeCfg.Radio = enrolleeRadio
	enrolleeCfg.MAC = enrolleeMAC
	enrolleeCfg.Retry = fastRetry()
	enrolleeCfg.ExchangeTimeout = 2 * time.Second
	enrolleeCfg.Profiles = store
	enrolleeCfg.DeviceName = "sensor"
	enrolleeCfg.ProtocolLogger = plog
	enrollee, err := dpp.New(enrolleeCfg)
	require.NoError(t, err)
	enrolleeRadio.SetReceiver(enrollee)
	defer enrollee.Stop()

	configuratorCfg := dpp.DefaultConfig()
	configuratorCfg.Radio = configuratorRadio
	configuratorCfg.MAC = configuratorMAC
	configuratorCfg.Retry = fastRetry()
	configuratorCfg.ExchangeTimeout = 2 * time.Second
	configuratorCfg.Network = &dpp.Network{SSID: "office", AKM: configobj.AKMDPP, ConnectorLifetime: time.Hour}
	configurator, err := dpp.New(configuratorCfg)
	require.NoError(t, err)
	configuratorRadio.SetReceiver(configurator)
	defer configurator.Stop()

	enrolleeEvents := make(chan dpp.Event, 32)
	enrollee.OnEvent(func(ev dpp.Event) { enrolleeEvents <- ev })
	configuratorEvents := make(chan dpp.Event, 32)
	configurator.OnEvent(func(ev dpp.Event) { configuratorEvents <- ev })

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	_, err = enrollee.StartEnrollee(ctx, dpp.StartOptions{})
	require.NoError(t, err)

	s, err := configurator.StartConfiguratorInitiator(ctx, enrollee.URI(), dpp.StartOptions{})
	require.NoError(t, err)

	ev := waitEvent(t, enrolleeEvents, 5*time.Second)
	require.Equal(t, dpp.EventProvisioned, ev.Type, "enrollee outcome: %v", ev.Err)
	require.NotNil(t, ev.Profile)
	assert.Equal(t, "office", ev.Profile.SSID)
	assert.NotEmpty(t, ev.Profile.Connector)

	ev = waitEvent(t, configuratorEvents, 5*time.Second)
	assert.Equal(t, dpp.EventProvisioned, ev.Type)
	assert.Equal(t, s.Info().ID, ev.SessionID)
	assert.Equal(t, dpp.StateProvisioned, s.State())

	profiles, err := store.Load()
	require.NoError(t, err)
	require.Len(t, profiles, 1)
	assert.Equal(t, configobj.AKMDPP, profiles[0].AKM)
	assert.NotEmpty(t, profiles[0].NetAccessKey)

	// The capture holds the decoded exchange from the enrollee's side.
	enrollee.Stop()
	require.NoError(t, plog.Close())

	layer := log.LayerFrame
	reader, err := log.NewFilteredReader(logPath, log.Filter{Layer: &layer})
	require.NoError(t, err)
	defer reader.Close()

	var seen []frame.Type
	for event, err := range reader.All() {
		require.NoError(t, err)
		if event.Message != nil {
			seen = append(seen, event.Message.Type)
		}
	}
	assert.Contains(t, seen, frame.TypeAuthRequest)
	assert.Contains(t, seen, frame.TypeAuthResponse)
	assert.Contains(t, seen, frame.TypeConfigResponse)
}

// TestE2E_ResponderOnOtherChannel checks that an initiator without a
// reachable peer gives up after its retries.
func TestE2E_ResponderOnOtherChannel(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	enrolleeRadio, configuratorRadio := udpPair(t)

	enrolleeCfg := dpp.DefaultConfig()
	enrolleeCfg.Radio = enrolleeRadio
	enrolleeCfg.MAC = enrolleeMAC
	enrolleeCfg.Channels = []bootstrap.Channel{{OpClass: 81, Number: 11}}
	enrolleeCfg.Profiles = profile.NewMemoryStore()
	enrollee, err := dpp.New(enrolleeCfg)
	require.NoError(t, err)
	enrolleeRadio.SetReceiver(enrollee)
	defer enrollee.Stop()

	// The configurator scans only channel 1, where nobody listens.
	peer, err := bootstrap.Parse(enrollee.URI())
	require.NoError(t, err)
	peer.Channels = []bootstrap.Channel{{OpClass: 81, Number: 1}}
	uri, err := peer.URI()
	require.NoError(t, err)

	configuratorCfg := dpp.DefaultConfig()
	configuratorCfg.Radio = configuratorRadio
	configuratorCfg.MAC = configuratorMAC
	configuratorCfg.Retry = transport.RetryConfig{AckWait: 50 * time.Millisecond, ResponseWait: 50 * time.Millisecond, MaxAttempts: 2}
	configuratorCfg.Network = &dpp.Network{SSID: "office", AKM: configobj.AKMPSK, Passphrase: "secret123"}
	configurator, err := dpp.New(configuratorCfg)
	require.NoError(t, err)
	configuratorRadio.SetReceiver(configurator)
	defer configurator.Stop()

	events := make(chan dpp.Event, 32)
	configurator.OnEvent(func(ev dpp.Event) { events <- ev })

	_, err = enrollee.StartEnrollee(context.Background(), dpp.StartOptions{})
	require.NoError(t, err)
	_, err = configurator.StartConfiguratorInitiator(context.Background(), uri, dpp.StartOptions{})
	require.NoError(t, err)

	ev := waitEvent(t, events, 5*time.Second)
	assert.Equal(t, dpp.EventFailed, ev.Type)
}

// TestE2E_Discovery tests that a configurator can find an enrollee's
// bootstrap URI via mDNS.
func TestE2E_Discovery(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	info, err := bootstrap.Generate(bootstrap.GenerateOptions{MAC: enrolleeMAC, Information: "sensor"})
	require.NoError(t, err)
	uri, err := info.URI()
	require.NoError(t, err)

	advertiser, err := discovery.NewMDNSAdvertiser(discovery.AdvertiserConfig{})
	require.NoError(t, err)
	defer advertiser.Stop()

	require.NoError(t, advertiser.Advertise(ctx, &discovery.BootstrapInfo{
		URI:        uri,
		Role:       discovery.RoleEnrollee,
		DeviceName: "sensor",
	}))

	browser, err := discovery.NewMDNSBrowser(discovery.BrowserConfig{})
	require.NoError(t, err)
	defer browser.Stop()

	fp, err := discovery.Fingerprint(info)
	require.NoError(t, err)
	found, err := browser.FindByFingerprint(ctx, fp)
	if err != nil {
		t.Skipf("mDNS unavailable in this environment: %v", err)
	}
	assert.Equal(t, uri, found.URI)
	assert.Equal(t, discovery.RoleEnrollee, found.Role)
	assert.Equal(t, "sensor", found.DeviceName)
}
