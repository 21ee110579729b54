package main

import (
	"context"
	"errors"
	"net"
	"testing"
	"time"

	"github.com/dpp-onboard/dpp-go/internal/airsim"
	"github.com/dpp-onboard/dpp-go/pkg/bootstrap"
	"github.com/dpp-onboard/dpp-go/pkg/clock"
	"github.com/dpp-onboard/dpp-go/pkg/configobj"
	"github.com/dpp-onboard/dpp-go/pkg/discovery"
	"github.com/dpp-onboard/dpp-go/pkg/discovery/mocks"
	"github.com/dpp-onboard/dpp-go/pkg/dpp"
	"github.com/dpp-onboard/dpp-go/pkg/profile"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestResolvePeer(t *testing.T) {
	t.Run("explicit uri", func(t *testing.T) {
		uri, err := resolvePeer(context.Background(), nil, Request{PeerURI: "DPP:K:x;;", Discover: true})
		require.NoError(t, err)
		assert.Equal(t, "DPP:K:x;;", uri)
	})

	t.Run("discovery disabled", func(t *testing.T) {
		uri, err := resolvePeer(context.Background(), nil, Request{})
		require.NoError(t, err)
		assert.Empty(t, uri)
	})

	t.Run("browses for the opposite role", func(t *testing.T) {
		found := &discovery.BootstrapService{BootstrapInfo: discovery.BootstrapInfo{URI: "DPP:K:enrollee;;", Role: discovery.RoleEnrollee}}
		ch := make(chan *discovery.BootstrapService, 1)
		ch <- found
		close(ch)

		browser := mocks.NewMockBrowser(t)
		browser.EXPECT().Browse(mock.Anything, discovery.RoleEnrollee).Return((<-chan *discovery.BootstrapService)(ch), nil).Once()

		uri, err := resolvePeer(context.Background(), browser, Request{Role: dpp.RoleConfigurator, Discover: true})
		require.NoError(t, err)
		assert.Equal(t, found.URI, uri)
	})

	t.Run("browse error", func(t *testing.T) {
		browser := mocks.NewMockBrowser(t)
		browser.EXPECT().Browse(mock.Anything, discovery.RoleConfigurator).Return(nil, errors.New("no multicast")).Once()

		_, err := resolvePeer(context.Background(), browser, Request{Role: dpp.RoleEnrollee, Discover: true})
		assert.ErrorContains(t, err, "no multicast")
	})

	t.Run("no browser", func(t *testing.T) {
		_, err := resolvePeer(context.Background(), nil, Request{Discover: true})
		assert.Error(t, err)
	})
}

func TestStartOnboardsOverSimulatedAir(t *testing.T) {
	air := airsim.New()
	clk := clock.NewFake(time.Unix(0, 0))
	ch := bootstrap.DefaultChannel

	newEngine := func(mac net.HardwareAddr, configure func(*dpp.Config)) *dpp.Engine {
		st := air.AddStation(mac, ch)
		cfg := dpp.DefaultConfig()
		cfg.Radio = st
		cfg.Clock = clk
		cfg.MAC = mac
		configure(&cfg)
		e, err := dpp.New(cfg)
		require.NoError(t, err)
		st.SetReceiver(e)
		return e
	}

	store := profile.NewMemoryStore()
	enrollee := newEngine(net.HardwareAddr{2, 0, 0, 0, 0, 1}, func(c *dpp.Config) { c.Profiles = store })
	configurator := newEngine(net.HardwareAddr{2, 0, 0, 0, 0, 2}, func(c *dpp.Config) {
		c.Network = &dpp.Network{SSID: "ssidCCMP", AKM: configobj.AKMPSK, Passphrase: "secret123"}
	})

	events := make(chan dpp.Event, 16)
	enrollee.OnEvent(func(ev dpp.Event) { events <- ev })

	s, err := start(context.Background(), enrollee, Request{Role: dpp.RoleEnrollee})
	require.NoError(t, err)
	assert.Nil(t, s)

	s, err = start(context.Background(), configurator, Request{Role: dpp.RoleConfigurator, PeerURI: enrollee.URI()})
	require.NoError(t, err)
	require.NotNil(t, s)

	for i := 0; i < 50 && !s.State().Terminal(); i++ {
		air.Flush()
		clk.Advance(100 * time.Millisecond)
	}
	air.Flush()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	ev, err := waitOutcome(ctx, events)
	require.NoError(t, err)
	assert.Equal(t, dpp.EventProvisioned, ev.Type)

	p, ok := store.Get("ssidCCMP")
	require.True(t, ok)
	assert.Equal(t, "secret123", p.Passphrase)
}

func TestWaitOutcomeHonoursContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := waitOutcome(ctx, make(chan dpp.Event))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestAdvertiseUsesLocalRole(t *testing.T) {
	e, err := dpp.New(dpp.Config{Radio: airsim.New().AddStation(net.HardwareAddr{2, 0, 0, 0, 0, 1}, bootstrap.DefaultChannel)})
	require.NoError(t, err)

	adv := mocks.NewMockAdvertiser(t)
	adv.EXPECT().Advertise(mock.Anything, mock.MatchedBy(func(info *discovery.BootstrapInfo) bool {
		return info.URI == e.URI() && info.Role == discovery.RoleConfigurator && info.DeviceName == "hub"
	})).Return(nil).Once()

	pub := discovery.NewPublisher(adv, clock.NewFake(time.Unix(0, 0)))
	require.NoError(t, advertise(context.Background(), pub, e, dpp.RoleConfigurator, "hub", 0))
	assert.Equal(t, discovery.StateAdvertising, pub.State())
}
