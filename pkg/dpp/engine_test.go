package dpp_test

import (
	"context"
	"crypto/ecdsa"
	"crypto/x509"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/dpp-onboard/dpp-go/internal/airsim"
	"github.com/dpp-onboard/dpp-go/pkg/bootstrap"
	"github.com/dpp-onboard/dpp-go/pkg/configobj"
	"github.com/dpp-onboard/dpp-go/pkg/dpp"
	"github.com/dpp-onboard/dpp-go/pkg/dpp/mocks"
	"github.com/dpp-onboard/dpp-go/pkg/frame"
	"github.com/dpp-onboard/dpp-go/pkg/log"
	"github.com/go-jose/go-jose/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestConfiguratorInitiatorProvisionsEnrollee(t *testing.T) {
	net := newTestNet(t)
	enrollee := net.addEnrollee(nil)
	configurator := net.addConfigurator(pskNetwork(), nil)

	ctx := context.Background()
	uri, err := enrollee.engine.StartEnrollee(ctx, dpp.StartOptions{})
	require.NoError(t, err)
	assert.Equal(t, enrollee.engine.URI(), uri)

	cs, err := configurator.engine.StartConfiguratorInitiator(ctx, uri, dpp.StartOptions{})
	require.NoError(t, err)
	net.run(0)

	es := onlySession(t, enrollee)
	assert.Equal(t, dpp.StateProvisioned, cs.State())
	assert.Equal(t, dpp.StateProvisioned, es.State())
	assert.NoError(t, cs.Err())
	assert.NoError(t, es.Err())

	p, ok := enrollee.profiles.Get("ssidCCMP")
	require.True(t, ok)
	assert.Equal(t, configobj.AKMPSK, p.AKM)
	assert.Equal(t, "secret123", p.Passphrase)
	assert.Equal(t, configuratorMAC.String(), p.ConfiguratorMAC)
	assert.Equal(t, uint8(2), p.ProtocolVersion)
	assert.Equal(t, net.clk.Now(), p.ProvisionedAt)

	got, ok := es.Profile()
	require.True(t, ok)
	assert.Equal(t, p, got)

	assert.True(t, cs.Wiped(), "configurator keys must be wiped")
	assert.True(t, es.Wiped(), "enrollee keys must be wiped")
	assert.Equal(t, cs.Info().TransactionID, es.Info().TransactionID)

	assert.Equal(t, []frame.Type{
		frame.TypeAuthRequest,
		frame.TypeAuthResponse,
		frame.TypeAuthConfirm,
		frame.TypeConfigRequest,
		frame.TypeConfigResponse,
		frame.TypeConfigResult,
	}, net.sentTypes())

	ev := enrollee.events.waitTerminal(t, es.ID())
	assert.Equal(t, dpp.EventProvisioned, ev.Type)
	require.NotNil(t, ev.Profile)
	assert.Equal(t, "ssidCCMP", ev.Profile.SSID)
	assert.Equal(t, dpp.EventProvisioned, configurator.events.waitTerminal(t, cs.ID()).Type)

	assert.Equal(t, []string{
		"BootstrapAdvertised", "AuthRequested", "AuthResponded", "AuthConfirmed", "ConfigRequested", "Provisioned",
	}, configurator.plog.states(cs.ID()))
}

func TestEnrolleeInitiatorProvisioned(t *testing.T) {
	net := newTestNet(t)
	enrollee := net.addEnrollee(nil)
	configurator := net.addConfigurator(pskNetwork(), nil)

	ctx := context.Background()
	uri, err := configurator.engine.StartConfigurator(ctx, dpp.StartOptions{})
	require.NoError(t, err)

	es, err := enrollee.engine.StartEnrolleeInitiator(ctx, uri, dpp.StartOptions{})
	require.NoError(t, err)
	net.run(0)

	cs := onlySession(t, configurator)
	assert.Equal(t, dpp.RoleConfigurator, cs.Role())
	assert.False(t, cs.Initiator())
	assert.Equal(t, dpp.RoleEnrollee, es.Role())
	assert.True(t, es.Initiator())

	assert.Equal(t, dpp.StateProvisioned, es.State())
	assert.Equal(t, dpp.StateProvisioned, cs.State())
	_, ok := enrollee.profiles.Get("ssidCCMP")
	assert.True(t, ok)

	listeningEnrollee, listeningConfigurator := configurator.engine.Listening()
	assert.False(t, listeningEnrollee)
	assert.True(t, listeningConfigurator, "configurator keeps listening for more enrollees")
}

func TestVersionNegotiation(t *testing.T) {
	tests := []struct {
		name         string
		enrollee     uint8
		configurator uint8
		wantResult   bool
	}{
		{name: "both v2", enrollee: 2, configurator: 2, wantResult: true},
		{name: "v1 configurator", enrollee: 2, configurator: 1},
		{name: "v1 enrollee", enrollee: 1, configurator: 2},
		{name: "both v1", enrollee: 1, configurator: 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			net := newTestNet(t)
			enrollee := net.addEnrollee(func(c *dpp.Config) { c.Version = tt.enrollee })
			configurator := net.addConfigurator(pskNetwork(), func(c *dpp.Config) { c.Version = tt.configurator })

			ctx := context.Background()
			uri, err := enrollee.engine.StartEnrollee(ctx, dpp.StartOptions{})
			require.NoError(t, err)
			cs, err := configurator.engine.StartConfiguratorInitiator(ctx, uri, dpp.StartOptions{})
			require.NoError(t, err)
			net.run(0)

			assert.Equal(t, dpp.StateProvisioned, cs.State())
			assert.Equal(t, dpp.StateProvisioned, onlySession(t, enrollee).State())
			assert.Equal(t, tt.wantResult, containsType(net.sentTypes(), frame.TypeConfigResult))

			p, ok := enrollee.profiles.Get("ssidCCMP")
			require.True(t, ok)
			assert.Equal(t, min(tt.enrollee, tt.configurator), p.ProtocolVersion)
		})
	}
}

func TestExplicitFrequencyFallsBackToAdvertisedChannel(t *testing.T) {
	net := newTestNet(t)
	enrollee := net.addEnrollee(nil)
	configurator := net.addConfigurator(pskNetwork(), nil)

	ctx := context.Background()
	uri, err := enrollee.engine.StartEnrollee(ctx, dpp.StartOptions{})
	require.NoError(t, err)

	cs, err := configurator.engine.StartConfiguratorInitiator(ctx, uri, dpp.StartOptions{Frequency: 2462})
	require.NoError(t, err)
	assert.Equal(t, ch11, cs.Info().Channel)

	net.run(20 * time.Second)

	assert.Equal(t, dpp.StateProvisioned, cs.State())
	assert.Equal(t, dpp.StateProvisioned, onlySession(t, enrollee).State())
	assert.Equal(t, ch6, cs.Info().Channel)

	assert.Equal(t, []bootstrap.Channel{ch11, ch6}, configurator.station.Switches())

	moved := configurator.plog.retries(log.RetryChannelSwitch)
	require.Len(t, moved, 1)
	assert.Equal(t, ch6.String(), moved[0].Channel)

	// Every attempt on channel 11 went unanswered before the switch.
	retry := dpp.DefaultConfig().Retry
	assert.GreaterOrEqual(t, cs.Attempts(), retry.MaxAttempts+1)
}

func TestSingleDroppedFrameIsRetransmitted(t *testing.T) {
	tests := []struct {
		name   string
		prefix []byte
	}{
		{name: "auth request", prefix: frame.Header(frame.TypeAuthRequest)},
		{name: "auth response", prefix: []byte{0x04, 0x09, 0x50, 0x6f, 0x9a, 0x1a, 0x01, 0x01}},
		{name: "auth confirm", prefix: frame.Header(frame.TypeAuthConfirm)},
		{name: "config request", prefix: frame.Header(frame.TypeConfigRequest)},
		{name: "config response", prefix: frame.Header(frame.TypeConfigResponse)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			net := newTestNet(t)
			rule := net.air.AddDropRule(airsim.DropRule{Prefix: tt.prefix, Times: 1})
			enrollee := net.addEnrollee(nil)
			configurator := net.addConfigurator(pskNetwork(), nil)

			ctx := context.Background()
			uri, err := enrollee.engine.StartEnrollee(ctx, dpp.StartOptions{})
			require.NoError(t, err)
			cs, err := configurator.engine.StartConfiguratorInitiator(ctx, uri, dpp.StartOptions{})
			require.NoError(t, err)

			net.run(10 * time.Second)

			assert.Equal(t, 1, rule.Matched())
			assert.Equal(t, dpp.StateProvisioned, cs.State())
			assert.Equal(t, dpp.StateProvisioned, onlySession(t, enrollee).State())
			assert.Len(t, enrollee.profiles.Profiles(), 1)
		})
	}
}

func TestLostFramesFailWithNoResponse(t *testing.T) {
	net := newTestNet(t)
	// Drop every DPP public action frame.
	net.air.AddDropRule(airsim.DropRule{Prefix: []byte{0x04, 0x09}, Times: -1})
	enrollee := net.addEnrollee(nil)
	configurator := net.addConfigurator(pskNetwork(), nil)

	ctx := context.Background()
	uri, err := enrollee.engine.StartEnrollee(ctx, dpp.StartOptions{})
	require.NoError(t, err)
	cs, err := configurator.engine.StartConfiguratorInitiator(ctx, uri, dpp.StartOptions{})
	require.NoError(t, err)

	net.run(30 * time.Second)

	retry := dpp.DefaultConfig().Retry
	assert.Equal(t, dpp.StateFailed, cs.State())
	assert.ErrorIs(t, cs.Err(), dpp.ErrNoResponse)
	assert.Equal(t, retry.MaxAttempts, cs.Attempts())
	assert.True(t, cs.Wiped())
	assert.Equal(t, 0, net.clk.Pending())

	assert.Equal(t, dpp.StateBootstrapAdvertised, onlySession(t, enrollee).State())
	assert.Empty(t, enrollee.profiles.Profiles())

	ev := configurator.events.waitTerminal(t, cs.ID())
	assert.Equal(t, dpp.EventFailed, ev.Type)
	assert.ErrorIs(t, ev.Err, dpp.ErrNoResponse)
	assert.Nil(t, ev.Profile)
	assert.Len(t, configurator.plog.retries(log.RetryExhausted), 1)
}

func TestDuplicateAuthResponseIsIgnored(t *testing.T) {
	net := newTestNet(t)
	net.air.AddDropRule(airsim.DropRule{Prefix: frame.Header(frame.TypeAuthConfirm), Times: -1})
	enrollee := net.addEnrollee(nil)
	configurator := net.addConfigurator(pskNetwork(), nil)

	ctx := context.Background()
	uri, err := enrollee.engine.StartEnrollee(ctx, dpp.StartOptions{})
	require.NoError(t, err)
	cs, err := configurator.engine.StartConfiguratorInitiator(ctx, uri, dpp.StartOptions{})
	require.NoError(t, err)
	net.run(0)
	require.Equal(t, dpp.StateAuthResponded, cs.State())

	var response []byte
	for _, tx := range net.air.History() {
		if f, err := frame.Unmarshal(tx.Data); err == nil && f.Type == frame.TypeAuthResponse {
			response = tx.Data
		}
	}
	require.NotNil(t, response)

	sent := len(net.air.History())
	attempts := cs.Attempts()
	for range 3 {
		configurator.engine.HandleFrame(enrolleeMAC, ch6, response)
	}
	net.air.Flush()

	assert.Equal(t, dpp.StateAuthResponded, cs.State())
	assert.Equal(t, attempts, cs.Attempts())
	assert.Len(t, net.air.History(), sent, "a duplicate must not trigger a new confirm")
}

func TestEarlyConfigRequestIsDropped(t *testing.T) {
	net := newTestNet(t)
	net.air.AddDropRule(airsim.DropRule{Prefix: frame.Header(frame.TypeAuthConfirm), Times: -1})
	enrollee := net.addEnrollee(nil)
	configurator := net.addConfigurator(pskNetwork(), nil)

	ctx := context.Background()
	uri, err := configurator.engine.StartConfigurator(ctx, dpp.StartOptions{})
	require.NoError(t, err)
	es, err := enrollee.engine.StartEnrolleeInitiator(ctx, uri, dpp.StartOptions{})
	require.NoError(t, err)
	net.run(0)

	cs := onlySession(t, configurator)
	require.Equal(t, dpp.StateAuthResponded, cs.State())

	forged := frame.New(frame.TypeConfigRequest, es.Info().TransactionID)
	forged.DialogToken = 7
	forged.Attributes.Add(frame.AttrWrappedData, make([]byte, 48))
	data, err := forged.Marshal()
	require.NoError(t, err)

	configurator.engine.HandleFrame(enrolleeMAC, ch6, data)
	net.air.Flush()

	assert.Equal(t, dpp.StateAuthResponded, cs.State())
	assert.NoError(t, cs.Err())
	assert.False(t, containsType(net.sentTypes(), frame.TypeConfigResponse))
}

func TestStopAbortsAndWipes(t *testing.T) {
	net := newTestNet(t)
	configurator := net.addConfigurator(pskNetwork(), nil)

	// No enrollee on the air: the request is retransmitted until stopped.
	peer, err := bootstrap.Generate(bootstrap.GenerateOptions{Channels: []bootstrap.Channel{ch6}})
	require.NoError(t, err)
	uri, err := peer.URI()
	require.NoError(t, err)

	ctx := context.Background()
	cs, err := configurator.engine.StartConfiguratorInitiator(ctx, uri, dpp.StartOptions{})
	require.NoError(t, err)
	net.run(time.Second)
	require.Equal(t, dpp.StateAuthRequested, cs.State())
	require.False(t, cs.Wiped())

	configurator.engine.Stop()

	assert.Equal(t, dpp.StateAborted, cs.State())
	assert.ErrorIs(t, cs.Err(), dpp.ErrAborted)
	assert.True(t, cs.Wiped())
	assert.Equal(t, 0, net.clk.Pending(), "stop must cancel all timers")
	select {
	case <-cs.Done():
	default:
		t.Fatal("Done not closed")
	}

	attempts := cs.Attempts()
	net.run(30 * time.Second)
	assert.Equal(t, attempts, cs.Attempts())

	ev := configurator.events.waitTerminal(t, cs.ID())
	assert.Equal(t, dpp.EventAborted, ev.Type)
	assert.Equal(t, dpp.StateAuthRequested, ev.OldState)
}

func TestStopAbortsListeningEnrollee(t *testing.T) {
	net := newTestNet(t)
	enrollee := net.addEnrollee(nil)

	_, err := enrollee.engine.StartEnrollee(context.Background(), dpp.StartOptions{})
	require.NoError(t, err)
	es := onlySession(t, enrollee)

	enrollee.engine.Stop()
	assert.Equal(t, dpp.StateAborted, es.State())
	listening, _ := enrollee.engine.Listening()
	assert.False(t, listening)

	// A new exchange may start after stop.
	_, err = enrollee.engine.StartEnrollee(context.Background(), dpp.StartOptions{})
	assert.NoError(t, err)
}

func TestConfiguratorServesMultipleEnrollees(t *testing.T) {
	net := newTestNet(t)
	configurator := net.addConfigurator(pskNetwork(), nil)
	first := net.addNode(enrolleeMAC, ch6, nil)
	second := net.addNode(enrollee2MAC, ch6, nil)

	ctx := context.Background()
	uri, err := configurator.engine.StartConfigurator(ctx, dpp.StartOptions{})
	require.NoError(t, err)

	s1, err := first.engine.StartEnrolleeInitiator(ctx, uri, dpp.StartOptions{})
	require.NoError(t, err)
	s2, err := second.engine.StartEnrolleeInitiator(ctx, uri, dpp.StartOptions{})
	require.NoError(t, err)
	net.run(0)

	assert.Equal(t, dpp.StateProvisioned, s1.State())
	assert.Equal(t, dpp.StateProvisioned, s2.State())
	assert.Len(t, first.profiles.Profiles(), 1)
	assert.Len(t, second.profiles.Profiles(), 1)

	sessions := configurator.engine.Sessions()
	require.Len(t, sessions, 2)
	assert.NotEqual(t, sessions[0].Info().TransactionID, sessions[1].Info().TransactionID)
	for _, s := range sessions {
		assert.Equal(t, dpp.StateProvisioned, s.State())
	}
}

func TestFailedPeerDoesNotAffectOtherSession(t *testing.T) {
	net := newTestNet(t)
	configurator := net.addConfigurator(pskNetwork(), nil)
	good := net.addNode(enrolleeMAC, ch6, nil)
	gone := net.addNode(enrollee2MAC, ch6, nil)

	ctx := context.Background()
	uri, err := configurator.engine.StartConfigurator(ctx, dpp.StartOptions{})
	require.NoError(t, err)

	// The first enrollee disappears before confirming.
	rule := net.air.AddDropRule(airsim.DropRule{Prefix: frame.Header(frame.TypeAuthConfirm), Times: 1})
	sg1, err := gone.engine.StartEnrolleeInitiator(ctx, uri, dpp.StartOptions{})
	require.NoError(t, err)
	net.run(0)
	require.Equal(t, 1, rule.Matched())
	gone.engine.Stop()

	sg, err := good.engine.StartEnrolleeInitiator(ctx, uri, dpp.StartOptions{})
	require.NoError(t, err)
	net.run(30 * time.Second)

	assert.Equal(t, dpp.StateProvisioned, sg.State())
	assert.Equal(t, dpp.StateAborted, sg1.State())

	var abandoned *dpp.Session
	for _, s := range configurator.engine.Sessions() {
		if s.Info().TransactionID == sg1.Info().TransactionID {
			abandoned = s
		}
	}
	require.NotNil(t, abandoned)
	assert.Equal(t, dpp.StateFailed, abandoned.State())
	assert.ErrorIs(t, abandoned.Err(), dpp.ErrNoResponse)
}

func TestConnectorCredential(t *testing.T) {
	net := newTestNet(t)
	enrollee := net.addEnrollee(nil)
	configurator := net.addConfigurator(&dpp.Network{
		SSID:              "dpp-net",
		AKM:               configobj.AKMDPP,
		GroupID:           "home",
		ConnectorLifetime: 24 * time.Hour,
	}, nil)

	ctx := context.Background()
	uri, err := enrollee.engine.StartEnrollee(ctx, dpp.StartOptions{})
	require.NoError(t, err)
	cs, err := configurator.engine.StartConfiguratorInitiator(ctx, uri, dpp.StartOptions{})
	require.NoError(t, err)
	net.run(0)
	require.Equal(t, dpp.StateProvisioned, cs.State())

	p, ok := enrollee.profiles.Get("dpp-net")
	require.True(t, ok)
	assert.Equal(t, configobj.AKMDPP, p.AKM)
	require.NotEmpty(t, p.Connector)
	require.NotEmpty(t, p.NetAccessKey)

	var csign jose.JSONWebKey
	require.NoError(t, json.Unmarshal(p.CSign, &csign))
	claims, err := configobj.VerifyConnector(p.Connector, &csign, net.clk.Now())
	require.NoError(t, err)
	require.Len(t, claims.Groups, 1)
	assert.Equal(t, "home", claims.Groups[0].GroupID)
	assert.Equal(t, configobj.NetRoleSTA, claims.Groups[0].NetRole)

	key, err := x509.ParsePKCS8PrivateKey(p.NetAccessKey)
	require.NoError(t, err)
	priv, ok := key.(*ecdsa.PrivateKey)
	require.True(t, ok)
	assert.True(t, priv.PublicKey.Equal(claims.NetAccessKey.Key))

	_, err = configobj.VerifyConnector(p.Connector, &csign, net.clk.Now().Add(48*time.Hour))
	assert.ErrorIs(t, err, configobj.ErrInvalidConnector, "connector expires")
}

func TestProfileSinkFailureFailsBothSides(t *testing.T) {
	net := newTestNet(t)
	sink := mocks.NewMockProfileSink(t)
	sink.EXPECT().ProvisionProfile(mock.Anything, mock.Anything).Return(errors.New("disk full")).Once()

	enrollee := net.addEnrollee(func(c *dpp.Config) { c.Profiles = sink })
	configurator := net.addConfigurator(pskNetwork(), nil)

	ctx := context.Background()
	uri, err := enrollee.engine.StartEnrollee(ctx, dpp.StartOptions{})
	require.NoError(t, err)
	cs, err := configurator.engine.StartConfiguratorInitiator(ctx, uri, dpp.StartOptions{})
	require.NoError(t, err)
	net.run(0)

	es := onlySession(t, enrollee)
	assert.Equal(t, dpp.StateFailed, es.State())
	assert.ErrorIs(t, es.Err(), dpp.ErrProvisionFailed)
	_, ok := es.Profile()
	assert.False(t, ok)

	assert.Equal(t, dpp.StateFailed, cs.State())
	assert.ErrorIs(t, cs.Err(), dpp.ErrConfigRejected)
	assert.Contains(t, cs.Err().Error(), frame.StatusConfigureFailure.String())
}

func TestCapabilityMismatch(t *testing.T) {
	net := newTestNet(t)
	responder := net.addNode(enrolleeMAC, ch6, nil)
	initiator := net.addNode(enrollee2MAC, ch6, nil)

	ctx := context.Background()
	uri, err := responder.engine.StartEnrollee(ctx, dpp.StartOptions{})
	require.NoError(t, err)
	is, err := initiator.engine.StartEnrolleeInitiator(ctx, uri, dpp.StartOptions{})
	require.NoError(t, err)
	net.run(0)

	rs := onlySession(t, responder)
	assert.Equal(t, dpp.StateFailed, rs.State())
	assert.ErrorIs(t, rs.Err(), dpp.ErrCapabilityMismatch)
	assert.Equal(t, dpp.StateFailed, is.State())
	assert.ErrorIs(t, is.Err(), dpp.ErrCapabilityMismatch)
}

func TestConfigResultTimeout(t *testing.T) {
	net := newTestNet(t)
	net.air.AddDropRule(airsim.DropRule{Prefix: frame.Header(frame.TypeConfigResult), Times: -1})
	enrollee := net.addEnrollee(nil)
	configurator := net.addConfigurator(pskNetwork(), nil)

	ctx := context.Background()
	uri, err := enrollee.engine.StartEnrollee(ctx, dpp.StartOptions{})
	require.NoError(t, err)
	cs, err := configurator.engine.StartConfiguratorInitiator(ctx, uri, dpp.StartOptions{})
	require.NoError(t, err)

	net.run(dpp.DefaultExchangeTimeout - time.Second)
	assert.Equal(t, dpp.StateConfigRequested, cs.State())

	net.run(2 * time.Second)
	assert.Equal(t, dpp.StateFailed, cs.State())
	assert.ErrorIs(t, cs.Err(), dpp.ErrNoResponse)
	assert.Equal(t, dpp.StateProvisioned, onlySession(t, enrollee).State())
}

func TestMutualAuthentication(t *testing.T) {
	net := newTestNet(t)
	enrollee := net.addEnrollee(nil)
	configurator := net.addConfigurator(pskNetwork(), nil)

	ctx := context.Background()
	uri, err := enrollee.engine.StartEnrollee(ctx, dpp.StartOptions{PeerURI: configurator.engine.URI()})
	require.NoError(t, err)
	cs, err := configurator.engine.StartConfiguratorInitiator(ctx, uri, dpp.StartOptions{})
	require.NoError(t, err)
	net.run(0)

	assert.Equal(t, dpp.StateProvisioned, cs.State())
	assert.Equal(t, dpp.StateProvisioned, onlySession(t, enrollee).State())
}

func TestStartErrors(t *testing.T) {
	net := newTestNet(t)
	enrollee := net.addEnrollee(nil)
	ctx := context.Background()

	_, err := enrollee.engine.StartConfigurator(ctx, dpp.StartOptions{})
	assert.ErrorIs(t, err, dpp.ErrNoNetwork)

	_, err = enrollee.engine.StartConfiguratorInitiator(ctx, enrollee.engine.URI(), dpp.StartOptions{})
	assert.ErrorIs(t, err, dpp.ErrNoNetwork)

	_, err = enrollee.engine.StartEnrolleeInitiator(ctx, "DPP:garbage;;", dpp.StartOptions{})
	assert.ErrorIs(t, err, dpp.ErrMalformedURI)

	_, err = enrollee.engine.StartEnrollee(ctx, dpp.StartOptions{})
	require.NoError(t, err)
	_, err = enrollee.engine.StartEnrollee(ctx, dpp.StartOptions{})
	assert.ErrorIs(t, err, dpp.ErrBusy)
	_, err = enrollee.engine.StartEnrolleeInitiator(ctx, enrollee.engine.URI(), dpp.StartOptions{})
	assert.ErrorIs(t, err, dpp.ErrBusy)

	noSink := net.addNode(enrollee2MAC, ch6, func(c *dpp.Config) { c.Profiles = nil })
	_, err = noSink.engine.StartEnrollee(ctx, dpp.StartOptions{})
	assert.ErrorIs(t, err, dpp.ErrInvalidConfig)
}

func TestFinishedSessionsArePruned(t *testing.T) {
	net := newTestNet(t)
	enrollee := net.addEnrollee(nil)
	configurator := net.addConfigurator(pskNetwork(), nil)
	ctx := context.Background()

	for range 3 {
		uri, err := enrollee.engine.StartEnrollee(ctx, dpp.StartOptions{})
		require.NoError(t, err)
		cs, err := configurator.engine.StartConfiguratorInitiator(ctx, uri, dpp.StartOptions{})
		require.NoError(t, err)
		net.run(0)
		require.Equal(t, dpp.StateProvisioned, cs.State())
	}

	assert.Len(t, enrollee.engine.Sessions(), 1)
	assert.Len(t, configurator.engine.Sessions(), 1)
	assert.Len(t, enrollee.profiles.Profiles(), 1, "same SSID is stored once")
}

func TestStalledSendDoesNotBlockEngine(t *testing.T) {
	net := newTestNet(t)
	enrollee := net.addEnrollee(nil)

	radio := newStallingRadio()
	cfg := dpp.DefaultConfig()
	cfg.Radio = radio
	cfg.Clock = net.clk
	cfg.MAC = configuratorMAC
	cfg.Channels = []bootstrap.Channel{ch6}
	cfg.Network = pskNetwork()
	configurator, err := dpp.New(cfg)
	require.NoError(t, err)

	ctx := context.Background()
	uri, err := configurator.StartConfigurator(ctx, dpp.StartOptions{})
	require.NoError(t, err)
	_, err = enrollee.engine.StartEnrolleeInitiator(ctx, uri, dpp.StartOptions{})
	require.NoError(t, err)
	net.run(0)

	var request []byte
	for _, tx := range net.air.History() {
		f, err := frame.Unmarshal(tx.Data)
		require.NoError(t, err)
		if f.Type == frame.TypeAuthRequest {
			request = tx.Data
			break
		}
	}
	require.NotNil(t, request)

	handled := make(chan struct{})
	go func() {
		defer close(handled)
		configurator.HandleFrame(enrolleeMAC, ch6, request)
	}()
	select {
	case <-radio.sending:
	case <-time.After(time.Second):
		t.Fatal("authentication response never sent")
	}

	// The response is stuck on the air; the engine must stay usable.
	stopped := make(chan []*dpp.Session)
	go func() {
		sessions := configurator.Sessions()
		configurator.Stop()
		stopped <- sessions
	}()

	var sessions []*dpp.Session
	select {
	case sessions = <-stopped:
	case <-time.After(time.Second):
		t.Fatal("Sessions and Stop blocked behind an in-flight send")
	}
	select {
	case <-handled:
	case <-time.After(time.Second):
		t.Fatal("in-flight send not interrupted by Stop")
	}

	require.Len(t, sessions, 1)
	assert.Equal(t, dpp.StateAborted, sessions[0].State())
	assert.ErrorIs(t, sessions[0].Err(), dpp.ErrAborted)
	_, listening := configurator.Listening()
	assert.False(t, listening)
}

func containsType(types []frame.Type, t frame.Type) bool {
	for _, got := range types {
		if got == t {
			return true
		}
	}
	return false
}
