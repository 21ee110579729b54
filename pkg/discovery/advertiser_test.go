package discovery_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/dpp-onboard/dpp-go/pkg/bootstrap"
	"github.com/dpp-onboard/dpp-go/pkg/clock"
	"github.com/dpp-onboard/dpp-go/pkg/discovery"
	"github.com/dpp-onboard/dpp-go/pkg/discovery/mocks"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestPublisherWindowExpires(t *testing.T) {
	adv := mocks.NewMockAdvertiser(t)
	clk := clock.NewFake(time.Unix(0, 0))
	info := &discovery.BootstrapInfo{URI: testURI(t, bootstrap.GenerateOptions{}), Role: discovery.RoleEnrollee}

	adv.EXPECT().Advertise(mock.Anything, info).Return(nil).Once()
	adv.EXPECT().Stop().Return(nil).Once()

	p := discovery.NewPublisher(adv, clk)
	changes := make(chan discovery.PublisherState, 4)
	p.OnStateChange(func(_, s discovery.PublisherState) { changes <- s })

	require.NoError(t, p.Start(context.Background(), info, time.Minute))
	assert.Equal(t, discovery.StateAdvertising, p.State())
	assert.Same(t, info, p.Info())

	clk.Advance(59 * time.Second)
	assert.Equal(t, discovery.StateAdvertising, p.State())

	clk.Advance(time.Second)
	assert.Equal(t, discovery.StateIdle, p.State())
	assert.Nil(t, p.Info())

	assert.Equal(t, discovery.StateAdvertising, <-changes)
	assert.Equal(t, discovery.StateIdle, <-changes)
}

func TestPublisherRestartResetsWindow(t *testing.T) {
	adv := mocks.NewMockAdvertiser(t)
	clk := clock.NewFake(time.Unix(0, 0))
	info := &discovery.BootstrapInfo{URI: testURI(t, bootstrap.GenerateOptions{}), Role: discovery.RoleConfigurator}

	adv.EXPECT().Advertise(mock.Anything, info).Return(nil).Twice()
	adv.EXPECT().Stop().Return(nil).Once()

	p := discovery.NewPublisher(adv, clk)
	require.NoError(t, p.Start(context.Background(), info, time.Minute))
	clk.Advance(50 * time.Second)
	require.NoError(t, p.Start(context.Background(), info, time.Minute))
	clk.Advance(50 * time.Second)
	assert.Equal(t, discovery.StateAdvertising, p.State())

	require.NoError(t, p.Stop())
	require.NoError(t, p.Stop())
	assert.Equal(t, discovery.StateIdle, p.State())
	assert.Zero(t, clk.Pending())
}

func TestPublisherAdvertiseError(t *testing.T) {
	adv := mocks.NewMockAdvertiser(t)
	adv.EXPECT().Advertise(mock.Anything, mock.Anything).Return(errors.New("no multicast")).Once()

	p := discovery.NewPublisher(adv, clock.NewFake(time.Unix(0, 0)))
	err := p.Start(context.Background(), &discovery.BootstrapInfo{}, 0)
	assert.ErrorContains(t, err, "no multicast")
	assert.Equal(t, discovery.StateIdle, p.State())
}

func TestPublisherStateString(t *testing.T) {
	assert.Equal(t, "IDLE", discovery.StateIdle.String())
	assert.Equal(t, "ADVERTISING", discovery.StateAdvertising.String())
	assert.Equal(t, "UNKNOWN", discovery.PublisherState(9).String())
}

func TestMDNSAdvertiserRejectsInvalidInfo(t *testing.T) {
	adv, err := discovery.NewMDNSAdvertiser(discovery.DefaultAdvertiserConfig())
	require.NoError(t, err)
	defer adv.Stop()

	err = adv.Advertise(context.Background(), &discovery.BootstrapInfo{URI: "DPP:;;", Role: discovery.RoleEnrollee})
	assert.Error(t, err)
}

func TestMDNSAdvertiserAdvertise(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping mDNS test in short mode")
	}

	adv, err := discovery.NewMDNSAdvertiser(discovery.DefaultAdvertiserConfig())
	require.NoError(t, err)
	defer adv.Stop()

	info := &discovery.BootstrapInfo{URI: testURI(t, bootstrap.GenerateOptions{}), Role: discovery.RoleEnrollee}
	require.NoError(t, adv.Advertise(context.Background(), info))
	require.NoError(t, adv.Advertise(context.Background(), info))
	assert.NoError(t, adv.Stop())
}
