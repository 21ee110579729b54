package discovery_test

import (
	"context"
	"testing"
	"time"

	"github.com/dpp-onboard/dpp-go/pkg/bootstrap"
	"github.com/dpp-onboard/dpp-go/pkg/discovery"
	"github.com/dpp-onboard/dpp-go/pkg/discovery/mocks"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func service(t *testing.T, role discovery.Role) *discovery.BootstrapService {
	t.Helper()
	uri := testURI(t, bootstrap.GenerateOptions{})
	name, err := discovery.InstanceName(uri)
	require.NoError(t, err)
	return &discovery.BootstrapService{
		InstanceName:  name,
		BootstrapInfo: discovery.BootstrapInfo{URI: uri, Role: role, Version: 2},
	}
}

func TestFirstSkipsOtherRoles(t *testing.T) {
	configurator := service(t, discovery.RoleConfigurator)
	enrollee := service(t, discovery.RoleEnrollee)

	ch := make(chan *discovery.BootstrapService, 2)
	ch <- configurator
	ch <- enrollee
	close(ch)

	browser := mocks.NewMockBrowser(t)
	browser.EXPECT().Browse(mock.Anything, discovery.RoleEnrollee).Return((<-chan *discovery.BootstrapService)(ch), nil).Once()

	svc, err := discovery.First(context.Background(), browser, discovery.RoleEnrollee)
	require.NoError(t, err)
	assert.Equal(t, enrollee.URI, svc.URI)
}

func TestFirstNotFound(t *testing.T) {
	browser := mocks.NewMockBrowser(t)
	browser.EXPECT().Browse(mock.Anything, discovery.RoleEnrollee).
		RunAndReturn(func(ctx context.Context, _ discovery.Role) (<-chan *discovery.BootstrapService, error) {
			return make(chan *discovery.BootstrapService), nil
		}).Once()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err := discovery.First(ctx, browser, discovery.RoleEnrollee)
	assert.ErrorIs(t, err, discovery.ErrNotFound)
}

func TestFilterBrowseResults(t *testing.T) {
	a := service(t, discovery.RoleEnrollee)
	b := service(t, discovery.RoleEnrollee)

	in := make(chan *discovery.BootstrapService, 2)
	in <- a
	in <- b
	close(in)

	var got []*discovery.BootstrapService
	for svc := range discovery.FilterBrowseResults(in, discovery.FilterByInstance(b.InstanceName)) {
		got = append(got, svc)
	}
	require.Len(t, got, 1)
	assert.Same(t, b, got[0])

	assert.True(t, discovery.FilterByRole("")(a))
	assert.False(t, discovery.FilterByRole(discovery.RoleConfigurator)(a))
}

func TestServiceEntryToBootstrapService(t *testing.T) {
	uri := testURI(t, bootstrap.GenerateOptions{})
	txt, err := discovery.EncodeBootstrapTXT(&discovery.BootstrapInfo{URI: uri, Role: discovery.RoleEnrollee})
	require.NoError(t, err)

	e := discovery.ServiceEntry{
		Instance: "DPP-0011223344556677",
		Host:     "lamp.local.",
		Port:     discovery.DefaultPort,
		Text:     discovery.TXTRecordsToStrings(txt),
		Addrs:    []string{"192.0.2.10"},
	}
	svc, err := e.ToBootstrapService()
	require.NoError(t, err)
	assert.Equal(t, uri, svc.URI)
	assert.Equal(t, "lamp.local.", svc.Host)
	assert.Equal(t, []string{"192.0.2.10"}, svc.Addresses)

	e.Text = []string{"role=enrollee"}
	_, err = e.ToBootstrapService()
	assert.Error(t, err)
}
