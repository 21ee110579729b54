package main

import (
	"context"
	"fmt"
	"time"

	"github.com/dpp-onboard/dpp-go/pkg/discovery"
	"github.com/dpp-onboard/dpp-go/pkg/dpp"
)

// Request selects what the device does once started.
type Request struct {
	Role      dpp.Role
	PeerURI   string
	Frequency int

	// Discover looks the peer up over mDNS when PeerURI is empty.
	Discover bool
}

// peerRole is the role a peer advertises for a local role.
func peerRole(local dpp.Role) discovery.Role {
	if local == dpp.RoleConfigurator {
		return discovery.RoleEnrollee
	}
	return discovery.RoleConfigurator
}

// localRole maps an engine role to its advertised role.
func localRole(r dpp.Role) discovery.Role {
	if r == dpp.RoleConfigurator {
		return discovery.RoleConfigurator
	}
	return discovery.RoleEnrollee
}

// resolvePeer returns the peer URI, browsing for it when requested.
func resolvePeer(ctx context.Context, browser discovery.Browser, req Request) (string, error) {
	if req.PeerURI != "" || !req.Discover {
		return req.PeerURI, nil
	}
	if browser == nil {
		return "", fmt.Errorf("discovery requested without a browser")
	}
	svc, err := discovery.First(ctx, browser, peerRole(req.Role))
	if err != nil {
		return "", fmt.Errorf("discover %s: %w", peerRole(req.Role), err)
	}
	return svc.URI, nil
}

// start begins the exchange described by req. It returns the session for
// initiators and nil for responders.
func start(ctx context.Context, engine *dpp.Engine, req Request) (*dpp.Session, error) {
	opts := dpp.StartOptions{Frequency: req.Frequency}

	switch {
	case req.Role == dpp.RoleEnrollee && req.PeerURI != "":
		return engine.StartEnrolleeInitiator(ctx, req.PeerURI, opts)
	case req.Role == dpp.RoleConfigurator && req.PeerURI != "":
		return engine.StartConfiguratorInitiator(ctx, req.PeerURI, opts)
	case req.Role == dpp.RoleEnrollee:
		_, err := engine.StartEnrollee(ctx, opts)
		return nil, err
	default:
		_, err := engine.StartConfigurator(ctx, opts)
		return nil, err
	}
}

// advertise publishes the engine URI for the local role.
func advertise(ctx context.Context, pub *discovery.Publisher, engine *dpp.Engine, role dpp.Role, name string, window time.Duration) error {
	info := &discovery.BootstrapInfo{
		URI:        engine.URI(),
		Role:       localRole(role),
		DeviceName: name,
	}
	return pub.Start(ctx, info, window)
}

// waitOutcome blocks until the first terminal event and returns it.
func waitOutcome(ctx context.Context, events <-chan dpp.Event) (dpp.Event, error) {
	for {
		select {
		case ev := <-events:
			if ev.Type != dpp.EventStateChanged {
				return ev, nil
			}
		case <-ctx.Done():
			return dpp.Event{}, ctx.Err()
		}
	}
}
