package dpp

import (
	"context"

	"github.com/dpp-onboard/dpp-go/pkg/profile"
)

// ProfileSink receives the network profile of a successful Enrollee
// exchange. It is called exactly once per Provisioned session and never for
// a failed one. Returning an error fails the session.
type ProfileSink interface {
	ProvisionProfile(ctx context.Context, p profile.Profile) error
}

// ProfileSinkFunc adapts a function to the ProfileSink interface.
type ProfileSinkFunc func(ctx context.Context, p profile.Profile) error

// ProvisionProfile calls f.
func (f ProfileSinkFunc) ProvisionProfile(ctx context.Context, p profile.Profile) error {
	return f(ctx, p)
}
