package discovery

import (
	"context"
	"time"
)

// Browser provides mDNS service browsing capabilities.
type Browser interface {
	// Browse searches for bootstrap advertisements of the given role.
	// An empty role matches every advertisement. The channel is closed
	// when ctx is cancelled or browsing completes.
	Browse(ctx context.Context, role Role) (<-chan *BootstrapService, error)

	// FindByFingerprint searches for one advertisement by its key
	// fingerprint. Returns when found or when ctx is done.
	FindByFingerprint(ctx context.Context, fingerprint string) (*BootstrapService, error)

	// Stop stops all active browsing operations.
	Stop()
}

// BrowserConfig configures browser behavior.
type BrowserConfig struct {
	// BrowseTimeout is the default timeout for browse operations.
	// Default: 10 seconds.
	BrowseTimeout time.Duration

	// Interface specifies which network interface to use.
	// Empty string means all interfaces.
	Interface string
}

// DefaultBrowserConfig returns the default browser configuration.
func DefaultBrowserConfig() BrowserConfig {
	return BrowserConfig{
		BrowseTimeout: BrowseTimeout,
		Interface:     "",
	}
}

// FilterFunc is a function that filters browse results.
type FilterFunc func(*BootstrapService) bool

// FilterByRole returns a filter that matches advertisements of role.
func FilterByRole(role Role) FilterFunc {
	return func(svc *BootstrapService) bool {
		return role == "" || svc.Role == role
	}
}

// FilterByInstance returns a filter that matches one instance name.
func FilterByInstance(name string) FilterFunc {
	return func(svc *BootstrapService) bool {
		return svc.InstanceName == name
	}
}

// FilterBrowseResults filters a channel of bootstrap services.
func FilterBrowseResults(in <-chan *BootstrapService, filter FilterFunc) <-chan *BootstrapService {
	out := make(chan *BootstrapService)
	go func() {
		defer close(out)
		for svc := range in {
			if filter(svc) {
				out <- svc
			}
		}
	}()
	return out
}

// First returns the first service of role reported by browser, or
// ErrNotFound when ctx ends first.
func First(ctx context.Context, browser Browser, role Role) (*BootstrapService, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	results, err := browser.Browse(ctx, role)
	if err != nil {
		return nil, err
	}
	for {
		select {
		case svc, ok := <-results:
			if !ok {
				return nil, ErrNotFound
			}
			if FilterByRole(role)(svc) {
				return svc, nil
			}
		case <-ctx.Done():
			return nil, ErrNotFound
		}
	}
}

// ServiceEntry is raw mDNS service entry data.
// This is a helper for Browser implementations.
type ServiceEntry struct {
	Instance string
	Service  string
	Domain   string
	Host     string
	Port     uint16
	Text     []string
	Addrs    []string
}

// ToBootstrapService converts a ServiceEntry to BootstrapService.
func (e *ServiceEntry) ToBootstrapService() (*BootstrapService, error) {
	txt := StringsToTXTRecords(e.Text)
	info, err := DecodeBootstrapTXT(txt)
	if err != nil {
		return nil, err
	}

	return &BootstrapService{
		InstanceName:  e.Instance,
		Host:          e.Host,
		Port:          e.Port,
		Addresses:     e.Addrs,
		BootstrapInfo: *info,
	}, nil
}
