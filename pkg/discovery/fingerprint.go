package discovery

import (
	"encoding/hex"
	"fmt"

	"github.com/dpp-onboard/dpp-go/pkg/bootstrap"
)

// Fingerprint returns the first 64 bits of the bootstrap key hash as 16 hex
// characters.
func Fingerprint(info *bootstrap.Info) (string, error) {
	h, err := info.KeyHash()
	if err != nil {
		return "", fmt.Errorf("failed to hash bootstrap key: %w", err)
	}
	return hex.EncodeToString(h[:8]), nil
}

// InstanceName returns the mDNS instance name for a bootstrap URI.
func InstanceName(uri string) (string, error) {
	info, err := bootstrap.Parse(uri)
	if err != nil {
		return "", err
	}
	fp, err := Fingerprint(info)
	if err != nil {
		return "", err
	}
	return "DPP-" + fp, nil
}
