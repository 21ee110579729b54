package discovery

import (
	"fmt"
	"slices"
	"strconv"
	"strings"

	"github.com/dpp-onboard/dpp-go/pkg/bootstrap"
)

// TXTRecordMap is a map of TXT record key-value pairs.
type TXTRecordMap map[string]string

// EncodeBootstrapTXT creates TXT records for a bootstrap advertisement.
func EncodeBootstrapTXT(info *BootstrapInfo) (TXTRecordMap, error) {
	if !info.Role.Valid() {
		return nil, fmt.Errorf("%w: role %q", ErrInvalidTXTRecord, info.Role)
	}
	if _, err := bootstrap.Parse(info.URI); err != nil {
		return nil, err
	}

	chunks := splitURI(info.URI)
	if len(chunks) > MaxURIChunks {
		return nil, ErrURITooLong
	}

	txt := make(TXTRecordMap)
	txt[TXTKeyRole] = string(info.Role)
	version := info.Version
	if version == 0 {
		version = bootstrap.CurrentVersion
	}
	txt[TXTKeyVersion] = strconv.Itoa(version)
	for i, c := range chunks {
		txt[TXTKeyURIPrefix+strconv.Itoa(i)] = c
	}

	// Optional fields
	if info.DeviceName != "" {
		txt[TXTKeyDeviceName] = info.DeviceName
	}

	return txt, nil
}

// DecodeBootstrapTXT parses TXT records from a bootstrap advertisement.
func DecodeBootstrapTXT(txt TXTRecordMap) (*BootstrapInfo, error) {
	info := &BootstrapInfo{}

	// Parse role (required)
	role, ok := txt[TXTKeyRole]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrMissingRequired, TXTKeyRole)
	}
	info.Role = Role(role)
	if !info.Role.Valid() {
		return nil, fmt.Errorf("%w: role %q", ErrInvalidTXTRecord, role)
	}

	// Parse version (required)
	v, ok := txt[TXTKeyVersion]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrMissingRequired, TXTKeyVersion)
	}
	version, err := strconv.Atoi(v)
	if err != nil || version < 1 {
		return nil, fmt.Errorf("%w: version %q", ErrInvalidTXTRecord, v)
	}
	info.Version = version

	// Reassemble the URI from consecutive chunks (required)
	var sb strings.Builder
	for i := 0; i < MaxURIChunks; i++ {
		c, ok := txt[TXTKeyURIPrefix+strconv.Itoa(i)]
		if !ok {
			break
		}
		sb.WriteString(c)
	}
	if sb.Len() == 0 {
		return nil, fmt.Errorf("%w: %s0", ErrMissingRequired, TXTKeyURIPrefix)
	}
	info.URI = sb.String()
	if _, err := bootstrap.Parse(info.URI); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidTXTRecord, err)
	}

	// Optional fields
	info.DeviceName = txt[TXTKeyDeviceName]

	return info, nil
}

func splitURI(uri string) []string {
	var chunks []string
	for len(uri) > MaxURIChunk {
		chunks = append(chunks, uri[:MaxURIChunk])
		uri = uri[MaxURIChunk:]
	}
	return append(chunks, uri)
}

// TXTRecordsToStrings converts a TXTRecordMap to a sorted slice of
// "key=value" strings.
// This format is commonly used by mDNS libraries.
func TXTRecordsToStrings(txt TXTRecordMap) []string {
	result := make([]string, 0, len(txt))
	for k, v := range txt {
		result = append(result, fmt.Sprintf("%s=%s", k, v))
	}
	slices.Sort(result)
	return result
}

// StringsToTXTRecords parses a slice of "key=value" strings into a TXTRecordMap.
func StringsToTXTRecords(strs []string) TXTRecordMap {
	txt := make(TXTRecordMap)
	for _, s := range strs {
		parts := strings.SplitN(s, "=", 2)
		if len(parts) == 2 {
			txt[parts[0]] = parts[1]
		} else if len(parts) == 1 && parts[0] != "" {
			// Key without value (boolean flag)
			txt[parts[0]] = ""
		}
	}
	return txt
}

// ValidateInstanceName checks if an instance name is valid for mDNS.
func ValidateInstanceName(name string) error {
	if name == "" {
		return fmt.Errorf("%w: empty name", ErrInstanceNameTooLong)
	}
	if len(name) > MaxInstanceNameLen {
		return ErrInstanceNameTooLong
	}
	return nil
}
