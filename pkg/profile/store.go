package profile

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"sync"
	"time"

	"github.com/fxamacker/cbor/v2"
)

// StoreVersion is the current version of the profile file format.
const StoreVersion = 1

// ErrUnsupportedVersion is returned when a profile file was written by a
// newer format version.
var ErrUnsupportedVersion = errors.New("unsupported profile store version")

// storeFile is the on-disk layout of a FileStore.
type storeFile struct {
	Version  int       `cbor:"1,keyasint"`
	SavedAt  time.Time `cbor:"2,keyasint"`
	Profiles []Profile `cbor:"3,keyasint,omitempty"`
}

var (
	storeEncMode cbor.EncMode
	storeDecMode cbor.DecMode
)

func init() {
	var err error
	encOpts := cbor.CoreDetEncOptions()
	encOpts.Time = cbor.TimeRFC3339Nano
	storeEncMode, err = encOpts.EncMode()
	if err != nil {
		panic(fmt.Sprintf("failed to create profile CBOR encoder mode: %v", err))
	}
	storeDecMode, err = cbor.DecOptions{DupMapKey: cbor.DupMapKeyEnforcedAPF}.DecMode()
	if err != nil {
		panic(fmt.Sprintf("failed to create profile CBOR decoder mode: %v", err))
	}
}

// upsert replaces the profile with the same SSID or appends p.
func upsert(profiles []Profile, p Profile) []Profile {
	i := slices.IndexFunc(profiles, func(q Profile) bool { return q.SSID == p.SSID })
	if i >= 0 {
		profiles[i] = p
		return profiles
	}
	return append(profiles, p)
}

// MemoryStore keeps profiles in memory.
type MemoryStore struct {
	mu       sync.Mutex
	profiles []Profile
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

// ProvisionProfile stores p, replacing any profile for the same SSID.
func (s *MemoryStore) ProvisionProfile(_ context.Context, p Profile) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.profiles = upsert(s.profiles, p)
	return nil
}

// Profiles returns a copy of the stored profiles.
func (s *MemoryStore) Profiles() []Profile {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.profiles)
}

// Get returns the profile for ssid.
func (s *MemoryStore) Get(ssid string) (Profile, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, p := range s.profiles {
		if p.SSID == ssid {
			return p, true
		}
	}
	return Profile{}, false
}

// FileStore persists profiles to a CBOR file.
type FileStore struct {
	mu   sync.Mutex
	path string
}

// NewFileStore creates a store backed by path.
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

// ProvisionProfile adds p to the file, replacing any profile for the same
// SSID.
func (s *FileStore) ProvisionProfile(ctx context.Context, p Profile) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	f, err := s.load()
	if err != nil {
		return err
	}
	f.Profiles = upsert(f.Profiles, p)
	return s.save(f)
}

// Load returns the stored profiles. A missing file yields no profiles.
func (s *FileStore) Load() ([]Profile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	f, err := s.load()
	if err != nil {
		return nil, err
	}
	return f.Profiles, nil
}

// Clear removes the profile file.
func (s *FileStore) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	err := os.Remove(s.path)
	if os.IsNotExist(err) {
		return nil
	}
	return err
}

func (s *FileStore) load() (*storeFile, error) {
	data, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		return &storeFile{Version: StoreVersion}, nil
	}
	if err != nil {
		return nil, err
	}

	f := &storeFile{}
	if err := storeDecMode.Unmarshal(data, f); err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", s.path, err)
	}
	if f.Version > StoreVersion {
		return nil, fmt.Errorf("%w: %d", ErrUnsupportedVersion, f.Version)
	}
	return f, nil
}

// save writes f through a temporary file so a crash never leaves a
// partially written store.
func (s *FileStore) save(f *storeFile) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0700); err != nil {
		return err
	}

	f.Version = StoreVersion
	f.SavedAt = time.Now()

	data, err := storeEncMode.Marshal(f)
	if err != nil {
		return err
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0600); err != nil {
		return err
	}
	return os.Rename(tmp, s.path)
}
