package auth

import "sync"

// Arena owns the secret byte slices of one exchange. Wipe zeroizes every
// slice handed out or adopted, after which the arena refuses new secrets.
//
// Private keys from crypto/ecdh cannot be cleared in place; holders drop
// their references when they wipe the arena.
type Arena struct {
	mu      sync.Mutex
	secrets [][]byte
	wiped   bool
}

// Alloc returns a zeroed slice of n bytes owned by the arena.
func (a *Arena) Alloc(n int) []byte {
	return a.Adopt(make([]byte, n))
}

// Adopt places b under the arena's ownership and returns it.
func (a *Arena) Adopt(b []byte) []byte {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.wiped {
		clear(b)
		return b
	}
	a.secrets = append(a.secrets, b)
	return b
}

// Wipe zeroizes all owned secrets. It is idempotent.
func (a *Arena) Wipe() {
	a.mu.Lock()
	defer a.mu.Unlock()
	for _, s := range a.secrets {
		clear(s)
	}
	a.secrets = nil
	a.wiped = true
}

// Wiped reports whether Wipe has been called.
func (a *Arena) Wiped() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.wiped
}
