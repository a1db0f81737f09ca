package keypad

import (
	"errors"
	"sync"
)

var (
	// ErrRegistryFull is returned when MaxCallbacks handlers are already registered.
	ErrRegistryFull = errors.New("keypad: callback registry full")
	// ErrInvalidSpecifier is returned for an empty key specifier.
	ErrInvalidSpecifier = errors.New("keypad: empty key specifier")
	// ErrNilHandler is returned when registering a nil handler.
	ErrNilHandler = errors.New("keypad: nil handler")
)

// HandlerFunc handles a resolved key event. Handlers run on the scan path and
// should return quickly.
type HandlerFunc func(ev KeyEvent)

type callbackEntry struct {
	id      uint32
	handler HandlerFunc
}

// Registry is a fixed-capacity table of handlers keyed by specifier identifier.
// Entries are never removed or replaced; registering a specifier twice adds a
// second entry that Lookup never reaches.
type Registry struct {
	mu      sync.RWMutex
	entries [MaxCallbacks]callbackEntry
	n       int
}

// Register adds a handler for spec. Nothing is added when an error is returned.
func (r *Registry) Register(spec string, h HandlerFunc) error {
	if spec == "" {
		return ErrInvalidSpecifier
	}
	if h == nil {
		return ErrNilHandler
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.n >= MaxCallbacks {
		return ErrRegistryFull
	}
	r.entries[r.n] = callbackEntry{id: Hash(spec), handler: h}
	r.n++
	return nil
}

// Lookup returns the first handler registered under an identifier equal to
// spec's.
func (r *Registry) Lookup(spec string) (HandlerFunc, bool) {
	return r.lookupID(Hash(spec))
}

func (r *Registry) lookupID(id uint32) (HandlerFunc, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for i := 0; i < r.n; i++ {
		if r.entries[i].id == id {
			return r.entries[i].handler, true
		}
	}
	return nil, false
}

// Len returns the number of registered handlers.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.n
}

// Cap returns the registry capacity.
func (r *Registry) Cap() int { return MaxCallbacks }
