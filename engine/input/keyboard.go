// Package input holds the input backend: a keyboard fed by window key events, and the axis
// and action nodes the input aspect recomputes every frame.
package input

import (
	"maps"
	"sync"

	"github.com/Carmen-Shannon/oxy3d/common"
)

// Keyboard tracks which keys are held. Window callbacks write it from the event thread while
// the input aspect snapshots it once per frame.
// Thread-safe for concurrent access.
type Keyboard struct {
	mu      *sync.Mutex
	pressed map[common.KeyCode]struct{}
}

// NewKeyboard returns a keyboard with no keys held.
func NewKeyboard() *Keyboard {
	return &Keyboard{
		mu:      &sync.Mutex{},
		pressed: make(map[common.KeyCode]struct{}),
	}
}

// KeyDown records a key press.
func (k *Keyboard) KeyDown(key common.KeyCode) {
	k.mu.Lock()
	k.pressed[key] = struct{}{}
	k.mu.Unlock()
}

// KeyUp records a key release.
func (k *Keyboard) KeyUp(key common.KeyCode) {
	k.mu.Lock()
	delete(k.pressed, key)
	k.mu.Unlock()
}

// IsPressed reports whether key is held.
func (k *Keyboard) IsPressed(key common.KeyCode) bool {
	k.mu.Lock()
	defer k.mu.Unlock()
	_, ok := k.pressed[key]
	return ok
}

// Reset releases every key, for example when the window loses focus.
func (k *Keyboard) Reset() {
	k.mu.Lock()
	clear(k.pressed)
	k.mu.Unlock()
}

// Snapshot returns the held keys at this instant.
func (k *Keyboard) Snapshot() KeyState {
	k.mu.Lock()
	defer k.mu.Unlock()
	return KeyState(maps.Clone(k.pressed))
}

// KeyState is an immutable set of held keys.
type KeyState map[common.KeyCode]struct{}

// AnyPressed reports whether any of keys is held.
func (s KeyState) AnyPressed(keys []common.KeyCode) bool {
	for _, key := range keys {
		if _, ok := s[key]; ok {
			return true
		}
	}
	return false
}
