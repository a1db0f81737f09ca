package keypad

import (
	"cmp"
	"fmt"
	"log/slog"
)

// KeyEvent is one resolved key combination. It holds the raw register bits and
// the distinct symbols detected, in detection order.
//
// KeyEvent is a value type with a fixed inline symbol store; copying it is
// cheap and never shares state.
type KeyEvent struct {
	// Bits is the raw register reading; bit n set means the key wired to bit n was down.
	Bits uint8

	keys [MaxKeys]Symbol
	n    uint8
}

// FromBits builds a KeyEvent from a raw register pattern, scanning from bit 0
// upward. When multi is false only the first set bit is kept.
func FromBits(pattern uint8, multi bool) KeyEvent {
	ev := KeyEvent{Bits: pattern}
	for i := 0; i < RegisterBits; i++ {
		if pattern&(1<<i) == 0 {
			continue
		}
		ev.Add(bitSymbols[i])
		if !multi {
			break
		}
	}
	return ev
}

// Add appends s unless it is already held or the event is full.
func (e *KeyEvent) Add(s Symbol) {
	if e.Has(s) || int(e.n) >= MaxKeys {
		return
	}
	e.keys[e.n] = s
	e.n++
}

// Merge folds other into e: its symbols are added in other's order and the raw
// bit patterns are OR'ed.
func (e *KeyEvent) Merge(other KeyEvent) {
	for i := 0; i < int(other.n); i++ {
		e.Add(other.keys[i])
	}
	e.Bits |= other.Bits
}

// Count returns the number of distinct symbols held.
func (e KeyEvent) Count() int {
	return int(e.n)
}

// None reports whether no key is held.
func (e KeyEvent) None() bool {
	return e.n == 0
}

// Multi reports whether more than one key is held.
func (e KeyEvent) Multi() bool {
	return e.n > 1
}

// Key returns the i-th symbol in detection order, or 0 if i is out of range.
func (e KeyEvent) Key(i int) Symbol {
	if i < 0 || i >= int(e.n) {
		return 0
	}
	return e.keys[i]
}

// Keys returns a copy of the held symbols in detection order.
func (e KeyEvent) Keys() []Symbol {
	out := make([]Symbol, e.n)
	copy(out, e.keys[:e.n])
	return out
}

// Has reports whether s is held.
func (e KeyEvent) Has(s Symbol) bool {
	for i := 0; i < int(e.n); i++ {
		if e.keys[i] == s {
			return true
		}
	}
	return false
}

// HasAll reports whether every symbol in combo is held. Extra held keys are
// allowed.
func (e KeyEvent) HasAll(combo string) bool {
	for i := 0; i < len(combo); i++ {
		if !e.Has(Symbol(combo[i])) {
			return false
		}
	}
	return true
}

// Is reports whether s is the only key held.
func (e KeyEvent) Is(s Symbol) bool {
	return e.n == 1 && e.keys[0] == s
}

// IsCombo reports whether the held keys are exactly the symbols in combo, in
// any order. Repeated characters in combo count once.
func (e KeyEvent) IsCombo(combo string) bool {
	if combo == "" {
		return e.n == 0
	}
	if !e.HasAll(combo) {
		return false
	}
	var distinct KeyEvent
	for i := 0; i < len(combo); i++ {
		distinct.Add(Symbol(combo[i]))
	}
	return distinct.n == e.n
}

// Cmp compares Count() with n and returns -1, 0 or +1.
func (e KeyEvent) Cmp(n int) int {
	return cmp.Compare(int(e.n), n)
}

func (e KeyEvent) AtLeast(n int) bool   { return e.Cmp(n) >= 0 }
func (e KeyEvent) AtMost(n int) bool    { return e.Cmp(n) <= 0 }
func (e KeyEvent) MoreThan(n int) bool  { return e.Cmp(n) > 0 }
func (e KeyEvent) FewerThan(n int) bool { return e.Cmp(n) < 0 }

// String renders the held symbols in detection order. The result is the
// specifier used for handler lookup.
func (e KeyEvent) String() string {
	b := make([]byte, e.n)
	for i := range b {
		b[i] = byte(e.keys[i])
	}
	return string(b)
}

// LogValue implements slog.LogValuer.
func (e KeyEvent) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("keys", e.String()),
		slog.String("bits", fmt.Sprintf("%08b", e.Bits)),
		slog.Int("count", int(e.n)),
	)
}
