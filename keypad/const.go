package keypad

import "time"

// Symbol identifies one physical key on the pad.
type Symbol byte

// Key symbols, indexed by shift register bit (bit 0 first).
const (
	KeyUp        Symbol = 'u'
	KeyLeft      Symbol = 'l'
	KeyDown      Symbol = 'd'
	KeyRight     Symbol = 'r'
	KeyMiddle    Symbol = 'm'
	KeySoftLeft  Symbol = 'L'
	KeySoftRight Symbol = 'R'
	KeyExtra     Symbol = 'x'
)

const (
	// RegisterBits is the width of the shift register.
	RegisterBits = 8
	// MaxKeys bounds the number of distinct symbols a KeyEvent can hold.
	MaxKeys = RegisterBits
	// MaxCallbacks is the fixed capacity of the callback registry.
	MaxCallbacks = 15
)

// Special specifiers accepted by Driver.On.
const (
	// Wildcard handlers run for every resolved event.
	Wildcard = "any"
	// Default handlers run when no specific handler matched.
	Default = "def"
)

const (
	DefaultDebounce    = 250 * time.Millisecond
	DefaultSensitivity = 30
	// SensitivityStep is the secondary sample delay per sensitivity level.
	SensitivityStep = 2 * time.Millisecond
	// edgePollInterval bounds how long Run blocks on the interrupt line
	// before rechecking its context.
	edgePollInterval = 100 * time.Millisecond
)

// bitSymbols maps shift register bit n to its symbol.
var bitSymbols = [RegisterBits]Symbol{
	KeyUp,
	KeyLeft,
	KeyDown,
	KeyRight,
	KeyMiddle,
	KeySoftLeft,
	KeySoftRight,
	KeyExtra,
}

// SymbolName maps key symbols to human-readable names.
var SymbolName = map[Symbol]string{
	KeyUp:        "Up",
	KeyLeft:      "Left",
	KeyDown:      "Down",
	KeyRight:     "Right",
	KeyMiddle:    "Middle",
	KeySoftLeft:  "SoftLeft",
	KeySoftRight: "SoftRight",
	KeyExtra:     "Extra",
}

// Name returns the human-readable name of s, or the symbol itself when unknown.
func (s Symbol) Name() string {
	if n, ok := SymbolName[s]; ok {
		return n
	}
	return string(rune(s))
}

// SymbolForBit returns the symbol wired to bit n. ok is false when n is out of range.
func SymbolForBit(n int) (Symbol, bool) {
	if n < 0 || n >= RegisterBits {
		return 0, false
	}
	return bitSymbols[n], true
}
