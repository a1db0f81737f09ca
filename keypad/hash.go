package keypad

import "sort"

// HashSymbol returns the identifier of a single key.
func HashSymbol(s Symbol) uint32 {
	return uint32(s) * 2
}

// Hash returns the identifier of a specifier: the sum plus the product of the
// codes of its distinct characters, with uint32 wrap-around. The result does
// not depend on character order. For a single character it equals HashSymbol.
//
// Distinct combinations may share an identifier; see Collisions.
func Hash(spec string) uint32 {
	var seen [256]bool
	var sum uint32
	product := uint32(1)
	for i := 0; i < len(spec); i++ {
		c := spec[i]
		if seen[c] {
			continue
		}
		seen[c] = true
		sum += uint32(c)
		product *= uint32(c)
	}
	return sum + product
}

// Collisions groups the given specifiers, plus Wildcard and Default, by
// identifier and returns every group holding more than one distinct character
// set. Specifiers that only differ in order or repetition are the same key and
// are not reported.
func Collisions(specs ...string) [][]string {
	byID := map[uint32][]string{}
	seen := map[string]bool{}
	for _, s := range append([]string{Wildcard, Default}, specs...) {
		canon := canonical(s)
		if s == "" || seen[canon] {
			continue
		}
		seen[canon] = true
		id := Hash(s)
		byID[id] = append(byID[id], s)
	}

	var out [][]string
	for _, group := range byID {
		if len(group) > 1 {
			sort.Strings(group)
			out = append(out, group)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i][0] < out[j][0] })
	return out
}

// canonical returns the sorted distinct characters of spec.
func canonical(spec string) string {
	var seen [256]bool
	for i := 0; i < len(spec); i++ {
		seen[spec[i]] = true
	}
	b := make([]byte, 0, len(spec))
	for c := range seen {
		if seen[c] {
			b = append(b, byte(c))
		}
	}
	return string(b)
}
