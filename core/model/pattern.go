package model

import (
	"errors"
	"fmt"
	"strings"
)

// ErrBadPattern reports a malformed pattern bit-string.
var ErrBadPattern = errors.New("malformed regulation pattern")

// Pattern is a fixed-length binary vector with one flag per planning day.
// A set flag means a fixed-magnitude stock adjustment is applied that day.
type Pattern []uint8

// ParsePattern parses a bit-string such as "0101" or "[0101]" and validates
// its length against the planning horizon. Wrong length or non-binary
// characters are rejected, never truncated or padded.
func ParsePattern(s string, horizon int) (Pattern, error) {
	raw := strings.TrimSuffix(strings.TrimPrefix(s, "["), "]")
	if len(raw) != horizon {
		return nil, fmt.Errorf("%w: %q has length %d, want %d", ErrBadPattern, s, len(raw), horizon)
	}
	p := make(Pattern, len(raw))
	for i := 0; i < len(raw); i++ {
		switch raw[i] {
		case '0':
			p[i] = 0
		case '1':
			p[i] = 1
		default:
			return nil, fmt.Errorf("%w: %q contains non-binary character %q", ErrBadPattern, s, raw[i])
		}
	}
	return p, nil
}

// PatternFromIndex expands an enumeration index into its pattern, most
// significant day first. Index 0 is the all-zero "do nothing" pattern.
func PatternFromIndex(idx, horizon int) Pattern {
	p := make(Pattern, horizon)
	for i := 0; i < horizon; i++ {
		if idx&(1<<(horizon-1-i)) != 0 {
			p[i] = 1
		}
	}
	return p
}

func (p Pattern) String() string {
	var b strings.Builder
	b.Grow(len(p))
	for _, bit := range p {
		if bit == 0 {
			b.WriteByte('0')
		} else {
			b.WriteByte('1')
		}
	}
	return b.String()
}

// IsZero reports whether no day applies a regulation.
func (p Pattern) IsZero() bool {
	for _, bit := range p {
		if bit != 0 {
			return false
		}
	}
	return true
}

// Visits counts the regulation days in the pattern.
func (p Pattern) Visits() int {
	n := 0
	for _, bit := range p {
		n += int(bit)
	}
	return n
}

// DominatedBy reports whether every flag of p is at most the corresponding
// flag of q. Patterns of differing lengths are never comparable.
func (p Pattern) DominatedBy(q Pattern) bool {
	if len(p) != len(q) {
		return false
	}
	for i := range p {
		if p[i] > q[i] {
			return false
		}
	}
	return true
}

// Equal reports bitwise equality.
func (p Pattern) Equal(q Pattern) bool {
	if len(p) != len(q) {
		return false
	}
	for i := range p {
		if p[i] != q[i] {
			return false
		}
	}
	return true
}

// Truncate returns the pattern restricted to its first n days. Used by the
// reduced-horizon degradation path.
func (p Pattern) Truncate(n int) Pattern {
	if n >= len(p) {
		return p
	}
	q := make(Pattern, n)
	copy(q, p[:n])
	return q
}
