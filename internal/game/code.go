package game

import (
	"fmt"
)

const (
	DefaultHoles    = 4
	DefaultMaxMoves = 12
)

// DefaultPalette returns the six classic peg colors, in palette order.
func DefaultPalette() []Color {
	return []Color{"red", "orange", "yellow", "green", "blue", "purple"}
}

// Source is the entropy used for secret generation. *math/rand.Rand
// satisfies it; production code seeds one from crypto/rand.
type Source interface {
	Intn(n int) int
}

// GenerateRandomCode draws each of holes pegs independently and uniformly
// from palette. Colors may repeat.
func GenerateRandomCode(rng Source, palette []Color, holes int) (Code, error) {
	if len(palette) == 0 {
		return nil, fmt.Errorf("%w: palette is empty", ErrConfiguration)
	}
	if holes < 1 {
		return nil, fmt.Errorf("%w: holes must be positive, got %d", ErrConfiguration, holes)
	}
	if rng == nil {
		return nil, fmt.Errorf("%w: no randomness source", ErrConfiguration)
	}
	code := make(Code, holes)
	for i := range code {
		code[i] = palette[rng.Intn(len(palette))]
	}
	return code, nil
}
