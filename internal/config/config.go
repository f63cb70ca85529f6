package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/robalobadob/mastermind/internal/game"
)

// Rules models the optional game rules file, e.g.
//
//	palette: [red, orange, yellow, green, blue, purple]
//	holes: 4
//	max_moves: 12
type Rules struct {
	Palette  []string `yaml:"palette" json:"palette"`
	Holes    int      `yaml:"holes" json:"holes"`
	MaxMoves int      `yaml:"max_moves" json:"maxMoves"`
}

// Default returns the classic rules.
func Default() Rules {
	pal := game.DefaultPalette()
	r := Rules{Holes: game.DefaultHoles, MaxMoves: game.DefaultMaxMoves}
	for _, c := range pal {
		r.Palette = append(r.Palette, string(c))
	}
	return r
}

// Load reads rules from path. An empty path or a missing file yields the
// defaults; fields left out of the file keep their default values.
func Load(path string) (Rules, error) {
	if path == "" {
		return Default(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return Default(), nil
		}
		return Rules{}, fmt.Errorf("read rules %s: %w", path, err)
	}
	return FromYAML(data)
}

// FromYAML parses and validates rules.
func FromYAML(data []byte) (Rules, error) {
	r := Default()
	if err := yaml.Unmarshal(data, &r); err != nil {
		return Rules{}, fmt.Errorf("parse rules: %w", err)
	}
	// Guesses are lowercased when parsed, so the palette must be too.
	for i, c := range r.Palette {
		r.Palette[i] = strings.ToLower(strings.TrimSpace(c))
	}
	if err := r.Validate(); err != nil {
		return Rules{}, err
	}
	return r, nil
}

// Validate checks the rules with the same constraints the engine applies.
func (r Rules) Validate() error {
	return r.GameConfig().Validate()
}

// GameConfig converts the rules into an engine config without a secret.
func (r Rules) GameConfig() game.Config {
	pal := make([]game.Color, len(r.Palette))
	for i, c := range r.Palette {
		pal[i] = game.Color(c)
	}
	return game.Config{Palette: pal, Holes: r.Holes, MaxMoves: r.MaxMoves}
}
