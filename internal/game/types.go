// internal/game/types.go
//
// Core type definitions for the Mastermind engine.
// Defines:
//   - Color / Code: pegs and peg sequences (secrets and guesses).
//   - Feedback: black/white peg counts for one scored guess.
//   - Move: one accepted guess with its feedback and position.
//   - State / Status: derived game progress.

package game

import (
	"strings"
)

// Color is a single peg color drawn from a game's palette.
type Color string

// Code is an ordered sequence of pegs. Both secrets and guesses are Codes.
type Code []Color

// ParseCode splits a comma separated list like "red, blue,green,green"
// into a Code. Colors are trimmed and lowercased; empty input yields nil.
func ParseCode(s string) Code {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make(Code, len(parts))
	for i, p := range parts {
		out[i] = Color(strings.ToLower(strings.TrimSpace(p)))
	}
	return out
}

// String renders the code in the same comma separated form ParseCode reads.
func (c Code) String() string {
	parts := make([]string, len(c))
	for i, col := range c {
		parts[i] = string(col)
	}
	return strings.Join(parts, ",")
}

// Equal reports whether c and o hold the same colors in the same order.
func (c Code) Equal(o Code) bool {
	if len(c) != len(o) {
		return false
	}
	for i := range c {
		if c[i] != o[i] {
			return false
		}
	}
	return true
}

// Clone returns a copy that shares no backing array with c.
func (c Code) Clone() Code {
	if c == nil {
		return nil
	}
	out := make(Code, len(c))
	copy(out, c)
	return out
}

// Feedback is the result of scoring a guess.
//   - Black: right color in the right hole.
//   - White: right color in the wrong hole, each secret peg consumed once.
type Feedback struct {
	Black int `json:"black"`
	White int `json:"white"`
}

// Move is an accepted guess. Position is 1-based in submission order.
type Move struct {
	Position int      `json:"position"`
	Guess    Code     `json:"code"`
	Feedback Feedback `json:"result"`
}

func (m Move) clone() Move {
	m.Guess = m.Guess.Clone()
	return m
}

// State is the coarse lifecycle of a game.
type State string

const (
	StateInProgress State = "in_progress"
	StateWon        State = "won"
	StateLost       State = "lost"
)

// Status is a read-only snapshot of a game's derived counters.
type Status struct {
	MovesPlayed    int   `json:"movesPlayed"`
	RemainingMoves int   `json:"remainingMoves"`
	Won            bool  `json:"won"`
	Terminal       bool  `json:"terminal"`
	State          State `json:"state"`
}
