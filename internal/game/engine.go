// internal/game/engine.go
//
// Core game engine for a single Mastermind session.
// Responsibilities:
//   - Create games from a Config (defaults 6 colors, 4 holes, 12 moves).
//   - Validate and apply guesses (length, palette, terminal state).
//   - Score guesses via Score and append the resulting Move.
//   - Derive state (in_progress → won/lost) from the move history only.
//   - Rebuild a game from persisted history (Restore).
//
// Notes:
//   - The secret is never returned by any method.
//   - A Game is not safe for concurrent SubmitGuess calls; whoever holds it
//     must serialize submissions per game.

package game

import (
	"fmt"
	"math/rand"

	"github.com/robalobadob/mastermind/internal/cryptorand"
)

// Config describes a new game. Zero values take the defaults: a nil
// Palette, zero Holes and zero MaxMoves. Negative counts and an explicitly
// empty palette are rejected.
type Config struct {
	Palette  []Color
	Holes    int
	MaxMoves int

	// Secret overrides random generation when set.
	Secret Code
	// Owner is an opaque reference to the codebreaker. It is carried for
	// collaborators and never interpreted here.
	Owner string
	// Rand is the entropy source for the secret. Nil means crypto/rand.
	Rand Source
}

// WithDefaults returns a copy of c with zero values replaced by defaults.
func (c Config) WithDefaults() Config {
	if c.Palette == nil {
		c.Palette = DefaultPalette()
	}
	if c.Holes == 0 {
		c.Holes = DefaultHoles
	}
	if c.MaxMoves == 0 {
		c.MaxMoves = DefaultMaxMoves
	}
	return c
}

// Validate checks the game dimensions. It does not apply defaults.
func (c Config) Validate() error {
	if len(c.Palette) == 0 {
		return fmt.Errorf("%w: palette is empty", ErrConfiguration)
	}
	seen := make(map[Color]struct{}, len(c.Palette))
	for _, col := range c.Palette {
		if col == "" {
			return fmt.Errorf("%w: palette contains an empty color", ErrConfiguration)
		}
		if _, dup := seen[col]; dup {
			return fmt.Errorf("%w: palette repeats %q", ErrConfiguration, col)
		}
		seen[col] = struct{}{}
	}
	if c.Holes < 1 {
		return fmt.Errorf("%w: holes must be positive, got %d", ErrConfiguration, c.Holes)
	}
	if c.MaxMoves < 1 {
		return fmt.Errorf("%w: max moves must be positive, got %d", ErrConfiguration, c.MaxMoves)
	}
	return nil
}

// Game holds the state of a single Mastermind session.
type Game struct {
	owner    string
	palette  []Color
	holes    int
	maxMoves int
	secret   Code
	moves    []Move
}

// New validates cfg and starts a game with zero moves.
// If cfg.Secret is empty, a random secret is drawn from cfg.Rand.
func New(cfg Config) (*Game, error) {
	cfg = cfg.WithDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	g := &Game{
		owner:    cfg.Owner,
		palette:  append([]Color(nil), cfg.Palette...),
		holes:    cfg.Holes,
		maxMoves: cfg.MaxMoves,
		moves:    []Move{},
	}

	if len(cfg.Secret) == 0 {
		rng := cfg.Rand
		if rng == nil {
			rng = rand.New(cryptorand.NewSource())
		}
		secret, err := GenerateRandomCode(rng, g.palette, g.holes)
		if err != nil {
			return nil, err
		}
		g.secret = secret
		return g, nil
	}

	if len(cfg.Secret) != g.holes {
		return nil, fmt.Errorf("%w: secret has %d pegs, want %d", ErrConfiguration, len(cfg.Secret), g.holes)
	}
	for _, col := range cfg.Secret {
		if !g.inPalette(col) {
			return nil, fmt.Errorf("%w: secret color %q not in palette", ErrConfiguration, col)
		}
	}
	g.secret = cfg.Secret.Clone()
	return g, nil
}

// Restore rebuilds a game by replaying persisted moves against cfg.Secret.
// Each move must carry the next position and the feedback the scorer
// produces for it, and no move may follow a terminal state.
func Restore(cfg Config, moves []Move) (*Game, error) {
	if len(cfg.Secret) == 0 {
		return nil, fmt.Errorf("%w: restore requires the secret", ErrConfiguration)
	}
	g, err := New(cfg)
	if err != nil {
		return nil, err
	}
	for i, m := range moves {
		if m.Position != i+1 {
			return nil, fmt.Errorf("%w: move %d has position %d", ErrCorruptHistory, i+1, m.Position)
		}
		replayed, err := g.SubmitGuess(m.Guess)
		if err != nil {
			return nil, fmt.Errorf("%w: move %d: %v", ErrCorruptHistory, m.Position, err)
		}
		if replayed.Feedback != m.Feedback {
			return nil, fmt.Errorf("%w: move %d recorded %+v, scored %+v",
				ErrCorruptHistory, m.Position, m.Feedback, replayed.Feedback)
		}
	}
	return g, nil
}

// SubmitGuess validates and scores a guess, appending one Move.
//
// Preconditions, first failure wins:
//   - len(guess) == holes, else ErrInvalidGuessLength.
//   - every color is in the palette, else ErrInvalidColor.
//   - the game is in progress, else ErrAlreadyWon or ErrNoMovesRemaining.
//
// On error the game is left untouched.
func (g *Game) SubmitGuess(guess Code) (Move, error) {
	if len(guess) != g.holes {
		return Move{}, fmt.Errorf("%w: got %d pegs, want %d", ErrInvalidGuessLength, len(guess), g.holes)
	}
	for i, col := range guess {
		if !g.inPalette(col) {
			return Move{}, fmt.Errorf("%w: %q in hole %d", ErrInvalidColor, col, i+1)
		}
	}
	st := g.Status()
	if st.Won {
		return Move{}, ErrAlreadyWon
	}
	if st.RemainingMoves <= 0 {
		return Move{}, ErrNoMovesRemaining
	}

	fb, err := Score(g.secret, guess)
	if err != nil {
		return Move{}, err
	}
	mv := Move{Position: len(g.moves) + 1, Guess: guess.Clone(), Feedback: fb}
	g.moves = append(g.moves, mv)
	return mv.clone(), nil
}

// Status derives the current counters from the move history.
func (g *Game) Status() Status {
	st := Status{
		MovesPlayed:    len(g.moves),
		RemainingMoves: g.maxMoves - len(g.moves),
	}
	for _, m := range g.moves {
		if m.Feedback.Black == g.holes {
			st.Won = true
			break
		}
	}
	st.Terminal = st.Won || st.RemainingMoves <= 0
	switch {
	case st.Won:
		st.State = StateWon
	case st.Terminal:
		st.State = StateLost
	default:
		st.State = StateInProgress
	}
	return st
}

// Palette returns a copy of the colors guesses may use.
func (g *Game) Palette() []Color { return append([]Color(nil), g.palette...) }

// Holes is the number of pegs in the secret and in every guess.
func (g *Game) Holes() int { return g.holes }

// MaxMoves is the guess budget fixed at creation.
func (g *Game) MaxMoves() int { return g.maxMoves }

// Owner returns the codebreaker reference given in Config.
func (g *Game) Owner() string { return g.owner }

// Moves returns a copy of the move history in submission order.
func (g *Game) Moves() []Move {
	out := make([]Move, len(g.moves))
	for i, m := range g.moves {
		out[i] = m.clone()
	}
	return out
}

// inPalette reports whether c is one of the game's colors.
func (g *Game) inPalette(c Color) bool {
	for _, p := range g.palette {
		if p == c {
			return true
		}
	}
	return false
}
