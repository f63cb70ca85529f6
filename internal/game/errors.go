package game

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidGuessLength = errors.New("game: invalid guess length")
	ErrInvalidColor       = errors.New("game: invalid color")

	// ErrGameOver is wrapped by both terminal-state rejections, so callers
	// that do not care why a game is closed can test for it alone.
	ErrGameOver         = errors.New("game: game over")
	ErrAlreadyWon       = fmt.Errorf("%w: already won", ErrGameOver)
	ErrNoMovesRemaining = fmt.Errorf("%w: no moves remaining", ErrGameOver)

	ErrConfiguration  = errors.New("game: invalid configuration")
	ErrCorruptHistory = errors.New("game: corrupt move history")
)
