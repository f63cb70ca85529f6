// internal/store/store.go
//
// Persistence interface for games, moves and users.
// A game is stored as its configuration, secret and ordered moves; the
// engine rebuilds derived state from those on every request. Won and
// Terminal are cached next to the history so listings do not have to
// replay every game.

package store

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/robalobadob/mastermind/internal/game"
)

var (
	ErrNotFound      = errors.New("store: not found")
	ErrUsernameTaken = errors.New("store: username taken")
	// ErrConflict means a move was appended at a position that is already
	// taken, i.e. two submissions raced on the same game.
	ErrConflict = errors.New("store: conflicting move")
)

// GameRecord is the persisted form of a game.
type GameRecord struct {
	ID         string
	Owner      string
	Palette    []game.Color
	Holes      int
	MaxMoves   int
	Secret     game.Code
	Moves      []game.Move
	Won        bool
	Terminal   bool
	CreatedAt  time.Time
	FinishedAt time.Time // zero while in progress
	// Daily is the UTC date key ("2006-01-02") of a daily game, empty otherwise.
	Daily string
}

// GameConfig returns the engine config needed to restore the record.
func (r *GameRecord) GameConfig() game.Config {
	return game.Config{
		Palette:  r.Palette,
		Holes:    r.Holes,
		MaxMoves: r.MaxMoves,
		Secret:   r.Secret,
		Owner:    r.Owner,
	}
}

// Clone deep-copies the record.
func (r *GameRecord) Clone() *GameRecord {
	c := *r
	c.Palette = append([]game.Color(nil), r.Palette...)
	c.Secret = r.Secret.Clone()
	c.Moves = make([]game.Move, len(r.Moves))
	for i, m := range r.Moves {
		m.Guess = m.Guess.Clone()
		c.Moves[i] = m
	}
	return &c
}

// User matches the users table shape.
type User struct {
	ID           string
	Username     string
	PasswordHash string
	CreatedAt    time.Time
	GamesPlayed  int
	Wins         int
	Streak       int
}

// defaultListLimit caps GamesByOwner when no positive limit is given.
const defaultListLimit = 50

// LeaderboardRow is one solved daily game. Owner is never serialized:
// the board is public and user IDs are not.
type LeaderboardRow struct {
	Owner      string    `json:"-"`
	Username   string    `json:"username"`
	Moves      int       `json:"moves"`
	FinishedAt time.Time `json:"finishedAt"`
}

// Store defines the persistence interface.
// Implementations: in-memory (this package) and SQLite (sqlite.go).
type Store interface {
	// CreateGame inserts a new game with no moves. An empty ID is assigned.
	CreateGame(ctx context.Context, g *GameRecord) error
	// Game loads a game with its full move history.
	Game(ctx context.Context, id string) (*GameRecord, error)
	// AppendMove stores the next move and the cached won/terminal flags.
	// The move position must be exactly one past the stored history.
	AppendMove(ctx context.Context, id string, mv game.Move, won, terminal bool) error
	// GamesByOwner lists the owner's games, newest first, without moves.
	GamesByOwner(ctx context.Context, owner string, limit int) ([]GameRecord, error)
	// DailyGame returns the owner's daily game for date. Creating a second
	// daily game for the same owner and date fails with ErrConflict.
	DailyGame(ctx context.Context, owner, date string) (*GameRecord, error)
	// DailyLeaderboard ranks won daily games for date by moves, then finish time.
	DailyLeaderboard(ctx context.Context, date string, limit int) ([]LeaderboardRow, error)

	CreateUser(ctx context.Context, u *User) error
	UserByID(ctx context.Context, id string) (*User, error)
	UserByName(ctx context.Context, username string) (*User, error)
	// RecordResult bumps games played, wins and the win streak.
	RecordResult(ctx context.Context, userID string, won bool) error

	Close() error
}

// NewID returns a random identifier for games and users.
func NewID() string {
	return uuid.NewString()
}
