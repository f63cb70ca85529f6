// internal/service/games.go
//
// Game orchestration between the HTTP layer, the store and the engine.
// Each request rebuilds the game from its stored history, applies at most
// one guess, and persists only the appended move.
//
// Submissions for the same game are serialized with a per-ID lock, since
// the engine does no locking of its own.

package service

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/robalobadob/mastermind/internal/cryptorand"
	"github.com/robalobadob/mastermind/internal/daily"
	"github.com/robalobadob/mastermind/internal/game"
	"github.com/robalobadob/mastermind/internal/store"
)

var (
	ErrNotFound  = errors.New("game not found")
	ErrForbidden = errors.New("game belongs to another codebreaker")
)

// GameView is what callers may see of a game. It never carries the secret.
type GameView struct {
	ID            string       `json:"id"`
	Codebreaker   string       `json:"codebreaker"`
	NumberOfMoves int          `json:"numberOfMoves"`
	Holes         int          `json:"holes"`
	ColorChoices  []game.Color `json:"colorChoices"`
	Moves         []game.Move  `json:"moves"`
	Status        game.Status  `json:"status"`
	CreatedAt     time.Time    `json:"createdAt"`
	Daily         string       `json:"daily,omitempty"`
}

// Summary is a game listing row.
type Summary struct {
	ID         string     `json:"id"`
	State      game.State `json:"state"`
	CreatedAt  time.Time  `json:"createdAt"`
	FinishedAt *time.Time `json:"finishedAt,omitempty"`
	Daily      string     `json:"daily,omitempty"`
}

// Board is the daily leaderboard for one date.
type Board struct {
	Date string                 `json:"date"`
	Top  []store.LeaderboardRow `json:"top"`
}

// Games creates and advances games on behalf of authenticated codebreakers.
type Games struct {
	store store.Store
	rules game.Config

	rngMu sync.Mutex
	rng   game.Source

	locksMu sync.Mutex
	locks   map[string]*gameLock

	dailySalt string
	now       func() time.Time
}

type gameLock struct {
	mu   sync.Mutex
	refs int
}

// NewGames builds the service. rules supplies palette, holes and move
// budget for new games; rng draws their secrets (nil means crypto/rand).
func NewGames(st store.Store, rules game.Config, rng game.Source) *Games {
	if rng == nil {
		rng = rand.New(cryptorand.NewSource())
	}
	return &Games{
		store: st,
		rules: rules.WithDefaults(),
		rng:   rng,
		locks: make(map[string]*gameLock),

		dailySalt: "local_dev_salt",
		now:       time.Now,
	}
}

// WithDailySalt sets the secret salt daily codes are derived from.
func (s *Games) WithDailySalt(salt string) *Games {
	if salt != "" {
		s.dailySalt = salt
	}
	return s
}

// Rules returns the configuration new games are created with.
func (s *Games) Rules() game.Config {
	r := s.rules
	r.Palette = append([]game.Color(nil), r.Palette...)
	return r
}

// Create starts a new game for owner with a fresh random secret.
func (s *Games) Create(ctx context.Context, owner string) (*GameView, error) {
	secret, err := s.drawSecret()
	if err != nil {
		return nil, err
	}
	return s.create(ctx, owner, secret, "")
}

func (s *Games) create(ctx context.Context, owner string, secret game.Code, date string) (*GameView, error) {
	cfg := s.Rules()
	cfg.Secret, cfg.Owner = secret, owner
	g, err := game.New(cfg)
	if err != nil {
		return nil, err
	}

	rec := &store.GameRecord{
		Owner:    owner,
		Palette:  g.Palette(),
		Holes:    g.Holes(),
		MaxMoves: g.MaxMoves(),
		Secret:   secret,
		Daily:    date,
	}
	if err := s.store.CreateGame(ctx, rec); err != nil {
		return nil, fmt.Errorf("save game: %w", err)
	}
	log.Info().Str("gameId", rec.ID).Str("owner", owner).Str("daily", date).Msg("game created")
	return view(rec, g), nil
}

// Daily returns the owner's game for today's shared code, starting it on
// the first call of the day. Moves are submitted through Guess as usual.
func (s *Games) Daily(ctx context.Context, owner string) (*GameView, error) {
	now := s.now()
	date := daily.DateKey(now)
	v, err := s.dailyView(ctx, owner, date)
	if !errors.Is(err, ErrNotFound) {
		return v, err
	}

	secret, err := game.GenerateRandomCode(daily.Source(now, s.dailySalt), s.rules.Palette, s.rules.Holes)
	if err != nil {
		return nil, err
	}
	v, err = s.create(ctx, owner, secret, date)
	if errors.Is(err, store.ErrConflict) {
		// a concurrent request created it first
		return s.dailyView(ctx, owner, date)
	}
	return v, err
}

func (s *Games) dailyView(ctx context.Context, owner, date string) (*GameView, error) {
	rec, err := s.store.DailyGame(ctx, owner, date)
	if errors.Is(err, store.ErrNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	g, err := game.Restore(rec.GameConfig(), rec.Moves)
	if err != nil {
		return nil, err
	}
	return view(rec, g), nil
}

// Leaderboard ranks the solved daily games of date ("" means today).
func (s *Games) Leaderboard(ctx context.Context, date string, limit int) (*Board, error) {
	if date == "" {
		date = daily.DateKey(s.now())
	}
	top, err := s.store.DailyLeaderboard(ctx, date, limit)
	if err != nil {
		return nil, err
	}
	return &Board{Date: date, Top: top}, nil
}

func (s *Games) drawSecret() (game.Code, error) {
	s.rngMu.Lock()
	defer s.rngMu.Unlock()
	return game.GenerateRandomCode(s.rng, s.rules.Palette, s.rules.Holes)
}

// Get returns the owner's game with its move history.
func (s *Games) Get(ctx context.Context, owner, id string) (*GameView, error) {
	rec, g, err := s.load(ctx, owner, id)
	if err != nil {
		return nil, err
	}
	return view(rec, g), nil
}

// Guess submits one guess to the owner's game and persists the move.
// Engine errors (invalid length/color, game over) are returned unchanged.
func (s *Games) Guess(ctx context.Context, owner, id string, guess game.Code) (game.Move, game.Status, error) {
	unlock := s.lock(id)
	defer unlock()

	_, g, err := s.load(ctx, owner, id)
	if err != nil {
		return game.Move{}, game.Status{}, err
	}
	mv, err := g.SubmitGuess(guess)
	if err != nil {
		return game.Move{}, game.Status{}, err
	}
	st := g.Status()
	if err := s.store.AppendMove(ctx, id, mv, st.Won, st.Terminal); err != nil {
		return game.Move{}, game.Status{}, fmt.Errorf("save move: %w", err)
	}

	ev := log.Debug()
	if st.Terminal {
		ev = log.Info()
		if err := s.store.RecordResult(ctx, owner, st.Won); err != nil && !errors.Is(err, store.ErrNotFound) {
			log.Warn().Err(err).Str("user", owner).Msg("record result")
		}
	}
	ev.Str("gameId", id).Int("position", mv.Position).Str("state", string(st.State)).Msg("move played")
	return mv, st, nil
}

// Mine lists the owner's most recent games.
func (s *Games) Mine(ctx context.Context, owner string, limit int) ([]Summary, error) {
	recs, err := s.store.GamesByOwner(ctx, owner, limit)
	if err != nil {
		return nil, err
	}
	out := make([]Summary, 0, len(recs))
	for _, r := range recs {
		sum := Summary{ID: r.ID, CreatedAt: r.CreatedAt, State: cachedState(r), Daily: r.Daily}
		if !r.FinishedAt.IsZero() {
			t := r.FinishedAt
			sum.FinishedAt = &t
		}
		out = append(out, sum)
	}
	return out, nil
}

// cachedState reads the state from the flags stored with the record.
func cachedState(r store.GameRecord) game.State {
	switch {
	case r.Won:
		return game.StateWon
	case r.Terminal:
		return game.StateLost
	default:
		return game.StateInProgress
	}
}

// load fetches, authorizes and replays a game.
func (s *Games) load(ctx context.Context, owner, id string) (*store.GameRecord, *game.Game, error) {
	rec, err := s.store.Game(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return nil, nil, ErrNotFound
	}
	if err != nil {
		return nil, nil, err
	}
	if rec.Owner != owner {
		return nil, nil, ErrForbidden
	}
	g, err := game.Restore(rec.GameConfig(), rec.Moves)
	if err != nil {
		log.Error().Err(err).Str("gameId", id).Msg("restore game")
		return nil, nil, err
	}
	return rec, g, nil
}

// lock acquires the per-game mutex and returns its release func.
// Entries are dropped once no caller holds or waits on them.
func (s *Games) lock(id string) func() {
	s.locksMu.Lock()
	l, ok := s.locks[id]
	if !ok {
		l = &gameLock{}
		s.locks[id] = l
	}
	l.refs++
	s.locksMu.Unlock()

	l.mu.Lock()
	return func() {
		l.mu.Unlock()
		s.locksMu.Lock()
		l.refs--
		if l.refs == 0 {
			delete(s.locks, id)
		}
		s.locksMu.Unlock()
	}
}

func view(rec *store.GameRecord, g *game.Game) *GameView {
	return &GameView{
		ID:            rec.ID,
		Codebreaker:   g.Owner(),
		NumberOfMoves: g.MaxMoves(),
		Holes:         g.Holes(),
		ColorChoices:  g.Palette(),
		Moves:         g.Moves(),
		Status:        g.Status(),
		CreatedAt:     rec.CreatedAt,
		Daily:         rec.Daily,
	}
}
