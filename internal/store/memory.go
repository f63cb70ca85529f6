// internal/store/memory.go
//
// In-memory implementation of Store.
// Used for ephemeral sessions in development/testing, or when durability
// is not required.
//
// Characteristics:
//   - Records keyed by ID in maps, cloned on the way in and out.
//   - Concurrency-safe via RWMutex (concurrent reads allowed, writes exclusive).
//   - State is lost when the process restarts.

package store

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/robalobadob/mastermind/internal/game"
)

// memory is an in-memory map-based Store implementation.
type memory struct {
	mu    sync.RWMutex           // guards games and users
	games map[string]*GameRecord // keyed by GameRecord.ID
	users map[string]*User       // keyed by User.ID
	now   func() time.Time
}

// NewMemoryStore constructs a new in-memory Store.
func NewMemoryStore() Store {
	return &memory{
		games: make(map[string]*GameRecord),
		users: make(map[string]*User),
		now:   func() time.Time { return time.Now().UTC() },
	}
}

func (m *memory) CreateGame(ctx context.Context, g *GameRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if g.Daily != "" {
		for _, existing := range m.games {
			if existing.Owner == g.Owner && existing.Daily == g.Daily {
				return ErrConflict
			}
		}
	}
	if g.ID == "" {
		g.ID = NewID()
	}
	if g.CreatedAt.IsZero() {
		g.CreatedAt = m.now()
	}
	c := g.Clone()
	c.Moves = nil
	m.games[g.ID] = c
	return nil
}

func (m *memory) Game(ctx context.Context, id string) (*GameRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if g, ok := m.games[id]; ok {
		return g.Clone(), nil
	}
	return nil, ErrNotFound
}

func (m *memory) AppendMove(ctx context.Context, id string, mv game.Move, won, terminal bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	g, ok := m.games[id]
	if !ok {
		return ErrNotFound
	}
	if mv.Position != len(g.Moves)+1 {
		return ErrConflict
	}
	mv.Guess = mv.Guess.Clone()
	g.Moves = append(g.Moves, mv)
	g.Won, g.Terminal = won, terminal
	if terminal && g.FinishedAt.IsZero() {
		g.FinishedAt = m.now()
	}
	return nil
}

func (m *memory) GamesByOwner(ctx context.Context, owner string, limit int) ([]GameRecord, error) {
	if limit <= 0 {
		limit = defaultListLimit
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []GameRecord
	for _, g := range m.games {
		if g.Owner != owner {
			continue
		}
		c := g.Clone()
		c.Moves = nil
		out = append(out, *c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *memory) DailyGame(ctx context.Context, owner, date string) (*GameRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, g := range m.games {
		if date != "" && g.Owner == owner && g.Daily == date {
			return g.Clone(), nil
		}
	}
	return nil, ErrNotFound
}

func (m *memory) DailyLeaderboard(ctx context.Context, date string, limit int) ([]LeaderboardRow, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := []LeaderboardRow{}
	for _, g := range m.games {
		if date == "" || g.Daily != date || !g.Won {
			continue
		}
		row := LeaderboardRow{Owner: g.Owner, Moves: len(g.Moves), FinishedAt: g.FinishedAt}
		if u, ok := m.users[g.Owner]; ok {
			row.Username = u.Username
		}
		out = append(out, row)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Moves != out[j].Moves {
			return out[i].Moves < out[j].Moves
		}
		return out[i].FinishedAt.Before(out[j].FinishedAt)
	})
	if limit <= 0 {
		limit = 20
	}
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *memory) CreateUser(ctx context.Context, u *User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.users {
		if strings.EqualFold(existing.Username, u.Username) {
			return ErrUsernameTaken
		}
	}
	if u.ID == "" {
		u.ID = NewID()
	}
	if u.CreatedAt.IsZero() {
		u.CreatedAt = m.now()
	}
	c := *u
	m.users[u.ID] = &c
	return nil
}

func (m *memory) UserByID(ctx context.Context, id string) (*User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if u, ok := m.users[id]; ok {
		c := *u
		return &c, nil
	}
	return nil, ErrNotFound
}

func (m *memory) UserByName(ctx context.Context, username string) (*User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, u := range m.users {
		if strings.EqualFold(u.Username, username) {
			c := *u
			return &c, nil
		}
	}
	return nil, ErrNotFound
}

func (m *memory) RecordResult(ctx context.Context, userID string, won bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[userID]
	if !ok {
		return ErrNotFound
	}
	u.GamesPlayed++
	if won {
		u.Wins++
		u.Streak++
	} else {
		u.Streak = 0
	}
	return nil
}

func (m *memory) Close() error { return nil }
