// internal/store/sqlite.go
//
// SQLite implementation of Store.
// Responsibilities:
//   - Opening the database with safe defaults (WAL, busy timeout, foreign keys).
//   - Applying embedded migrations (idempotent, recorded in _migrations).
//   - Games, moves and users CRUD.
//
// Codes and palettes are stored as JSON arrays. The (game_id, position)
// primary key rejects a second move at the same position.

package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	sqlite3 "github.com/mattn/go-sqlite3"
	"github.com/rs/zerolog/log"

	"github.com/robalobadob/mastermind/assets"
	"github.com/robalobadob/mastermind/internal/game"
)

// SQLite is a Store backed by a SQLite database file.
type SQLite struct {
	db  *sql.DB
	now func() time.Time
}

// OpenSQLite opens (and creates if missing) the database at path and
// applies pending migrations.
func OpenSQLite(path string) (*SQLite, error) {
	// Ensure directory exists for ./data/mastermind.db, etc.
	dir := filepath.Dir(path)
	if dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("mkdir %s: %w", dir, err)
		}
	}

	db, err := sql.Open("sqlite3", path+"?_busy_timeout=5000&_journal_mode=WAL&_foreign_keys=on")
	if err != nil {
		return nil, err
	}
	if _, err := db.Exec(`PRAGMA foreign_keys = ON;`); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("set pragmas: %w", err)
	}
	if err := migrate(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &SQLite{db: db, now: func() time.Time { return time.Now().UTC() }}, nil
}

// migrate applies the embedded migrations in lexical order, each inside
// its own transaction, skipping those already recorded in _migrations.
func migrate(db *sql.DB) error {
	if _, err := db.Exec(`CREATE TABLE IF NOT EXISTS _migrations (name TEXT PRIMARY KEY);`); err != nil {
		return fmt.Errorf("create _migrations: %w", err)
	}
	migrations, err := assets.Migrations()
	if err != nil {
		return fmt.Errorf("load migrations: %w", err)
	}

	for _, m := range migrations {
		var done int
		err := db.QueryRow(`SELECT 1 FROM _migrations WHERE name=?`, m.Name).Scan(&done)
		if err == nil {
			log.Debug().Str("migration", m.Name).Msg("already applied")
			continue
		}
		if !errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("query _migrations: %w", err)
		}

		tx, err := db.Begin()
		if err != nil {
			return err
		}
		if _, err := tx.Exec(m.SQL); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("apply %s: %w", m.Name, err)
		}
		if _, err := tx.Exec(`INSERT INTO _migrations(name) VALUES (?)`, m.Name); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("record %s: %w", m.Name, err)
		}
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("commit %s: %w", m.Name, err)
		}
		log.Info().Str("migration", m.Name).Msg("applied")
	}
	return nil
}

func (s *SQLite) Close() error { return s.db.Close() }

/* -------------------------------- games --------------------------------- */

func (s *SQLite) CreateGame(ctx context.Context, g *GameRecord) error {
	if g.ID == "" {
		g.ID = NewID()
	}
	if g.CreatedAt.IsZero() {
		g.CreatedAt = s.now()
	}
	palette, err := json.Marshal(g.Palette)
	if err != nil {
		return err
	}
	secret, err := json.Marshal(g.Secret)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, `
        INSERT INTO games (id, owner, palette, holes, max_moves, secret, won, terminal, created_at, daily)
        VALUES (?, ?, ?, ?, ?, ?, 0, 0, ?, ?)`,
		g.ID, g.Owner, string(palette), g.Holes, g.MaxMoves, string(secret), formatTime(g.CreatedAt), g.Daily,
	)
	if isConstraint(err) {
		return ErrConflict
	}
	return err
}

func (s *SQLite) Game(ctx context.Context, id string) (*GameRecord, error) {
	row := s.db.QueryRowContext(ctx, `
        SELECT id, owner, palette, holes, max_moves, secret, won, terminal, created_at, COALESCE(finished_at,''), daily
        FROM games WHERE id=?`, id)
	return s.withMoves(ctx, row)
}

func (s *SQLite) DailyGame(ctx context.Context, owner, date string) (*GameRecord, error) {
	row := s.db.QueryRowContext(ctx, `
        SELECT id, owner, palette, holes, max_moves, secret, won, terminal, created_at, COALESCE(finished_at,''), daily
        FROM games WHERE owner=? AND daily=? AND daily <> ''`, owner, date)
	return s.withMoves(ctx, row)
}

// withMoves scans a single game row and loads its move history.
func (s *SQLite) withMoves(ctx context.Context, row *sql.Row) (*GameRecord, error) {
	g, err := scanGame(row, true)
	if err != nil {
		return nil, err
	}
	id := g.ID

	rows, err := s.db.QueryContext(ctx, `
        SELECT position, code, black, white FROM moves WHERE game_id=? ORDER BY position`, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	g.Moves = []game.Move{}
	for rows.Next() {
		var mv game.Move
		var code string
		if err := rows.Scan(&mv.Position, &code, &mv.Feedback.Black, &mv.Feedback.White); err != nil {
			return nil, err
		}
		if err := json.Unmarshal([]byte(code), &mv.Guess); err != nil {
			return nil, fmt.Errorf("decode move %d: %w", mv.Position, err)
		}
		g.Moves = append(g.Moves, mv)
	}
	return g, rows.Err()
}

func (s *SQLite) AppendMove(ctx context.Context, id string, mv game.Move, won, terminal bool) error {
	code, err := json.Marshal(mv.Guess)
	if err != nil {
		return err
	}
	now := formatTime(s.now())

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	var exists, count int
	if err := tx.QueryRowContext(ctx, `
        SELECT (SELECT COUNT(1) FROM games WHERE id=?), (SELECT COUNT(1) FROM moves WHERE game_id=?)`,
		id, id).Scan(&exists, &count); err != nil {
		return err
	}
	if exists == 0 {
		return ErrNotFound
	}
	if mv.Position != count+1 {
		return ErrConflict
	}
	if _, err := tx.ExecContext(ctx, `
        INSERT INTO moves (game_id, position, code, black, white, created_at)
        VALUES (?, ?, ?, ?, ?, ?)`,
		id, mv.Position, string(code), mv.Feedback.Black, mv.Feedback.White, now,
	); err != nil {
		if isConstraint(err) {
			return ErrConflict
		}
		return err
	}

	if terminal {
		_, err = tx.ExecContext(ctx, `UPDATE games SET won=?, terminal=1, finished_at=COALESCE(finished_at, ?) WHERE id=?`,
			won, now, id)
	} else {
		_, err = tx.ExecContext(ctx, `UPDATE games SET won=?, terminal=0 WHERE id=?`, won, id)
	}
	if err != nil {
		return err
	}
	return tx.Commit()
}

func (s *SQLite) GamesByOwner(ctx context.Context, owner string, limit int) ([]GameRecord, error) {
	if limit <= 0 {
		limit = defaultListLimit
	}
	rows, err := s.db.QueryContext(ctx, `
        SELECT id, owner, palette, holes, max_moves, secret, won, terminal, created_at, COALESCE(finished_at,''), daily
        FROM games WHERE owner=?
        ORDER BY created_at DESC
        LIMIT ?`, owner, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]GameRecord, 0, limit)
	for rows.Next() {
		g, err := scanGame(rows, false)
		if err != nil {
			return nil, err
		}
		out = append(out, *g)
	}
	return out, rows.Err()
}

func (s *SQLite) DailyLeaderboard(ctx context.Context, date string, limit int) ([]LeaderboardRow, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx, `
        SELECT g.owner, COALESCE(u.username,''),
               (SELECT COUNT(1) FROM moves m WHERE m.game_id = g.id) AS n,
               COALESCE(g.finished_at,'')
        FROM games g LEFT JOIN users u ON u.id = g.owner
        WHERE g.daily=? AND g.daily <> '' AND g.won=1
        ORDER BY n ASC, g.finished_at ASC
        LIMIT ?`, date, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []LeaderboardRow{}
	for rows.Next() {
		var r LeaderboardRow
		var finished string
		if err := rows.Scan(&r.Owner, &r.Username, &r.Moves, &finished); err != nil {
			return nil, err
		}
		r.FinishedAt = parseTime(finished)
		out = append(out, r)
	}
	return out, rows.Err()
}

// scanner is satisfied by *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanGame(row scanner, single bool) (*GameRecord, error) {
	var g GameRecord
	var palette, secret, created, finished string
	if err := row.Scan(&g.ID, &g.Owner, &palette, &g.Holes, &g.MaxMoves, &secret,
		&g.Won, &g.Terminal, &created, &finished, &g.Daily); err != nil {
		if single && errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if err := json.Unmarshal([]byte(palette), &g.Palette); err != nil {
		return nil, fmt.Errorf("decode palette: %w", err)
	}
	if err := json.Unmarshal([]byte(secret), &g.Secret); err != nil {
		return nil, fmt.Errorf("decode secret: %w", err)
	}
	g.CreatedAt = parseTime(created)
	g.FinishedAt = parseTime(finished)
	return &g, nil
}

/* -------------------------------- users --------------------------------- */

func (s *SQLite) CreateUser(ctx context.Context, u *User) error {
	if u.ID == "" {
		u.ID = NewID()
	}
	if u.CreatedAt.IsZero() {
		u.CreatedAt = s.now()
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO users (id, username, password_hash, created_at) VALUES (?,?,?,?)`,
		u.ID, u.Username, u.PasswordHash, formatTime(u.CreatedAt))
	if isConstraint(err) {
		return ErrUsernameTaken
	}
	return err
}

func (s *SQLite) UserByID(ctx context.Context, id string) (*User, error) {
	row := s.db.QueryRowContext(ctx, `SELECT id, username, password_hash, created_at, games_played, wins, streak
	                                  FROM users WHERE id=?`, id)
	return scanUser(row)
}

func (s *SQLite) UserByName(ctx context.Context, username string) (*User, error) {
	row := s.db.QueryRowContext(ctx, `SELECT id, username, password_hash, created_at, games_played, wins, streak
	                                  FROM users WHERE lower(username)=lower(?)`, username)
	return scanUser(row)
}

func scanUser(row *sql.Row) (*User, error) {
	var u User
	var created string
	if err := row.Scan(&u.ID, &u.Username, &u.PasswordHash, &created, &u.GamesPlayed, &u.Wins, &u.Streak); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	u.CreatedAt = parseTime(created)
	return &u, nil
}

// RecordResult increments games played; updates wins and streak (within tx).
func (s *SQLite) RecordResult(ctx context.Context, userID string, won bool) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	var gp, wins, streak int
	row := tx.QueryRowContext(ctx, `SELECT games_played, wins, streak FROM users WHERE id=?`, userID)
	if err := row.Scan(&gp, &wins, &streak); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrNotFound
		}
		return err
	}
	gp++
	if won {
		wins++
		streak++
	} else {
		streak = 0
	}
	if _, err := tx.ExecContext(ctx, `UPDATE users SET games_played=?, wins=?, streak=? WHERE id=?`,
		gp, wins, streak, userID); err != nil {
		return err
	}
	return tx.Commit()
}

/* ------------------------------- helpers -------------------------------- */

func isConstraint(err error) bool {
	var se sqlite3.Error
	if errors.As(err, &se) {
		return se.Code == sqlite3.ErrConstraint
	}
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}

// timeLayout keeps a fixed-width fraction so stored timestamps sort as text.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

func formatTime(t time.Time) string { return t.UTC().Format(timeLayout) }

// parseTime parses stored timestamps; empty or invalid input gives zero time.
func parseTime(s string) time.Time {
	t, _ := time.Parse(time.RFC3339Nano, s)
	return t
}
