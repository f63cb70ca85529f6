package httpserver

import (
	"net/http"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/robalobadob/mastermind/internal/auth"
	"github.com/robalobadob/mastermind/internal/store"
)

type credentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// sessionRes is returned by signup and login. The token is also set as a
// cookie; it is echoed in the body for bearer-token clients.
type sessionRes struct {
	ID        string    `json:"id"`
	Username  string    `json:"username"`
	CreatedAt time.Time `json:"createdAt"`
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// mountAuthRoutes registers /auth/* and /stats/me.
func (s *Server) mountAuthRoutes() {
	s.r.Post("/auth/signup", s.handleSignup)
	s.r.Post("/auth/login", s.handleLogin)
	s.r.Post("/auth/logout", s.handleLogout)

	s.r.With(s.auth.RequireAuth).Get("/auth/me", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, auth.FromContext(r.Context()))
	})
	s.r.With(s.auth.RequireAuth).Get("/stats/me", s.handleStats)
}

func (s *Server) handleSignup(w http.ResponseWriter, r *http.Request) {
	var body credentials
	if err := decode(w, r, &body); err != nil {
		writeError(w, r, err)
		return
	}
	u, err := s.auth.Signup(r.Context(), body.Username, body.Password)
	if err != nil {
		writeError(w, r, err)
		return
	}
	log.Info().Str("user", u.ID).Str("username", u.Username).Msg("signup")
	s.startSession(w, r, http.StatusCreated, u)
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var body credentials
	if err := decode(w, r, &body); err != nil {
		writeError(w, r, err)
		return
	}
	u, err := s.auth.Login(r.Context(), body.Username, body.Password)
	if err != nil {
		writeError(w, r, err)
		return
	}
	s.startSession(w, r, http.StatusOK, u)
}

// startSession signs a token for u, sets the cookie and writes the body.
func (s *Server) startSession(w http.ResponseWriter, r *http.Request, status int, u *store.User) {
	tok, exp, err := s.auth.Sign(u.ID, u.Username)
	if err != nil {
		writeError(w, r, err)
		return
	}
	s.auth.SetCookie(w, tok, exp)
	writeJSON(w, status, sessionRes{
		ID:        u.ID,
		Username:  u.Username,
		CreatedAt: u.CreatedAt,
		Token:     tok,
		ExpiresAt: exp,
	})
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	s.auth.ClearCookie(w)
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	me := auth.FromContext(r.Context())
	u, err := s.users.UserByID(r.Context(), me.ID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"id":          u.ID,
		"gamesPlayed": u.GamesPlayed,
		"wins":        u.Wins,
		"streak":      u.Streak,
	})
}
