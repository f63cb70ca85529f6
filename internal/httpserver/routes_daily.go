// internal/httpserver/routes_daily.go
//
// Daily code endpoints:
//   - POST /daily             start (or resume) today's game; auth required
//   - GET  /daily/leaderboard top solvers for today, or ?date=YYYY-MM-DD
//
// Moves on a daily game go through POST /moves like any other game.

package httpserver

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/robalobadob/mastermind/internal/auth"
	"github.com/robalobadob/mastermind/internal/daily"
)

func (s *Server) mountDaily() {
	s.r.Route("/daily", func(r chi.Router) {
		r.With(s.auth.RequireAuth).Post("/", s.handleDaily)
		r.Get("/leaderboard", s.handleLeaderboard)
	})
}

func (s *Server) handleDaily(w http.ResponseWriter, r *http.Request) {
	me := auth.FromContext(r.Context())
	v, err := s.games.Daily(r.Context(), me.ID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, v)
}

func (s *Server) handleLeaderboard(w http.ResponseWriter, r *http.Request) {
	date := r.URL.Query().Get("date")
	if date != "" {
		if _, err := daily.ParseKey(date); err != nil {
			writeJSON(w, http.StatusBadRequest, errorBody{Error: "invalid_date", Message: err.Error()})
			return
		}
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	board, err := s.games.Leaderboard(r.Context(), date, limit)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, board)
}
