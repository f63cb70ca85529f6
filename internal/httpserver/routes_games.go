package httpserver

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/robalobadob/mastermind/internal/auth"
	"github.com/robalobadob/mastermind/internal/game"
)

// mountGameRoutes registers the game and move endpoints. All of them need
// a signed-in codebreaker; games are scoped to their owner.
func (s *Server) mountGameRoutes() {
	s.r.Group(func(r chi.Router) {
		r.Use(s.auth.RequireAuth)
		r.Post("/games", s.handleCreateGame)
		r.Get("/games/mine", s.handleMyGames)
		r.Get("/games/{id}", s.handleGetGame)
		r.Post("/moves", s.handleMove)
	})
}

// handleCreateGame starts a game with the server's rules. The body is
// ignored: clients choose neither the secret nor the move budget.
func (s *Server) handleCreateGame(w http.ResponseWriter, r *http.Request) {
	me := auth.FromContext(r.Context())
	v, err := s.games.Create(r.Context(), me.ID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, v)
}

func (s *Server) handleGetGame(w http.ResponseWriter, r *http.Request) {
	me := auth.FromContext(r.Context())
	v, err := s.games.Get(r.Context(), me.ID, chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, v)
}

// handleMyGames lists recent games; ?limit=N caps the list (default 50).
func (s *Server) handleMyGames(w http.ResponseWriter, r *http.Request) {
	me := auth.FromContext(r.Context())
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	list, err := s.games.Mine(r.Context(), me.ID, limit)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

// codeParam accepts either a JSON array of colors or a comma-separated
// string ("red,blue,green,yellow"). Both forms are trimmed and lowercased.
type codeParam game.Code

func (c *codeParam) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		*c = codeParam(game.ParseCode(s))
		return nil
	}
	var arr []string
	if err := json.Unmarshal(b, &arr); err != nil {
		return err
	}
	code := make(game.Code, len(arr))
	for i, col := range arr {
		code[i] = game.Color(strings.ToLower(strings.TrimSpace(col)))
	}
	*c = codeParam(code)
	return nil
}

type moveReq struct {
	Game string    `json:"game"`
	Code codeParam `json:"code"`
}

type moveRes struct {
	ID   string `json:"id"`
	Game string `json:"game"`
	game.Move
	Status game.Status `json:"status"`
}

// handleMove submits one guess to a game owned by the caller.
func (s *Server) handleMove(w http.ResponseWriter, r *http.Request) {
	var req moveReq
	if err := decode(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	if req.Game == "" {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "invalid_request", Message: "game is required"})
		return
	}
	me := auth.FromContext(r.Context())
	mv, st, err := s.games.Guess(r.Context(), me.ID, req.Game, game.Code(req.Code))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, moveRes{
		ID:     fmt.Sprintf("%s/%d", req.Game, mv.Position),
		Game:   req.Game,
		Move:   mv,
		Status: st,
	})
}
