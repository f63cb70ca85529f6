// db.go
//
// Store selection for the server binary.
//   - STORE=sqlite (default): SQLite file at DB_PATH, migrated on open.
//   - STORE=memory: process-local maps, lost on restart.

package main

import (
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/robalobadob/mastermind/internal/store"
)

func openStore(kind, path string) (store.Store, error) {
	switch strings.ToLower(strings.TrimSpace(kind)) {
	case "memory", "mem":
		log.Info().Msg("using in-memory store")
		return store.NewMemoryStore(), nil
	case "sqlite", "sqlite3", "":
		st, err := store.OpenSQLite(path)
		if err != nil {
			return nil, fmt.Errorf("open sqlite %s: %w", path, err)
		}
		log.Info().Str("path", path).Msg("using sqlite store")
		return st, nil
	default:
		return nil, fmt.Errorf("unknown STORE %q (want sqlite or memory)", kind)
	}
}
