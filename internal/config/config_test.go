package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/robalobadob/mastermind/internal/game"
)

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	r, err := Load(filepath.Join(t.TempDir(), "nope.yml"))
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(Default(), r); diff != "" {
		t.Errorf("unexpected rules (-want +got)\n%s", diff)
	}
}

func TestLoad_PartialFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rules.yml")
	if err := os.WriteFile(path, []byte("holes: 5\nmax_moves: 10\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	r, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	want := Default()
	want.Holes, want.MaxMoves = 5, 10
	if diff := cmp.Diff(want, r); diff != "" {
		t.Errorf("unexpected rules (-want +got)\n%s", diff)
	}
}

func TestFromYAML_Invalid(t *testing.T) {
	cases := map[string]string{
		"negative holes": "holes: -1\n",
		"empty palette":  "palette: []\n",
		"duplicate":      "palette: [red, red]\n",
		"case duplicate": "palette: [red, RED]\n",
		"zero moves":     "max_moves: -2\n",
	}
	for name, doc := range cases {
		t.Run(name, func(t *testing.T) {
			if _, err := FromYAML([]byte(doc)); !errors.Is(err, game.ErrConfiguration) {
				t.Fatalf("expected ErrConfiguration, got %v", err)
			}
		})
	}
	if _, err := FromYAML([]byte("holes: [")); err == nil {
		t.Fatal("expected parse error")
	}
}

func TestGameConfig(t *testing.T) {
	r := Rules{Palette: []string{"a", "b"}, Holes: 3, MaxMoves: 5}
	cfg := r.GameConfig()
	if cfg.Holes != 3 || cfg.MaxMoves != 5 || len(cfg.Palette) != 2 || cfg.Palette[1] != "b" {
		t.Fatalf("unexpected config %+v", cfg)
	}
}

func TestFromYAML_NormalizesPalette(t *testing.T) {
	r, err := FromYAML([]byte("palette: [' Red', BLUE, green]\n"))
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff([]string{"red", "blue", "green"}, r.Palette); diff != "" {
		t.Errorf("palette (-want +got)\n%s", diff)
	}
}
