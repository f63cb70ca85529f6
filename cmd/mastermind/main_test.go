package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/robalobadob/mastermind/internal/config"
	"github.com/robalobadob/mastermind/internal/game"
)

func execute(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := newRootCmd()
	cmd.SetArgs(args)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	err := cmd.Execute()
	return out.String(), err
}

func newLocalGame(t *testing.T, maxMoves int) (*game.Game, game.Code) {
	t.Helper()
	secret := game.Code{"red", "orange", "yellow", "green"}
	g, err := game.New(game.Config{Secret: secret, MaxMoves: maxMoves})
	if err != nil {
		t.Fatal(err)
	}
	return g, secret
}

func TestRunPlay_Win(t *testing.T) {
	g, secret := newLocalGame(t, 0)
	in := "red,orange,green,yellow\n\npink,red,red,red\nred,orange,yellow,green\nblue,blue,blue,blue\n"
	var out bytes.Buffer
	if err := runPlay(strings.NewReader(in), &out, g, secret); err != nil {
		t.Fatal(err)
	}
	got := out.String()
	for _, want := range []string{"rejected:", "You cracked the code in 2 moves.", "red,orange,green,yellow"} {
		if !strings.Contains(got, want) {
			t.Errorf("output missing %q:\n%s", want, got)
		}
	}
	if n := g.Status().MovesPlayed; n != 2 {
		t.Errorf("played %d moves, want 2", n)
	}
}

func TestRunPlay_LoseAndQuit(t *testing.T) {
	g, secret := newLocalGame(t, 2)
	var out bytes.Buffer
	if err := runPlay(strings.NewReader("blue,blue,blue,blue\npurple,purple,purple,purple\n"), &out, g, secret); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out.String(), "Out of moves. The code was red,orange,yellow,green.") {
		t.Errorf("unexpected output:\n%s", out.String())
	}

	g, secret = newLocalGame(t, 0)
	out.Reset()
	if err := runPlay(strings.NewReader("QUIT\n"), &out, g, secret); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out.String(), "The code was red,orange,yellow,green.") || g.Status().MovesPlayed != 0 {
		t.Errorf("unexpected output:\n%s", out.String())
	}
}

func TestScoreCmd(t *testing.T) {
	out, err := execute(t, "", "score", "red,blue,blue,green", "blue,red,blue,yellow")
	if err != nil {
		t.Fatal(err)
	}
	if out != "black=1 white=2\n" {
		t.Errorf("got %q", out)
	}

	out, err = execute(t, "", "score", "--json", "red,red", "red,red")
	if err != nil {
		t.Fatal(err)
	}
	var fb game.Feedback
	if err := json.Unmarshal([]byte(out), &fb); err != nil || fb != (game.Feedback{Black: 2}) {
		t.Errorf("json output %q (%v)", out, err)
	}

	if _, err := execute(t, "", "score", "red,red", "red"); err == nil {
		t.Error("expected a length mismatch error")
	}
}

func TestRulesCmd(t *testing.T) {
	out, err := execute(t, "", "rules", "--example")
	if err != nil {
		t.Fatal(err)
	}
	example, err := config.FromYAML([]byte(out))
	if err != nil {
		t.Fatalf("example rules do not parse: %v", err)
	}
	if diff := cmp.Diff(config.Default(), example); diff != "" {
		t.Errorf("example rules differ from defaults (-want +got)\n%s", diff)
	}

	path := filepath.Join(t.TempDir(), "rules.yml")
	if err := os.WriteFile(path, []byte("holes: 5\npalette: [a, b, c]\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("MASTERMIND_CONFIG", path)
	out, err = execute(t, "", "rules", "--json")
	if err != nil {
		t.Fatal(err)
	}
	var got config.Rules
	if err := json.Unmarshal([]byte(out), &got); err != nil {
		t.Fatal(err)
	}
	want := config.Rules{Palette: []string{"a", "b", "c"}, Holes: 5, MaxMoves: game.DefaultMaxMoves}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("rules from env config (-want +got)\n%s", diff)
	}
}

func TestPlayCmd_Seeded(t *testing.T) {
	// Same seed, same secret: giving up twice must reveal the same code.
	reveal := func() string {
		out, err := execute(t, "quit\n", "play", "--seed", "7")
		if err != nil {
			t.Fatal(err)
		}
		i := strings.Index(out, "The code was ")
		if i < 0 {
			t.Fatalf("no reveal in output:\n%s", out)
		}
		return out[i:]
	}
	if a, b := reveal(), reveal(); a != b {
		t.Errorf("seeded secrets differ: %q vs %q", a, b)
	}
}
