package main

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"math/rand"
	"os"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/robalobadob/mastermind/assets"
	"github.com/robalobadob/mastermind/internal/config"
	"github.com/robalobadob/mastermind/internal/cryptorand"
	"github.com/robalobadob/mastermind/internal/game"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	v := viper.New()
	v.SetEnvPrefix("MASTERMIND")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	root := &cobra.Command{
		Use:   "mastermind",
		Short: "Mastermind in the terminal",
		Long: `Play Mastermind against a random secret, or score codes by hand.
Codes are comma separated colors, e.g. "red,blue,blue,green".
Black pegs count right color in the right hole; white pegs count right
color in the wrong hole.`,
		SilenceUsage: true,
	}
	root.PersistentFlags().String("config", "", "game rules YAML file (palette, holes, max_moves)")
	root.PersistentFlags().Bool("json", false, "output JSON")
	_ = v.BindPFlag("config", root.PersistentFlags().Lookup("config"))
	_ = v.BindPFlag("json", root.PersistentFlags().Lookup("json"))

	root.AddCommand(playCmd(v))
	root.AddCommand(scoreCmd(v))
	root.AddCommand(rulesCmd(v))
	return root
}

func playCmd(v *viper.Viper) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "play",
		Short: "Play an interactive game",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			rules, err := config.Load(v.GetString("config"))
			if err != nil {
				return err
			}
			cfg := rules.GameConfig()
			secret, err := game.GenerateRandomCode(newRand(v.GetInt64("seed")), cfg.Palette, cfg.Holes)
			if err != nil {
				return err
			}
			cfg.Secret = secret
			cfg.Owner = "local"
			g, err := game.New(cfg)
			if err != nil {
				return err
			}
			return runPlay(cmd.InOrStdin(), cmd.OutOrStdout(), g, secret)
		},
	}
	cmd.Flags().Int64("seed", 0, "seed for a reproducible secret (0 draws from crypto/rand)")
	_ = v.BindPFlag("seed", cmd.Flags().Lookup("seed"))
	return cmd
}

func newRand(seed int64) *rand.Rand {
	if seed == 0 {
		return rand.New(cryptorand.NewSource())
	}
	return rand.New(rand.NewSource(seed))
}

// runPlay reads one guess per line until the game ends, the input runs
// out, or the player types "quit".
func runPlay(in io.Reader, out io.Writer, g *game.Game, secret game.Code) error {
	fmt.Fprintf(out, "Guess %d colors from %s. You have %d moves; type \"quit\" to give up.\n",
		g.Holes(), game.Code(g.Palette()), g.MaxMoves())

	sc := bufio.NewScanner(in)
	for !g.Status().Terminal {
		fmt.Fprintf(out, "move %d> ", g.Status().MovesPlayed+1)
		if !sc.Scan() {
			break
		}
		line := strings.TrimSpace(sc.Text())
		switch strings.ToLower(line) {
		case "":
			continue
		case "quit", "exit":
			fmt.Fprintf(out, "The code was %s.\n", secret)
			return nil
		}
		if _, err := g.SubmitGuess(game.ParseCode(line)); err != nil {
			fmt.Fprintln(out, "rejected:", err)
			continue
		}
		renderHistory(out, g.Moves())
	}
	if err := sc.Err(); err != nil {
		return err
	}

	st := g.Status()
	switch st.State {
	case game.StateWon:
		fmt.Fprintf(out, "You cracked the code in %d moves.\n", st.MovesPlayed)
	case game.StateLost:
		fmt.Fprintf(out, "Out of moves. The code was %s.\n", secret)
	default:
		fmt.Fprintf(out, "\nGame abandoned. The code was %s.\n", secret)
	}
	return nil
}

func renderHistory(out io.Writer, moves []game.Move) {
	tw := table.NewWriter()
	tw.SetOutputMirror(out)
	tw.SetStyle(table.StyleLight)
	tw.AppendHeader(table.Row{"#", "Guess", "Black", "White"})
	for _, m := range moves {
		tw.AppendRow(table.Row{m.Position, m.Guess.String(), m.Feedback.Black, m.Feedback.White})
	}
	tw.Render()
}

func scoreCmd(v *viper.Viper) *cobra.Command {
	return &cobra.Command{
		Use:     "score <secret> <guess>",
		Short:   "Score a guess against a secret",
		Example: `  mastermind score red,blue,blue,green blue,red,blue,yellow`,
		Args:    cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			fb, err := game.Score(game.ParseCode(args[0]), game.ParseCode(args[1]))
			if err != nil {
				return err
			}
			if v.GetBool("json") {
				return json.NewEncoder(cmd.OutOrStdout()).Encode(fb)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "black=%d white=%d\n", fb.Black, fb.White)
			return nil
		},
	}
}

func rulesCmd(v *viper.Viper) *cobra.Command {
	var example bool
	cmd := &cobra.Command{
		Use:   "rules",
		Short: "Print the effective game rules",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			if example {
				b, err := assets.ExampleRules()
				if err != nil {
					return err
				}
				_, err = out.Write(b)
				return err
			}
			rules, err := config.Load(v.GetString("config"))
			if err != nil {
				return err
			}
			if v.GetBool("json") {
				return json.NewEncoder(out).Encode(rules)
			}
			enc := yaml.NewEncoder(out)
			defer enc.Close()
			return enc.Encode(rules)
		},
	}
	cmd.Flags().BoolVar(&example, "example", false, "print the annotated sample rules file instead")
	return cmd
}
