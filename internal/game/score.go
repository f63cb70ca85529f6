package game

import (
	"fmt"
)

// Score compares guess against secret using the two-pass peg rule.
//
// Pass 1:
//   - Count exact matches as black, comparing original indices only, so a
//     match never shifts the alignment of later holes.
//   - Tally the secret colors left over in non-black holes.
//
// Pass 2:
//   - For each non-black guess peg, if the tally still holds that color,
//     count a white and consume one occurrence.
//
// The result is order independent and never counts a color more often
// than min(remaining in secret, remaining in guess).
func Score(secret, guess Code) (Feedback, error) {
	if len(guess) != len(secret) {
		return Feedback{}, fmt.Errorf("%w: got %d pegs, want %d", ErrInvalidGuessLength, len(guess), len(secret))
	}

	var fb Feedback
	remaining := make(map[Color]int, len(secret))
	unmatched := make([]Color, 0, len(guess))

	for i := range secret {
		if guess[i] == secret[i] {
			fb.Black++
			continue
		}
		remaining[secret[i]]++
		unmatched = append(unmatched, guess[i])
	}

	for _, c := range unmatched {
		if remaining[c] > 0 {
			fb.White++
			remaining[c]--
		}
	}
	return fb, nil
}
