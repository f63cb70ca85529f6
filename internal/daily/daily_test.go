package daily

import (
	"testing"
	"time"

	"github.com/robalobadob/mastermind/internal/game"
)

func TestDateKey(t *testing.T) {
	loc := time.FixedZone("UTC+10", 10*60*60)
	// 08:00 local on the 2nd is 22:00 UTC on the 1st.
	if got := DateKey(time.Date(2024, 3, 2, 8, 0, 0, 0, loc)); got != "2024-03-01" {
		t.Fatalf("DateKey = %q", got)
	}
	if _, err := ParseKey("2024-03-01"); err != nil {
		t.Fatal(err)
	}
	for _, bad := range []string{"", "2024-3-1", "yesterday", "2024-02-30"} {
		if _, err := ParseKey(bad); err == nil {
			t.Errorf("ParseKey(%q) accepted", bad)
		}
	}
}

func TestSource_SameDaySameSecret(t *testing.T) {
	morning := time.Date(2024, 3, 1, 0, 5, 0, 0, time.UTC)
	evening := time.Date(2024, 3, 1, 23, 55, 0, 0, time.UTC)
	next := morning.Add(24 * time.Hour)
	pal := game.DefaultPalette()

	draw := func(ts time.Time, salt string) game.Code {
		t.Helper()
		c, err := game.GenerateRandomCode(Source(ts, salt), pal, 4)
		if err != nil {
			t.Fatal(err)
		}
		return c
	}

	if a, b := draw(morning, "s"), draw(evening, "s"); !a.Equal(b) {
		t.Fatalf("same day gave %v and %v", a, b)
	}
	if Seed(morning, "s") == Seed(next, "s") {
		t.Error("consecutive days share a seed")
	}
	if Seed(morning, "s") == Seed(morning, "other") {
		t.Error("salt does not change the seed")
	}
	if Seed(morning, "s") < 0 {
		t.Error("negative seed")
	}
}
