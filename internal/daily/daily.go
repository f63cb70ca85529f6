// Package daily derives the shared code of the day. Every codebreaker who
// starts a daily game on the same UTC date plays against the same secret.
package daily

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/binary"
	"fmt"
	"math/rand"
	"time"
)

// Layout is the date key format.
const Layout = "2006-01-02"

// DateKey returns YYYY-MM-DD in UTC.
func DateKey(t time.Time) string {
	return t.UTC().Format(Layout)
}

// ParseKey validates a date key and returns midnight UTC of that day.
func ParseKey(key string) (time.Time, error) {
	t, err := time.Parse(Layout, key)
	if err != nil {
		return time.Time{}, fmt.Errorf("daily: bad date %q, want YYYY-MM-DD", key)
	}
	return t, nil
}

// Seed returns HMAC-SHA256(salt, YYYY-MM-DD) folded into a non-negative int64.
func Seed(date time.Time, salt string) int64 {
	h := hmac.New(sha256.New, []byte(salt))
	h.Write([]byte(DateKey(date)))
	sum := h.Sum(nil)
	return int64(binary.BigEndian.Uint64(sum[:8]) >> 1)
}

// Source returns the entropy source for the secret of date. Calls with the
// same date and salt replay the same sequence; the salt keeps it unguessable.
func Source(date time.Time, salt string) *rand.Rand {
	return rand.New(rand.NewSource(Seed(date, salt)))
}
