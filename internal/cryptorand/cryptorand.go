// Package cryptorand adapts crypto/rand to the math/rand Source interfaces,
// so secrets can be drawn with rand.New(cryptorand.NewSource()).
package cryptorand

import (
	"crypto/rand"
	"encoding/binary"
)

func NewSource() Source {
	return Source{}
}

type Source struct{}

func (s Source) Int63() int64 {
	return int64(s.Uint64() & (1<<63 - 1))
}

func (Source) Uint64() uint64 {
	var buf [8]byte
	if _, err := rand.Read(buf[:]); err != nil {
		panic(err)
	}
	return binary.LittleEndian.Uint64(buf[:])
}

// Seed is a no-op; the source cannot be made deterministic.
func (Source) Seed(int64) {}
