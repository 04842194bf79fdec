package params

import (
	"crypto/rand"
	"encoding/binary"
	"sync/atomic"
)

var fallbackSeed atomic.Uint32

// NewSeed draws a fresh random seed for one render request.
func NewSeed() uint32 {
	var buf [4]byte
	if _, err := rand.Read(buf[:]); err != nil {
		// crypto/rand failing is extremely rare; keep seeds distinct anyway.
		return fallbackSeed.Add(0x9E3779B9)
	}
	return binary.LittleEndian.Uint32(buf[:])
}
