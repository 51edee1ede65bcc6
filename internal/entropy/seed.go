// Package entropy draws fresh simulation seeds from the operating
// system. Runs that pin a seed never touch it; everything downstream
// of the seed is deterministic.
package entropy

import (
	"crypto/rand"
	"encoding/binary"
	"time"
)

// Seed returns a random positive int64 for seeding a run. Falls back
// to the wall clock if the system source fails.
func Seed() int64 {
	var buf [8]byte
	if _, err := rand.Read(buf[:]); err != nil {
		return time.Now().UnixNano()
	}
	// Drop the sign bit so seeds print without a minus.
	n := int64(binary.LittleEndian.Uint64(buf[:]) >> 1)
	if n == 0 {
		n = 1
	}
	return n
}
