// Package uuid issues time-ordered UUIDv7 identifiers. It wraps github.com/google/uuid
// so callers never pick a UUID version by accident.
package uuid

import (
	"bytes"
	"encoding/binary"
	"time"

	"github.com/google/uuid"
)

// UUID is an alias of github.com/google/uuid.UUID.
type UUID = uuid.UUID

// Nil is the zero UUID value.
var Nil = uuid.Nil

// New returns a new UUIDv7. Panics if the random source fails.
func New() UUID {
	return uuid.Must(uuid.NewV7())
}

// NewRandom returns a new UUIDv7 and any error encountered during generation.
func NewRandom() (UUID, error) {
	return uuid.NewV7()
}

// Parse parses a UUID string.
func Parse(s string) (UUID, error) {
	return uuid.Parse(s)
}

// Timestamp extracts the creation time carried in the top 48 bits of a UUIDv7.
func Timestamp(u UUID) time.Time {
	tsMillis := binary.BigEndian.Uint64(u[0:8]) >> 16
	return time.UnixMilli(int64(tsMillis))
}

// IsBefore reports whether a was issued before b.
func IsBefore(a, b UUID) bool {
	return bytes.Compare(a[:], b[:]) < 0
}
