package geuui

import (
	"crypto/rand"
	"encoding/binary"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/google/uuid"
)

// TimeOrderedGenerator is a thread-safe generator of EUUIs that sort by creation time.
// The first quarter follows the UUIDv7 layout (RFC 9562); the other three quarters are random.
// Within the same millisecond a 12-bit counter keeps the output strictly increasing.
type TimeOrderedGenerator struct {
	mu            sync.Mutex
	lastTimestamp uint64
	clockSeq      uint16 // 12-bit counter for sub-millisecond ordering
	randReader    io.Reader
}

// NewTimeOrderedGenerator creates a new time-ordered generator with crypto/rand as the random source
func NewTimeOrderedGenerator() *TimeOrderedGenerator {
	return &TimeOrderedGenerator{
		randReader: rand.Reader,
	}
}

// NewTimeOrderedGeneratorWithReader creates a new time-ordered generator with a custom random source.
func NewTimeOrderedGeneratorWithReader(r io.Reader) *TimeOrderedGenerator {
	return &TimeOrderedGenerator{
		randReader: r,
	}
}

// New generates a time-ordered EUUI with the current timestamp.
func (g *TimeOrderedGenerator) New() (EUUI, error) {
	return g.NewWithTime(time.Now())
}

// NewWithTime generates a time-ordered EUUI with the specified timestamp.
// If t is not after the last timestamp used, the last timestamp is reused with the next
// counter value, so the output never goes backwards.
func (g *TimeOrderedGenerator) NewWithTime(t time.Time) (EUUI, error) {
	var u EUUI

	// Unix timestamp in milliseconds (48 bits)
	timestamp := uint64(t.UnixMilli())

	g.mu.Lock()
	defer g.mu.Unlock()

	if timestamp <= g.lastTimestamp {
		timestamp = g.lastTimestamp
		g.clockSeq++
		if g.clockSeq > 0xFFF {
			g.clockSeq = 0
			timestamp = g.lastTimestamp + 1
			g.lastTimestamp = timestamp
		}
	} else {
		// New millisecond, start from a random counter
		var randBytes [2]byte
		if _, err := io.ReadFull(g.randReader, randBytes[:]); err != nil {
			return Nil, fmt.Errorf("geuui: read random bytes: %w", err)
		}
		g.clockSeq = binary.BigEndian.Uint16(randBytes[:]) & 0xFFF
		g.lastTimestamp = timestamp
	}

	// Bytes 8-63: random tail of the first quarter plus three random quarters
	if _, err := io.ReadFull(g.randReader, u[8:]); err != nil {
		return Nil, fmt.Errorf("geuui: read random bytes: %w", err)
	}

	// Timestamp (48 bits) in bytes 0-5; bytes 6-7 are overwritten below
	binary.BigEndian.PutUint64(u[0:8], timestamp<<16)

	// Version 7 = 0111, followed by the 12-bit counter
	u[6] = byte(0x70 | (g.clockSeq >> 8))
	u[7] = byte(g.clockSeq)

	// RFC 4122 variant (10xx xxxx)
	u[8] = (u[8] & 0x3F) | 0x80

	return u, nil
}

// defaultTimeOrderedGenerator backs NewTimeOrdered
var defaultTimeOrderedGenerator = NewTimeOrderedGenerator()

// NewTimeOrdered generates a time-ordered EUUI using the package-level generator.
func NewTimeOrdered() (EUUI, error) {
	return defaultTimeOrderedGenerator.New()
}

// isTimeOrdered reports whether the first quarter carries a UUIDv7 header
func (u EUUI) isTimeOrdered() bool {
	first, _ := u.UUID(0)
	return first.Version() == 7 && first.Variant() == uuid.RFC4122
}

// Timestamp extracts the Unix timestamp (in milliseconds) from a time-ordered EUUI.
// It returns 0 if the first quarter is not a UUIDv7.
//
// Only the version and variant bits of the first quarter are checked, so about one in 64
// fully random EUUIs also decodes to a timestamp. Use it on EUUIs known to come from a
// TimeOrderedGenerator.
func (u EUUI) Timestamp() int64 {
	if !u.isTimeOrdered() {
		return 0
	}
	timestamp := uint64(u[0])<<40 |
		uint64(u[1])<<32 |
		uint64(u[2])<<24 |
		uint64(u[3])<<16 |
		uint64(u[4])<<8 |
		uint64(u[5])
	return int64(timestamp)
}

// Time returns the timestamp of a time-ordered EUUI as a time.Time.
// It returns the zero time if the first quarter is not a UUIDv7. Like Timestamp it reads
// the header only and cannot tell a random quarter that happens to carry v7 bits.
func (u EUUI) Time() time.Time {
	if !u.isTimeOrdered() {
		return time.Time{}
	}
	return time.UnixMilli(u.Timestamp())
}
