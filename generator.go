package geuui

import (
	"crypto/rand"
	"fmt"
	"io"

	"lukechampine.com/uint128"
)

// Generator creates random EUUIs from an injected source of uniform random bytes.
// Each operation performs exactly one read of the bytes it needs: 64 for New, 48 for
// NewWithQuarter and 16 for Regenerate. Nothing is buffered between calls.
//
// Generator adds no locking of its own; the reader must be safe for concurrent use if the
// generator is shared between goroutines.
type Generator struct {
	randReader io.Reader
}

// NewGenerator creates a new EUUI generator with crypto/rand as the random source
func NewGenerator() *Generator {
	return &Generator{
		randReader: rand.Reader,
	}
}

// NewGeneratorWithReader creates a new EUUI generator with a custom random source.
// This is primarily useful for testing with deterministic random sources.
func NewGeneratorWithReader(r io.Reader) *Generator {
	return &Generator{
		randReader: r,
	}
}

// New generates an EUUI whose 64 bytes are all drawn from the random source.
func (g *Generator) New() (EUUI, error) {
	var u EUUI
	if _, err := io.ReadFull(g.randReader, u[:]); err != nil {
		return Nil, fmt.Errorf("geuui: read random bytes: %w", err)
	}
	return u, nil
}

// NewWithQuarter generates a random EUUI whose quarter p is forced to v.
// The three other quarters are filled, in byte order, from a single 48-byte read.
func (g *Generator) NewWithQuarter(p Part, v uint128.Uint128) (EUUI, error) {
	var u EUUI
	if !p.Valid() {
		return u, ErrInvalidPart
	}

	var rnd [Size - QuarterSize]byte
	if _, err := io.ReadFull(g.randReader, rnd[:]); err != nil {
		return Nil, fmt.Errorf("geuui: read random bytes: %w", err)
	}

	lo, hi := p.span()
	copy(u[:lo], rnd[:lo])
	v.PutBytesBE(u[lo:hi])
	copy(u[hi:], rnd[lo:])
	return u, nil
}

// Regenerate returns a copy of u whose quarter p holds 16 fresh random bytes.
// The other three quarters are left byte-identical and u itself is not modified.
func (g *Generator) Regenerate(u EUUI, p Part) (EUUI, error) {
	if !p.Valid() {
		return u, ErrInvalidPart
	}
	lo, hi := p.span()
	if _, err := io.ReadFull(g.randReader, u[lo:hi]); err != nil {
		return Nil, fmt.Errorf("geuui: read random bytes: %w", err)
	}
	return u, nil
}

// Must is a helper that wraps a call to a function returning (EUUI, error)
// and panics if the error is non-nil. It is intended for use in variable
// initializations such as:
//
//	var id = geuui.Must(generator.New())
func Must(u EUUI, err error) EUUI {
	if err != nil {
		panic(err)
	}
	return u
}

// defaultGenerator is the package-level generator used by the New* functions
var defaultGenerator = NewGenerator()

// New generates a random EUUI using the default generator.
func New() (EUUI, error) {
	return defaultGenerator.New()
}

// NewWithQuarter generates a random EUUI with quarter p fixed to v using the default generator.
func NewWithQuarter(p Part, v uint128.Uint128) (EUUI, error) {
	return defaultGenerator.NewWithQuarter(p, v)
}

// Regenerate replaces quarter p of u with fresh randomness from the default generator.
func Regenerate(u EUUI, p Part) (EUUI, error) {
	return defaultGenerator.Regenerate(u, p)
}
