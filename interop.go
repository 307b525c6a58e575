package geuui

import (
	"fmt"

	"github.com/google/uuid"
)

// FromUUIDs creates an EUUI whose quarters are the given UUIDs in order.
func FromUUIDs(ids [NumQuarters]uuid.UUID) EUUI {
	var u EUUI
	for i, id := range ids {
		copy(u[i*QuarterSize:], id[:])
	}
	return u
}

// UUID returns quarter i reinterpreted as a UUID.
// ok is false if i is outside [0, 4).
func (u EUUI) UUID(i int) (id uuid.UUID, ok bool) {
	if i < 0 || i >= NumQuarters {
		return uuid.Nil, false
	}
	copy(id[:], u[i*QuarterSize:(i+1)*QuarterSize])
	return id, true
}

// UUIDs returns all four quarters as UUIDs
func (u EUUI) UUIDs() [NumQuarters]uuid.UUID {
	var ids [NumQuarters]uuid.UUID
	for i := range ids {
		copy(ids[i][:], u[i*QuarterSize:(i+1)*QuarterSize])
	}
	return ids
}

// WithUUID returns a copy of u whose quarter p is replaced by id.
func (u EUUI) WithUUID(p Part, id uuid.UUID) (EUUI, error) {
	if !p.Valid() {
		return u, ErrInvalidPart
	}
	lo, _ := p.span()
	copy(u[lo:], id[:])
	return u, nil
}

// NewFromUUIDv4 generates an EUUI made of four version 4 UUIDs drawn from the generator's
// random source. Unlike New, 24 of the 512 bits are fixed by the UUID version and variant.
func (g *Generator) NewFromUUIDv4() (EUUI, error) {
	var ids [NumQuarters]uuid.UUID
	for i := range ids {
		id, err := uuid.NewRandomFromReader(g.randReader)
		if err != nil {
			return Nil, fmt.Errorf("geuui: generate UUIDv4: %w", err)
		}
		ids[i] = id
	}
	return FromUUIDs(ids), nil
}

// NewFromUUIDv4 generates an EUUI of four version 4 UUIDs using the default generator.
func NewFromUUIDv4() (EUUI, error) {
	return defaultGenerator.NewFromUUIDv4()
}
