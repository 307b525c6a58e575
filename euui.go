package geuui

import (
	"bytes"
	"database/sql/driver"
	"encoding/binary"
	"encoding/hex"
	"fmt"

	"lukechampine.com/uint128"
)

// EUUI represents an Extended Universal Unique Identifier.
// The EUUI is a 512-bit (64 byte) value stored as big-endian bytes. Quarters and halves are
// views over the same bytes and are never stored separately.
type EUUI [Size]byte

const (
	// Size is the number of bytes in an EUUI
	Size = 64
	// QuarterSize is the number of bytes in one 128-bit quarter
	QuarterSize = 16
	// HalfSize is the number of bytes in one 64-bit half
	HalfSize = 8
	// NumQuarters is the number of 128-bit quarters in an EUUI
	NumQuarters = Size / QuarterSize
	// NumHalves is the number of 64-bit halves in an EUUI
	NumHalves = Size / HalfSize

	// StringLength is the length of the compact hex representation
	StringLength = Size * 2
	// SeparatedLength is the length of the separated representation (two '-' and one '\n')
	SeparatedLength = StringLength + 3
)

// Nil is the nil EUUI (all zeros)
var Nil EUUI

// Zero returns an EUUI whose 64 bytes are all zero.
func Zero() EUUI {
	return Nil
}

// FromBytes creates an EUUI from exactly 64 bytes.
func FromBytes(b [Size]byte) EUUI {
	return EUUI(b)
}

// FromSlice creates an EUUI from a byte slice that must be exactly 64 bytes long
func FromSlice(b []byte) (EUUI, error) {
	var u EUUI
	if len(b) != Size {
		return u, ErrInvalidLength
	}
	copy(u[:], b)
	return u, nil
}

// MustFromSlice is like FromSlice but panics on error
func MustFromSlice(b []byte) EUUI {
	u, err := FromSlice(b)
	if err != nil {
		panic(err)
	}
	return u
}

// FromQuarters creates an EUUI from four 128-bit values. Quarter i is written big-endian at
// bytes [16i, 16i+16).
func FromQuarters(q [NumQuarters]uint128.Uint128) EUUI {
	var u EUUI
	for i, v := range q {
		v.PutBytesBE(u[i*QuarterSize : (i+1)*QuarterSize])
	}
	return u
}

// FromHalves creates an EUUI from eight 64-bit values. Half i is written big-endian at
// bytes [8i, 8i+8).
func FromHalves(h [NumHalves]uint64) EUUI {
	var u EUUI
	for i, v := range h {
		binary.BigEndian.PutUint64(u[i*HalfSize:], v)
	}
	return u
}

// Quarter returns the 128-bit quarter at index i.
// ok is false if i is outside [0, 4).
func (u EUUI) Quarter(i int) (q uint128.Uint128, ok bool) {
	if i < 0 || i >= NumQuarters {
		return uint128.Zero, false
	}
	return uint128.FromBytesBE(u[i*QuarterSize : (i+1)*QuarterSize]), true
}

// Half returns the 64-bit half at index i.
// ok is false if i is outside [0, 8).
func (u EUUI) Half(i int) (h uint64, ok bool) {
	if i < 0 || i >= NumHalves {
		return 0, false
	}
	return binary.BigEndian.Uint64(u[i*HalfSize:]), true
}

// Byte returns the byte at index i.
// ok is false if i is outside [0, 64).
func (u EUUI) Byte(i int) (b byte, ok bool) {
	if i < 0 || i >= Size {
		return 0, false
	}
	return u[i], true
}

// Bytes returns a copy of the 64 canonical bytes
func (u EUUI) Bytes() []byte {
	b := make([]byte, Size)
	copy(b, u[:])
	return b
}

// Halves returns the eight big-endian 64-bit halves in byte order
func (u EUUI) Halves() [NumHalves]uint64 {
	var h [NumHalves]uint64
	for i := range h {
		h[i] = binary.BigEndian.Uint64(u[i*HalfSize:])
	}
	return h
}

// Quarters returns the four big-endian 128-bit quarters in byte order
func (u EUUI) Quarters() [NumQuarters]uint128.Uint128 {
	var q [NumQuarters]uint128.Uint128
	for i := range q {
		q[i] = uint128.FromBytesBE(u[i*QuarterSize : (i+1)*QuarterSize])
	}
	return q
}

// WithQuarter returns a copy of u whose quarter p is replaced by v.
func (u EUUI) WithQuarter(p Part, v uint128.Uint128) (EUUI, error) {
	if !p.Valid() {
		return u, ErrInvalidPart
	}
	lo, hi := p.span()
	v.PutBytesBE(u[lo:hi])
	return u, nil
}

// String returns the compact representation of the EUUI:
// 128 lowercase hex characters without separators.
func (u EUUI) String() string {
	var buf [StringLength]byte
	hex.Encode(buf[:], u[:])
	return string(buf[:])
}

// Separated returns the separated representation of the EUUI in the format:
//
//	Q0-Q1
//	Q2-Q3
//
// where each Qi is the quarter rendered as 32 lowercase hex characters.
func (u EUUI) Separated() string {
	var buf [SeparatedLength]byte
	encodeSeparated(buf[:], u)
	return string(buf[:])
}

// encodeSeparated writes the separated representation of u into dst
func encodeSeparated(dst []byte, u EUUI) {
	hex.Encode(dst[0:32], u[0:16])
	dst[32] = '-'
	hex.Encode(dst[33:65], u[16:32])
	dst[65] = '\n'
	hex.Encode(dst[66:98], u[32:48])
	dst[98] = '-'
	hex.Encode(dst[99:131], u[48:64])
}

// Parse parses an EUUI from one of its two text representations:
//   - 128 lowercase hex characters (compact)
//   - Q0-Q1\nQ2-Q3 with 32 lowercase hex characters per quarter (separated)
//
// Uppercase digits, surrounding whitespace and any other layout are rejected.
func Parse(s string) (EUUI, error) {
	var u EUUI

	switch len(s) {
	case StringLength:
		return DecodeFromHex(s)
	case SeparatedLength:
		if s[32] != '-' || s[65] != '\n' || s[98] != '-' {
			return u, ErrInvalidFormat
		}
		if err := decodeHexSegment(u[0:16], s[0:32]); err != nil {
			return u, err
		}
		if err := decodeHexSegment(u[16:32], s[33:65]); err != nil {
			return u, err
		}
		if err := decodeHexSegment(u[32:48], s[66:98]); err != nil {
			return u, err
		}
		if err := decodeHexSegment(u[48:64], s[99:131]); err != nil {
			return u, err
		}
		return u, nil
	}

	return u, ErrInvalidFormat
}

// MustParse is like Parse but panics if the string cannot be parsed.
// It simplifies safe initialization of global variables.
func MustParse(s string) EUUI {
	u, err := Parse(s)
	if err != nil {
		panic(fmt.Sprintf("geuui: Parse(%q): %v", s, err))
	}
	return u
}

// decodeHexSegment decodes a lowercase hex string segment into a byte slice
func decodeHexSegment(dst []byte, src string) error {
	if !isLowerHex(src) {
		return ErrInvalidFormat
	}
	if _, err := hex.Decode(dst, []byte(src)); err != nil {
		return ErrInvalidFormat
	}
	return nil
}

func isLowerHex(s string) bool {
	for i := 0; i < len(s); i++ {
		c := s[i]
		if (c < '0' || c > '9') && (c < 'a' || c > 'f') {
			return false
		}
	}
	return true
}

// IsNil returns true if the EUUI is the nil EUUI (all zeros)
func (u EUUI) IsNil() bool {
	return u == Nil
}

// MarshalText implements the encoding.TextMarshaler interface
func (u EUUI) MarshalText() ([]byte, error) {
	buf := make([]byte, StringLength)
	hex.Encode(buf, u[:])
	return buf, nil
}

// UnmarshalText implements the encoding.TextUnmarshaler interface
func (u *EUUI) UnmarshalText(data []byte) error {
	id, err := Parse(string(data))
	if err != nil {
		return err
	}
	*u = id
	return nil
}

// MarshalBinary implements the encoding.BinaryMarshaler interface
func (u EUUI) MarshalBinary() ([]byte, error) {
	return u.Bytes(), nil
}

// UnmarshalBinary implements the encoding.BinaryUnmarshaler interface
func (u *EUUI) UnmarshalBinary(data []byte) error {
	if len(data) != Size {
		return ErrInvalidLength
	}
	copy(u[:], data)
	return nil
}

// Scan implements the sql.Scanner interface for database compatibility
func (u *EUUI) Scan(src interface{}) error {
	switch src := src.(type) {
	case nil:
		return nil
	case string:
		id, err := Parse(src)
		if err != nil {
			return err
		}
		*u = id
		return nil
	case []byte:
		if len(src) == Size {
			copy(u[:], src)
			return nil
		}
		if len(src) == 0 {
			return nil
		}
		id, err := Parse(string(src))
		if err != nil {
			return err
		}
		*u = id
		return nil
	default:
		return fmt.Errorf("geuui: cannot scan type %T into EUUI", src)
	}
}

// Value implements the driver.Valuer interface for database compatibility
func (u EUUI) Value() (driver.Value, error) {
	return u.String(), nil
}

// Compare returns an integer comparing two EUUIs lexicographically by byte.
// The result will be 0 if u==other, -1 if u < other, and +1 if u > other.
func (u EUUI) Compare(other EUUI) int {
	return bytes.Compare(u[:], other[:])
}

// Equal returns true if u and other represent the same EUUI
func (u EUUI) Equal(other EUUI) bool {
	return u == other
}
