package geuui

import "strconv"

// Part selects one of the four quarters of an EUUI.
type Part uint8

const (
	First Part = iota
	Second
	Third
	Fourth
)

// Parts lists every valid Part in byte order.
var Parts = [NumQuarters]Part{First, Second, Third, Fourth}

// Valid reports whether p names one of the four quarters.
func (p Part) Valid() bool {
	return p <= Fourth
}

// String returns the ordinal name of the part
func (p Part) String() string {
	switch p {
	case First:
		return "first"
	case Second:
		return "second"
	case Third:
		return "third"
	case Fourth:
		return "fourth"
	default:
		return "Part(" + strconv.Itoa(int(p)) + ")"
	}
}

// ParsePart converts a name ("first".."fourth") or an index ("0".."3") into a Part.
func ParsePart(s string) (Part, error) {
	for _, p := range Parts {
		if s == p.String() || s == strconv.Itoa(int(p)) {
			return p, nil
		}
	}
	return 0, ErrInvalidPart
}

// span returns the byte range [lo, hi) covered by the quarter.
func (p Part) span() (lo, hi int) {
	lo = int(p) * QuarterSize
	return lo, lo + QuarterSize
}
