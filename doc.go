// Package geuui provides Extended Universal Unique Identifiers (EUUIs) in Go.
//
// An EUUI is a 512-bit (64 byte) identifier, four times the size of a UUID. The same 64 bytes
// can be read as 4 big-endian 128-bit quarters, 8 big-endian 64-bit halves, or 64 individual
// bytes. Every view is computed from the canonical bytes on demand, so the views can never
// disagree with each other.
//
// Basic Usage:
//
//	// Generate a new random EUUI
//	id, err := geuui.New()
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(id.String())    // 128 lowercase hex characters
//	fmt.Println(id.Separated()) // Q0-Q1 on the first line, Q2-Q3 on the second
//
//	// Access individual components
//	if q, ok := id.Quarter(0); ok {
//	    fmt.Println(q)
//	}
//	if h, ok := id.Half(7); ok {
//	    fmt.Printf("%016x\n", h)
//	}
//
// Partial Randomness:
//
//	// Keep a caller-chosen first quarter, randomize the rest
//	id, err := geuui.NewWithQuarter(geuui.First, uint128.From64(42))
//
//	// Replace only the third quarter with fresh randomness
//	id2, err := geuui.Regenerate(id, geuui.Third)
//
// Custom Random Source:
//
//	// Inject any io.Reader, e.g. a deterministic one in tests
//	gen := geuui.NewGeneratorWithReader(reader)
//	id, err := gen.New()
//
// Text Formats:
//
// The compact form is the 128-character lowercase hex rendering of the canonical bytes. The
// separated form renders the four quarters as 32-character groups laid out as
//
//	Q0-Q1
//	Q2-Q3
//
// using a single LF between the lines, 131 characters in total. Parse accepts exactly these two
// forms.
//
// Thread Safety:
//
// EUUI is an array value and is never mutated after construction; copies can be shared freely
// between goroutines. Generator does not synchronize access to its reader. The default
// generator reads from crypto/rand, which is safe for concurrent use.
package geuui
