// Package cli implements the geuui command line tool.
package cli

import (
	"encoding/hex"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"
	"lukechampine.com/uint128"

	"github.com/Lzww0608/geuui"
	"github.com/Lzww0608/geuui/internal/config"
)

// Options carries the collaborators the commands need.
type Options struct {
	Config    *config.Config
	Generator *geuui.Generator
	Ordered   *geuui.TimeOrderedGenerator
}

// NewRoot constructs the root command and registers every subcommand.
func NewRoot(opts Options) *cobra.Command {
	if opts.Generator == nil {
		opts.Generator = geuui.NewGenerator()
	}
	if opts.Ordered == nil {
		opts.Ordered = geuui.NewTimeOrderedGenerator()
	}

	root := &cobra.Command{
		Use:           "geuui",
		Short:         "Generate and inspect 512-bit EUUIs",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(newNewCommand(opts))
	root.AddCommand(newRegenCommand(opts))
	root.AddCommand(newInspectCommand())
	root.AddCommand(newEncodeCommand())
	root.AddCommand(newDecodeCommand())
	return root
}

// render writes u in the requested layout followed by a newline
func render(w io.Writer, u geuui.EUUI, separated bool) error {
	s := u.String()
	if separated {
		s = u.Separated()
	}
	_, err := fmt.Fprintln(w, s)
	return err
}

// parseQuarterValue accepts a 0x-prefixed hex number of up to 32 digits, exactly 32 hex
// digits containing at least one letter, or a decimal number. Unprefixed digit-only input
// is always decimal.
func parseQuarterValue(s string) (uint128.Uint128, error) {
	h, prefixed := strings.CutPrefix(s, "0x")
	if prefixed || (len(h) == 2*geuui.QuarterSize && strings.ContainsAny(h, "abcdefABCDEF")) {
		if h == "" || len(h) > 2*geuui.QuarterSize {
			return uint128.Zero, fmt.Errorf("invalid quarter %q: want 1 to 32 hex digits after 0x", s)
		}
		b, err := hex.DecodeString(strings.Repeat("0", 2*geuui.QuarterSize-len(h)) + h)
		if err != nil {
			return uint128.Zero, fmt.Errorf("invalid quarter %q: %w", s, err)
		}
		return uint128.FromBytesBE(b), nil
	}
	v, err := uint128.FromString(s)
	if err != nil {
		return uint128.Zero, fmt.Errorf("invalid quarter %q: want 0x-prefixed hex, 32 hex digits or a decimal number", s)
	}
	return v, nil
}

// quarterHex renders a quarter as 32 zero-padded lowercase hex digits
func quarterHex(q uint128.Uint128) string {
	var b [geuui.QuarterSize]byte
	q.PutBytesBE(b[:])
	return hex.EncodeToString(b[:])
}
