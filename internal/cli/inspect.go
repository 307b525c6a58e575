package cli

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/Lzww0608/geuui"
	"github.com/Lzww0608/geuui/internal/log"
)

func newRegenCommand(opts Options) *cobra.Command {
	var (
		part      string
		separated bool
	)

	cmd := &cobra.Command{
		Use:   "regen <euui>",
		Short: "Replace one quarter of an EUUI with fresh randomness",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			u, err := geuui.Parse(args[0])
			if err != nil {
				return err
			}
			p, err := geuui.ParsePart(part)
			if err != nil {
				return err
			}
			out, err := opts.Generator.Regenerate(u, p)
			if err != nil {
				return err
			}
			logger := log.L()
			logger.Debug().Stringer(log.FieldPart, p).Str(log.FieldEUUI, out.String()).Msg("regenerated")
			return render(cmd.OutOrStdout(), out, separated)
		},
	}
	cmd.Flags().StringVar(&part, "part", "", "quarter to regenerate: first|second|third|fourth or 0-3")
	cmd.Flags().BoolVarP(&separated, "separated", "s", false, "print in the two-line separated format")
	_ = cmd.MarkFlagRequired("part")
	return cmd
}

func newInspectCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "inspect <euui>",
		Short: "Show the quarters, halves and UUID views of an EUUI",
		Long:  "Show the quarters, halves and UUID views of an EUUI. The argument may be the\ncompact or the separated form; quote the separated form to keep the line break.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			u, err := geuui.Parse(args[0])
			if err != nil {
				return err
			}
			_, err = fmt.Fprint(cmd.OutOrStdout(), describe(u))
			return err
		},
	}
}

// describe renders every view of u, one per line
func describe(u geuui.EUUI) string {
	var b strings.Builder
	fmt.Fprintf(&b, "compact:   %s\n", u)
	fmt.Fprintf(&b, "separated: %s\n", strings.ReplaceAll(u.Separated(), "\n", "\n           "))
	for i, q := range u.Quarters() {
		id, _ := u.UUID(i)
		fmt.Fprintf(&b, "quarter %d: %s  uuid %s (v%d)\n", i, quarterHex(q), id, id.Version())
	}
	for i, h := range u.Halves() {
		fmt.Fprintf(&b, "half %d:    %016x\n", i, h)
	}
	// quarter 0 may carry v7 bits by chance, so the time is labelled as read from the header
	if ts := u.Time(); !ts.IsZero() {
		fmt.Fprintf(&b, "v7 header time: %s\n", ts.UTC().Format(time.RFC3339Nano))
	}
	return b.String()
}
