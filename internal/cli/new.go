package cli

import (
	"errors"

	"github.com/spf13/cobra"

	"github.com/Lzww0608/geuui"
	"github.com/Lzww0608/geuui/internal/log"
)

func newNewCommand(opts Options) *cobra.Command {
	var (
		count       int
		separated   bool
		part        string
		value       string
		timeOrdered bool
		uuidV4      bool
	)

	cmd := &cobra.Command{
		Use:   "new",
		Short: "Generate random EUUIs",
		Long: "Generate random EUUIs. With --part and --value one quarter is fixed and the\n" +
			"other three are random.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if count < 1 {
				return errors.New("--count must be positive")
			}

			next, err := newSource(opts, part, value, timeOrdered, uuidV4)
			if err != nil {
				return err
			}

			logger := log.L()
			for i := 0; i < count; i++ {
				u, err := next()
				if err != nil {
					return err
				}
				logger.Debug().Str(log.FieldEUUI, u.String()).Msg("generated")
				if err := render(cmd.OutOrStdout(), u, separated); err != nil {
					return err
				}
			}
			return nil
		},
	}

	cfg := opts.Config
	defaultCount, defaultSeparated := 1, false
	if cfg != nil {
		defaultCount = cfg.Output.Count
		defaultSeparated = cfg.Output.Format == "separated"
	}

	cmd.Flags().IntVarP(&count, "count", "n", defaultCount, "number of EUUIs to generate")
	cmd.Flags().BoolVarP(&separated, "separated", "s", defaultSeparated, "print in the two-line separated format")
	cmd.Flags().StringVar(&part, "part", "", "quarter to fix: first|second|third|fourth or 0-3")
	cmd.Flags().StringVar(&value, "value", "", "value of the fixed quarter (decimal, 0x-prefixed hex, or 32 hex digits)")
	cmd.Flags().BoolVar(&timeOrdered, "time-ordered", false, "put a UUIDv7 in the first quarter so output sorts by time")
	cmd.Flags().BoolVar(&uuidV4, "uuidv4", false, "build each EUUI from four version 4 UUIDs")
	cmd.MarkFlagsRequiredTogether("part", "value")
	cmd.MarkFlagsMutuallyExclusive("part", "time-ordered", "uuidv4")
	return cmd
}

// newSource picks the generation strategy selected by the flags
func newSource(opts Options, part, value string, timeOrdered, uuidV4 bool) (func() (geuui.EUUI, error), error) {
	switch {
	case part != "":
		p, err := geuui.ParsePart(part)
		if err != nil {
			return nil, err
		}
		v, err := parseQuarterValue(value)
		if err != nil {
			return nil, err
		}
		logger := log.L()
		logger.Debug().Stringer(log.FieldPart, p).Msg("fixing quarter")
		return func() (geuui.EUUI, error) { return opts.Generator.NewWithQuarter(p, v) }, nil
	case timeOrdered:
		return opts.Ordered.New, nil
	case uuidV4:
		return opts.Generator.NewFromUUIDv4, nil
	default:
		return opts.Generator.New, nil
	}
}
