package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Lzww0608/geuui"
)

// Encodings understood by the encode and decode commands
const (
	encHex       = "hex"
	encSeparated = "separated"
	encBase64    = "base64"
	encBase64Std = "base64std"
	encBase58    = "base58"
)

func newEncodeCommand() *cobra.Command {
	var as string

	cmd := &cobra.Command{
		Use:   "encode <euui>",
		Short: "Re-encode an EUUI as hex, separated, base64, base64std or base58",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			u, err := geuui.Parse(args[0])
			if err != nil {
				return err
			}
			s, err := encode(u, as)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), s)
			return err
		},
	}
	cmd.Flags().StringVar(&as, "as", encBase58, "target encoding")
	return cmd
}

func newDecodeCommand() *cobra.Command {
	var from string
	var separated bool

	cmd := &cobra.Command{
		Use:   "decode <text>",
		Short: "Decode an EUUI from hex, base64, base64std or base58",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			u, err := decode(args[0], from)
			if err != nil {
				return err
			}
			return render(cmd.OutOrStdout(), u, separated)
		},
	}
	cmd.Flags().StringVar(&from, "from", encBase58, "source encoding")
	cmd.Flags().BoolVarP(&separated, "separated", "s", false, "print in the two-line separated format")
	return cmd
}

func encode(u geuui.EUUI, as string) (string, error) {
	switch as {
	case encHex:
		return u.EncodeToHex(), nil
	case encSeparated:
		return u.Separated(), nil
	case encBase64:
		return u.EncodeToBase64(), nil
	case encBase64Std:
		return u.EncodeToBase64Std(), nil
	case encBase58:
		return u.EncodeToBase58(), nil
	default:
		return "", fmt.Errorf("unknown encoding %q", as)
	}
}

func decode(s, from string) (geuui.EUUI, error) {
	switch from {
	case encHex, encSeparated:
		return geuui.Parse(s)
	case encBase64:
		return geuui.DecodeFromBase64(s)
	case encBase64Std:
		return geuui.DecodeFromBase64Std(s)
	case encBase58:
		return geuui.DecodeFromBase58(s)
	default:
		return geuui.Nil, fmt.Errorf("unknown encoding %q", from)
	}
}
