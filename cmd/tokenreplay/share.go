package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/example/tokenreplay/internal/share"
)

func newShareCmd() *cobra.Command {
	var (
		src    sourceFlags
		copyIt bool
		decode string
	)

	cmd := &cobra.Command{
		Use:   "share [file|-]",
		Short: "Print a link that restores the document",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := requireConfig()
			if err != nil {
				return err
			}

			if strings.TrimSpace(decode) != "" {
				text, err := share.Resolve(decode, cfg.Share.Param)
				if err != nil {
					return err
				}

				_, err = fmt.Fprint(cmd.OutOrStdout(), text)
				return err
			}

			text, err := readSource(args, src, cfg.Share.Param, cmd.InOrStdin())
			if err != nil {
				return err
			}

			link, err := share.BuildURL(cfg.Share.BaseURL, cfg.Share.Param, text)
			if err != nil {
				return err
			}

			if copyIt {
				copyToClipboard(link)
				_, _ = fmt.Fprintln(cmd.ErrOrStderr(), "copied to clipboard")
			}

			_, err = fmt.Fprintln(cmd.OutOrStdout(), link)
			return err
		},
	}

	src.register(cmd.Flags())
	cmd.Flags().BoolVar(&copyIt, "copy", false, "Also copy the link to the clipboard (OSC52)")
	cmd.Flags().StringVar(&decode, "decode", "", "Print the document carried by a share link or token")

	return cmd
}
