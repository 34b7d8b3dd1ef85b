package main

import (
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/xiexikang/video-link-pipeline/internal/subtitle"
)

func newConvertCommand(ctx *commandContext) *cobra.Command {
	var out string

	cmd := &cobra.Command{
		Use:   "convert <subtitle-file>",
		Short: "Convert a subtitle file between VTT and SRT",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			in := args[0]
			data, err := os.ReadFile(in)
			if err != nil {
				return err
			}

			from := subtitle.Detect(string(data))
			to := subtitle.SRT
			if from == subtitle.SRT {
				to = subtitle.VTT
			}

			if out == "" {
				out = strings.TrimSuffix(in, "."+string(from)) + "." + string(to)
			}
			if err := os.WriteFile(out, []byte(subtitle.Convert(string(data), to)), 0o644); err != nil {
				return err
			}
			ctx.log().Info("convert: written", "from", from, "to", to, "path", out)
			return nil
		},
	}

	cmd.Flags().StringVarP(&out, "output", "o", "", "Output path (default: input with swapped extension)")

	return cmd
}
