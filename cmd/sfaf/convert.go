package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

func newConvertCmd(a *app) *cobra.Command {
	var flags outputFlags
	cmd := &cobra.Command{
		Use:   "convert <input.sfaf>",
		Short: "Convert an SFAF file to JSON and CSV",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.applyOutputFlags(cmd, &flags); err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return a.convert(ctx, cmd, args[0])
		},
	}
	addOutputFlags(cmd, &flags)
	return cmd
}

func (a *app) convert(ctx context.Context, cmd *cobra.Command, input string) error {
	conv, err := a.newConversion(input)
	if err != nil {
		return err
	}

	rep, err := conv.run(ctx)
	if err != nil {
		return err
	}

	summary := conv.collector.Summary()
	a.logger.Info("run summary",
		"records", summary.Records,
		"stations", summary.Stations,
		"at_origin", summary.AtOrigin,
		"by_band", summary.ByBand,
	)
	fmt.Fprintf(cmd.OutOrStdout(), "%s: %d accepted, %d dropped -> %s, %s\n",
		input, rep.Accepted, rep.Dropped, a.cfg.JSONOutput, a.cfg.CSVOutput)
	return nil
}
