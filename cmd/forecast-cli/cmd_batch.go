package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func newBatchCmd(g *globalFlags) *cobra.Command {
	var outPath string

	cmd := &cobra.Command{
		Use:   "batch <file.csv>",
		Short: "Forecast every row of a CSV upload",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			contents, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("read upload: %w", err)
			}

			b, err := openBackend(g)
			if err != nil {
				return err
			}
			ctx, cancel := context.WithTimeout(cmd.Context(), g.timeout)
			defer cancel()

			resp, csvData, err := b.PredictBatch(ctx, contents)
			if err != nil {
				return err
			}

			if outPath != "" {
				if err := os.WriteFile(outPath, csvData, 0o644); err != nil {
					return fmt.Errorf("write results: %w", err)
				}
			}
			if err := renderBatch(cmd.OutOrStdout(), g.output, resp); err != nil {
				return err
			}
			if outPath != "" && g.output != outputJSON {
				fmt.Fprintf(cmd.OutOrStdout(), "Results: %s\n", outPath)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&outPath, "out", "o", "", "Write the result CSV to this path")
	return cmd
}
