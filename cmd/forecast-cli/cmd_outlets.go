package main

import (
	"context"

	"github.com/spf13/cobra"
)

func newOutletsCmd(g *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "outlets",
		Short: "List the outlets and their static attributes",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			b, err := openBackend(g)
			if err != nil {
				return err
			}
			ctx, cancel := context.WithTimeout(cmd.Context(), g.timeout)
			defer cancel()

			profiles, err := b.Outlets(ctx)
			if err != nil {
				return err
			}
			return renderOutlets(cmd.OutOrStdout(), g.output, profiles)
		},
	}
}

func newItemsCmd(g *globalFlags) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "items <term>",
		Short: "Search item identifiers containing term",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			b, err := openBackend(g)
			if err != nil {
				return err
			}
			ctx, cancel := context.WithTimeout(cmd.Context(), g.timeout)
			defer cancel()

			items, err := b.SearchItems(ctx, args[0], limit)
			if err != nil {
				return err
			}
			return renderItems(cmd.OutOrStdout(), g.output, items)
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 0, "Maximum number of identifiers (0 = server cap)")
	return cmd
}
