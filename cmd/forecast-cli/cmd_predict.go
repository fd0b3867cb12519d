package main

import (
	"context"

	"github.com/spf13/cobra"

	"sales-forecast/internal/common/validation"
	"sales-forecast/internal/models"
)

var predictFlagColumns = map[string]string{
	"outlet":     models.ColOutletIdentifier,
	"item":       models.ColItemIdentifier,
	"type":       models.ColItemType,
	"fat":        models.ColItemFatContent,
	"visibility": models.ColItemVisibility,
	"mrp":        models.ColItemMRP,
}

func newPredictCmd(g *globalFlags) *cobra.Command {
	var (
		outlet, item, itemType, fat string
		visibility, mrp             float64
	)

	cmd := &cobra.Command{
		Use:   "predict",
		Short: "Forecast the sales of one item at one outlet",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			// Only flags given on the command line reach validation, so an
			// omitted one is reported as a missing field.
			doc := make(map[string]interface{}, len(predictFlagColumns))
			values := map[string]interface{}{
				"outlet": outlet, "item": item, "type": itemType, "fat": fat,
				"visibility": visibility, "mrp": mrp,
			}
			for flag, column := range predictFlagColumns {
				if cmd.Flags().Changed(flag) {
					doc[column] = values[flag]
				}
			}

			req, err := validation.ParsePredictionRequest(doc)
			if err != nil {
				return err
			}

			b, err := openBackend(g)
			if err != nil {
				return err
			}
			ctx, cancel := context.WithTimeout(cmd.Context(), g.timeout)
			defer cancel()

			res, err := b.PredictSingle(ctx, req)
			if err != nil {
				return err
			}
			return renderSingle(cmd.OutOrStdout(), g.output, res)
		},
	}

	f := cmd.Flags()
	f.StringVar(&outlet, "outlet", "", "Outlet identifier, e.g. OUT049")
	f.StringVar(&item, "item", "", "Item identifier, e.g. FDA15")
	f.StringVar(&itemType, "type", "", "Item type, e.g. Dairy")
	f.StringVar(&fat, "fat", "", "Fat content: Low_Fat, Regular or Inedible")
	f.Float64Var(&visibility, "visibility", 0, "Share of display area, 0 to 1")
	f.Float64Var(&mrp, "mrp", 0, "Maximum retail price")
	return cmd
}
