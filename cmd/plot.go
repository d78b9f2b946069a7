package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kass/go-geo-zones/pkg/chart"
	"github.com/kass/go-geo-zones/pkg/zones"
)

var (
	plotOutput    string
	plotSelection selection
)

var plotCmd = &cobra.Command{
	Use:   "plot",
	Short: "Scatter plot of zone density against the mean attribute",
	RunE: func(cmd *cobra.Command, args []string) error {
		grid, err := plotSelection.populate(cmd.Context(), cfg)
		if err != nil {
			return err
		}

		zs, err := plotSelection.zones(grid)
		if err != nil {
			return err
		}
		density, mean, err := zones.Series(zs, cfg.Attribute)
		if err != nil {
			return err
		}

		if err := chart.NewAttributeScatter(cfg.Attribute).Render(density, mean, plotOutput); err != nil {
			return err
		}
		printSuccess(fmt.Sprintf("Plotted %d zones to %s", len(zs), plotOutput))
		return nil
	},
}

func init() {
	plotCmd.Flags().StringVarP(&plotOutput, "output", "o", "output.png", "Output image (png, svg or pdf)")
	plotSelection.register(plotCmd)
}
