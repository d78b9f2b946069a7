package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kass/go-geo-zones/pkg/export"
)

var (
	exportOutput    string
	exportSelection selection
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export zones with their statistics as GeoJSON",
	RunE: func(cmd *cobra.Command, args []string) error {
		grid, err := exportSelection.populate(cmd.Context(), cfg)
		if err != nil {
			return err
		}

		zs, err := exportSelection.zones(grid)
		if err != nil {
			return err
		}
		if err := export.WriteFile(exportOutput, zs, cfg.Attribute); err != nil {
			return err
		}
		printSuccess(fmt.Sprintf("Exported %d zones to %s", len(zs), exportOutput))
		return nil
	},
}

func init() {
	exportCmd.Flags().StringVarP(&exportOutput, "output", "o", "zones.geojson", "Output GeoJSON file")
	exportSelection.register(exportCmd)
}
