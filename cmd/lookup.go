package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kass/go-geo-zones/pkg/geo"
	"github.com/kass/go-geo-zones/pkg/models"
)

var lookupLat, lookupLon float64

var lookupCmd = &cobra.Command{
	Use:   "lookup",
	Short: "Show the zone containing a position",
	RunE: func(cmd *cobra.Command, args []string) error {
		grid, err := newGrid(cfg.Grid)
		if err != nil {
			return err
		}

		p := models.NewPosition(lookupLat, lookupLon)
		index, err := grid.IndexOf(p)
		if err != nil {
			return fmt.Errorf("lookup %s: %w", p, err)
		}
		zone, err := grid.Zone(index)
		if err != nil {
			return err
		}

		bounds := zone.Bounds()
		printTitle("Zone " + zone.ID())
		printStat("Index", index)
		printStat("Bottom left", bounds.BottomLeft)
		printStat("Top right", bounds.TopRight)
		printStat("Center", zone.Center())
		printStat("Flat area (km²)", fmt.Sprintf("%.2f", zone.Area()))
		printStat("Surface area (km²)", fmt.Sprintf("%.2f", geo.SurfaceArea(bounds, cfg.Grid.EarthRadiusKm)))
		return nil
	},
}

func init() {
	lookupCmd.Flags().Float64Var(&lookupLat, "lat", 0, "Latitude in degrees")
	lookupCmd.Flags().Float64Var(&lookupLon, "lon", 0, "Longitude in degrees")
	_ = lookupCmd.MarkFlagRequired("lat")
	_ = lookupCmd.MarkFlagRequired("lon")
}
