package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kass/go-geo-zones/pkg/geo"
	"github.com/kass/go-geo-zones/pkg/models"
	"github.com/kass/go-geo-zones/pkg/rtree"
	"github.com/kass/go-geo-zones/pkg/zones"
)

var (
	nearestLat, nearestLon float64
	nearestK               int
	nearestRadius          float64
)

var nearestCmd = &cobra.Command{
	Use:   "nearest",
	Short: "Find populated zones near a position",
	Long: `Indexes the populated zones in an R-Tree and lists the k zones whose
centers are closest to a position, or every zone within --radius km.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		grid, err := populate(cmd.Context(), cfg, nil)
		if err != nil {
			return err
		}

		index := rtree.NewZoneIndex()
		if err := index.IndexZones(grid.Populated()); err != nil {
			return err
		}
		debugf("Indexed %d populated zones", index.Count())

		p := models.NewPosition(nearestLat, nearestLon)
		var found []*zones.Zone
		if nearestRadius > 0 {
			if found, err = index.QueryRadius(p, nearestRadius); err != nil {
				return err
			}
			printTitle(fmt.Sprintf("Populated zones within %.1f km of %s", nearestRadius, p))
		} else {
			found = index.NearestZones(p, nearestK)
			printTitle(fmt.Sprintf("%d nearest populated zones to %s", len(found), p))
		}

		for _, z := range found {
			mean, err := z.AttributeMean(cfg.Attribute)
			if err != nil {
				return err
			}
			printStat(z.ID(), fmt.Sprintf("%.1f km, population %d, %s %.3f",
				geo.DistanceBetween(p, z.Center()), z.Population(), cfg.Attribute, mean))
		}
		return nil
	},
}

func init() {
	nearestCmd.Flags().Float64Var(&nearestLat, "lat", 0, "Latitude in degrees")
	nearestCmd.Flags().Float64Var(&nearestLon, "lon", 0, "Longitude in degrees")
	nearestCmd.Flags().IntVarP(&nearestK, "count", "k", 5, "Number of zones to list")
	nearestCmd.Flags().Float64Var(&nearestRadius, "radius", 0, "List all zones within this many km instead")
	_ = nearestCmd.MarkFlagRequired("lat")
	_ = nearestCmd.MarkFlagRequired("lon")
}
