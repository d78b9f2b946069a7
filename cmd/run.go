package main

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/spf13/cobra"

	"github.com/kass/go-geo-zones/pkg/config"
	"github.com/kass/go-geo-zones/pkg/models"
	"github.com/kass/go-geo-zones/pkg/postgis"
	"github.com/kass/go-geo-zones/pkg/rtree"
	"github.com/kass/go-geo-zones/pkg/source"
	"github.com/kass/go-geo-zones/pkg/zones"
)

// loadAgents reads agents from the configured source. A non-nil region limits
// PostGIS reads to that box; JSON files are always read whole.
func loadAgents(ctx context.Context, c config.Config, region *models.BoundingBox) ([]*models.Agent, error) {
	start := time.Now()

	var (
		agents []*models.Agent
		err    error
	)
	switch c.Input.Source {
	case config.SourcePostGIS:
		debugf("Loading agents from PostGIS %s:%d/%s", c.PostGIS.Host, c.PostGIS.Port, c.PostGIS.Database)
		var store *postgis.AgentStore
		if store, err = postgis.Open(ctx, c.PostGIS); err != nil {
			return nil, err
		}
		defer store.Close()
		if region != nil {
			agents, err = store.LoadAgentsInBox(ctx, *region)
		} else {
			agents, err = store.LoadAgents(ctx)
		}
	default:
		debugf("Loading agents from %s", c.Input.File)
		agents, err = source.LoadFile(c.Input.File)
	}
	if err != nil {
		return nil, fmt.Errorf("load agents: %w", err)
	}

	debugf("Loaded %d agents in %v", len(agents), time.Since(start))
	return agents, nil
}

// newGrid returns the shared default grid, or a fresh one for a custom config
func newGrid(c zones.Config) (*zones.Grid, error) {
	if c == zones.DefaultConfig() {
		return zones.Default(), nil
	}
	return zones.NewGrid(c)
}

// populate loads the configured agents and bins them into a grid
func populate(ctx context.Context, c config.Config, region *models.BoundingBox) (*zones.Grid, error) {
	agents, err := loadAgents(ctx, c, region)
	if err != nil {
		return nil, err
	}

	grid, err := newGrid(c.Grid)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	stats, err := grid.Ingest(ctx, agents, zones.IngestOptions{
		Workers:        c.Workers,
		SkipOutOfRange: c.SkipInvalid,
	})
	if err != nil {
		return nil, err
	}
	if stats.Skipped > 0 {
		logf("Skipped %d agents outside the grid", stats.Skipped)
	}
	debugf("Binned %d agents into %d zones in %v", stats.Added, grid.Len(), time.Since(start))

	return grid, nil
}

// selection holds the zone filter flags shared by plot, stats and export
type selection struct {
	region        []float64
	populatedOnly bool
}

func (s *selection) register(cmd *cobra.Command) {
	cmd.Flags().Float64SliceVar(&s.region, "region", nil, "Restrict to min-lat,min-lon,max-lat,max-lon")
	cmd.Flags().BoolVar(&s.populatedOnly, "populated-only", false, "Only include zones with agents")
}

// populate loads and bins agents, reading only the selected region from PostGIS
func (s *selection) populate(ctx context.Context, c config.Config) (*zones.Grid, error) {
	box, hasRegion, err := s.box()
	if err != nil {
		return nil, err
	}
	if !hasRegion {
		return populate(ctx, c, nil)
	}
	return populate(ctx, c, &box)
}

func (s *selection) box() (models.BoundingBox, bool, error) {
	if len(s.region) == 0 {
		return models.BoundingBox{}, false, nil
	}
	if len(s.region) != 4 {
		return models.BoundingBox{}, false, fmt.Errorf("--region needs 4 values, got %d", len(s.region))
	}
	for _, v := range s.region {
		if math.IsNaN(v) {
			return models.BoundingBox{}, false, fmt.Errorf("--region values must be numbers, got %v", s.region)
		}
	}
	box := models.BoundingBox{
		BottomLeft: models.NewPosition(s.region[0], s.region[1]),
		TopRight:   models.NewPosition(s.region[2], s.region[3]),
	}
	if box.TopRight.LatitudeDegrees <= box.BottomLeft.LatitudeDegrees ||
		box.TopRight.LongitudeDegrees <= box.BottomLeft.LongitudeDegrees {
		return models.BoundingBox{}, false, fmt.Errorf("--region must be min-lat,min-lon,max-lat,max-lon")
	}
	return box, true, nil
}

// zones applies the selection to grid. Populated zones inside a region are
// found through the R-Tree index; other selections walk the grid directly.
func (s *selection) zones(grid *zones.Grid) ([]*zones.Zone, error) {
	box, hasRegion, err := s.box()
	if err != nil {
		return nil, err
	}

	switch {
	case hasRegion && s.populatedOnly:
		index := rtree.NewZoneIndex()
		if err := index.IndexZones(grid.Populated()); err != nil {
			return nil, err
		}
		return index.QueryBox(box)
	case hasRegion:
		return grid.ZonesIn(box), nil
	case s.populatedOnly:
		return grid.Populated(), nil
	default:
		return grid.Zones(), nil
	}
}
