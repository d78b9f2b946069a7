// Package zones bins located agents into a uniform latitude/longitude grid
// and derives per-zone statistics (population, density, attribute means).
package zones

import (
	"errors"
	"fmt"
	"math"
	"sync"

	"github.com/kass/go-geo-zones/pkg/models"
)

// ErrOutOfRange is returned when a position falls outside the grid
var ErrOutOfRange = errors.New("position out of grid range")

// Grid is a fully materialized set of zones stored in row-major order:
// rows run south to north, columns west to east.
type Grid struct {
	config  Config
	lonBins int
	latBins int
	zones   []*Zone
}

// NewGrid builds every zone described by cfg
func NewGrid(cfg Config) (*Grid, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	g := &Grid{
		config:  cfg,
		latBins: cfg.LatitudeBins(),
		lonBins: cfg.LongitudeBins(),
	}
	g.zones = make([]*Zone, 0, g.latBins*g.lonBins)

	for row := 0; row < g.latBins; row++ {
		lat := cfg.MinLatitude + float64(row)*cfg.StepLatitude
		for col := 0; col < g.lonBins; col++ {
			lon := cfg.MinLongitude + float64(col)*cfg.StepLongitude
			g.zones = append(g.zones, &Zone{
				Index:      len(g.zones),
				Row:        row,
				Col:        col,
				BottomLeft: models.NewPosition(lat, lon),
				TopRight:   models.NewPosition(lat+cfg.StepLatitude, lon+cfg.StepLongitude),
				config:     &g.config,
			})
		}
	}

	return g, nil
}

var (
	defaultOnce sync.Once
	defaultGrid *Grid
)

// Default returns the process-wide grid built from DefaultConfig.
// It is created on first use, exactly once.
func Default() *Grid {
	defaultOnce.Do(func() {
		g, err := NewGrid(DefaultConfig())
		if err != nil {
			panic(fmt.Sprintf("zones: default config: %v", err))
		}
		defaultGrid = g
	})
	return defaultGrid
}

// Config returns the grid configuration
func (g *Grid) Config() Config {
	return g.config
}

// Len returns the number of zones
func (g *Grid) Len() int {
	return len(g.zones)
}

// Zones returns all zones in row-major order. The slice must not be modified.
func (g *Grid) Zones() []*Zone {
	return g.zones
}

// Zone returns the zone at index i
func (g *Grid) Zone(i int) (*Zone, error) {
	if i < 0 || i >= len(g.zones) {
		return nil, fmt.Errorf("zone index %d not in [0, %d): %w", i, len(g.zones), ErrOutOfRange)
	}
	return g.zones[i], nil
}

// IndexOf returns the row-major index of the zone containing p
func (g *Grid) IndexOf(p models.Position) (int, error) {
	lonIdx, ok := axisIndex(p.LongitudeDegrees, g.config.MinLongitude, g.config.StepLongitude, g.lonBins)
	if !ok {
		return 0, fmt.Errorf("longitude %v not in [%v, %v): %w", p.LongitudeDegrees, g.config.MinLongitude, g.config.MaxLongitude, ErrOutOfRange)
	}
	latIdx, ok := axisIndex(p.LatitudeDegrees, g.config.MinLatitude, g.config.StepLatitude, g.latBins)
	if !ok {
		return 0, fmt.Errorf("latitude %v not in [%v, %v): %w", p.LatitudeDegrees, g.config.MinLatitude, g.config.MaxLatitude, ErrOutOfRange)
	}
	return latIdx*g.lonBins + lonIdx, nil
}

func axisIndex(v, min, step float64, bins int) (int, bool) {
	f := math.Floor((v - min) / step)
	if math.IsNaN(f) || f < 0 || f >= float64(bins) {
		return 0, false
	}
	return int(f), true
}

// ZoneByPosition returns the zone whose bounds contain p
func (g *Grid) ZoneByPosition(p models.Position) (*Zone, error) {
	idx, err := g.IndexOf(p)
	if err != nil {
		return nil, err
	}
	return g.zones[idx], nil
}

// Add places an agent into the zone containing its position
func (g *Grid) Add(agent *models.Agent) (*Zone, error) {
	zone, err := g.ZoneByPosition(agent.Position)
	if err != nil {
		return nil, fmt.Errorf("agent %s: %w", agent.ID, err)
	}
	zone.AddAgent(agent)
	return zone, nil
}

// Populated returns the zones holding at least one agent, in grid order
func (g *Grid) Populated() []*Zone {
	var out []*Zone
	for _, z := range g.zones {
		if z.Population() > 0 {
			out = append(out, z)
		}
	}
	return out
}

// Population returns the number of agents across all zones
func (g *Grid) Population() int {
	total := 0
	for _, z := range g.zones {
		total += z.Population()
	}
	return total
}

// ZonesIn returns the zones whose cells intersect box, in grid order.
// The box is clipped to the grid range; a box with a NaN corner selects nothing.
func (g *Grid) ZonesIn(box models.BoundingBox) []*Zone {
	c := g.config
	for _, v := range []float64{
		box.BottomLeft.LatitudeDegrees, box.BottomLeft.LongitudeDegrees,
		box.TopRight.LatitudeDegrees, box.TopRight.LongitudeDegrees,
	} {
		if math.IsNaN(v) {
			return nil
		}
	}
	if box.TopRight.LatitudeDegrees <= c.MinLatitude || box.BottomLeft.LatitudeDegrees >= c.MaxLatitude ||
		box.TopRight.LongitudeDegrees <= c.MinLongitude || box.BottomLeft.LongitudeDegrees >= c.MaxLongitude {
		return nil
	}

	minRow := clampIndex(math.Floor((box.BottomLeft.LatitudeDegrees-c.MinLatitude)/c.StepLatitude), g.latBins)
	maxRow := clampIndex(math.Ceil((box.TopRight.LatitudeDegrees-c.MinLatitude)/c.StepLatitude)-1, g.latBins)
	minCol := clampIndex(math.Floor((box.BottomLeft.LongitudeDegrees-c.MinLongitude)/c.StepLongitude), g.lonBins)
	maxCol := clampIndex(math.Ceil((box.TopRight.LongitudeDegrees-c.MinLongitude)/c.StepLongitude)-1, g.lonBins)

	var out []*Zone
	for row := minRow; row <= maxRow; row++ {
		for col := minCol; col <= maxCol; col++ {
			out = append(out, g.zones[row*g.lonBins+col])
		}
	}
	return out
}

func clampIndex(f float64, bins int) int {
	if f < 0 {
		return 0
	}
	if f >= float64(bins) {
		return bins - 1
	}
	return int(f)
}
