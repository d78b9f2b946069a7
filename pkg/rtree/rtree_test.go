package rtree

import (
	"fmt"
	"math/rand"
	"sync"
	"testing"

	"github.com/dhconnelly/rtreego"
	"github.com/kass/go-geo-zones/pkg/models"
	"github.com/kass/go-geo-zones/pkg/zones"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func populatedGrid(t testing.TB, positions ...models.Position) *zones.Grid {
	t.Helper()
	g, err := zones.NewGrid(zones.DefaultConfig())
	require.NoError(t, err)
	for _, p := range positions {
		_, err := g.Add(models.NewAgent(p, nil))
		require.NoError(t, err)
	}
	return g
}

func ids(zs []*zones.Zone) []string {
	out := make([]string, len(zs))
	for i, z := range zs {
		out[i] = z.ID()
	}
	return out
}

func TestNewZoneIndex(t *testing.T) {
	index := NewZoneIndex()
	assert.NotNil(t, index)
	assert.NotEmpty(t, index.partitions)
	assert.Equal(t, int64(0), index.Count())
}

func TestIndexZones(t *testing.T) {
	g := populatedGrid(t,
		models.NewPosition(37.7749, -122.4194), // San Francisco
		models.NewPosition(34.0522, -118.2437), // Los Angeles
		models.NewPosition(40.7128, -74.0060),  // New York
	)

	index := NewZoneIndexWithPartitions(4)
	err := index.IndexZones(append(g.Populated(), nil))
	require.NoError(t, err)
	assert.Equal(t, int64(3), index.Count())
}

func TestQueryBox(t *testing.T) {
	g := populatedGrid(t,
		models.NewPosition(37.7749, -122.4194), // San Francisco
		models.NewPosition(34.0522, -118.2437), // Los Angeles
		models.NewPosition(32.7157, -117.1611), // San Diego
		models.NewPosition(40.7128, -74.0060),  // New York
		models.NewPosition(41.8781, -87.6298),  // Chicago
	)

	for _, partitions := range []int{1, 3, 8, 360} {
		t.Run(fmt.Sprintf("%d_partitions", partitions), func(t *testing.T) {
			index := NewZoneIndexWithPartitions(partitions)
			require.NoError(t, index.IndexZones(g.Populated()))

			box := models.BoundingBox{
				BottomLeft: models.NewPosition(32.2, -125.0),
				TopRight:   models.NewPosition(42.0, -114.0),
			}
			results, err := index.QueryBox(box)
			require.NoError(t, err)
			assert.Equal(t, []string{"zone_122_62", "zone_124_61", "zone_127_57"}, ids(results))
		})
	}
}

func TestQueryBoxMatchesGrid(t *testing.T) {
	r := rand.New(rand.NewSource(3))
	positions := make([]models.Position, 2000)
	for i := range positions {
		positions[i] = models.NewPosition(r.Float64()*180-90, r.Float64()*360-180)
	}
	g := populatedGrid(t, positions...)

	index := NewZoneIndexWithPartitions(7)
	require.NoError(t, index.IndexZones(g.Populated()))

	for i := 0; i < 50; i++ {
		lat := r.Float64()*150 - 75
		lon := r.Float64()*320 - 160
		box := models.BoundingBox{
			BottomLeft: models.NewPosition(lat+0.25, lon+0.25),
			TopRight:   models.NewPosition(lat+10.5, lon+20.5),
		}

		var expected []*zones.Zone
		for _, z := range g.ZonesIn(box) {
			if z.Population() > 0 {
				expected = append(expected, z)
			}
		}

		results, err := index.QueryBox(box)
		require.NoError(t, err)
		require.Equal(t, ids(expected), ids(results))
	}
}

func TestQueryBoxInvalid(t *testing.T) {
	index := NewZoneIndex()
	_, err := index.QueryBox(models.BoundingBox{
		BottomLeft: models.NewPosition(10, 10),
		TopRight:   models.NewPosition(5, 20),
	})
	assert.Error(t, err)
}

func TestSpatialZoneBounds(t *testing.T) {
	g := populatedGrid(t)
	z, err := g.ZoneByPosition(models.NewPosition(10.5, 20.5))
	require.NoError(t, err)

	rect, err := toRect(z.Bounds())
	require.NoError(t, err)

	var item rtreego.Spatial = &spatialZone{z, rect}
	bounds := item.Bounds()
	require.NotNil(t, bounds)
	assert.Equal(t, 10.0, bounds.PointCoord(0))
	assert.Equal(t, 20.0, bounds.PointCoord(1))
	assert.Equal(t, 1.0, bounds.LengthsCoord(0))
	assert.Equal(t, 1.0, bounds.LengthsCoord(1))

	tree := rtreego.NewTree(dimensions, minChildren, maxChildren)
	tree.Insert(item)
	assert.Len(t, tree.SearchIntersect(rect), 1)
}

func TestQueryRadius(t *testing.T) {
	g := populatedGrid(t,
		models.NewPosition(0.5, 0.5),
		models.NewPosition(0.5, 1.5),
		models.NewPosition(0.5, 3.5),
		models.NewPosition(10.5, 0.5),
	)
	index := NewZoneIndexWithPartitions(4)
	require.NoError(t, index.IndexZones(g.Populated()))

	center := models.NewPosition(0.5, 0.5)
	testCases := []struct {
		name     string
		radius   float64
		expected []string
	}{
		{"10km radius", 10, []string{"zone_90_180"}},
		{"150km radius", 150, []string{"zone_90_180", "zone_90_181"}},
		{"500km radius", 500, []string{"zone_90_180", "zone_90_181", "zone_90_183"}},
		{"2000km radius", 2000, []string{"zone_90_180", "zone_90_181", "zone_90_183", "zone_100_180"}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			results, err := index.QueryRadius(center, tc.radius)
			require.NoError(t, err)
			assert.Equal(t, tc.expected, ids(results))
		})
	}
}

func TestNearestZones(t *testing.T) {
	g := populatedGrid(t,
		models.NewPosition(37.5, -122.5),
		models.NewPosition(38.5, -122.5),
		models.NewPosition(36.5, -121.5),
		models.NewPosition(45.5, -100.5),
		models.NewPosition(-33.5, 151.5),
	)
	index := NewZoneIndexWithPartitions(4)
	require.NoError(t, index.IndexZones(g.Populated()))

	results := index.NearestZones(models.NewPosition(37.6, -122.4), 3)
	require.Len(t, results, 3)
	assert.Equal(t, "zone_127_57", results[0].ID())
	assert.ElementsMatch(t, []string{"zone_128_57", "zone_126_58"}, ids(results[1:]))

	assert.Len(t, index.NearestZones(models.NewPosition(0, 0), 100), 5)
	assert.Empty(t, index.NearestZones(models.NewPosition(0, 0), 0))
}

func TestClear(t *testing.T) {
	g := populatedGrid(t, models.NewPosition(1, 1))
	index := NewZoneIndex()
	require.NoError(t, index.IndexZones(g.Populated()))
	require.Equal(t, int64(1), index.Count())

	index.Clear()
	assert.Equal(t, int64(0), index.Count())
	results, err := index.QueryBox(models.BoundingBox{
		BottomLeft: models.NewPosition(0, 0),
		TopRight:   models.NewPosition(5, 5),
	})
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestConcurrentQueries(t *testing.T) {
	r := rand.New(rand.NewSource(11))
	positions := make([]models.Position, 5000)
	for i := range positions {
		positions[i] = models.NewPosition(r.Float64()*20+30, r.Float64()*40-120)
	}
	g := populatedGrid(t, positions...)
	index := NewZoneIndex()
	require.NoError(t, index.IndexZones(g.Populated()))

	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			switch i % 3 {
			case 0:
				_, err := index.QueryBox(models.BoundingBox{
					BottomLeft: models.NewPosition(32, -118),
					TopRight:   models.NewPosition(45, -100),
				})
				assert.NoError(t, err)
			case 1:
				_, err := index.QueryRadius(models.NewPosition(40, -100), 300)
				assert.NoError(t, err)
			case 2:
				assert.NotEmpty(t, index.NearestZones(models.NewPosition(40, -100), 10))
			}
		}(i)
	}
	wg.Wait()
}

func BenchmarkQueryBox(b *testing.B) {
	r := rand.New(rand.NewSource(5))
	positions := make([]models.Position, 100000)
	for i := range positions {
		positions[i] = models.NewPosition(r.Float64()*180-90, r.Float64()*360-180)
	}
	g := populatedGrid(b, positions...)
	index := NewZoneIndex()
	_ = index.IndexZones(g.Populated())

	box := models.BoundingBox{
		BottomLeft: models.NewPosition(35, -115),
		TopRight:   models.NewPosition(40, -110),
	}
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = index.QueryBox(box)
	}
}
