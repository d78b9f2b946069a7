package export

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kass/go-geo-zones/pkg/models"
	"github.com/kass/go-geo-zones/pkg/zones"
)

func testZones(t *testing.T) []*zones.Zone {
	t.Helper()
	g, err := zones.NewGrid(zones.DefaultConfig())
	require.NoError(t, err)

	for _, a := range []*models.Agent{
		models.NewAgent(models.NewPosition(10.2, 20.3), map[string]any{"agreeableness": 1.0}),
		models.NewAgent(models.NewPosition(10.7, 20.9), map[string]any{"agreeableness": 3.0}),
	} {
		_, err := g.Add(a)
		require.NoError(t, err)
	}

	return g.ZonesIn(models.BoundingBox{
		BottomLeft: models.NewPosition(10, 20),
		TopRight:   models.NewPosition(11, 22),
	})
}

func TestFeatureCollection(t *testing.T) {
	zs := testZones(t)
	require.Len(t, zs, 2)

	fc, err := FeatureCollection(zs, zones.AgreeablenessAttribute)
	require.NoError(t, err)
	require.Len(t, fc.Features, 2)

	f := fc.Features[0]
	assert.Equal(t, "zone_100_200", f.ID)
	assert.Equal(t, 2, f.Properties["population"])
	assert.Equal(t, 2.0, f.Properties["agreeableness"])
	assert.Equal(t, 2/zs[0].Area(), f.Properties["density"])
	assert.Less(t, f.Properties.MustFloat64("surface_area_km2"), zs[0].Area())

	poly, ok := f.Geometry.(orb.Polygon)
	require.True(t, ok)
	assert.Equal(t, orb.Bound{Min: orb.Point{20, 10}, Max: orb.Point{21, 11}}, poly.Bound())

	empty := fc.Features[1]
	assert.Equal(t, 0, empty.Properties["population"])
	assert.Equal(t, 0.0, empty.Properties["agreeableness"])
}

func TestFeatureCollectionMissingAttribute(t *testing.T) {
	_, err := FeatureCollection(testZones(t), "openness")
	assert.ErrorIs(t, err, models.ErrMissingAttribute)

	fc, err := FeatureCollection(testZones(t), "")
	require.NoError(t, err)
	assert.NotContains(t, fc.Features[0].Properties, "")
}

func TestWriteFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "zones.geojson")
	require.NoError(t, WriteFile(path, testZones(t), zones.AgreeablenessAttribute))

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	fc, err := geojson.UnmarshalFeatureCollection(data)
	require.NoError(t, err)
	require.Len(t, fc.Features, 2)
	assert.Equal(t, 2.0, fc.Features[0].Properties.MustFloat64("population"))

	var buf bytes.Buffer
	fc2, err := FeatureCollection(testZones(t), "")
	require.NoError(t, err)
	require.NoError(t, WriteGeoJSON(&buf, fc2))
	assert.Contains(t, buf.String(), `"type":"FeatureCollection"`)
}
