// Package export writes zone statistics in GeoJSON.
package export

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/paulmach/orb/geojson"

	"github.com/kass/go-geo-zones/pkg/geo"
	"github.com/kass/go-geo-zones/pkg/zones"
)

// FeatureCollection builds one polygon feature per zone, carrying population,
// density and the mean of attribute. An empty attribute skips the mean.
func FeatureCollection(zs []*zones.Zone, attribute string) (*geojson.FeatureCollection, error) {
	fc := geojson.NewFeatureCollection()

	for _, z := range zs {
		// Bound.ToPolygon yields a closed [lon, lat] ring
		feature := geojson.NewFeature(geo.Bound(z.Bounds()).ToPolygon())
		feature.ID = z.ID()
		feature.Properties["id"] = z.ID()
		feature.Properties["index"] = z.Index
		feature.Properties["population"] = z.Population()
		feature.Properties["area_km2"] = z.Area()
		feature.Properties["surface_area_km2"] = geo.SurfaceArea(z.Bounds(), z.Config().EarthRadiusKm)
		feature.Properties["density"] = z.Density()

		if attribute != "" {
			mean, err := z.AttributeMean(attribute)
			if err != nil {
				return nil, err
			}
			feature.Properties[attribute] = mean
		}

		fc.Append(feature)
	}

	return fc, nil
}

// WriteGeoJSON encodes the collection to w
func WriteGeoJSON(w io.Writer, fc *geojson.FeatureCollection) error {
	enc := json.NewEncoder(w)
	if err := enc.Encode(fc); err != nil {
		return fmt.Errorf("failed to encode GeoJSON: %w", err)
	}
	return nil
}

// WriteFile exports zones to a GeoJSON file
func WriteFile(path string, zs []*zones.Zone, attribute string) error {
	fc, err := FeatureCollection(zs, attribute)
	if err != nil {
		return err
	}

	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	defer file.Close()

	if err := WriteGeoJSON(file, fc); err != nil {
		return err
	}
	return file.Close()
}
