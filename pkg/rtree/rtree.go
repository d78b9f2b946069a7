// Package rtree implements an R-Tree index over grid zones, partitioned into
// longitude bands that are searched in parallel.
package rtree

import (
	"fmt"
	"runtime"
	"sort"
	"sync"
	"sync/atomic"

	"github.com/dhconnelly/rtreego"

	"github.com/kass/go-geo-zones/pkg/geo"
	"github.com/kass/go-geo-zones/pkg/models"
	"github.com/kass/go-geo-zones/pkg/zones"
)

const (
	minChildren = 25
	maxChildren = 50
	dimensions  = 2
)

// spatialZone wraps a zone to implement rtreego.Spatial
type spatialZone struct {
	*zones.Zone
	rect *rtreego.Rect
}

func (sz *spatialZone) Bounds() *rtreego.Rect {
	return sz.rect
}

var _ rtreego.Spatial = (*spatialZone)(nil)

// ZoneIndex is a thread-safe R-Tree index of zone rectangles
type ZoneIndex struct {
	partitions      []*rtreego.Rtree
	partitionBounds []models.BoundingBox
	mu              sync.RWMutex
	itemCount       atomic.Int64

	// widest half-width of any indexed zone, in degrees of longitude
	halfWidth float64
}

// NewZoneIndex creates an index with one partition per CPU
func NewZoneIndex() *ZoneIndex {
	return NewZoneIndexWithPartitions(runtime.NumCPU())
}

// NewZoneIndexWithPartitions creates an index with the given number of longitude bands
func NewZoneIndexWithPartitions(numPartitions int) *ZoneIndex {
	if numPartitions <= 0 {
		numPartitions = runtime.NumCPU()
	}

	partitions := make([]*rtreego.Rtree, numPartitions)
	partitionBounds := make([]models.BoundingBox, numPartitions)

	lonRange := 360.0 / float64(numPartitions)
	for i := 0; i < numPartitions; i++ {
		partitions[i] = rtreego.NewTree(dimensions, minChildren, maxChildren)

		minLon := -180.0 + float64(i)*lonRange
		maxLon := minLon + lonRange
		if i == numPartitions-1 {
			maxLon = 180.0
		}

		partitionBounds[i] = models.BoundingBox{
			BottomLeft: models.NewPosition(-90, minLon),
			TopRight:   models.NewPosition(90, maxLon),
		}
	}

	return &ZoneIndex{
		partitions:      partitions,
		partitionBounds: partitionBounds,
	}
}

func toRect(box models.BoundingBox) (*rtreego.Rect, error) {
	return rtreego.NewRect(
		rtreego.Point{box.BottomLeft.LatitudeDegrees, box.BottomLeft.LongitudeDegrees},
		[]float64{
			box.TopRight.LatitudeDegrees - box.BottomLeft.LatitudeDegrees,
			box.TopRight.LongitudeDegrees - box.BottomLeft.LongitudeDegrees,
		},
	)
}

// IndexZones adds zones to the index. A zone is filed under the band holding its center.
func (idx *ZoneIndex) IndexZones(zs []*zones.Zone) error {
	if len(zs) == 0 {
		return nil
	}

	n := len(idx.partitions)
	partitioned := make([][]*spatialZone, n)
	lonRange := 360.0 / float64(n)

	for _, z := range zs {
		if z == nil {
			continue
		}
		rect, err := toRect(z.Bounds())
		if err != nil {
			return fmt.Errorf("zone %s: %w", z.ID(), err)
		}

		p := int((z.Center().LongitudeDegrees + 180.0) / lonRange)
		if p >= n {
			p = n - 1
		}
		if p < 0 {
			p = 0
		}
		partitioned[p] = append(partitioned[p], &spatialZone{z, rect})
	}

	idx.mu.Lock()
	defer idx.mu.Unlock()

	for _, items := range partitioned {
		for _, item := range items {
			b := item.Zone.Bounds()
			w := (b.TopRight.LongitudeDegrees - b.BottomLeft.LongitudeDegrees) / 2
			if w > idx.halfWidth {
				idx.halfWidth = w
			}
		}
	}

	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		if len(partitioned[i]) == 0 {
			continue
		}
		wg.Add(1)
		go func(tree *rtreego.Rtree, items []*spatialZone) {
			defer wg.Done()
			for _, item := range items {
				tree.Insert(item)
			}
			idx.itemCount.Add(int64(len(items)))
		}(idx.partitions[i], partitioned[i])
	}
	wg.Wait()

	return nil
}

// QueryBox returns the indexed zones overlapping box, in grid order
func (idx *ZoneIndex) QueryBox(box models.BoundingBox) ([]*zones.Zone, error) {
	bounds, err := toRect(box)
	if err != nil {
		return nil, fmt.Errorf("invalid bounding box: %w", err)
	}

	idx.mu.RLock()
	defer idx.mu.RUnlock()

	relevant := idx.relevantPartitions(box)
	resultsChan := make(chan []*zones.Zone, len(relevant))

	for _, p := range relevant {
		go func(tree *rtreego.Rtree) {
			var found []*zones.Zone
			for _, result := range tree.SearchIntersect(bounds) {
				item, ok := result.(*spatialZone)
				if !ok || !overlaps(item.Zone.Bounds(), box) {
					continue
				}
				found = append(found, item.Zone)
			}
			resultsChan <- found
		}(idx.partitions[p])
	}

	var all []*zones.Zone
	for range relevant {
		all = append(all, <-resultsChan...)
	}
	sortByIndex(all)
	return all, nil
}

// overlaps checks strict overlap so zones that only share an edge with box are excluded
func overlaps(zb models.BoundingBox, box models.BoundingBox) bool {
	return zb.BottomLeft.LatitudeDegrees < box.TopRight.LatitudeDegrees &&
		zb.TopRight.LatitudeDegrees > box.BottomLeft.LatitudeDegrees &&
		zb.BottomLeft.LongitudeDegrees < box.TopRight.LongitudeDegrees &&
		zb.TopRight.LongitudeDegrees > box.BottomLeft.LongitudeDegrees
}

// QueryRadius returns the indexed zones whose center lies within radiusKm of center
func (idx *ZoneIndex) QueryRadius(center models.Position, radiusKm float64) ([]*zones.Zone, error) {
	candidates, err := idx.QueryBox(geo.RadiusBox(center, radiusKm))
	if err != nil {
		return nil, err
	}

	var found []*zones.Zone
	for _, z := range candidates {
		if geo.DistanceBetween(center, z.Center()) <= radiusKm {
			found = append(found, z)
		}
	}
	return found, nil
}

// NearestZones returns up to n indexed zones ordered by center distance from p
func (idx *ZoneIndex) NearestZones(p models.Position, n int) []*zones.Zone {
	if n <= 0 {
		return nil
	}

	idx.mu.RLock()
	defer idx.mu.RUnlock()

	type nearestResult struct {
		zone     *zones.Zone
		distance float64
	}

	resultsChan := make(chan []nearestResult, len(idx.partitions))
	for _, tree := range idx.partitions {
		go func(tree *rtreego.Rtree) {
			query := rtreego.Point{p.LatitudeDegrees, p.LongitudeDegrees}
			// Ask for extra candidates: planar rtree distance differs from great-circle distance
			results := tree.NearestNeighbors(n*2, query)

			out := make([]nearestResult, 0, len(results))
			for _, result := range results {
				item, ok := result.(*spatialZone)
				if !ok {
					continue
				}
				out = append(out, nearestResult{
					zone:     item.Zone,
					distance: geo.DistanceBetween(p, item.Center()),
				})
			}
			resultsChan <- out
		}(tree)
	}

	var all []nearestResult
	for range idx.partitions {
		all = append(all, <-resultsChan...)
	}

	sort.Slice(all, func(i, j int) bool {
		if all[i].distance == all[j].distance {
			return all[i].zone.Index < all[j].zone.Index
		}
		return all[i].distance < all[j].distance
	})

	if len(all) > n {
		all = all[:n]
	}
	out := make([]*zones.Zone, len(all))
	for i, r := range all {
		out[i] = r.zone
	}
	return out
}

// Count returns the number of indexed zones
func (idx *ZoneIndex) Count() int64 {
	return idx.itemCount.Load()
}

// Clear removes all zones from the index
func (idx *ZoneIndex) Clear() {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	for i := range idx.partitions {
		idx.partitions[i] = rtreego.NewTree(dimensions, minChildren, maxChildren)
	}
	idx.itemCount.Store(0)
	idx.halfWidth = 0
}

// relevantPartitions returns the partitions whose longitude band can hold zones overlapping box.
// Zones are filed by center, so each band is widened by the widest indexed half-width.
func (idx *ZoneIndex) relevantPartitions(box models.BoundingBox) []int {
	slack := idx.halfWidth
	var relevant []int
	for i, bounds := range idx.partitionBounds {
		if box.BottomLeft.LongitudeDegrees <= bounds.TopRight.LongitudeDegrees+slack &&
			box.TopRight.LongitudeDegrees >= bounds.BottomLeft.LongitudeDegrees-slack {
			relevant = append(relevant, i)
		}
	}
	return relevant
}

func sortByIndex(zs []*zones.Zone) {
	sort.Slice(zs, func(i, j int) bool { return zs[i].Index < zs[j].Index })
}
