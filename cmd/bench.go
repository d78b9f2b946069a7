package main

import (
	"fmt"
	"math/rand"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"github.com/spf13/cobra"

	"github.com/kass/go-geo-zones/pkg/models"
	"github.com/kass/go-geo-zones/pkg/rtree"
	"github.com/kass/go-geo-zones/pkg/zones"
)

type BenchmarkResult struct {
	QueryType     string
	TotalQueries  int
	TotalDuration time.Duration
	AvgDuration   time.Duration
	QueriesPerSec float64
	MinDuration   time.Duration
	MaxDuration   time.Duration
	TotalResults  int64
	AvgResults    float64
	Errors        int64
}

var (
	benchAgents  int
	benchQueries int
	benchType    string
	benchBoxSize float64
	benchK       int
)

var benchCmd = &cobra.Command{
	Use:   "bench",
	Short: "Benchmark ingestion and zone queries on random agents",
	RunE: func(cmd *cobra.Command, args []string) error {
		grid, err := zones.NewGrid(cfg.Grid)
		if err != nil {
			return err
		}

		agents := randomAgents(grid.Config(), benchAgents, cfg.Attribute)
		logf("Ingesting %d random agents with %d workers...", len(agents), cfg.Workers)

		start := time.Now()
		stats, err := grid.Ingest(cmd.Context(), agents, zones.IngestOptions{Workers: cfg.Workers})
		if err != nil {
			return err
		}
		ingestDuration := time.Since(start)

		index := rtree.NewZoneIndex()
		if err := index.IndexZones(grid.Populated()); err != nil {
			return err
		}

		var query func(r *rand.Rand) (int, error)
		switch benchType {
		case "lookup":
			query = func(r *rand.Rand) (int, error) {
				_, err := grid.ZoneByPosition(randomPosition(r, grid.Config()))
				return 1, err
			}
		case "box":
			query = func(r *rand.Rand) (int, error) {
				p := randomPosition(r, grid.Config())
				box := models.BoundingBox{
					BottomLeft: p,
					TopRight:   models.NewPosition(p.LatitudeDegrees+benchBoxSize, p.LongitudeDegrees+benchBoxSize),
				}
				results, err := index.QueryBox(box)
				return len(results), err
			}
		case "nearest":
			query = func(r *rand.Rand) (int, error) {
				return len(index.NearestZones(randomPosition(r, grid.Config()), benchK)), nil
			}
		default:
			return fmt.Errorf("unknown query type: %s", benchType)
		}

		logf("Running %d %s queries with %d workers...", benchQueries, benchType, cfg.Workers)
		result := runQueries(benchType, benchQueries, cfg.Workers, query)
		if result.Errors > 0 {
			logf("%d of %d queries failed", result.Errors, result.TotalQueries)
		}

		printTitle("=== Ingestion ===")
		printStat("Agents", stats.Added)
		printStat("Populated zones", len(grid.Populated()))
		printStat("Duration", ingestDuration)
		printStat("Agents/Second", fmt.Sprintf("%.2f", float64(stats.Added)/ingestDuration.Seconds()))

		fmt.Println()
		printTitle("=== Benchmark Results ===")
		printStat("Query Type", result.QueryType)
		printStat("Total Queries", result.TotalQueries)
		printStat("Total Duration", result.TotalDuration)
		printStat("Average Duration", result.AvgDuration)
		printStat("Queries/Second", fmt.Sprintf("%.2f", result.QueriesPerSec))
		printStat("Min Duration", result.MinDuration)
		printStat("Max Duration", result.MaxDuration)
		printStat("Total Results", result.TotalResults)
		printStat("Avg Results/Query", fmt.Sprintf("%.2f", result.AvgResults))
		printStat("Failed Queries", result.Errors)
		printStat("Workers Used", cfg.Workers)
		printStat("CPU Cores", runtime.NumCPU())
		return nil
	},
}

func init() {
	benchCmd.Flags().IntVarP(&benchAgents, "agents", "n", 100000, "Number of random agents")
	benchCmd.Flags().IntVarP(&benchQueries, "queries", "q", 10000, "Number of queries to run")
	benchCmd.Flags().StringVarP(&benchType, "type", "t", "lookup", "Query type: lookup, box, nearest")
	benchCmd.Flags().Float64Var(&benchBoxSize, "box-size", 5.0, "Box size in degrees (for box queries)")
	benchCmd.Flags().IntVarP(&benchK, "count", "k", 10, "Number of nearest zones")
}

// randomPosition draws a position uniformly from the grid's degree range
func randomPosition(r *rand.Rand, c zones.Config) models.Position {
	return models.NewPosition(
		c.MinLatitude+r.Float64()*(c.MaxLatitude-c.MinLatitude),
		c.MinLongitude+r.Float64()*(c.MaxLongitude-c.MinLongitude),
	)
}

func randomAgents(c zones.Config, n int, attribute string) []*models.Agent {
	r := rand.New(rand.NewSource(time.Now().UnixNano()))
	agents := make([]*models.Agent, n)
	for i := range agents {
		agents[i] = models.NewAgent(randomPosition(r, c), map[string]any{attribute: r.Float64()})
	}
	return agents
}

// runQueries fans numQueries calls of query out over a worker pool
func runQueries(queryType string, numQueries, workers int, query func(r *rand.Rand) (int, error)) BenchmarkResult {
	var (
		totalResults int64
		failed       int64
		minDuration  = time.Hour
		maxDuration  time.Duration
		totalDur     time.Duration
		completed    int
		mu           sync.Mutex
	)
	if workers < 1 {
		workers = 1
	}

	startTime := time.Now()

	queryCh := make(chan int, numQueries)
	var wg sync.WaitGroup

	wg.Add(workers)
	for w := 0; w < workers; w++ {
		go func() {
			defer wg.Done()
			r := rand.New(rand.NewSource(rand.Int63()))

			for range queryCh {
				queryStart := time.Now()
				n, err := query(r)
				queryDuration := time.Since(queryStart)

				if err != nil {
					atomic.AddInt64(&failed, 1)
					continue
				}
				atomic.AddInt64(&totalResults, int64(n))

				mu.Lock()
				completed++
				totalDur += queryDuration
				minDuration = min(minDuration, queryDuration)
				maxDuration = max(maxDuration, queryDuration)
				mu.Unlock()
			}
		}()
	}

	for i := 0; i < numQueries; i++ {
		queryCh <- i
	}
	close(queryCh)

	wg.Wait()
	totalDuration := time.Since(startTime)

	result := BenchmarkResult{
		QueryType:     queryType,
		TotalQueries:  numQueries,
		TotalDuration: totalDuration,
		MinDuration:   minDuration,
		MaxDuration:   maxDuration,
		TotalResults:  totalResults,
		Errors:        failed,
	}
	// Rates cover successful queries only
	if completed > 0 {
		result.AvgDuration = totalDur / time.Duration(completed)
		result.QueriesPerSec = float64(completed) / totalDuration.Seconds()
		result.AvgResults = float64(totalResults) / float64(completed)
	} else {
		result.MinDuration = 0
	}
	return result
}
