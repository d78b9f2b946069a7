package main

import (
	"encoding/json"
	"fmt"
	"io"
	"math"
	"os"
	"sort"

	"github.com/spf13/cobra"
	"gonum.org/v1/gonum/stat"
	"gopkg.in/yaml.v3"

	"github.com/kass/go-geo-zones/pkg/zones"
)

// ZoneSummary is a single zone's row in a Report
type ZoneSummary struct {
	ID         string  `json:"id" yaml:"id"`
	Index      int     `json:"index" yaml:"index"`
	Population int     `json:"population" yaml:"population"`
	Density    float64 `json:"density" yaml:"density"`
	Mean       float64 `json:"mean" yaml:"mean"`
}

// Report summarizes a zone selection
type Report struct {
	Attribute     string        `json:"attribute" yaml:"attribute"`
	Zones         int           `json:"zones" yaml:"zones"`
	Populated     int           `json:"populated" yaml:"populated"`
	Population    int           `json:"population" yaml:"population"`
	MeanDensity   float64       `json:"mean_density" yaml:"mean_density"`
	MeanAttribute float64       `json:"mean_attribute" yaml:"mean_attribute"`
	Correlation   *float64      `json:"correlation,omitempty" yaml:"correlation,omitempty"`
	Densest       []ZoneSummary `json:"densest" yaml:"densest"`
}

// buildReport computes statistics over the populated zones of zs. The
// correlation between density and the attribute mean is left unset when it
// is undefined.
func buildReport(zs []*zones.Zone, attribute string, top int) (Report, error) {
	report := Report{Attribute: attribute, Zones: len(zs)}

	var populated []*zones.Zone
	for _, z := range zs {
		if n := z.Population(); n > 0 {
			populated = append(populated, z)
			report.Population += n
		}
	}
	report.Populated = len(populated)
	if len(populated) == 0 {
		return report, nil
	}

	density, mean, err := zones.Series(populated, attribute)
	if err != nil {
		return report, err
	}

	// Weighted by population so the attribute mean is per agent
	weights := make([]float64, len(populated))
	for i, z := range populated {
		weights[i] = float64(z.Population())
	}
	report.MeanDensity = stat.Mean(density, nil)
	report.MeanAttribute = stat.Mean(mean, weights)

	if len(populated) > 1 {
		if c := stat.Correlation(density, mean, nil); !math.IsNaN(c) {
			report.Correlation = &c
		}
	}

	order := make([]int, len(populated))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return density[order[a]] > density[order[b]]
	})
	top = max(0, min(top, len(order)))
	for _, i := range order[:top] {
		z := populated[i]
		report.Densest = append(report.Densest, ZoneSummary{
			ID:         z.ID(),
			Index:      z.Index,
			Population: z.Population(),
			Density:    density[i],
			Mean:       mean[i],
		})
	}
	return report, nil
}

func writeReport(w io.Writer, report Report, format string) error {
	switch format {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(report)
	case "yaml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(report); err != nil {
			return err
		}
		return enc.Close()
	case "text":
		fprintTitle(w, fmt.Sprintf("Zone statistics (%s)", report.Attribute))
		fprintStat(w, "Zones", report.Zones)
		fprintStat(w, "Populated zones", report.Populated)
		fprintStat(w, "Agents", report.Population)
		fprintStat(w, "Mean density (agents/km²)", fmt.Sprintf("%.6f", report.MeanDensity))
		fprintStat(w, "Mean "+report.Attribute, fmt.Sprintf("%.4f", report.MeanAttribute))
		if report.Correlation != nil {
			fprintStat(w, "Density correlation", fmt.Sprintf("%.4f", *report.Correlation))
		}
		if len(report.Densest) > 0 {
			fmt.Fprintln(w)
			fprintTitle(w, "Densest zones")
			for _, z := range report.Densest {
				fprintStat(w, z.ID, fmt.Sprintf("population %d, density %.6f, mean %.4f", z.Population, z.Density, z.Mean))
			}
		}
		return nil
	default:
		return fmt.Errorf("unknown format %q", format)
	}
}

var (
	statsFormat    string
	statsTop       int
	statsSelection selection
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Summarize zone population, density and attribute means",
	RunE: func(cmd *cobra.Command, args []string) error {
		grid, err := statsSelection.populate(cmd.Context(), cfg)
		if err != nil {
			return err
		}

		zs, err := statsSelection.zones(grid)
		if err != nil {
			return err
		}
		report, err := buildReport(zs, cfg.Attribute, statsTop)
		if err != nil {
			return err
		}
		return writeReport(os.Stdout, report, statsFormat)
	},
}

func init() {
	statsCmd.Flags().StringVar(&statsFormat, "format", "text", "Output format: text, json or yaml")
	statsCmd.Flags().IntVar(&statsTop, "top", 10, "Number of densest zones to list")
	statsSelection.register(statsCmd)
}
