package main

import (
	"fmt"
	"os"
	"runtime"

	"github.com/spf13/cobra"

	"github.com/kass/go-geo-zones/pkg/config"
)

var (
	configFile string
	verbose    bool

	v   = config.New()
	cfg config.Config
)

var rootCmd = &cobra.Command{
	Use:   "go-geo-zones",
	Short: "Bin geo-located agents into a global grid and plot per-zone statistics",
	Long: `Assigns agents to 1x1 degree zones covering the Earth and computes per-zone
population, density and attribute means for plotting and export.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := config.BindFlags(v, cmd.Flags(), map[string]string{
			"file":         "input.file",
			"source":       "input.source",
			"attribute":    "attribute",
			"workers":      "workers",
			"skip-invalid": "skip_invalid",
		}); err != nil {
			return err
		}

		var err error
		if cfg, err = config.Load(v, configFile); err != nil {
			return err
		}
		if f := config.UsedFile(v); f != "" && verbose {
			logf("Using config file %s", f)
		}
		return nil
	},
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVarP(&configFile, "config", "c", "", "Config file (default ./go-geo-zones.yaml)")
	pf.BoolVarP(&verbose, "verbose", "v", false, "Verbose output")
	pf.StringP("file", "f", "agents.json", "Agents JSON file")
	pf.String("source", config.SourceJSON, "Agent source: json or postgis")
	pf.StringP("attribute", "a", "agreeableness", "Agent attribute to average per zone")
	pf.IntP("workers", "w", runtime.NumCPU(), "Number of ingestion workers")
	pf.Bool("skip-invalid", false, "Skip agents outside the grid instead of failing")

	rootCmd.AddCommand(lookupCmd, plotCmd, statsCmd, exportCmd, nearestCmd, seedCmd, benchCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, errorStyle.Render(err.Error()))
		os.Exit(1)
	}
}
