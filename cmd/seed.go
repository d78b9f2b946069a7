package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/kass/go-geo-zones/pkg/postgis"
	"github.com/kass/go-geo-zones/pkg/source"
)

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Load agents from a JSON file into PostGIS",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		agents, err := source.LoadFile(cfg.Input.File)
		if err != nil {
			return err
		}
		logf("Read %d agents from %s", len(agents), cfg.Input.File)

		store, err := postgis.Open(ctx, cfg.PostGIS)
		if err != nil {
			return err
		}
		defer store.Close()

		if err := store.InitSchema(ctx); err != nil {
			return err
		}

		start := time.Now()
		if err := store.BulkInsertAgents(ctx, agents); err != nil {
			return err
		}
		count, err := store.Count(ctx)
		if err != nil {
			return err
		}

		printSuccess(fmt.Sprintf("Inserted %d agents in %v (%d in table)", len(agents), time.Since(start), count))
		return nil
	},
}
