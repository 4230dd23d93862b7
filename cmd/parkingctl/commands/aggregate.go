package commands

import (
	"errors"
	"fmt"
	"time"

	"github.com/citypark/platform/pkg/aggregation"
	"github.com/citypark/platform/pkg/citymanager"
	"github.com/citypark/platform/pkg/common/models"
	"github.com/citypark/platform/pkg/fetcher"
	"github.com/citypark/platform/pkg/geo"
	"github.com/spf13/cobra"
)

type aggregateConfig struct {
	file      string
	name      string
	latitude  float64
	longitude float64
	rangeKm   float64
	timeout   time.Duration
}

func installAggregateCmd(app *App) {
	var conf aggregateConfig

	cmd := &cobra.Command{
		Use:   "aggregate",
		Short: "Fetch every source of a city configuration and print the merged facilities",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			latSet := cmd.Flags().Changed("lat")
			lonSet := cmd.Flags().Changed("lon")
			if latSet != lonSet {
				return errors.New("--lat and --lon must be given together")
			}
			if conf.rangeKm < 0 {
				return fmt.Errorf("invalid range %v", conf.rangeKm)
			}

			cfg, err := citymanager.LoadConfig(conf.file)
			if err != nil {
				return err
			}
			if err := citymanager.Validate(cfg); err != nil {
				return err
			}

			engine := aggregation.NewEngine(fetcher.NewClient(fetcher.Options{Timeout: conf.timeout}))
			facilities, err := engine.Aggregate(cmd.Context(), cfg)
			if err != nil {
				return err
			}

			if conf.name != "" {
				for _, f := range facilities {
					if f.Name == conf.name {
						return app.printJSON(f)
					}
				}
				return fmt.Errorf("no facility named %q in %s", conf.name, cfg.City)
			}

			if latSet {
				ref := &models.Position{Latitude: conf.latitude, Longitude: conf.longitude}
				nearby := make([]models.Facility, 0, len(facilities))
				for _, f := range facilities {
					if geo.InRange(ref, f, conf.rangeKm) {
						nearby = append(nearby, f)
					}
				}
				facilities = nearby
			}
			return app.printJSON(facilities)
		},
	}

	cmd.Flags().StringVarP(&conf.file, "config", "c", "", "city configuration file (YAML or JSON)")
	cmd.Flags().StringVar(&conf.name, "name", "", "print only the facility with this exact name")
	cmd.Flags().Float64Var(&conf.latitude, "lat", 0, "reference latitude")
	cmd.Flags().Float64Var(&conf.longitude, "lon", 0, "reference longitude")
	cmd.Flags().Float64Var(&conf.rangeKm, "range", 0.5, "search radius in kilometers")
	cmd.Flags().DurationVar(&conf.timeout, "timeout", fetcher.DefaultTimeout, "timeout of each source call")
	_ = cmd.MarkFlagRequired("config")

	app.rootCmd.AddCommand(cmd)
}
