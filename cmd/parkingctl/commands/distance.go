package commands

import (
	"fmt"
	"strconv"

	"github.com/citypark/platform/pkg/geo"
	"github.com/spf13/cobra"
)

func installDistanceCmd(app *App) {
	var unit string

	cmd := &cobra.Command{
		Use:   "distance LAT1 LON1 LAT2 LON2",
		Short: "Print the great-circle distance between two points",
		Args:  cobra.ExactArgs(4),
		RunE: func(cmd *cobra.Command, args []string) error {
			coords := make([]float64, len(args))
			for i, arg := range args {
				v, err := strconv.ParseFloat(arg, 64)
				if err != nil {
					return fmt.Errorf("invalid coordinate %q", arg)
				}
				coords[i] = v
			}
			u, err := geo.ParseUnit(unit)
			if err != nil {
				return err
			}
			d, err := geo.Distance(coords[0], coords[1], coords[2], coords[3], u)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintf(app.out, "%.6f\n", d)
			return err
		},
	}

	cmd.Flags().StringVarP(&unit, "unit", "u", string(geo.Kilometers), "distance unit (K, M or N)")
	app.rootCmd.AddCommand(cmd)
}
