// Package commands implements parkingctl, a command line tool to try a city
// configuration against its sources without running the parking service.
package commands

import (
	"encoding/json"
	"io"

	"github.com/citypark/platform/pkg/common/logger"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

type App struct {
	rootCmd *cobra.Command
	out     io.Writer
	verbose bool
}

// New builds the command tree. Results are written to out.
func New(out io.Writer) *App {
	app := &App{out: out}
	app.rootCmd = &cobra.Command{
		Use:           "parkingctl",
		Short:         "Inspect parking availability sources",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	app.rootCmd.PersistentPreRun = func(cmd *cobra.Command, args []string) {
		if app.verbose {
			logger.Log.SetLevel(logrus.DebugLevel)
		}
	}
	app.rootCmd.SetOut(out)
	app.rootCmd.PersistentFlags().BoolVarP(&app.verbose, "verbose", "v", false, "enable debug logging")

	installAggregateCmd(app)
	installDistanceCmd(app)
	return app
}

func (a *App) Execute() error {
	return a.rootCmd.Execute()
}

// SetArgs overrides the command line, mostly for tests.
func (a *App) SetArgs(args []string) {
	a.rootCmd.SetArgs(args)
}

func (a *App) printJSON(payload interface{}) error {
	enc := json.NewEncoder(a.out)
	enc.SetIndent("", "  ")
	return enc.Encode(payload)
}
