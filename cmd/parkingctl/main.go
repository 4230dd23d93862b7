package main

import (
	"os"

	"github.com/citypark/platform/cmd/parkingctl/commands"
	"github.com/citypark/platform/pkg/common/logger"
)

func main() {
	logger.Init()
	logger.Log.SetOutput(os.Stderr)
	if err := commands.New(os.Stdout).Execute(); err != nil {
		logger.Log.WithError(err).Error("parkingctl failed")
		os.Exit(1)
	}
}
