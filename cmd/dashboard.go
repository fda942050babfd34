package cmd

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var dashboardCmd = &cobra.Command{
	Use:   "dashboard",
	Short: "Print the aggregated interview results overview",
	Run: func(_ *cobra.Command, _ []string) {
		printDashboard()
	},
}

func init() {
	rootCmd.AddCommand(dashboardCmd)
}

func printDashboard() {
	ctx := context.Background()

	logger, config := bootstrap("dashboard")
	defer logger.Sync()

	d, err := newDeps(ctx, config, logger)
	if err != nil {
		logger.Fatal("connecting to backends", zap.Error(err))
	}
	defer d.Close(ctx)

	if d.dashboard == nil {
		logger.Fatal("mongo.uri is required to build the dashboard",
			zap.String("hint", "set MONGO_URI environment variable or the 'mongo.uri' key in the configuration file"),
		)
	}

	overview, err := d.dashboard.Overview(ctx)
	if err != nil {
		logger.Fatal("building the dashboard", zap.Error(err))
	}

	pretty, err := json.MarshalIndent(overview, "", "  ")
	if err != nil {
		logger.Fatal("encoding the dashboard", zap.Error(err))
	}

	fmt.Println(string(pretty))
}
