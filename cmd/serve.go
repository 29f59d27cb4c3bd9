package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/ziadkadry99/diamond-desk/internal/audit"
	"github.com/ziadkadry99/diamond-desk/internal/db"
	mcpserver "github.com/ziadkadry99/diamond-desk/internal/mcp"
	"github.com/ziadkadry99/diamond-desk/internal/pricing"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the MCP server for AI agent integration",
	Long:  `Starts a Model Context Protocol (MCP) server on stdio, exposing the diamond price estimator and the usage ledger as tools for AI agents.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		database, err := db.Open(cfg.DBPath)
		if err != nil {
			return fmt.Errorf("opening database: %w", err)
		}
		defer database.Close()

		estimator := pricing.NewEstimator(loadPredictor(cfg))

		// Set version from the cmd package variable.
		mcpserver.Version = Version

		fmt.Fprintf(os.Stderr, "diamonddesk MCP server started on stdio (model=%s)\n", modelDescription(estimator))

		srv := mcpserver.NewServer(estimator, audit.NewStore(database))
		return srv.Serve()
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}
