package cmd

import (
	"github.com/spf13/cobra"

	"github.com/ziadkadry99/diamond-desk/internal/config"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize diamonddesk configuration with an interactive wizard",
	Long:  `Runs an interactive wizard that locates the price model, picks the chat defaults and writes a .diamonddesk.yml file.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		_, err := config.RunWizard(cfgFile)
		return err
	},
}

func init() {
	rootCmd.AddCommand(initCmd)
}
