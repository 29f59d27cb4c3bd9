package cmd

import (
	"github.com/spf13/cobra"
)

var (
	cfgFile string
	verbose bool
)

var rootCmd = &cobra.Command{
	Use:   "diamonddesk",
	Short: "Diamond price estimates and a moderated chat assistant",
	Long: `Diamond Desk serves two pages: a form that estimates the price of a
diamond from its characteristics using a trained regression model, and a
chat assistant backed by OpenAI where every message is screened by the
moderation API before it is answered.`,
	SilenceUsage: true,
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", ".diamonddesk.yml", "config file path")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
}
