package cmd

import (
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "lexiz",
	Short: "Spaced-repetition vocabulary trainer",
	Long: "Lexiz schedules vocabulary reviews with SM-2, varies how each word is asked\n" +
		"and adapts to how quickly and how well you answer.",
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runReview(cmd, false)
	},
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().String("db", "", "Path to SQLite database file (overrides LEXIZ_DB env var)")
	rootCmd.PersistentFlags().String("config", "", "Path to a config file (default: $XDG_CONFIG_HOME/lexiz/config.yaml)")

	rootCmd.AddCommand(addCmd)
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(deleteCmd)
	rootCmd.AddCommand(dueCmd)
	rootCmd.AddCommand(reviewCmd)
	rootCmd.AddCommand(statsCmd)
	rootCmd.AddCommand(versionCmd)
}
