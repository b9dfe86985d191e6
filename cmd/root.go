package cmd

import (
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "unisupport",
	Short: "Student skills assessments and career suggestions",
	Long:  "UniSupport runs skills assessments, keeps your attempt history and suggests careers from it, in the terminal, over HTTP or on Telegram.",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runApp(cmd)
	},
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().String("db", "", "Path to SQLite database file (overrides UNISUPPORT_DB env var)")
	rootCmd.PersistentFlags().StringP("user", "u", "local", "User ID for local commands")

	rootCmd.AddCommand(playCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(botCmd)
	rootCmd.AddCommand(seedCmd)
	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(recommendCmd)
	rootCmd.AddCommand(tokenCmd)
	rootCmd.AddCommand(llmCmd)
	rootCmd.AddCommand(versionCmd)
}
