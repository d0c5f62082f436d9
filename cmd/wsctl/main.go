package main

import (
	"os"

	"github.com/spf13/cobra"
)

var (
	apiURL string
	userID string
	output string
)

var rootCmd = &cobra.Command{
	Use:   "wsctl",
	Short: "Workspace service command line tool",
	Long:  `wsctl manages development workspaces, their containers, and project bindings.`,
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&apiURL, "api-url", "a", "http://localhost:8080", "workspace API URL")
	rootCmd.PersistentFlags().StringVarP(&userID, "user", "u", os.Getenv("WSCTL_USER"), "acting user ID (or WSCTL_USER)")
	rootCmd.PersistentFlags().StringVarP(&output, "output", "o", "table", "Output format (table, json)")
}
