package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

type jobResult struct {
	Count int    `json:"count"`
	Error string `json:"error,omitempty"`
}

var reconcileCmd = &cobra.Command{
	Use:   "reconcile",
	Short: "Run all reconciliation jobs once",
	Run: func(cmd *cobra.Command, args []string) {
		client := NewClient(apiURL, userID)

		var results map[string]jobResult
		if err := client.Post("/admin/reconcile", nil, &results); err != nil {
			fatal(err)
		}
		if output == "json" {
			printResult(results)
			return
		}
		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "JOB\tAFFECTED\tERROR")
		for name, res := range results {
			fmt.Fprintf(w, "%s\t%d\t%s\n", name, res.Count, res.Error)
		}
		w.Flush()
	},
}

func init() {
	rootCmd.AddCommand(reconcileCmd)
}
