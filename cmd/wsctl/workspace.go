package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

type WorkspaceRow struct {
	ID               string  `json:"id"`
	Name             string  `json:"name"`
	Description      string  `json:"description"`
	Type             string  `json:"type"`
	Status           string  `json:"status"`
	IsDefault        bool    `json:"is_default"`
	CurrentProjectID *string `json:"current_project_id"`
	ContainerName    string  `json:"container_name"`
	VolumeName       string  `json:"volume_name"`
	CreatedAt        string  `json:"created_at"`
}

type StatusRow struct {
	ContainerRunning bool   `json:"container_running"`
	State            string `json:"state"`
	ContainerName    string `json:"container_name"`
}

var (
	wsCreateType    string
	wsCreateDesc    string
	wsCreateDefault bool
)

var workspaceCmd = &cobra.Command{
	Use:     "workspace",
	Aliases: []string{"ws"},
	Short:   "Workspace management commands",
}

var wsCreateCmd = &cobra.Command{
	Use:   "create <name>",
	Short: "Create a new workspace",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		client := NewClient(apiURL, userID)

		req := map[string]interface{}{
			"name":      args[0],
			"type":      wsCreateType,
			"isDefault": wsCreateDefault,
		}
		if wsCreateDesc != "" {
			req["description"] = wsCreateDesc
		}

		var ws WorkspaceRow
		if err := client.Post("/workspaces", req, &ws); err != nil {
			fatal(err)
		}
		fmt.Printf("Workspace %s created.\n", ws.ID)
		printResult(ws)
	},
}

var wsGetCmd = &cobra.Command{
	Use:   "get <id>",
	Short: "Get workspace details",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		client := NewClient(apiURL, userID)

		var ws WorkspaceRow
		if err := client.Get("/workspaces/"+args[0], &ws); err != nil {
			fatal(err)
		}
		printResult(ws)
	},
}

var wsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List workspaces",
	Run: func(cmd *cobra.Command, args []string) {
		client := NewClient(apiURL, userID)

		var rows []WorkspaceRow
		if err := client.Get("/workspaces", &rows); err != nil {
			fatal(err)
		}
		printResult(rows)
	},
}

var wsDeleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete a workspace and its container and volume",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		client := NewClient(apiURL, userID)

		if err := client.Delete("/workspaces/"+args[0], nil); err != nil {
			fatal(err)
		}
		fmt.Printf("Workspace %s deleted.\n", args[0])
	},
}

var wsStartCmd = &cobra.Command{
	Use:   "start <id>",
	Short: "Start a workspace container",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		client := NewClient(apiURL, userID)

		var ws WorkspaceRow
		if err := client.Post("/workspaces/"+args[0]+"/start", nil, &ws); err != nil {
			fatal(err)
		}
		fmt.Printf("Workspace %s is %s.\n", ws.ID, ws.Status)
	},
}

var wsStopCmd = &cobra.Command{
	Use:   "stop <id>",
	Short: "Stop a workspace container",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		client := NewClient(apiURL, userID)

		var ws WorkspaceRow
		if err := client.Post("/workspaces/"+args[0]+"/stop", nil, &ws); err != nil {
			fatal(err)
		}
		fmt.Printf("Workspace %s is %s.\n", ws.ID, ws.Status)
	},
}

var wsRestartCmd = &cobra.Command{
	Use:   "restart <id>",
	Short: "Restart a workspace container",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		client := NewClient(apiURL, userID)

		var ws WorkspaceRow
		if err := client.Post("/workspaces/"+args[0]+"/restart", nil, &ws); err != nil {
			fatal(err)
		}
		fmt.Printf("Workspace %s is %s.\n", ws.ID, ws.Status)
	},
}

var wsStatusCmd = &cobra.Command{
	Use:   "status <id>",
	Short: "Show the live container state of a workspace",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		client := NewClient(apiURL, userID)

		var st StatusRow
		if err := client.Get("/workspaces/"+args[0]+"/status", &st); err != nil {
			fatal(err)
		}
		printResult(st)
	},
}

var wsSetDefaultCmd = &cobra.Command{
	Use:   "set-default <id>",
	Short: "Mark a workspace as the user's default",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		client := NewClient(apiURL, userID)

		var ws WorkspaceRow
		if err := client.Post("/workspaces/"+args[0]+"/set-default", nil, &ws); err != nil {
			fatal(err)
		}
		fmt.Printf("Workspace %s is now the default.\n", ws.ID)
	},
}

func init() {
	wsCreateCmd.Flags().StringVarP(&wsCreateType, "type", "t", "vscode", "workspace type (vscode, jupyter, terminal)")
	wsCreateCmd.Flags().StringVarP(&wsCreateDesc, "description", "d", "", "workspace description")
	wsCreateCmd.Flags().BoolVar(&wsCreateDefault, "default", false, "mark as the default workspace")

	workspaceCmd.AddCommand(wsCreateCmd, wsGetCmd, wsListCmd, wsDeleteCmd,
		wsStartCmd, wsStopCmd, wsRestartCmd, wsStatusCmd, wsSetDefaultCmd)
	rootCmd.AddCommand(workspaceCmd)
}

func fatal(err error) {
	fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	os.Exit(1)
}
