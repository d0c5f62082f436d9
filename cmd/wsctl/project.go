package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

type ProjectRow struct {
	ID            string  `json:"id"`
	Name          string  `json:"name"`
	WorkspaceID   *string `json:"workspace_id"`
	WorkspaceType *string `json:"workspace_type"`
	CreatedAt     string  `json:"created_at"`
}

var projectCmd = &cobra.Command{
	Use:     "project",
	Aliases: []string{"proj"},
	Short:   "Project binding commands",
}

var projListCmd = &cobra.Command{
	Use:   "list <workspace-id>",
	Short: "List projects assigned to a workspace",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		client := NewClient(apiURL, userID)

		var rows []ProjectRow
		if err := client.Get("/workspaces/"+args[0]+"/projects", &rows); err != nil {
			fatal(err)
		}
		printResult(rows)
	},
}

var projCompatibleCmd = &cobra.Command{
	Use:   "compatible <workspace-id>",
	Short: "List projects compatible with a workspace's type",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		client := NewClient(apiURL, userID)

		var rows []ProjectRow
		if err := client.Get("/workspaces/"+args[0]+"/compatible-projects", &rows); err != nil {
			fatal(err)
		}
		printResult(rows)
	},
}

var projUnassignedCmd = &cobra.Command{
	Use:   "unassigned",
	Short: "List projects not bound to any workspace",
	Run: func(cmd *cobra.Command, args []string) {
		client := NewClient(apiURL, userID)

		var rows []ProjectRow
		if err := client.Get("/projects/unassigned", &rows); err != nil {
			fatal(err)
		}
		printResult(rows)
	},
}

var projAssignCmd = &cobra.Command{
	Use:   "assign <workspace-id> <project-id>",
	Short: "Assign a project to a workspace",
	Args:  cobra.ExactArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		client := NewClient(apiURL, userID)

		req := map[string]string{"projectId": args[1]}
		var p ProjectRow
		if err := client.Post("/workspaces/"+args[0]+"/assign-project", req, &p); err != nil {
			fatal(err)
		}
		fmt.Printf("Project %s assigned to workspace %s.\n", p.ID, args[0])
	},
}

var projUnassignCmd = &cobra.Command{
	Use:   "unassign <workspace-id> <project-id>",
	Short: "Unassign a project from a workspace",
	Args:  cobra.ExactArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		client := NewClient(apiURL, userID)

		req := map[string]string{"projectId": args[1]}
		var p ProjectRow
		if err := client.Post("/workspaces/"+args[0]+"/unassign-project", req, &p); err != nil {
			fatal(err)
		}
		fmt.Printf("Project %s unassigned.\n", p.ID)
	},
}

var projSwitchCmd = &cobra.Command{
	Use:   "switch <workspace-id> <project-id>",
	Short: "Switch the workspace's active project and remount its container",
	Args:  cobra.ExactArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		client := NewClient(apiURL, userID)

		req := map[string]string{"projectId": args[1]}
		var ws WorkspaceRow
		if err := client.Post("/workspaces/"+args[0]+"/switch-project", req, &ws); err != nil {
			fatal(err)
		}
		fmt.Printf("Workspace %s now on project %s.\n", ws.ID, args[1])
	},
}

func init() {
	projectCmd.AddCommand(projListCmd, projCompatibleCmd, projUnassignedCmd,
		projAssignCmd, projUnassignCmd, projSwitchCmd)
	rootCmd.AddCommand(projectCmd)
}
