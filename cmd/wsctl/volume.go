package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var volumeCmd = &cobra.Command{
	Use:     "volume",
	Aliases: []string{"vol"},
	Short:   "Workspace volume commands",
}

var volBackupCmd = &cobra.Command{
	Use:   "backup <workspace-id>",
	Short: "Back up a workspace's volume",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		client := NewClient(apiURL, userID)

		var resp struct {
			BackupID string `json:"backup_id"`
		}
		if err := client.Post("/workspaces/"+args[0]+"/volume/backup", nil, &resp); err != nil {
			fatal(err)
		}
		fmt.Printf("Backup created: %s\n", resp.BackupID)
	},
}

var volRestoreCmd = &cobra.Command{
	Use:   "restore <workspace-id> <backup-id>",
	Short: "Restore a workspace's volume from a backup",
	Args:  cobra.ExactArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		client := NewClient(apiURL, userID)

		req := map[string]string{"backupId": args[1]}
		if err := client.Post("/workspaces/"+args[0]+"/volume/restore", req, nil); err != nil {
			fatal(err)
		}
		fmt.Printf("Volume restored from backup %s.\n", args[1])
	},
}

var volCloneCmd = &cobra.Command{
	Use:   "clone <source-workspace-id> <target-workspace-id>",
	Short: "Clone a workspace's volume into another workspace",
	Args:  cobra.ExactArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		client := NewClient(apiURL, userID)

		req := map[string]string{"targetWorkspaceId": args[1]}
		if err := client.Post("/workspaces/"+args[0]+"/volume/clone", req, nil); err != nil {
			fatal(err)
		}
		fmt.Printf("Volume cloned into workspace %s.\n", args[1])
	},
}

func init() {
	volumeCmd.AddCommand(volBackupCmd, volRestoreCmd, volCloneCmd)
	rootCmd.AddCommand(volumeCmd)
}
