package main

import (
	"encoding/json"
	"fmt"
	"os"
	"text/tabwriter"
)

func printResult(v interface{}) {
	if output == "json" {
		json.NewEncoder(os.Stdout).Encode(v)
		return
	}
	printTable(v)
}

func printTable(v interface{}) {
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	switch data := v.(type) {
	case []WorkspaceRow:
		if len(data) == 0 {
			fmt.Println("No workspaces found.")
			return
		}
		fmt.Fprintln(w, "ID\tNAME\tTYPE\tSTATUS\tDEFAULT\tCREATED")
		for _, ws := range data {
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n", ws.ID[:8], ws.Name, ws.Type, ws.Status, mark(ws.IsDefault), ws.CreatedAt)
		}
	case WorkspaceRow:
		fmt.Fprintf(w, "ID:\t%s\n", data.ID)
		fmt.Fprintf(w, "Name:\t%s\n", data.Name)
		if data.Description != "" {
			fmt.Fprintf(w, "Description:\t%s\n", data.Description)
		}
		fmt.Fprintf(w, "Type:\t%s\n", data.Type)
		fmt.Fprintf(w, "Status:\t%s\n", data.Status)
		fmt.Fprintf(w, "Default:\t%s\n", mark(data.IsDefault))
		if data.CurrentProjectID != nil {
			fmt.Fprintf(w, "Current project:\t%s\n", *data.CurrentProjectID)
		}
		if data.ContainerName != "" {
			fmt.Fprintf(w, "Container:\t%s\n", data.ContainerName)
		}
		if data.VolumeName != "" {
			fmt.Fprintf(w, "Volume:\t%s\n", data.VolumeName)
		}
		fmt.Fprintf(w, "Created:\t%s\n", data.CreatedAt)
	case []ProjectRow:
		if len(data) == 0 {
			fmt.Println("No projects found.")
			return
		}
		fmt.Fprintln(w, "ID\tNAME\tTYPE\tWORKSPACE\tCREATED")
		for _, p := range data {
			wsid := "-"
			if p.WorkspaceID != nil {
				wsid = (*p.WorkspaceID)[:8]
			}
			typ := "any"
			if p.WorkspaceType != nil {
				typ = *p.WorkspaceType
			}
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", p.ID[:8], p.Name, typ, wsid, p.CreatedAt)
		}
	case StatusRow:
		fmt.Fprintf(w, "State:\t%s\n", data.State)
		fmt.Fprintf(w, "Running:\t%v\n", data.ContainerRunning)
		if data.ContainerName != "" {
			fmt.Fprintf(w, "Container:\t%s\n", data.ContainerName)
		}
	default:
		json.NewEncoder(os.Stdout).Encode(v)
	}
	w.Flush()
}

func mark(b bool) string {
	if b {
		return "*"
	}
	return ""
}
