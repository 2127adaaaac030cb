package cliapp

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)


func newInspectCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "inspect [scheduler-id]",
		Short: "Query a running daemon's scheduler and pool state",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				return listSchedulers(cmd)
			}
			return showScheduler(cmd, args[0])
		},
	}
	return cmd
}

func listSchedulers(cmd *cobra.Command) error {
	resp, err := client.Get("/api/v1/schedulers/")
	if err != nil {
		return fmt.Errorf("list schedulers: %w", err)
	}

	var views []map[string]any
	if err := json.Unmarshal(resp.Data, &views); err != nil {
		return fmt.Errorf("parse response: %w", err)
	}

	out := cmd.OutOrStdout()
	if len(views) == 0 {
		fmt.Fprintln(out, "No schedulers registered.")
		return nil
	}

	fmt.Fprintf(out, "%-16s  %-10s  %-10s  %-10s  %6s  %6s\n", "ID", "STATE", "USED", "TYPE", "SIZE", "TOTAL")
	for _, v := range views {
		id, _ := v["id"].(string)
		state, _ := v["state"].(string)
		used, _ := v["used"].(string)
		typ, _ := v["type"].(string)
		size, _ := v["size"].(float64)
		total, _ := v["total_size"].(float64)
		fmt.Fprintf(out, "%-16s  %-10s  %-10s  %-10s  %6d  %6d\n", id, state, used, typ, int(size), int(total))
	}
	return nil
}

func showScheduler(cmd *cobra.Command, id string) error {
	resp, err := client.Get("/api/v1/schedulers/" + id)
	if err != nil {
		return fmt.Errorf("get scheduler: %w", err)
	}

	var v map[string]any
	if err := json.Unmarshal(resp.Data, &v); err != nil {
		return fmt.Errorf("parse response: %w", err)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Scheduler: %v\n", v["id"])
	fmt.Fprintf(out, "  Kind:       %v\n", v["kind"])
	fmt.Fprintf(out, "  State:      %v\n", v["state"])
	fmt.Fprintf(out, "  Used:       %v\n", v["used"])
	fmt.Fprintf(out, "  Type:       %v\n", v["type"])
	fmt.Fprintf(out, "  Pools:      %v\n", v["num_pools"])
	fmt.Fprintf(out, "  Size:       %v / %v total\n", v["size"], v["total_size"])
	return nil
}
