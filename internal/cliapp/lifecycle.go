package cliapp

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newFinishCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "finish <scheduler-id>",
		Short: "Request a graceful stop once a scheduler's pools drain",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id := args[0]
			if _, err := client.Post("/api/v1/schedulers/"+id+"/finish", nil); err != nil {
				return fmt.Errorf("request finish: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "finish requested for scheduler %s\n", id)
			return nil
		},
	}
}

func newExitCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "exit <scheduler-id>",
		Short: "Request an immediate stop, regardless of pending work",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id := args[0]
			if _, err := client.Post("/api/v1/schedulers/"+id+"/exit", nil); err != nil {
				return fmt.Errorf("request exit: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "exit requested for scheduler %s\n", id)
			return nil
		},
	}
}
