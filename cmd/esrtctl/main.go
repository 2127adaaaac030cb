// Command esrtctl is the command-line driver for the esrt runtime: it
// builds topologies, runs demo workloads, and queries a running
// daemon's introspection API.
package main

import (
	"fmt"
	"os"

	"github.com/me/esrt/internal/cliapp"
)

func main() {
	if err := cliapp.NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
