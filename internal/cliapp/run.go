package cliapp

import (
	"fmt"
	"sync"
	"time"

	"github.com/spf13/cobra"

	"github.com/me/esrt/internal/config"
	"github.com/me/esrt/internal/scheddef"
	"github.com/me/esrt/internal/scheduler"
	"github.com/me/esrt/internal/xstream"
	"github.com/me/esrt/pkg/pool"
)

func newRunCmd() *cobra.Command {
	var units int

	cmd := &cobra.Command{
		Use:   "run <topology.yaml>",
		Short: "Build pools/schedulers/execution streams from a topology and run a demo workload",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			topo, err := config.Load(args[0])
			if err != nil {
				return fmt.Errorf("load topology: %w", err)
			}
			return runTopology(topo, units)
		},
	}

	cmd.Flags().IntVar(&units, "units", 16, "Number of demo ULTs to spawn per execution stream")
	return cmd
}

// runTopology builds the pools and scheduler instance described by each
// execution stream in topo, spawns a demo workload of no-op ULTs onto
// each one, and blocks until every stream has drained.
func runTopology(topo config.Topology, unitsPerES int) error {
	reg := scheddef.NewRegistry(logger)

	var wg sync.WaitGroup
	esCount := 0

	for _, xs := range topo.XStreams {
		pools := make([]pool.Pool, 0, len(xs.Sched.Pools))
		for i, ps := range xs.Sched.Pools {
			pools = append(pools, config.NewPool(fmt.Sprintf("%s-pool-%d", xs.Name, i), ps))
		}

		inst, err := scheduler.CreateBasic(reg, xs.Sched.Predef, pools, logger)
		if err != nil {
			return fmt.Errorf("create scheduler for xstream %s: %w", xs.Name, err)
		}

		es := xstream.New(inst, logger)
		esCount++

		for i := 0; i < unitsPerES; i++ {
			done := make(chan struct{})
			u := xstream.NewULT(func(u *xstream.ULT, es *xstream.ES) {
				close(done)
			})
			inst.Pool(0).Push(u)
			wg.Add(1)
			go func(ch chan struct{}) {
				defer wg.Done()
				<-ch
			}(done)
		}

		inst.Finish()

		wg.Add(1)
		go func(es *xstream.ES) {
			defer wg.Done()
			es.Run()
		}(es)
	}

	doneCh := make(chan struct{})
	go func() {
		wg.Wait()
		close(doneCh)
	}()

	select {
	case <-doneCh:
		fmt.Printf("topology drained: %d execution stream(s)\n", esCount)
		return nil
	case <-time.After(30 * time.Second):
		return fmt.Errorf("timed out waiting for topology to drain")
	}
}
