// Command esrtd is the esrt daemon: it loads a topology, builds the
// pools, scheduler instances, and execution streams it describes, and
// serves the introspection HTTP API alongside them until signaled to
// shut down.
package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/me/esrt/internal/apiserver"
	"github.com/me/esrt/internal/archive"
	"github.com/me/esrt/internal/audit"
	"github.com/me/esrt/internal/config"
	"github.com/me/esrt/internal/logging"
	"github.com/me/esrt/internal/policyscript"
	"github.com/me/esrt/internal/scheddef"
	"github.com/me/esrt/internal/scheduler"
	"github.com/me/esrt/internal/xstream"
	"github.com/me/esrt/pkg/model"
	"github.com/me/esrt/pkg/pool"
)

func main() {
	topoPath := flag.String("topology", "", "Path to a topology YAML file (default: built-in single-stream topology)")
	debug := flag.Bool("debug", false, "Use debug logging, overriding the topology's log_level")
	flag.Parse()

	topo := config.DefaultTopology()
	if *topoPath != "" {
		loaded, err := config.Load(*topoPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "load topology: %v\n", err)
			os.Exit(1)
		}
		topo = loaded
	}
	if *debug {
		topo.LogLevel = "debug"
	}

	logger := logging.NewLogger(logging.ParseLevel(topo.LogLevel), topo.LogFormat)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var auditStore *audit.Store
	if topo.Audit.Enabled {
		st, err := audit.Open(topo.Audit.DBPath, logger)
		if err != nil {
			fmt.Fprintf(os.Stderr, "open audit store: %v\n", err)
			os.Exit(1)
		}
		defer st.Close()
		auditStore = st
		logger.Info("audit store ready", "path", topo.Audit.DBPath)
	}

	archiveSink, err := archive.New(ctx, topo.Archive)
	if err != nil {
		fmt.Fprintf(os.Stderr, "configure archive sink: %v\n", err)
		os.Exit(1)
	}

	var poolOrder scheddef.PoolOrderFunc
	if topo.Policy.Path != "" {
		data, err := os.ReadFile(topo.Policy.Path)
		if err != nil {
			fmt.Fprintf(os.Stderr, "read policy script: %v\n", err)
			os.Exit(1)
		}
		eval, err := policyscript.New(string(data))
		if err != nil {
			fmt.Fprintf(os.Stderr, "compile policy script: %v\n", err)
			os.Exit(1)
		}
		poolOrder = eval.AsPoolOrderFunc()
		logger.Info("policy script loaded", "path", topo.Policy.Path)
	}

	reg := scheddef.NewRegistry(logger)
	apiReg := apiserver.NewRegistry()

	for _, xs := range topo.XStreams {
		pools := make([]pool.Pool, 0, len(xs.Sched.Pools))
		for i, ps := range xs.Sched.Pools {
			p := config.NewPool(fmt.Sprintf("%s-pool-%d", xs.Name, i), ps)
			pools = append(pools, p)
			apiReg.RegisterPool(p)
		}

		inst, err := scheduler.CreateBasic(reg, xs.Sched.Predef, pools, logging.ForXStream(logger, xs.Name))
		if err != nil {
			fmt.Fprintf(os.Stderr, "create scheduler for xstream %s: %v\n", xs.Name, err)
			os.Exit(1)
		}
		if auditStore != nil {
			inst.SetAuditSink(auditStore)
		}
		if poolOrder != nil && xs.Sched.Predef == model.SchedPrio {
			inst.SetData(poolOrder)
		}
		apiReg.RegisterScheduler(inst)

		es := xstream.New(inst, logging.ForXStream(logger, xs.Name))

		go func(es *xstream.ES, inst *scheduler.Instance) {
			es.Run()
			if archiveSink != nil {
				// A fresh context, not the shutdown signal context: this
				// runs precisely when that context may have just been
				// canceled (a scheduler's ES stops because Exit() was
				// called on shutdown), and the archive call still needs
				// to complete.
				archiveCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
				loc, err := archive.ArchiveResidual(archiveCtx, inst, archiveSink)
				cancel()
				if err != nil {
					logger.Error("archive residual state", "sched_id", inst.ID(), "error", err)
				} else if loc != "" {
					logger.Info("archived residual state", "sched_id", inst.ID(), "location", loc)
				}
			}
		}(es, inst)
	}

	var apiOpts []apiserver.Option
	if auditStore != nil {
		apiOpts = append(apiOpts, apiserver.WithAudit(auditStore))
	}
	srv := apiserver.New(apiReg, logger, apiOpts...)

	addr := topo.API.Addr
	if addr == "" {
		addr = ":8080"
	}
	httpServer := &http.Server{Addr: addr, Handler: srv}

	go func() {
		logger.Info("introspection API starting", "addr", addr)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("introspection API failed", "error", err)
			os.Exit(1)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	for _, inst := range apiReg.Schedulers() {
		inst.Exit()
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		fmt.Fprintf(os.Stderr, "shutdown error: %v\n", err)
		os.Exit(1)
	}
	logger.Info("esrtd stopped")
}
