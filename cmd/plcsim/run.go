package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"time"

	"plcsim/internal/broadcast"
	"plcsim/internal/builder"
	"plcsim/internal/decl"
	"plcsim/internal/dispatch"
	"plcsim/internal/engine"
	"plcsim/internal/monitorstream"
	"plcsim/internal/persistence"
	"plcsim/internal/registry"
)

// flagArgs turns a "--key=value" / "--flag" argument list into a
// lookup map, mirroring the teacher's own preference for hand-rolled
// argument parsing over the "flag" package for its subcommands.
func flagArgs(args []string) map[string]string {
	out := make(map[string]string, len(args))
	for _, arg := range args {
		if !strings.HasPrefix(arg, "--") {
			continue
		}
		arg = strings.TrimPrefix(arg, "--")
		if idx := strings.IndexByte(arg, '='); idx >= 0 {
			out[arg[:idx]] = arg[idx+1:]
		} else {
			out[arg] = "true"
		}
	}
	return out
}

func runCommand(args []string) error {
	flags := flagArgs(args)

	providerPath := flags["provider"]
	programPath := flags["program"]
	if providerPath == "" || programPath == "" {
		return fmt.Errorf("run requires --provider=<file> and --program=<file>")
	}
	root := flags["root"]
	if root == "" {
		root = "Main"
	}

	reg := registry.New()
	dispatch.PopulateAllowList(reg)
	b := builder.New(reg)

	if err := loadDocumentInto(b, reg, registry.Provider, providerPath); err != nil {
		return err
	}
	if err := loadDocumentInto(b, reg, registry.Program, programPath); err != nil {
		return err
	}
	if err := b.BuildAll(); err != nil {
		return fmt.Errorf("building simulation: %w", err)
	}

	params := decl.Params{}
	if path := flags["params"]; path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("reading simulation parameters: %w", err)
		}
		p, err := decl.LoadParams(data)
		if err != nil {
			return err
		}
		params = *p
	}

	bc := broadcast.NewAuto(os.Stdout)
	eng, err := engine.New(reg, bc, b, root, params)
	if err != nil {
		return fmt.Errorf("starting engine: %w", err)
	}

	var flusher *persistence.Flusher
	if dsn := flags["db"]; dsn != "" {
		store, closeFn, err := openStoreFlag(dsn)
		if err != nil {
			return err
		}
		defer closeFn()
		flusher = persistence.NewFlusher(store, 256)
		defer flusher.Close()
	}

	var monitor *monitorstream.Server
	if addr := flags["monitor"]; addr != "" {
		monitor = monitorstream.NewServer(addr, "/stream")
		errCh := monitor.Start()
		go func() {
			if err := <-errCh; err != nil {
				fmt.Fprintf(os.Stderr, "plcsim: monitor stream: %v\n", err)
			}
		}()
		defer func() {
			ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			if err := monitor.Stop(ctx); err != nil {
				fmt.Fprintf(os.Stderr, "plcsim: stopping monitor stream: %v\n", err)
			}
		}()
	}

	quiet := flags["quiet"] == "true"
	eng.OnCycle = func(cycle int64) {
		if flusher != nil {
			flusher.QueueSnapshot(persistence.SnapshotRecord{
				RunID: eng.RunID, Cycle: cycle, Status: bc.StatusNow().String(), LoggedAt: time.Now(),
			})
			for _, m := range bc.Monitors() {
				flusher.QueueMonitor(persistence.MonitorRecord{
					RunID: eng.RunID, Cycle: cycle, CellID: m.CellID, Display: m.Display, LoggedAt: time.Now(),
				})
			}
		}
		if monitor != nil {
			_ = monitor.PublishCycle(bc, eng.RunID, cycle)
		}
		if !quiet {
			fmt.Println(broadcast.CycleHeader(cycle))
			for _, line := range bc.RenderLog() {
				fmt.Println(line)
			}
		}
	}

	stopOnSignal(eng)

	runErr := eng.Run()

	if flusher != nil {
		report := bc.UnitTests()
		for _, o := range report.Outcomes {
			flusher.QueueUnitTest(persistence.UnitTestRecord{
				RunID: eng.RunID, OpID: o.OpID, Label: o.Label, State: o.State.String(),
				Message: o.Message, LoggedAt: time.Now(),
			})
		}
	}

	fmt.Printf("\nrun %s stopped after %d cycle(s), status %s\n", eng.RunID, eng.CycleCount(), bc.StatusNow())
	printUnitTestSummary(bc.UnitTests())

	if runErr != nil {
		return runErr
	}
	return nil
}

// loadDocumentInto reads path, decodes it, and registers it with b
// under ns.
func loadDocumentInto(b *builder.Builder, reg *registry.Registry, ns registry.Namespace, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading %s: %w", path, err)
	}
	doc, err := decl.Load(data)
	if err != nil {
		return fmt.Errorf("decoding %s: %w", path, err)
	}
	if err := b.LoadDocument(ns, doc); err != nil {
		return fmt.Errorf("loading %s: %w", path, err)
	}
	return nil
}

// stopOnSignal wires an interrupt to a manual engine stop, so an
// operator can Ctrl-C a long-running simulation cleanly instead of
// killing the process mid-cycle.
func stopOnSignal(eng *engine.Engine) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt)
	go func() {
		<-sigCh
		eng.Stop()
	}()
}

func printUnitTestSummary(report broadcast.UnitTestReport) {
	if report.Total == 0 {
		return
	}
	fmt.Printf("unit tests: %d passed, %d failed, %d unreached (of %d)\n",
		report.Passed, report.Failed, report.Unreached, report.Total)
	for _, o := range report.Outcomes {
		if o.State != broadcast.Unreached {
			continue
		}
		fmt.Printf("  unreached: %s\n", o.Label)
	}
}
