// Command plcsim runs the PLC simulator against a provider/program JSON
// pair (spec §6 "External interfaces"): load, build, run to a stop
// condition, and report the resulting broadcast state.
//
// Grounded on cmd/sentra/main.go's command-dispatch shape (an alias
// table, a manual switch over os.Args[1], per-command argument parsing
// with no "flag" package), scaled down to this domain's three
// subcommands instead of a whole language toolchain's two dozen.
package main

import (
	"fmt"
	"os"
)

var commandAliases = map[string]string{
	"r": "run",
	"h": "history",
	"v": "version",
}

const version = "0.1.0"

func main() {
	os.Exit(appMain(os.Args[1:]))
}

// appMain is the whole CLI, factored out of main so that
// testscript-driven CLI fixture tests (plcsim_test.go) can invoke it
// as an in-process subcommand instead of forking a real binary.
func appMain(args []string) int {
	if len(args) == 0 {
		showUsage()
		return 1
	}

	cmd := args[0]
	if alias, ok := commandAliases[cmd]; ok {
		cmd = alias
	}

	switch cmd {
	case "help", "--help", "-h":
		showUsage()
	case "version", "--version":
		fmt.Printf("plcsim %s\n", version)
	case "run":
		if err := runCommand(args[1:]); err != nil {
			fmt.Fprintf(os.Stderr, "plcsim: %v\n", err)
			return 1
		}
	case "history":
		if err := historyCommand(args[1:]); err != nil {
			fmt.Fprintf(os.Stderr, "plcsim: %v\n", err)
			return 1
		}
	default:
		fmt.Fprintf(os.Stderr, "plcsim: unknown command %q\n\n", args[0])
		showUsage()
		return 1
	}
	return 0
}

func showUsage() {
	fmt.Println("plcsim - IEC 61131-style PLC simulator")
	fmt.Println()
	fmt.Println("Usage:")
	fmt.Println("  plcsim run --provider=<file> --program=<file> [options]   Run a simulation (alias: r)")
	fmt.Println("  plcsim history --db=<dialect:dsn> --run=<uuid>            Print a past run's history (alias: h)")
	fmt.Println("  plcsim version                                           Print the version (alias: v)")
	fmt.Println()
	fmt.Println("run options:")
	fmt.Println("  --params=<file>       simulation-parameters JSON (stopAfter, stopOn)")
	fmt.Println("  --root=<name>         root Organization Block to drive (default: Main)")
	fmt.Println("  --db=<dialect:dsn>    persist cycle/unit-test/monitor history, e.g. sqlite3:run.db")
	fmt.Println("  --monitor=<addr>      serve a live websocket fan-out at addr, e.g. :7777")
	fmt.Println("  --quiet               suppress the per-cycle log dump on stdout")
}
