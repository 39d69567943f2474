package main

import (
	"os"
	"testing"

	"github.com/rogpeppe/go-internal/testscript"
)

// TestMain lets the testscript-driven CLI fixtures (§10.4) exec
// "plcsim" as if it were a real binary on PATH, re-entering this same
// test binary instead of forking a build of cmd/plcsim.
func TestMain(m *testing.M) {
	os.Exit(testscript.RunMain(m, map[string]func() int{
		"plcsim": func() int { return appMain(os.Args[1:]) },
	}))
}

func TestCLI(t *testing.T) {
	testscript.Run(t, testscript.Params{
		Dir: "testdata/script",
	})
}
