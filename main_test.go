//go:build !windows
// +build !windows

package main_test

import (
	"flag"
	"os"
	"testing"

	"fortio.org/testscript"
	main "grol.io/oneshot"
)

func TestMain(m *testing.M) {
	os.Exit(testscript.RunMain(m, map[string]func() int{
		"oneshot": main.Main,
	}))
}

func TestOneshotCli(t *testing.T) {
	testscript.Run(t, testscript.Params{Dir: "testdata"})
}

// runMain calls Main with args as the command line, on a fresh flag set.
func runMain(t *testing.T, args ...string) int {
	t.Helper()
	oldArgs, oldFlags, oldStdout := os.Args, flag.CommandLine, os.Stdout
	defer func() {
		os.Args, flag.CommandLine, os.Stdout = oldArgs, oldFlags, oldStdout
	}()
	devNull, err := os.OpenFile(os.DevNull, os.O_WRONLY, 0)
	if err != nil {
		t.Fatalf("open %s: %v", os.DevNull, err)
	}
	defer devNull.Close()
	os.Stdout = devNull
	os.Args = append([]string{"oneshot"}, args...)
	flag.CommandLine = flag.NewFlagSet("oneshot", flag.ContinueOnError)
	return main.Main()
}

func TestExitStatus(t *testing.T) {
	tests := []struct {
		program  string
		expected int
	}{
		{"exit 5", 5},
		{"exit 7", 7},
		{"exit 255", 255},
		{"exit", 0},
		{"1 + 1", 0},
		{"1 / 0", 1},
		{"1 +", 2},
	}
	for _, tt := range tests {
		if got := runMain(t, "-c", tt.program); got != tt.expected {
			t.Errorf("Main() for %q = %d, want %d", tt.program, got, tt.expected)
		}
	}
}
