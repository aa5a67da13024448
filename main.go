// Oneshot evaluates a single program in a fresh interpreter and prints the
// {output, exit_code, error} result as JSON.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"runtime"
	"runtime/debug"
	"strings"

	"fortio.org/cli"
	"fortio.org/log"
	"grol.io/oneshot/oneshot"
)

func main() {
	os.Exit(Main())
}

func usage() int {
	fmt.Fprintf(os.Stderr, "Usage: %s -c 'command'\n", filepath.Base(os.Args[0]))
	return 1
}

// danglingCommandFlag is true when the first -c has no value after it.
func danglingCommandFlag(args []string) bool {
	for i, a := range args {
		if a == "-c" || a == "--c" {
			return i == len(args)-1
		}
	}
	return false
}

func Main() int {
	commandFlag := flag.String("c", "", "program `text` to evaluate")
	if danglingCommandFlag(os.Args[1:]) {
		log.Errf("'-c' flag without command.")
		return usage()
	}
	cli.ArgsHelp = "-c 'command'"
	cli.MaxArgs = 0
	cli.Main()
	set := false
	flag.Visit(func(f *flag.Flag) {
		if f.Name == "c" {
			set = true
		}
	})
	if !set {
		return usage()
	}
	if debug.SetMemoryLimit(-1) == math.MaxInt64 {
		log.LogVf("Memory limit not set, large allocations are only bounded by the object count (GOMEMLIMIT)")
	}
	// stdout is reserved for the JSON result.
	res, err := oneshot.EvaluateWith(oneshot.Options{Out: os.Stderr}, *commandFlag, hostEnv())
	if err != nil {
		return log.FErrf("Error setting up the interpreter: %v", err)
	}
	b, err := json.MarshalIndent(res, "", "  ")
	if err != nil {
		return log.FErrf("Error encoding the result: %v", err)
	}
	fmt.Println(string(b))
	return res.ExitCode
}

func hostEnv() map[string]string {
	env := make(map[string]string)
	for _, kv := range os.Environ() {
		k, v, _ := strings.Cut(kv, "=")
		if k == "" { // windows per drive "=C:=C:\..." entries.
			continue
		}
		env[k] = v
	}
	if runtime.GOOS == "windows" {
		if _, found := env["PWD"]; !found {
			wd, err := os.Getwd()
			if err != nil {
				log.Warnf("Couldn't get the current directory for PWD: %v", err)
			} else {
				env["PWD"] = wd
			}
		}
	}
	return env
}
