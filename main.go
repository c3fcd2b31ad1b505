// Command cdclsat reads a DIMACS CNF instance and reports whether it is
// satisfiable.
package main

import (
	"bufio"
	"fmt"
	"os"
	"runtime/pprof"
	"strconv"
	"strings"
	"time"

	"github.com/narrowgate/cdclsat/internal/dimacs"
	"github.com/narrowgate/cdclsat/internal/sat"
)

const versionString = "cdclsat 0.1.0"

const usageString = `usage: cdclsat [options] <file|->

Solves a DIMACS CNF instance and prints SATISFIABLE, UNSATISFIABLE, or
INDETERMINATE on stdout. "-" reads the instance from stdin. Files beginning
with the gzip magic number are decompressed transparently.

Options:
  --version       print version information and exit
  --help          print this message and exit
  --timeout=N     stop after N seconds (N is a non-negative integer)
  --wait          wait for a keypress before solving
  --verbose       print periodic search-progress statistics while solving
  --cpuprof=FILE  write a pprof CPU profile to FILE
  --memprof=FILE  write a pprof heap profile to FILE

Any other --flag is accepted and passed through without effect.
`

// config holds the parsed command line.
type config struct {
	instanceFile string
	timeout      time.Duration
	hasTimeout   bool
	wait         bool
	verbose      bool
	cpuProfile   string
	memProfile   string
	printVersion bool
	printHelp    bool
}

// parseArgs parses args (excluding the program name) into a config. Unknown
// --flags are accepted and ignored, per the "passed through to the backend"
// contract; this backend defines none, so they are simply no-ops.
func parseArgs(args []string) (*config, error) {
	cfg := &config{}
	var positional []string

	for _, a := range args {
		if !strings.HasPrefix(a, "--") {
			positional = append(positional, a)
			continue
		}
		name, value, hasValue := a[2:], "", false
		if i := strings.IndexByte(name, '='); i >= 0 {
			name, value, hasValue = name[:i], name[i+1:], true
		}

		switch name {
		case "version":
			cfg.printVersion = true
		case "help":
			cfg.printHelp = true
		case "wait":
			cfg.wait = true
		case "verbose":
			cfg.verbose = true
		case "timeout":
			if !hasValue {
				return nil, fmt.Errorf("--timeout requires a value, e.g. --timeout=30")
			}
			n, err := strconv.Atoi(value)
			if err != nil {
				return nil, fmt.Errorf("invalid --timeout value %q: %w", value, err)
			}
			if n < 0 {
				return nil, fmt.Errorf("--timeout value %q out of range: must be non-negative", value)
			}
			cfg.hasTimeout = true
			cfg.timeout = time.Duration(n) * time.Second
		case "cpuprof":
			if hasValue {
				cfg.cpuProfile = value
			} else {
				cfg.cpuProfile = "cpuprof"
			}
		case "memprof":
			if hasValue {
				cfg.memProfile = value
			} else {
				cfg.memProfile = "memprof"
			}
		default:
			// Unrecognized flag: pass through silently.
		}
	}

	if cfg.printVersion || cfg.printHelp {
		return cfg, nil
	}
	if len(positional) == 0 {
		return nil, fmt.Errorf("missing instance file")
	}
	cfg.instanceFile = positional[0]
	return cfg, nil
}

// waitForKeypress blocks until a line of input is available, used by --wait
// to pause before solving (e.g. so an external profiler can attach).
func waitForKeypress() {
	fmt.Fprintln(os.Stderr, "press enter to start solving...")
	bufio.NewReader(os.Stdin).ReadString('\n')
}

func run(cfg *config) (sat.Status, error) {
	driver := sat.NewDriver(sat.DefaultOptions)

	numVars, numClauses, err := dimacs.Load(cfg.instanceFile, driver)
	if err != nil {
		return sat.StatusIndeterminate, fmt.Errorf("could not parse instance: %w", err)
	}
	fmt.Printf("c variables:  %d\n", numVars)
	fmt.Printf("c clauses:    %d\n", numClauses)

	if cfg.hasTimeout {
		timer := time.AfterFunc(cfg.timeout, driver.Stop)
		defer timer.Stop()
	}

	if cfg.wait {
		waitForKeypress()
	}

	start := time.Now()
	if cfg.verbose {
		sat.PrintBanner(os.Stdout)
		ticker := time.NewTicker(time.Second)
		done := make(chan struct{})
		go func() {
			for {
				select {
				case <-ticker.C:
					driver.PrintProgress(os.Stdout, time.Since(start))
				case <-done:
					return
				}
			}
		}()
		defer func() {
			ticker.Stop()
			close(done)
		}()
	}
	status := driver.Solve()
	elapsed := time.Since(start)

	driver.PrintSummary(os.Stdout, elapsed)
	fmt.Printf("c status:     %s\n", status)

	return status, nil
}

// exitCode maps a solve status to the CLI's documented process exit code.
func exitCode(status sat.Status) int {
	switch status {
	case sat.StatusSAT:
		return 10
	case sat.StatusUNSAT:
		return 20
	default:
		return 0
	}
}

func main() {
	cfg, err := parseArgs(os.Args[1:])
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		os.Exit(1)
	}

	if cfg.printVersion {
		fmt.Println(versionString)
		return
	}
	if cfg.printHelp {
		fmt.Print(usageString)
		return
	}

	if cfg.cpuProfile != "" {
		f, err := os.Create(cfg.cpuProfile)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %s\n", err)
			os.Exit(1)
		}
		pprof.StartCPUProfile(f)
		defer pprof.StopCPUProfile()
	}

	status, err := run(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		os.Exit(1)
	}

	switch status {
	case sat.StatusSAT:
		fmt.Println("SATISFIABLE")
	case sat.StatusUNSAT:
		fmt.Println("UNSATISFIABLE")
	default:
		fmt.Println("INDETERMINATE")
	}

	if cfg.memProfile != "" {
		f, err := os.Create(cfg.memProfile)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %s\n", err)
			os.Exit(1)
		}
		pprof.WriteHeapProfile(f)
		f.Close()
	}

	os.Exit(exitCode(status))
}
