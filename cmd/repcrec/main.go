// Command repcrec drives the replicated concurrency simulator over a file
// or stdin of instructions, printing one line per emitted event (a dump
// prints one line per site).
package main

import (
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/replicated-db/repcrec/internal/config"
	"github.com/replicated-db/repcrec/internal/engine"
	"github.com/replicated-db/repcrec/internal/events"
	"github.com/replicated-db/repcrec/internal/instr"
	"github.com/replicated-db/repcrec/internal/logging"
)

// Exit codes, per spec.md §6.3.
const (
	exitOK           = 0
	exitInvalidInput = 1
	exitIOError      = 2
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdin, os.Stdout))
}

func run(args []string, stdin io.Reader, stdout io.Writer) int {
	fs := flag.NewFlagSet("repcrec", flag.ContinueOnError)
	configPath := fs.String("config", "", "path to a YAML config file (optional)")
	inputPath := fs.String("input", "", "path to an instruction file (default: stdin)")
	if err := fs.Parse(args); err != nil {
		return exitInvalidInput
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, "repcrec:", err)
		return exitIOError
	}
	if *inputPath != "" {
		cfg.Input.Path = *inputPath
	}

	logOutput := logging.Output(logging.NewTextOutput(os.Stderr))
	if cfg.Log.Format == "json" {
		logOutput = logging.NewJSONOutput(os.Stderr)
	}
	logger := logging.New(logging.ParseLevel(cfg.Log.Level), logOutput, "repcrec")

	src := stdin
	if cfg.Input.Path != "" {
		f, err := os.Open(cfg.Input.Path)
		if err != nil {
			fmt.Fprintln(os.Stderr, "repcrec:", err)
			return exitIOError
		}
		defer f.Close()
		src = f
	}

	cmds, err := instr.Scan(src)
	if err != nil {
		fmt.Fprintln(os.Stderr, "repcrec:", err)
		return exitInvalidInput
	}

	renderer := events.NewTextRenderer(stdout)
	e := engine.New(renderer)

	logger.Infof("starting run, %d instructions", len(cmds))
	if err := e.Run(cmds); err != nil {
		fmt.Fprintln(os.Stderr, "repcrec:", err)
		return exitInvalidInput
	}
	return exitOK
}
