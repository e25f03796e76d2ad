// Command autolint runs the configured linters over a directory and
// folds their exit codes into a single pre-commit gate signal.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/dustin/go-humanize"
	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"
	"gopkg.in/yaml.v3"

	"github.com/deixis/autolint"
	"github.com/deixis/autolint/internal/config"
	"github.com/deixis/autolint/internal/ignore"
	"github.com/deixis/autolint/internal/lint"
	almcp "github.com/deixis/autolint/internal/mcp"
	"github.com/deixis/autolint/internal/report"
	"github.com/deixis/autolint/internal/runner"
)

func main() {
	log.SetFlags(0)
	log.SetPrefix("autolint: ")

	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}

	cmd := os.Args[1]
	args := os.Args[2:]

	var err error
	switch cmd {
	case "run":
		err = runMain(args)
	case "config":
		err = configMain(args)
	case "mcp":
		err = mcpMain(args)
	case "version":
		fmt.Println(autolint.Version)
	case "help", "-h", "--help":
		usage()
	default:
		fmt.Fprintf(os.Stderr, "autolint: unknown command %q\n", cmd)
		usage()
		os.Exit(2)
	}

	if err != nil {
		log.Fatal(err)
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, `Usage: autolint <command> [flags] [target]

Commands:
  run         Run the configured linters over the target directory
  config      Print the effective configuration for a target
  mcp         Start the MCP server
  version     Print the version
  help        Show this help

The run gate exits 0 when every linter exits 0 or 1 (1 means findings),
and 1 when any linter exits abnormally or cannot be launched.

Use "autolint <command> -h" for command-specific flags.`)
}

// --- run ---

func runMain(args []string) error {
	fs := flag.NewFlagSet("run", flag.ExitOnError)
	confFlag := fs.String("config", "", "path to the configuration file (default: <target>/.autolint.yml, then built-in)")
	ignoreFlag := fs.String("ignore", "", "path to the ignore file (default: <target>/.lintignore if present)")
	noIgnore := fs.Bool("no-ignore", false, "do not use an ignore file; overrides -ignore")
	jobs := fs.Int("jobs", 1, "maximum number of linter processes run concurrently")
	timeoutFlag := fs.Duration("timeout", 0, "override the configured per-invocation timeout (e.g. 30s)")
	jsonFlag := fs.Bool("json", false, "emit the run report as JSON")
	prettyFlag := fs.Bool("pretty", false, "print a language/linter/file hierarchy instead of raw output")
	quietFlag := fs.Bool("quiet", false, "suppress linter output")
	verboseFlag := fs.Bool("v", false, "verbose output")
	_ = fs.Parse(args)

	modes := 0
	for _, set := range []bool{*jsonFlag, *prettyFlag, *quietFlag} {
		if set {
			modes++
		}
	}
	if modes > 1 {
		fmt.Fprintln(os.Stderr, "autolint: -json, -pretty and -quiet are mutually exclusive")
		os.Exit(2)
	}

	target, err := resolveTarget(fs.Arg(0))
	if err != nil {
		return err
	}

	cfg, err := config.Load(target, *confFlag)
	if err != nil {
		return err
	}

	var matcher *ignore.Matcher
	if !*noIgnore {
		matcher, err = ignore.Load(target, *ignoreFlag)
		if err != nil {
			return err
		}
	}

	timeout := cfg.Timeout()
	if *timeoutFlag > 0 {
		timeout = *timeoutFlag
	}

	eng := &lint.Engine{
		Config: cfg,
		Runner: &runner.Runner{
			Dir:       target,
			Timeout:   timeout,
			MaxOutput: cfg.MaxOutputBytes(),
		},
		Target: target,
		Ignore: matcher,
		Jobs:   *jobs,
	}

	// Default mode relays each linter's output as its invocation
	// completes, like running the linters by hand.
	if !*jsonFlag && !*prettyFlag && !*quietFlag {
		eng.Report = func(r *lint.RunResult) {
			os.Stdout.Write(r.Stdout)
			os.Stderr.Write(r.Stderr)
			if r.Err != "" {
				fmt.Fprintf(os.Stderr, "autolint: %s\n", r.Err)
			}
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	result, err := eng.Lint(ctx)
	if err != nil {
		return fmt.Errorf("run: %w", err)
	}

	switch {
	case *jsonFlag:
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(result.Report()); err != nil {
			return err
		}
	case *prettyFlag:
		fmt.Print(result.Tree())
	}

	if *verboseFlag {
		printVerbose(result, cfg.MaxOutputBytes())
	}

	if result.ExitCode != 0 {
		os.Exit(result.ExitCode)
	}
	return nil
}

// printVerbose writes a diagnostic summary for gating and truncated
// invocations to stderr.
func printVerbose(result *lint.Result, maxOutput int) {
	fmt.Fprintf(os.Stderr, "autolint: run %s: %d files, %d invocations\n", result.ID, result.Files, len(result.Runs))
	for _, run := range result.Runs {
		name := run.File
		if name == "" {
			name = fmt.Sprintf("%d files", run.Files)
		}
		switch {
		case run.Err != "":
			fmt.Fprintf(os.Stderr, "autolint: %s (%s): %s\n", run.Linter, name, run.Err)
		case run.Failed():
			fmt.Fprintf(os.Stderr, "autolint: %s (%s): abnormal exit %d\n", run.Linter, name, run.ExitCode)
		}
		if run.Truncated {
			fmt.Fprintf(os.Stderr, "autolint: %s (%s): output truncated at %s\n",
				run.Linter, name, humanize.IBytes(uint64(maxOutput)))
		}
	}
}

// resolveTarget validates the target argument, defaulting to the
// current directory.
func resolveTarget(arg string) (string, error) {
	if arg == "" {
		cwd, err := os.Getwd()
		if err != nil {
			return "", fmt.Errorf("determining target: %w", err)
		}
		return cwd, nil
	}
	info, err := os.Stat(arg)
	if err != nil {
		return "", fmt.Errorf("target %s: %w", arg, err)
	}
	if !info.IsDir() {
		return "", fmt.Errorf("target %s is not a directory", arg)
	}
	return arg, nil
}

// --- config ---

func configMain(args []string) error {
	fs := flag.NewFlagSet("config", flag.ExitOnError)
	defaultFlag := fs.Bool("default", false, "print the built-in configuration and exit")
	_ = fs.Parse(args)

	if *defaultFlag {
		os.Stdout.Write(config.DefaultYAML())
		return nil
	}

	target, err := resolveTarget(fs.Arg(0))
	if err != nil {
		return err
	}
	cfg, err := config.Load(target, "")
	if err != nil {
		return err
	}

	out, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshalling configuration: %w", err)
	}
	os.Stdout.Write(out)
	return nil
}

// --- mcp ---

func mcpMain(args []string) error {
	fs := flag.NewFlagSet("mcp", flag.ExitOnError)
	instructions := fs.Bool("instructions", false, "print model instructions and exit")
	httpAddr := fs.String("http", "", "start HTTP server on address (e.g. :9090)")
	_ = fs.Parse(args)

	if *instructions {
		fmt.Print(almcp.Instructions)
		return nil
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	return serve(ctx, *httpAddr)
}

func serve(ctx context.Context, httpAddr string) error {
	target, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("determining target: %w", err)
	}

	cfg, err := config.Load(target, "")
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	disk := report.NewDiskStore()
	store := report.NewLRUStore(5, disk)

	r := &runner.Runner{
		Dir:       target,
		Timeout:   cfg.Timeout(),
		MaxOutput: cfg.MaxOutputBytes(),
	}

	server := almcp.NewServer(cfg, r, store, target)

	if httpAddr != "" {
		return serveHTTP(ctx, server, httpAddr)
	}
	return server.Run(ctx, &mcpsdk.StdioTransport{})
}

func serveHTTP(ctx context.Context, server *mcpsdk.Server, addr string) error {
	handler := mcpsdk.NewStreamableHTTPHandler(
		func(_ *http.Request) *mcpsdk.Server { return server },
		nil,
	)

	httpServer := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		_ = httpServer.Close()
	}()

	log.Printf("listening on %s", addr)
	if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("http server: %w", err)
	}
	return nil
}
