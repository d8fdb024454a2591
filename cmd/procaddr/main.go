// Command procaddr inspects compiled entry point indexes and build logs.
//
// Usage:
//
//	procaddr <command> [flags] [args]
//
// Commands:
//
//	stats    Show index statistics of an artifact
//	lookup   Resolve entry point names for a device
//	trace    Show the hash probe sequence of names
//	events   View a build or lookup event log
//	history  List recorded builds
//	shell    Interactive lookup shell
//
// Examples:
//
//	# Statistics of the embedded registry
//	procaddr stats
//
//	# Where does vkCmdDraw dispatch on a gen9 device?
//	procaddr lookup -artifact out.pidx -device 9 vkCmdDraw
//
//	# Only lookup events of one build
//	procaddr events -category lookup -build 3f2a9c1e build.plog
package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/procaddr/procaddr-go/cmd/procaddr/commands"
	"github.com/procaddr/procaddr-go/pkg/artifact"
	"github.com/procaddr/procaddr-go/pkg/dispatch"
	"github.com/procaddr/procaddr-go/pkg/log"
)

const usage = `procaddr - entry point index inspector

Usage:
  procaddr <command> [flags] [args]

Commands:
  stats    Show index statistics of an artifact
  lookup   Resolve entry point names for a device
  trace    Show the hash probe sequence of names
  events   View a build or lookup event log
  history  List recorded builds
  shell    Interactive lookup shell

Use "procaddr <command> -help" for more information about a command.
`

func main() {
	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(1)
	}

	cmd := os.Args[1]
	args := os.Args[2:]

	switch cmd {
	case "stats":
		runStats(args)
	case "lookup":
		runLookup(args)
	case "trace":
		runTrace(args)
	case "events":
		runEvents(args)
	case "history":
		runHistory(args)
	case "shell":
		runShell(args)
	case "-h", "-help", "--help", "help":
		fmt.Print(usage)
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", cmd)
		fmt.Fprint(os.Stderr, usage)
		os.Exit(1)
	}
}

func fatal(err error) {
	fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	os.Exit(1)
}

func newFlagSet(name, synopsis, argsUsage string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ExitOnError)
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "procaddr %s - %s\n\nUsage:\n  procaddr %s [flags] %s\n\nFlags:\n", name, synopsis, name, argsUsage)
		fs.PrintDefaults()
	}
	return fs
}

func runStats(args []string) {
	fs := newFlagSet("stats", "Show index statistics of an artifact", "")
	path := fs.String("artifact", commands.BuiltinLayout, "Artifact file, or \"builtin\"")
	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}

	l, err := commands.OpenLayout(*path)
	if err != nil {
		fatal(err)
	}
	if err := commands.RunStats(l, os.Stdout); err != nil {
		fatal(err)
	}
}

// resolverFlags are shared by lookup and shell.
type resolverFlags struct {
	artifact *string
	symbols  *string
	logPath  *string
	verbose  *bool
}

func addResolverFlags(fs *flag.FlagSet) resolverFlags {
	return resolverFlags{
		artifact: fs.String("artifact", commands.BuiltinLayout, "Artifact file, or \"builtin\""),
		symbols:  fs.String("symbols", "", "File listing the provided implementation symbols (default: all)"),
		logPath:  fs.String("log", "", "Append lookup events to this .plog file"),
		verbose:  fs.Bool("v", false, "Log lookups to stderr"),
	}
}

// open builds a resolver from the flags. The returned function closes the
// event log.
func (f resolverFlags) open() (*artifact.Layout, *dispatch.Resolver, func(), error) {
	l, err := commands.OpenLayout(*f.artifact)
	if err != nil {
		return nil, nil, nil, err
	}
	var src commands.SymbolSet
	if *f.symbols != "" {
		if src, err = commands.ReadSymbols(*f.symbols); err != nil {
			return nil, nil, nil, err
		}
	}

	var sinks []log.Logger
	closeFn := func() {}
	if *f.logPath != "" {
		fl, err := log.NewFileLogger(*f.logPath)
		if err != nil {
			return nil, nil, nil, err
		}
		sinks = append(sinks, fl)
		closeFn = func() { _ = fl.Close() }
	}
	var logger *slog.Logger
	if *f.verbose {
		logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug}))
		sinks = append(sinks, log.NewSlogAdapter(logger))
	}

	r, err := l.Resolver(src, dispatch.ResolverConfig{
		EventLogger: log.NewMultiLogger(sinks...),
		Logger:      logger,
	})
	if err != nil {
		closeFn()
		return nil, nil, nil, err
	}
	return l, r, closeFn, nil
}

func runLookup(args []string) {
	fs := newFlagSet("lookup", "Resolve entry point names for a device", "<name>...")
	rf := addResolverFlags(fs)
	device := fs.String("device", "none", "Device generation (none, 7, 75, 8, 9, 10)")
	gate := fs.Bool("gate", false, "Apply the gating predicate")
	var cf commands.ContextFlags
	fs.StringVar(&cf.Version, "version", "", "Core API version for gating (default: current)")
	fs.StringVar(&cf.InstanceExts, "instance-ext", "", "Comma-separated enabled instance extensions")
	fs.StringVar(&cf.DeviceExts, "device-ext", "", "Comma-separated enabled device extensions")
	fs.BoolVar(&cf.AllDeviceEnabled, "all-device-ext", false, "Treat every device extension as enabled")
	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}
	if fs.NArg() < 1 {
		fmt.Fprintln(os.Stderr, "Error: at least one name required")
		fs.Usage()
		os.Exit(1)
	}

	var opts commands.LookupOptions
	dev, err := commands.ParseDeviceFlag(*device)
	if err != nil {
		fatal(err)
	}
	opts.Device = dev
	if *gate {
		ctx, err := cf.Context()
		if err != nil {
			fatal(err)
		}
		opts.Context = &ctx
	}

	_, r, closeFn, err := rf.open()
	if err != nil {
		fatal(err)
	}
	defer closeFn()
	if err := commands.RunLookup(r, fs.Args(), opts, os.Stdout); err != nil {
		closeFn()
		fatal(err)
	}
}

func runTrace(args []string) {
	fs := newFlagSet("trace", "Show the hash probe sequence of names", "<name>...")
	path := fs.String("artifact", commands.BuiltinLayout, "Artifact file, or \"builtin\"")
	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}
	if fs.NArg() < 1 {
		fmt.Fprintln(os.Stderr, "Error: at least one name required")
		fs.Usage()
		os.Exit(1)
	}

	l, err := commands.OpenLayout(*path)
	if err != nil {
		fatal(err)
	}
	if err := commands.RunTrace(l, fs.Args(), os.Stdout); err != nil {
		fatal(err)
	}
}

func runEvents(args []string) {
	fs := newFlagSet("events", "View a build or lookup event log", "<file.plog>")
	buildID := fs.String("build", "", "Filter by build ID")
	stage := fs.String("stage", "", "Filter by stage (ingest, build, resolve)")
	category := fs.String("category", "", "Filter by category (catalog, index, lookup, error)")
	name := fs.String("name", "", "Filter lookups by entry point name")
	since := fs.Duration("since", 0, "Only events newer than this duration")
	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}
	if fs.NArg() < 1 {
		fmt.Fprintln(os.Stderr, "Error: log file path required")
		fs.Usage()
		os.Exit(1)
	}

	filter := log.Filter{BuildID: *buildID, Name: *name}
	if *stage != "" {
		s, err := commands.ParseStageFlag(*stage)
		if err != nil {
			fatal(err)
		}
		filter.Stage = &s
	}
	if *category != "" {
		c, err := commands.ParseCategoryFlag(*category)
		if err != nil {
			fatal(err)
		}
		filter.Category = &c
	}
	if *since > 0 {
		start := time.Now().Add(-*since)
		filter.TimeStart = &start
	}

	if err := commands.RunEvents(fs.Arg(0), filter, os.Stdout); err != nil {
		fatal(err)
	}
}

func runHistory(args []string) {
	fs := newFlagSet("history", "List recorded builds", "<builds.db>")
	limit := fs.Int("limit", 20, "Maximum number of builds to list")
	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}
	if fs.NArg() < 1 {
		fmt.Fprintln(os.Stderr, "Error: database path required")
		fs.Usage()
		os.Exit(1)
	}

	if err := commands.RunHistory(fs.Arg(0), *limit, os.Stdout); err != nil {
		fatal(err)
	}
}

func runShell(args []string) {
	fs := newFlagSet("shell", "Interactive lookup shell", "")
	rf := addResolverFlags(fs)
	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}

	l, r, closeFn, err := rf.open()
	if err != nil {
		fatal(err)
	}
	defer closeFn()

	sh, err := commands.NewShell(commands.NewSession(l, r))
	if err != nil {
		closeFn()
		fatal(err)
	}
	sh.Run()
}
