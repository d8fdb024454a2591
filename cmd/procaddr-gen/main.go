// Command procaddr-gen compiles entry point registries into a static name
// index and dispatch symbol tables.
//
// Usage:
//
//	procaddr-gen -out <file.go> [-registry a.yaml,b.yaml] [-config cfg.yaml]
//	             [-pkg name] [-artifact out.pidx] [-log build.plog]
//	             [-history builds.db] [-v]
//
// Without -registry the embedded registry is compiled.
package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/tools/imports"

	"github.com/procaddr/procaddr-go/pkg/artifact"
	"github.com/procaddr/procaddr-go/pkg/entrypoint"
	"github.com/procaddr/procaddr-go/pkg/history"
	"github.com/procaddr/procaddr-go/pkg/log"
	"github.com/procaddr/procaddr-go/pkg/registry"
	"github.com/procaddr/procaddr-go/pkg/registry/builtin"
)

const generatorName = "procaddr-gen"

// options are the parsed command line flags.
type options struct {
	Registries  []string
	ConfigPath  string
	OutputPath  string
	Package     string
	ArtifactOut string
	LogPath     string
	HistoryPath string
	Logger      *slog.Logger
}

func main() {
	registries := flag.String("registry", "", "Comma-separated registry YAML files (default: embedded registry)")
	configPath := flag.String("config", "", "Generator config YAML (default: builtin config)")
	outputPath := flag.String("out", "", "Output path for the generated Go file")
	pkg := flag.String("pkg", "entrypoints", "Package name of the generated file")
	artifactOut := flag.String("artifact", "", "Output path for the CBOR build artifact")
	logPath := flag.String("log", "", "Write build events to this .plog file")
	historyPath := flag.String("history", "", "Record the build in this SQLite database")
	verbose := flag.Bool("v", false, "Log build steps to stderr")
	flag.Parse()

	if *outputPath == "" && *artifactOut == "" {
		fmt.Fprintln(os.Stderr, "Usage: procaddr-gen -out <file.go> [-artifact <file.pidx>] [-registry <a.yaml,b.yaml>] [-config <cfg.yaml>] [-pkg <name>] [-log <file.plog>] [-history <db>] [-v]")
		flag.PrintDefaults()
		os.Exit(1)
	}

	opts := options{
		ConfigPath:  *configPath,
		OutputPath:  *outputPath,
		Package:     *pkg,
		ArtifactOut: *artifactOut,
		LogPath:     *logPath,
		HistoryPath: *historyPath,
	}
	if *registries != "" {
		opts.Registries = strings.Split(*registries, ",")
	}
	if *verbose {
		opts.Logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug}))
	}

	layout, err := run(opts)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
	st := layout.Compiled
	fmt.Printf("  %d entry points, %d slots, longest chain %d, fingerprint %s\n",
		len(st.Entries), st.HashSize, st.MaxProbe, layout.FingerprintHex()[:16])
}

// build carries the per-run event and history sinks.
type build struct {
	id      string
	events  log.Logger
	store   *history.Store
	logger  *slog.Logger
	closers []func() error
}

func (b *build) emit(stage log.Stage, cat log.Category, fill func(*log.Event)) {
	ev := log.Event{Timestamp: time.Now(), BuildID: b.id, Stage: stage, Category: cat}
	fill(&ev)
	b.events.Log(ev)
}

func (b *build) fail(stage log.Stage, context string, err error) error {
	b.emit(stage, log.CategoryError, func(ev *log.Event) {
		ev.Error = &log.ErrorEventData{Stage: stage, Message: err.Error(), Context: context}
	})
	if b.store != nil {
		if ferr := b.store.FailBuild(b.id, err); ferr != nil {
			b.debugLog("recording failure", "error", ferr)
		}
	}
	return fmt.Errorf("%s: %w", context, err)
}

// record stores the outputs and marks the build completed. A build whose
// outputs cannot be recorded is marked failed instead.
func (b *build) record(sum history.Summary, outputs []history.Output) error {
	if b.store == nil {
		return nil
	}
	for _, o := range outputs {
		if err := b.store.AddOutput(b.id, o); err != nil {
			return b.fail(log.StageBuild, "recording output", err)
		}
	}
	if err := b.store.CompleteBuild(b.id, sum); err != nil {
		return b.fail(log.StageBuild, "recording build", err)
	}
	return nil
}

func (b *build) close() {
	for i := len(b.closers) - 1; i >= 0; i-- {
		_ = b.closers[i]()
	}
}

// debugLog logs a debug message if logging is enabled.
func (b *build) debugLog(msg string, args ...any) {
	if b.logger != nil {
		b.logger.Debug(msg, args...)
	}
}

func run(opts options) (*artifact.Layout, error) {
	b := &build{id: uuid.New().String(), logger: opts.Logger}
	defer b.close()

	var sinks []log.Logger
	if opts.LogPath != "" {
		fl, err := log.NewFileLogger(opts.LogPath)
		if err != nil {
			return nil, fmt.Errorf("opening event log: %w", err)
		}
		b.closers = append(b.closers, fl.Close)
		sinks = append(sinks, fl)
	}
	if opts.Logger != nil {
		sinks = append(sinks, log.NewSlogAdapter(opts.Logger))
	}
	b.events = log.NewMultiLogger(sinks...)

	cfg := registry.DefaultConfig()
	if opts.ConfigPath != "" {
		var err error
		if cfg, err = registry.LoadConfig(opts.ConfigPath); err != nil {
			return nil, fmt.Errorf("loading config: %w", err)
		}
	}

	docs, err := loadDocuments(opts.Registries)
	if err != nil {
		return nil, err
	}

	if opts.HistoryPath != "" {
		store, err := history.NewStore(opts.HistoryPath)
		if err != nil {
			return nil, fmt.Errorf("opening history: %w", err)
		}
		b.closers = append(b.closers, store.Close)
		b.store = store
		rec := &history.Build{ID: b.id, Generator: generatorName}
		for _, d := range docs {
			rec.Sources = append(rec.Sources, d.Source)
		}
		if err := store.CreateBuild(rec); err != nil {
			return nil, fmt.Errorf("recording build: %w", err)
		}
	}

	res, err := registry.BuildCatalog(cfg, docs...)
	if err != nil {
		return nil, b.fail(log.StageIngest, "ingesting registries", err)
	}
	b.emit(log.StageIngest, log.CategoryCatalog, func(ev *log.Event) {
		ev.Catalog = &log.CatalogEvent{
			Source:   strings.Join(res.Sources, ","),
			Declared: res.Catalog.Declared(),
			Enabled:  res.Catalog.Enabled(),
			Legacy:   res.Legacy,
			Skipped:  res.Skipped,
		}
	})
	b.debugLog("catalog ingested", "declared", res.Catalog.Declared(), "enabled", res.Catalog.Enabled(), "skipped", len(res.Skipped))

	idx, err := entrypoint.Compile(res.Catalog, cfg.Options()...)
	if err != nil {
		return nil, b.fail(log.StageBuild, "building index", err)
	}
	stats := idx.Stats()
	b.emit(log.StageBuild, log.CategoryIndex, func(ev *log.Event) {
		ev.Index = &log.IndexEvent{
			HashSize:    stats.Size,
			Entries:     stats.Entries,
			PrimeFactor: idx.PrimeFactor(),
			PrimeStep:   idx.PrimeStep(),
			Collisions:  stats.Collisions[:],
			MaxProbe:    stats.MaxProbe,
		}
	})
	b.debugLog("index built", "entries", stats.Entries, "size", stats.Size, "max_probe", stats.MaxProbe)

	layout, err := artifact.FromIndex(idx, artifact.Options{
		Generator: generatorName,
		Sources:   res.Sources,
		Namespace: cfg.NamePrefix,
		BuildID:   b.id,
	})
	if err != nil {
		return nil, b.fail(log.StageBuild, "sealing layout", err)
	}

	var outputs []history.Output
	if opts.OutputPath != "" {
		code, err := Generate(layout, opts.Package, generatorName)
		if err != nil {
			return nil, b.fail(log.StageBuild, "generating source", err)
		}
		if err := writeFormatted(opts.OutputPath, code); err != nil {
			return nil, b.fail(log.StageBuild, "writing source", err)
		}
		outputs = append(outputs, output("go", opts.OutputPath))
		fmt.Printf("  generated %s\n", opts.OutputPath)
	}
	if opts.ArtifactOut != "" {
		if dir := filepath.Dir(opts.ArtifactOut); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, b.fail(log.StageBuild, "creating artifact dir", err)
			}
		}
		if err := layout.WriteFile(opts.ArtifactOut); err != nil {
			return nil, b.fail(log.StageBuild, "writing artifact", err)
		}
		outputs = append(outputs, output("artifact", opts.ArtifactOut))
		fmt.Printf("  generated %s\n", opts.ArtifactOut)
	}

	if err := b.record(history.Summary{
		Entries:     stats.Entries,
		HashSize:    stats.Size,
		MaxProbe:    stats.MaxProbe,
		Collisions:  stats.Collisions[:],
		Fingerprint: layout.FingerprintHex(),
	}, outputs); err != nil {
		return nil, err
	}
	return layout, nil
}

// loadDocuments reads the named registry files, or every embedded registry
// when none are named.
func loadDocuments(paths []string) ([]*registry.Document, error) {
	if len(paths) == 0 {
		docs, err := builtin.Documents()
		if err != nil {
			return nil, fmt.Errorf("loading builtin registry: %w", err)
		}
		return docs, nil
	}
	docs := make([]*registry.Document, 0, len(paths))
	for _, p := range paths {
		d, err := registry.Load(strings.TrimSpace(p))
		if err != nil {
			return nil, fmt.Errorf("loading registry: %w", err)
		}
		docs = append(docs, d)
	}
	return docs, nil
}

func output(kind, path string) history.Output {
	o := history.Output{Kind: kind, Path: path}
	if fi, err := os.Stat(path); err == nil {
		o.Size = fi.Size()
	}
	return o
}

// writeFormatted formats Go source code with goimports and writes it to a file.
func writeFormatted(path string, code string) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	formatted, err := imports.Process(path, []byte(code), nil)
	if err != nil {
		// Write unformatted so you can debug the generator output
		_ = os.WriteFile(path+".broken", []byte(code), 0o644)
		return fmt.Errorf("goimports %s: %w", filepath.Base(path), err)
	}
	return os.WriteFile(path, formatted, 0o644)
}
