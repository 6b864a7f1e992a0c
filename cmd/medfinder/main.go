// Package main is the medfinder CLI entry point.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/hyperjump/medfinder/internal/cli"
	"github.com/hyperjump/medfinder/internal/config"
	"github.com/hyperjump/medfinder/internal/models"
	"github.com/hyperjump/medfinder/internal/records"
	"github.com/hyperjump/medfinder/internal/search"
	"github.com/hyperjump/medfinder/internal/server"
	"github.com/hyperjump/medfinder/internal/session"
	"github.com/hyperjump/medfinder/internal/storage"
	"github.com/hyperjump/medfinder/internal/watcher"
	"github.com/hyperjump/medfinder/pkg/utils"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

var version = "dev"

const (
	defaultConfigPath = "/usr/local/etc/medfinder/config.yaml"
	defaultServerURL  = "http://localhost:8080"
)

// loadConfig loads config from path. When path is the default, it first looks for
// config.yaml in the current directory (for development); if that exists it is used.
// When no config file exists at the default path, built-in defaults are returned.
// Returns the config and the path that was actually loaded ("" for defaults).
func loadConfig(path string) (*config.Config, string, error) {
	if path == defaultConfigPath {
		if cwd, cwdErr := os.Getwd(); cwdErr == nil {
			fallback := filepath.Join(cwd, "config.yaml")
			if _, statErr := os.Stat(fallback); statErr == nil {
				cfg, loadErr := config.Load(fallback)
				if loadErr != nil {
					return nil, "", loadErr
				}
				return cfg, fallback, nil
			}
		}
		if _, statErr := os.Stat(path); errors.Is(statErr, os.ErrNotExist) {
			cfg := &config.Config{}
			config.ApplyDefaults(cfg)
			return cfg, "", nil
		}
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, "", err
	}
	return cfg, path, nil
}

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}
	command := os.Args[1]
	switch command {
	case "server":
		runServer()
	case "find", "name", "speciality", "all":
		runSearch(command)
	case "page":
		runPage()
	case "record":
		runRecord()
	case "import":
		runImport()
	case "status":
		runStatus()
	case "version", "--version", "-v":
		fmt.Printf("medfinder version %s\n", version)
	case "help", "--help", "-h":
		printUsage()
	default:
		fmt.Printf("Unknown command: %s\n", command)
		printUsage()
		os.Exit(1)
	}
}

func runServer() {
	fs := flag.NewFlagSet("server", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	debug := fs.Bool("debug", false, "enable debug logging")
	source := fs.String("source", "", "record source (overrides data.source_path)")
	_ = fs.Parse(os.Args[2:])

	cfg, resolvedConfigPath, err := loadConfig(*configPath)
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}
	if *source != "" {
		cfg.Data.SourcePath = *source
	}
	debugMode := cfg.Debug || *debug
	logger, err := utils.NewLogger(debugMode)
	if err != nil {
		fmt.Printf("Failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("config loaded",
		zap.String("config_path", resolvedConfigPath),
		zap.Bool("debug", debugMode),
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// A failed load leaves an empty store; the server still answers health
	// and status, and refuses queries.
	svc, err := newService(ctx, cfg, logger)
	if err != nil {
		logger.Error("record source not loaded; queries will be refused", zap.Error(err))
	}
	srv := server.NewServer(svc, &cfg.Server, logger)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	})
	if cfg.Data.WatchOrDefault() && err == nil {
		store := svc.Engine().Store()
		watchOpts := []watcher.WatcherOption{}
		if debugMode {
			watchOpts = append(watchOpts, watcher.WithLogger(logger))
		}
		w := watcher.NewWatcher(store.Source(), func(path string) {
			store.MarkStale()
			logger.Warn("record source changed on disk; restart to load it", zap.String("path", path))
		}, watchOpts...)
		if err := w.Start(gctx); err != nil {
			logger.Warn("source watcher not started", zap.String("path", store.Source()), zap.Error(err))
		} else {
			defer w.Stop()
		}
	}
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("Shutting down...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Stop(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		logger.Fatal("server stopped", zap.Error(err))
	}
}

// newService loads the record source and wires the search service. The
// service is usable even when err is non-nil.
func newService(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*search.Service, error) {
	store, err := records.LoadPath(ctx, cfg.Data.SourcePath, records.SourceOptions{
		Sheet: cfg.Data.Sheet,
		Table: cfg.Data.Table,
	}, logger)
	sessions := session.NewManager(session.Options{
		TTL:         cfg.Session.TTL,
		MaxSessions: cfg.Session.MaxSessions,
		Shards:      cfg.Session.Shards,
		PageSize:    cfg.Search.PageSize,
		Logger:      logger,
	})
	return search.NewService(search.NewEngine(store, logger), sessions, logger), err
}

// clientFlags are shared by the commands that query a server or the source directly.
type clientFlags struct {
	configPath *string
	serverURL  *string
	output     *string
	caller     *string
	source     *string
}

func addClientFlags(fs *flag.FlagSet) *clientFlags {
	return &clientFlags{
		configPath: fs.String("config", defaultConfigPath, "config file path (direct mode)"),
		serverURL:  fs.String("server", defaultServerURL, "server URL (empty = load the source directly)"),
		output:     fs.String("output", "text", "output format: text or json"),
		caller:     fs.String("caller", os.Getenv("MEDFINDER_CALLER"), "caller ID for saved results (default $MEDFINDER_CALLER)"),
		source:     fs.String("source", "", "record source for direct mode (overrides data.source_path)"),
	}
}

// open returns the backend selected by the flags and the output format.
func (f *clientFlags) open() (backend, cli.OutputFormat) {
	format, err := cli.ParseOutputFormat(*f.output)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	if *f.serverURL != "" {
		return newHTTPBackend(*f.serverURL, *f.caller), format
	}

	cfg, _, err := loadConfig(*f.configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}
	if *f.source != "" {
		cfg.Data.SourcePath = *f.source
	}
	logger, err := utils.NewLogger(cfg.Debug)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create logger: %v\n", err)
		os.Exit(1)
	}
	svc, err := newService(context.Background(), cfg, logger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load records: %v\n", err)
		os.Exit(1)
	}
	caller := *f.caller
	if caller == "" {
		caller = "cli"
	}
	return &directBackend{svc: svc, caller: caller}, format
}

// printSearchUsage prints usage for the search commands.
func printSearchUsage(fs *flag.FlagSet, command string) {
	fmt.Fprintf(fs.Output(), "Usage: medfinder %s [flags] <query>\n\n", command)
	fs.PrintDefaults()
	fmt.Fprintf(fs.Output(), `
Query is all remaining arguments joined by spaces.
  find        "speciality, location" when the text has a comma, otherwise a name
  name        name or part of a name
  speciality  speciality, optionally followed by a comma and a metro station
  all         every record (no query)

Examples:
  medfinder find Ivanov
  medfinder find "Therapist, Park Station"
  medfinder speciality --page 2 Therapist
  medfinder all --output json
`)
}

// buildSearchQuery joins all positional args with spaces so multi-word queries
// work the same with or without shell quoting.
func buildSearchQuery(args []string) string {
	return strings.TrimSpace(strings.Join(args, " "))
}

// searchArgsReorder moves any flags (and their values) that appear after the query
// to the front of the slice so that flag.Parse() sees them. Go's flag package
// stops at the first non-flag argument.
func searchArgsReorder(args []string) []string {
	for i, a := range args {
		if len(a) > 0 && a[0] == '-' {
			if i == 0 {
				return args
			}
			reordered := make([]string, 0, len(args))
			reordered = append(reordered, args[i:]...)
			reordered = append(reordered, args[:i]...)
			return reordered
		}
	}
	return args
}

func runSearch(command string) {
	fs := flag.NewFlagSet(command, flag.ExitOnError)
	flags := addClientFlags(fs)
	page := fs.Int("page", 1, "results page to show after searching (from 1)")
	fs.Usage = func() { printSearchUsage(fs, command) }
	_ = fs.Parse(searchArgsReorder(os.Args[2:]))

	query := buildSearchQuery(fs.Args())
	if query == "" && command != "all" {
		printSearchUsage(fs, command)
		os.Exit(1)
	}

	b, format := flags.open()
	var (
		resp *models.SearchResponse
		err  error
	)
	switch command {
	case "find":
		resp, err = b.Find(query)
	case "name":
		resp, err = b.ByName(query)
	case "speciality":
		spec, loc, _ := strings.Cut(query, ",")
		resp, err = b.BySpeciality(strings.TrimSpace(spec), strings.TrimSpace(loc))
	case "all":
		resp, err = b.All()
	}
	exitOnError("Search failed", err)

	if *page > 1 && resp.Page != nil {
		p, err := b.Page(*page - 1)
		exitOnError("Page failed", err)
		resp.Page = p
	}
	exitOnError("Output failed", cli.WriteSearchResponse(os.Stdout, resp, format))
	if format == cli.OutputText && resp.CallerID != "" && resp.CallerID != *flags.caller && *flags.serverURL != "" {
		fmt.Fprintf(os.Stderr, "caller: %s (pass --caller %s to page through these results)\n", resp.CallerID, resp.CallerID)
	}
}

func runPage() {
	fs := flag.NewFlagSet("page", flag.ExitOnError)
	flags := addClientFlags(fs)
	_ = fs.Parse(searchArgsReorder(os.Args[2:]))
	if fs.NArg() != 1 {
		fmt.Println("Usage: medfinder page --caller <id> [flags] <page>   (pages are numbered from 1)")
		os.Exit(1)
	}
	n, err := strconv.Atoi(fs.Arg(0))
	if err != nil {
		fmt.Printf("Invalid page %q\n", fs.Arg(0))
		os.Exit(1)
	}
	if *flags.serverURL == "" {
		fmt.Println("page needs a running server: saved results do not outlive a direct-mode command")
		os.Exit(1)
	}
	b, format := flags.open()
	p, err := b.Page(n - 1)
	exitOnError("Page failed", err)
	exitOnError("Output failed", cli.WritePage(os.Stdout, p, format))
}

func runRecord() {
	fs := flag.NewFlagSet("record", flag.ExitOnError)
	flags := addClientFlags(fs)
	fromResults := fs.Bool("from-results", false, "only show the record if it is in the caller's saved results")
	marketOnly := fs.Bool("market", false, "show only the market comparison")
	_ = fs.Parse(searchArgsReorder(os.Args[2:]))
	if fs.NArg() != 1 {
		fmt.Println("Usage: medfinder record [flags] <index>")
		os.Exit(1)
	}
	index, err := strconv.Atoi(fs.Arg(0))
	if err != nil {
		fmt.Printf("Invalid record index %q\n", fs.Arg(0))
		os.Exit(1)
	}
	b, format := flags.open()
	if *marketOnly {
		report, err := b.Market(index)
		exitOnError("Market comparison failed", err)
		exitOnError("Output failed", cli.WriteMarket(os.Stdout, report, format))
		return
	}
	d, err := b.Detail(index, *fromResults)
	exitOnError("Record lookup failed", err)
	exitOnError("Output failed", cli.WriteDetail(os.Stdout, d, format))
}

func runStatus() {
	fs := flag.NewFlagSet("status", flag.ExitOnError)
	flags := addClientFlags(fs)
	_ = fs.Parse(os.Args[2:])
	b, format := flags.open()
	st, err := b.Status()
	exitOnError("Status failed", err)
	exitOnError("Output failed", cli.WriteStatus(os.Stdout, st, format))
}

func runImport() {
	fs := flag.NewFlagSet("import", flag.ExitOnError)
	dbPath := fs.String("db", "", "SQLite database to write (required)")
	table := fs.String("table", "doctors", "table to create or replace")
	sheet := fs.String("sheet", "", "worksheet for .xlsx sources")
	_ = fs.Parse(searchArgsReorder(os.Args[2:]))
	if fs.NArg() != 1 || *dbPath == "" {
		fmt.Println("Usage: medfinder import --db <file.db> [--table doctors] <source.csv|source.xlsx>")
		os.Exit(1)
	}

	ctx := context.Background()
	src, err := records.OpenSource(fs.Arg(0), records.SourceOptions{Sheet: *sheet})
	exitOnError("Open source failed", err)
	defer src.Close()
	rows, err := src.Rows(ctx)
	exitOnError("Read source failed", err)
	exitOnError("Import failed", storage.ImportRows(ctx, *dbPath, *table, src.Columns(), rows))
	fmt.Printf("Imported %d rows into %s (table %s)\n", len(rows), *dbPath, *table)
}

func exitOnError(what string, err error) {
	if err == nil {
		return
	}
	fmt.Fprintf(os.Stderr, "%s: %v\n", what, err)
	os.Exit(1)
}

func printUsage() {
	fmt.Println(`medfinder - doctor search with ranking, paging and market comparison

Usage:
  medfinder server [flags]              Start the HTTP server
  medfinder find [flags] <text>         Name, or "speciality, metro"
  medfinder name [flags] <name>         Search by name
  medfinder speciality [flags] <spec>   Search by speciality (optionally "spec, metro")
  medfinder all [flags]                 List every record
  medfinder page [flags] <n>            Show page n of the caller's saved results
  medfinder record [flags] <index>      Show a record with its market comparison
  medfinder import [flags] <source>     Copy a CSV/XLSX source into a SQLite table
  medfinder status [flags]              Show record source and session status
  medfinder version                     Show version
  medfinder help                        Show this help

Server Flags:
  --config string    Config file path (default: /usr/local/etc/medfinder/config.yaml)
  --debug            Enable debug logging
  --source string    Record source, overrides data.source_path

Query Flags (find, name, speciality, all, page, record, status):
  --server string    Server URL (default: http://localhost:8080). Use --server "" to load the source directly.
  --caller string    Caller ID that owns saved results (default: $MEDFINDER_CALLER, or issued by the server)
  --output string    Output format: text or json (default: text)
  --config string    Config file path (direct mode)
  --source string    Record source (direct mode)

Examples:
  medfinder server --source ./doctors.csv
  medfinder find "Therapist, Park Station"
  medfinder page --caller 3f2a... 2
  medfinder record --from-results --caller 3f2a... 17
  medfinder find --server "" --source ./doctors.xlsx Ivanov
  medfinder import --db doctors.db doctors.csv`)
}
