// ------------------------------------------------------
// Nearust - Command Line Interface
// Fast detection of neighbouring strings by edit distance
// ------------------------------------------------------

package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/alexflint/go-arg"
	"github.com/fatih/color"
	log "github.com/sirupsen/logrus"

	"github.com/yutanagano/nearust/pkg/api"
	"github.com/yutanagano/nearust/pkg/collection"
	"github.com/yutanagano/nearust/pkg/config"
	"github.com/yutanagano/nearust/pkg/result"
	"github.com/yutanagano/nearust/pkg/symdel"
)

// CommandLineArgs represents command line arguments.
type CommandLineArgs struct {
	Files []string `arg:"positional" help:"Input file(s): none reads stdin; one searches within the file; two searches across them" placeholder:"FILE"`

	// Search options
	MaxDistance int `arg:"-d,--max-distance" help:"Maximum (Levenshtein) edit distance to check for neighbours" default:"1"`
	NumThreads  int `arg:"-n,--num-threads"  help:"Worker threads (0 spawns one per CPU core)"                 default:"0"`

	// Output options
	ZeroIndex  bool   `arg:"-z,--zero-index"  help:"Output 0-based line numbers instead of 1-based"`
	Output     string `arg:"-o,--output"      help:"Output format: plain|csv|tsv|json" default:"plain"`
	OutputFile string `arg:"-O,--output-file" help:"Write output to file"              placeholder:"FILE"`
	Quiet      bool   `arg:"-q,--quiet"       help:"Suppress all output except results"`
	Verbose    int    `arg:"-v,--verbose"     help:"Verbosity level (0-2)" default:"0"`

	// API server
	EnableAPI bool   `arg:"--api"      help:"Serve neighbour queries over a REST API instead of reading input"`
	APIPort   int    `arg:"--api-port" help:"API server port" default:"8080"`
	APIKey    string `arg:"--api-key"  help:"Require this X-API-Key header on API requests"`
}

// Version returns the version banner shown by --version.
func (CommandLineArgs) Version() string {
	return color.New(color.FgBlue, color.Bold).Sprint("nearust v"+config.Version) +
		" · " + color.New(color.FgWhite, color.Bold).Sprint("Fast Nearest Neighbour String Search")
}

// Description returns the tool description shown in help output.
func (CommandLineArgs) Description() string {
	return "Detects all pairs of input strings within a threshold edit distance of one another"
}

func main() {
	var args CommandLineArgs
	p := arg.MustParse(&args)

	if len(args.Files) > 2 {
		p.Fail("at most two input files may be given")
	}

	// Validate output format.
	validFormats := map[string]bool{
		"plain": true, "csv": true, "tsv": true, "json": true,
	}
	if !validFormats[strings.ToLower(args.Output)] {
		p.Fail("output must be one of: plain, csv, tsv, json")
	}

	setupLogging(args.Verbose, args.Quiet)

	cfg := buildConfig(args)

	// Validate config — surface any remaining constraint violations early.
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	// Root context with cancellation on interrupt.
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigChan
		fmt.Fprintln(os.Stderr, "\n[!] Interrupt received, shutting down…")
		cancel()
	}()

	engine := symdel.NewEngine(cfg.NumThreads)

	// API mode: serve queries until interrupted.
	if cfg.EnableAPI {
		runAPI(ctx, cfg, engine)
		return
	}

	matches, err := runSearch(ctx, cfg, engine, args.Files)
	if err != nil {
		log.Fatalf("Search failed: %v", err)
	}

	processor, err := result.NewProcessor(cfg)
	if err != nil {
		log.Fatalf("Failed to initialise result processor: %v", err)
	}

	if err := processor.WriteMatches(matches); err != nil {
		processor.Close()
		log.Fatalf("Failed to write results: %v", err)
	}
	if err := processor.Close(); err != nil {
		log.Fatalf("Failed to finalise results: %v", err)
	}

	log.Infof("%s", processor.GetSummary())

	stats := engine.GetStats()
	log.Debugf("Statistics: %d variant records, %d candidate pairs, %d matches",
		stats.TableRecords, stats.CandidatePairs, stats.MatchedPairs)
}

// runSearch loads the input collection(s) and runs the appropriate search mode.
func runSearch(ctx context.Context, cfg *config.SearchConfig, engine *symdel.Engine, files []string) (*symdel.Matches, error) {
	start := time.Now()
	defer func() {
		log.Debugf("Search completed in %v", time.Since(start))
	}()

	switch len(files) {
	case 0:
		coll, err := readCollection("")
		if err != nil {
			return nil, err
		}
		return engine.Within(ctx, coll, cfg.MaxDistance)

	case 1:
		coll, err := readCollection(files[0])
		if err != nil {
			return nil, err
		}
		return engine.Within(ctx, coll, cfg.MaxDistance)

	default:
		query, err := readCollection(files[0])
		if err != nil {
			return nil, err
		}
		ref, err := readCollection(files[1])
		if err != nil {
			return nil, err
		}
		return engine.Cross(ctx, query, ref, cfg.MaxDistance)
	}
}

// readCollection reads one byte string per line from a file, or from stdin
// when path is empty.
func readCollection(path string) (*collection.Collection, error) {
	if path == "" {
		return collection.ReadLines(os.Stdin)
	}

	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %q: %w", path, err)
	}
	defer file.Close()

	coll, err := collection.ReadLines(file)
	if err != nil {
		return nil, fmt.Errorf("read %q: %w", path, err)
	}
	return coll, nil
}

// runAPI starts the REST API server and blocks until the context is cancelled.
func runAPI(ctx context.Context, cfg *config.SearchConfig, engine *symdel.Engine) {
	apiServer := api.NewServer(cfg, engine)

	// Shut the API server down when the main context is cancelled.
	go func() {
		<-ctx.Done()
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer shutdownCancel()
		_ = apiServer.Shutdown(shutdownCtx)
	}()

	log.Infof("API server listening on :%d", cfg.APIPort)
	if err := apiServer.Start(cfg.APIPort); err != nil && ctx.Err() == nil {
		log.Fatalf("API server error: %v", err)
	}
}

// buildConfig translates CLI arguments into a SearchConfig.
func buildConfig(args CommandLineArgs) *config.SearchConfig {
	cfg := config.DefaultConfig()

	cfg.MaxDistance = args.MaxDistance
	cfg.NumThreads = args.NumThreads

	cfg.ZeroIndex = args.ZeroIndex
	cfg.Output = config.OutputFormat(strings.ToLower(args.Output))
	cfg.OutputFile = args.OutputFile
	cfg.Quiet = args.Quiet
	switch {
	case args.Quiet:
		cfg.LogLevel = config.LogQuiet
	case args.Verbose <= 0:
		cfg.LogLevel = config.LogWarn
	case args.Verbose == 1:
		cfg.LogLevel = config.LogInfo
	default:
		cfg.LogLevel = config.LogDebug
	}

	cfg.EnableAPI = args.EnableAPI
	cfg.APIPort = args.APIPort
	cfg.APIKey = args.APIKey

	return cfg
}

// setupLogging configures the logrus logger based on verbosity and quiet flags.
func setupLogging(verbose int, quiet bool) {
	log.SetFormatter(&log.TextFormatter{
		DisableLevelTruncation: true,
		DisableTimestamp:       true,
	})
	log.SetOutput(os.Stderr)

	if quiet {
		log.SetLevel(log.PanicLevel)
		return
	}

	switch verbose {
	case 0:
		log.SetLevel(log.WarnLevel)
	case 1:
		log.SetLevel(log.InfoLevel)
	default:
		log.SetLevel(log.DebugLevel)
	}
}
