package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/colligo/internal/common"
	"github.com/ternarybob/colligo/internal/interfaces"
	"github.com/ternarybob/colligo/internal/services/chunker"
	"github.com/ternarybob/colligo/internal/services/confluence"
	"github.com/ternarybob/colligo/internal/services/coveo"
	"github.com/ternarybob/colligo/internal/services/embeddings"
	"github.com/ternarybob/colligo/internal/services/extract"
	"github.com/ternarybob/colligo/internal/services/fingerprint"
	"github.com/ternarybob/colligo/internal/services/pinecone"
	"github.com/ternarybob/colligo/internal/services/pipeline"
	"github.com/ternarybob/colligo/internal/services/scheduler"
	"github.com/ternarybob/colligo/internal/storage/badger"
	"github.com/ternarybob/colligo/internal/storage/files"
)

// configPaths is a custom flag type that allows multiple -config flags
type configPaths []string

func (c *configPaths) String() string {
	return fmt.Sprintf("%v", *c)
}

func (c *configPaths) Set(value string) error {
	*c = append(*c, value)
	return nil
}

var (
	// Command-line flags
	configFiles  configPaths // Multiple -config flags supported
	sourcesFile  = flag.String("sources", "", "Sources file path (overrides config)")
	indexName    = flag.String("index", "", "Vector index name (overrides config)")
	runOnce      = flag.Bool("once", false, "Run a single synchronization pass and exit")
	showVersion  = flag.Bool("version", false, "Print version information")
	showVersionV = flag.Bool("v", false, "Print version information (shorthand)")

	// Global state
	config *common.Config
	logger arbor.ILogger
)

func init() {
	// Register custom flag for multiple config files
	flag.Var(&configFiles, "config", "Configuration file path (can be specified multiple times, later files override earlier ones)")
	flag.Var(&configFiles, "c", "Configuration file path (shorthand)")
}

func main() {
	flag.Parse()

	if *showVersion || *showVersionV {
		fmt.Printf("Colligo version %s\n", common.GetFullVersion())
		os.Exit(0)
	}

	// Startup sequence (REQUIRED ORDER):
	// 1. Load config (defaults -> file1 -> file2 -> ... -> env)
	// 2. Apply CLI overrides (highest priority)
	// 3. Initialize logger
	// 4. Print banner
	var err error

	// Auto-discover config file if not specified
	if len(configFiles) == 0 {
		if _, err := os.Stat("colligo.toml"); err == nil {
			configFiles = append(configFiles, "colligo.toml")
		} else if _, err := os.Stat("deployments/local/colligo.toml"); err == nil {
			configFiles = append(configFiles, "deployments/local/colligo.toml")
		}
	}

	config, err = common.LoadFromFiles(configFiles...)
	if err != nil {
		tempLogger := arbor.NewLogger()
		tempLogger.Fatal().Err(err).Msg("Failed to load configuration")
		os.Exit(1)
	}

	common.ApplyFlagOverrides(config, *sourcesFile, *indexName)

	logger = common.InitLogger(config)

	common.PrintBanner(common.GetVersion())

	logger.Debug().
		Str("environment", config.Environment).
		Str("storage_type", config.Storage.Type).
		Str("index", config.Pinecone.IndexName).
		Str("sources_file", config.SourcesFile).
		Msg("Configuration loaded")

	if err := run(); err != nil {
		logger.Fatal().Err(err).Msg("Colligo exited with error")
		os.Exit(1)
	}
}

func run() error {
	sources, err := pipeline.LoadSources(config.SourcesFile)
	if err != nil {
		return err
	}

	store, closer, err := newBlobStorage()
	if err != nil {
		return err
	}
	defer closer()

	ctx := context.Background()

	provider, err := embeddings.NewProvider(ctx, &config.Embeddings, logger)
	if err != nil {
		return fmt.Errorf("failed to create embedding provider: %w", err)
	}

	client := confluence.NewClient(&config.Confluence, logger)

	var tags *coveo.Client
	if config.CoveoEnabled() {
		tags = coveo.NewClient(&config.Coveo, logger)
	} else {
		logger.Info().Msg("Tag discovery not configured, tag sources will be skipped")
	}

	service := pipeline.NewService(
		config,
		confluence.NewCrawler(client, logger),
		confluence.NewFetcher(client, logger),
		tags,
		extract.NewTextExtractor(logger),
		fingerprint.NewDiffer(logger),
		chunker.NewService(logger),
		embeddings.NewService(provider, embeddings.NewRetryPolicy(config.Embeddings.MaxAttempts), logger),
		pinecone.NewService(&config.Pinecone, logger),
		pipeline.NewArtifacts(store, config.Storage.OutputPrefix, logger),
		logger,
	)

	sched := scheduler.NewScheduler(service, sources, logger)

	if *runOnce || !config.Scheduler.Enabled {
		sched.RunAll()
		return nil
	}

	if err := sched.Start(config.Scheduler.Schedule); err != nil {
		return fmt.Errorf("failed to start scheduler: %w", err)
	}
	defer sched.Stop()

	// Run immediately on startup, then on schedule
	sched.RunAll()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit
	logger.Info().Str("signal", sig.String()).Msg("Shutting down")

	return nil
}

func newBlobStorage() (interfaces.BlobStorage, func(), error) {
	switch config.Storage.Type {
	case "files":
		store, err := files.NewBlobStorage(config.Storage.Files.Path, logger)
		if err != nil {
			return nil, nil, err
		}
		return store, func() {}, nil
	default:
		db, err := badger.NewBadgerDB(logger, &config.Storage.Badger)
		if err != nil {
			return nil, nil, err
		}
		store := badger.NewBlobStorage(db, logger)
		return store, func() {
			if err := db.Close(); err != nil {
				logger.Warn().Err(err).Msg("Failed to close database")
			}
		}, nil
	}
}
