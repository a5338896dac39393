package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/covenlabs/coven-indexer/internal/adapter"
	"github.com/covenlabs/coven-indexer/internal/config"
	"github.com/covenlabs/coven-indexer/internal/engine"
	"github.com/covenlabs/coven-indexer/internal/logger"
	"github.com/covenlabs/coven-indexer/internal/providers/ethereum"
	"github.com/covenlabs/coven-indexer/internal/store"
)

var (
	configPath = flag.String("config", "", "Path to configuration file")
	envPath    = flag.String("env", "", "Path to environment files directory")
)

func main() {
	flag.Parse()

	// Load configuration
	cfg, err := config.LoadBackfillConfig(*configPath, *envPath)
	if err != nil {
		panic(fmt.Sprintf("Failed to load config: %v", err))
	}

	// Initialize logger
	err = logger.Initialize(logger.Config{
		Debug:     cfg.Debug,
		SentryDSN: cfg.SentryDSN,
		Tags:      map[string]string{"service": "backfill"},
	})
	if err != nil {
		panic(fmt.Sprintf("Failed to initialize logger: %v", err))
	}
	defer logger.Flush(2 * time.Second)
	logger.Info("Starting backfill")

	// Connect to database
	db, err := gorm.Open(postgres.Open(cfg.Database.DSN()), &gorm.Config{})
	if err != nil {
		logger.Fatal("Failed to connect to database", zap.Error(err))
	}
	if err := store.Migrate(db); err != nil {
		logger.Fatal("Failed to migrate database", zap.Error(err))
	}
	logger.Info("Connected to database")

	dataStore := store.NewPGStore(db)
	eng := engine.New(dataStore, engine.Contracts{
		NFTAddress:         cfg.Contracts.NFTAddress,
		MarketplaceAddress: cfg.Contracts.MarketplaceAddress,
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Connect to Ethereum RPC
	client, err := adapter.NewEthClientDialer().Dial(ctx, cfg.Ethereum.RPCURL)
	if err != nil {
		logger.Fatal("Failed to connect to Ethereum RPC", zap.Error(err), zap.String("url", cfg.Ethereum.RPCURL))
	}

	source := ethereum.NewFetcher(client, ethereum.FetcherConfig{
		StartBlock:         cfg.Ethereum.StartBlock,
		EndBlock:           cfg.Ethereum.EndBlock,
		BatchSize:          cfg.Ethereum.BatchSize,
		NFTAddress:         cfg.Contracts.NFTAddress,
		MarketplaceAddress: cfg.Contracts.MarketplaceAddress,
	})
	defer source.Close()

	// Setup signal handling
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	doneCh := make(chan error, 1)
	go func() {
		doneCh <- source.Run(ctx, eng.ProcessBatch)
	}()

	select {
	case sig := <-sigCh:
		logger.Info("Received shutdown signal", zap.String("signal", sig.String()))
		cancel()
		<-doneCh
	case err := <-doneCh:
		if err != nil && !errors.Is(err, context.Canceled) {
			logger.Error(err, zap.String("component", "backfill"))
			logger.Flush(2 * time.Second)
			os.Exit(1)
		}
	}

	logger.Info("Backfill finished")
}
