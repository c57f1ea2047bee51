package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/dexgo/dexchange/params"
	"github.com/dexgo/dexchange/pkg/api"
	"github.com/dexgo/dexchange/pkg/exchange"
	"github.com/dexgo/dexchange/pkg/exchange/ledger"
	"github.com/dexgo/dexchange/pkg/exchange/trade"
	"github.com/dexgo/dexchange/pkg/util"
)

func main() {
	// Load config from .env file and environment variables
	cfg, err := params.LoadFromEnv("") // "" means load from .env in current directory
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	if err := os.MkdirAll(cfg.Node.DataDir, 0755); err != nil {
		log.Fatalf("data dir: %v", err)
	}

	// Setup logging (write to both console and file)
	logger, err := util.NewLoggerWithFile(cfg.Node.LogFile)
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer logger.Sync()
	sugar := logger.Sugar()
	sugar.Infow("logger_initialized", "log_file", cfg.Node.LogFile)

	// ---- Persistence ----
	ledgerStore, err := ledger.NewStore(filepath.Join(cfg.Node.DataDir, "ledger.db"))
	if err != nil {
		sugar.Fatalw("ledger_store_failed", "err", err)
	}
	defer ledgerStore.Close()

	tradeStore, err := trade.NewStore(filepath.Join(cfg.Node.DataDir, "trades.db"))
	if err != nil {
		sugar.Fatalw("trade_store_failed", "err", err)
	}
	defer tradeStore.Close()

	// ---- Exchange core ----
	ex, err := exchange.New(exchange.Config{
		QuoteTicker: cfg.Exchange.QuoteTicker,
		Owner:       cfg.Exchange.Owner,
		Custody:     cfg.Exchange.Custody,
	}, ledgerStore, tradeStore, logger)
	if err != nil {
		sugar.Fatalw("exchange_init_failed", "err", err)
	}

	sugar.Infow("exchange_initialized",
		"quote", cfg.Exchange.QuoteTicker,
		"owner", cfg.Exchange.Owner.Hex(),
	)

	// Devnet seeding: mock tokens, funded traders, sample liquidity.
	// Enable with SEED=true on a fresh data dir only.
	if cfg.Node.Seed {
		if err := exchange.Seed(ex, logger); err != nil {
			sugar.Fatalw("seed_failed", "err", err)
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// ---- API Server ----
	apiServer := api.NewServer(ex, cfg.Exchange.TradeHistoryLimit)
	go func() {
		sugar.Infow("api_server_starting", "addr", cfg.Node.APIAddr)
		if err := apiServer.Start(cfg.Node.APIAddr); err != nil {
			sugar.Fatalw("api_server_failed", "err", err)
		}
	}()

	<-ctx.Done()
	sugar.Info("shutting down")
}
