package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/mydash-app/mydash/internal/common/clients/accounts"
	"github.com/mydash-app/mydash/internal/common/clients/openweather"
	"github.com/mydash-app/mydash/internal/common/clients/yahoo"
	"github.com/mydash-app/mydash/internal/common/config"
	"github.com/mydash-app/mydash/internal/common/domain"
	"github.com/mydash-app/mydash/internal/common/repositories/postgres"
	"github.com/mydash-app/mydash/internal/dashboard"
	"github.com/mydash-app/mydash/internal/ledger"
	"github.com/mydash-app/mydash/internal/marketdata"
	"github.com/mydash-app/mydash/internal/refresh"
	"github.com/mydash-app/mydash/internal/telemetry"
	"github.com/mydash-app/mydash/pkg/goosemigrate"
	"github.com/mydash-app/mydash/pkg/log"
	"github.com/mydash-app/mydash/pkg/ttlcache"
	"github.com/sethvargo/go-retry"
	"go.uber.org/zap"
)

func main() {
	var configPath string
	flag.StringVar(&configPath, "config", "prod.yaml", "dashboard config path")
	flag.Parse()

	ctx, cancel := context.WithCancel(context.Background())

	_ = godotenv.Load()

	cfg := config.GetConfig(configPath)

	log.Info("dashboard starting...")

	log.Info("init postgres...")
	pool, err := pgxpool.New(ctx, cfg.GetPostgresURL())
	if err != nil {
		log.Fatal("postgres init failed", zap.Error(err))
	}

	backoff := retry.WithMaxRetries(5, retry.NewExponential(time.Second))
	if err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		if err := pool.Ping(ctx); err != nil {
			return retry.RetryableError(err)
		}
		return nil
	}); err != nil {
		log.Fatal("postgres unreachable", zap.Error(err))
	}

	if err := goosemigrate.NewMigrator(cfg.GetPostgresURL(), "migrations", cfg.Postgres.Schema).Up(); err != nil {
		log.Fatal("migrations up failed", zap.Error(err))
	}

	portfoliosRepository := postgres.NewPortfoliosRepository(pool)
	holdingsRepository := postgres.NewHoldingsRepository(pool)
	transactionsRepository := postgres.NewTransactionsRepository(pool)

	log.Info("init data sources...")
	quotes := yahoo.NewClient()
	weather := openweather.NewClient(cfg.Weather.APIKey, cfg.Weather.Units)
	accountFeeds := accounts.NewClient(cfg.Accounts.Endpoints)

	cache := ttlcache.New()
	market := marketdata.New(cache, quotes, weather, accountFeeds)

	book := ledger.New(holdingsRepository, transactionsRepository)
	aggregator := dashboard.NewAggregator(portfoliosRepository, holdingsRepository, market)

	verifyLedger(ctx, book, portfoliosRepository, holdingsRepository)

	refresher := refresh.New(
		market,
		holdingsRepository,
		aggregator,
		telemetry.NewService(),
		cfg.Weather.City,
		accountFeeds.Kinds(),
		refresh.Intervals{
			Telemetry: cfg.Refresh.Telemetry,
			Quotes:    cfg.Refresh.Quotes,
			Accounts:  cfg.Refresh.Accounts,
			Weather:   cfg.Refresh.Weather,
		},
	)

	go refresher.Run(ctx)

	log.Info("dashboard starting complete")

	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGINT, syscall.SIGTERM)

	<-done
	log.Info("dashboard shutting down...")

	cancel()
	pool.Close()

	if err := log.Sync(); err != nil {
		log.Error("log sync failed", zap.Error(err))
	}

	log.Info("dashboard shut down complete")
}

// verifyLedger replays every holding's transaction log against its stored
// state on startup. A mismatch means the store was modified outside the
// ledger and needs attention before the numbers can be trusted.
func verifyLedger(ctx context.Context, book *ledger.Ledger, portfolios domain.PortfoliosRepository, holdings domain.HoldingsRepository) {
	log.Info("verifying ledger consistency...")

	all, err := portfolios.GetAllPortfolios(ctx)
	if err != nil {
		log.Error("failed to list portfolios", zap.Error(err))
		return
	}

	for _, portfolio := range all {
		positions, err := holdings.GetHoldingsByPortfolio(ctx, portfolio.ID)
		if err != nil {
			log.Error("failed to list holdings", zap.Int64("portfolio_id", portfolio.ID), zap.Error(err))
			continue
		}

		for _, holding := range positions {
			ok, err := book.VerifyHolding(ctx, holding)
			if err != nil {
				log.Error("holding verification failed",
					zap.String("symbol", holding.Symbol),
					zap.Error(err),
				)
				continue
			}

			if !ok {
				log.Error("holding state diverges from its transaction log",
					zap.Int64("holding_id", holding.ID),
					zap.String("symbol", holding.Symbol),
					zap.String("quantity", holding.Quantity.String()),
					zap.String("average_cost", holding.AverageCost.String()),
				)
			}
		}
	}
}
