// Package refresh drives the background refresh loops. Each feed runs on its
// own ticker so a slow upstream never delays the others, and all fetches go
// through the market-data cache so foreground reads stay warm.
package refresh

import (
	"context"
	"sync"
	"time"

	"github.com/mydash-app/mydash/internal/common/clients/openweather"
	"github.com/mydash-app/mydash/internal/common/domain"
	"github.com/mydash-app/mydash/internal/dashboard"
	"github.com/mydash-app/mydash/internal/marketdata"
	"github.com/mydash-app/mydash/internal/telemetry"
	"github.com/mydash-app/mydash/pkg/format"
	"github.com/mydash-app/mydash/pkg/log"
	"go.uber.org/zap"
)

type Intervals struct {
	Telemetry time.Duration
	Quotes    time.Duration
	Accounts  time.Duration
	Weather   time.Duration
}

func DefaultIntervals() Intervals {
	return Intervals{
		Telemetry: domain.TelemetryRefreshInterval,
		Quotes:    domain.QuoteRefreshInterval,
		Accounts:  domain.AccountRefreshInterval,
		Weather:   domain.WeatherRefreshInterval,
	}
}

type Refresher struct {
	market     *marketdata.Service
	holdings   domain.HoldingsRepository
	aggregator *dashboard.Aggregator
	telemetry  *telemetry.Service

	city         string
	accountKinds []string
	intervals    Intervals
}

func New(
	market *marketdata.Service,
	holdings domain.HoldingsRepository,
	aggregator *dashboard.Aggregator,
	telemetryService *telemetry.Service,
	city string,
	accountKinds []string,
	intervals Intervals,
) *Refresher {
	return &Refresher{
		market:       market,
		holdings:     holdings,
		aggregator:   aggregator,
		telemetry:    telemetryService,
		city:         city,
		accountKinds: accountKinds,
		intervals:    intervals,
	}
}

// Run starts one goroutine per feed and blocks until ctx is cancelled and
// every loop has drained. Refresh failures are logged and absorbed; a cycle
// never crashes the process.
func (r *Refresher) Run(ctx context.Context) {
	var wg sync.WaitGroup

	loops := []struct {
		name     string
		interval time.Duration
		tick     func(ctx context.Context)
	}{
		{"telemetry", r.intervals.Telemetry, r.refreshTelemetry},
		{"quotes", r.intervals.Quotes, r.refreshQuotes},
		{"accounts", r.intervals.Accounts, r.refreshAccounts},
		{"weather", r.intervals.Weather, r.refreshWeather},
	}

	for _, loop := range loops {
		wg.Add(1)
		go func(name string, interval time.Duration, tick func(ctx context.Context)) {
			defer wg.Done()

			ticker := time.NewTicker(interval)
			defer ticker.Stop()

			tick(ctx)

			for {
				select {
				case <-ctx.Done():
					log.Info("refresh loop shutting down...", zap.String("loop", name))
					return
				case <-ticker.C:
					tick(ctx)
				}
			}
		}(loop.name, loop.interval, loop.tick)
	}

	wg.Wait()
}

// refreshQuotes warms the quote cache for every held symbol, then logs the
// portfolio summaries as the headless stand-in for the table view.
func (r *Refresher) refreshQuotes(ctx context.Context) {
	symbols, err := r.holdings.GetHeldSymbols(ctx)
	if err != nil {
		log.Error("failed to list held symbols", zap.Error(err))
		return
	}

	for _, symbol := range symbols {
		if _, stale, err := r.market.Quote(ctx, symbol); err != nil {
			log.Warn("quote refresh failed", zap.String("symbol", symbol), zap.Error(err))
		} else if stale {
			log.Warn("serving stale quote", zap.String("symbol", symbol))
		}
	}

	summaries, err := r.aggregator.Overview(ctx)
	if err != nil {
		log.Error("portfolio overview failed", zap.Error(err))
		return
	}

	for _, summary := range summaries {
		log.Info("portfolio valuation",
			zap.String("portfolio", summary.Name),
			zap.Int("positions", len(summary.Rows)),
			zap.String("market_value", format.PrettyDecimal(summary.TotalMarketValue, " ", ".")),
			zap.String("unrealized_gain", format.PrettyDecimal(summary.TotalUnrealizedGain, " ", ".")),
			zap.String("day_change_pct", summary.ChangePercent.Round(2).String()),
		)
	}
}

func (r *Refresher) refreshWeather(ctx context.Context) {
	if r.city == "" {
		return
	}

	snapshot, stale, err := r.market.Weather(ctx, r.city)
	if err != nil {
		log.Warn("weather refresh failed", zap.String("city", r.city), zap.Error(err))
		return
	}

	log.Info("weather",
		zap.String("city", snapshot.City),
		zap.String("conditions", openweather.IconEmoji(snapshot.Icon)+" "+snapshot.Description),
		zap.Float64("temperature", snapshot.Temperature),
		zap.Bool("stale", stale),
	)
}

func (r *Refresher) refreshAccounts(ctx context.Context) {
	for _, kind := range r.accountKinds {
		summary, stale, err := r.market.AccountSummary(ctx, kind)
		if err != nil {
			log.Warn("account summary refresh failed", zap.String("kind", kind), zap.Error(err))
			continue
		}

		log.Info("account summary refreshed",
			zap.String("kind", kind),
			zap.Int("payload_bytes", len(summary.Payload)),
			zap.Bool("stale", stale),
		)
	}
}

func (r *Refresher) refreshTelemetry(ctx context.Context) {
	snapshot, err := r.telemetry.Snapshot(ctx)
	if err != nil {
		return
	}

	log.Debug("telemetry",
		zap.String("host", snapshot.WhoAmI()),
		zap.Float64("cpu_percent", snapshot.CPU),
		zap.Float64("mem_percent", snapshot.MemPercent),
		zap.Float64("load_1", snapshot.Load1),
	)
}
