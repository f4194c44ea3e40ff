// Command snapshot builds trending snapshots from the command line, for cron
// jobs and backfills.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"spinchart/internal/app/trending"
	"spinchart/internal/store"
	"spinchart/shared/go/config"
	"spinchart/shared/go/logging"
)

type options struct {
	period string
	date   string
	days   int
	weight float64

	weightSet bool
}

func main() {
	var opts options
	flag.StringVar(&opts.period, "period", "all", "period type to build: daily, weekly, monthly or all")
	flag.StringVar(&opts.date, "date", "", "snapshot date as YYYY-MM-DD (default today)")
	flag.IntVar(&opts.days, "days", 1, "number of consecutive dates to build, ending at -date")
	flag.Float64Var(&opts.weight, "growth-weight", trending.DefaultGrowthWeight, "growth weight override (default TRENDING_GROWTH_WEIGHT)")
	flag.Parse()
	flag.Visit(func(f *flag.Flag) {
		if f.Name == "growth-weight" {
			opts.weightSet = true
		}
	})

	_ = godotenv.Load()
	_ = godotenv.Load("config/local.env")

	logger := logging.New(logging.Config{
		Level:   os.Getenv("LOG_LEVEL"),
		Format:  os.Getenv("LOG_FORMAT"),
		Service: "spinchart-snapshot",
	})
	logging.SetGlobalLogger(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, logger, opts); err != nil {
		stop()
		logging.Fatal(err, "Snapshot build failed")
	}
}

func run(ctx context.Context, logger *logging.Logger, opts options) error {
	periods, err := parsePeriods(opts.period)
	if err != nil {
		return err
	}
	dates, err := buildDates(opts.date, opts.days, time.Now().UTC())
	if err != nil {
		return err
	}
	weight, err := growthWeight(opts.weight, opts.weightSet)
	if err != nil {
		return err
	}

	dbCfg, err := config.LoadDatabase()
	if err != nil {
		return err
	}
	db, err := store.Open(ctx, dbCfg.URL)
	if err != nil {
		return err
	}
	defer db.Close()

	builder := trending.NewBuilder(store.New(db), weight)
	return buildAll(ctx, logger, builder, periods, dates)
}

type snapshotBuilder interface {
	BuildSnapshot(ctx context.Context, period trending.Period, date time.Time) (int64, error)
}

// buildAll builds every period for every date in order and stops at the first failure.
func buildAll(ctx context.Context, logger *logging.Logger, builder snapshotBuilder, periods []trending.Period, dates []time.Time) error {
	for _, date := range dates {
		for _, period := range periods {
			id, err := builder.BuildSnapshot(ctx, period, date)
			if err != nil {
				return fmt.Errorf("build %s snapshot for %s: %w", period, trending.FormatDate(date), err)
			}
			logger.Zerolog().Info().
				Str("period_type", string(period)).
				Str("snapshot_date", trending.FormatDate(date)).
				Int64("snapshot_id", id).
				Msg("Trending snapshot built")
		}
	}
	return nil
}

func parsePeriods(raw string) ([]trending.Period, error) {
	if raw == "" || raw == "all" {
		return trending.Periods, nil
	}
	period, err := trending.ParsePeriod(raw)
	if err != nil {
		return nil, err
	}
	return []trending.Period{period}, nil
}

// buildDates returns days consecutive dates ending at raw, oldest first. Dates
// after today are clamped to today.
func buildDates(raw string, days int, now time.Time) ([]time.Time, error) {
	if days <= 0 {
		return nil, fmt.Errorf("days must be positive, got %d", days)
	}
	end, err := trending.ParseDate(raw)
	if err != nil {
		return nil, err
	}
	today := trending.DateOf(now)
	if end.IsZero() || end.After(today) {
		end = today
	}

	dates := make([]time.Time, 0, days)
	for i := days - 1; i >= 0; i-- {
		dates = append(dates, end.AddDate(0, 0, -i))
	}
	return dates, nil
}

// growthWeight returns the flag override when one was given, else the value
// the server reads from TRENDING_GROWTH_WEIGHT.
func growthWeight(override float64, overridden bool) (float64, error) {
	if overridden {
		if err := config.ValidateGrowthWeight(override); err != nil {
			return 0, err
		}
		return override, nil
	}
	tr, err := config.LoadTrending()
	if err != nil {
		return 0, err
	}
	return tr.GrowthWeight, nil
}
