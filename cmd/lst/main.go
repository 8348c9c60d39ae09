// Command lst computes daily Land Surface Temperature rasters over an area
// of interest and exports one GeoTIFF per acquisition date.
//
// Usage:
//
//	lst [-progress] [-strict] [-dates 2023-07-05,2023-07-21]
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/airbusgeo/godal"
	"github.com/schollz/progressbar/v3"
	"golang.org/x/term"

	"github.com/couchcryptid/lst-etl/internal/adapter/gdal"
	httpadapter "github.com/couchcryptid/lst-etl/internal/adapter/http"
	kafkaadapter "github.com/couchcryptid/lst-etl/internal/adapter/kafka"
	"github.com/couchcryptid/lst-etl/internal/adapter/preview"
	"github.com/couchcryptid/lst-etl/internal/adapter/stac"
	"github.com/couchcryptid/lst-etl/internal/config"
	"github.com/couchcryptid/lst-etl/internal/domain"
	"github.com/couchcryptid/lst-etl/internal/lst"
	"github.com/couchcryptid/lst-etl/internal/observability"
	"github.com/couchcryptid/lst-etl/internal/pipeline"
	"github.com/couchcryptid/lst-etl/internal/report"
)

func main() {
	showProgress := flag.Bool("progress", false, "show a progress bar on an interactive stderr")
	strict := flag.Bool("strict", false, "exit non-zero when any date failed")
	onlyDates := flag.String("dates", "", "comma-separated YYYY-MM-DD dates to process instead of every acquisition date")
	flag.Parse()

	os.Exit(run(*showProgress, *strict, *onlyDates))
}

func run(showProgress, strict bool, onlyDates string) int {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		return 1
	}

	logger := observability.NewLogger(cfg)
	metrics := observability.NewMetrics()

	aoi, err := domain.NewAreaOfInterest(cfg.AOILon, cfg.AOILat, cfg.AOIRadiusM)
	if err != nil {
		logger.Error("invalid area of interest", "error", err)
		return 1
	}
	dateRange, err := domain.ParseDateRange(cfg.StartDate, cfg.EndDate)
	if err != nil {
		logger.Error("invalid date range", "error", err)
		return 1
	}
	dates, err := parseDates(onlyDates, dateRange)
	if err != nil {
		logger.Error("invalid -dates", "error", err)
		return 1
	}

	godal.RegisterAll()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	httpClient := stac.NewHTTPClient(ctx, stac.Auth{
		ClientID:     cfg.CatalogClientID,
		ClientSecret: cfg.CatalogClientSecret,
		TokenURL:     cfg.CatalogTokenURL,
	}, cfg.CatalogTimeout)
	catalog := stac.NewClient(cfg.CatalogURL, httpClient, cfg.CatalogMaxCloudCover, logger)

	loader := gdal.NewCachedLoader(gdal.NewLoader(cfg.ScaleM, logger), cfg.SceneCacheSize, metrics)
	logger.Info("scene loader ready", "scale_m", cfg.ScaleM, "cache_size", cfg.SceneCacheSize)

	var sink pipeline.ExportSink = gdal.NewGeoTIFFSink(logger)
	if len(cfg.KafkaBrokers) > 0 {
		publisher := kafkaadapter.NewPublisher(sink,
			kafkaadapter.NewWriter(cfg.KafkaBrokers, cfg.KafkaExportTopic),
			gdal.Path, nil, logger, metrics)
		defer func() {
			if err := publisher.Close(); err != nil {
				logger.Error("kafka writer close error", "error", err)
			}
		}()
		sink = publisher
		logger.Info("export events enabled", "topic", cfg.KafkaExportTopic)
	}

	var display pipeline.DisplaySink
	if cfg.PreviewDir != "" {
		display = preview.NewRenderer(cfg.PreviewDir, logger)
		logger.Info("previews enabled", "dir", cfg.PreviewDir)
	}

	exporter := pipeline.NewExporter(sink, pipeline.RetryPolicy{
		MaxAttempts: cfg.ExportMaxAttempts,
		Initial:     cfg.ExportBackoff,
		Max:         cfg.ExportMaxBackoff,
	}, nil, logger, metrics)

	transformer := pipeline.NewTransformer(loader, aoi, lst.EmissivityOptions{
		Scale:     cfg.ScaleM,
		MaxPixels: cfg.MaxPixels,
		Bounds: lst.NDVIBounds{
			Fixed: cfg.FixedNDVIBounds(),
			Min:   cfg.NDVIMin,
			Max:   cfg.NDVIMax,
		},
	}, cfg.SceneWorkers, logger, metrics)

	opts := pipeline.Options{
		AOI:          aoi,
		Range:        dateRange,
		Collection:   cfg.CatalogCollection,
		Folder:       cfg.ExportFolder,
		Scale:        cfg.ScaleM,
		Workers:      cfg.Workers,
		DateAttempts: cfg.DateAttempts,
		Dates:        dates,
	}
	if showProgress && term.IsTerminal(int(os.Stderr.Fd())) {
		bar := newProgressBar()
		defer bar.Finish() //nolint:errcheck // progress output is best-effort
		opts.OnDate = func(time.Time, error) { bar.Add(1) } //nolint:errcheck // progress output is best-effort
	}

	p := pipeline.New(catalog, transformer, exporter, display, logger, metrics, opts)

	if cfg.HTTPAddr != "" {
		srv := httpadapter.NewServer(cfg.HTTPAddr, p, logger)
		go func() {
			if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error("http server error", "error", err)
			}
		}()
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
			defer cancel()
			if err := srv.Shutdown(shutdownCtx); err != nil {
				logger.Error("http server shutdown error", "error", err)
			}
		}()
	}

	rep, err := p.Run(ctx)
	if err != nil {
		logger.Error("pipeline error", "error", err)
		return 1
	}

	if cfg.ManifestPath != "" {
		if err := report.WriteFile(cfg.ManifestPath, rep); err != nil {
			logger.Error("write manifest", "path", cfg.ManifestPath, "error", err)
			return 1
		}
		logger.Info("manifest written", "path", cfg.ManifestPath)
	}

	for _, f := range rep.Failed {
		logger.Warn("date not exported", "date", f.Date.Format(domain.DateLayout), "kind", f.Kind(), "error", f.Err)
	}
	logger.Info("run complete",
		"dates", rep.Dates,
		"exported", len(rep.Succeeded),
		"failed", len(rep.Failed),
	)

	if ctx.Err() != nil {
		logger.Warn("run interrupted")
		return 130
	}
	if strict && !rep.OK() {
		return 1
	}
	return 0
}

// parseDates parses the -dates flag. Every date must fall inside r; repeated
// dates are kept once.
func parseDates(s string, r domain.DateRange) ([]time.Time, error) {
	if strings.TrimSpace(s) == "" {
		return nil, nil
	}
	var dates []time.Time
	seen := make(map[time.Time]bool)
	for _, part := range strings.Split(s, ",") {
		d, err := time.Parse(domain.DateLayout, strings.TrimSpace(part))
		if err != nil {
			return nil, fmt.Errorf("parse %q: %w", part, err)
		}
		if !r.Contains(d) {
			return nil, fmt.Errorf("%s outside %s: %w", d.Format(domain.DateLayout), r.String(), domain.ErrInvalidDateRange)
		}
		d = domain.Day(d)
		if seen[d] {
			continue
		}
		seen[d] = true
		dates = append(dates, d)
	}
	return dates, nil
}

func newProgressBar() *progressbar.ProgressBar {
	return progressbar.NewOptions(-1,
		progressbar.OptionSetWriter(os.Stderr),
		progressbar.OptionSetDescription("dates"),
		progressbar.OptionShowCount(),
		progressbar.OptionSpinnerType(14),
		progressbar.OptionClearOnFinish(),
	)
}
