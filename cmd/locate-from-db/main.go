// locate-from-db is the CLI entry point (spec.md §6): given an output
// directory, a calibration artifact, a basemap file, and a database DSN,
// it runs the geolocation pipeline over every selected batch and variant,
// one output file per (batch, variant) pair.
//
// Grounded on WavesMan-ip-api/cmd/main.go's "read config, init
// dependencies, start" shape and cmd/cidr-build/main.go's flag/env
// parsing style.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"

	"github.com/ageo-project/locate-from-db/internal/ageoerr"
	"github.com/ageo-project/locate-from-db/internal/annotate"
	"github.com/ageo-project/locate-from-db/internal/basemap"
	"github.com/ageo-project/locate-from-db/internal/calib"
	"github.com/ageo-project/locate-from-db/internal/config"
	"github.com/ageo-project/locate-from-db/internal/ledger"
	"github.com/ageo-project/locate-from-db/internal/logger"
	"github.com/ageo-project/locate-from-db/internal/metrics"
	"github.com/ageo-project/locate-from-db/internal/region"
	"github.com/ageo-project/locate-from-db/internal/resultcache"
	"github.com/ageo-project/locate-from-db/internal/runner"
	"github.com/ageo-project/locate-from-db/internal/statusserver"
	"github.com/ageo-project/locate-from-db/internal/store"
	"github.com/ageo-project/locate-from-db/internal/telemetry"
)

// variants is the reference configuration from spec.md §3: the four
// named calibration variants run against every batch.
var variants = []string{"cbg-m-1", "oct-m-1", "spo-m-a", "spo-g-a"}

func main() {
	_ = godotenv.Load(".env")

	cfg, err := config.Parse(os.Args[1:])
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	l := logger.Setup(cfg.LogLevel, cfg.LogFormat)

	if err := run(cfg); err != nil {
		l.Error("run_failed", "err", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config) error {
	ctx := context.Background()
	l := logger.L()

	if err := os.MkdirAll(cfg.OutputDir, 0o755); err != nil {
		return ageoerr.Wrap(ageoerr.KindIO, "create output directory", err)
	}

	calFile, err := os.Open(cfg.CalibrationFile)
	if err != nil {
		return ageoerr.Wrap(ageoerr.KindIO, "open calibration file", err)
	}
	defer calFile.Close()
	calStore, err := calib.Load(calFile)
	if err != nil {
		return err
	}
	l.Info("calibration_loaded", "variants", calStore.Variants())

	bctx := region.NewContext()
	baseRegion, err := basemap.LoadFile(bctx, cfg.BasemapFile)
	if err != nil {
		return err
	}
	baseMapWKT := baseRegion.ToWKT()
	l.Info("basemap_loaded", "area_sq_deg", baseRegion.Area())

	ann, err := annotate.New(annotate.Config{
		GeoIPCountryPath: cfg.GeoIPCountryPath,
		GeoIPASNPath:     cfg.GeoIPASNPath,
		IP2RegionPath:    cfg.IP2RegionPath,
	})
	if err != nil {
		return ageoerr.Wrap(ageoerr.KindIO, "open annotator databases", err)
	}
	defer ann.Close()

	st, err := store.Open(cfg.DatabaseDSN)
	if err != nil {
		return err
	}
	defer st.Close()

	landmarks, err := st.LoadLandmarks(ctx)
	if err != nil {
		return err
	}
	l.Info("landmarks_loaded", "count", len(landmarks))

	batchIDs, err := st.SelectBatchIDs(ctx, cfg.Selector)
	if err != nil {
		return err
	}
	l.Info("batches_selected", "count", len(batchIDs))

	runLedger, err := ledger.Open(filepath.Join(cfg.OutputDir, ".locate-ledger.db"))
	if err != nil {
		return err
	}
	defer runLedger.Close()

	cache := resultcache.Open(cfg.RedisAddr, cfg.RedisPass, cfg.RedisTTL)
	defer cache.Close()

	shutdownTracing, err := telemetry.Init(ctx, cfg.OtelExporter)
	if err != nil {
		return fmt.Errorf("init tracing: %w", err)
	}
	defer func() {
		sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = shutdownTracing(sctx)
	}()

	tasks := make([]runner.Task, 0, len(batchIDs)*len(variants))
	for _, id := range batchIDs {
		for _, v := range variants {
			tasks = append(tasks, runner.Task{BatchID: id, Variant: v})
		}
	}

	counters := statusserver.NewCounters(int64(len(tasks)))
	var debugSrv *http.Server
	if cfg.StatusAddr != "" {
		mux := statusserver.Handler(counters).(*http.ServeMux)
		mux.Handle("/metrics", metrics.Handler())
		debugSrv = &http.Server{Addr: cfg.StatusAddr, Handler: mux}
		go func() { _ = debugSrv.ListenAndServe() }()
		defer func() {
			sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = debugSrv.Shutdown(sctx)
		}()
	}

	rn := &runner.Runner{
		Store:      st,
		Calib:      calStore,
		Landmarks:  landmarks,
		BaseMapWKT: baseMapWKT,
		Annotator:  ann,
		Ledger:     runLedger,
		Cache:      cache,
		OutputDir:  cfg.OutputDir,
		Force:      cfg.Force,
		Counters:   counters,
	}

	l.Info("run_begin", "workers", cfg.Workers, "tasks", len(tasks))
	if err := rn.Run(ctx, tasks, cfg.Workers); err != nil {
		return err
	}
	l.Info("run_complete")
	return nil
}
