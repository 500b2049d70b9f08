// Package runner implements BatchRunner (spec.md §4.8): a worker pool
// processing one (batch, variant) pair per task to completion, each
// worker owning its own database connection (drawn from a shared pool)
// and its own GEOS context (go-geos contexts are not goroutine-safe).
//
// Grounded on
// WavesMan-ip-api/internal/ipip/importer.go:ImportIPv4LeavesToDBConcurrent's
// channel/worker-pool pattern, generalized from a raw sync.WaitGroup to
// golang.org/x/sync/errgroup so a fatal error in one worker cancels its
// siblings (spec.md §5's cancellation policy), the idiomatic fit noted in
// DESIGN.md.
package runner

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/ageo-project/locate-from-db/internal/ageoerr"
	"github.com/ageo-project/locate-from-db/internal/annotate"
	"github.com/ageo-project/locate-from-db/internal/calib"
	"github.com/ageo-project/locate-from-db/internal/constraint"
	"github.com/ageo-project/locate-from-db/internal/geomodel"
	"github.com/ageo-project/locate-from-db/internal/ledger"
	"github.com/ageo-project/locate-from-db/internal/logger"
	"github.com/ageo-project/locate-from-db/internal/metrics"
	"github.com/ageo-project/locate-from-db/internal/output"
	"github.com/ageo-project/locate-from-db/internal/preprocess"
	"github.com/ageo-project/locate-from-db/internal/region"
	"github.com/ageo-project/locate-from-db/internal/resultcache"
	"github.com/ageo-project/locate-from-db/internal/solver"
	"github.com/ageo-project/locate-from-db/internal/statusserver"
	"github.com/ageo-project/locate-from-db/internal/store"
	"github.com/ageo-project/locate-from-db/internal/telemetry"
)

// Error tags from spec.md §4.8/§7.
const (
	TagAtSea             = "at-sea"
	TagEmptyIntersection = "empty-intersection"
	TagNoObservations    = "no-observations"
)

// Task is one (batch, variant) unit of work.
type Task struct {
	BatchID int64
	Variant string
}

// Runner holds the shared, read-only state every worker consults (spec.md
// §5: CalibrationStore, BaseMap, LandmarkPosition table loaded once by the
// coordinator).
type Runner struct {
	Store      *store.Store
	Calib      *calib.Store
	Landmarks  map[string]geomodel.LandmarkPosition
	BaseMapWKT string
	Annotator  *annotate.Annotator
	Ledger     *ledger.Ledger
	Cache      *resultcache.Cache
	OutputDir  string
	Force      bool
	Counters   *statusserver.Counters
}

// Run dispatches tasks across workers workers, returning the first fatal
// error encountered (spec.md §7's IoError class); per-batch errors are
// logged and skipped rather than propagated.
func (rn *Runner) Run(ctx context.Context, tasks []Task, workers int) error {
	if workers < 1 {
		workers = 1
	}

	ch := make(chan Task)
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		defer close(ch)
		for _, t := range tasks {
			select {
			case ch <- t:
			case <-gctx.Done():
				return gctx.Err()
			}
		}
		return nil
	})

	for i := 0; i < workers; i++ {
		g.Go(func() error {
			wctx := region.NewContext()
			// FeasibleSubsetSolver's base_region is the plain map
			// rectangle, not BaseMap: the land clip happens afterward in
			// finishWithRegion so an all-ocean result can still surface
			// as an "at-sea" region rather than collapsing to
			// empty-intersection (spec.md §4.8, scenario 5; see
			// DESIGN.md's Open Question decision on this point).
			mapRect := wctx.MapRectangle()
			for {
				select {
				case t, ok := <-ch:
					if !ok {
						return nil
					}
					if err := rn.processOne(gctx, wctx, mapRect, t); err != nil {
						if ageoerr.IsFatal(kindOf(err)) {
							return err
						}
						logger.L().Error("batch_task_failed", "batch", t.BatchID, "variant", t.Variant, "err", err)
					}
				case <-gctx.Done():
					return gctx.Err()
				}
			}
		})
	}

	return g.Wait()
}

func kindOf(err error) ageoerr.Kind {
	var ae *ageoerr.Error
	if errors.As(err, &ae) {
		return ae.Kind
	}
	return ageoerr.KindDB
}

// asDBError reports whether err is a DbError, the only per-batch query
// failure spec.md §7 grants a single retry.
func asDBError(err error) (*ageoerr.Error, bool) {
	var ae *ageoerr.Error
	if errors.As(err, &ae) && ae.Kind == ageoerr.KindDB {
		return ae, true
	}
	return nil, false
}

// processOne runs the full pipeline for one (batch, variant) pair:
// preprocessing, constraint building, solving, land-clipping, output, and
// bookkeeping (ledger, cache, metrics, counters).
func (rn *Runner) processOne(ctx context.Context, wctx *region.Context, mapRect region.Region, t Task) (err error) {
	start := time.Now()
	defer func() { metrics.BatchDurationMs.Observe(float64(time.Since(start).Milliseconds())) }()

	if rn.Counters != nil {
		rn.Counters.StartTask()
		defer rn.Counters.FinishTask()
	}

	if !rn.Force && rn.Ledger != nil {
		done, lerr := rn.Ledger.Done(ctx, t.BatchID, t.Variant)
		if lerr == nil && done {
			metrics.LedgerSkippedTotal.Inc()
			return nil
		}
	}

	tracer := telemetry.Tracer()
	ctx, span := tracer.Start(ctx, "process_batch_variant")
	defer span.End()

	meta, lerr := rn.Store.LoadBatchMeta(ctx, t.BatchID)
	if lerr != nil {
		// spec.md §7: a per-batch DbError gets one retry before it is
		// surfaced as a skip rather than aborting the run.
		meta, lerr = rn.Store.LoadBatchMeta(ctx, t.BatchID)
		if lerr != nil {
			return lerr
		}
	}
	raw, warnings := rn.Store.LoadMeasurements(ctx, t.BatchID)
	if len(raw) == 0 && len(warnings) == 1 {
		if _, ok := asDBError(warnings[0]); ok {
			raw, warnings = rn.Store.LoadMeasurements(ctx, t.BatchID)
		}
	}
	for _, w := range warnings {
		logger.L().Warn("measurement_row_dropped", "batch", t.BatchID, "err", w)
	}

	_, preSpan := tracer.Start(ctx, "preprocess")
	pre := preprocess.Run(meta, raw, rn.Landmarks, rn.Annotator)
	preSpan.End()

	_, conSpan := tracer.Start(ctx, "build_constraints")
	cres, cerr := constraint.Build(wctx, t.Variant, rn.Calib, rn.Landmarks, pre.Series)
	conSpan.End()
	if cerr != nil {
		return ageoerr.Wrap(ageoerr.KindNumericDomain, "build constraint disks", cerr)
	}
	metrics.LandmarksSkippedTotal.Add(float64(cres.Skipped))

	if len(cres.Empirical) == 0 {
		return rn.finish(ctx, t, meta, TagNoObservations, mapRect)
	}

	cacheKey := resultcache.Key(t.BatchID, t.Variant, pre.Series)
	if wktStr, hit := rn.Cache.Get(ctx, cacheKey); hit {
		metrics.ResultCacheHitsTotal.Inc()
		cached, perr := wctx.ParseWKT(wktStr)
		if perr == nil {
			return rn.finishWithRegion(ctx, t, meta, cached, mapRect)
		}
	}
	metrics.ResultCacheMissesTotal.Inc()

	_, solveSpan := tracer.Start(ctx, "solve")
	sres, serr := solver.Solve(cres.Physical, cres.Empirical, mapRect)
	solveSpan.End()
	if serr != nil {
		return ageoerr.Wrap(ageoerr.KindNumericDomain, "solve feasible subset", serr)
	}

	if err := rn.finishWithRegion(ctx, t, meta, sres.Region, mapRect); err != nil {
		return err
	}
	rn.Cache.Set(ctx, cacheKey, sres.Region.ToWKT())
	return nil
}

// finish writes an error-tagged output (no region) for tag.
func (rn *Runner) finish(ctx context.Context, t Task, meta *geomodel.BatchMetadata, tag string, mapRect region.Region) error {
	return rn.writeAndMark(ctx, t, meta, tag, mapRect.Context().Empty())
}

// finishWithRegion decides on_land vs at-sea vs empty-intersection per
// spec.md §4.8, given the solver's raw (pre-land-clip) result region.
func (rn *Runner) finishWithRegion(ctx context.Context, t Task, meta *geomodel.BatchMetadata, raw region.Region, mapRect region.Region) error {
	if raw.IsEmpty() {
		return rn.writeAndMark(ctx, t, meta, TagEmptyIntersection, raw)
	}

	land, lerr := raw.Intersection(rn.baseMapIn(raw))
	if lerr != nil {
		return ageoerr.Wrap(ageoerr.KindNumericDomain, "clip region to basemap", lerr)
	}
	if land.IsEmpty() {
		meta.SetAnnotation("on_land", false)
		return rn.writeAndMark(ctx, t, meta, TagAtSea, raw)
	}
	meta.SetAnnotation("on_land", true)
	return rn.writeAndMark(ctx, t, meta, t.Variant, land)
}

// baseMapIn re-parses the shared BaseMap WKT into the same context as reg,
// so the two geometries can be intersected (go-geos requires operands
// drawn from the same context).
func (rn *Runner) baseMapIn(reg region.Region) region.Region {
	b, err := reg.Context().ParseWKT(rn.BaseMapWKT)
	if err != nil {
		return reg.Context().Empty()
	}
	return b
}

func (rn *Runner) writeAndMark(ctx context.Context, t Task, meta *geomodel.BatchMetadata, tag string, reg region.Region) error {
	if err := output.Write(rn.OutputDir, tag, meta, reg); err != nil {
		return ageoerr.Wrap(ageoerr.KindIO, fmt.Sprintf("write output for batch %d", t.BatchID), err)
	}
	metrics.BatchesTotal.WithLabelValues(tag).Inc()
	if rn.Ledger != nil {
		if err := rn.Ledger.MarkDone(ctx, t.BatchID, t.Variant, tag); err != nil {
			logger.L().Warn("ledger_mark_failed", "batch", t.BatchID, "variant", t.Variant, "err", err)
		}
	}
	return nil
}
