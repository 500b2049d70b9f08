// Package constraint implements ConstraintEngine (spec.md §4.6): turns a
// batch's cleaned RTT series into parallel lists of empirical and
// physical-limit constraint disks, one pair per landmark with a matching
// calibration.
package constraint

import (
	"github.com/golang/geo/s1"
	"github.com/golang/geo/s2"

	"github.com/ageo-project/locate-from-db/internal/calib"
	"github.com/ageo-project/locate-from-db/internal/diskbuilder"
	"github.com/ageo-project/locate-from-db/internal/geomodel"
	"github.com/ageo-project/locate-from-db/internal/region"
)

// earthRadiusM is used only to size the s2.Cap fast-reject bound, never for
// the exact disk geometry (that is GeodesicKit's job on the WGS-84
// ellipsoid). It is the ellipsoid's smallest radius of curvature, a(1-e^2),
// so dividing a geodesic distance by it never underestimates the angle the
// distance spans.
const earthRadiusM = 6335439.3

// capSlackM is added to a disk's true radius before building its s2.Cap,
// so the cap can only over-approximate the disk (SPEC_FULL.md §4.6): a
// candidate the cap rejects is guaranteed to be rejected by the exact
// intersection too, but the converse does not hold.
const capSlackM = 500.0

// Disk is one constraint disk: its materialized polygon Region plus an
// s2.Cap sized to over-approximate it, for FeasibleSubsetSolver's fast
// -reject search.
type Disk struct {
	LandmarkKey string
	CenterLon   float64
	CenterLat   float64
	RadiusM     float64
	Region      region.Region
	Cap         s2.Cap
}

// Result is ConstraintEngine's output: index-aligned empirical and
// physical-limit disk lists, plus a count of landmarks skipped for lacking
// a known position or a matching calibration.
type Result struct {
	Empirical []Disk
	Physical  []Disk
	Skipped   int
}

// Build implements spec.md §4.6 for one (batch, variant) pair. series is
// keyed the same way as preprocess.Result.Series (landmark IPv4 string).
func Build(ctx *region.Context, variant string, store *calib.Store, landmarks map[string]geomodel.LandmarkPosition, series map[string][]float64) (Result, error) {
	var res Result

	for key, rtts := range series {
		if len(rtts) == 0 {
			continue
		}
		lm, ok := landmarks[key]
		if !ok {
			res.Skipped++
			continue
		}
		cal, ok := store.Lookup(variant, lm)
		if !ok {
			res.Skipped++
			continue
		}

		_, empRMax := cal.Range(rtts)
		empDisk, err := buildDisk(ctx, key, lm, empRMax)
		if err != nil {
			return Result{}, err
		}

		_, physRMax := calib.PhysicalLimit(rtts)
		physDisk, err := buildDisk(ctx, key, lm, physRMax)
		if err != nil {
			return Result{}, err
		}

		res.Empirical = append(res.Empirical, empDisk)
		res.Physical = append(res.Physical, physDisk)
	}

	return res, nil
}

func buildDisk(ctx *region.Context, key string, lm geomodel.LandmarkPosition, radiusM float64) (Disk, error) {
	reg, err := diskbuilder.Build(ctx, lm.Lon, lm.Lat, radiusM)
	if err != nil {
		return Disk{}, err
	}
	center := s2.PointFromLatLng(s2.LatLngFromDegrees(lm.Lat, lm.Lon))
	// Size the cap to the disk diskbuilder actually built: radii below its
	// floor are clamped up, and radii above its threshold cover everything.
	capRadiusM := radiusM
	if capRadiusM < diskbuilder.MinRadiusM {
		capRadiusM = diskbuilder.MinRadiusM
	}
	diskCap := s2.FullCap()
	if radiusM <= diskbuilder.FullRectangleThresholdM {
		diskCap = s2.CapFromCenterAngle(center, s1.Angle((capRadiusM+capSlackM)/earthRadiusM))
	}
	return Disk{
		LandmarkKey: key,
		CenterLon:   lm.Lon,
		CenterLat:   lm.Lat,
		RadiusM:     radiusM,
		Region:      reg,
		Cap:         diskCap,
	}, nil
}
