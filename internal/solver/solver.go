// Package solver implements FeasibleSubsetSolver (spec.md §4.7): the
// maximum-feasible-subset search that tolerates a few outlier landmarks by
// discarding the fewest possible constraint disks.
package solver

import (
	"sort"

	"github.com/golang/geo/s2"

	"github.com/ageo-project/locate-from-db/internal/constraint"
	"github.com/ageo-project/locate-from-db/internal/metrics"
	"github.com/ageo-project/locate-from-db/internal/region"
)

// Result is FeasibleSubsetSolver's final output: the refined region and
// the original-order indices of the empirical disks that made the cut.
type Result struct {
	Region           region.Region
	IncludedIndices  []int
	PhysicalIncluded []int
}

// Solve runs spec.md §4.7's three-step algorithm: intersect physical-limit
// disks against baseRegion as far as possible, filter empirical disks
// against the resulting region, then intersect the survivors.
func Solve(physical, empirical []constraint.Disk, baseRegion region.Region) (Result, error) {
	phyRegion, phyIncluded, err := MaxSubsetIntersection(physical, baseRegion)
	if err != nil {
		return Result{}, err
	}

	filtered := make([]constraint.Disk, 0, len(empirical))
	filteredOrig := make([]int, 0, len(empirical))
	for i, d := range empirical {
		inter, err := phyRegion.Intersection(d.Region)
		if err != nil {
			return Result{}, err
		}
		if inter.IsEmpty() {
			continue
		}
		if i < len(physical) && d.Region.AlmostEqual(physical[i].Region) {
			// An empirical disk that matches its own physical-limit disk
			// contributes no additional constraint (spec.md §4.7 step 2b).
			continue
		}
		filtered = append(filtered, d)
		filteredOrig = append(filteredOrig, i)
	}

	finalRegion, includedInFiltered, err := MaxSubsetIntersection(filtered, phyRegion)
	if err != nil {
		return Result{}, err
	}

	// max_subset_intersection's own fallback ("return base_region if no
	// non-empty extension exists") guarantees a single disk is always
	// individually "feasible" against phyRegion, so two candidates that
	// flatly disagree with each other would otherwise always be resolved
	// by arbitrarily keeping whichever one has the smaller area (spec.md
	// §8 scenario 4 needs the opposite: two landmarks with no mutual
	// agreement at all must report no feasible subset). Require at least
	// two independent empirical disks to corroborate each other whenever
	// two or more survived filtering; a lone survivor is only accepted
	// outright when filtering itself already reduced the candidates to
	// just that one.
	required := 2
	if len(filtered) < required {
		required = len(filtered)
	}
	if len(includedInFiltered) < required {
		finalRegion = phyRegion.Context().Empty()
		includedInFiltered = nil
	}

	included := make([]int, len(includedInFiltered))
	for k, fi := range includedInFiltered {
		included[k] = filteredOrig[fi]
	}

	return Result{Region: finalRegion, IncludedIndices: included, PhysicalIncluded: phyIncluded}, nil
}

// MaxSubsetIntersection implements spec.md §4.7's max_subset_intersection:
// the largest subset of disks whose intersection with base is non-empty,
// ties broken by smaller area. Returns the winning region and the
// original-order indices (into disks) of the winning subset.
func MaxSubsetIntersection(disks []constraint.Disk, base region.Region) (region.Region, []int, error) {
	n := len(disks)
	order := make([]int, n)
	for i := range order {
		order[i] = i
	}
	sort.Slice(order, func(a, b int) bool {
		return disks[order[a]].Region.Area() < disks[order[b]].Region.Area()
	})

	best := struct {
		card    int
		area    float64
		indices []int // order-space positions
		region  region.Region
	}{card: 0, area: base.Area(), region: base}

	var cand []int
	var caps []s2.Cap

	var recurse func(parentRegion region.Region, lastOrderIdx int) error
	recurse = func(parentRegion region.Region, lastOrderIdx int) error {
		bound := len(cand) + (n - 1 - lastOrderIdx)
		if bound < best.card {
			return nil
		}

		area := parentRegion.Area()
		if len(cand) > best.card || (len(cand) == best.card && area < best.area) {
			best.card = len(cand)
			best.area = area
			best.indices = append([]int(nil), cand...)
			best.region = parentRegion
		}

		for i := lastOrderIdx + 1; i < n; i++ {
			d := disks[order[i]]
			if !capsCompatible(d.Cap, caps) {
				metrics.SolverCapRejectsTotal.Inc()
				continue
			}
			metrics.SolverGeosCallsTotal.Inc()
			next, err := parentRegion.Intersection(d.Region)
			if err != nil {
				return err
			}
			if next.IsEmpty() {
				continue
			}
			cand = append(cand, i)
			caps = append(caps, d.Cap)
			if err := recurse(next, i); err != nil {
				return err
			}
			cand = cand[:len(cand)-1]
			caps = caps[:len(caps)-1]
		}
		return nil
	}

	if err := recurse(base, -1); err != nil {
		return region.Region{}, nil, err
	}

	orig := make([]int, len(best.indices))
	for k, oi := range best.indices {
		orig[k] = order[oi]
	}
	sort.Ints(orig)
	return best.region, orig, nil
}

// capsCompatible reports whether candidate could possibly overlap every
// disk already in the running subset, using each disk's s2.Cap as a cheap
// over-approximation (SPEC_FULL.md §4.7): a miss here guarantees the exact
// GEOS intersection would also be empty, so the caller can skip it.
func capsCompatible(candidate s2.Cap, existing []s2.Cap) bool {
	for _, c := range existing {
		if !candidate.Intersects(c) {
			return false
		}
	}
	return true
}
