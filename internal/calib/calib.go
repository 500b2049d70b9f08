// Package calib implements CalibrationStore (spec.md §4.4): per-variant,
// per-landmark coefficients that convert a batch of RTT samples to a
// landmark's candidate radius range.
package calib

import (
	"compress/gzip"
	"encoding/gob"
	"io"
	"math"
	"sort"

	"github.com/ageo-project/locate-from-db/internal/ageoerr"
	"github.com/ageo-project/locate-from-db/internal/geomodel"
)

// Kind distinguishes the calibration model shapes from spec.md §4.4.
type Kind string

const (
	KindCBG             Kind = "cbg"
	KindOctant          Kind = "octant"
	KindSpotterUniform  Kind = "spotter_uniform"
	KindSpotterGaussian Kind = "spotter_gaussian"
)

// lightSpeedMPS is c, and physicalLimitFraction is the 2/3 fraction
// spec.md §4.4 applies to it for the fixed physical-limit calibration.
const (
	lightSpeedMPS         = 299_792_458.0
	physicalLimitFraction = 2.0 / 3.0
	gaussianZ05           = -1.6448536269514722 // 5th percentile, standard normal
	gaussianZ95           = 1.6448536269514722  // 95th percentile, standard normal
)

// Calibration is one fitted model: a MinMax linear mapping (CBG, Octant,
// Spotter-Uniform) or a Gaussian mapping (Spotter-Gaussian).
type Calibration struct {
	Kind Kind
	M, B float64 // linear coefficients: distance = M*rtt + B
}

// Range implements spec.md §4.4's per-variant range() contract. rtts must
// be sorted ascending; callers (BatchPreprocessor) already sort as part of
// floor-and-sort.
func (c Calibration) Range(rtts []float64) (rMin, rMax float64) {
	if len(rtts) == 0 {
		return 0, 0
	}
	switch c.Kind {
	case KindCBG, KindOctant, KindSpotterUniform:
		return 0, c.M*rtts[0] + c.B
	case KindSpotterGaussian:
		mean, std := meanStd(rtts)
		rMin = c.M*(mean+gaussianZ05*std) + c.B
		rMax = c.M*(mean+gaussianZ95*std) + c.B
		if rMin < 0 {
			rMin = 0
		}
		return rMin, rMax
	default:
		return 0, c.M*rtts[0] + c.B
	}
}

func meanStd(rtts []float64) (mean, std float64) {
	sum := 0.0
	for _, v := range rtts {
		sum += v
	}
	mean = sum / float64(len(rtts))
	if len(rtts) < 2 {
		return mean, 0
	}
	var variance float64
	for _, v := range rtts {
		d := v - mean
		variance += d * d
	}
	variance /= float64(len(rtts) - 1)
	return mean, math.Sqrt(variance)
}

// PhysicalLimit returns the fixed two-thirds-light-speed calibration from
// spec.md §4.4, used by ConstraintEngine independently of the variant
// lookup below.
func PhysicalLimit(rtts []float64) (rMin, rMax float64) {
	if len(rtts) == 0 {
		return 0, 0
	}
	sorted := append([]float64{}, rtts...)
	sort.Float64s(sorted)
	c := lightSpeedMPS * physicalLimitFraction
	// r_max = c * minrtt_seconds / 2; rtts are in milliseconds.
	return 0, c * (sorted[0] / 1000) / 2
}

// variantBlob is the gob-serializable per-variant table: a pooled global
// calibration plus per-landmark overrides keyed by ipv4/label/ilabel,
// matching the lookup priority in spec.md §4.4.
type variantBlob struct {
	Kind   Kind
	Global *Calibration // nil if this variant has no pooled fallback
	ByKey  map[string]Calibration
}

// Store is the loaded set of variant tables, keyed by variant name
// (spec.md calls them "v", e.g. "cbg-m-1", "oct-m-1", "spo-m-a",
// "spo-g-a").
type Store struct {
	variants map[string]variantBlob
}

// Load reads a gzip+gob calibration artifact, the private serialization
// format spec.md §6 leaves unspecified beyond "produced by an external
// calibration-fitting tool".
func Load(r io.Reader) (*Store, error) {
	gz, err := gzip.NewReader(r)
	if err != nil {
		return nil, ageoerr.Wrap(ageoerr.KindIO, "open calibration gzip stream", err)
	}
	defer gz.Close()

	var variants map[string]variantBlob
	if err := gob.NewDecoder(gz).Decode(&variants); err != nil {
		return nil, ageoerr.Wrap(ageoerr.KindIO, "decode calibration gob stream", err)
	}
	return &Store{variants: variants}, nil
}

// Lookup implements spec.md §4.4's lookup contract for variant v and
// landmark l: ipv4, then label, then ilabel, then the variant's pooled
// global calibration. ok is false when none match, meaning the landmark
// should be skipped for this variant.
func (s *Store) Lookup(variant string, l geomodel.LandmarkPosition) (Calibration, bool) {
	blob, found := s.variants[variant]
	if !found {
		return Calibration{}, false
	}
	for _, key := range l.Keys() {
		if c, ok := blob.ByKey[key]; ok {
			return c, true
		}
	}
	if blob.Global != nil {
		return *blob.Global, true
	}
	return Calibration{}, false
}

// Variants reports the set of variant names loaded, for CLI selector
// validation and logging.
func (s *Store) Variants() []string {
	out := make([]string, 0, len(s.variants))
	for v := range s.variants {
		out = append(out, v)
	}
	sort.Strings(out)
	return out
}

func init() {
	gob.Register(Calibration{})
}
