// Package preprocess implements BatchPreprocessor (spec.md §4.5): turns
// raw measurement rows for one batch into a clean {landmark -> sorted
// RTTs} map and augments BatchMetadata with proxy-overhead diagnostics.
package preprocess

import (
	"net"
	"sort"

	"github.com/ageo-project/locate-from-db/internal/annotate"
	"github.com/ageo-project/locate-from-db/internal/geomodel"
)

// Raw statuses that survive filtering (spec.md §4.5).
const (
	statusSuccess          = 0
	statusConnRefused      = 111
	minValidRTT            = 0.0
	maxValidRTT            = 5000.0
	proxyOverheadMargin    = 5.0
	floorRTT               = 0.1
	colocationToleranceDeg = 0.01
)

// RawMeasurement is one measurement row as read from the store, before
// filtering.
type RawMeasurement struct {
	Dst    net.IP
	RTTMs  float64
	Status int
}

// Warning is a dropped-measurement diagnostic (spec.md §4.5: "dropped...
// with a warning").
type Warning struct {
	Dst    net.IP
	RTTMs  float64
	Reason string
}

// Result is BatchPreprocessor's output: the cleaned series map plus any
// warnings raised while filtering.
type Result struct {
	Series   map[string][]float64 // keyed by landmark IPv4 string
	Warnings []Warning
}

// Run filters raw measurements and estimates/subtracts proxy overhead,
// mutating meta in place with the diagnostics spec.md §4.5 requires. The
// there-and-back tier needs landmark coordinates to find hosts colocated
// with the client, so landmarks (keyed the same way as Series, by IPv4
// string) is required whenever meta.Proxied; ann is the optional country/
// ASN annotator and may be nil to skip annotation entirely.
func Run(meta *geomodel.BatchMetadata, raw []RawMeasurement, landmarks map[string]geomodel.LandmarkPosition, ann *annotate.Annotator) Result {
	res := Result{Series: make(map[string][]float64)}

	for _, m := range raw {
		if m.Status != statusSuccess && m.Status != statusConnRefused {
			continue
		}
		if m.RTTMs == 0 {
			continue
		}
		if isExcludedDestination(m.Dst, meta) {
			continue
		}
		if m.RTTMs < minValidRTT || m.RTTMs >= maxValidRTT {
			res.Warnings = append(res.Warnings, Warning{Dst: m.Dst, RTTMs: m.RTTMs, Reason: "rtt_out_of_range"})
			continue
		}
		key := m.Dst.String()
		res.Series[key] = append(res.Series[key], m.RTTMs)
	}

	if meta.Proxied {
		adjustment, method, identifier := estimateProxyOverhead(meta, res.Series, landmarks)
		applyAdjustment(res.Series, adjustment)
		meta.SetAnnotation("estimated_proxy_rtt", adjustment)
		meta.SetAnnotation("proxy_overhead_method", method)
		if identifier != "" {
			meta.SetAnnotation("proxy_overhead_identifier", identifier)
		}
	}

	for _, series := range res.Series {
		sort.Float64s(series)
	}

	if ann != nil {
		meta.ClientAnn = ann.Annotate(meta.ClientAddr)
		meta.SetAnnotation("client_country", meta.ClientAnn.Country)
		meta.SetAnnotation("client_asn", meta.ClientAnn.ASN)
		if meta.Proxied {
			meta.ProxyAnn = ann.Annotate(meta.ProxyAddr)
			meta.SetAnnotation("proxy_country", meta.ProxyAnn.Country)
			meta.SetAnnotation("proxy_asn", meta.ProxyAnn.ASN)
		}
	}

	return res
}

func isExcludedDestination(dst net.IP, meta *geomodel.BatchMetadata) bool {
	if dst == nil {
		return true
	}
	if dst.Equal(net.IPv4(127, 0, 0, 1)) {
		return true
	}
	if meta.ClientAddr != nil && dst.Equal(meta.ClientAddr) {
		return true
	}
	if meta.Proxied && meta.ProxyAddr != nil && dst.Equal(meta.ProxyAddr) {
		return true
	}
	return false
}

// estimateProxyOverhead implements spec.md §4.5's three-tier estimator,
// returning the adjustment in ms, the method name recorded in
// BatchMetadata, and an optional identifying destination/landmark string.
func estimateProxyOverhead(meta *geomodel.BatchMetadata, series map[string][]float64, landmarks map[string]geomodel.LandmarkPosition) (adjustment float64, method, identifier string) {
	routerIP := routerAddress(meta.ProxyAddr)
	clampVal, clampApplies := clampValue(series)

	if routerIP != "" {
		if rtts, ok := series[routerIP]; ok && len(rtts) > 0 {
			adjustment = minOf(rtts) - proxyOverheadMargin
			method = "router"
			identifier = routerIP
		}
	}

	if method == "" {
		if key, rtt, ok := smallestColocatedMinRTT(meta, series, landmarks); ok {
			adjustment = rtt/2 - proxyOverheadMargin
			method = "there_and_back"
			identifier = key
		}
	}

	if clampApplies && adjustment > clampVal {
		unclamped := adjustment
		adjustment = clampVal
		if method == "" {
			method = "clamp"
		} else {
			method = method + "_clamped"
			meta.SetAnnotation("proxy_rtt_estimation_unclamped", unclamped)
		}
	}

	if adjustment < 0 {
		adjustment = 0
	}
	return adjustment, method, identifier
}

// routerAddress returns the proxy's /24 network's .1 address, or "" if
// proxyAddr is not an IPv4 address.
func routerAddress(proxyAddr net.IP) string {
	v4 := proxyAddr.To4()
	if v4 == nil {
		return ""
	}
	return net.IPv4(v4[0], v4[1], v4[2], 1).String()
}

// clampValue computes spec.md §4.5 tier 3's clamp: the smallest
// (min-RTT - margin) over every destination in the batch.
func clampValue(series map[string][]float64) (float64, bool) {
	best := 0.0
	found := false
	for _, rtts := range series {
		if len(rtts) == 0 {
			continue
		}
		v := minOf(rtts) - proxyOverheadMargin
		if !found || v < best {
			best = v
			found = true
		}
	}
	return best, found
}

// smallestColocatedMinRTT picks, among destinations colocated with the
// client (spec.md §4.5 tier 2: |lat-client_lat| and |lon-client_lon| both
// under the tolerance), the one with the smallest min-RTT.
func smallestColocatedMinRTT(meta *geomodel.BatchMetadata, series map[string][]float64, landmarks map[string]geomodel.LandmarkPosition) (key string, rtt float64, ok bool) {
	for k, rtts := range series {
		lm, found := landmarks[k]
		if !found || len(rtts) == 0 {
			continue
		}
		if absFloat(lm.Lat-meta.ClientLat) >= colocationToleranceDeg ||
			absFloat(lm.Lon-meta.ClientLon) >= colocationToleranceDeg {
			continue
		}
		v := minOf(rtts)
		if !ok || v < rtt {
			rtt = v
			key = k
			ok = true
		}
	}
	return key, rtt, ok
}

func minOf(vs []float64) float64 {
	m := vs[0]
	for _, v := range vs[1:] {
		if v < m {
			m = v
		}
	}
	return m
}

func applyAdjustment(series map[string][]float64, adjustment float64) {
	for key, rtts := range series {
		adjusted := make([]float64, len(rtts))
		for i, v := range rtts {
			v -= adjustment
			if v < floorRTT {
				v = floorRTT
			}
			adjusted[i] = v
		}
		series[key] = adjusted
	}
}

func absFloat(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
