// Package geomodel holds the plain data types shared by every stage of the
// pipeline: landmark positions, RTT samples, and batch metadata. None of
// these types carry behavior beyond simple accessors — the operations that
// act on them live in the packages that own each pipeline stage.
package geomodel

import (
	"net"
	"strconv"
)

// LandmarkPosition is a network host at a known location with known
// identity. Loaded once and shared read-only across workers (spec.md §3).
type LandmarkPosition struct {
	Addr   net.IP
	Label  string
	ILabel int // numeric sub-label derived from the label suffix, or -1
	Lon    float64
	Lat    float64
}

// Key priority used by CalibrationStore lookups: ipv4, then label, then
// ilabel. Returned as three candidate keys in that order.
func (l LandmarkPosition) Keys() []string {
	keys := make([]string, 0, 3)
	if l.Addr != nil {
		keys = append(keys, l.Addr.String())
	}
	if l.Label != "" {
		keys = append(keys, l.Label)
	}
	if l.ILabel >= 0 {
		keys = append(keys, strconv.Itoa(l.ILabel))
	}
	return keys
}

// RttSample is a single round-trip-time measurement to a destination, in
// milliseconds. Values are validated by the caller (spec.md §3: finite and
// in (0, 5000)).
type RttSample struct {
	Dst net.IP
	Ms  float64
}

// AnchorAnnotation is the free-form {label, country, ASN} annotation
// attached to the client or proxy in a batch.
type AnchorAnnotation struct {
	Label   string
	Country string
	ASN     int
}

// BatchMetadata is the immutable per-batch input, augmented in place by
// BatchPreprocessor with proxy-RTT diagnostics and later by BatchRunner
// with the on-land flag (spec.md §3).
type BatchMetadata struct {
	BatchID int64

	ClientLat  float64
	ClientLon  float64
	ClientAddr net.IP
	ClientAnn  AnchorAnnotation

	Proxied    bool
	ProxyLat   float64
	ProxyLon   float64
	ProxyAddr  net.IP
	ProxyAnn   AnchorAnnotation

	// Annotation is the free-form string -> JSON-value map from spec.md §3,
	// augmented by BatchPreprocessor (proxy RTT estimation diagnostics) and
	// BatchRunner (on_land).
	Annotation map[string]any
}

// SetAnnotation sets a key in the (lazily allocated) Annotation map.
func (m *BatchMetadata) SetAnnotation(key string, value any) {
	if m.Annotation == nil {
		m.Annotation = make(map[string]any)
	}
	m.Annotation[key] = value
}
