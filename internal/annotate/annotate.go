// Package annotate implements the Annotator (SPEC_FULL.md §2/§4): it
// enriches a batch's client/proxy IP addresses with country and ASN,
// attached to BatchMetadata's free-form annotation map.
//
// Grounded on WavesMan-ip-api's go.mod, which declares geoip2-golang,
// maxminddb-golang, and ip2region/binding/golang as its IP-geolocation
// backends (internal/localdb/ip2region/ip2region.go shows the ip2region
// XDB usage pattern this package's fallback follows); MaxMind is tried
// first since it is the sharper of the two on ASN, with ip2region as the
// offline fallback when no MaxMind database path is configured.
package annotate

import (
	"net"
	"strings"

	"github.com/lionsoul2014/ip2region/binding/golang/xdb"
	"github.com/oschwald/geoip2-golang"

	"github.com/ageo-project/locate-from-db/internal/geomodel"
)

// Annotator enriches an IP address with a country/ASN AnchorAnnotation.
// A nil *Annotator (or one built from empty paths) is valid and annotates
// nothing, so BatchPreprocessor can run with annotation entirely disabled.
type Annotator struct {
	countryDB *geoip2.Reader
	asnDB     *geoip2.Reader
	ip2region *xdb.Searcher
}

// Config is the set of database paths an Annotator can be built from; any
// subset may be empty.
type Config struct {
	GeoIPCountryPath string
	GeoIPASNPath     string
	IP2RegionPath    string
}

// New opens whichever databases cfg names. Missing files are an error; an
// entirely empty Config is not (it yields a no-op Annotator).
func New(cfg Config) (*Annotator, error) {
	a := &Annotator{}
	var err error
	if cfg.GeoIPCountryPath != "" {
		a.countryDB, err = geoip2.Open(cfg.GeoIPCountryPath)
		if err != nil {
			return nil, err
		}
	}
	if cfg.GeoIPASNPath != "" {
		a.asnDB, err = geoip2.Open(cfg.GeoIPASNPath)
		if err != nil {
			return nil, err
		}
	}
	if cfg.IP2RegionPath != "" {
		a.ip2region, err = xdb.NewWithFileOnly(xdb.IPv4, cfg.IP2RegionPath)
		if err != nil {
			return nil, err
		}
	}
	return a, nil
}

// Close releases the underlying database handles.
func (a *Annotator) Close() error {
	if a == nil {
		return nil
	}
	if a.countryDB != nil {
		if err := a.countryDB.Close(); err != nil {
			return err
		}
	}
	if a.asnDB != nil {
		return a.asnDB.Close()
	}
	return nil
}

// Annotate resolves country and ASN for ip, preferring MaxMind and falling
// back to ip2region (country only — ip2region's XDB format carries no ASN
// field, per internal/localdb/ip2region/ip2region.go's |-delimited schema).
func (a *Annotator) Annotate(ip net.IP) geomodel.AnchorAnnotation {
	var out geomodel.AnchorAnnotation
	if a == nil || ip == nil {
		return out
	}

	if a.countryDB != nil {
		if rec, err := a.countryDB.Country(ip); err == nil {
			out.Country = rec.Country.IsoCode
		}
	}
	if a.asnDB != nil {
		if rec, err := a.asnDB.ASN(ip); err == nil {
			out.ASN = int(rec.AutonomousSystemNumber)
		}
	}
	if out.Country == "" && a.ip2region != nil {
		if region, err := a.ip2region.SearchByStr(ip.String()); err == nil && region != "" {
			out.Country = firstRegionField(region)
		}
	}
	return out
}

// firstRegionField extracts the country field from ip2region's
// "country|region|province|city|isp" response, matching
// internal/localdb/ip2region/ip2region.go:parseRegion's field order.
func firstRegionField(region string) string {
	parts := strings.SplitN(region, "|", 2)
	if len(parts) == 0 {
		return ""
	}
	c := parts[0]
	if c == "0" || strings.EqualFold(c, "unknown") {
		return ""
	}
	return c
}
