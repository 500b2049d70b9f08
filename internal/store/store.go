// Package store is the data access layer over spec.md §6's three logical
// tables (batches, hosts, measurements). Grounded on
// WavesMan-ip-api/internal/store/store.go's Open/pool-sizing pattern and
// plain-SQL query style (no ORM); the queries themselves are new, since
// the teacher's schema (IP-range dictionaries) has no batch/measurement
// analogue.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"net"

	_ "github.com/lib/pq"

	"github.com/ageo-project/locate-from-db/internal/ageoerr"
	"github.com/ageo-project/locate-from-db/internal/geomodel"
	"github.com/ageo-project/locate-from-db/internal/preprocess"
	"github.com/ageo-project/locate-from-db/internal/utils"
)

// Store is the batch/host/measurement read layer, one per process,
// shared read-only across workers except for the *sql.DB connection pool
// itself (spec.md §5: "one connection per worker", expressed as pool
// sizing on a shared *sql.DB).
type Store struct {
	db *sql.DB
}

// Open opens a connection pool against dsn, sized per spec.md §5 / the
// teacher's SetMaxOpenConns/SetMaxIdleConns pattern.
func Open(dsn string) (*Store, error) {
	db, err := utils.OpenPostgres(dsn)
	if err != nil {
		return nil, ageoerr.Wrap(ageoerr.KindDB, "open database", err)
	}
	return &Store{db: db}, nil
}

// AttachDB wraps an already-open *sql.DB instead of opening a new pool.
func AttachDB(db *sql.DB) *Store { return &Store{db: db} }

func (s *Store) Close() error { return s.db.Close() }

func (s *Store) DB() *sql.DB { return s.db }

// SelectBatchIDs lists batch ids to process, with selector (spec.md §6's
// "selector predicate") appended verbatim as a SQL WHERE fragment. The
// selector is an operator-provided CLI argument, not untrusted end-user
// input, matching spec.md §6's "string appended to a batch-selection
// query" contract.
func (s *Store) SelectBatchIDs(ctx context.Context, selector string) ([]int64, error) {
	q := "SELECT id FROM batches"
	if selector != "" {
		q += " WHERE " + selector
	}
	q += " ORDER BY id"
	rows, err := s.db.QueryContext(ctx, q)
	if err != nil {
		return nil, ageoerr.Wrap(ageoerr.KindDB, "select batch ids", err)
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, ageoerr.Wrap(ageoerr.KindDB, "scan batch id", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// LoadBatchMeta reads one row from batches into a BatchMetadata, per
// spec.md §3's BatchMetadata shape.
func (s *Store) LoadBatchMeta(ctx context.Context, batchID int64) (*geomodel.BatchMetadata, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT client_lat, client_lon, client_addr, proxied,
		       proxy_lat, proxy_lon, proxy_addr, annot
		FROM batches WHERE id = $1`, batchID)

	var (
		clientLat, clientLon float64
		clientAddr           string
		proxied              bool
		proxyLat, proxyLon   sql.NullFloat64
		proxyAddr            sql.NullString
		annotRaw             []byte
	)
	if err := row.Scan(&clientLat, &clientLon, &clientAddr, &proxied,
		&proxyLat, &proxyLon, &proxyAddr, &annotRaw); err != nil {
		return nil, ageoerr.Wrap(ageoerr.KindDB, fmt.Sprintf("load batch %d", batchID), err)
	}

	meta := &geomodel.BatchMetadata{
		BatchID:    batchID,
		ClientLat:  clientLat,
		ClientLon:  clientLon,
		ClientAddr: net.ParseIP(clientAddr),
		Proxied:    proxied,
	}
	if proxied {
		meta.ProxyLat = proxyLat.Float64
		meta.ProxyLon = proxyLon.Float64
		meta.ProxyAddr = net.ParseIP(proxyAddr.String)
	}
	if len(annotRaw) > 0 {
		var m map[string]any
		if err := json.Unmarshal(annotRaw, &m); err == nil {
			meta.Annotation = m
		}
	}
	return meta, nil
}

// LoadMeasurements reads every measurement row for a batch, in the
// dst/rtt_ms/status shape preprocess.Run expects as its RawMeasurement
// input. Rows with a null or malformed dst are dropped with a DataError
// warning (spec.md §7), not surfaced as a fatal error.
func (s *Store) LoadMeasurements(ctx context.Context, batchID int64) ([]preprocess.RawMeasurement, []error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT dst, rtt_ms, status FROM measurements WHERE batch = $1`, batchID)
	if err != nil {
		return nil, []error{ageoerr.Wrap(ageoerr.KindDB, fmt.Sprintf("load measurements for batch %d", batchID), err)}
	}
	defer rows.Close()

	var out []preprocess.RawMeasurement
	var warnings []error
	for rows.Next() {
		var dst string
		var rttMs float64
		var status int
		if err := rows.Scan(&dst, &rttMs, &status); err != nil {
			warnings = append(warnings, ageoerr.Wrap(ageoerr.KindData, "scan measurement row", err))
			continue
		}
		ip := net.ParseIP(dst)
		if ip == nil {
			warnings = append(warnings, ageoerr.New(ageoerr.KindData, "malformed dst ipv4: "+dst))
			continue
		}
		out = append(out, preprocess.RawMeasurement{Dst: ip, RTTMs: rttMs, Status: status})
	}
	return out, warnings
}

// LoadLandmarks reads the full hosts table once, keyed by IPv4 string to
// match preprocess.Result.Series's keying (spec.md §3/§4.4's "landmark
// key" priority: ipv4, label, ilabel).
func (s *Store) LoadLandmarks(ctx context.Context) (map[string]geomodel.LandmarkPosition, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT ipv4, label, longitude, latitude FROM hosts`)
	if err != nil {
		return nil, ageoerr.Wrap(ageoerr.KindDB, "load hosts", err)
	}
	defer rows.Close()

	out := make(map[string]geomodel.LandmarkPosition)
	for rows.Next() {
		var ipv4, label string
		var lon, lat float64
		if err := rows.Scan(&ipv4, &label, &lon, &lat); err != nil {
			return nil, ageoerr.Wrap(ageoerr.KindData, "scan host row", err)
		}
		ip := net.ParseIP(ipv4)
		if ip == nil {
			continue
		}
		out[ip.String()] = geomodel.LandmarkPosition{
			Addr:   ip,
			Label:  label,
			ILabel: deriveILabel(label),
			Lon:    lon,
			Lat:    lat,
		}
	}
	return out, rows.Err()
}

// deriveILabel extracts the trailing run of digits from a landmark label
// as its numeric sub-label, or -1 if the label has none (spec.md §3).
func deriveILabel(label string) int {
	end := len(label)
	start := end
	for start > 0 && label[start-1] >= '0' && label[start-1] <= '9' {
		start--
	}
	if start == end {
		return -1
	}
	n := 0
	for _, c := range label[start:end] {
		n = n*10 + int(c-'0')
	}
	return n
}
