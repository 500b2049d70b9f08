// Package config resolves locate-from-db's CLI flags and environment
// variables (spec.md §6) into a single Config, in the teacher's plain
// os.Getenv-with-default style (WavesMan-ip-api/cmd/main.go and
// cmd/cidr-build/main.go both read config this way rather than through a
// struct-tag binding library).
package config

import (
	"flag"
	"fmt"
	"os"
	"runtime"
	"strconv"
	"strings"
	"time"
)

// Config is the fully-resolved set of inputs to one locate-from-db run.
type Config struct {
	OutputDir       string
	CalibrationFile string
	BasemapFile     string
	DatabaseDSN     string
	Selector        string

	Force   bool
	Workers int

	RedisAddr        string
	RedisPass        string
	RedisTTL         time.Duration
	GeoIPCountryPath string
	GeoIPASNPath     string
	IP2RegionPath    string
	StatusAddr       string
	OtelExporter     string

	LogLevel  string
	LogFormat string
}

// Parse parses CLI args (spec.md §6's
// "locate-from-db [-force] [-workers N] <output_dir> <calibration_file>
// <basemap_file> <database_dsn> [selector...]") and layers environment
// variables on top per SPEC_FULL.md §6.
func Parse(args []string) (*Config, error) {
	fs := flag.NewFlagSet("locate-from-db", flag.ContinueOnError)
	force := fs.Bool("force", false, "disable RunLedger skip-on-resume")
	workers := fs.Int("workers", 0, "override NUM_WORKERS (0 = use env or NumCPU)")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	rest := fs.Args()
	if len(rest) < 3 {
		return nil, fmt.Errorf("usage: locate-from-db [-force] [-workers N] <output_dir> <calibration_file> <basemap_file> [database_dsn] [selector...]")
	}

	cfg := &Config{
		OutputDir:       rest[0],
		CalibrationFile: rest[1],
		BasemapFile:     rest[2],
		Force:           *force,
	}
	if len(rest) > 3 {
		cfg.DatabaseDSN = rest[3]
	}
	if len(rest) > 4 {
		cfg.Selector = strings.Join(rest[4:], " ")
	}
	if cfg.DatabaseDSN == "" {
		cfg.DatabaseDSN = os.Getenv("DATABASE_URL")
	}

	cfg.Workers = *workers
	if cfg.Workers <= 0 {
		if v := os.Getenv("NUM_WORKERS"); v != "" {
			if n, err := strconv.Atoi(v); err == nil && n > 0 {
				cfg.Workers = n
			}
		}
	}
	if cfg.Workers <= 0 {
		cfg.Workers = runtime.NumCPU()
	}

	cfg.RedisAddr = os.Getenv("REDIS_ADDR")
	cfg.RedisPass = os.Getenv("REDIS_PASS")
	cfg.RedisTTL = 24 * time.Hour
	if v := os.Getenv("REDIS_TTL_SECONDS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.RedisTTL = time.Duration(n) * time.Second
		}
	}
	cfg.GeoIPCountryPath = os.Getenv("GEOIP_COUNTRY_DB")
	cfg.GeoIPASNPath = os.Getenv("GEOIP_ASN_DB")
	cfg.IP2RegionPath = os.Getenv("IP2REGION_DB")
	cfg.StatusAddr = os.Getenv("STATUS_ADDR")
	cfg.OtelExporter = os.Getenv("OTEL_EXPORTER")
	cfg.LogLevel = os.Getenv("LOG_LEVEL")
	cfg.LogFormat = os.Getenv("LOG_FORMAT")

	return cfg, nil
}
