package config

import (
	"fmt"
	"os"
	"regexp"
	"strconv"
	"strings"
	"time"
)

const (
	defaultTigerURL = "https://tigerweb.geo.census.gov/arcgis/rest/services/TIGERweb/tigerWMS_Current/MapServer/8/query"
	defaultACSURL   = "https://api.census.gov/data/2023/acs/acs5/profile"
)

var (
	stateFIPSRe  = regexp.MustCompile(`^\d{2}$`)
	countyFIPSRe = regexp.MustCompile(`^\d{3}$`)
)

// Config holds all settings for the ETL and dashboard binaries, populated
// from environment variables.
type Config struct {
	DBPath     string
	StateFIPS  string
	CountyFIPS []string

	TigerURL     string
	ACSURL       string
	SVICSVPath   string
	FetchTimeout time.Duration

	HTTPAddr        string
	LogLevel        string
	LogFormat       string
	ShutdownTimeout time.Duration

	// Simulation knobs. A zero seed means "derive from the clock", so each
	// unseeded run produces a different asset distribution by design.
	SimSeed     int64
	SimOrgCount int
}

// Load reads configuration from environment variables, applying defaults
// where unset.
func Load() (*Config, error) {
	fetchTimeout, err := parseDuration("FETCH_TIMEOUT", "30s")
	if err != nil {
		return nil, err
	}
	shutdownTimeout, err := parseDuration("SHUTDOWN_TIMEOUT", "10s")
	if err != nil {
		return nil, err
	}
	simSeed, err := parseInt64("SIM_SEED", 0)
	if err != nil {
		return nil, err
	}
	simOrgCount, err := parseInt("SIM_ORG_COUNT", 12)
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		DBPath:     envOrDefault("GRANT_ATLAS_DB_PATH", "grant_atlas.db"),
		StateFIPS:  envOrDefault("STATE_FIPS", "36"),
		CountyFIPS: splitList(envOrDefault("COUNTY_FIPS", "045,049,089")),

		TigerURL:     envOrDefault("TIGERWEB_URL", defaultTigerURL),
		ACSURL:       envOrDefault("ACS_URL", defaultACSURL),
		SVICSVPath:   envOrDefault("SVI_CSV_PATH", "data/svi_interactive_map.csv"),
		FetchTimeout: fetchTimeout,

		HTTPAddr:        envOrDefault("HTTP_ADDR", ":8080"),
		LogLevel:        envOrDefault("LOG_LEVEL", "info"),
		LogFormat:       envOrDefault("LOG_FORMAT", "json"),
		ShutdownTimeout: shutdownTimeout,

		SimSeed:     simSeed,
		SimOrgCount: simOrgCount,
	}

	if cfg.DBPath == "" {
		return nil, fmt.Errorf("GRANT_ATLAS_DB_PATH must not be empty")
	}
	if !stateFIPSRe.MatchString(cfg.StateFIPS) {
		return nil, fmt.Errorf("STATE_FIPS must be a 2-digit FIPS code, got %q", cfg.StateFIPS)
	}
	if len(cfg.CountyFIPS) == 0 {
		return nil, fmt.Errorf("COUNTY_FIPS must list at least one county")
	}
	for _, c := range cfg.CountyFIPS {
		if !countyFIPSRe.MatchString(c) {
			return nil, fmt.Errorf("COUNTY_FIPS entries must be 3-digit FIPS codes, got %q", c)
		}
	}
	if cfg.SVICSVPath == "" {
		return nil, fmt.Errorf("SVI_CSV_PATH must not be empty")
	}
	if cfg.SimOrgCount < 0 {
		return nil, fmt.Errorf("SIM_ORG_COUNT must not be negative")
	}

	return cfg, nil
}

func envOrDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func parseDuration(key, def string) (time.Duration, error) {
	s := envOrDefault(key, def)
	d, err := time.ParseDuration(s)
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("invalid %s: %q", key, s)
	}
	return d, nil
}

func parseInt(key string, def int) (int, error) {
	s := os.Getenv(key)
	if s == "" {
		return def, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %q", key, s)
	}
	return n, nil
}

func parseInt64(key string, def int64) (int64, error) {
	s := os.Getenv(key)
	if s == "" {
		return def, nil
	}
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %q", key, s)
	}
	return n, nil
}
