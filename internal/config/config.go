package config

import (
	"errors"
	"fmt"
	"os"
	"runtime"
	"strconv"
	"strings"
	"time"

	sharedcfg "github.com/couchcryptid/storm-data-shared/config"
	"github.com/joho/godotenv"
)

// Config holds all settings of an LST batch run, populated from environment variables.
type Config struct {
	AOILon     float64
	AOILat     float64
	AOIRadiusM float64
	StartDate  string
	EndDate    string

	CatalogURL           string
	CatalogCollection    string
	CatalogMaxCloudCover float64
	CatalogClientID      string
	CatalogClientSecret  string
	CatalogTokenURL      string
	CatalogTimeout       time.Duration

	ScaleM    float64
	MaxPixels int

	// NDVIBounds is "per-date" or "fixed:<min>,<max>".
	NDVIBounds string
	NDVIMin    float64
	NDVIMax    float64

	ExportFolder      string
	ExportMaxAttempts int
	ExportBackoff     time.Duration
	ExportMaxBackoff  time.Duration

	Workers        int
	SceneWorkers   int
	DateAttempts   int
	SceneCacheSize int

	PreviewDir   string
	ManifestPath string

	KafkaBrokers     []string
	KafkaExportTopic string

	HTTPAddr        string
	LogLevel        string
	LogFormat       string
	ShutdownTimeout time.Duration
}

// FixedNDVIBounds reports whether NDVI_BOUNDS pins the NDVI range.
func (c *Config) FixedNDVIBounds() bool {
	return strings.HasPrefix(c.NDVIBounds, "fixed:")
}

// Load reads configuration from environment variables, applying defaults
// where unset. A .env file in the working directory is loaded first when
// present; real environment variables take precedence.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	shutdownTimeout, err := sharedcfg.ParseShutdownTimeout()
	if err != nil {
		return nil, err
	}

	p := &parser{}
	cfg := &Config{
		AOILon:     p.float("AOI_LON", "-99.1332"),
		AOILat:     p.float("AOI_LAT", "19.4326"),
		AOIRadiusM: p.float("AOI_RADIUS_M", "20000"),
		StartDate:  sharedcfg.EnvOrDefault("START_DATE", "2019-01-01"),
		EndDate:    sharedcfg.EnvOrDefault("END_DATE", "2024-01-01"),

		CatalogURL:           sharedcfg.EnvOrDefault("CATALOG_URL", "https://planetarycomputer.microsoft.com/api/stac/v1"),
		CatalogCollection:    sharedcfg.EnvOrDefault("CATALOG_COLLECTION", "landsat-c2-l2"),
		CatalogMaxCloudCover: p.float("CATALOG_MAX_CLOUD_COVER", "100"),
		CatalogClientID:      os.Getenv("CATALOG_CLIENT_ID"),
		CatalogClientSecret:  os.Getenv("CATALOG_CLIENT_SECRET"),
		CatalogTokenURL:      os.Getenv("CATALOG_TOKEN_URL"),
		CatalogTimeout:       p.duration("CATALOG_TIMEOUT", "30s"),

		ScaleM:     p.float("SCALE_M", "30"),
		MaxPixels:  p.int("MAX_PIXELS", "1000000000"),
		NDVIBounds: sharedcfg.EnvOrDefault("NDVI_BOUNDS", "per-date"),

		ExportFolder:      sharedcfg.EnvOrDefault("EXPORT_FOLDER", "exports"),
		ExportMaxAttempts: p.int("EXPORT_MAX_ATTEMPTS", "5"),
		ExportBackoff:     p.duration("EXPORT_BACKOFF", "200ms"),
		ExportMaxBackoff:  p.duration("EXPORT_MAX_BACKOFF", "5s"),

		Workers:        p.int("WORKERS", strconv.Itoa(runtime.NumCPU())),
		SceneWorkers:   p.int("SCENE_WORKERS", "4"),
		DateAttempts:   p.int("DATE_ATTEMPTS", "2"),
		SceneCacheSize: p.int("SCENE_CACHE_SIZE", "16"),

		PreviewDir:   os.Getenv("PREVIEW_DIR"),
		ManifestPath: os.Getenv("MANIFEST_PATH"),

		KafkaBrokers:     parseBrokers(os.Getenv("KAFKA_BROKERS")),
		KafkaExportTopic: sharedcfg.EnvOrDefault("KAFKA_EXPORT_TOPIC", "lst-exports"),

		HTTPAddr:        os.Getenv("HTTP_ADDR"),
		LogLevel:        sharedcfg.EnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:       sharedcfg.EnvOrDefault("LOG_FORMAT", "json"),
		ShutdownTimeout: shutdownTimeout,
	}
	if p.err != nil {
		return nil, p.err
	}

	if err := cfg.parseNDVIBounds(); err != nil {
		return nil, err
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) parseNDVIBounds() error {
	if c.NDVIBounds == "per-date" {
		return nil
	}
	spec, ok := strings.CutPrefix(c.NDVIBounds, "fixed:")
	if !ok {
		return fmt.Errorf("invalid NDVI_BOUNDS %q: want per-date or fixed:<min>,<max>", c.NDVIBounds)
	}
	lo, hi, ok := strings.Cut(spec, ",")
	if !ok {
		return fmt.Errorf("invalid NDVI_BOUNDS %q: want fixed:<min>,<max>", c.NDVIBounds)
	}
	var err error
	if c.NDVIMin, err = strconv.ParseFloat(strings.TrimSpace(lo), 64); err != nil {
		return fmt.Errorf("invalid NDVI_BOUNDS min: %w", err)
	}
	if c.NDVIMax, err = strconv.ParseFloat(strings.TrimSpace(hi), 64); err != nil {
		return fmt.Errorf("invalid NDVI_BOUNDS max: %w", err)
	}
	if c.NDVIMax <= c.NDVIMin {
		return errors.New("invalid NDVI_BOUNDS: max must exceed min")
	}
	return nil
}

func (c *Config) validate() error {
	switch {
	case c.AOIRadiusM <= 0:
		return errors.New("AOI_RADIUS_M must be positive")
	case c.CatalogURL == "":
		return errors.New("CATALOG_URL is required")
	case c.CatalogCollection == "":
		return errors.New("CATALOG_COLLECTION is required")
	case c.CatalogMaxCloudCover < 0 || c.CatalogMaxCloudCover > 100:
		return errors.New("CATALOG_MAX_CLOUD_COVER must be within [0, 100]")
	case c.CatalogClientID != "" && (c.CatalogClientSecret == "" || c.CatalogTokenURL == ""):
		return errors.New("CATALOG_CLIENT_ID requires CATALOG_CLIENT_SECRET and CATALOG_TOKEN_URL")
	case c.ScaleM <= 0:
		return errors.New("SCALE_M must be positive")
	case c.MaxPixels <= 0:
		return errors.New("MAX_PIXELS must be positive")
	case c.ExportFolder == "":
		return errors.New("EXPORT_FOLDER is required")
	case c.ExportMaxAttempts < 1:
		return errors.New("EXPORT_MAX_ATTEMPTS must be at least 1")
	case c.ExportMaxBackoff < c.ExportBackoff:
		return errors.New("EXPORT_MAX_BACKOFF must not be below EXPORT_BACKOFF")
	case c.Workers < 1:
		return errors.New("WORKERS must be at least 1")
	case c.SceneWorkers < 1:
		return errors.New("SCENE_WORKERS must be at least 1")
	case c.DateAttempts < 1:
		return errors.New("DATE_ATTEMPTS must be at least 1")
	case c.SceneCacheSize < 0:
		return errors.New("SCENE_CACHE_SIZE must not be negative")
	case len(c.KafkaBrokers) > 0 && c.KafkaExportTopic == "":
		return errors.New("KAFKA_EXPORT_TOPIC is required when KAFKA_BROKERS is set")
	}
	return nil
}

// parseBrokers returns nil when Kafka publishing is disabled.
func parseBrokers(s string) []string {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	return sharedcfg.ParseBrokers(s)
}

// parser keeps the first conversion error so Load can read every variable in
// one struct literal.
type parser struct {
	err error
}

func (p *parser) float(key, def string) float64 {
	s := sharedcfg.EnvOrDefault(key, def)
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		p.fail(fmt.Errorf("invalid %s %q: %w", key, s, err))
	}
	return v
}

func (p *parser) int(key, def string) int {
	s := sharedcfg.EnvOrDefault(key, def)
	v, err := strconv.Atoi(s)
	if err != nil {
		p.fail(fmt.Errorf("invalid %s %q: %w", key, s, err))
	}
	return v
}

func (p *parser) duration(key, def string) time.Duration {
	s := sharedcfg.EnvOrDefault(key, def)
	v, err := time.ParseDuration(s)
	if err != nil || v <= 0 {
		p.fail(fmt.Errorf("invalid %s %q", key, s))
	}
	return v
}

func (p *parser) fail(err error) {
	if p.err == nil {
		p.err = err
	}
}
