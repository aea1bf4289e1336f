// Package config loads kiosk configuration from a TOML file.
//
// Configuration lives in booth.toml (default ~/.config/gridbooth/booth.toml)
// and every section is optional; missing values fall back to defaults that
// run a single-booth kiosk out of the box. Secrets can be supplied through
// GRIDBOOTH_* environment variables so they stay out of the config file:
//
//	GRIDBOOTH_PRINTER_API_KEY  overrides [printer] api_key
//	GRIDBOOTH_REDIS_ADDR       overrides [cache] redis_addr
//	GRIDBOOTH_MONGO_URI        overrides [session] mongo_uri
//
// Custom page layouts declared as [[layout]] tables extend the built-in
// catalog at startup via [Config.RegisterLayouts].
package config

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/gridbooth/gridbooth/pkg/compose"
	"github.com/gridbooth/gridbooth/pkg/errors"
)

// Duration decodes TOML strings like "30s" or "24h" into a time.Duration.
type Duration struct {
	time.Duration
}

// UnmarshalText implements encoding.TextUnmarshaler for TOML decoding.
func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	d.Duration = v
	return nil
}

// Config is the full kiosk configuration.
type Config struct {
	Server  ServerConfig   `toml:"server"`
	Storage StorageConfig  `toml:"storage"`
	Cache   CacheConfig    `toml:"cache"`
	Session SessionConfig  `toml:"session"`
	Printer PrinterConfig  `toml:"printer"`
	Compose ComposeConfig  `toml:"compose"`
	Layouts []LayoutConfig `toml:"layout"`
}

// ServerConfig configures the HTTP API.
type ServerConfig struct {
	Addr    string `toml:"addr"`
	BaseURL string `toml:"base_url"`
}

// StorageConfig configures where composites are kept. An empty dir uses
// the storage package default (~/.local/share/gridbooth/composites).
type StorageConfig struct {
	Dir string `toml:"dir"`
}

// CacheConfig selects the pipeline cache backend.
type CacheConfig struct {
	Backend   string `toml:"backend"` // file, redis or none
	Dir       string `toml:"dir"`
	RedisAddr string `toml:"redis_addr"`
	RedisDB   int    `toml:"redis_db"`
}

// SessionConfig selects the session store backend.
type SessionConfig struct {
	Backend  string   `toml:"backend"` // memory, file or mongo
	Dir      string   `toml:"dir"`
	MongoURI string   `toml:"mongo_uri"`
	MongoDB  string   `toml:"mongo_db"`
	TTL      Duration `toml:"ttl"`
}

// PrinterConfig configures the print service client. An empty endpoint
// means the kiosk runs without a printer.
type PrinterConfig struct {
	Endpoint string   `toml:"endpoint"`
	APIKey   string   `toml:"api_key"`
	Timeout  Duration `toml:"timeout"`
}

// ComposeConfig sets kiosk-wide defaults for composition requests.
type ComposeConfig struct {
	DPI           uint32  `toml:"dpi"`
	MarginPercent float64 `toml:"margin_percent"`
	Fit           string  `toml:"fit"`
}

// LayoutConfig declares a custom page layout. An empty label is derived
// from the page size, e.g. 6.0 by 8.0 inches becomes "6x8".
type LayoutConfig struct {
	ID       string  `toml:"id"`
	Cols     uint32  `toml:"cols"`
	Rows     uint32  `toml:"rows"`
	WidthIn  float64 `toml:"width_in"`
	HeightIn float64 `toml:"height_in"`
	Label    string  `toml:"label"`
	Name     string  `toml:"name"`
}

// Default returns the configuration used when no file is present.
func Default() Config {
	return Config{
		Server: ServerConfig{
			Addr:    ":8750",
			BaseURL: "http://localhost:8750",
		},
		Cache: CacheConfig{
			Backend: "file",
		},
		Session: SessionConfig{
			Backend: "memory",
			MongoDB: "gridbooth",
			TTL:     Duration{30 * time.Minute},
		},
		Printer: PrinterConfig{
			Timeout: Duration{30 * time.Second},
		},
		Compose: ComposeConfig{
			DPI:           compose.DefaultDPI,
			MarginPercent: compose.DefaultMarginPercent,
			Fit:           string(compose.DefaultFit),
		},
	}
}

// DefaultPath returns the default config file location, or "" when the
// user's home directory cannot be determined.
func DefaultPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".config", "gridbooth", "booth.toml")
}

// Load reads the config file at path, applies environment overrides and
// validates the result. An empty path loads the default location; a
// missing file there is not an error, an explicitly named missing file is.
func Load(path string) (*Config, error) {
	cfg := Default()

	explicit := path != ""
	if !explicit {
		path = DefaultPath()
	}

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case err == nil:
			md, err := toml.Decode(string(data), &cfg)
			if err != nil {
				return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "parse config %s", path)
			}
			if undecoded := md.Undecoded(); len(undecoded) > 0 {
				return nil, errors.New(errors.ErrCodeInvalidInput, "unknown config key %q in %s", undecoded[0].String(), path)
			}
		case os.IsNotExist(err) && !explicit:
			// No config file, defaults apply.
		default:
			return nil, errors.Wrap(errors.ErrCodeFileNotFound, err, "read config %s", path)
		}
	}

	cfg.applyEnv()
	cfg.expandPaths()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) applyEnv() {
	if v := os.Getenv("GRIDBOOTH_PRINTER_API_KEY"); v != "" {
		c.Printer.APIKey = v
	}
	if v := os.Getenv("GRIDBOOTH_REDIS_ADDR"); v != "" {
		c.Cache.RedisAddr = v
	}
	if v := os.Getenv("GRIDBOOTH_MONGO_URI"); v != "" {
		c.Session.MongoURI = v
	}
}

func (c *Config) expandPaths() {
	c.Storage.Dir = expandHome(c.Storage.Dir)
	c.Cache.Dir = expandHome(c.Cache.Dir)
	c.Session.Dir = expandHome(c.Session.Dir)
}

// expandHome replaces a leading "~/" with the user's home directory.
func expandHome(path string) string {
	if !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, path[2:])
}

// Validate checks backend selections and composition defaults. It does
// not touch the layout catalog; see RegisterLayouts.
func (c *Config) Validate() error {
	if c.Server.Addr == "" {
		return errors.New(errors.ErrCodeInvalidInput, "server addr cannot be empty")
	}

	switch c.Cache.Backend {
	case "file", "none":
	case "redis":
		if c.Cache.RedisAddr == "" {
			return errors.New(errors.ErrCodeInvalidInput, "redis cache backend requires redis_addr")
		}
	default:
		return errors.New(errors.ErrCodeInvalidInput, "unknown cache backend %q (must be file, redis or none)", c.Cache.Backend)
	}

	switch c.Session.Backend {
	case "memory", "file":
	case "mongo":
		if c.Session.MongoURI == "" {
			return errors.New(errors.ErrCodeInvalidInput, "mongo session backend requires mongo_uri")
		}
	default:
		return errors.New(errors.ErrCodeInvalidInput, "unknown session backend %q (must be memory, file or mongo)", c.Session.Backend)
	}

	if c.Session.TTL.Duration <= 0 {
		return errors.New(errors.ErrCodeInvalidInput, "session ttl must be positive")
	}

	if c.Printer.Endpoint != "" {
		if err := errors.ValidateURL(c.Printer.Endpoint); err != nil {
			return errors.Wrap(errors.ErrCodeInvalidInput, err, "printer endpoint")
		}
	}

	if _, err := c.ComposeOptions(); err != nil {
		return err
	}
	return nil
}

// ComposeOptions converts the [compose] section into validated options
// with defaults applied.
func (c *Config) ComposeOptions() (compose.Options, error) {
	fit, err := compose.ParseFitMode(c.Compose.Fit)
	if err != nil {
		return compose.Options{}, err
	}
	opts := compose.Options{
		DPI:           c.Compose.DPI,
		MarginPercent: c.Compose.MarginPercent,
		Fit:           fit,
	}
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return compose.Options{}, err
	}
	return opts, nil
}

// RegisterLayouts adds the [[layout]] entries to the page-size catalog.
// Built-in layout ids are reserved; reusing one is an error.
func (c *Config) RegisterLayouts() error {
	for _, l := range c.Layouts {
		label := l.Label
		if label == "" {
			label = formatLabel(l.WidthIn, l.HeightIn)
		}
		layout := compose.Layout{
			ID:   l.ID,
			Name: l.Name,
			Cols: l.Cols,
			Rows: l.Rows,
			Page: compose.PageSize{WidthIn: l.WidthIn, HeightIn: l.HeightIn, Label: label},
		}
		if err := compose.RegisterLayout(layout); err != nil {
			return errors.Wrap(errors.ErrCodeInvalidLayout, err, "config layout %q", l.ID)
		}
	}
	return nil
}

// formatLabel renders a page size as a label like "4x6" or "3.5x5".
func formatLabel(widthIn, heightIn float64) string {
	w := strconv.FormatFloat(widthIn, 'f', -1, 64)
	h := strconv.FormatFloat(heightIn, 'f', -1, 64)
	return w + "x" + h
}
