package config

import (
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/ajitpratap0/mongoextract/pkg/errors"
)

// Protocol selects how the connection URI is produced
type Protocol string

const (
	// ProtocolStandard assembles a mongodb:// URI from discrete fields
	ProtocolStandard Protocol = "mongodb"
	// ProtocolSeedlist assembles a mongodb+srv:// URI from discrete fields
	ProtocolSeedlist Protocol = "mongodb+srv"
	// ProtocolCustomURI parses the operator-supplied URI
	ProtocolCustomURI Protocol = "custom_uri"
)

// Export modes. The mapping itself is applied by a downstream collaborator.
const (
	ModeRaw     = "raw"
	ModeMapping = "mapping"
)

// Config is the extractor configuration. It is validated once, when loaded,
// and again at the URI builder boundary for connection fields.
type Config struct {
	// Name identifies the extractor instance
	Name string `yaml:"name" json:"name"`

	// Db holds connection parameters
	Db DbConfig `yaml:"db" json:"db"`

	// Exports lists the collections to export, in order
	Exports []ExportConfig `yaml:"exports" json:"exports"`

	// Process controls how the export tool is invoked
	Process ProcessConfig `yaml:"process" json:"process"`

	// Observability settings for logging, metrics and tracing
	Observability ObservabilityConfig `yaml:"observability" json:"observability"`

	// StateFile stores incremental fetching state between runs
	StateFile string `yaml:"state_file" json:"state_file"`
}

// DbConfig contains connection fields. Optional values are pointers so that
// "absent" and "empty" stay distinguishable.
type DbConfig struct {
	// Protocol discriminates between assembled and custom URIs
	Protocol Protocol `yaml:"protocol" json:"protocol"`
	// URI is the full connection string in custom URI mode
	URI string `yaml:"uri" json:"uri"`
	// Host is a single host or a comma-separated host list
	Host string `yaml:"host" json:"host"`
	// Port is required for the mongodb protocol and ignored for mongodb+srv
	Port *int `yaml:"port" json:"port"`
	// Database to export from
	Database string `yaml:"database" json:"database"`
	// AuthenticationDatabase becomes the authSource query parameter
	AuthenticationDatabase string `yaml:"authentication_database" json:"authentication_database"`
	// User for authentication
	User *string `yaml:"user" json:"user"`
	// Password for authentication; in custom URI mode it is never part of the URI
	Password *string `yaml:"password" json:"-"`
}

// ExportConfig describes one mongoexport invocation
type ExportConfig struct {
	// Name identifies the export and names its output file
	Name string `yaml:"name" json:"name"`
	// Enabled defaults to true when omitted
	Enabled *bool `yaml:"enabled" json:"enabled"`
	// Collection to export
	Collection string `yaml:"collection" json:"collection"`
	// Query is a mongo shell filter, passed through verbatim
	Query string `yaml:"query" json:"query"`
	// Sort is a mongo shell sort document
	Sort string `yaml:"sort" json:"sort"`
	// Limit caps the number of exported documents
	Limit string `yaml:"limit" json:"limit"`
	// Mode is raw or mapping
	Mode string `yaml:"mode" json:"mode"`
	// IncrementalFetchingColumn enables incremental exports on that field
	IncrementalFetchingColumn string `yaml:"incremental_fetching_column" json:"incremental_fetching_column"`
	// Out overrides the output path; defaults to <output_dir>/<name>.json
	Out string `yaml:"out" json:"out"`
}

// ProcessConfig contains settings for the external export tool
type ProcessConfig struct {
	// Program is the export executable
	Program string `yaml:"program" json:"program"`
	// Shell runs the command line
	Shell string `yaml:"shell" json:"shell"`
	// Timeout bounds a single export
	Timeout time.Duration `yaml:"timeout" json:"timeout"`
	// OutputDir receives exported files
	OutputDir string `yaml:"output_dir" json:"output_dir"`
}

// ObservabilityConfig contains monitoring settings
type ObservabilityConfig struct {
	// LogLevel sets logging verbosity (debug, info, warn, error)
	LogLevel string `yaml:"log_level" json:"log_level"`
	// LogEncoding is json or console
	LogEncoding string `yaml:"log_encoding" json:"log_encoding"`
	// EnableMetrics activates Prometheus metrics collection
	EnableMetrics bool `yaml:"enable_metrics" json:"enable_metrics"`
	// MetricsAddr serves /metrics when set
	MetricsAddr string `yaml:"metrics_addr" json:"metrics_addr"`
	// EnableTracing activates span export
	EnableTracing bool `yaml:"enable_tracing" json:"enable_tracing"`
}

// NewConfig creates a new Config with sensible defaults.
//
// Example:
//
//	cfg := config.NewConfig("orders-extractor")
//	cfg.Db.Host = "localhost"
func NewConfig(name string) *Config {
	return &Config{
		Name: name,
		Db: DbConfig{
			Protocol: ProtocolStandard,
		},
		Process: ProcessConfig{
			Program:   "mongoexport",
			Shell:     "/bin/sh",
			Timeout:   time.Hour,
			OutputDir: "out",
		},
		Observability: ObservabilityConfig{
			LogLevel:    "info",
			LogEncoding: "json",
		},
	}
}

// ApplyDefaults fills zero values with the defaults of NewConfig
func (c *Config) ApplyDefaults() {
	def := NewConfig(c.Name)
	if c.Db.Protocol == "" {
		c.Db.Protocol = def.Db.Protocol
	}
	if c.Process.Program == "" {
		c.Process.Program = def.Process.Program
	}
	if c.Process.Shell == "" {
		c.Process.Shell = def.Process.Shell
	}
	if c.Process.Timeout == 0 {
		c.Process.Timeout = def.Process.Timeout
	}
	if c.Process.OutputDir == "" {
		c.Process.OutputDir = def.Process.OutputDir
	}
	if c.Observability.LogLevel == "" {
		c.Observability.LogLevel = def.Observability.LogLevel
	}
	if c.Observability.LogEncoding == "" {
		c.Observability.LogEncoding = def.Observability.LogEncoding
	}
	for i := range c.Exports {
		if c.Exports[i].Mode == "" {
			c.Exports[i].Mode = ModeMapping
		}
	}
}

// Validate checks the parts of the configuration that do not depend on the
// connection protocol. Connection fields are validated by the URI builder.
func (c *Config) Validate() error {
	switch c.Db.Protocol {
	case ProtocolStandard, ProtocolSeedlist, ProtocolCustomURI:
	default:
		return errors.Newf(errors.ErrorTypeConfig, "unsupported protocol %q", c.Db.Protocol)
	}
	if c.Process.Timeout < 0 {
		return errors.New(errors.ErrorTypeConfig, "process.timeout cannot be negative")
	}

	seen := make(map[string]bool, len(c.Exports))
	for i := range c.Exports {
		e := &c.Exports[i]
		if err := e.Validate(); err != nil {
			return err
		}
		if seen[e.Name] {
			return errors.Newf(errors.ErrorTypeConfig, "duplicate export name %q", e.Name)
		}
		seen[e.Name] = true
	}
	return nil
}

// Validate checks a single export definition
func (e *ExportConfig) Validate() error {
	if strings.TrimSpace(e.Name) == "" {
		return errors.New(errors.ErrorTypeConfig, "export name is required")
	}
	if strings.TrimSpace(e.Collection) == "" {
		return errors.Newf(errors.ErrorTypeConfig, "export %q: collection is required", e.Name)
	}
	switch e.Mode {
	case "", ModeRaw, ModeMapping:
	default:
		return errors.Newf(errors.ErrorTypeConfig, "export %q: unsupported mode %q", e.Name, e.Mode)
	}
	if limit := strings.TrimSpace(e.Limit); limit != "" {
		if n, err := strconv.Atoi(limit); err != nil || n < 0 {
			return errors.Newf(errors.ErrorTypeConfig, "export %q: limit must be a non-negative integer", e.Name)
		}
	}
	if e.IsIncremental() && strings.TrimSpace(e.Query) != "" {
		return errors.Newf(errors.ErrorTypeConfig,
			"export %q: query cannot be combined with incremental_fetching_column", e.Name)
	}
	return nil
}

// IsEnabled reports whether the export should run
func (e *ExportConfig) IsEnabled() bool {
	return e.Enabled == nil || *e.Enabled
}

// IsIncremental reports whether the export fetches incrementally
func (e *ExportConfig) IsIncremental() bool {
	return strings.TrimSpace(e.IncrementalFetchingColumn) != ""
}

// OutputPath returns the file the export writes to
func (e *ExportConfig) OutputPath(outputDir string) string {
	if e.Out != "" {
		return e.Out
	}
	return filepath.Join(outputDir, e.Name+".json")
}

// HasCredentials returns true if both user and password are configured
func (d *DbConfig) HasCredentials() bool {
	return d.User != nil && d.Password != nil
}
