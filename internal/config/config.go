// Package config handles global configuration loading using viper.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/spf13/viper"
)

// DefaultSnapLen is applied when capture.snaplen is left at zero.
const DefaultSnapLen = 65535

// GlobalConfig represents the top-level configuration.
// Maps to the `pdukit:` root key in YAML.
type GlobalConfig struct {
	Log     LogConfig     `mapstructure:"log"`
	Capture CaptureConfig `mapstructure:"capture"`
	Dump    DumpConfig    `mapstructure:"dump"`
	Record  RecordConfig  `mapstructure:"record"`
	Metrics MetricsConfig `mapstructure:"metrics"`
}

// ─── Capture ───

// CaptureConfig configures live capture handles.
type CaptureConfig struct {
	Engine      string `mapstructure:"engine"` // pcap | afpacket (Linux only)
	SnapLen     int    `mapstructure:"snaplen"`
	Promiscuous bool   `mapstructure:"promiscuous"`
	Timeout     string `mapstructure:"timeout"`   // read timeout, e.g. "500ms"
	Filter      string `mapstructure:"filter"`    // BPF expression
	BufferMB    int    `mapstructure:"buffer_mb"` // kernel buffer, 0 = platform default
	FanoutID    uint16 `mapstructure:"fanout_id"` // afpacket fanout group, 0 = none
}

// ReadTimeout parses Timeout. Callers run after validation.
func (c CaptureConfig) ReadTimeout() time.Duration {
	d, _ := time.ParseDuration(c.Timeout)
	return d
}

func (c CaptureConfig) Validate() error {
	return validation.ValidateStruct(&c,
		validation.Field(&c.Engine, validation.Required, validation.In("pcap", "afpacket")),
		validation.Field(&c.SnapLen, validation.Min(0), validation.Max(262144)),
		validation.Field(&c.Timeout, validation.By(isDuration)),
		validation.Field(&c.BufferMB, validation.Min(0)),
	)
}

// ─── Dump ───

// DumpConfig selects the packet dump back-end.
type DumpConfig struct {
	Format   string `mapstructure:"format"`    // text | tree | yaml
	OUINames bool   `mapstructure:"oui_names"` // render MACs as Vendor_xx:xx:xx
}

func (c DumpConfig) Validate() error {
	return validation.ValidateStruct(&c,
		validation.Field(&c.Format, validation.Required, validation.In("text", "tree", "yaml")),
	)
}

// ─── Record ───

// RecordConfig configures capture file output.
type RecordConfig struct {
	Format    string `mapstructure:"format"`    // pcap | pcapng
	Precision string `mapstructure:"precision"` // us | ns, pcap only
}

func (c RecordConfig) Validate() error {
	return validation.ValidateStruct(&c,
		validation.Field(&c.Format, validation.Required, validation.In("pcap", "pcapng")),
		validation.Field(&c.Precision, validation.Required, validation.In("us", "ns")),
	)
}

// ─── Metrics ───

// MetricsConfig contains Prometheus metrics settings.
type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Listen  string `mapstructure:"listen"`
	Path    string `mapstructure:"path"`
}

func (c MetricsConfig) Validate() error {
	return validation.ValidateStruct(&c,
		validation.Field(&c.Listen, validation.When(c.Enabled, validation.Required)),
		validation.Field(&c.Path, validation.When(c.Enabled, validation.Required)),
	)
}

// ─── Log ───

// LogConfig contains logging settings.
type LogConfig struct {
	Level   string           `mapstructure:"level"`   // trace / debug / info / warn / error
	Format  string           `mapstructure:"format"`  // text / json / pattern
	Pattern string           `mapstructure:"pattern"` // used by format=pattern
	Time    string           `mapstructure:"time"`    // time layout for format=pattern
	Outputs LogOutputsConfig `mapstructure:"outputs"`
}

func (c LogConfig) Validate() error {
	return validation.ValidateStruct(&c,
		validation.Field(&c.Level, validation.Required, validation.In("trace", "debug", "info", "warn", "error")),
		validation.Field(&c.Format, validation.Required, validation.In("text", "json", "pattern")),
		validation.Field(&c.Pattern, validation.When(c.Format == "pattern", validation.Required)),
		validation.Field(&c.Outputs),
	)
}

// LogOutputsConfig contains log output destinations besides stderr.
type LogOutputsConfig struct {
	File FileOutputConfig `mapstructure:"file"`
}

func (c LogOutputsConfig) Validate() error {
	return validation.ValidateStruct(&c,
		validation.Field(&c.File),
	)
}

// FileOutputConfig configures file log output.
type FileOutputConfig struct {
	Enabled  bool           `mapstructure:"enabled"`
	Path     string         `mapstructure:"path"`
	Rotation RotationConfig `mapstructure:"rotation"`
}

func (c FileOutputConfig) Validate() error {
	return validation.ValidateStruct(&c,
		validation.Field(&c.Path, validation.When(c.Enabled, validation.Required)),
	)
}

// RotationConfig configures log file rotation.
type RotationConfig struct {
	MaxSizeMB  int  `mapstructure:"max_size_mb"`
	MaxAgeDays int  `mapstructure:"max_age_days"`
	MaxBackups int  `mapstructure:"max_backups"`
	Compress   bool `mapstructure:"compress"`
}

// ─── Loading ───

// configRoot is the top-level wrapper matching the YAML structure `pdukit: ...`.
type configRoot struct {
	PDUKit GlobalConfig `mapstructure:"pdukit"`
}

// Load loads configuration from file. An empty path yields the defaults.
// Env vars use the PDUKIT_ prefix (e.g., PDUKIT_LOG_LEVEL).
func Load(path string) (*GlobalConfig, error) {
	v := viper.New()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	// key "pdukit.log.level" → env "PDUKIT_LOG_LEVEL"
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	var root configRoot
	if err := v.Unmarshal(&root); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	cfg := root.PDUKit

	if err := cfg.ValidateAndApplyDefaults(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &cfg, nil
}

// Default returns the configuration used when no file is given.
func Default() *GlobalConfig {
	cfg, err := Load("")
	if err != nil {
		panic(err)
	}
	return cfg
}

func setDefaults(v *viper.Viper) {
	// Log defaults
	v.SetDefault("pdukit.log.level", "info")
	v.SetDefault("pdukit.log.format", "text")
	v.SetDefault("pdukit.log.pattern", "%time [%level] %caller: %msg %field\n")
	v.SetDefault("pdukit.log.time", "2006-01-02 15:04:05.000")
	v.SetDefault("pdukit.log.outputs.file.enabled", false)
	v.SetDefault("pdukit.log.outputs.file.path", "/var/log/pdukit/pdukit.log")
	v.SetDefault("pdukit.log.outputs.file.rotation.max_size_mb", 100)
	v.SetDefault("pdukit.log.outputs.file.rotation.max_age_days", 30)
	v.SetDefault("pdukit.log.outputs.file.rotation.max_backups", 5)
	v.SetDefault("pdukit.log.outputs.file.rotation.compress", true)

	// Capture defaults
	v.SetDefault("pdukit.capture.engine", "pcap")
	v.SetDefault("pdukit.capture.snaplen", DefaultSnapLen)
	v.SetDefault("pdukit.capture.promiscuous", true)
	v.SetDefault("pdukit.capture.timeout", "500ms")

	// Dump defaults
	v.SetDefault("pdukit.dump.format", "tree")
	v.SetDefault("pdukit.dump.oui_names", true)

	// Record defaults
	v.SetDefault("pdukit.record.format", "pcapng")
	v.SetDefault("pdukit.record.precision", "us")

	// Metrics defaults
	v.SetDefault("pdukit.metrics.enabled", false)
	v.SetDefault("pdukit.metrics.listen", ":9091")
	v.SetDefault("pdukit.metrics.path", "/metrics")
}

// ValidateAndApplyDefaults validates configuration and applies runtime defaults.
func (cfg *GlobalConfig) ValidateAndApplyDefaults() error {
	cfg.Log.Level = strings.ToLower(cfg.Log.Level)
	cfg.Log.Format = strings.ToLower(cfg.Log.Format)

	err := validation.ValidateStruct(cfg,
		validation.Field(&cfg.Log),
		validation.Field(&cfg.Capture),
		validation.Field(&cfg.Dump),
		validation.Field(&cfg.Record),
		validation.Field(&cfg.Metrics),
	)
	if err != nil {
		return err
	}

	if cfg.Capture.SnapLen == 0 {
		cfg.Capture.SnapLen = DefaultSnapLen
	}
	return nil
}

func isDuration(value interface{}) error {
	s, _ := value.(string)
	if s == "" {
		return nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return errors.New("must be a duration such as 500ms")
	}
	if d < 0 {
		return errors.New("must not be negative")
	}
	return nil
}
