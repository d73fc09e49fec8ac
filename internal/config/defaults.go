package config

import "path/filepath"

// Default values applied after normalization.
const (
	DefaultBuilder     = "webpack4"
	DefaultOutputDir   = "docshell-static"
	DefaultMetricsPath = "/metrics"
	DefaultHistoryKeep = 100
)

func applyDefaults(c *Config) {
	if c.Build.OutputDir == "" {
		c.Build.OutputDir = DefaultOutputDir
	}
	if c.Build.CacheDir == "" {
		c.Build.CacheDir = filepath.Join(c.dir, "cache")
	}
	if c.Build.Sourcemap == "" {
		c.Build.Sourcemap = SourcemapNone
	}
	if len(c.Build.Target) == 0 {
		c.Build.Target = []string{"es2020"}
	}
	if c.Monitoring == nil {
		c.Monitoring = &MonitoringConfig{}
	}
	if c.Monitoring.Metrics.Path == "" {
		c.Monitoring.Metrics.Path = DefaultMetricsPath
	}
	if c.Monitoring.Logging.Level == "" {
		c.Monitoring.Logging.Level = LogLevelInfo
	}
	if c.Monitoring.Logging.Format == "" {
		c.Monitoring.Logging.Format = LogFormatText
	}
	if c.History.Path == "" {
		c.History.Path = filepath.Join(c.dir, "history.db")
	}
	if c.History.Keep == 0 {
		c.History.Keep = DefaultHistoryKeep
	}
}
