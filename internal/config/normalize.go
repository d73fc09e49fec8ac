package config

import (
	"fmt"
	"strings"
)

// NormalizationResult captures adjustments & warnings from normalization pass.
type NormalizationResult struct{ Warnings []string }

// NormalizeConfig canonicalizes enumerated fields before defaults are applied.
// It mutates the provided config in-place and returns a result describing any coercions.
func NormalizeConfig(c *Config) (*NormalizationResult, error) {
	if c == nil {
		return nil, fmt.Errorf("config nil")
	}
	res := &NormalizationResult{}
	c.Core.Builder = strings.ToLower(strings.TrimSpace(c.Core.Builder))
	c.Framework = strings.ToLower(strings.TrimSpace(c.Framework))
	normalizeBuild(&c.Build, res)
	normalizeMonitoring(c.Monitoring, res)
	return res, nil
}

func normalizeBuild(b *BuildConfig, res *NormalizationResult) {
	if strings.TrimSpace(string(b.Sourcemap)) == "" {
		return
	}
	sm, err := sourcemapNormalizer.NormalizeWithValidation(string(b.Sourcemap))
	if err != nil {
		res.Warnings = append(res.Warnings, warnUnknown("build.sourcemap", string(b.Sourcemap), string(SourcemapNone)))
		b.Sourcemap = SourcemapNone
		return
	}
	if sm != b.Sourcemap {
		res.Warnings = append(res.Warnings, warnChanged("build.sourcemap", b.Sourcemap, sm))
		b.Sourcemap = sm
	}
}

func normalizeMonitoring(m *MonitoringConfig, res *NormalizationResult) {
	if m == nil {
		return
	}
	if raw := string(m.Logging.Level); raw != "" {
		lvl, err := logLevelNormalizer.NormalizeWithValidation(raw)
		if err != nil {
			res.Warnings = append(res.Warnings, warnUnknown("monitoring.logging.level", raw, string(LogLevelInfo)))
			lvl = LogLevelInfo
		} else if lvl != m.Logging.Level {
			res.Warnings = append(res.Warnings, warnChanged("monitoring.logging.level", m.Logging.Level, lvl))
		}
		m.Logging.Level = lvl
	}
	if raw := string(m.Logging.Format); raw != "" {
		f, err := logFormatNormalizer.NormalizeWithValidation(raw)
		if err != nil {
			res.Warnings = append(res.Warnings, warnUnknown("monitoring.logging.format", raw, string(LogFormatText)))
			f = LogFormatText
		} else if f != m.Logging.Format {
			res.Warnings = append(res.Warnings, warnChanged("monitoring.logging.format", m.Logging.Format, f))
		}
		m.Logging.Format = f
	}
}

func warnChanged(field string, from, to any) string {
	return fmt.Sprintf("normalized %s from '%v' to '%v'", field, from, to)
}

func warnUnknown(field, value, def string) string {
	return fmt.Sprintf("unknown %s '%s', defaulting to %s", field, value, def)
}
