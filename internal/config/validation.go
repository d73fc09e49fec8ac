package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"

	foundationerrors "git.home.luguber.info/inful/docshell/internal/foundation/errors"
)

// ValidateConfig checks structural constraints after defaults were applied.
func ValidateConfig(c *Config) error {
	var errs []error
	for i, p := range c.UserPresets() {
		if strings.TrimSpace(p.Name) == "" {
			errs = append(errs, fmt.Errorf("presets[%d]: name is required", i))
		}
	}
	for i, dir := range c.StaticDirs {
		if strings.TrimSpace(dir) == "" {
			errs = append(errs, fmt.Errorf("staticDirs[%d]: empty path", i))
		}
	}
	for id, ref := range c.Refs {
		if ref.URL == "" {
			errs = append(errs, fmt.Errorf("refs.%s: url is required", id))
			continue
		}
		if _, err := url.Parse(ref.URL); err != nil {
			errs = append(errs, fmt.Errorf("refs.%s: invalid url: %w", id, err))
		}
	}
	if c.History.Keep < 0 {
		errs = append(errs, fmt.Errorf("history.keep must be >= 0"))
	}
	if c.Monitoring != nil && c.Monitoring.Metrics.Path != "" && !strings.HasPrefix(c.Monitoring.Metrics.Path, "/") {
		errs = append(errs, fmt.Errorf("monitoring.metrics.path must start with '/'"))
	}
	if len(errs) == 0 {
		return nil
	}
	return foundationerrors.WrapError(errors.Join(errs...), foundationerrors.CategoryValidation, "invalid configuration").
		WithContext("file", FileName).
		Build()
}
