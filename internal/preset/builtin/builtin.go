// Package builtin provides the presets shipped with docshell and the
// declarative YAML preset loader.
package builtin

import (
	"fmt"
	"strings"

	"git.home.luguber.info/inful/docshell/internal/preset"
)

// Names of the built-in presets.
const (
	Common  = "common"
	Manager = "manager"
	Preview = "preview"
	Env     = "env"
	Static  = "static"
	Cache   = "cache"
	Main    = "main"
)

// Virtual modules provided by the bundled runtime.
const (
	ManagerEntry = "docshell:manager"
	PreviewEntry = "docshell:preview"
	StoriesEntry = "docshell:stories"
)

const frameworkPrefix = "framework-"

// Frameworks lists the supported framework names.
var Frameworks = []string{"html", "react"}

// CorePresets returns the core layer in registration order.
func CorePresets() []preset.Source {
	return []preset.Source{
		preset.S(Common),
		preset.S(Manager),
		preset.S(Preview),
		preset.S(Env),
		preset.S(Static),
	}
}

// CachePreset is appended to the core layer after backend core presets.
func CachePreset() preset.Source { return preset.S(Cache) }

// FrameworkPreset returns the framework layer source for name.
func FrameworkPreset(name string) (preset.Source, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	for _, f := range Frameworks {
		if f == name {
			return preset.S(frameworkPrefix + name), nil
		}
	}
	return preset.Source{}, fmt.Errorf("unsupported framework %q (supported: %s)", name, strings.Join(Frameworks, ", "))
}

// FrameworkEntry is the virtual module rendering stories for a framework.
func FrameworkEntry(name string) string { return "docshell:framework/" + name }

// Register adds every built-in preset to c.
func Register(c *preset.Catalog) error {
	for name, f := range map[string]preset.Factory{
		Common:  commonPreset,
		Manager: managerPreset,
		Preview: previewPreset,
		Env:     envPreset,
		Static:  staticPreset,
		Cache:   cachePreset,
	} {
		if err := c.Register(name, f); err != nil {
			return err
		}
	}
	for _, fw := range Frameworks {
		if err := c.Register(frameworkPrefix+fw, frameworkPreset(fw)); err != nil {
			return err
		}
	}
	return nil
}

// NewCatalog returns a catalog with the built-in presets registered.
func NewCatalog() *preset.Catalog {
	c := preset.NewCatalog()
	if err := Register(c); err != nil {
		panic(err)
	}
	return c
}
