package config

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

// PresetEntry is a preset reference in main.yaml. It accepts either a bare
// name or a mapping with name and options.
type PresetEntry struct {
	Name    string         `yaml:"name"`
	Options map[string]any `yaml:"options,omitempty"`
}

// UnmarshalYAML implements yaml.Unmarshaler for the string-or-mapping form.
func (p *PresetEntry) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.ScalarNode:
		var name string
		if err := node.Decode(&name); err != nil {
			return err
		}
		p.Name = name
		p.Options = nil
		return nil
	case yaml.MappingNode:
		type plain PresetEntry
		var raw plain
		if err := node.Decode(&raw); err != nil {
			return err
		}
		*p = PresetEntry(raw)
		return nil
	default:
		return fmt.Errorf("line %d: preset entry must be a string or a mapping", node.Line)
	}
}

// MarshalYAML emits the short string form when no options are set.
func (p PresetEntry) MarshalYAML() (any, error) {
	if len(p.Options) == 0 {
		return p.Name, nil
	}
	type plain PresetEntry
	return plain(p), nil
}

// UserPresets returns presets followed by addons, the order in which user
// presets are registered.
func (c *Config) UserPresets() []PresetEntry {
	out := make([]PresetEntry, 0, len(c.Presets)+len(c.Addons))
	out = append(out, c.Presets...)
	out = append(out, c.Addons...)
	return out
}
