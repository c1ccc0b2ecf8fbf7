package seed

import (
	_ "embed"
	"fmt"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed presets.yml
var presetsYAML []byte

type presetFile struct {
	Presets map[string]Options `yaml:"presets"`
}

// Presets returns the built-in presets keyed by lower-case name.
func Presets() (map[string]Options, error) {
	return parsePresets(presetsYAML)
}

func parsePresets(raw []byte) (map[string]Options, error) {
	var file presetFile
	if err := yaml.Unmarshal(raw, &file); err != nil {
		return nil, fmt.Errorf("parse presets: %w", err)
	}
	out := make(map[string]Options, len(file.Presets))
	for name, opts := range file.Presets {
		if opts.Users < len(opts.Accounts) {
			opts.Users = len(opts.Accounts)
		}
		out[strings.ToLower(name)] = opts
	}
	return out, nil
}

// Preset looks up a built-in preset by name, case-insensitively.
func Preset(name string) (Options, error) {
	presets, err := Presets()
	if err != nil {
		return Options{}, err
	}
	opts, ok := presets[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		names := make([]string, 0, len(presets))
		for n := range presets {
			names = append(names, n)
		}
		sort.Strings(names)
		return Options{}, fmt.Errorf("unknown seed preset %q (available: %s)", name, strings.Join(names, ", "))
	}
	return opts, nil
}
