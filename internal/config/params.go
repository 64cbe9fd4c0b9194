// Package config holds the string key/value parameter map that configures a run.
package config

import (
	_ "embed"
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

//go:embed defaults.yaml
var defaultsYAML []byte

// Params maps dotted parameter names to their textual values.
type Params map[string]string

// Defaults returns the documented default parameters.
func Defaults() Params {
	p, err := Parse(defaultsYAML)
	if err != nil {
		panic(fmt.Sprintf("embedded defaults: %v", err))
	}
	return p
}

// Load reads a YAML parameter file.
func Load(path string) (Params, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}
	p, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	return p, nil
}

// Parse flattens a YAML document into dotted keys.
func Parse(data []byte) (Params, error) {
	var raw map[string]any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, err
	}
	p := Params{}
	if err := flatten(p, "", raw); err != nil {
		return nil, err
	}
	return p, nil
}

func flatten(dst Params, prefix string, v any) error {
	switch val := v.(type) {
	case map[string]any:
		for k, child := range val {
			key := k
			if prefix != "" {
				key = prefix + "." + k
			}
			if err := flatten(dst, key, child); err != nil {
				return err
			}
		}
	case []any:
		return fmt.Errorf("parameter %s: lists are not supported", prefix)
	case nil:
		if prefix != "" {
			dst[prefix] = ""
		}
	default:
		if prefix == "" {
			return fmt.Errorf("parameter document must be a mapping")
		}
		dst[prefix] = fmt.Sprint(val)
	}
	return nil
}

// ParseOverrides reads key=value pairs.
func ParseOverrides(pairs []string) (Params, error) {
	p := Params{}
	for _, pair := range pairs {
		key, value, ok := strings.Cut(pair, "=")
		key = strings.TrimSpace(key)
		if !ok || key == "" {
			return nil, fmt.Errorf("invalid parameter override %q, want key=value", pair)
		}
		p[key] = strings.TrimSpace(value)
	}
	return p, nil
}

// Merge returns a copy of p overlaid with each of others in order.
func (p Params) Merge(others ...Params) Params {
	out := make(Params, len(p))
	for k, v := range p {
		out[k] = v
	}
	for _, o := range others {
		for k, v := range o {
			out[k] = v
		}
	}
	return out
}

func (p Params) Has(key string) bool {
	v, ok := p[key]
	return ok && strings.TrimSpace(v) != ""
}

func (p Params) String(key, def string) string {
	if !p.Has(key) {
		return def
	}
	return strings.TrimSpace(p[key])
}

func (p Params) Int(key string, def int) (int, error) {
	if !p.Has(key) {
		return def, nil
	}
	v, err := strconv.Atoi(strings.TrimSpace(p[key]))
	if err != nil {
		return 0, fmt.Errorf("parameter %s: %w", key, err)
	}
	return v, nil
}

func (p Params) Int64(key string, def int64) (int64, error) {
	if !p.Has(key) {
		return def, nil
	}
	v, err := strconv.ParseInt(strings.TrimSpace(p[key]), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("parameter %s: %w", key, err)
	}
	return v, nil
}

func (p Params) Float(key string, def float64) (float64, error) {
	if !p.Has(key) {
		return def, nil
	}
	v, err := strconv.ParseFloat(strings.TrimSpace(p[key]), 64)
	if err != nil {
		return 0, fmt.Errorf("parameter %s: %w", key, err)
	}
	return v, nil
}

// Bool accepts the numeric flags 0/1 as well as true/false.
func (p Params) Bool(key string, def bool) (bool, error) {
	if !p.Has(key) {
		return def, nil
	}
	s := strings.TrimSpace(p[key])
	if n, err := strconv.ParseFloat(s, 64); err == nil {
		return n != 0, nil
	}
	v, err := strconv.ParseBool(s)
	if err != nil {
		return false, fmt.Errorf("parameter %s: %w", key, err)
	}
	return v, nil
}

func (p Params) Duration(key string, def time.Duration) (time.Duration, error) {
	if !p.Has(key) {
		return def, nil
	}
	s := strings.TrimSpace(p[key])
	if s == "0" {
		return 0, nil
	}
	v, err := time.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("parameter %s: %w", key, err)
	}
	return v, nil
}

// Keys returns the parameter names in sorted order.
func (p Params) Keys() []string {
	keys := make([]string, 0, len(p))
	for k := range p {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
