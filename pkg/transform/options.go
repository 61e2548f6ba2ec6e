package transform

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// Options are per-rule settings taken from configuration.
type Options map[string]any

// String returns the string option key, or def when it is unset.
func (o Options) String(key, def string) string {
	if v, ok := o[key].(string); ok && v != "" {
		return v
	}

	return def
}

// Bool returns the boolean option key, or def when it is unset.
func (o Options) Bool(key string, def bool) bool {
	if v, ok := o[key].(bool); ok {
		return v
	}

	return def
}

// OptionType is the value type of a rule option.
type OptionType int

// Option value types.
const (
	StringOption OptionType = iota
	BoolOption
	IntOption
)

// String returns the name shown in rule listings.
func (t OptionType) String() string {
	switch t {
	case StringOption:
		return "string"
	case BoolOption:
		return "bool"
	case IntOption:
		return "int"
	default:
		return "unknown"
	}
}

// OptionSpec declares one option a rule accepts.
type OptionSpec struct {
	// Default is used when the option is not configured.
	Default any
	// Name is the key under the rule's options in configuration.
	Name string
	// Description is the help text shown by rule listings.
	Description string
	// Type is the kind of value the option holds.
	Type OptionType
}

// FormatDefault renders the default value for listings.
func (o OptionSpec) FormatDefault() string {
	if o.Type == StringOption {
		return fmt.Sprintf("%q", o.Default)
	}

	return fmt.Sprint(o.Default)
}

// convert coerces a configured value to the declared type. Strings are
// accepted for every type since command line and environment values arrive
// as text.
func (o OptionSpec) convert(raw any) (any, error) {
	text, isText := raw.(string)

	switch o.Type {
	case StringOption:
		if isText {
			return text, nil
		}
	case BoolOption:
		if b, ok := raw.(bool); ok {
			return b, nil
		}

		if isText {
			b, err := strconv.ParseBool(strings.TrimSpace(text))
			if err == nil {
				return b, nil
			}
		}
	case IntOption:
		switch v := raw.(type) {
		case int:
			return v, nil
		case int64:
			return int(v), nil
		case float64:
			if v == float64(int(v)) {
				return int(v), nil
			}
		case string:
			n, err := strconv.Atoi(strings.TrimSpace(v))
			if err == nil {
				return n, nil
			}
		}
	}

	return nil, fmt.Errorf("%w: %s wants %s, got %v", ErrOptionType, o.Name, o.Type, raw)
}

// WithOption declares an option the rule reads.
func WithOption(spec OptionSpec) Option {
	return func(p *Plugin) error {
		p.options = append(p.options, spec)

		return nil
	}
}

// Options returns the declared options sorted by name.
func (p *Plugin) Options() []OptionSpec {
	specs := append([]OptionSpec(nil), p.options...)
	sort.Slice(specs, func(i, j int) bool { return specs[i].Name < specs[j].Name })

	return specs
}

// ResolveOptions checks raw against the declared options, converts each
// value to its declared type and fills in defaults.
func (p *Plugin) ResolveOptions(raw map[string]any) (Options, error) {
	resolved := make(Options, len(p.options))

	for _, spec := range p.options {
		if spec.Default != nil {
			resolved[spec.Name] = spec.Default
		}
	}

	for key, value := range raw {
		spec, ok := p.option(key)
		if !ok {
			return nil, fmt.Errorf("rule %s: %w %q", p.name, ErrUnknownOption, key)
		}

		converted, err := spec.convert(value)
		if err != nil {
			return nil, fmt.Errorf("rule %s: %w", p.name, err)
		}

		resolved[spec.Name] = converted
	}

	return resolved, nil
}

// option finds a declared option. Viper lowercases configuration keys, so
// the lookup ignores case.
func (p *Plugin) option(key string) (OptionSpec, bool) {
	for _, spec := range p.options {
		if strings.EqualFold(spec.Name, key) {
			return spec, true
		}
	}

	return OptionSpec{}, false
}
