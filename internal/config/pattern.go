package config

import (
	"fmt"
	"regexp"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"gopkg.in/yaml.v3"

	"github.com/bethropolis/rule-sieve/internal/sieve"
)

// PatternList accepts a single pattern node or a sequence of pattern nodes.
// Each node is either a glob string or a {regex: "..."} mapping.
type PatternList []sieve.Pattern

// UnmarshalYAML implements yaml.Unmarshaler.
func (l *PatternList) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind == yaml.SequenceNode {
		out := make(PatternList, 0, len(node.Content))
		for _, item := range node.Content {
			p, err := decodePattern(item)
			if err != nil {
				return err
			}
			out = append(out, p)
		}
		*l = out
		return nil
	}

	p, err := decodePattern(node)
	if err != nil {
		return err
	}
	*l = PatternList{p}
	return nil
}

// decodePattern parses one pattern node. Glob syntax is validated here so a
// typo fails the whole load instead of silently matching nothing later.
func decodePattern(node *yaml.Node) (sieve.Pattern, error) {
	switch node.Kind {
	case yaml.ScalarNode:
		var s string
		if err := node.Decode(&s); err != nil {
			return sieve.Pattern{}, fmt.Errorf("%w: line %d: %v", ErrBadPattern, node.Line, err)
		}
		if s == "" {
			return sieve.Pattern{}, fmt.Errorf("%w: empty pattern (line %d)", ErrBadPattern, node.Line)
		}
		if !doublestar.ValidatePattern(s) {
			return sieve.Pattern{}, fmt.Errorf("%w: invalid glob %q (line %d)", ErrBadPattern, s, node.Line)
		}
		return sieve.Glob(s), nil

	case yaml.MappingNode:
		var m struct {
			Regex *string `yaml:"regex"`
		}
		if err := node.Decode(&m); err != nil || m.Regex == nil {
			return sieve.Pattern{}, fmt.Errorf("%w: expected {regex: \"...\"} (line %d)", ErrBadPattern, node.Line)
		}
		re, err := regexp.Compile(*m.Regex)
		if err != nil {
			return sieve.Pattern{}, fmt.Errorf("%w: %v (line %d)", ErrBadPattern, err, node.Line)
		}
		return sieve.Regexp(re), nil
	}
	return sieve.Pattern{}, fmt.Errorf("%w: line %d", ErrBadPattern, node.Line)
}

// FilterDimension is one dimension of a rule filter as written in the rules
// file. Three shapes are accepted and all normalize to include/exclude
// lists: a single pattern, a bare pattern list (include only), or an
// {include, exclude} mapping.
type FilterDimension struct {
	Include PatternList
	Exclude PatternList
}

// UnmarshalYAML implements yaml.Unmarshaler.
func (d *FilterDimension) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.ScalarNode, yaml.SequenceNode:
		return node.Decode(&d.Include)

	case yaml.MappingNode:
		for i := 0; i+1 < len(node.Content); i += 2 {
			key, value := node.Content[i], node.Content[i+1]
			switch key.Value {
			case "include":
				if err := value.Decode(&d.Include); err != nil {
					return err
				}
			case "exclude":
				if err := value.Decode(&d.Exclude); err != nil {
					return err
				}
			default:
				return fmt.Errorf("%w: unknown key %q (line %d)", ErrBadFilterShape, key.Value, key.Line)
			}
		}
		return nil
	}
	return fmt.Errorf("%w: line %d", ErrBadFilterShape, node.Line)
}

// CategoryFilter is the category dimension of a rule filter: a bare tag list
// or an {include: [...]} mapping. Tags are exact strings, so there is no
// pattern syntax and no exclude side.
type CategoryFilter struct {
	Include []string
}

// UnmarshalYAML implements yaml.Unmarshaler.
func (c *CategoryFilter) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.SequenceNode:
		return node.Decode(&c.Include)

	case yaml.MappingNode:
		for i := 0; i+1 < len(node.Content); i += 2 {
			key, value := node.Content[i], node.Content[i+1]
			if key.Value != "include" {
				return fmt.Errorf("%w: unknown key %q (line %d)", ErrBadCategoryShape, key.Value, key.Line)
			}
			if err := value.Decode(&c.Include); err != nil {
				return err
			}
		}
		return nil
	}
	return fmt.Errorf("%w: line %d", ErrBadCategoryShape, node.Line)
}

// FilterConfig is the declarative per-rule filter. Dimensions left out of
// the rules file stay nil and match every file.
type FilterConfig struct {
	Path     *FilterDimension `yaml:"path"`
	Category *CategoryFilter  `yaml:"category"`
	Content  *FilterDimension `yaml:"content"`
}

// spec converts the parsed filter into the engine's form.
func (f *FilterConfig) spec() *sieve.FilterSpec {
	if f == nil {
		return nil
	}
	spec := &sieve.FilterSpec{}
	if f.Path != nil {
		spec.Path = &sieve.DimensionFilter{Include: f.Path.Include, Exclude: f.Path.Exclude}
	}
	if f.Category != nil {
		spec.Category = &sieve.TagFilter{Include: f.Category.Include}
	}
	if f.Content != nil {
		spec.Content = &sieve.DimensionFilter{Include: f.Content.Include, Exclude: f.Content.Exclude}
	}
	return spec
}

// Duration accepts flag-style duration strings ("30s", "2m") in YAML.
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler.
func (d *Duration) UnmarshalYAML(node *yaml.Node) error {
	var s string
	if err := node.Decode(&s); err != nil {
		return fmt.Errorf("%w: line %d: %v", ErrBadDuration, node.Line, err)
	}
	v, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("%w: %q (line %d)", ErrBadDuration, s, node.Line)
	}
	*d = Duration(v)
	return nil
}
