package config

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/bethropolis/rule-sieve/internal/compiler"
	"github.com/bethropolis/rule-sieve/internal/sieve"
)

// Resolved is the bridge between configuration and the engine: the core
// config ready for sieve.NewEngine, the extension classification table, and
// the external compiler spec.
type Resolved struct {
	Core       sieve.Config
	Categories map[string]string // extension (lowercase, no dot) -> category tag
	Compiler   compiler.Spec
}

// Resolve merges the rules file with the flag overrides and resolves every
// default, so the engine only ever sees fully settled inputs. Flag values
// win field by field; defaults apply only where both layers are silent.
func Resolve(f *File, c *Config) (*Resolved, error) {
	if f == nil {
		f = DefaultFile()
	}

	categories := categoryTable(f.Categories)

	include, err := csvPatterns(c.Include)
	if err != nil {
		return nil, err
	}
	if include == nil {
		include = f.Include
	}
	if include == nil {
		include = defaultInclude(f.Categories)
	}

	exclude, err := csvPatterns(c.Exclude)
	if err != nil {
		return nil, err
	}
	if exclude == nil {
		exclude = f.Exclude
	}
	if exclude == nil {
		exclude = defaultExclude()
	}

	rules, err := resolveRules(f.Rules, nil)
	if err != nil {
		return nil, err
	}
	var overrides []sieve.Override
	for i, ov := range f.Overrides {
		ovRules, err := resolveRules(ov.Rules, overridePath(ov))
		if err != nil {
			return nil, fmt.Errorf("override %d: %w", i+1, err)
		}
		overrides = append(overrides, sieve.Override{Rules: ovRules})
	}

	phase := c.Phase
	if c.Watch {
		phase = "watch"
	}

	spec := compiler.Spec{
		Command: f.Compiler.Command,
		Args:    f.Compiler.Args,
		Timeout: time.Duration(f.Compiler.Timeout),
	}
	if spec.Command == "" && !c.DryRun {
		return nil, ErrNoCommand
	}

	return &Resolved{
		Core: sieve.Config{
			Rules:     rules,
			Overrides: overrides,
			Path:      sieve.PathSettings{Include: include, Exclude: exclude},
			Build:     sieve.BuildInfo{Phase: phase, Mode: c.Mode},
		},
		Categories: categories,
		Compiler:   spec,
	}, nil
}

// resolveRules converts rule entries into engine rules. fallbackPath, when
// non-nil, becomes the path filter of rules that declare none of their own
// (override fragments narrow their rules this way).
func resolveRules(entries []RuleConfig, fallbackPath *sieve.DimensionFilter) ([]sieve.Rule, error) {
	var rules []sieve.Rule
	for i, rc := range entries {
		if rc.Name == "" {
			return nil, fmt.Errorf("%w (rule %d)", ErrBadRule, i+1)
		}
		payload := compiler.Preset{Name: rc.Name, Args: rc.Args}

		spec := rc.Filter.spec()
		if fallbackPath != nil {
			if spec == nil {
				spec = &sieve.FilterSpec{Path: fallbackPath}
			} else if spec.Path == nil {
				spec.Path = fallbackPath
			}
		}

		phase := phaseGate(rc.Phases)
		env := envGate(rc.Environments)
		if spec == nil && phase == nil && env == nil {
			rules = append(rules, sieve.Plain(payload))
			continue
		}
		rules = append(rules, sieve.Annotated(payload, sieve.Annotation{
			Filter: spec,
			Phase:  phase,
			Env:    env,
		}))
	}
	return rules, nil
}

func overridePath(ov OverrideConfig) *sieve.DimensionFilter {
	if ov.Include == nil && ov.Exclude == nil {
		return nil
	}
	return &sieve.DimensionFilter{Include: ov.Include, Exclude: ov.Exclude}
}

// phaseGate compiles a phase name list into a gate closure. An empty list
// means the rule runs in every phase, which the engine expresses as no gate.
func phaseGate(phases []string) sieve.PhaseGate {
	if len(phases) == 0 {
		return nil
	}
	set := stringSet(phases)
	return func(b sieve.BuildInfo) bool {
		_, ok := set[b.Phase]
		return ok
	}
}

func envGate(names []string) sieve.EnvGate {
	if len(names) == 0 {
		return nil
	}
	set := stringSet(names)
	return func(e sieve.Environment) bool {
		_, ok := set[e.Name]
		return ok
	}
}

func stringSet(values []string) map[string]struct{} {
	set := make(map[string]struct{}, len(values))
	for _, v := range values {
		set[v] = struct{}{}
	}
	return set
}

// csvPatterns parses a comma-separated glob list from a flag value. An empty
// flag yields nil so the file or default layer can take over.
func csvPatterns(csv string) ([]sieve.Pattern, error) {
	if csv == "" {
		return nil, nil
	}
	var patterns []sieve.Pattern
	for _, part := range strings.Split(csv, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		if !doublestar.ValidatePattern(part) {
			return nil, fmt.Errorf("%w: invalid glob %q", ErrBadPattern, part)
		}
		patterns = append(patterns, sieve.Glob(part))
	}
	return patterns, nil
}

// categoryTable inverts the tag->extensions map into extension->tag.
// Iteration is sorted so an extension listed under two tags classifies the
// same way on every run.
func categoryTable(categories map[string][]string) map[string]string {
	table := make(map[string]string)
	for _, tag := range sortedKeys(categories) {
		for _, ext := range categories[tag] {
			ext = cleanExt(ext)
			if ext == "" {
				continue
			}
			if _, taken := table[ext]; !taken {
				table[ext] = tag
			}
		}
	}
	return table
}

// defaultInclude derives the user-level include defaults from the category
// extensions: one `**/*.<ext>` glob per classified extension.
func defaultInclude(categories map[string][]string) []sieve.Pattern {
	var patterns []sieve.Pattern
	seen := make(map[string]struct{})
	for _, tag := range sortedKeys(categories) {
		for _, ext := range categories[tag] {
			ext = cleanExt(ext)
			if ext == "" {
				continue
			}
			if _, dup := seen[ext]; dup {
				continue
			}
			seen[ext] = struct{}{}
			patterns = append(patterns, sieve.Glob("**/*."+ext))
		}
	}
	return patterns
}

func defaultExclude() []sieve.Pattern {
	return []sieve.Pattern{
		sieve.Glob("**/node_modules/**"),
		sieve.Glob("**/vendor/**"),
	}
}

func sortedKeys(m map[string][]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func cleanExt(ext string) string {
	return strings.ToLower(strings.TrimSpace(strings.TrimPrefix(ext, ".")))
}
