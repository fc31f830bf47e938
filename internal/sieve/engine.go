// Package sieve implements transformation-rule selection over per-file contexts
package sieve

import "sync"

// PathSettings is the user-level path filter applied on top of whatever the
// rules themselves declare.
type PathSettings struct {
	Include []Pattern
	Exclude []Pattern
}

// Override is a configuration fragment merged after the main rule list. Its
// rules pass through the lifecycle gates on their own, so a rule the phase
// gate removed from the main list never resurfaces through an override.
type Override struct {
	Rules []Rule
}

// Config is the resolved input of an Engine.
type Config struct {
	Rules     []Rule
	Overrides []Override
	Path      PathSettings
	Build     BuildInfo
}

// Engine holds the phase-gated rule lists for one build and hands out
// compiled, environment-specific rule sets. Safe for concurrent use.
type Engine struct {
	path      PathSettings
	build     BuildInfo
	main      []Rule
	overrides [][]Rule

	mu   sync.Mutex
	sets map[string]*RuleSet
}

// NewEngine applies the phase gate to cfg's rule lists and prepares the
// per-environment cache. Overrides are gated fragment by fragment and merged
// after the main list when rule sets are built.
func NewEngine(cfg Config) *Engine {
	e := &Engine{
		path:  cfg.Path,
		build: cfg.Build,
		main:  ApplyPhaseGate(cfg.Rules, cfg.Build),
		sets:  make(map[string]*RuleSet),
	}
	for _, ov := range cfg.Overrides {
		e.overrides = append(e.overrides, ApplyPhaseGate(ov.Rules, cfg.Build))
	}
	return e
}

// Build returns the build this engine was configured for.
func (e *Engine) Build() BuildInfo {
	return e.build
}

// ForEnvironment returns the rule set compiled for env, building it on first
// use and caching it by environment name afterwards. A nil env selects the
// environment-free set, which skips environment gating entirely. Returned
// rule sets are immutable and safe to share across goroutines.
func (e *Engine) ForEnvironment(env *Environment) *RuleSet {
	key := ""
	if env != nil {
		key = env.Name
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if rs, ok := e.sets[key]; ok {
		return rs
	}
	rs := e.newRuleSet(env)
	e.sets[key] = rs
	return rs
}

func (e *Engine) newRuleSet(env *Environment) *RuleSet {
	var rules []Rule
	for _, fragment := range append([][]Rule{e.main}, e.overrides...) {
		if env != nil {
			fragment = ApplyEnvGate(fragment, *env)
		}
		rules = append(rules, fragment...)
	}
	preds := make([]Predicate, len(rules))
	for i, r := range rules {
		if r.Annot != nil {
			preds[i] = CompileFilterSpec(r.Annot.Filter)
		}
	}
	return &RuleSet{
		rules: rules,
		preds: preds,
		pre:   ComposePreFilter(rules, e.path),
	}
}

// RuleSet is one immutable, environment-specific compilation of the rule
// configuration.
type RuleSet struct {
	rules []Rule
	preds []Predicate
	pre   *PreFilter
}

// Rules returns the gated rules in configuration order. The returned slice
// is shared; callers must not modify it.
func (s *RuleSet) Rules() []Rule {
	return s.rules
}

// PreFilter returns the composed pre-filter for this rule set.
func (s *RuleSet) PreFilter() *PreFilter {
	return s.pre
}

// Empty reports whether no rule survived gating.
func (s *RuleSet) Empty() bool {
	return len(s.rules) == 0
}

// Select returns the rules matching fc, in configuration order.
func (s *RuleSet) Select(fc FileContext) []Rule {
	return Select(fc, s.rules, s.preds)
}
