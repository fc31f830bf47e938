// Package sieve implements transformation-rule selection over per-file contexts
//
// Rules declare where they apply through a FilterSpec over three dimensions
// (path, category, content) plus lifecycle gates (build phase, environment).
// The package compiles those declarations into per-file predicates, selects
// matching rules in configuration order, and composes a conservative
// pre-filter that lets callers skip files no rule can possibly match.
package sieve

// DimensionFilter narrows one string-valued dimension with include and
// exclude pattern lists.
//
// A nil Include means every value is included; an empty non-nil Include
// includes nothing. Exclusion always wins over inclusion.
type DimensionFilter struct {
	Include []Pattern `yaml:"include,omitempty" json:"include,omitempty"`
	Exclude []Pattern `yaml:"exclude,omitempty" json:"exclude,omitempty"`
}

// TagFilter narrows the category dimension by exact tag membership. Category
// values are short classifier tags, not paths, so there is no pattern
// matching and no exclude side.
type TagFilter struct {
	Include []string `yaml:"include,omitempty" json:"include,omitempty"`
}

// FilterSpec is the declarative per-file filter of one rule. A nil dimension
// leaves that dimension unconstrained.
type FilterSpec struct {
	Path     *DimensionFilter
	Category *TagFilter
	Content  *DimensionFilter
}

// Annotation carries the optional selection behavior of a rule: the per-file
// filter and the lifecycle gates.
type Annotation struct {
	Filter *FilterSpec
	Phase  PhaseGate
	Env    EnvGate
}

// Rule pairs an opaque payload with its selection annotation. The payload is
// never inspected here; it is whatever the caller hands to the consumers of
// selected rules. A nil Annot marks a plain rule that is always selected.
type Rule struct {
	Payload any
	Annot   *Annotation
}

// Plain returns a rule with no selection behavior.
func Plain(payload any) Rule {
	return Rule{Payload: payload}
}

// Annotated returns a rule with the given selection behavior.
func Annotated(payload any, a Annotation) Rule {
	return Rule{Payload: payload, Annot: &a}
}

// constrained reports whether the rule carries any per-file filter at all.
func (r Rule) constrained() bool {
	return r.Annot != nil && r.Annot.Filter != nil
}
