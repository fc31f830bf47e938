//go:build property
// +build property

// Package sieve_test holds property-based checks for pre-filter composition.
package sieve_test

import (
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"

	"github.com/bethropolis/rule-sieve/internal/sieve"
)

var (
	propGlobs = []string{"**/*.go", "**/*.md", "src/**", "docs/**", "**/*_test.go", "*.css", "lib/**/*.js"}
	propTags  = []string{"go", "md", "js", "css"}
	propPaths = []string{
		"main.go", "src/app.go", "src/deep/app_test.go", "docs/guide.md",
		"style.css", "lib/a/x.js", "vendor/mod/y.go", "README.md",
	}
	propContents = []string{"", "// TODO later", "clean", "FIXME now"}
)

// ruleFromSeed derives one rule from three generated ints. The modes cover
// plain rules, static filters on each dimension, and dynamic matchers.
func ruleFromSeed(mode, a, b int) sieve.Rule {
	glob := func(i int) sieve.Pattern { return sieve.Glob(propGlobs[i%len(propGlobs)]) }
	tag := func(i int) string { return propTags[i%len(propTags)] }

	switch mode % 6 {
	case 0:
		return sieve.Plain(mode)
	case 1:
		return sieve.Annotated(mode, sieve.Annotation{Filter: &sieve.FilterSpec{
			Path: &sieve.DimensionFilter{Include: []sieve.Pattern{glob(a)}},
		}})
	case 2:
		return sieve.Annotated(mode, sieve.Annotation{Filter: &sieve.FilterSpec{
			Path: &sieve.DimensionFilter{
				Include: []sieve.Pattern{glob(a), glob(b)},
				Exclude: []sieve.Pattern{glob(a + b)},
			},
		}})
	case 3:
		return sieve.Annotated(mode, sieve.Annotation{Filter: &sieve.FilterSpec{
			Path:     &sieve.DimensionFilter{Include: []sieve.Pattern{glob(a)}},
			Category: &sieve.TagFilter{Include: []string{tag(b)}},
		}})
	case 4:
		return sieve.Annotated(mode, sieve.Annotation{Filter: &sieve.FilterSpec{
			Category: &sieve.TagFilter{Include: []string{tag(a), tag(b)}},
		}})
	default:
		dyn := sieve.MatchFunc("seeded", func(v string) bool { return len(v)%2 == a%2 })
		return sieve.Annotated(mode, sieve.Annotation{Filter: &sieve.FilterSpec{
			Path: &sieve.DimensionFilter{Include: []sieve.Pattern{dyn}},
		}})
	}
}

func rulesFromSeeds(seeds []int) []sieve.Rule {
	var rules []sieve.Rule
	for i := 0; i+2 < len(seeds); i += 3 {
		rules = append(rules, ruleFromSeed(seeds[i], seeds[i+1], seeds[i+2]))
	}
	return rules
}

func compilePreds(rules []sieve.Rule) []sieve.Predicate {
	preds := make([]sieve.Predicate, len(rules))
	for i, r := range rules {
		if r.Annot != nil {
			preds[i] = sieve.CompileFilterSpec(r.Annot.Filter)
		}
	}
	return preds
}

// TestPreFilterConservative verifies the pre-filter never rejects a file some
// rule would select.
// Property: len(Select(fc)) > 0 => Allows(fc) on every dimension
func TestPreFilterConservative(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 500
	properties := gopter.NewProperties(parameters)

	properties.Property("selected files always pass the pre-filter", prop.ForAll(
		func(seeds []int, pathIdx, tagIdx, contentIdx int) bool {
			rules := rulesFromSeeds(seeds)
			pf := sieve.ComposePreFilter(rules, sieve.PathSettings{})
			fc := sieve.FileContext{
				Path:     propPaths[pathIdx%len(propPaths)],
				Category: propTags[tagIdx%len(propTags)],
				Content:  propContents[contentIdx%len(propContents)],
			}

			if len(sieve.Select(fc, rules, compilePreds(rules))) == 0 {
				return true
			}
			return pf.AllowsPath(fc.Path) && pf.AllowsCategory(fc.Category) && pf.AllowsContent(fc.Content)
		},
		gen.SliceOfN(12, gen.IntRange(0, 1000)),
		gen.IntRange(0, 1000),
		gen.IntRange(0, 1000),
		gen.IntRange(0, 1000),
	))

	properties.TestingRun(t)
}

// TestPreFilterMonotone verifies that widening one rule's include list never
// shrinks the composed pre-filter.
// Property: pf.Allows(fc) => widened(pf).Allows(fc)
func TestPreFilterMonotone(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 300
	properties := gopter.NewProperties(parameters)

	properties.Property("widening a rule widens the composition", prop.ForAll(
		func(seeds []int, extraIdx int) bool {
			rules := rulesFromSeeds(seeds)
			before := sieve.ComposePreFilter(rules, sieve.PathSettings{})

			// Widen the first rule carrying a static path include.
			widened := make([]sieve.Rule, len(rules))
			copy(widened, rules)
			for i, r := range widened {
				if r.Annot == nil || r.Annot.Filter == nil || r.Annot.Filter.Path == nil {
					continue
				}
				df := *r.Annot.Filter.Path
				if df.Include == nil {
					continue
				}
				df.Include = append(append([]sieve.Pattern(nil), df.Include...),
					sieve.Glob(propGlobs[extraIdx%len(propGlobs)]))
				fs := *r.Annot.Filter
				fs.Path = &df
				widened[i] = sieve.Annotated(r.Payload, sieve.Annotation{Filter: &fs})
				break
			}
			after := sieve.ComposePreFilter(widened, sieve.PathSettings{})

			for _, path := range propPaths {
				if before.AllowsPath(path) && !after.AllowsPath(path) {
					return false
				}
			}
			for _, tag := range propTags {
				if before.AllowsCategory(tag) && !after.AllowsCategory(tag) {
					return false
				}
			}
			return true
		},
		gen.SliceOfN(12, gen.IntRange(0, 1000)),
		gen.IntRange(0, 1000),
	))

	properties.TestingRun(t)
}

// TestUserIncludeReplaces verifies the user include list always replaces the
// rule-derived union, whatever the rules look like.
func TestUserIncludeReplaces(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 300
	properties := gopter.NewProperties(parameters)

	properties.Property("user include is the composed include", prop.ForAll(
		func(seeds []int, userIdx int) bool {
			rules := rulesFromSeeds(seeds)
			userGlob := propGlobs[userIdx%len(propGlobs)]
			pf := sieve.ComposePreFilter(rules, sieve.PathSettings{
				Include: []sieve.Pattern{sieve.Glob(userGlob)},
			})

			if pf.Path == nil || len(pf.Path.Include) != 1 {
				return false
			}
			return pf.Path.Include[0].String() == userGlob
		},
		gen.SliceOfN(12, gen.IntRange(0, 1000)),
		gen.IntRange(0, 1000),
	))

	properties.TestingRun(t)
}

// TestSelectOrderStable verifies selection preserves configuration order.
func TestSelectOrderStable(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 300
	properties := gopter.NewProperties(parameters)

	properties.Property("selected rules keep their relative order", prop.ForAll(
		func(seeds []int, pathIdx int) bool {
			rules := rulesFromSeeds(seeds)
			for i := range rules {
				rules[i].Payload = i
			}
			fc := sieve.FileContext{Path: propPaths[pathIdx%len(propPaths)], Category: "go"}

			prev := -1
			for _, r := range sieve.Select(fc, rules, compilePreds(rules)) {
				idx := r.Payload.(int)
				if idx <= prev {
					return false
				}
				prev = idx
			}
			return true
		},
		gen.SliceOfN(15, gen.IntRange(0, 1000)),
		gen.IntRange(0, 1000),
	))

	properties.TestingRun(t)
}
