package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bethropolis/rule-sieve/internal/compiler"
	"github.com/bethropolis/rule-sieve/internal/sieve"
)

func patterns(ps []sieve.Pattern) []string {
	out := make([]string, 0, len(ps))
	for _, p := range ps {
		out = append(out, p.String())
	}
	return out
}

func dryRun() *Config {
	return &Config{Phase: "build", DryRun: true}
}

func TestResolve_PathDefaults(t *testing.T) {
	f := &File{Categories: map[string][]string{
		"typescript": {"ts", "tsx"},
		"javascript": {"js"},
	}}

	res, err := Resolve(f, dryRun())
	require.NoError(t, err)

	// Includes derive from the category extensions, tags in sorted order.
	assert.Equal(t, []string{"**/*.js", "**/*.ts", "**/*.tsx"},
		patterns(res.Core.Path.Include))
	assert.Equal(t, []string{"**/node_modules/**", "**/vendor/**"},
		patterns(res.Core.Path.Exclude))
}

// Rules constrained to .tsx/.jsx still pre-filter on the default include
// list: resolved user-level settings always win over the rule union.
func TestResolve_DefaultIncludeWinsOverRuleUnion(t *testing.T) {
	f := DefaultFile()
	f.Rules = []RuleConfig{
		{Name: "tsx", Filter: &FilterConfig{Path: &FilterDimension{Include: PatternList{sieve.Glob("**/*.tsx")}}}},
		{Name: "jsx", Filter: &FilterConfig{Path: &FilterDimension{Include: PatternList{sieve.Glob("**/*.jsx")}}}},
	}

	res, err := Resolve(f, dryRun())
	require.NoError(t, err)

	pf := sieve.ComposePreFilter(res.Core.Rules, res.Core.Path)
	require.NotNil(t, pf.Path)
	assert.Equal(t, patterns(res.Core.Path.Include), patterns(pf.Path.Include),
		"default include list replaces the .tsx/.jsx union")
	assert.True(t, pf.AllowsPath("app.ts"), "defaults keep files the rule union would have dropped")
}

func TestResolve_FlagsOverrideFile(t *testing.T) {
	f := DefaultFile()
	f.Include = PatternList{sieve.Glob("lib/**")}
	f.Exclude = PatternList{sieve.Glob("lib/gen/**")}

	c := dryRun()
	c.Include = "src/**, web/**"
	c.Exclude = "web/dist/**"

	res, err := Resolve(f, c)
	require.NoError(t, err)
	assert.Equal(t, []string{"src/**", "web/**"}, patterns(res.Core.Path.Include))
	assert.Equal(t, []string{"web/dist/**"}, patterns(res.Core.Path.Exclude))
}

func TestResolve_FileSettingsBeatDefaults(t *testing.T) {
	f := DefaultFile()
	f.Include = PatternList{sieve.Glob("app/**")}

	res, err := Resolve(f, dryRun())
	require.NoError(t, err)
	assert.Equal(t, []string{"app/**"}, patterns(res.Core.Path.Include))
	assert.Equal(t, []string{"**/node_modules/**", "**/vendor/**"},
		patterns(res.Core.Path.Exclude), "exclude still defaults independently")
}

func TestResolve_BadFlagGlob(t *testing.T) {
	c := dryRun()
	c.Include = "src/[unclosed"
	_, err := Resolve(DefaultFile(), c)
	assert.ErrorIs(t, err, ErrBadPattern)
}

func TestResolve_RuleKinds(t *testing.T) {
	f := DefaultFile()
	f.Rules = []RuleConfig{
		{Name: "plain", Args: []string{"--x"}},
		{Name: "filtered", Filter: &FilterConfig{Path: &FilterDimension{Include: PatternList{sieve.Glob("src/**")}}}},
		{Name: "gated", Phases: []string{"watch"}, Environments: []string{"client"}},
	}

	res, err := Resolve(f, dryRun())
	require.NoError(t, err)
	require.Len(t, res.Core.Rules, 3)

	plain := res.Core.Rules[0]
	assert.Nil(t, plain.Annot, "no filter and no gates compiles to a plain rule")
	assert.Equal(t, compiler.Preset{Name: "plain", Args: []string{"--x"}}, plain.Payload)

	filtered := res.Core.Rules[1]
	require.NotNil(t, filtered.Annot)
	require.NotNil(t, filtered.Annot.Filter)
	assert.Nil(t, filtered.Annot.Phase)

	gated := res.Core.Rules[2]
	require.NotNil(t, gated.Annot)
	assert.Nil(t, gated.Annot.Filter)
	assert.True(t, gated.Annot.Phase(sieve.BuildInfo{Phase: "watch"}))
	assert.False(t, gated.Annot.Phase(sieve.BuildInfo{Phase: "build"}))
	assert.True(t, gated.Annot.Env(sieve.Environment{Name: "client"}))
	assert.False(t, gated.Annot.Env(sieve.Environment{Name: "server"}))
}

func TestResolve_RuleWithoutName(t *testing.T) {
	f := DefaultFile()
	f.Rules = []RuleConfig{{Args: []string{"--x"}}}
	_, err := Resolve(f, dryRun())
	assert.ErrorIs(t, err, ErrBadRule)
}

func TestResolve_OverridePathFallback(t *testing.T) {
	f := DefaultFile()
	f.Overrides = []OverrideConfig{{
		Include: PatternList{sieve.Glob("legacy/**")},
		Rules: []RuleConfig{
			{Name: "inherits"},
			{Name: "own-path", Filter: &FilterConfig{Path: &FilterDimension{Include: PatternList{sieve.Glob("legacy/v2/**")}}}},
			{Name: "own-category", Filter: &FilterConfig{Category: &CategoryFilter{Include: []string{"go"}}}},
		},
	}}

	res, err := Resolve(f, dryRun())
	require.NoError(t, err)
	require.Len(t, res.Core.Overrides, 1)
	rules := res.Core.Overrides[0].Rules

	assert.Equal(t, []string{"legacy/**"}, patterns(rules[0].Annot.Filter.Path.Include),
		"rule without a filter inherits the fragment path")
	assert.Equal(t, []string{"legacy/v2/**"}, patterns(rules[1].Annot.Filter.Path.Include),
		"a rule's own path filter wins")
	assert.Equal(t, []string{"legacy/**"}, patterns(rules[2].Annot.Filter.Path.Include),
		"fragment path fills only the missing path dimension")
	assert.Equal(t, []string{"go"}, rules[2].Annot.Filter.Category.Include)
}

func TestResolve_WatchPhase(t *testing.T) {
	c := dryRun()
	c.Watch = true

	res, err := Resolve(DefaultFile(), c)
	require.NoError(t, err)
	assert.Equal(t, "watch", res.Core.Build.Phase)
}

func TestResolve_CompilerRequiredUnlessDryRun(t *testing.T) {
	_, err := Resolve(DefaultFile(), &Config{Phase: "build"})
	assert.ErrorIs(t, err, ErrNoCommand)

	f := DefaultFile()
	f.Compiler = CompilerConfig{Command: "swc-shim", Timeout: Duration(10 * time.Second)}
	res, err := Resolve(f, &Config{Phase: "build"})
	require.NoError(t, err)
	assert.Equal(t, "swc-shim", res.Compiler.Command)
	assert.Equal(t, 10*time.Second, res.Compiler.Timeout)
}

func TestResolve_CategoryTable(t *testing.T) {
	f := &File{Categories: map[string][]string{
		"typescript": {"TS", ".tsx"},
		"javascript": {"js"},
		"also-js":    {"js"}, // duplicate extension: sorted-first tag wins
	}}

	res, err := Resolve(f, dryRun())
	require.NoError(t, err)
	assert.Equal(t, "typescript", res.Categories["ts"], "extensions are lowercased and de-dotted")
	assert.Equal(t, "typescript", res.Categories["tsx"])
	assert.Equal(t, "also-js", res.Categories["js"])
}

func TestEnvironmentList(t *testing.T) {
	c := &Config{}
	assert.Equal(t, []*sieve.Environment{nil}, c.EnvironmentList())

	c.Environments = "client, server"
	envs := c.EnvironmentList()
	require.Len(t, envs, 2)
	assert.Equal(t, "client", envs[0].Name)
	assert.Equal(t, "server", envs[1].Name)

	c.Environments = " , "
	assert.Equal(t, []*sieve.Environment{nil}, c.EnvironmentList())
}
