package sieve

import (
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCompileFilterSpec_NoConstraints(t *testing.T) {
	assert.Nil(t, CompileFilterSpec(nil))
	assert.Nil(t, CompileFilterSpec(&FilterSpec{}))

	// Dimensions present but empty-handed still constrain nothing.
	assert.Nil(t, CompileFilterSpec(&FilterSpec{Path: &DimensionFilter{}}))
}

func TestCompileFilterSpec_IncludeOnly(t *testing.T) {
	pred := CompileFilterSpec(&FilterSpec{
		Path: &DimensionFilter{Include: []Pattern{Glob("**/*.go"), Glob("**/*.md")}},
	})
	require.NotNil(t, pred)

	assert.True(t, pred(FileContext{Path: "pkg/main.go"}))
	assert.True(t, pred(FileContext{Path: "README.md"}))
	assert.False(t, pred(FileContext{Path: "style.css"}))
}

func TestCompileFilterSpec_ExcludeWins(t *testing.T) {
	pred := CompileFilterSpec(&FilterSpec{
		Path: &DimensionFilter{
			Include: []Pattern{Glob("**/*.go")},
			Exclude: []Pattern{Glob("**/*_test.go")},
		},
	})
	require.NotNil(t, pred)

	assert.True(t, pred(FileContext{Path: "pkg/main.go"}))
	assert.False(t, pred(FileContext{Path: "pkg/main_test.go"}), "excluded even though include matches")
}

func TestCompileFilterSpec_ExcludeOnly(t *testing.T) {
	pred := CompileFilterSpec(&FilterSpec{
		Path: &DimensionFilter{Exclude: []Pattern{Glob("vendor/**")}},
	})
	require.NotNil(t, pred)

	assert.True(t, pred(FileContext{Path: "pkg/main.go"}), "absent include matches everything")
	assert.False(t, pred(FileContext{Path: "vendor/lib/x.go"}))
}

func TestCompileFilterSpec_EmptyIncludeMatchesNothing(t *testing.T) {
	pred := CompileFilterSpec(&FilterSpec{
		Path: &DimensionFilter{Include: []Pattern{}},
	})
	require.NotNil(t, pred)

	assert.False(t, pred(FileContext{Path: "anything"}))
	assert.False(t, pred(FileContext{Path: ""}))
}

func TestCompileFilterSpec_CategoryMembership(t *testing.T) {
	pred := CompileFilterSpec(&FilterSpec{
		Category: &TagFilter{Include: []string{"go", "proto"}},
	})
	require.NotNil(t, pred)

	assert.True(t, pred(FileContext{Category: "go"}))
	assert.True(t, pred(FileContext{Category: "proto"}))
	assert.False(t, pred(FileContext{Category: "js"}))
	assert.False(t, pred(FileContext{Category: "GO"}), "tags are case sensitive")
}

func TestCompileFilterSpec_AllDimensionsMustPass(t *testing.T) {
	pred := CompileFilterSpec(&FilterSpec{
		Path:     &DimensionFilter{Include: []Pattern{Glob("src/**")}},
		Category: &TagFilter{Include: []string{"js"}},
		Content:  &DimensionFilter{Include: []Pattern{Regexp(regexp.MustCompile(`console\.log`))}},
	})
	require.NotNil(t, pred)

	match := FileContext{Path: "src/app.js", Category: "js", Content: `console.log("x")`}
	assert.True(t, pred(match))

	wrongPath := match
	wrongPath.Path = "lib/app.js"
	assert.False(t, pred(wrongPath))

	wrongCategory := match
	wrongCategory.Category = "ts"
	assert.False(t, pred(wrongCategory))

	wrongContent := match
	wrongContent.Content = "nothing here"
	assert.False(t, pred(wrongContent))
}

func TestCompileFilterSpec_DynamicPattern(t *testing.T) {
	long := MatchFunc("long-path", func(v string) bool { return len(v) > 10 })
	pred := CompileFilterSpec(&FilterSpec{
		Path: &DimensionFilter{Include: []Pattern{long}},
	})
	require.NotNil(t, pred)

	assert.True(t, pred(FileContext{Path: "a/very/long/path.go"}))
	assert.False(t, pred(FileContext{Path: "a.go"}))
}
