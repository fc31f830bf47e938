package compiler

import (
	"context"
	"errors"
	"runtime"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEcho_PassesSourceThrough(t *testing.T) {
	src := []byte("let x = 1\n")
	out, err := Echo{}.Compile(context.Background(), "a.js", []Preset{{Name: "p"}}, src)
	require.NoError(t, err)
	assert.Equal(t, src, out)
}

func TestRunner_PipesSourceThroughCommand(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("relies on the cat command")
	}

	r := NewRunner(Spec{Command: "cat"})
	src := []byte("const a = 1;\n")
	out, err := r.Compile(context.Background(), "a.ts", []Preset{{Name: "noop"}}, src)
	require.NoError(t, err)
	assert.Equal(t, src, out)
}

func TestRunner_ReportsFailureWithExitCode(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("relies on the false command")
	}

	r := NewRunner(Spec{Command: "false"})
	_, err := r.Compile(context.Background(), "bad.ts", nil, []byte("x"))
	require.Error(t, err)

	var cerr *Error
	require.ErrorAs(t, err, &cerr)
	assert.Equal(t, "bad.ts", cerr.Path)
	assert.Equal(t, 1, cerr.ExitCode)
}

func TestRunner_MissingCommand(t *testing.T) {
	r := NewRunner(Spec{Command: "definitely-not-installed-anywhere"})
	_, err := r.Compile(context.Background(), "a.ts", nil, nil)

	var cerr *Error
	require.ErrorAs(t, err, &cerr)
	assert.Equal(t, -1, cerr.ExitCode)
	assert.NotNil(t, cerr.Unwrap())
}

func TestRunner_Timeout(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("relies on the sleep command")
	}

	r := NewRunner(Spec{Command: "sleep", Args: []string{"5"}, Timeout: 50 * time.Millisecond})
	start := time.Now()
	_, err := r.Compile(context.Background(), "slow.ts", nil, nil)
	require.Error(t, err)
	assert.Less(t, time.Since(start), 3*time.Second)

	var cerr *Error
	require.ErrorAs(t, err, &cerr)
	assert.ErrorIs(t, cerr.Unwrap(), context.DeadlineExceeded)
}

func TestError_MessagePrefersStderr(t *testing.T) {
	withStderr := &Error{Path: "a.ts", ExitCode: 1, Stderr: "syntax error at 3:1\ndetails", Err: errors.New("exit status 1")}
	assert.Equal(t, "compile a.ts: syntax error at 3:1", withStderr.Error())

	bare := &Error{Path: "a.ts", ExitCode: -1, Err: errors.New("executable not found")}
	assert.Equal(t, "compile a.ts: executable not found", bare.Error())
}

// countingCompiler counts real invocations behind a cache.
type countingCompiler struct {
	calls atomic.Int64
}

func (c *countingCompiler) Compile(_ context.Context, _ string, presets []Preset, src []byte) ([]byte, error) {
	c.calls.Add(1)
	if string(src) == "boom" {
		return nil, &Error{Path: "x", ExitCode: 1, Err: errors.New("exit status 1")}
	}
	out := append([]byte("ok:"), src...)
	return out, nil
}

func TestCache_MemoizesByPresetsAndContent(t *testing.T) {
	inner := &countingCompiler{}
	c, err := NewCache(8, inner)
	require.NoError(t, err)

	ctx := context.Background()
	presets := []Preset{{Name: "a"}, {Name: "b", Args: []string{"--x"}}}

	first, err := c.Compile(ctx, "one.ts", presets, []byte("src"))
	require.NoError(t, err)
	second, err := c.Compile(ctx, "two.ts", presets, []byte("src"))
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.EqualValues(t, 1, inner.calls.Load(), "identical presets+content share one invocation across paths")
	assert.Equal(t, 1, c.Len())

	// Different content misses.
	_, err = c.Compile(ctx, "one.ts", presets, []byte("other"))
	require.NoError(t, err)
	assert.EqualValues(t, 2, inner.calls.Load())

	// Different preset list misses too.
	_, err = c.Compile(ctx, "one.ts", presets[:1], []byte("src"))
	require.NoError(t, err)
	assert.EqualValues(t, 3, inner.calls.Load())
}

func TestCache_NeverCachesFailures(t *testing.T) {
	inner := &countingCompiler{}
	c, err := NewCache(8, inner)
	require.NoError(t, err)

	ctx := context.Background()
	_, err = c.Compile(ctx, "x.ts", nil, []byte("boom"))
	require.Error(t, err)
	_, err = c.Compile(ctx, "x.ts", nil, []byte("boom"))
	require.Error(t, err)

	assert.EqualValues(t, 2, inner.calls.Load(), "failed compiles retry")
	assert.Zero(t, c.Len())
}

func TestCacheKey_SeparatorsDisambiguate(t *testing.T) {
	// "ab"+"c" and "a"+"bc" must not collide through concatenation.
	k1 := cacheKey([]Preset{{Name: "ab"}, {Name: "c"}}, nil)
	k2 := cacheKey([]Preset{{Name: "a"}, {Name: "bc"}}, nil)
	assert.NotEqual(t, k1, k2)

	// Preset args vs name boundary.
	k3 := cacheKey([]Preset{{Name: "a", Args: []string{"b"}}}, nil)
	k4 := cacheKey([]Preset{{Name: "ab"}}, nil)
	assert.NotEqual(t, k3, k4)
}
