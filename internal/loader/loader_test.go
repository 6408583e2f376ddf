package loader

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/avmjs/vapdeploy/internal/ir"
)

func namedLoader(name string) ir.LoaderFunc {
	return func(sources ir.SourceMap, options map[string]any, env *ir.Environment) (ir.Artifacts, error) {
		out := make(ir.Artifacts)
		for path := range sources {
			out[path] = &ir.Artifact{Name: path, Bytecode: "0x" + name}
		}
		return out, nil
	}
}

func TestRun_StageOrderWins(t *testing.T) {
	sources := ir.SourceMap{"Token.sol": "contract Token {}"}
	stages := []Stage{
		{Name: "first", Fn: namedLoader("aa")},
		{Name: "second", Fn: namedLoader("bb")},
	}

	out, err := Run(context.Background(), NewRegistry(), stages, ir.Artifacts{}, sources, nil)
	require.NoError(t, err)
	require.Contains(t, out, "Token.sol")
	assert.Equal(t, "0xbb", out["Token.sol"].Bytecode, "later stages override earlier ones")
}

func TestRun_BaseArtifactsSeedOutput(t *testing.T) {
	base := ir.Artifacts{"Prior": {Name: "Prior", Bytecode: "0x01"}}

	out, err := Run(context.Background(), NewRegistry(), nil, base, ir.SourceMap{}, nil)
	require.NoError(t, err)
	assert.Contains(t, out, "Prior")
}

func TestRun_Filtering(t *testing.T) {
	sources := ir.SourceMap{
		"contracts/Token.sol":      "a",
		"contracts/test/Mock.sol":  "b",
		"docs/readme.md":           "c",
		"contracts/Registry.vy":    "d",
		"contracts/extra/Misc.sol": "e",
	}

	var seen []string
	capture := func(s ir.SourceMap, _ map[string]any, _ *ir.Environment) (ir.Artifacts, error) {
		for path := range s {
			seen = append(seen, path)
		}
		return ir.Artifacts{}, nil
	}

	stages := []Stage{{
		Name:    "capture",
		Fn:      capture,
		Test:    `\.sol$`,
		Include: []string{`^contracts/`},
		Exclude: []string{`/test/`},
	}}

	_, err := Run(context.Background(), NewRegistry(), stages, ir.Artifacts{}, sources, nil)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"contracts/Token.sol", "contracts/extra/Misc.sol"}, seen)
}

func TestRun_EmptyFilterStillRuns(t *testing.T) {
	ran := false
	stages := []Stage{{
		Name: "empty",
		Test: `\.nomatch$`,
		Fn: func(s ir.SourceMap, _ map[string]any, _ *ir.Environment) (ir.Artifacts, error) {
			ran = true
			assert.Empty(t, s)
			return ir.Artifacts{}, nil
		},
	}}

	_, err := Run(context.Background(), NewRegistry(), stages, ir.Artifacts{}, ir.SourceMap{"a.sol": "x"}, nil)
	require.NoError(t, err)
	assert.True(t, ran, "a stage matching zero keys still runs with an empty map")
}

func TestRun_UnknownLoaderFailsBeforeExecution(t *testing.T) {
	ran := false
	stages := []Stage{
		{Name: "does-not-exist"},
		{Name: "tracker", Fn: func(s ir.SourceMap, _ map[string]any, _ *ir.Environment) (ir.Artifacts, error) {
			ran = true
			return ir.Artifacts{}, nil
		}},
	}

	_, err := Run(context.Background(), NewRegistry(), stages, ir.Artifacts{}, ir.SourceMap{}, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "does-not-exist")
	assert.False(t, ran, "no loader may execute when stage resolution fails")
}

func TestRun_FailingStageAborts(t *testing.T) {
	cause := errors.New("parse error")
	ran := false
	stages := []Stage{
		{Name: "boom", Fn: func(s ir.SourceMap, _ map[string]any, _ *ir.Environment) (ir.Artifacts, error) {
			return nil, cause
		}},
		{Name: "after", Fn: func(s ir.SourceMap, _ map[string]any, _ *ir.Environment) (ir.Artifacts, error) {
			ran = true
			return ir.Artifacts{}, nil
		}},
	}

	out, err := Run(context.Background(), NewRegistry(), stages, ir.Artifacts{}, ir.SourceMap{}, nil)
	var execErr *ExecutionError
	require.ErrorAs(t, err, &execErr)
	assert.Equal(t, "boom", execErr.Stage)
	assert.ErrorIs(t, err, cause)
	assert.Nil(t, out, "no partial artifact set survives a failure")
	assert.False(t, ran)
}

func TestRun_InvalidPattern(t *testing.T) {
	stages := []Stage{{Name: "bad", Fn: namedLoader("aa"), Test: `([`}}
	_, err := Run(context.Background(), NewRegistry(), stages, ir.Artifacts{}, ir.SourceMap{}, nil)
	var execErr *ExecutionError
	require.ErrorAs(t, err, &execErr)
}

func TestRegistry(t *testing.T) {
	r := NewRegistry()

	// Built-ins are pre-registered
	for _, name := range []string{"raw", "literal", "solc"} {
		fn, err := r.Get(name)
		require.NoError(t, err)
		assert.NotNil(t, fn)
	}

	_, err := r.Get("nope")
	assert.Error(t, err)

	r.Register("custom", namedLoader("cc"))
	fn, err := r.Get("custom")
	require.NoError(t, err)
	assert.NotNil(t, fn)
}
