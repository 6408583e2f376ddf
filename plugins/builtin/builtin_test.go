package builtin

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/avmjs/vapdeploy/internal/ir"
)

const sampleOutput = `{
  "development": {
    "Token": {
      "address": "0x0123456789abcdef0123456789abcdef01234567",
      "bytecode": "0x6060",
      "inputs": ["VAP", 18]
    }
  }
}`

func TestMinify(t *testing.T) {
	out, err := Minify(&ir.PluginContext{Output: sampleOutput})
	require.NoError(t, err)
	assert.NotContains(t, out, "\n")
	assert.JSONEq(t, sampleOutput, out)

	_, err = Minify(&ir.PluginContext{Output: "not json"})
	assert.Error(t, err)
}

func TestRedact(t *testing.T) {
	out, err := Redact(&ir.PluginContext{Output: sampleOutput})
	require.NoError(t, err)
	assert.NotContains(t, out, "bytecode")
	assert.Contains(t, out, "0x0123456789abcdef0123456789abcdef01234567")
	assert.Contains(t, out, "VAP")

	_, err = Redact(&ir.PluginContext{Output: `["not", "a", "document"]`})
	assert.Error(t, err)
}

func TestBanner(t *testing.T) {
	out, err := Banner(&ir.PluginContext{
		Output:      sampleOutput,
		Environment: &ir.Environment{Name: "development"},
	})
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(out, "// "))
	first, rest, found := strings.Cut(out, "\n")
	require.True(t, found)
	assert.Contains(t, first, `"development"`)
	assert.Equal(t, sampleOutput, rest)
}
