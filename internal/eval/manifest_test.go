package eval

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/avmjs/vapdeploy/internal/ir"
	"github.com/avmjs/vapdeploy/internal/network/devnet"
	"github.com/avmjs/vapdeploy/internal/pipeline"
)

const manifestYAML = `
entry:
  - %s
output:
  path: %s
  safe: true
environment:
  name: development
  provider: devnet
  defaultTransaction:
    from: 0
    gas: 3000000
loaders:
  - loader: raw
    test: '\.json$'
plugins:
  - banner
deploy:
  Token:
    - "VAP"
    - 18
    - from: 1
      gas: 4000000
`

const artifactJSON = `{
  "Token": {
    "bytecode": "0x6060604052",
    "interface": [{"type": "constructor", "inputs": [{"type": "string"}, {"type": "uint8"}]}]
  }
}`

func writeManifest(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	artifacts := filepath.Join(dir, "Token.json")
	require.NoError(t, os.WriteFile(artifacts, []byte(artifactJSON), 0644))

	path := filepath.Join(dir, "vapdeploy.yaml")
	content := []byte(
		// fmt.Sprintf would mangle the regexp escapes, so substitute by hand.
		replaceAll(manifestYAML, "%s", artifacts, dir))
	require.NoError(t, os.WriteFile(path, content, 0644))
	return path
}

func replaceAll(template string, marker string, values ...string) string {
	out := template
	for _, v := range values {
		out = replaceFirst(out, marker, v)
	}
	return out
}

func replaceFirst(s, marker, value string) string {
	for i := 0; i+len(marker) <= len(s); i++ {
		if s[i:i+len(marker)] == marker {
			return s[:i] + value + s[i+len(marker):]
		}
	}
	return s
}

func TestLoadYAML(t *testing.T) {
	path := writeManifest(t)

	m, err := LoadYAML(path)
	require.NoError(t, err)

	assert.Len(t, m.Entry, 1)
	assert.Equal(t, "development", m.Environment.Name)
	assert.Equal(t, "devnet", m.Environment.Provider)
	assert.Equal(t, uint64(3000000), m.Environment.Transaction.Gas)
	require.Len(t, m.Loaders, 1)
	assert.Equal(t, "raw", m.Loaders[0].Loader)
	assert.Equal(t, []string{"banner"}, m.Plugins)
	require.Contains(t, m.Deploy, "Token")
	assert.Len(t, m.Deploy["Token"], 3)
}

func TestToConfig(t *testing.T) {
	m, err := LoadYAML(writeManifest(t))
	require.NoError(t, err)

	cfg, err := m.ToConfig()
	require.NoError(t, err)

	require.NotNil(t, cfg.Module)
	assert.Equal(t, "development", cfg.Module.Environment.Name)
	assert.IsType(t, &devnet.Client{}, cfg.Module.Environment.Client)
	require.NotNil(t, cfg.Module.Environment.DefaultTransaction)
	idx, ok := cfg.Module.Environment.DefaultTransaction.From.Index()
	require.True(t, ok)
	assert.Equal(t, uint(0), idx)
	require.Len(t, cfg.Module.Loaders, 1)
	assert.Equal(t, "raw", cfg.Module.Loaders[0].Name)
	require.NotNil(t, cfg.Module.Deployment)
}

func TestToConfig_UnknownProvider(t *testing.T) {
	m := &Manifest{Environment: ManifestEnvironment{Name: "mainnet", Provider: "infura"}}

	_, err := m.ToConfig()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "infura")
}

func TestManifestRun(t *testing.T) {
	m, err := LoadYAML(writeManifest(t))
	require.NoError(t, err)
	cfg, err := m.ToConfig()
	require.NoError(t, err)

	result, err := pipeline.New().Run(context.Background(), cfg)
	require.NoError(t, err)

	require.Contains(t, result.Records, "Token")
	rec := result.Records["Token"]
	assert.True(t, rec.Address.Valid())
	assert.Equal(t, "0x6060604052", rec.Bytecode)

	// The trailing map in the configured inputs became the transaction
	// override, not a constructor argument.
	assert.Equal(t, []any{"VAP", 18}, normalizeInts(rec.Inputs))
	require.NotNil(t, rec.Transaction)
	assert.Equal(t, uint64(4000000), rec.Transaction.Gas)

	// The banner plugin prefixed the persisted document.
	assert.Contains(t, result.Output, "//")
}

// normalizeInts flattens YAML/JSON numeric drift so the assertion reads
// cleanly.
func normalizeInts(values []any) []any {
	out := make([]any, len(values))
	for i, v := range values {
		switch n := v.(type) {
		case float64:
			out[i] = int(n)
		case int64:
			out[i] = int(n)
		default:
			out[i] = v
		}
	}
	return out
}
