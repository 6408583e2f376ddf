// Package builtin carries the stock output plugins.
package builtin

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"

	"github.com/avmjs/vapdeploy/internal/ir"
)

// Minify re-encodes the running output as compact JSON.
func Minify(pctx *ir.PluginContext) (string, error) {
	var buf bytes.Buffer
	if err := json.Compact(&buf, []byte(pctx.Output)); err != nil {
		return "", fmt.Errorf("output is not valid JSON: %w", err)
	}
	return buf.String(), nil
}

// Redact drops bytecode from every record in the running output, for
// documents published somewhere the full creation code does not belong.
func Redact(pctx *ir.PluginContext) (string, error) {
	var doc map[string]map[string]map[string]any
	if err := json.Unmarshal([]byte(pctx.Output), &doc); err != nil {
		return "", fmt.Errorf("output is not a deployment document: %w", err)
	}
	for _, records := range doc {
		for _, rec := range records {
			delete(rec, "bytecode")
		}
	}
	out, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return "", err
	}
	return string(out), nil
}

// Banner prefixes the output with a generation comment naming the
// environment. JSON parsers that reject comments should run Banner last
// or not at all.
func Banner(pctx *ir.PluginContext) (string, error) {
	name := ""
	if pctx.Environment != nil {
		name = pctx.Environment.Name
	}
	header := fmt.Sprintf("// vapdeploy output for environment %q at %s\n",
		name, time.Now().UTC().Format(time.RFC3339))
	return header + pctx.Output, nil
}
