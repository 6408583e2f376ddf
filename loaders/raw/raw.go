// Package raw provides loaders for sources that already are artifact
// definitions: pre-built artifact JSON documents and literal entry
// values.
package raw

import (
	"encoding/json"
	"fmt"
	"path"
	"strings"

	"github.com/avmjs/vapdeploy/internal/ir"
)

// Load parses each source as a pre-built artifact JSON document. A
// document may be a single artifact object or a name-keyed mapping of
// artifact objects. An artifact without a name takes the source's base
// filename.
func Load(sources ir.SourceMap, options map[string]any, env *ir.Environment) (ir.Artifacts, error) {
	out := make(ir.Artifacts)
	for p, content := range sources {
		text, ok := content.(string)
		if !ok {
			continue
		}

		var single ir.Artifact
		if err := json.Unmarshal([]byte(text), &single); err == nil && single.Bytecode != "" {
			if single.Name == "" {
				single.Name = artifactName(p)
			}
			single.Bytecode = ir.NormalizeHex(single.Bytecode)
			out[single.Name] = &single
			continue
		}

		var many map[string]*ir.Artifact
		if err := json.Unmarshal([]byte(text), &many); err != nil {
			return nil, fmt.Errorf("source %q is not an artifact document: %w", p, err)
		}
		for name, art := range many {
			if art == nil {
				continue
			}
			art.Name = name
			art.Bytecode = ir.NormalizeHex(art.Bytecode)
			out[name] = art
		}
	}
	return out, nil
}

// LoadLiterals treats non-string source values as pre-built
// zero-argument artifacts keyed by path: integers become their hex
// bytecode, and artifact-shaped maps decode as full definitions.
func LoadLiterals(sources ir.SourceMap, options map[string]any, env *ir.Environment) (ir.Artifacts, error) {
	out := make(ir.Artifacts)
	for p, content := range sources {
		switch v := content.(type) {
		case string:
			// Source text belongs to other loaders.
		case int:
			out[p] = &ir.Artifact{Name: p, Bytecode: fmt.Sprintf("0x%02x", v)}
		case int64:
			out[p] = &ir.Artifact{Name: p, Bytecode: fmt.Sprintf("0x%02x", v)}
		case float64:
			out[p] = &ir.Artifact{Name: p, Bytecode: fmt.Sprintf("0x%02x", int64(v))}
		case map[string]any:
			encoded, err := json.Marshal(v)
			if err != nil {
				return nil, fmt.Errorf("literal entry %q: %w", p, err)
			}
			art := &ir.Artifact{}
			if err := json.Unmarshal(encoded, art); err != nil {
				return nil, fmt.Errorf("literal entry %q is not artifact-shaped: %w", p, err)
			}
			art.Name = p
			art.Bytecode = ir.NormalizeHex(art.Bytecode)
			out[p] = art
		default:
			return nil, fmt.Errorf("literal entry %q has unsupported type %T", p, content)
		}
	}
	return out, nil
}

func artifactName(p string) string {
	base := path.Base(p)
	if i := strings.IndexByte(base, '.'); i > 0 {
		base = base[:i]
	}
	return base
}
