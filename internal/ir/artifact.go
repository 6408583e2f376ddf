package ir

import "encoding/json"

// SourceMap maps a source path to its raw content. String entries carry
// source text resolved from the filesystem; non-string entries carry
// literal pre-built values merged straight from the config entry list.
type SourceMap map[string]any

// Clone returns a shallow copy of the map. Stages receive a copy so no
// stage observes another stage's in-progress mutation.
func (m SourceMap) Clone() SourceMap {
	out := make(SourceMap, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

// Artifact is a single deployable unit staged by the loader pipeline.
type Artifact struct {
	Name              string          `json:"name"`
	Bytecode          string          `json:"bytecode"`
	Interface         json.RawMessage `json:"interface,omitempty"`
	ConstructorInputs []any           `json:"constructorInputs,omitempty"`
}

// Clone returns a deep copy of the artifact.
func (a *Artifact) Clone() *Artifact {
	if a == nil {
		return nil
	}
	out := &Artifact{
		Name:     a.Name,
		Bytecode: a.Bytecode,
	}
	if a.Interface != nil {
		out.Interface = append(json.RawMessage(nil), a.Interface...)
	}
	if a.ConstructorInputs != nil {
		out.ConstructorInputs = append([]any(nil), a.ConstructorInputs...)
	}
	return out
}

// Artifacts is the staged output of the loader pipeline, keyed by artifact
// name. Names are unique within one environment scope.
type Artifacts map[string]*Artifact

// Merge folds other onto the receiver, later keys winning on collision,
// and returns the receiver.
func (a Artifacts) Merge(other Artifacts) Artifacts {
	for name, art := range other {
		a[name] = art
	}
	return a
}
