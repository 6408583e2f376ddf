// Package loader runs the ordered loader pipeline: each stage sees the
// sub-map of sources matching its predicate and contributes partial
// artifact definitions, later stages overriding earlier ones.
package loader

import (
	"context"
	"fmt"
	"regexp"

	"github.com/avmjs/vapdeploy/internal/ir"
	"github.com/avmjs/vapdeploy/internal/logging"
)

// Stage is one named transformation in the pipeline. Fn wins when set;
// otherwise Name is resolved through the registry before any stage runs.
type Stage struct {
	Name    string
	Test    string   // regexp over source paths
	Include []string // regexps; a path must match at least one when set
	Exclude []string // regexps; a matching path is dropped
	Options map[string]any
	Fn      ir.LoaderFunc
}

// ExecutionError reports a loader stage failure. No partial artifact set
// survives; the caller receives only the error.
type ExecutionError struct {
	Stage string
	Err   error
}

func (e *ExecutionError) Error() string {
	return fmt.Sprintf("loader %q failed: %v", e.Stage, e.Err)
}

func (e *ExecutionError) Unwrap() error { return e.Err }

// Run executes stages in declared order over sources. Every stage's
// function is resolved up front so a misconfigured stage fails before any
// loader executes. The base artifact set seeds the output; stage results
// merge over it, later stages winning on name collision.
func Run(ctx context.Context, registry *Registry, stages []Stage, base ir.Artifacts, sources ir.SourceMap, env *ir.Environment) (ir.Artifacts, error) {
	fns := make([]ir.LoaderFunc, len(stages))
	filters := make([]*filter, len(stages))
	for i, stage := range stages {
		fn := stage.Fn
		if fn == nil {
			var err error
			fn, err = registry.Get(stage.Name)
			if err != nil {
				return nil, err
			}
		}
		fns[i] = fn

		f, err := compileFilter(&stages[i])
		if err != nil {
			return nil, &ExecutionError{Stage: stageLabel(stage, i), Err: err}
		}
		filters[i] = f
	}

	out := make(ir.Artifacts)
	out.Merge(base)

	for i, stage := range stages {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		filtered := filters[i].apply(sources)
		logging.Debug("running loader", "loader", stageLabel(stage, i), "sources", len(filtered))

		partial, err := fns[i](filtered, stage.Options, env)
		if err != nil {
			return nil, &ExecutionError{Stage: stageLabel(stage, i), Err: err}
		}
		out.Merge(partial)
	}

	return out, nil
}

func stageLabel(stage Stage, i int) string {
	if stage.Name != "" {
		return stage.Name
	}
	return fmt.Sprintf("stage[%d]", i)
}

// filter implements the stage predicate: test ∧ include ∧ ¬exclude.
type filter struct {
	test    *regexp.Regexp
	include []*regexp.Regexp
	exclude []*regexp.Regexp
}

func compileFilter(stage *Stage) (*filter, error) {
	f := &filter{}
	if stage.Test != "" {
		re, err := regexp.Compile(stage.Test)
		if err != nil {
			return nil, fmt.Errorf("invalid test pattern %q: %w", stage.Test, err)
		}
		f.test = re
	}
	for _, p := range stage.Include {
		re, err := regexp.Compile(p)
		if err != nil {
			return nil, fmt.Errorf("invalid include pattern %q: %w", p, err)
		}
		f.include = append(f.include, re)
	}
	for _, p := range stage.Exclude {
		re, err := regexp.Compile(p)
		if err != nil {
			return nil, fmt.Errorf("invalid exclude pattern %q: %w", p, err)
		}
		f.exclude = append(f.exclude, re)
	}
	return f, nil
}

// apply returns the copy of sources the stage may see. A stage whose
// predicate matches nothing still runs with an empty map.
func (f *filter) apply(sources ir.SourceMap) ir.SourceMap {
	out := make(ir.SourceMap)
	for path, content := range sources {
		if f.test != nil && !f.test.MatchString(path) {
			continue
		}
		if len(f.include) > 0 && !matchAny(f.include, path) {
			continue
		}
		if matchAny(f.exclude, path) {
			continue
		}
		out[path] = content
	}
	return out
}

func matchAny(res []*regexp.Regexp, s string) bool {
	for _, re := range res {
		if re.MatchString(s) {
			return true
		}
	}
	return false
}
