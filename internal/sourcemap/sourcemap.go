// Package sourcemap folds an ordered entry list into a single
// path-to-content map, the input to the loader pipeline.
package sourcemap

import (
	"context"
	"fmt"

	"github.com/avmjs/vapdeploy/internal/ir"
	"github.com/avmjs/vapdeploy/internal/logging"
)

// Mapper resolves a string entry to a sub-map of path to content.
type Mapper func(ctx context.Context, entry string) (ir.SourceMap, error)

// ResolutionError wraps a mapper failure for one entry.
type ResolutionError struct {
	Entry string
	Err   error
}

func (e *ResolutionError) Error() string {
	return fmt.Sprintf("failed to resolve source entry %q: %v", e.Entry, e.Err)
}

func (e *ResolutionError) Unwrap() error { return e.Err }

// Build walks entries in order and accumulates one source map. String
// entries resolve through the mapper; map entries merge into the
// accumulator as-is; any other entry passes through unchanged. Later
// entries win on key collision. An empty entry list yields an empty map.
func Build(ctx context.Context, entries []any, mapper Mapper) (ir.SourceMap, error) {
	out := make(ir.SourceMap)
	if mapper == nil {
		mapper = FileMapper
	}

	for _, entry := range entries {
		switch e := entry.(type) {
		case string:
			sub, err := mapper(ctx, e)
			if err != nil {
				return nil, &ResolutionError{Entry: e, Err: err}
			}
			for k, v := range sub {
				out[k] = v
			}
		case map[string]any:
			for k, v := range e {
				out[k] = v
			}
		case ir.SourceMap:
			for k, v := range e {
				out[k] = v
			}
		default:
			// Non-string, non-map entries do not trigger resolution.
		}
	}

	logging.Debug("built source map", "entries", len(entries), "paths", len(out))
	return out, nil
}
