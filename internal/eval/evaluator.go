package eval

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/apple/pkl-go/pkl"
)

// Load reads a manifest, dispatching on the file extension: .pkl goes
// through the PKL evaluator, .yaml/.yml through the YAML parser.
func Load(ctx context.Context, path string) (*Manifest, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".pkl":
		return LoadPKL(ctx, path)
	case ".yaml", ".yml":
		return LoadYAML(path)
	default:
		return nil, fmt.Errorf("unsupported manifest format %q (want .pkl, .yaml, or .yml)", filepath.Ext(path))
	}
}

// LoadPKL evaluates a PKL manifest into the Manifest IR.
func LoadPKL(ctx context.Context, path string) (*Manifest, error) {
	evaluator, err := pkl.NewEvaluator(ctx, pkl.PreconfiguredOptions)
	if err != nil {
		return nil, fmt.Errorf("failed to create PKL evaluator: %w", err)
	}
	defer evaluator.Close()

	var m Manifest
	if err := evaluator.EvaluateModule(ctx, pkl.FileSource(path), &m); err != nil {
		return nil, fmt.Errorf("failed to evaluate manifest %s: %w", path, err)
	}
	return &m, nil
}
