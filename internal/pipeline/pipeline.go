// Package pipeline is the process boundary: one entry function that
// takes a validated config and drives source-map construction, loader
// execution, environment resolution, deployment, and output processing,
// strictly in that order.
package pipeline

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"

	"github.com/avmjs/vapdeploy/internal/config"
	"github.com/avmjs/vapdeploy/internal/deploy"
	"github.com/avmjs/vapdeploy/internal/environment"
	"github.com/avmjs/vapdeploy/internal/ir"
	"github.com/avmjs/vapdeploy/internal/loader"
	"github.com/avmjs/vapdeploy/internal/logging"
	"github.com/avmjs/vapdeploy/internal/network"
	"github.com/avmjs/vapdeploy/internal/output"
	"github.com/avmjs/vapdeploy/internal/records"
	"github.com/avmjs/vapdeploy/internal/sourcemap"
)

// DefaultFilename is the records document name used when the output
// config leaves it empty.
const DefaultFilename = "contracts.json"

// Result is populated only when the whole run succeeds.
type Result struct {
	// Output is the processed document string, as persisted.
	Output string
	// Records are this run's deployment records for the environment.
	Records ir.Records
	// Artifacts is the staged artifact set the deployment routine saw.
	Artifacts ir.Artifacts
}

// Runner executes pipeline runs against its loader and plugin
// registries.
type Runner struct {
	loaders *loader.Registry
	plugins *output.Registry
}

// New returns a Runner with the built-in registries.
func New() *Runner {
	return &Runner{
		loaders: loader.NewRegistry(),
		plugins: output.NewRegistry(),
	}
}

// Loaders exposes the loader registry for callers registering custom
// loaders before a run.
func (r *Runner) Loaders() *loader.Registry { return r.loaders }

// Plugins exposes the output plugin registry.
func (r *Runner) Plugins() *output.Registry { return r.plugins }

// Run executes one pipeline run. Every stage fails fast and whole: the
// first error aborts the remaining pipeline and no partial result is
// returned.
func (r *Runner) Run(ctx context.Context, cfg *config.Config) (*Result, error) {
	if err := config.Validate(cfg); err != nil {
		return nil, err
	}

	envName := cfg.Module.Environment.Name
	store, location, err := recordsStore(cfg)
	if err != nil {
		return nil, err
	}
	if err := store.Lock(); err != nil {
		return nil, err
	}
	defer store.Unlock()

	doc, err := store.Read(ctx)
	if err != nil {
		return nil, err
	}
	base := doc[envName]

	sources, err := sourcemap.Build(ctx, cfg.Entry, cfg.SourceMapper)
	if err != nil {
		return nil, err
	}

	resolved, err := environment.Resolve(ctx, cfg.Module.Environment)
	if err != nil {
		return nil, err
	}
	client := resolved.Client.(network.Client)

	staged, err := loader.Run(ctx, r.loaders, cfg.Module.PreLoaders, ir.Artifacts{}, sources, resolved)
	if err != nil {
		return nil, err
	}
	staged, err = loader.Run(ctx, r.loaders, cfg.Module.Loaders, staged, sources, resolved)
	if err != nil {
		return nil, err
	}
	logging.Debug("staged artifacts", "environment", envName, "artifacts", len(staged))

	var mu sync.Mutex
	deployed := make(ir.Records)
	report := func(name string, artifact *ir.Artifact, address ir.Address, inputs []any, tx *ir.Transaction, receipt map[string]any) {
		mu.Lock()
		defer mu.Unlock()
		deployed[name] = &ir.Record{
			Address:     address,
			Bytecode:    ir.NormalizeHex(artifact.Bytecode),
			Transaction: tx,
			Inputs:      inputs,
			Receipt:     receipt,
		}
	}

	deployer := deploy.New(client, resolved, base, report)
	if err := cfg.Module.Deployment(ctx, deployer, staged); err != nil {
		return nil, fmt.Errorf("deployment routine failed: %w", err)
	}

	doc[envName] = deployed
	processed, err := output.Process(ctx, r.plugins, cfg.Plugins, doc, cfg, base, deployed, resolved)
	if err != nil {
		return nil, err
	}

	if err := store.Write(ctx, processed); err != nil {
		return nil, err
	}

	logging.Info("pipeline run complete",
		"environment", envName,
		"artifacts", len(staged),
		"deployed", len(deployed),
		"output", location)
	return &Result{
		Output:    processed,
		Records:   deployed,
		Artifacts: staged,
	}, nil
}

// recordsStore picks the document store: the configured remote backend,
// or a local file manager under the output path.
func recordsStore(cfg *config.Config) (records.Backend, string, error) {
	if cfg.Output.Backend != nil {
		backend, err := records.NewBackend(cfg.Output.Backend)
		if err != nil {
			return nil, "", err
		}
		return backend, fmt.Sprintf("%s backend", cfg.Output.Backend.Type), nil
	}

	filename := cfg.Output.Filename
	if filename == "" {
		filename = DefaultFilename
	}
	path := filepath.Join(cfg.Output.Path, filename)
	return records.NewManager(path, cfg.Output.Safe), path, nil
}
