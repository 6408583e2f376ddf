// Package eval loads declarative deployment manifests (PKL or YAML) and
// lowers them into pipeline configs. Manifest-driven runs use a default
// deployment routine that deploys every staged artifact in name order
// with its configured constructor inputs.
package eval

import (
	"context"
	"fmt"
	"os"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/avmjs/vapdeploy/internal/config"
	"github.com/avmjs/vapdeploy/internal/deploy"
	"github.com/avmjs/vapdeploy/internal/ir"
	"github.com/avmjs/vapdeploy/internal/loader"
	"github.com/avmjs/vapdeploy/internal/network/devnet"
	"github.com/avmjs/vapdeploy/internal/output"
	"github.com/avmjs/vapdeploy/internal/records"
)

// Manifest is the declarative deployment file.
type Manifest struct {
	Entry       []string            `pkl:"entry" yaml:"entry"`
	Output      ManifestOutput      `pkl:"output" yaml:"output"`
	Environment ManifestEnvironment `pkl:"environment" yaml:"environment"`
	PreLoaders  []ManifestStage     `pkl:"preLoaders" yaml:"preLoaders"`
	Loaders     []ManifestStage     `pkl:"loaders" yaml:"loaders"`
	Plugins     []string            `pkl:"plugins" yaml:"plugins"`
	Deploy      map[string][]any    `pkl:"deploy" yaml:"deploy"`
}

type ManifestOutput struct {
	Path     string           `pkl:"path" yaml:"path"`
	Filename string           `pkl:"filename" yaml:"filename"`
	Safe     bool             `pkl:"safe" yaml:"safe"`
	Backend  *ManifestBackend `pkl:"backend" yaml:"backend"`
}

// ManifestBackend configures a remote records store, e.g. type "s3" with
// bucket/key/region settings.
type ManifestBackend struct {
	Type   string            `pkl:"type" yaml:"type"`
	Config map[string]string `pkl:"config" yaml:"config"`
}

type ManifestEnvironment struct {
	Name        string              `pkl:"name" yaml:"name"`
	Provider    string              `pkl:"provider" yaml:"provider"`
	Transaction ManifestTransaction `pkl:"defaultTransaction" yaml:"defaultTransaction"`
}

type ManifestTransaction struct {
	From     any    `pkl:"from" yaml:"from"`
	Gas      uint64 `pkl:"gas" yaml:"gas"`
	GasPrice string `pkl:"gasPrice" yaml:"gasPrice"`
}

type ManifestStage struct {
	Loader  string         `pkl:"loader" yaml:"loader"`
	Test    string         `pkl:"test" yaml:"test"`
	Include []string       `pkl:"include" yaml:"include"`
	Exclude []string       `pkl:"exclude" yaml:"exclude"`
	Options map[string]any `pkl:"options" yaml:"options"`
}

// LoadYAML reads a YAML manifest from path.
func LoadYAML(path string) (*Manifest, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read manifest %s: %w", path, err)
	}
	var m Manifest
	if err := yaml.Unmarshal(raw, &m); err != nil {
		return nil, fmt.Errorf("failed to parse manifest %s: %w", path, err)
	}
	return &m, nil
}

// ToConfig lowers a manifest into a pipeline config.
func (m *Manifest) ToConfig() (*config.Config, error) {
	env, err := m.Environment.toEnvironment()
	if err != nil {
		return nil, err
	}

	entries := make([]any, len(m.Entry))
	for i, e := range m.Entry {
		entries[i] = e
	}

	plugins := make([]output.Plugin, len(m.Plugins))
	for i, name := range m.Plugins {
		plugins[i] = output.Plugin{Name: name}
	}

	out := config.Output{
		Path:     m.Output.Path,
		Filename: m.Output.Filename,
		Safe:     m.Output.Safe,
	}
	if m.Output.Backend != nil {
		out.Backend = &records.BackendConfig{
			Type:   m.Output.Backend.Type,
			Config: m.Output.Backend.Config,
		}
	}

	return &config.Config{
		Entry:  entries,
		Output: out,
		Module: &config.Module{
			PreLoaders:  toStages(m.PreLoaders),
			Loaders:     toStages(m.Loaders),
			Environment: env,
			Deployment:  defaultDeployment(m.Deploy),
		},
		Plugins: plugins,
	}, nil
}

func toStages(stages []ManifestStage) []loader.Stage {
	out := make([]loader.Stage, len(stages))
	for i, s := range stages {
		out[i] = loader.Stage{
			Name:    s.Loader,
			Test:    s.Test,
			Include: s.Include,
			Exclude: s.Exclude,
			Options: s.Options,
		}
	}
	return out
}

func (e *ManifestEnvironment) toEnvironment() (*ir.Environment, error) {
	env := &ir.Environment{Name: e.Name}

	switch e.Provider {
	case "devnet":
		env.Client = devnet.New()
	case "":
		// Left nil; config validation reports the missing provider.
	default:
		return nil, fmt.Errorf("unknown network provider %q (a wire RPC client must be supplied through the Go API)", e.Provider)
	}

	tx := &ir.Transaction{
		Gas:      e.Transaction.Gas,
		GasPrice: e.Transaction.GasPrice,
	}
	if e.Transaction.From != nil {
		from, err := toFrom(e.Transaction.From)
		if err != nil {
			return nil, err
		}
		tx.From = from
	}
	env.DefaultTransaction = tx
	return env, nil
}

func toFrom(v any) (ir.From, error) {
	switch f := v.(type) {
	case int:
		return ir.FromIndex(uint(f)), nil
	case int64:
		return ir.FromIndex(uint(f)), nil
	case uint64:
		return ir.FromIndex(uint(f)), nil
	case float64:
		return ir.FromIndex(uint(f)), nil
	case string:
		return ir.FromAddress(ir.Address(f)), nil
	default:
		return ir.From{}, fmt.Errorf("from must be an identity index or an address, got %T", v)
	}
}

// defaultDeployment deploys every staged artifact in name order. A
// trailing transaction-shaped map in an artifact's configured inputs
// becomes its per-call override.
func defaultDeployment(inputs map[string][]any) config.DeploymentFunc {
	return func(ctx context.Context, deployer *deploy.Deployer, artifacts ir.Artifacts) error {
		names := make([]string, 0, len(artifacts))
		for name := range artifacts {
			names = append(names, name)
		}
		sort.Strings(names)

		for _, name := range names {
			args, override, err := deploy.SplitArgs(inputs[name])
			if err != nil {
				return fmt.Errorf("artifact %q: %w", name, err)
			}
			if _, err := deployer.Deploy(ctx, artifacts[name], args, override); err != nil {
				return err
			}
		}
		return nil
	}
}
