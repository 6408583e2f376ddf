// Package config defines the pipeline configuration and its structural
// pre-flight validation.
package config

import (
	"context"
	"fmt"

	"github.com/avmjs/vapdeploy/internal/deploy"
	"github.com/avmjs/vapdeploy/internal/ir"
	"github.com/avmjs/vapdeploy/internal/loader"
	"github.com/avmjs/vapdeploy/internal/output"
	"github.com/avmjs/vapdeploy/internal/records"
	"github.com/avmjs/vapdeploy/internal/sourcemap"
)

// DeploymentFunc is the user-supplied deployment routine. It receives
// the staged artifacts and a Deployer and decides what to deploy, in
// what order, and with which constructor arguments. Whether deployments
// run sequentially or concurrently is entirely its choice.
type DeploymentFunc func(ctx context.Context, deployer *deploy.Deployer, artifacts ir.Artifacts) error

// Output configures where the deployment document is persisted. With a
// Backend set the document lives in the remote store and Path/Filename
// are ignored.
type Output struct {
	Path     string
	Filename string
	Safe     bool
	Backend  *records.BackendConfig
}

// Module groups the pipeline stages.
type Module struct {
	PreLoaders  []loader.Stage
	Loaders     []loader.Stage
	Environment *ir.Environment
	Deployment  DeploymentFunc
}

// Config is the input to one pipeline run.
type Config struct {
	Entry        []any
	Output       Output
	SourceMapper sourcemap.Mapper
	Module       *Module
	Plugins      []output.Plugin
}

// ValidationError is a structural configuration failure, caught before
// any work begins and before anything touches the network.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid configuration: %s", e.Reason)
}

// Validate checks the config structurally. Checks run in a fixed order
// and the first failure short-circuits the whole run.
func Validate(cfg *Config) error {
	switch {
	case cfg == nil:
		return &ValidationError{Reason: "config is nil"}
	case cfg.Entry == nil:
		return &ValidationError{Reason: "config has no entry"}
	case cfg.Module == nil:
		return &ValidationError{Reason: "config has no module"}
	case cfg.Module.Deployment == nil:
		return &ValidationError{Reason: "module has no deployment routine"}
	case cfg.Module.Environment == nil:
		return &ValidationError{Reason: "module has no environment"}
	case cfg.Module.Environment.Client == nil:
		return &ValidationError{Reason: "environment has no network provider"}
	case cfg.Module.Environment.Name == "":
		return &ValidationError{Reason: "environment has no name"}
	}
	return nil
}
