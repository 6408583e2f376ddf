// Package deploy implements the idempotent-deployment decision engine:
// for each staged artifact it decides whether the previously recorded
// deployment can be reused or a new deployment transaction must be
// issued.
package deploy

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/avmjs/vapdeploy/internal/ir"
	"github.com/avmjs/vapdeploy/internal/logging"
	"github.com/avmjs/vapdeploy/internal/network"
)

// MissingArtifactError reports a deploy call without a structured
// artifact definition. No network call was made.
type MissingArtifactError struct{}

func (e *MissingArtifactError) Error() string {
	return "deploy requires an artifact definition"
}

// InvalidFromError reports a resolved sender that is not a well-formed
// 20-byte address. No network call was made.
type InvalidFromError struct {
	Artifact string
	Value    string
}

func (e *InvalidFromError) Error() string {
	return fmt.Sprintf("artifact %q has an invalid from address: %q", e.Artifact, e.Value)
}

// Error reports a deployment transaction that was issued and failed.
type Error struct {
	Artifact string
	Err      error
}

func (e *Error) Error() string {
	return fmt.Sprintf("deployment of %q failed: %v", e.Artifact, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// ReportFunc is notified of every deployment outcome, skipped or issued,
// before Deploy returns. Receipt is the prior run's receipt on the skip
// path. Concurrency safety of the accumulator behind it belongs to the
// surrounding system.
type ReportFunc func(name string, artifact *ir.Artifact, address ir.Address, inputs []any, tx *ir.Transaction, receipt map[string]any)

// Deployer issues deployment decisions for one pipeline run. The base
// record set and resolved environment are read-only for its lifetime, so
// concurrent Deploy calls on disjoint artifact names are safe.
type Deployer struct {
	client network.Client
	env    *ir.Environment
	base   ir.Records
	report ReportFunc
}

// New returns a Deployer closed over the resolved environment, the prior
// run's records, and the report function.
func New(client network.Client, env *ir.Environment, base ir.Records, report ReportFunc) *Deployer {
	return &Deployer{
		client: client,
		env:    env,
		base:   base,
		report: report,
	}
}

// Deploy stages one artifact. The constructor arguments and the optional
// per-call transaction override are explicit parameters. When the
// candidate matches the prior record in transaction, bytecode, and
// inputs, the recorded address is reused and no network write happens.
func (d *Deployer) Deploy(ctx context.Context, artifact *ir.Artifact, args []any, override *ir.Transaction) (*network.Instance, error) {
	if artifact == nil || artifact.Name == "" {
		return nil, &MissingArtifactError{}
	}
	name := artifact.Name

	tx, err := d.resolveTransaction(override)
	if err != nil {
		return nil, &InvalidFromError{Artifact: name, Value: err.Error()}
	}

	from, ok := tx.From.Addr()
	if !ok || !from.Valid() {
		return nil, &InvalidFromError{Artifact: name, Value: string(from)}
	}

	if rec := d.base[name]; d.reusable(rec, artifact, args, tx) {
		logging.Debug("reusing prior deployment", "artifact", name, "address", rec.Address)
		d.notify(name, artifact, rec.Address, args, tx, rec.Receipt)
		return &network.Instance{Address: rec.Address, Receipt: rec.Receipt}, nil
	}

	deployTx := tx.Clone()
	deployTx.Data = ir.NormalizeHex(artifact.Bytecode)

	instance, err := d.client.Deploy(ctx, deployTx)
	if err != nil {
		return nil, &Error{Artifact: name, Err: err}
	}

	logging.Debug("deployed artifact", "artifact", name, "address", instance.Address)
	d.notify(name, artifact, instance.Address, args, tx, instance.Receipt)
	return instance, nil
}

// resolveTransaction merges a per-call override over the environment's
// default template, substituting an index-form sender in the override
// against the resolved identities.
func (d *Deployer) resolveTransaction(override *ir.Transaction) (*ir.Transaction, error) {
	if override != nil {
		resolved, err := override.From.Resolve(d.env.Identities)
		if err != nil {
			return nil, err
		}
		override = override.Clone()
		override.From = resolved
	}
	return d.env.DefaultTransaction.Merge(override), nil
}

// reusable implements the idempotency check: a prior record with an
// address whose transaction, normalized bytecode, and constructor inputs
// all deep-equal the candidate.
func (d *Deployer) reusable(rec *ir.Record, artifact *ir.Artifact, args []any, tx *ir.Transaction) bool {
	if rec == nil || rec.Address == "" {
		return false
	}
	if !ir.DeepEqualJSON(rec.Transaction, tx) {
		return false
	}
	if ir.NormalizeHex(rec.Bytecode) != ir.NormalizeHex(artifact.Bytecode) {
		return false
	}
	return ir.DeepEqualJSON(rec.Inputs, args)
}

func (d *Deployer) notify(name string, artifact *ir.Artifact, address ir.Address, inputs []any, tx *ir.Transaction, receipt map[string]any) {
	if d.report == nil {
		return
	}
	d.report(name, artifact, address, inputs, tx, receipt)
}

// SplitArgs partitions a loosely-typed value list into constructor
// arguments and an optional trailing transaction override: a final map
// that looks like a transaction object becomes the override. The
// detection rule treats zero-key maps as transaction objects.
func SplitArgs(values []any) ([]any, *ir.Transaction, error) {
	if len(values) == 0 {
		return nil, nil, nil
	}
	last, ok := values[len(values)-1].(map[string]any)
	if !ok || !ir.LooksLikeTransaction(last) {
		return values, nil, nil
	}

	encoded, err := json.Marshal(last)
	if err != nil {
		return nil, nil, fmt.Errorf("invalid transaction override: %w", err)
	}
	var tx ir.Transaction
	if err := json.Unmarshal(encoded, &tx); err != nil {
		return nil, nil, fmt.Errorf("invalid transaction override: %w", err)
	}
	return values[:len(values)-1], &tx, nil
}
