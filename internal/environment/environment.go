// Package environment resolves a raw environment descriptor against the
// network: protocol version, signing identities, and identity
// substitution in the default transaction template.
package environment

import (
	"context"
	"fmt"

	"github.com/avmjs/vapdeploy/internal/ir"
	"github.com/avmjs/vapdeploy/internal/logging"
	"github.com/avmjs/vapdeploy/internal/network"
)

// ConnectError reports a failed protocol-version query.
type ConnectError struct {
	Environment string
	Err         error
}

func (e *ConnectError) Error() string {
	return fmt.Sprintf("failed to connect to environment %q: %v", e.Environment, e.Err)
}

func (e *ConnectError) Unwrap() error { return e.Err }

// IdentityError reports a failed identity-list query.
type IdentityError struct {
	Environment string
	Err         error
}

func (e *IdentityError) Error() string {
	return fmt.Sprintf("failed to list identities for environment %q: %v", e.Environment, e.Err)
}

func (e *IdentityError) Unwrap() error { return e.Err }

// Resolve queries the environment's network handle for the protocol
// version and identity list, then substitutes an index-form sender in
// the default transaction template. The input is never mutated; the
// resolved environment is a deep copy.
func Resolve(ctx context.Context, env *ir.Environment) (*ir.Environment, error) {
	client, ok := env.Client.(network.Client)
	if !ok {
		return nil, &ConnectError{Environment: env.Name, Err: fmt.Errorf("environment has no network client")}
	}

	version, err := client.ProtocolVersion(ctx)
	if err != nil {
		return nil, &ConnectError{Environment: env.Name, Err: err}
	}

	identities, err := client.Accounts(ctx)
	if err != nil {
		return nil, &IdentityError{Environment: env.Name, Err: err}
	}

	resolved := env.Clone()
	resolved.Identities = identities

	if resolved.DefaultTransaction != nil {
		tx, err := TransformTransaction(resolved.DefaultTransaction, identities)
		if err != nil {
			return nil, &IdentityError{Environment: env.Name, Err: err}
		}
		resolved.DefaultTransaction = tx
	}

	logging.Debug("resolved environment",
		"environment", env.Name,
		"protocol_version", version,
		"identities", len(identities))
	return resolved, nil
}

// TransformTransaction substitutes an index-form sender with the
// matching identity, on a copy. A nil template and an address-form
// sender pass through untouched.
func TransformTransaction(tx *ir.Transaction, identities []ir.Address) (*ir.Transaction, error) {
	if tx == nil {
		return nil, nil
	}
	out := tx.Clone()
	from, err := out.From.Resolve(identities)
	if err != nil {
		return nil, err
	}
	out.From = from
	return out, nil
}
