// Package network defines the contract the pipeline expects from a
// remote execution environment. The concrete wire client lives outside
// this module; the devnet subpackage provides an in-memory
// implementation for tests and local runs.
package network

import (
	"context"

	"github.com/avmjs/vapdeploy/internal/ir"
)

// Instance is the handle returned for a deployed artifact. Receipt is
// nil when the instance was bound to a previously recorded address
// without a network write.
type Instance struct {
	Address ir.Address
	Receipt map[string]any
}

// Client is the network collaborator. Implementations own any timeout or
// retry behavior; the pipeline issues each call exactly once.
type Client interface {
	// ProtocolVersion queries the node's protocol version.
	ProtocolVersion(ctx context.Context) (string, error)

	// Accounts queries the signing identities the node controls.
	Accounts(ctx context.Context) ([]ir.Address, error)

	// Deploy submits a contract-creation transaction and waits for its
	// confirmation.
	Deploy(ctx context.Context, tx *ir.Transaction) (*Instance, error)
}
