// Package devnet is an in-memory network backend. Addresses and
// transaction hashes are derived deterministically with Keccak-256 so
// repeated runs against a fresh devnet produce stable output.
package devnet

import (
	"context"
	"fmt"
	"sync"

	"github.com/avmjs/vapdeploy/internal/ir"
	"github.com/avmjs/vapdeploy/internal/network"
)

const (
	// DefaultAccounts is the number of identities a fresh devnet controls.
	DefaultAccounts = 10

	protocolVersion = "63"
)

// Client implements network.Client against in-process state.
type Client struct {
	mu       sync.Mutex
	accounts []ir.Address
	nonce    uint64
	block    uint64
}

// New returns a devnet with DefaultAccounts identities.
func New() *Client {
	return NewWithAccounts(DefaultAccounts)
}

// NewWithAccounts returns a devnet controlling n identities.
func NewWithAccounts(n int) *Client {
	accounts := make([]ir.Address, n)
	for i := range accounts {
		accounts[i] = ir.AddressFromDigest(fmt.Appendf(nil, "vapdeploy/devnet/account/%d", i))
	}
	return &Client{accounts: accounts}
}

// ProtocolVersion implements network.Client.
func (c *Client) ProtocolVersion(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	return protocolVersion, nil
}

// Accounts implements network.Client.
func (c *Client) Accounts(ctx context.Context) ([]ir.Address, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]ir.Address(nil), c.accounts...), nil
}

// Deploy implements network.Client. The contract address is derived from
// the sender and a per-client nonce, mirroring how real networks derive
// creation addresses.
func (c *Client) Deploy(ctx context.Context, tx *ir.Transaction) (*network.Instance, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if tx == nil {
		return nil, fmt.Errorf("devnet: nil transaction")
	}
	from, ok := tx.From.Addr()
	if !ok {
		return nil, fmt.Errorf("devnet: transaction sender is unresolved")
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.block++
	seed := fmt.Appendf(nil, "%s/%d", from, c.nonce)
	c.nonce++

	addr := ir.AddressFromDigest(seed)
	hash := ir.Keccak256Hex(append(seed, tx.Data...))

	gasUsed := tx.Gas
	if gasUsed == 0 {
		gasUsed = 21000 + uint64(len(tx.Data))
	}

	return &network.Instance{
		Address: addr,
		Receipt: map[string]any{
			"transactionHash": hash,
			"blockNumber":     c.block,
			"contractAddress": string(addr),
			"gasUsed":         gasUsed,
		},
	}, nil
}
