package devnet

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/avmjs/vapdeploy/internal/ir"
)

func TestAccounts_Deterministic(t *testing.T) {
	ctx := context.Background()

	a, err := New().Accounts(ctx)
	require.NoError(t, err)
	b, err := New().Accounts(ctx)
	require.NoError(t, err)

	assert.Len(t, a, DefaultAccounts)
	assert.Equal(t, a, b)
	for _, addr := range a {
		assert.True(t, addr.Valid(), "account %s", addr)
	}
}

func TestProtocolVersion(t *testing.T) {
	v, err := New().ProtocolVersion(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "63", v)
}

func TestDeploy(t *testing.T) {
	ctx := context.Background()
	client := New()
	accounts, err := client.Accounts(ctx)
	require.NoError(t, err)

	tx := &ir.Transaction{From: ir.FromAddress(accounts[0]), Data: "0x6060", Gas: 3000000}

	first, err := client.Deploy(ctx, tx)
	require.NoError(t, err)
	assert.True(t, first.Address.Valid())
	assert.Equal(t, string(first.Address), first.Receipt["contractAddress"])
	assert.Equal(t, uint64(3000000), first.Receipt["gasUsed"])
	assert.NotEmpty(t, first.Receipt["transactionHash"])

	// The nonce advances, so a second creation lands at a new address.
	second, err := client.Deploy(ctx, tx)
	require.NoError(t, err)
	assert.NotEqual(t, first.Address, second.Address)

	// A fresh devnet replays the same sequence of addresses.
	replay, err := New().Deploy(ctx, tx)
	require.NoError(t, err)
	assert.Equal(t, first.Address, replay.Address)
}

func TestDeploy_UnresolvedSender(t *testing.T) {
	client := New()

	_, err := client.Deploy(context.Background(), &ir.Transaction{From: ir.FromIndex(0)})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unresolved")

	_, err = client.Deploy(context.Background(), nil)
	assert.Error(t, err)
}
