package config

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/avmjs/vapdeploy/internal/deploy"
	"github.com/avmjs/vapdeploy/internal/ir"
	"github.com/avmjs/vapdeploy/internal/network/devnet"
)

func validConfig() *Config {
	return &Config{
		Entry: []any{"contracts"},
		Module: &Module{
			Environment: &ir.Environment{Name: "development", Client: devnet.New()},
			Deployment: func(ctx context.Context, deployer *deploy.Deployer, artifacts ir.Artifacts) error {
				return nil
			},
		},
	}
}

func TestValidate(t *testing.T) {
	require.NoError(t, Validate(validConfig()))
}

func TestValidate_FailsInOrder(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Config) *Config
		reason string
	}{
		{
			name:   "nil config",
			mutate: func(c *Config) *Config { return nil },
			reason: "config is nil",
		},
		{
			name:   "missing entry",
			mutate: func(c *Config) *Config { c.Entry = nil; return c },
			reason: "no entry",
		},
		{
			name:   "missing module",
			mutate: func(c *Config) *Config { c.Module = nil; return c },
			reason: "no module",
		},
		{
			name:   "missing deployment",
			mutate: func(c *Config) *Config { c.Module.Deployment = nil; return c },
			reason: "no deployment",
		},
		{
			name:   "missing environment",
			mutate: func(c *Config) *Config { c.Module.Environment = nil; return c },
			reason: "no environment",
		},
		{
			name:   "missing provider",
			mutate: func(c *Config) *Config { c.Module.Environment.Client = nil; return c },
			reason: "no network provider",
		},
		{
			name:   "missing name",
			mutate: func(c *Config) *Config { c.Module.Environment.Name = ""; return c },
			reason: "no name",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := Validate(tc.mutate(validConfig()))
			var vErr *ValidationError
			require.ErrorAs(t, err, &vErr)
			assert.Contains(t, vErr.Error(), tc.reason)
		})
	}
}
