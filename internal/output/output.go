// Package output serializes the final deployment document and threads
// it through the ordered output plugin chain.
package output

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/avmjs/vapdeploy/internal/ir"
	"github.com/avmjs/vapdeploy/internal/logging"
)

// Plugin is one stage of the output chain. Fn wins when set; otherwise
// Name is resolved through the registry before any plugin runs.
type Plugin struct {
	Name string
	Fn   ir.PluginFunc
}

// PluginError reports a plugin failure. Partial output is discarded.
type PluginError struct {
	Plugin string
	Err    error
}

func (e *PluginError) Error() string {
	return fmt.Sprintf("output plugin %q failed: %v", e.Plugin, e.Err)
}

func (e *PluginError) Unwrap() error { return e.Err }

// Process serializes doc to canonical indented JSON and runs it through
// plugins in order, each plugin's result replacing the running string.
// Every plugin is resolved up front so a misconfigured chain fails
// before any plugin executes.
func Process(ctx context.Context, registry *Registry, plugins []Plugin, doc any, cfg any, baseRecords, records ir.Records, env *ir.Environment) (string, error) {
	fns := make([]ir.PluginFunc, len(plugins))
	for i, plugin := range plugins {
		fn := plugin.Fn
		if fn == nil {
			var err error
			fn, err = registry.Get(plugin.Name)
			if err != nil {
				return "", err
			}
		}
		fns[i] = fn
	}

	serialized, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to serialize output: %w", err)
	}

	running := string(serialized)
	for i, plugin := range plugins {
		if err := ctx.Err(); err != nil {
			return "", err
		}

		next, err := fns[i](&ir.PluginContext{
			Output:      running,
			Config:      cfg,
			BaseRecords: baseRecords,
			Records:     records,
			Environment: env,
		})
		if err != nil {
			return "", &PluginError{Plugin: pluginLabel(plugin, i), Err: err}
		}
		running = next
	}

	logging.Debug("processed output", "plugins", len(plugins), "bytes", len(running))
	return running, nil
}

func pluginLabel(plugin Plugin, i int) string {
	if plugin.Name != "" {
		return plugin.Name
	}
	return fmt.Sprintf("plugin[%d]", i)
}
