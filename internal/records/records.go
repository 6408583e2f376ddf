// Package records persists the deployment document between runs. The
// document read back here is the base-record set the idempotency check
// compares against, so reads and writes must round-trip exactly.
package records

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/avmjs/vapdeploy/internal/ir"
)

// Manager reads and writes the deployment document at a local path.
type Manager struct {
	path string
	safe bool
}

// NewManager returns a Manager for the document at path. With safe set,
// writes go through a temp file and rename so a crashed run never leaves
// a truncated document.
func NewManager(path string, safe bool) *Manager {
	return &Manager{path: path, safe: safe}
}

// Path returns the document location.
func (m *Manager) Path() string { return m.path }

// Read loads the document. A missing file is an empty document, not an
// error.
func (m *Manager) Read(ctx context.Context) (ir.Document, error) {
	raw, err := os.ReadFile(m.path)
	if os.IsNotExist(err) {
		return ir.Document{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read records file %s: %w", m.path, err)
	}

	var doc ir.Document
	if err := json.Unmarshal(stripComments(raw), &doc); err != nil {
		return nil, fmt.Errorf("failed to parse records file %s: %w", m.path, err)
	}
	return doc, nil
}

// Write persists the already-serialized output string.
func (m *Manager) Write(ctx context.Context, output string) error {
	if err := os.MkdirAll(filepath.Dir(m.path), 0755); err != nil {
		return fmt.Errorf("failed to create records directory: %w", err)
	}

	if !m.safe {
		if err := os.WriteFile(m.path, []byte(output), 0644); err != nil {
			return fmt.Errorf("failed to write records file %s: %w", m.path, err)
		}
		return nil
	}

	tmp, err := os.CreateTemp(filepath.Dir(m.path), ".vapdeploy-*")
	if err != nil {
		return fmt.Errorf("failed to create temp records file: %w", err)
	}
	if _, err := tmp.WriteString(output); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("failed to write temp records file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("failed to close temp records file: %w", err)
	}
	if err := os.Rename(tmp.Name(), m.path); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("failed to replace records file %s: %w", m.path, err)
	}
	return nil
}

// stripComments drops leading // lines so documents written with the
// banner plugin read back cleanly.
func stripComments(raw []byte) []byte {
	for len(raw) > 1 && raw[0] == '/' && raw[1] == '/' {
		i := 0
		for i < len(raw) && raw[i] != '\n' {
			i++
		}
		if i == len(raw) {
			return nil
		}
		raw = raw[i+1:]
	}
	return raw
}
