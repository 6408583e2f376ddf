package records

import (
	"context"
	"fmt"

	"github.com/avmjs/vapdeploy/internal/ir"
)

// Backend is a remote store for the deployment document, for teams that
// share one record of deployed addresses.
type Backend interface {
	// Read loads the document from the backend. A missing object is an
	// empty document.
	Read(ctx context.Context) (ir.Document, error)

	// Write persists the serialized output string.
	Write(ctx context.Context, output string) error

	// Lock acquires an exclusive lock on the document.
	Lock() error

	// Unlock releases the lock.
	Unlock() error
}

// BackendConfig selects and configures a remote backend.
type BackendConfig struct {
	Type   string            `json:"type" yaml:"type"` // "s3"
	Config map[string]string `json:"config" yaml:"config"`
}

// NewBackend creates a backend from configuration.
func NewBackend(cfg *BackendConfig) (Backend, error) {
	if cfg == nil {
		return nil, fmt.Errorf("backend configuration is nil")
	}
	switch cfg.Type {
	case "s3":
		return newS3Backend(cfg.Config)
	default:
		return nil, fmt.Errorf("unknown backend type: %s", cfg.Type)
	}
}
