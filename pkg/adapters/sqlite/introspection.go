package sqlite

import (
	"github.com/aretw0/introspection"
)

// RepositoryState exposes internal state for observability.
type RepositoryState struct {
	Path        string `json:"path"`
	Watchers    int    `json:"watchers"`
	OpenHandles int    `json:"open_handles"`
	OpenConns   int    `json:"open_conns"`
}

// State implements introspection.Introspectable.
func (r *Repository) State() any {
	return RepositoryState{
		Path:        r.path,
		Watchers:    r.watchers(),
		OpenHandles: r.OpenHandles(),
		OpenConns:   r.db.Stats().OpenConnections,
	}
}

// ComponentType implements introspection.Component.
func (r *Repository) ComponentType() string {
	return "sqlite_store"
}

var _ introspection.Introspectable = (*Repository)(nil)
var _ introspection.Component = (*Repository)(nil)
