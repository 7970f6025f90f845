// Package registry reads the external user/identity registry to attach
// team and supervisor labels to ranking entries. The registry is owned
// by another service; this package only performs read-only lookups keyed
// by normalized username.
package registry

import (
	"context"

	"github.com/crmagente/ranking/internal/domain/identity"
)

// Agent is one identity registry entry.
type Agent struct {
	Username   string `bson:"username"`
	Role       string `bson:"role"`
	Team       string `bson:"team"`
	Supervisor string `bson:"supervisor"`
}

// Directory exposes the registry as a point-in-time snapshot keyed by
// normalized username. A missing key means no match, never an error.
type Directory interface {
	Snapshot(ctx context.Context) (map[identity.Key]Agent, error)
}
