package ports

import "github.com/aretw0/canopy/pkg/domain"

// Inspector exposes a running tree to observers.
type Inspector interface {
	// Snapshot returns the current status of every node and the blackboard.
	Snapshot() *domain.TreeSnapshot

	// Halt stops the tree; it is safe to call from any goroutine.
	Halt()
}
