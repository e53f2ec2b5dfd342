package rc

import "github.com/eth2030/rcheap/internal/rclog"

// CollectorConfig holds the per-graph tunables for cycle collection: how
// large a candidate component the Reachability Oracle is willing to walk
// before giving up defensively, and where its diagnostics go. It plays the
// same role here that node.LifecycleConfig plays for a managed service set:
// a small bundle passed once at construction. Its fields are not validated.
// Each control block keeps the config it was built with, and an oracle walk
// uses the config of the node whose Drop started it.
type CollectorConfig struct {
	// MaxComponentSize caps how many nodes the Reachability Oracle will
	// visit before giving up and reporting the component as non-orphaned.
	// Zero (the default) means unbounded.
	MaxComponentSize int

	// Logger receives structured diagnostics for defensive-fallback and
	// component-size-cap events. Nil uses rclog.Default().
	Logger *rclog.Logger
}

// DefaultCollectorConfig returns the zero-value config: no size cap, and
// logging through the package-level default logger.
func DefaultCollectorConfig() CollectorConfig {
	return CollectorConfig{}
}

func (c CollectorConfig) logger() *rclog.Logger {
	if c.Logger != nil {
		return c.Logger
	}
	return rclog.Default()
}
