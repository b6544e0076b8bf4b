package treelog

import (
	"github.com/arthur-debert/treelog/types"
)

// Log is the contract the engine expects from the durable, synced event
// store. Implementations must preserve relative append order per device;
// no global delivery order is assumed, and the engine sorts by timestamp
// before any full rebuild. Logs are append-only: nothing an
// implementation does may rewrite or truncate recorded events.
type Log interface {
	// Append durably records one event.
	Append(ev types.NodeEvent) error

	// All returns every known event. Order across devices is
	// arbitrary; only per-device append order is meaningful.
	All() ([]types.NodeEvent, error)

	// Close releases any resources held by the log.
	Close() error
}
