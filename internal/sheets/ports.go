// Package sheets defines the export target ports the worker writes
// grouped timelines through.
package sheets

import (
	"context"

	"walletline/internal/core"
)

// TimelineWriter persists a grouped timeline to an external sheet-like
// target. Implementations must be safe for sequential reuse; the worker
// never calls them concurrently for the same wallet.
type TimelineWriter interface {
	WriteTimeline(ctx context.Context, walletName string, timeline core.GroupedTimeline) error
}
