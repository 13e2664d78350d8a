// Package feeds defines the data-source seams. The engine consumes one
// immutable Snapshot per cycle; where it comes from (broker API, replay
// file, test fixture) is the caller's business.
package feeds

import (
	"context"

	"github.com/sealrun/sealrun/internal/market"
)

// SnapshotSource produces one full market snapshot per call.
type SnapshotSource interface {
	Fetch(ctx context.Context) (*market.Snapshot, error)
}

// ThemeSource supplies symbol-to-theme membership.
type ThemeSource interface {
	Membership(ctx context.Context) (map[string][]string, error)
}
