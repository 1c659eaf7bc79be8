// Package telemetry defines the boundary to the remote IoT sensor API.
// Implementations are fail-soft: callers must treat "no data" and
// "fetch failed" identically, so FetchHistory never returns an error.
package telemetry

import (
	"context"

	"github.com/kverne/parkcast/core/model"
)

// Source fetches historical readings for a sensor field.
type Source interface {
	// FetchHistory returns the readings for the field ordered by
	// timestamp ascending. An empty slice means no data or a failed
	// fetch; the two are indistinguishable on purpose.
	FetchHistory(ctx context.Context, field string) []model.Reading
}
