// Package channels adapts inbound email and chat messages into ingest
// requests and formats the replies each channel expects.
package channels

import (
	"context"

	"github.com/colonyops/taskorg/internal/organizer"
)

// Organizer is the ingest pipeline a channel forwards tasks to.
type Organizer interface {
	Organize(ctx context.Context, req organizer.Request) (organizer.Response, error)
}
