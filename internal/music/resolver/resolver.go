// Package resolver turns a search query or link into a playable track.
package resolver

import (
	"context"
	"errors"

	"github.com/keshon/maestro/internal/music/queue"
)

var (
	ErrEmptyQuery = errors.New("query is empty")
	ErrNoResults  = errors.New("no matching tracks found")
)

// Resolver resolves a query into zero or one track descriptor.
type Resolver interface {
	Resolve(ctx context.Context, query, requestedBy string) (queue.Track, error)
}
