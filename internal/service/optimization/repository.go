package optimization

import (
	"context"

	"github.com/ignite/ppc-optimizer/internal/domain"
	"github.com/ignite/ppc-optimizer/internal/storage"
)

// ProfileRepository defines the data access contract for client profiles.
// Implementations must be safe for concurrent use.
type ProfileRepository interface {
	// Get returns a single profile. Returns ErrProfileNotFound if it doesn't exist.
	Get(ctx context.Context, clientID string) (*domain.StoredProfile, error)

	// List returns all profiles ordered by name.
	List(ctx context.Context) ([]domain.StoredProfile, error)

	// Upsert inserts or replaces a profile and sets its timestamps.
	Upsert(ctx context.Context, p *domain.StoredProfile) error

	// Delete removes a profile. Returns ErrProfileNotFound if it doesn't exist.
	Delete(ctx context.Context, clientID string) error
}

// ResultCache holds recently produced results.
type ResultCache interface {
	// Get returns the cached result, or nil without error on a miss.
	Get(ctx context.Context, runID string) (*domain.Result, error)
	Set(ctx context.Context, res *domain.Result) error
}

// RunSink receives one record per finished run, e.g. a warehouse table.
type RunSink interface {
	Record(ctx context.Context, rec storage.RunRecord) error
}
