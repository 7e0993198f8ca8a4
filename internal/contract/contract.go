// Package contract provides interfaces and shared utilities for ossuary's
// internal architecture.
package contract

import (
	"context"
	"time"

	"github.com/anicka-net/ossuary/schema"
)

// GitSource defines the operations the orchestrator needs from the git
// collector. This allows the pipeline to be tested without a git executable
// or network access.
type GitSource interface {
	// Sync clones or updates the bare blobless mirror for ref and returns
	// the local mirror directory.
	Sync(ctx context.Context, ref schema.RepositoryRef) (string, error)

	// Commits enumerates commits on the default branch in author-time
	// descending order. Commits authored after asOf are skipped when asOf
	// is non-zero.
	Commits(ctx context.Context, dir string, asOf time.Time) ([]schema.Commit, error)
}

// Registry is one ecosystem's package-registry adapter.
type Registry interface {
	// Ecosystem names the registry's ecosystem.
	Ecosystem() schema.Ecosystem

	// Fetch returns the registry's view of the package.
	Fetch(ctx context.Context, name string) (*schema.RegistryRecord, error)
}

// Forge acquires forge-level metadata for a resolved repository.
type Forge interface {
	// Collect fetches repository, owner, contributor, release, issue and
	// maintainer data. topLogin optionally names the maintainer whose
	// profile should be fetched (falls back to the repo owner).
	Collect(ctx context.Context, ref schema.RepositoryRef, topLogin string) (*schema.ForgeRecord, error)
}

// ScoreStore is the persistent score cache plus the append-only history
// that backs the movers query. Implementations must make Read and Write
// individually atomic.
type ScoreStore interface {
	// Read returns the cached score for the key iff it was computed within
	// maxAge and its as_of bucket matches. A miss returns (nil, nil).
	Read(ctx context.Context, eco schema.Ecosystem, name, asOfBucket string, maxAge time.Duration) (*schema.Score, error)

	// Write upserts the scores row and appends a score_history row.
	Write(ctx context.Context, score *schema.Score, asOfBucket string) error

	// Movers returns packages whose two most recent history rows within
	// since differ by the largest absolute delta, descending. Ties break
	// by later computed_at.
	Movers(ctx context.Context, limit int, since time.Duration) ([]schema.MoverRow, error)

	// History returns the append-only rows for one package, newest first.
	History(ctx context.Context, eco schema.Ecosystem, name string, limit int) ([]schema.HistoryRow, error)

	// Stale lists packages whose latest current score is older than maxAge,
	// optionally filtered by ecosystem.
	Stale(ctx context.Context, eco schema.Ecosystem, maxAge time.Duration) ([]schema.PackageIdentity, error)

	// Close closes the underlying connection.
	Close() error
}
