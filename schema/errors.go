package schema

import "errors"

// Error kinds. Collectors and the orchestrator wrap these with %w so callers
// can classify with errors.Is.
var (
	// ErrInput marks an unknown ecosystem, malformed name or unparseable
	// cutoff. Never cached.
	ErrInput = errors.New("invalid input")

	// ErrUnresolvedRepo means no upstream repository URL could be found, or
	// it points at an unsupported forge. A score is never fabricated.
	ErrUnresolvedRepo = errors.New("unresolved repository")

	// ErrTransientCollect marks network failures, 5xx responses and
	// rate-limit exhaustion after backoff. The orchestrator may degrade.
	ErrTransientCollect = errors.New("transient collection failure")

	// ErrRepoGone marks a repository that was deleted or became forbidden
	// after being known good.
	ErrRepoGone = errors.New("repository gone")

	// ErrInvariant marks a violated internal assertion in the aggregator or
	// scorer. Fatal; never cached.
	ErrInvariant = errors.New("internal invariant violated")
)
