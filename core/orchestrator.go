package core

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/anicka-net/ossuary/internal/aggregate"
	"github.com/anicka-net/ossuary/internal/contract"
	"github.com/anicka-net/ossuary/internal/registry"
	"github.com/anicka-net/ossuary/internal/reputation"
	"github.com/anicka-net/ossuary/internal/sentiment"
	"github.com/anicka-net/ossuary/schema"
)

// Scorer wires the collector pipeline to the scoring engine. Every
// collaborator is injected so tests can swap in fakes and in-memory stores.
type Scorer struct {
	Git        contract.GitSource
	Forge      contract.Forge
	Registries map[schema.Ecosystem]contract.Registry
	Store      contract.ScoreStore
	Sentiment  *sentiment.Analyzer
	Config     schema.ScoreConfig

	Deadline time.Duration
	CacheAge time.Duration

	// now is swappable for tests.
	now func() time.Time

	goneMu sync.Mutex
	gone   map[string]time.Time // repos known gone, negative-cached 24h
}

// goneTTL is how long a RepoGone verdict is remembered.
const goneTTL = 24 * time.Hour

// Options tune one scoring request.
type Options struct {
	AsOf    time.Time     // zero = current
	MaxAge  time.Duration // cache freshness bound; zero = Scorer.CacheAge
	Force   bool          // skip the cache read, still write
	RepoURL string        // optional override, skips registry discovery
}

// NewScorer builds a Scorer with defaults applied.
func NewScorer(git contract.GitSource, forge contract.Forge, store contract.ScoreStore, cfg schema.ScoreConfig) *Scorer {
	return &Scorer{
		Git:        git,
		Forge:      forge,
		Registries: make(map[schema.Ecosystem]contract.Registry),
		Store:      store,
		Sentiment:  sentiment.NewAnalyzer(),
		Config:     cfg,
		Deadline:   contract.DefaultTaskDeadline,
		CacheAge:   time.Duration(contract.DefaultCacheDays) * 24 * time.Hour,
		now:        func() time.Time { return time.Now().UTC() },
	}
}

// Score runs the full pipeline for one package: cache, repo discovery,
// parallel git+forge collection, aggregation, sentiment, reputation,
// scoring, cache write.
func (s *Scorer) Score(ctx context.Context, eco schema.Ecosystem, name string, opts Options) (*schema.Score, error) {
	if _, ok := schema.ValidEcosystems[eco]; !ok {
		return nil, fmt.Errorf("%w: unknown ecosystem %q", schema.ErrInput, eco)
	}
	if name == "" {
		return nil, fmt.Errorf("%w: empty package name", schema.ErrInput)
	}

	now := s.now()
	asOf := opts.AsOf
	if asOf.After(now) {
		asOf = now // future cutoffs clamp to now
	}
	bucket := contract.AsOfBucket(asOf)

	maxAge := opts.MaxAge
	if maxAge <= 0 {
		maxAge = s.CacheAge
	}

	if s.Store != nil && !opts.Force {
		if cached, err := s.Store.Read(ctx, eco, name, bucket, maxAge); err != nil {
			contract.LogWarning(fmt.Sprintf("cache read failed for %s:%s: %v", eco, name, err))
		} else if cached != nil {
			return cached, nil
		}
	}

	ref, record, err := s.resolveRepo(ctx, eco, name, opts.RepoURL)
	if err != nil {
		return nil, err
	}
	if s.knownGone(ref) {
		return nil, fmt.Errorf("%w: %s is gone (cached verdict)", schema.ErrUnresolvedRepo, ref.URL)
	}

	inputs, err := s.collect(ctx, eco, name, ref, record, asOf)
	if err != nil {
		if errors.Is(err, schema.ErrRepoGone) || errors.Is(err, schema.ErrUnresolvedRepo) {
			s.markGone(ref)
		}
		return nil, err
	}

	score := ComputeScore(*inputs, s.Config)
	if asOf.IsZero() {
		// Current scores report a null as_of; the concrete evaluation
		// instant only binds when the caller asked for a cutoff.
		score.AsOf = nil
	}

	// A canceled task must never persist a partial result.
	if ctx.Err() != nil {
		return nil, fmt.Errorf("%w: %v", schema.ErrTransientCollect, ctx.Err())
	}
	if s.Store != nil {
		if err := s.Store.Write(ctx, &score, bucket); err != nil {
			contract.LogWarning(fmt.Sprintf("cache write failed for %s:%s: %v", eco, name, err))
		}
	}
	return &score, nil
}

// resolveRepo finds the upstream repository via the ecosystem's registry
// adapter, or parses the explicit override.
func (s *Scorer) resolveRepo(ctx context.Context, eco schema.Ecosystem, name, override string) (schema.RepositoryRef, *schema.RegistryRecord, error) {
	if override != "" {
		ref, err := registry.ParseRef(override)
		return ref, &schema.RegistryRecord{Name: name, RepoURL: ref.URL}, err
	}

	reg, ok := s.Registries[eco]
	if !ok {
		var err error
		reg, err = registry.New(eco, nil)
		if err != nil {
			return schema.RepositoryRef{}, nil, err
		}
		s.Registries[eco] = reg
	}

	record, err := reg.Fetch(ctx, name)
	if err != nil {
		return schema.RepositoryRef{}, nil, err
	}
	if record.RepoURL == "" {
		return schema.RepositoryRef{}, nil, fmt.Errorf("%w: registry lists no repository for %s:%s", schema.ErrUnresolvedRepo, eco, name)
	}
	ref, err := registry.ParseRef(record.RepoURL)
	if err != nil {
		return schema.RepositoryRef{}, nil, err
	}
	if ref.Host != "github.com" {
		// Registries return non-GitHub hosts verbatim; scoring skips them.
		return schema.RepositoryRef{}, nil, fmt.Errorf("%w: unsupported forge %q for %s:%s", schema.ErrUnresolvedRepo, ref.Host, eco, name)
	}
	return ref, record, nil
}

// collect fans out the git and forge branches under the task deadline and
// composes the ScoreInputs snapshot. A transient failure on one branch
// degrades the result instead of failing it; both branches failing
// propagates.
func (s *Scorer) collect(ctx context.Context, eco schema.Ecosystem, name string, ref schema.RepositoryRef, record *schema.RegistryRecord, asOf time.Time) (*schema.ScoreInputs, error) {
	deadline := s.Deadline
	if deadline <= 0 {
		deadline = contract.DefaultTaskDeadline
	}
	ctx, cancel := context.WithTimeout(ctx, deadline)
	defer cancel()

	effectiveAsOf := asOf
	if effectiveAsOf.IsZero() {
		effectiveAsOf = s.now()
	}

	var commits []schema.Commit
	var forgeRec *schema.ForgeRecord
	var gitErr, forgeErr error

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		dir, err := s.Git.Sync(gctx, ref)
		if err != nil {
			gitErr = err
			return nil // degraded, not fatal to the group
		}
		commits, gitErr = s.Git.Commits(gctx, dir, effectiveAsOf)
		return nil
	})
	g.Go(func() error {
		forgeRec, forgeErr = s.Forge.Collect(gctx, ref, "")
		return nil
	})
	_ = g.Wait()

	if gitErr != nil && errors.Is(gitErr, schema.ErrRepoGone) {
		return nil, fmt.Errorf("%w: %v", schema.ErrUnresolvedRepo, gitErr)
	}
	if gitErr != nil && forgeErr != nil {
		return nil, fmt.Errorf("%w: git: %v; forge: %v", schema.ErrTransientCollect, gitErr, forgeErr)
	}
	partial := gitErr != nil || forgeErr != nil
	if gitErr != nil {
		contract.LogWarning(fmt.Sprintf("git collection degraded for %s:%s: %v", eco, name, gitErr))
	}
	if forgeErr != nil {
		contract.LogWarning(fmt.Sprintf("forge collection degraded for %s:%s: %v", eco, name, forgeErr))
	}

	tables, err := aggregate.Build(commits, effectiveAsOf, s.Config)
	if err != nil {
		return nil, err
	}

	inputs := &schema.ScoreInputs{
		Package: schema.PackageIdentity{Ecosystem: eco, Name: name},
		Repo:    ref,
		Tables:  tables,
		Partial: partial,
		AsOf:    effectiveAsOf,
	}
	inputs.TotalCommits = len(commits)
	if !tables.FirstCommit.IsZero() {
		inputs.RepoAgeYears = effectiveAsOf.Sub(tables.FirstCommit).Hours() / 24 / 365.25
	}
	// Missing downloads stay nil and contribute no visibility factor.
	if record != nil {
		inputs.DownloadsWeek = record.DownloadsWeek
	}

	if forgeRec != nil {
		s.applyForge(inputs, forgeRec, eco, name, effectiveAsOf)
	}

	corpus := sentiment.BuildCorpus(recentOf(commits, effectiveAsOf), issueTitles(forgeRec), releaseNotes(forgeRec))
	mood := s.Sentiment.Analyze(corpus)
	inputs.SentimentCompound = mood.Compound
	inputs.FrustrationFlags = mood.FrustrationFlags

	return inputs, nil
}

// applyForge merges forge metadata and the maintainer reputation into the
// snapshot.
func (s *Scorer) applyForge(inputs *schema.ScoreInputs, rec *schema.ForgeRecord, eco schema.Ecosystem, name string, asOf time.Time) {
	inputs.Stars = rec.Stars
	inputs.OwnerIsOrg = rec.OwnerType == "Organization"
	inputs.AdminCount = rec.AdminCount
	inputs.HasSponsors = rec.HasSponsors
	inputs.CIIBadge = rec.CIIBadge

	profile := rec.Maintainer
	if profile != nil {
		// The profile belongs to the package's maintainer; enrich it with
		// what the registry knows before the signal table runs.
		profile.PackagesMaintained = append(profile.PackagesMaintained, name)
		profile.TopMaintainer = profile.TopMaintainer || schema.IsTopPackage(eco, name)
	}
	rep := reputation.Score(profile, asOf, s.Config)
	inputs.ReputationTier = rep.Tier(s.Config)
	if inputs.ReputationTier != schema.TierUnknown {
		inputs.ReputationEvidence = rep.Evidence(s.Config)
	}
}

// recentOf returns the commits inside the 12-month window, preserving the
// descending order of the walk.
func recentOf(commits []schema.Commit, asOf time.Time) []schema.Commit {
	start := asOf.AddDate(0, -12, 0)
	var out []schema.Commit
	for _, c := range commits {
		if c.AuthorTime.After(start) {
			out = append(out, c)
		}
	}
	return out
}

// knownGone consults the 24h negative cache for gone repositories.
func (s *Scorer) knownGone(ref schema.RepositoryRef) bool {
	s.goneMu.Lock()
	defer s.goneMu.Unlock()
	until, ok := s.gone[ref.URL]
	return ok && s.now().Before(until)
}

func (s *Scorer) markGone(ref schema.RepositoryRef) {
	s.goneMu.Lock()
	defer s.goneMu.Unlock()
	if s.gone == nil {
		s.gone = make(map[string]time.Time)
	}
	s.gone[ref.URL] = s.now().Add(goneTTL)
}

func issueTitles(rec *schema.ForgeRecord) []string {
	if rec == nil {
		return nil
	}
	return rec.IssueTitles
}

func releaseNotes(rec *schema.ForgeRecord) []string {
	if rec == nil {
		return nil
	}
	return rec.ReleaseNotes
}
