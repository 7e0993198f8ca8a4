package gitsrc

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/anicka-net/ossuary/internal/contract"
	"github.com/anicka-net/ossuary/schema"
	"github.com/gofrs/flock"
)

// fetchStamp marks the last successful fetch inside a mirror directory.
const fetchStamp = "ossuary-fetch-stamp"

// Source implements contract.GitSource against the local git binary.
type Source struct {
	ReposPath   string
	FetchMaxAge time.Duration
}

var _ contract.GitSource = &Source{} // Compile-time check

// NewSource returns a Source rooted at reposPath.
func NewSource(reposPath string) *Source {
	return &Source{ReposPath: reposPath, FetchMaxAge: contract.DefaultFetchMaxAge}
}

// MirrorDir is the on-disk location of a repository's bare mirror.
func (s *Source) MirrorDir(ref schema.RepositoryRef) string {
	return filepath.Join(s.ReposPath, ref.Host, ref.Owner, ref.Repo+".git")
}

// Sync clones or updates the bare blobless mirror for ref. A per-mirror
// file lock serializes concurrent tasks targeting the same repository.
func (s *Source) Sync(ctx context.Context, ref schema.RepositoryRef) (string, error) {
	dir := s.MirrorDir(ref)
	if err := os.MkdirAll(filepath.Dir(dir), 0o755); err != nil {
		return "", fmt.Errorf("%w: preparing %s: %v", schema.ErrTransientCollect, dir, err)
	}

	lock := flock.New(dir + ".lock")
	locked, err := lock.TryLockContext(ctx, 250*time.Millisecond)
	if err != nil || !locked {
		return "", fmt.Errorf("%w: could not lock mirror %s: %v", schema.ErrTransientCollect, dir, err)
	}
	defer func() { _ = lock.Unlock() }()

	if _, statErr := os.Stat(filepath.Join(dir, "HEAD")); statErr == nil {
		return dir, s.update(ctx, dir, ref)
	}
	return dir, s.clone(ctx, dir, ref)
}

// clone creates a bare, history-only mirror: commit metadata without file
// blobs, restricted to the default branch.
func (s *Source) clone(ctx context.Context, dir string, ref schema.RepositoryRef) error {
	_ = os.RemoveAll(dir)
	_, err := runGit(ctx, "clone", "--bare", "--filter=blob:none", "--single-branch", ref.URL, dir)
	if err != nil {
		return err
	}
	return s.touchStamp(dir)
}

// update fetches the mirror if the last successful fetch is older than
// FetchMaxAge. A fetch that fails for any reason other than a gone
// repository (rewritten history included) falls back to a fresh clone.
func (s *Source) update(ctx context.Context, dir string, ref schema.RepositoryRef) error {
	if info, err := os.Stat(filepath.Join(dir, fetchStamp)); err == nil {
		if time.Since(info.ModTime()) < s.FetchMaxAge {
			return nil
		}
	}

	_, err := runGit(ctx, "--git-dir", dir, "fetch", "--force", "--prune", "origin",
		"+refs/heads/*:refs/heads/*")
	if err != nil {
		if errors.Is(err, schema.ErrRepoGone) {
			return err
		}
		// Any other fetch failure, e.g. rewritten history: re-clone rather than fail.
		contract.LogWarning(fmt.Sprintf("fetch failed for %s/%s, re-cloning: %v", ref.Owner, ref.Repo, err))
		return s.clone(ctx, dir, ref)
	}
	return s.touchStamp(dir)
}

func (s *Source) touchStamp(dir string) error {
	return os.WriteFile(filepath.Join(dir, fetchStamp), []byte(time.Now().UTC().Format(time.RFC3339)+"\n"), 0o644)
}
