package registry

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/anicka-net/ossuary/schema"
)

var repoSubpathRe = regexp.MustCompile(`/(issues|pulls|tree|blob|wiki|releases|actions|discussions)(/.*)?$`)

// NormalizeRepoURL converts the various forms registries store repository
// URLs in (git+https, git://, ssh, trailing .git, deep links) into a plain
// https URL pointing at the repository root.
func NormalizeRepoURL(raw string) string {
	u := strings.TrimSpace(raw)
	if u == "" {
		return ""
	}

	u = strings.TrimPrefix(u, "git+")
	u = strings.Replace(u, "git://", "https://", 1)
	if strings.HasPrefix(u, "ssh://git@") {
		u = "https://" + strings.TrimPrefix(u, "ssh://git@")
	}
	// scp-like form: git@github.com:owner/repo.git
	if strings.HasPrefix(u, "git@") {
		u = "https://" + strings.Replace(strings.TrimPrefix(u, "git@"), ":", "/", 1)
	}

	// Drop fragments and query strings, then deep links into the repo.
	u = strings.SplitN(u, "#", 2)[0]
	u = strings.SplitN(u, "?", 2)[0]
	u = strings.TrimRight(u, "/")
	u = repoSubpathRe.ReplaceAllString(u, "")
	u = strings.TrimSuffix(u, ".git")
	return u
}

// ParseRef splits a normalized repository URL into host/owner/repo. URLs on
// unsupported forges still parse; the caller decides whether the host is
// usable.
func ParseRef(repoURL string) (schema.RepositoryRef, error) {
	u := NormalizeRepoURL(repoURL)
	if u == "" {
		return schema.RepositoryRef{}, fmt.Errorf("%w: empty repository URL", schema.ErrUnresolvedRepo)
	}

	trimmed := strings.TrimPrefix(strings.TrimPrefix(u, "https://"), "http://")
	parts := strings.Split(trimmed, "/")
	if len(parts) < 3 || parts[1] == "" || parts[2] == "" {
		return schema.RepositoryRef{}, fmt.Errorf("%w: cannot parse owner/repo from %q", schema.ErrUnresolvedRepo, repoURL)
	}

	ref := schema.RepositoryRef{
		Host:  parts[0],
		Owner: parts[1],
		Repo:  parts[2],
	}
	ref.URL = "https://" + ref.Host + "/" + ref.Owner + "/" + ref.Repo
	return ref, nil
}
