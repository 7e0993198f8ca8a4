package registry

import (
	"context"
	"fmt"
	"strings"

	"github.com/anicka-net/ossuary/schema"
)

// GitHubDirect is the github pseudo-ecosystem: the package name is
// owner/repo and no registry call is made.
type GitHubDirect struct{}

// NewGitHubDirect returns the github pseudo-adapter.
func NewGitHubDirect() *GitHubDirect { return &GitHubDirect{} }

// Ecosystem implements contract.Registry.
func (g *GitHubDirect) Ecosystem() schema.Ecosystem { return schema.EcosystemGitHub }

// Fetch implements contract.Registry.
func (g *GitHubDirect) Fetch(_ context.Context, name string) (*schema.RegistryRecord, error) {
	name = strings.Trim(name, "/")
	if strings.HasPrefix(name, "https://") {
		return &schema.RegistryRecord{Name: name, RepoURL: NormalizeRepoURL(name)}, nil
	}
	parts := strings.Split(name, "/")
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return nil, fmt.Errorf("%w: github packages must be owner/repo, got %q", schema.ErrInput, name)
	}
	return &schema.RegistryRecord{
		Name:    name,
		RepoURL: "https://github.com/" + name,
	}, nil
}
