package registry

import (
	"context"
	"fmt"

	"github.com/anicka-net/ossuary/schema"
)

// Npm talks to the npm registry and its downloads API.
type Npm struct {
	c            *client
	RegistryURL  string
	DownloadsURL string
}

// NewNpm returns the npm adapter with production endpoints.
func NewNpm(c *client) *Npm {
	return &Npm{
		c:            c,
		RegistryURL:  "https://registry.npmjs.org",
		DownloadsURL: "https://api.npmjs.org/downloads",
	}
}

// Ecosystem implements contract.Registry.
func (n *Npm) Ecosystem() schema.Ecosystem { return schema.EcosystemNpm }

type npmManifest struct {
	Name        string            `json:"name"`
	Description string            `json:"description"`
	DistTags    map[string]string `json:"dist-tags"`
	Repository  any               `json:"repository"` // object or bare string
	Maintainers []struct {
		Name string `json:"name"`
	} `json:"maintainers"`
}

type npmDownloads struct {
	Downloads int64 `json:"downloads"`
}

// Fetch implements contract.Registry.
func (n *Npm) Fetch(ctx context.Context, name string) (*schema.RegistryRecord, error) {
	var manifest npmManifest
	found, err := n.c.getJSON(ctx, fmt.Sprintf("%s/%s", n.RegistryURL, name), &manifest)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, fmt.Errorf("%w: npm package %q not found", schema.ErrUnresolvedRepo, name)
	}

	rec := &schema.RegistryRecord{
		Name:          name,
		LatestVersion: manifest.DistTags["latest"],
		Description:   manifest.Description,
		RepoURL:       NormalizeRepoURL(repositoryField(manifest.Repository)),
	}
	for _, m := range manifest.Maintainers {
		if m.Name != "" {
			rec.Maintainers = append(rec.Maintainers, m.Name)
		}
	}

	var dl npmDownloads
	if found, err := n.c.getJSON(ctx, fmt.Sprintf("%s/point/last-week/%s", n.DownloadsURL, name), &dl); err == nil && found {
		rec.DownloadsWeek = intPtr(dl.Downloads)
	}
	return rec, nil
}

// repositoryField handles both the object form {"type","url"} and the bare
// string shorthand of the manifest's repository field.
func repositoryField(v any) string {
	switch r := v.(type) {
	case string:
		return r
	case map[string]any:
		if u, ok := r["url"].(string); ok {
			return u
		}
	}
	return ""
}
