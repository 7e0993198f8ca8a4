package registry

import (
	"context"
	"fmt"

	"github.com/anicka-net/ossuary/schema"
)

// Crates talks to crates.io.
type Crates struct {
	c      *client
	APIURL string
}

// NewCrates returns the crates.io adapter with production endpoints.
func NewCrates(c *client) *Crates {
	return &Crates{c: c, APIURL: "https://crates.io/api/v1"}
}

// Ecosystem implements contract.Registry.
func (r *Crates) Ecosystem() schema.Ecosystem { return schema.EcosystemCargo }

type cratesResponse struct {
	Crate struct {
		NewestVersion   string `json:"newest_version"`
		Description     string `json:"description"`
		Repository      string `json:"repository"`
		RecentDownloads int64  `json:"recent_downloads"` // last 90 days
	} `json:"crate"`
}

// Fetch implements contract.Registry.
func (r *Crates) Fetch(ctx context.Context, name string) (*schema.RegistryRecord, error) {
	var resp cratesResponse
	found, err := r.c.getJSON(ctx, fmt.Sprintf("%s/crates/%s", r.APIURL, name), &resp)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, fmt.Errorf("%w: crate %q not found", schema.ErrUnresolvedRepo, name)
	}

	rec := &schema.RegistryRecord{
		Name:          name,
		LatestVersion: resp.Crate.NewestVersion,
		Description:   resp.Crate.Description,
		RepoURL:       NormalizeRepoURL(resp.Crate.Repository),
	}
	if resp.Crate.RecentDownloads > 0 {
		rec.DownloadsWeek = intPtr(resp.Crate.RecentDownloads / 13) // ~13 weeks in 90 days
	}
	return rec, nil
}
