package registry

import (
	"context"
	"fmt"

	"github.com/anicka-net/ossuary/schema"
)

// Packagist talks to packagist.org. Package names are vendor/package.
type Packagist struct {
	c      *client
	APIURL string
}

// NewPackagist returns the Packagist adapter with production endpoints.
func NewPackagist(c *client) *Packagist {
	return &Packagist{c: c, APIURL: "https://packagist.org"}
}

// Ecosystem implements contract.Registry.
func (p *Packagist) Ecosystem() schema.Ecosystem { return schema.EcosystemPackagist }

type packagistResponse struct {
	Package struct {
		Description string `json:"description"`
		Repository  string `json:"repository"`
		Downloads   struct {
			Daily int64 `json:"daily"`
		} `json:"downloads"`
		Versions map[string]struct {
			Version string `json:"version"`
		} `json:"versions"`
	} `json:"package"`
}

// Fetch implements contract.Registry.
func (p *Packagist) Fetch(ctx context.Context, name string) (*schema.RegistryRecord, error) {
	var resp packagistResponse
	found, err := p.c.getJSON(ctx, fmt.Sprintf("%s/packages/%s.json", p.APIURL, name), &resp)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, fmt.Errorf("%w: packagist package %q not found", schema.ErrUnresolvedRepo, name)
	}

	rec := &schema.RegistryRecord{
		Name:        name,
		Description: resp.Package.Description,
		RepoURL:     NormalizeRepoURL(resp.Package.Repository),
	}
	if resp.Package.Downloads.Daily > 0 {
		rec.DownloadsWeek = intPtr(resp.Package.Downloads.Daily * 7)
	}
	// dev-* keys shadow the stable releases; pick the first stable-looking one.
	for tag, v := range resp.Package.Versions {
		if len(tag) > 0 && tag[0] != 'd' {
			rec.LatestVersion = v.Version
			break
		}
	}
	return rec, nil
}
