package registry

import (
	"context"
	"fmt"

	"github.com/anicka-net/ossuary/schema"
)

// RubyGems talks to rubygems.org.
type RubyGems struct {
	c      *client
	APIURL string
}

// NewRubyGems returns the RubyGems adapter with production endpoints.
func NewRubyGems(c *client) *RubyGems {
	return &RubyGems{c: c, APIURL: "https://rubygems.org/api/v1"}
}

// Ecosystem implements contract.Registry.
func (r *RubyGems) Ecosystem() schema.Ecosystem { return schema.EcosystemRubyGems }

type gemResponse struct {
	Version       string `json:"version"`
	Info          string `json:"info"`
	SourceCodeURI string `json:"source_code_uri"`
	HomepageURI   string `json:"homepage_uri"`
	Downloads     int64  `json:"downloads"` // lifetime total
}

// Fetch implements contract.Registry.
func (r *RubyGems) Fetch(ctx context.Context, name string) (*schema.RegistryRecord, error) {
	var gem gemResponse
	found, err := r.c.getJSON(ctx, fmt.Sprintf("%s/gems/%s.json", r.APIURL, name), &gem)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, fmt.Errorf("%w: gem %q not found", schema.ErrUnresolvedRepo, name)
	}

	repo := gem.SourceCodeURI
	if repo == "" {
		repo = gem.HomepageURI
	}

	rec := &schema.RegistryRecord{
		Name:          name,
		LatestVersion: gem.Version,
		Description:   gem.Info,
		RepoURL:       NormalizeRepoURL(repo),
	}
	if gem.Downloads > 0 {
		// Lifetime total over an assumed five-year span; rough but better
		// than claiming zero visibility.
		rec.DownloadsWeek = intPtr(gem.Downloads / 260)
	}
	return rec, nil
}
