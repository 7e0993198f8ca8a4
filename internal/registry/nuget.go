package registry

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/anicka-net/ossuary/schema"
)

// NuGet talks to the NuGet search and registration APIs.
type NuGet struct {
	c         *client
	APIURL    string
	SearchURL string
}

// NewNuGet returns the NuGet adapter with production endpoints.
func NewNuGet(c *client) *NuGet {
	return &NuGet{
		c:         c,
		APIURL:    "https://api.nuget.org/v3",
		SearchURL: "https://azuresearch-usnc.nuget.org/query",
	}
}

// Ecosystem implements contract.Registry.
func (n *NuGet) Ecosystem() schema.Ecosystem { return schema.EcosystemNuGet }

type nugetSearch struct {
	Data []struct {
		Version        string `json:"version"`
		Description    string `json:"description"`
		ProjectURL     string `json:"projectUrl"`
		TotalDownloads int64  `json:"totalDownloads"`
	} `json:"data"`
}

type nugetRegistration struct {
	Items []struct {
		Items []struct {
			CatalogEntry struct {
				ProjectURL string `json:"projectUrl"`
			} `json:"catalogEntry"`
		} `json:"items"`
	} `json:"items"`
}

// Fetch implements contract.Registry.
func (n *NuGet) Fetch(ctx context.Context, name string) (*schema.RegistryRecord, error) {
	var search nugetSearch
	query := fmt.Sprintf("%s?q=%s&take=1", n.SearchURL, url.QueryEscape("packageid:"+name))
	found, err := n.c.getJSON(ctx, query, &search)
	if err != nil {
		return nil, err
	}
	if !found || len(search.Data) == 0 {
		return nil, fmt.Errorf("%w: nuget package %q not found", schema.ErrUnresolvedRepo, name)
	}

	pkg := search.Data[0]
	rec := &schema.RegistryRecord{
		Name:          name,
		LatestVersion: pkg.Version,
		Description:   pkg.Description,
	}
	if pkg.TotalDownloads > 0 {
		rec.DownloadsWeek = intPtr(pkg.TotalDownloads / 260)
	}
	if isCodeHost(pkg.ProjectURL) {
		rec.RepoURL = NormalizeRepoURL(pkg.ProjectURL)
	}

	// The search projectUrl often points at docs; the registration catalog
	// entry is the fallback source for the real repository.
	if rec.RepoURL == "" {
		var reg nugetRegistration
		regURL := fmt.Sprintf("%s/registration5-gz-semver2/%s/index.json", n.APIURL, strings.ToLower(name))
		if found, err := n.c.getJSON(ctx, regURL, &reg); err == nil && found && len(reg.Items) > 0 {
			page := reg.Items[len(reg.Items)-1]
			if len(page.Items) > 0 {
				u := page.Items[len(page.Items)-1].CatalogEntry.ProjectURL
				if isCodeHost(u) {
					rec.RepoURL = NormalizeRepoURL(u)
				}
			}
		}
	}
	return rec, nil
}

func isCodeHost(u string) bool {
	return strings.Contains(u, "github.com") || strings.Contains(u, "gitlab.com")
}
