package registry

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/anicka-net/ossuary/schema"
)

// PyPI talks to pypi.org and pypistats.org.
type PyPI struct {
	c        *client
	APIURL   string
	StatsURL string
}

// NewPyPI returns the PyPI adapter with production endpoints.
func NewPyPI(c *client) *PyPI {
	return &PyPI{
		c:        c,
		APIURL:   "https://pypi.org/pypi",
		StatsURL: "https://pypistats.org/api",
	}
}

// Ecosystem implements contract.Registry.
func (p *PyPI) Ecosystem() schema.Ecosystem { return schema.EcosystemPyPI }

type pypiResponse struct {
	Info struct {
		Version     string            `json:"version"`
		Summary     string            `json:"summary"`
		HomePage    string            `json:"home_page"`
		Author      string            `json:"author"`
		Maintainer  string            `json:"maintainer"`
		ProjectURLs map[string]string `json:"project_urls"`
	} `json:"info"`
}

type pypiStats struct {
	Data struct {
		LastMonth int64 `json:"last_month"`
	} `json:"data"`
}

// Priority order across project_urls keys: Repository, then any Source*
// key, then Code, Homepage, Bug Tracker. Preserving it exactly keeps
// reference scores reproducible.
var projectURLTail = []string{"code", "homepage", "bug tracker"}

// Fetch implements contract.Registry.
func (p *PyPI) Fetch(ctx context.Context, name string) (*schema.RegistryRecord, error) {
	var resp pypiResponse
	found, err := p.c.getJSON(ctx, fmt.Sprintf("%s/%s/json", p.APIURL, name), &resp)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, fmt.Errorf("%w: pypi package %q not found", schema.ErrUnresolvedRepo, name)
	}

	rec := &schema.RegistryRecord{
		Name:          name,
		LatestVersion: resp.Info.Version,
		Description:   resp.Info.Summary,
		RepoURL:       extractPyPIRepoURL(resp.Info.ProjectURLs, resp.Info.HomePage),
	}
	switch {
	case resp.Info.Maintainer != "":
		rec.Maintainers = []string{resp.Info.Maintainer}
	case resp.Info.Author != "":
		rec.Maintainers = []string{resp.Info.Author}
	}

	var stats pypiStats
	if found, err := p.c.getJSON(ctx, fmt.Sprintf("%s/packages/%s/recent", p.StatsURL, name), &stats); err == nil && found {
		rec.DownloadsWeek = intPtr(stats.Data.LastMonth / 4)
	}
	return rec, nil
}

// extractPyPIRepoURL walks project_urls case-insensitively in priority
// order. Non-GitHub hosts are returned verbatim; downstream skips them.
func extractPyPIRepoURL(projectURLs map[string]string, homePage string) string {
	lower := make(map[string]string, len(projectURLs))
	var sourceKeys []string
	for k, v := range projectURLs {
		lk := strings.ToLower(k)
		lower[lk] = v
		if strings.HasPrefix(lk, "source") {
			sourceKeys = append(sourceKeys, lk)
		}
	}

	if u := lower["repository"]; u != "" {
		return NormalizeRepoURL(u)
	}
	sort.Strings(sourceKeys) // deterministic pick among Source* variants
	for _, k := range sourceKeys {
		if u := lower[k]; u != "" {
			return NormalizeRepoURL(u)
		}
	}
	for _, key := range projectURLTail {
		if u := lower[key]; u != "" {
			return NormalizeRepoURL(u)
		}
	}
	if homePage != "" {
		return NormalizeRepoURL(homePage)
	}
	return ""
}
