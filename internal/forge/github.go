// Package forge acquires forge-level metadata for resolved repositories.
// GitHub is the only supported forge; URLs elsewhere surface as
// UnresolvedRepo before any call is made.
package forge

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/anicka-net/ossuary/internal/contract"
	"github.com/anicka-net/ossuary/internal/ratelimit"
	"github.com/anicka-net/ossuary/schema"
)

// Collection bounds.
const (
	topContributors = 30
	issueSampleSize = 50
	maxAdminCount   = 50
	maxRepoPages    = 10
	notFoundTTL     = time.Hour
)

// Client implements contract.Forge against the GitHub REST and GraphQL APIs
// plus the CII best-practices API.
type Client struct {
	APIBase    string
	GraphQLURL string
	CIIBase    string

	token   string
	http    *http.Client
	limiter *ratelimit.PerHost

	mu       sync.Mutex
	notFound map[string]time.Time // negative cache for 404 endpoints
}

var _ contract.Forge = &Client{} // Compile-time check

// NewClient creates a forge client. An empty token keeps the unauthenticated
// per-host rate; a token raises it.
func NewClient(token string) *Client {
	rps := ratelimit.ForgeAnonymousRate
	if token != "" {
		rps = ratelimit.ForgeAuthedRate
	}
	return &Client{
		APIBase:    "https://api.github.com",
		GraphQLURL: "https://api.github.com/graphql",
		CIIBase:    "https://bestpractices.coreinfrastructure.org",
		token:      token,
		http:       &http.Client{Timeout: 30 * time.Second},
		limiter:    ratelimit.NewPerHost(rps, 2),
		notFound:   make(map[string]time.Time),
	}
}

// Collect implements contract.Forge.
func (c *Client) Collect(ctx context.Context, ref schema.RepositoryRef, topLogin string) (*schema.ForgeRecord, error) {
	if ref.Host != "github.com" {
		return nil, fmt.Errorf("%w: unsupported forge %q", schema.ErrUnresolvedRepo, ref.Host)
	}

	rec := &schema.ForgeRecord{Ref: ref}

	var repo repoInfo
	found, err := c.get(ctx, fmt.Sprintf("/repos/%s/%s", ref.Owner, ref.Repo), &repo)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, fmt.Errorf("%w: %s/%s", schema.ErrRepoGone, ref.Owner, ref.Repo)
	}

	rec.Stars = repo.StargazersCount
	rec.DefaultBranch = repo.DefaultBranch
	rec.PushedAt = repo.PushedAt
	rec.CreatedAt = repo.CreatedAt
	rec.Archived = repo.Archived
	rec.OpenIssues = repo.OpenIssuesCount
	rec.OwnerType = repo.Owner.Type

	if rec.OwnerType == "Organization" {
		c.collectOrg(ctx, ref.Owner, rec)
	}
	c.collectContributors(ctx, ref, rec)
	c.collectReleases(ctx, ref, rec)
	c.collectIssueTitles(ctx, ref, rec)
	rec.CIIBadge = c.hasCIIBadge(ctx, ref.URL)

	login := topLogin
	if login == "" {
		login = repo.Owner.Login
	}
	if login != "" {
		profile := c.collectUser(ctx, login)
		rec.Maintainer = profile
		if profile != nil {
			rec.HasSponsors = c.hasSponsorsListing(ctx, login)
			if rec.HasSponsors {
				if n, ok := c.sponsorCount(ctx, login); ok {
					profile.SponsorCount = &n
				}
			}
		}
	}
	return rec, nil
}

type repoInfo struct {
	StargazersCount int        `json:"stargazers_count"`
	DefaultBranch   string     `json:"default_branch"`
	PushedAt        *time.Time `json:"pushed_at"`
	CreatedAt       *time.Time `json:"created_at"`
	Archived        bool       `json:"archived"`
	OpenIssuesCount int        `json:"open_issues_count"`
	Owner           struct {
		Login string `json:"login"`
		Type  string `json:"type"`
	} `json:"owner"`
}

// collectOrg counts members with the admin role, upper-bounded to keep one
// page sufficient.
func (c *Client) collectOrg(ctx context.Context, owner string, rec *schema.ForgeRecord) {
	var admins []struct {
		Login string `json:"login"`
	}
	found, err := c.get(ctx, fmt.Sprintf("/orgs/%s/members?role=admin&per_page=%d", owner, maxAdminCount), &admins)
	if err != nil || !found {
		return
	}
	n := len(admins)
	rec.AdminCount = &n

	var members []struct {
		Login string `json:"login"`
	}
	if found, err := c.get(ctx, fmt.Sprintf("/orgs/%s/members?per_page=100", owner), &members); err == nil && found {
		rec.MemberCount = len(members)
	}
}

func (c *Client) collectContributors(ctx context.Context, ref schema.RepositoryRef, rec *schema.ForgeRecord) {
	var contributors []struct {
		Login         string `json:"login"`
		Contributions int    `json:"contributions"`
	}
	found, err := c.get(ctx, fmt.Sprintf("/repos/%s/%s/contributors?per_page=%d", ref.Owner, ref.Repo, topContributors), &contributors)
	if err != nil || !found {
		return
	}
	for _, entry := range contributors {
		rec.TopContributors = append(rec.TopContributors, schema.ForgeContributor{
			Login:         entry.Login,
			Contributions: entry.Contributions,
		})
	}
}

func (c *Client) collectReleases(ctx context.Context, ref schema.RepositoryRef, rec *schema.ForgeRecord) {
	var releases []struct {
		Name    string `json:"name"`
		TagName string `json:"tag_name"`
		Body    string `json:"body"`
	}
	found, err := c.get(ctx, fmt.Sprintf("/repos/%s/%s/releases?per_page=%d", ref.Owner, ref.Repo, issueSampleSize), &releases)
	if err != nil || !found {
		return
	}
	rec.ReleasesCount = len(releases)
	for _, r := range releases {
		title := r.Name
		if title == "" {
			title = r.TagName
		}
		if title != "" {
			rec.ReleaseNotes = append(rec.ReleaseNotes, title)
		}
	}
}

func (c *Client) collectIssueTitles(ctx context.Context, ref schema.RepositoryRef, rec *schema.ForgeRecord) {
	var issues []struct {
		Title string `json:"title"`
	}
	found, err := c.get(ctx, fmt.Sprintf("/repos/%s/%s/issues?state=all&sort=updated&per_page=%d", ref.Owner, ref.Repo, issueSampleSize), &issues)
	if err != nil || !found {
		return
	}
	for _, issue := range issues {
		if issue.Title != "" {
			rec.IssueTitles = append(rec.IssueTitles, issue.Title)
		}
	}
}

// collectUser builds the maintainer profile for reputation scoring. A failed
// fetch yields nil; the scorer treats the tier as UNKNOWN, never an error.
func (c *Client) collectUser(ctx context.Context, login string) *schema.UserProfile {
	var user struct {
		Login       string     `json:"login"`
		CreatedAt   *time.Time `json:"created_at"`
		PublicRepos int        `json:"public_repos"`
	}
	found, err := c.get(ctx, "/users/"+login, &user)
	if err != nil || !found {
		return nil
	}

	profile := &schema.UserProfile{
		Login:          user.Login,
		AccountCreated: user.CreatedAt,
		OwnedRepos:     user.PublicRepos,
	}

	for page := 1; page <= maxRepoPages; page++ {
		var repos []struct {
			Fork            bool `json:"fork"`
			StargazersCount int  `json:"stargazers_count"`
		}
		found, err := c.get(ctx, fmt.Sprintf("/users/%s/repos?type=owner&per_page=100&page=%d", login, page), &repos)
		if err != nil || !found || len(repos) == 0 {
			break
		}
		for _, r := range repos {
			if r.Fork {
				continue
			}
			profile.StarsTotal += r.StargazersCount
			if r.StargazersCount >= 10 {
				profile.ReposWithStars++
			}
		}
		if len(repos) < 100 {
			break
		}
	}

	var orgs []struct {
		Login string `json:"login"`
	}
	if found, err := c.get(ctx, "/users/"+login+"/orgs", &orgs); err == nil && found {
		for _, o := range orgs {
			if o.Login != "" {
				profile.Orgs = append(profile.Orgs, o.Login)
			}
		}
	}
	return profile
}

// get fetches an API path with retry, rate limiting and a 1h negative cache
// for 404s.
func (c *Client) get(ctx context.Context, path string, v any) (bool, error) {
	url := path
	if !strings.HasPrefix(path, "http") {
		url = c.APIBase + path
	}

	c.mu.Lock()
	if until, ok := c.notFound[url]; ok && time.Now().Before(until) {
		c.mu.Unlock()
		return false, nil
	}
	c.mu.Unlock()

	var found bool
	err := withRetry(ctx, func() error {
		if err := c.limiter.Wait(ctx, hostOf(url)); err != nil {
			return fmt.Errorf("%w: %v", schema.ErrTransientCollect, err)
		}

		callCtx, cancel := context.WithTimeout(ctx, contract.DefaultCallCeiling)
		defer cancel()

		req, err := http.NewRequestWithContext(callCtx, http.MethodGet, url, nil)
		if err != nil {
			return fmt.Errorf("%w: %v", schema.ErrInput, err)
		}
		req.Header.Set("Accept", "application/vnd.github.v3+json")
		if c.token != "" {
			req.Header.Set("Authorization", "Bearer "+c.token)
		}

		resp, err := c.http.Do(req)
		if err != nil {
			return fmt.Errorf("%w: %v", schema.ErrTransientCollect, err)
		}
		defer func() { _ = resp.Body.Close() }()

		switch {
		case resp.StatusCode == http.StatusNotFound, resp.StatusCode == http.StatusGone:
			c.mu.Lock()
			c.notFound[url] = time.Now().Add(notFoundTTL)
			c.mu.Unlock()
			found = false
			return nil
		case resp.StatusCode == http.StatusForbidden, resp.StatusCode == http.StatusTooManyRequests:
			// Secondary rate limit; retry after backoff.
			return fmt.Errorf("%w: github returned %d for %s", schema.ErrTransientCollect, resp.StatusCode, path)
		case resp.StatusCode >= 500:
			return fmt.Errorf("%w: github returned %d for %s", schema.ErrTransientCollect, resp.StatusCode, path)
		case resp.StatusCode >= 400:
			found = false
			return nil
		}

		found = true
		return json.NewDecoder(resp.Body).Decode(v)
	})
	return found, err
}

// graphql posts one query and unpacks the data envelope.
func (c *Client) graphql(ctx context.Context, query string, variables map[string]any, v any) error {
	payload, err := json.Marshal(map[string]any{"query": query, "variables": variables})
	if err != nil {
		return err
	}

	return withRetry(ctx, func() error {
		if err := c.limiter.Wait(ctx, hostOf(c.GraphQLURL)); err != nil {
			return fmt.Errorf("%w: %v", schema.ErrTransientCollect, err)
		}

		callCtx, cancel := context.WithTimeout(ctx, contract.DefaultCallCeiling)
		defer cancel()

		req, err := http.NewRequestWithContext(callCtx, http.MethodPost, c.GraphQLURL, bytes.NewReader(payload))
		if err != nil {
			return err
		}
		req.Header.Set("Content-Type", "application/json")
		if c.token != "" {
			req.Header.Set("Authorization", "Bearer "+c.token)
		}

		resp, err := c.http.Do(req)
		if err != nil {
			return fmt.Errorf("%w: %v", schema.ErrTransientCollect, err)
		}
		defer func() { _ = resp.Body.Close() }()

		if resp.StatusCode >= 500 {
			return fmt.Errorf("%w: graphql returned %d", schema.ErrTransientCollect, resp.StatusCode)
		}
		if resp.StatusCode != http.StatusOK {
			return fmt.Errorf("graphql returned %d", resp.StatusCode)
		}

		var envelope struct {
			Data   json.RawMessage `json:"data"`
			Errors []struct {
				Message string `json:"message"`
			} `json:"errors"`
		}
		if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
			return fmt.Errorf("%w: %v", schema.ErrTransientCollect, err)
		}
		if len(envelope.Errors) > 0 {
			return fmt.Errorf("graphql: %s", envelope.Errors[0].Message)
		}
		return json.Unmarshal(envelope.Data, v)
	})
}

// hasSponsorsListing checks the Sponsors flag via GraphQL. Sponsors data is
// not exposed over REST.
func (c *Client) hasSponsorsListing(ctx context.Context, login string) bool {
	var data struct {
		User struct {
			HasSponsorsListing bool `json:"hasSponsorsListing"`
		} `json:"user"`
	}
	query := `query($login: String!) { user(login: $login) { hasSponsorsListing } }`
	if err := c.graphql(ctx, query, map[string]any{"login": login}, &data); err != nil {
		return false
	}
	return data.User.HasSponsorsListing
}

func (c *Client) sponsorCount(ctx context.Context, login string) (int, bool) {
	var data struct {
		User struct {
			Sponsors struct {
				TotalCount int `json:"totalCount"`
			} `json:"sponsors"`
		} `json:"user"`
	}
	query := `query($login: String!) { user(login: $login) { sponsors { totalCount } } }`
	if err := c.graphql(ctx, query, map[string]any{"login": login}, &data); err != nil {
		return 0, false
	}
	return data.User.Sponsors.TotalCount, true
}

func hostOf(rawURL string) string {
	u := strings.TrimPrefix(strings.TrimPrefix(rawURL, "https://"), "http://")
	if i := strings.IndexByte(u, '/'); i >= 0 {
		return u[:i]
	}
	return u
}
