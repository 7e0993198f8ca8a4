package forge

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/anicka-net/ossuary/internal/ratelimit"
	"github.com/anicka-net/ossuary/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testForge(srv *httptest.Server) *Client {
	c := NewClient("")
	c.APIBase = srv.URL
	c.GraphQLURL = srv.URL + "/graphql"
	c.CIIBase = srv.URL + "/cii"
	c.limiter = ratelimit.NewPerHost(1000, 100)
	return c
}

func fixtureHandler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/repos/expressjs/express", func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, `{
			"stargazers_count": 65000,
			"default_branch": "master",
			"pushed_at": "2024-06-01T12:00:00Z",
			"created_at": "2009-06-26T18:56:01Z",
			"archived": false,
			"open_issues_count": 150,
			"owner": {"login": "expressjs", "type": "Organization"}
		}`)
	})
	mux.HandleFunc("/orgs/expressjs/members", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("role") == "admin" {
			fmt.Fprint(w, `[{"login":"a"},{"login":"b"},{"login":"c"},{"login":"d"}]`)
			return
		}
		fmt.Fprint(w, `[{"login":"a"},{"login":"b"},{"login":"c"},{"login":"d"},{"login":"e"}]`)
	})
	mux.HandleFunc("/repos/expressjs/express/contributors", func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, `[{"login":"dougwilson","contributions":1800},{"login":"tjholowaychuk","contributions":1500}]`)
	})
	mux.HandleFunc("/repos/expressjs/express/releases", func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, `[{"name":"5.0.0","tag_name":"v5.0.0"},{"name":"","tag_name":"v4.19.2"}]`)
	})
	mux.HandleFunc("/repos/expressjs/express/issues", func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, `[{"title":"res.json double call"},{"title":"docs typo"}]`)
	})
	mux.HandleFunc("/users/dougwilson", func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, `{"login":"dougwilson","created_at":"2011-01-15T00:00:00Z","public_repos":120}`)
	})
	mux.HandleFunc("/users/dougwilson/repos", func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, `[{"fork":false,"stargazers_count":3000},{"fork":true,"stargazers_count":99},{"fork":false,"stargazers_count":15}]`)
	})
	mux.HandleFunc("/users/dougwilson/orgs", func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, `[{"login":"expressjs"},{"login":"jshttp"}]`)
	})
	mux.HandleFunc("/graphql", func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, `{"data":{"user":{"hasSponsorsListing":true,"sponsors":{"totalCount":42}}}}`)
	})
	mux.HandleFunc("/cii/projects.json", func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, `[{"badge_level":"passing"}]`)
	})
	return mux
}

// TestCollect walks the whole forge record assembly against fixtures.
func TestCollect(t *testing.T) {
	srv := httptest.NewServer(fixtureHandler())
	defer srv.Close()

	c := testForge(srv)
	ref := schema.RepositoryRef{Host: "github.com", Owner: "expressjs", Repo: "express", URL: "https://github.com/expressjs/express"}

	rec, err := c.Collect(context.Background(), ref, "dougwilson")
	require.NoError(t, err)

	assert.Equal(t, 65000, rec.Stars)
	assert.Equal(t, "master", rec.DefaultBranch)
	assert.Equal(t, "Organization", rec.OwnerType)
	require.NotNil(t, rec.AdminCount)
	assert.Equal(t, 4, *rec.AdminCount)
	assert.Equal(t, 5, rec.MemberCount)
	assert.Len(t, rec.TopContributors, 2)
	assert.Equal(t, 2, rec.ReleasesCount)
	assert.Equal(t, []string{"5.0.0", "v4.19.2"}, rec.ReleaseNotes)
	assert.Equal(t, []string{"res.json double call", "docs typo"}, rec.IssueTitles)
	assert.True(t, rec.CIIBadge)
	assert.True(t, rec.HasSponsors)

	require.NotNil(t, rec.Maintainer)
	assert.Equal(t, "dougwilson", rec.Maintainer.Login)
	assert.Equal(t, 3015, rec.Maintainer.StarsTotal) // forks excluded
	assert.Equal(t, 2, rec.Maintainer.ReposWithStars)
	assert.Equal(t, []string{"expressjs", "jshttp"}, rec.Maintainer.Orgs)
	require.NotNil(t, rec.Maintainer.SponsorCount)
	assert.Equal(t, 42, *rec.Maintainer.SponsorCount)
}

// TestCollectUnsupportedForge refuses non-GitHub hosts before any call.
func TestCollectUnsupportedForge(t *testing.T) {
	c := NewClient("")
	_, err := c.Collect(context.Background(), schema.RepositoryRef{Host: "gitlab.com", Owner: "x", Repo: "y"}, "")
	assert.True(t, errors.Is(err, schema.ErrUnresolvedRepo))
}

// TestCollectRepoGone maps a 404 repository to RepoGone.
func TestCollectRepoGone(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	defer srv.Close()

	c := testForge(srv)
	ref := schema.RepositoryRef{Host: "github.com", Owner: "gone", Repo: "gone"}
	_, err := c.Collect(context.Background(), ref, "")
	assert.True(t, errors.Is(err, schema.ErrRepoGone))
}

// TestNotFoundCache verifies a 404 is cached and not re-fetched within TTL.
func TestNotFoundCache(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		http.NotFound(w, r)
	}))
	defer srv.Close()

	c := testForge(srv)
	var v any
	for range 3 {
		found, err := c.get(context.Background(), "/users/nobody", &v)
		require.NoError(t, err)
		assert.False(t, found)
	}
	assert.Equal(t, int32(1), hits.Load())
}

// TestRetryOnServerError retries 5xx with backoff then succeeds.
func TestRetryOnServerError(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		if hits.Add(1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		fmt.Fprint(w, `{"ok":true}`)
	}))
	defer srv.Close()

	c := testForge(srv)
	start := time.Now()
	var v map[string]bool
	found, err := c.get(context.Background(), "/flaky", &v)
	require.NoError(t, err)
	assert.True(t, found)
	assert.True(t, v["ok"])
	assert.Equal(t, int32(3), hits.Load())
	assert.Greater(t, time.Since(start), 500*time.Millisecond) // backoff actually waited
}
