package registry

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/anicka-net/ossuary/internal/ratelimit"
	"github.com/anicka-net/ossuary/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testClient() *client {
	return newClient(ratelimit.NewPerHost(1000, 100))
}

// TestNewDispatch verifies the closed ecosystem dispatch table.
func TestNewDispatch(t *testing.T) {
	for eco := range schema.ValidEcosystems {
		t.Run(string(eco), func(t *testing.T) {
			r, err := New(eco, nil)
			require.NoError(t, err)
			assert.Equal(t, eco, r.Ecosystem())
		})
	}

	_, err := New(schema.Ecosystem("maven"), nil)
	assert.True(t, errors.Is(err, schema.ErrInput))
}

// TestNpmFetch exercises manifest parsing and the downloads endpoint.
func TestNpmFetch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/event-stream":
			fmt.Fprint(w, `{
				"name": "event-stream",
				"description": "construct pipes of streams of events",
				"dist-tags": {"latest": "4.0.1"},
				"repository": {"type": "git", "url": "git+https://github.com/dominictarr/event-stream.git"},
				"maintainers": [{"name": "dominictarr"}]
			}`)
		case "/point/last-week/event-stream":
			fmt.Fprint(w, `{"downloads": 1960465}`)
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	n := NewNpm(testClient())
	n.RegistryURL = srv.URL
	n.DownloadsURL = srv.URL

	rec, err := n.Fetch(context.Background(), "event-stream")
	require.NoError(t, err)
	assert.Equal(t, "4.0.1", rec.LatestVersion)
	assert.Equal(t, "https://github.com/dominictarr/event-stream", rec.RepoURL)
	require.NotNil(t, rec.DownloadsWeek)
	assert.Equal(t, int64(1960465), *rec.DownloadsWeek)
	assert.Equal(t, []string{"dominictarr"}, rec.Maintainers)
}

// TestNpmFetchStringRepository covers the bare-string repository shorthand.
func TestNpmFetchStringRepository(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/tiny" {
			fmt.Fprint(w, `{"name":"tiny","dist-tags":{"latest":"1.0.0"},"repository":"github:someone/tiny"}`)
			return
		}
		http.NotFound(w, r)
	}))
	defer srv.Close()

	n := NewNpm(testClient())
	n.RegistryURL = srv.URL
	n.DownloadsURL = srv.URL

	rec, err := n.Fetch(context.Background(), "tiny")
	require.NoError(t, err)
	assert.Nil(t, rec.DownloadsWeek) // downloads endpoint 404 is not an error
	assert.Equal(t, "github:someone/tiny", rec.RepoURL)
}

// TestNpmFetchNotFound maps a 404 manifest to UnresolvedRepo.
func TestNpmFetchNotFound(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	defer srv.Close()

	n := NewNpm(testClient())
	n.RegistryURL = srv.URL
	n.DownloadsURL = srv.URL

	_, err := n.Fetch(context.Background(), "definitely-not-a-package")
	assert.True(t, errors.Is(err, schema.ErrUnresolvedRepo))
}

// TestNpmFetchServerError maps 5xx to TransientCollectFailure.
func TestNpmFetchServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	n := NewNpm(testClient())
	n.RegistryURL = srv.URL
	n.DownloadsURL = srv.URL

	_, err := n.Fetch(context.Background(), "whatever")
	assert.True(t, errors.Is(err, schema.ErrTransientCollect))
}

// TestGitHubDirect accepts owner/repo with no network call.
func TestGitHubDirect(t *testing.T) {
	g := NewGitHubDirect()

	rec, err := g.Fetch(context.Background(), "torvalds/linux")
	require.NoError(t, err)
	assert.Equal(t, "https://github.com/torvalds/linux", rec.RepoURL)

	_, err = g.Fetch(context.Background(), "not-a-repo-path")
	assert.True(t, errors.Is(err, schema.ErrInput))
}

// TestCratesDownloadScaling checks the 90-day to weekly conversion.
func TestCratesDownloadScaling(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"crate":{"newest_version":"1.0.203","description":"serde","repository":"https://github.com/serde-rs/serde","recent_downloads":130000000}}`)
	}))
	defer srv.Close()

	c := NewCrates(testClient())
	c.APIURL = srv.URL

	rec, err := c.Fetch(context.Background(), "serde")
	require.NoError(t, err)
	require.NotNil(t, rec.DownloadsWeek)
	assert.Equal(t, int64(10000000), *rec.DownloadsWeek)
}

// TestGoProxyModulePathEscaping pins the proxy's case encoding.
func TestGoProxyModulePathEscaping(t *testing.T) {
	assert.Equal(t, "github.com/!burnt!sushi/toml", escapeModulePath("github.com/BurntSushi/toml"))
	assert.Equal(t, "golang.org/x/sync", escapeModulePath("golang.org/x/sync"))
}
