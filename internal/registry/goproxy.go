package registry

import (
	"context"
	"fmt"
	"strings"

	"github.com/anicka-net/ossuary/schema"
)

// GoProxy resolves Go modules through proxy.golang.org. The module path
// usually is the repository URL; there is no public download-count API.
type GoProxy struct {
	c        *client
	ProxyURL string
}

// NewGoProxy returns the Go module adapter with production endpoints.
func NewGoProxy(c *client) *GoProxy {
	return &GoProxy{c: c, ProxyURL: "https://proxy.golang.org"}
}

// Ecosystem implements contract.Registry.
func (g *GoProxy) Ecosystem() schema.Ecosystem { return schema.EcosystemGo }

type proxyLatest struct {
	Version string `json:"Version"`
}

// Fetch implements contract.Registry.
func (g *GoProxy) Fetch(ctx context.Context, name string) (*schema.RegistryRecord, error) {
	rec := &schema.RegistryRecord{Name: name}

	switch {
	case strings.HasPrefix(name, "github.com/"):
		rec.RepoURL = NormalizeRepoURL("https://" + name)
	case strings.HasPrefix(name, "golang.org/x/"):
		// The x/ repositories are mirrored on GitHub.
		rec.RepoURL = "https://github.com/golang/" + strings.TrimPrefix(name, "golang.org/x/")
	}

	var latest proxyLatest
	found, err := g.c.getJSON(ctx, fmt.Sprintf("%s/%s/@latest", g.ProxyURL, escapeModulePath(name)), &latest)
	if err != nil {
		return nil, err
	}
	if !found && rec.RepoURL == "" {
		return nil, fmt.Errorf("%w: go module %q not found", schema.ErrUnresolvedRepo, name)
	}
	rec.LatestVersion = strings.TrimPrefix(latest.Version, "v")
	return rec, nil
}

// escapeModulePath applies the module proxy's case-encoding (upper-case
// letters become !lower).
func escapeModulePath(path string) string {
	var b strings.Builder
	for _, r := range path {
		if r >= 'A' && r <= 'Z' {
			b.WriteByte('!')
			b.WriteRune(r + ('a' - 'A'))
		} else {
			b.WriteRune(r)
		}
	}
	return b.String()
}
