// Package registry contains the per-ecosystem package-registry adapters.
// Every adapter shares one contract: fetch package metadata, weekly
// downloads and the upstream repository URL.
package registry

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/anicka-net/ossuary/internal/contract"
	"github.com/anicka-net/ossuary/internal/ratelimit"
	"github.com/anicka-net/ossuary/schema"
)

// callCeiling is the hard per-call deadline for any registry request.
const callCeiling = contract.DefaultCallCeiling

// client is the shared HTTP plumbing of all registry adapters.
type client struct {
	http    *http.Client
	limiter *ratelimit.PerHost
}

func newClient(limiter *ratelimit.PerHost) *client {
	if limiter == nil {
		limiter = ratelimit.NewPerHost(ratelimit.DefaultRegistryRate, 2)
	}
	return &client{
		http:    &http.Client{Timeout: 30 * time.Second},
		limiter: limiter,
	}
}

// getJSON fetches rawURL and decodes the body into v. A 404 returns
// (false, nil) so adapters can distinguish "no such package" from
// transport trouble.
func (c *client) getJSON(ctx context.Context, rawURL string, v any) (bool, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return false, fmt.Errorf("%w: bad registry URL %q: %v", schema.ErrInput, rawURL, err)
	}
	if err := c.limiter.Wait(ctx, u.Host); err != nil {
		return false, fmt.Errorf("%w: %v", schema.ErrTransientCollect, err)
	}

	ctx, cancel := context.WithTimeout(ctx, callCeiling)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return false, fmt.Errorf("%w: %v", schema.ErrInput, err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", "ossuary (+https://github.com/anicka-net/ossuary)")

	resp, err := c.http.Do(req)
	if err != nil {
		return false, fmt.Errorf("%w: %v", schema.ErrTransientCollect, err)
	}
	defer func() { _ = resp.Body.Close() }()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return false, nil
	case resp.StatusCode >= 500:
		return false, fmt.Errorf("%w: %s returned %d", schema.ErrTransientCollect, u.Host, resp.StatusCode)
	case resp.StatusCode >= 400:
		return false, fmt.Errorf("%w: %s returned %d", schema.ErrUnresolvedRepo, u.Host, resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		return false, fmt.Errorf("%w: decoding %s response: %v", schema.ErrTransientCollect, u.Host, err)
	}
	return true, nil
}

// New returns the adapter for an ecosystem. Unknown ecosystems are an input
// error at this boundary; the dispatch table is closed.
func New(eco schema.Ecosystem, limiter *ratelimit.PerHost) (contract.Registry, error) {
	c := newClient(limiter)
	switch eco {
	case schema.EcosystemNpm:
		return NewNpm(c), nil
	case schema.EcosystemPyPI:
		return NewPyPI(c), nil
	case schema.EcosystemCargo:
		return NewCrates(c), nil
	case schema.EcosystemRubyGems:
		return NewRubyGems(c), nil
	case schema.EcosystemPackagist:
		return NewPackagist(c), nil
	case schema.EcosystemNuGet:
		return NewNuGet(c), nil
	case schema.EcosystemGo:
		return NewGoProxy(c), nil
	case schema.EcosystemGitHub:
		return NewGitHubDirect(), nil
	default:
		return nil, fmt.Errorf("%w: unknown ecosystem %q", schema.ErrInput, eco)
	}
}

func intPtr(v int64) *int64 {
	return &v
}
