// Package identity collapses (author name, author email) tuples into stable
// canonical contributor keys.
package identity

import (
	"regexp"
	"sort"
	"strings"

	"github.com/anicka-net/ossuary/schema"
)

// GitHub noreply format: 12345+username@users.noreply.github.com
var githubNoreplyRe = regexp.MustCompile(`^(?:\d+\+)?(.+)@users\.noreply\.github\.com$`)

// personalDomains collapse to one domain class so that the same person with
// alice@gmail.com and alice@outlook.com gets one identity.
var personalDomains = map[string]struct{}{
	"gmail.com":      {},
	"outlook.com":    {},
	"yahoo.com":      {},
	"hotmail.com":    {},
	"protonmail.com": {},
}

// Key normalizes an email to the canonical contributor key
// lower(local) + "@" + domainClass. GitHub private-relay addresses map to
// login@github. Emails without an @ fall back to the lowered name.
func Key(name, email string) string {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || !strings.Contains(email, "@") {
		n := strings.ToLower(strings.TrimSpace(name))
		if n == "" {
			return "unknown@unknown"
		}
		return n + "@unknown"
	}

	if m := githubNoreplyRe.FindStringSubmatch(email); m != nil {
		return m[1] + "@github"
	}

	at := strings.LastIndex(email, "@")
	local, domain := email[:at], email[at+1:]
	if _, ok := personalDomains[domain]; ok {
		return local + "@personal"
	}
	return local + "@" + domain
}

// IsBot reports whether the tuple belongs to an automation account.
func IsBot(name, email string) bool {
	lname := strings.ToLower(name)
	lemail := strings.ToLower(email)
	if strings.Contains(lname, "[bot]") || strings.Contains(lemail, "[bot]") {
		return true
	}
	if strings.HasSuffix(lemail, "@bots.noreply.github.com") {
		return true
	}
	_, known := schema.KnownBots[lname]
	return known
}

// GitHubLogin extracts the login from a private-relay address, or "".
func GitHubLogin(email string) string {
	if m := githubNoreplyRe.FindStringSubmatch(strings.ToLower(strings.TrimSpace(email))); m != nil {
		return m[1]
	}
	return ""
}

// features are the merge signals of one provisional key.
type features struct {
	local string // canonical local-part after stripping +tag
	login string // GitHub login from a noreply domain
	name  string // display name lowered to ASCII-ish form
}

// Resolver accumulates observed tuples and resolves cross-key merges. A
// second pass merges keys that share at least two of {canonical local-part,
// GitHub login, normalized display name} - this catches sindre@gmail.com vs
// sindresorhus@users.noreply.github.com.
type Resolver struct {
	seen  map[string]*features
	order []string
}

// NewResolver returns an empty Resolver.
func NewResolver() *Resolver {
	return &Resolver{seen: make(map[string]*features)}
}

// Observe records one tuple and returns its provisional key.
func (r *Resolver) Observe(name, email string) string {
	key := Key(name, email)
	f, ok := r.seen[key]
	if !ok {
		f = &features{}
		r.seen[key] = f
		r.order = append(r.order, key)
	}
	if f.local == "" {
		f.local = canonicalLocal(key)
	}
	if f.login == "" {
		f.login = GitHubLogin(email)
	}
	if f.name == "" {
		f.name = normalizeName(name)
	}
	return key
}

// Merges returns a mapping from provisional key to canonical key. The
// earliest-observed key of a merged group wins, so runs that observe the
// same commits in the same order get the same ids; a different observation
// order can pick a different key.
func (r *Resolver) Merges() map[string]string {
	parent := make(map[string]string, len(r.seen))
	for _, k := range r.order {
		parent[k] = k
	}
	var find func(string) string
	find = func(k string) string {
		if parent[k] != k {
			parent[k] = find(parent[k])
		}
		return parent[k]
	}
	union := func(a, b string) {
		ra, rb := find(a), find(b)
		if ra == rb {
			return
		}
		// Earlier observation order wins.
		if indexOf(r.order, ra) < indexOf(r.order, rb) {
			parent[rb] = ra
		} else {
			parent[ra] = rb
		}
	}

	keys := make([]string, len(r.order))
	copy(keys, r.order)
	sort.Strings(keys)
	for i := 0; i < len(keys); i++ {
		for j := i + 1; j < len(keys); j++ {
			if sharedSignals(r.seen[keys[i]], r.seen[keys[j]]) >= 2 {
				union(keys[i], keys[j])
			}
		}
	}

	out := make(map[string]string, len(parent))
	for k := range parent {
		out[k] = find(k)
	}
	return out
}

// sharedSignals counts matching merge signals between two keys. A login is
// also compared against the other key's local-part and display name, which
// is what links sindre@gmail.com ("Sindre Sorhus") with
// sindresorhus@users.noreply.github.com.
func sharedSignals(a, b *features) int {
	n := 0
	if a.local != "" && a.local == b.local {
		n++
	}
	if a.login != "" && a.login == b.login {
		n++
	}
	if a.name != "" && a.name == b.name {
		n++
	}
	if crossHandle(a, b) || crossHandle(b, a) {
		n++
	}
	return n
}

// crossHandle reports whether a's login shows up as b's local-part or
// normalized display name.
func crossHandle(a, b *features) bool {
	if a.login == "" {
		return false
	}
	return a.login == b.local || a.login == b.name
}

func canonicalLocal(key string) string {
	local := key
	if at := strings.Index(key, "@"); at >= 0 {
		local = key[:at]
	}
	if plus := strings.Index(local, "+"); plus >= 0 {
		local = local[:plus]
	}
	return local
}

func normalizeName(name string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(strings.TrimSpace(name)) {
		if r >= 'a' && r <= 'z' || r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

func indexOf(list []string, v string) int {
	for i, s := range list {
		if s == v {
			return i
		}
	}
	return len(list)
}
