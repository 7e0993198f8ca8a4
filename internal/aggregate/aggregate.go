// Package aggregate turns raw commits into the contributor tables the
// scoring engine consumes.
package aggregate

import (
	"fmt"
	"sort"
	"time"

	"github.com/anicka-net/ossuary/internal/identity"
	"github.com/anicka-net/ossuary/schema"
)

// recentWindowMonths is the "recent" horizon before as_of.
const recentWindowMonths = 12

type contributorAcc struct {
	id       string
	names    map[string]struct{}
	emails   map[string]struct{}
	display  string
	isBot    bool
	first    time.Time
	last     time.Time
	total    int
	recent   int
	historic int
}

// Build aggregates commits (already filtered to author_time <= asOf) into
// recent and lifetime views, concentrations and proportion shifts. Bot
// commits are excluded from the totals, concentrations, unique-contributor
// count and shifts; FirstCommit, LastCommit and the commit count of the
// maturity check include them. Bots still appear, flagged, in the
// contributor list.
func Build(commits []schema.Commit, asOf time.Time, cfg schema.ScoreConfig) (schema.ContributorTables, error) {
	var tables schema.ContributorTables
	if len(commits) == 0 {
		return tables, nil
	}
	if asOf.IsZero() {
		return tables, fmt.Errorf("%w: aggregation requires a concrete as_of", schema.ErrInvariant)
	}

	recentStart := asOf.AddDate(0, -recentWindowMonths, 0)

	resolver := identity.NewResolver()
	for _, c := range commits {
		resolver.Observe(c.AuthorName, c.AuthorEmail)
	}
	merges := resolver.Merges()

	accs := make(map[string]*contributorAcc)
	var order []string
	for _, c := range commits {
		if c.AuthorTime.After(asOf) {
			return tables, fmt.Errorf("%w: commit %s authored after as_of", schema.ErrInvariant, c.SHA)
		}
		id := merges[identity.Key(c.AuthorName, c.AuthorEmail)]
		acc, ok := accs[id]
		if !ok {
			acc = &contributorAcc{
				id:     id,
				names:  make(map[string]struct{}),
				emails: make(map[string]struct{}),
				first:  c.AuthorTime,
				last:   c.AuthorTime,
			}
			accs[id] = acc
			order = append(order, id)
		}
		acc.names[c.AuthorName] = struct{}{}
		acc.emails[c.AuthorEmail] = struct{}{}
		if acc.display == "" {
			acc.display = c.AuthorName
		}
		if identity.IsBot(c.AuthorName, c.AuthorEmail) {
			acc.isBot = true
		}
		if c.AuthorTime.Before(acc.first) {
			acc.first = c.AuthorTime
		}
		if c.AuthorTime.After(acc.last) {
			acc.last = c.AuthorTime
		}

		acc.total++
		if c.AuthorTime.After(recentStart) {
			acc.recent++
		} else {
			acc.historic++
		}

		if tables.FirstCommit.IsZero() || c.AuthorTime.Before(tables.FirstCommit) {
			tables.FirstCommit = c.AuthorTime
		}
		if c.AuthorTime.After(tables.LastCommit) {
			tables.LastCommit = c.AuthorTime
		}
	}

	var recentTotal, lifetimeTotal, histTotal int
	var maxRecent, maxLifetime int
	var topRecent *contributorAcc
	for _, id := range order {
		acc := accs[id]
		if acc.isBot {
			continue
		}
		recentTotal += acc.recent
		lifetimeTotal += acc.total
		histTotal += acc.historic
		if acc.recent > maxRecent {
			maxRecent = acc.recent
			topRecent = acc
		}
		if acc.total > maxLifetime {
			maxLifetime = acc.total
		}
		if acc.recent > 0 {
			tables.UniqueRecent++
		}
	}

	if recentTotal+histTotal != lifetimeTotal {
		return tables, fmt.Errorf("%w: recent %d + historical %d != lifetime %d",
			schema.ErrInvariant, recentTotal, histTotal, lifetimeTotal)
	}

	tables.RecentTotal = recentTotal
	tables.LifetimeTotal = lifetimeTotal
	if recentTotal > 0 {
		tables.RecentConcentration = 100 * float64(maxRecent) / float64(recentTotal)
	}
	if lifetimeTotal > 0 {
		tables.LifetimeConcentration = 100 * float64(maxLifetime) / float64(lifetimeTotal)
	}
	if topRecent != nil {
		tables.TopRecentID = topRecent.id
		tables.TopRecentName = topRecent.display
	}

	tables.Contributors = snapshot(accs, order)
	tables.Shifts = shifts(accs, order, recentTotal, histTotal, asOf, len(commits), tables.FirstCommit, tables.LastCommit, cfg)
	return tables, nil
}

// snapshot freezes accumulators into the deterministic contributor order:
// commit count descending, earliest first commit, then id.
func snapshot(accs map[string]*contributorAcc, order []string) []schema.Contributor {
	out := make([]schema.Contributor, 0, len(order))
	for _, id := range order {
		acc := accs[id]
		out = append(out, schema.Contributor{
			ID:            acc.id,
			DisplayName:   acc.display,
			Emails:        sortedKeys(acc.emails),
			Names:         sortedKeys(acc.names),
			IsBot:         acc.isBot,
			FirstCommit:   acc.first,
			LastCommit:    acc.last,
			CommitsTotal:  acc.total,
			CommitsRecent: acc.recent,
		})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CommitsTotal != out[j].CommitsTotal {
			return out[i].CommitsTotal > out[j].CommitsTotal
		}
		if !out[i].FirstCommit.Equal(out[j].FirstCommit) {
			return out[i].FirstCommit.Before(out[j].FirstCommit)
		}
		return out[i].ID < out[j].ID
	})
	return out
}

// shifts computes per-contributor proportion shifts on mature projects. Only
// non-bot contributors with a historical share under the exemption cutoff
// are candidates; small recent windows produce no shifts at all.
func shifts(accs map[string]*contributorAcc, order []string, recentTotal, histTotal int,
	asOf time.Time, totalCommits int, first, last time.Time, cfg schema.ScoreConfig) []schema.ProportionShift {

	ageYears := asOf.Sub(first).Hours() / 24 / 365.25
	mature := ageYears >= cfg.MatureAgeYears &&
		totalCommits >= cfg.MatureMinCommits &&
		asOf.Sub(last).Hours()/24/365.25 < cfg.MatureLastCommitYrs
	if !mature || recentTotal < cfg.TakeoverMinTotal {
		return nil
	}

	var out []schema.ProportionShift
	for _, id := range order {
		acc := accs[id]
		if acc.isBot || acc.recent == 0 {
			continue
		}
		recentPct := 100 * float64(acc.recent) / float64(recentTotal)
		histPct := 0.0
		if histTotal > 0 {
			histPct = 100 * float64(acc.historic) / float64(histTotal)
		}
		if histPct >= cfg.TakeoverHistMax {
			continue
		}
		out = append(out, schema.ProportionShift{
			ContributorID: acc.id,
			DisplayName:   acc.display,
			RecentShare:   recentPct,
			HistShare:     histPct,
			Shift:         recentPct - histPct,
		})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Shift != out[j].Shift {
			return out[i].Shift > out[j].Shift
		}
		return out[i].ContributorID < out[j].ContributorID
	})
	return out
}

func sortedKeys(set map[string]struct{}) []string {
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
