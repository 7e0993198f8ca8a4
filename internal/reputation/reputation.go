// Package reputation applies the additive reputation-signal table to a
// forge user profile and maps the sum to a tier. No side effects.
package reputation

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/anicka-net/ossuary/schema"
)

// Breakdown carries the per-signal points and the supporting evidence.
type Breakdown struct {
	Login string

	TenurePts    int
	PortfolioPts int
	StarsPts     int
	SponsorsPts  int
	PackagesPts  int
	TopPkgPts    int
	OrgPts       int

	AccountAgeYears float64
	RecognizedOrgs  []string
}

// Total sums all signal points.
func (b Breakdown) Total() int {
	return b.TenurePts + b.PortfolioPts + b.StarsPts + b.SponsorsPts +
		b.PackagesPts + b.TopPkgPts + b.OrgPts
}

// Tier maps the total to a reputation tier using cfg thresholds.
func (b Breakdown) Tier(cfg schema.ScoreConfig) schema.ReputationTier {
	switch total := b.Total(); {
	case total >= cfg.RepTier1Min:
		return schema.Tier1
	case total >= cfg.RepTier2Min:
		return schema.Tier2
	default:
		return schema.TierUnknown
	}
}

// Evidence renders the one-line summary used in score breakdowns.
func (b Breakdown) Evidence(cfg schema.ScoreConfig) string {
	return fmt.Sprintf("%s: %d pts (%s) - tenure=%d, portfolio=%d, stars=%d, sponsors=%d",
		b.Login, b.Total(), b.Tier(cfg), b.TenurePts, b.PortfolioPts, b.StarsPts, b.SponsorsPts)
}

// Score evaluates a profile against the signal table. A nil profile (fetch
// failed) yields an empty breakdown, i.e. tier UNKNOWN.
func Score(profile *schema.UserProfile, asOf time.Time, cfg schema.ScoreConfig) Breakdown {
	var b Breakdown
	if profile == nil {
		return b
	}
	b.Login = profile.Login

	if profile.AccountCreated != nil {
		now := asOf
		if now.IsZero() {
			now = time.Now().UTC()
		}
		age := now.Sub(*profile.AccountCreated).Hours() / 24 / 365.25
		b.AccountAgeYears = age
		if age >= cfg.RepTenureYears {
			b.TenurePts = cfg.RepTenurePts
		}
	}

	if profile.ReposWithStars >= cfg.RepMinReposStars {
		b.PortfolioPts = cfg.RepPortfolioPts
	}
	if profile.StarsTotal >= cfg.RepStarsTotal {
		b.StarsPts = cfg.RepStarsPts
	}
	if profile.SponsorCount != nil && *profile.SponsorCount >= cfg.RepMinSponsors {
		b.SponsorsPts = cfg.RepSponsorsPts
	}
	if len(profile.PackagesMaintained) >= cfg.RepMinPackages {
		b.PackagesPts = cfg.RepPackagesPts
	}
	if profile.TopMaintainer {
		b.TopPkgPts = cfg.RepTopMaintainPts
	}

	for _, org := range profile.Orgs {
		if _, ok := schema.RecognizedOrgs[strings.ToLower(org)]; ok {
			b.RecognizedOrgs = append(b.RecognizedOrgs, org)
		}
	}
	sort.Strings(b.RecognizedOrgs)
	if len(b.RecognizedOrgs) > 0 {
		b.OrgPts = cfg.RepOrgPts
	}
	return b
}
