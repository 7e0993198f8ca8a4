// Package core contains the two-track scoring engine and the orchestrator
// that feeds it.
package core

import (
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/anicka-net/ossuary/schema"
)

// ComputeScore applies the scoring model to one immutable inputs snapshot.
// It is a pure function of (inputs, cfg): identical inputs produce an
// identical Score apart from ComputedAt.
func ComputeScore(inputs schema.ScoreInputs, cfg schema.ScoreConfig) schema.Score {
	mature := isMature(inputs, cfg)

	base, concentration, baseEvidence := baseRisk(inputs, mature, cfg)
	activity := activityModifier(inputs, mature, cfg)
	factors := protectiveFactors(inputs, concentration, mature, cfg)

	// A takeover rides on high recent activity; the activity bonus must not
	// cancel the takeover signal.
	if hasTag(factors, schema.TagTakeover) && activity < 0 {
		activity = 0
	}

	breakdown := make([]schema.BreakdownEntry, 0, len(factors)+2)
	breakdown = append(breakdown,
		schema.BreakdownEntry{Tag: schema.TagBaseRisk, Points: base, Evidence: baseEvidence},
		schema.BreakdownEntry{Tag: schema.TagActivity, Points: activity, Evidence: activityEvidence(inputs, mature, activity)},
	)
	breakdown = append(breakdown, factors...)

	raw := 0
	for _, entry := range breakdown {
		raw += entry.Points
	}
	final := clamp(raw, 0, 100)
	level := schema.LevelFromScore(final)

	score := schema.Score{
		Package:      inputs.Package.Name,
		Ecosystem:    inputs.Package.Ecosystem,
		RepoURL:      inputs.Repo.URL,
		Value:        final,
		Level:        level,
		Semaphore:    level.Semaphore(),
		Breakdown:    breakdown,
		Partial:      inputs.Partial,
		ModelVersion: cfg.ModelVersion,
		ComputedAt:   time.Now().UTC(),
	}
	if !inputs.AsOf.IsZero() {
		asOf := inputs.AsOf.UTC()
		score.AsOf = &asOf
	}
	score.InputsHash = hashInputs(inputs, cfg.ModelVersion)
	score.Explanation = explain(score, inputs, mature)
	score.Recommendations = recommend(score, inputs, concentration)
	return score
}

// isMature applies the maturity classification: old enough, enough history,
// not truly dead.
func isMature(inputs schema.ScoreInputs, cfg schema.ScoreConfig) bool {
	if inputs.Tables.LastCommit.IsZero() {
		return false
	}
	deadline := inputs.AsOf.AddDate(0, 0, -int(cfg.MatureLastCommitYrs*365.25))
	return inputs.RepoAgeYears >= cfg.MatureAgeYears &&
		inputs.TotalCommits >= cfg.MatureMinCommits &&
		!inputs.Tables.LastCommit.Before(deadline)
}

// baseRisk picks the effective concentration and maps it into a band. For
// mature projects with a thin recent window the lifetime concentration is
// the more honest signal; an empty history scores the maximum.
func baseRisk(inputs schema.ScoreInputs, mature bool, cfg schema.ScoreConfig) (int, float64, string) {
	t := inputs.Tables
	if t.LifetimeTotal == 0 {
		return 100, 100, "no commits ever recorded"
	}

	concentration := t.RecentConcentration
	window := "recent"
	switch {
	case mature && t.RecentTotal < cfg.ActivityLow:
		concentration = t.LifetimeConcentration
		window = "lifetime"
	case !mature && t.RecentTotal == 0:
		// No commits in the window on a non-mature project reads as
		// abandoned single-maintainer territory, not as perfectly
		// distributed governance.
		concentration = 100
	}

	base := cfg.BaseForConcentration(concentration)
	evidence := fmt.Sprintf("%.0f%% %s concentration", concentration, window)
	return base, concentration, evidence
}

// activityModifier maps commits-per-year into the activity bands; mature
// projects never take the abandonment penalty.
func activityModifier(inputs schema.ScoreInputs, mature bool, cfg schema.ScoreConfig) int {
	perYear := inputs.Tables.RecentTotal
	var mod int
	switch {
	case perYear > cfg.ActivityHigh:
		mod = cfg.ActivityHighMod
	case perYear >= cfg.ActivityModerate:
		mod = cfg.ActivityModMod
	case perYear >= cfg.ActivityLow:
		mod = 0
	default:
		mod = cfg.ActivityAbandon
	}
	if mature && mod > 0 {
		mod = 0
	}
	return mod
}

func activityEvidence(inputs schema.ScoreInputs, mature bool, mod int) string {
	perYear := inputs.Tables.RecentTotal
	if mod == 0 && mature && perYear < 4 {
		return fmt.Sprintf("%d commits/year (low, expected for a mature project)", perYear)
	}
	return fmt.Sprintf("%d commits/year", perYear)
}

// protectiveFactors evaluates the independent additive factors. Order is
// fixed for deterministic breakdowns but does not affect the sum.
func protectiveFactors(inputs schema.ScoreInputs, concentration float64, mature bool, cfg schema.ScoreConfig) []schema.BreakdownEntry {
	var out []schema.BreakdownEntry
	add := func(tag schema.FactorTag, points int, evidence string) {
		out = append(out, schema.BreakdownEntry{Tag: tag, Points: points, Evidence: evidence})
	}

	switch inputs.ReputationTier {
	case schema.Tier1:
		add(schema.TagReputation, cfg.Tier1Delta, orDefault(inputs.ReputationEvidence, "tier-1 maintainer reputation"))
	case schema.Tier2:
		add(schema.TagReputation, cfg.Tier2Delta, orDefault(inputs.ReputationEvidence, "tier-2 maintainer reputation"))
	}

	if inputs.HasSponsors {
		add(schema.TagFunding, cfg.SponsorsDelta, "GitHub Sponsors enabled")
	}

	if inputs.OwnerIsOrg && inputs.AdminCount != nil && *inputs.AdminCount >= cfg.OrgMinAdmins {
		add(schema.TagOrg, cfg.OrgDelta, fmt.Sprintf("organization with %d admins", *inputs.AdminCount))
	}

	// Massive and high visibility are mutually exclusive.
	if inputs.DownloadsWeek != nil {
		switch dl := *inputs.DownloadsWeek; {
		case dl > cfg.MassiveDownloads:
			add(schema.TagVisibility, cfg.MassiveVisDelta, fmt.Sprintf("%d downloads/week", dl))
		case dl > cfg.HighDownloads:
			add(schema.TagVisibility, cfg.HighVisDelta, fmt.Sprintf("%d downloads/week", dl))
		}
	}

	var takeover schema.ProportionShift
	var takeoverHit bool
	if mature {
		takeover, takeoverHit = maxShift(inputs.Tables.Shifts, cfg)
	}

	// A takeover in progress disqualifies the "healthy distribution"
	// reading of a low concentration: the newcomer is what diluted it.
	if concentration < cfg.DistributedBelow && !takeoverHit {
		add(schema.TagDistributed, cfg.DistributedDelta, fmt.Sprintf("%.0f%% top-contributor share", concentration))
	}

	if inputs.Tables.UniqueRecent > cfg.CommunityAbove {
		add(schema.TagCommunity, cfg.CommunityDelta, fmt.Sprintf("%d contributors in the last year", inputs.Tables.UniqueRecent))
	}

	if inputs.CIIBadge {
		add(schema.TagCII, cfg.CIIDelta, "CII best-practices badge")
	}

	if compound := inputs.SentimentCompound; compound > cfg.PositiveAbove {
		add(schema.TagSentiment, cfg.PositiveDelta, fmt.Sprintf("positive sentiment (%.2f)", compound))
	} else if compound < cfg.NegativeBelow {
		add(schema.TagSentiment, cfg.NegativeDelta, fmt.Sprintf("negative sentiment (%.2f)", compound))
	}

	if len(inputs.FrustrationFlags) > 0 {
		add(schema.TagFrustration, cfg.FrustrationDelta, fmt.Sprintf("frustration signals: %v", inputs.FrustrationFlags))
	}

	if takeoverHit {
		add(schema.TagTakeover, cfg.TakeoverDelta,
			fmt.Sprintf("%s: %+.0fpp shift in commit share on a mature project", takeover.DisplayName, takeover.Shift))
	}
	return out
}

// maxShift finds the largest qualifying proportion shift, if any crosses
// the takeover threshold.
func maxShift(shifts []schema.ProportionShift, cfg schema.ScoreConfig) (schema.ProportionShift, bool) {
	best := schema.ProportionShift{Shift: math.Inf(-1)}
	for _, s := range shifts {
		if s.HistShare >= cfg.TakeoverHistMax {
			continue
		}
		if s.Shift > best.Shift {
			best = s
		}
	}
	if best.Shift > cfg.TakeoverShiftPP {
		return best, true
	}
	return schema.ProportionShift{}, false
}

func hasTag(entries []schema.BreakdownEntry, tag schema.FactorTag) bool {
	for _, e := range entries {
		if e.Tag == tag {
			return true
		}
	}
	return false
}

// sortedByImpact returns breakdown entries ordered by absolute points
// descending, stable on the original order.
func sortedByImpact(entries []schema.BreakdownEntry) []schema.BreakdownEntry {
	out := make([]schema.BreakdownEntry, len(entries))
	copy(out, entries)
	sort.SliceStable(out, func(i, j int) bool {
		return abs(out[i].Points) > abs(out[j].Points)
	})
	return out
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

func orDefault(s, fallback string) string {
	if s == "" {
		return fallback
	}
	return s
}
