package core

import (
	"fmt"
	"strings"

	"github.com/anicka-net/ossuary/schema"
)

// explain assembles the deterministic prose: semaphore, level and score,
// then the largest risk-increasing contribution and up to two largest
// protective contributions, each with its evidence.
func explain(score schema.Score, inputs schema.ScoreInputs, mature bool) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s %s (%d). ", score.Semaphore, score.Level, score.Value)

	var parts []string
	if mature {
		parts = append(parts, fmt.Sprintf("Mature project (%.0f years, %d lifetime commits)",
			inputs.RepoAgeYears, inputs.Tables.LifetimeTotal))
	}

	ranked := sortedByImpact(score.Breakdown)
	if pos := firstWithSign(ranked, 1, nil); pos != nil {
		parts = append(parts, describeEntry(*pos))
	}
	negSeen := 0
	for _, entry := range ranked {
		if entry.Points >= 0 || negSeen == 2 {
			continue
		}
		parts = append(parts, describeEntry(entry))
		negSeen++
	}

	if len(inputs.FrustrationFlags) > 0 {
		parts = append(parts, "ALERT: economic frustration signals detected")
	}
	if hasTag(score.Breakdown, schema.TagTakeover) {
		parts = append(parts, "ALERT: newcomer takeover pattern detected on mature project")
	}

	b.WriteString(strings.Join(parts, ". "))
	return b.String()
}

// describeEntry renders one contribution with its evidence.
func describeEntry(entry schema.BreakdownEntry) string {
	label := map[schema.FactorTag]string{
		schema.TagBaseRisk:    "Concentration risk",
		schema.TagActivity:    "Activity",
		schema.TagReputation:  "Maintainer reputation",
		schema.TagFunding:     "Funding",
		schema.TagOrg:         "Organizational succession",
		schema.TagVisibility:  "Ecosystem visibility",
		schema.TagDistributed: "Distributed governance",
		schema.TagCommunity:   "Active community",
		schema.TagCII:         "Best practices",
		schema.TagSentiment:   "Sentiment",
		schema.TagFrustration: "Maintainer frustration",
		schema.TagTakeover:    "Takeover risk",
	}[entry.Tag]
	if label == "" {
		label = string(entry.Tag)
	}
	return fmt.Sprintf("%s %+d (%s)", label, entry.Points, entry.Evidence)
}

// firstWithSign returns the first entry matching the sign, or nil.
func firstWithSign(entries []schema.BreakdownEntry, sign int, skip map[schema.FactorTag]struct{}) *schema.BreakdownEntry {
	for i := range entries {
		if _, skipped := skip[entries[i].Tag]; skipped {
			continue
		}
		if sign > 0 && entries[i].Points > 0 {
			return &entries[i]
		}
		if sign < 0 && entries[i].Points < 0 {
			return &entries[i]
		}
	}
	return nil
}

// recommend looks up the static per-level recommendations and prepends the
// urgent cases.
func recommend(score schema.Score, inputs schema.ScoreInputs, concentration float64) []string {
	recs := schema.RecommendationsForLevel(score.Level)

	if hasTag(score.Breakdown, schema.TagTakeover) {
		recs = append([]string{"ALERT: new contributor dominates recent commits on a mature project - review releases carefully"}, recs...)
	}
	if concentration > 90 && inputs.Tables.RecentTotal < 10 {
		recs = append([]string{"HIGH PRIORITY: single maintainer plus low activity is a prime takeover target"}, recs...)
	}
	if len(inputs.FrustrationFlags) > 0 {
		recs = append([]string{"URGENT: maintainer frustration detected - elevated sabotage risk"}, recs...)
	}
	return recs
}
