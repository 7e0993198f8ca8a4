package schema

// ModelVersion identifies the scoring model. Any change to a weight or
// threshold below must bump this, since it is folded into inputs_hash.
const ModelVersion = "1.0.0"

// ScoreConfig carries every weight and threshold of the scoring model as a
// closed value. The engine takes it by parameter so tests can swap it.
type ScoreConfig struct {
	ModelVersion string

	// Maturity classification.
	MatureAgeYears      float64
	MatureMinCommits    int
	MatureLastCommitYrs float64

	// Base risk bands: concentration cut points and the band values.
	BaseBands []BaseBand

	// Activity modifier cut points.
	ActivityHigh     int // commits/year above this: strong reduction
	ActivityModerate int // commits/year at or above this: mild reduction
	ActivityLow      int // commits/year at or above this: neutral
	ActivityHighMod  int
	ActivityModMod   int
	ActivityAbandon  int // applied below ActivityLow

	// Protective factor deltas.
	Tier1Delta       int
	Tier2Delta       int
	SponsorsDelta    int
	OrgDelta         int
	OrgMinAdmins     int
	MassiveVisDelta  int
	HighVisDelta     int
	MassiveDownloads int64
	HighDownloads    int64
	DistributedDelta int
	DistributedBelow float64
	CommunityDelta   int
	CommunityAbove   int
	CIIDelta         int
	PositiveDelta    int
	PositiveAbove    float64
	NegativeDelta    int
	NegativeBelow    float64
	FrustrationDelta int

	// Takeover detection.
	TakeoverDelta    int
	TakeoverShiftPP  float64
	TakeoverHistMax  float64 // contributors at or above this historical share are exempt
	TakeoverMinTotal int     // minimum recent commits for shifts to be meaningful

	// Reputation thresholds.
	RepTenureYears    float64
	RepMinReposStars  int
	RepMinStarsRepo   int
	RepStarsTotal     int
	RepMinSponsors    int
	RepMinPackages    int
	RepTier1Min       int
	RepTier2Min       int
	RepTenurePts      int
	RepPortfolioPts   int
	RepStarsPts       int
	RepSponsorsPts    int
	RepPackagesPts    int
	RepTopMaintainPts int
	RepOrgPts         int
}

// BaseBand maps a concentration upper bound (exclusive) to a base risk.
type BaseBand struct {
	Below float64
	Base  int
}

// DefaultScoreConfig returns the reference model.
func DefaultScoreConfig() ScoreConfig {
	return ScoreConfig{
		ModelVersion: ModelVersion,

		MatureAgeYears:      5,
		MatureMinCommits:    30,
		MatureLastCommitYrs: 5,

		BaseBands: []BaseBand{
			{Below: 30, Base: 20},
			{Below: 50, Base: 40},
			{Below: 70, Base: 60},
			{Below: 90, Base: 80},
		},

		ActivityHigh:     50,
		ActivityModerate: 12,
		ActivityLow:      4,
		ActivityHighMod:  -30,
		ActivityModMod:   -15,
		ActivityAbandon:  20,

		Tier1Delta:       -25,
		Tier2Delta:       -10,
		SponsorsDelta:    -15,
		OrgDelta:         -15,
		OrgMinAdmins:     3,
		MassiveVisDelta:  -20,
		HighVisDelta:     -10,
		MassiveDownloads: 50_000_000,
		HighDownloads:    10_000_000,
		DistributedDelta: -10,
		DistributedBelow: 40,
		CommunityDelta:   -10,
		CommunityAbove:   20,
		CIIDelta:         -10,
		PositiveDelta:    -5,
		PositiveAbove:    0.3,
		NegativeDelta:    10,
		NegativeBelow:    -0.3,
		FrustrationDelta: 20,

		TakeoverDelta:    20,
		TakeoverShiftPP:  30,
		TakeoverHistMax:  5,
		TakeoverMinTotal: 5,

		RepTenureYears:    5,
		RepMinReposStars:  50,
		RepMinStarsRepo:   10,
		RepStarsTotal:     50_000,
		RepMinSponsors:    10,
		RepMinPackages:    20,
		RepTier1Min:       60,
		RepTier2Min:       30,
		RepTenurePts:      15,
		RepPortfolioPts:   15,
		RepStarsPts:       15,
		RepSponsorsPts:    15,
		RepPackagesPts:    10,
		RepTopMaintainPts: 15,
		RepOrgPts:         15,
	}
}

// BaseForConcentration resolves the base-risk band for a concentration.
func (c ScoreConfig) BaseForConcentration(concentration float64) int {
	for _, b := range c.BaseBands {
		if concentration < b.Below {
			return b.Base
		}
	}
	return 100
}
