// Package schema has the data model, constants and score configuration
// shared by all parts of ossuary.
package schema

import "time"

// PackageIdentity names a package inside one ecosystem. Two packages with
// the same Ecosystem and Name are the same entity. For the github
// pseudo-ecosystem Name is "owner/repo".
type PackageIdentity struct {
	Ecosystem Ecosystem `json:"ecosystem"`
	Name      string    `json:"name"`
}

// RepositoryRef is a resolved upstream source repository.
type RepositoryRef struct {
	Host  string `json:"host"` // typically github.com
	Owner string `json:"owner"`
	Repo  string `json:"repo"`
	URL   string `json:"url"`
}

// Commit is one commit from the upstream repository. AuthorTime is UTC and
// is the authoritative ordering key.
type Commit struct {
	SHA         string
	AuthorName  string
	AuthorEmail string
	AuthorTime  time.Time
	Message     string
}

// Contributor is the canonical identity a set of (name, email) tuples
// collapses into. Immutable once the aggregation snapshot is taken.
type Contributor struct {
	ID            string    `json:"id"`
	DisplayName   string    `json:"display_name"`
	Emails        []string  `json:"emails"`
	Names         []string  `json:"names"`
	IsBot         bool      `json:"is_bot"`
	FirstCommit   time.Time `json:"first_commit"`
	LastCommit    time.Time `json:"last_commit"`
	CommitsTotal  int       `json:"commit_count_lifetime"`
	CommitsRecent int       `json:"commit_count_recent"`
}

// ProportionShift is the recent-vs-historical commit share change for one
// contributor on a mature project.
type ProportionShift struct {
	ContributorID string  `json:"contributor_id"`
	DisplayName   string  `json:"display_name"`
	RecentShare   float64 `json:"recent_share"`     // percent
	HistShare     float64 `json:"historical_share"` // percent
	Shift         float64 `json:"shift"`            // percentage points
}

// RegistryRecord is what a package registry knows about a package. Optional
// fields are pointers; absence is factor-neutral downstream.
type RegistryRecord struct {
	Name          string   `json:"name"`
	LatestVersion string   `json:"latest_version"`
	Description   string   `json:"description,omitempty"`
	RepoURL       string   `json:"repo_url,omitempty"`
	DownloadsWeek *int64   `json:"downloads_per_week,omitempty"`
	Maintainers   []string `json:"maintainers,omitempty"`
}

// UserProfile is the forge profile of the top maintainer, used for
// reputation scoring.
type UserProfile struct {
	Login              string     `json:"login"`
	AccountCreated     *time.Time `json:"account_created,omitempty"`
	OwnedRepos         int        `json:"owned_repos"`
	ReposWithStars     int        `json:"repos_with_stars"` // original repos with >=10 stars
	StarsTotal         int        `json:"stars_total"`
	SponsorCount       *int       `json:"sponsor_count,omitempty"`
	Orgs               []string   `json:"orgs,omitempty"`
	PackagesMaintained []string   `json:"packages_maintained,omitempty"`
	TopMaintainer      bool       `json:"top_maintainer"`
}

// ForgeRecord is the forge-level metadata for a resolved repository.
type ForgeRecord struct {
	Ref           RepositoryRef `json:"ref"`
	Stars         int           `json:"stars"`
	DefaultBranch string        `json:"default_branch"`
	PushedAt      *time.Time    `json:"pushed_at,omitempty"`
	CreatedAt     *time.Time    `json:"created_at,omitempty"`
	Archived      bool          `json:"archived"`
	HasSponsors   bool          `json:"has_sponsors"`
	OpenIssues    int           `json:"open_issues_count"`
	ReleasesCount int           `json:"releases_count"`

	OwnerType   string `json:"owner_type"` // User or Organization
	AdminCount  *int   `json:"admin_count,omitempty"`
	MemberCount int    `json:"member_count"`

	TopContributors []ForgeContributor `json:"top_contributors,omitempty"`
	CIIBadge        bool               `json:"cii_badge"`

	IssueTitles  []string `json:"issue_titles,omitempty"`
	ReleaseNotes []string `json:"release_notes,omitempty"`

	Maintainer *UserProfile `json:"maintainer,omitempty"`
}

// ForgeContributor is one entry of the forge's contributor leaderboard.
type ForgeContributor struct {
	Login         string `json:"login"`
	Contributions int    `json:"contributions"`
}

// ContributorTables is the aggregated view of a commit history the scoring
// engine consumes. Recent covers the 12 months before AsOf; lifetime covers
// everything at or before AsOf.
type ContributorTables struct {
	Contributors []Contributor `json:"contributors"`

	RecentTotal   int `json:"recent_total"`
	LifetimeTotal int `json:"lifetime_total"`

	RecentConcentration   float64 `json:"recent_concentration"`
	LifetimeConcentration float64 `json:"lifetime_concentration"`

	UniqueRecent int `json:"unique_contributors_recent"` // non-bot

	TopRecentID   string `json:"top_recent_id"`
	TopRecentName string `json:"top_recent_name"`

	FirstCommit time.Time `json:"first_commit"`
	LastCommit  time.Time `json:"last_commit"`

	Shifts []ProportionShift `json:"proportion_shifts,omitempty"`
}

// ScoreInputs is the immutable snapshot the orchestrator hands to the
// scoring engine. A nil pointer means the input could not be collected and
// the corresponding factor stays neutral.
type ScoreInputs struct {
	Package PackageIdentity `json:"package"`
	Repo    RepositoryRef   `json:"repo"`

	Tables ContributorTables `json:"tables"`

	RepoAgeYears float64 `json:"repo_age_years"`
	TotalCommits int     `json:"total_commits"`

	DownloadsWeek *int64 `json:"downloads_per_week,omitempty"`
	Stars         int    `json:"stars"`

	SentimentCompound float64  `json:"sentiment_compound"`
	FrustrationFlags  []string `json:"frustration_flags,omitempty"`

	ReputationTier     ReputationTier `json:"reputation_tier"`
	ReputationEvidence string         `json:"reputation_evidence,omitempty"`

	OwnerIsOrg  bool `json:"owner_is_org"`
	AdminCount  *int `json:"admin_count,omitempty"`
	HasSponsors bool `json:"has_sponsors"`
	CIIBadge    bool `json:"cii_badge"`

	Partial bool `json:"partial"` // at least one collector branch failed

	AsOf time.Time `json:"as_of"`
}

// BreakdownEntry is one signed contribution to the final score.
type BreakdownEntry struct {
	Tag      FactorTag `json:"tag"`
	Points   int       `json:"points"`
	Evidence string    `json:"evidence"`
}

// Score is the result of one scoring run.
type Score struct {
	Package   string    `json:"package"`
	Ecosystem Ecosystem `json:"ecosystem"`
	RepoURL   string    `json:"repo_url,omitempty"`

	Value     int       `json:"score"`
	Level     RiskLevel `json:"risk_level"`
	Semaphore string    `json:"semaphore"`

	Explanation     string           `json:"explanation"`
	Breakdown       []BreakdownEntry `json:"breakdown"`
	Recommendations []string         `json:"recommendations"`

	Partial bool `json:"partial,omitempty"`

	InputsHash   string     `json:"inputs_hash"`
	ComputedAt   time.Time  `json:"computed_at"`
	AsOf         *time.Time `json:"as_of"`
	ModelVersion string     `json:"model_version"`
}

// MoverRow is one row of the movers query: the package whose two most
// recent history entries differ the most.
type MoverRow struct {
	Ecosystem  Ecosystem `json:"ecosystem"`
	Name       string    `json:"name"`
	PrevScore  int       `json:"prev_score"`
	LastScore  int       `json:"last_score"`
	Delta      int       `json:"delta"`
	ComputedAt time.Time `json:"computed_at"`
}

// HistoryRow is one append-only score_history entry.
type HistoryRow struct {
	Ecosystem  Ecosystem `json:"ecosystem"`
	Name       string    `json:"name"`
	Score      int       `json:"score"`
	ComputedAt time.Time `json:"computed_at"`
}
