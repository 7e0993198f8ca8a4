// Package sentiment scores maintainer communications: a VADER compound
// polarity plus keyword-based frustration detection.
package sentiment

import (
	"sort"
	"strings"

	"github.com/anicka-net/ossuary/schema"
	"github.com/jonreiter/govader"
)

// Corpus bounds per scoring run.
const (
	maxCommitSubjects = 200
	maxIssueTitles    = 50
)

// Result is the aggregated outcome over one corpus.
type Result struct {
	Compound         float64  // average compound polarity in [-1, 1]
	FrustrationFlags []string // matched keyword set, sorted
	Analyzed         int
}

// Analyzer wraps the VADER lexicon model.
type Analyzer struct {
	vader *govader.SentimentIntensityAnalyzer
}

// NewAnalyzer builds an analyzer with the standard lexicon.
func NewAnalyzer() *Analyzer {
	return &Analyzer{vader: govader.NewSentimentIntensityAnalyzer()}
}

// BuildCorpus assembles the scoring corpus: subject lines of the most
// recent commits plus issue and release titles, bounded.
func BuildCorpus(commits []schema.Commit, issueTitles, releaseNotes []string) []string {
	var corpus []string
	for i, c := range commits {
		if i >= maxCommitSubjects {
			break
		}
		subject := c.Message
		if nl := strings.IndexByte(subject, '\n'); nl >= 0 {
			subject = subject[:nl]
		}
		if subject != "" {
			corpus = append(corpus, subject)
		}
	}
	titles := append(append([]string{}, issueTitles...), releaseNotes...)
	for i, title := range titles {
		if i >= maxIssueTitles {
			break
		}
		if title != "" {
			corpus = append(corpus, title)
		}
	}
	return corpus
}

// Analyze scores a corpus. The compound is the mean over non-empty texts;
// frustration flags are the distinct keywords matched anywhere.
func (a *Analyzer) Analyze(corpus []string) Result {
	var res Result
	flags := make(map[string]struct{})
	var sum float64

	for _, text := range corpus {
		trimmed := strings.TrimSpace(text)
		if trimmed == "" {
			continue
		}
		sum += a.vader.PolarityScores(trimmed).Compound
		res.Analyzed++

		lower := strings.ToLower(trimmed)
		for _, kw := range schema.FrustrationKeywords {
			if strings.Contains(lower, kw) {
				flags[kw] = struct{}{}
			}
		}
	}

	if res.Analyzed > 0 {
		res.Compound = sum / float64(res.Analyzed)
	}
	for kw := range flags {
		res.FrustrationFlags = append(res.FrustrationFlags, kw)
	}
	sort.Strings(res.FrustrationFlags)
	return res
}
