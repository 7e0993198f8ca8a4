package sentiment

import (
	"strings"
	"testing"
	"time"

	"github.com/anicka-net/ossuary/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestAnalyzePolarityOrdering only asserts the ordering contract: clearly
// positive English scores above clearly negative English.
func TestAnalyzePolarityOrdering(t *testing.T) {
	a := NewAnalyzer()

	happy := a.Analyze([]string{"This release is great, wonderful work, I love it!"})
	angry := a.Analyze([]string{"This is terrible, horrible, I hate everything about it."})

	assert.Greater(t, happy.Compound, 0.0)
	assert.Less(t, angry.Compound, 0.0)
	assert.Greater(t, happy.Compound, angry.Compound)
}

// TestAnalyzeFrustrationKeywords matches case-insensitive substrings and
// returns the distinct sorted set.
func TestAnalyzeFrustrationKeywords(t *testing.T) {
	a := NewAnalyzer()

	res := a.Analyze([]string{
		"I am doing all this FREE WORK while companies make millions",
		"honestly close to burnout",
		"free work is not sustainable",
		"regular fix for the parser",
	})

	assert.Equal(t, []string{"burnout", "companies make millions", "free work"}, res.FrustrationFlags)
}

// TestAnalyzeEmptyCorpus returns a neutral result.
func TestAnalyzeEmptyCorpus(t *testing.T) {
	a := NewAnalyzer()
	res := a.Analyze(nil)
	assert.Zero(t, res.Compound)
	assert.Empty(t, res.FrustrationFlags)
	assert.Zero(t, res.Analyzed)
}

// TestBuildCorpus takes commit subjects only and bounds both sources.
func TestBuildCorpus(t *testing.T) {
	commits := make([]schema.Commit, 0, 250)
	for range 250 {
		commits = append(commits, schema.Commit{
			Message:    "subject line\n\nbody that must not be included",
			AuthorTime: time.Now(),
		})
	}
	titles := make([]string, 60)
	for i := range titles {
		titles[i] = "issue title"
	}

	corpus := BuildCorpus(commits, titles, []string{"v2.0.0"})
	require.Len(t, corpus, 250)
	assert.Equal(t, "subject line", corpus[0])
	for _, text := range corpus {
		assert.False(t, strings.Contains(text, "body"))
	}
}
