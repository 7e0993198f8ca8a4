package gitsrc

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleLog() string {
	return recordSep + "aaa" + fieldSep + "Anna" + fieldSep + "anna@suse.cz" + fieldSep +
		"2024-03-01T10:00:00+01:00" + fieldSep + "fix: handle empty config\n\nlonger body\n" +
		recordSep + "bbb" + fieldSep + "Bob" + fieldSep + "bob@gmail.com" + fieldSep +
		"2024-01-15T08:30:00Z" + fieldSep + "chore: bump deps\n"
}

// TestParseLog validates separator-based record parsing.
func TestParseLog(t *testing.T) {
	commits := parseLog(sampleLog())
	require.Len(t, commits, 2)

	assert.Equal(t, "aaa", commits[0].SHA)
	assert.Equal(t, "Anna", commits[0].AuthorName)
	assert.Equal(t, "anna@suse.cz", commits[0].AuthorEmail)
	assert.Equal(t, "fix: handle empty config\n\nlonger body", commits[0].Message)
	assert.Equal(t, time.UTC, commits[0].AuthorTime.Location())
	assert.Equal(t, 9, commits[0].AuthorTime.Hour()) // +01:00 folded to UTC

	assert.Equal(t, "bbb", commits[1].SHA)
}

// TestParseLogDropsMalformed ensures truncated records do not poison the walk.
func TestParseLogDropsMalformed(t *testing.T) {
	raw := sampleLog() + recordSep + "ccc" + fieldSep + "broken"
	commits := parseLog(raw)
	assert.Len(t, commits, 2)
}

// TestParseLogEmpty handles repositories with no commits.
func TestParseLogEmpty(t *testing.T) {
	assert.Empty(t, parseLog(""))
}

// TestFilterAsOf verifies commits after the cutoff never survive the walk.
func TestFilterAsOf(t *testing.T) {
	commits := parseLog(sampleLog())
	asOf := time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)

	kept := filterAsOf(commits, asOf)
	require.Len(t, kept, 1)
	assert.Equal(t, "bbb", kept[0].SHA)

	all := filterAsOf(parseLog(sampleLog()), time.Time{})
	assert.Len(t, all, 2)
}

// TestMirrorDirLayout pins the repos/<host>/<owner>/<repo>.git layout.
func TestMirrorDirLayout(t *testing.T) {
	s := NewSource("/var/cache/ossuary/repos")
	dir := s.MirrorDir(refFor("github.com", "chalk", "chalk"))
	assert.Equal(t, "/var/cache/ossuary/repos/github.com/chalk/chalk.git", dir)
}
