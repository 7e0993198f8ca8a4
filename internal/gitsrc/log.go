package gitsrc

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/anicka-net/ossuary/schema"
)

// Record and field separators for the log format. Control characters keep
// multi-line commit messages parseable in one pass.
const (
	recordSep = "\x1e"
	fieldSep  = "\x1f"
)

// Commits enumerates the default branch in author-time descending order,
// emitting subject plus body as the message. When asOf is non-zero, commits
// authored after it are skipped so historical scoring stays exact.
func (s *Source) Commits(ctx context.Context, dir string, asOf time.Time) ([]schema.Commit, error) {
	out, err := runGit(ctx, "--git-dir", dir, "log",
		"--pretty=format:"+recordSep+"%H"+fieldSep+"%an"+fieldSep+"%ae"+fieldSep+"%aI"+fieldSep+"%B",
		"HEAD")
	if err != nil {
		return nil, err
	}

	commits := filterAsOf(parseLog(string(out)), asOf)

	// git orders by commit time; author time is the authoritative key.
	sort.SliceStable(commits, func(i, j int) bool {
		return commits[i].AuthorTime.After(commits[j].AuthorTime)
	})
	return commits, nil
}

// filterAsOf drops commits authored strictly after asOf. A zero asOf keeps
// everything.
func filterAsOf(commits []schema.Commit, asOf time.Time) []schema.Commit {
	if asOf.IsZero() {
		return commits
	}
	filtered := commits[:0]
	for _, c := range commits {
		if !c.AuthorTime.After(asOf) {
			filtered = append(filtered, c)
		}
	}
	return filtered
}

// parseLog splits the raw log output into commits. Records that fail to
// parse (truncated output, odd encodings) are dropped rather than failing
// the whole walk.
func parseLog(raw string) []schema.Commit {
	var commits []schema.Commit
	for _, record := range strings.Split(raw, recordSep) {
		record = strings.TrimLeft(record, "\n")
		if record == "" {
			continue
		}
		fields := strings.SplitN(record, fieldSep, 5)
		if len(fields) != 5 {
			continue
		}
		when, err := time.Parse(time.RFC3339, fields[3])
		if err != nil {
			continue
		}
		commits = append(commits, schema.Commit{
			SHA:         fields[0],
			AuthorName:  fields[1],
			AuthorEmail: fields[2],
			AuthorTime:  when.UTC(),
			Message:     strings.TrimRight(fields[4], "\n"),
		})
	}
	return commits
}
