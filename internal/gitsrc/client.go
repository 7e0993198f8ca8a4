// Package gitsrc maintains bare blobless mirrors of upstream repositories
// and enumerates their commit history.
package gitsrc

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"

	"github.com/anicka-net/ossuary/schema"
)

// runGit executes a git command and returns its stdout. Failures are
// classified into the error taxonomy: unreachable or deleted repositories
// become ErrRepoGone, everything else ErrTransientCollect.
func runGit(ctx context.Context, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, "git", args...)
	out, err := cmd.Output()
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		stderr := strings.TrimSpace(string(exitErr.Stderr))
		if isGoneMessage(stderr) {
			return nil, fmt.Errorf("%w: %s", schema.ErrRepoGone, stderr)
		}
		return nil, fmt.Errorf("%w: git %s: %s", schema.ErrTransientCollect, args[0], stderr)
	} else if err != nil {
		return nil, fmt.Errorf("%w: git: %v. Ensure Git is installed and on PATH", schema.ErrTransientCollect, err)
	}
	return out, nil
}

// isGoneMessage recognizes the stderr patterns of a deleted, private or
// DMCA-blocked repository.
func isGoneMessage(stderr string) bool {
	s := strings.ToLower(stderr)
	for _, marker := range []string{
		"repository not found",
		"repository unavailable",
		"dmca",
		"access blocked",
		"could not read from remote repository",
	} {
		if strings.Contains(s, marker) {
			return true
		}
	}
	return false
}
