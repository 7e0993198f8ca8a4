package identity

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

// TestKey checks canonical key derivation.
func TestKey(t *testing.T) {
	tests := []struct {
		name     string
		author   string
		email    string
		expected string
	}{
		{
			name:     "plain corporate email",
			author:   "Alice",
			email:    "alice@suse.de",
			expected: "alice@suse.de",
		},
		{
			name:     "case folded",
			author:   "Alice",
			email:    "Alice@SUSE.DE",
			expected: "alice@suse.de",
		},
		{
			name:     "github noreply with numeric prefix",
			author:   "CF Conrad",
			email:    "12345+cfconrad@users.noreply.github.com",
			expected: "cfconrad@github",
		},
		{
			name:     "github noreply without prefix",
			author:   "CF Conrad",
			email:    "cfconrad@users.noreply.github.com",
			expected: "cfconrad@github",
		},
		{
			name:     "gmail collapses to personal",
			author:   "Bob",
			email:    "bob@gmail.com",
			expected: "bob@personal",
		},
		{
			name:     "outlook collapses to personal",
			author:   "Bob",
			email:    "bob@outlook.com",
			expected: "bob@personal",
		},
		{
			name:     "missing email falls back to name",
			author:   "Mystery Author",
			email:    "",
			expected: "mystery author@unknown",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Key(tt.author, tt.email))
		})
	}
}

// TestKeyIdempotent verifies normalization is stable across calls.
func TestKeyIdempotent(t *testing.T) {
	k1 := Key("Sindre Sorhus", "Sindre@Gmail.com")
	k2 := Key("Sindre Sorhus", "sindre@gmail.com")
	assert.Equal(t, k1, k2)
}

// TestIsBot covers the bot detection rules.
func TestIsBot(t *testing.T) {
	assert.True(t, IsBot("dependabot[bot]", "49699333+dependabot[bot]@users.noreply.github.com"))
	assert.True(t, IsBot("renovate", "bot@renovateapp.com"))
	assert.True(t, IsBot("CI", "ci@bots.noreply.github.com"))
	assert.False(t, IsBot("Anna", "anna@suse.cz"))
	assert.False(t, IsBot("robotics-dev", "rd@example.org"))
}

// TestResolverMergesRelayAndPersonal checks the secondary merge pass links a
// personal address with the same person's GitHub relay address.
func TestResolverMergesRelayAndPersonal(t *testing.T) {
	r := NewResolver()
	k1 := r.Observe("Sindre Sorhus", "sindre@gmail.com")
	k2 := r.Observe("Sindre Sorhus", "12345+sindresorhus@users.noreply.github.com")
	assert.NotEqual(t, k1, k2)

	merges := r.Merges()
	assert.Equal(t, merges[k1], merges[k2])
	// Earliest-seen key wins.
	assert.Equal(t, k1, merges[k2])
}

// TestResolverKeepsStrangersApart ensures one shared signal is not enough.
func TestResolverKeepsStrangersApart(t *testing.T) {
	r := NewResolver()
	k1 := r.Observe("John Smith", "john@gmail.com")
	k2 := r.Observe("John Doe", "john@corp.example")

	merges := r.Merges()
	assert.NotEqual(t, merges[k1], merges[k2])
}

// TestResolverStableAcrossRuns verifies two resolvers fed the same inputs in
// the same order give the same canonical ids.
func TestResolverStableAcrossRuns(t *testing.T) {
	r1 := NewResolver()
	a1 := r1.Observe("Sindre Sorhus", "sindre@gmail.com")
	r1.Observe("Sindre Sorhus", "sindresorhus@users.noreply.github.com")

	r2 := NewResolver()
	b1 := r2.Observe("Sindre Sorhus", "sindre@gmail.com")
	r2.Observe("Sindre Sorhus", "sindresorhus@users.noreply.github.com")

	m1, m2 := r1.Merges(), r2.Merges()
	assert.Equal(t, m1[a1], m2[b1])
}
