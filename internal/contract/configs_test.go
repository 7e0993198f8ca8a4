package contract

import (
	"errors"
	"testing"
	"time"

	"github.com/anicka-net/ossuary/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestParseDatabaseURL covers the three supported schemes.
func TestParseDatabaseURL(t *testing.T) {
	tests := []struct {
		name        string
		url         string
		backend     schema.DatabaseBackend
		connStr     string
		expectError bool
	}{
		{
			name:    "default when empty",
			url:     "",
			backend: schema.SQLiteBackend,
			connStr: "ossuary.db",
		},
		{
			name:    "sqlite relative path",
			url:     "sqlite:///ossuary.db",
			backend: schema.SQLiteBackend,
			connStr: "ossuary.db",
		},
		{
			name:    "sqlite absolute path",
			url:     "sqlite:////var/lib/ossuary/cache.db",
			backend: schema.SQLiteBackend,
			connStr: "/var/lib/ossuary/cache.db",
		},
		{
			name:    "postgres passthrough",
			url:     "postgres://user:pass@db:5432/ossuary",
			backend: schema.PostgreSQLBackend,
			connStr: "postgres://user:pass@db:5432/ossuary",
		},
		{
			name:    "mysql converted to dsn",
			url:     "mysql://root:secret@db:3306/ossuary",
			backend: schema.MySQLBackend,
			connStr: "root:secret@tcp(db:3306)/ossuary?parseTime=true",
		},
		{
			name:        "unknown scheme",
			url:         "redis://whatever",
			expectError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			backend, connStr, err := ParseDatabaseURL(tt.url)
			if tt.expectError {
				require.Error(t, err)
				assert.True(t, errors.Is(err, schema.ErrInput))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.backend, backend)
			assert.Equal(t, tt.connStr, connStr)
		})
	}
}

// TestParseEcosystem validates the closed set and case folding.
func TestParseEcosystem(t *testing.T) {
	eco, err := ParseEcosystem("NPM")
	require.NoError(t, err)
	assert.Equal(t, schema.EcosystemNpm, eco)

	_, err = ParseEcosystem("maven")
	assert.True(t, errors.Is(err, schema.ErrInput))
}

// TestParseCutoff covers the date format and future clamping.
func TestParseCutoff(t *testing.T) {
	now := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)

	asOf, err := ParseCutoff("2018-09-01", now)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2018, 9, 1, 0, 0, 0, 0, time.UTC), asOf)

	asOf, err = ParseCutoff("", now)
	require.NoError(t, err)
	assert.True(t, asOf.IsZero())

	asOf, err = ParseCutoff("2099-01-01", now)
	require.NoError(t, err)
	assert.Equal(t, now, asOf)

	_, err = ParseCutoff("September 2018", now)
	assert.True(t, errors.Is(err, schema.ErrInput))
}

// TestAsOfBucket pins the bucket encoding.
func TestAsOfBucket(t *testing.T) {
	assert.Equal(t, "", AsOfBucket(time.Time{}))
	assert.Equal(t, "2022-01-01", AsOfBucket(time.Date(2022, 1, 1, 15, 4, 5, 0, time.UTC)))
}

// TestProcessAndValidateDefaults fills unset values.
func TestProcessAndValidateDefaults(t *testing.T) {
	cfg := &Config{}
	require.NoError(t, ProcessAndValidate(cfg, &ConfigRawInput{}))

	assert.Equal(t, schema.SQLiteBackend, cfg.Backend)
	assert.Equal(t, DefaultReposPath, cfg.ReposPath)
	assert.Equal(t, time.Duration(DefaultCacheDays)*24*time.Hour, cfg.CacheAge)
	assert.Equal(t, DefaultBatchWorkers, cfg.Workers)
	assert.True(t, cfg.UseColors)
}
