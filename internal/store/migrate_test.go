package store

import (
	"io/fs"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Malformed migration filenames fail only at runtime, so sanity-check the
// embedded set here.
func TestEmbeddedMigrationsArePaired(t *testing.T) {
	entries, err := fs.ReadDir(migrationFS, "migrations")
	require.NoError(t, err)
	require.NotEmpty(t, entries)

	ups := map[string]bool{}
	downs := map[string]bool{}
	for _, e := range entries {
		name := e.Name()
		switch {
		case strings.HasSuffix(name, ".up.sql"):
			ups[strings.TrimSuffix(name, ".up.sql")] = true
		case strings.HasSuffix(name, ".down.sql"):
			downs[strings.TrimSuffix(name, ".down.sql")] = true
		default:
			t.Errorf("unexpected migration file %q", name)
		}
	}

	assert.Equal(t, ups, downs, "every up migration needs a matching down")
}

func TestSchemaCoversObservationTables(t *testing.T) {
	data, err := fs.ReadFile(migrationFS, "migrations/0001_schema.up.sql")
	require.NoError(t, err)
	schema := string(data)

	for _, table := range []string{
		"servers",
		"server_connectivity",
		"server_disk_storage",
		"cpu_usages",
		"memory_usages",
		"active_users",
		"active_ip",
		"server_metrics_averages",
	} {
		assert.Contains(t, schema, "CREATE TABLE IF NOT EXISTS "+table, table)
	}
}
