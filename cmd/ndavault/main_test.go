package main

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVersionCommand(t *testing.T) {
	t.Parallel()

	root := newRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetArgs([]string{"version"})

	require.NoError(t, root.Execute())
	assert.Equal(t, "ndavault "+Version+"\n", out.String())
}

func TestCommandTree(t *testing.T) {
	t.Parallel()

	root := newRootCmd()
	for _, path := range [][]string{{"serve"}, {"migrate"}, {"alerts", "run"}, {"version"}} {
		cmd, _, err := root.Find(path)
		require.NoError(t, err, path)
		assert.Equal(t, path[len(path)-1], cmd.Name())
	}

	run, _, err := root.Find([]string{"alerts", "run"})
	require.NoError(t, err)
	for _, name := range []string{"horizon", "as-of", "send"} {
		assert.NotNil(t, run.Flags().Lookup(name), name)
	}
	assert.Equal(t, "30", run.Flags().Lookup("horizon").DefValue)
}

func TestMigrateArgs(t *testing.T) {
	t.Parallel()

	cmd := newMigrateCmd()
	tests := []struct {
		name    string
		args    []string
		wantErr bool
	}{
		{"up", []string{"up"}, false},
		{"down", []string{"down"}, false},
		{"status", []string{"status"}, false},
		{"missing", nil, true},
		{"unknown", []string{"redo"}, true},
		{"too many", []string{"up", "down"}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			err := cmd.Args(cmd, tt.args)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestParseAsOf(t *testing.T) {
	t.Parallel()

	now := time.Date(2025, 3, 1, 22, 30, 0, 0, time.FixedZone("EST", -5*3600))

	got, err := parseAsOf("", now)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2025, 3, 2, 0, 0, 0, 0, time.UTC), got)

	got, err = parseAsOf("2025-01-15", now)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2025, 1, 15, 0, 0, 0, 0, time.UTC), got)

	_, err = parseAsOf("15/01/2025", now)
	assert.Error(t, err)
}

func TestLoadCatalogDefault(t *testing.T) {
	t.Parallel()

	catalog, err := loadCatalog("")
	require.NoError(t, err)
	assert.NotNil(t, catalog)

	_, err = loadCatalog("testdata/does-not-exist.yaml")
	assert.Error(t, err)
}
