package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kass/go-geo-zones/pkg/zones"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoadDefaults(t *testing.T) {
	t.Chdir(t.TempDir())

	c, err := Load(New(), "")
	require.NoError(t, err)
	assert.Equal(t, zones.DefaultConfig(), c.Grid)
	assert.Equal(t, SourceJSON, c.Input.Source)
	assert.Equal(t, "agents.json", c.Input.File)
	assert.Equal(t, zones.AgreeablenessAttribute, c.Attribute)
	assert.Equal(t, 5432, c.PostGIS.Port)
	assert.Positive(t, c.Workers)
}

func TestLoadFile(t *testing.T) {
	path := writeConfig(t, `
grid:
  step_latitude: 2
  step_longitude: 2
input:
  source: postgis
postgis:
  host: db.internal
  database: agents
attribute: openness
workers: 3
`)

	v := New()
	c, err := Load(v, path)
	require.NoError(t, err)
	assert.Equal(t, 2.0, c.Grid.StepLatitude)
	assert.Equal(t, -90.0, c.Grid.MinLatitude)
	assert.Equal(t, SourcePostGIS, c.Input.Source)
	assert.Equal(t, "db.internal", c.PostGIS.Host)
	assert.Equal(t, "agents", c.PostGIS.Database)
	assert.Equal(t, "openness", c.Attribute)
	assert.Equal(t, 3, c.Workers)
	assert.Equal(t, path, UsedFile(v))
}

func TestLoadEnvOverridesFile(t *testing.T) {
	path := writeConfig(t, "attribute: openness\n")
	t.Setenv("GEOZONES_ATTRIBUTE", "neuroticism")
	t.Setenv("GEOZONES_INPUT_FILE", "from-env.json")

	c, err := Load(New(), path)
	require.NoError(t, err)
	assert.Equal(t, "neuroticism", c.Attribute)
	assert.Equal(t, "from-env.json", c.Input.File)
}

func TestBindFlags(t *testing.T) {
	t.Chdir(t.TempDir())

	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags.StringP("file", "f", "agents.json", "")
	flags.Int("workers", 1, "")
	require.NoError(t, flags.Parse([]string{"-f", "people.json", "--workers", "9"}))

	v := New()
	require.NoError(t, BindFlags(v, flags, map[string]string{"file": "input.file", "workers": "workers"}))

	c, err := Load(v, "")
	require.NoError(t, err)
	assert.Equal(t, "people.json", c.Input.File)
	assert.Equal(t, 9, c.Workers)

	assert.Error(t, BindFlags(v, flags, map[string]string{"nope": "x"}))
}

func TestLoadErrors(t *testing.T) {
	testCases := []struct {
		name string
		body string
	}{
		{"invalid grid", "grid:\n  step_longitude: 0\n"},
		{"unknown source", "input:\n  source: csv\n"},
		{"empty file for json", "input:\n  file: \"\"\n"},
		{"malformed yaml", "grid: [\n"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Load(New(), writeConfig(t, tc.body))
			assert.Error(t, err)
		})
	}

	_, err := Load(New(), filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
