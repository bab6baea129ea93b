package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/KaramelBytes/scoreloom-cli/internal/analysis"
	"github.com/KaramelBytes/scoreloom-cli/internal/record"
)

func isolate(t *testing.T) string {
	t.Helper()
	home := t.TempDir()
	t.Setenv("HOME", home)
	return home
}

func TestLoadDefaults(t *testing.T) {
	home := isolate(t)
	c, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(home, ".scoreloom", "student_performance.db"), c.DBPath)
	assert.Equal(t, "content", c.DedupPolicy)
	assert.False(t, c.StrictValidation)
	assert.Equal(t, ":8080", c.ServerAddress)
	assert.Equal(t, analysis.DefaultBenchmarks(), c.AnalysisBenchmarks())
}

func TestLoadFileAndEnv(t *testing.T) {
	home := isolate(t)
	path := filepath.Join(home, "custom.yaml")
	body := "dedup_policy: none\nbenchmarks:\n  neet:\n    target: 65\n"
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	t.Setenv("SCORELOOM_BENCHMARKS_JEE_TARGET", "80")
	t.Setenv("SCORELOOM_LOG_LEVEL", "debug")

	c, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "none", c.DedupPolicy)
	assert.Equal(t, "debug", c.LogLevel)
	b := c.AnalysisBenchmarks()
	assert.Equal(t, 65.0, b.For(record.TrackNEET).Target)
	assert.Equal(t, 50.0, b.For(record.TrackNEET).PassThreshold)
	assert.Equal(t, 80.0, b.For(record.TrackJEE).Target)
}

func TestSaveRoundTrip(t *testing.T) {
	home := isolate(t)
	c, err := Load("")
	require.NoError(t, err)
	require.NoError(t, c.Set("strict_validation", "true"))
	require.NoError(t, c.Set("benchmarks.jee.key_subjects", "Physics, Math"))
	require.NoError(t, Save(c, ""))
	assert.FileExists(t, filepath.Join(home, ".scoreloom", "config.yaml"))

	again, err := Load("")
	require.NoError(t, err)
	assert.True(t, again.StrictValidation, "strict_validation not persisted")
	assert.Equal(t, []string{"Physics", "Math"}, again.Benchmarks.JEE.KeySubjects)
}

func TestSetRejectsBadValues(t *testing.T) {
	var c Global
	for _, kv := range [][2]string{
		{"dedup_policy", "fuzzy"},
		{"log_format", "xml"},
		{"benchmarks.neet.target", "120"},
		{"strict_validation", "maybe"},
		{"api_key", "x"},
	} {
		assert.Error(t, c.Set(kv[0], kv[1]), "Set(%q, %q)", kv[0], kv[1])
	}
	for _, k := range Keys {
		_, err := c.Get(k)
		assert.NoError(t, err, "Get(%q)", k)
	}
}
