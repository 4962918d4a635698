package main

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aluiziolira/go-scrape-hyrox/pipeline"
)

func newCollectFlags(t *testing.T) *pflag.FlagSet {
	t.Helper()
	flags := pflag.NewFlagSet("collect", pflag.ContinueOnError)
	registerCollectFlags(flags)
	return flags
}

func TestBuildConfigLayersEnvAndFlags(t *testing.T) {
	t.Setenv("HYROX_MAX_PAGES", "2")
	t.Setenv("HYROX_DELAY", "250ms")
	t.Setenv("HYROX_OUTPUT", "from-env.csv")

	flags := newCollectFlags(t)
	require.NoError(t, flags.Set("output", "from-flag.csv"))
	require.NoError(t, flags.Set("genders", "M,W"))
	require.NoError(t, flags.Set("all-days", "true"))

	cfg, err := buildConfig(flags)
	require.NoError(t, err)

	assert.Equal(t, 2, cfg.MaxPages)
	assert.Equal(t, 250*time.Millisecond, cfg.Delay)
	assert.Equal(t, "from-flag.csv", cfg.OutputFile)
	assert.Equal(t, []string{"M", "W"}, cfg.Genders)
	assert.False(t, cfg.PreferOverall)
	assert.Equal(t, "HYROX", cfg.TargetCategory)
}

func TestBuildConfigRejectsBadSeasons(t *testing.T) {
	flags := newCollectFlags(t)
	require.NoError(t, flags.Set("seasons", "Season 9"))

	_, err := buildConfig(flags)
	require.Error(t, err)
}

func TestCreateWriter(t *testing.T) {
	dir := t.TempDir()

	w, err := createWriter("csv", filepath.Join(dir, "results.csv"))
	require.NoError(t, err)
	assert.IsType(t, &pipeline.CSVWriter{}, w)
	require.NoError(t, w.Close())

	w, err = createWriter("dual", filepath.Join(dir, "dual.csv"))
	require.NoError(t, err)
	assert.IsType(t, &pipeline.DualWriter{}, w)
	require.NoError(t, w.Close())
	assert.FileExists(t, filepath.Join(dir, "dual.jsonl"))

	_, err = createWriter("xml", filepath.Join(dir, "results.xml"))
	require.Error(t, err)
}

func TestMirrorFilename(t *testing.T) {
	assert.Equal(t, "output/hyrox_results.jsonl", mirrorFilename("output/hyrox_results.csv"))
	assert.Equal(t, "results.jsonl", mirrorFilename("results"))
}
