package main

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/linuxmatters/sigcond/internal/config"
	"github.com/linuxmatters/sigcond/internal/metrics"
	"github.com/linuxmatters/sigcond/internal/processor"
	"github.com/linuxmatters/sigcond/internal/sensor"
)

func loadDefaults(t *testing.T) *config.Settings {
	t.Helper()
	t.Chdir(t.TempDir())
	s, err := config.Load("")
	require.NoError(t, err)
	return s
}

func writeTrace(t *testing.T, n int) string {
	t.Helper()
	var b strings.Builder
	b.WriteString("adc\n")
	for i := 0; i < n; i++ {
		fmt.Fprintf(&b, "%d\n", 300+(i%20)*5)
	}
	path := filepath.Join(t.TempDir(), "trace.csv")
	require.NoError(t, os.WriteFile(path, []byte(b.String()), 0o644))
	return path
}

func TestApplyOverrides(t *testing.T) {
	s := loadDefaults(t)
	require.True(t, s.Chain.Adaptive)

	err := applyOverrides(s, &CLI{NoAdaptive: true, Format: "wav", MetricsAddr: ":9200"})
	require.NoError(t, err)
	assert.False(t, s.Chain.Adaptive)
	assert.Equal(t, processor.OutputWAV, s.Format)
	assert.Equal(t, ":9200", s.MetricsAddr)

	assert.Error(t, applyOverrides(s, &CLI{Format: "mp3"}))
}

func TestRunnerOpen(t *testing.T) {
	s := loadDefaults(t)
	s.Chain.MainsHz = 60
	r := &runner{settings: s, simulate: 500}

	src, err := r.open(simulatedInput)
	require.NoError(t, err)
	sim, ok := src.(*sensor.Simulator)
	require.True(t, ok, "simulated input should open the simulator, got %T", src)
	assert.Equal(t, 500, sim.Len())
	assert.Equal(t, 60, sim.Config().MainsHz)

	src, err = r.open(writeTrace(t, 10))
	require.NoError(t, err)
	assert.Equal(t, sensor.FormatCSV, src.Metadata().Format)

	_, err = r.open(filepath.Join(t.TempDir(), "trace.mp3"))
	assert.ErrorIs(t, err, sensor.ErrUnsupportedFormat)
}

func TestConditionPlain(t *testing.T) {
	s := loadDefaults(t)
	collector := metrics.NewCollector()
	r := &runner{settings: s, simulate: 400, logs: true, collector: collector}

	trace := writeTrace(t, 200)
	var out bytes.Buffer
	failed := r.conditionPlain(context.Background(), []string{trace, simulatedInput}, &out)
	require.Zero(t, failed)

	got := out.String()
	assert.Contains(t, got, "trace.csv → trace-conditioned.csv")
	assert.Contains(t, got, "simulated → simulated-conditioned.csv")

	assert.FileExists(t, filepath.Join(filepath.Dir(trace), "trace-conditioned.csv"))
	assert.FileExists(t, filepath.Join(filepath.Dir(trace), "trace-conditioned.log"))
	assert.FileExists(t, "simulated-conditioned.csv")
	assert.FileExists(t, "simulated-conditioned.log")

	families, err := collector.Registry().Gather()
	require.NoError(t, err)
	assert.NotEmpty(t, families, "recorder should have observed samples")

	// Settings are cloned per input, so adaptive tuning never leaks back
	assert.Nil(t, s.Chain.Measurements)
}

func TestConditionPlainCountsFailures(t *testing.T) {
	s := loadDefaults(t)
	r := &runner{settings: s}

	var out bytes.Buffer
	failed := r.conditionPlain(context.Background(), []string{"missing.wav", writeTrace(t, 50)}, &out)
	assert.Equal(t, 1, failed)
	assert.Contains(t, out.String(), "trace-conditioned.csv")
}

func TestAnalysePlain(t *testing.T) {
	s := loadDefaults(t)
	r := &runner{settings: s}

	trace := writeTrace(t, 100)
	var out bytes.Buffer
	failed := r.analysePlain(context.Background(), []string{trace}, &out)
	require.Zero(t, failed)
	assert.Contains(t, out.String(), "trace.csv")
	assert.Contains(t, out.String(), "ADAPTED CHAIN")

	assert.NoFileExists(t, filepath.Join(filepath.Dir(trace), "trace-conditioned.csv"),
		"analysis must not write output")
}

func TestAnalyseRespectsNoAdaptive(t *testing.T) {
	s := loadDefaults(t)
	s.Chain.Adaptive = false
	gain := s.Chain.AmpGain
	r := &runner{settings: s}

	_, m, chain, err := r.analyse(context.Background(), writeTrace(t, 100), nil)
	require.NoError(t, err)
	assert.Equal(t, 100, m.Samples)
	assert.Equal(t, gain, chain.AmpGain)
	assert.Same(t, m, chain.Measurements)
}
