package metrics

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestObserveRun(t *testing.T) {
	r := NewRecorder(prometheus.NewRegistry())

	r.ObserveRun("monte_carlo", 1000, 20*time.Millisecond, nil)
	r.ObserveRun("monte_carlo", 500, 10*time.Millisecond, nil)
	r.ObserveRun("quadrature", 0, time.Millisecond, fmt.Errorf("boom"))

	assert.Equal(t, 2.0, testutil.ToFloat64(r.RunsTotal.WithLabelValues("monte_carlo", OutcomeSuccess)))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.RunsTotal.WithLabelValues("quadrature", OutcomeError)))
	assert.Equal(t, 1500.0, testutil.ToFloat64(r.EvaluationsTotal.WithLabelValues("monte_carlo")))
	assert.Equal(t, 2, testutil.CollectAndCount(r.Duration))
}

func TestNilRecorderIsNoop(t *testing.T) {
	var r *Recorder
	assert.NotPanics(t, func() { r.ObserveRun("quadrature", 10, time.Second, nil) })
}

func TestDefaultIsSingleton(t *testing.T) {
	assert.Same(t, Default(), Default())
}

func TestWriteTextfile(t *testing.T) {
	reg := prometheus.NewRegistry()
	r := NewRecorder(reg)
	r.ObserveRun("quadrature", 225, time.Millisecond, nil)

	path := filepath.Join(t.TempDir(), "gointegral.prom")
	require.NoError(t, WriteTextfile(path, reg))

	content, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(content), `integration_evaluations_total{method="quadrature"} 225`)
	assert.Contains(t, string(content), `integration_runs_total{method="quadrature",outcome="success"} 1`)
}
