package cp

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetrics_Fixpoint(t *testing.T) {
	reg := prometheus.NewRegistry()
	mx, err := NewMetrics("cp", reg)
	require.NoError(t, err)

	m, _, _ := geqModel(t)
	_, err = propagate(t, m, WithMetrics(mx))
	require.NoError(t, err)

	assert.Equal(t, 1.0, testutil.ToFloat64(mx.fixpoints))
	assert.Equal(t, 2.0, testutil.ToFloat64(mx.propagations.WithLabelValues("full")))
	assert.Equal(t, 1.0, testutil.ToFloat64(mx.propagations.WithLabelValues("fine")))
	assert.Equal(t, 2.0, testutil.ToFloat64(mx.events.WithLabelValues("IncLow")))
	assert.Equal(t, 2.0, testutil.ToFloat64(mx.events.WithLabelValues("Instantiate")))
	assert.Equal(t, 2.0, testutil.ToFloat64(mx.passivations))
	assert.Equal(t, 0.0, testutil.ToFloat64(mx.contradictions))

	n, err := testutil.GatherAndCount(reg, "cp_propagation_duration_seconds")
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestMetrics_Contradiction(t *testing.T) {
	mx, err := NewMetrics("cp", nil)
	require.NoError(t, err)

	m := NewModel("t")
	x, _ := m.NewIntVar("x", 0, 1)
	y, _ := m.NewIntVar("y", 0, 1)
	c, err := GreaterOrEqual(x, y, 5)
	mustPost(t, m, c, err)
	_, err = propagate(t, m, WithMetrics(mx))
	require.True(t, IsContradiction(err))

	assert.Equal(t, 1.0, testutil.ToFloat64(mx.contradictions))
	assert.Equal(t, 0.0, testutil.ToFloat64(mx.fixpoints))
}

func TestMetrics_DoubleRegistration(t *testing.T) {
	reg := prometheus.NewRegistry()
	_, err := NewMetrics("cp", reg)
	require.NoError(t, err)
	_, err = NewMetrics("cp", reg)
	assert.Error(t, err)

	_, err = NewMetrics("other", reg)
	assert.NoError(t, err)
}

func TestMetrics_NilIsSilent(t *testing.T) {
	var mx *Metrics
	assert.NotPanics(t, func() {
		mx.propagation(true, false, 0)
		mx.event(EventIncLow)
		mx.contradiction()
		mx.fixpoint()
		mx.passivation()
	})
}
