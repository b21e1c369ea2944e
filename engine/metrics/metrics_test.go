package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNilRegistryMethodsAreNoops(t *testing.T) {
	var m *Registry
	assert.NotPanics(t, func() {
		m.RecordBar("exec", time.Millisecond)
		m.RecordActionEval("entry_long", true)
		m.RecordOrderSent("long", false)
		m.RecordOrderError("REJECTED")
		m.SetOpenPositions(1)
		m.SetEquity(10000)
		m.RecordCircuitTripped()
	})
}

func TestRecordBarIncrementsCounterAndHistogram(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)
	m.RecordBar("exec", 5*time.Millisecond)

	metric := &dto.Metric{}
	c, err := m.BarProcessed.GetMetricWithLabelValues("exec")
	require.NoError(t, err)
	require.NoError(t, c.Write(metric))
	assert.Equal(t, 1.0, metric.GetCounter().GetValue())
}

func TestRecordOrderSentLabelsBySideAndReduceOnly(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)
	m.RecordOrderSent("long", false)
	m.RecordOrderSent("long", true)

	metric := &dto.Metric{}
	c, err := m.OrdersSent.GetMetricWithLabelValues("long", "true")
	require.NoError(t, err)
	require.NoError(t, c.Write(metric))
	assert.Equal(t, 1.0, metric.GetCounter().GetValue())
}
