package metrics

import (
	"testing"

	dto "github.com/prometheus/client_model/go"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func counterValue(t *testing.T, c prometheus.Counter) float64 {
	t.Helper()
	var m dto.Metric
	require.NoError(t, c.Write(&m))
	return m.GetCounter().GetValue()
}

func TestNewNopCountersIsUsable(t *testing.T) {
	c := NewNopCounters()
	require.NotNil(t, c)

	c.AudioFramesWritten.Add(3)
	c.RendezvousReconnects.WithLabelValues("framebuffer").Inc()

	assert.Equal(t, float64(3), counterValue(t, c.AudioFramesWritten))
}

func TestNewCountersRegistersAgainstGivenRegistry(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCounters(reg)
	c.FbFramesPublished.Inc()

	families, err := reg.Gather()
	require.NoError(t, err)
	assert.NotEmpty(t, families)
}

func TestNewCountersToleratesDuplicateRegistration(t *testing.T) {
	reg := prometheus.NewRegistry()
	NewCounters(reg)
	assert.NotPanics(t, func() { NewCounters(reg) })
}
