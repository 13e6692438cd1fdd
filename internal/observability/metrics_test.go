package observability

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestMetricsCounters(t *testing.T) {
	m := NewMetrics(prometheus.NewRegistry())

	m.RecordTransition("ASSIGN", "ok")
	m.RecordTransition("ASSIGN", "ok")
	m.RecordTransition("ASSIGN", "CONFLICT")
	m.RecordBalance(3, 1)
	m.RecordRequest("/complaints", "POST", 201, 5*time.Millisecond)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.transitions.WithLabelValues("ASSIGN", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.transitions.WithLabelValues("ASSIGN", "CONFLICT")))
	assert.Equal(t, 3.0, testutil.ToFloat64(m.balanceMoves))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.balanceSkips))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.requests.WithLabelValues("/complaints", "POST", "201")))
}

func TestNilMetricsIsSafe(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.RecordTransition("CREATE", "ok")
		m.RecordAssignment("auto")
		m.RecordBalance(1, 0)
		m.RecordEmitFailure("CREATED")
	})
}
