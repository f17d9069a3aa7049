package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestMetrics_Record(t *testing.T) {
	m := New("stock_test")

	m.RecordMovement("receive")
	m.RecordMovement("receive")
	m.RecordRejection("NEGATIVE_STOCK")
	m.RecordTransition("Accepted")
	m.RecordEvent("TransferAccepted", "ok")

	assert.Equal(t, 2.0, testutil.ToFloat64(m.StockMovements.WithLabelValues("receive")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.StockRejections.WithLabelValues("NEGATIVE_STOCK")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.TransferTransitions.WithLabelValues("Accepted")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.EventsPublished.WithLabelValues("TransferAccepted", "ok")))
	assert.NotNil(t, m.Handler())
}

func TestMetrics_NilIsNoop(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.RecordMovement("receive")
		m.RecordRejection("x")
		m.RecordTransition("Accepted")
		m.RecordEvent("e", "ok")
	})
}
