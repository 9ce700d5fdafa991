package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestMetrics_RecordSettlement(t *testing.T) {
	m := NewWithRegisterer(prometheus.NewRegistry())

	m.RecordSettlement(true, 15_000_000)
	m.RecordSettlement(false, 99)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.Settlements.WithLabelValues("true")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Settlements.WithLabelValues("false")))
	assert.Equal(t, 15_000_000.0, testutil.ToFloat64(m.CreditedGwei), "skipped settlements credit nothing")
}

func TestMetrics_RecordWithdrawal(t *testing.T) {
	m := NewWithRegisterer(prometheus.NewRegistry())

	m.RecordWithdrawal("paid", 42)
	m.RecordWithdrawal("empty", 0)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.Withdrawals.WithLabelValues("paid")))
	assert.Equal(t, 42.0, testutil.ToFloat64(m.WithdrawnGwei))
}

func TestMetrics_SeparateRegistries(t *testing.T) {
	assert.NotPanics(t, func() {
		a := NewWithRegisterer(prometheus.NewRegistry())
		b := NewWithRegisterer(prometheus.NewRegistry())
		a.ObserveOperation("admit", time.Now())
		b.IncrementVote()
	})
}
