package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestObserveMessage(t *testing.T) {
	m := New(prometheus.NewRegistry())

	m.ObserveMessage("Lv01-BLJ", 200, 10*time.Millisecond)
	m.ObserveMessage("Lv01-BLJ", 501, 10*time.Millisecond)
	m.ObserveMessage("Lv01-BLJ", 501, 10*time.Millisecond)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.Messages.WithLabelValues("Lv01-BLJ", "2xx")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.Messages.WithLabelValues("Lv01-BLJ", "5xx")))
}

func TestNilMetricsIsSafe(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.ObserveMessage("x", 400, time.Second)
		m.AddGroupsDropped(3)
		m.IncrementSyncFailures()
		m.IncrementDuplicates()
	})
}

func TestAddGroupsDroppedIgnoresZero(t *testing.T) {
	m := New(prometheus.NewRegistry())
	m.AddGroupsDropped(0)
	m.AddGroupsDropped(2)
	assert.Equal(t, 2.0, testutil.ToFloat64(m.GroupsDropped))
}
