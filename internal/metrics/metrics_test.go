package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestCollectorsAreRegisteredOnce(t *testing.T) {
	RegisterMetrics()
	RegisterMetrics()

	before := testutil.ToFloat64(TaskOutcomes().WithLabelValues("completed"))
	TaskOutcomes().WithLabelValues("completed").Inc()
	assert.Equal(t, before+1, testutil.ToFloat64(TaskOutcomes().WithLabelValues("completed")))

	InFlightTasks().Inc()
	InFlightTasks().Dec()
	assert.Equal(t, 0.0, testutil.ToFloat64(InFlightTasks()))
}
