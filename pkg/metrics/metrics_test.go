package metrics

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGaugeRoundTrip(t *testing.T) {
	require.NoError(t, InitMetrics(t.TempDir()))
	t.Cleanup(func() {
		_ = Close()
		storage = nil
	})

	now := time.Now().Unix()
	SetGauge("monitor_check_succeeded", 7)

	points, err := Select("monitor_check_succeeded", now-60, now+60)
	require.NoError(t, err)
	require.NotEmpty(t, points)
	assert.Equal(t, 7.0, points[len(points)-1].Value)
}

func TestGaugeNoopBeforeInit(t *testing.T) {
	storage = nil
	SetGauge("anything", 1)

	points, err := Select("anything", 0, time.Now().Unix())
	assert.NoError(t, err)
	assert.Nil(t, points)
}
