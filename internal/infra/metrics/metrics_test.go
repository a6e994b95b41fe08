package metrics

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jose-valero/nexus7-bot/internal/app/playback"
)

func TestCountersAndGauges(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := MustNew(reg)

	m.CacheHit("books")
	m.CacheHit("books")
	m.Interaction("component", "expired")
	m.PlaybackEvent(playback.Event{Kind: playback.EventStarted})
	m.ObserveFetch("weather", time.Now(), errors.New("boom"))
	m.Gauge("session", "active", "Live interactive sessions.", func() float64 { return 3 })

	assert.Equal(t, 2.0, testutil.ToFloat64(m.cacheHits.WithLabelValues("books")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.interactions.WithLabelValues("component", "expired")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.playbackEvents.WithLabelValues("started")))

	n, err := testutil.GatherAndCount(reg, "nexus7_upstream_fetch_duration_seconds", "nexus7_session_active")
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}

func TestDoubleRegistrationPanics(t *testing.T) {
	reg := prometheus.NewRegistry()
	MustNew(reg)
	assert.Panics(t, func() { MustNew(reg) })
}
