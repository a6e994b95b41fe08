package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/jose-valero/nexus7-bot/internal/app/playback"
)

const namespace = "nexus7"

// Metrics agrupa los collectors del bot.
type Metrics struct {
	fetchDuration  *prometheus.HistogramVec
	cacheHits      *prometheus.CounterVec
	interactions   *prometheus.CounterVec
	playbackEvents *prometheus.CounterVec

	reg prometheus.Registerer
}

// MustNew registra todo en reg (nil = registry global). Paniquea si hay duplicados.
func MustNew(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	m := &Metrics{
		fetchDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "upstream",
			Name:      "fetch_duration_seconds",
			Help:      "Latency of upstream API calls.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"source", "status"}),
		cacheHits: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "upstream",
			Name:      "cache_hits_total",
			Help:      "Upstream lookups served from cache.",
		}, []string{"source"}),
		interactions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "discord",
			Name:      "interactions_total",
			Help:      "Handled interactions by kind and result.",
		}, []string{"kind", "result"}),
		playbackEvents: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "playback",
			Name:      "events_total",
			Help:      "Playback state machine events.",
		}, []string{"kind"}),
		reg: reg,
	}
	reg.MustRegister(m.fetchDuration, m.cacheHits, m.interactions, m.playbackEvents)
	return m
}

func (m *Metrics) ObserveFetch(source string, start time.Time, err error) {
	status := "ok"
	if err != nil {
		status = "error"
	}
	m.fetchDuration.WithLabelValues(source, status).Observe(time.Since(start).Seconds())
}

func (m *Metrics) CacheHit(source string) { m.cacheHits.WithLabelValues(source).Inc() }

func (m *Metrics) Interaction(kind, result string) {
	m.interactions.WithLabelValues(kind, result).Inc()
}

// PlaybackEvent implementa playback.Observer.
func (m *Metrics) PlaybackEvent(ev playback.Event) {
	m.playbackEvents.WithLabelValues(string(ev.Kind)).Inc()
}

// Gauge registra un gauge calculado al momento del scrape (sesiones vivas, guilds sonando).
func (m *Metrics) Gauge(subsystem, name, help string, fn func() float64) {
	m.reg.MustRegister(prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      name,
		Help:      help,
	}, fn))
}
