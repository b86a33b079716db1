package pubcards

import (
	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const metricsNamespace = "pubcards"

// appMetrics are the counters an App keeps on its own registry, so several
// Apps (and tests) can live in one process.
type appMetrics struct {
	registry *prometheus.Registry
	cards    *prometheus.CounterVec
}

func newAppMetrics() *appMetrics {
	reg := prometheus.NewRegistry()
	return &appMetrics{
		registry: reg,
		cards: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Name:      "twitter_cards_total",
				Help:      "Pages rendered, by Twitter Card type (none when no card was emitted)",
			},
			[]string{"card"},
		),
	}
}

func (m *appMetrics) observeCard(card string) {
	if m == nil {
		return
	}
	if card == "" {
		card = "none"
	}
	m.cards.WithLabelValues(card).Inc()
}

// middleware records request counts and latencies.
func (m *appMetrics) middleware() echo.MiddlewareFunc {
	return echoprometheus.NewMiddlewareWithConfig(echoprometheus.MiddlewareConfig{
		Namespace:  metricsNamespace,
		Subsystem:  "http",
		Registerer: m.registry,
		Skipper: func(c echo.Context) bool {
			return c.Path() == "/metrics"
		},
	})
}

func (m *appMetrics) handler() echo.HandlerFunc {
	return echoprometheus.NewHandlerWithConfig(echoprometheus.HandlerConfig{
		Gatherer: m.registry,
	})
}
