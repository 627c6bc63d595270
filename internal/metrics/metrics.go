package metrics

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"backend-wellnesshub/internal/activity"
)

// Collector counts tracker events. It implements activity.Observer.
type Collector struct {
	registry *prometheus.Registry
	samples  *prometheus.CounterVec
	syncs    *prometheus.CounterVec
}

func NewCollector() *Collector {
	c := &Collector{
		registry: prometheus.NewRegistry(),
		samples: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "wellness",
				Subsystem: "tracking",
				Name:      "samples_total",
				Help:      "Position samples processed, by filter verdict.",
			},
			[]string{"verdict"},
		),
		syncs: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "wellness",
				Subsystem: "tracking",
				Name:      "syncs_total",
				Help:      "Remote sync calls, by kind and result.",
			},
			[]string{"kind", "result"},
		),
	}
	c.registry.MustRegister(c.samples, c.syncs)
	return c
}

func (c *Collector) SampleFiltered(v activity.Verdict) {
	c.samples.WithLabelValues(v.String()).Inc()
}

func (c *Collector) SyncFinished(kind string, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	c.syncs.WithLabelValues(kind, result).Inc()
}

func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

// Handler serves the collector's registry in the Prometheus text format.
func (c *Collector) Handler() fiber.Handler {
	return adaptor.HTTPHandler(promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{}))
}
