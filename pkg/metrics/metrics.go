// Пакет metrics собирает метрики Prometheus для HTTP-слоя, кэша и перестановок
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector хранит метрики в собственном registry, поэтому в тестах можно создавать
// сколько угодно коллекторов без конфликтов регистрации
type Collector struct {
	registry *prometheus.Registry

	HTTPRequests *prometheus.CounterVec
	HTTPDuration *prometheus.HistogramVec
	Reorders     *prometheus.CounterVec
	ReorderItems *prometheus.CounterVec
	CacheHits    prometheus.Counter
	CacheMisses  prometheus.Counter
}

// NewCollector создаёт коллектор с заданным namespace
func NewCollector(namespace string) *Collector {
	c := &Collector{
		registry: prometheus.NewRegistry(),
		HTTPRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests",
		}, []string{"method", "route", "status"}),
		HTTPDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request duration in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
		Reorders: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "reorders_total",
			Help:      "Total number of batch reorder requests by collection and result",
		}, []string{"collection", "result"}),
		ReorderItems: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "reorder_items_total",
			Help:      "Total number of items whose order was reassigned",
		}, []string{"collection"}),
		CacheHits: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_hits_total",
			Help:      "Total number of cache hits",
		}),
		CacheMisses: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_misses_total",
			Help:      "Total number of cache misses",
		}),
	}
	c.registry.MustRegister(c.HTTPRequests, c.HTTPDuration, c.Reorders, c.ReorderItems, c.CacheHits, c.CacheMisses)
	return c
}

// ObserveHTTP учитывает завершённый HTTP-запрос
func (c *Collector) ObserveHTTP(method, route string, status int, d time.Duration) {
	c.HTTPRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	c.HTTPDuration.WithLabelValues(method, route).Observe(d.Seconds())
}

// ObserveReorder учитывает запрос на перестановку; n: число переставленных записей
func (c *Collector) ObserveReorder(collection string, n int, err error) {
	if err != nil {
		c.Reorders.WithLabelValues(collection, "error").Inc()
		return
	}
	c.Reorders.WithLabelValues(collection, "ok").Inc()
	c.ReorderItems.WithLabelValues(collection).Add(float64(n))
}

// CacheHit учитывает попадание в кэш
func (c *Collector) CacheHit() { c.CacheHits.Inc() }

// CacheMiss учитывает промах кэша
func (c *Collector) CacheMiss() { c.CacheMisses.Inc() }

// Handler отдаёт метрики в формате Prometheus
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}
