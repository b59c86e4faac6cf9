package metrics

import "github.com/prometheus/client_golang/prometheus"

// DBPoolStatFunc reports pool sizes. It keeps this package free of any
// driver import.
type DBPoolStatFunc func() (total, idle, acquired int32)

// poolGauge describes one pool figure and picks it out of a stat reading.
type poolGauge struct {
	desc *prometheus.Desc
	pick func(total, idle, acquired int32) int32
}

// dbPoolCollector reads the pool on every scrape rather than caching gauges.
type dbPoolCollector struct {
	stat   DBPoolStatFunc
	gauges []poolGauge
}

// NewDBPoolCollector exposes the postgres document store's pool as gauges.
func NewDBPoolCollector(stat DBPoolStatFunc) prometheus.Collector {
	labels := prometheus.Labels{"backend": "postgres"}
	gauge := func(name, help string, pick func(total, idle, acquired int32) int32) poolGauge {
		return poolGauge{
			desc: prometheus.NewDesc("accolade_db_pool_"+name, help, nil, labels),
			pick: pick,
		}
	}
	return &dbPoolCollector{
		stat: stat,
		gauges: []poolGauge{
			gauge("total_conns", "Connections currently open in the store pool.",
				func(t, _, _ int32) int32 { return t }),
			gauge("idle_conns", "Open store connections waiting for work.",
				func(_, i, _ int32) int32 { return i }),
			gauge("acquired_conns", "Store connections checked out by a request.",
				func(_, _, a int32) int32 { return a }),
		},
	}
}

func (c *dbPoolCollector) Describe(ch chan<- *prometheus.Desc) {
	for _, g := range c.gauges {
		ch <- g.desc
	}
}

func (c *dbPoolCollector) Collect(ch chan<- prometheus.Metric) {
	total, idle, acquired := c.stat()
	for _, g := range c.gauges {
		ch <- prometheus.MustNewConstMetric(g.desc, prometheus.GaugeValue, float64(g.pick(total, idle, acquired)))
	}
}
