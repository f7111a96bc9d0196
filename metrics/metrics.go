// Copyright 2015 Google Inc. All rights reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package metrics exports the store statistics and the query timings as
// Prometheus metrics.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	exoerr "github.com/google/exograph/errors"
	"github.com/google/exograph/sparql/semantic"
	"github.com/google/exograph/storage"
)

const namespace = "exograph"

// StatisticsSource is the part of a store the collector reads.
type StatisticsSource interface {
	Statistics() storage.Statistics
}

// Collector reads the statistics of a store on every scrape and records the
// queries it observes. It implements prometheus.Collector and the engine
// observer interface.
type Collector struct {
	src StatisticsSource

	triples      *prometheus.Desc
	terms        *prometheus.Desc
	indexEntries *prometheus.Desc
	indexKeys    *prometheus.Desc
	pending      *prometheus.Desc
	cacheLen     *prometheus.Desc
	cacheHits    *prometheus.Desc
	cacheMisses  *prometheus.Desc
	latency      *prometheus.Desc

	queries  *prometheus.HistogramVec
	failures *prometheus.CounterVec
}

// New returns a collector for the store.
func New(src StatisticsSource) *Collector {
	return &Collector{
		src: src,
		triples: prometheus.NewDesc(prometheus.BuildFQName(namespace, "store", "triples"),
			"Number of committed triples.", nil, nil),
		terms: prometheus.NewDesc(prometheus.BuildFQName(namespace, "store", "distinct_terms"),
			"Number of distinct terms per triple position.", []string{"position"}, nil),
		indexEntries: prometheus.NewDesc(prometheus.BuildFQName(namespace, "index", "entries"),
			"Number of leaf entries of an index.", []string{"index"}, nil),
		indexKeys: prometheus.NewDesc(prometheus.BuildFQName(namespace, "index", "keys"),
			"Number of first level keys of an index.", []string{"index"}, nil),
		pending: prometheus.NewDesc(prometheus.BuildFQName(namespace, "store", "pending_triples"),
			"Number of triples buffered by the open batch.", nil, nil),
		cacheLen: prometheus.NewDesc(prometheus.BuildFQName(namespace, "cache", "entries"),
			"Number of cached pattern results.", nil, nil),
		cacheHits: prometheus.NewDesc(prometheus.BuildFQName(namespace, "cache", "hits_total"),
			"Number of pattern queries served from the cache.", nil, nil),
		cacheMisses: prometheus.NewDesc(prometheus.BuildFQName(namespace, "cache", "misses_total"),
			"Number of pattern queries evaluated against the indexes.", nil, nil),
		latency: prometheus.NewDesc(prometheus.BuildFQName(namespace, "store", "query_latency_seconds"),
			"Exponential moving average of the pattern query latency.", nil, nil),
		queries: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "engine",
			Name:      "query_duration_seconds",
			Help:      "Evaluation time of the queries by form.",
			Buckets:   prometheus.ExponentialBuckets(0.0005, 4, 8),
		}, []string{"form"}),
		failures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "engine",
			Name:      "query_failures_total",
			Help:      "Number of failed queries by form and error code.",
		}, []string{"form", "code"}),
	}
}

// Describe implements prometheus.Collector.
func (c *Collector) Describe(ch chan<- *prometheus.Desc) {
	for _, d := range []*prometheus.Desc{
		c.triples, c.terms, c.indexEntries, c.indexKeys, c.pending,
		c.cacheLen, c.cacheHits, c.cacheMisses, c.latency,
	} {
		ch <- d
	}
	c.queries.Describe(ch)
	c.failures.Describe(ch)
}

// Collect implements prometheus.Collector.
func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	st := c.src.Statistics()
	ch <- prometheus.MustNewConstMetric(c.triples, prometheus.GaugeValue, float64(st.Triples))
	ch <- prometheus.MustNewConstMetric(c.terms, prometheus.GaugeValue, float64(st.Subjects), "subject")
	ch <- prometheus.MustNewConstMetric(c.terms, prometheus.GaugeValue, float64(st.Predicates), "predicate")
	ch <- prometheus.MustNewConstMetric(c.terms, prometheus.GaugeValue, float64(st.Objects), "object")
	for name, ix := range st.Indexes {
		ch <- prometheus.MustNewConstMetric(c.indexEntries, prometheus.GaugeValue, float64(ix.Entries), name)
		ch <- prometheus.MustNewConstMetric(c.indexKeys, prometheus.GaugeValue, float64(ix.Keys), name)
	}
	ch <- prometheus.MustNewConstMetric(c.pending, prometheus.GaugeValue, float64(st.Pending))
	ch <- prometheus.MustNewConstMetric(c.cacheLen, prometheus.GaugeValue, float64(st.Cache.Len))
	ch <- prometheus.MustNewConstMetric(c.cacheHits, prometheus.CounterValue, float64(st.Cache.Hits))
	ch <- prometheus.MustNewConstMetric(c.cacheMisses, prometheus.CounterValue, float64(st.Cache.Misses))
	ch <- prometheus.MustNewConstMetric(c.latency, prometheus.GaugeValue, st.Cache.AverageLatency.Seconds())
	c.queries.Collect(ch)
	c.failures.Collect(ch)
}

// ObserveQuery records the evaluation of a query.
func (c *Collector) ObserveQuery(form semantic.Form, d time.Duration, err error) {
	c.queries.WithLabelValues(form.String()).Observe(d.Seconds())
	if err != nil {
		code := string(exoerr.CodeOf(err))
		if code == "" {
			code = "unknown"
		}
		c.failures.WithLabelValues(form.String(), code).Inc()
	}
}
