//
// Copyright 2020 Google LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.
//

// Package metrics exports Prometheus metrics for privacy releases and
// federated aggregation rounds.
package metrics

import (
	"fmt"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "privacycore"

// Release kinds reported by ObserveRelease.
const (
	ReleaseGradients = "gradients"
	ReleaseScalar    = "scalar"
)

// Collector records privacy-core metrics. A nil *Collector is valid and
// records nothing.
type Collector struct {
	roundsTotal   *prometheus.CounterVec
	roundUpdates  prometheus.Histogram
	releasesTotal *prometheus.CounterVec
	noiseSigma    prometheus.Gauge
}

// NewCollector creates a Collector and registers its metrics with reg.
func NewCollector(reg prometheus.Registerer) (*Collector, error) {
	c := &Collector{
		roundsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rounds_total",
			Help:      "Number of completed aggregation rounds.",
		}, []string{"secure"}),
		roundUpdates: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "round_updates",
			Help:      "Number of client updates aggregated per round.",
			Buckets:   prometheus.ExponentialBuckets(1, 2, 12),
		}),
		releasesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "releases_total",
			Help:      "Number of differentially private releases.",
		}, []string{"kind"}),
		noiseSigma: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "noise_sigma",
			Help:      "Standard deviation of the Gaussian noise of the latest release.",
		}),
	}
	for _, m := range []prometheus.Collector{c.roundsTotal, c.roundUpdates, c.releasesTotal, c.noiseSigma} {
		if err := reg.Register(m); err != nil {
			return nil, fmt.Errorf("couldn't register metric: %w", err)
		}
	}
	return c, nil
}

// ObserveRound records a completed aggregation round over numUpdates updates.
func (c *Collector) ObserveRound(numUpdates int, secure bool) {
	if c == nil {
		return
	}
	c.roundsTotal.WithLabelValues(strconv.FormatBool(secure)).Inc()
	c.roundUpdates.Observe(float64(numUpdates))
}

// ObserveRelease records a noised release of the given kind and noise scale.
func (c *Collector) ObserveRelease(kind string, sigma float64) {
	if c == nil {
		return
	}
	c.releasesTotal.WithLabelValues(kind).Inc()
	c.noiseSigma.Set(sigma)
}
