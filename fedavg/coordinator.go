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

// Package fedavg coordinates federated averaging rounds: weighted
// aggregation of client updates, aggregation with an added differential
// privacy layer, and selection of the clients taking part in a round.
//
// The coordinator does not talk to clients. It receives a complete batch of
// already-collected update vectors per round.
package fedavg

import (
	"fmt"
	"sort"
	"sync"

	log "github.com/golang/glog"
	"github.com/google/differential-privacy/privacycore/checks"
	"github.com/google/differential-privacy/privacycore/dpengine"
	"github.com/google/differential-privacy/privacycore/metrics"
	"github.com/google/differential-privacy/privacycore/noise"
	"github.com/google/differential-privacy/privacycore/rand"
	"gonum.org/v1/gonum/floats"
)

// Default privacy parameters of SecureAggregate.
const (
	DefaultSecureEpsilon = 1.0
	DefaultSecureDelta   = 1e-5
)

// Options contains the options necessary to initialize a Coordinator.
type Options struct {
	// Expected fleet size. Informational only.
	NumClients int
	// Privacy parameters of the noise added by SecureAggregate. Default to
	// DefaultSecureEpsilon and DefaultSecureDelta.
	SecureEpsilon, SecureDelta float64
	Calibration                noise.Calibration // Calibration of the secure aggregation noise. Defaults to classic.
	// Minimum number of updates per round. Defaults to 1.
	MinUpdates int
	// Source of randomness for client sampling and secure aggregation noise.
	// Defaults to rand.NewSecure().
	Rand    *rand.Rand
	Metrics *metrics.Collector // Optional.
}

// Coordinator runs federated averaging rounds. Its only state is the round
// number, which starts at 0 and increases by exactly one per successful
// Aggregate or SecureAggregate call. A Coordinator is safe for concurrent use;
// aggregations are serialized.
type Coordinator struct {
	numClients int
	minUpdates int
	secure     *dpengine.Engine
	rng        *rand.Rand
	metrics    *metrics.Collector

	mu    sync.Mutex
	round int
}

// NewCoordinator returns a new Coordinator.
func NewCoordinator(opt *Options) (*Coordinator, error) {
	if opt == nil {
		opt = &Options{}
	}
	if opt.NumClients < 0 {
		return nil, fmt.Errorf("NewCoordinator: NumClients is %d, must be nonnegative: %w", opt.NumClients, checks.ErrInvalidParameter)
	}
	eps, del := opt.SecureEpsilon, opt.SecureDelta
	if eps == 0 {
		eps = DefaultSecureEpsilon
	}
	if del == 0 {
		del = DefaultSecureDelta
	}
	minUpdates := opt.MinUpdates
	if minUpdates == 0 {
		minUpdates = 1
	}
	if minUpdates < 0 {
		return nil, fmt.Errorf("NewCoordinator: MinUpdates is %d, must be positive: %w", minUpdates, checks.ErrInvalidParameter)
	}
	rng := opt.Rand
	if rng == nil {
		rng = rand.NewSecure()
	}
	secure, err := dpengine.New(&dpengine.Options{
		Epsilon:     eps,
		Delta:       del,
		Calibration: opt.Calibration,
		Rand:        rng,
		Metrics:     opt.Metrics,
	})
	if err != nil {
		return nil, fmt.Errorf("NewCoordinator: couldn't create secure aggregation engine: %w", err)
	}
	return &Coordinator{
		numClients: opt.NumClients,
		minUpdates: minUpdates,
		secure:     secure,
		rng:        rng,
		metrics:    opt.Metrics,
	}, nil
}

// NumClients returns the fleet size hint the coordinator was created with.
func (c *Coordinator) NumClients() int { return c.numClients }

// Round returns the number of completed aggregation rounds.
func (c *Coordinator) Round() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.round
}

// Aggregate returns the weighted average of updates and advances the round.
//
// weights holds one nonnegative weight per update and need not be
// normalized; nil weights average uniformly. All updates must have the same
// length. On error the round is not advanced.
func (c *Coordinator) Aggregate(updates [][]float64, weights []float64) ([]float64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	agg, err := c.weightedAverage("Aggregate", updates, weights)
	if err != nil {
		return nil, err
	}
	c.advance(len(updates), false)
	return agg, nil
}

// SecureAggregate computes the same weighted average as Aggregate, then
// clips it to the median L2 norm of the individual updates and adds Gaussian
// noise calibrated to the coordinator's secure ε and δ. The round advances
// once. If the median norm is 0 the aggregate is returned without noise.
func (c *Coordinator) SecureAggregate(updates [][]float64, weights []float64) ([]float64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	agg, err := c.weightedAverage("SecureAggregate", updates, weights)
	if err != nil {
		return nil, err
	}
	clipNorm := medianNorm(updates)
	if clipNorm > 0 {
		agg, err = c.secure.NoiseGradients(agg, clipNorm)
		if err != nil {
			return nil, fmt.Errorf("SecureAggregate: %w", err)
		}
	} else {
		log.Warningf("SecureAggregate: median update norm is 0 in round %d, returning the aggregate without noise", c.round)
	}
	c.advance(len(updates), true)
	return agg, nil
}

// SecureBudget returns the privacy parameters of SecureAggregate's noise.
func (c *Coordinator) SecureBudget() (epsilon, delta float64) {
	return c.secure.Epsilon(), c.secure.Delta()
}

// weightedAverage validates a batch and returns its weighted average. It
// must be called with c.mu held.
func (c *Coordinator) weightedAverage(label string, updates [][]float64, weights []float64) ([]float64, error) {
	if err := checks.CheckSameLength(label, updates); err != nil {
		return nil, err
	}
	if len(updates) < c.minUpdates {
		return nil, fmt.Errorf("%s: got %d updates, need at least %d: %w", label, len(updates), c.minUpdates, checks.ErrInvalidParameter)
	}
	for i, u := range updates {
		if err := checks.CheckVector(fmt.Sprintf("%s (update %d)", label, i), u); err != nil {
			return nil, err
		}
	}
	normalized := make([]float64, len(updates))
	if weights == nil {
		for i := range normalized {
			normalized[i] = 1 / float64(len(updates))
		}
	} else {
		if err := checks.CheckWeights(label, weights, len(updates)); err != nil {
			return nil, err
		}
		copy(normalized, weights)
		floats.Scale(1/floats.Sum(weights), normalized)
	}
	agg := make([]float64, len(updates[0]))
	for i, u := range updates {
		floats.AddScaled(agg, normalized[i], u)
	}
	return agg, nil
}

// advance increments the round. It must be called with c.mu held.
func (c *Coordinator) advance(numUpdates int, secure bool) {
	c.round++
	c.metrics.ObserveRound(numUpdates, secure)
	log.V(1).Infof("fedavg: completed round %d with %d updates (secure %t)", c.round, numUpdates, secure)
}

// medianNorm returns the median of the L2 norms of updates, averaging the
// two middle values for an even count.
func medianNorm(updates [][]float64) float64 {
	norms := make([]float64, len(updates))
	for i, u := range updates {
		norms[i] = dpengine.L2Norm(u)
	}
	sort.Float64s(norms)
	mid := len(norms) / 2
	if len(norms)%2 == 1 {
		return norms[mid]
	}
	return (norms[mid-1] + norms[mid]) / 2
}
