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

// Package dpengine noises gradients and scalar query results with the
// Gaussian mechanism and accounts for the privacy budget they spend.
//
// An Engine is constructed with a fixed privacy budget (ε, δ). Gradients are
// clipped to an L2 norm bound before noising; the bound doubles as the
// release's sensitivity.
package dpengine

import (
	"sync/atomic"

	log "github.com/golang/glog"
	"github.com/google/differential-privacy/privacycore/checks"
	"github.com/google/differential-privacy/privacycore/metrics"
	"github.com/google/differential-privacy/privacycore/noise"
	"github.com/google/differential-privacy/privacycore/rand"
)

// Options contains the options necessary to initialize an Engine.
type Options struct {
	Epsilon     float64           // Privacy parameter ε. Required.
	Delta       float64           // Privacy parameter δ. Required, must be in (0, 1).
	Calibration noise.Calibration // How σ is derived from ε and δ. Defaults to noise.ClassicGaussian.
	// Source of the Gaussian noise. Defaults to rand.NewSecure().
	Rand    *rand.Rand
	Metrics *metrics.Collector // Optional.
}

// Engine is a differential privacy engine with an immutable privacy budget.
// It is safe for concurrent use provided its Rand is.
type Engine struct {
	epsilon     float64
	delta       float64
	calibration noise.Calibration
	rng         *rand.Rand
	metrics     *metrics.Collector
	releases    atomic.Int64
}

// New returns a new Engine.
func New(opt *Options) (*Engine, error) {
	if opt == nil {
		opt = &Options{}
	}
	if err := checks.CheckEpsilonStrict("dpengine.New", opt.Epsilon); err != nil {
		return nil, err
	}
	if err := checks.CheckDeltaStrict("dpengine.New", opt.Delta); err != nil {
		return nil, err
	}
	if _, err := opt.Calibration.Sigma(1, opt.Epsilon, opt.Delta); err != nil {
		return nil, err
	}
	rng := opt.Rand
	if rng == nil {
		rng = rand.NewSecure()
	}
	return &Engine{
		epsilon:     opt.Epsilon,
		delta:       opt.Delta,
		calibration: opt.Calibration,
		rng:         rng,
		metrics:     opt.Metrics,
	}, nil
}

// Epsilon returns the engine's privacy parameter ε.
func (e *Engine) Epsilon() float64 { return e.epsilon }

// Delta returns the engine's privacy parameter δ.
func (e *Engine) Delta() float64 { return e.delta }

// Clip bounds the L2 norm of update by clipNorm. See Clip.
func (e *Engine) Clip(update []float64, clipNorm float64) ([]float64, error) {
	return Clip(update, clipNorm)
}

// NoiseScale returns the standard deviation of the Gaussian noise needed for
// a release with the given sensitivity. A sensitivity of 0 yields 0: a
// constant function has no privacy cost.
func (e *Engine) NoiseScale(sensitivity float64) (float64, error) {
	if err := checks.CheckSensitivity("NoiseScale", sensitivity); err != nil {
		return 0, err
	}
	if sensitivity == 0 {
		log.V(1).Infof("NoiseScale: sensitivity is 0, no noise is added")
	}
	return e.calibration.Sigma(sensitivity, e.epsilon, e.delta)
}

// NoiseGradients clips update to clipNorm and adds independent Gaussian noise
// of scale NoiseScale(clipNorm) to every coordinate. The result has the same
// length as update; update itself is not modified.
func (e *Engine) NoiseGradients(update []float64, clipNorm float64) ([]float64, error) {
	clipped, err := Clip(update, clipNorm)
	if err != nil {
		return nil, err
	}
	sigma, err := e.NoiseScale(clipNorm)
	if err != nil {
		return nil, err
	}
	e.recordRelease(metrics.ReleaseGradients, sigma)
	return noise.AddGaussianVector(clipped, sigma, e.rng), nil
}

// NoiseScalar adds Gaussian noise of scale NoiseScale(sensitivity) to value.
func (e *Engine) NoiseScalar(value, sensitivity float64) (float64, error) {
	if err := checks.CheckVector("NoiseScalar", []float64{value}); err != nil {
		return 0, err
	}
	sigma, err := e.NoiseScale(sensitivity)
	if err != nil {
		return 0, err
	}
	e.recordRelease(metrics.ReleaseScalar, sigma)
	return noise.AddGaussian(value, sigma, e.rng), nil
}

// BudgetSpent returns the cumulative ε spent by numReleases releases under
// composition rule c.
func (e *Engine) BudgetSpent(numReleases int, c Composition) (float64, error) {
	return budgetSpent(e.epsilon, e.delta, numReleases, c)
}

// Releases returns the number of noised releases this engine has made.
func (e *Engine) Releases() int {
	return int(e.releases.Load())
}

// Spent returns BudgetSpent for the releases this engine has made so far.
func (e *Engine) Spent(c Composition) (float64, error) {
	return e.BudgetSpent(e.Releases(), c)
}

func (e *Engine) recordRelease(kind string, sigma float64) {
	n := e.releases.Add(1)
	e.metrics.ObserveRelease(kind, sigma)
	log.V(1).Infof("dpengine: %s release %d with sigma %f (epsilon %f, delta %e)", kind, n, sigma, e.epsilon, e.delta)
}
