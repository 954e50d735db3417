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

// Package noise calibrates and adds Gaussian noise for (ε,δ)-differential
// privacy.
package noise

import (
	"fmt"

	log "github.com/golang/glog"
	"github.com/google/differential-privacy/privacycore/checks"
	"github.com/google/differential-privacy/privacycore/rand"
)

// Calibration is an enum type. Its values are the supported ways of deriving
// the Gaussian noise standard deviation from sensitivity, ε and δ.
type Calibration int

// Calibrations used to achieve Differential Privacy with Gaussian noise.
const (
	// ClassicGaussian uses σ = Δ·sqrt(2·ln(1.25/δ))/ε.
	ClassicGaussian Calibration = iota
	// AnalyticGaussian uses the smallest σ satisfying Theorem 8 of Balle and
	// Wang, found by binary search.
	AnalyticGaussian
)

var calibrationNames = map[Calibration]string{
	ClassicGaussian:  "classic",
	AnalyticGaussian: "analytic",
}

func (c Calibration) String() string {
	if name, ok := calibrationNames[c]; ok {
		return name
	}
	return fmt.Sprintf("Calibration(%d)", int(c))
}

// ParseCalibration converts a configuration string into a Calibration. The
// empty string selects ClassicGaussian.
func ParseCalibration(s string) (Calibration, error) {
	switch s {
	case "", "classic":
		return ClassicGaussian, nil
	case "analytic":
		return AnalyticGaussian, nil
	}
	return 0, &checks.ConfigError{Option: "calibration", Value: s, Supported: []string{"classic", "analytic"}}
}

// Sigma returns the standard deviation of Gaussian noise that makes a release
// with the given L2 sensitivity (ε,δ)-differentially private. A sensitivity
// of 0 yields 0.
//
// The parameters are not checked; callers validate them with the checks
// package first.
func (c Calibration) Sigma(sensitivity, epsilon, delta float64) (float64, error) {
	switch c {
	case ClassicGaussian:
		return GaussianSigma(sensitivity, epsilon, delta), nil
	case AnalyticGaussian:
		return AnalyticGaussianSigma(sensitivity, epsilon, delta), nil
	}
	log.Warningf("Sigma: unknown calibration (%v) specified", c)
	return 0, &checks.ConfigError{Option: "calibration", Value: c.String(), Supported: []string{"classic", "analytic"}}
}

// AddGaussian adds Gaussian noise of scale σ to x, drawing from r.
func AddGaussian(x, sigma float64, r *rand.Rand) float64 {
	return r.Normal(x, sigma)
}

// AddGaussianVector returns a copy of v with independent Gaussian noise of
// scale σ added to every coordinate.
func AddGaussianVector(v []float64, sigma float64, r *rand.Rand) []float64 {
	out := make([]float64, len(v))
	for i, x := range v {
		out[i] = r.Normal(x, sigma)
	}
	return out
}
