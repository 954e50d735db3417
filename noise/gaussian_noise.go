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

package noise

import (
	"math"

	"gonum.org/v1/gonum/stat/distuv"
)

// analyticSigmaAccuracy is the relative accuracy up to which
// AnalyticGaussianSigma approximates the smallest σ satisfying the DP
// parameters.
const analyticSigmaAccuracy = 1e-6

// GaussianSigma computes σ = sensitivity·sqrt(2·ln(1.25/δ))/ε, the classic
// calibration of the Gaussian mechanism (Dwork and Roth, Theorem A.1).
//
// σ is increasing in sensitivity, increasing as δ decreases and decreasing
// as ε increases.
func GaussianSigma(sensitivity, epsilon, delta float64) float64 {
	return sensitivity * math.Sqrt(2*math.Log(1.25/delta)) / epsilon
}

// DeltaForGaussian computes the smallest δ such that the Gaussian mechanism
// with fixed standard deviation σ is (ε,δ)-differentially private for data
// with the given L2 sensitivity. The calculation is based on Theorem 8 of
// Balle and Wang's "Improving the Gaussian Mechanism for Differential
// Privacy: Analytical Calibration and Optimal Denoising"
// (https://arxiv.org/abs/1805.06530v2).
func DeltaForGaussian(sigma, l2Sensitivity, epsilon float64) float64 {
	if l2Sensitivity == 0 {
		return 0
	}
	// Defining
	//   Φ – Standard Gaussian distribution (mean: 0, variance: 1) CDF function
	//   s – L2 sensitivity
	// the tight choice of δ is
	//   δ(σ,s,ε) := Φ(s/(2σ) - εσ/s) - exp(ε)Φ(-s/(2σ) - εσ/s)
	// With a := s/(2σ), b := εσ/s, c := exp(ε) this is Φ(a - b) - cΦ(-a - b).
	a := l2Sensitivity / (2 * sigma)
	b := epsilon * sigma / l2Sensitivity
	c := math.Exp(epsilon)

	if math.IsInf(c, +1) {
		// δ(σ,s,ε) –> 0 as ε –> ∞.
		return 0
	}
	if math.IsInf(b, +1) {
		// δ(σ,s,ε) –> 0 as the L2 sensitivity –> 0.
		return 0
	}
	return distuv.UnitNormal.CDF(a-b) - c*distuv.UnitNormal.CDF(-a-b)
}

// AnalyticGaussianSigma calculates the smallest standard deviation σ of
// Gaussian noise achieving (ε,δ)-differential privacy for the given L2
// sensitivity, by binary search over DeltaForGaussian. The result deviates
// from the exact value by at most analyticSigmaAccuracy·σ and never
// undershoots it.
func AnalyticGaussianSigma(l2Sensitivity, epsilon, delta float64) float64 {
	if l2Sensitivity == 0 {
		return 0
	}
	// The required noise grows linearly with sensitivity, so the sensitivity
	// is the starting guess for the upper bound.
	upperBound := l2Sensitivity
	var lowerBound float64
	// DeltaForGaussian is decreasing in σ.
	for DeltaForGaussian(upperBound, l2Sensitivity, epsilon) > delta {
		lowerBound = upperBound
		upperBound = upperBound * 2
	}
	for upperBound-lowerBound > analyticSigmaAccuracy*upperBound {
		middle := lowerBound*0.5 + upperBound*0.5
		if DeltaForGaussian(middle, l2Sensitivity, epsilon) > delta {
			lowerBound = middle
		} else {
			upperBound = middle
		}
	}
	return upperBound
}
