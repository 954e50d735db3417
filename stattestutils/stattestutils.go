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

// Package stattestutils provides statistical helpers for testing the noise
// added by the privacy core.
//
// This package is not optimized for performance or speed and is only intended
// to be used in tests.
package stattestutils

import (
	"math"

	"github.com/grd/stat"
)

// quantile99999 is the 99.9995% quantile of the standard normal
// distribution. Tolerances derived from it falsely reject with a probability
// of 10⁻⁵.
const quantile99999 = 4.41717

// SampleStats returns the sample mean and the unbiased sample variance of values.
func SampleStats(values []float64) (mean, variance float64) {
	if len(values) == 0 {
		return 0, 0
	}
	s := stat.Float64Slice(values)
	mean = stat.Mean(s)
	if len(values) < 2 {
		return mean, 0
	}
	return mean, stat.Variance(s)
}

// ColumnStats returns SampleStats of column col of data.
func ColumnStats(data [][]float64, col int) (mean, variance float64) {
	values := make([]float64, len(data))
	for i, row := range data {
		values[i] = row[col]
	}
	return SampleStats(values)
}

// MeanTolerance returns the error tolerance for the sample mean of n draws
// from a distribution with the given variance. The sample mean is
// approximately Gaussian with standard deviation sqrt(variance/n).
func MeanTolerance(variance float64, n int) float64 {
	return quantile99999 * math.Sqrt(variance/float64(n))
}

// VarianceTolerance returns the error tolerance for the sample variance of n
// Gaussian draws with the given variance. The sample variance is
// approximately Gaussian with standard deviation sqrt(2)·variance/sqrt(n).
func VarianceTolerance(variance float64, n int) float64 {
	return quantile99999 * math.Sqrt2 * variance / math.Sqrt(float64(n))
}

// NearEqual reports whether a and b differ by at most tolerance.
func NearEqual(a, b, tolerance float64) bool {
	return math.Abs(a-b) <= tolerance
}
