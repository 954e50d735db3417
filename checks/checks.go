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

// Package checks contains parameter checks for the privacy core and the
// errors they report.
//
// Every check returns an error wrapping one of the sentinel errors below, so
// callers can branch with errors.Is while still getting a message naming the
// offending value.
package checks

import (
	"errors"
	"fmt"
	"math"
	"strings"
)

var (
	// ErrInvalidParameter is wrapped by errors for out-of-range scalar parameters.
	ErrInvalidParameter = errors.New("invalid parameter")
	// ErrEmptyBatch is wrapped by errors for empty update batches or datasets.
	ErrEmptyBatch = errors.New("empty batch")
	// ErrShapeMismatch is wrapped by errors for vectors or rows of differing lengths.
	ErrShapeMismatch = errors.New("shape mismatch")
	// ErrNegativeWeight is wrapped by errors for negative client weights.
	ErrNegativeWeight = errors.New("negative weight")
	// ErrZeroWeight is wrapped by errors for weights that sum to zero.
	ErrZeroWeight = errors.New("weights sum to zero")
	// ErrUnsupportedOption is matched by every *ConfigError.
	ErrUnsupportedOption = errors.New("unsupported option")
)

// ConfigError reports a configuration value that names no supported mode,
// such as an unknown composition rule or client selection method.
type ConfigError struct {
	Option    string
	Value     string
	Supported []string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("unsupported %s %q, must be one of [%s]", e.Option, e.Value, strings.Join(e.Supported, ", "))
}

// Is reports whether target is ErrUnsupportedOption.
func (e *ConfigError) Is(target error) bool {
	return target == ErrUnsupportedOption
}

func invalid(label, format string, args ...any) error {
	return fmt.Errorf("%s: %s: %w", label, fmt.Sprintf(format, args...), ErrInvalidParameter)
}

// CheckEpsilonStrict returns an error if ε is nonpositive or +∞.
func CheckEpsilonStrict(label string, epsilon float64) error {
	if epsilon <= 0 || math.IsInf(epsilon, 0) || math.IsNaN(epsilon) {
		return invalid(label, "Epsilon is %f, must be strictly positive and finite", epsilon)
	}
	return nil
}

// CheckDeltaStrict returns an error if δ is nonpositive or greater than or equal to 1.
func CheckDeltaStrict(label string, delta float64) error {
	if math.IsNaN(delta) {
		return invalid(label, "Delta is %e, cannot be NaN", delta)
	}
	if delta <= 0 {
		return invalid(label, "Delta is %e, must be strictly positive", delta)
	}
	if delta >= 1 {
		return invalid(label, "Delta is %e, must be strictly less than 1", delta)
	}
	return nil
}

// CheckClipNorm returns an error if clipNorm is nonpositive or +∞.
func CheckClipNorm(label string, clipNorm float64) error {
	if clipNorm <= 0 || math.IsInf(clipNorm, 0) || math.IsNaN(clipNorm) {
		return invalid(label, "ClipNorm is %f, must be strictly positive and finite", clipNorm)
	}
	return nil
}

// CheckSensitivity returns an error if sensitivity is negative or +∞. A
// sensitivity of 0 is accepted: a constant function has no privacy cost.
func CheckSensitivity(label string, sensitivity float64) error {
	if sensitivity < 0 || math.IsInf(sensitivity, 0) || math.IsNaN(sensitivity) {
		return invalid(label, "Sensitivity is %f, must be nonnegative and finite", sensitivity)
	}
	return nil
}

// CheckK returns an error if k is less than 1.
func CheckK(label string, k int) error {
	if k < 1 {
		return invalid(label, "K is %d, must be at least 1", k)
	}
	return nil
}

// CheckGroupSize returns an error if groupSize is less than 1.
func CheckGroupSize(label string, groupSize int) error {
	if groupSize < 1 {
		return invalid(label, "GroupSize is %d, must be at least 1", groupSize)
	}
	return nil
}

// CheckNoiseLevel returns an error if noiseLevel is negative or +∞.
func CheckNoiseLevel(label string, noiseLevel float64) error {
	if noiseLevel < 0 || math.IsInf(noiseLevel, 0) || math.IsNaN(noiseLevel) {
		return invalid(label, "NoiseLevel is %f, must be nonnegative and finite", noiseLevel)
	}
	return nil
}

// CheckNumReleases returns an error if numReleases is negative.
func CheckNumReleases(label string, numReleases int) error {
	if numReleases < 0 {
		return invalid(label, "NumReleases is %d, must be at least 0", numReleases)
	}
	return nil
}

// CheckClientCounts returns an error unless 0 < perRound <= total.
func CheckClientCounts(label string, total, perRound int) error {
	if total < 1 {
		return invalid(label, "TotalClients is %d, must be at least 1", total)
	}
	if perRound < 1 || perRound > total {
		return invalid(label, "ClientsPerRound is %d, must be within [1, %d]", perRound, total)
	}
	return nil
}

// CheckVector returns an error if v contains NaN or ±∞.
func CheckVector(label string, v []float64) error {
	for i, x := range v {
		if math.IsNaN(x) || math.IsInf(x, 0) {
			return invalid(label, "coordinate %d is %f, must be finite", i, x)
		}
	}
	return nil
}

// CheckSameLength returns an error if vs is empty or its vectors differ in length.
func CheckSameLength(label string, vs [][]float64) error {
	if len(vs) == 0 {
		return fmt.Errorf("%s: no updates provided: %w", label, ErrEmptyBatch)
	}
	want := len(vs[0])
	for i, v := range vs {
		if len(v) != want {
			return fmt.Errorf("%s: update %d has %d coordinates, expected %d: %w", label, i, len(v), want, ErrShapeMismatch)
		}
	}
	return nil
}

// CheckRectangular returns an error if the rows of data differ in length.
// An empty dataset is rectangular.
func CheckRectangular(label string, data [][]float64) error {
	if len(data) == 0 {
		return nil
	}
	want := len(data[0])
	for i, row := range data {
		if len(row) != want {
			return fmt.Errorf("%s: record %d has %d attributes, expected %d: %w", label, i, len(row), want, ErrShapeMismatch)
		}
	}
	return nil
}

// CheckColumnIndices returns an error if any index is outside [0, numColumns).
func CheckColumnIndices(label string, indices []int, numColumns int) error {
	for _, c := range indices {
		if c < 0 || c >= numColumns {
			return invalid(label, "column index %d out of range [0, %d)", c, numColumns)
		}
	}
	return nil
}

// CheckWeights returns an error if weights does not hold exactly n
// nonnegative finite values with a positive sum.
func CheckWeights(label string, weights []float64, n int) error {
	if len(weights) != n {
		return fmt.Errorf("%s: got %d weights for %d updates: %w", label, len(weights), n, ErrShapeMismatch)
	}
	var total float64
	for i, w := range weights {
		if math.IsNaN(w) || math.IsInf(w, 0) {
			return invalid(label, "weight %d is %f, must be finite", i, w)
		}
		if w < 0 {
			return fmt.Errorf("%s: weight %d is %f: %w", label, i, w, ErrNegativeWeight)
		}
		total += w
	}
	if total == 0 {
		return fmt.Errorf("%s: %w", label, ErrZeroWeight)
	}
	return nil
}
