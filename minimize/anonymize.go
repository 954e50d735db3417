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

// Package minimize provides dataset-level transforms that reduce how much
// individual records reveal before they are used for training:
// generalization of quasi-identifiers, aggregation of consecutive records,
// and additive per-column noise.
//
// A dataset is a slice of records, each a slice of numeric attributes. The
// functions never modify their input; they return freshly allocated data.
package minimize

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	log "github.com/golang/glog"
	"github.com/google/differential-privacy/privacycore/checks"
	"gonum.org/v1/gonum/floats"
)

// ErrNotKAnonymous is wrapped by VerifyKAnonymity when some equivalence class
// is smaller than k.
var ErrNotKAnonymous = errors.New("dataset is not k-anonymous")

// KAnonymize generalizes the quasi-identifier columns of data by binning.
//
// Each quasi-identifier column with more than k distinct values is split into
// ceil(distinct/k) equal-width bins over its observed [min, max], and every
// value is replaced by the midpoint of its bin. Columns with at most k
// distinct values and all other columns are copied unchanged.
//
// This is a heuristic. It chooses the number of bins as if each bin held k
// records but does not enforce it; use VerifyKAnonymity to check the result.
func KAnonymize(data [][]float64, k int, quasiIdentifiers []int) ([][]float64, error) {
	if err := checks.CheckK("KAnonymize", k); err != nil {
		return nil, err
	}
	if err := checkDataset("KAnonymize", data); err != nil {
		return nil, err
	}
	out := copyDataset(data)
	if len(data) == 0 {
		return out, nil
	}
	if err := checks.CheckColumnIndices("KAnonymize", quasiIdentifiers, len(data[0])); err != nil {
		return nil, err
	}
	for _, col := range quasiIdentifiers {
		if err := generalizeColumn(out, col, k); err != nil {
			return nil, err
		}
	}
	if len(quasiIdentifiers) > 0 {
		if smallest := MinClassSize(out, quasiIdentifiers); smallest < k {
			log.Warningf("KAnonymize: smallest equivalence class has %d records, fewer than k=%d", smallest, k)
		}
	}
	return out, nil
}

// generalizeColumn replaces column col of data in place by bin midpoints. It
// fails if the column's range is not representable as a float64.
func generalizeColumn(data [][]float64, col, k int) error {
	values := column(data, col)
	distinct := make(map[float64]struct{})
	for _, v := range values {
		distinct[v] = struct{}{}
	}
	if len(distinct) <= k {
		return nil
	}
	bins := (len(distinct) + k - 1) / k
	lo, hi := floats.Min(values), floats.Max(values)
	if math.IsInf(hi-lo, 0) {
		return fmt.Errorf("KAnonymize: column %d spans [%g, %g], its width overflows float64: %w", col, lo, hi, checks.ErrInvalidParameter)
	}
	width := (hi - lo) / float64(bins)
	for i, v := range values {
		b := int(math.Floor((v - lo) / width))
		if b >= bins {
			b = bins - 1
		}
		data[i][col] = lo + (float64(b)+0.5)*width
	}
	log.V(1).Infof("KAnonymize: column %d generalized from %d distinct values into %d bins of width %f", col, len(distinct), bins, width)
	return nil
}

// EquivalenceClasses groups the row indices of data by their values in the
// quasi-identifier columns. Classes are returned in order of first
// appearance; indices within a class are increasing.
func EquivalenceClasses(data [][]float64, quasiIdentifiers []int) [][]int {
	index := make(map[string]int)
	var classes [][]int
	for i, row := range data {
		key := classKey(row, quasiIdentifiers)
		c, ok := index[key]
		if !ok {
			c = len(classes)
			index[key] = c
			classes = append(classes, nil)
		}
		classes[c] = append(classes[c], i)
	}
	return classes
}

// MinClassSize returns the size of the smallest equivalence class of data,
// or 0 for an empty dataset.
func MinClassSize(data [][]float64, quasiIdentifiers []int) int {
	smallest := 0
	for i, c := range EquivalenceClasses(data, quasiIdentifiers) {
		if i == 0 || len(c) < smallest {
			smallest = len(c)
		}
	}
	return smallest
}

// VerifyKAnonymity returns an error wrapping ErrNotKAnonymous if any
// equivalence class of data on the quasi-identifiers has fewer than k records.
func VerifyKAnonymity(data [][]float64, k int, quasiIdentifiers []int) error {
	if err := checks.CheckK("VerifyKAnonymity", k); err != nil {
		return err
	}
	if err := checks.CheckRectangular("VerifyKAnonymity", data); err != nil {
		return err
	}
	if len(data) > 0 {
		if err := checks.CheckColumnIndices("VerifyKAnonymity", quasiIdentifiers, len(data[0])); err != nil {
			return err
		}
	}
	classes := EquivalenceClasses(data, quasiIdentifiers)
	for _, c := range classes {
		if len(c) < k {
			return fmt.Errorf("VerifyKAnonymity: class of record %d has %d records, need %d (%d classes in total): %w", c[0], len(c), k, len(classes), ErrNotKAnonymous)
		}
	}
	return nil
}

func classKey(row []float64, quasiIdentifiers []int) string {
	var b strings.Builder
	for _, col := range quasiIdentifiers {
		b.WriteString(strconv.FormatUint(math.Float64bits(row[col]), 16))
		b.WriteByte(',')
	}
	return b.String()
}

// checkDataset checks that data is rectangular with finite attributes.
func checkDataset(label string, data [][]float64) error {
	if err := checks.CheckRectangular(label, data); err != nil {
		return err
	}
	for i, row := range data {
		if err := checks.CheckVector(fmt.Sprintf("%s (record %d)", label, i), row); err != nil {
			return err
		}
	}
	return nil
}

func copyDataset(data [][]float64) [][]float64 {
	out := make([][]float64, len(data))
	for i, row := range data {
		out[i] = append([]float64(nil), row...)
	}
	return out
}

func column(data [][]float64, col int) []float64 {
	values := make([]float64, len(data))
	for i, row := range data {
		values[i] = row[col]
	}
	return values
}
