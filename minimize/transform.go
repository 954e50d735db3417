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

package minimize

import (
	"math"

	log "github.com/golang/glog"
	"github.com/google/differential-privacy/privacycore/checks"
	"github.com/google/differential-privacy/privacycore/noise"
	"github.com/google/differential-privacy/privacycore/rand"
	"gonum.org/v1/gonum/stat"
)

// AggregateByGroup replaces each run of groupSize consecutive records by
// their column-wise mean. A trailing run shorter than groupSize is dropped,
// so the result has len(data)/groupSize records.
func AggregateByGroup(data [][]float64, groupSize int) ([][]float64, error) {
	if err := checks.CheckGroupSize("AggregateByGroup", groupSize); err != nil {
		return nil, err
	}
	if err := checkDataset("AggregateByGroup", data); err != nil {
		return nil, err
	}
	numGroups := len(data) / groupSize
	if dropped := len(data) - numGroups*groupSize; dropped > 0 {
		log.V(1).Infof("AggregateByGroup: dropping %d trailing records", dropped)
	}
	out := make([][]float64, numGroups)
	for g := range out {
		group := data[g*groupSize : (g+1)*groupSize]
		means := make([]float64, len(group[0]))
		for col := range means {
			means[col] = stat.Mean(column(group, col), nil)
		}
		out[g] = means
	}
	return out, nil
}

// AddNoise returns a copy of data with independent Gaussian noise added to
// every attribute. The noise in a column has standard deviation noiseLevel
// times that column's population standard deviation. A noiseLevel of 0
// returns an exact copy and draws nothing from r. A nil r defaults to
// rand.NewSecure().
func AddNoise(data [][]float64, noiseLevel float64, r *rand.Rand) ([][]float64, error) {
	if err := checks.CheckNoiseLevel("AddNoise", noiseLevel); err != nil {
		return nil, err
	}
	if err := checkDataset("AddNoise", data); err != nil {
		return nil, err
	}
	out := copyDataset(data)
	if noiseLevel == 0 || len(data) == 0 {
		return out, nil
	}
	if r == nil {
		r = rand.NewSecure()
	}
	for col := range data[0] {
		sigma := noiseLevel * ColumnStdDev(data, col)
		for i := range out {
			out[i][col] = noise.AddGaussian(out[i][col], sigma, r)
		}
	}
	return out, nil
}

// ColumnStdDev returns the population standard deviation of column col of
// data.
func ColumnStdDev(data [][]float64, col int) float64 {
	return math.Sqrt(stat.PopVariance(column(data, col), nil))
}
