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

package dpengine

import (
	"errors"
	"math"
	"testing"

	"github.com/google/differential-privacy/privacycore/checks"
	"github.com/google/differential-privacy/privacycore/rand"
	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
)

func TestClip(t *testing.T) {
	for _, tc := range []struct {
		desc     string
		update   []float64
		clipNorm float64
		want     []float64
	}{
		{"norm above bound is rescaled",
			[]float64{3, 4},
			1,
			[]float64{0.6, 0.8}},
		{"norm equal to bound is unchanged",
			[]float64{3, 4},
			5,
			[]float64{3, 4}},
		{"norm below bound is unchanged",
			[]float64{0.1, -0.2, 0.3},
			10,
			[]float64{0.1, -0.2, 0.3}},
		{"zero vector",
			[]float64{0, 0},
			1,
			[]float64{0, 0}},
		{"empty vector",
			[]float64{},
			1,
			[]float64{}},
	} {
		got, err := Clip(tc.update, tc.clipNorm)
		if err != nil {
			t.Fatalf("Clip: when %s got err %v", tc.desc, err)
		}
		if diff := cmp.Diff(tc.want, got, cmpopts.EquateApprox(0, 1e-12)); diff != "" {
			t.Errorf("Clip: when %s (-want +got):\n%s", tc.desc, diff)
		}
	}
}

func TestClipBoundsNormForRandomVectors(t *testing.T) {
	r := rand.New(5)
	for i := 0; i < 200; i++ {
		v := make([]float64, 1+r.Intn(20))
		for j := range v {
			v[j] = r.Normal(0, 10)
		}
		clipNorm := 0.01 + 5*r.Float64()
		got, err := Clip(v, clipNorm)
		if err != nil {
			t.Fatalf("Clip: got err %v", err)
		}
		if n := L2Norm(got); n > clipNorm*(1+1e-12) {
			t.Errorf("Clip(%v, %f): got norm %f, want at most %f", v, clipNorm, n, clipNorm)
		}
		if L2Norm(v) <= clipNorm && !cmp.Equal(got, v) {
			t.Errorf("Clip(%v, %f): got %v, want the input unchanged", v, clipNorm, got)
		}
	}
}

func TestClipDoesNotAliasInput(t *testing.T) {
	in := []float64{3, 4}
	got, _ := Clip(in, 10)
	got[0] = 100
	if in[0] != 3 {
		t.Errorf("Clip: writing to the result changed the input to %v", in)
	}
	Clip(in, 1)
	if diff := cmp.Diff([]float64{3, 4}, in); diff != "" {
		t.Errorf("Clip: mutated its input (-want +got):\n%s", diff)
	}
}

func TestClipRejectsInvalidInput(t *testing.T) {
	for _, tc := range []struct {
		desc     string
		update   []float64
		clipNorm float64
	}{
		{"zero clip norm", []float64{1}, 0},
		{"negative clip norm", []float64{1}, -1},
		{"NaN coordinate", []float64{math.NaN()}, 1},
	} {
		if _, err := Clip(tc.update, tc.clipNorm); !errors.Is(err, checks.ErrInvalidParameter) {
			t.Errorf("Clip: when %s got err %v, want ErrInvalidParameter", tc.desc, err)
		}
	}
}
