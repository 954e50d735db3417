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
	"math"

	"github.com/google/differential-privacy/privacycore/rand"
	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
)

// This file contains functions and values used to test the engine.

var tenfive = math.Pow10(-5)

func approxEqual(x, y float64) bool {
	return cmp.Equal(x, y, cmpopts.EquateApprox(0, 1e-9))
}

func newTestEngine(epsilon, delta float64) *Engine {
	e, err := New(&Options{Epsilon: epsilon, Delta: delta, Rand: rand.New(42)})
	if err != nil {
		panic(err)
	}
	return e
}
