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
	"fmt"
	"math"

	"github.com/google/differential-privacy/privacycore/checks"
)

// Composition is an enum type. Its values are the supported rules for
// composing the privacy cost of repeated releases.
type Composition int

// Composition rules for BudgetSpent.
const (
	// BasicComposition bounds n releases by ε·n.
	BasicComposition Composition = iota
	// AdvancedComposition bounds n releases by ε·sqrt(2·n·ln(1/δ)). This is a
	// simplified sublinear stand-in for advanced composition, not a moments
	// or Rényi accountant.
	AdvancedComposition
)

var compositionNames = map[Composition]string{
	BasicComposition:    "basic",
	AdvancedComposition: "advanced",
}

var supportedCompositions = []string{"basic", "advanced"}

func (c Composition) String() string {
	if name, ok := compositionNames[c]; ok {
		return name
	}
	return fmt.Sprintf("Composition(%d)", int(c))
}

// ParseComposition converts a configuration string into a Composition.
func ParseComposition(s string) (Composition, error) {
	switch s {
	case "basic":
		return BasicComposition, nil
	case "advanced":
		return AdvancedComposition, nil
	}
	return 0, &checks.ConfigError{Option: "composition", Value: s, Supported: supportedCompositions}
}

func budgetSpent(epsilon, delta float64, numReleases int, c Composition) (float64, error) {
	if err := checks.CheckNumReleases("BudgetSpent", numReleases); err != nil {
		return 0, err
	}
	n := float64(numReleases)
	switch c {
	case BasicComposition:
		return epsilon * n, nil
	case AdvancedComposition:
		return epsilon * math.Sqrt(2*n*math.Log(1/delta)), nil
	}
	return 0, &checks.ConfigError{Option: "composition", Value: c.String(), Supported: supportedCompositions}
}
