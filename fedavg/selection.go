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

package fedavg

import (
	"fmt"

	"github.com/google/differential-privacy/privacycore/checks"
)

// SelectionMethod is an enum type. Its values are the supported ways of
// choosing the clients that participate in a round.
type SelectionMethod int

// Client selection methods for SelectClients.
const (
	// RandomSelection draws clients uniformly without replacement.
	RandomSelection SelectionMethod = iota
	// RoundRobinSelection takes a contiguous block of clients that advances
	// with the round number.
	RoundRobinSelection
)

var selectionNames = map[SelectionMethod]string{
	RandomSelection:     "random",
	RoundRobinSelection: "round_robin",
}

var supportedSelections = []string{"random", "round_robin"}

func (m SelectionMethod) String() string {
	if name, ok := selectionNames[m]; ok {
		return name
	}
	return fmt.Sprintf("SelectionMethod(%d)", int(m))
}

// ParseSelectionMethod converts a configuration string into a SelectionMethod.
func ParseSelectionMethod(s string) (SelectionMethod, error) {
	switch s {
	case "random":
		return RandomSelection, nil
	case "round_robin":
		return RoundRobinSelection, nil
	}
	return 0, &checks.ConfigError{Option: "client selection method", Value: s, Supported: supportedSelections}
}

// SelectClients returns the indices of clientsPerRound clients out of
// totalClients for the current round. It never changes the round number.
//
// RandomSelection returns distinct indices drawn uniformly without
// replacement from [0, totalClients). RoundRobinSelection returns the block
// starting at (round·clientsPerRound) mod totalClients, wrapping around.
func (c *Coordinator) SelectClients(totalClients, clientsPerRound int, method SelectionMethod) ([]int, error) {
	if err := checks.CheckClientCounts("SelectClients", totalClients, clientsPerRound); err != nil {
		return nil, err
	}
	switch method {
	case RandomSelection:
		return c.rng.Sample(totalClients, clientsPerRound), nil
	case RoundRobinSelection:
		return roundRobin(c.Round(), totalClients, clientsPerRound), nil
	}
	return nil, &checks.ConfigError{Option: "client selection method", Value: method.String(), Supported: supportedSelections}
}

func roundRobin(round, total, perRound int) []int {
	// Reduce before multiplying so large round numbers cannot overflow.
	start := (round % total) * (perRound % total) % total
	out := make([]int, perRound)
	for i := range out {
		out[i] = (start + i) % total
	}
	return out
}
