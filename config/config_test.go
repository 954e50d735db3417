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

package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/differential-privacy/privacycore/checks"
	"github.com/google/differential-privacy/privacycore/dpengine"
	"github.com/google/differential-privacy/privacycore/fedavg"
	"github.com/google/differential-privacy/privacycore/noise"
	"github.com/google/differential-privacy/privacycore/rand"
	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/spf13/viper"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "privacycore.yaml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("WriteFile: got err %v", err)
	}
	return path
}

func TestLoadDefaults(t *testing.T) {
	got, err := Load(viper.New(), "")
	if err != nil {
		t.Fatalf("Load: got err %v", err)
	}
	if diff := cmp.Diff(Default(), got, cmpopts.EquateEmpty()); diff != "" {
		t.Errorf("Load: (-want +got):\n%s", diff)
	}
}

func TestLoadFile(t *testing.T) {
	path := writeConfig(t, `
privacy:
  epsilon: 0.5
  delta: 1.0e-6
  calibration: analytic
  composition: advanced
  clip_norm: 2.5
federated:
  num_clients: 100
  clients_per_round: 10
  selection: round_robin
  secure_epsilon: 2
minimizer:
  k: 3
  quasi_identifiers: [0, 2]
  group_size: 4
  noise_level: 0
seed: 42
`)
	got, err := Load(viper.New(), path)
	if err != nil {
		t.Fatalf("Load: got err %v", err)
	}
	want := Default()
	want.Privacy = Privacy{Epsilon: 0.5, Delta: 1e-6, Calibration: "analytic", Composition: "advanced", ClipNorm: 2.5}
	want.Federated.NumClients = 100
	want.Federated.ClientsPerRound = 10
	want.Federated.Selection = "round_robin"
	want.Federated.SecureEpsilon = 2
	want.Minimizer = Minimizer{K: 3, QuasiIdentifiers: []int{0, 2}, GroupSize: 4, NoiseLevel: 0}
	want.Seed = 42
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Load: (-want +got):\n%s", diff)
	}
	if c, _ := got.Composition(); c != dpengine.AdvancedComposition {
		t.Errorf("Composition: got %v, want %v", c, dpengine.AdvancedComposition)
	}
	if m, _ := got.SelectionMethod(); m != fedavg.RoundRobinSelection {
		t.Errorf("SelectionMethod: got %v, want %v", m, fedavg.RoundRobinSelection)
	}
}

func TestLoadEnvironmentOverridesFile(t *testing.T) {
	path := writeConfig(t, "privacy:\n  epsilon: 0.5\n")
	t.Setenv("PRIVACYCORE_PRIVACY_EPSILON", "3")
	t.Setenv("PRIVACYCORE_FEDERATED_SELECTION", "round_robin")
	got, err := Load(viper.New(), path)
	if err != nil {
		t.Fatalf("Load: got err %v", err)
	}
	if got.Privacy.Epsilon != 3 {
		t.Errorf("Load: got epsilon %f, want 3", got.Privacy.Epsilon)
	}
	if got.Federated.Selection != "round_robin" {
		t.Errorf("Load: got selection %q, want %q", got.Federated.Selection, "round_robin")
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(viper.New(), filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Errorf("Load: missing file got no error")
	}
}

func TestValidate(t *testing.T) {
	for _, tc := range []struct {
		desc    string
		mutate  func(*Config)
		wantErr error
	}{
		{"zero epsilon", func(c *Config) { c.Privacy.Epsilon = 0 }, checks.ErrInvalidParameter},
		{"delta of one", func(c *Config) { c.Privacy.Delta = 1 }, checks.ErrInvalidParameter},
		{"negative clip norm", func(c *Config) { c.Privacy.ClipNorm = -1 }, checks.ErrInvalidParameter},
		{"unknown calibration", func(c *Config) { c.Privacy.Calibration = "laplace" }, checks.ErrUnsupportedOption},
		{"unknown composition", func(c *Config) { c.Privacy.Composition = "moments" }, checks.ErrUnsupportedOption},
		{"unknown selection", func(c *Config) { c.Federated.Selection = "stratified" }, checks.ErrUnsupportedOption},
		{"more clients per round than clients", func(c *Config) { c.Federated.ClientsPerRound = 11 }, checks.ErrInvalidParameter},
		{"zero secure delta", func(c *Config) { c.Federated.SecureDelta = 0 }, checks.ErrInvalidParameter},
		{"zero minimum updates", func(c *Config) { c.Federated.MinUpdates = 0 }, checks.ErrInvalidParameter},
		{"zero k", func(c *Config) { c.Minimizer.K = 0 }, checks.ErrInvalidParameter},
		{"negative group size", func(c *Config) { c.Minimizer.GroupSize = -2 }, checks.ErrInvalidParameter},
		{"negative noise level", func(c *Config) { c.Minimizer.NoiseLevel = -1 }, checks.ErrInvalidParameter},
	} {
		c := Default()
		tc.mutate(c)
		if err := c.Validate(); !errors.Is(err, tc.wantErr) {
			t.Errorf("Validate: when %s got err %v, want %v", tc.desc, err, tc.wantErr)
		}
	}
	if err := Default().Validate(); err != nil {
		t.Errorf("Validate: default configuration got err %v", err)
	}
}

func TestOptionsBuildComponents(t *testing.T) {
	c := Default()
	c.Privacy.Calibration = "analytic"
	c.Federated.SecureEpsilon = 2
	r := rand.New(5)

	eo, err := c.EngineOptions(r, nil)
	if err != nil {
		t.Fatalf("EngineOptions: got err %v", err)
	}
	if eo.Calibration != noise.AnalyticGaussian {
		t.Errorf("EngineOptions: got calibration %v, want %v", eo.Calibration, noise.AnalyticGaussian)
	}
	if _, err := dpengine.New(eo); err != nil {
		t.Errorf("dpengine.New: got err %v", err)
	}

	co, err := c.CoordinatorOptions(r, nil)
	if err != nil {
		t.Fatalf("CoordinatorOptions: got err %v", err)
	}
	coord, err := fedavg.NewCoordinator(co)
	if err != nil {
		t.Fatalf("fedavg.NewCoordinator: got err %v", err)
	}
	if eps, _ := coord.SecureBudget(); eps != 2 {
		t.Errorf("SecureBudget: got epsilon %f, want 2", eps)
	}
}

func TestRand(t *testing.T) {
	c := Default()
	c.Seed = 9
	a, b := c.Rand(), c.Rand()
	for i := 0; i < 10; i++ {
		if x, y := a.Float64(), b.Float64(); x != y {
			t.Fatalf("Rand: generators with the same seed diverged at draw %d: %f != %f", i, x, y)
		}
	}
	c.Seed = 0
	if c.Rand() == nil {
		t.Errorf("Rand: got nil secure generator")
	}
}
