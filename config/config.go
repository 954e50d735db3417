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

// Package config loads the parameters of the privacy core from a YAML file,
// environment variables and defaults, and turns them into options for the
// core's components.
package config

import (
	"fmt"
	"strings"

	"github.com/google/differential-privacy/privacycore/checks"
	"github.com/google/differential-privacy/privacycore/dpengine"
	"github.com/google/differential-privacy/privacycore/fedavg"
	"github.com/google/differential-privacy/privacycore/metrics"
	"github.com/google/differential-privacy/privacycore/noise"
	"github.com/google/differential-privacy/privacycore/rand"
	"github.com/spf13/viper"
)

// EnvPrefix is the prefix of environment variables overriding configuration
// keys, e.g. PRIVACYCORE_PRIVACY_EPSILON for privacy.epsilon.
const EnvPrefix = "PRIVACYCORE"

// Config holds every tunable parameter of the privacy core.
type Config struct {
	Privacy   Privacy   `mapstructure:"privacy"`
	Federated Federated `mapstructure:"federated"`
	Minimizer Minimizer `mapstructure:"minimizer"`
	// Seed of the random generator. 0 selects a cryptographically secure
	// generator.
	Seed int64 `mapstructure:"seed"`
}

// Privacy configures the differential privacy engine.
type Privacy struct {
	Epsilon     float64 `mapstructure:"epsilon"`
	Delta       float64 `mapstructure:"delta"`
	Calibration string  `mapstructure:"calibration"`
	Composition string  `mapstructure:"composition"`
	ClipNorm    float64 `mapstructure:"clip_norm"`
}

// Federated configures the federated learning coordinator.
type Federated struct {
	NumClients      int     `mapstructure:"num_clients"`
	ClientsPerRound int     `mapstructure:"clients_per_round"`
	Selection       string  `mapstructure:"selection"`
	SecureEpsilon   float64 `mapstructure:"secure_epsilon"`
	SecureDelta     float64 `mapstructure:"secure_delta"`
	MinUpdates      int     `mapstructure:"min_updates"`
}

// Minimizer configures the data minimization pipeline. A GroupSize of 0
// skips group aggregation and a NoiseLevel of 0 skips noise.
type Minimizer struct {
	K                int     `mapstructure:"k"`
	QuasiIdentifiers []int   `mapstructure:"quasi_identifiers"`
	GroupSize        int     `mapstructure:"group_size"`
	NoiseLevel       float64 `mapstructure:"noise_level"`
}

// Default returns the configuration used when no file or environment
// variable overrides a key.
func Default() *Config {
	return &Config{
		Privacy: Privacy{
			Epsilon:     1.0,
			Delta:       1e-5,
			Calibration: noise.ClassicGaussian.String(),
			Composition: dpengine.BasicComposition.String(),
			ClipNorm:    1.0,
		},
		Federated: Federated{
			NumClients:      10,
			ClientsPerRound: 3,
			Selection:       fedavg.RandomSelection.String(),
			SecureEpsilon:   fedavg.DefaultSecureEpsilon,
			SecureDelta:     fedavg.DefaultSecureDelta,
			MinUpdates:      1,
		},
		Minimizer: Minimizer{
			K:          5,
			NoiseLevel: 0.1,
		},
	}
}

// SetDefaults registers the values of Default on v.
func SetDefaults(v *viper.Viper) {
	d := Default()
	v.SetDefault("privacy.epsilon", d.Privacy.Epsilon)
	v.SetDefault("privacy.delta", d.Privacy.Delta)
	v.SetDefault("privacy.calibration", d.Privacy.Calibration)
	v.SetDefault("privacy.composition", d.Privacy.Composition)
	v.SetDefault("privacy.clip_norm", d.Privacy.ClipNorm)
	v.SetDefault("federated.num_clients", d.Federated.NumClients)
	v.SetDefault("federated.clients_per_round", d.Federated.ClientsPerRound)
	v.SetDefault("federated.selection", d.Federated.Selection)
	v.SetDefault("federated.secure_epsilon", d.Federated.SecureEpsilon)
	v.SetDefault("federated.secure_delta", d.Federated.SecureDelta)
	v.SetDefault("federated.min_updates", d.Federated.MinUpdates)
	v.SetDefault("minimizer.k", d.Minimizer.K)
	v.SetDefault("minimizer.quasi_identifiers", []int{})
	v.SetDefault("minimizer.group_size", d.Minimizer.GroupSize)
	v.SetDefault("minimizer.noise_level", d.Minimizer.NoiseLevel)
	v.SetDefault("seed", d.Seed)
}

// Load reads the configuration from v. If path is not empty the file it
// names is read first. Environment variables prefixed with EnvPrefix take
// precedence over the file. The result is validated.
func Load(v *viper.Viper, path string) (*Config, error) {
	if v == nil {
		v = viper.New()
	}
	SetDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("couldn't read config file %q: %w", path, err)
		}
	}
	c := &Config{}
	if err := v.Unmarshal(c); err != nil {
		return nil, fmt.Errorf("couldn't decode configuration: %w", err)
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

// Validate checks every parameter of c.
func (c *Config) Validate() error {
	const label = "config"
	if err := checks.CheckEpsilonStrict(label+" privacy", c.Privacy.Epsilon); err != nil {
		return err
	}
	if err := checks.CheckDeltaStrict(label+" privacy", c.Privacy.Delta); err != nil {
		return err
	}
	if err := checks.CheckClipNorm(label+" privacy", c.Privacy.ClipNorm); err != nil {
		return err
	}
	if _, err := noise.ParseCalibration(c.Privacy.Calibration); err != nil {
		return err
	}
	if _, err := c.Composition(); err != nil {
		return err
	}
	if err := checks.CheckClientCounts(label+" federated", c.Federated.NumClients, c.Federated.ClientsPerRound); err != nil {
		return err
	}
	if _, err := c.SelectionMethod(); err != nil {
		return err
	}
	if err := checks.CheckEpsilonStrict(label+" federated", c.Federated.SecureEpsilon); err != nil {
		return err
	}
	if err := checks.CheckDeltaStrict(label+" federated", c.Federated.SecureDelta); err != nil {
		return err
	}
	if c.Federated.MinUpdates < 1 {
		return fmt.Errorf("%s federated: MinUpdates is %d, must be at least 1: %w", label, c.Federated.MinUpdates, checks.ErrInvalidParameter)
	}
	if err := checks.CheckK(label+" minimizer", c.Minimizer.K); err != nil {
		return err
	}
	if c.Minimizer.GroupSize != 0 {
		if err := checks.CheckGroupSize(label+" minimizer", c.Minimizer.GroupSize); err != nil {
			return err
		}
	}
	return checks.CheckNoiseLevel(label+" minimizer", c.Minimizer.NoiseLevel)
}

// Composition returns the configured composition rule.
func (c *Config) Composition() (dpengine.Composition, error) {
	return dpengine.ParseComposition(c.Privacy.Composition)
}

// SelectionMethod returns the configured client selection method.
func (c *Config) SelectionMethod() (fedavg.SelectionMethod, error) {
	return fedavg.ParseSelectionMethod(c.Federated.Selection)
}

// Rand returns a generator seeded with Seed, or a secure one if Seed is 0.
func (c *Config) Rand() *rand.Rand {
	if c.Seed == 0 {
		return rand.NewSecure()
	}
	return rand.New(c.Seed)
}

// EngineOptions returns the options of a dpengine.Engine for c.
func (c *Config) EngineOptions(r *rand.Rand, m *metrics.Collector) (*dpengine.Options, error) {
	cal, err := noise.ParseCalibration(c.Privacy.Calibration)
	if err != nil {
		return nil, err
	}
	return &dpengine.Options{
		Epsilon:     c.Privacy.Epsilon,
		Delta:       c.Privacy.Delta,
		Calibration: cal,
		Rand:        r,
		Metrics:     m,
	}, nil
}

// CoordinatorOptions returns the options of a fedavg.Coordinator for c. The
// secure aggregation noise uses the same calibration as the engine.
func (c *Config) CoordinatorOptions(r *rand.Rand, m *metrics.Collector) (*fedavg.Options, error) {
	cal, err := noise.ParseCalibration(c.Privacy.Calibration)
	if err != nil {
		return nil, err
	}
	return &fedavg.Options{
		NumClients:    c.Federated.NumClients,
		SecureEpsilon: c.Federated.SecureEpsilon,
		SecureDelta:   c.Federated.SecureDelta,
		Calibration:   cal,
		MinUpdates:    c.Federated.MinUpdates,
		Rand:          r,
		Metrics:       m,
	}, nil
}
