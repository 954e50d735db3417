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

// Package rand provides caller-owned random number generators for the
// noising and sampling operations of the privacy core.
//
// There is no package-level generator: every operation that draws
// randomness takes a *Rand explicitly, so tests can seed it and concurrent
// callers can hold one generator each.
package rand

import (
	"bufio"
	cryptorand "crypto/rand"
	"encoding/binary"
	"fmt"
	"io"
	mathrand "math/rand"
	"sync"

	log "github.com/golang/glog"
)

// Rand is a source of random numbers. It is safe for concurrent use; draws
// from a single Rand are serialized.
type Rand struct {
	mu sync.Mutex
	r  *mathrand.Rand
}

// New returns a deterministic Rand seeded with seed.
func New(seed int64) *Rand {
	return &Rand{r: mathrand.New(mathrand.NewSource(seed))}
}

// NewSecure returns a Rand backed by crypto/rand. Its output cannot be
// reproduced and it ignores seeding.
func NewSecure() *Rand {
	return &Rand{r: mathrand.New(&secureSource{buf: bufio.NewReaderSize(cryptorand.Reader, 65536)})}
}

// Float64 returns a uniformly random float64 in [0, 1).
func (r *Rand) Float64() float64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.r.Float64()
}

// NormFloat64 returns a normally distributed float with mean 0 and standard deviation 1.
func (r *Rand) NormFloat64() float64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.r.NormFloat64()
}

// Normal returns a normally distributed float with mean mu and standard
// deviation sigma. A sigma of 0 returns mu without consuming randomness.
func (r *Rand) Normal(mu, sigma float64) float64 {
	if sigma == 0 {
		return mu
	}
	return mu + sigma*r.NormFloat64()
}

// Intn returns an integer from the set {0,...,n-1} uniformly at random.
// The value of n must be positive.
func (r *Rand) Intn(n int) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.r.Intn(n)
}

// Perm returns a uniformly random permutation of {0,...,n-1}.
func (r *Rand) Perm(n int) []int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.r.Perm(n)
}

// Sample returns k distinct integers drawn uniformly without replacement
// from {0,...,n-1}, in the order they were drawn. It panics unless
// 0 <= k <= n.
func (r *Rand) Sample(n, k int) []int {
	if k < 0 || k > n {
		panic(fmt.Sprintf("rand: Sample(n %d, k %d): k must be within [0, n]", n, k))
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	// Partial Fisher-Yates over a lazily materialized identity permutation.
	swapped := make(map[int]int, k)
	at := func(i int) int {
		if v, ok := swapped[i]; ok {
			return v
		}
		return i
	}
	out := make([]int, k)
	for i := 0; i < k; i++ {
		j := i + r.r.Intn(n-i)
		out[i] = at(j)
		swapped[j] = at(i)
	}
	return out
}

// secureSource implements a cryptographically secure math/rand.Source.
type secureSource struct {
	mu  sync.Mutex
	buf io.Reader
}

// Int63 returns a uniformly random int64 in [0, 1<<63).
func (s *secureSource) Int63() int64 {
	var b [8]uint8
	s.mu.Lock()
	_, err := io.ReadFull(s.buf, b[:])
	s.mu.Unlock()
	if err != nil {
		log.Fatalf("out of randomness, should never happen: %v", err)
	}
	return int64(binary.LittleEndian.Uint64(b[:]) & 0x7fffffffffffffff)
}

// Seed is a no-op.
func (*secureSource) Seed(_ int64) {}
