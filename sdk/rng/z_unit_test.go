// Copyright 2025 Zintix Labs
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package rng

import (
	"sync"
	"testing"
)

func TestSourceDeterminism(t *testing.T) {
	a, b := New(7), New(7)
	for i := 0; i < 16; i++ {
		if a.IntN(1000) != b.IntN(1000) {
			t.Fatalf("IntN mismatch at %d", i)
		}
	}
	if a.Percent() != b.Percent() {
		t.Fatalf("Percent mismatch")
	}
	if a.IntN(0) != -1 {
		t.Fatalf("IntN(0) should be -1")
	}
}

func TestSeedMakerUniqueConcurrent(t *testing.T) {
	sm := NewSeedMaker(1)
	const workers, per = 8, 500
	out := make([][]int64, workers)
	var wg sync.WaitGroup
	for w := range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for range per {
				out[w] = append(out[w], sm.Next())
			}
		}()
	}
	wg.Wait()
	seen := make(map[int64]struct{}, workers*per)
	for _, xs := range out {
		for _, x := range xs {
			if x < 0 {
				t.Fatalf("negative seed %d", x)
			}
			if _, dup := seen[x]; dup {
				t.Fatalf("duplicate seed %d", x)
			}
			seen[x] = struct{}{}
		}
	}
}
