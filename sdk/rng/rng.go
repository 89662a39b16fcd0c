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

// Package rng 提供可重現的亂數來源（PCG + splitmix 種子展開）與併發安全的子種子派生器。
package rng

import (
	"math/rand/v2"
	"sync/atomic"
)

// Source 為單一 goroutine 使用的亂數來源。
type Source struct {
	r *rand.Rand
}

// New 以 seed 建立來源。相同 seed 產生相同序列。
func New(seed int64) *Source {
	x := uint64(seed) ^ 0x9e3779b97f4a7c15
	return &Source{r: rand.New(rand.NewPCG(splitmix64(x), splitmix64(x^0xDA942042E4DD58B5)))}
}

// IntN 回傳 [0,n)；n <= 0 時回傳 -1。
func (s *Source) IntN(n int) int {
	if n <= 0 {
		return -1
	}
	return s.r.IntN(n)
}

// Percent 回傳 [0,100) 的整數，用於成功率判定。
func (s *Source) Percent() uint8 { return uint8(s.r.IntN(100)) }

func splitmix64(x uint64) uint64 {
	x += 0x9e3779b97f4a7c15
	x = (x ^ (x >> 30)) * 0xbf58476d1ce4e5b9
	x = (x ^ (x >> 27)) * 0x94d049bb133111eb
	return x ^ (x >> 31)
}

const mask63 = uint64(1<<63) - 1

// SeedMaker 由一個 base seed 派生不重複的子種子，可被多個 goroutine 同時呼叫。
type SeedMaker struct {
	base  int64
	state atomic.Uint64 // [0, 2^63)
}

func NewSeedMaker(seed int64) *SeedMaker {
	s := &SeedMaker{base: seed}
	s.state.Store(uint64(seed) & mask63)
	return s
}

// Base 回傳建立時的 seed，供重現用。
func (s *SeedMaker) Base() int64 { return s.base }

// Next 以全週期 LCG (mod 2^63) 推進，再經可逆混洗輸出非負 seed。
func (s *SeedMaker) Next() int64 {
	for {
		old := s.state.Load()
		next := (old*6364136223846793005 + 1442695040888963407) & mask63
		if s.state.CompareAndSwap(old, next) {
			return int64(mix63(next))
		}
	}
}

func mix63(x uint64) uint64 {
	x ^= x >> 30
	x = (x * 0xBF58476D1CE4E5B9) & mask63
	x ^= x >> 27
	x = (x * 0x94D049BB133111EB) & mask63
	x ^= x >> 31
	return x & mask63
}
