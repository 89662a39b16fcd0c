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

// Package sampler 提供 O(1) 的整數版 Vose alias 加權抽樣。
//
// 全程使用整數 scaling：prob[i] = w[i] * n，與 total 比較，不經過浮點數。
package sampler

import (
	"math"
	"math/bits"

	"github.com/zintix-labs/craftlab/errs"
)

// Intn 為抽樣所需的最小亂數介面（*rng.Source 滿足）。
type Intn interface {
	IntN(n int) int
}

// AliasTable 每個槽位只存放「自己」與「別名」兩個選項。
// 建表 O(N)，抽樣固定兩次 IntN。
type AliasTable struct {
	prob    []int
	aliases []int
	total   int
}

// NewAliasTable 依非負權重建表。權重全為零、為負或乘積溢位時回傳錯誤。
func NewAliasTable(weights []int) (*AliasTable, error) {
	n := len(weights)
	if n == 0 {
		return &AliasTable{}, nil
	}
	total := uint64(0)
	for _, w := range weights {
		if w < 0 {
			return nil, errs.Fatalf("alias table: negative weight %d", w)
		}
		total += uint64(w)
		if total > math.MaxInt {
			return nil, errs.NewFatal("alias table: total weight overflow")
		}
	}
	if total == 0 {
		return nil, errs.NewFatal("alias table: all weights are zero")
	}
	if hi, lo := bits.Mul64(total, uint64(n)); hi != 0 || lo > math.MaxInt64 {
		return nil, errs.NewFatal("alias table: weights too large")
	}

	t := int(total)
	prob := make([]int, n)
	aliases := make([]int, n)
	small := make([]int, 0, n)
	large := make([]int, 0, n)
	for i, w := range weights {
		prob[i] = w * n
		aliases[i] = i
		if prob[i] < t {
			small = append(small, i)
		} else {
			large = append(large, i)
		}
	}
	for len(small) > 0 && len(large) > 0 {
		s := small[len(small)-1]
		small = small[:len(small)-1]
		l := large[len(large)-1]
		large = large[:len(large)-1]

		aliases[s] = l
		// sum(prob) = total * n 維持不變
		prob[l] += prob[s] - t
		if prob[l] < t {
			small = append(small, l)
		} else {
			large = append(large, l)
		}
	}
	// 浮動殘差：剩下的槽位一律視為滿格
	for _, i := range append(small, large...) {
		prob[i] = t
	}
	return &AliasTable{prob: prob, aliases: aliases, total: t}, nil
}

// Len 選項數。
func (at *AliasTable) Len() int { return len(at.prob) }

// Pick 抽出一個索引；空表回傳 -1。
func (at *AliasTable) Pick(r Intn) int {
	if len(at.prob) == 0 {
		return -1
	}
	idx := r.IntN(len(at.prob))
	if r.IntN(at.total) < at.prob[idx] {
		return idx
	}
	return at.aliases[idx]
}

// Table 把抽出的索引對應回項目。
type Table[T any] struct {
	items []T
	alias *AliasTable
}

// NewTable 以 items 與等長的 weights 建表。
func NewTable[T any](items []T, weights []int) (*Table[T], error) {
	if len(items) != len(weights) {
		return nil, errs.Fatalf("sampler: %d items but %d weights", len(items), len(weights))
	}
	at, err := NewAliasTable(weights)
	if err != nil {
		return nil, err
	}
	return &Table[T]{items: items, alias: at}, nil
}

// Pick 抽出一個項目；空表回傳零值與 false。
func (t *Table[T]) Pick(r Intn) (T, bool) {
	i := t.alias.Pick(r)
	if i < 0 {
		var zero T
		return zero, false
	}
	return t.items[i], true
}
