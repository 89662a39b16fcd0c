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

package solver

import "github.com/zintix-labs/craftlab/craft"

const (
	slotPresent uint8 = 1 << iota
	slotHasAction
)

// slot 為一格記憶化結果（8 bytes）。
// present 之後內容即為定值，不會被重算或覆寫。
type slot struct {
	value  uint32
	step   uint16
	action craft.Action
	flags  uint8
}

func (s slot) present() bool   { return s.flags&slotPresent != 0 }
func (s slot) hasAction() bool { return s.flags&slotHasAction != 0 }

func (s *slot) set(a craft.Action, value uint32, step uint16) {
	s.action, s.value, s.step = a, value, step
	s.flags |= slotHasAction
}

const (
	pageBits = 12
	pageSize = 1 << pageBits
	pageMask = pageSize - 1
)

// table 為以單一 offset 索引的稠密表格，分頁延遲配置。
type table struct {
	pages  [][]slot
	size   int
	filled int
}

func newTable(size int) *table {
	return &table{pages: make([][]slot, (size+pageSize-1)>>pageBits), size: size}
}

// get 回傳 off 的內容，未配置的分頁視為空。
func (t *table) get(off int) slot {
	p := t.pages[off>>pageBits]
	if p == nil {
		return slot{}
	}
	return p[off&pageMask]
}

// put 寫入一次；已存在時保留原值並回傳原值。
func (t *table) put(off int, v slot) slot {
	p := t.pages[off>>pageBits]
	if p == nil {
		p = make([]slot, pageSize)
		t.pages[off>>pageBits] = p
	}
	cur := &p[off&pageMask]
	if cur.present() {
		return *cur
	}
	v.flags |= slotPresent
	*cur = v
	t.filled++
	return v
}

// radix 為各維度大小，offset 以混合進位計算。
type radix []int

func (r radix) size() int {
	n := 1
	for _, d := range r {
		n *= d
	}
	return n
}

func (r radix) offset(idx ...int) int {
	off := 0
	for i, v := range idx {
		off = off*r[i] + v
	}
	return off
}

// dim 依開關決定維度大小：關閉時收斂為 1。
func dim(on bool, n int) int {
	if on {
		return n
	}
	return 1
}

// clampIdx 把 buff 計數壓到維度範圍內（關閉的維度固定為 0）。
func clampIdx(v uint8, size int) int {
	return min(int(v), size-1)
}
