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

package analyzer

import (
	"sort"

	"github.com/zintix-labs/craftlab/craft"
	"github.com/zintix-labs/craftlab/errs"
)

// scopeProbes 作業精度上界的探測次數，全部探測都維持相同步數時視為無上界。
const scopeProbes = 5000

// Range 閉區間，nil 代表該端不存在。
type Range struct {
	Lo *int `json:"lo" yaml:"lo"`
	Hi *int `json:"hi" yaml:"hi"`
}

// Scope 技能序列的適用範圍。
type Scope struct {
	Craftsmanship Range `json:"craftsmanship" yaml:"craftsmanship"`
	// Control 加工精度下界；只有參考結果達到滿品質時才計算。
	Control     *int `json:"control" yaml:"control"`
	CraftPoints int  `json:"craft_points" yaml:"craft_points"`
}

// AnalyzeScope 以 s 的屬性為參考值，找出 actions 仍能成功的屬性範圍。
//
// 假設屬性對結果單調（較高的屬性不會讓較低屬性成功的序列失敗），以二分搜尋取界；
// 單調性不另外驗證。
func AnalyzeScope(s *craft.Status, actions []craft.Action) (Scope, error) {
	if s == nil {
		return Scope{}, errs.NewWarn("status is nil")
	}
	attrs := s.Attributes()
	ref := craft.Simulate(s, actions).Status

	var sc Scope
	sc.CraftPoints = int(s.CraftPoints) - int(ref.CraftPoints)

	var err error
	// 探測沿用 s 的進度、資源與 buff，只換屬性
	run := func(a craft.Attributes) craft.Status {
		st, e := s.WithAttributes(a)
		if e != nil {
			err = e
			return craft.Status{}
		}
		return craft.Simulate(st, actions).Status
	}
	difficulty := s.Recipe().Difficulty

	// 作業精度下界：[0, init] 中最小仍能推滿進度的值
	cm := int(attrs.Craftsmanship)
	if ref.Progress >= difficulty {
		lo := sort.Search(cm+1, func(v int) bool {
			a := attrs
			a.Craftsmanship = uint16(v)
			return run(a).Progress >= difficulty
		})
		sc.Craftsmanship.Lo = &lo
	}
	// 作業精度上界：步數開始改變前的最後一個值
	limit := min(scopeProbes, 65535-cm+1)
	if i := sort.Search(limit, func(i int) bool {
		a := attrs
		a.Craftsmanship = uint16(cm + i)
		return run(a).Step != ref.Step
	}); i < scopeProbes && i > 0 {
		hi := cm + i - 1
		sc.Craftsmanship.Hi = &hi
	}

	// 加工精度下界
	if ref.Quality >= s.Recipe().Quality {
		ctrl := int(attrs.Control)
		lo := sort.Search(ctrl+1, func(v int) bool {
			a := attrs
			a.Control = uint16(v)
			return run(a).Quality >= s.Recipe().Quality
		})
		sc.Control = &lo
	}
	if err != nil {
		return Scope{}, err
	}
	return sc, nil
}
