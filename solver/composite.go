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

// Composite 先在扣掉收尾技能資源的預算上累積品質，再由 Progress 推進，
// 最後依剩餘進度補上一個便宜的收尾技能。
// 品質階段的每一步都必須讓真實狀態仍能推完剩餘進度。
type Composite struct {
	progress *Progress
	quality  *Quality
	cfg      Config
}

func NewComposite(base *craft.Status, cfg Config) *Composite {
	p := NewProgress(base, cfg)
	return &Composite{progress: p, quality: newQuality(p, base, cfg), cfg: cfg}
}

type finisher struct {
	actions []craft.Action
	cp      uint16
	dura    uint16
}

// pickFinisher 依剩餘進度選擇收尾技能：基礎製作、模範製作、觀察 + 注視製作。
// 門檻以無 buff、Normal 球色的產出計算。
func (c *Composite) pickFinisher(s *craft.Status, remaining uint32) (finisher, bool) {
	plain := *s
	plain.Buffs = craft.Buffs{}
	plain.Condition = craft.Normal
	lv := s.Attributes().Level
	switch {
	case remaining <= plain.CalcSynthesis(basicEff(lv)):
		return finisher{[]craft.Action{craft.BasicSynthesis}, 0, 10}, true
	case lv >= craft.CarefulSynthesis.Level() && remaining <= plain.CalcSynthesis(carefulEff(lv)):
		return finisher{[]craft.Action{craft.CarefulSynthesis}, 7, 10}, true
	case c.cfg.Observe && lv >= craft.FocusedSynthesis.Level() && remaining <= plain.CalcSynthesis(200):
		return finisher{[]craft.Action{craft.Observe, craft.FocusedSynthesis}, 12, 10}, true
	default:
		return finisher{}, false
	}
}

func basicEff(lv uint8) uint64 {
	if lv < 31 {
		return 100
	}
	return 120
}

func carefulEff(lv uint8) uint64 {
	if lv < 82 {
		return 150
	}
	return 180
}

func (c *Composite) Init() { c.quality.Init() }

func (c *Composite) Read(s *craft.Status) (craft.Action, bool) {
	acts := c.ReadAll(s)
	if len(acts) == 0 {
		return 0, false
	}
	return acts[0], true
}

// ReadAll 預留收尾資源後，在品質預算中由大到小搜尋：
// 先降 CP、再降耐久，保留仍能把品質推滿的最小預算；一旦推不滿即停止。
// 連完整預算都推不滿時使用完整預算。
func (c *Composite) ReadAll(s *craft.Status) []craft.Action {
	if s.IsFinished() || !s.SameEnv(&c.quality.base) {
		return nil
	}
	r := s.Recipe()
	fin, ok := c.pickFinisher(s, r.Difficulty-s.Progress)
	if !ok || s.CraftPoints < fin.cp || s.Durability <= fin.dura {
		return c.quality.ReadAll(s)
	}

	reduced := *s
	reduced.CraftPoints -= fin.cp
	reduced.Durability -= fin.dura
	room := r.Quality - min(s.Quality, r.Quality)
	reaches := func(cp, dura uint16) bool {
		probe := reduced
		probe.CraftPoints, probe.Durability = cp, dura
		return c.quality.value(0, &probe).value >= room
	}
	if reaches(reduced.CraftPoints, reduced.Durability) {
		cp := reduced.CraftPoints
		for cp > 0 && reaches(cp-1, reduced.Durability) {
			cp--
		}
		dura := reduced.Durability
		for dura > 5 && reaches(cp, dura-5) {
			dura -= 5
		}
		reduced.CraftPoints, reduced.Durability = cp, dura
	}

	real := *s
	var out []craft.Action
	// 預算上的計畫可能在最後一步超支耐久；一旦真實狀態承受不起，
	// 改用以剩餘進度為耦合目標的 Quality 繼續。
	coupled := false
	for !real.IsFinished() {
		var a craft.Action
		ok := false
		if !coupled {
			a, ok = c.quality.readTarget(0, &reduced)
			ok = ok && reduced.IsActionAllowed(a) == nil && real.IsActionAllowed(a) == nil && c.feasible(&real, a)
			coupled = !ok
		}
		if coupled {
			a, ok = c.quality.readTarget(remaining(&real), &real)
			ok = ok && real.IsActionAllowed(a) == nil && c.feasible(&real, a)
		}
		if !ok {
			break
		}
		if !coupled {
			reduced.CastAction(a)
		}
		real.CastAction(a)
		out = append(out, a)
	}
	for _, a := range c.progress.ReadAll(&real) {
		real.CastAction(a)
		out = append(out, a)
	}
	for _, a := range fin.actions {
		if real.IsActionAllowed(a) != nil {
			break
		}
		real.CastAction(a)
		out = append(out, a)
	}
	return out
}

// feasible 回報在 s 施放 a 之後，Progress 是否仍能推完剩餘進度。
func (c *Composite) feasible(s *craft.Status, a craft.Action) bool {
	next := *s
	next.CastAction(a)
	left := remaining(&next)
	return left == 0 || c.progress.value(&next).value >= left
}

func remaining(s *craft.Status) uint32 {
	return s.Recipe().Difficulty - min(s.Progress, s.Recipe().Difficulty)
}

// Filled 已計算的格數。
func (c *Composite) Filled() int { return c.quality.Filled() }
