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

var synthActions = []craft.Action{
	craft.BasicSynthesis,
	craft.WasteNot,
	craft.Veneration,
	craft.WasteNotII,
	craft.CarefulSynthesis,
	craft.Groundwork,
	craft.DelicateSynthesis,
	craft.IntensiveSynthesis,
	craft.PrudentSynthesis,
	craft.Observe,
	craft.TrainedPerfection,
	craft.ImmaculateMend,
	craft.Manipulation,
}

// Progress 只用推進類技能的記憶化 DP。
//
// 鍵：(坯料加工, 崇敬, 掌握, 儉約, 工匠的絕技, 耐久/5, CP)。
// 計算前一律把狀態正規化（進度、品質歸零，球色 Normal），
// 因此每一格都只由鍵決定。
type Progress struct {
	base  craft.Status
	cfg   Config
	dims  radix
	tb    *table
	maxCP int
}

// NewProgress 以 base 的屬性與配方建立；表格大小由 base 的資源上限決定。
func NewProgress(base *craft.Status, cfg Config) *Progress {
	attrs, r := base.Attributes(), base.Recipe()
	p := &Progress{
		base:  *base,
		cfg:   cfg,
		maxCP: int(attrs.CraftPoints),
	}
	p.dims = radix{
		6, // muscle memory 0..5
		5, // veneration 0..4
		dim(cfg.Manipulation && attrs.Level >= craft.Manipulation.Level(), 9),
		dim(cfg.WasteNot && attrs.Level >= craft.WasteNot.Level(), 9),
		dim(attrs.Level >= craft.TrainedPerfection.Level(), 3),
		int(r.Durability/5) + 1,
		p.maxCP + 1,
	}
	p.tb = newTable(p.dims.size())
	return p
}

func (p *Progress) enabled(a craft.Action) bool {
	switch a {
	case craft.Manipulation:
		return p.dims[2] > 1
	case craft.WasteNot, craft.WasteNotII:
		return p.dims[3] > 1
	case craft.Observe:
		return p.cfg.Observe
	default:
		return true
	}
}

// normalize 投影到鍵上的狀態。
func (p *Progress) normalize(s *craft.Status) craft.Status {
	n := p.base
	n.Progress, n.Quality, n.Condition, n.Step = 0, 0, craft.Normal, 1
	n.Buffs = craft.Buffs{
		MuscleMemory:      uint8(clampIdx(s.Buffs.MuscleMemory, p.dims[0])),
		Veneration:        uint8(clampIdx(s.Buffs.Veneration, p.dims[1])),
		Manipulation:      uint8(clampIdx(s.Buffs.Manipulation, p.dims[2])),
		WasteNot:          uint8(clampIdx(s.Buffs.WasteNot, p.dims[3])),
		TrainedPerfection: craft.LimitedActionState(clampIdx(uint8(s.Buffs.TrainedPerfection), p.dims[4])),
	}
	n.Durability = min(s.Durability/5, uint16(p.dims[5]-1)) * 5
	n.CraftPoints = uint16(min(int(s.CraftPoints), p.maxCP))
	return n
}

func (p *Progress) offset(n *craft.Status) int {
	b := &n.Buffs
	return p.dims.offset(
		int(b.MuscleMemory), int(b.Veneration), int(b.Manipulation), int(b.WasteNot),
		int(b.TrainedPerfection), int(n.Durability/5), int(n.CraftPoints),
	)
}

// value 回傳 s 的資源（忽略進度）最多能推進多少進度，以及達成所需步數。
func (p *Progress) value(s *craft.Status) slot {
	n := p.normalize(s)
	off := p.offset(&n)
	if sl := p.tb.get(off); sl.present() {
		return sl
	}
	return p.tb.put(off, p.search(&n))
}

func (p *Progress) search(n *craft.Status) slot {
	var best slot
	if n.Durability == 0 {
		return best
	}
	diff := n.Recipe().Difficulty
	for _, a := range synthActions {
		if !p.enabled(a) || n.IsActionAllowed(a) != nil {
			continue
		}
		ns := *n
		ns.CastAction(a)
		v, st := ns.Progress, uint16(1)
		if !ns.IsFinished() {
			sub := p.value(&ns)
			v, st = v+sub.value, sub.step+1
		}
		v = min(v, diff)
		if v > best.value || (v == best.value && best.hasAction() && st < best.step) {
			best.set(a, v, st)
		}
	}
	return best
}

func (p *Progress) Init() { p.value(&p.base) }

// Read 先求整體預算能達到的進度，再在所有較小的預算中找步數最少、仍能達到該進度的下一步。
func (p *Progress) Read(s *craft.Status) (craft.Action, bool) {
	if s.IsFinished() || !s.SameEnv(&p.base) {
		return 0, false
	}
	full := p.value(s)
	target := min(full.value, s.Recipe().Difficulty-s.Progress)
	if target == 0 || !full.hasAction() {
		return 0, false
	}
	return scanBudgets(s, target, p.value)
}

func (p *Progress) ReadAll(s *craft.Status) []craft.Action { return readAll(p.Read, s) }

// Filled 已計算的格數。
func (p *Progress) Filled() int { return p.tb.filled }

// scanBudgets 在 CP 0..=s.CP 與耐久 5..=s.耐久（每 5 一格）的子預算中，
// 找出值 >= target 且步數最少的建議技能；該技能必須在 s 上可用。
func scanBudgets(s *craft.Status, target uint32, value func(*craft.Status) slot) (craft.Action, bool) {
	var best slot
	found := false
	probe := *s
	for cp := 0; cp <= int(s.CraftPoints); cp++ {
		probe.CraftPoints = uint16(cp)
		for d := 5; d <= int(s.Durability); d += 5 {
			probe.Durability = uint16(d)
			sl := value(&probe)
			if !sl.hasAction() || sl.value < target {
				continue
			}
			if found && sl.step >= best.step {
				continue
			}
			if s.IsActionAllowed(sl.action) != nil {
				continue
			}
			best, found = sl, true
		}
	}
	return best.action, found
}
