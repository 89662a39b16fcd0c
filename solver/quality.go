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

var touchActions = []craft.Action{
	craft.BasicTouch,
	craft.RefinedTouch,
	craft.MastersMend,
	craft.WasteNot,
	craft.StandardTouch,
	craft.GreatStrides,
	craft.Innovation,
	craft.WasteNotII,
	craft.ByregotsBlessing,
	craft.PrudentTouch,
	craft.PreparatoryTouch,
	craft.AdvancedTouch,
	craft.TrainedFinesse,
	craft.Manipulation,
	craft.Observe,
	craft.TrainedPerfection,
	craft.ImmaculateMend,
}

// Quality 疊在 Progress 上的記憶化 DP。
//
// 鍵在 Progress 的資源維度外加上內靜、改革、闊步、加工連擊與觀察。
// 每個「剩餘進度」目標各用一張表；候選技能施放後，
// Progress 必須仍能用剩餘資源推進至少該目標，否則不採用。
// 只保留最近使用的 maxQualityTables 張表，被淘汰的目標下次用到時重算。
type Quality struct {
	progress *Progress
	base     craft.Status
	cfg      Config
	dims     radix
	tables   []targetTable // 最近使用的在前
	maxCP    int
}

// maxQualityTables 同時保留的目標表數量
const maxQualityTables = 4

type targetTable struct {
	target uint32
	tb     *table
}

// NewQuality 建立品質求解器，內含一個相同設定的 Progress。
func NewQuality(base *craft.Status, cfg Config) *Quality {
	return newQuality(NewProgress(base, cfg), base, cfg)
}

func newQuality(p *Progress, base *craft.Status, cfg Config) *Quality {
	q := &Quality{
		progress: p,
		base:     *base,
		cfg:      cfg,
		maxCP:    p.maxCP,
	}
	q.dims = radix{
		11, // inner quiet
		5,  // innovation
		4,  // great strides
		3,  // touch combo
		2,  // observed
		p.dims[2], p.dims[3], p.dims[4], p.dims[5], p.dims[6],
	}
	return q
}

func (q *Quality) table(target uint32) *table {
	for i, t := range q.tables {
		if t.target == target {
			copy(q.tables[1:i+1], q.tables[:i])
			q.tables[0] = t
			return t.tb
		}
	}
	t := targetTable{target: target, tb: newTable(q.dims.size())}
	if len(q.tables) < maxQualityTables {
		q.tables = append(q.tables, targetTable{})
	}
	copy(q.tables[1:], q.tables[:len(q.tables)-1])
	q.tables[0] = t
	return t.tb
}

func (q *Quality) normalize(s *craft.Status) craft.Status {
	n := q.base
	n.Progress, n.Quality, n.Condition, n.Step = 0, 0, craft.Normal, 1
	b := &s.Buffs
	n.Buffs = craft.Buffs{
		InnerQuiet:        uint8(clampIdx(b.InnerQuiet, q.dims[0])),
		Innovation:        uint8(clampIdx(b.Innovation, q.dims[1])),
		GreatStrides:      uint8(clampIdx(b.GreatStrides, q.dims[2])),
		TouchCombo:        uint8(clampIdx(b.TouchCombo, q.dims[3])),
		Observed:          uint8(clampIdx(b.Observed, q.dims[4])),
		Manipulation:      uint8(clampIdx(b.Manipulation, q.dims[5])),
		WasteNot:          uint8(clampIdx(b.WasteNot, q.dims[6])),
		TrainedPerfection: craft.LimitedActionState(clampIdx(uint8(b.TrainedPerfection), q.dims[7])),
	}
	n.Durability = min(s.Durability/5, uint16(q.dims[8]-1)) * 5
	n.CraftPoints = uint16(min(int(s.CraftPoints), q.maxCP))
	return n
}

func (q *Quality) offset(n *craft.Status) int {
	b := &n.Buffs
	return q.dims.offset(
		int(b.InnerQuiet), int(b.Innovation), int(b.GreatStrides), int(b.TouchCombo), int(b.Observed),
		int(b.Manipulation), int(b.WasteNot), int(b.TrainedPerfection),
		int(n.Durability/5), int(n.CraftPoints),
	)
}

// value 回傳在保證還能推進 target 進度的前提下，s 的資源最多能加多少品質。
func (q *Quality) value(target uint32, s *craft.Status) slot {
	n := q.normalize(s)
	off := q.offset(&n)
	tb := q.table(target)
	if sl := tb.get(off); sl.present() {
		return sl
	}
	return tb.put(off, q.search(target, &n))
}

func (q *Quality) enabled(a craft.Action, b *craft.Buffs) bool {
	switch a {
	case craft.Manipulation:
		return q.dims[5] > 1
	case craft.WasteNot, craft.WasteNotII:
		return q.dims[6] > 1
	case craft.Observe:
		return q.cfg.Observe
	case craft.AdvancedTouch:
		return b.Observed > 0 || b.TouchCombo == 2
	default:
		return true
	}
}

func (q *Quality) search(target uint32, n *craft.Status) slot {
	var best slot
	if n.Durability == 0 {
		return best
	}
	maxQ := n.Recipe().Quality
	for _, a := range touchActions {
		if !q.enabled(a, &n.Buffs) || n.IsActionAllowed(a) != nil {
			continue
		}
		ns := *n
		ns.CastAction(a)
		if target > 0 && q.progress.value(&ns).value < target {
			continue
		}
		v, st := ns.Quality, uint16(1)
		if !ns.IsFinished() {
			sub := q.value(target, &ns)
			v, st = v+sub.value, sub.step+1
		}
		v = min(v, maxQ)
		if v > best.value || (v == best.value && best.hasAction() && st < best.step) {
			best.set(a, v, st)
		}
	}
	return best
}

func (q *Quality) Init() {
	r := q.base.Recipe()
	q.value(r.Difficulty-min(q.base.Progress, r.Difficulty), &q.base)
}

// readTarget 回傳保證剩餘資源能推進 target 進度的下一個品質技能。
func (q *Quality) readTarget(target uint32, s *craft.Status) (craft.Action, bool) {
	if s.IsFinished() || !s.SameEnv(&q.base) {
		return 0, false
	}
	room := s.Recipe().Quality - min(s.Quality, s.Recipe().Quality)
	if room == 0 {
		return 0, false
	}
	full := q.value(target, s)
	goal := min(full.value, room)
	if goal == 0 || !full.hasAction() {
		return 0, false
	}
	return scanBudgets(s, goal, func(probe *craft.Status) slot { return q.value(target, probe) })
}

// Read 品質階段結束後改由 Progress 接手。
func (q *Quality) Read(s *craft.Status) (craft.Action, bool) {
	r := s.Recipe()
	if a, ok := q.readTarget(r.Difficulty-min(s.Progress, r.Difficulty), s); ok {
		return a, true
	}
	return q.progress.Read(s)
}

func (q *Quality) ReadAll(s *craft.Status) []craft.Action { return readAll(q.Read, s) }

// Filled 所有表格已計算的格數（含內部的 Progress）。
func (q *Quality) Filled() int {
	n := q.progress.Filled()
	for _, t := range q.tables {
		n += t.tb.filled
	}
	return n
}
