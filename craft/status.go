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

package craft

import "github.com/zintix-labs/craftlab/errs"

// env 為同一組 (屬性, 配方) 共用且不可變的資料，Status 複製時只複製指標。
type env struct {
	attrs        Attributes
	recipe       Recipe
	baseProgress uint64
	baseQuality  uint64
}

// Status 製作狀態。以值複製即為 clone。
type Status struct {
	env         *env
	Buffs       Buffs     `json:"buffs"`
	Progress    uint32    `json:"progress"`
	Quality     uint32    `json:"quality"`
	Durability  uint16    `json:"durability"`
	CraftPoints uint16    `json:"craft_points"`
	Step        uint16    `json:"step"`
	Condition   Condition `json:"condition"`
}

// NewStatus 建立初始狀態。配方要求等級高於屬性等級 +5 時回傳錯誤。
func NewStatus(attrs Attributes, recipe Recipe) (*Status, error) {
	recipe = recipe.Normalize()
	if uint16(recipe.JobLevel) > uint16(attrs.Level)+5 {
		return nil, ErrPlayerLevelLowerThanRecipe
	}
	if recipe.Difficulty == 0 || recipe.Durability == 0 {
		return nil, errs.NewWarn("recipe difficulty and durability must > 0")
	}
	if recipe.Durability%5 != 0 {
		return nil, errs.Warnf("recipe durability must be a multiple of 5, got %d", recipe.Durability)
	}
	e := &env{attrs: attrs, recipe: recipe}
	// 整數運算：先放大 100 倍再取整
	bp := (uint64(attrs.Craftsmanship)*1000/uint64(recipe.ProgressDivider) + 200)
	bq := (uint64(attrs.Control)*1000/uint64(recipe.QualityDivider) + 3500)
	if attrs.Level <= recipe.JobLevel {
		bp = bp * uint64(recipe.ProgressModifier) / 100
		bq = bq * uint64(recipe.QualityModifier) / 100
	}
	e.baseProgress = bp / 100
	e.baseQuality = bq / 100
	return &Status{
		env:         e,
		Durability:  recipe.Durability,
		CraftPoints: attrs.CraftPoints,
	}, nil
}

// WithInitQuality 回傳起始品質為 q 的新狀態（超過上限時截斷）。
func (s *Status) WithInitQuality(q uint32) *Status {
	c := *s
	c.Quality = min(q, s.env.recipe.Quality)
	return &c
}

// WithAttributes 回傳換成屬性 a 的狀態副本；進度、品質、資源、buff 與步數維持不變。
func (s *Status) WithAttributes(a Attributes) (*Status, error) {
	n, err := NewStatus(a, s.env.recipe)
	if err != nil {
		return nil, err
	}
	c := *s
	c.env = n.env
	return &c, nil
}

func (s *Status) Attributes() Attributes { return s.env.attrs }
func (s *Status) Recipe() Recipe         { return s.env.recipe }
func (s *Status) BaseProgress() uint32   { return uint32(s.env.baseProgress) }
func (s *Status) BaseQuality() uint32    { return uint32(s.env.baseQuality) }

// SameEnv 回報兩個狀態是否來自同一組屬性與配方。
func (s *Status) SameEnv(o *Status) bool {
	return s.env == o.env || (s.env.attrs == o.env.attrs && s.env.recipe == o.env.recipe)
}

// IsFinished 進度完成或耐久歸零。
func (s *Status) IsFinished() bool {
	return s.Progress >= s.env.recipe.Difficulty || s.Durability == 0
}

// CraftPoint 套用連擊與球色後的 CP 消耗。
func (s *Status) CraftPoint(a Action) uint16 {
	cp := actionTable[a].cp
	switch a {
	case StandardTouch:
		if s.Buffs.TouchCombo == 1 {
			cp = 18
		}
	case AdvancedTouch:
		if s.Buffs.TouchCombo == 2 || s.Buffs.Observed > 0 {
			cp = 18
		}
	}
	if s.Condition == Pliant {
		cp = (cp + 1) / 2
	}
	return cp
}

// CalcDurability 套用 buff 與球色後的耐久消耗。
func (s *Status) CalcDurability(base uint16) uint16 {
	if base == 0 || s.Buffs.TrainedPerfection == Active {
		return 0
	}
	d := base
	if s.Buffs.WasteNot > 0 {
		d = (d + 1) / 2
	}
	if s.Condition == Sturdy {
		d = (d + 1) / 2
	}
	return d
}

// SuccessRate 成功率（百分比）。
func (s *Status) SuccessRate(a Action) uint8 {
	r := actionTable[a].rate
	if (a == FocusedSynthesis || a == FocusedTouch) && s.Buffs.Observed > 0 {
		r = 100
	}
	if s.Condition == Centered {
		r += 25
	}
	return min(r, 100)
}

// CalcSynthesis 以效率（百分比）計算本步進度。
func (s *Status) CalcSynthesis(eff uint64) uint32 {
	mod := uint64(100)
	if s.Buffs.Veneration > 0 {
		mod += 50
	}
	if s.Buffs.MuscleMemory > 0 {
		mod += 100
	}
	cond := uint64(100)
	if s.Condition == Malleable {
		cond = 150
	}
	return uint32(s.env.baseProgress * eff * cond * mod / 1_000_000)
}

// CalcTouch 以效率（百分比）計算本步品質。
func (s *Status) CalcTouch(eff uint64) uint32 {
	mod := uint64(100)
	if s.Buffs.Innovation > 0 {
		mod += 50
	}
	if s.Buffs.GreatStrides > 0 {
		mod += 100
	}
	iq := 100 + 10*uint64(s.Buffs.InnerQuiet)
	var cond uint64
	switch s.Condition {
	case Good:
		cond = 150
	case Excellent:
		cond = 400
	case Poor:
		cond = 50
	default:
		cond = 100
	}
	return uint32(s.env.baseQuality * eff * cond * iq * mod / 100_000_000)
}

// byLevel 依製作者等級選擇效率。
func (s *Status) byLevel(level uint8, below, above uint64) uint64 {
	if s.env.attrs.Level < level {
		return below
	}
	return above
}

// synthesisEff 回傳技能的進度效率（百分比），非推進技能回傳 0。
func (s *Status) synthesisEff(a Action) uint64 {
	switch a {
	case BasicSynthesis:
		return s.byLevel(31, 100, 120)
	case RapidSynthesis:
		return s.byLevel(63, 250, 500)
	case CarefulSynthesis:
		return s.byLevel(82, 150, 180)
	case Groundwork:
		return s.byLevel(86, 300, 360)
	case MuscleMemory:
		return 300
	case FocusedSynthesis:
		return 200
	case IntensiveSynthesis:
		return 400
	case PrudentSynthesis:
		return 180
	case DelicateSynthesis:
		return 100
	default:
		return 0
	}
}

// touchEff 回傳技能的品質效率（百分比），非加工技能回傳 0。
func (s *Status) touchEff(a Action) uint64 {
	switch a {
	case BasicTouch, HastyTouch, PrudentTouch, RefinedTouch, TrainedFinesse:
		return 100
	case StandardTouch:
		return 125
	case PreciseTouch, FocusedTouch, AdvancedTouch, DaringTouch:
		return 150
	case PreparatoryTouch:
		return 200
	case Reflect:
		return 300
	case ByregotsBlessing:
		return 100 + 20*uint64(s.Buffs.InnerQuiet)
	case DelicateSynthesis:
		return s.byLevel(94, 100, 150)
	default:
		return 0
	}
}

// IsActionAllowed 檢查技能前置條件，回傳 nil 或 CastError。
func (s *Status) IsActionAllowed(a Action) error {
	if !a.Valid() {
		return ErrUnknownAction
	}
	if s.IsFinished() {
		return ErrCraftingAlreadyFinished
	}
	if s.env.attrs.Level < a.Level() {
		return ErrPlayerLevelTooLow
	}
	if s.CraftPoints < s.CraftPoint(a) {
		return ErrCraftPointNotEnough
	}
	b := &s.Buffs
	switch a {
	case MuscleMemory, Reflect:
		if s.Step != 0 {
			return ErrOnlyAllowedInFirstStep
		}
	case TrainedEye:
		if s.Step != 0 {
			return ErrOnlyAllowedInFirstStep
		}
		if uint16(s.env.attrs.Level) < uint16(s.env.recipe.JobLevel)+10 {
			return ErrLevelGapMustGreaterThanTen
		}
	case ByregotsBlessing:
		if b.InnerQuiet == 0 {
			return ErrRequireInnerQuiet
		}
	case TrainedFinesse:
		if b.InnerQuiet < 10 {
			return ErrRequireInnerQuiet10
		}
	case PrudentTouch, PrudentSynthesis:
		if b.WasteNot > 0 {
			return ErrNotAllowedInWasteNot
		}
	case PreciseTouch, IntensiveSynthesis, TricksOfTheTrade:
		if s.Condition != Good && s.Condition != Excellent && b.HeartAndSoul != Active {
			return ErrRequireGoodOrExcellent
		}
	case HeartAndSoul:
		if !s.env.attrs.Specialist {
			return ErrRequireSpecialist
		}
		if b.HeartAndSoul != Unused {
			return ErrAlreadyUsed
		}
	case QuickInnovation:
		if !s.env.attrs.Specialist {
			return ErrRequireSpecialist
		}
		if b.QuickInnovation != Unused {
			return ErrAlreadyUsed
		}
		if b.Innovation > 0 {
			return ErrInnovationActive
		}
	case TrainedPerfection:
		if b.TrainedPerfection != Unused {
			return ErrAlreadyUsed
		}
	case DaringTouch:
		if b.Expedience == 0 {
			return ErrRequireExpedience
		}
	}
	return nil
}

// Cast 先檢查再施放。
func (s *Status) Cast(a Action) error {
	if err := s.IsActionAllowed(a); err != nil {
		return err
	}
	s.CastAction(a)
	return nil
}

// CastAction 就地套用技能，不做前置條件檢查。
// 失敗變體只消耗資源，不產生效果。
func (s *Status) CastAction(a Action) { s.cast(a, true) }

// CastFailed 套用技能失敗的結果：有失敗變體時施放變體，
// 否則只消耗資源並推進計時。
func (s *Status) CastFailed(a Action) {
	if fv, ok := a.FailVariant(); ok {
		s.cast(fv, true)
		return
	}
	s.cast(a, false)
}

func (s *Status) cast(a Action, success bool) {
	info := actionTable[a]
	b := &s.Buffs
	r := &s.env.recipe

	cp := s.CraftPoint(a)
	dura := s.CalcDurability(info.dura)

	var prog, qual uint32
	if eff := s.synthesisEff(a); success && eff > 0 {
		if a == Groundwork && s.Durability < dura {
			eff /= 2
		}
		prog = s.CalcSynthesis(eff)
	}
	if eff := s.touchEff(a); success && eff > 0 {
		qual = s.CalcTouch(eff)
	}
	if success && a == TrainedEye {
		qual = r.Quality
	}

	// 進度
	if prog > 0 {
		if b.FinalAppraisal > 0 && s.Progress+prog >= r.Difficulty {
			prog = r.Difficulty - 1 - s.Progress
			b.FinalAppraisal = 0
		}
		s.Progress = min(s.Progress+prog, r.Difficulty)
		b.MuscleMemory = 0
	}
	// 品質
	if qual > 0 || (success && a == TrainedEye) {
		s.Quality = min(s.Quality+qual, r.Quality)
	}
	if success && a.isTouch() {
		b.GreatStrides = 0
		switch a {
		case ByregotsBlessing:
			b.InnerQuiet = 0
		case Reflect, PreparatoryTouch, PreciseTouch:
			b.InnerQuiet += 2
		case RefinedTouch:
			b.InnerQuiet++
			if b.TouchCombo == 1 {
				b.InnerQuiet++
			}
		case TrainedFinesse:
		default:
			b.InnerQuiet++
		}
		b.InnerQuiet = min(b.InnerQuiet, 10)
	}
	switch a {
	case PreciseTouch, IntensiveSynthesis, TricksOfTheTrade:
		if s.Condition != Good && s.Condition != Excellent && b.HeartAndSoul == Active {
			b.HeartAndSoul = Used
		}
	}

	// 資源
	s.CraftPoints -= min(cp, s.CraftPoints)
	s.Durability -= min(dura, s.Durability)
	if info.dura > 0 && b.TrainedPerfection == Active {
		b.TrainedPerfection = Used
	}
	switch {
	case !success:
	case a == MastersMend:
		s.Durability = min(s.Durability+30, r.Durability)
	case a == ImmaculateMend:
		s.Durability = r.Durability
	case a == TricksOfTheTrade:
		s.CraftPoints = min(s.CraftPoints+20, s.env.attrs.CraftPoints)
	}

	// buff 計時
	if !info.exempt {
		if manip := b.tick(); manip && a != Manipulation && s.Durability > 0 {
			s.Durability = min(s.Durability+5, r.Durability)
		}
		b.Observed = 0
		switch {
		case a == Observe:
			b.Observed = 1
			b.TouchCombo = 0
		case a == BasicTouch:
			b.TouchCombo = 1
		case a == StandardTouch && b.TouchCombo == 1:
			b.TouchCombo = 2
		default:
			b.TouchCombo = 0
		}
	}

	// 新增 buff
	ext := uint8(0)
	if s.Condition == Primed {
		ext = 2
	}
	if success {
		s.grant(a, ext)
	}
	s.Step++
}

// grant 施放成功後設定新的 buff；Primed 延長 ext 步。
func (s *Status) grant(a Action, ext uint8) {
	b := &s.Buffs
	switch a {
	case MuscleMemory:
		b.MuscleMemory = 5 + ext
	case Veneration:
		b.Veneration = 4 + ext
	case Innovation:
		b.Innovation = 4 + ext
	case GreatStrides:
		b.GreatStrides = 3 + ext
	case WasteNot:
		b.WasteNot = 4 + ext
	case WasteNotII:
		b.WasteNot = 8 + ext
	case Manipulation:
		b.Manipulation = 8 + ext
	case FinalAppraisal:
		b.FinalAppraisal = 5 + ext
	case HeartAndSoul:
		b.HeartAndSoul = Active
	case QuickInnovation:
		b.Innovation = 1
		b.QuickInnovation = Used
	case TrainedPerfection:
		b.TrainedPerfection = Active
	case HastyTouch:
		b.Expedience = 1
	}
}

// isTouch 回報技能是否為加工類（消耗闊步、累積內靜）。
func (a Action) isTouch() bool {
	switch a {
	case BasicTouch, HastyTouch, StandardTouch, ByregotsBlessing, PreciseTouch,
		PrudentTouch, AdvancedTouch, Reflect, PreparatoryTouch, DelicateSynthesis,
		TrainedFinesse, RefinedTouch, DaringTouch, FocusedTouch:
		return true
	default:
		return false
	}
}

var hqTable = [101]uint8{
	1, 1, 1, 1, 1, 2, 2, 2, 2, 3, 3, 3, 3, 4, 4, 4, 4, 5, 5, 5,
	5, 6, 6, 6, 6, 7, 7, 7, 7, 8, 8, 8, 9, 9, 9, 10, 10, 10, 11, 11,
	11, 12, 12, 12, 13, 13, 13, 14, 14, 14, 15, 15, 15, 16, 16, 17, 17, 17, 18, 18,
	18, 19, 19, 20, 20, 21, 22, 23, 24, 26, 28, 31, 34, 38, 42, 47, 52, 58, 64, 68,
	71, 74, 76, 78, 80, 81, 82, 83, 84, 85, 86, 87, 88, 89, 90, 91, 92, 94, 96, 98,
	100,
}

// HighQualityProbability 依品質百分比查表得到 HQ 機率；配方不可 HQ 時回傳 false。
func (s *Status) HighQualityProbability() (uint8, bool) {
	r := &s.env.recipe
	if r.NoHQ || r.Quality == 0 {
		return 0, false
	}
	pct := min(uint64(s.Quality)*100/uint64(r.Quality), 100)
	return hqTable[pct], true
}

// Collectability 收藏價值。
func (s *Status) Collectability() uint32 {
	return s.Quality / 10
}
