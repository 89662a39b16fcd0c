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

// Package craft 是製作小遊戲的規則引擎：狀態、技能、球色（condition）與 buff。
//
// 求解器只透過 Status 的方法操作狀態：
//   - IsActionAllowed：前置條件檢查，不修改狀態。
//   - CastAction：就地套用技能，呼叫端需先檢查。
//   - SuccessRate / CalcDurability / CraftPoint：純查詢。
//   - IsFinished：進度完成或耐久歸零。
package craft

import (
	"strings"

	"github.com/zintix-labs/craftlab/errs"
)

// Action 為封閉的技能列舉，以值傳遞。
type Action uint8

const (
	BasicSynthesis Action = iota
	BasicTouch
	MastersMend
	HastyTouch
	RapidSynthesis
	Observe
	TricksOfTheTrade
	WasteNot
	Veneration
	StandardTouch
	GreatStrides
	Innovation
	FinalAppraisal
	WasteNotII
	ByregotsBlessing
	PreciseTouch
	MuscleMemory
	CarefulSynthesis
	Manipulation
	PrudentTouch
	AdvancedTouch
	Reflect
	PreparatoryTouch
	Groundwork
	DelicateSynthesis
	IntensiveSynthesis
	TrainedEye
	HeartAndSoul
	PrudentSynthesis
	TrainedFinesse
	RefinedTouch
	DaringTouch
	QuickInnovation
	ImmaculateMend
	TrainedPerfection
	FocusedSynthesis
	FocusedTouch
	RapidSynthesisFail
	HastyTouchFail
	DaringTouchFail

	actionCount
)

// ActionCount 技能總數（含失敗變體）。
const ActionCount = int(actionCount)

type actionInfo struct {
	key     string // json / yaml / url 使用的名稱
	display string // 遊戲內巨集使用的名稱
	level   uint8
	cp      uint16
	dura    uint16
	rate    uint8 // 基礎成功率（百分比）
	exempt  bool  // 不推進 buff 計時與球色
}

var actionTable = [actionCount]actionInfo{
	BasicSynthesis:     {"basic_synthesis", "Basic Synthesis", 1, 0, 10, 100, false},
	BasicTouch:         {"basic_touch", "Basic Touch", 5, 18, 10, 100, false},
	MastersMend:        {"masters_mend", "Master's Mend", 7, 88, 0, 100, false},
	HastyTouch:         {"hasty_touch", "Hasty Touch", 9, 0, 10, 60, false},
	RapidSynthesis:     {"rapid_synthesis", "Rapid Synthesis", 9, 0, 10, 50, false},
	Observe:            {"observe", "Observe", 13, 7, 0, 100, false},
	TricksOfTheTrade:   {"tricks_of_the_trade", "Tricks of the Trade", 13, 0, 0, 100, false},
	WasteNot:           {"waste_not", "Waste Not", 15, 56, 0, 100, false},
	Veneration:         {"veneration", "Veneration", 15, 18, 0, 100, false},
	StandardTouch:      {"standard_touch", "Standard Touch", 18, 32, 10, 100, false},
	GreatStrides:       {"great_strides", "Great Strides", 21, 32, 0, 100, false},
	Innovation:         {"innovation", "Innovation", 26, 18, 0, 100, false},
	FinalAppraisal:     {"final_appraisal", "Final Appraisal", 42, 1, 0, 100, true},
	WasteNotII:         {"waste_not_ii", "Waste Not II", 47, 98, 0, 100, false},
	ByregotsBlessing:   {"byregots_blessing", "Byregot's Blessing", 50, 24, 10, 100, false},
	PreciseTouch:       {"precise_touch", "Precise Touch", 53, 18, 10, 100, false},
	MuscleMemory:       {"muscle_memory", "Muscle Memory", 54, 6, 10, 100, false},
	CarefulSynthesis:   {"careful_synthesis", "Careful Synthesis", 62, 7, 10, 100, false},
	Manipulation:       {"manipulation", "Manipulation", 65, 96, 0, 100, false},
	PrudentTouch:       {"prudent_touch", "Prudent Touch", 66, 25, 5, 100, false},
	AdvancedTouch:      {"advanced_touch", "Advanced Touch", 84, 46, 10, 100, false},
	Reflect:            {"reflect", "Reflect", 69, 6, 10, 100, false},
	PreparatoryTouch:   {"preparatory_touch", "Preparatory Touch", 71, 40, 20, 100, false},
	Groundwork:         {"groundwork", "Groundwork", 72, 18, 20, 100, false},
	DelicateSynthesis:  {"delicate_synthesis", "Delicate Synthesis", 76, 32, 10, 100, false},
	IntensiveSynthesis: {"intensive_synthesis", "Intensive Synthesis", 78, 6, 10, 100, false},
	TrainedEye:         {"trained_eye", "Trained Eye", 80, 250, 10, 100, false},
	HeartAndSoul:       {"heart_and_soul", "Heart and Soul", 86, 0, 0, 100, true},
	PrudentSynthesis:   {"prudent_synthesis", "Prudent Synthesis", 88, 18, 5, 100, false},
	TrainedFinesse:     {"trained_finesse", "Trained Finesse", 90, 32, 0, 100, false},
	RefinedTouch:       {"refined_touch", "Refined Touch", 92, 24, 10, 100, false},
	DaringTouch:        {"daring_touch", "Daring Touch", 96, 0, 10, 60, false},
	QuickInnovation:    {"quick_innovation", "Quick Innovation", 96, 0, 0, 100, true},
	ImmaculateMend:     {"immaculate_mend", "Immaculate Mend", 98, 112, 0, 100, false},
	TrainedPerfection:  {"trained_perfection", "Trained Perfection", 100, 0, 0, 100, false},
	FocusedSynthesis:   {"focused_synthesis", "Focused Synthesis", 67, 5, 10, 50, false},
	FocusedTouch:       {"focused_touch", "Focused Touch", 68, 18, 10, 50, false},
	RapidSynthesisFail: {"rapid_synthesis_fail", "Rapid Synthesis", 9, 0, 10, 100, false},
	HastyTouchFail:     {"hasty_touch_fail", "Hasty Touch", 9, 0, 10, 100, false},
	DaringTouchFail:    {"daring_touch_fail", "Daring Touch", 96, 0, 10, 100, false},
}

var actionByKey = func() map[string]Action {
	m := make(map[string]Action, actionCount)
	for i := range actionCount {
		m[actionTable[i].key] = i
	}
	return m
}()

// Valid 回報是否為已定義的技能。
func (a Action) Valid() bool { return a < actionCount }

// String 回傳 snake_case 名稱。
func (a Action) String() string {
	if !a.Valid() {
		return "unknown"
	}
	return actionTable[a].key
}

// Display 回傳遊戲內顯示名稱（巨集用）。
func (a Action) Display() string {
	if !a.Valid() {
		return ""
	}
	return actionTable[a].display
}

// Level 技能習得等級。
func (a Action) Level() uint8 { return actionTable[a].level }

// BaseDurability 未經 buff/球色修正的耐久消耗。
func (a Action) BaseDurability() uint16 { return actionTable[a].dura }

// ConditionExempt 回報技能是否不推進 buff 計時與球色。
func (a Action) ConditionExempt() bool { return actionTable[a].exempt }

// IsFailVariant 回報是否為失敗結果（只由機率模擬產生，不作為選擇）。
func (a Action) IsFailVariant() bool {
	return a == RapidSynthesisFail || a == HastyTouchFail || a == DaringTouchFail
}

// FailVariant 回傳機率技能失敗時要施放的替代技能；沒有對應變體時回傳 false。
func (a Action) FailVariant() (Action, bool) {
	switch a {
	case RapidSynthesis:
		return RapidSynthesisFail, true
	case HastyTouch:
		return HastyTouchFail, true
	case DaringTouch:
		return DaringTouchFail, true
	default:
		return a, false
	}
}

// ParseAction 以 snake_case 名稱或遊戲顯示名稱解析技能。
func ParseAction(s string) (Action, error) {
	k := strings.TrimSpace(s)
	if a, ok := actionByKey[k]; ok {
		return a, nil
	}
	k = strings.ToLower(k)
	for i := range actionCount {
		if i.IsFailVariant() {
			continue
		}
		if strings.ToLower(actionTable[i].display) == k {
			return i, nil
		}
	}
	return 0, errs.Warnf("unknown action: %q", s)
}

// MarshalText 讓 JSON / YAML 以名稱輸出。
func (a Action) MarshalText() ([]byte, error) {
	if !a.Valid() {
		return nil, errs.Fatalf("invalid action: %d", uint8(a))
	}
	return []byte(a.String()), nil
}

// UnmarshalText 實作 encoding.TextUnmarshaler。
func (a *Action) UnmarshalText(b []byte) error {
	v, err := ParseAction(string(b))
	if err != nil {
		return err
	}
	*a = v
	return nil
}

// AllActions 回傳所有技能（含失敗變體），依列舉順序。
func AllActions() []Action {
	out := make([]Action, 0, actionCount)
	for i := range actionCount {
		out = append(out, i)
	}
	return out
}
