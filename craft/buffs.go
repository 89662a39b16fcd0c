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

// LimitedActionState 每次製作只能使用一次的技能狀態。
type LimitedActionState uint8

const (
	Unused LimitedActionState = iota
	Active
	Used
)

// Buffs 目前生效中的 buff 計數。計時型 buff 以剩餘步數表示。
type Buffs struct {
	InnerQuiet        uint8              `json:"inner_quiet"`
	Innovation        uint8              `json:"innovation"`
	Veneration        uint8              `json:"veneration"`
	GreatStrides      uint8              `json:"great_strides"`
	MuscleMemory      uint8              `json:"muscle_memory"`
	Manipulation      uint8              `json:"manipulation"`
	WasteNot          uint8              `json:"waste_not"`
	FinalAppraisal    uint8              `json:"final_appraisal"`
	Observed          uint8              `json:"observed"`
	TouchCombo        uint8              `json:"touch_combo"`
	Expedience        uint8              `json:"expedience"`
	HeartAndSoul      LimitedActionState `json:"heart_and_soul"`
	TrainedPerfection LimitedActionState `json:"trained_perfection"`
	QuickInnovation   LimitedActionState `json:"quick_innovation"`
}

// tick 推進一步，回傳 Manipulation 是否在本步仍生效。
func (b *Buffs) tick() bool {
	dec := func(v *uint8) {
		if *v > 0 {
			*v--
		}
	}
	manip := b.Manipulation > 0
	dec(&b.Innovation)
	dec(&b.Veneration)
	dec(&b.GreatStrides)
	dec(&b.MuscleMemory)
	dec(&b.Manipulation)
	dec(&b.WasteNot)
	dec(&b.FinalAppraisal)
	dec(&b.Expedience)
	return manip
}
