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

import (
	"github.com/zintix-labs/craftlab/errs"
)

// CastError 技能前置條件不滿足的原因。
type CastError uint8

const (
	ErrCraftingAlreadyFinished CastError = iota + 1
	ErrPlayerLevelTooLow
	ErrCraftPointNotEnough
	ErrOnlyAllowedInFirstStep
	ErrLevelGapMustGreaterThanTen
	ErrRequireInnerQuiet
	ErrRequireInnerQuiet10
	ErrRequireGoodOrExcellent
	ErrNotAllowedInWasteNot
	ErrRequireSpecialist
	ErrAlreadyUsed
	ErrInnovationActive
	ErrRequireExpedience
	ErrUnknownAction
)

var castErrorNames = map[CastError]string{
	ErrCraftingAlreadyFinished:    "crafting-already-finished",
	ErrPlayerLevelTooLow:          "player-level-too-low",
	ErrCraftPointNotEnough:        "craft-point-not-enough",
	ErrOnlyAllowedInFirstStep:     "only-allowed-in-first-step",
	ErrLevelGapMustGreaterThanTen: "level-gap-must-greater-than-ten",
	ErrRequireInnerQuiet:          "require-inner-quiet",
	ErrRequireInnerQuiet10:        "require-inner-quiet-10",
	ErrRequireGoodOrExcellent:     "require-good-or-excellent",
	ErrNotAllowedInWasteNot:       "not-allowed-in-waste-not",
	ErrRequireSpecialist:          "require-specialist",
	ErrAlreadyUsed:                "already-used",
	ErrInnovationActive:           "innovation-active",
	ErrRequireExpedience:          "require-expedience",
	ErrUnknownAction:              "unknown-action",
}

func (e CastError) Error() string {
	if s, ok := castErrorNames[e]; ok {
		return s
	}
	return "cast-error"
}

// MarshalText 以代碼字串輸出。
func (e CastError) MarshalText() ([]byte, error) {
	return []byte(e.Error()), nil
}

// Wrap 轉成帶有 action-rejected 代碼的 *errs.E（Warn 等級）。
func (e CastError) Wrap(a Action) *errs.E {
	r := errs.NewCode(errs.Warn, errs.CodeActionRejected, "action rejected: "+a.String())
	r.Cause = e
	return r
}

// CastErrorPos 模擬整串技能時，第 Pos 個技能被拒絕的原因。
type CastErrorPos struct {
	Pos int       `json:"pos"`
	Err CastError `json:"err"`
}

// ErrPlayerLevelLowerThanRecipe 建立狀態時的等級檢查錯誤。
var ErrPlayerLevelLowerThanRecipe = errs.NewWarn("player-level-lower-than-recipe-requirement")
