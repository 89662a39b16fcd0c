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

// Attributes 製作者屬性。
type Attributes struct {
	Level         uint8  `json:"level" yaml:"level"`
	Craftsmanship uint16 `json:"craftsmanship" yaml:"craftsmanship"`
	Control       uint16 `json:"control" yaml:"control"`
	CraftPoints   uint16 `json:"craft_points" yaml:"craft_points"`
	Specialist    bool   `json:"specialist,omitempty" yaml:"specialist,omitempty"`
}

// Recipe 配方。Divider / Modifier 欄位為零時由 RecipeLevel 表補上。
type Recipe struct {
	Rlv              uint16 `json:"rlv" yaml:"rlv"`
	JobLevel         uint8  `json:"job_level" yaml:"job_level"`
	Difficulty       uint32 `json:"difficulty" yaml:"difficulty"`
	Quality          uint32 `json:"quality" yaml:"quality"`
	Durability       uint16 `json:"durability" yaml:"durability"`
	ConditionsFlag   uint16 `json:"conditions_flag" yaml:"conditions_flag"`
	ProgressDivider  uint16 `json:"progress_divider,omitempty" yaml:"progress_divider,omitempty"`
	QualityDivider   uint16 `json:"quality_divider,omitempty" yaml:"quality_divider,omitempty"`
	ProgressModifier uint16 `json:"progress_modifier,omitempty" yaml:"progress_modifier,omitempty"`
	QualityModifier  uint16 `json:"quality_modifier,omitempty" yaml:"quality_modifier,omitempty"`
	NoHQ             bool   `json:"no_hq,omitempty" yaml:"no_hq,omitempty"`
}

// RecipeLevel 配方等級表的一列。
type RecipeLevel struct {
	ProgressDivider  uint16
	QualityDivider   uint16
	ProgressModifier uint16
	QualityModifier  uint16
}

// recipeLevels 以 rlv 上界分段，查表時取第一個 >= rlv 的區段。
var recipeLevels = []struct {
	upTo uint16
	lv   RecipeLevel
}{
	{50, RecipeLevel{50, 30, 100, 100}},
	{160, RecipeLevel{68, 60, 100, 100}},
	{290, RecipeLevel{88, 80, 100, 100}},
	{450, RecipeLevel{102, 92, 100, 100}},
	{560, RecipeLevel{117, 104, 90, 80}},
	{640, RecipeLevel{130, 115, 75, 70}},
	{710, RecipeLevel{168, 150, 100, 100}},
	{65535, RecipeLevel{180, 165, 100, 100}},
}

// LookupRecipeLevel 依 rlv 取得等級係數。
func LookupRecipeLevel(rlv uint16) RecipeLevel {
	for _, r := range recipeLevels {
		if rlv <= r.upTo {
			return r.lv
		}
	}
	return recipeLevels[len(recipeLevels)-1].lv
}

// Normalize 回傳補齊 Divider / Modifier 的配方。
func (r Recipe) Normalize() Recipe {
	lv := LookupRecipeLevel(r.Rlv)
	if r.ProgressDivider == 0 {
		r.ProgressDivider = lv.ProgressDivider
	}
	if r.QualityDivider == 0 {
		r.QualityDivider = lv.QualityDivider
	}
	if r.ProgressModifier == 0 {
		r.ProgressModifier = lv.ProgressModifier
	}
	if r.QualityModifier == 0 {
		r.QualityModifier = lv.QualityModifier
	}
	if r.ConditionsFlag == 0 {
		r.ConditionsFlag = 15
	}
	return r
}

// CollectablesShopRefine 收藏品的三段收藏價值門檻。
type CollectablesShopRefine struct {
	LowCollectability  uint32 `json:"low_collectability" yaml:"low_collectability"`
	MidCollectability  uint32 `json:"mid_collectability" yaml:"mid_collectability"`
	HighCollectability uint32 `json:"high_collectability" yaml:"high_collectability"`
}
