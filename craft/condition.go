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

// Condition 球色。
type Condition uint8

const (
	Normal Condition = iota
	Good
	Excellent
	Poor
	Centered
	Sturdy
	Pliant
	Malleable
	Primed
	GoodOmen

	conditionCount
)

var conditionNames = [conditionCount]string{
	"normal", "good", "excellent", "poor", "centered",
	"sturdy", "pliant", "malleable", "primed", "good_omen",
}

func (c Condition) String() string {
	if c >= conditionCount {
		return "unknown"
	}
	return conditionNames[c]
}

// conditions flag 的位元，與配方資料一致
const (
	FlagNormal    uint16 = 1 << 0
	FlagGood      uint16 = 1 << 1
	FlagExcellent uint16 = 1 << 2
	FlagPoor      uint16 = 1 << 3
	FlagCentered  uint16 = 1 << 4
	FlagSturdy    uint16 = 1 << 5
	FlagPliant    uint16 = 1 << 6
	FlagMalleable uint16 = 1 << 7
	FlagPrimed    uint16 = 1 << 8
	FlagGoodOmen  uint16 = 1 << 9

	basicFlags = FlagNormal | FlagGood | FlagExcellent | FlagPoor
)

// Follow 回傳由前一球色決定的下一球色。
// Good→Normal、Excellent→Poor、GoodOmen→Good；其餘需要依權重抽樣時回傳 false。
func (c Condition) Follow() (Condition, bool) {
	switch c {
	case Good:
		return Normal, true
	case Excellent:
		return Poor, true
	case GoodOmen:
		return Good, true
	default:
		return Normal, false
	}
}

// WeightedCondition 權重為千分比。
type WeightedCondition struct {
	Condition Condition
	Weight    int
}

// ConditionWeights 依 conditions flag 與製作者等級列出隨機球色的權重，總和為 1000。
func ConditionWeights(flag uint16, level uint8) []WeightedCondition {
	out := make([]WeightedCondition, 0, 8)
	used := 0
	add := func(c Condition, w int) {
		out = append(out, WeightedCondition{c, w})
		used += w
	}
	if flag&^basicFlags == 0 {
		good := 200
		if level < 63 {
			good = 250
		}
		add(Good, good)
		add(Excellent, 40)
	} else {
		if flag&FlagGood != 0 {
			add(Good, 120)
		}
		if flag&FlagCentered != 0 {
			add(Centered, 150)
		}
		if flag&FlagSturdy != 0 {
			add(Sturdy, 150)
		}
		if flag&FlagPliant != 0 {
			add(Pliant, 120)
		}
		if flag&FlagMalleable != 0 {
			add(Malleable, 120)
		}
		if flag&FlagPrimed != 0 {
			add(Primed, 120)
		}
		if flag&FlagGoodOmen != 0 {
			add(GoodOmen, 100)
		}
	}
	return append([]WeightedCondition{{Normal, 1000 - used}}, out...)
}
