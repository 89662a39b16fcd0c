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

// Score 候選序列的評分：進度高者勝，其次品質高者勝，最後步數少者勝。
type Score struct {
	Progress uint32 `json:"progress"`
	Quality  uint32 `json:"quality"`
	Steps    uint16 `json:"steps"`
}

// ScoreOf 以狀態的進度、品質與步數建立評分。
func ScoreOf(s *craft.Status, steps int) Score {
	return Score{Progress: s.Progress, Quality: s.Quality, Steps: uint16(steps)}
}

// Compare 回傳 -1 / 0 / 1。
func (a Score) Compare(b Score) int {
	switch {
	case a.Progress != b.Progress:
		return cmp3(a.Progress > b.Progress)
	case a.Quality != b.Quality:
		return cmp3(a.Quality > b.Quality)
	case a.Steps != b.Steps:
		return cmp3(a.Steps < b.Steps)
	default:
		return 0
	}
}

// Better 嚴格優於。
func (a Score) Better(b Score) bool { return a.Compare(b) > 0 }

func cmp3(gt bool) int {
	if gt {
		return 1
	}
	return -1
}
