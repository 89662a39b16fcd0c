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

// SimulateResult 模擬一串技能後的狀態與被拒絕的位置。
type SimulateResult struct {
	Status Status         `json:"status"`
	Errors []CastErrorPos `json:"errors,omitempty"`
}

// Simulate 依序施放技能；被拒絕的技能跳過並記錄位置，其餘照常套用。
// 不改動 s。
func Simulate(s *Status, actions []Action) SimulateResult {
	res := SimulateResult{Status: *s}
	for i, a := range actions {
		if err := res.Status.IsActionAllowed(a); err != nil {
			ce, ok := err.(CastError)
			if !ok {
				ce = ErrUnknownAction
			}
			res.Errors = append(res.Errors, CastErrorPos{Pos: i, Err: ce})
			continue
		}
		res.Status.CastAction(a)
	}
	return res
}

// AllowedList 逐一檢查每個技能在目前狀態是否可用（不含失敗變體）。
func (s *Status) AllowedList(actions []Action) []error {
	out := make([]error, len(actions))
	for i, a := range actions {
		out[i] = s.IsActionAllowed(a)
	}
	return out
}

// CraftPointsList 回傳依序施放時每一步的 CP 消耗；被拒絕的技能記為 0。
func CraftPointsList(s *Status, actions []Action) []uint16 {
	cur := *s
	out := make([]uint16, len(actions))
	for i, a := range actions {
		if cur.IsActionAllowed(a) != nil {
			continue
		}
		out[i] = cur.CraftPoint(a)
		cur.CastAction(a)
	}
	return out
}
