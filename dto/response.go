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
package dto

import (
	"github.com/zintix-labs/craftlab"
	"github.com/zintix-labs/craftlab/analyzer"
	"github.com/zintix-labs/craftlab/craft"
	"github.com/zintix-labs/craftlab/solver"
)

// StatusDTO 對外輸出的製作狀態
type StatusDTO struct {
	Progress      uint32      `json:"progress"`
	Difficulty    uint32      `json:"difficulty"`
	Quality       uint32      `json:"quality"`
	MaxQuality    uint32      `json:"max_quality"`
	Durability    uint16      `json:"durability"`
	MaxDurability uint16      `json:"max_durability"`
	CraftPoints   uint16      `json:"craft_points"`
	Step          uint16      `json:"step"`
	Condition     string      `json:"condition"`
	Buffs         craft.Buffs `json:"buffs"`
	Finished      bool        `json:"finished"`
	// HQ 機率；不可 HQ 的配方省略
	HQPercent *uint8 `json:"hq_percent,omitempty"`
	// Collectability 收藏價值
	Collectability uint32 `json:"collectability"`
}

func NewStatusDTO(s *craft.Status) StatusDTO {
	r := s.Recipe()
	out := StatusDTO{
		Progress:       s.Progress,
		Difficulty:     r.Difficulty,
		Quality:        s.Quality,
		MaxQuality:     r.Quality,
		Durability:     s.Durability,
		MaxDurability:  r.Durability,
		CraftPoints:    s.CraftPoints,
		Step:           s.Step,
		Condition:      s.Condition.String(),
		Buffs:          s.Buffs,
		Finished:       s.IsFinished(),
		Collectability: s.Collectability(),
	}
	if p, ok := s.HighQualityProbability(); ok {
		out.HQPercent = &p
	}
	return out
}

// RejectedDTO 模擬中被拒絕的技能
type RejectedDTO struct {
	Pos    int          `json:"pos"`
	Action craft.Action `json:"action"`
	Reason string       `json:"reason"`
}

type SimulateResponse struct {
	Status   StatusDTO     `json:"status"`
	Rejected []RejectedDTO `json:"rejected,omitempty"`
	// CraftPoints 每個技能在模擬當下的 CP 消耗
	CraftPoints []uint16 `json:"craft_points"`
	// Available 模擬結束後仍可施放的技能（不含失敗變體）
	Available []craft.Action `json:"available"`
}

func NewSimulateResponse(s *craft.Status, actions []craft.Action) SimulateResponse {
	res := craft.Simulate(s, actions)
	out := SimulateResponse{
		Status:      NewStatusDTO(&res.Status),
		CraftPoints: craft.CraftPointsList(s, actions),
	}
	for _, e := range res.Errors {
		out.Rejected = append(out.Rejected, RejectedDTO{Pos: e.Pos, Action: actions[e.Pos], Reason: e.Err.Error()})
	}
	all := craft.AllActions()
	out.Available = []craft.Action{}
	for i, err := range res.Status.AllowedList(all) {
		if err == nil && !all[i].IsFailVariant() {
			out.Available = append(out.Available, all[i])
		}
	}
	return out
}

type SolverResponse struct {
	BuildID string `json:"build_id"`
	State   string `json:"state"`
}

// ActionsResponse 求解結果與走完後的狀態
type ActionsResponse struct {
	Actions []craft.Action `json:"actions"`
	Final   StatusDTO      `json:"final"`
}

func NewActionsResponse(s *craft.Status, actions []craft.Action) ActionsResponse {
	res := craft.Simulate(s, actions)
	if actions == nil {
		actions = []craft.Action{}
	}
	return ActionsResponse{Actions: actions, Final: NewStatusDTO(&res.Status)}
}

type DFSResponse struct {
	Score   solver.Score   `json:"score"`
	Actions []craft.Action `json:"actions"`
	Nodes   int64          `json:"nodes"`
	Final   StatusDTO      `json:"final"`
}

func NewDFSResponse(s *craft.Status, r solver.DFSResult) DFSResponse {
	a := NewActionsResponse(s, r.Actions)
	return DFSResponse{Score: r.Score, Actions: a.Actions, Nodes: r.Nodes, Final: a.Final}
}

type MonteCarloResponse = craftlab.MonteCarloResult

type ScopeResponse = analyzer.Scope

type MacroResponse struct {
	Actions []craft.Action `json:"actions"`
	Macros  []string       `json:"macros"`
	Code    string         `json:"code"`
}

// SolverKeyDTO 登錄表列表用
type SolverKeyDTO struct {
	Key   craftlab.SolverKey `json:"key"`
	State string             `json:"state"`
}
