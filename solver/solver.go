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

// Package solver 實作製作巨集的求解器。
//
// 所有求解器以同一個全序 Score 比較候選序列：
//   - Progress：記憶化 DP，只用推進類技能，求最大進度。
//   - Quality：疊在 Progress 上的記憶化 DP，保證剩餘資源仍能完成進度。
//   - Composite：先做品質、預留收尾技能的資源，再以 Progress 收尾。
//   - DFS：不限技能集合的 branch-and-bound 深度優先搜尋，可平行。
//
// DP 求解器不是併發安全的（表格延遲填入），呼叫端需自行序列化。
package solver

import (
	"fmt"

	"github.com/zintix-labs/craftlab/craft"
	"github.com/zintix-labs/craftlab/errs"
)

// Solver 為可互換的求解策略。
type Solver interface {
	// Init 預熱表格（可省略）。
	Init()
	// Read 回傳下一步建議技能；沒有建議時回傳 false。
	Read(s *craft.Status) (craft.Action, bool)
	// ReadAll 從 s 開始反覆 Read 直到沒有建議、技能被拒絕或製作結束。
	ReadAll(s *craft.Status) []craft.Action
}

// Kind 求解器種類。
type Kind string

const (
	KindComposite Kind = "composite"
	KindQuality   Kind = "quality"
	KindProgress  Kind = "progress"
)

// Config 求解器設定。關閉的技能不會出現在結果中，對應的表格維度也會收斂成 1。
type Config struct {
	Kind         Kind `json:"kind" yaml:"kind"`
	Manipulation bool `json:"manipulation" yaml:"manipulation"`
	WasteNot     bool `json:"waste_not" yaml:"waste_not"`
	Observe      bool `json:"observe" yaml:"observe"`
}

// New 依 cfg.Kind 建立求解器；base 決定屬性、配方與資源上限。
func New(base *craft.Status, cfg Config) (Solver, error) {
	switch cfg.Kind {
	case KindComposite, "":
		return NewComposite(base, cfg), nil
	case KindQuality:
		return NewQuality(base, cfg), nil
	case KindProgress:
		return NewProgress(base, cfg), nil
	default:
		return nil, errs.Warnf("unknown solver kind: %q", cfg.Kind)
	}
}

// readAll 為共用的貪婪走訪。
func readAll(read func(*craft.Status) (craft.Action, bool), s *craft.Status) []craft.Action {
	cur := *s
	var out []craft.Action
	for !cur.IsFinished() {
		a, ok := read(&cur)
		if !ok || cur.IsActionAllowed(a) != nil {
			break
		}
		cur.CastAction(a)
		out = append(out, a)
	}
	return out
}

// Replay 依序施放並回傳最終狀態。任一技能被拒絕視為求解器內部錯誤。
func Replay(s *craft.Status, actions []craft.Action) (craft.Status, error) {
	cur := *s
	for i, a := range actions {
		if err := cur.IsActionAllowed(a); err != nil {
			e := errs.NewCode(errs.Fatal, errs.CodeInvariant, "solver proposed a rejected action")
			e.Extra = fmt.Sprintf("pos=%d action=%s", i, a)
			e.Cause = err
			return cur, e
		}
		cur.CastAction(a)
	}
	return cur, nil
}
