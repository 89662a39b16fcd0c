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

import (
	"context"
	"runtime"
	"slices"
	"sync"
	"sync/atomic"

	"github.com/zintix-labs/craftlab/craft"
	"github.com/zintix-labs/craftlab/errs"
	"golang.org/x/sync/errgroup"
)

// dfsActions 為搜尋使用的技能（不含機率技能與失敗變體）。
var dfsActions = []craft.Action{
	craft.BasicSynthesis,
	craft.BasicTouch,
	craft.RefinedTouch,
	craft.MastersMend,
	craft.Observe,
	craft.TricksOfTheTrade,
	craft.WasteNot,
	craft.Veneration,
	craft.StandardTouch,
	craft.GreatStrides,
	craft.Innovation,
	craft.FinalAppraisal,
	craft.WasteNotII,
	craft.ByregotsBlessing,
	craft.PreciseTouch,
	craft.MuscleMemory,
	craft.CarefulSynthesis,
	craft.Manipulation,
	craft.PrudentTouch,
	craft.Reflect,
	craft.PreparatoryTouch,
	craft.Groundwork,
	craft.DelicateSynthesis,
	craft.IntensiveSynthesis,
	craft.TrainedEye,
	craft.AdvancedTouch,
	craft.PrudentSynthesis,
	craft.TrainedFinesse,
	craft.HeartAndSoul,
	craft.ImmaculateMend,
	craft.TrainedPerfection,
	craft.QuickInnovation,
}

// checkEvery 每展開多少個節點檢查一次 ctx。
const checkEvery = 1 << 10

// DFS 深度受限的 branch-and-bound 搜尋。
type DFS struct {
	MaxDepth int
	// Workers 可同時執行的額外 worker 數；0 使用 GOMAXPROCS-1，負值不開 worker。
	Workers int
}

// DFSResult 搜尋結果。
type DFSResult struct {
	Score   Score          `json:"score"`
	Actions []craft.Action `json:"actions"`
	Nodes   int64          `json:"nodes"`
}

type dfsRun struct {
	ctx      context.Context
	g        *errgroup.Group
	maxDepth int
	nodes    atomic.Int64

	avail   atomic.Int64
	mu      sync.Mutex
	results []DFSResult
}

// acquire 以 CAS 取得一個 worker 名額；沒有名額時不等待。
func (r *dfsRun) acquire() bool {
	for {
		n := r.avail.Load()
		if n <= 0 {
			return false
		}
		if r.avail.CompareAndSwap(n, n-1) {
			return true
		}
	}
}

// Search 從 s 搜尋最佳序列。ctx 取消時回傳 errs.CodeCanceled。
//
// 有空閒 worker 時，可展開的分支會交給 worker，否則推回本地堆疊；
// worker 以交出當下的最佳分數剪枝，之後以嚴格大於合併結果。
func (d *DFS) Search(ctx context.Context, s *craft.Status) (DFSResult, error) {
	workers := d.Workers
	if workers == 0 {
		workers = runtime.GOMAXPROCS(0) - 1
	}
	g, gctx := errgroup.WithContext(ctx)
	run := &dfsRun{ctx: gctx, g: g, maxDepth: d.MaxDepth}
	run.avail.Store(int64(max(workers, 0)))

	best := run.walk(*s, nil, DFSResult{Score: ScoreOf(s, 0)})
	if err := g.Wait(); err != nil {
		return DFSResult{}, err
	}
	if err := ctx.Err(); err != nil {
		return DFSResult{}, canceled(err)
	}
	for _, r := range run.results {
		if r.Score.Better(best.Score) {
			best = r
		}
	}
	best.Nodes = run.nodes.Load()
	return best, nil
}

func canceled(err error) error {
	e := errs.NewCode(errs.Warn, errs.CodeCanceled, "dfs search canceled")
	e.Cause = err
	return e
}

type frame struct {
	s    craft.Status
	next int
}

func (r *dfsRun) skip(a craft.Action, s *craft.Status, depth int) bool {
	b := &s.Buffs
	switch {
	case a == craft.FinalAppraisal && b.FinalAppraisal > 0:
		return true
	case a == craft.HeartAndSoul && !s.Attributes().Specialist:
		return true
	case a == craft.AdvancedTouch && b.Observed == 0 && b.TouchCombo != 2:
		return true
	case depth > r.maxDepth:
		return true
	}
	return s.IsActionAllowed(a) != nil
}

// walk 以明確堆疊搜尋，回傳本 goroutine 找到的最佳結果（可能就是 best 本身）。
func (r *dfsRun) walk(start craft.Status, prefix []craft.Action, best DFSResult) DFSResult {
	stack := []frame{{s: start}}
	seq := slices.Clone(prefix)
	maxQ := start.Recipe().Quality
	var n int64
	defer func() { r.nodes.Add(n) }()

	for len(stack) > 0 {
		if n++; n%checkEvery == 0 && r.ctx.Err() != nil {
			return best
		}
		top := &stack[len(stack)-1]
		if top.next >= len(dfsActions) {
			stack = stack[:len(stack)-1]
			if len(stack) > 0 {
				seq = seq[:len(seq)-1]
			}
			continue
		}
		a := dfsActions[top.next]
		top.next++
		depth := len(seq) + 1
		if r.skip(a, &top.s, depth) {
			continue
		}
		ns := top.s
		ns.CastAction(a)

		if ns.IsFinished() {
			if sc := ScoreOf(&ns, depth); sc.Better(best.Score) {
				best = DFSResult{Score: sc, Actions: append(slices.Clone(seq), a)}
			}
			continue
		}
		if best.Score.Quality == maxQ && int(best.Score.Steps) < depth {
			continue
		}
		if r.acquire() {
			branch := append(slices.Clone(seq), a)
			snapshot := best
			r.g.Go(func() error {
				defer r.avail.Add(1)
				res := r.walk(ns, branch, snapshot)
				r.mu.Lock()
				r.results = append(r.results, res)
				r.mu.Unlock()
				return nil
			})
			continue
		}
		stack = append(stack, frame{s: ns})
		seq = append(seq, a)
	}
	return best
}
