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

// Package craftlab 提供製作巨集求解的組裝入口與運行入口。
//
// Lab 把下列地基組裝在一起：
//  1. Catalog：配方預設目錄，設定檔來源一律以 fs.FS 注入（go:embed 或 os.DirFS）。
//  2. Registry：以 (屬性, 配方) 為鍵的求解器登錄表，建構為 single-flight。
//  3. 重型計算的併發上限：DFS、Monte Carlo、適用範圍分析與一次性求解共用同一組配額。
//
// 典型使用情境：
//   - 後端服務：由 Lab 持有 Registry，HTTP handler 透過 Lab 呼叫各項計算。
//   - CLI：以 catalog 預設或旗標組出初始狀態，直接呼叫 Solve / Search / MonteCarlo。
//
// Lab 由應用程式持有，沒有全域單例；Close 之後所有計算入口回傳錯誤。
package craftlab

import (
	"context"
	"io/fs"
	"log/slog"
	"runtime"
	"sync"
	"sync/atomic"

	"github.com/zintix-labs/craftlab/analyzer"
	"github.com/zintix-labs/craftlab/catalog"
	"github.com/zintix-labs/craftlab/craft"
	"github.com/zintix-labs/craftlab/errs"
	"github.com/zintix-labs/craftlab/solver"
	"github.com/zintix-labs/craftlab/stats"
	"golang.org/x/sync/semaphore"
)

// Configs 把一或多個設定檔來源打包成 New 需要的參數。
func Configs(cfgs ...fs.FS) []fs.FS {
	return cfgs
}

// Options Lab 的執行參數
type Options struct {
	Log *slog.Logger
	// MaxJobs 同時進行的重型計算數；<= 0 使用 GOMAXPROCS。
	MaxJobs int
	// DFSWorkers 傳給 solver.DFS.Workers。
	DFSWorkers int
}

type Lab struct {
	cat  *catalog.Catalog
	reg  *Registry
	jobs *semaphore.Weighted
	log  *slog.Logger
	opt  Options

	done      chan struct{}
	closeOnce sync.Once
	closed    atomic.Bool
	reason    atomic.Value // string
}

// New 建立 Lab：註冊所有設定檔並凍結目錄。
func New(cfgs []fs.FS, opt Options) (*Lab, error) {
	if len(cfgs) == 0 {
		return nil, errs.NewFatal("configs required")
	}
	cat, err := catalog.NewAuto(cfgs...)
	if err != nil {
		return nil, err
	}
	if opt.Log == nil {
		opt.Log = slog.Default()
	}
	if opt.MaxJobs <= 0 {
		opt.MaxJobs = runtime.GOMAXPROCS(0)
	}
	return &Lab{
		cat:  cat,
		reg:  NewRegistry(opt.Log),
		jobs: semaphore.NewWeighted(int64(opt.MaxJobs)),
		log:  opt.Log,
		opt:  opt,
		done: make(chan struct{}),
	}, nil
}

func (l *Lab) Catalog() *catalog.Catalog { return l.cat }

func (l *Lab) Registry() *Registry { return l.reg }

// Status 以預設建立初始狀態；attrs 為 nil 時使用預設的建議屬性。
func (l *Lab) Status(id catalog.PresetID, attrs *craft.Attributes) (*craft.Status, error) {
	p, err := l.cat.PresetByID(id)
	if err != nil {
		return nil, err
	}
	return p.NewStatus(attrs)
}

// acquire 取得一份重型計算配額，呼叫端必須呼叫回傳的 release。
func (l *Lab) acquire(ctx context.Context) (func(), error) {
	select {
	case <-l.done:
		return nil, errs.NewCode(errs.Fatal, errs.CodeClosed, "lab closed: "+l.ClosedReason())
	default:
	}
	if err := l.jobs.Acquire(ctx, 1); err != nil {
		e := errs.NewCode(errs.Warn, errs.CodeCanceled, "waiting for job slot canceled")
		e.Cause = err
		return nil, e
	}
	return func() { l.jobs.Release(1) }, nil
}

// Solve 一次性建立求解器並從 s 走完整條序列，不經過 Registry。
func (l *Lab) Solve(ctx context.Context, s *craft.Status, cfg solver.Config) ([]craft.Action, error) {
	release, err := l.acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer release()
	sv, err := solver.New(s, cfg)
	if err != nil {
		return nil, err
	}
	acts := sv.ReadAll(s)
	if _, err := solver.Replay(s, acts); err != nil {
		return nil, err
	}
	return acts, nil
}

// Search 以 branch-and-bound DFS 搜尋深度不超過 maxDepth 的最佳序列。
func (l *Lab) Search(ctx context.Context, s *craft.Status, maxDepth int) (solver.DFSResult, error) {
	release, err := l.acquire(ctx)
	if err != nil {
		return solver.DFSResult{}, err
	}
	defer release()
	d := &solver.DFS{MaxDepth: maxDepth, Workers: l.opt.DFSWorkers}
	return d.Search(ctx, s)
}

// MonteCarloResult 依配方種類只會填入 Statistics 或 Collectable 其中之一。
type MonteCarloResult struct {
	Seed        int64                           `json:"seed"`
	Statistics  *analyzer.Statistics            `json:"statistics,omitempty"`
	Collectable *analyzer.CollectableStatistics `json:"collectable,omitempty"`
	Report      *stats.McReport                 `json:"report"`
}

// MonteCarlo refine 不為 nil 時以收藏價值分段，否則以 HQ 機率分段。
func (l *Lab) MonteCarlo(ctx context.Context, s *craft.Status, acts []craft.Action, n int, opt analyzer.Options, refine *craft.CollectablesShopRefine) (*MonteCarloResult, error) {
	release, err := l.acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer release()
	r, err := analyzer.NewRunner(s, acts, opt)
	if err != nil {
		return nil, err
	}
	out := &MonteCarloResult{Seed: r.Seed()}
	if refine != nil {
		st, rep, err := r.CollectableStatistics(ctx, n, *refine)
		if err != nil {
			return nil, err
		}
		out.Collectable, out.Report = &st, rep
		return out, nil
	}
	st, rep, err := r.Statistics(ctx, n)
	if err != nil {
		return nil, err
	}
	out.Statistics, out.Report = &st, rep
	return out, nil
}

// Scope 適用範圍分析
func (l *Lab) Scope(ctx context.Context, s *craft.Status, acts []craft.Action) (analyzer.Scope, error) {
	release, err := l.acquire(ctx)
	if err != nil {
		return analyzer.Scope{}, err
	}
	defer release()
	return analyzer.AnalyzeScope(s, acts)
}

// Close 關閉 Lab 並等待 Registry 的背景建構結束。重複呼叫無副作用。
func (l *Lab) Close(reason string) {
	l.closeOnce.Do(func() {
		if reason == "" {
			reason = "closed"
		}
		l.reason.Store(reason)
		l.closed.Store(true)
		close(l.done)
		l.reg.Close()
		l.log.Info("lab closed", slog.String("reason", reason))
	})
}

// Done 在 Close 之後關閉。
func (l *Lab) Done() <-chan struct{} { return l.done }

func (l *Lab) Closed() bool {
	return l.closed.Load()
}

func (l *Lab) ClosedReason() string {
	if v := l.reason.Load(); v != nil {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}
