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

// Package analyzer 對固定的技能序列做統計分析：
// Monte Carlo 模擬結局分布，以及序列仍能成功的屬性範圍。
package analyzer

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"io"
	"math"
	"math/big"
	"time"

	"github.com/cheggaaa/pb/v3"
	"github.com/zintix-labs/craftlab/craft"
	"github.com/zintix-labs/craftlab/errs"
	"github.com/zintix-labs/craftlab/recorder"
	"github.com/zintix-labs/craftlab/sdk/rng"
	"github.com/zintix-labs/craftlab/sdk/sampler"
	"github.com/zintix-labs/craftlab/stats"
	"golang.org/x/sync/errgroup"
)

// Statistics 一般配方的結局計數，總和等於試驗次數。
type Statistics struct {
	Errors      int `json:"errors" yaml:"errors"`
	Unfinished  int `json:"unfinished" yaml:"unfinished"`
	Fails       int `json:"fails" yaml:"fails"`
	Normal      int `json:"normal" yaml:"normal"`
	HighQuality int `json:"high_quality" yaml:"high_quality"`
}

// CollectableStatistics 收藏品配方的結局計數，總和等於試驗次數。
type CollectableStatistics struct {
	Errors           int `json:"errors" yaml:"errors"`
	Unfinished       int `json:"unfinished" yaml:"unfinished"`
	Fails            int `json:"fails" yaml:"fails"`
	NoCollectability int `json:"no_collectability" yaml:"no_collectability"`
	Low              int `json:"low" yaml:"low"`
	Mid              int `json:"mid" yaml:"mid"`
	High             int `json:"high" yaml:"high"`
}

// Options Monte Carlo 參數
type Options struct {
	Title        string `json:"title,omitempty" yaml:"title,omitempty"`
	Seed         int64  `json:"seed,omitempty" yaml:"seed,omitempty"`       // 0 代表隨機
	Workers      int    `json:"workers,omitempty" yaml:"workers,omitempty"` // <= 0 以 1 計
	IgnoreErrors bool   `json:"ignore_errors,omitempty" yaml:"ignore_errors,omitempty"`
	Strict       bool   `json:"strict,omitempty" yaml:"strict,omitempty"`
	ShowProgress bool   `json:"-" yaml:"-"`
}

// Runner 以固定的初始狀態與技能序列重複模擬。
//
// 同一個 seed 與 worker 數量會得到相同的計數。
type Runner struct {
	init    craft.Status
	actions []craft.Action
	opt     Options
	seed    int64
	conds   *sampler.Table[craft.Condition]
}

func NewRunner(s *craft.Status, actions []craft.Action, opt Options) (*Runner, error) {
	if s == nil {
		return nil, errs.NewWarn("status is nil")
	}
	seed := opt.Seed
	if seed == 0 {
		v, err := rand.Int(rand.Reader, big.NewInt(math.MaxInt64))
		if err != nil {
			return nil, errs.Wrap(err, "seed init failed")
		}
		seed = v.Int64()
	}
	if opt.Workers <= 0 {
		opt.Workers = 1
	}
	ws := craft.ConditionWeights(s.Recipe().ConditionsFlag, s.Attributes().Level)
	items := make([]craft.Condition, len(ws))
	weights := make([]int, len(ws))
	for i, w := range ws {
		items[i], weights[i] = w.Condition, w.Weight
	}
	conds, err := sampler.NewTable(items, weights)
	if err != nil {
		return nil, errs.Wrap(err, "condition table init failed")
	}
	return &Runner{
		init:    *s,
		actions: append([]craft.Action(nil), actions...),
		opt:     opt,
		seed:    seed,
		conds:   conds,
	}, nil
}

// Seed 實際使用的種子
func (r *Runner) Seed() int64 { return r.seed }

// Statistics 執行 n 次試驗，以 HQ 機率抽樣區分 Normal / HighQuality。
func (r *Runner) Statistics(ctx context.Context, n int) (Statistics, *stats.McReport, error) {
	rec, err := r.run(ctx, n, r.classifyHQ)
	if err != nil {
		return Statistics{}, nil, err
	}
	c := rec.Outcome.Counts
	st := Statistics{
		Errors:      c[stats.OutcomeError],
		Unfinished:  c[stats.OutcomeUnfinished],
		Fails:       c[stats.OutcomeFail],
		Normal:      c[stats.OutcomeNormal],
		HighQuality: c[stats.OutcomeHighQuality],
	}
	return st, rec.Done(), nil
}

// CollectableStatistics 執行 n 次試驗，以收藏價值門檻分段。
func (r *Runner) CollectableStatistics(ctx context.Context, n int, refine craft.CollectablesShopRefine) (CollectableStatistics, *stats.McReport, error) {
	rec, err := r.run(ctx, n, func(s *craft.Status, _ *rng.Source) stats.Outcome {
		return classifyCollectable(s, refine)
	})
	if err != nil {
		return CollectableStatistics{}, nil, err
	}
	c := rec.Outcome.Counts
	st := CollectableStatistics{
		Errors:           c[stats.OutcomeError],
		Unfinished:       c[stats.OutcomeUnfinished],
		Fails:            c[stats.OutcomeFail],
		NoCollectability: c[stats.OutcomeNoCollectability],
		Low:              c[stats.OutcomeLow],
		Mid:              c[stats.OutcomeMid],
		High:             c[stats.OutcomeHigh],
	}
	return st, rec.Done(), nil
}

type classifier func(s *craft.Status, src *rng.Source) stats.Outcome

// run 將 n 次試驗平均分給 worker，每個 worker 持有自己的亂數源與 recorder，結束後合併。
func (r *Runner) run(ctx context.Context, n int, classify classifier) (*recorder.TrialRecorder, error) {
	if n < 0 {
		return nil, errs.Warnf("trials must >= 0, got %d", n)
	}
	workers := max(1, min(r.opt.Workers, n))
	seeds := rng.NewSeedMaker(r.seed)
	recs := make([]*recorder.TrialRecorder, workers)

	bar := pb.StartNew(n)
	if !r.opt.ShowProgress {
		bar.SetWriter(io.Discard)
	}
	g, ctx := errgroup.WithContext(ctx)
	for w := range workers {
		rec := recorder.NewTrialRecorder(r.opt.Title, r.seed, r.init.Recipe().Quality)
		recs[w] = rec
		src := rng.New(seeds.Next())
		trials := n / workers
		if w < n%workers {
			trials++
		}
		g.Go(func() error {
			start := time.Now()
			defer func() { rec.Elapsed = time.Since(start) }()
			for t := range trials {
				if t&0xff == 0 {
					if err := ctx.Err(); err != nil {
						return err
					}
				}
				s, err := r.trial(src)
				if err != nil {
					if r.opt.Strict {
						return err
					}
					rec.Record(stats.OutcomeError, 0)
				} else {
					rec.Record(classify(&s, src), s.Quality)
				}
				bar.Increment()
			}
			return nil
		})
	}
	err := g.Wait()
	bar.Finish()
	if err != nil {
		var e *errs.E
		if errors.As(err, &e) {
			return nil, err
		}
		c := errs.NewCode(errs.Warn, errs.CodeCanceled, "monte carlo canceled")
		c.Cause = err
		return nil, c
	}
	return recorder.MergeTrialRecorder(recs)
}

// trial 單次試驗。被拒絕的技能在 IgnoreErrors 時略過，否則回傳錯誤。
func (r *Runner) trial(src *rng.Source) (craft.Status, error) {
	s := r.init
	for i, a := range r.actions {
		if s.IsFinished() {
			break
		}
		if err := s.IsActionAllowed(a); err != nil {
			if r.opt.IgnoreErrors {
				continue
			}
			return s, rejected(err, a, i)
		}
		if src.Percent() < s.SuccessRate(a) {
			s.CastAction(a)
		} else {
			s.CastFailed(a)
		}
		if a.ConditionExempt() {
			continue
		}
		if next, ok := s.Condition.Follow(); ok {
			s.Condition = next
		} else if c, ok := r.conds.Pick(src); ok {
			s.Condition = c
		}
	}
	return s, nil
}

func rejected(err error, a craft.Action, pos int) error {
	extra := fmt.Sprintf("pos=%d action=%s", pos, a)
	var ce craft.CastError
	if errors.As(err, &ce) {
		return ce.Wrap(a).With(extra)
	}
	return errs.WrapWithExtra(err, "action rejected", extra)
}

// classifyHQ 未完成、失敗之後依 HQ 機率抽樣；配方不可 HQ 視為錯誤。
func (r *Runner) classifyHQ(s *craft.Status, src *rng.Source) stats.Outcome {
	if o, done := classifyProgress(s); done {
		return o
	}
	p, ok := s.HighQualityProbability()
	if !ok {
		return stats.OutcomeError
	}
	if src.Percent() < p {
		return stats.OutcomeHighQuality
	}
	return stats.OutcomeNormal
}

func classifyCollectable(s *craft.Status, refine craft.CollectablesShopRefine) stats.Outcome {
	if o, done := classifyProgress(s); done {
		return o
	}
	c := s.Collectability()
	switch {
	case c >= refine.HighCollectability:
		return stats.OutcomeHigh
	case c >= refine.MidCollectability:
		return stats.OutcomeMid
	case c >= refine.LowCollectability:
		return stats.OutcomeLow
	default:
		return stats.OutcomeNoCollectability
	}
}

func classifyProgress(s *craft.Status) (stats.Outcome, bool) {
	if !s.IsFinished() {
		return stats.OutcomeUnfinished, true
	}
	if s.Progress < s.Recipe().Difficulty {
		return stats.OutcomeFail, true
	}
	return 0, false
}
