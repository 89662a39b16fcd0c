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

package recorder

import (
	"time"

	"github.com/zintix-labs/craftlab/errs"
	"github.com/zintix-labs/craftlab/stats"
)

// TrialRecorder 模擬紀錄員
//
// TrialRecorder 負責紀錄每次試驗的結局，並透過Done輸出統計報表。
// 非併發安全：每個 worker 持有自己的 recorder，結束後以 MergeTrialRecorder 合併。
type TrialRecorder struct {
	Title      string
	Seed       int64
	MaxQuality uint32
	Elapsed    time.Duration
	Outcome    *OutcomeRecord
	Dist       *DistRecord
}

// OutcomeRecord 各結局次數
type OutcomeRecord struct {
	Counts [stats.OutcomeCount]int
	Trials int
}

// DistRecord 品質落點統計
//
// 紀錄時紀錄int資訊
type DistRecord struct {
	Hist       [101]int
	QualitySum uint64
}

func NewTrialRecorder(title string, seed int64, maxQuality uint32) *TrialRecorder {
	return &TrialRecorder{
		Title:      title,
		Seed:       seed,
		MaxQuality: maxQuality,
		Outcome:    new(OutcomeRecord),
		Dist:       new(DistRecord),
	}
}

// Record 紀錄一次試驗。錯誤試驗只計次，不進品質分布。
func (r *TrialRecorder) Record(o stats.Outcome, quality uint32) {
	r.Outcome.Counts[o]++
	r.Outcome.Trials++
	if o == stats.OutcomeError {
		return
	}
	r.Dist.Hist[stats.Percent(quality, r.MaxQuality)]++
	r.Dist.QualitySum += uint64(quality)
}

// Trials 已紀錄的試驗數
func (r *TrialRecorder) Trials() int { return r.Outcome.Trials }

// MergeTrialRecorder 合併多個 worker 的紀錄，計數為精確加總。
func MergeTrialRecorder(rs []*TrialRecorder) (*TrialRecorder, error) {
	if len(rs) == 0 {
		return nil, errs.NewFatal("merge trial record err : empty recorders")
	}
	r0 := rs[0]
	out := NewTrialRecorder(r0.Title, r0.Seed, r0.MaxQuality)
	for _, v := range rs {
		if v.MaxQuality != r0.MaxQuality {
			return out, errs.NewFatal("merge trial record err : different max quality")
		}
		for i, c := range v.Outcome.Counts {
			out.Outcome.Counts[i] += c
		}
		out.Outcome.Trials += v.Outcome.Trials
		for i, c := range v.Dist.Hist {
			out.Dist.Hist[i] += c
		}
		out.Dist.QualitySum += v.Dist.QualitySum
		out.Elapsed = max(out.Elapsed, v.Elapsed)
	}
	return out, nil
}

// Done 輸出統計報表
func (r *TrialRecorder) Done() *stats.McReport {
	c := r.Outcome.Counts
	report := &stats.McReport{
		Summary: &stats.SummaryReport{
			Title:       r.Title,
			Seed:        r.Seed,
			Trials:      r.Outcome.Trials,
			HighQuality: c[stats.OutcomeHighQuality],
			Elapsed:     r.Elapsed,
		},
		Outcomes: &stats.OutcomeReport{
			Labels: stats.OutcomeLabels(),
			Counts: append([]int(nil), c[:]...),
		},
		Quality: &stats.QualityReport{
			MaxQuality: r.MaxQuality,
			Buckets:    stats.Quality.Labels(),
			Counts:     make([]int, len(stats.Quality.Labels())),
			Hist:       append([]int(nil), r.Dist.Hist[:]...),
			Sum:        r.Dist.QualitySum,
		},
	}
	for o := stats.OutcomeNormal; o < stats.OutcomeCount; o++ {
		report.Summary.Success += c[o]
	}
	for pct, n := range r.Dist.Hist {
		report.Quality.Counts[stats.Quality.Index(pct)] += n
	}
	report.Done()
	return report
}
