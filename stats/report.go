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

package stats

import (
	"time"

	"gonum.org/v1/gonum/stat/distuv"
)

// 信賴區間
type CI struct {
	Lo float64 `json:"lo" yaml:"lo"`
	Hi float64 `json:"hi" yaml:"hi"`
}

// McReport Monte Carlo 統計報告
type McReport struct {
	Summary  *SummaryReport `json:"summary" yaml:"summary"`
	Outcomes *OutcomeReport `json:"outcomes" yaml:"outcomes"`
	Quality  *QualityReport `json:"quality" yaml:"quality"`
	isDone   bool
}

type SummaryReport struct {
	Title        string        `json:"title" yaml:"title"`
	Seed         int64         `json:"seed" yaml:"seed"`
	Trials       int           `json:"trials" yaml:"trials"`
	Success      int           `json:"success" yaml:"success"`
	SuccessRate  float64       `json:"success_rate" yaml:"success_rate"`
	SuccessCI    CI            `json:"success_ci" yaml:"success_ci"`
	HighQuality  int           `json:"high_quality" yaml:"high_quality"`
	HQRate       float64       `json:"hq_rate" yaml:"hq_rate"`
	HQCI         CI            `json:"hq_ci" yaml:"hq_ci"`
	Elapsed      time.Duration `json:"elapsed" yaml:"elapsed"`
	TrialsPerSec float64       `json:"trials_per_sec" yaml:"trials_per_sec"`
}

// OutcomeReport 各結局的次數與比例，次數總和等於 Trials。
type OutcomeReport struct {
	Labels []string  `json:"labels" yaml:"labels"`
	Counts []int     `json:"counts" yaml:"counts"`
	Rates  []float64 `json:"rates" yaml:"rates"`
}

// QualityReport 非錯誤試驗的品質分布。
//
// 記錄時只記 int，Done 時才換算比例與分位數。
type QualityReport struct {
	MaxQuality uint32    `json:"max_quality" yaml:"max_quality"`
	Buckets    []string  `json:"buckets" yaml:"buckets"`
	Counts     []int     `json:"counts" yaml:"counts"`
	Dist       []float64 `json:"dist" yaml:"dist"`
	Mean       float64   `json:"mean" yaml:"mean"`
	P10        int       `json:"p10_pct" yaml:"p10_pct"`
	P50        int       `json:"p50_pct" yaml:"p50_pct"`
	P90        int       `json:"p90_pct" yaml:"p90_pct"`
	Hist       []int     `json:"-" yaml:"-"` // 依百分比 0..100
	Sum        uint64    `json:"-" yaml:"-"`
}

// Done 將累積計數換算成比例與信賴區間，只執行一次。
func (r *McReport) Done() {
	if r.isDone {
		return
	}
	s := r.Summary
	n := s.Trials
	s.SuccessRate, s.SuccessCI = proportionCICP(s.Success, n, 0.95)
	s.HQRate, s.HQCI = proportionCICP(s.HighQuality, n, 0.95)
	if sec := s.Elapsed.Seconds(); sec > 0 {
		s.TrialsPerSec = float64(n) / sec
	}

	r.Outcomes.Rates = make([]float64, len(r.Outcomes.Counts))
	for i, c := range r.Outcomes.Counts {
		if n > 0 {
			r.Outcomes.Rates[i] = float64(c) / float64(n)
		}
	}

	q := r.Quality
	total := 0
	for _, c := range q.Counts {
		total += c
	}
	q.Dist = make([]float64, len(q.Counts))
	for i, c := range q.Counts {
		if total > 0 {
			q.Dist[i] = float64(c) / float64(total)
		}
	}
	if total > 0 {
		q.Mean = float64(q.Sum) / float64(total)
	}
	q.P10 = histQuantile(q.Hist, 0.10)
	q.P50 = histQuantile(q.Hist, 0.50)
	q.P90 = histQuantile(q.Hist, 0.90)
	r.isDone = true
}

// Count 回傳某結局的次數。
func (r *McReport) Count(o Outcome) int {
	if int(o) >= len(r.Outcomes.Counts) {
		return 0
	}
	return r.Outcomes.Counts[o]
}

// Clopper–Pearson exact CI for binomial proportion (k successes out of n)
func proportionCICP(k int, n int, confidence float64) (pHat float64, ci CI) {
	if n == 0 {
		return 0, CI{0, 1}
	}
	alpha := 1 - confidence
	pHat = float64(k) / float64(n)

	if k == 0 {
		ci.Lo = 0
	} else {
		b := distuv.Beta{Alpha: float64(k), Beta: float64(n - k + 1)}
		ci.Lo = b.Quantile(alpha / 2)
	}
	if k == n {
		ci.Hi = 1
	} else {
		b := distuv.Beta{Alpha: float64(k + 1), Beta: float64(n - k)}
		ci.Hi = b.Quantile(1 - alpha/2)
	}
	return
}

// histQuantile 以最近秩法從直方圖取第 q 分位的索引。
func histQuantile(hist []int, q float64) int {
	total := 0
	for _, c := range hist {
		total += c
	}
	if total == 0 {
		return 0
	}
	rank := min(int(q*float64(total)), total-1)
	acc := 0
	for i, c := range hist {
		acc += c
		if acc > rank {
			return i
		}
	}
	return len(hist) - 1
}
