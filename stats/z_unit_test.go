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

package stats_test

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/zintix-labs/craftlab/stats"
	"gopkg.in/yaml.v3"
)

func buildReport(counts []int, hist []int, sum uint64) *stats.McReport {
	n := 0
	for _, c := range counts {
		n += c
	}
	qc := make([]int, len(stats.Quality.Labels()))
	for pct, c := range hist {
		qc[stats.Quality.Index(pct)] += c
	}
	return &stats.McReport{
		Summary: &stats.SummaryReport{
			Title:       "TestRecipe",
			Trials:      n,
			Success:     counts[stats.OutcomeNormal] + counts[stats.OutcomeHighQuality],
			HighQuality: counts[stats.OutcomeHighQuality],
			Elapsed:     2 * time.Second,
		},
		Outcomes: &stats.OutcomeReport{
			Labels: stats.OutcomeLabels(),
			Counts: counts,
		},
		Quality: &stats.QualityReport{
			MaxQuality: 1000,
			Buckets:    stats.Quality.Labels(),
			Counts:     qc,
			Hist:       hist,
			Sum:        sum,
		},
	}
}

func TestQualityBucketIndex(t *testing.T) {
	labels := stats.Quality.Labels()
	if len(labels) != 11 {
		t.Fatalf("labels len want 11, got %d", len(labels))
	}
	cases := map[int]int{-5: 0, 0: 0, 9: 0, 10: 1, 55: 5, 99: 9, 100: 10, 150: 10}
	for pct, want := range cases {
		if got := stats.Quality.Index(pct); got != want {
			t.Fatalf("Index(%d) want %d, got %d", pct, want, got)
		}
	}
	if labels[10] != "100%" {
		t.Fatalf("last label want 100%%, got %s", labels[10])
	}
}

func TestPercent(t *testing.T) {
	if got := stats.Percent(500, 1000); got != 50 {
		t.Fatalf("want 50, got %d", got)
	}
	if got := stats.Percent(2000, 1000); got != 100 {
		t.Fatalf("capped: want 100, got %d", got)
	}
	if got := stats.Percent(0, 0); got != 100 {
		t.Fatalf("zero max: want 100, got %d", got)
	}
}

func TestOutcomeSuccess(t *testing.T) {
	for o := stats.OutcomeError; o < stats.OutcomeCount; o++ {
		want := o != stats.OutcomeError && o != stats.OutcomeUnfinished && o != stats.OutcomeFail
		if o.Success() != want {
			t.Fatalf("%s success want %v", o, want)
		}
	}
	if stats.OutcomeCount.String() != "unknown" {
		t.Fatalf("out of range outcome should be unknown")
	}
}

func TestReportDone(t *testing.T) {
	counts := make([]int, stats.OutcomeCount)
	counts[stats.OutcomeFail] = 10
	counts[stats.OutcomeNormal] = 60
	counts[stats.OutcomeHighQuality] = 30
	hist := make([]int, 101)
	hist[40] = 10
	hist[80] = 60
	hist[100] = 30
	r := buildReport(counts, hist, 10*400+60*800+30*1000)
	r.Done()

	s := r.Summary
	if s.SuccessRate != 0.9 {
		t.Fatalf("success rate want 0.9, got %v", s.SuccessRate)
	}
	if !(s.SuccessCI.Lo < 0.9 && 0.9 < s.SuccessCI.Hi) {
		t.Fatalf("success CI should cover rate, got %+v", s.SuccessCI)
	}
	if s.HQRate != 0.3 {
		t.Fatalf("hq rate want 0.3, got %v", s.HQRate)
	}
	if s.TrialsPerSec != 50 {
		t.Fatalf("trials/sec want 50, got %v", s.TrialsPerSec)
	}
	if r.Outcomes.Rates[stats.OutcomeNormal] != 0.6 {
		t.Fatalf("normal rate want 0.6, got %v", r.Outcomes.Rates[stats.OutcomeNormal])
	}
	q := r.Quality
	if q.Mean != 820 {
		t.Fatalf("mean want 820, got %v", q.Mean)
	}
	if q.P10 != 80 || q.P50 != 80 || q.P90 != 100 {
		t.Fatalf("percentiles got %d/%d/%d", q.P10, q.P50, q.P90)
	}
	if r.Count(stats.OutcomeHighQuality) != 30 {
		t.Fatalf("count hq want 30")
	}
}

func TestReportDoneEmpty(t *testing.T) {
	r := buildReport(make([]int, stats.OutcomeCount), make([]int, 101), 0)
	r.Done()
	if r.Summary.SuccessRate != 0 || r.Summary.SuccessCI.Hi != 1 {
		t.Fatalf("empty report: got %+v", r.Summary)
	}
	for _, d := range r.Quality.Dist {
		if d != 0 {
			t.Fatalf("empty dist should be zero")
		}
	}
}

func TestRenderers(t *testing.T) {
	counts := make([]int, stats.OutcomeCount)
	counts[stats.OutcomeNormal] = 3
	hist := make([]int, 101)
	hist[100] = 3
	r := buildReport(counts, hist, 3000)

	var jb bytes.Buffer
	if err := r.WriteWith(&jb, &stats.JsonReportRender{}); err != nil {
		t.Fatalf("json: %v", err)
	}
	var back map[string]any
	if err := json.Unmarshal(jb.Bytes(), &back); err != nil {
		t.Fatalf("json decode: %v", err)
	}
	if _, ok := back["summary"]; !ok {
		t.Fatalf("json missing summary: %s", jb.String())
	}

	var yb bytes.Buffer
	if err := r.WriteWith(&yb, &stats.YAMLReportRender{}); err != nil {
		t.Fatalf("yaml: %v", err)
	}
	if !strings.Contains(yb.String(), "counts: [") {
		t.Fatalf("yaml lists should be flow style:\n%s", yb.String())
	}
	var ym map[string]any
	if err := yaml.Unmarshal(yb.Bytes(), &ym); err != nil {
		t.Fatalf("yaml decode: %v", err)
	}

	var tb bytes.Buffer
	r.StdOut(&tb)
	out := tb.String()
	if !strings.Contains(out, "TestRecipe") || !strings.Contains(out, "# normal") {
		t.Fatalf("table output missing rows:\n%s", out)
	}
}
