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
	"testing"

	"github.com/zintix-labs/craftlab/craft"
)

func smallStatus(t *testing.T) *craft.Status {
	t.Helper()
	s, err := craft.NewStatus(
		craft.Attributes{Level: 90, Craftsmanship: 4214, Control: 3528, CraftPoints: 60},
		craft.Recipe{Rlv: 620, JobLevel: 90, Difficulty: 290, Quality: 2000, Durability: 20},
	)
	if err != nil {
		t.Fatalf("new status: %v", err)
	}
	return s
}

func mediumStatus(t *testing.T) *craft.Status {
	t.Helper()
	s, err := craft.NewStatus(
		craft.Attributes{Level: 90, Craftsmanship: 4214, Control: 3528, CraftPoints: 200},
		craft.Recipe{Rlv: 620, JobLevel: 90, Difficulty: 1500, Quality: 4000, Durability: 40},
	)
	if err != nil {
		t.Fatalf("new status: %v", err)
	}
	return s
}

func replay(t *testing.T, s *craft.Status, acts []craft.Action) craft.Status {
	t.Helper()
	end, err := Replay(s, acts)
	if err != nil {
		t.Fatalf("replay %v: %v", acts, err)
	}
	return end
}

func TestScoreOrder(t *testing.T) {
	cases := []struct {
		a, b Score
		want int
	}{
		{Score{100, 0, 9}, Score{99, 5000, 1}, 1},
		{Score{100, 10, 9}, Score{100, 9, 1}, 1},
		{Score{100, 10, 3}, Score{100, 10, 4}, 1},
		{Score{100, 10, 4}, Score{100, 10, 4}, 0},
		{Score{0, 0, 0}, Score{1, 0, 0}, -1},
	}
	for _, c := range cases {
		if got := c.a.Compare(c.b); got != c.want {
			t.Fatalf("%+v vs %+v: want %d, got %d", c.a, c.b, c.want, got)
		}
		if got := c.b.Compare(c.a); got != -c.want {
			t.Fatalf("compare must be antisymmetric for %+v %+v", c.a, c.b)
		}
	}
	// 遞移
	a, b, c := Score{10, 5, 3}, Score{10, 5, 4}, Score{10, 4, 1}
	if !a.Better(b) || !b.Better(c) || !a.Better(c) {
		t.Fatalf("order must be transitive")
	}
}

func TestTablePutOnce(t *testing.T) {
	tb := newTable(10_000)
	if tb.get(5000).present() {
		t.Fatalf("fresh slot must be absent")
	}
	var v slot
	v.set(craft.BasicTouch, 42, 3)
	got := tb.put(5000, v)
	if !got.present() || got.value != 42 {
		t.Fatalf("put should store: %+v", got)
	}
	var w slot
	w.set(craft.Observe, 7, 1)
	if again := tb.put(5000, w); again.value != 42 || again.action != craft.BasicTouch {
		t.Fatalf("present slot must not be overwritten: %+v", again)
	}
	if tb.filled != 1 {
		t.Fatalf("filled: want 1, got %d", tb.filled)
	}
	// 沒有動作的結果也算 present
	if r := tb.put(1, slot{}); !r.present() || r.hasAction() {
		t.Fatalf("empty result must be present without action: %+v", r)
	}
}

func TestRadixOffset(t *testing.T) {
	r := radix{3, 4, 5}
	if r.size() != 60 {
		t.Fatalf("size: %d", r.size())
	}
	seen := make(map[int]bool)
	for i := range 3 {
		for j := range 4 {
			for k := range 5 {
				off := r.offset(i, j, k)
				if off < 0 || off >= 60 || seen[off] {
					t.Fatalf("bad offset %d for (%d,%d,%d)", off, i, j, k)
				}
				seen[off] = true
			}
		}
	}
}

func TestProgressMemoPurity(t *testing.T) {
	s := mediumStatus(t)
	p := NewProgress(s, Config{Observe: true})
	first := p.value(s)
	snap := make(map[int]slot)
	for off := range p.tb.size {
		if sl := p.tb.get(off); sl.present() {
			snap[off] = sl
		}
	}
	p.ReadAll(s)
	if again := p.value(s); again != first {
		t.Fatalf("value changed: %+v -> %+v", first, again)
	}
	for off, sl := range snap {
		if got := p.tb.get(off); got != sl {
			t.Fatalf("slot %d rewritten: %+v -> %+v", off, sl, got)
		}
	}
}

func TestProgressCapped(t *testing.T) {
	s := mediumStatus(t)
	p := NewProgress(s, Config{})
	diff := s.Recipe().Difficulty
	probe := *s
	for cp := 0; cp <= int(s.CraftPoints); cp += 7 {
		for d := 5; d <= int(s.Durability); d += 5 {
			probe.CraftPoints, probe.Durability = uint16(cp), uint16(d)
			if v := p.value(&probe).value; v > diff {
				t.Fatalf("value %d exceeds difficulty %d", v, diff)
			}
		}
	}
	near := *s
	near.Progress = diff - 10
	acts := p.ReadAll(&near)
	end := replay(t, &near, acts)
	if end.Progress != diff || len(acts) != 1 {
		t.Fatalf("near finish should take one step: %v progress=%d", acts, end.Progress)
	}
}

func TestProgressReadAllFinishes(t *testing.T) {
	s := mediumStatus(t)
	p := NewProgress(s, Config{})
	acts := p.ReadAll(s)
	if len(acts) == 0 {
		t.Fatalf("expected actions")
	}
	end := replay(t, s, acts)
	if end.Progress < s.Recipe().Difficulty {
		t.Fatalf("progress %d < %d with %v", end.Progress, s.Recipe().Difficulty, acts)
	}
}

func TestQualityCoupling(t *testing.T) {
	s := mediumStatus(t)
	q := NewQuality(s, Config{})
	cur := *s
	target := s.Recipe().Difficulty
	steps := 0
	for {
		a, ok := q.readTarget(target, &cur)
		if !ok {
			break
		}
		if err := cur.Cast(a); err != nil {
			t.Fatalf("quality proposed rejected %s: %v", a, err)
		}
		steps++
		if v := q.progress.value(&cur).value; v < target {
			t.Fatalf("after %s progress budget %d < %d", a, v, target)
		}
	}
	if steps == 0 || cur.Quality == 0 {
		t.Fatalf("quality phase should add quality")
	}
	rest := q.ReadAll(&cur)
	end := replay(t, &cur, rest)
	if end.Progress < target {
		t.Fatalf("quality solver left craft unfinished: %d", end.Progress)
	}
}

func TestCompositeSmall(t *testing.T) {
	s := smallStatus(t)
	c := NewComposite(s, Config{})
	acts := c.ReadAll(s)
	end := replay(t, s, acts)
	if end.Progress < s.Recipe().Difficulty {
		t.Fatalf("composite unfinished: %v", acts)
	}
	if end.Quality == 0 {
		t.Fatalf("composite should add quality: %v", acts)
	}
	if a, ok := c.Read(s); !ok || a != acts[0] {
		t.Fatalf("Read must return the first action of ReadAll")
	}
}

func TestCompositeKeepsFinisherResources(t *testing.T) {
	s := smallStatus(t)
	cfgs := []Config{{}, {Observe: true}, {Manipulation: true, WasteNot: true, Observe: true}}
	for _, cfg := range cfgs {
		c := NewComposite(s, cfg)
		acts := c.ReadAll(s)
		cur := *s
		for i, a := range acts {
			if err := cur.Cast(a); err != nil {
				t.Fatalf("cfg %+v: action %d %s rejected: %v", cfg, i, a, err)
			}
			if cur.IsFinished() && cur.Progress < s.Recipe().Difficulty {
				t.Fatalf("cfg %+v: craft failed after %v", cfg, acts[:i+1])
			}
		}
		if cur.Progress < s.Recipe().Difficulty {
			t.Fatalf("cfg %+v: composite unfinished: %v", cfg, acts)
		}
		if cur.Quality == 0 {
			t.Fatalf("cfg %+v: composite should add quality: %v", cfg, acts)
		}
	}
}

func TestQualityTablesBounded(t *testing.T) {
	s := smallStatus(t)
	q := NewQuality(s, Config{})
	want := q.value(290, s)
	for target := uint32(1); target <= 3*maxQualityTables; target++ {
		q.value(target, s)
		if len(q.tables) > maxQualityTables {
			t.Fatalf("tables %d exceed bound %d", len(q.tables), maxQualityTables)
		}
		if q.tables[0].target != target {
			t.Fatalf("most recent target should be first, got %d want %d", q.tables[0].target, target)
		}
	}
	if got := q.value(290, s); got != want {
		t.Fatalf("recomputed value differs: %+v vs %+v", got, want)
	}
	q.value(5, s)
	if q.tables[0].target != 5 || q.tables[1].target != 290 {
		t.Fatalf("hit should move table to front: %d %d", q.tables[0].target, q.tables[1].target)
	}
}

func TestDFSNotWorseThanComposite(t *testing.T) {
	s := smallStatus(t)
	comp := NewComposite(s, Config{Observe: true}).ReadAll(s)
	if len(comp) > 6 {
		t.Fatalf("composite sequence too long for exhaustive check: %v", comp)
	}
	cend := replay(t, s, comp)
	if cend.Progress < s.Recipe().Difficulty || cend.Quality == 0 {
		t.Fatalf("composite should finish with quality, got progress %d quality %d: %v", cend.Progress, cend.Quality, comp)
	}
	cs := ScoreOf(&cend, len(comp))

	for _, workers := range []int{-1, 3} {
		d := &DFS{MaxDepth: len(comp), Workers: workers}
		res, err := d.Search(context.Background(), s)
		if err != nil {
			t.Fatalf("dfs: %v", err)
		}
		if cs.Better(res.Score) {
			t.Fatalf("dfs %+v worse than composite %+v", res.Score, cs)
		}
		dend := replay(t, s, res.Actions)
		if got := ScoreOf(&dend, len(res.Actions)); got != res.Score {
			t.Fatalf("dfs score mismatch: %+v vs %+v", got, res.Score)
		}
	}
}

func TestDFSSkipRules(t *testing.T) {
	s := mediumStatus(t)
	r := &dfsRun{maxDepth: 8}
	if r.skip(craft.FinalAppraisal, s, 1) {
		t.Fatalf("final appraisal should be tried when inactive")
	}
	cur := *s
	if err := cur.Cast(craft.FinalAppraisal); err != nil {
		t.Fatalf("cast final appraisal: %v", err)
	}
	if !r.skip(craft.FinalAppraisal, &cur, 2) {
		t.Fatalf("final appraisal should be skipped while active")
	}
	if !r.skip(craft.HeartAndSoul, s, 1) {
		t.Fatalf("heart and soul needs a specialist")
	}
	if !r.skip(craft.BasicSynthesis, s, 9) {
		t.Fatalf("actions beyond max depth should be skipped")
	}
}

func TestDFSCanceled(t *testing.T) {
	s := mediumStatus(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	d := &DFS{MaxDepth: 30, Workers: 2}
	if _, err := d.Search(ctx, s); err == nil {
		t.Fatalf("expected cancel error")
	}
}

func TestNewKinds(t *testing.T) {
	s := smallStatus(t)
	for _, k := range []Kind{KindComposite, KindQuality, KindProgress, ""} {
		sv, err := New(s, Config{Kind: k})
		if err != nil {
			t.Fatalf("kind %q: %v", k, err)
		}
		sv.Init()
		end := replay(t, s, sv.ReadAll(s))
		if end.Progress < s.Recipe().Difficulty {
			t.Fatalf("kind %q did not finish", k)
		}
	}
	if _, err := New(s, Config{Kind: "bogus"}); err == nil {
		t.Fatalf("unknown kind should fail")
	}
}

func TestReplayRejected(t *testing.T) {
	s := smallStatus(t)
	if _, err := Replay(s, []craft.Action{craft.ByregotsBlessing}); err == nil {
		t.Fatalf("expected invariant error")
	}
}

func TestEndwalkerScenario(t *testing.T) {
	if testing.Short() {
		t.Skip("large tables")
	}
	s, err := craft.NewStatus(
		craft.Attributes{Level: 90, Craftsmanship: 4214, Control: 3528, CraftPoints: 691},
		craft.Recipe{Rlv: 620, JobLevel: 90, Difficulty: 5720, Quality: 12900, Durability: 70, ConditionsFlag: 15},
	)
	if err != nil {
		t.Fatalf("new status: %v", err)
	}
	for _, a := range []craft.Action{
		craft.MuscleMemory, craft.Manipulation, craft.Veneration, craft.WasteNotII,
		craft.Groundwork, craft.Groundwork, craft.Groundwork,
	} {
		if err := s.Cast(a); err != nil {
			t.Fatalf("opener %s: %v", a, err)
		}
	}
	c := NewComposite(s, Config{})
	acts := c.ReadAll(s)
	if len(acts) == 0 {
		t.Fatalf("expected a non-empty macro")
	}
	end := replay(t, s, acts)
	if end.Progress < 5720 {
		t.Fatalf("progress %d < 5720 with %v", end.Progress, acts)
	}
}
