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

import (
	"errors"
	"testing"
)

func endwalkerRecipe() Recipe {
	return Recipe{Rlv: 620, JobLevel: 90, Difficulty: 5720, Quality: 12900, Durability: 70, ConditionsFlag: 15}
}

func endwalkerAttrs() Attributes {
	return Attributes{Level: 90, Craftsmanship: 4214, Control: 3528, CraftPoints: 691}
}

func mustStatus(t *testing.T, a Attributes, r Recipe) *Status {
	t.Helper()
	s, err := NewStatus(a, r)
	if err != nil {
		t.Fatalf("new status: %v", err)
	}
	return s
}

func mustCast(t *testing.T, s *Status, acts ...Action) {
	t.Helper()
	for _, a := range acts {
		if err := s.Cast(a); err != nil {
			t.Fatalf("cast %s at step %d: %v", a, s.Step, err)
		}
	}
}

func TestNewStatusBase(t *testing.T) {
	s := mustStatus(t, endwalkerAttrs(), endwalkerRecipe())
	if s.BaseProgress() != 244 {
		t.Fatalf("base progress: want 244, got %d", s.BaseProgress())
	}
	if s.BaseQuality() != 239 {
		t.Fatalf("base quality: want 239, got %d", s.BaseQuality())
	}
	if s.Durability != 70 || s.CraftPoints != 691 || s.Step != 0 {
		t.Fatalf("unexpected initial status: %+v", s)
	}
}

func TestNewStatusLevelGap(t *testing.T) {
	r := endwalkerRecipe()
	r.JobLevel = 96
	if _, err := NewStatus(endwalkerAttrs(), r); !errors.Is(err, ErrPlayerLevelLowerThanRecipe) {
		t.Fatalf("expected level error, got %v", err)
	}
}

func TestOpener(t *testing.T) {
	s := mustStatus(t, endwalkerAttrs(), endwalkerRecipe())
	mustCast(t, s, MuscleMemory, Manipulation, Veneration, WasteNotII, Groundwork, Groundwork, Groundwork)
	if s.Progress != 5562 {
		t.Fatalf("progress: want 5562, got %d", s.Progress)
	}
	if s.Durability != 55 || s.CraftPoints != 419 {
		t.Fatalf("resources: want dura 55 cp 419, got %d %d", s.Durability, s.CraftPoints)
	}
	if s.Buffs.Manipulation != 3 || s.Buffs.WasteNot != 5 || s.Buffs.Veneration != 0 {
		t.Fatalf("unexpected buffs: %+v", s.Buffs)
	}
	if s.Buffs.MuscleMemory != 0 {
		t.Fatalf("muscle memory should be consumed")
	}
	mustCast(t, s, BasicSynthesis)
	if !s.IsFinished() || s.Progress != 5720 {
		t.Fatalf("basic synthesis should finish, progress %d", s.Progress)
	}
}

func TestTouchCombo(t *testing.T) {
	s := mustStatus(t, endwalkerAttrs(), endwalkerRecipe())
	mustCast(t, s, BasicTouch)
	if s.Quality != 239 || s.Buffs.InnerQuiet != 1 || s.Buffs.TouchCombo != 1 {
		t.Fatalf("after basic touch: q=%d %+v", s.Quality, s.Buffs)
	}
	if cp := s.CraftPoint(StandardTouch); cp != 18 {
		t.Fatalf("combo standard touch cp: want 18, got %d", cp)
	}
	mustCast(t, s, StandardTouch)
	if s.Quality != 239+328 || s.Buffs.TouchCombo != 2 {
		t.Fatalf("after standard touch: q=%d combo=%d", s.Quality, s.Buffs.TouchCombo)
	}
	if cp := s.CraftPoint(AdvancedTouch); cp != 18 {
		t.Fatalf("combo advanced touch cp: want 18, got %d", cp)
	}
	mustCast(t, s, AdvancedTouch)
	if s.Buffs.TouchCombo != 0 || s.Buffs.InnerQuiet != 3 {
		t.Fatalf("combo should end: %+v", s.Buffs)
	}
}

func TestObserveEnablesAdvancedTouch(t *testing.T) {
	s := mustStatus(t, endwalkerAttrs(), endwalkerRecipe())
	mustCast(t, s, Observe)
	if s.CraftPoint(AdvancedTouch) != 18 {
		t.Fatalf("observed advanced touch should cost 18")
	}
	if s.SuccessRate(FocusedSynthesis) != 100 {
		t.Fatalf("observed focused synthesis should always succeed")
	}
}

func TestFirstStepOnly(t *testing.T) {
	s := mustStatus(t, endwalkerAttrs(), endwalkerRecipe())
	if err := s.IsActionAllowed(MuscleMemory); err != nil {
		t.Fatalf("muscle memory at step 0: %v", err)
	}
	mustCast(t, s, Observe)
	if err := s.IsActionAllowed(Reflect); err != ErrOnlyAllowedInFirstStep {
		t.Fatalf("reflect after step 0: got %v", err)
	}
}

func TestRequirements(t *testing.T) {
	s := mustStatus(t, endwalkerAttrs(), endwalkerRecipe())
	cases := []struct {
		a    Action
		want error
	}{
		{ByregotsBlessing, ErrRequireInnerQuiet},
		{TrainedFinesse, ErrRequireInnerQuiet10},
		{PreciseTouch, ErrRequireGoodOrExcellent},
		{HeartAndSoul, ErrRequireSpecialist},
		{DaringTouch, ErrPlayerLevelTooLow},
		{TrainedEye, ErrLevelGapMustGreaterThanTen},
	}
	for _, c := range cases {
		if got := s.IsActionAllowed(c.a); got != c.want {
			t.Fatalf("%s: want %v, got %v", c.a, c.want, got)
		}
	}
	mustCast(t, s, WasteNot)
	if err := s.IsActionAllowed(PrudentTouch); err != ErrNotAllowedInWasteNot {
		t.Fatalf("prudent touch under waste not: %v", err)
	}
}

func TestFinalAppraisal(t *testing.T) {
	s := mustStatus(t, endwalkerAttrs(), endwalkerRecipe())
	s.Progress = 5700
	mustCast(t, s, Veneration, FinalAppraisal)
	if s.Buffs.Veneration != 4 {
		t.Fatalf("final appraisal must not tick buffs, veneration=%d", s.Buffs.Veneration)
	}
	mustCast(t, s, BasicSynthesis)
	if s.Progress != 5719 || s.Buffs.FinalAppraisal != 0 {
		t.Fatalf("final appraisal cap: progress=%d fa=%d", s.Progress, s.Buffs.FinalAppraisal)
	}
}

func TestTrainedPerfection(t *testing.T) {
	a := Attributes{Level: 100, Craftsmanship: 5000, Control: 4500, CraftPoints: 600}
	r := Recipe{Rlv: 690, JobLevel: 100, Difficulty: 6600, Quality: 12000, Durability: 80}
	s := mustStatus(t, a, r)
	mustCast(t, s, TrainedPerfection, Groundwork)
	if s.Durability != 80 {
		t.Fatalf("trained perfection should waive durability, got %d", s.Durability)
	}
	if s.Buffs.TrainedPerfection != Used {
		t.Fatalf("trained perfection should be used")
	}
	if err := s.IsActionAllowed(TrainedPerfection); err != ErrAlreadyUsed {
		t.Fatalf("second trained perfection: %v", err)
	}
}

func TestConditionModifiers(t *testing.T) {
	s := mustStatus(t, endwalkerAttrs(), endwalkerRecipe())
	s.Condition = Pliant
	if cp := s.CraftPoint(Manipulation); cp != 48 {
		t.Fatalf("pliant cp: want 48, got %d", cp)
	}
	s.Condition = Sturdy
	if d := s.CalcDurability(10); d != 5 {
		t.Fatalf("sturdy durability: want 5, got %d", d)
	}
	s.Condition = Centered
	if r := s.SuccessRate(RapidSynthesis); r != 75 {
		t.Fatalf("centered rate: want 75, got %d", r)
	}
}

func TestSimulateRecordsRejected(t *testing.T) {
	s := mustStatus(t, endwalkerAttrs(), endwalkerRecipe())
	res := Simulate(s, []Action{ByregotsBlessing, BasicTouch})
	if len(res.Errors) != 1 || res.Errors[0].Pos != 0 || res.Errors[0].Err != ErrRequireInnerQuiet {
		t.Fatalf("unexpected errors: %+v", res.Errors)
	}
	if res.Status.Step != 1 || res.Status.Quality != 239 {
		t.Fatalf("unexpected status: %+v", res.Status)
	}
	if s.Step != 0 {
		t.Fatalf("simulate must not modify input")
	}
}

func TestCraftPointsList(t *testing.T) {
	s := mustStatus(t, endwalkerAttrs(), endwalkerRecipe())
	got := CraftPointsList(s, []Action{BasicTouch, StandardTouch, AdvancedTouch})
	want := []uint16{18, 18, 18}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("cp list: want %v, got %v", want, got)
		}
	}
}

func TestHighQualityProbability(t *testing.T) {
	s := mustStatus(t, endwalkerAttrs(), endwalkerRecipe())
	if p, ok := s.HighQualityProbability(); !ok || p != 1 {
		t.Fatalf("empty quality: %d %v", p, ok)
	}
	full := s.WithInitQuality(99999)
	if p, _ := full.HighQualityProbability(); p != 100 {
		t.Fatalf("full quality: %d", p)
	}
	r := endwalkerRecipe()
	r.NoHQ = true
	nohq := mustStatus(t, endwalkerAttrs(), r)
	if _, ok := nohq.HighQualityProbability(); ok {
		t.Fatalf("no-hq recipe should report false")
	}
}

func TestParseAction(t *testing.T) {
	for _, in := range []string{"great_strides", "Great Strides", "great strides"} {
		a, err := ParseAction(in)
		if err != nil || a != GreatStrides {
			t.Fatalf("parse %q: %v %v", in, a, err)
		}
	}
	if _, err := ParseAction("nope"); err == nil {
		t.Fatalf("expected error")
	}
}

func TestConditionWeightsSum(t *testing.T) {
	for _, flag := range []uint16{15, 15 | FlagCentered | FlagSturdy | FlagPliant, 0x3f3} {
		sum := 0
		for _, w := range ConditionWeights(flag, 90) {
			sum += w.Weight
		}
		if sum != 1000 {
			t.Fatalf("flag %b: weights sum %d", flag, sum)
		}
	}
}

func TestCastFailed(t *testing.T) {
	a := Attributes{Level: 90, Craftsmanship: 4214, Control: 3528, CraftPoints: 691}
	s := mustStatus(t, a, endwalkerRecipe())
	mustCast(t, s, Veneration)
	s.CastFailed(RapidSynthesis)
	if s.Progress != 0 || s.Durability != 60 || s.Step != 2 {
		t.Fatalf("failed rapid synthesis: %+v", s)
	}
	if s.Buffs.Veneration != 3 {
		t.Fatalf("failure must still tick buffs, veneration=%d", s.Buffs.Veneration)
	}
	s.CastFailed(FocusedTouch)
	if s.Quality != 0 || s.Buffs.InnerQuiet != 0 || s.CraftPoints != 691-18-18 {
		t.Fatalf("failed focused touch: q=%d iq=%d cp=%d", s.Quality, s.Buffs.InnerQuiet, s.CraftPoints)
	}
}
