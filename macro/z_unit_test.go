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

package macro_test

import (
	"strings"
	"testing"

	"github.com/zintix-labs/craftlab/craft"
	"github.com/zintix-labs/craftlab/macro"
)

func repeat(a craft.Action, n int) []craft.Action {
	out := make([]craft.Action, n)
	for i := range out {
		out[i] = a
	}
	return out
}

func lines(block string) []string {
	return strings.Split(strings.TrimSuffix(block, "\n"), "\n")
}

func TestFormatSingleBlock(t *testing.T) {
	acts := []craft.Action{craft.MuscleMemory, craft.Manipulation, craft.BasicSynthesis}
	blocks, err := macro.Format(acts, macro.Options{})
	if err != nil {
		t.Fatalf("format: %v", err)
	}
	if len(blocks) != 1 {
		t.Fatalf("want 1 block, got %d", len(blocks))
	}
	ls := lines(blocks[0])
	want := []string{
		`/ac "Muscle Memory" <wait.3>`,
		`/ac "Manipulation" <wait.2>`,
		`/ac "Basic Synthesis" <wait.3>`,
	}
	if len(ls) != len(want) {
		t.Fatalf("lines mismatch:\n%s", blocks[0])
	}
	for i := range want {
		if ls[i] != want[i] {
			t.Fatalf("line %d want %q, got %q", i, want[i], ls[i])
		}
	}
}

func TestFormatSections(t *testing.T) {
	acts := repeat(craft.BasicTouch, 20)

	avg, err := macro.Format(acts, macro.Options{Section: macro.SectionAvg})
	if err != nil {
		t.Fatalf("avg: %v", err)
	}
	if len(avg) != 2 || len(lines(avg[0])) != 11 || len(lines(avg[1])) != 11 {
		t.Fatalf("avg should split 10+10 with notify lines, got %d blocks", len(avg))
	}
	if !strings.HasPrefix(lines(avg[1])[10], "/echo Macro #2 finished") {
		t.Fatalf("missing notify line: %q", lines(avg[1])[10])
	}

	greedy, err := macro.Format(acts, macro.Options{Section: macro.SectionGreedy, Notify: macro.NotifyNever, Lock: true})
	if err != nil {
		t.Fatalf("greedy: %v", err)
	}
	if len(greedy) != 2 || len(lines(greedy[0])) != macro.MaxLines || len(lines(greedy[1])) != 1+6 {
		t.Fatalf("greedy should fill 14+6 with lock, got %v", greedy)
	}
	if lines(greedy[1])[0] != "/mlock" {
		t.Fatalf("lock line missing")
	}

	one, err := macro.Format(acts, macro.Options{Section: macro.SectionDisable, WaitInc: 1})
	if err != nil {
		t.Fatalf("disable: %v", err)
	}
	if len(one) != 1 || len(lines(one[0])) != 20 {
		t.Fatalf("disable should not split")
	}
	if !strings.HasSuffix(lines(one[0])[0], "<wait.4>") {
		t.Fatalf("wait increment not applied: %q", lines(one[0])[0])
	}

	if _, err := macro.Format(acts, macro.Options{Section: "bogus"}); err == nil {
		t.Fatalf("unknown section should fail")
	}
}

func TestShareCode(t *testing.T) {
	acts := []craft.Action{
		craft.MuscleMemory, craft.Manipulation, craft.Veneration, craft.WasteNotII,
		craft.Groundwork, craft.Groundwork, craft.Groundwork, craft.BasicSynthesis,
	}
	code, err := macro.Encode(acts)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	if strings.ContainsAny(code, "+/=") {
		t.Fatalf("code should be url safe: %s", code)
	}
	back, err := macro.Decode(code)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(back) != len(acts) {
		t.Fatalf("length mismatch")
	}
	for i := range acts {
		if back[i] != acts[i] {
			t.Fatalf("pos %d want %s, got %s", i, acts[i], back[i])
		}
	}
	for _, bad := range []string{"", "!!", code[:len(code)/2]} {
		if _, err := macro.Decode(bad); err == nil {
			t.Fatalf("decode %q should fail", bad)
		}
	}
	if _, err := macro.Encode([]craft.Action{craft.Action(250)}); err == nil {
		t.Fatalf("invalid action should fail")
	}
}
