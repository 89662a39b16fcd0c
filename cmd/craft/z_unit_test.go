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
package main

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/zintix-labs/craftlab/craft"
	"github.com/zintix-labs/craftlab/dto"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestParseActions(t *testing.T) {
	acts, err := parseActions([]string{"muscle_memory,veneration", "Basic Synthesis", " , "})
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	want := []craft.Action{craft.MuscleMemory, craft.Veneration, craft.BasicSynthesis}
	if len(acts) != len(want) {
		t.Fatalf("unexpected actions: %v", acts)
	}
	for i := range want {
		if acts[i] != want[i] {
			t.Fatalf("action %d: %s", i, acts[i])
		}
	}
	if _, err := parseActions([]string{"teleport"}); err == nil {
		t.Fatalf("expected error for unknown action")
	}
}

func TestRecipesCmd(t *testing.T) {
	out, err := execute(t, "recipes")
	if err != nil {
		t.Fatalf("recipes: %v", err)
	}
	if !strings.Contains(out, "endwalker_5720") || !strings.Contains(out, "[collectable]") {
		t.Fatalf("unexpected output:\n%s", out)
	}
}

func TestSimCmd(t *testing.T) {
	out, err := execute(t, "sim", "--preset", "1", "-f", "json", "basic_synthesis,muscle_memory")
	if err != nil {
		t.Fatalf("sim: %v", err)
	}
	var res dto.SimulateResponse
	if err := json.Unmarshal([]byte(out), &res); err != nil {
		t.Fatalf("decode: %v\n%s", err, out)
	}
	if len(res.Rejected) != 1 || res.Rejected[0].Action != craft.MuscleMemory {
		t.Fatalf("unexpected rejected list: %+v", res.Rejected)
	}
}

func TestMacroCmdRoundTrip(t *testing.T) {
	out, err := execute(t, "macro", "-f", "json", "reflect", "basic_touch")
	if err != nil {
		t.Fatalf("macro: %v", err)
	}
	var res dto.MacroResponse
	if err := json.Unmarshal([]byte(out), &res); err != nil {
		t.Fatalf("decode: %v", err)
	}
	out, err = execute(t, "macro", "--code", res.Code)
	if err != nil {
		t.Fatalf("macro --code: %v", err)
	}
	if !strings.Contains(out, `/ac "Reflect" <wait.3>`) || !strings.Contains(out, "code: "+res.Code) {
		t.Fatalf("unexpected macro text:\n%s", out)
	}
	if _, err := execute(t, "macro"); err == nil {
		t.Fatalf("expected error without actions")
	}
}

func TestMonteCarloCmd(t *testing.T) {
	out, err := execute(t, "mc", "--preset", "1", "-f", "json", "-n", "50", "--seed", "3", "-w", "2", "basic_synthesis")
	if err != nil {
		t.Fatalf("montecarlo: %v", err)
	}
	var res struct {
		Seed       int64 `json:"seed"`
		Statistics struct {
			Normal      int `json:"normal"`
			HighQuality int `json:"high_quality"`
			Errors      int `json:"errors"`
		} `json:"statistics"`
	}
	if err := json.Unmarshal([]byte(out), &res); err != nil {
		t.Fatalf("decode: %v\n%s", err, out)
	}
	if res.Seed != 3 || res.Statistics.Errors != 0 || res.Statistics.Normal+res.Statistics.HighQuality != 50 {
		t.Fatalf("unexpected result: %+v", res)
	}
}

func TestScopeAndSolveText(t *testing.T) {
	out, err := execute(t, "scope", "--preset", "1", "basic_synthesis", "basic_synthesis")
	if err != nil || !strings.Contains(out, "craftsmanship:") {
		t.Fatalf("scope: %v\n%s", err, out)
	}
	out, err = execute(t, "solve", "--preset", "1", "--kind", "progress")
	if err != nil {
		t.Fatalf("solve: %v", err)
	}
	if !strings.Contains(out, "actions (") || !strings.Contains(out, "code: ") {
		t.Fatalf("unexpected solve output:\n%s", out)
	}
}

func TestRootFlagErrors(t *testing.T) {
	if _, err := execute(t, "recipes", "-f", "xml"); err == nil {
		t.Fatalf("expected error for unknown format")
	}
	if _, err := execute(t, "solve", "--kind", "magic"); err == nil {
		t.Fatalf("expected error for unknown solver kind")
	}
	if _, err := execute(t, "sim", "--preset", "424242", "basic_synthesis"); err == nil {
		t.Fatalf("expected error for unknown preset")
	}
}
