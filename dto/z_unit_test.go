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
package dto

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"slices"
	"strings"
	"testing"

	"github.com/zintix-labs/craftlab/catalog"
	"github.com/zintix-labs/craftlab/craft"
	"github.com/zintix-labs/craftlab/demo/demo_configs"
	"github.com/zintix-labs/craftlab/errs"
)

func post(body string) *http.Request {
	return httptest.NewRequest(http.MethodPost, "/v1/x", strings.NewReader(body))
}

func demoCatalog(t *testing.T) *catalog.Catalog {
	t.Helper()
	cat, err := catalog.NewAuto(demo_configs.FS)
	if err != nil {
		t.Fatalf("catalog: %v", err)
	}
	return cat
}

func TestDecodeSimulate(t *testing.T) {
	body := `{"status":{"preset":1001},"actions":["muscle_memory","Veneration","basic_synthesis"]}`
	req, err := Decode[SimulateRequest](post(body))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	want := []craft.Action{craft.MuscleMemory, craft.Veneration, craft.BasicSynthesis}
	if len(req.Actions) != len(want) {
		t.Fatalf("unexpected actions: %v", req.Actions)
	}
	for i := range want {
		if req.Actions[i] != want[i] {
			t.Fatalf("action %d: got %s want %s", i, req.Actions[i], want[i])
		}
	}
	s, refine, err := req.Status.Resolve(demoCatalog(t))
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if refine != nil || s.Recipe().Difficulty != 5720 {
		t.Fatalf("unexpected status: %+v refine=%v", s.Recipe(), refine)
	}
	resp := NewSimulateResponse(s, req.Actions)
	if len(resp.Rejected) != 0 || resp.Status.Step != 3 || len(resp.CraftPoints) != 3 {
		t.Fatalf("unexpected simulate response: %+v", resp)
	}
	if !slices.Contains(resp.Available, craft.BasicSynthesis) || slices.Contains(resp.Available, craft.MuscleMemory) {
		t.Fatalf("available actions after opener: %v", resp.Available)
	}
	for _, a := range resp.Available {
		if a.IsFailVariant() {
			t.Fatalf("fail variant %s listed as available", a)
		}
	}
}

func TestDecodeRejects(t *testing.T) {
	cases := map[string]string{
		"unknown field":   `{"status":{"preset":1},"actions":[],"extra":1}`,
		"unknown action":  `{"status":{"preset":1},"actions":["fly"]}`,
		"no source":       `{"status":{},"actions":[]}`,
		"recipe + preset": `{"status":{"preset":1,"recipe":{"rlv":1,"difficulty":10,"quality":10,"durability":40}},"actions":[]}`,
		"broken json":     `{"status":`,
	}
	for name, body := range cases {
		_, err := Decode[SimulateRequest](post(body))
		if err == nil {
			t.Fatalf("%s: expected error", name)
		}
		var e *errs.E
		if !errors.As(err, &e) || e.ErrLv != errs.Warn {
			t.Fatalf("%s: expected warn error, got %v", name, err)
		}
	}
	if _, err := Decode[SimulateRequest](httptest.NewRequest(http.MethodGet, "/v1/x", nil)); err == nil {
		t.Fatalf("expected error for GET")
	}
}

func TestDecodeBodyLimit(t *testing.T) {
	big := `{"code":"` + strings.Repeat("A", MaxBody) + `"}`
	if _, err := Decode[MacroRequest](post(big)); err == nil {
		t.Fatalf("expected error for oversized body")
	}
}

func TestValidationRanges(t *testing.T) {
	cases := map[string]string{
		"dfs depth":   `{"status":{"preset":1},"max_depth":40}`,
		"mc trials":   `{"status":{"preset":1},"actions":["basic_synthesis"],"trials":0}`,
		"mc workers":  `{"status":{"preset":1},"actions":["basic_synthesis"],"trials":1,"workers":100}`,
		"macro empty": `{"options":{}}`,
	}
	for name, body := range cases {
		var err error
		switch {
		case strings.HasPrefix(name, "dfs"):
			_, err = Decode[DFSRequest](post(body))
		case strings.HasPrefix(name, "mc"):
			_, err = Decode[MonteCarloRequest](post(body))
		default:
			_, err = Decode[MacroRequest](post(body))
		}
		if err == nil {
			t.Fatalf("%s: expected validation error", name)
		}
	}
	if _, err := Decode[MacroRequest](post(`{"options":{"section":"zigzag"},"actions":["observe"]}`)); err == nil {
		t.Fatalf("expected nested option validation error")
	}
}

func TestResolveExplicitAndAdvance(t *testing.T) {
	body := `{"status":{"attributes":{"level":90,"craftsmanship":4214,"control":3528,"craft_points":691},
		"recipe":{"rlv":620,"job_level":90,"difficulty":5720,"quality":12900,"durability":70},"init_quality":500},
		"prefix":["muscle_memory","manipulation"]}`
	req, err := Decode[SolverReadRequest](post(body))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	s, _, err := req.Status.Resolve(nil)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if s.Quality != 500 {
		t.Fatalf("init quality not applied: %d", s.Quality)
	}
	cur, err := Advance(s, req.Prefix)
	if err != nil {
		t.Fatalf("advance: %v", err)
	}
	if cur.Step != 2 || s.Step != 0 {
		t.Fatalf("advance must copy: base=%d cur=%d", s.Step, cur.Step)
	}
	// 第二步不能再用 muscle memory
	if _, err := Advance(s, []craft.Action{craft.BasicSynthesis, craft.MuscleMemory}); errs.CodeOf(err) != errs.CodeActionRejected {
		t.Fatalf("expected action rejected, got %v", err)
	}
	key, err := req.Status.Key(nil)
	if err != nil || key.Recipe.ProgressDivider == 0 {
		t.Fatalf("key must carry a normalized recipe: %+v %v", key, err)
	}
}

func TestMacroResolveActions(t *testing.T) {
	req, err := Decode[MacroRequest](post(`{"actions":["reflect","basic_touch"]}`))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	acts, err := req.ResolveActions()
	if err != nil || len(acts) != 2 {
		t.Fatalf("resolve: %v %v", acts, err)
	}
}
