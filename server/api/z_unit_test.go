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
package api

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/zintix-labs/craftlab"
	"github.com/zintix-labs/craftlab/demo"
	"github.com/zintix-labs/craftlab/dto"
	"github.com/zintix-labs/craftlab/server/netsvr"
	"github.com/zintix-labs/craftlab/server/svrcfg"
	"github.com/zintix-labs/craftlab/setting"
)

func newTestServer(t *testing.T, set setting.ServerConfig) *netsvr.ChiAdapter {
	t.Helper()
	log := slog.New(slog.DiscardHandler)
	lab, err := demo.NewLab(craftlab.Options{Log: log, MaxJobs: 2, DFSWorkers: -1})
	if err != nil {
		t.Fatalf("new lab: %v", err)
	}
	t.Cleanup(func() { lab.Close("test done") })
	sCfg := &svrcfg.SvrCfg{Log: log, Lab: lab, Setting: set}
	if err := sCfg.Valid(); err != nil {
		t.Fatalf("valid: %v", err)
	}
	svr := netsvr.NewChiServer(":0")
	if err := RegisterRoutes(svr, sCfg); err != nil {
		t.Fatalf("register: %v", err)
	}
	return svr
}

func unlimited() setting.ServerConfig {
	set := setting.DefaultServerConfig()
	set.RateLimit = 0
	return set
}

func do(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var rd io.Reader
	if body != "" {
		rd = strings.NewReader(body)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(method, path, rd))
	return rec
}

func TestHealthAndMetrics(t *testing.T) {
	svr := newTestServer(t, unlimited())
	if rec := do(t, svr, http.MethodGet, "/healthz", ""); rec.Code != http.StatusOK {
		t.Fatalf("healthz: %d", rec.Code)
	}
	rec := do(t, svr, http.MethodGet, "/metrics", "")
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), "craftlab_") {
		t.Fatalf("metrics: %d", rec.Code)
	}
	if rec.Header().Get("X-Request-Id") == "" {
		t.Fatalf("missing request id header")
	}
}

func TestRecipes(t *testing.T) {
	svr := newTestServer(t, unlimited())
	rec := do(t, svr, http.MethodGet, "/v1/recipes", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("recipes: %d %s", rec.Code, rec.Body.String())
	}
	var list []map[string]any
	if err := json.NewDecoder(rec.Body).Decode(&list); err != nil || len(list) != 4 {
		t.Fatalf("expected 4 recipes, got %d (%v)", len(list), err)
	}
	if rec := do(t, svr, http.MethodGet, "/v1/recipes/1001", ""); rec.Code != http.StatusOK {
		t.Fatalf("recipe 1001: %d", rec.Code)
	}
	if rec := do(t, svr, http.MethodGet, "/v1/recipes/999", ""); rec.Code != http.StatusNotFound {
		t.Fatalf("recipe 999: %d", rec.Code)
	}
	if rec := do(t, svr, http.MethodGet, "/v1/recipes/abc", ""); rec.Code != http.StatusBadRequest {
		t.Fatalf("recipe abc: %d", rec.Code)
	}
}

func TestSimulateAndMacro(t *testing.T) {
	svr := newTestServer(t, unlimited())
	rec := do(t, svr, http.MethodPost, "/v1/simulate", `{"status":{"preset":1},"actions":["basic_synthesis","muscle_memory"]}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("simulate: %d %s", rec.Code, rec.Body.String())
	}
	var sim dto.SimulateResponse
	if err := json.NewDecoder(rec.Body).Decode(&sim); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(sim.Rejected) != 1 || sim.Rejected[0].Pos != 1 || sim.Status.Progress == 0 {
		t.Fatalf("unexpected simulate response: %+v", sim)
	}
	if len(sim.Available) != 0 {
		t.Fatalf("finished craft should have no available actions, got %v", sim.Available)
	}

	rec = do(t, svr, http.MethodPost, "/v1/macro", `{"actions":["reflect","basic_touch","basic_synthesis"],"options":{"lock":true}}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("macro: %d %s", rec.Code, rec.Body.String())
	}
	var m dto.MacroResponse
	if err := json.NewDecoder(rec.Body).Decode(&m); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(m.Macros) != 1 || !strings.HasPrefix(m.Macros[0], "/mlock") || m.Code == "" {
		t.Fatalf("unexpected macro response: %+v", m)
	}
	rec = do(t, svr, http.MethodPost, "/v1/macro", `{"code":"`+m.Code+`"}`)
	var back dto.MacroResponse
	if err := json.NewDecoder(rec.Body).Decode(&back); err != nil || len(back.Actions) != 3 {
		t.Fatalf("share code round trip failed: %+v %v", back, err)
	}

	if rec := do(t, svr, http.MethodPost, "/v1/simulate", `{"status":{"preset":1},"oops":1}`); rec.Code != http.StatusBadRequest {
		t.Fatalf("unknown field: %d", rec.Code)
	}
}

func TestSolverLifecycle(t *testing.T) {
	svr := newTestServer(t, unlimited())
	create := `{"status":{"preset":1},"config":{"kind":"composite","manipulation":true,"waste_not":true,"observe":true}}`
	if rec := do(t, svr, http.MethodPost, "/v1/solvers/read", `{"status":{"preset":1}}`); rec.Code != http.StatusConflict {
		t.Fatalf("read before create: %d", rec.Code)
	}
	rec := do(t, svr, http.MethodPost, "/v1/solvers", create)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create: %d %s", rec.Code, rec.Body.String())
	}
	if rec := do(t, svr, http.MethodPost, "/v1/solvers", create); rec.Code != http.StatusConflict {
		t.Fatalf("second create: %d", rec.Code)
	}

	rec = do(t, svr, http.MethodGet, "/v1/solvers", "")
	var keys []dto.SolverKeyDTO
	if err := json.NewDecoder(rec.Body).Decode(&keys); err != nil || len(keys) != 1 || keys[0].State != "ready" {
		t.Fatalf("list: %+v %v", keys, err)
	}

	rec = do(t, svr, http.MethodPost, "/v1/solvers/read", `{"status":{"preset":1},"prefix":["veneration"]}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("read: %d %s", rec.Code, rec.Body.String())
	}
	var res dto.ActionsResponse
	if err := json.NewDecoder(rec.Body).Decode(&res); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(res.Actions) == 0 || res.Final.Progress < res.Final.Difficulty {
		t.Fatalf("solver should finish the craft: %+v", res.Final)
	}

	if rec := do(t, svr, http.MethodDelete, "/v1/solvers", `{"status":{"preset":1}}`); rec.Code != http.StatusNoContent {
		t.Fatalf("destroy: %d", rec.Code)
	}
	if rec := do(t, svr, http.MethodDelete, "/v1/solvers", `{"status":{"preset":1}}`); rec.Code != http.StatusNotFound {
		t.Fatalf("destroy again: %d", rec.Code)
	}
}

func TestHeavyEndpoints(t *testing.T) {
	svr := newTestServer(t, unlimited())
	rec := do(t, svr, http.MethodPost, "/v1/dfs", `{"status":{"preset":1},"max_depth":3}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("dfs: %d %s", rec.Code, rec.Body.String())
	}
	rec = do(t, svr, http.MethodPost, "/v1/montecarlo",
		`{"status":{"preset":1},"actions":["basic_synthesis","basic_synthesis"],"trials":100,"seed":7,"workers":2}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("montecarlo: %d %s", rec.Code, rec.Body.String())
	}
	var mc dto.MonteCarloResponse
	if err := json.NewDecoder(rec.Body).Decode(&mc); err != nil || mc.Statistics == nil || mc.Seed != 7 {
		t.Fatalf("montecarlo body: %+v %v", mc, err)
	}
	st := mc.Statistics
	if st.Errors+st.Unfinished+st.Fails+st.Normal+st.HighQuality != 100 {
		t.Fatalf("outcomes must sum to trials: %+v", st)
	}
	rec = do(t, svr, http.MethodPost, "/v1/scope", `{"status":{"preset":1},"actions":["basic_synthesis","basic_synthesis"]}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("scope: %d %s", rec.Code, rec.Body.String())
	}
	if rec := do(t, svr, http.MethodPost, "/v1/montecarlo",
		`{"status":{"preset":1},"actions":["basic_synthesis"],"trials":2000000}`); rec.Code != http.StatusBadRequest {
		t.Fatalf("trial cap: %d", rec.Code)
	}
}

func TestRateLimitedEndpoint(t *testing.T) {
	set := setting.DefaultServerConfig()
	set.RateLimit, set.RateBurst = 0.001, 1
	svr := newTestServer(t, set)
	body := `{"status":{"preset":1},"actions":["basic_synthesis"]}`
	if rec := do(t, svr, http.MethodPost, "/v1/scope", body); rec.Code != http.StatusOK {
		t.Fatalf("first: %d", rec.Code)
	}
	if rec := do(t, svr, http.MethodPost, "/v1/scope", body); rec.Code != http.StatusTooManyRequests {
		t.Fatalf("second: %d", rec.Code)
	}
	// 輕量端點不受限
	if rec := do(t, svr, http.MethodPost, "/v1/simulate", body); rec.Code != http.StatusOK {
		t.Fatalf("simulate: %d", rec.Code)
	}
}
