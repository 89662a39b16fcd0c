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
// Package v1 實作 /v1 底下的 HTTP handler。
//
// 每個 handler 的流程一致：dto.Decode 嚴格解碼並驗證 → 解出初始狀態 → 交給 Lab 計算 → 寫回 JSON。
// 錯誤一律經 httperr 映射狀態碼；計算的期限由請求 context 決定。
package v1

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/zintix-labs/craftlab"
	"github.com/zintix-labs/craftlab/analyzer"
	"github.com/zintix-labs/craftlab/catalog"
	"github.com/zintix-labs/craftlab/dto"
	"github.com/zintix-labs/craftlab/errs"
	"github.com/zintix-labs/craftlab/macro"
	"github.com/zintix-labs/craftlab/server/httperr"
	"github.com/zintix-labs/craftlab/server/netsvr/middleware"
	"github.com/zintix-labs/craftlab/server/svrcfg"
	"github.com/zintix-labs/craftlab/setting"
)

type Handler struct {
	lab *craftlab.Lab
	log *slog.Logger
	set setting.ServerConfig
}

func NewHandler(sCfg *svrcfg.SvrCfg) (*Handler, error) {
	if sCfg == nil || sCfg.Lab == nil {
		return nil, errs.NewFatal("lab is required")
	}
	log := sCfg.Log
	if log == nil {
		log = slog.Default()
	}
	return &Handler{lab: sCfg.Lab, log: log, set: sCfg.Setting}, nil
}

// Register 掛上 /v1 的所有路由；重型計算共用同一個限流器。
func (h *Handler) Register(r Router) {
	heavy := middleware.RateLimit(h.set.RateLimit, h.set.RateBurst)
	limited := func(fn http.HandlerFunc) http.HandlerFunc {
		return heavy(fn).ServeHTTP
	}

	r.Post("/simulate", h.Simulate)
	r.Post("/solve", limited(h.Solve))

	r.Get("/solvers", h.ListSolvers)
	r.Post("/solvers", limited(h.CreateSolver))
	r.Post("/solvers/read", h.ReadSolver)
	r.Delete("/solvers", h.DestroySolver)

	r.Post("/dfs", limited(h.DFS))
	r.Post("/montecarlo", limited(h.MonteCarlo))
	r.Post("/scope", limited(h.Scope))
	r.Post("/macro", h.Macro)

	r.Get("/recipes", h.Recipes)
	r.Get("/recipes/{id}", h.Recipe)
}

// Router handler 只需要的路由能力
type Router interface {
	Get(path string, h http.HandlerFunc)
	Post(path string, h http.HandlerFunc)
	Delete(path string, h http.HandlerFunc)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func (h *Handler) fail(w http.ResponseWriter, r *http.Request, err error) {
	httperr.Log(h.log, r.Method+" "+r.URL.Path, err)
	httperr.Errs(w, err)
}

func (h *Handler) catalog() *catalog.Catalog { return h.lab.Catalog() }

func (h *Handler) Simulate(w http.ResponseWriter, r *http.Request) {
	req, err := dto.Decode[dto.SimulateRequest](r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	s, _, err := req.Status.Resolve(h.catalog())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, dto.NewSimulateResponse(s, req.Actions))
}

func (h *Handler) Solve(w http.ResponseWriter, r *http.Request) {
	req, err := dto.Decode[dto.SolveRequest](r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	s, _, err := req.Status.Resolve(h.catalog())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	acts, err := h.lab.Solve(r.Context(), s, req.Config)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, dto.NewActionsResponse(s, acts))
}

func (h *Handler) CreateSolver(w http.ResponseWriter, r *http.Request) {
	req, err := dto.Decode[dto.SolverCreateRequest](r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	key, err := req.Status.Key(h.catalog())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	reg := h.lab.Registry()
	if req.Async {
		id, err := reg.CreateAsync(key, req.Config)
		if err != nil {
			h.fail(w, r, err)
			return
		}
		writeJSON(w, http.StatusAccepted, dto.SolverResponse{BuildID: id, State: craftlab.StateBuilding.String()})
		return
	}
	id, err := reg.Create(r.Context(), key, req.Config)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, dto.SolverResponse{BuildID: id, State: craftlab.StateReady.String()})
}

func (h *Handler) ReadSolver(w http.ResponseWriter, r *http.Request) {
	req, err := dto.Decode[dto.SolverReadRequest](r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	s, _, err := req.Status.Resolve(h.catalog())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	cur, err := dto.Advance(s, req.Prefix)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	key := craftlab.SolverKey{Attributes: s.Attributes(), Recipe: s.Recipe()}
	acts, err := h.lab.Registry().Read(key, cur)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, dto.NewActionsResponse(cur, acts))
}

func (h *Handler) DestroySolver(w http.ResponseWriter, r *http.Request) {
	req, err := dto.Decode[dto.SolverDestroyRequest](r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	key, err := req.Status.Key(h.catalog())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if err := h.lab.Registry().Destroy(key); err != nil {
		h.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) ListSolvers(w http.ResponseWriter, r *http.Request) {
	reg := h.lab.Registry()
	keys := reg.Keys()
	out := make([]dto.SolverKeyDTO, 0, len(keys))
	for _, k := range keys {
		out = append(out, dto.SolverKeyDTO{Key: k, State: reg.State(k).String()})
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *Handler) DFS(w http.ResponseWriter, r *http.Request) {
	req, err := dto.Decode[dto.DFSRequest](r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	s, _, err := req.Status.Resolve(h.catalog())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	res, err := h.lab.Search(r.Context(), s, req.MaxDepth)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, dto.NewDFSResponse(s, res))
}

func (h *Handler) MonteCarlo(w http.ResponseWriter, r *http.Request) {
	req, err := dto.Decode[dto.MonteCarloRequest](r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if h.set.MaxTrials > 0 && req.Trials > h.set.MaxTrials {
		h.fail(w, r, errs.Warnf("trials must <= %d", h.set.MaxTrials))
		return
	}
	s, refine, err := req.Status.Resolve(h.catalog())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if req.Refine != nil {
		refine = req.Refine
	}
	opt := analyzer.Options{
		Title:        fmt.Sprintf("montecarlo %d actions", len(req.Actions)),
		Seed:         req.Seed,
		Workers:      req.Workers,
		IgnoreErrors: req.IgnoreErrors,
		Strict:       req.Strict,
	}
	res, err := h.lab.MonteCarlo(r.Context(), s, req.Actions, req.Trials, opt, refine)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (h *Handler) Scope(w http.ResponseWriter, r *http.Request) {
	req, err := dto.Decode[dto.ScopeRequest](r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	s, _, err := req.Status.Resolve(h.catalog())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	sc, err := h.lab.Scope(r.Context(), s, req.Actions)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, sc)
}

func (h *Handler) Macro(w http.ResponseWriter, r *http.Request) {
	req, err := dto.Decode[dto.MacroRequest](r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	acts, err := req.ResolveActions()
	if err != nil {
		h.fail(w, r, err)
		return
	}
	lines, err := macro.Format(acts, req.Options)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	code, err := macro.Encode(acts)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, dto.MacroResponse{Actions: acts, Macros: lines, Code: code})
}

func (h *Handler) Recipes(w http.ResponseWriter, r *http.Request) {
	sums, err := h.catalog().Summaries()
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, sums)
}

func (h *Handler) Recipe(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseUint(chi.URLParam(r, "id"), 10, 32)
	if err != nil {
		h.fail(w, r, errs.WrapWarn(err, "invalid preset id"))
		return
	}
	p, err := h.catalog().PresetByID(catalog.PresetID(id))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}
