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

package craftlab

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/zintix-labs/craftlab/craft"
	"github.com/zintix-labs/craftlab/errs"
	"github.com/zintix-labs/craftlab/solver"
)

var (
	ErrSolverExists   = errs.NewCode(errs.Warn, errs.CodeSolverExists, "solver already exists")
	ErrSolverBuilding = errs.NewCode(errs.Warn, errs.CodeSolverBuilding, "solver is building")
	ErrSolverNotReady = errs.NewCode(errs.Warn, errs.CodeSolverNotReady, "solver not ready")
	ErrSolverNotFound = errs.NewCode(errs.Warn, errs.CodeSolverNotFound, "solver not found")
	ErrStatusMismatch = errs.NewWarn("status does not match solver key")
	ErrRegistryClosed = errs.NewCode(errs.Warn, errs.CodeClosed, "registry closed")
)

var (
	solverBuildTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "craftlab_solver_build_total",
		Help: "Total solver builds by kind and result",
	}, []string{"kind", "result"})

	solverBuildDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "craftlab_solver_build_duration_seconds",
		Help:    "Solver build duration in seconds",
		Buckets: prometheus.ExponentialBuckets(0.001, 4, 10), // 1ms to ~4min
	}, []string{"kind"})

	solverReadTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "craftlab_solver_read_total",
		Help: "Total solver reads by result",
	}, []string{"result"})

	solverEntries = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "craftlab_solver_entries",
		Help: "Registry entries by state",
	}, []string{"state"})
)

// SolverKey 以屬性與配方完全比對，配方先補齊 Divider / Modifier。
type SolverKey struct {
	Attributes craft.Attributes `json:"attributes" yaml:"attributes"`
	Recipe     craft.Recipe     `json:"recipe" yaml:"recipe"`
}

func (k SolverKey) normalize() SolverKey {
	k.Recipe = k.Recipe.Normalize()
	return k
}

// State 登錄項目的狀態
type State uint8

const (
	StateAbsent State = iota
	StateBuilding
	StateReady
)

func (s State) String() string {
	switch s {
	case StateBuilding:
		return "building"
	case StateReady:
		return "ready"
	default:
		return "absent"
	}
}

type entry struct {
	state   State
	buildID string
	cfg     solver.Config
	created time.Time

	// DP 表格延遲填入，同一個求解器的讀取必須序列化
	mu     sync.Mutex
	solver solver.Solver
}

// Registry 管理以 SolverKey 為鍵的求解器。
//
// 同一個鍵的建構是 single-flight：先在鎖內放入 Building 佔位，再於鎖外建構，
// 其他請求看到佔位會立即得到 ErrSolverBuilding，不會阻塞也不會重複建構。
// Registry 由應用程式持有，Close 時等待背景建構結束。
type Registry struct {
	mu      sync.Mutex
	entries map[SolverKey]*entry
	closed  bool

	log    *slog.Logger
	wg     sync.WaitGroup
	ctx    context.Context
	cancel context.CancelFunc

	build func(ctx context.Context, key SolverKey, cfg solver.Config) (solver.Solver, error)
}

func NewRegistry(log *slog.Logger) *Registry {
	if log == nil {
		log = slog.Default()
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Registry{
		entries: make(map[SolverKey]*entry),
		log:     log,
		ctx:     ctx,
		cancel:  cancel,
		build:   buildSolver,
	}
}

// buildSolver 建立求解器並預熱表格
func buildSolver(ctx context.Context, key SolverKey, cfg solver.Config) (solver.Solver, error) {
	base, err := craft.NewStatus(key.Attributes, key.Recipe)
	if err != nil {
		return nil, err
	}
	sv, err := solver.New(base, cfg)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, errs.Wrap(err, "solver build canceled")
	}
	sv.Init()
	return sv, nil
}

// Create 同步建構求解器，回傳建構編號。Close 會取消並等待進行中的同步建構。
func (r *Registry) Create(ctx context.Context, key SolverKey, cfg solver.Config) (string, error) {
	key = key.normalize()
	e, err := r.reserve(key, cfg)
	if err != nil {
		return "", err
	}
	defer r.wg.Done()
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	stop := context.AfterFunc(r.ctx, cancel)
	defer stop()
	return e.buildID, r.run(ctx, key, e)
}

// CreateAsync 放入佔位後於背景建構，立即回傳建構編號；建構失敗時佔位會被移除。
func (r *Registry) CreateAsync(key SolverKey, cfg solver.Config) (string, error) {
	key = key.normalize()
	e, err := r.reserve(key, cfg)
	if err != nil {
		return "", err
	}
	go func() {
		defer r.wg.Done()
		_ = r.run(r.ctx, key, e)
	}()
	return e.buildID, nil
}

func (r *Registry) reserve(key SolverKey, cfg solver.Config) (*entry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return nil, ErrRegistryClosed
	}
	if e, ok := r.entries[key]; ok {
		if e.state == StateBuilding {
			return nil, ErrSolverBuilding
		}
		return nil, ErrSolverExists
	}
	e := &entry{
		state:   StateBuilding,
		buildID: uuid.NewString(),
		cfg:     cfg,
		created: time.Now(),
	}
	r.entries[key] = e
	// 在鎖內加入，Close 的 Wait 一定看得到
	r.wg.Add(1)
	solverEntries.WithLabelValues(StateBuilding.String()).Inc()
	return e, nil
}

// run 在鎖外建構，完成後升級為 Ready；失敗則移除佔位。
func (r *Registry) run(ctx context.Context, key SolverKey, e *entry) error {
	kind := string(e.cfg.Kind)
	if kind == "" {
		kind = string(solver.KindComposite)
	}
	r.log.Info("solver build start", slog.String("build_id", e.buildID), slog.String("kind", kind))
	start := time.Now()
	sv, err := r.build(ctx, key, e.cfg)
	elapsed := time.Since(start)
	solverBuildDuration.WithLabelValues(kind).Observe(elapsed.Seconds())

	r.mu.Lock()
	defer r.mu.Unlock()
	solverEntries.WithLabelValues(StateBuilding.String()).Dec()
	if err == nil && r.closed {
		err = ErrRegistryClosed
	}
	if err != nil {
		delete(r.entries, key)
		solverBuildTotal.WithLabelValues(kind, "error").Inc()
		r.log.Warn("solver build failed",
			slog.String("build_id", e.buildID),
			slog.Duration("elapsed", elapsed),
			slog.Any("err", err),
		)
		return err
	}
	e.solver = sv
	e.state = StateReady
	solverEntries.WithLabelValues(StateReady.String()).Inc()
	solverBuildTotal.WithLabelValues(kind, "ok").Inc()
	r.log.Info("solver build done", slog.String("build_id", e.buildID), slog.Duration("elapsed", elapsed))
	return nil
}

// State 回傳鍵目前的狀態
func (r *Registry) State(key SolverKey) State {
	r.mu.Lock()
	defer r.mu.Unlock()
	if e, ok := r.entries[key.normalize()]; ok {
		return e.state
	}
	return StateAbsent
}

// Read 以求解器從 s 走完整條序列。
//
// 求解器提出被拒絕的技能時回傳 errs.CodeInvariant 的 Fatal 錯誤。
func (r *Registry) Read(key SolverKey, s *craft.Status) ([]craft.Action, error) {
	key = key.normalize()
	r.mu.Lock()
	e, ok := r.entries[key]
	ready := ok && e.state == StateReady
	r.mu.Unlock()
	if !ready {
		solverReadTotal.WithLabelValues("not_ready").Inc()
		return nil, ErrSolverNotReady
	}
	if s == nil || s.Attributes() != key.Attributes || s.Recipe() != key.Recipe {
		solverReadTotal.WithLabelValues("mismatch").Inc()
		return nil, ErrStatusMismatch
	}

	e.mu.Lock()
	acts := e.solver.ReadAll(s)
	e.mu.Unlock()

	if _, err := solver.Replay(s, acts); err != nil {
		solverReadTotal.WithLabelValues("invariant").Inc()
		r.log.Error("solver invariant violated", slog.String("build_id", e.buildID), slog.Any("err", err))
		return nil, err
	}
	solverReadTotal.WithLabelValues("ok").Inc()
	return acts, nil
}

// Destroy 移除 Ready 的求解器；建構中的項目不可移除。
func (r *Registry) Destroy(key SolverKey) error {
	key = key.normalize()
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.entries[key]
	if !ok {
		return ErrSolverNotFound
	}
	if e.state == StateBuilding {
		return ErrSolverBuilding
	}
	delete(r.entries, key)
	solverEntries.WithLabelValues(StateReady.String()).Dec()
	return nil
}

// Keys 回傳所有 Ready 的鍵
func (r *Registry) Keys() []SolverKey {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]SolverKey, 0, len(r.entries))
	for k, e := range r.entries {
		if e.state == StateReady {
			out = append(out, k)
		}
	}
	return out
}

// Close 取消所有進行中的建構並等待結束，之後清空所有項目。重複呼叫無副作用。
func (r *Registry) Close() {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return
	}
	r.closed = true
	r.mu.Unlock()

	r.cancel()
	r.wg.Wait()

	r.mu.Lock()
	defer r.mu.Unlock()
	for k, e := range r.entries {
		if e.state == StateReady {
			solverEntries.WithLabelValues(StateReady.String()).Dec()
		}
		delete(r.entries, k)
	}
}
