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
// Package setting 載入求解器與服務端的 YAML 設定。
//
// 所有設定檔一律嚴格解碼：未知欄位直接拒絕，欄位範圍以 validate tag 檢查。
package setting

import (
	"bytes"
	"io"
	"io/fs"
	"os"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/zintix-labs/craftlab/errs"
	"github.com/zintix-labs/craftlab/solver"
	"gopkg.in/yaml.v3"
)

var validate = validator.New()

// SolverConfig 求解器的技能開關與 DFS 深度。
type SolverConfig struct {
	Kind         solver.Kind `yaml:"kind" json:"kind" validate:"omitempty,oneof=composite quality progress"`
	Manipulation bool        `yaml:"manipulation" json:"manipulation"`
	WasteNot     bool        `yaml:"waste_not" json:"waste_not"`
	Observe      bool        `yaml:"observe" json:"observe"`
	// MaxDepth DFS 的最大深度
	MaxDepth int `yaml:"max_depth" json:"max_depth" validate:"gte=1,lte=32"`
}

// Solver 轉成 solver.Config
func (c SolverConfig) Solver() solver.Config {
	return solver.Config{
		Kind:         c.Kind,
		Manipulation: c.Manipulation,
		WasteNot:     c.WasteNot,
		Observe:      c.Observe,
	}
}

// DefaultSolverConfig 全部技能開啟的 composite 求解器。
func DefaultSolverConfig() SolverConfig {
	return SolverConfig{
		Kind:         solver.KindComposite,
		Manipulation: true,
		WasteNot:     true,
		Observe:      true,
		MaxDepth:     8,
	}
}

// ServerConfig 服務端設定
type ServerConfig struct {
	Addr      string `yaml:"addr" validate:"required"`
	LogMode   string `yaml:"log_mode" validate:"omitempty,oneof=dev prod silence"`
	LogBuffer int    `yaml:"log_buffer" validate:"gte=0"`
	// MaxJobs 同時進行的重型計算；0 表示 GOMAXPROCS
	MaxJobs    int `yaml:"max_jobs" validate:"gte=0"`
	DFSWorkers int `yaml:"dfs_workers"`
	// RateLimit 重型端點每秒允許的請求數；0 表示不限流
	RateLimit float64 `yaml:"rate_limit" validate:"gte=0"`
	RateBurst int     `yaml:"rate_burst" validate:"gte=0"`
	// RequestTimeout 單一請求的計算上限
	RequestTimeout time.Duration `yaml:"request_timeout" validate:"gte=0"`
	// MaxTrials Monte Carlo 單次請求的次數上限
	MaxTrials int          `yaml:"max_trials" validate:"gte=1"`
	Solver    SolverConfig `yaml:"solver"`
	// ConfigDirs 額外載入的配方目錄（os.DirFS）
	ConfigDirs []string `yaml:"config_dirs"`
}

// DefaultServerConfig 未提供設定檔時使用。
func DefaultServerConfig() ServerConfig {
	return ServerConfig{
		Addr:           ":5808",
		LogMode:        "dev",
		LogBuffer:      4096,
		RateLimit:      4,
		RateBurst:      8,
		RequestTimeout: 30 * time.Second,
		MaxTrials:      1_000_000,
		Solver:         DefaultSolverConfig(),
	}
}

// Validate 檢查欄位範圍
func (c ServerConfig) Validate() error {
	if err := validate.Struct(c); err != nil {
		return errs.WrapWarn(err, "invalid server config")
	}
	return nil
}

// Validate 檢查欄位範圍
func (c SolverConfig) Validate() error {
	if err := validate.Struct(c); err != nil {
		return errs.WrapWarn(err, "invalid solver config")
	}
	return nil
}

// LoadServerConfig 以預設值為底讀取 YAML，檔案只需寫出要覆寫的欄位。
func LoadServerConfig(r io.Reader) (ServerConfig, error) {
	cfg := DefaultServerConfig()
	if err := decodeStrict(r, &cfg); err != nil {
		return ServerConfig{}, err
	}
	return cfg, cfg.Validate()
}

// LoadServerConfigFile path 為空時回傳預設值。
func LoadServerConfigFile(path string) (ServerConfig, error) {
	if path == "" {
		return DefaultServerConfig(), nil
	}
	f, err := os.Open(path)
	if err != nil {
		return ServerConfig{}, errs.Wrap(err, "open server config")
	}
	defer f.Close()
	return LoadServerConfig(f)
}

// LoadSolverConfig 以 DefaultSolverConfig 為底讀取 YAML。
func LoadSolverConfig(fsys fs.FS, name string) (SolverConfig, error) {
	b, err := fs.ReadFile(fsys, name)
	if err != nil {
		return SolverConfig{}, errs.WrapWarn(err, "read solver config "+name)
	}
	cfg := DefaultSolverConfig()
	if err := decodeStrict(bytes.NewReader(b), &cfg); err != nil {
		return SolverConfig{}, err
	}
	return cfg, cfg.Validate()
}

func decodeStrict(r io.Reader, out any) error {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(out); err != nil && err != io.EOF {
		return errs.WrapWarn(err, "invalid yaml")
	}
	return nil
}
