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
// Package dto 定義 HTTP API 的請求與回應格式，並負責嚴格解碼與欄位驗證。
//
// 這裡只做格式與範圍檢查；配方是否存在、技能是否可施放等業務判斷由 craftlab.Lab 決定。
package dto

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/zintix-labs/craftlab"
	"github.com/zintix-labs/craftlab/catalog"
	"github.com/zintix-labs/craftlab/craft"
	"github.com/zintix-labs/craftlab/errs"
	"github.com/zintix-labs/craftlab/macro"
	"github.com/zintix-labs/craftlab/solver"
)

const (
	// MaxBody 請求 body 上限
	MaxBody = 1 << 20
	// MaxActions 單一請求可帶的技能數
	MaxActions = 1024
)

var validate = validator.New()

// Decode 把 POST / DELETE 的 JSON body 解成 T 並做欄位驗證。
//
//   - body 超過 MaxBody 的部分不會被讀取，JSON 會因此不完整而失敗。
//   - 開啟 DisallowUnknownFields，未知欄位直接拒絕。
//   - 所有錯誤皆為 Warn 等級（對應 400）。
func Decode[T any](r *http.Request) (*T, error) {
	if r == nil || r.Body == nil {
		return nil, errs.NewWarn("nil request")
	}
	switch r.Method {
	case http.MethodPost, http.MethodDelete, http.MethodPut:
	default:
		return nil, errs.NewWarn("method not allowed: " + r.Method)
	}
	req := new(T)
	dec := json.NewDecoder(io.LimitReader(r.Body, MaxBody))
	dec.DisallowUnknownFields()
	if err := dec.Decode(req); err != nil {
		return nil, errs.WrapWarn(err, "invalid json")
	}
	if err := validate.Struct(req); err != nil {
		return nil, errs.WrapWarn(err, "invalid request")
	}
	return req, nil
}

// StatusInput 初始狀態來源：preset 或 attributes + recipe 擇一。
// 指定 preset 時 attributes 可省略（使用預設屬性），recipe 不可同時出現。
type StatusInput struct {
	Preset      catalog.PresetID  `json:"preset,omitempty"`
	Attributes  *craft.Attributes `json:"attributes,omitempty" validate:"required_without=Preset"`
	Recipe      *craft.Recipe     `json:"recipe,omitempty" validate:"required_without=Preset,excluded_with=Preset"`
	InitQuality uint32            `json:"init_quality,omitempty"`
}

// Resolve 建立初始狀態；refine 只有預設帶收藏品門檻時才不為 nil。
func (in *StatusInput) Resolve(cat *catalog.Catalog) (*craft.Status, *craft.CollectablesShopRefine, error) {
	var (
		s      *craft.Status
		refine *craft.CollectablesShopRefine
		err    error
	)
	if in.Preset != 0 {
		if cat == nil {
			return nil, nil, errs.NewFatal("catalog is required")
		}
		p, err := cat.PresetByID(in.Preset)
		if err != nil {
			return nil, nil, err
		}
		if s, err = p.NewStatus(in.Attributes); err != nil {
			return nil, nil, err
		}
		refine = p.Refine
	} else {
		if in.Attributes == nil || in.Recipe == nil {
			return nil, nil, errs.NewWarn("attributes and recipe are required without preset")
		}
		if s, err = craft.NewStatus(*in.Attributes, *in.Recipe); err != nil {
			return nil, nil, err
		}
	}
	if in.InitQuality > 0 {
		s = s.WithInitQuality(in.InitQuality)
	}
	return s, refine, nil
}

// Key 解出登錄表的鍵
func (in *StatusInput) Key(cat *catalog.Catalog) (craftlab.SolverKey, error) {
	s, _, err := in.Resolve(cat)
	if err != nil {
		return craftlab.SolverKey{}, err
	}
	return craftlab.SolverKey{Attributes: s.Attributes(), Recipe: s.Recipe()}, nil
}

// Advance 從 s 依序施放 prefix（皆視為成功、球色不變），被拒絕時回傳 Warn。
func Advance(s *craft.Status, prefix []craft.Action) (*craft.Status, error) {
	cur := *s
	for i, a := range prefix {
		if err := cur.IsActionAllowed(a); err != nil {
			ce, ok := err.(craft.CastError)
			if !ok {
				return nil, errs.WrapWarn(err, "prefix rejected")
			}
			return nil, ce.Wrap(a).With(fmt.Sprintf("pos=%d", i))
		}
		cur.CastAction(a)
	}
	return &cur, nil
}

type SimulateRequest struct {
	Status  StatusInput    `json:"status"`
	Actions []craft.Action `json:"actions" validate:"max=1024"`
}

type SolverCreateRequest struct {
	Status StatusInput   `json:"status"`
	Config solver.Config `json:"config"`
	// Async 為 true 時立即回傳 202，建構在背景進行
	Async bool `json:"async,omitempty"`
}

// SolveRequest 一次性求解，不經過登錄表
type SolveRequest struct {
	Status StatusInput   `json:"status"`
	Config solver.Config `json:"config"`
}

type SolverReadRequest struct {
	Status StatusInput `json:"status"`
	// Prefix 已施放的技能，讀取從施放完的狀態開始
	Prefix []craft.Action `json:"prefix,omitempty" validate:"max=256"`
}

type SolverDestroyRequest struct {
	Status StatusInput `json:"status"`
}

type DFSRequest struct {
	Status   StatusInput `json:"status"`
	MaxDepth int         `json:"max_depth" validate:"required,gte=1,lte=16"`
}

type MonteCarloRequest struct {
	Status       StatusInput    `json:"status"`
	Actions      []craft.Action `json:"actions" validate:"required,min=1,max=256"`
	Trials       int            `json:"trials" validate:"required,gte=1"`
	Seed         int64          `json:"seed,omitempty"`
	Workers      int            `json:"workers,omitempty" validate:"gte=0,lte=64"`
	IgnoreErrors bool           `json:"ignore_errors,omitempty"`
	Strict       bool           `json:"strict,omitempty"`
	// Refine 覆寫預設的收藏品門檻；兩者皆無時以 HQ 機率統計
	Refine *craft.CollectablesShopRefine `json:"refine,omitempty"`
}

type ScopeRequest struct {
	Status  StatusInput    `json:"status"`
	Actions []craft.Action `json:"actions" validate:"required,min=1,max=1024"`
}

// MacroRequest actions 與 code 擇一；帶 code 時先解碼分享碼。
type MacroRequest struct {
	Actions []craft.Action `json:"actions,omitempty" validate:"required_without=Code,max=1024"`
	Code    string         `json:"code,omitempty" validate:"required_without=Actions,max=4096"`
	Options macro.Options  `json:"options"`
}

// ResolveActions 回傳請求的技能序列
func (m *MacroRequest) ResolveActions() ([]craft.Action, error) {
	if len(m.Actions) > 0 {
		return m.Actions, nil
	}
	return macro.Decode(m.Code)
}
