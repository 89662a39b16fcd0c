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

package catalog

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/zintix-labs/craftlab/craft"
	"github.com/zintix-labs/craftlab/errs"
	"gopkg.in/yaml.v3"
)

// PresetID 配方預設編號
type PresetID uint32

// Preset 一組配方預設：配方、建議屬性與收藏品門檻。
type Preset struct {
	ID          PresetID                      `json:"id" yaml:"id"`
	Name        string                        `json:"name" yaml:"name"`
	Recipe      craft.Recipe                  `json:"recipe" yaml:"recipe"`
	Attributes  *craft.Attributes             `json:"attributes,omitempty" yaml:"attributes,omitempty"`
	Refine      *craft.CollectablesShopRefine `json:"refine,omitempty" yaml:"refine,omitempty"`
	InitQuality uint32                        `json:"init_quality,omitempty" yaml:"init_quality,omitempty"`
}

// ParsePresetYAML 嚴格解析：未知欄位視為錯誤。
func ParsePresetYAML(data []byte) (*Preset, error) {
	p := &Preset{}
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(p); err != nil {
		return nil, errs.Wrap(err, "failed to unmarshall yaml")
	}
	if err := p.init(); err != nil {
		return nil, err
	}
	return p, nil
}

// ParsePresetJSON 嚴格解析：未知欄位視為錯誤。
func ParsePresetJSON(data []byte) (*Preset, error) {
	p := &Preset{}
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(p); err != nil {
		return nil, errs.Wrap(err, "can not unmarshall json byte")
	}
	if err := p.init(); err != nil {
		return nil, err
	}
	return p, nil
}

// init 正規化名稱與配方並做基本檢查
func (p *Preset) init() error {
	p.Name = strings.ToLower(strings.TrimSpace(p.Name))
	if p.Name == "" {
		return errs.NewFatal("preset name required")
	}
	r := p.Recipe
	if r.Difficulty == 0 || r.Durability == 0 || r.Durability%5 != 0 {
		return errs.NewFatal(fmt.Sprintf("invalid recipe in preset %q: difficulty=%d durability=%d", p.Name, r.Difficulty, r.Durability))
	}
	p.Recipe = r.Normalize()
	if p.InitQuality > p.Recipe.Quality {
		return errs.NewFatal(fmt.Sprintf("init quality exceeds recipe quality in preset %q", p.Name))
	}
	if f := p.Refine; f != nil && !(f.LowCollectability <= f.MidCollectability && f.MidCollectability <= f.HighCollectability) {
		return errs.NewFatal(fmt.Sprintf("collectability thresholds must be ascending in preset %q", p.Name))
	}
	return nil
}

// NewStatus 以 attrs 建立初始狀態；attrs 為 nil 時使用預設的建議屬性。
func (p *Preset) NewStatus(attrs *craft.Attributes) (*craft.Status, error) {
	if attrs == nil {
		attrs = p.Attributes
	}
	if attrs == nil {
		return nil, errs.NewWarn(fmt.Sprintf("preset %q has no default attributes", p.Name))
	}
	s, err := craft.NewStatus(*attrs, p.Recipe)
	if err != nil {
		return nil, err
	}
	if p.InitQuality > 0 {
		s = s.WithInitQuality(p.InitQuality)
	}
	return s, nil
}

// Summary 對外列表用的摘要
type Summary struct {
	ID          PresetID `json:"id"`
	Name        string   `json:"name"`
	Rlv         uint16   `json:"rlv"`
	Difficulty  uint32   `json:"difficulty"`
	Quality     uint32   `json:"quality"`
	Durability  uint16   `json:"durability"`
	Collectable bool     `json:"collectable"`
}

func (p *Preset) Summary() Summary {
	return Summary{
		ID:          p.ID,
		Name:        p.Name,
		Rlv:         p.Recipe.Rlv,
		Difficulty:  p.Recipe.Difficulty,
		Quality:     p.Recipe.Quality,
		Durability:  p.Recipe.Durability,
		Collectable: p.Refine != nil,
	}
}
