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
// Package demo 以內建的示範配方組出 Lab 與服務端設定，供 CLI 與測試直接使用。
package demo

import (
	"github.com/zintix-labs/craftlab"
	"github.com/zintix-labs/craftlab/catalog"
	"github.com/zintix-labs/craftlab/demo/demo_configs"
	"github.com/zintix-labs/craftlab/errs"
	"github.com/zintix-labs/craftlab/server/logger"
	"github.com/zintix-labs/craftlab/server/svrcfg"
	"github.com/zintix-labs/craftlab/setting"
)

// New 示範配方目錄
func New() (*catalog.Catalog, error) {
	return catalog.NewAuto(demo_configs.FS)
}

// NewLab 以示範配方建立 Lab
func NewLab(opt craftlab.Options) (*craftlab.Lab, error) {
	lab, err := craftlab.New(craftlab.Configs(demo_configs.FS), opt)
	if err != nil {
		return nil, errs.Wrap(err, "new lab failed")
	}
	return lab, nil
}

// NewServerConfig 預設設定 + 示範配方 + dev 模式 async logger
func NewServerConfig() (*svrcfg.SvrCfg, error) {
	set := setting.DefaultServerConfig()
	log, _ := logger.NewAsync(set.LogBuffer, logger.ModeDev)
	lab, err := NewLab(craftlab.Options{Log: log, MaxJobs: set.MaxJobs, DFSWorkers: set.DFSWorkers})
	if err != nil {
		return nil, err
	}
	return &svrcfg.SvrCfg{Log: log, Lab: lab, Setting: set}, nil
}
