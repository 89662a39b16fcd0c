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
	"flag"
	"fmt"
	"io/fs"
	"os"

	"github.com/zintix-labs/craftlab"
	"github.com/zintix-labs/craftlab/demo/demo_configs"
	"github.com/zintix-labs/craftlab/server"
	"github.com/zintix-labs/craftlab/server/logger"
	"github.com/zintix-labs/craftlab/server/svrcfg"
	"github.com/zintix-labs/craftlab/setting"
)

// svr 以內建示範配方啟動 HTTP 服務。
// 設定檔（-config）提供基底，旗標只覆寫有明確指定的欄位。
func main() {
	cfg, err := loadConfigFromFlags(os.Args[1:])
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	server.Run(cfg)
}

type flags struct {
	Config  string
	Addr    string
	LogMode string
	MaxJobs int
}

func loadConfigFromFlags(args []string) (*svrcfg.SvrCfg, error) {
	f := new(flags)
	fset := flag.NewFlagSet("svr", flag.ContinueOnError)
	fset.StringVar(&f.Config, "config", "", "server config yaml")
	fset.StringVar(&f.Addr, "addr", "", "listen address, overrides config")
	fset.StringVar(&f.LogMode, "log-mode", "", "log mode: dev|prod|silence, overrides config")
	fset.IntVar(&f.MaxJobs, "max-jobs", -1, "concurrent heavy jobs, overrides config")
	if err := fset.Parse(args); err != nil {
		return nil, err
	}

	set, err := setting.LoadServerConfigFile(f.Config)
	if err != nil {
		return nil, err
	}
	if f.Addr != "" {
		set.Addr = f.Addr
	}
	if f.LogMode != "" {
		set.LogMode = f.LogMode
	}
	if f.MaxJobs >= 0 {
		set.MaxJobs = f.MaxJobs
	}
	if err := set.Validate(); err != nil {
		return nil, err
	}

	mode, err := logger.ParseMode(set.LogMode)
	if err != nil {
		return nil, err
	}
	log, _ := logger.NewAsync(set.LogBuffer, mode)

	cfgs := []fs.FS{demo_configs.FS}
	for _, d := range set.ConfigDirs {
		cfgs = append(cfgs, os.DirFS(d))
	}
	lab, err := craftlab.New(craftlab.Configs(cfgs...), craftlab.Options{
		Log:        log,
		MaxJobs:    set.MaxJobs,
		DFSWorkers: set.DFSWorkers,
	})
	if err != nil {
		return nil, err
	}
	return &svrcfg.SvrCfg{Log: log, Lab: lab, Setting: set}, nil
}
