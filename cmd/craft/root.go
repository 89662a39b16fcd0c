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
	"encoding/json"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/zintix-labs/craftlab"
	"github.com/zintix-labs/craftlab/catalog"
	"github.com/zintix-labs/craftlab/craft"
	"github.com/zintix-labs/craftlab/demo/demo_configs"
	"github.com/zintix-labs/craftlab/errs"
	"github.com/zintix-labs/craftlab/sdk/perf"
	"github.com/zintix-labs/craftlab/server/logger"
	"gopkg.in/yaml.v3"
)

// rootOptions 所有子命令共用的旗標
type rootOptions struct {
	preset      uint32
	level       uint8
	cm          uint16
	control     uint16
	cp          uint16
	specialist  bool
	initQuality uint32
	configDirs  []string
	format      string
	pprof       string
	logMode     string
	maxJobs     int
}

func newRootCmd() *cobra.Command {
	o := new(rootOptions)
	root := &cobra.Command{
		Use:           "craft",
		Short:         "Crafting macro solver toolkit",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			switch o.format {
			case "text", "json", "yaml":
			default:
				return errs.Warnf("unknown format %q (text|json|yaml)", o.format)
			}
			_, err := logger.ParseMode(o.logMode)
			return err
		},
	}
	pf := root.PersistentFlags()
	pf.Uint32Var(&o.preset, "preset", 1001, "recipe preset id")
	pf.Uint8Var(&o.level, "level", 0, "override job level")
	pf.Uint16Var(&o.cm, "craftsmanship", 0, "override craftsmanship")
	pf.Uint16Var(&o.control, "control", 0, "override control")
	pf.Uint16Var(&o.cp, "cp", 0, "override craft points")
	pf.BoolVar(&o.specialist, "specialist", false, "crafter is a specialist")
	pf.Uint32Var(&o.initQuality, "init-quality", 0, "initial quality")
	pf.StringSliceVar(&o.configDirs, "config-dir", nil, "extra preset directories")
	pf.StringVarP(&o.format, "format", "f", "text", "output format: text|json|yaml")
	pf.StringVarP(&o.pprof, "pprof", "p", "", "pprof: '', cpu, heap, allocs")
	pf.StringVar(&o.logMode, "log-mode", "silence", "log mode: dev|prod|silence")
	pf.IntVar(&o.maxJobs, "max-jobs", 0, "concurrent heavy jobs, 0 uses GOMAXPROCS")

	root.AddCommand(
		newRecipesCmd(o),
		newSolveCmd(o),
		newDFSCmd(o),
		newSimCmd(o),
		newMonteCarloCmd(o),
		newScopeCmd(o),
		newMacroCmd(o),
	)
	return root
}

// run 以 pprof 模式包住實際工作
func (o *rootOptions) run(fn func() error) error {
	return perf.Run(perf.DefaultDir, o.pprof, fn)
}

func (o *rootOptions) newLogger(w io.Writer) (*slog.Logger, func()) {
	mode, _ := logger.ParseMode(o.logMode)
	log, ah := logger.NewAsyncTo(w, 1024, mode)
	return log, ah.Close
}

// withLab 建立 Lab 並在 pprof 模式下執行 fn，結束時關閉 Lab 與 logger。
func (o *rootOptions) withLab(cmd *cobra.Command, fn func(lab *craftlab.Lab) error) error {
	log, closeLog := o.newLogger(cmd.ErrOrStderr())
	defer closeLog()
	lab, err := o.newLab(log)
	if err != nil {
		return err
	}
	defer lab.Close("cli done")
	return o.run(func() error { return fn(lab) })
}

// newLab 內建示範配方加上 --config-dir 指定的目錄
func (o *rootOptions) newLab(log *slog.Logger) (*craftlab.Lab, error) {
	cfgs := []fs.FS{demo_configs.FS}
	for _, d := range o.configDirs {
		cfgs = append(cfgs, os.DirFS(d))
	}
	return craftlab.New(craftlab.Configs(cfgs...), craftlab.Options{Log: log, MaxJobs: o.maxJobs, DFSWorkers: 0})
}

// status 由預設與覆寫旗標組出初始狀態
func (o *rootOptions) status(lab *craftlab.Lab) (*craft.Status, *catalog.Preset, error) {
	p, err := lab.Catalog().PresetByID(catalog.PresetID(o.preset))
	if err != nil {
		return nil, nil, err
	}
	attrs := craft.Attributes{}
	if p.Attributes != nil {
		attrs = *p.Attributes
	}
	if o.level > 0 {
		attrs.Level = o.level
	}
	if o.cm > 0 {
		attrs.Craftsmanship = o.cm
	}
	if o.control > 0 {
		attrs.Control = o.control
	}
	if o.cp > 0 {
		attrs.CraftPoints = o.cp
	}
	if o.specialist {
		attrs.Specialist = true
	}
	s, err := p.NewStatus(&attrs)
	if err != nil {
		return nil, nil, err
	}
	if o.initQuality > 0 {
		s = s.WithInitQuality(o.initQuality)
	}
	return s, p, nil
}

// parseActions 接受以空白或逗號分隔的技能名稱
func parseActions(args []string) ([]craft.Action, error) {
	var out []craft.Action
	for _, arg := range args {
		for _, f := range strings.Split(arg, ",") {
			if f = strings.TrimSpace(f); f == "" {
				continue
			}
			a, err := craft.ParseAction(f)
			if err != nil {
				return nil, err
			}
			out = append(out, a)
		}
	}
	return out, nil
}

// encode json / yaml 輸出；text 由各子命令自行處理
func (o *rootOptions) encode(w io.Writer, v any) error {
	switch o.format {
	case "yaml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		defer enc.Close()
		return enc.Encode(v)
	default:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	}
}
