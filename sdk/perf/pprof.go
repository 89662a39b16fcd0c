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

// Package perf 包裝 runtime/pprof，讓 CLI 以一個旗標切換 profiling。
package perf

import (
	"os"
	"path/filepath"
	"runtime"
	"runtime/pprof"

	"github.com/zintix-labs/craftlab/errs"
)

// DefaultDir pprof 檔案寫入路徑。
const DefaultDir = "build/profiling"

// Mode 支援的 profiling 種類。
const (
	ModeNone   = ""
	ModeCPU    = "cpu"
	ModeHeap   = "heap"
	ModeAllocs = "allocs"
)

// Run 依 mode 包住 exe 執行；mode 為空時直接執行。
// exe 的錯誤優先回傳。
//
// Usage like:
//
//	craft solve -p cpu ...
//	go tool pprof build/profiling/cpu.pprof
func Run(dir, mode string, exe func() error) error {
	if dir == "" {
		dir = DefaultDir
	}
	switch mode {
	case ModeNone:
		return exe()
	case ModeCPU:
		return cpu(dir, exe)
	case ModeHeap, ModeAllocs:
		err := exe()
		if werr := snapshot(dir, mode); err == nil {
			err = werr
		}
		return err
	default:
		return errs.Warnf("unknown pprof mode %q (cpu|heap|allocs)", mode)
	}
}

func create(dir, name string) (*os.File, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, errs.Wrap(err, "create pprof dir")
	}
	f, err := os.Create(filepath.Join(dir, name))
	if err != nil {
		return nil, errs.Wrap(err, "create "+name)
	}
	return f, nil
}

func cpu(dir string, exe func() error) error {
	f, err := create(dir, "cpu.pprof")
	if err != nil {
		return err
	}
	defer f.Close()
	if err := pprof.StartCPUProfile(f); err != nil {
		return errs.Wrap(err, "start cpu profile")
	}
	defer pprof.StopCPUProfile()
	return exe()
}

// snapshot 在執行後寫出 heap（先 GC 以取得 live objects）或累積配置 allocs。
func snapshot(dir, mode string) error {
	if mode == ModeHeap {
		runtime.GC()
	}
	f, err := create(dir, mode+".pprof")
	if err != nil {
		return err
	}
	defer f.Close()
	prof := pprof.Lookup(mode)
	if prof == nil {
		return errs.Fatalf("pprof profile %q not found", mode)
	}
	if err := prof.WriteTo(f, 0); err != nil {
		return errs.Wrap(err, "write "+mode+" profile")
	}
	return nil
}
