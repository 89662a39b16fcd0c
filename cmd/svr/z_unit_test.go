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
	"os"
	"path/filepath"
	"testing"
)

func TestLoadConfigFromFlags(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "svr.yaml")
	if err := os.WriteFile(path, []byte("addr: \":7000\"\nlog_mode: prod\nmax_jobs: 3\n"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	cfg, err := loadConfigFromFlags([]string{"-config", path, "-log-mode", "silence"})
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	defer cfg.Lab.Close("test")
	if cfg.Setting.Addr != ":7000" || cfg.Setting.LogMode != "silence" || cfg.Setting.MaxJobs != 3 {
		t.Fatalf("unexpected setting: %+v", cfg.Setting)
	}
	if len(cfg.Lab.Catalog().IDs()) == 0 {
		t.Fatalf("demo presets missing")
	}
}

func TestLoadConfigRejects(t *testing.T) {
	if _, err := loadConfigFromFlags([]string{"-log-mode", "loud"}); err == nil {
		t.Fatalf("expected error for bad log mode")
	}
	if _, err := loadConfigFromFlags([]string{"-config", "does/not/exist.yaml"}); err == nil {
		t.Fatalf("expected error for missing config")
	}
}
