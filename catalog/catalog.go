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
	"fmt"
	"io/fs"
	"path/filepath"
	"sort"
	"strings"

	"github.com/zintix-labs/craftlab/errs"
)

var (
	ErrDupID   = errs.NewFatal("duplicate preset id")
	ErrDupName = errs.NewFatal("duplicate preset name")
)

type Entry struct {
	ID         PresetID
	Name       string
	ConfigName string
}

// Catalog 配方預設目錄。
//
// 設定檔來源一律是扁平的 fs.FS（go:embed 或 os.DirFS），每個 .yaml/.yml/.json 檔案一組預設。
// Freeze 之後只讀，可併發查詢。
type Catalog struct {
	byID   map[PresetID]Entry
	byName map[string]Entry
	ids    []PresetID          // 用來穩定排序
	unique map[string]struct{} // 一組預設，檔名需唯一
	config *multiFS
	frozen bool
}

func New(cfg ...fs.FS) (*Catalog, error) {
	multFS, err := newMultiFS(cfg...)
	if err != nil {
		return nil, errs.Wrap(err, "can not create catalog")
	}
	return &Catalog{
		byID:   map[PresetID]Entry{},
		byName: map[string]Entry{},
		ids:    make([]PresetID, 0, 100),
		unique: map[string]struct{}{},
		config: multFS,
		frozen: false,
	}, nil
}

// NewAuto 建立目錄、註冊所有設定檔並凍結。
func NewAuto(cfg ...fs.FS) (*Catalog, error) {
	c, err := New(cfg...)
	if err != nil {
		return nil, err
	}
	if err := c.RegisterAll(); err != nil {
		return nil, err
	}
	c.Freeze()
	return c, nil
}

func (c *Catalog) Register(metas ...Entry) error {
	if c.frozen {
		return errs.NewWarn("can not register when catalog already frozen")
	}
	seenID := map[PresetID]struct{}{}
	seenName := map[string]struct{}{}
	seenCfg := map[string]struct{}{}
	for i := range metas {
		meta := &metas[i]
		meta.Name = strings.ToLower(strings.TrimSpace(meta.Name))
		if meta.Name == "" {
			return errs.NewFatal("preset name required")
		}
		if err := validFileName(meta.ConfigName); err != nil {
			return err
		}
		if _, ok := c.config.index[meta.ConfigName]; !ok {
			return errs.NewFatal(fmt.Sprintf("config file not found: %s", meta.ConfigName))
		}
		if _, ok := c.byID[meta.ID]; ok {
			return ErrDupID
		}
		if _, ok := c.byName[meta.Name]; ok {
			return ErrDupName
		}
		if _, ok := c.unique[meta.ConfigName]; ok {
			return errs.NewFatal(fmt.Sprintf("duplicate config name: %s", meta.ConfigName))
		}
		if _, ok := seenID[meta.ID]; ok {
			return ErrDupID
		}
		if _, ok := seenName[meta.Name]; ok {
			return ErrDupName
		}
		if _, ok := seenCfg[meta.ConfigName]; ok {
			return errs.NewFatal(fmt.Sprintf("duplicate config name: %s", meta.ConfigName))
		}
		seenID[meta.ID] = struct{}{}
		seenName[meta.Name] = struct{}{}
		seenCfg[meta.ConfigName] = struct{}{}
	}
	for _, meta := range metas {
		c.unique[meta.ConfigName] = struct{}{}
		c.byID[meta.ID] = meta
		c.byName[meta.Name] = meta
		c.ids = append(c.ids, meta.ID)
	}
	sort.Slice(c.ids, func(i, j int) bool { return c.ids[i] < c.ids[j] })
	return nil
}

// RegisterAll 掃描所有來源，把可辨識的設定檔解析成 Preset 後一次性註冊。
//
// 任何檔案解析失敗立即回傳錯誤，不會留下註冊一半的目錄；檔案依名稱排序處理。
func (c *Catalog) RegisterAll() error {
	sources := c.config.Sources()
	if len(sources) == 0 {
		return errs.NewFatal("configs required")
	}

	names := make([]string, 0, len(c.config.index))
	for name := range c.config.index {
		names = append(names, name)
	}
	sort.Strings(names)

	entries := make([]Entry, 0, len(names))
	seenID := map[PresetID]string{}
	seenName := map[string]string{}
	for _, base := range names {
		if strings.HasPrefix(base, ".") {
			continue
		}
		p, err := c.parse(base)
		if err != nil {
			return errs.WrapWithExtra(err, "parse preset failed", base)
		}
		if prev, ok := seenID[p.ID]; ok {
			return errs.NewFatal(fmt.Sprintf("duplicate preset id: %d (config=%s and %s)", p.ID, prev, base))
		}
		seenID[p.ID] = base
		if prev, ok := seenName[p.Name]; ok {
			return errs.NewFatal(fmt.Sprintf("duplicate preset name: %s (config=%s and %s)", p.Name, prev, base))
		}
		seenName[p.Name] = base
		entries = append(entries, Entry{ID: p.ID, Name: p.Name, ConfigName: base})
	}
	if len(entries) == 0 {
		return errs.NewFatal("no config files found to register")
	}
	return c.Register(entries...)
}

func (c *Catalog) GetByID(id PresetID) (Entry, bool) {
	m, ok := c.byID[id]
	return m, ok
}

func (c *Catalog) GetByName(name string) (Entry, bool) {
	m, ok := c.byName[strings.ToLower(strings.TrimSpace(name))]
	return m, ok
}

func (c *Catalog) IDs() []PresetID {
	if len(c.ids) == 0 {
		return nil
	}
	return append([]PresetID(nil), c.ids...)
}

func (c *Catalog) All() []Entry {
	m := make([]Entry, 0, len(c.ids))
	for _, id := range c.ids {
		if meta, ok := c.GetByID(id); ok {
			m = append(m, meta)
		}
	}
	return m
}

func (c *Catalog) Freeze() {
	c.frozen = true
}

func (c *Catalog) IsFrozen() bool {
	return c.frozen
}

// PresetByID 讀取並解析對應的設定檔
func (c *Catalog) PresetByID(id PresetID) (*Preset, error) {
	e, ok := c.GetByID(id)
	if !ok {
		return nil, errs.NewCode(errs.Warn, errs.CodeNotFound, fmt.Sprintf("preset id %d does not exist in catalog", id))
	}
	return c.parse(e.ConfigName)
}

// PresetByName 讀取並解析對應的設定檔
func (c *Catalog) PresetByName(name string) (*Preset, error) {
	e, ok := c.GetByName(name)
	if !ok {
		return nil, errs.NewCode(errs.Warn, errs.CodeNotFound, fmt.Sprintf("preset %q does not exist in catalog", name))
	}
	return c.parse(e.ConfigName)
}

// Summaries 依 ID 排序的摘要列表
func (c *Catalog) Summaries() ([]Summary, error) {
	out := make([]Summary, 0, len(c.ids))
	for _, id := range c.ids {
		p, err := c.PresetByID(id)
		if err != nil {
			return nil, err
		}
		out = append(out, p.Summary())
	}
	return out, nil
}

func (c *Catalog) parse(name string) (*Preset, error) {
	src, ok := c.config.GetFS(name)
	if !ok {
		return nil, errs.NewWarn("file name does not exist in catalog")
	}
	raw, err := fs.ReadFile(src, name)
	if err != nil {
		return nil, errs.Wrap(err, "catalog read file error")
	}
	switch strings.ToLower(filepath.Ext(name)) {
	case ".yaml", ".yml":
		return ParsePresetYAML(raw)
	case ".json":
		return ParsePresetJSON(raw)
	default:
		return nil, errs.NewFatal(fmt.Sprintf("unsupported config format: %q", name))
	}
}

func validFileName(file string) error {
	if file == "" {
		return errs.NewFatal("empty config filename")
	}
	if strings.ContainsAny(file, `/\:`) {
		return errs.NewFatal(fmt.Sprintf("invalid config filename: %q (must be a basename; no / \\ :) ", file))
	}
	lower := strings.ToLower(file)
	if !(strings.HasSuffix(lower, ".yaml") || strings.HasSuffix(lower, ".yml") || strings.HasSuffix(lower, ".json")) {
		return errs.NewFatal(fmt.Sprintf("invalid config filename: %q (must end with .yaml, .yml, or .json)", file))
	}
	if strings.HasPrefix(file, ".") {
		return errs.NewFatal(fmt.Sprintf("invalid config filename: %q (cannot start with '.')", file))
	}
	return nil
}

type multiFS struct {
	src   []fs.FS
	index map[string]int // name -> src index
}

func newMultiFS(src ...fs.FS) (*multiFS, error) {
	if len(src) == 0 {
		return nil, errs.NewFatal("no fs provided")
	}
	for i, s := range src {
		if s == nil {
			return nil, errs.NewFatal(fmt.Sprintf("fs[%d] is nil", i))
		}
	}

	m := &multiFS{
		src:   src,
		index: make(map[string]int, 256),
	}

	// eager validate: build index and detect duplicates
	for i := 0; i < len(src); i++ {
		err := fs.WalkDir(src[i], ".", func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			// 只允許根目錄，任何子目錄都視為錯誤
			if d.IsDir() {
				if path == "." {
					return nil
				}
				return errs.NewFatal(fmt.Sprintf("config FS must be flat (no subdirectories): %q", path))
			}
			if strings.Contains(path, "/") {
				return errs.NewFatal(fmt.Sprintf("config FS must be flat (no subdirectories): %q", path))
			}
			lower := strings.ToLower(path)
			if !(strings.HasSuffix(lower, ".yaml") || strings.HasSuffix(lower, ".yml") || strings.HasSuffix(lower, ".json")) {
				return nil
			}

			name := path // flat FS guarantees path is a basename

			if prev, ok := m.index[name]; ok {
				// duplicate across FS: fail fast
				return errs.NewFatal(fmt.Sprintf("duplicate config %q in fs[%d] and fs[%d]", name, prev, i))
			}
			m.index[name] = i
			return nil
		})
		if err != nil {
			return nil, err
		}
	}
	return m, nil
}

func (m *multiFS) GetFS(name string) (fs.FS, bool) {
	if id, ok := m.index[name]; ok {
		return m.src[id], ok
	}
	return nil, false
}

// Sources exposes config FS sources for read-only iteration.
func (m *multiFS) Sources() []fs.FS {
	if m == nil || len(m.src) == 0 {
		return nil
	}
	return append([]fs.FS(nil), m.src...)
}
