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

// Package macro 把技能序列輸出成遊戲內巨集文字與可分享的短碼。
package macro

import (
	"fmt"
	"strings"

	"github.com/zintix-labs/craftlab/craft"
	"github.com/zintix-labs/craftlab/errs"
)

// MaxLines 單一巨集的行數上限
const MaxLines = 15

// Section 巨集分段方式
type Section string

const (
	SectionAvg     Section = "avg"     // 段數最少且每段長度平均
	SectionGreedy  Section = "greedy"  // 前面的段落填滿
	SectionDisable Section = "disable" // 不分段
)

// Notify 完成提示
type Notify string

const (
	NotifyAuto   Notify = "auto" // 多於一段時才提示
	NotifyAlways Notify = "always"
	NotifyNever  Notify = "never"
)

// Options 輸出參數，零值等同 DefaultOptions。
type Options struct {
	Section     Section `json:"section,omitempty" yaml:"section,omitempty" validate:"omitempty,oneof=avg greedy disable"`
	Notify      Notify  `json:"notify,omitempty" yaml:"notify,omitempty" validate:"omitempty,oneof=auto always never"`
	NotifySound string  `json:"notify_sound,omitempty" yaml:"notify_sound,omitempty" validate:"max=16"`
	Lock        bool    `json:"lock,omitempty" yaml:"lock,omitempty"`
	WaitInc     int     `json:"wait_inc,omitempty" yaml:"wait_inc,omitempty" validate:"gte=0,lte=5"`
}

func DefaultOptions() Options {
	return Options{Section: SectionAvg, Notify: NotifyAuto, NotifySound: " <se.1>"}
}

func (o Options) withDefaults() Options {
	d := DefaultOptions()
	if o.Section == "" {
		o.Section = d.Section
	}
	if o.Notify == "" {
		o.Notify = d.Notify
	}
	return o
}

// Format 依 opts 分段輸出巨集，每段一個字串（以換行分隔）。
func Format(actions []craft.Action, opts Options) ([]string, error) {
	opts = opts.withDefaults()
	if len(actions) == 0 {
		return nil, nil
	}
	for i, a := range actions {
		if !a.Valid() {
			return nil, errs.Warnf("invalid action at pos %d", i)
		}
	}
	reserved := 0
	if opts.Lock {
		reserved++
	}
	notify := opts.Notify == NotifyAlways
	if opts.Notify == NotifyAuto && opts.Section != SectionDisable {
		notify = len(actions) > MaxLines-reserved
	}
	if notify {
		reserved++
	}

	var sizes []int
	switch opts.Section {
	case SectionDisable:
		sizes = []int{len(actions)}
	case SectionGreedy, SectionAvg:
		capacity := MaxLines - reserved
		k := (len(actions) + capacity - 1) / capacity
		sizes = make([]int, k)
		if opts.Section == SectionGreedy {
			for i := range sizes {
				sizes[i] = min(capacity, len(actions)-i*capacity)
			}
		} else {
			for i := range sizes {
				sizes[i] = len(actions) / k
				if i < len(actions)%k {
					sizes[i]++
				}
			}
		}
	default:
		return nil, errs.Warnf("unknown section method: %q", opts.Section)
	}

	out := make([]string, 0, len(sizes))
	pos := 0
	for i, n := range sizes {
		var sb strings.Builder
		if opts.Lock {
			sb.WriteString("/mlock\n")
		}
		for _, a := range actions[pos : pos+n] {
			fmt.Fprintf(&sb, "/ac \"%s\" <wait.%d>\n", a.Display(), wait(a)+opts.WaitInc)
		}
		pos += n
		if notify {
			fmt.Fprintf(&sb, "/echo Macro #%d finished%s\n", i+1, opts.NotifySound)
		}
		out = append(out, sb.String())
	}
	return out, nil
}

// wait 不影響進度與品質的技能等 2 秒，其餘 3 秒。
func wait(a craft.Action) int {
	if a.BaseDurability() == 0 && a != craft.TrainedFinesse {
		return 2
	}
	return 3
}
