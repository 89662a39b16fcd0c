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

package stats

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/mattn/go-runewidth"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"gopkg.in/yaml.v3"
)

var lang language.Tag = language.English

// ReportRender 定義輸出行為
type ReportRender interface {
	Write(w io.Writer, r *McReport) error
}

// Json渲染
type JsonReportRender struct{}

func (jr *JsonReportRender) Write(w io.Writer, r *McReport) error {
	return json.NewEncoder(w).Encode(r)
}

// YAML渲染
type YAMLReportRender struct{}

func (yr *YAMLReportRender) Write(w io.Writer, r *McReport) error {
	return forceReadableList(w, r)
}

// WriteWith 先 Done 再交給 render 輸出
func (r *McReport) WriteWith(w io.Writer, rep ReportRender) error {
	r.Done()
	return rep.Write(w, r)
}

// StdOut 輸出人類可讀的表格
func (r *McReport) StdOut(w io.Writer) {
	r.Done()
	fmt.Fprint(w, formatDuration(r.Summary.Elapsed, r.Summary.Trials))
	k, m := r.fmtBasic()
	fmt.Fprintln(w, fmtTable(r.Summary.Title, k, m))
	k, m = r.fmtQuality()
	fmt.Fprintln(w, fmtTable("Quality", k, m))
}

// ============================================================
// ** 內部方法 **
// ============================================================

// YAML 內層方法：最內層一維陣列輸出成 flow style
func forceReadableList[T any](w io.Writer, t *T) error {
	var node yaml.Node
	if err := node.Encode(t); err != nil {
		return err
	}
	styleReadableSequences(&node)

	enc := yaml.NewEncoder(w)
	defer enc.Close()
	return enc.Encode(&node)
}

func styleReadableSequences(n *yaml.Node) {
	if n == nil {
		return
	}
	switch n.Kind {
	case yaml.DocumentNode, yaml.MappingNode:
		for _, c := range n.Content {
			styleReadableSequences(c)
		}
	case yaml.SequenceNode:
		hasChildSeq := false
		for _, c := range n.Content {
			if c != nil && c.Kind == yaml.SequenceNode {
				hasChildSeq = true
			}
			styleReadableSequences(c)
		}
		if !hasChildSeq {
			n.Style = yaml.FlowStyle
		}
	}
}

func formatDuration(d time.Duration, trials int) string {
	p := message.NewPrinter(lang)
	if d < 0 {
		d = -d
	}
	sec := d.Seconds()
	if sec <= 0 {
		sec = 1e-9
	}
	tps := int(float64(trials) / sec)
	if sec < 60.0 {
		return p.Sprintf("used: %.2f seconds\ntps : %d trials/sec\n", sec, tps)
	}
	s := int(d.Seconds()) % 60
	m := int(d.Minutes()) % 60
	h := int(d.Hours())
	if h == 0 {
		return p.Sprintf("used: %dm %ds\ntps : %d trials/sec\n", m, s, tps)
	}
	return p.Sprintf("used: %dh:%dm:%ds\ntps : %d trials/sec\n", h, m, s, tps)
}

func (r *McReport) fmtBasic() ([]string, map[string]string) {
	p := message.NewPrinter(lang)
	s := r.Summary
	keys := []string{"Trials", "Seed", "Success", "Success 95% CI", "High Quality", "HQ 95% CI"}
	msg := map[string]string{
		"Trials":         p.Sprintf("%d", s.Trials),
		"Seed":           fmt.Sprintf("%d", s.Seed),
		"Success":        p.Sprintf("%d (%.2f %%)", s.Success, 100.0*s.SuccessRate),
		"Success 95% CI": p.Sprintf("[%.2f%%,%.2f%%]", 100.0*s.SuccessCI.Lo, 100.0*s.SuccessCI.Hi),
		"High Quality":   p.Sprintf("%d (%.2f %%)", s.HighQuality, 100.0*s.HQRate),
		"HQ 95% CI":      p.Sprintf("[%.2f%%,%.2f%%]", 100.0*s.HQCI.Lo, 100.0*s.HQCI.Hi),
	}
	for i, label := range r.Outcomes.Labels {
		if r.Outcomes.Counts[i] == 0 {
			continue
		}
		key := "# " + label
		keys = append(keys, key)
		msg[key] = p.Sprintf("%d (%.2f %%)", r.Outcomes.Counts[i], 100.0*r.Outcomes.Rates[i])
	}
	return keys, msg
}

func (r *McReport) fmtQuality() ([]string, map[string]string) {
	p := message.NewPrinter(lang)
	q := r.Quality
	keys := []string{"Max Quality", "Mean", "P10 / P50 / P90"}
	msg := map[string]string{
		"Max Quality":     p.Sprintf("%d", q.MaxQuality),
		"Mean":            p.Sprintf("%.1f", q.Mean),
		"P10 / P50 / P90": fmt.Sprintf("%d%% / %d%% / %d%%", q.P10, q.P50, q.P90),
	}
	for i, b := range q.Buckets {
		keys = append(keys, b)
		msg[b] = p.Sprintf("%d (%.2f %%)", q.Counts[i], 100.0*q.Dist[i])
	}
	return keys, msg
}

func fmtTable(title string, keys []string, msg map[string]string) string {
	maxKeyLen := runewidth.StringWidth(title)
	maxValLen := 0
	for k, m := range msg {
		if w := runewidth.StringWidth(k); w > maxKeyLen {
			maxKeyLen = w
		}
		if w := runewidth.StringWidth(m); w > maxValLen {
			maxValLen = w
		}
	}
	maxKeyLen += 2
	maxValLen += 2

	divider := "+" + strings.Repeat("-", maxKeyLen) + "+" + strings.Repeat("-", maxValLen) + "+\n"
	top := "+" + strings.Repeat("-", maxKeyLen+1+maxValLen) + "+\n"

	totalInner := maxKeyLen + maxValLen + 1
	titleW := runewidth.StringWidth(title)
	left := (totalInner - titleW) / 2
	right := totalInner - titleW - left

	var sb strings.Builder
	sb.WriteString(top)
	sb.WriteString("|" + blank(left) + title + blank(right) + "|\n")
	sb.WriteString(divider)
	for _, k := range keys {
		sb.WriteString("| " + k + blank(maxKeyLen-2-runewidth.StringWidth(k)) + " | " + msg[k] + blank(maxValLen-2-runewidth.StringWidth(msg[k])) + " |\n")
	}
	sb.WriteString(divider)
	return sb.String()
}

func blank(w int) string {
	if w < 1 {
		return ""
	}
	return strings.Repeat(" ", w)
}
