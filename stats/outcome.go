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

import "fmt"

// Outcome 一次模擬的結局分類，彼此互斥。
type Outcome uint8

const (
	OutcomeError Outcome = iota
	OutcomeUnfinished
	OutcomeFail
	OutcomeNormal
	OutcomeHighQuality
	OutcomeNoCollectability
	OutcomeLow
	OutcomeMid
	OutcomeHigh

	OutcomeCount
)

var outcomeLabels = [OutcomeCount]string{
	"errors", "unfinished", "fails", "normal", "high_quality",
	"no_collectability", "low", "mid", "high",
}

func (o Outcome) String() string {
	if o >= OutcomeCount {
		return "unknown"
	}
	return outcomeLabels[o]
}

// OutcomeLabels 依 Outcome 順序的標籤。
func OutcomeLabels() []string {
	return append([]string(nil), outcomeLabels[:]...)
}

// Success 進度推滿的結局。
func (o Outcome) Success() bool { return o >= OutcomeNormal && o < OutcomeCount }

// QualityBuckets 以「品質 / 配方品質上限」百分比分桶：
// [0,10%), [10,20%), ..., [90,100%), 100%。
//
// 用 LUT 由百分比 O(1) 定位桶索引。
type QualityBuckets struct {
	labels []string
	lut    [101]uint8
}

// Quality 預設分桶，請勿修改。
var Quality = newQualityBuckets([]int{10, 20, 30, 40, 50, 60, 70, 80, 90, 100})

func newQualityBuckets(bounds []int) *QualityBuckets {
	b := &QualityBuckets{}
	lo := 0
	for _, hi := range bounds {
		b.labels = append(b.labels, fmt.Sprintf("[%d%%,%d%%)", lo, hi))
		lo = hi
	}
	b.labels = append(b.labels, "100%")
	idx := 0
	for pct := 0; pct <= 100; pct++ {
		for idx < len(bounds) && pct >= bounds[idx] {
			idx++
		}
		b.lut[pct] = uint8(idx)
	}
	return b
}

// Labels 分桶標籤。
func (b *QualityBuckets) Labels() []string { return b.labels }

// Index 百分比（0..100，超過以 100 計）對應的桶。
func (b *QualityBuckets) Index(pct int) int {
	return int(b.lut[max(0, min(pct, 100))])
}

// Percent 品質佔上限的整數百分比。
func Percent(quality, maxQuality uint32) int {
	if maxQuality == 0 {
		return 100
	}
	return int(min(uint64(quality)*100/uint64(maxQuality), 100))
}
