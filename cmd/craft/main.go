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
// craft 是本機使用的求解工具：以內建或外部的配方預設組出初始狀態，
// 執行求解、DFS、模擬、Monte Carlo 統計、適用範圍分析與巨集輸出。
//
//	craft recipes
//	craft solve --preset 1001
//	craft montecarlo --preset 1001 --trials 100000 -w 8 muscle_memory,veneration,groundwork
//	craft solve -p cpu && go tool pprof build/profiling/cpu.pprof
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
