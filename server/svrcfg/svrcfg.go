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
package svrcfg

import (
	"log/slog"

	"github.com/zintix-labs/craftlab"
	"github.com/zintix-labs/craftlab/errs"
	"github.com/zintix-labs/craftlab/server/logger"
	"github.com/zintix-labs/craftlab/setting"
)

// SvrCfg server 組裝所需的依賴
type SvrCfg struct {
	Log     *slog.Logger
	Lab     *craftlab.Lab
	Setting setting.ServerConfig
}

// Valid 檢查依賴並補上預設值；Log 為 nil 時使用 dev 模式的 async logger。
func (sc *SvrCfg) Valid() error {
	if sc.Log != nil {
		if ah, ok := sc.Log.Handler().(*logger.AsyncHandler); ok && !ah.Ready() {
			return errs.NewFatal("nil default log handler: async handler is nil")
		}
	} else {
		sc.Log, _ = logger.NewAsync(1024, logger.ModeDev)
	}
	if sc.Lab == nil {
		return errs.NewFatal("lab is required")
	}
	if sc.Lab.Closed() {
		return errs.NewFatal("lab is closed: " + sc.Lab.ClosedReason())
	}
	if sc.Setting.Addr == "" {
		sc.Setting = setting.DefaultServerConfig()
	}
	if err := sc.Setting.Validate(); err != nil {
		return err
	}
	return nil
}
