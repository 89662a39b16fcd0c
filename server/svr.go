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
package server

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/zintix-labs/craftlab"
	"github.com/zintix-labs/craftlab/errs"
	"github.com/zintix-labs/craftlab/server/api"
	"github.com/zintix-labs/craftlab/server/app"
	"github.com/zintix-labs/craftlab/server/logger"
	"github.com/zintix-labs/craftlab/server/netsvr"
	"github.com/zintix-labs/craftlab/server/svrcfg"
)

// Run 組裝並啟動服務：驗證 SvrCfg → 建立 chi server → 註冊路由 → app.Run()。
//
// Lab 會以 Component 的形式交給 app 管理，收到終止信號時與 HTTP server 一起關閉；
// 使用 AsyncHandler 時，結束前會把剩餘的 log 寫完。
func Run(sCfg *svrcfg.SvrCfg) {
	if err := sCfg.Valid(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return
	}
	set := sCfg.Setting
	RunWithSvr(sCfg, netsvr.NewChiServer(set.Addr, netsvr.WithWriteTimeout(set.RequestTimeout+10*time.Second)))
}

// RunWithSvr 與 Run 相同，但使用呼叫端注入的 NetSvr。
// 若要把 /v1 掛到既有服務，直接呼叫 api.RegisterRoutes 即可，不必經過這裡。
func RunWithSvr(sCfg *svrcfg.SvrCfg, svr netsvr.NetSvr) {
	if err := sCfg.Valid(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return
	}
	defer closeLog(sCfg.Log)
	if svr == nil {
		sCfg.Log.Error(errs.NewFatal("svr is required").Error())
		return
	}
	if s, ok := svr.(*netsvr.ChiAdapter); ok && !s.Ready() {
		sCfg.Log.Error(errs.NewFatal("default server is not ready").Error())
		return
	}
	if err := api.RegisterRoutes(svr, sCfg); err != nil {
		sCfg.Log.Error("register routes failed", slog.Any("err", err))
		return
	}

	a := app.NewWith(svr, labComponent{sCfg.Lab})
	sCfg.Log.Info("[craftlab] listening", slog.String("addr", sCfg.Setting.Addr))
	if err := a.Run(); err != nil {
		sCfg.Log.Error("app stopped", slog.Any("err", err))
	}
}

// labComponent 讓 Lab 的生命週期由 app 管理：Run 阻塞到 Lab 關閉。
type labComponent struct {
	lab *craftlab.Lab
}

func (c labComponent) Run() error {
	<-c.lab.Done()
	return errs.NewFatal("lab closed: " + c.lab.ClosedReason())
}

func (c labComponent) Shutdown(ctx context.Context) error {
	c.lab.Close("shutdown")
	return nil
}

func closeLog(log *slog.Logger) {
	if ah, ok := log.Handler().(*logger.AsyncHandler); ok {
		ah.Close()
	}
}
