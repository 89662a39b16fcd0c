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
package api

import (
	"log/slog"
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	v1 "github.com/zintix-labs/craftlab/server/api/v1"
	"github.com/zintix-labs/craftlab/server/netsvr"
	"github.com/zintix-labs/craftlab/server/netsvr/middleware"
	"github.com/zintix-labs/craftlab/server/svrcfg"
	"github.com/zintix-labs/craftlab/setting"
)

// RegisterRoutes 註冊 middleware、健康檢查、/metrics 與 /v1。
func RegisterRoutes(svr netsvr.NetRouter, sCfg *svrcfg.SvrCfg) error {
	registerMiddleware(svr, sCfg.Log, sCfg.Setting)
	registerOps(svr, sCfg)
	return registerV1API(svr, sCfg)
}

func registerMiddleware(svr netsvr.NetRouter, log *slog.Logger, set setting.ServerConfig) {
	svr.Use(middleware.RequestID)
	svr.Use(middleware.AccessLog(log))
	svr.Use(middleware.Recover)
	svr.Use(middleware.Timeout(set.RequestTimeout))
	svr.Use(middleware.Compression)
}

func registerOps(svr netsvr.NetRouter, sCfg *svrcfg.SvrCfg) {
	svr.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		if sCfg.Lab.Closed() {
			http.Error(w, "closed: "+sCfg.Lab.ClosedReason(), http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	svr.Get("/metrics", promhttp.Handler().ServeHTTP)
}

func registerV1API(svr netsvr.NetRouter, sCfg *svrcfg.SvrCfg) error {
	h, err := v1.NewHandler(sCfg)
	if err != nil {
		return err
	}
	svr.Group("/v1", func(vOne netsvr.NetRouter) {
		h.Register(vOne)
	})
	return nil
}
