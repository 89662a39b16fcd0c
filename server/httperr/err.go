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
// Package httperr 把錯誤轉成 HTTP 回應。
//
// 映射只存在於 HTTP 邊界層，核心的 errs 套件不依賴 net/http。
package httperr

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/zintix-labs/craftlab/errs"
)

// Body 錯誤回應的 JSON 格式
type Body struct {
	Error string    `json:"error"`
	Code  errs.Code `json:"code,omitempty"`
	Level string    `json:"level,omitempty"`
}

// StatusCode 將錯誤映射成 HTTP status code。
//
// 優先序：
//   - ctx deadline → 504，ctx cancel → 408
//   - 錯誤代碼：not-found → 404，exists/building/not-ready → 409，
//     canceled → 504，closed → 503，rate-limited → 429
//   - 等級：Warn → 400，Fatal → 500
func StatusCode(err error) int {
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	case errors.Is(err, context.Canceled):
		return http.StatusRequestTimeout
	}

	switch errs.CodeOf(err) {
	case errs.CodeNotFound, errs.CodeSolverNotFound:
		return http.StatusNotFound
	case errs.CodeSolverExists, errs.CodeSolverBuilding, errs.CodeSolverNotReady:
		return http.StatusConflict
	case errs.CodeCanceled:
		return http.StatusGatewayTimeout
	case errs.CodeClosed:
		return http.StatusServiceUnavailable
	case errs.CodeRateLimited:
		return http.StatusTooManyRequests
	}

	var e *errs.E
	if errors.As(err, &e) && e.ErrLv == errs.Warn {
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

// Errs 寫回 JSON 錯誤。
func Errs(w http.ResponseWriter, err error) {
	if err == nil {
		return
	}
	status := StatusCode(err)
	body := Body{Error: err.Error()}
	var e *errs.E
	if errors.As(err, &e) {
		body.Code = errs.CodeOf(err)
		body.Level = errs.ErrLv(e.ErrLv)
	}
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

// Log 依狀態碼決定記錄等級；一般的 4xx 不記錄。
func Log(log *slog.Logger, msg string, err error) {
	if err == nil || log == nil {
		return
	}
	status := StatusCode(err)
	switch {
	case status == http.StatusRequestTimeout, status == http.StatusConflict, status == http.StatusTooManyRequests:
		log.Warn(msg, slog.Any("err", err))
	case status >= 500:
		log.Error(msg, slog.Any("err", err))
	}
}
