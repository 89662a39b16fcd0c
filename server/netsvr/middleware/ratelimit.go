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
package middleware

import (
	"math"
	"net/http"
	"strconv"

	"github.com/zintix-labs/craftlab/errs"
	"github.com/zintix-labs/craftlab/server/httperr"
	"golang.org/x/time/rate"
)

// RateLimit 以 token bucket 限制整體請求速率，超過時回 429。
// limit <= 0 時不限流。
func RateLimit(limit float64, burst int) func(http.Handler) http.Handler {
	if limit <= 0 {
		return func(next http.Handler) http.Handler { return next }
	}
	if burst <= 0 {
		burst = max(1, int(limit))
	}
	lim := rate.NewLimiter(rate.Limit(limit), burst)
	retry := strconv.Itoa(max(1, int(math.Ceil(1/limit))))
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !lim.Allow() {
				w.Header().Set("Retry-After", retry)
				httperr.Errs(w, errs.NewCode(errs.Warn, errs.CodeRateLimited, "too many requests"))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
