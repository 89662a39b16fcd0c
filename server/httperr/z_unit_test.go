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
package httperr

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/zintix-labs/craftlab/errs"
)

func TestStatusCode(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want int
	}{
		{"warn", errs.NewWarn("bad"), http.StatusBadRequest},
		{"fatal", errs.NewFatal("boom"), http.StatusInternalServerError},
		{"foreign", context.Canceled, http.StatusRequestTimeout},
		{"deadline wrapped", errs.Wrap(context.DeadlineExceeded, "dfs"), http.StatusGatewayTimeout},
		{"not found", errs.NewCode(errs.Warn, errs.CodeNotFound, "preset"), http.StatusNotFound},
		{"solver not found", errs.NewCode(errs.Warn, errs.CodeSolverNotFound, "x"), http.StatusNotFound},
		{"building", errs.Wrap(errs.NewCode(errs.Warn, errs.CodeSolverBuilding, "x"), "create"), http.StatusConflict},
		{"not ready", errs.NewCode(errs.Warn, errs.CodeSolverNotReady, "x"), http.StatusConflict},
		{"canceled code", errs.NewCode(errs.Warn, errs.CodeCanceled, "x"), http.StatusGatewayTimeout},
		{"closed", errs.NewCode(errs.Fatal, errs.CodeClosed, "x"), http.StatusServiceUnavailable},
		{"rejected", errs.NewCode(errs.Warn, errs.CodeActionRejected, "x"), http.StatusBadRequest},
	}
	for _, c := range cases {
		if got := StatusCode(c.err); got != c.want {
			t.Fatalf("%s: got %d want %d", c.name, got, c.want)
		}
	}
}

func TestErrsBody(t *testing.T) {
	rec := httptest.NewRecorder()
	Errs(rec, errs.NewCode(errs.Warn, errs.CodeSolverExists, "solver already exists"))
	if rec.Code != http.StatusConflict {
		t.Fatalf("unexpected status %d", rec.Code)
	}
	var b Body
	if err := json.NewDecoder(rec.Body).Decode(&b); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if b.Code != errs.CodeSolverExists || b.Level != "warn" {
		t.Fatalf("unexpected body: %+v", b)
	}
}
