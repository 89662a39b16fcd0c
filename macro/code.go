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

package macro

import (
	"sync"

	"github.com/klauspost/compress/zstd"
	"github.com/zintix-labs/craftlab/corefmt"
	"github.com/zintix-labs/craftlab/craft"
	"github.com/zintix-labs/craftlab/errs"
)

// codeVersion 短碼格式版本，放在解壓後的第一個位元組。
const codeVersion byte = 1

// maxCodeActions 解碼時允許的技能數上限
const maxCodeActions = 1 << 10

var (
	zEnc = sync.OnceValues(func() (*zstd.Encoder, error) {
		return zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedBestCompression))
	})
	zDec = sync.OnceValues(func() (*zstd.Decoder, error) {
		return zstd.NewReader(nil, zstd.WithDecoderConcurrency(0), zstd.WithDecoderMaxMemory(1<<20))
	})
)

// Encode 把技能序列編成 URL-safe 的短碼：version || frame(actions)，經 zstd 壓縮後 base64url。
func Encode(actions []craft.Action) (string, error) {
	raw := make([]byte, len(actions))
	for i, a := range actions {
		if !a.Valid() {
			return "", errs.Warnf("invalid action at pos %d", i)
		}
		raw[i] = byte(a)
	}
	enc, err := zEnc()
	if err != nil {
		return "", errs.Wrap(err, "zstd encoder init failed")
	}
	payload := append([]byte{codeVersion}, corefmt.EncodeBlobFrame(raw)...)
	return corefmt.EncodeBase64URL(enc.EncodeAll(payload, nil)), nil
}

// Decode 為 Encode 的反向操作；格式錯誤、版本不符或含未知技能時回傳 Warn 錯誤。
func Decode(code string) ([]craft.Action, error) {
	comp, err := corefmt.DecodeBase64URL(code)
	if err != nil {
		return nil, errs.NewWarn("invalid macro code: " + err.Error())
	}
	dec, err := zDec()
	if err != nil {
		return nil, errs.Wrap(err, "zstd decoder init failed")
	}
	payload, err := dec.DecodeAll(comp, nil)
	if err != nil {
		return nil, errs.NewWarn("invalid macro code: " + err.Error())
	}
	if len(payload) == 0 || payload[0] != codeVersion {
		return nil, errs.NewWarn("unsupported macro code version")
	}
	raw, err := corefmt.DecodeBlobFrame(payload[1:])
	if err != nil {
		return nil, err
	}
	if len(raw) > maxCodeActions {
		return nil, errs.NewWarn("macro code too long")
	}
	out := make([]craft.Action, len(raw))
	for i, b := range raw {
		a := craft.Action(b)
		if !a.Valid() {
			return nil, errs.Warnf("unknown action %d at pos %d", b, i)
		}
		out[i] = a
	}
	return out, nil
}
