// Copyright © 2021 Rak Laptudirm <raklaptudirm@gmail.com>
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package piece

import (
	"strconv"

	"github.com/raklaptudirm/mktorrent/internal/model"
)

// V1Stream returns the ordered list of entries that make up the v1
// concatenated content stream: the real files from entries, with a
// synthetic zero-byte padding file spliced in after every real file
// whose length is not a multiple of pieceLength, in hybrid mode. In v1
// mode it returns entries unchanged; no padding is ever inserted after
// the final file.
func V1Stream(entries []model.FileEntry, pieceLength int64, mode model.Mode) []model.FileEntry {
	if mode != model.ModeHybrid {
		return entries
	}

	out := make([]model.FileEntry, 0, len(entries)*2)
	for i, e := range entries {
		out = append(out, e)

		if i == len(entries)-1 {
			continue // no padding after the final file
		}

		if rem := e.Length % pieceLength; rem != 0 {
			padLen := pieceLength - rem
			out = append(out, model.FileEntry{
				Path:   []string{".pad", strconv.FormatInt(padLen, 10)},
				Length: padLen,
			})
		}
	}

	return out
}
