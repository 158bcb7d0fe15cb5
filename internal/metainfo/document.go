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

package metainfo

import (
	"fmt"

	"github.com/raklaptudirm/mktorrent/internal/bencode"
)

// document is the bencode shape of the top-level metainfo file. Info is
// embedded as bencode.Raw so the bytes written to disk are byte-identical
// to the bytes hashed for the infohash.
type document struct {
	Info         bencode.Raw         `bencode:"info"`
	Announce     string              `bencode:"announce,omitempty"`
	AnnounceList [][]string          `bencode:"announce-list,omitempty"`
	URLList      []string            `bencode:"url-list,omitempty"`

	Comment     string `bencode:"comment,omitempty"`
	CreatedBy   string `bencode:"created by,omitempty"`
	CreationDate *int64 `bencode:"creation date,omitempty"`

	// v2/hybrid only: file pieces root -> concatenated layer digests
	PieceLayers map[string]string `bencode:"piece layers,omitempty"`
}

// DocumentOptions carries the top-level fields layered over an assembled
// info dictionary.
type DocumentOptions struct {
	Announces []string // flattened announce URL list; first is "announce"
	WebSeeds  []string

	Comment   string
	CreatedBy string

	// CreationDate, if non-nil, is written as "creation date" (Unix
	// seconds). Nil omits the field entirely ("no-date" mode).
	CreationDate *int64
}

// Build serializes info (from Assemble) together with opts into the
// final metainfo document bytes.
func Build(info *InfoResult, opts DocumentOptions) ([]byte, error) {
	d := document{
		Info:         bencode.Raw(info.InfoBytes),
		Comment:      opts.Comment,
		CreatedBy:    opts.CreatedBy,
		CreationDate: opts.CreationDate,
	}

	if len(opts.Announces) > 0 {
		d.Announce = opts.Announces[0]
	}
	if len(opts.Announces) > 1 {
		d.AnnounceList = make([][]string, len(opts.Announces))
		for i, a := range opts.Announces {
			d.AnnounceList[i] = []string{a}
		}
	}
	if len(opts.WebSeeds) > 0 {
		d.URLList = opts.WebSeeds
	}

	if len(info.PieceLayers) > 0 {
		d.PieceLayers = make(map[string]string, len(info.PieceLayers))
		for root, layers := range info.PieceLayers {
			d.PieceLayers[root] = string(layers)
		}
	}

	encoded, err := bencode.Marshal(d)
	if err != nil {
		return nil, fmt.Errorf("metainfo: marshal document: %w", err)
	}

	return []byte(encoded), nil
}
