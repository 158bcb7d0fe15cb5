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

// Package metainfo assembles the info dictionary and top-level metainfo
// document from a build's scanned files, piece plan, and hash engine
// output, and computes the resulting infohash(es).
package metainfo

import (
	"crypto/sha1"
	"crypto/sha256"
	"fmt"

	"github.com/raklaptudirm/mktorrent/internal/bencode"
	"github.com/raklaptudirm/mktorrent/internal/hashengine"
	"github.com/raklaptudirm/mktorrent/internal/merkle"
	"github.com/raklaptudirm/mktorrent/internal/model"
)

// info is the bencode shape of the info dictionary. Fields are grouped
// the way the format groups them: common, v1-only, v2-only.
type info struct {
	// common fields
	PieceLength int64  `bencode:"piece length"`
	Name        string `bencode:"name"`

	// v1 fields
	Length *int64      `bencode:"length,omitempty"`
	Files  []fileDict  `bencode:"files,omitempty"`
	Pieces string      `bencode:"pieces,omitempty"`
	Private *int64     `bencode:"private,omitempty"`
	Source  string     `bencode:"source,omitempty"`

	// v2 fields
	MetaVersion int64 `bencode:"meta version,omitempty"`
	FileTree    any   `bencode:"file tree,omitempty"`

	// cross-seed entropy, an otherwise-unused key injected to force a
	// unique infohash per invocation
	CrossSeedEntropy string `bencode:"cross_seed_entropy,omitempty"`
}

// fileDict is one entry of the v1 "files" list.
type fileDict struct {
	Length int64    `bencode:"length"`
	Path   []string `bencode:"path"`
	Attr   string   `bencode:"attr,omitempty"`
}

// fileTreeLeaf is the terminal {length, pieces root} entry for a file
// inside the v2 "file tree" mapping.
type fileTreeLeaf struct {
	Length     int64  `bencode:"length"`
	PiecesRoot string `bencode:"pieces root,omitempty"`
}

// Options configures info dictionary assembly.
type Options struct {
	Name        string
	PieceLength int64
	Mode        model.Mode

	// MultiFile reflects the scanner's target-type signal (directory vs
	// regular file), not a post-scan file count: a directory containing
	// exactly one file is still a multi-file torrent.
	MultiFile bool

	Private bool
	Source  string

	// CrossSeedEntropy, if non-nil, is called once to produce the salt
	// injected as cross_seed_entropy. Nil disables cross-seed mode.
	CrossSeedEntropy func() []byte
}

// InfoResult is the assembled result: the canonical info dict bytes (for
// embedding verbatim in the top-level document and for hashing), the
// piece layers map, and the computed infohash(es).
type InfoResult struct {
	InfoBytes   []byte
	PieceLayers map[string][]byte // keyed by raw pieces root bytes, as a string

	InfoHashV1 []byte // 20 bytes, nil unless opts.Mode.HasV1()
	InfoHashV2 []byte // 32 bytes, nil unless opts.Mode.HasV2()
}

// Assemble builds the info dictionary for a build whose v1 content
// stream is v1Stream (including any hybrid-mode padding entries), whose
// real files are files, and whose hash engine output is hashed. files
// and hashed.V2Trees (when present) must be parallel: hashed.V2Trees[i]
// is the Merkle tree of files[i].
func Assemble(files []model.FileEntry, v1Stream []model.FileEntry, hashed *hashengine.Result, opts Options) (*InfoResult, error) {
	i := info{
		PieceLength: opts.PieceLength,
		Name:        opts.Name,
	}

	if opts.Private {
		one := int64(1)
		i.Private = &one
	}
	if opts.Source != "" {
		i.Source = opts.Source
	}
	if opts.CrossSeedEntropy != nil {
		i.CrossSeedEntropy = fmt.Sprintf("%x", opts.CrossSeedEntropy())
	}

	pieceLayers := map[string][]byte{}

	if opts.Mode.HasV1() {
		i.Pieces = string(hashed.V1Pieces)
		if !opts.MultiFile {
			l := files[0].Length
			i.Length = &l
		} else {
			i.Files = make([]fileDict, len(v1Stream))
			for n, e := range v1Stream {
				fd := fileDict{Length: e.Length, Path: e.Path}
				if e.IsPadding() {
					fd.Attr = "p"
				}
				i.Files[n] = fd
			}
		}
	}

	if opts.Mode.HasV2() {
		i.MetaVersion = 2
		tree := map[string]any{}
		for n, f := range files {
			root := hashed.V2Trees[n].PiecesRoot
			leaf := fileTreeLeaf{Length: f.Length}
			if f.Length > 0 {
				leaf.PiecesRoot = string(root)
				if f.Length > opts.PieceLength {
					pieceLayers[string(root)] = merkle.EncodeLayers(hashed.V2Trees[n].PieceLayers)
				}
			}
			path := f.Path
			if len(path) == 0 {
				// single-file torrent: file tree -> name -> "" -> {...}
				path = []string{opts.Name}
			}
			insertFileTree(tree, path, leaf)
		}
		i.FileTree = tree
	}

	encoded, err := bencode.Marshal(i)
	if err != nil {
		return nil, fmt.Errorf("metainfo: marshal info dict: %w", err)
	}
	raw := []byte(encoded)

	doc := &InfoResult{InfoBytes: raw, PieceLayers: pieceLayers}

	if opts.Mode.HasV1() {
		sum := sha1.Sum(raw)
		doc.InfoHashV1 = sum[:]
	}
	if opts.Mode.HasV2() {
		sum := sha256.Sum256(raw)
		doc.InfoHashV2 = sum[:]
	}

	return doc, nil
}

// insertFileTree walks (creating as needed) the nested mapping for
// path and stores leaf at path's terminal "" key. A single-file torrent
// has a one-component path, producing file tree -> name -> "" -> leaf.
func insertFileTree(tree map[string]any, path []string, leaf fileTreeLeaf) {
	node := tree
	for _, component := range path[:len(path)-1] {
		child, ok := node[component].(map[string]any)
		if !ok {
			child = map[string]any{}
			node[component] = child
		}
		node = child
	}

	last := path[len(path)-1]
	terminal, ok := node[last].(map[string]any)
	if !ok {
		terminal = map[string]any{}
		node[last] = terminal
	}
	terminal[""] = leaf
}
