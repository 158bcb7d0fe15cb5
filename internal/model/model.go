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

// Package model holds the data types shared by every stage of the
// metainfo creation pipeline: the scanner's file list, the piece plan,
// and the torrent format mode.
package model

// Mode selects which metainfo format a build produces.
type Mode int

const (
	ModeV1     Mode = iota // BEP 3
	ModeV2                 // BEP 52
	ModeHybrid             // BEP 47 (v1 + v2)
)

func (m Mode) String() string {
	switch m {
	case ModeV1:
		return "v1"
	case ModeV2:
		return "v2"
	case ModeHybrid:
		return "hybrid"
	default:
		return "unknown"
	}
}

// HasV1 reports whether m requires the SHA-1 piece pipeline.
func (m Mode) HasV1() bool {
	return m == ModeV1 || m == ModeHybrid
}

// HasV2 reports whether m requires the SHA-256 Merkle pipeline.
func (m Mode) HasV2() bool {
	return m == ModeV2 || m == ModeHybrid
}

// LeafSize is the fixed v2 Merkle leaf block size: 16 KiB.
const LeafSize = 16 * 1024

// FileEntry describes one file contributing content to the torrent. Path
// is the ordered sequence of path components relative to the torrent
// root; it is empty for a single-file torrent. Abs is the absolute
// filesystem path used only by the hashing engine — no other stage opens
// files.
type FileEntry struct {
	Path   []string
	Length int64
	Abs    string
}

// IsPadding reports whether e is a synthetic hybrid-mode padding file.
func (e FileEntry) IsPadding() bool {
	return len(e.Path) == 2 && e.Path[0] == ".pad"
}

// PiecePlan describes the fixed-size window the Hashing Engine partitions
// the concatenated content stream into for the v1 pipeline.
type PiecePlan struct {
	PieceLength int64
	TotalSize   int64
	PieceCount  int
}
