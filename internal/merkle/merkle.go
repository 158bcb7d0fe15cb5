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

// Package merkle builds the per-file BEP 52 Merkle tree over a vector of
// 16 KiB leaf digests: a complete binary tree padded to the next power of
// two with zero-hash leaves, combined upward with real SHA-256 at every
// internal node.
package merkle

import (
	sha256 "github.com/minio/sha256-simd"

	"github.com/raklaptudirm/mktorrent/internal/model"
	"github.com/raklaptudirm/mktorrent/internal/piece"
)

// Size is the width, in bytes, of every node in the tree (SHA-256).
const Size = sha256.Size

// maxDepth bounds the precomputed zero-hash table. A file would need
// 16KiB * 2^maxDepth bytes to ever reach it, so this is never a practical
// limit.
const maxDepth = 64

// zeroHashes[i] is the root of a perfectly-padded subtree of height i:
// zeroHashes[0] is the 32 raw zero bytes used as a padded leaf's value
// (never SHA-256 of anything); zeroHashes[i] for i>0 is the real
// SHA-256 combination of two zeroHashes[i-1] children. Precomputing this
// table means Build never hashes a subtree that covers only padding
// leaves; it takes that subtree's value from the table.
var zeroHashes = buildZeroHashes()

func buildZeroHashes() [][]byte {
	zh := make([][]byte, maxDepth+1)
	zh[0] = make([]byte, Size)
	for i := 1; i <= maxDepth; i++ {
		zh[i] = combine(zh[i-1], zh[i-1])
	}
	return zh
}

func combine(left, right []byte) []byte {
	h := sha256.New()
	h.Write(left)
	h.Write(right)
	return h.Sum(nil)
}

// Tree is the result of building a single file's Merkle tree.
type Tree struct {
	Root        []byte   // the file tree root
	PiecesRoot  []byte   // alias of Root, the name BEP 52 uses in the file tree entry
	PieceLayers [][]byte // the pieces-root layer, one node per piece the file occupies
}

// Build constructs the Merkle tree over leaves (each a 32-byte SHA-256
// digest of a 16 KiB block, in file order) for a file of the given size
// and the build's piece length. leaves must have length
// ceil(fileSize/model.LeafSize); an empty leaves slice is valid and
// represents a zero-byte file.
func Build(leaves [][]byte, fileSize, pieceLength int64) Tree {
	leafCount := len(leaves)
	l := nextPow2(max(1, leafCount))
	depth := log2(l)

	level := make([][]byte, l)
	copy(level, leaves)
	for i := leafCount; i < l; i++ {
		level[i] = zeroHashes[0]
	}

	pieceDepth := log2(pieceLength / model.LeafSize)

	var layer [][]byte
	realCount := leafCount
	for lvl := 0; lvl < depth; lvl++ {
		if lvl == pieceDepth {
			layer = captureLayer(level, fileSize, pieceLength)
		}

		// nodes at or past nextReal cover only padding leaves
		nextReal := (realCount + 1) / 2
		next := make([][]byte, len(level)/2)
		for i := range next {
			if i >= nextReal {
				next[i] = zeroHashes[lvl+1]
				continue
			}
			next[i] = combine(level[2*i], level[2*i+1])
		}
		level = next
		realCount = nextReal
	}

	root := level[0]
	if layer == nil {
		// pieceDepth >= depth: the whole file fits in one piece, so its
		// pieces-root layer is just the file tree root itself.
		layer = [][]byte{root}
	}

	return Tree{Root: root, PiecesRoot: root, PieceLayers: layer}
}

// captureLayer copies the real (non-trailing-padding) prefix of level,
// which at this point holds one node per piece-sized region including
// any trailing all-padding regions introduced by rounding the leaf count
// up to a power of two.
func captureLayer(level [][]byte, fileSize, pieceLength int64) [][]byte {
	n := piece.CountAtLeastOne(fileSize, pieceLength)
	if n > len(level) {
		n = len(level)
	}
	out := make([][]byte, n)
	copy(out, level[:n])
	return out
}

func nextPow2(n int) int {
	if n <= 1 {
		return 1
	}
	p := 1
	for p < n {
		p <<= 1
	}
	return p
}

func log2(n int64) int {
	d := 0
	for n > 1 {
		n >>= 1
		d++
	}
	return d
}

func max(a, b int) int {
	if a > b {
		return a
	}
	return b
}

// EncodeLayers concatenates a file's pieces-root layer digests into the
// single byte string piece layers stores them as.
func EncodeLayers(layers [][]byte) []byte {
	out := make([]byte, 0, len(layers)*Size)
	for _, l := range layers {
		out = append(out, l...)
	}
	return out
}
