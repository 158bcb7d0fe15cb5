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

// Package hashengine runs the v1 and v2 piece-hashing pipelines over a
// build's file set. The v1 pipeline hashes fixed-size windows of the
// concatenated content stream with SHA-1; the v2 pipeline hashes each
// file's 16 KiB leaves with SHA-256 and folds them into a Merkle tree.
// Both pipelines fan out across a worker pool and report progress
// through a shared atomic byte counter.
package hashengine

import (
	"context"
	"crypto/sha1"
	"fmt"
	"io"
	"os"
	"runtime"
	"sort"
	"sync"
	"sync/atomic"

	sha256 "github.com/minio/sha256-simd"
	"golang.org/x/sync/errgroup"

	"github.com/raklaptudirm/mktorrent/internal/bitfield"
	"github.com/raklaptudirm/mktorrent/internal/merkle"
	"github.com/raklaptudirm/mktorrent/internal/model"
)

// Options configures a hashing run.
type Options struct {
	PieceLength int64
	Mode        model.Mode
	Threads     int // <= 0 selects runtime.NumCPU()

	// Progress, if non-nil, is invoked after every completed unit of
	// work (one v1 piece or one v2 file) with the cumulative number of
	// content bytes hashed so far. It may be called concurrently from
	// multiple goroutines.
	Progress func(bytesDone int64)
}

// Result holds the output of both pipelines.
type Result struct {
	// V1Pieces is the concatenation of one 20-byte SHA-1 digest per
	// piece of the v1 content stream, in piece order. Nil in v2-only
	// mode.
	V1Pieces []byte

	// V2Trees holds one Merkle tree per entry of the v2Files list passed
	// to Run, in the same order. Nil in v1-only mode.
	V2Trees []merkle.Tree
}

// Run hashes v1Stream (the padded concatenated-stream entries produced
// by piece.V1Stream) and v2Files (the real, unpadded per-file entries)
// according to opts, and returns their combined digests. Either slice
// may be empty if opts.Mode does not require that pipeline. Run returns
// the first error encountered by any worker, and cancels outstanding
// work via ctx.
func Run(ctx context.Context, v1Stream, v2Files []model.FileEntry, opts Options) (*Result, error) {
	threads := opts.Threads
	if threads <= 0 {
		threads = runtime.NumCPU()
	}

	var progressed int64
	bump := func(n int64) {
		if opts.Progress == nil {
			return
		}
		opts.Progress(atomic.AddInt64(&progressed, n))
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(threads)

	result := &Result{}

	var pieces []byte
	var written bitfield.Bitfield
	var numPieces int

	if opts.Mode.HasV1() {
		var err error
		pieces, written, numPieces, err = runV1(gctx, g, v1Stream, opts.PieceLength, bump)
		if err != nil {
			return nil, err
		}
	}

	if opts.Mode.HasV2() {
		trees, err := runV2(gctx, g, v2Files, opts.PieceLength, bump)
		if err != nil {
			return nil, err
		}
		result.V2Trees = trees
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	if opts.Mode.HasV1() {
		if written.Count() != numPieces {
			return nil, fmt.Errorf("hashengine: %d of %d pieces were written", written.Count(), numPieces)
		}
		result.V1Pieces = pieces
	}

	return result, nil
}

// stream indexes the v1 concatenated content stream for random-access
// segment lookup: prefix[i] is the byte offset at which entries[i]
// begins, and prefix[len(entries)] is the total stream length.
type stream struct {
	entries []model.FileEntry
	prefix  []int64
}

func newStream(entries []model.FileEntry) *stream {
	prefix := make([]int64, len(entries)+1)
	for i, e := range entries {
		prefix[i+1] = prefix[i] + e.Length
	}
	return &stream{entries: entries, prefix: prefix}
}

func (s *stream) size() int64 {
	return s.prefix[len(s.prefix)-1]
}

// entryAt returns the index of the entry containing stream offset off,
// and off's offset within that entry.
func (s *stream) entryAt(off int64) (index int, within int64) {
	// prefix is strictly non-decreasing; find the rightmost entry whose
	// start is <= off.
	i := sort.Search(len(s.entries), func(i int) bool { return s.prefix[i+1] > off })
	return i, off - s.prefix[i]
}

// runV1 schedules one goroutine per piece of the v1 content stream and
// returns once every piece has been scheduled (g.Go blocks while the
// group is at its limit); the returned pieces slice and written bitfield
// are filled in as those goroutines complete, and must not be read
// until the caller's errgroup has been waited on.
func runV1(ctx context.Context, g *errgroup.Group, entries []model.FileEntry, pieceLength int64, bump func(int64)) ([]byte, bitfield.Bitfield, int, error) {
	if len(entries) == 0 || pieceLength <= 0 {
		return nil, bitfield.Bitfield{}, 0, nil
	}

	s := newStream(entries)
	numPieces := int((s.size() + pieceLength - 1) / pieceLength)
	if numPieces == 0 {
		return nil, bitfield.Bitfield{}, 0, nil
	}

	pieces := make([]byte, numPieces*sha1.Size)
	written := bitfield.NewSize(numPieces)
	// eight pieces share each byte of written, so Set is serialized
	var writtenMu sync.Mutex

	for i := 0; i < numPieces; i++ {
		i := i
		g.Go(func() error {
			off := int64(i) * pieceLength
			length := pieceLength
			if remaining := s.size() - off; remaining < length {
				length = remaining
			}

			sum, err := hashRange(ctx, s, off, length)
			if err != nil {
				return err
			}
			copy(pieces[i*sha1.Size:], sum)
			writtenMu.Lock()
			written.Set(i)
			writtenMu.Unlock()
			bump(length)
			return nil
		})
	}

	return pieces, written, numPieces, nil
}

// hashRange computes the SHA-1 digest of the length bytes of the
// concatenated content stream starting at offset off, reading across
// file boundaries and substituting zero bytes for padding entries.
func hashRange(ctx context.Context, s *stream, off, length int64) ([]byte, error) {
	h := sha1.New()

	for length > 0 {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		idx, within := s.entryAt(off)
		e := s.entries[idx]

		chunk := e.Length - within
		if chunk > length {
			chunk = length
		}

		if e.IsPadding() {
			if _, err := io.CopyN(h, zeroReader{}, chunk); err != nil {
				return nil, err
			}
		} else {
			if err := readInto(h, e.Abs, within, chunk); err != nil {
				return nil, err
			}
		}

		off += chunk
		length -= chunk
	}

	return h.Sum(nil), nil
}

func readInto(w io.Writer, path string, offset, length int64) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("hashengine: open %s: %w", path, err)
	}
	defer f.Close()

	sr := io.NewSectionReader(f, offset, length)
	if _, err := io.Copy(w, sr); err != nil {
		return fmt.Errorf("hashengine: read %s: %w", path, err)
	}
	return nil
}

type zeroReader struct{}

func (zeroReader) Read(p []byte) (int, error) {
	for i := range p {
		p[i] = 0
	}
	return len(p), nil
}

func runV2(ctx context.Context, g *errgroup.Group, files []model.FileEntry, pieceLength int64, bump func(int64)) ([]merkle.Tree, error) {
	trees := make([]merkle.Tree, len(files))

	for i, f := range files {
		i, f := i, f
		g.Go(func() error {
			leaves, err := hashLeaves(ctx, f)
			if err != nil {
				return err
			}
			trees[i] = merkle.Build(leaves, f.Length, pieceLength)
			bump(f.Length)
			return nil
		})
	}

	return trees, nil
}

// hashLeaves reads f in fixed model.LeafSize blocks and returns the
// SHA-256 digest of each, in file order. A zero-byte file yields a nil
// leaf vector.
func hashLeaves(ctx context.Context, f model.FileEntry) ([][]byte, error) {
	if f.Length == 0 {
		return nil, nil
	}

	file, err := os.Open(f.Abs)
	if err != nil {
		return nil, fmt.Errorf("hashengine: open %s: %w", f.Abs, err)
	}
	defer file.Close()

	leafCount := int((f.Length + model.LeafSize - 1) / model.LeafSize)
	leaves := make([][]byte, leafCount)
	buf := make([]byte, model.LeafSize)

	for i := 0; i < leafCount; i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		n, err := io.ReadFull(file, buf)
		if err != nil && err != io.ErrUnexpectedEOF && err != io.EOF {
			return nil, fmt.Errorf("hashengine: read %s: %w", f.Abs, err)
		}

		sum := sha256.Sum256(buf[:n])
		leaves[i] = sum[:]
	}

	return leaves, nil
}
