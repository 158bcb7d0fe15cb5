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

// Package build drives the metainfo creation pipeline end to end: scan,
// plan, hash, assemble, encode. It owns the worker pool sizing and the
// structured lifecycle logging; every other stage is a pure function of
// its inputs.
package build

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/raklaptudirm/mktorrent/internal/hashengine"
	"github.com/raklaptudirm/mktorrent/internal/metainfo"
	"github.com/raklaptudirm/mktorrent/internal/model"
	"github.com/raklaptudirm/mktorrent/internal/piece"
	"github.com/raklaptudirm/mktorrent/internal/scan"
)

// Options fully parameterizes a build. The core never reads a config
// file or the environment directly; a caller (the CLI layer) resolves
// those into this struct.
type Options struct {
	Target   string
	Excludes []string
	Name     string

	Mode            model.Mode
	PieceLenExp     int // 0 selects auto piece length
	Threads         int
	Private         bool
	Source          string
	CrossSeedSalt   func() []byte

	Announces []string
	WebSeeds  []string
	Comment   string
	CreatedBy string

	// CreationDate, if non-nil, is written as the creation date. Nil
	// omits the field (the "-d" / no-date case).
	CreationDate *int64

	// Progress, if non-nil, is invoked after every hashed piece/file
	// with (bytesDone, totalBytes).
	Progress func(done, total int64)
}

// Result is the build's output: the final serialized metainfo bytes and
// the infohash(es) of the torrent it describes.
type Result struct {
	Bytes      []byte
	InfoHashV1 []byte
	InfoHashV2 []byte
}

// Run executes the full pipeline and returns the serialized metainfo
// document. It wraps every stage's error with enough context for
// errors.Is/errors.As to reach the sentinel errors declared by scan and
// piece.
func Run(ctx context.Context, opts Options) (*Result, error) {
	log.Debug().Str("target", opts.Target).Str("mode", opts.Mode.String()).Msg("build: scan start")

	scanned, err := scan.Scan(scan.Options{Target: opts.Target, Excludes: opts.Excludes, Name: opts.Name})
	if err != nil {
		return nil, fmt.Errorf("build: scan: %w", err)
	}

	log.Debug().Int("files", len(scanned.Entries)).Msg("build: scan done")

	var totalSize int64
	for _, e := range scanned.Entries {
		totalSize += e.Length
	}

	plan, err := piece.Plan(totalSize, opts.PieceLenExp, opts.Mode)
	if err != nil {
		return nil, fmt.Errorf("build: plan: %w", err)
	}

	log.Debug().Int64("pieceLength", plan.PieceLength).Int("pieces", plan.PieceCount).Msg("build: plan done")

	v1Stream := piece.V1Stream(scanned.Entries, plan.PieceLength, opts.Mode)

	// the hash engine counts bytes of every pipeline it runs (the padded
	// v1 stream and the v2 files), so the progress total does too
	var progressTotal int64
	if opts.Mode.HasV1() {
		for _, e := range v1Stream {
			progressTotal += e.Length
		}
	}
	if opts.Mode.HasV2() {
		progressTotal += totalSize
	}

	start := time.Now()
	log.Debug().Msg("build: hash start")

	hashed, err := hashengine.Run(ctx, v1Stream, scanned.Entries, hashengine.Options{
		PieceLength: plan.PieceLength,
		Mode:        opts.Mode,
		Threads:     opts.Threads,
		Progress: func(done int64) {
			if opts.Progress != nil {
				opts.Progress(done, progressTotal)
			}
		},
	})
	if err != nil {
		return nil, fmt.Errorf("build: hash: %w", err)
	}

	log.Debug().Dur("elapsed", time.Since(start)).Msg("build: hash done")

	name := opts.Name
	if name == "" {
		name = scanned.Name
	}

	info, err := metainfo.Assemble(scanned.Entries, v1Stream, hashed, metainfo.Options{
		Name:             name,
		PieceLength:      plan.PieceLength,
		Mode:             opts.Mode,
		MultiFile:        scanned.MultiFile,
		Private:          opts.Private,
		Source:           opts.Source,
		CrossSeedEntropy: opts.CrossSeedSalt,
	})
	if err != nil {
		return nil, fmt.Errorf("build: assemble: %w", err)
	}

	log.Debug().Msg("build: assemble done")

	encoded, err := metainfo.Build(info, metainfo.DocumentOptions{
		Announces:    opts.Announces,
		WebSeeds:     opts.WebSeeds,
		Comment:      opts.Comment,
		CreatedBy:    opts.CreatedBy,
		CreationDate: opts.CreationDate,
	})
	if err != nil {
		return nil, fmt.Errorf("build: encode: %w", err)
	}

	log.Debug().Int("bytes", len(encoded)).Msg("build: encode done")

	return &Result{
		Bytes:      encoded,
		InfoHashV1: info.InfoHashV1,
		InfoHashV2: info.InfoHashV2,
	}, nil
}
