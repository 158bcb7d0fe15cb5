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

// Package piece selects and validates the piece length for a build and
// computes the resulting piece count.
package piece

import (
	"errors"
	"fmt"

	"github.com/raklaptudirm/mktorrent/internal/model"
)

// ErrInvalidPieceLength is returned when an explicit piece-length
// exponent is out of the allowed range, or the selected length is not a
// multiple of the v2 leaf size.
var ErrInvalidPieceLength = errors.New("piece: invalid piece length")

const (
	minExponent = 15 // 32 KiB
	maxExponent = 27 // 128 MiB

	autoMinExponent = 15
	autoMaxExponent = 24
	autoTargetCount = 1000
)

// Plan selects the piece length for totalSize and returns the resulting
// model.PiecePlan. If exponent is non-zero it is used verbatim (and
// validated); otherwise the smallest power of two keeping the piece
// count at or below 1000 is chosen, clamped to [2^15, 2^24].
func Plan(totalSize int64, exponent int, mode model.Mode) (model.PiecePlan, error) {
	var pieceLength int64

	if exponent != 0 {
		if exponent < minExponent || exponent > maxExponent {
			return model.PiecePlan{}, fmt.Errorf("%w: exponent %d outside [%d,%d]", ErrInvalidPieceLength, exponent, minExponent, maxExponent)
		}
		pieceLength = 1 << exponent
	} else {
		pieceLength = autoPieceLength(totalSize)
	}

	if mode.HasV2() && pieceLength%model.LeafSize != 0 {
		return model.PiecePlan{}, fmt.Errorf("%w: %d is not a multiple of the %d byte leaf size", ErrInvalidPieceLength, pieceLength, model.LeafSize)
	}

	return model.PiecePlan{
		PieceLength: pieceLength,
		TotalSize:   totalSize,
		PieceCount:  Count(totalSize, pieceLength),
	}, nil
}

// autoPieceLength picks the smallest power of two piece length, within
// [2^autoMinExponent, 2^autoMaxExponent], producing at most
// autoTargetCount pieces for totalSize.
func autoPieceLength(totalSize int64) int64 {
	for exp := autoMinExponent; exp < autoMaxExponent; exp++ {
		pl := int64(1) << exp
		if Count(totalSize, pl) <= autoTargetCount {
			return pl
		}
	}
	return int64(1) << autoMaxExponent
}

// Count returns ceil(totalSize / pieceLength), the number of pieces (or
// per-file leaf-layer regions) that size occupies. A zero size yields a
// zero count: a wholly-empty content stream has no pieces.
func Count(size, pieceLength int64) int {
	if size <= 0 {
		return 0
	}
	return int((size + pieceLength - 1) / pieceLength)
}

// CountAtLeastOne is like Count but never returns less than 1, which is
// the convention for a file's v2 pieces-root layer length (an empty file
// still contributes a single zero-hash root).
func CountAtLeastOne(size, pieceLength int64) int {
	n := Count(size, pieceLength)
	if n < 1 {
		n = 1
	}
	return n
}
