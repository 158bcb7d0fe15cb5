package merkle_test

import (
	"bytes"
	"testing"

	sha256 "github.com/minio/sha256-simd"
	"github.com/stretchr/testify/require"

	"github.com/raklaptudirm/mktorrent/internal/merkle"
	"github.com/raklaptudirm/mktorrent/internal/model"
)

func leaf(b byte) []byte {
	h := sha256.Sum256(bytes.Repeat([]byte{b}, model.LeafSize))
	return h[:]
}

func TestBuildEmptyFileIsZeroHash(t *testing.T) {
	tree := merkle.Build(nil, 0, 1<<18)
	require.Equal(t, make([]byte, merkle.Size), tree.Root)
	require.Len(t, tree.PieceLayers, 1)
	require.Equal(t, tree.Root, tree.PieceLayers[0])
}

func TestBuildFileSmallerThanPieceLength(t *testing.T) {
	leaves := [][]byte{leaf(0xAA)}
	tree := merkle.Build(leaves, model.LeafSize, 1<<18)
	require.Len(t, tree.PieceLayers, 1)
	require.Equal(t, tree.Root, tree.PieceLayers[0])
}

func TestBuildExactlyOnePieceLength(t *testing.T) {
	pieceLength := int64(1 << 18) // 256 KiB
	leavesPerPiece := int(pieceLength / model.LeafSize)

	leaves := make([][]byte, leavesPerPiece)
	for i := range leaves {
		leaves[i] = leaf(0xAA)
	}

	tree := merkle.Build(leaves, pieceLength, pieceLength)
	require.Len(t, tree.PieceLayers, 1, "file exactly one piece long has a single-element layer")
	require.Equal(t, tree.Root, tree.PieceLayers[0])
}

func TestBuildTwoPiecesDropsTrailingPadding(t *testing.T) {
	pieceLength := int64(1 << 18) // 256 KiB, 16 leaves
	leavesPerPiece := int(pieceLength / model.LeafSize)

	// one byte into the second piece: 17 real leaves, last one 1 byte.
	leaves := make([][]byte, leavesPerPiece+1)
	for i := range leaves {
		leaves[i] = leaf(0xAA)
	}

	tree := merkle.Build(leaves, pieceLength+1, pieceLength)
	require.Len(t, tree.PieceLayers, 2)
}

func TestBuildTruncatesLayerToRealPieceCount(t *testing.T) {
	// pieceLength spans 4 leaves; 9 real leaves means 3 real pieces
	// (ceil(9/4)) even though the tree is padded to 16 leaves (4 pieces
	// worth), so the 4th, entirely-padding node must not appear.
	pieceLength := int64(4 * model.LeafSize)
	leaves := make([][]byte, 9)
	for i := range leaves {
		leaves[i] = leaf(byte(i))
	}

	fileSize := int64(9 * model.LeafSize)
	tree := merkle.Build(leaves, fileSize, pieceLength)
	require.Len(t, tree.PieceLayers, 3)
}

func TestBuild64LeafTreeMatchesManualRoot(t *testing.T) {
	leaves := make([][]byte, 64)
	for i := range leaves {
		leaves[i] = leaf(0xAA)
	}

	tree := merkle.Build(leaves, 64*model.LeafSize, 1<<18)

	// manually combine the 64 leaves into a root to cross-check
	level := leaves
	for len(level) > 1 {
		next := make([][]byte, len(level)/2)
		for i := range next {
			h := sha256.New()
			h.Write(level[2*i])
			h.Write(level[2*i+1])
			next[i] = h.Sum(nil)
		}
		level = next
	}

	require.Equal(t, level[0], tree.Root)
}

func TestEncodeLayers(t *testing.T) {
	layers := [][]byte{leaf(1), leaf(2)}
	out := merkle.EncodeLayers(layers)
	require.Len(t, out, 2*merkle.Size)
	require.True(t, bytes.Equal(out[:merkle.Size], layers[0]))
	require.True(t, bytes.Equal(out[merkle.Size:], layers[1]))
}
