package hashengine_test

import (
	"bytes"
	"context"
	"crypto/sha1"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/raklaptudirm/mktorrent/internal/hashengine"
	"github.com/raklaptudirm/mktorrent/internal/model"
	"github.com/raklaptudirm/mktorrent/internal/piece"
)

func writeFile(t *testing.T, dir, name string, content []byte) model.FileEntry {
	t.Helper()
	abs := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(abs, content, 0o644))
	return model.FileEntry{Path: []string{name}, Length: int64(len(content)), Abs: abs}
}

func TestRunV1SinglePieceSingleFile(t *testing.T) {
	dir := t.TempDir()
	content := bytes.Repeat([]byte{0x42}, 100)
	entry := writeFile(t, dir, "a.bin", content)

	res, err := hashengine.Run(context.Background(), []model.FileEntry{entry}, nil, hashengine.Options{
		PieceLength: 1 << 18,
		Mode:        model.ModeV1,
	})
	require.NoError(t, err)
	require.Len(t, res.V1Pieces, sha1.Size)

	want := sha1.Sum(content)
	require.True(t, bytes.Equal(res.V1Pieces, want[:]))
}

func TestRunV1AcrossFileBoundary(t *testing.T) {
	dir := t.TempDir()
	a := bytes.Repeat([]byte{0x01}, 10)
	b := bytes.Repeat([]byte{0x02}, 10)
	ea := writeFile(t, dir, "a.bin", a)
	eb := writeFile(t, dir, "b.bin", b)

	pieceLength := int64(20)
	res, err := hashengine.Run(context.Background(), []model.FileEntry{ea, eb}, nil, hashengine.Options{
		PieceLength: pieceLength,
		Mode:        model.ModeV1,
	})
	require.NoError(t, err)

	want := sha1.Sum(append(append([]byte{}, a...), b...))
	require.True(t, bytes.Equal(res.V1Pieces, want[:]))
}

func TestRunV1HashesPaddingAsZeroes(t *testing.T) {
	dir := t.TempDir()
	a := bytes.Repeat([]byte{0x01}, 5)
	ea := writeFile(t, dir, "a.bin", a)
	pad := model.FileEntry{Path: []string{".pad", "5"}, Length: 5}

	res, err := hashengine.Run(context.Background(), []model.FileEntry{ea, pad}, nil, hashengine.Options{
		PieceLength: 10,
		Mode:        model.ModeV1,
	})
	require.NoError(t, err)

	want := sha1.Sum(append(append([]byte{}, a...), make([]byte, 5)...))
	require.True(t, bytes.Equal(res.V1Pieces, want[:]))
}

func TestRunV2ProducesOneTreePerFile(t *testing.T) {
	dir := t.TempDir()
	content := bytes.Repeat([]byte{0xAB}, model.LeafSize*2+10)
	entry := writeFile(t, dir, "a.bin", content)

	res, err := hashengine.Run(context.Background(), nil, []model.FileEntry{entry}, hashengine.Options{
		PieceLength: 1 << 18,
		Mode:        model.ModeV2,
	})
	require.NoError(t, err)
	require.Len(t, res.V2Trees, 1)
	require.Len(t, res.V2Trees[0].Root, 32)
}

func TestRunHybridPopulatesBothPipelines(t *testing.T) {
	dir := t.TempDir()
	a := bytes.Repeat([]byte{0x01}, 100)
	b := bytes.Repeat([]byte{0x02}, 300)
	ea := writeFile(t, dir, "a.bin", a)
	eb := writeFile(t, dir, "b.bin", b)

	pieceLength := int64(1 << 18)
	stream := piece.V1Stream([]model.FileEntry{ea, eb}, pieceLength, model.ModeHybrid)

	res, err := hashengine.Run(context.Background(), stream, []model.FileEntry{ea, eb}, hashengine.Options{
		PieceLength: pieceLength,
		Mode:        model.ModeHybrid,
	})
	require.NoError(t, err)
	require.NotEmpty(t, res.V1Pieces)
	require.Len(t, res.V2Trees, 2)
}

func TestRunReportsProgress(t *testing.T) {
	dir := t.TempDir()
	content := bytes.Repeat([]byte{0x09}, 1000)
	entry := writeFile(t, dir, "a.bin", content)

	var total int64
	_, err := hashengine.Run(context.Background(), []model.FileEntry{entry}, nil, hashengine.Options{
		PieceLength: 1 << 18,
		Mode:        model.ModeV1,
		Progress:    func(done int64) { total = done },
	})
	require.NoError(t, err)
	require.EqualValues(t, 1000, total)
}
