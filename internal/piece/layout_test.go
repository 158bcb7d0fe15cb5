package piece_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/raklaptudirm/mktorrent/internal/model"
	"github.com/raklaptudirm/mktorrent/internal/piece"
)

func TestV1StreamInsertsPaddingInHybridMode(t *testing.T) {
	entries := []model.FileEntry{
		{Path: []string{"a.txt"}, Length: 100},
		{Path: []string{"b.txt"}, Length: 300},
	}

	out := piece.V1Stream(entries, 1<<18, model.ModeHybrid)
	require.Len(t, out, 3)
	require.Equal(t, []string{"a.txt"}, out[0].Path)
	require.True(t, out[1].IsPadding())
	require.EqualValues(t, 1<<18-100, out[1].Length)
	require.Equal(t, []string{"b.txt"}, out[2].Path)
}

func TestV1StreamNoPaddingAfterFinalFile(t *testing.T) {
	entries := []model.FileEntry{
		{Path: []string{"a.txt"}, Length: 100},
	}

	out := piece.V1Stream(entries, 1<<18, model.ModeHybrid)
	require.Len(t, out, 1)
}

func TestV1StreamNoPaddingWhenAligned(t *testing.T) {
	entries := []model.FileEntry{
		{Path: []string{"a.txt"}, Length: 1 << 18},
		{Path: []string{"b.txt"}, Length: 300},
	}

	out := piece.V1Stream(entries, 1<<18, model.ModeHybrid)
	require.Len(t, out, 2)
}

func TestV1StreamUnchangedOutsideHybrid(t *testing.T) {
	entries := []model.FileEntry{
		{Path: []string{"a.txt"}, Length: 100},
		{Path: []string{"b.txt"}, Length: 300},
	}

	out := piece.V1Stream(entries, 1<<18, model.ModeV1)
	require.Equal(t, entries, out)
}
