package piece_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/raklaptudirm/mktorrent/internal/model"
	"github.com/raklaptudirm/mktorrent/internal/piece"
)

func TestPlanExplicitExponent(t *testing.T) {
	p, err := piece.Plan(1<<20, 18, model.ModeV1)
	require.NoError(t, err)
	require.EqualValues(t, 1<<18, p.PieceLength)
	require.Equal(t, 4, p.PieceCount)
}

func TestPlanExponentOutOfRange(t *testing.T) {
	_, err := piece.Plan(100, 10, model.ModeV1)
	require.ErrorIs(t, err, piece.ErrInvalidPieceLength)

	_, err = piece.Plan(100, 30, model.ModeV1)
	require.ErrorIs(t, err, piece.ErrInvalidPieceLength)
}

func TestPlanAutoSelectsWithinBudget(t *testing.T) {
	p, err := piece.Plan(5<<30, 0, model.ModeV1) // 5 GiB
	require.NoError(t, err)
	require.True(t, p.PieceCount <= 1000)

	// piece length must be a power of two
	require.Zero(t, p.PieceLength&(p.PieceLength-1))
}

func TestPlanV2RequiresLeafMultiple(t *testing.T) {
	p, err := piece.Plan(1<<20, 15, model.ModeV2)
	require.NoError(t, err)
	require.Zero(t, p.PieceLength%model.LeafSize)
}

func TestCount(t *testing.T) {
	require.Equal(t, 0, piece.Count(0, 1024))
	require.Equal(t, 1, piece.Count(1, 1024))
	require.Equal(t, 1, piece.Count(1024, 1024))
	require.Equal(t, 2, piece.Count(1025, 1024))
}

func TestCountAtLeastOne(t *testing.T) {
	require.Equal(t, 1, piece.CountAtLeastOne(0, 1024))
	require.Equal(t, 1, piece.CountAtLeastOne(1024, 1024))
	require.Equal(t, 2, piece.CountAtLeastOne(1025, 1024))
}
