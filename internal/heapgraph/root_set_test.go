package heapgraph

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/heapscope/heapanalysis/internal/testutil"
	"github.com/heapscope/heapanalysis/pkg/config"
)

func TestDiscoverRoots_PrefersSourceRoots(t *testing.T) {
	source := testutil.NewLinearChainSource()
	s := NewSnapshot(source, config.AnalysisConfig{}, nil, "proc")
	require.NoError(t, s.Ingest(context.Background()))
	require.NoError(t, s.DiscoverRoots(context.Background()))

	require.True(t, s.IsRoot(1))
	require.False(t, s.IsRoot(2))
	require.False(t, s.Warnings().RootsViaRefcount)
}

func TestDiscoverRoots_FallsBackToRefcountWhenNoneReported(t *testing.T) {
	source := testutil.NewFakeHeapSource([]RawObject{
		{Address: 1, TypeName: "A", ShallowSize: 10, References: []RawReference{{TargetAddress: 2, TargetType: "B"}}},
		{Address: 2, TypeName: "B", ShallowSize: 10},
	}, nil)
	s := NewSnapshot(source, config.AnalysisConfig{}, nil, "proc")
	require.NoError(t, s.Ingest(context.Background()))
	require.NoError(t, s.DiscoverRoots(context.Background()))

	require.True(t, s.IsRoot(1))
	require.False(t, s.IsRoot(2))
	require.True(t, s.Warnings().RootsViaRefcount)
}

func TestDiscoverRoots_IgnoresRootsOutsideTrackedSet(t *testing.T) {
	source := testutil.NewFakeHeapSource(
		[]RawObject{{Address: 1, TypeName: "A", ShallowSize: 10}},
		[]RawRoot{{TargetAddress: 999, Kind: RootStatic}},
	)
	s := NewSnapshot(source, config.AnalysisConfig{}, nil, "proc")
	require.NoError(t, s.Ingest(context.Background()))
	require.NoError(t, s.DiscoverRoots(context.Background()))

	require.False(t, s.IsRoot(999))
	require.True(t, s.Warnings().RootsViaRefcount)
	require.True(t, s.IsRoot(1))
}
