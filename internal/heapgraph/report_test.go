package heapgraph

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/heapscope/heapanalysis/internal/testutil"
)

func TestReport_DiamondTopLevelStatsAndLargest(t *testing.T) {
	s := newTestSnapshot(t, testutil.NewDiamondSource())
	report := s.Report(context.Background())

	require.Equal(t, int64(4), report.TotalObjects)
	require.Equal(t, uint64(10+10+10+40), report.TotalMemory)
	require.NotEmpty(t, report.LargestObjects)
	require.Equal(t, uint64(1), report.LargestObjects[0].Address) // A retains 70, the most
}

func TestReport_GenerationRollup(t *testing.T) {
	source := testutil.NewFakeHeapSource([]RawObject{
		{Address: 1, TypeName: "A", ShallowSize: 10, Generation: 0},
		{Address: 2, TypeName: "B", ShallowSize: 20, Generation: 1},
		{Address: 3, TypeName: "C", ShallowSize: 30, Generation: 1},
	}, []RawRoot{{TargetAddress: 1}, {TargetAddress: 2}, {TargetAddress: 3}})

	s := newTestSnapshot(t, source)
	report := s.Report(context.Background())

	require.Len(t, report.GenerationStats, 2)
	require.Equal(t, uint32(0), report.GenerationStats[0].Generation)
	require.Equal(t, int64(1), report.GenerationStats[0].ObjectCount)
	require.Equal(t, uint32(1), report.GenerationStats[1].Generation)
	require.Equal(t, int64(2), report.GenerationStats[1].ObjectCount)
}

func TestReport_CarriesConfidenceFlags(t *testing.T) {
	s := newTestSnapshot(t, testutil.NewSingleObjectSource())
	report := s.Report(context.Background())

	require.True(t, report.RootsViaRefcount)
	require.False(t, report.GraphTooLargeForDominator)
}

func TestReport_PhaseTimingsCoverAnalyzePipeline(t *testing.T) {
	s := newTestSnapshot(t, testutil.NewDiamondSource())
	report := s.Report(context.Background())

	require.Contains(t, report.PhaseTimings, "DiscoverRoots")
	require.Contains(t, report.PhaseTimings, "ComputeDominatorTree")
	require.Contains(t, report.PhaseTimings, "RetainedSize")
	require.Contains(t, report.PhaseTimings, "Total")
}
