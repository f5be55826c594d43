package heapgraph

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/heapscope/heapanalysis/internal/testutil"
	"github.com/heapscope/heapanalysis/pkg/config"
)

func TestAvailableTypeNamesSet_CachesAcrossCalls(t *testing.T) {
	source := testutil.NewDiamondSource()
	s := NewSnapshot(source, config.AnalysisConfig{}, nil, "proc")

	ctx := context.Background()
	names, err := s.availableTypeNamesSet(ctx)
	require.NoError(t, err)
	require.Len(t, names, 4)
	require.Contains(t, names, "A")
	require.Contains(t, names, "D")

	cached, err := s.availableTypeNamesSet(ctx)
	require.NoError(t, err)
	require.Equal(t, names, cached)
}

func TestScanOnceForType_DoesNotRescanSource(t *testing.T) {
	source := testutil.NewLinearChainSource()
	s := NewSnapshot(source, config.AnalysisConfig{}, nil, "proc")

	ctx := context.Background()
	require.NoError(t, s.scanOnceForType(ctx, "A"))
	require.True(t, s.scannedTypes["A"])

	addrs := s.addressesOfType("A")
	require.Len(t, addrs, 1)

	require.NoError(t, s.scanOnceForType(ctx, "A"))
	require.Len(t, s.addressesOfType("A"), 1)
}

func TestHierarchyStats_HonorsLazyScanBeforeIngest(t *testing.T) {
	source := testutil.NewTypeRollupSource()
	s := NewSnapshot(source, config.AnalysisConfig{}, nil, "proc-lazy-hierarchy")

	ctx := context.Background()
	stats, ok := s.HierarchyStats(ctx, "List<Int>")
	require.True(t, ok)
	require.Equal(t, int64(3), stats.Count)
	require.Equal(t, uint64(16+16+24), stats.TotalShallowSize)
	require.Equal(t, int64(2), stats.DirectInstances)
	require.Equal(t, []string{"List<String>"}, stats.DerivedTypes)

	require.True(t, s.scannedTypes["List<Int>"])
	require.True(t, s.scannedTypes["List<String>"])
}
