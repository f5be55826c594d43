package heapgraph

import (
	"context"
	"sort"
	"time"

	"github.com/heapscope/heapanalysis/pkg/parallel"
	"github.com/heapscope/heapanalysis/pkg/writer"
)

// GenerationStats rolls up object counts and sizes for a single GC
// generation (§4.12).
type GenerationStats struct {
	Generation        uint32
	ObjectCount       int64
	TotalSize         uint64
	TotalRetainedSize uint64
}

// HeapAnalysisReport is the immutable summary produced by Report
// (§4.12 and §6 "Report format").
type HeapAnalysisReport struct {
	SnapshotTime      time.Time
	ProcessID         string
	TotalObjects      int64
	TotalMemory       uint64
	TypeStatistics    []TypeStats
	GenerationStats   []GenerationStats
	LargestObjects    []*Object

	// PhaseTimings breaks down the most recent Analyze call by phase
	// (DiscoverRoots, ComputeDominatorTree, RetainedSize, Total).
	PhaseTimings map[string]time.Duration

	// Confidence flags (SUPPLEMENTED FEATURE 3).
	RetainedIsApproximate    bool
	RootsViaRefcount         bool
	ReferencesTruncatedCount int64
	GraphTooLargeForDominator bool
}

// Report produces the full analysis report. It is safe to call
// repeatedly; the per-type rollup and generation stats are recomputed
// from the current object set each time.
func (s *Snapshot) Report(ctx context.Context) *HeapAnalysisReport {
	objects := s.objectsSortedByAddress()

	genConfig := parallel.DefaultPoolConfig()
	genRollup := parallel.ParallelAggregate(
		ctx,
		objects,
		genConfig,
		func(o *Object) (uint32, GenerationStats) {
			return o.Generation, GenerationStats{
				Generation:        o.Generation,
				ObjectCount:       1,
				TotalSize:         o.ShallowSize,
				TotalRetainedSize: o.RetainedSize,
			}
		},
		func(a, b GenerationStats) GenerationStats {
			a.ObjectCount += b.ObjectCount
			a.TotalSize += b.TotalSize
			a.TotalRetainedSize += b.TotalRetainedSize
			return a
		},
	)

	generations := make([]GenerationStats, 0, len(genRollup))
	for _, g := range genRollup {
		generations = append(generations, g)
	}
	sort.Slice(generations, func(i, j int) bool { return generations[i].Generation < generations[j].Generation })

	largest := make([]*Object, len(objects))
	copy(largest, objects)
	sort.Slice(largest, func(i, j int) bool { return largest[i].RetainedSize > largest[j].RetainedSize })
	if len(largest) > 50 {
		largest = largest[:50]
	}

	var totalMemory uint64
	for _, o := range objects {
		totalMemory += o.ShallowSize
	}

	s.mu.RLock()
	warnings := s.warnings
	processID := s.ProcessID
	capturedAt := s.CapturedAt
	s.mu.RUnlock()

	return &HeapAnalysisReport{
		SnapshotTime:              capturedAt,
		ProcessID:                 processID,
		TotalObjects:              int64(len(objects)),
		TotalMemory:               totalMemory,
		TypeStatistics:            buildHierarchyIndex(objects).allTypeStats(),
		GenerationStats:           generations,
		LargestObjects:            largest,
		PhaseTimings:              s.AnalysisTiming(),
		RetainedIsApproximate:     warnings.RetainedIsApproximate,
		RootsViaRefcount:          warnings.RootsViaRefcount,
		ReferencesTruncatedCount:  warnings.ReferencesTruncatedCount,
		GraphTooLargeForDominator: warnings.GraphTooLargeForDominator,
	}
}

// WriteJSON serializes the report as indented JSON to path.
func (r *HeapAnalysisReport) WriteJSON(path string) error {
	w := writer.NewPrettyJSONWriter[*HeapAnalysisReport]()
	return w.WriteToFile(r, path)
}
