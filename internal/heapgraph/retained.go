package heapgraph

import (
	"context"
	"time"
)

// Analyze runs the full root-discovery -> dominator-tree ->
// retained-size pipeline over an ingested snapshot (§2 "data flow").
// It is safe to call more than once; each call recomputes from
// scratch using the snapshot's current object set.
func (s *Snapshot) Analyze(ctx context.Context) error {
	s.analysisTimer.Reset()

	rootsPhase := s.analysisTimer.Start("DiscoverRoots")
	err := s.DiscoverRoots(ctx)
	rootsPhase.Stop()
	if err != nil {
		return err
	}

	domPhase := s.analysisTimer.Start("ComputeDominatorTree")
	dom := s.computeDominatorTree()
	domPhase.Stop()

	retainedPhase := s.analysisTimer.Start("RetainedSize")
	defer retainedPhase.Stop()

	s.mu.Lock()
	defer s.mu.Unlock()

	if dom.skipped {
		s.warnings.RetainedIsApproximate = true
		s.warnings.GraphTooLargeForDominator = true
		for _, o := range s.objects {
			o.RetainedSize = o.ShallowSize
		}
		s.immediateDominator = nil
		s.dominatorChildren = nil
		s.classRetainedSize = nil
		return nil
	}

	s.immediateDominator = dom.immediateDominator
	s.dominatorChildren = dom.dominatorChildren
	s.classRetainedSize = computeRetainedSizesLocked(s.objects, dom)
	return nil
}

// AnalysisTiming returns the per-phase duration breakdown of the most
// recent Analyze call (§4.12 "report carries enough detail to explain
// where analysis time went").
func (s *Snapshot) AnalysisTiming() map[string]time.Duration {
	out := make(map[string]time.Duration)
	for _, phase := range s.analysisTimer.GetPhases() {
		out[phase.Name] = phase.Duration
	}
	out["Total"] = s.analysisTimer.TotalDuration()
	return out
}

// computeRetainedSizesLocked performs the bottom-up sum of §4.6 over the
// dominator forest, writing RetainedSize on every reachable object and
// returning the per-type retained-size rollup that ClassRetainedSize
// serves (SPEC_FULL supplemented feature 2). Callers must hold s.mu.
func computeRetainedSizesLocked(objects map[uint64]*Object, dom *domResult) map[string]uint64 {
	classTotals := make(map[string]uint64)

	// Unreachable objects keep retained == shallow (their initial
	// value from ingestion); only fold them into the class totals here.
	for addr, obj := range objects {
		if !dom.reachable[addr] {
			classTotals[obj.TypeName] += obj.RetainedSize
		}
	}

	for _, root := range dom.topLevel {
		postOrderSum(root, objects, dom.dominatorChildren, classTotals)
	}

	return classTotals
}

// postOrderSum computes retained(v) = shallow(v) + sum(retained(children))
// iteratively using an explicit stack, since the dominator tree can be
// deep enough to overflow a naive recursive implementation (§9).
func postOrderSum(root uint64, objects map[uint64]*Object, children map[uint64][]uint64, classTotals map[string]uint64) {
	type frame struct {
		addr        uint64
		childIdx    int
		accumulated uint64
	}

	stack := []*frame{{addr: root}}
	for len(stack) > 0 {
		top := stack[len(stack)-1]
		kids := children[top.addr]

		if top.childIdx < len(kids) {
			child := kids[top.childIdx]
			top.childIdx++
			stack = append(stack, &frame{addr: child})
			continue
		}

		obj := objects[top.addr]
		retained := obj.ShallowSize + top.accumulated
		obj.RetainedSize = retained
		classTotals[obj.TypeName] += retained

		stack = stack[:len(stack)-1]
		if len(stack) > 0 {
			stack[len(stack)-1].accumulated += retained
		}
	}
}

// ClassRetainedSize returns the cached per-type total retained size,
// populated the last time Analyze ran successfully.
func (s *Snapshot) ClassRetainedSize(typeName string) uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.classRetainedSize[typeName]
}
