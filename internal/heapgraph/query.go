package heapgraph

import (
	"context"
	"sort"
	"strings"
)

// TypeStatistics is the full per-type summary returned by
// Query.TypeStatistics (§4.11).
type TypeStatistics struct {
	TypeName              string
	InstanceCount         int64
	TotalSize             uint64
	TotalRetainedSize      uint64
	AverageSize           float64
	GenerationDistribution map[uint32]int64
	Largest10             []*Object
}

// GCRootPathResult is one discovered chain from an object back to a GC
// root, addresses ordered from the object outward to the root.
type GCRootPathResult struct {
	Addresses []uint64
	RootKind  GCRootKind
	RootName  string
}

// Get returns the tracked object at addr, or nil if it is not present
// (§4.11 "unknown address ... return ... none; never raise").
func (s *Snapshot) Get(addr uint64) *Object {
	return s.object(addr)
}

// ByType returns every tracked object of the exact type name, lazily
// scanning the source first if the snapshot has not been fully
// ingested (§4.10).
func (s *Snapshot) ByType(ctx context.Context, typeName string) ([]*Object, error) {
	return s.ByTypeLazy(ctx, typeName)
}

// TypeStatistics computes the full per-type summary. Returns
// (TypeStatistics{}, false) if no tracked object has this type.
func (s *Snapshot) TypeStatistics(typeName string) (TypeStatistics, bool) {
	addrs := s.addressesOfType(typeName)
	if len(addrs) == 0 {
		return TypeStatistics{}, false
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := TypeStatistics{
		TypeName:               typeName,
		GenerationDistribution: make(map[uint32]int64),
	}

	objs := make([]*Object, 0, len(addrs))
	for _, addr := range addrs {
		obj, ok := s.objects[addr]
		if !ok {
			continue
		}
		objs = append(objs, obj)
		stats.InstanceCount++
		stats.TotalSize += obj.ShallowSize
		stats.TotalRetainedSize += obj.RetainedSize
		stats.GenerationDistribution[obj.Generation]++
	}
	if stats.InstanceCount > 0 {
		stats.AverageSize = float64(stats.TotalSize) / float64(stats.InstanceCount)
	}

	sort.Slice(objs, func(i, j int) bool { return objs[i].RetainedSize > objs[j].RetainedSize })
	if len(objs) > 10 {
		objs = objs[:10]
	}
	stats.Largest10 = objs

	return stats, true
}

// HierarchyStats returns the base-name rollup for typeName's family
// (§4.8), e.g. querying any List<T> instantiation returns the combined
// List totals. Lazily scans the HeapSource for every sibling exact type
// first if the snapshot has not been fully ingested (§4.10).
func (s *Snapshot) HierarchyStats(ctx context.Context, typeName string) (TypeStats, bool) {
	s.mu.RLock()
	analyzed := s.ingested
	s.mu.RUnlock()

	if !analyzed {
		if err := s.scanOnceForHierarchy(ctx, typeName); err != nil {
			return TypeStats{}, false
		}
	}

	return s.hierarchyIndexFor().hierarchyStats(typeName)
}

// IncomingReferences returns the addresses directly referencing addr.
func (s *Snapshot) IncomingReferences(addr uint64) []uint64 {
	return s.referenceIndexFor().incomingReferences(addr)
}

// OutgoingReferences returns the addresses directly referenced by addr.
func (s *Snapshot) OutgoingReferences(addr uint64) []uint64 {
	return s.referenceIndexFor().outgoingReferences(addr)
}

// ReferenceStats returns the fan-in/fan-out, root-distance, and
// likely-root/highly-referenced signals for a single object (§4.9).
func (s *Snapshot) ReferenceStats(addr uint64) ReferenceStats {
	return s.referenceIndexFor().stats(addr)
}

// AllReferenceStats returns ReferenceStats for every tracked object,
// ordered by address. Objects with IsLikelyRoot set are the "potential
// dominators" use case (§4.9): nothing in the tracked graph references
// them, so they are candidates for being kept alive from outside it.
func (s *Snapshot) AllReferenceStats() []ReferenceStats {
	return s.referenceIndexFor().referenceStatsAll()
}

// SizeRange returns every tracked object whose shallow size falls
// within [lo, hi].
func (s *Snapshot) SizeRange(lo, hi uint64) []*Object {
	return s.spatialIndexFor().sizeRange(lo, hi)
}

// Nearby returns objects within prox bytes of addr by address.
func (s *Snapshot) Nearby(addr, prox uint64) []*Object {
	return s.spatialIndexFor().nearby(addr, prox)
}

// Reachable returns every address reachable from addr via outgoing
// references, bounded to maxDepth hops (negative = unbounded, 0 = addr
// alone). Always includes addr itself.
func (s *Snapshot) Reachable(addr uint64, maxDepth int) []uint64 {
	return s.referenceIndexFor().reachable(addr, maxDepth)
}

// ShortestPath returns the shortest outgoing-reference path from a to
// b, inclusive of both endpoints, or nil if unreachable.
func (s *Snapshot) ShortestPath(a, b uint64) []uint64 {
	return s.referenceIndexFor().shortestPath(a, b)
}

// PathsToRoot finds up to maxPaths distinct chains from addr to a GC
// root, each no longer than maxDepth hops, preferring shorter paths
// first via iterative deepening (SUPPLEMENTED FEATURE 1).
func (s *Snapshot) PathsToRoot(addr uint64, maxPaths, maxDepth int) []GCRootPathResult {
	if maxPaths <= 0 {
		maxPaths = 3
	}
	if maxDepth <= 0 {
		maxDepth = 15
	}

	idx := s.referenceIndexFor()
	var results []GCRootPathResult

	for targetDepth := 1; targetDepth <= maxDepth && len(results) < maxPaths; targetDepth++ {
		s.findPathsToRootDFS(idx, addr, targetDepth, maxPaths-len(results), &results)
	}
	return results
}

func (s *Snapshot) findPathsToRootDFS(idx *referenceIndex, start uint64, targetDepth, remaining int, results *[]GCRootPathResult) {
	if remaining <= 0 {
		return
	}
	found := 0

	type stackFrame struct {
		addr     uint64
		refIndex int
	}

	path := []uint64{start}
	visited := map[uint64]bool{start: true}
	stack := []stackFrame{{start, 0}}

	for len(stack) > 0 && found < remaining {
		top := &stack[len(stack)-1]

		if len(path) == targetDepth+1 {
			if s.IsRoot(top.addr) {
				addrs := make([]uint64, len(path))
				copy(addrs, path)
				kind, name := s.rootInfo(top.addr)
				*results = append(*results, GCRootPathResult{Addresses: addrs, RootKind: kind, RootName: name})
				found++
			}
			stack = stack[:len(stack)-1]
			delete(visited, top.addr)
			path = path[:len(path)-1]
			continue
		}

		incoming := idx.incomingReferences(top.addr)
		if top.refIndex >= len(incoming) {
			stack = stack[:len(stack)-1]
			delete(visited, top.addr)
			path = path[:len(path)-1]
			continue
		}

		next := incoming[top.refIndex]
		top.refIndex++
		if visited[next] {
			continue
		}
		visited[next] = true
		path = append(path, next)
		stack = append(stack, stackFrame{next, 0})
	}
}

func (s *Snapshot) rootInfo(addr uint64) (GCRootKind, string) {
	obj := s.object(addr)
	if obj == nil || len(obj.GCRootPaths) == 0 {
		return RootUnknown, ""
	}
	return obj.GCRootPaths[0].RootKind, obj.GCRootPaths[0].RootName
}

// ArrayRetainers finds the non-array business-object classes that most
// frequently hold a direct reference to an array object, returning the
// topN by occurrence count descending (SUPPLEMENTED FEATURE 4).
func (s *Snapshot) ArrayRetainers(topN int) []TypeStats {
	idx := s.referenceIndexFor()
	counts := make(map[string]int64)

	s.mu.RLock()
	for addr, obj := range s.objects {
		if strings.HasSuffix(obj.TypeName, "[]") {
			for _, from := range idx.incomingReferences(addr) {
				if fromObj, ok := s.objects[from]; ok && !strings.HasSuffix(fromObj.TypeName, "[]") {
					counts[fromObj.TypeName]++
				}
			}
		}
	}
	s.mu.RUnlock()

	out := make([]TypeStats, 0, len(counts))
	for name, count := range counts {
		out = append(out, TypeStats{Name: name, Count: count})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Name < out[j].Name
	})
	if topN > 0 && len(out) > topN {
		out = out[:topN]
	}
	return out
}
