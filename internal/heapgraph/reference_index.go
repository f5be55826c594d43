package heapgraph

import (
	"sort"
	"sync"

	"github.com/heapscope/heapanalysis/pkg/collections"
)

// highlyReferencedThreshold is the incoming-reference count above which
// an object is flagged is_highly_referenced (§4.9).
const highlyReferencedThreshold = 10

// ReferenceStats summarizes the fan-in/fan-out of a single object, plus
// the lightweight signals §4.9 asks for: its hop distance from the
// nearest GC root, whether nothing in the tracked graph references it
// (a candidate "potential dominator" kept alive from outside the
// graph), and whether an unusual number of objects reference it.
type ReferenceStats struct {
	Address       uint64
	OutgoingCount int
	IncomingCount int

	ReferenceDepth      int
	ReferenceDepthKnown bool

	IsLikelyRoot       bool
	IsHighlyReferenced bool
}

// referenceIndex answers adjacency, reachability, and shortest-path
// queries over the object reference graph (§4.9). It is built lazily
// from the same adjacency substrate the dominator tree uses.
type referenceIndex struct {
	adj   *adjacency
	roots []uint64

	depthOnce sync.Once
	depth     map[uint64]int
}

func (s *Snapshot) referenceIndexFor() *referenceIndex {
	s.refIndexOnce.Do(func() {
		s.mu.RLock()
		roots := make([]uint64, 0, len(s.roots))
		for addr := range s.roots {
			roots = append(roots, addr)
		}
		s.mu.RUnlock()
		s.refIndex = &referenceIndex{adj: s.buildAdjacency(), roots: roots}
	})
	return s.refIndex
}

// depthMap lazily computes and caches the multi-source BFS depth of
// every reachable object from the snapshot's roots.
func (idx *referenceIndex) depthMap() map[uint64]int {
	idx.depthOnce.Do(func() {
		idx.depth = idx.referenceDepth(idx.roots)
	})
	return idx.depth
}

// outgoingReferences returns the addresses directly referenced by addr.
func (idx *referenceIndex) outgoingReferences(addr uint64) []uint64 {
	out := idx.adj.outgoing[addr]
	cp := make([]uint64, len(out))
	copy(cp, out)
	return cp
}

// incomingReferences returns the addresses that directly reference addr.
func (idx *referenceIndex) incomingReferences(addr uint64) []uint64 {
	in := idx.adj.incoming[addr]
	cp := make([]uint64, len(in))
	copy(cp, in)
	return cp
}

func (idx *referenceIndex) stats(addr uint64) ReferenceStats {
	incomingCount := len(idx.adj.incoming[addr])
	depth, known := idx.depthMap()[addr]

	return ReferenceStats{
		Address:       addr,
		OutgoingCount: len(idx.adj.outgoing[addr]),
		IncomingCount: incomingCount,

		ReferenceDepth:      depth,
		ReferenceDepthKnown: known,

		IsLikelyRoot:       incomingCount == 0,
		IsHighlyReferenced: incomingCount > highlyReferencedThreshold,
	}
}

// reachable performs a breadth-first search from start following
// outgoing edges, bounded to maxDepth hops (a negative maxDepth means
// unbounded). The result always includes start itself at depth 0,
// matching the identity case reachable(a, 0) == [a].
func (idx *referenceIndex) reachable(start uint64, maxDepth int) []uint64 {
	visited := map[uint64]bool{start: true}
	order := []uint64{start}

	type frame struct {
		addr  uint64
		depth int
	}
	q := collections.NewQueue[frame](64)
	q.Enqueue(frame{start, 0})

	for !q.IsEmpty() {
		cur, _ := q.Dequeue()
		if maxDepth >= 0 && cur.depth >= maxDepth {
			continue
		}
		for _, next := range idx.adj.outgoing[cur.addr] {
			if visited[next] {
				continue
			}
			visited[next] = true
			order = append(order, next)
			q.Enqueue(frame{next, cur.depth + 1})
		}
	}

	return order
}

// shortestPath returns the shortest outgoing-edge path from a to b,
// inclusive of both endpoints. shortestPath(a, a) returns []uint64{a}.
// Returns nil if b is unreachable from a.
func (idx *referenceIndex) shortestPath(a, b uint64) []uint64 {
	if a == b {
		return []uint64{a}
	}

	prev := map[uint64]uint64{a: a}
	q := collections.NewQueue[uint64](64)
	q.Enqueue(a)

	for !q.IsEmpty() {
		cur, _ := q.Dequeue()
		if cur == b {
			break
		}
		for _, next := range idx.adj.outgoing[cur] {
			if _, seen := prev[next]; seen {
				continue
			}
			prev[next] = cur
			q.Enqueue(next)
		}
	}

	if _, found := prev[b]; !found {
		return nil
	}

	var path []uint64
	for at := b; ; {
		path = append(path, at)
		if at == a {
			break
		}
		at = prev[at]
	}
	for i, j := 0, len(path)-1; i < j; i, j = i+1, j-1 {
		path[i], path[j] = path[j], path[i]
	}
	return path
}

// referenceDepth runs a multi-source BFS from every discovered root
// simultaneously and returns each reachable address's minimum hop
// distance from any root (§4.9 "reference_depth").
func (idx *referenceIndex) referenceDepth(roots []uint64) map[uint64]int {
	depth := make(map[uint64]int, len(roots))
	q := collections.NewQueue[uint64](len(roots) * 2)
	for _, r := range roots {
		if _, seen := depth[r]; seen {
			continue
		}
		depth[r] = 0
		q.Enqueue(r)
	}

	for !q.IsEmpty() {
		cur, _ := q.Dequeue()
		for _, next := range idx.adj.outgoing[cur] {
			if _, seen := depth[next]; seen {
				continue
			}
			depth[next] = depth[cur] + 1
			q.Enqueue(next)
		}
	}

	return depth
}

// referenceStatsAll returns fan-in/fan-out stats for every tracked
// object, ordered by address.
func (idx *referenceIndex) referenceStatsAll() []ReferenceStats {
	addrs := make([]uint64, 0, len(idx.adj.outgoing))
	for addr := range idx.adj.outgoing {
		addrs = append(addrs, addr)
	}
	sort.Slice(addrs, func(i, j int) bool { return addrs[i] < addrs[j] })

	out := make([]ReferenceStats, len(addrs))
	for i, addr := range addrs {
		out[i] = idx.stats(addr)
	}
	return out
}
