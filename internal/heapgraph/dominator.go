package heapgraph

import (
	"context"
	"sort"

	"github.com/heapscope/heapanalysis/pkg/collections"
	"github.com/heapscope/heapanalysis/pkg/parallel"
)

// virtualRootID is the synthetic node added to reduce the forest of GC
// roots to a single-source dominator problem (§4.5). It is always node
// 0; tracked objects occupy ids [1, n].
const virtualRootID int32 = 0

// domResult is the outcome of Lengauer-Tarjan, already translated back
// into addresses and with every virtual-root entry stripped (§4.5:
// "Virtual-root entries are stripped from the public result").
type domResult struct {
	// immediateDominator maps an object's address to the address of its
	// immediate dominator. Objects dominated only by the virtual root
	// (true GC roots, or objects reachable via more than one disjoint
	// root path) have no entry here.
	immediateDominator map[uint64]uint64

	// dominatorChildren maps a dominator's address to the addresses it
	// immediately dominates.
	dominatorChildren map[uint64][]uint64

	// topLevel lists every address whose sole dominator is the virtual
	// root: the roots of the dominator forest.
	topLevel []uint64

	// reachable is the set of addresses reached by the DFS from the
	// virtual root, i.e. covered by the dominator tree at all.
	reachable map[uint64]bool

	// skipped is true when the graph exceeded the node cap and no
	// dominator tree was built.
	skipped bool
}

// computeDominatorTree builds the immediate-dominator relation over the
// virtual-root-extended object graph using Lengauer-Tarjan with path
// compression (§4.5). If the graph (tracked objects + virtual root)
// exceeds cfg.DominatorNodeCap, construction is skipped and the caller
// must fall back to retained = shallow for every object.
func (s *Snapshot) computeDominatorTree() *domResult {
	objs := s.objectsSortedByAddress()
	n := len(objs)

	nodeCap := s.cfg.DominatorNodeCap
	if nodeCap <= 0 {
		nodeCap = 500000
	}
	if n+1 > nodeCap {
		s.logger.Warn("dominator: graph has %d nodes, exceeds cap %d; skipping", n+1, nodeCap)
		return &domResult{skipped: true}
	}

	addrToID := make(map[uint64]int32, n)
	idToAddr := make([]uint64, n+1)
	for i, o := range objs {
		id := int32(i + 1)
		addrToID[o.Address] = id
		idToAddr[id] = o.Address
	}

	adj := s.buildAdjacency()

	N := int32(n + 1)
	succ := make([][]int32, N)
	pred := make([][]int32, N)

	// Each object only ever writes to its own succ[id]/pred[id] slot, so
	// the translation from addresses to dense ids is safe to fan out
	// across workers (§5 "Heavy operations ... may be offloaded").
	_, _ = parallel.ForEach(context.Background(), objs, parallel.DefaultPoolConfig(), func(_ context.Context, o *Object) error {
		id := addrToID[o.Address]
		outs := adj.outgoing[o.Address]
		outIDs := make([]int32, 0, len(outs))
		for _, target := range outs {
			outIDs = append(outIDs, addrToID[target])
		}
		succ[id] = outIDs

		ins := adj.incoming[o.Address]
		inIDs := make([]int32, 0, len(ins))
		for _, src := range ins {
			inIDs = append(inIDs, addrToID[src])
		}
		pred[id] = inIDs
		return nil
	})

	rootIDs := make([]int32, 0, len(s.roots))
	s.mu.RLock()
	for addr := range s.roots {
		if id, ok := addrToID[addr]; ok {
			rootIDs = append(rootIDs, id)
		}
	}
	s.mu.RUnlock()
	sort.Slice(rootIDs, func(i, j int) bool { return rootIDs[i] < rootIDs[j] })
	succ[virtualRootID] = rootIDs
	for _, r := range rootIDs {
		pred[r] = append(pred[r], virtualRootID)
	}

	dt := newDomState(N)
	dt.dfs(succ)
	dt.computeSemiAndIdom(pred)

	return dt.toDomResult(idToAddr)
}

// domState holds the Lengauer-Tarjan working arrays, indexed by node id.
type domState struct {
	n int32

	dfnum  []int32 // dfnum[v] = preorder DFS number, -1 if unreached
	vertex []int32 // vertex[i] = node whose dfnum is i
	parent []int32 // parent[v] = DFS-tree parent

	semi     []int32
	ancestor []int32
	label    []int32
	idom     []int32
	bucket   [][]int32

	dfsCount int32

	// compressVisited guards compress()'s ancestor-chain walk against a
	// corrupt input that produced a cycle. It is versioned rather than
	// cleared per call so repeated eval() calls during the semidominator
	// pass stay O(1) to reset instead of O(n).
	compressVisited *collections.VersionedBitset
}

func newDomState(n int32) *domState {
	dt := &domState{
		n:               n,
		dfnum:           make([]int32, n),
		vertex:          make([]int32, n),
		parent:          make([]int32, n),
		semi:            make([]int32, n),
		ancestor:        make([]int32, n),
		label:           make([]int32, n),
		idom:            make([]int32, n),
		bucket:          make([][]int32, n),
		compressVisited: collections.NewVersionedBitset(int(n)),
	}
	for i := int32(0); i < n; i++ {
		dt.dfnum[i] = -1
		dt.ancestor[i] = -1
		dt.label[i] = i
	}
	return dt
}

// dfs numbers every node reachable from the virtual root (node 0) in
// preorder, using an explicit stack to avoid recursion depth limits on
// large graphs (§9 "recursive algorithms on deep graphs").
func (dt *domState) dfs(succ [][]int32) {
	type frame struct {
		node int32
		next int
	}

	dt.dfnum[virtualRootID] = 0
	dt.vertex[0] = virtualRootID
	dt.dfsCount = 1

	stack := []frame{{virtualRootID, 0}}
	for len(stack) > 0 {
		top := &stack[len(stack)-1]
		if top.next >= len(succ[top.node]) {
			stack = stack[:len(stack)-1]
			continue
		}
		w := succ[top.node][top.next]
		top.next++
		if dt.dfnum[w] != -1 {
			continue
		}
		dt.parent[w] = top.node
		dt.dfnum[w] = dt.dfsCount
		dt.vertex[dt.dfsCount] = w
		dt.dfsCount++
		stack = append(stack, frame{w, 0})
	}
}

// computeSemiAndIdom runs the semidominator/link-eval passes and the
// final idom correction pass of the classical algorithm.
func (dt *domState) computeSemiAndIdom(pred [][]int32) {
	for i := int32(0); i < dt.n; i++ {
		dt.semi[i] = i
	}

	for i := dt.dfsCount - 1; i >= 1; i-- {
		w := dt.vertex[i]
		for _, v := range pred[w] {
			if dt.dfnum[v] == -1 {
				continue // predecessor unreachable from the virtual root
			}
			u := dt.eval(v)
			if dt.dfnum[dt.semi[u]] < dt.dfnum[dt.semi[w]] {
				dt.semi[w] = dt.semi[u]
			}
		}
		dt.bucket[dt.semi[w]] = append(dt.bucket[dt.semi[w]], w)
		dt.link(dt.parent[w], w)

		p := dt.parent[w]
		for _, v := range dt.bucket[p] {
			u := dt.eval(v)
			if dt.dfnum[dt.semi[u]] < dt.dfnum[dt.semi[v]] {
				dt.idom[v] = u
			} else {
				dt.idom[v] = p
			}
		}
		dt.bucket[p] = nil
	}

	for i := int32(1); i < dt.dfsCount; i++ {
		w := dt.vertex[i]
		if dt.idom[w] != dt.semi[w] {
			dt.idom[w] = dt.idom[dt.idom[w]]
		}
	}
	dt.idom[virtualRootID] = virtualRootID
}

// link makes v the ancestor of w in the compressed-path forest.
func (dt *domState) link(v, w int32) {
	dt.ancestor[w] = v
}

// eval returns the node with the minimal semidominator on the path from
// v to the root of its compressed-path tree, compressing the path as it
// goes.
func (dt *domState) eval(v int32) int32 {
	if dt.ancestor[v] == -1 {
		return dt.label[v]
	}
	dt.compress(v)
	return dt.label[v]
}

// compress walks the ancestor chain from v upward, applying path
// compression iteratively (mirroring the classical recursive
// definition). It stops early if it detects a repeated node, defending
// against a corrupt input that produced a cycle in the ancestor chain
// (§4.5 "cycle safety in EVAL").
func (dt *domState) compress(v int32) {
	var chain []int32
	dt.compressVisited.Reset()

	x := v
	for dt.ancestor[dt.ancestor[x]] != -1 {
		if dt.compressVisited.Test(int(x)) {
			break
		}
		dt.compressVisited.Set(int(x))
		chain = append(chain, x)
		x = dt.ancestor[x]
	}

	for i := len(chain) - 1; i >= 0; i-- {
		node := chain[i]
		anc := dt.ancestor[node]
		if dt.dfnum[dt.semi[dt.label[anc]]] < dt.dfnum[dt.semi[dt.label[node]]] {
			dt.label[node] = dt.label[anc]
		}
		dt.ancestor[node] = dt.ancestor[anc]
	}
}

// toDomResult translates the id-indexed idom array back into an
// address-keyed public result, stripping the virtual root.
func (dt *domState) toDomResult(idToAddr []uint64) *domResult {
	res := &domResult{
		immediateDominator: make(map[uint64]uint64),
		dominatorChildren:  make(map[uint64][]uint64),
		reachable:          make(map[uint64]bool),
	}

	for i := int32(1); i < dt.dfsCount; i++ {
		v := dt.vertex[i]
		addr := idToAddr[v]
		res.reachable[addr] = true

		dom := dt.idom[v]
		if dom == virtualRootID {
			res.topLevel = append(res.topLevel, addr)
			continue
		}
		domAddr := idToAddr[dom]
		res.immediateDominator[addr] = domAddr
		res.dominatorChildren[domAddr] = append(res.dominatorChildren[domAddr], addr)
	}

	sort.Slice(res.topLevel, func(i, j int) bool { return res.topLevel[i] < res.topLevel[j] })
	for k := range res.dominatorChildren {
		children := res.dominatorChildren[k]
		sort.Slice(children, func(i, j int) bool { return children[i] < children[j] })
	}

	return res
}
