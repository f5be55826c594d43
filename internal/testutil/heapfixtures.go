package testutil

import (
	"iter"

	"github.com/heapscope/heapanalysis/internal/heapgraph"
)

// FakeHeapSource is an in-memory heapgraph.HeapSource backed by a fixed
// slice of objects and roots, for exercising the core analysis
// pipeline without a real dump file.
type FakeHeapSource struct {
	Objs  []heapgraph.RawObject
	Rts   []heapgraph.RawRoot
	byAddr map[uint64]heapgraph.RawObject
}

// NewFakeHeapSource builds a FakeHeapSource from explicit objects and
// roots.
func NewFakeHeapSource(objs []heapgraph.RawObject, roots []heapgraph.RawRoot) *FakeHeapSource {
	byAddr := make(map[uint64]heapgraph.RawObject, len(objs))
	for _, o := range objs {
		byAddr[o.Address] = o
	}
	return &FakeHeapSource{Objs: objs, Rts: roots, byAddr: byAddr}
}

func (f *FakeHeapSource) Objects() iter.Seq2[heapgraph.RawObject, error] {
	return func(yield func(heapgraph.RawObject, error) bool) {
		for _, o := range f.Objs {
			if !yield(o, nil) {
				return
			}
		}
	}
}

func (f *FakeHeapSource) Roots() iter.Seq2[heapgraph.RawRoot, error] {
	return func(yield func(heapgraph.RawRoot, error) bool) {
		for _, r := range f.Rts {
			if !yield(r, nil) {
				return
			}
		}
	}
}

func (f *FakeHeapSource) Get(address uint64) (heapgraph.RawObject, bool, error) {
	obj, ok := f.byAddr[address]
	return obj, ok, nil
}

func ref(addr uint64, typeName string) heapgraph.RawReference {
	return heapgraph.RawReference{TargetAddress: addr, TargetType: typeName, FieldName: "field"}
}

func rootOf(addr uint64) heapgraph.RawRoot {
	return heapgraph.RawRoot{Kind: heapgraph.RootStatic, RootAddress: 0xF00D, TargetAddress: addr, RootName: "static-root"}
}

// NewLinearChainSource builds A(10B) -> B(20B) -> C(30B), A rooted
// (§8 "linear chain": expected retained A=60, B=50, C=30).
func NewLinearChainSource() *FakeHeapSource {
	objs := []heapgraph.RawObject{
		{Address: 1, TypeName: "A", ShallowSize: 10, References: []heapgraph.RawReference{ref(2, "B")}},
		{Address: 2, TypeName: "B", ShallowSize: 20, References: []heapgraph.RawReference{ref(3, "C")}},
		{Address: 3, TypeName: "C", ShallowSize: 30},
	}
	return NewFakeHeapSource(objs, []heapgraph.RawRoot{rootOf(1)})
}

// NewDiamondSource builds A(10)->B(10); A(10)->C(10); B->D(40); C->D,
// root A (§8 "diamond": expected retained A=70, B=10, C=10, D=40).
func NewDiamondSource() *FakeHeapSource {
	objs := []heapgraph.RawObject{
		{Address: 1, TypeName: "A", ShallowSize: 10, References: []heapgraph.RawReference{ref(2, "B"), ref(3, "C")}},
		{Address: 2, TypeName: "B", ShallowSize: 10, References: []heapgraph.RawReference{ref(4, "D")}},
		{Address: 3, TypeName: "C", ShallowSize: 10, References: []heapgraph.RawReference{ref(4, "D")}},
		{Address: 4, TypeName: "D", ShallowSize: 40},
	}
	return NewFakeHeapSource(objs, []heapgraph.RawRoot{rootOf(1)})
}

// NewCycleSource builds A(10)<->B(10), root A (§8 "cycle": expected
// retained A=20, B=10).
func NewCycleSource() *FakeHeapSource {
	objs := []heapgraph.RawObject{
		{Address: 1, TypeName: "A", ShallowSize: 10, References: []heapgraph.RawReference{ref(2, "B")}},
		{Address: 2, TypeName: "B", ShallowSize: 10, References: []heapgraph.RawReference{ref(1, "A")}},
	}
	return NewFakeHeapSource(objs, []heapgraph.RawRoot{rootOf(1)})
}

// NewUnreachableIslandSource builds a rooted chain A(10)->B(10) plus a
// disconnected island X(100)->Y(100) with no root (§8 "unreachable
// island": expected retained A=20, B=10, X=100, Y=100).
func NewUnreachableIslandSource() *FakeHeapSource {
	objs := []heapgraph.RawObject{
		{Address: 1, TypeName: "A", ShallowSize: 10, References: []heapgraph.RawReference{ref(2, "B")}},
		{Address: 2, TypeName: "B", ShallowSize: 10},
		{Address: 100, TypeName: "X", ShallowSize: 100, References: []heapgraph.RawReference{ref(101, "Y")}},
		{Address: 101, TypeName: "Y", ShallowSize: 100},
	}
	return NewFakeHeapSource(objs, []heapgraph.RawRoot{rootOf(1)})
}

// NewTypeRollupSource builds objects of nominal types List<Int> and
// List<String> that should roll up under base name List (§8 "type
// rollup").
func NewTypeRollupSource() *FakeHeapSource {
	objs := []heapgraph.RawObject{
		{Address: 1, TypeName: "List<Int>", ShallowSize: 16},
		{Address: 2, TypeName: "List<Int>", ShallowSize: 16},
		{Address: 3, TypeName: "List<String>", ShallowSize: 24},
	}
	return NewFakeHeapSource(objs, []heapgraph.RawRoot{rootOf(1), rootOf(2), rootOf(3)})
}

// NewSizeBucketSource builds objects of sizes {50, 900, 5000, 50000,
// 900000, 2MB} so that size_range(1000, 100000) yields exactly the
// 5,000 and 50,000 entries (§8 "size bucket query").
func NewSizeBucketSource() *FakeHeapSource {
	sizes := []uint64{50, 900, 5000, 50000, 900000, 2 * 1024 * 1024}
	objs := make([]heapgraph.RawObject, len(sizes))
	roots := make([]heapgraph.RawRoot, len(sizes))
	for i, size := range sizes {
		addr := uint64(i + 1)
		objs[i] = heapgraph.RawObject{Address: addr, TypeName: "Blob", ShallowSize: size}
		roots[i] = rootOf(addr)
	}
	return NewFakeHeapSource(objs, roots)
}

// NewEmptySource builds a heap source with no objects and no roots
// (§8 "empty snapshot").
func NewEmptySource() *FakeHeapSource {
	return NewFakeHeapSource(nil, nil)
}

// NewSingleObjectSource builds a single unreferenced, unrooted object,
// which must become a root via the refcount fallback (§8 "single-object
// snapshot").
func NewSingleObjectSource() *FakeHeapSource {
	objs := []heapgraph.RawObject{{Address: 1, TypeName: "Solo", ShallowSize: 42}}
	return NewFakeHeapSource(objs, nil)
}

// NewLargeChainSource builds a single linear chain of n objects, all
// rooted only through the first, for exercising the dominator-tree
// node cap (§8 "500,001-node snapshot").
func NewLargeChainSource(n int) *FakeHeapSource {
	objs := make([]heapgraph.RawObject, n)
	for i := 0; i < n; i++ {
		addr := uint64(i + 1)
		o := heapgraph.RawObject{Address: addr, TypeName: "Node", ShallowSize: 8}
		if i+1 < n {
			o.References = []heapgraph.RawReference{ref(addr+1, "Node")}
		}
		objs[i] = o
	}
	return NewFakeHeapSource(objs, []heapgraph.RawRoot{rootOf(1)})
}
