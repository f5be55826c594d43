package heapgraph

import "sort"

// sizeClassBounds defines the coarse size buckets of §4.7: {<100,
// <1KiB, <8KiB, <64KiB, <1MiB, >=1MiB}.
var sizeClassBounds = []uint64{100, 1024, 8 * 1024, 64 * 1024, 1024 * 1024}

type addressBucket struct {
	firstAddr uint64
	objects   []*Object // sorted by address
}

type sizeBucket struct {
	minSize uint64
	maxSize uint64 // 0 means unbounded (the >=1MiB bucket)
	objects []*Object
}

// spatialIndex provides address-range and size-range queries over a
// fixed snapshot of objects (§4.7). It is built once, lazily, and never
// mutated afterward.
type spatialIndex struct {
	addressBuckets []addressBucket
	sizeBuckets     []sizeBucket
	bucketSize      int
}

func buildSpatialIndex(objects []*Object, bucketSize int) *spatialIndex {
	if bucketSize <= 0 {
		bucketSize = 1000
	}
	idx := &spatialIndex{bucketSize: bucketSize}

	for i := 0; i < len(objects); i += bucketSize {
		end := i + bucketSize
		if end > len(objects) {
			end = len(objects)
		}
		idx.addressBuckets = append(idx.addressBuckets, addressBucket{
			firstAddr: objects[i].Address,
			objects:   objects[i:end],
		})
	}

	bounds := []struct{ min, max uint64 }{
		{0, sizeClassBounds[0]},
		{sizeClassBounds[0], sizeClassBounds[1]},
		{sizeClassBounds[1], sizeClassBounds[2]},
		{sizeClassBounds[2], sizeClassBounds[3]},
		{sizeClassBounds[3], sizeClassBounds[4]},
		{sizeClassBounds[4], 0},
	}
	idx.sizeBuckets = make([]sizeBucket, len(bounds))
	for i, b := range bounds {
		idx.sizeBuckets[i] = sizeBucket{minSize: b.min, maxSize: b.max}
	}
	for _, o := range objects {
		bi := sizeBucketIndex(o.ShallowSize)
		idx.sizeBuckets[bi].objects = append(idx.sizeBuckets[bi].objects, o)
	}

	return idx
}

func sizeBucketIndex(size uint64) int {
	for i, bound := range sizeClassBounds {
		if size < bound {
			return i
		}
	}
	return len(sizeClassBounds)
}

// addressRange returns every tracked object whose address falls in
// [lo, hi], in ascending address order.
func (idx *spatialIndex) addressRange(lo, hi uint64) []*Object {
	if idx == nil || lo > hi {
		return nil
	}

	// Find the first bucket whose first address could contain lo: the
	// last bucket with firstAddr <= lo, or bucket 0.
	start := sort.Search(len(idx.addressBuckets), func(i int) bool {
		return idx.addressBuckets[i].firstAddr > lo
	})
	if start > 0 {
		start--
	}

	var out []*Object
	for i := start; i < len(idx.addressBuckets); i++ {
		b := idx.addressBuckets[i]
		if b.firstAddr > hi {
			break
		}
		for _, o := range b.objects {
			if o.Address >= lo && o.Address <= hi {
				out = append(out, o)
			}
		}
	}
	return out
}

// sizeRange returns every tracked object whose shallow size falls in
// [lo, hi].
func (idx *spatialIndex) sizeRange(lo, hi uint64) []*Object {
	if idx == nil || lo > hi {
		return nil
	}
	var out []*Object
	for _, b := range idx.sizeBuckets {
		bmax := b.maxSize
		if bmax == 0 {
			bmax = ^uint64(0)
		}
		if bmax <= lo && b.maxSize != 0 {
			continue
		}
		if b.minSize > hi {
			continue
		}
		for _, o := range b.objects {
			if o.ShallowSize >= lo && o.ShallowSize <= hi {
				out = append(out, o)
			}
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Address < out[j].Address })
	return out
}

// nearby returns objects within prox bytes of addr, saturating the
// lower bound at 0.
func (idx *spatialIndex) nearby(addr, prox uint64) []*Object {
	lo := uint64(0)
	if addr > prox {
		lo = addr - prox
	}
	hi := addr + prox
	if hi < addr { // overflow
		hi = ^uint64(0)
	}
	return idx.addressRange(lo, hi)
}

func (s *Snapshot) spatialIndexFor() *spatialIndex {
	s.spatialOnce.Do(func() {
		s.spatial = buildSpatialIndex(s.objectsSortedByAddress(), s.cfg.AddressBucketSize)
	})
	return s.spatial
}
