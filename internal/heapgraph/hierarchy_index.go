package heapgraph

import (
	"sort"
	"strings"
)

// TypeStats summarizes every tracked object of a given type, or of every
// type sharing a base name (§4.8).
type TypeStats struct {
	Name               string
	Count              int64
	TotalShallowSize    uint64
	TotalRetainedSize   uint64
	LargestRetainedAddr uint64
	LargestRetainedSize uint64

	// DirectInstances and DirectSize count only the exact type name a
	// hierarchy query named, before the base-name rollup below folds in
	// its siblings (e.g. querying "List<Int>" reports just List<Int>'s
	// own count/size here).
	DirectInstances int64
	DirectSize      uint64

	// DerivedTypes lists every other exact type name sharing this
	// family's base name (e.g. List<Int>'s query also lists
	// List<String>), empty for an exactTypeStats() result.
	DerivedTypes []string
}

// hierarchyIndex groups the exact type index into base-name buckets so
// that e.g. List<Int> and List<String> roll up under List (§4.8
// "base-name bucket rollup").
type hierarchyIndex struct {
	exactStats map[string]*TypeStats
	baseNames  map[string][]string // base name -> exact type names sharing it
	baseStats  map[string]*TypeStats
}

// stripGenericsAndArrays reduces a type name to its base name by
// dropping a generic argument list (angle-bracket or backtick-arity
// style) and any trailing array brackets, so that List<Int>,
// List<String>, and List`1 all collapse to List.
func stripGenericsAndArrays(typeName string) string {
	name := typeName
	for strings.HasSuffix(name, "[]") {
		name = strings.TrimSuffix(name, "[]")
	}
	if i := strings.IndexByte(name, '<'); i >= 0 {
		name = name[:i]
	}
	if i := strings.IndexByte(name, '`'); i >= 0 {
		name = name[:i]
	}
	return name
}

func buildHierarchyIndex(objects []*Object) *hierarchyIndex {
	idx := &hierarchyIndex{
		exactStats: make(map[string]*TypeStats),
		baseNames:  make(map[string][]string),
		baseStats:  make(map[string]*TypeStats),
	}

	seenBaseMembers := make(map[string]map[string]bool)

	for _, o := range objects {
		exact := idx.exactStats[o.TypeName]
		if exact == nil {
			exact = &TypeStats{Name: o.TypeName}
			idx.exactStats[o.TypeName] = exact
		}
		accumulate(exact, o)

		base := stripGenericsAndArrays(o.TypeName)
		baseStat := idx.baseStats[base]
		if baseStat == nil {
			baseStat = &TypeStats{Name: base}
			idx.baseStats[base] = baseStat
			seenBaseMembers[base] = make(map[string]bool)
		}
		accumulate(baseStat, o)

		if !seenBaseMembers[base][o.TypeName] {
			seenBaseMembers[base][o.TypeName] = true
			idx.baseNames[base] = append(idx.baseNames[base], o.TypeName)
		}
	}

	for base := range idx.baseNames {
		sort.Strings(idx.baseNames[base])
	}

	return idx
}

func accumulate(stat *TypeStats, o *Object) {
	stat.Count++
	stat.TotalShallowSize += o.ShallowSize
	stat.TotalRetainedSize += o.RetainedSize
	if o.RetainedSize > stat.LargestRetainedSize {
		stat.LargestRetainedSize = o.RetainedSize
		stat.LargestRetainedAddr = o.Address
	}
}

// exactTypeStats returns the stats for a single exact type name.
func (idx *hierarchyIndex) exactTypeStats(typeName string) (TypeStats, bool) {
	s, ok := idx.exactStats[typeName]
	if !ok {
		return TypeStats{}, false
	}
	return *s, true
}

// hierarchyStats returns the rolled-up stats for every exact type
// sharing typeName's base name (e.g. querying "List<Int>" returns the
// combined List<Int>+List<String>+... totals under base name "List").
func (idx *hierarchyIndex) hierarchyStats(typeName string) (TypeStats, bool) {
	base := stripGenericsAndArrays(typeName)
	s, ok := idx.baseStats[base]
	if !ok {
		return TypeStats{}, false
	}

	out := *s
	if exact, ok := idx.exactStats[typeName]; ok {
		out.DirectInstances = exact.Count
		out.DirectSize = exact.TotalShallowSize
	}
	for _, sibling := range idx.baseNames[base] {
		if sibling == typeName {
			continue
		}
		out.DerivedTypes = append(out.DerivedTypes, sibling)
	}
	return out, true
}

// allTypeStats returns exact-type stats for every tracked type, ordered
// by descending total retained size (used by report.go's per-type
// rollup, §4.12).
func (idx *hierarchyIndex) allTypeStats() []TypeStats {
	out := make([]TypeStats, 0, len(idx.exactStats))
	for _, s := range idx.exactStats {
		out = append(out, *s)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].TotalRetainedSize != out[j].TotalRetainedSize {
			return out[i].TotalRetainedSize > out[j].TotalRetainedSize
		}
		return out[i].Name < out[j].Name
	})
	return out
}

// hierarchyIndexFor returns the base-name rollup index. Once the
// snapshot has been fully Ingest-ed the index is immutable and built
// once; before that, each call rebuilds it from whatever a caller's
// lazy scan has populated so far, rather than caching a partial result
// forever (§4.10).
func (s *Snapshot) hierarchyIndexFor() *hierarchyIndex {
	s.mu.RLock()
	analyzed := s.ingested
	s.mu.RUnlock()

	if !analyzed {
		return buildHierarchyIndex(s.objectsSortedByAddress())
	}

	s.hierarchyOnce.Do(func() {
		s.hierarchy = buildHierarchyIndex(s.objectsSortedByAddress())
	})
	return s.hierarchy
}
