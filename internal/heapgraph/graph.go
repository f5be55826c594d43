package heapgraph

// adjacency holds outgoing and incoming edges restricted to tracked
// objects; dangling references (targets with no tracked object) are
// dropped here rather than at ingestion time, since a later ingest pass
// or lazy scan could still bring the target object into existence.
type adjacency struct {
	outgoing map[uint64][]uint64
	incoming map[uint64][]uint64
}

// buildAdjacency constructs the outgoing/incoming edge maps over the
// snapshot's currently tracked objects. It is the common substrate for
// both the dominator tree (§4.5) and the reference-graph index (§4.9).
func (s *Snapshot) buildAdjacency() *adjacency {
	s.mu.RLock()
	defer s.mu.RUnlock()

	adj := &adjacency{
		outgoing: make(map[uint64][]uint64, len(s.objects)),
		incoming: make(map[uint64][]uint64, len(s.objects)),
	}

	for addr := range s.objects {
		adj.outgoing[addr] = nil
		adj.incoming[addr] = nil
	}

	for addr, obj := range s.objects {
		for _, ref := range obj.References {
			if _, tracked := s.objects[ref.TargetAddress]; !tracked {
				continue
			}
			adj.outgoing[addr] = append(adj.outgoing[addr], ref.TargetAddress)
			adj.incoming[ref.TargetAddress] = append(adj.incoming[ref.TargetAddress], addr)
		}
	}

	return adj
}
