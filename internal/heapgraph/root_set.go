package heapgraph

import (
	"context"
	"errors"
)

// DiscoverRoots populates the snapshot's root set following §4.4: it
// prefers the source's reported roots, and falls back to a
// reference-counting heuristic (zero-incoming-reference objects) when
// the source produces none. The root set is stable and reusable for
// subsequent calls to Analyze on the same snapshot.
func (s *Snapshot) DiscoverRoots(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	foundAny := false
	for raw, srcErr := range s.source.Roots() {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		if srcErr != nil {
			var fatal *FatalSourceError
			if errors.As(srcErr, &fatal) {
				return fatal
			}
			s.logger.Debug("root discovery: skipping root after source error: %v", srcErr)
			continue
		}

		obj, ok := s.objects[raw.TargetAddress]
		if !ok {
			continue
		}

		obj.GCRootPaths = append(obj.GCRootPaths, GCRootPath{
			RootKind:      raw.Kind,
			RootAddress:   raw.RootAddress,
			ObjectAddress: raw.TargetAddress,
			RootName:      raw.RootName,
		})
		if _, seen := s.roots[raw.TargetAddress]; !seen {
			s.roots[raw.TargetAddress] = struct{}{}
			s.rootOrder = append(s.rootOrder, raw.TargetAddress)
		}
		foundAny = true
	}

	if foundAny {
		s.warnings.RootsViaRefcount = false
		return nil
	}

	s.discoverRootsByRefcountLocked()
	return nil
}

// discoverRootsByRefcountLocked implements the fallback: objects with
// zero incoming references are treated as roots. Callers must hold s.mu.
func (s *Snapshot) discoverRootsByRefcountLocked() {
	incoming := make(map[uint64]int, len(s.objects))
	for addr := range s.objects {
		incoming[addr] = 0
	}
	for _, obj := range s.objects {
		for _, ref := range obj.References {
			if _, tracked := s.objects[ref.TargetAddress]; tracked {
				incoming[ref.TargetAddress]++
			}
		}
	}

	for addr, count := range incoming {
		if count > 0 {
			continue
		}
		if _, seen := s.roots[addr]; seen {
			continue
		}
		s.roots[addr] = struct{}{}
		s.rootOrder = append(s.rootOrder, addr)
		s.objects[addr].GCRootPaths = append(s.objects[addr].GCRootPaths, GCRootPath{
			RootKind:      RootOther,
			ObjectAddress: addr,
			RootName:      "inferred-via-refcount",
		})
	}
	s.warnings.RootsViaRefcount = true
}

// Roots returns the discovered root addresses, in discovery order.
func (s *Snapshot) Roots() []uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]uint64, len(s.rootOrder))
	copy(out, s.rootOrder)
	return out
}

// IsRoot reports whether addr is a member of the discovered root set.
func (s *Snapshot) IsRoot(addr uint64) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.roots[addr]
	return ok
}
