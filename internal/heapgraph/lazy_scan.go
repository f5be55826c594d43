package heapgraph

import "context"

// scanOnceForType walks the HeapSource a single time looking only for
// objects of the exact given type, for use when a query names a type
// before Ingest has populated the snapshot (§4.10). Subsequent calls
// for the same type are no-ops.
func (s *Snapshot) scanOnceForType(ctx context.Context, typeName string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.scannedTypes[typeName] {
		return nil
	}

	for raw, srcErr := range s.source.Objects() {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		if srcErr != nil {
			s.logger.Debug("lazy scan: skipping object after source error: %v", srcErr)
			continue
		}
		if raw.TypeName != typeName {
			continue
		}
		if raw.Address == 0 || raw.ShallowSize == 0 {
			continue
		}

		interned := s.interner.Intern(raw.TypeName)
		if _, exists := s.objects[raw.Address]; exists {
			continue
		}

		refs := make([]ObjectReference, 0, len(raw.References))
		for _, r := range raw.References {
			if r.TargetAddress == 0 || r.TargetType == "" {
				continue
			}
			refs = append(refs, ObjectReference{
				SourceAddress: raw.Address,
				TargetAddress: r.TargetAddress,
				FieldName:     s.interner.Intern(r.FieldName),
				TargetType:    s.interner.Intern(r.TargetType),
			})
		}

		s.objects[raw.Address] = &Object{
			Address:      raw.Address,
			TypeName:     interned,
			ShallowSize:  raw.ShallowSize,
			Generation:   raw.Generation,
			References:   refs,
			RetainedSize: raw.ShallowSize,
		}
		s.typeIndex[interned] = append(s.typeIndex[interned], raw.Address)
	}

	s.scannedTypes[typeName] = true
	return nil
}

// availableTypeNamesSet walks the HeapSource once, recording every
// distinct type name seen, for predicate queries that must resolve a
// name pattern to a set of exact types before scanning each one
// (§4.10).
func (s *Snapshot) availableTypeNamesSet(ctx context.Context) (map[string]struct{}, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.availableTypeNames != nil {
		return s.availableTypeNames, nil
	}

	names := make(map[string]struct{})
	for raw, srcErr := range s.source.Objects() {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}
		if srcErr != nil {
			continue
		}
		if raw.TypeName == "" {
			continue
		}
		names[raw.TypeName] = struct{}{}
	}

	s.availableTypeNames = names
	return names, nil
}

// scanOnceForHierarchy ensures every exact type name sharing typeName's
// base name has been scanned, so a pre-Ingest HierarchyStats query sees
// the whole family rather than whichever single exact type happened to
// be scanned first (§4.10).
func (s *Snapshot) scanOnceForHierarchy(ctx context.Context, typeName string) error {
	names, err := s.availableTypeNamesSet(ctx)
	if err != nil {
		return err
	}

	base := stripGenericsAndArrays(typeName)
	for name := range names {
		if stripGenericsAndArrays(name) != base {
			continue
		}
		if err := s.scanOnceForType(ctx, name); err != nil {
			return err
		}
	}
	return nil
}

// ByTypeLazy returns every tracked object of the exact type, performing
// a scan-once against the HeapSource first if the snapshot has not
// been fully ingested and this type has not yet been scanned.
func (s *Snapshot) ByTypeLazy(ctx context.Context, typeName string) ([]*Object, error) {
	interned := typeName

	s.mu.RLock()
	analyzed := s.ingested
	s.mu.RUnlock()

	if !analyzed {
		if err := s.scanOnceForType(ctx, interned); err != nil {
			return nil, err
		}
	}

	addrs := s.addressesOfType(interned)
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*Object, 0, len(addrs))
	for _, addr := range addrs {
		if obj, ok := s.objects[addr]; ok {
			out = append(out, obj)
		}
	}
	return out, nil
}
