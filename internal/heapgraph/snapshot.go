package heapgraph

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/heapscope/heapanalysis/pkg/config"
	"github.com/heapscope/heapanalysis/pkg/utils"
)

// Snapshot owns a single post-mortem heap: the object map, the exact
// type-name index, the interner, root-discovery state, and the lazily
// built analysis indices. A Snapshot is created empty, populated by a
// HeapSource (Ingest), optionally analyzed (Analyze), queried, and then
// discarded.
type Snapshot struct {
	mu sync.RWMutex

	source   HeapSource
	interner *Interner
	cfg      config.AnalysisConfig
	logger   utils.Logger

	ProcessID  string
	CapturedAt time.Time

	objects   map[uint64]*Object
	typeIndex map[string][]uint64

	processed int64
	skipped   int64

	roots     map[uint64]struct{}
	rootOrder []uint64

	warnings Warnings

	ingested bool

	scannedTypes       map[string]bool
	availableTypeNames map[string]struct{}

	immediateDominator map[uint64]uint64
	dominatorChildren   map[uint64][]uint64
	classRetainedSize   map[string]uint64

	spatialOnce   sync.Once
	spatial       *spatialIndex
	hierarchyOnce sync.Once
	hierarchy     *hierarchyIndex
	refIndexOnce  sync.Once
	refIndex      *referenceIndex

	analysisTimer *utils.Timer
}

// NewSnapshot creates an empty snapshot backed by source.
func NewSnapshot(source HeapSource, cfg config.AnalysisConfig, logger utils.Logger, processID string) *Snapshot {
	if logger == nil {
		logger = &utils.NullLogger{}
	}
	return &Snapshot{
		source:       source,
		interner:     NewInterner(),
		cfg:          cfg,
		logger:       logger,
		ProcessID:    processID,
		CapturedAt:   time.Now(),
		objects:      make(map[uint64]*Object),
		typeIndex:    make(map[string][]uint64),
		roots:        make(map[uint64]struct{}),
		scannedTypes: make(map[string]bool),
		analysisTimer: utils.NewTimer("Analyze", utils.WithLogger(logger)),
	}
}

// IsAnalyzed reports whether ingestion has populated at least one
// object. It does not imply root discovery or dominator-tree
// construction have run; see Analyze.
func (s *Snapshot) IsAnalyzed() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.ingested
}

// Warnings returns the accumulated confidence-degrading flags produced
// by ingestion and analysis so far.
func (s *Snapshot) Warnings() Warnings {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.warnings
}

// Stats returns the processed/skipped object counters from ingestion.
func (s *Snapshot) Stats() (processed, skipped int64) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.processed, s.skipped
}

// Ingest consumes every object the HeapSource yields, applying the
// filtering, capping, and early-abort rules of §4.3. It is intended to
// run exactly once per snapshot.
func (s *Snapshot) Ingest(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for raw, srcErr := range s.source.Objects() {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		if srcErr != nil {
			var fatal *FatalSourceError
			if errors.As(srcErr, &fatal) {
				s.logger.Error("ingest: fatal source error, aborting scan: %v", fatal)
				return fatal
			}
			s.skipped++
			s.logger.Debug("ingest: skipping object after source error: %v", srcErr)
			continue
		}

		if raw.TypeName == "" || raw.Address == 0 || raw.ShallowSize == 0 {
			s.skipped++
			continue
		}

		typeName := s.interner.Intern(raw.TypeName)

		maxRefs := s.cfg.MaxReferencesPerObj
		if maxRefs <= 0 {
			maxRefs = 100
		}
		refs := make([]ObjectReference, 0, min(len(raw.References), maxRefs))
		for _, r := range raw.References {
			if len(refs) >= maxRefs {
				s.warnings.ReferencesTruncatedCount++
				break
			}
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

		obj := &Object{
			Address:      raw.Address,
			TypeName:     typeName,
			ShallowSize:  raw.ShallowSize,
			Generation:   raw.Generation,
			References:   refs,
			RetainedSize: raw.ShallowSize,
		}

		if _, exists := s.objects[raw.Address]; !exists {
			s.typeIndex[typeName] = append(s.typeIndex[typeName], raw.Address)
		}
		s.objects[raw.Address] = obj
		s.processed++

		abortAfter := s.cfg.EarlyAbortAfter
		if abortAfter <= 0 {
			abortAfter = 1000
		}
		abortRatio := s.cfg.EarlyAbortRatio
		if abortRatio <= 0 {
			abortRatio = 2
		}
		total := s.processed + s.skipped
		if total > abortAfter && float64(s.skipped) > abortRatio*float64(s.processed) {
			s.logger.Warn("ingest: aborting, skip ratio %d/%d exceeds early-abort threshold", s.skipped, s.processed)
			return ErrCorruptDump
		}

		reportEvery := s.cfg.ProgressReportEvery
		if reportEvery <= 0 {
			reportEvery = 25000
		}
		if total%reportEvery == 0 {
			s.logger.Info("ingest progress: processed=%d skipped=%d", s.processed, s.skipped)
		}
	}

	if s.processed > 0 {
		s.ingested = true
	}
	return nil
}

// object returns the tracked object at addr, or nil.
func (s *Snapshot) object(addr uint64) *Object {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.objects[addr]
}

// objectCount returns the number of tracked objects.
func (s *Snapshot) objectCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.objects)
}

// addressesOfType returns the (unordered-insertion-ordered) addresses
// recorded under the exact type name, without interning lookup.
func (s *Snapshot) addressesOfType(typeName string) []uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	addrs := s.typeIndex[typeName]
	out := make([]uint64, len(addrs))
	copy(out, addrs)
	return out
}

// objectsSortedByAddress returns a stable slice of all tracked objects, sorted
// by address. Used by indices that need a full, ordered view.
func (s *Snapshot) objectsSortedByAddress() []*Object {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*Object, 0, len(s.objects))
	for _, o := range s.objects {
		out = append(out, o)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Address < out[j].Address })
	return out
}
