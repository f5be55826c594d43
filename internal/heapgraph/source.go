package heapgraph

import "iter"

// RawReference is a single outgoing reference as reported by a HeapSource,
// before interning or filtering.
type RawReference struct {
	TargetAddress uint64
	TargetType    string
	FieldName     string
}

// RawObject is a single heap object as reported by a HeapSource, before
// interning, capping, or any of the other ingestion-time filtering in
// Snapshot.Ingest.
type RawObject struct {
	Address     uint64
	TypeName    string
	ShallowSize uint64
	Generation  uint32
	References  []RawReference
}

// RawRoot is a single GC root as reported by a HeapSource.
type RawRoot struct {
	Kind          GCRootKind
	RootAddress   uint64
	TargetAddress uint64
	RootName      string
}

// HeapSource is the external contract the core consumes: a decoded view
// of a process's live objects and the runtime's reported GC roots. A
// HeapSource never decodes a dump file itself; that belongs to a
// collaborator upstream of this package.
//
// Objects and Roots are finite, non-restartable iterators. A per-item
// error (the error half of the yielded pair) is recoverable: the core
// counts it as skipped and continues. A *FatalSourceError terminates the
// scan.
type HeapSource interface {
	Objects() iter.Seq2[RawObject, error]
	Roots() iter.Seq2[RawRoot, error]

	// Get performs a single-object lookup, used by lazy single-object
	// analysis. ok is false if no such object exists.
	Get(address uint64) (obj RawObject, ok bool, err error)
}

// FatalSourceError marks an error that should abort a scan outright,
// rather than being treated as a skippable per-item failure.
type FatalSourceError struct {
	Err error
}

func (e *FatalSourceError) Error() string {
	return "heap source fatal error: " + e.Err.Error()
}

func (e *FatalSourceError) Unwrap() error {
	return e.Err
}
