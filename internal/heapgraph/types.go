package heapgraph

// GCRootKind classifies why the runtime considers an object reachable
// independently of in-heap references.
type GCRootKind int

const (
	RootUnknown GCRootKind = iota
	RootStrongHandle
	RootWeakHandle
	RootPinned
	RootStack
	RootFinalizer
	RootStatic
	RootThread
	RootAsyncPinned
	RootOther
)

func (k GCRootKind) String() string {
	switch k {
	case RootStrongHandle:
		return "strong_handle"
	case RootWeakHandle:
		return "weak_handle"
	case RootPinned:
		return "pinned"
	case RootStack:
		return "stack"
	case RootFinalizer:
		return "finalizer"
	case RootStatic:
		return "static"
	case RootThread:
		return "thread"
	case RootAsyncPinned:
		return "async_pinned"
	case RootOther:
		return "other"
	default:
		return "unknown"
	}
}

// ObjectReference is a single outgoing edge from a tracked object.
// SourceAddress always equals the owning Object's Address.
type ObjectReference struct {
	SourceAddress uint64
	TargetAddress uint64
	FieldName     string
	TargetType    string
}

// GCRootPath records that an object is kept alive by a runtime root,
// independent of any in-heap reference chain.
type GCRootPath struct {
	RootKind      GCRootKind
	RootAddress   uint64
	ObjectAddress uint64
	RootName      string
}

// Object is a single tracked heap allocation, keyed by its address.
//
// Objects are immutable after ingestion except for RetainedSize
// (written once by analysis) and GCRootPaths (populated during root
// discovery).
type Object struct {
	Address      uint64
	TypeName     string
	ShallowSize  uint64
	Generation   uint32
	References   []ObjectReference
	Fields       map[string]any
	RetainedSize uint64
	GCRootPaths  []GCRootPath
}

// IsRoot reports whether any GC root keeps this object alive directly.
func (o *Object) IsRoot() bool {
	return len(o.GCRootPaths) > 0
}
