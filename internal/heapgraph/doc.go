// Package heapgraph builds indexed, queryable representations of a
// post-mortem heap snapshot and computes retained sizes over the
// resulting object graph.
//
// Files, in dependency order (leaves first):
//
//	types.go            data model: Object, ObjectReference, GCRootPath
//	interner.go          string interning
//	source.go            the HeapSource contract consumed from external collaborators
//	snapshot.go          ingestion and snapshot lifecycle
//	root_set.go          GC-root discovery
//	graph.go             adjacency construction shared by dominator/reference analyses
//	dominator.go         Lengauer-Tarjan dominator tree
//	retained.go          bottom-up retained-size computation
//	spatial_index.go     address/size range queries
//	hierarchy_index.go   nominal type-hierarchy rollups
//	reference_index.go   BFS reachability, shortest path, reference depth
//	lazy_scan.go         scan-once type population for unanalyzed snapshots
//	query.go             the read-only facade
//	report.go            HeapAnalysisReport generation
//	errors.go             the package's error taxonomy
//	tracing.go           OpenTelemetry spans around the expensive operations
package heapgraph
