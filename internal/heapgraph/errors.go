package heapgraph

import (
	pkgerrors "github.com/heapscope/heapanalysis/pkg/errors"
)

// ErrCorruptDump is returned by Ingest when the early-abort heuristic
// fires: more than EarlyAbortRatio (default 2) times as many objects
// were skipped as processed, after the first EarlyAbortAfter (default
// 1,000) objects.
var ErrCorruptDump = pkgerrors.New(pkgerrors.CodeCorruptDump, "heap source appears corrupt: skip ratio exceeded early-abort threshold")

// ErrGraphTooLarge signals that the dominator-tree node cap was
// exceeded; it is not returned to callers, only recorded as a warning
// on the resulting report (see Warnings).
var ErrGraphTooLarge = pkgerrors.New(pkgerrors.CodeGraphTooLarge, "object graph exceeds the dominator-tree node cap")

// Warnings accumulates the non-fatal degradations a partial analysis can
// produce, so a report can be honest about its own confidence (spec §7
// "user-visible failure behavior").
type Warnings struct {
	RetainedIsApproximate    bool
	RootsViaRefcount         bool
	ReferencesTruncatedCount int64
	GraphTooLargeForDominator bool
}
