// Package mock provides mock implementations for testing.
package mock

import (
	"iter"

	"github.com/stretchr/testify/mock"

	"github.com/heapscope/heapanalysis/internal/heapgraph"
)

// MockHeapSource is a mock implementation of the heapgraph.HeapSource
// interface, for tests that need to assert on call counts or inject a
// fatal source error mid-scan.
type MockHeapSource struct {
	mock.Mock

	objects []heapgraph.RawObject
	objErrs []error
	roots   []heapgraph.RawRoot
	rootErrs []error
}

// ExpectObjects sets the object stream returned by Objects. errs may be
// shorter than objects; missing entries are treated as nil.
func (m *MockHeapSource) ExpectObjects(objects []heapgraph.RawObject, errs ...error) {
	m.objects = objects
	m.objErrs = errs
}

// ExpectRoots sets the root stream returned by Roots.
func (m *MockHeapSource) ExpectRoots(roots []heapgraph.RawRoot, errs ...error) {
	m.roots = roots
	m.rootErrs = errs
}

// Objects mocks the Objects method, recording the call and replaying
// the stream configured via ExpectObjects.
func (m *MockHeapSource) Objects() iter.Seq2[heapgraph.RawObject, error] {
	m.Called()
	return func(yield func(heapgraph.RawObject, error) bool) {
		for i, o := range m.objects {
			var err error
			if i < len(m.objErrs) {
				err = m.objErrs[i]
			}
			if !yield(o, err) {
				return
			}
		}
	}
}

// Roots mocks the Roots method, recording the call and replaying the
// stream configured via ExpectRoots.
func (m *MockHeapSource) Roots() iter.Seq2[heapgraph.RawRoot, error] {
	m.Called()
	return func(yield func(heapgraph.RawRoot, error) bool) {
		for i, r := range m.roots {
			var err error
			if i < len(m.rootErrs) {
				err = m.rootErrs[i]
			}
			if !yield(r, err) {
				return
			}
		}
	}
}

// Get mocks the Get method.
func (m *MockHeapSource) Get(address uint64) (heapgraph.RawObject, bool, error) {
	args := m.Called(address)
	if args.Get(0) == nil {
		return heapgraph.RawObject{}, args.Bool(1), args.Error(2)
	}
	return args.Get(0).(heapgraph.RawObject), args.Bool(1), args.Error(2)
}
