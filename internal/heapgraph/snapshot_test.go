package heapgraph

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/heapscope/heapanalysis/internal/mock"
	"github.com/heapscope/heapanalysis/internal/testutil"
	"github.com/heapscope/heapanalysis/pkg/config"
)

func TestIngest_SkipsInvalidObjects(t *testing.T) {
	source := testutil.NewFakeHeapSource([]RawObject{
		{Address: 0, TypeName: "Bad", ShallowSize: 10},
		{Address: 1, TypeName: "", ShallowSize: 10},
		{Address: 2, TypeName: "Good", ShallowSize: 0},
		{Address: 3, TypeName: "Good", ShallowSize: 10},
	}, nil)

	s := NewSnapshot(source, config.AnalysisConfig{}, nil, "proc")
	require.NoError(t, s.Ingest(context.Background()))

	processed, skipped := s.Stats()
	require.Equal(t, int64(1), processed)
	require.Equal(t, int64(3), skipped)
	require.NotNil(t, s.Get(3))
}

func TestIngest_CapsReferencesAndWarns(t *testing.T) {
	refs := make([]RawReference, 0, 5)
	for i := 1; i <= 5; i++ {
		refs = append(refs, RawReference{TargetAddress: uint64(i + 100), TargetType: "T"})
	}
	source := testutil.NewFakeHeapSource([]RawObject{
		{Address: 1, TypeName: "Hub", ShallowSize: 10, References: refs},
	}, nil)

	s := NewSnapshot(source, config.AnalysisConfig{MaxReferencesPerObj: 2}, nil, "proc")
	require.NoError(t, s.Ingest(context.Background()))

	require.Len(t, s.Get(1).References, 2)
	require.Equal(t, int64(1), s.Warnings().ReferencesTruncatedCount)
}

func TestIngest_FatalSourceErrorAbortsScan(t *testing.T) {
	m := &mock.MockHeapSource{}
	m.On("Objects").Return()
	m.ExpectObjects([]RawObject{
		{Address: 1, TypeName: "A", ShallowSize: 10},
		{Address: 2, TypeName: "B", ShallowSize: 10},
	}, nil, &FatalSourceError{Err: errors.New("dump truncated")})

	s := NewSnapshot(m, config.AnalysisConfig{}, nil, "proc")
	err := s.Ingest(context.Background())

	require.Error(t, err)
	require.False(t, s.IsAnalyzed())
	require.NotNil(t, s.Get(1))
	require.Nil(t, s.Get(2))
}

func TestIngest_PerItemErrorSkipsAndContinues(t *testing.T) {
	m := &mock.MockHeapSource{}
	m.On("Objects").Return()
	m.ExpectObjects([]RawObject{
		{Address: 1, TypeName: "A", ShallowSize: 10},
		{Address: 2, TypeName: "B", ShallowSize: 10},
	}, errors.New("bad record"), nil)

	s := NewSnapshot(m, config.AnalysisConfig{}, nil, "proc")
	require.NoError(t, s.Ingest(context.Background()))

	processed, skipped := s.Stats()
	require.Equal(t, int64(1), processed)
	require.Equal(t, int64(1), skipped)
}

func TestIngest_EarlyAbortOnCorruptDump(t *testing.T) {
	objs := make([]RawObject, 0, 1100)
	for i := 0; i < 1100; i++ {
		if i%10 == 0 {
			objs = append(objs, RawObject{Address: uint64(i + 1), TypeName: "Good", ShallowSize: 1})
		} else {
			objs = append(objs, RawObject{Address: 0}) // invalid, counted as skipped
		}
	}
	source := testutil.NewFakeHeapSource(objs, nil)

	s := NewSnapshot(source, config.AnalysisConfig{}, nil, "proc")
	err := s.Ingest(context.Background())

	require.ErrorIs(t, err, ErrCorruptDump)
}

func TestObject_IsRoot(t *testing.T) {
	o := &Object{Address: 1}
	require.False(t, o.IsRoot())
	o.GCRootPaths = append(o.GCRootPaths, GCRootPath{RootKind: RootStatic})
	require.True(t, o.IsRoot())
}
