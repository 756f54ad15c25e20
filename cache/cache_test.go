// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package cache

import (
	"errors"
	"sync"
	"testing"

	"github.com/gogpu/subdiv/far"
	"github.com/gogpu/subdiv/sdc"
)

func identity(u uint64) uint64 { return u }

// =============================================================================
// ShardedCache
// =============================================================================

func TestShardedGetOrCreate(t *testing.T) {
	c := NewSharded[uint64, int](4, identity)
	calls := 0
	create := func(v int) func() (int, error) {
		return func() (int, error) {
			calls++
			return v, nil
		}
	}

	if v, err := c.GetOrCreate(1, create(100)); err != nil || v != 100 {
		t.Fatalf("GetOrCreate(1) = %d, %v, want 100", v, err)
	}
	if v, _ := c.GetOrCreate(1, create(200)); v != 100 {
		t.Errorf("GetOrCreate(1) second call = %d, want cached 100", v)
	}
	if calls != 1 {
		t.Errorf("create called %d times, want 1", calls)
	}
	if _, ok := c.Get(2); ok {
		t.Error("Get(2) found an entry")
	}
	s := c.Stats()
	if s.Hits != 1 || s.Misses != 2 || s.Len != 1 {
		t.Errorf("Stats() = %+v, want 1 hit, 2 misses, 1 entry", s)
	}
}

func TestShardedCreateError(t *testing.T) {
	c := NewSharded[uint64, int](4, identity)
	boom := errors.New("boom")
	if _, err := c.GetOrCreate(1, func() (int, error) { return 0, boom }); !errors.Is(err, boom) {
		t.Fatalf("GetOrCreate error = %v, want boom", err)
	}
	if c.Len() != 0 {
		t.Errorf("Len() = %d after failed create, want 0", c.Len())
	}
}

func TestShardedEviction(t *testing.T) {
	c := NewSharded[uint64, int](2, identity)
	// Keys 0, 16, 32 all land in shard 0.
	for _, k := range []uint64{0, 16} {
		_, _ = c.GetOrCreate(k, func() (int, error) { return int(k), nil })
	}
	c.Get(0) // 16 is now the oldest
	_, _ = c.GetOrCreate(32, func() (int, error) { return 32, nil })

	if _, ok := c.Get(16); ok {
		t.Error("least recently used key 16 not evicted")
	}
	for _, k := range []uint64{0, 32} {
		if _, ok := c.Get(k); !ok {
			t.Errorf("key %d evicted", k)
		}
	}
	if s := c.Stats(); s.Evictions != 1 || s.TotalCapacity != 2*ShardCount {
		t.Errorf("Stats() = %+v, want 1 eviction", s)
	}
}

func TestShardedDeleteClear(t *testing.T) {
	c := NewSharded[uint64, int](0, identity)
	for k := range uint64(40) {
		_, _ = c.GetOrCreate(k, func() (int, error) { return 1, nil })
	}
	if c.Len() != 40 {
		t.Fatalf("Len() = %d, want 40", c.Len())
	}
	if !c.Delete(3) || c.Delete(3) {
		t.Error("Delete(3) should succeed once")
	}
	c.Clear()
	if c.Len() != 0 {
		t.Errorf("Len() = %d after Clear, want 0", c.Len())
	}
	c.ResetStats()
	if s := c.Stats(); s.Hits != 0 || s.Misses != 0 {
		t.Errorf("Stats() = %+v after ResetStats", s)
	}
}

func TestLRUList(t *testing.T) {
	var l lruList[int]
	a := l.PushFront(1)
	l.PushFront(2)
	c := l.PushFront(3)
	l.MoveToFront(a) // 1 3 2
	l.Remove(c)      // 1 2
	if k, _ := l.RemoveOldest(); k != 2 {
		t.Errorf("RemoveOldest() = %d, want 2", k)
	}
	if k, _ := l.RemoveOldest(); k != 1 {
		t.Errorf("RemoveOldest() = %d, want 1", k)
	}
	if _, ok := l.RemoveOldest(); ok || l.Len() != 0 {
		t.Errorf("list not empty: len %d", l.Len())
	}
}

// =============================================================================
// StencilCache
// =============================================================================

func refinedCube(t *testing.T, level int) *far.TopologyRefiner {
	t.Helper()
	desc := far.TopologyDescriptor{
		VertexCount:      8,
		FaceVertexCounts: []int{4, 4, 4, 4, 4, 4},
		FaceVertexIndices: []int{
			0, 1, 3, 2, 2, 3, 5, 4, 4, 5, 7, 6,
			6, 7, 1, 0, 1, 7, 5, 3, 6, 0, 2, 4,
		},
	}
	r, err := far.NewTopologyRefiner(desc, sdc.DefaultOptions())
	if err != nil {
		t.Fatal(err)
	}
	if err := r.RefineUniform(far.UniformOptions{RefinementLevel: level, OrderVerticesFromFacesFirst: true}); err != nil {
		t.Fatal(err)
	}
	return r
}

func TestStencilCache_SameTable(t *testing.T) {
	c := NewStencilCache(0)
	opts := far.DefaultStencilTableOptions()

	t1, err := c.GetOrCreate(refinedCube(t, 2), opts)
	if err != nil {
		t.Fatal(err)
	}
	// A second refiner over the same topology shares the entry.
	t2, err := c.GetOrCreate(refinedCube(t, 2), opts)
	if err != nil {
		t.Fatal(err)
	}
	if t1 != t2 {
		t.Error("equal topology produced distinct tables")
	}

	t3, err := c.GetOrCreate(refinedCube(t, 3), opts)
	if err != nil {
		t.Fatal(err)
	}
	if t3 == t1 {
		t.Error("different refinement level returned the cached table")
	}
	opts.GenerateControlVertices = true
	t4, err := c.GetOrCreate(refinedCube(t, 2), opts)
	if err != nil {
		t.Fatal(err)
	}
	if t4 == t1 || t4.Len() != t1.Len()+8 {
		t.Errorf("options change: got %d stencils, want %d", t4.Len(), t1.Len()+8)
	}

	s := c.Stats()
	if s.Hits != 1 || s.Misses != 3 || c.Len() != 3 {
		t.Errorf("Stats() = %+v, Len() = %d, want 1 hit, 3 misses, 3 entries", s, c.Len())
	}

	key := Key{Fingerprint: refinedCube(t, 2).Fingerprint(), Options: opts}
	if got, ok := c.Get(key); !ok || got != t4 {
		t.Error("Get did not return the cached table")
	}
	if !c.Invalidate(key) {
		t.Error("Invalidate found no entry")
	}
	c.Clear()
	if c.Len() != 0 {
		t.Errorf("Len() = %d after Clear", c.Len())
	}
}

func TestStencilCache_ErrorNotCached(t *testing.T) {
	c := NewStencilCache(0)
	desc := far.TopologyDescriptor{VertexCount: 3, FaceVertexCounts: []int{3}, FaceVertexIndices: []int{0, 1, 2}}
	r, err := far.NewTopologyRefiner(desc, sdc.DefaultOptions())
	if err != nil {
		t.Fatal(err)
	}
	if _, err := c.GetOrCreate(r, far.DefaultStencilTableOptions()); !errors.Is(err, far.ErrNotRefined) {
		t.Errorf("unrefined: error = %v, want ErrNotRefined", err)
	}
	if c.Len() != 0 {
		t.Errorf("Len() = %d after failed build", c.Len())
	}
}

func TestStencilCache_Concurrent(t *testing.T) {
	c := NewStencilCache(0)
	r := refinedCube(t, 3)
	opts := far.DefaultStencilTableOptions()

	const goroutines = 8
	tables := make([]*far.StencilTable, goroutines)
	var wg sync.WaitGroup
	for i := range goroutines {
		wg.Add(1)
		go func() {
			defer wg.Done()
			table, err := c.GetOrCreate(r, opts)
			if err != nil {
				t.Error(err)
				return
			}
			tables[i] = table
		}()
	}
	wg.Wait()
	for i := 1; i < goroutines; i++ {
		if tables[i] != tables[0] {
			t.Fatal("concurrent callers received different tables")
		}
	}
	if s := c.Stats(); s.Misses != 1 || s.Hits != goroutines-1 {
		t.Errorf("Stats() = %+v, want exactly one build", s)
	}
}
