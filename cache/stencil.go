// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package cache

import (
	"encoding/binary"
	"hash/fnv"

	"github.com/gogpu/subdiv"
	"github.com/gogpu/subdiv/far"
)

// Key identifies a stencil table: the refiner that produced it and the
// options it was built with.
type Key struct {
	Fingerprint uint64
	Options     far.StencilTableOptions
}

// keyHash mixes the fingerprint with the options so that tables of one
// mesh built with different options spread over shards.
func keyHash(k Key) uint64 {
	o := k.Options
	var buf [8 * 4]byte
	binary.LittleEndian.PutUint64(buf[0:], k.Fingerprint)
	binary.LittleEndian.PutUint64(buf[8:], uint64(o.InterpolationMode))
	binary.LittleEndian.PutUint64(buf[16:], uint64(o.MaxLevel)<<8^uint64(o.FVarChannel)) //nolint:gosec // hash input
	var flags uint64
	for i, b := range []bool{
		o.GenerateOffsets, o.GenerateControlVertices, o.GenerateIntermediateLevels,
		o.FactorizeIntermediateLevels, o.GenerateFirstDerivatives, o.GenerateSecondDerivatives,
	} {
		if b {
			flags |= 1 << i
		}
	}
	binary.LittleEndian.PutUint64(buf[24:], flags)
	h := fnv.New64a()
	_, _ = h.Write(buf[:]) // fnv.Write never returns an error
	return h.Sum64()
}

// StencilCache memoizes stencil tables. It is safe for concurrent use.
type StencilCache struct {
	tables  *ShardedCache[Key, *far.StencilTable]
	factory *far.StencilTableFactory
}

// NewStencilCache creates a cache holding up to capacity tables per shard.
// If capacity <= 0, DefaultCapacity is used.
func NewStencilCache(capacity int) *StencilCache {
	return &StencilCache{
		tables:  NewSharded[Key, *far.StencilTable](capacity, keyHash),
		factory: far.NewStencilTableFactory(),
	}
}

// GetOrCreate returns the table for r and opts, building it on a miss.
// Build errors are returned unchanged and nothing is cached.
func (c *StencilCache) GetOrCreate(r *far.TopologyRefiner, opts far.StencilTableOptions) (*far.StencilTable, error) {
	key := Key{Fingerprint: r.Fingerprint(), Options: opts}
	return c.tables.GetOrCreate(key, func() (*far.StencilTable, error) {
		table, err := c.factory.Create(r, opts)
		if err != nil {
			return nil, err
		}
		subdiv.Logger().Debug("cache: stencil table built",
			"fingerprint", key.Fingerprint, "stencils", table.Len())
		return table, nil
	})
}

// Get returns a cached table without building it.
func (c *StencilCache) Get(key Key) (*far.StencilTable, bool) { return c.tables.Get(key) }

// Invalidate drops the table cached under key.
func (c *StencilCache) Invalidate(key Key) bool { return c.tables.Delete(key) }

// Clear drops every table.
func (c *StencilCache) Clear() { c.tables.Clear() }

// Len returns the number of cached tables.
func (c *StencilCache) Len() int { return c.tables.Len() }

// Stats returns hit, miss and eviction counters.
func (c *StencilCache) Stats() Stats { return c.tables.Stats() }
