// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

// Package cache memoizes stencil tables by topology fingerprint.
//
// Building a stencil table is the expensive step of a subdivision
// pipeline, while meshes with the same topology and options share tables.
// StencilCache keys tables by TopologyRefiner.Fingerprint and the
// StencilTableOptions used to build them:
//
//	c := cache.NewStencilCache(0)
//	table, err := c.GetOrCreate(refiner, far.DefaultStencilTableOptions())
//
// The cache is a 16-way sharded LRU. A missing entry is built while its
// shard is locked, so concurrent callers never build the same table twice.
package cache
