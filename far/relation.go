// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package far

// relation is a flattened one-to-many table: row i is
// items[offsets[i]:offsets[i+1]]. Rows are only ever appended.
type relation struct {
	offsets []int
	items   []int
}

func newRelation(rows, items int) relation {
	r := relation{
		offsets: make([]int, 1, rows+1),
		items:   make([]int, 0, items),
	}
	return r
}

// appendRow adds the next row.
func (r *relation) appendRow(items ...int) {
	r.items = append(r.items, items...)
	r.offsets = append(r.offsets, len(r.items))
}

// rowCount returns the number of rows.
func (r *relation) rowCount() int { return len(r.offsets) - 1 }

// count returns the length of row i.
func (r *relation) count(i int) int { return r.offsets[i+1] - r.offsets[i] }

// row returns row i with its capacity clipped, so appends by callers
// never reach the next row.
func (r *relation) row(i int) []int {
	lo, hi := r.offsets[i], r.offsets[i+1]
	return r.items[lo:hi:hi]
}

// fromCounts builds a relation with the given row sizes, items zeroed.
func fromCounts(counts []int) relation {
	r := relation{offsets: make([]int, len(counts)+1)}
	for i, n := range counts {
		r.offsets[i+1] = r.offsets[i] + n
	}
	r.items = make([]int, r.offsets[len(counts)])
	return r
}

// rowTable is a flattened table of sparse weighted rows.
type rowTable struct {
	offsets []int
	indices []int
	weights []float64
}

func newRowTable(rows int) rowTable {
	return rowTable{offsets: make([]int, 1, rows+1)}
}

func (t *rowTable) rowCount() int { return len(t.offsets) - 1 }

func (t *rowTable) row(i int) ([]int, []float64) {
	lo, hi := t.offsets[i], t.offsets[i+1]
	return t.indices[lo:hi:hi], t.weights[lo:hi:hi]
}

func (t *rowTable) appendRow(b *rowBuilder) {
	t.indices = append(t.indices, b.indices...)
	t.weights = append(t.weights, b.weights...)
	t.offsets = append(t.offsets, len(t.indices))
}

// rowBuilder accumulates one sparse row, merging repeated indices.
// Rows are short (a vertex one-ring), so a linear scan beats a map.
type rowBuilder struct {
	indices []int
	weights []float64
}

func (b *rowBuilder) reset() {
	b.indices = b.indices[:0]
	b.weights = b.weights[:0]
}

func (b *rowBuilder) add(index int, w float64) {
	if w == 0 {
		return
	}
	for k, i := range b.indices {
		if i == index {
			b.weights[k] += w
			return
		}
	}
	b.indices = append(b.indices, index)
	b.weights = append(b.weights, w)
}
