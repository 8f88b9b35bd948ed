package artifact

import (
	"fmt"

	"github.com/RoaringBitmap/roaring/v2"

	"github.com/hupe1980/recgo/model"
)

// Incidence is the sparse N×M item-tag matrix.
//
// It keeps both orientations: the tag set of every item and the posting
// list of every tag. Bitmaps are read-only after construction.
type Incidence struct {
	items, tags int
	byItem      []*roaring.Bitmap
	byTag       []*roaring.Bitmap
}

// NewIncidence builds an incidence matrix from per-item tag columns.
// rowTags must have exactly n entries and every column must be < m.
func NewIncidence(n, m int, rowTags [][]uint32) (*Incidence, error) {
	if len(rowTags) != n {
		return nil, fmt.Errorf("incidence: %d rows, want %d", len(rowTags), n)
	}

	x := &Incidence{
		items:  n,
		tags:   m,
		byItem: make([]*roaring.Bitmap, n),
		byTag:  make([]*roaring.Bitmap, m),
	}
	for t := range m {
		x.byTag[t] = roaring.New()
	}
	for r, cols := range rowTags {
		bm := roaring.New()
		for _, c := range cols {
			if int(c) >= m {
				return nil, fmt.Errorf("incidence: row %d: column %d out of range [0,%d)", r, c, m)
			}
			bm.Add(c)
			x.byTag[c].Add(uint32(r))
		}
		bm.RunOptimize()
		x.byItem[r] = bm
	}
	for _, bm := range x.byTag {
		bm.RunOptimize()
	}
	return x, nil
}

// Items returns N.
func (x *Incidence) Items() int { return x.items }

// Tags returns M.
func (x *Incidence) Tags() int { return x.tags }

// ItemTags returns the tag columns of row. The bitmap must not be modified.
func (x *Incidence) ItemTags(row model.Row) *roaring.Bitmap {
	return x.byItem[row]
}

// TagCount returns the number of tags of row.
func (x *Incidence) TagCount(row model.Row) int {
	return int(x.byItem[row].GetCardinality())
}

// Has reports whether row carries tag.
func (x *Incidence) Has(row model.Row, tag int) bool {
	return x.byItem[row].Contains(uint32(tag))
}

// Overlap returns |tags(row) ∩ set|.
func (x *Incidence) Overlap(row model.Row, set *roaring.Bitmap) int {
	return int(x.byItem[row].AndCardinality(set))
}

// Posting returns the rows carrying tag. The bitmap must not be modified.
func (x *Incidence) Posting(tag int) *roaring.Bitmap {
	return x.byTag[tag]
}

// NNZ returns the number of non-zero entries.
func (x *Incidence) NNZ() uint64 {
	var n uint64
	for _, bm := range x.byItem {
		n += bm.GetCardinality()
	}
	return n
}
