package artifact

import (
	"fmt"
	"math"
	"time"

	"github.com/hupe1980/recgo/distance"
	"github.com/hupe1980/recgo/model"
)

// Params are the raw inputs of a Context. Slices are retained, not copied.
type Params struct {
	// ItemIDs maps row → item id. Ids must be unique.
	ItemIDs []model.ItemID
	// ItemVectors is the N×D item matrix in row order.
	ItemVectors [][]float32
	// TagNames maps column → tag name.
	TagNames []string
	// TagVectors is the M×D tag matrix in column order.
	TagVectors [][]float32
	// Alignment is the optional E×D text-to-tag projection.
	Alignment [][]float32
	// Weights is the per-item weight vector (N).
	Weights []float32
	// Incidence is the N×M item-tag matrix. Nil means no item carries a tag.
	Incidence *Incidence
	// Items holds optional attributes keyed by item id.
	Items map[model.ItemID]*Item
}

// Context is the immutable static context shared by all requests.
type Context struct {
	dim int

	ids      []model.ItemID
	rows     map[model.ItemID]model.Row
	items    [][]float32
	weights  []float32
	attrs    []*Item
	earliest time.Time
	latest   time.Time

	tagNames  []string
	tagIdx    map[string]int
	tags      [][]float32
	align     [][]float32
	incidence *Incidence
}

// New validates p and builds a Context. All failures are *model.MissingArtifactError
// naming the inconsistent artifact.
func New(p Params) (*Context, error) {
	n := len(p.ItemIDs)
	if n == 0 {
		return nil, model.NewMissingArtifactError(IndexMapsName, "no items", nil)
	}
	if len(p.ItemVectors) != n {
		return nil, inconsistent(ItemVectorsName, "rows", len(p.ItemVectors), n)
	}
	dim := len(p.ItemVectors[0])
	if dim == 0 {
		return nil, model.NewMissingArtifactError(ItemVectorsName, "zero-width vectors", nil)
	}
	if err := checkMatrix(ItemVectorsName, p.ItemVectors, dim); err != nil {
		return nil, err
	}

	m := len(p.TagNames)
	if len(p.TagVectors) != m {
		return nil, inconsistent(TagVectorsName, "rows", len(p.TagVectors), m)
	}
	if err := checkMatrix(TagVectorsName, p.TagVectors, dim); err != nil {
		return nil, err
	}
	if err := checkMatrix(AlignmentName, p.Alignment, dim); err != nil {
		return nil, err
	}

	if len(p.Weights) != n {
		return nil, inconsistent(WeightsName, "entries", len(p.Weights), n)
	}
	for i, w := range p.Weights {
		if math.IsNaN(float64(w)) || math.IsInf(float64(w), 0) {
			return nil, model.NewMissingArtifactError(WeightsName, fmt.Sprintf("non-finite weight at row %d", i), nil)
		}
	}

	inc := p.Incidence
	if inc == nil {
		var err error
		if inc, err = NewIncidence(n, m, make([][]uint32, n)); err != nil {
			return nil, model.NewMissingArtifactError(IncidenceName, "build", err)
		}
	}
	if inc.Items() != n {
		return nil, inconsistent(IncidenceName, "rows", inc.Items(), n)
	}
	if inc.Tags() != m {
		return nil, inconsistent(IncidenceName, "columns", inc.Tags(), m)
	}

	sc := &Context{
		dim:       dim,
		ids:       p.ItemIDs,
		rows:      make(map[model.ItemID]model.Row, n),
		items:     p.ItemVectors,
		weights:   p.Weights,
		attrs:     make([]*Item, n),
		tagNames:  make([]string, m),
		tagIdx:    make(map[string]int, m),
		tags:      p.TagVectors,
		align:     p.Alignment,
		incidence: inc,
	}

	for r, id := range p.ItemIDs {
		if _, dup := sc.rows[id]; dup {
			return nil, model.NewMissingArtifactError(IndexMapsName, fmt.Sprintf("duplicate item id %d", id), nil)
		}
		sc.rows[id] = model.Row(r)

		if it, ok := p.Items[id]; ok && it != nil {
			cp := *it
			cp.prepare()
			sc.attrs[r] = &cp
			if t, ok := cp.Released(); ok {
				if sc.earliest.IsZero() || t.Before(sc.earliest) {
					sc.earliest = t
				}
				if t.After(sc.latest) {
					sc.latest = t
				}
			}
		}
	}

	for c, name := range p.TagNames {
		key := model.NormalizeTag(name)
		if key == "" {
			return nil, model.NewMissingArtifactError(IndexMapsName, fmt.Sprintf("empty tag name at column %d", c), nil)
		}
		if _, dup := sc.tagIdx[key]; dup {
			return nil, model.NewMissingArtifactError(IndexMapsName, fmt.Sprintf("duplicate tag %q", key), nil)
		}
		sc.tagIdx[key] = c
		sc.tagNames[c] = key
	}

	return sc, nil
}

func checkMatrix(name string, rows [][]float32, dim int) error {
	for i, v := range rows {
		if len(v) != dim {
			return model.NewMissingArtifactError(name, fmt.Sprintf("row %d", i), &model.DimensionMismatchError{Expected: dim, Actual: len(v)})
		}
	}
	return nil
}

func inconsistent(name, what string, got, want int) error {
	return model.NewMissingArtifactError(name, fmt.Sprintf("has %d %s, want %d", got, what, want), nil)
}

// Dimension returns D.
func (sc *Context) Dimension() int { return sc.dim }

// Len returns N.
func (sc *Context) Len() int { return len(sc.ids) }

// TagCount returns M.
func (sc *Context) TagCount() int { return len(sc.tagNames) }

// Row returns the matrix row of id.
func (sc *Context) Row(id model.ItemID) (model.Row, bool) {
	r, ok := sc.rows[id]
	return r, ok
}

// ID returns the item id of row.
func (sc *Context) ID(row model.Row) model.ItemID { return sc.ids[row] }

// IDs returns the row-ordered item ids. The slice must not be modified.
func (sc *Context) IDs() []model.ItemID { return sc.ids }

// ItemVector returns the raw item vector of row. The slice must not be modified.
func (sc *Context) ItemVector(row model.Row) []float32 { return sc.items[row] }

// ItemVectors returns the raw N×D item matrix. The slices must not be modified.
func (sc *Context) ItemVectors() [][]float32 { return sc.items }

// Weight returns the item weight of row.
func (sc *Context) Weight(row model.Row) float32 { return sc.weights[row] }

// Item returns the attributes of row, or nil if unknown.
func (sc *Context) Item(row model.Row) *Item { return sc.attrs[row] }

// ReleaseRange returns the earliest and latest known release dates.
// ok is false when no item has a known date.
func (sc *Context) ReleaseRange() (earliest, latest time.Time, ok bool) {
	return sc.earliest, sc.latest, !sc.earliest.IsZero()
}

// TagIndex returns the column of a tag name (normalized before lookup).
func (sc *Context) TagIndex(name string) (int, bool) {
	c, ok := sc.tagIdx[model.NormalizeTag(name)]
	return c, ok
}

// TagName returns the normalized name of column c.
func (sc *Context) TagName(c int) string { return sc.tagNames[c] }

// TagVector returns the vector of column c. The slice must not be modified.
func (sc *Context) TagVector(c int) []float32 { return sc.tags[c] }

// Incidence returns the item-tag matrix.
func (sc *Context) Incidence() *Incidence { return sc.incidence }

// HasAlignment reports whether the alignment matrix is present.
func (sc *Context) HasAlignment() bool { return len(sc.align) > 0 }

// EmbeddingDimension returns E, the width of text embeddings accepted by Project.
func (sc *Context) EmbeddingDimension() int { return len(sc.align) }

// Project maps a text embedding e (length E) into the item space as e·W.
func (sc *Context) Project(e []float32) ([]float32, error) {
	if !sc.HasAlignment() {
		return nil, model.NewMissingArtifactError(AlignmentName, "required for text queries", nil)
	}
	if len(e) != len(sc.align) {
		return nil, &model.DimensionMismatchError{Expected: len(sc.align), Actual: len(e)}
	}
	out := make([]float32, sc.dim)
	for i, w := range sc.align {
		if e[i] != 0 {
			distance.AddScaled(out, e[i], w)
		}
	}
	return out, nil
}
