package artifact

import (
	"bytes"
	"context"
	"testing"

	"github.com/RoaringBitmap/roaring/v2"
	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/recgo/blobstore"
	"github.com/hupe1980/recgo/model"
)

var (
	testItems = [][]float32{{1, 0, 0}, {0, 1, 0}, {0, 0, 1}, {1, 1, 0}}
	testTags  = [][]float32{{1, 0, 0}, {0, 0, 1}}
	testAlign = [][]float32{{1, 0, 0}, {0, 0, 1}}
)

const testMaps = `{"appid2row":{"730":0,"10":1,"20":2,"30":3},"tag2idx":{"Action":0,"horror":1}}`

const testAttrs = `{
	"730": {"title":"Counter-Strike 2","price":0,"platforms":["windows","linux"],"multiplayer":true,"release_date":"2023-09-27"},
	"10": {"price":9.99,"release_date":"Nov 1, 2000"},
	"20": {"price":59.99}
}`

func newTestStore(t *testing.T) *blobstore.MemoryStore {
	t.Helper()

	s := blobstore.NewMemoryStore()
	s.Put(ItemVectorsName, encodeMatrix(t, testItems))
	s.Put(TagVectorsName, encodeMatrix(t, testTags))
	s.Put(AlignmentName, encodeMatrix(t, testAlign))
	s.Put(WeightsName, encodeNPY(t, "<f8", []int{4}, false, []float64{0.1, 0.5, 0.9, 0.3}))
	s.Put(IncidenceName, encodeCSR(t, 4, 2, [][]int{{0}, {0, 1}, {1}, {}}))
	s.Put(IndexMapsName, []byte(testMaps))
	s.Put(ItemsName, []byte(testAttrs))
	return s
}

func TestLoad(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	var seen []string
	sc, err := Load(ctx, s, func(o *LoadOptions) {
		o.Concurrency = 1
		o.Observer = func(name string, _ Compression, _ int) { seen = append(seen, name) }
	})
	require.NoError(t, err)
	assert.Len(t, seen, 7)

	assert.Equal(t, 4, sc.Len())
	assert.Equal(t, 3, sc.Dimension())
	assert.Equal(t, 2, sc.TagCount())
	assert.Equal(t, 2, sc.EmbeddingDimension())

	row, ok := sc.Row(730)
	require.True(t, ok)
	assert.Equal(t, model.Row(0), row)
	assert.Equal(t, model.ItemID(30), sc.ID(3))
	assert.Equal(t, []float32{1, 1, 0}, sc.ItemVector(3))
	assert.InDelta(t, 0.9, sc.Weight(2), 1e-6)

	c, ok := sc.TagIndex(" ACTION ")
	require.True(t, ok)
	assert.Equal(t, 0, c)
	assert.Equal(t, "action", sc.TagName(0))

	inc := sc.Incidence()
	assert.True(t, inc.Has(1, 1))
	assert.Equal(t, 0, inc.TagCount(3))
	assert.Equal(t, []uint32{0, 1}, inc.Posting(0).ToArray())
	assert.Equal(t, uint64(4), inc.NNZ())

	it := sc.Item(0)
	require.NotNil(t, it)
	assert.True(t, it.HasPlatform("Linux"))
	assert.False(t, it.HasPlatform("mac"))
	assert.Nil(t, sc.Item(3))

	lo, hi, ok := sc.ReleaseRange()
	require.True(t, ok)
	assert.Equal(t, 2000, lo.Year())
	assert.Equal(t, 2023, hi.Year())

	sum := sc.Summarize()
	assert.Equal(t, 3, sum.ItemsWithAttrs)
	assert.Equal(t, "2000-11-01", sum.EarliestRelease)
	assert.Contains(t, sum.String(), "items=4")
}

func TestLoad_Compressed(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name     string
		compress func(t *testing.T, b []byte) []byte
		c        Compression
	}{
		{"zstd", func(t *testing.T, b []byte) []byte {
			enc, err := zstd.NewWriter(nil)
			require.NoError(t, err)
			defer enc.Close()
			return enc.EncodeAll(b, nil)
		}, CompressionZstd},
		{"lz4", func(t *testing.T, b []byte) []byte {
			var buf bytes.Buffer
			w := lz4.NewWriter(&buf)
			_, err := w.Write(b)
			require.NoError(t, err)
			require.NoError(t, w.Close())
			return buf.Bytes()
		}, CompressionLZ4},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestStore(t)
			raw, err := blobstore.ReadAll(ctx, s, ItemVectorsName)
			require.NoError(t, err)
			s.Delete(ItemVectorsName)
			s.Put(ItemVectorsName+tt.c.Suffix(), tt.compress(t, raw))

			var got Compression
			sc, err := Load(ctx, s, func(o *LoadOptions) {
				o.Observer = func(name string, c Compression, _ int) {
					if name == ItemVectorsName {
						got = c
					}
				}
			})
			require.NoError(t, err)
			assert.Equal(t, tt.c, got)
			assert.Equal(t, []float32{0, 1, 0}, sc.ItemVector(1))
		})
	}
}

func TestLoad_Errors(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name     string
		mutate   func(t *testing.T, s *blobstore.MemoryStore)
		artifact string
	}{
		{"MissingItemVectors", func(_ *testing.T, s *blobstore.MemoryStore) { s.Delete(ItemVectorsName) }, ItemVectorsName},
		{"MissingMaps", func(_ *testing.T, s *blobstore.MemoryStore) { s.Delete(IndexMapsName) }, IndexMapsName},
		{"TagWidth", func(t *testing.T, s *blobstore.MemoryStore) {
			s.Put(TagVectorsName, encodeMatrix(t, [][]float32{{1, 0}, {0, 1}}))
		}, TagVectorsName},
		{"WeightCount", func(t *testing.T, s *blobstore.MemoryStore) {
			s.Put(WeightsName, encodeNPY(t, "<f4", []int{3}, false, []float64{1, 2, 3}))
		}, WeightsName},
		{"IncidenceColumns", func(t *testing.T, s *blobstore.MemoryStore) {
			s.Put(IncidenceName, encodeCSR(t, 4, 3, [][]int{{0}, {}, {}, {2}}))
		}, IncidenceName},
		{"Garbage", func(_ *testing.T, s *blobstore.MemoryStore) { s.Put(WeightsName, []byte("nope")) }, WeightsName},
		{"OverflowingShape", func(t *testing.T, s *blobstore.MemoryStore) {
			s.Put(ItemVectorsName, encodeNPY(t, "<f4", []int{1 << 62, 4}, false, nil))
		}, ItemVectorsName},
		{"BadZstd", func(_ *testing.T, s *blobstore.MemoryStore) {
			s.Delete(ItemVectorsName)
			s.Put(ItemVectorsName+".zst", []byte("not zstd"))
		}, ItemVectorsName},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestStore(t)
			tt.mutate(t, s)

			_, err := Load(ctx, s)
			require.Error(t, err)
			assert.ErrorIs(t, err, model.ErrMissingArtifact)

			var me *model.MissingArtifactError
			require.ErrorAs(t, err, &me)
			assert.Equal(t, tt.artifact, me.Name)
		})
	}
}

func TestLoad_OptionalArtifacts(t *testing.T) {
	s := newTestStore(t)
	s.Delete(AlignmentName)
	s.Delete(ItemsName)

	sc, err := Load(context.Background(), s)
	require.NoError(t, err)
	assert.False(t, sc.HasAlignment())

	_, _, ok := sc.ReleaseRange()
	assert.False(t, ok)

	_, err = sc.Project([]float32{1, 0})
	assert.ErrorIs(t, err, model.ErrMissingArtifact)
}

func TestProject(t *testing.T) {
	sc, err := Load(context.Background(), newTestStore(t))
	require.NoError(t, err)

	v, err := sc.Project([]float32{2, 3})
	require.NoError(t, err)
	assert.Equal(t, []float32{2, 0, 3}, v)

	_, err = sc.Project([]float32{1, 2, 3})
	assert.ErrorIs(t, err, model.ErrDimensionMismatch)
}

func TestParseNPY(t *testing.T) {
	t.Run("FortranOrder", func(t *testing.T) {
		// Column-major 2x3: [[1,2,3],[4,5,6]].
		blob := encodeNPY(t, "<f8", []int{2, 3}, true, []float64{1, 4, 2, 5, 3, 6})
		arr, err := parseNPY(blob)
		require.NoError(t, err)

		m, err := arr.Matrix()
		require.NoError(t, err)
		assert.Equal(t, [][]float32{{1, 2, 3}, {4, 5, 6}}, m)
	})

	t.Run("Ints", func(t *testing.T) {
		arr, err := parseNPY(encodeNPY(t, "|i1", []int{3}, false, []float64{-1, 0, 7}))
		require.NoError(t, err)
		assert.Equal(t, []int64{-1, 0, 7}, arr.Ints())
	})

	t.Run("Errors", func(t *testing.T) {
		_, err := parseNPY([]byte("\x93NUMPY"))
		assert.Error(t, err)

		blob := encodeNPY(t, "<f4", []int{4}, false, []float64{1, 2, 3, 4})
		_, err = parseNPY(blob[:len(blob)-2])
		assert.Error(t, err)

		arr, err := parseNPY(blob)
		require.NoError(t, err)
		_, err = arr.Matrix()
		assert.NoError(t, err)

		_, err = parseNPY(bytes.Replace(blob, []byte("<f4"), []byte("<c8"), 1))
		assert.Error(t, err)
	})

	t.Run("OverflowingShape", func(t *testing.T) {
		tests := []struct {
			name   string
			shape  []int
			values []float64
		}{
			{"WrapsToZero", []int{1 << 62, 4}, nil},
			{"WrapsToPayloadSize", []int{1<<61 + 1, 8}, []float64{1, 2, 3, 4, 5, 6, 7, 8}},
			{"HugeColumn", []int{1, 1 << 62}, []float64{1}},
		}

		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				blob := encodeNPY(t, "<f4", tt.shape, false, tt.values)

				require.NotPanics(t, func() {
					_, err := parseMatrix(blob)
					assert.Error(t, err)
				})
			})
		}
	})

	t.Run("ScalarWithoutData", func(t *testing.T) {
		_, err := parseNPY(encodeNPY(t, "<f4", nil, false, nil))
		assert.Error(t, err)
	})
}

func TestIncidence(t *testing.T) {
	inc, err := NewIncidence(3, 4, [][]uint32{{0, 2}, {1}, {}})
	require.NoError(t, err)

	assert.Equal(t, 2, inc.Overlap(0, roaring.BitmapOf(0, 1, 2)))
	assert.Equal(t, 0, inc.Overlap(2, roaring.BitmapOf(0, 1, 2)))
	assert.True(t, inc.Posting(3).IsEmpty())

	_, err = NewIncidence(2, 2, [][]uint32{{0}, {5}})
	assert.Error(t, err)

	_, err = NewIncidence(2, 2, [][]uint32{{0}})
	assert.Error(t, err)
}

func TestNew_Validation(t *testing.T) {
	base := func() Params {
		return Params{
			ItemIDs:     []model.ItemID{1, 2},
			ItemVectors: [][]float32{{1, 0}, {0, 1}},
			TagNames:    []string{"a"},
			TagVectors:  [][]float32{{1, 1}},
			Weights:     []float32{1, 2},
		}
	}

	_, err := New(base())
	require.NoError(t, err)

	tests := []struct {
		name   string
		mutate func(p *Params)
	}{
		{"NoItems", func(p *Params) { p.ItemIDs = nil }},
		{"DuplicateID", func(p *Params) { p.ItemIDs = []model.ItemID{1, 1} }},
		{"DuplicateTag", func(p *Params) {
			p.TagNames = []string{"a", "A "}
			p.TagVectors = [][]float32{{1, 0}, {0, 1}}
		}},
		{"RaggedItems", func(p *Params) { p.ItemVectors = [][]float32{{1, 0}, {1}} }},
		{"AlignWidth", func(p *Params) { p.Alignment = [][]float32{{1, 2, 3}} }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := base()
			tt.mutate(&p)
			_, err := New(p)
			assert.ErrorIs(t, err, model.ErrMissingArtifact)
		})
	}
}
