package artifact

import (
	"archive/zip"
	"bytes"
	"errors"
	"fmt"
	"io"
)

// csrMatrix is the raw content of a scipy.sparse CSR .npz archive.
type csrMatrix struct {
	rows, cols int
	indptr     []int64
	indices    []int64
	data       []int64
}

// parseCSR decodes a scipy.sparse.save_npz archive holding a CSR matrix.
// Entries whose data value is zero are kept in indices; callers drop them.
func parseCSR(data []byte) (*csrMatrix, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("open npz: %w", err)
	}

	entries := make(map[string]*npyArray, 5)
	for _, f := range zr.File {
		rc, err := f.Open()
		if err != nil {
			return nil, fmt.Errorf("open %s: %w", f.Name, err)
		}
		raw, err := io.ReadAll(rc)
		_ = rc.Close()
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", f.Name, err)
		}
		if f.Name == "format.npy" {
			if !bytes.Contains(raw, []byte("csr")) {
				return nil, errors.New("sparse matrix is not in CSR format")
			}
			continue
		}
		arr, err := parseNPY(raw)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", f.Name, err)
		}
		entries[f.Name] = arr
	}

	for _, name := range []string{"indptr.npy", "indices.npy", "shape.npy"} {
		if _, ok := entries[name]; !ok {
			return nil, fmt.Errorf("npz missing %s", name)
		}
	}

	shape := entries["shape.npy"].Ints()
	if len(shape) != 2 || shape[0] < 0 || shape[1] < 0 {
		return nil, fmt.Errorf("malformed shape %v", shape)
	}

	m := &csrMatrix{
		rows:    int(shape[0]),
		cols:    int(shape[1]),
		indptr:  entries["indptr.npy"].Ints(),
		indices: entries["indices.npy"].Ints(),
	}
	if d, ok := entries["data.npy"]; ok {
		m.data = d.Ints()
	}
	return m, m.validate()
}

func (m *csrMatrix) validate() error {
	if len(m.indptr) != m.rows+1 {
		return fmt.Errorf("indptr has %d entries, want %d", len(m.indptr), m.rows+1)
	}
	if m.indptr[0] != 0 || m.indptr[m.rows] != int64(len(m.indices)) {
		return errors.New("indptr does not span indices")
	}
	for r := range m.rows {
		if m.indptr[r+1] < m.indptr[r] {
			return fmt.Errorf("indptr decreases at row %d", r)
		}
	}
	for _, c := range m.indices {
		if c < 0 || c >= int64(m.cols) {
			return fmt.Errorf("column index %d out of range [0,%d)", c, m.cols)
		}
	}
	if m.data != nil && len(m.data) != len(m.indices) {
		return fmt.Errorf("data has %d entries, indices %d", len(m.data), len(m.indices))
	}
	return nil
}

// rowTags returns the non-zero column indices per row.
func (m *csrMatrix) rowTags() [][]uint32 {
	out := make([][]uint32, m.rows)
	for r := range m.rows {
		lo, hi := m.indptr[r], m.indptr[r+1]
		tags := make([]uint32, 0, hi-lo)
		for j := lo; j < hi; j++ {
			if m.data != nil && m.data[j] == 0 {
				continue
			}
			tags = append(tags, uint32(m.indices[j]))
		}
		out[r] = tags
	}
	return out
}
