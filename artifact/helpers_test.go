package artifact

import (
	"archive/zip"
	"bytes"
	"encoding/binary"
	"fmt"
	"math"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

// encodeNPY writes a version 1.0 .npy blob. values are converted to descr.
func encodeNPY(t *testing.T, descr string, shape []int, fortran bool, values []float64) []byte {
	t.Helper()

	dims := make([]string, len(shape))
	for i, d := range shape {
		dims[i] = fmt.Sprint(d)
	}
	shapeStr := strings.Join(dims, ", ")
	if len(shape) == 1 {
		shapeStr += ","
	}
	order := "False"
	if fortran {
		order = "True"
	}
	header := fmt.Sprintf("{'descr': '%s', 'fortran_order': %s, 'shape': (%s), }", descr, order, shapeStr)
	pad := 64 - (10+len(header)+1)%64
	header += strings.Repeat(" ", pad) + "\n"

	var buf bytes.Buffer
	buf.Write(npyMagic)
	buf.Write([]byte{1, 0})
	require.NoError(t, binary.Write(&buf, binary.LittleEndian, uint16(len(header))))
	buf.WriteString(header)

	for _, v := range values {
		var err error
		switch descr {
		case "<f4":
			err = binary.Write(&buf, binary.LittleEndian, math.Float32bits(float32(v)))
		case "<f8":
			err = binary.Write(&buf, binary.LittleEndian, math.Float64bits(v))
		case "<i4":
			err = binary.Write(&buf, binary.LittleEndian, int32(v))
		case "<i8":
			err = binary.Write(&buf, binary.LittleEndian, int64(v))
		case "|i1":
			err = buf.WriteByte(byte(int8(v)))
		default:
			t.Fatalf("unsupported test dtype %s", descr)
		}
		require.NoError(t, err)
	}
	return buf.Bytes()
}

func encodeMatrix(t *testing.T, rows [][]float32) []byte {
	t.Helper()
	cols := 0
	if len(rows) > 0 {
		cols = len(rows[0])
	}
	flat := make([]float64, 0, len(rows)*cols)
	for _, r := range rows {
		for _, v := range r {
			flat = append(flat, float64(v))
		}
	}
	return encodeNPY(t, "<f4", []int{len(rows), cols}, false, flat)
}

func ints(vs ...int) []float64 {
	out := make([]float64, len(vs))
	for i, v := range vs {
		out[i] = float64(v)
	}
	return out
}

// encodeCSR writes a scipy-style CSR .npz archive.
func encodeCSR(t *testing.T, rows, cols int, rowTags [][]int) []byte {
	t.Helper()

	indptr := []int{0}
	var indices, data []int
	for _, tags := range rowTags {
		for _, c := range tags {
			indices = append(indices, c)
			data = append(data, 1)
		}
		indptr = append(indptr, len(indices))
	}

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	put := func(name string, blob []byte) {
		w, err := zw.Create(name)
		require.NoError(t, err)
		_, err = w.Write(blob)
		require.NoError(t, err)
	}
	put("indptr.npy", encodeNPY(t, "<i4", []int{len(indptr)}, false, ints(indptr...)))
	put("indices.npy", encodeNPY(t, "<i4", []int{len(indices)}, false, ints(indices...)))
	put("data.npy", encodeNPY(t, "|i1", []int{len(data)}, false, ints(data...)))
	put("shape.npy", encodeNPY(t, "<i8", []int{2}, false, ints(rows, cols)))
	require.NoError(t, zw.Close())
	return buf.Bytes()
}
