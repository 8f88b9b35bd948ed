package testutil

import (
	"archive/zip"
	"bytes"
	"encoding/binary"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	json "github.com/goccy/go-json"

	"github.com/hupe1980/recgo/artifact"
	"github.com/hupe1980/recgo/model"
)

// WriteFixtureArtifacts writes the fixture catalog to dir in the on-disk
// artifact layout read by artifact.Load.
func WriteFixtureArtifacts(dir string) error {
	p := FixtureParams()

	rowTags := make([][]uint32, len(p.ItemIDs))
	for r := range rowTags {
		rowTags[r] = p.Incidence.ItemTags(model.Row(r)).ToArray()
	}

	appid2row := make(map[string]int, len(p.ItemIDs))
	for r, id := range p.ItemIDs {
		appid2row[strconv.FormatInt(int64(id), 10)] = r
	}
	tag2idx := make(map[string]int, len(p.TagNames))
	for c, name := range p.TagNames {
		tag2idx[name] = c
	}
	maps, err := json.Marshal(map[string]any{"appid2row": appid2row, "tag2idx": tag2idx})
	if err != nil {
		return err
	}

	items := make(map[string]*artifact.Item, len(p.Items))
	for id, it := range p.Items {
		items[strconv.FormatInt(int64(id), 10)] = it
	}
	itemsJSON, err := json.Marshal(items)
	if err != nil {
		return err
	}

	csr, err := encodeCSR(len(p.ItemIDs), len(p.TagNames), rowTags)
	if err != nil {
		return err
	}

	files := map[string][]byte{
		artifact.ItemVectorsName: encodeMatrix(p.ItemVectors),
		artifact.TagVectorsName:  encodeMatrix(p.TagVectors),
		artifact.AlignmentName:   encodeMatrix(p.Alignment),
		artifact.WeightsName:     encodeNPY("<f4", []int{len(p.Weights)}, float32s(p.Weights)),
		artifact.IncidenceName:   csr,
		artifact.IndexMapsName:   maps,
		artifact.ItemsName:       itemsJSON,
	}
	for name, data := range files {
		if err := os.WriteFile(filepath.Join(dir, name), data, 0o600); err != nil {
			return err
		}
	}
	return nil
}

func float32s(vs []float32) []float64 {
	out := make([]float64, len(vs))
	for i, v := range vs {
		out[i] = float64(v)
	}
	return out
}

func encodeMatrix(rows [][]float32) []byte {
	cols := 0
	if len(rows) > 0 {
		cols = len(rows[0])
	}
	flat := make([]float64, 0, len(rows)*cols)
	for _, r := range rows {
		flat = append(flat, float32s(r)...)
	}
	return encodeNPY("<f4", []int{len(rows), cols}, flat)
}

// encodeNPY writes a version 1.0 little-endian .npy blob.
func encodeNPY(descr string, shape []int, values []float64) []byte {
	dims := make([]string, len(shape))
	for i, d := range shape {
		dims[i] = strconv.Itoa(d)
	}
	shapeStr := strings.Join(dims, ", ")
	if len(shape) == 1 {
		shapeStr += ","
	}
	header := fmt.Sprintf("{'descr': '%s', 'fortran_order': False, 'shape': (%s), }", descr, shapeStr)
	header += strings.Repeat(" ", 64-(10+len(header)+1)%64) + "\n"

	var buf bytes.Buffer
	buf.WriteString("\x93NUMPY")
	buf.Write([]byte{1, 0})
	_ = binary.Write(&buf, binary.LittleEndian, uint16(len(header)))
	buf.WriteString(header)

	for _, v := range values {
		switch descr {
		case "<f4":
			_ = binary.Write(&buf, binary.LittleEndian, math.Float32bits(float32(v)))
		case "<i4":
			_ = binary.Write(&buf, binary.LittleEndian, int32(v))
		case "<i8":
			_ = binary.Write(&buf, binary.LittleEndian, int64(v))
		case "|i1":
			buf.WriteByte(byte(int8(v)))
		}
	}
	return buf.Bytes()
}

// encodeCSR writes a scipy-style CSR .npz archive with unit data.
func encodeCSR(rows, cols int, rowTags [][]uint32) ([]byte, error) {
	indptr := []float64{0}
	var indices, data []float64
	for _, tags := range rowTags {
		for _, c := range tags {
			indices = append(indices, float64(c))
			data = append(data, 1)
		}
		indptr = append(indptr, float64(len(indices)))
	}

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for _, e := range []struct {
		name string
		blob []byte
	}{
		{"indptr.npy", encodeNPY("<i4", []int{len(indptr)}, indptr)},
		{"indices.npy", encodeNPY("<i4", []int{len(indices)}, indices)},
		{"data.npy", encodeNPY("|i1", []int{len(data)}, data)},
		{"shape.npy", encodeNPY("<i8", []int{2}, []float64{float64(rows), float64(cols)})},
	} {
		w, err := zw.Create(e.name)
		if err != nil {
			return nil, err
		}
		if _, err := w.Write(e.blob); err != nil {
			return nil, err
		}
	}
	if err := zw.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
