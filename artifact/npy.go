package artifact

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"slices"
	"strconv"
	"strings"
)

var npyMagic = []byte("\x93NUMPY")

// npyArray is a decoded .npy header plus its raw element bytes.
type npyArray struct {
	order   binary.ByteOrder
	kind    byte // 'f', 'i', 'u' or 'b'
	size    int  // element width in bytes
	shape   []int
	n       int // element count
	fortran bool
	raw     []byte
}

// parseNPY decodes a NumPy .npy blob (format versions 1.0 through 3.0).
func parseNPY(data []byte) (*npyArray, error) {
	if len(data) < 10 || !bytes.Equal(data[:6], npyMagic) {
		return nil, errors.New("not a .npy file")
	}

	major := data[6]
	var headerLen, offset int
	switch major {
	case 1:
		headerLen = int(binary.LittleEndian.Uint16(data[8:10]))
		offset = 10
	case 2, 3:
		if len(data) < 12 {
			return nil, errors.New("truncated .npy header")
		}
		headerLen = int(binary.LittleEndian.Uint32(data[8:12]))
		offset = 12
	default:
		return nil, fmt.Errorf("unsupported .npy version %d", major)
	}
	if offset+headerLen > len(data) {
		return nil, errors.New("truncated .npy header")
	}

	header := string(data[offset : offset+headerLen])
	descr, err := headerString(header, "descr")
	if err != nil {
		return nil, err
	}
	arr := &npyArray{raw: data[offset+headerLen:]}
	if err := arr.setDescr(descr); err != nil {
		return nil, err
	}
	if arr.fortran, err = headerBool(header, "fortran_order"); err != nil {
		return nil, err
	}
	if arr.shape, err = headerShape(header); err != nil {
		return nil, err
	}

	if arr.n, err = elementCount(arr.shape, len(arr.raw)/arr.size); err != nil {
		return nil, err
	}
	arr.raw = arr.raw[:arr.n*arr.size]
	return arr, nil
}

// elementCount multiplies out shape, failing as soon as the product
// exceeds the limit elements present in the payload.
func elementCount(shape []int, limit int) (int, error) {
	if slices.Contains(shape, 0) {
		return 0, nil
	}
	n := 1
	for _, d := range shape {
		if n > limit/d {
			return 0, fmt.Errorf("truncated .npy data: shape %v exceeds the %d elements present", shape, limit)
		}
		n *= d
	}
	if n > limit {
		return 0, fmt.Errorf("truncated .npy data: shape %v exceeds the %d elements present", shape, limit)
	}
	return n, nil
}

func (a *npyArray) setDescr(descr string) error {
	if len(descr) < 3 {
		return fmt.Errorf("unsupported dtype %q", descr)
	}
	switch descr[0] {
	case '<', '|', '=':
		a.order = binary.LittleEndian
	case '>':
		a.order = binary.BigEndian
	default:
		return fmt.Errorf("unsupported dtype %q", descr)
	}
	a.kind = descr[1]
	size, err := strconv.Atoi(descr[2:])
	if err != nil {
		return fmt.Errorf("unsupported dtype %q", descr)
	}
	a.size = size

	switch {
	case a.kind == 'f' && (size == 4 || size == 8):
	case (a.kind == 'i' || a.kind == 'u') && (size == 1 || size == 2 || size == 4 || size == 8):
	case a.kind == 'b' && size == 1:
	default:
		return fmt.Errorf("unsupported dtype %q", descr)
	}
	return nil
}

// Len returns the element count.
func (a *npyArray) Len() int {
	return a.n
}

func (a *npyArray) float(i int) float64 {
	b := a.raw[i*a.size:]
	switch a.kind {
	case 'f':
		if a.size == 4 {
			return float64(math.Float32frombits(a.order.Uint32(b)))
		}
		return math.Float64frombits(a.order.Uint64(b))
	default:
		return float64(a.int(i))
	}
}

func (a *npyArray) int(i int) int64 {
	b := a.raw[i*a.size:]
	switch a.kind {
	case 'f':
		return int64(a.float(i))
	case 'i':
		switch a.size {
		case 1:
			return int64(int8(b[0]))
		case 2:
			return int64(int16(a.order.Uint16(b)))
		case 4:
			return int64(int32(a.order.Uint32(b)))
		default:
			return int64(a.order.Uint64(b))
		}
	default: // 'u', 'b'
		switch a.size {
		case 1:
			return int64(b[0])
		case 2:
			return int64(a.order.Uint16(b))
		case 4:
			return int64(a.order.Uint32(b))
		default:
			return int64(a.order.Uint64(b))
		}
	}
}

// Matrix returns the array as row-major float32 rows. A 1-D array is a
// single-column matrix.
func (a *npyArray) Matrix() ([][]float32, error) {
	var rows, cols int
	switch len(a.shape) {
	case 1:
		rows, cols = a.shape[0], 1
	case 2:
		rows, cols = a.shape[0], a.shape[1]
	default:
		return nil, fmt.Errorf("expected a 2-D array, got shape %v", a.shape)
	}

	backing := make([]float32, rows*cols)
	out := make([][]float32, rows)
	for r := range rows {
		row := backing[r*cols : (r+1)*cols : (r+1)*cols]
		for c := range cols {
			idx := r*cols + c
			if a.fortran {
				idx = c*rows + r
			}
			row[c] = float32(a.float(idx))
		}
		out[r] = row
	}
	return out, nil
}

// Floats returns a 1-D array as float32 values.
func (a *npyArray) Floats() ([]float32, error) {
	if len(a.shape) != 1 {
		return nil, fmt.Errorf("expected a 1-D array, got shape %v", a.shape)
	}
	out := make([]float32, a.shape[0])
	for i := range out {
		out[i] = float32(a.float(i))
	}
	return out, nil
}

// Ints returns the elements as int64 values, ignoring shape.
func (a *npyArray) Ints() []int64 {
	out := make([]int64, a.Len())
	for i := range out {
		out[i] = a.int(i)
	}
	return out
}

// headerValue returns the raw text following 'key': in a .npy header dict.
func headerValue(header, key string) (string, error) {
	marker := "'" + key + "':"
	i := strings.Index(header, marker)
	if i < 0 {
		return "", fmt.Errorf(".npy header missing %q", key)
	}
	return strings.TrimSpace(header[i+len(marker):]), nil
}

func headerString(header, key string) (string, error) {
	v, err := headerValue(header, key)
	if err != nil {
		return "", err
	}
	if len(v) < 2 || (v[0] != '\'' && v[0] != '"') {
		return "", fmt.Errorf(".npy header: malformed %q", key)
	}
	end := strings.IndexByte(v[1:], v[0])
	if end < 0 {
		return "", fmt.Errorf(".npy header: malformed %q", key)
	}
	return v[1 : end+1], nil
}

func headerBool(header, key string) (bool, error) {
	v, err := headerValue(header, key)
	if err != nil {
		return false, err
	}
	switch {
	case strings.HasPrefix(v, "True"):
		return true, nil
	case strings.HasPrefix(v, "False"):
		return false, nil
	default:
		return false, fmt.Errorf(".npy header: malformed %q", key)
	}
}

func headerShape(header string) ([]int, error) {
	v, err := headerValue(header, "shape")
	if err != nil {
		return nil, err
	}
	end := strings.IndexByte(v, ')')
	if !strings.HasPrefix(v, "(") || end < 0 {
		return nil, errors.New(".npy header: malformed shape")
	}

	var shape []int
	for _, part := range strings.Split(v[1:end], ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		d, err := strconv.Atoi(strings.TrimSuffix(part, "L"))
		if err != nil || d < 0 {
			return nil, fmt.Errorf(".npy header: malformed shape %q", v[:end+1])
		}
		shape = append(shape, d)
	}
	return shape, nil
}
