package artifact

import (
	"bytes"
	"fmt"
	"io"
	"sync"

	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
)

// Compression identifies how an artifact blob is stored.
type Compression uint8

const (
	// CompressionNone is a plain blob.
	CompressionNone Compression = iota
	// CompressionZstd is a zstd frame (<name>.zst).
	CompressionZstd
	// CompressionLZ4 is an LZ4 frame (<name>.lz4).
	CompressionLZ4
)

// compressionOrder is the lookup order for an artifact.
var compressionOrder = []Compression{CompressionNone, CompressionZstd, CompressionLZ4}

// Suffix returns the file name suffix of the compression.
func (c Compression) Suffix() string {
	switch c {
	case CompressionZstd:
		return ".zst"
	case CompressionLZ4:
		return ".lz4"
	default:
		return ""
	}
}

func (c Compression) String() string {
	switch c {
	case CompressionNone:
		return "none"
	case CompressionZstd:
		return "zstd"
	case CompressionLZ4:
		return "lz4"
	default:
		return fmt.Sprintf("Compression(%d)", uint8(c))
	}
}

var zstdDecoderPool sync.Pool

func getZstdDecoder() (*zstd.Decoder, error) {
	if v := zstdDecoderPool.Get(); v != nil {
		return v.(*zstd.Decoder), nil
	}
	return zstd.NewReader(nil)
}

func putZstdDecoder(dec *zstd.Decoder) {
	zstdDecoderPool.Put(dec)
}

// decompress returns the plain contents of data.
func decompress(c Compression, data []byte) ([]byte, error) {
	switch c {
	case CompressionNone:
		return data, nil
	case CompressionZstd:
		dec, err := getZstdDecoder()
		if err != nil {
			return nil, err
		}
		defer putZstdDecoder(dec)
		return dec.DecodeAll(data, nil)
	case CompressionLZ4:
		return io.ReadAll(lz4.NewReader(bytes.NewReader(data)))
	default:
		return nil, fmt.Errorf("unknown compression %v", c)
	}
}
