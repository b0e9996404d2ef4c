package fileloader

import (
	"bytes"
	"compress/bzip2"
	"compress/gzip"
	"fmt"
	"io"
	"os"

	"github.com/ulikunitz/xz"
)

// CompressionType represents the compression format of a file
type CompressionType int

const (
	CompressionNone CompressionType = iota
	CompressionGzip
	CompressionBzip2
	CompressionXZ
)

// String returns the string representation of CompressionType
func (ct CompressionType) String() string {
	switch ct {
	case CompressionGzip:
		return "gzip"
	case CompressionBzip2:
		return "bzip2"
	case CompressionXZ:
		return "xz"
	default:
		return "none"
	}
}

// DecompressionResult contains the decompressed data and any warning
type DecompressionResult struct {
	Data    []byte
	Warning string // Non-empty if decompression was incomplete
}

// ReadFileData reads a file's contents, decompressing transparently. The
// returned warning is non-empty when a truncated stream yielded partial
// data.
func ReadFileData(filePath string) ([]byte, string, error) {
	_, compression := DetectFileTypeAndCompression(filePath)
	if compression == CompressionNone {
		data, err := os.ReadFile(filePath)
		return data, "", err
	}

	result, err := DecompressFile(filePath, compression)
	if err != nil {
		return nil, "", err
	}
	return result.Data, result.Warning, nil
}

// DecompressFile reads a compressed file and returns the decompressed data.
// A mid-stream failure returns the partial data with a warning instead of an
// error, so a truncated archive still yields its readable prefix.
func DecompressFile(filePath string, compressionType CompressionType) (*DecompressionResult, error) {
	if compressionType == CompressionNone {
		data, err := os.ReadFile(filePath)
		if err != nil {
			return nil, err
		}
		return &DecompressionResult{Data: data}, nil
	}

	f, err := os.Open(filePath)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var reader io.Reader
	switch compressionType {
	case CompressionGzip:
		gzReader, err := gzip.NewReader(f)
		if err != nil {
			return nil, fmt.Errorf("failed to create gzip reader: %w", err)
		}
		defer gzReader.Close()
		reader = gzReader

	case CompressionBzip2:
		reader = bzip2.NewReader(f)

	case CompressionXZ:
		xzReader, err := xz.NewReader(f)
		if err != nil {
			return nil, fmt.Errorf("failed to create xz reader: %w", err)
		}
		reader = xzReader

	default:
		return nil, fmt.Errorf("unsupported compression type: %v", compressionType)
	}

	var buf bytes.Buffer
	_, decompressErr := io.Copy(&buf, reader)

	result := &DecompressionResult{Data: buf.Bytes()}
	if decompressErr != nil {
		if len(result.Data) == 0 {
			return nil, fmt.Errorf("decompression failed: %w", decompressErr)
		}
		result.Warning = fmt.Sprintf("Decompression incomplete: %v. Some data may be missing.", decompressErr)
	}

	return result, nil
}
