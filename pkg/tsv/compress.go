package tsv

import (
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
)

// Compression identifies a file compression by extension.
type Compression string

const (
	CompressionNone Compression = ""
	CompressionGzip Compression = ".gz"
	CompressionZstd Compression = ".zst"
)

// CompressionOf infers the compression of path from its extension.
func CompressionOf(path string) Compression {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".gz", ".gzip":
		return CompressionGzip
	case ".zst", ".zstd":
		return CompressionZstd
	default:
		return CompressionNone
	}
}

// SplitCompression splits path into the name without the compression
// extension and the extension itself ("a.tsv.gz" -> "a.tsv", ".gz").
func SplitCompression(path string) (string, string) {
	if CompressionOf(path) == CompressionNone {
		return path, ""
	}
	ext := filepath.Ext(path)
	return strings.TrimSuffix(path, ext), ext
}

// openFile opens path for reading, decompressing by extension.
func openFile(path string) (io.ReadCloser, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}

	switch CompressionOf(path) {
	case CompressionGzip:
		zr, err := gzip.NewReader(f)
		if err != nil {
			f.Close()
			return nil, err
		}
		return &stackedReadCloser{Reader: zr, closers: []func() error{zr.Close, f.Close}}, nil
	case CompressionZstd:
		dec, err := zstd.NewReader(f)
		if err != nil {
			f.Close()
			return nil, err
		}
		return &stackedReadCloser{Reader: dec, closers: []func() error{
			func() error { dec.Close(); return nil },
			f.Close,
		}}, nil
	default:
		return f, nil
	}
}

// createFile creates path for writing, compressing by extension.
func createFile(path string) (io.WriteCloser, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, err
	}

	switch CompressionOf(path) {
	case CompressionGzip:
		zw := gzip.NewWriter(f)
		return &stackedWriteCloser{Writer: zw, closers: []func() error{zw.Close, f.Close}}, nil
	case CompressionZstd:
		enc, err := zstd.NewWriter(f)
		if err != nil {
			f.Close()
			return nil, err
		}
		return &stackedWriteCloser{Writer: enc, closers: []func() error{enc.Close, f.Close}}, nil
	default:
		return f, nil
	}
}

type stackedReadCloser struct {
	io.Reader
	closers []func() error
}

func (s *stackedReadCloser) Close() error {
	return closeAll(s.closers)
}

type stackedWriteCloser struct {
	io.Writer
	closers []func() error
}

func (s *stackedWriteCloser) Close() error {
	return closeAll(s.closers)
}

// closeAll runs every closer in order and returns the first error.
func closeAll(closers []func() error) error {
	var first error
	for _, c := range closers {
		if err := c(); err != nil && first == nil {
			first = err
		}
	}
	return first
}
