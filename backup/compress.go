package backup

import (
	"bytes"
	"errors"
	"io"
	"path/filepath"
	"strings"

	"github.com/andybalholm/brotli"
	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
)

// Compression is chosen by file extension
type Compression int

const (
	None Compression = iota
	Gzip
	Zstd
	Brotli
)

func (c Compression) String() string {
	switch c {
	case Gzip:
		return "gzip"
	case Zstd:
		return "zstd"
	case Brotli:
		return "brotli"
	}
	return "none"
}

// CompressionForPath returns compression implied by extension of path
// .gz => gzip, .zst and .zstd => zstd, .br => brotli
func CompressionForPath(path string) Compression {
	ext := strings.ToLower(filepath.Ext(path))
	switch ext {
	case ".gz":
		return Gzip
	case ".zst", ".zstd":
		return Zstd
	case ".br":
		return Brotli
	}
	return None
}

func gzipCompress(d []byte) ([]byte, error) {
	var dst bytes.Buffer
	w, err := gzip.NewWriterLevel(&dst, gzip.BestCompression)
	if err != nil {
		return nil, err
	}
	_, err = w.Write(d)
	err2 := w.Close()
	if err = errors.Join(err, err2); err != nil {
		return nil, err
	}
	return dst.Bytes(), nil
}

func zstdCompress(d []byte) ([]byte, error) {
	var dst bytes.Buffer
	// SpeedBestCompression is much slower and not much better
	w, err := zstd.NewWriter(&dst, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		return nil, err
	}
	_, err = w.Write(d)
	err2 := w.Close()
	if err = errors.Join(err, err2); err != nil {
		return nil, err
	}
	return dst.Bytes(), nil
}

func brCompress(d []byte) ([]byte, error) {
	var dst bytes.Buffer
	w := brotli.NewWriterLevel(&dst, brotli.BestCompression)
	_, err := w.Write(d)
	err2 := w.Close()
	if err = errors.Join(err, err2); err != nil {
		return nil, err
	}
	return dst.Bytes(), nil
}

// Compress compresses d with c
func Compress(c Compression, d []byte) ([]byte, error) {
	switch c {
	case Gzip:
		return gzipCompress(d)
	case Zstd:
		return zstdCompress(d)
	case Brotli:
		return brCompress(d)
	}
	return d, nil
}

// Decompress is the inverse of Compress
func Decompress(c Compression, d []byte) ([]byte, error) {
	r := bytes.NewReader(d)
	switch c {
	case Gzip:
		zr, err := gzip.NewReader(r)
		if err != nil {
			return nil, err
		}
		defer zr.Close()
		return io.ReadAll(zr)
	case Zstd:
		zr, err := zstd.NewReader(r)
		if err != nil {
			return nil, err
		}
		defer zr.Close()
		return io.ReadAll(zr)
	case Brotli:
		return io.ReadAll(brotli.NewReader(r))
	}
	return d, nil
}
