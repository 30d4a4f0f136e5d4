package model

import (
	"compress/bzip2"
	"compress/gzip"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/klauspost/compress/zstd"
	"github.com/ulikunitz/xz"
)

// File extensions understood by sheetdb
const (
	// ExtXLSX is the workbook extension of a database file
	ExtXLSX = ".xlsx"
	// ExtGZ is the gzip extension
	ExtGZ = ".gz"
	// ExtBZ2 is the bzip2 extension
	ExtBZ2 = ".bz2"
	// ExtXZ is the xz extension
	ExtXZ = ".xz"
	// ExtZSTD is the zstandard extension
	ExtZSTD = ".zst"
)

// ErrCompressionNotWritable is returned when a compression type has no writer
var ErrCompressionNotWritable = errors.New("compression type is not supported for writing")

// CompressionHandler wraps readers and writers with (de)compression
type CompressionHandler interface {
	// NewReader wraps r with a decompression reader. The returned func releases it.
	NewReader(r io.Reader) (io.Reader, func() error, error)
	// NewWriter wraps w with a compression writer. The returned func flushes and releases it.
	NewWriter(w io.Writer) (io.Writer, func() error, error)
	// Type returns the compression type handled
	Type() CompressionType
}

type compressionHandler struct {
	compressionType CompressionType
}

// NewCompressionHandler creates a handler for the given compression type
func NewCompressionHandler(compressionType CompressionType) CompressionHandler {
	return &compressionHandler{compressionType: compressionType}
}

func nopClose() error { return nil }

// NewReader creates a decompression reader based on the compression type
func (h *compressionHandler) NewReader(r io.Reader) (io.Reader, func() error, error) {
	switch h.compressionType {
	case CompressionNone:
		return r, nopClose, nil
	case CompressionGZ:
		gzReader, err := gzip.NewReader(r)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to create gzip reader: %w", err)
		}
		return gzReader, gzReader.Close, nil
	case CompressionBZ2:
		return bzip2.NewReader(r), nopClose, nil
	case CompressionXZ:
		xzReader, err := xz.NewReader(r)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to create xz reader: %w", err)
		}
		return xzReader, nopClose, nil
	case CompressionZSTD:
		decoder, err := zstd.NewReader(r)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to create zstd reader: %w", err)
		}
		return decoder, func() error {
			decoder.Close()
			return nil
		}, nil
	default:
		return nil, nil, fmt.Errorf("unsupported compression type for reading: %v", h.compressionType)
	}
}

// NewWriter creates a compression writer based on the compression type
func (h *compressionHandler) NewWriter(w io.Writer) (io.Writer, func() error, error) {
	switch h.compressionType {
	case CompressionNone:
		return w, nopClose, nil
	case CompressionGZ:
		gzWriter := gzip.NewWriter(w)
		return gzWriter, gzWriter.Close, nil
	case CompressionBZ2:
		return nil, nil, fmt.Errorf("%w: %s", ErrCompressionNotWritable, h.compressionType)
	case CompressionXZ:
		xzWriter, err := xz.NewWriter(w)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to create xz writer: %w", err)
		}
		return xzWriter, xzWriter.Close, nil
	case CompressionZSTD:
		zstdWriter, err := zstd.NewWriter(w)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to create zstd writer: %w", err)
		}
		return zstdWriter, zstdWriter.Close, nil
	default:
		return nil, nil, fmt.Errorf("unsupported compression type for writing: %v", h.compressionType)
	}
}

// Type returns the compression type handled
func (h *compressionHandler) Type() CompressionType {
	return h.compressionType
}

// DetectCompressionType detects the compression type from a file path
func DetectCompressionType(path string) CompressionType {
	path = strings.ToLower(path)
	switch {
	case strings.HasSuffix(path, ExtGZ):
		return CompressionGZ
	case strings.HasSuffix(path, ExtBZ2):
		return CompressionBZ2
	case strings.HasSuffix(path, ExtXZ):
		return CompressionXZ
	case strings.HasSuffix(path, ExtZSTD):
		return CompressionZSTD
	default:
		return CompressionNone
	}
}
