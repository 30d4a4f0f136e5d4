package model

import (
	"bytes"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCompressionHandler_RoundTrip(t *testing.T) {
	t.Parallel()

	payload := []byte("row,id,name\n=ROW(),1,kenta tsujii\n")

	for _, ct := range []CompressionType{CompressionNone, CompressionGZ, CompressionXZ, CompressionZSTD} {
		t.Run(ct.String(), func(t *testing.T) {
			t.Parallel()

			handler := NewCompressionHandler(ct)
			assert.Equal(t, ct, handler.Type())

			var buf bytes.Buffer
			w, closeWriter, err := handler.NewWriter(&buf)
			require.NoError(t, err)
			_, err = w.Write(payload)
			require.NoError(t, err)
			require.NoError(t, closeWriter())

			r, closeReader, err := handler.NewReader(bytes.NewReader(buf.Bytes()))
			require.NoError(t, err)
			defer func() { _ = closeReader() }()

			got, err := io.ReadAll(r)
			require.NoError(t, err)
			assert.Equal(t, payload, got)
		})
	}
}

func TestCompressionHandler_BZ2IsReadOnly(t *testing.T) {
	t.Parallel()

	_, _, err := NewCompressionHandler(CompressionBZ2).NewWriter(&bytes.Buffer{})
	assert.ErrorIs(t, err, ErrCompressionNotWritable)
}

func TestDetectCompressionType(t *testing.T) {
	t.Parallel()

	tests := []struct {
		path     string
		expected CompressionType
	}{
		{"db/test_db.xlsx", CompressionNone},
		{"db/test_db.xlsx.gz", CompressionGZ},
		{"db/test_db.xlsx.BZ2", CompressionBZ2},
		{"db/test_db.xlsx.xz", CompressionXZ},
		{"db/test_db.xlsx.zst", CompressionZSTD},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.expected, DetectCompressionType(tt.path), tt.path)
	}
}

func TestParseCompressionType(t *testing.T) {
	t.Parallel()

	for name, expected := range map[string]CompressionType{
		"":     CompressionNone,
		"none": CompressionNone,
		"gzip": CompressionGZ,
		".gz":  CompressionGZ,
		"BZ2":  CompressionBZ2,
		"xz":   CompressionXZ,
		"zst":  CompressionZSTD,
		"zstd": CompressionZSTD,
	} {
		got, err := ParseCompressionType(name)
		require.NoError(t, err, name)
		assert.Equal(t, expected, got, name)
	}

	_, err := ParseCompressionType("lz4")
	assert.Error(t, err)
}
