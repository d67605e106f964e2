package usage

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMeasure(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "package.json"), []byte("{}"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "pkg-1.0.0.tgz"), []byte(strings.Repeat("x", 100)), 0o644))
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "sub"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "sub", "pkg-2.0.0.tgz"), []byte(strings.Repeat("y", 50)), 0o644))

	u, err := Measure(context.Background(), dir)
	require.NoError(t, err)

	assert.EqualValues(t, 3, u.Files)
	assert.EqualValues(t, 152, u.Bytes)
	assert.EqualValues(t, 2, u.Tarballs)
	assert.EqualValues(t, 150, u.TarballBytes)
}

func TestMeasureMissingDirectory(t *testing.T) {
	_, err := Measure(context.Background(), filepath.Join(t.TempDir(), "missing"))
	assert.Error(t, err)
}

func TestAdd(t *testing.T) {
	total := Usage{Files: 1, Bytes: 10}
	total.Add(Usage{Files: 2, Bytes: 5, Tarballs: 1, TarballBytes: 5})
	assert.Equal(t, Usage{Files: 3, Bytes: 15, Tarballs: 1, TarballBytes: 5}, total)
}

func TestFormatSize(t *testing.T) {
	tests := []struct {
		size int64
		want string
	}{
		{0, "0 bytes"},
		{1023, "1023 bytes"},
		{1024, "1.0 KB"},
		{1536 * 1024, "1.5 MB"},
		{2 * 1024 * 1024 * 1024, "2.0 GB"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, FormatSize(tt.size))
	}
}
