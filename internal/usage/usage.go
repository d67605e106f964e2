// Package usage measures how much disk a package directory takes.
package usage

import (
	"context"
	"fmt"
	"os"
	"strings"
	"sync/atomic"

	"github.com/charlievieth/fastwalk"
)

const tarballSuffix = ".tgz"

// Usage summarizes one directory tree.
type Usage struct {
	Files        int64
	Bytes        int64
	Tarballs     int64
	TarballBytes int64
}

// Add accumulates other into u.
func (u *Usage) Add(other Usage) {
	u.Files += other.Files
	u.Bytes += other.Bytes
	u.Tarballs += other.Tarballs
	u.TarballBytes += other.TarballBytes
}

// Measure walks dir (without following symlinks) and totals regular files.
func Measure(ctx context.Context, dir string) (Usage, error) {
	var files, bytes, tarballs, tarballBytes atomic.Int64

	conf := fastwalk.Config{Follow: false}
	err := fastwalk.Walk(&conf, dir, func(p string, d os.DirEntry, err error) error {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		if err != nil {
			return err
		}
		if !d.Type().IsRegular() {
			return nil
		}

		info, err := d.Info()
		if err != nil {
			return err
		}
		files.Add(1)
		bytes.Add(info.Size())
		if strings.HasSuffix(d.Name(), tarballSuffix) {
			tarballs.Add(1)
			tarballBytes.Add(info.Size())
		}
		return nil
	})
	if err != nil {
		return Usage{}, fmt.Errorf("failed to measure %s: %w", dir, err)
	}

	return Usage{
		Files:        files.Load(),
		Bytes:        bytes.Load(),
		Tarballs:     tarballs.Load(),
		TarballBytes: tarballBytes.Load(),
	}, nil
}

// FormatSize formats a byte count in human-readable form.
func FormatSize(size int64) string {
	const (
		KB = 1024
		MB = KB * 1024
		GB = MB * 1024
	)

	switch {
	case size >= GB:
		return fmt.Sprintf("%.1f GB", float64(size)/GB)
	case size >= MB:
		return fmt.Sprintf("%.1f MB", float64(size)/MB)
	case size >= KB:
		return fmt.Sprintf("%.1f KB", float64(size)/KB)
	default:
		return fmt.Sprintf("%d bytes", size)
	}
}
